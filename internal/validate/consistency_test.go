package validate

import (
	"testing"
	"time"

	"github.com/ppiankov/marginalia/internal/model"
)

func cleanStory() *model.Story {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &model.Story{
		Title: "Clean",
		Chapters: map[int][]model.AnalysisItem{
			1: {
				{
					SentenceID: "1:1", Sentence: "First.", Chapter: 1, Number: 1,
					Comments: []model.Comment{
						{ID: "a", Text: "note", Kind: model.KindSingle, Timestamp: ts},
						{ID: "g1", Text: "shared", Kind: model.KindGroup, Timestamp: ts, GroupID: "grp", AppliesTo: []int{1, 3}},
					},
				},
				{
					SentenceID: "1:3", Sentence: "Third.", Chapter: 1, Number: 3,
					Comments: []model.Comment{
						{ID: "g2", Text: "shared", Kind: model.KindGroup, Timestamp: ts, GroupID: "grp", AppliesTo: []int{1, 3}},
					},
				},
			},
		},
	}
}

func TestChecker_CleanStoryPasses(t *testing.T) {
	issues := NewChecker().Check(cleanStory())
	if len(issues) != 0 {
		t.Errorf("Expected no issues on a clean container, got %+v", issues)
	}
}

func TestChecker_GroupTextDrift(t *testing.T) {
	st := cleanStory()
	st.Chapters[1][1].Comments[0].Text = "drifted"

	issues := NewChecker().Check(st)
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %+v", issues)
	}
	if issues[0].Severity != SeverityError || issues[0].GroupID != "grp" {
		t.Errorf("Expected group text error, got %+v", issues[0])
	}
}

func TestChecker_GroupTimestampDrift(t *testing.T) {
	st := cleanStory()
	st.Chapters[1][1].Comments[0].Timestamp = st.Chapters[1][1].Comments[0].Timestamp.Add(time.Second)

	issues := NewChecker().Check(st)
	if len(issues) != 1 || issues[0].Severity != SeverityError {
		t.Fatalf("Expected a timestamp error, got %+v", issues)
	}
}

func TestChecker_KindViolations(t *testing.T) {
	st := cleanStory()
	// Single comment with a group id, and a group comment without one
	st.Chapters[1][0].Comments[0].GroupID = "stray"
	st.Chapters[1][1].Comments[0].GroupID = ""

	issues := NewChecker().Check(st)

	foundStray, foundMissing := false, false
	for _, issue := range issues {
		if issue.GroupID == "stray" {
			foundStray = true
		}
		if issue.Message == "group comment has no group id" {
			foundMissing = true
		}
	}
	if !foundStray {
		t.Error("Expected an issue for single comment carrying a group id")
	}
	if !foundMissing {
		t.Error("Expected an issue for group comment without group id")
	}
}

func TestChecker_DuplicateCommentIDs(t *testing.T) {
	st := cleanStory()
	st.Chapters[1][1].Comments[0].ID = "a" // Clashes with 1:1's single comment

	issues := NewChecker().Check(st)
	found := false
	for _, issue := range issues {
		if issue.CommentID == "a" && issue.Severity == SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected duplicate id error, got %+v", issues)
	}
}

func TestChecker_UnsortedAppliesToIsWarning(t *testing.T) {
	st := cleanStory()
	st.Chapters[1][0].Comments[1].AppliesTo = []int{3, 1}

	issues := NewChecker().Check(st)
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %+v", issues)
	}
	if issues[0].Severity != SeverityWarning {
		t.Errorf("Expected a warning, got %+v", issues[0])
	}
}

func TestChecker_SentenceIDMismatch(t *testing.T) {
	st := cleanStory()
	st.Chapters[1][0].SentenceID = "2:9"

	issues := NewChecker().Check(st)
	if len(issues) == 0 || issues[0].Severity != SeverityError {
		t.Fatalf("Expected a sentence id error, got %+v", issues)
	}
}
