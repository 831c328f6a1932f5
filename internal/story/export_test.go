package story

import (
	"testing"
	"time"

	"github.com/ppiankov/marginalia/internal/model"
)

func exportFixture() *model.Story {
	t1 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	return &model.Story{
		Title: "Fixture",
		Chapters: map[int][]model.AnalysisItem{
			2: {
				{SentenceID: "2:1", Sentence: "Chapter two opens.", Chapter: 2, Number: 1},
			},
			1: {
				{
					SentenceID: "1:1", Sentence: "First.", Chapter: 1, Number: 1,
					Analysis: map[string]string{"pov": "third"},
					Comments: []model.Comment{
						{ID: "a", Text: "older note", Kind: model.KindSingle, Timestamp: t1},
						{ID: "b", Text: "newer note", Kind: model.KindSingle, Timestamp: t2},
					},
				},
				{
					SentenceID: "1:2", Sentence: "Second.", Chapter: 1, Number: 2,
					Comments: []model.Comment{
						{ID: "g", Text: "shared", Kind: model.KindGroup, Timestamp: t2, GroupID: "grp", AppliesTo: []int{2, 3}},
					},
				},
			},
		},
		Source: model.StorySource{
			Title:    "Fixture",
			Chapters: map[string]string{"1": "chapter one text"},
		},
	}
}

func TestExportFull_OrderingAndLegacyFields(t *testing.T) {
	doc := ExportFull(exportFixture())

	if len(doc.Analysis) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(doc.Analysis))
	}

	// Chapter asc, then sentence number asc
	wantIDs := []string{"1:1", "1:2", "2:1"}
	for i, want := range wantIDs {
		ch := doc.Analysis[i]["chapter"].(int)
		n := doc.Analysis[i]["sentence_number"].(int)
		if model.SentenceID(ch, n) != want {
			t.Errorf("Entry %d: expected %s, got %s", i, want, model.SentenceID(ch, n))
		}
	}

	first := doc.Analysis[0]
	if first["comment"] != "newer note" {
		t.Errorf("Expected legacy comment from latest comment, got %v", first["comment"])
	}
	if _, present := first["comment_applies_to_sentences"]; present {
		t.Error("Single latest comment must not emit an applies-to field")
	}
	if first["pov"] != "third" {
		t.Errorf("Expected preserved extras, got %v", first["pov"])
	}

	second := doc.Analysis[1]
	if second["comment"] != "shared" {
		t.Errorf("Expected legacy comment 'shared', got %v", second["comment"])
	}
	if second["comment_applies_to_sentences"] != "2,3" {
		t.Errorf("Expected applies-to '2,3', got %v", second["comment_applies_to_sentences"])
	}

	comments, ok := second["comments"].([]model.Comment)
	if !ok || len(comments) != 1 {
		t.Fatalf("Expected full comment history on export, got %v", second["comments"])
	}
	if comments[0].GroupID != "grp" {
		t.Errorf("Expected group linkage in history, got %+v", comments[0])
	}

	if doc.Story.Chapters["1"] != "chapter one text" {
		t.Error("Expected complete story block passthrough")
	}
}

func TestExportFull_DoesNotAliasStory(t *testing.T) {
	st := exportFixture()
	doc := ExportFull(st)

	// Mutating exported comment history must not reach the container
	comments := doc.Analysis[1]["comments"].([]model.Comment)
	comments[0].Text = "tampered"

	if st.Chapters[1][1].Comments[0].Text != "shared" {
		t.Error("Export must hand out copies, not aliases")
	}
}

func TestExportSimple(t *testing.T) {
	entries := ExportSimple(exportFixture())

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	// Ordered by sentence number only; chapter boundaries collapse
	wantNumbers := []int{1, 1, 2}
	for i, want := range wantNumbers {
		if entries[i].Number != want {
			t.Errorf("Entry %d: expected number %d, got %d", i, want, entries[i].Number)
		}
	}

	// The two comments on 1:1 are t1 < t2; only the t2 text is emitted
	if entries[0].Comment != "newer note" {
		t.Errorf("Expected latest comment text, got %q", entries[0].Comment)
	}
	if entries[0].AppliesTo != "" {
		t.Error("Single comment must not emit applies-to")
	}

	var groupEntry SimpleEntry
	for _, e := range entries {
		if e.Number == 2 {
			groupEntry = e
		}
	}
	if groupEntry.Comment != "shared" || groupEntry.AppliesTo != "2,3" {
		t.Errorf("Expected group legacy fields, got %+v", groupEntry)
	}

	// Unannotated sentences emit no legacy fields
	for _, e := range entries {
		if e.Sentence == "Chapter two opens." && e.Comment != "" {
			t.Errorf("Expected no comment on unannotated sentence, got %q", e.Comment)
		}
	}
}

func TestLatestComment_TieBreakByID(t *testing.T) {
	ts := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	comments := []model.Comment{
		{ID: "bbb", Text: "second by id", Timestamp: ts},
		{ID: "aaa", Text: "first by id", Timestamp: ts},
	}

	latest, ok := LatestComment(comments)
	if !ok {
		t.Fatal("Expected a latest comment")
	}
	if latest.ID != "bbb" {
		t.Errorf("Expected greater id to win the tie, got %q", latest.ID)
	}

	// Order independence
	latest2, _ := LatestComment([]model.Comment{comments[1], comments[0]})
	if latest2.ID != latest.ID {
		t.Error("Expected tie-break to be order independent")
	}

	if _, ok := LatestComment(nil); ok {
		t.Error("Expected no latest comment for empty history")
	}
}
