package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/marginalia/internal/model"
)

// testImporter returns an importer with a fixed clock and sequential ids
func testImporter(at time.Time) *Importer {
	n := 0
	return &Importer{
		now: func() time.Time { return at },
		newID: func() string {
			n++
			return fmt.Sprintf("import-%d", n)
		},
	}
}

var importTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestImporter_BasicDocument(t *testing.T) {
	doc := `{
		"analysis": [
			{"sentence": "The rain had not stopped for days.", "chapter": 1, "sentence_number": 2, "mood": "bleak", "tension": 0.75},
			{"sentence": "It began with a knock.", "chapter": 1, "sentence_number": 1},
			{"sentence": "Morning came anyway.", "chapter": 2, "sentence_number": 1}
		],
		"story": {"title": "The Long Rain", "chapters": {"1": "It began with a knock. The rain had not stopped for days.", "2": "Morning came anyway."}}
	}`

	st, err := testImporter(importTime).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if st.Title != "The Long Rain" {
		t.Errorf("Expected title 'The Long Rain', got %q", st.Title)
	}

	if len(st.Chapters) != 2 {
		t.Fatalf("Expected 2 chapters, got %d", len(st.Chapters))
	}

	// Chapter 1 must be sorted by sentence number even though the input
	// arrived out of order
	ch1 := st.Chapters[1]
	if len(ch1) != 2 {
		t.Fatalf("Expected 2 sentences in chapter 1, got %d", len(ch1))
	}
	if ch1[0].Number != 1 || ch1[1].Number != 2 {
		t.Errorf("Expected sentence numbers [1 2], got [%d %d]", ch1[0].Number, ch1[1].Number)
	}

	if ch1[0].SentenceID != "1:1" {
		t.Errorf("Expected sentence id '1:1', got %q", ch1[0].SentenceID)
	}

	// Extras retained in display-string form
	extras := ch1[1].Analysis
	if extras["mood"] != "bleak" {
		t.Errorf("Expected mood extra 'bleak', got %q", extras["mood"])
	}
	if extras["tension"] != "0.75" {
		t.Errorf("Expected tension extra '0.75', got %q", extras["tension"])
	}
	if _, leaked := extras["sentence"]; leaked {
		t.Error("Known field 'sentence' must not appear in extras")
	}

	if st.Source.Chapters["2"] != "Morning came anyway." {
		t.Errorf("Expected chapter text passthrough, got %q", st.Source.Chapters["2"])
	}
}

func TestImporter_LegacySingleComment(t *testing.T) {
	doc := `{
		"analysis": [{"sentence": "A door opened.", "chapter": 1, "sentence_number": 1, "comment": "too abrupt"}],
		"story": {"title": "Doors"}
	}`

	st, err := testImporter(importTime).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	comments := st.Chapters[1][0].Comments
	if len(comments) != 1 {
		t.Fatalf("Expected 1 synthesized comment, got %d", len(comments))
	}
	c := comments[0]
	if c.Text != "too abrupt" {
		t.Errorf("Expected text 'too abrupt', got %q", c.Text)
	}
	if c.Kind != model.KindSingle {
		t.Errorf("Expected single kind, got %q", c.Kind)
	}
	if c.GroupID != "" {
		t.Errorf("Expected no group id, got %q", c.GroupID)
	}
	if c.ID == "" {
		t.Error("Expected a generated id")
	}
	if !c.Timestamp.Equal(importTime) {
		t.Errorf("Expected import time %v, got %v", importTime, c.Timestamp)
	}
}

func TestImporter_LegacyGroupComment(t *testing.T) {
	doc := `{
		"analysis": [{"sentence": "A door opened.", "chapter": 1, "sentence_number": 1,
			"comment": "recurring image", "comment_applies_to_sentences": "3, 1, x, 5"}],
		"story": {"title": "Doors"}
	}`

	st, err := testImporter(importTime).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	c := st.Chapters[1][0].Comments[0]
	if c.Kind != model.KindGroup {
		t.Errorf("Expected group kind, got %q", c.Kind)
	}
	if c.GroupID == "" {
		t.Error("Expected a fresh group id for the legacy group comment")
	}

	// Invalid tokens dropped, remainder sorted
	want := []int{1, 3, 5}
	if len(c.AppliesTo) != len(want) {
		t.Fatalf("Expected applies-to %v, got %v", want, c.AppliesTo)
	}
	for i, n := range want {
		if c.AppliesTo[i] != n {
			t.Errorf("Expected applies-to %v, got %v", want, c.AppliesTo)
			break
		}
	}
}

func TestImporter_AdoptsPriorHistory(t *testing.T) {
	doc := `{
		"analysis": [{"sentence": "A door opened.", "chapter": 1, "sentence_number": 1,
			"comment": "legacy text must be ignored",
			"comments": [
				{"id": "c-1", "text": "keep", "kind": "single", "timestamp": "2025-01-02T03:04:05Z"},
				{"text": "no id or timestamp", "kind": "single"}
			]}],
		"story": {"title": "Doors"}
	}`

	st, err := testImporter(importTime).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	comments := st.Chapters[1][0].Comments
	if len(comments) != 2 {
		t.Fatalf("Expected 2 adopted comments (legacy field ignored), got %d", len(comments))
	}

	if comments[0].ID != "c-1" {
		t.Errorf("Expected preserved id 'c-1', got %q", comments[0].ID)
	}
	wantTS := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if !comments[0].Timestamp.Equal(wantTS) {
		t.Errorf("Expected preserved timestamp %v, got %v", wantTS, comments[0].Timestamp)
	}

	if comments[1].ID == "" {
		t.Error("Expected a generated id for the comment missing one")
	}
	if !comments[1].Timestamp.Equal(importTime) {
		t.Errorf("Expected import time for the comment missing a timestamp, got %v", comments[1].Timestamp)
	}
}

func TestImporter_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing analysis", `{"story": {"title": "T"}}`},
		{"analysis not a list", `{"analysis": {"a": 1}, "story": {"title": "T"}}`},
		{"missing title", `{"analysis": [], "story": {}}`},
		{"non-numeric chapter", `{"analysis": [{"sentence": "S.", "chapter": "one", "sentence_number": 1}], "story": {"title": "T"}}`},
		{"fractional sentence number", `{"analysis": [{"sentence": "S.", "chapter": 1, "sentence_number": 1.5}], "story": {"title": "T"}}`},
		{"empty sentence", `{"analysis": [{"sentence": "  ", "chapter": 1, "sentence_number": 1}], "story": {"title": "T"}}`},
		{"not json", `nonsense`},
	}

	for _, tc := range cases {
		st, err := testImporter(importTime).Parse([]byte(tc.doc))
		if err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %T (%v)", tc.name, err, err)
		}
		if st != nil {
			t.Errorf("%s: expected no story to be installed on failure", tc.name)
		}
	}
}

func TestImporter_RoundTrip(t *testing.T) {
	doc := `{
		"analysis": [
			{"sentence": "It began with a knock.", "chapter": 1, "sentence_number": 1, "pov": "third"},
			{"sentence": "The rain had not stopped for days.", "chapter": 1, "sentence_number": 2, "comment": "trim this"},
			{"sentence": "Morning came anyway.", "chapter": 2, "sentence_number": 1,
				"comments": [{"id": "c-9", "text": "echoes the opening", "kind": "group", "timestamp": "2025-03-01T00:00:00Z", "group_id": "g-1", "applies_to_sentences": [1]}]}
		],
		"story": {"title": "The Long Rain", "chapters": {"1": "full chapter one text"}}
	}`

	first, err := testImporter(importTime).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("first import: %v", err)
	}

	exported, err := json.Marshal(ExportFull(first))
	if err != nil {
		t.Fatalf("marshal export: %v", err)
	}

	second, err := testImporter(importTime.Add(time.Hour)).Parse(exported)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}

	if second.Title != first.Title {
		t.Errorf("Expected title %q, got %q", first.Title, second.Title)
	}
	if second.SentenceCount() != first.SentenceCount() {
		t.Fatalf("Expected %d sentences, got %d", first.SentenceCount(), second.SentenceCount())
	}

	firstItems := first.Items()
	secondItems := second.Items()
	for i := range firstItems {
		a, b := firstItems[i], secondItems[i]
		if a.SentenceID != b.SentenceID || a.Sentence != b.Sentence {
			t.Errorf("Sentence %d mismatch: %q vs %q", i, a.SentenceID, b.SentenceID)
		}
		if a.Analysis["pov"] != b.Analysis["pov"] {
			t.Errorf("Sentence %d lost extras: %v vs %v", i, a.Analysis, b.Analysis)
		}
		if len(a.Comments) != len(b.Comments) {
			t.Errorf("Sentence %d comment count mismatch: %d vs %d", i, len(a.Comments), len(b.Comments))
			continue
		}
		for j := range a.Comments {
			ca, cb := a.Comments[j], b.Comments[j]
			if ca.Text != cb.Text || ca.Kind != cb.Kind {
				t.Errorf("Sentence %d comment %d mismatch: %+v vs %+v", i, j, ca, cb)
			}
			// Ids and group linkage survive because the export carried them
			if ca.ID != cb.ID || ca.GroupID != cb.GroupID {
				t.Errorf("Sentence %d comment %d identity not preserved: %+v vs %+v", i, j, ca, cb)
			}
		}
	}

	if second.Source.Chapters["1"] != "full chapter one text" {
		t.Error("Expected complete story block to round-trip unchanged")
	}
}
