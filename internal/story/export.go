package story

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/marginalia/internal/model"
)

// FullDocument is the lossless export shape. Feeding it back through the
// importer reconstructs an equivalent story.
type FullDocument struct {
	Analysis []map[string]interface{} `json:"analysis"`
	Story    model.StorySource        `json:"story"`
}

// SimpleEntry is one sentence of the simple export shape: text, number, and
// the derived legacy comment fields only.
type SimpleEntry struct {
	Sentence  string `json:"sentence"`
	Number    int    `json:"sentence_number"`
	Comment   string `json:"comment,omitempty"`
	AppliesTo string `json:"comment_applies_to_sentences,omitempty"`
}

// ExportFull serializes the story with the full comment history and all
// preserved analysis fields. Sentences are ordered by chapter asc, then
// sentence number asc; the original story block passes through unchanged.
// The derived legacy fields come from the latest comment per sentence.
func ExportFull(st *model.Story) FullDocument {
	doc := FullDocument{
		Analysis: make([]map[string]interface{}, 0, st.SentenceCount()),
		Story:    st.Source.Clone(),
	}

	for _, item := range st.Items() {
		entry := make(map[string]interface{}, len(item.Analysis)+5)
		for k, v := range item.Analysis {
			entry[k] = v
		}
		entry[keySentence] = item.Sentence
		entry[keyChapter] = item.Chapter
		entry[keyNumber] = item.Number

		if len(item.Comments) > 0 {
			comments := make([]model.Comment, len(item.Comments))
			for i, c := range item.Comments {
				comments[i] = c.Clone()
			}
			entry[keyComments] = comments
		}

		if latest, ok := LatestComment(item.Comments); ok {
			entry[keyLegacyComment] = latest.Text
			if latest.Kind == model.KindGroup {
				entry[keyLegacyApplies] = joinNumbers(latest.AppliesTo)
			}
		}

		doc.Analysis = append(doc.Analysis, entry)
	}

	return doc
}

// ExportSimple serializes only sentence text, sentence number, and the
// derived legacy fields. Chapter boundaries collapse; ordering is by sentence
// number ascending (chapter breaks ties for determinism).
func ExportSimple(st *model.Story) []SimpleEntry {
	items := st.Items()
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Number != items[b].Number {
			return items[a].Number < items[b].Number
		}
		return items[a].Chapter < items[b].Chapter
	})

	entries := make([]SimpleEntry, 0, len(items))
	for _, item := range items {
		entry := SimpleEntry{
			Sentence: item.Sentence,
			Number:   item.Number,
		}
		if latest, ok := LatestComment(item.Comments); ok {
			entry.Comment = latest.Text
			if latest.Kind == model.KindGroup {
				entry.AppliesTo = joinNumbers(latest.AppliesTo)
			}
		}
		entries = append(entries, entry)
	}

	return entries
}

// LatestComment selects the most recently timestamped comment. Ties are
// broken by comparing ids lexicographically (greater id wins) so the result
// is fully deterministic.
func LatestComment(comments []model.Comment) (model.Comment, bool) {
	if len(comments) == 0 {
		return model.Comment{}, false
	}

	latest := comments[0]
	for _, c := range comments[1:] {
		if c.Timestamp.After(latest.Timestamp) {
			latest = c
			continue
		}
		if c.Timestamp.Equal(latest.Timestamp) && c.ID > latest.ID {
			latest = c
		}
	}
	return latest, true
}

// joinNumbers renders a sentence-number list in the legacy comma-separated
// form
func joinNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
