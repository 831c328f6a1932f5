package model

import (
	"fmt"
	"sort"
)

// AnalysisItem is one sentence of a loaded story together with its analysis
// fields and annotation history. Identity is the chapter/sentence-number
// composite; the sentence text never changes after import.
type AnalysisItem struct {
	SentenceID string            `json:"sentence_id"` // "chapter:number", derived, stable
	Sentence   string            `json:"sentence"`
	Chapter    int               `json:"chapter"`
	Number     int               `json:"sentence_number"`
	Analysis   map[string]string `json:"analysis,omitempty"` // Extra import fields, preserved verbatim
	Comments   []Comment         `json:"comments,omitempty"` // Ordered by insertion
}

// SentenceID builds the composite identity for a chapter/sentence pair
func SentenceID(chapter, number int) string {
	return fmt.Sprintf("%d:%d", chapter, number)
}

// Clone returns a deep copy of the item
func (a AnalysisItem) Clone() AnalysisItem {
	out := a
	if a.Analysis != nil {
		out.Analysis = make(map[string]string, len(a.Analysis))
		for k, v := range a.Analysis {
			out.Analysis[k] = v
		}
	}
	if a.Comments != nil {
		out.Comments = make([]Comment, len(a.Comments))
		for i, c := range a.Comments {
			out.Comments[i] = c.Clone()
		}
	}
	return out
}

// StorySource is the original "complete story" block from the imported
// document. The core never reads it beyond passing it back out on export.
type StorySource struct {
	Title    string            `json:"title"`
	Chapters map[string]string `json:"chapters,omitempty"`
}

// Clone returns a deep copy of the source block
func (s StorySource) Clone() StorySource {
	out := s
	if s.Chapters != nil {
		out.Chapters = make(map[string]string, len(s.Chapters))
		for k, v := range s.Chapters {
			out.Chapters[k] = v
		}
	}
	return out
}

// Story is the normalized in-memory container for one annotation session.
// It owns every sentence and comment record; mutators work on clones and
// publish a whole new container, so callers never observe partial updates.
type Story struct {
	Title    string                 `json:"title"`
	Chapters map[int][]AnalysisItem `json:"chapters"` // Sentence lists sorted by number asc
	Source   StorySource            `json:"source"`
}

// Clone returns a deep copy of the story
func (s *Story) Clone() *Story {
	out := &Story{
		Title:  s.Title,
		Source: s.Source.Clone(),
	}
	if s.Chapters != nil {
		out.Chapters = make(map[int][]AnalysisItem, len(s.Chapters))
		for ch, items := range s.Chapters {
			cloned := make([]AnalysisItem, len(items))
			for i, item := range items {
				cloned[i] = item.Clone()
			}
			out.Chapters[ch] = cloned
		}
	}
	return out
}

// ChapterNumbers returns the chapter numbers in ascending order
func (s *Story) ChapterNumbers() []int {
	chapters := make([]int, 0, len(s.Chapters))
	for ch := range s.Chapters {
		chapters = append(chapters, ch)
	}
	sort.Ints(chapters)
	return chapters
}

// Items returns all sentences ordered by chapter asc, sentence number asc
func (s *Story) Items() []AnalysisItem {
	var items []AnalysisItem
	for _, ch := range s.ChapterNumbers() {
		items = append(items, s.Chapters[ch]...)
	}
	return items
}

// Find locates a sentence by its composite id
func (s *Story) Find(sentenceID string) (*AnalysisItem, bool) {
	for ch, items := range s.Chapters {
		for i := range items {
			if items[i].SentenceID == sentenceID {
				return &s.Chapters[ch][i], true
			}
		}
	}
	return nil, false
}

// SentenceCount returns the total number of sentences across all chapters
func (s *Story) SentenceCount() int {
	count := 0
	for _, items := range s.Chapters {
		count += len(items)
	}
	return count
}
