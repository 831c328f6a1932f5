package stats

import (
	"math"
	"time"

	"github.com/ppiankov/marginalia/internal/model"
)

// Report is the annotation coverage breakdown for one story
type Report struct {
	Title          string          `json:"title"`
	Sentences      int             `json:"sentences"`
	Annotated      int             `json:"annotated"` // Sentences with at least one comment
	Comments       int             `json:"comments"`
	Groups         int             `json:"groups"`             // Distinct group ids
	Coverage       int             `json:"coverage"`           // Percent of sentences annotated (0-100)
	LatestActivity *time.Time      `json:"latest_activity,omitempty"`
	Chapters       []ChapterReport `json:"chapters"`
}

// ChapterReport is the per-chapter slice of the breakdown
type ChapterReport struct {
	Chapter   int `json:"chapter"`
	Sentences int `json:"sentences"`
	Annotated int `json:"annotated"`
	Comments  int `json:"comments"`
	Coverage  int `json:"coverage"`
}

// Calculator computes annotation coverage reports
type Calculator struct{}

// NewCalculator creates a new calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate computes the coverage report for a story
func (c *Calculator) Calculate(st *model.Story) Report {
	report := Report{Title: st.Title}
	groups := make(map[string]bool)
	var latest time.Time

	for _, ch := range st.ChapterNumbers() {
		chapter := ChapterReport{Chapter: ch}

		for _, item := range st.Chapters[ch] {
			chapter.Sentences++
			if len(item.Comments) > 0 {
				chapter.Annotated++
			}
			chapter.Comments += len(item.Comments)

			for _, comment := range item.Comments {
				if comment.GroupID != "" {
					groups[comment.GroupID] = true
				}
				if comment.Timestamp.After(latest) {
					latest = comment.Timestamp
				}
			}
		}

		chapter.Coverage = percent(chapter.Annotated, chapter.Sentences)
		report.Sentences += chapter.Sentences
		report.Annotated += chapter.Annotated
		report.Comments += chapter.Comments
		report.Chapters = append(report.Chapters, chapter)
	}

	report.Groups = len(groups)
	report.Coverage = percent(report.Annotated, report.Sentences)
	if !latest.IsZero() {
		report.LatestActivity = &latest
	}

	return report
}

// percent computes a rounded percentage
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
