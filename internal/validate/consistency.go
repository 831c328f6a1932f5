package validate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/marginalia/internal/model"
)

// Severity indicates the importance of a consistency issue
type Severity string

const (
	SeverityError   Severity = "error"   // Invariant violation; the container is corrupt
	SeverityWarning Severity = "warning" // Suspicious but tolerable
)

// Issue is one consistency finding
type Issue struct {
	Severity   Severity `json:"severity"`
	SentenceID string   `json:"sentence_id,omitempty"`
	CommentID  string   `json:"comment_id,omitempty"`
	GroupID    string   `json:"group_id,omitempty"`
	Message    string   `json:"message"`
}

// Checker audits a story container against the invariants the mutator is
// supposed to maintain. A clean container produced purely by the importer and
// annotator always passes; findings indicate a hand-edited or corrupted
// document.
type Checker struct{}

// NewChecker creates a new checker
func NewChecker() *Checker {
	return &Checker{}
}

// groupSighting records one instance of a group comment for cross-checking
type groupSighting struct {
	sentenceID string
	comment    model.Comment
}

// Check runs all audits and returns the findings, errors first
func (c *Checker) Check(st *model.Story) []Issue {
	var issues []Issue

	seenIDs := make(map[string]string) // comment id -> sentence id
	groups := make(map[string][]groupSighting)

	for _, item := range st.Items() {
		if want := model.SentenceID(item.Chapter, item.Number); item.SentenceID != want {
			issues = append(issues, Issue{
				Severity:   SeverityError,
				SentenceID: item.SentenceID,
				Message:    fmt.Sprintf("sentence id does not match its chapter/number composite %q", want),
			})
		}

		for _, comment := range item.Comments {
			if prev, dup := seenIDs[comment.ID]; dup {
				issues = append(issues, Issue{
					Severity:   SeverityError,
					SentenceID: item.SentenceID,
					CommentID:  comment.ID,
					Message:    fmt.Sprintf("comment id also present on sentence %s", prev),
				})
			}
			seenIDs[comment.ID] = item.SentenceID

			issues = append(issues, c.checkKind(item.SentenceID, comment)...)

			if comment.GroupID != "" {
				groups[comment.GroupID] = append(groups[comment.GroupID], groupSighting{
					sentenceID: item.SentenceID,
					comment:    comment,
				})
			}
		}
	}

	issues = append(issues, c.checkGroups(groups)...)

	sort.SliceStable(issues, func(a, b int) bool {
		return issues[a].Severity == SeverityError && issues[b].Severity != SeverityError
	})
	return issues
}

// checkKind validates the kind/group-id pairing of one comment
func (c *Checker) checkKind(sentenceID string, comment model.Comment) []Issue {
	var issues []Issue

	switch comment.Kind {
	case model.KindSingle:
		if comment.GroupID != "" {
			issues = append(issues, Issue{
				Severity:   SeverityError,
				SentenceID: sentenceID,
				CommentID:  comment.ID,
				GroupID:    comment.GroupID,
				Message:    "single comment carries a group id",
			})
		}
	case model.KindGroup:
		if comment.GroupID == "" {
			issues = append(issues, Issue{
				Severity:   SeverityError,
				SentenceID: sentenceID,
				CommentID:  comment.ID,
				Message:    "group comment has no group id",
			})
		}
		if !sort.IntsAreSorted(comment.AppliesTo) {
			issues = append(issues, Issue{
				Severity:   SeverityWarning,
				SentenceID: sentenceID,
				CommentID:  comment.ID,
				GroupID:    comment.GroupID,
				Message:    "applies-to sentence numbers are not sorted ascending",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity:   SeverityError,
			SentenceID: sentenceID,
			CommentID:  comment.ID,
			Message:    fmt.Sprintf("unknown comment kind %q", comment.Kind),
		})
	}

	return issues
}

// checkGroups verifies the group-consistency invariant: every instance
// sharing a group id must have identical text and timestamp
func (c *Checker) checkGroups(groups map[string][]groupSighting) []Issue {
	var issues []Issue

	gids := make([]string, 0, len(groups))
	for gid := range groups {
		gids = append(gids, gid)
	}
	sort.Strings(gids)

	for _, gid := range gids {
		sightings := groups[gid]
		first := sightings[0].comment
		for _, s := range sightings[1:] {
			if s.comment.Text != first.Text {
				issues = append(issues, Issue{
					Severity:   SeverityError,
					SentenceID: s.sentenceID,
					CommentID:  s.comment.ID,
					GroupID:    gid,
					Message:    "group instances disagree on text",
				})
			}
			if !s.comment.Timestamp.Equal(first.Timestamp) {
				issues = append(issues, Issue{
					Severity:   SeverityError,
					SentenceID: s.sentenceID,
					CommentID:  s.comment.ID,
					GroupID:    gid,
					Message:    "group instances disagree on timestamp",
				})
			}
		}
	}

	return issues
}
