package story

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/marginalia/internal/model"
)

// Annotator applies annotation operations to a story. Every operation clones
// the container first and returns the new value, so callers never observe a
// partially applied update. Group-linked comments are located by scanning for
// the shared group id inside the single operation; there are no back-pointers
// to go stale.
type Annotator struct {
	now   func() time.Time
	newID func() string
}

// NewAnnotator creates an annotator with the default clock and uuid generator
func NewAnnotator() *Annotator {
	return &Annotator{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// AddSingle appends one single-kind comment to the designated sentence
func (a *Annotator) AddSingle(st *model.Story, sentenceID, text string) (*model.Story, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	out := st.Clone()
	item, ok := out.Find(sentenceID)
	if !ok {
		return nil, &NotFoundError{Kind: "sentence", ID: sentenceID}
	}

	item.Comments = append(item.Comments, model.Comment{
		ID:        a.newID(),
		Text:      text,
		Kind:      model.KindSingle,
		Timestamp: a.now(),
	})
	return out, nil
}

// AddBulk annotates several sentences in one action. BulkMass appends an
// independent single comment to each target (shared text and timestamp, no
// linkage); BulkGroup appends linked instances sharing one freshly generated
// group id and one sentence-number snapshot.
func (a *Annotator) AddBulk(st *model.Story, sentenceIDs []string, text string, kind model.BulkKind) (*model.Story, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(sentenceIDs) == 0 {
		return nil, ErrNoTargets
	}

	out := st.Clone()

	// Resolve all targets up front so a bad id aborts before any mutation
	seen := make(map[string]bool)
	var targets []*model.AnalysisItem
	for _, id := range sentenceIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, ok := out.Find(id)
		if !ok {
			return nil, &NotFoundError{Kind: "sentence", ID: id}
		}
		targets = append(targets, item)
	}

	timestamp := a.now()

	switch kind {
	case model.BulkGroup:
		groupID := a.newID()
		appliesTo := make([]int, 0, len(targets))
		for _, item := range targets {
			appliesTo = append(appliesTo, item.Number)
		}
		sort.Ints(appliesTo)

		for _, item := range targets {
			snapshot := make([]int, len(appliesTo))
			copy(snapshot, appliesTo)
			item.Comments = append(item.Comments, model.Comment{
				ID:        a.newID(),
				Text:      text,
				Kind:      model.KindGroup,
				Timestamp: timestamp,
				GroupID:   groupID,
				AppliesTo: snapshot,
			})
		}

	default: // BulkMass
		for _, item := range targets {
			item.Comments = append(item.Comments, model.Comment{
				ID:        a.newID(),
				Text:      text,
				Kind:      model.KindSingle,
				Timestamp: timestamp,
			})
		}
	}

	return out, nil
}

// Edit replaces a comment's text. For a group comment every instance sharing
// the group id is rewritten with the same text and edit timestamp in this one
// call, preserving the group-consistency invariant. groupID may be empty for
// single comments.
func (a *Annotator) Edit(st *model.Story, commentID, groupID, newText string) (*model.Story, error) {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return nil, ErrEmptyText
	}

	out := st.Clone()

	target := findComment(out, commentID, groupID)
	if target == nil {
		return nil, &NotFoundError{Kind: "comment", ID: commentID}
	}

	timestamp := a.now()

	if target.Kind == model.KindGroup && target.GroupID != "" {
		gid := target.GroupID
		forEachComment(out, func(c *model.Comment) {
			if c.GroupID == gid {
				c.Text = newText
				c.Timestamp = timestamp
			}
		})
	} else {
		target.Text = newText
		target.Timestamp = timestamp
	}

	return out, nil
}

// Delete removes a comment from its sentence. Deleting one instance of a
// group comment tears down the whole group across every sentence. An absent
// id is a no-op, not an error.
func (a *Annotator) Delete(st *model.Story, sentenceID, commentID string) (*model.Story, error) {
	out := st.Clone()

	item, ok := out.Find(sentenceID)
	if !ok {
		return out, nil
	}

	var target *model.Comment
	for i := range item.Comments {
		if item.Comments[i].ID == commentID {
			target = &item.Comments[i]
			break
		}
	}
	if target == nil {
		return out, nil
	}

	if target.Kind == model.KindGroup && target.GroupID != "" {
		gid := target.GroupID
		for ch := range out.Chapters {
			for i := range out.Chapters[ch] {
				it := &out.Chapters[ch][i]
				it.Comments = removeComments(it.Comments, func(c model.Comment) bool {
					return c.GroupID == gid
				})
			}
		}
	} else {
		item.Comments = removeComments(item.Comments, func(c model.Comment) bool {
			return c.ID == commentID
		})
	}

	return out, nil
}

// findComment locates a comment by id, falling back to group id when the
// specific instance id is not present
func findComment(st *model.Story, commentID, groupID string) *model.Comment {
	var byGroup *model.Comment
	for ch := range st.Chapters {
		for i := range st.Chapters[ch] {
			item := &st.Chapters[ch][i]
			for j := range item.Comments {
				c := &item.Comments[j]
				if c.ID == commentID {
					return c
				}
				if groupID != "" && c.GroupID == groupID && byGroup == nil {
					byGroup = c
				}
			}
		}
	}
	return byGroup
}

// forEachComment visits every comment in the container
func forEachComment(st *model.Story, visit func(*model.Comment)) {
	for ch := range st.Chapters {
		for i := range st.Chapters[ch] {
			item := &st.Chapters[ch][i]
			for j := range item.Comments {
				visit(&item.Comments[j])
			}
		}
	}
}

// removeComments filters out comments matching the predicate, preserving order
func removeComments(comments []model.Comment, match func(model.Comment) bool) []model.Comment {
	var kept []model.Comment
	for _, c := range comments {
		if !match(c) {
			kept = append(kept, c)
		}
	}
	return kept
}
