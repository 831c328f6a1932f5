package model

import "time"

// Comment is a single annotation attached to a sentence
type Comment struct {
	ID        string      `json:"id"`                             // Stable for the comment's life
	Text      string      `json:"text"`                           // Mutable annotation text
	Kind      CommentKind `json:"kind"`                           // single or group
	Timestamp time.Time   `json:"timestamp"`                      // Refreshed on every edit
	GroupID   string      `json:"group_id,omitempty"`             // Present iff Kind is group
	AppliesTo []int       `json:"applies_to_sentences,omitempty"` // Snapshot taken at group creation
}

// CommentKind distinguishes the two comment variants
type CommentKind string

const (
	KindSingle CommentKind = "single" // Belongs to exactly one sentence
	KindGroup  CommentKind = "group"  // One of N linked instances sharing a group id
)

// BulkKind selects the behavior of a bulk annotation
type BulkKind string

const (
	BulkMass  BulkKind = "mass"  // Independent single comments, identical text, not linked
	BulkGroup BulkKind = "group" // Linked instances sharing one group id
)

// Clone returns a deep copy of the comment
func (c Comment) Clone() Comment {
	out := c
	if c.AppliesTo != nil {
		out.AppliesTo = make([]int, len(c.AppliesTo))
		copy(out.AppliesTo, c.AppliesTo)
	}
	return out
}
