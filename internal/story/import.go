package story

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/marginalia/internal/model"
)

// Known entry keys. Everything else is retained verbatim as additional
// analysis.
const (
	keySentence      = "sentence"
	keyChapter       = "chapter"
	keyNumber        = "sentence_number"
	keyComments      = "comments"
	keyLegacyComment = "comment"
	keyLegacyApplies = "comment_applies_to_sentences"
	keyAnalysis      = "analysis"
)

// Importer parses external story documents into the normalized container.
// The clock and id generator are injectable for deterministic tests.
type Importer struct {
	now   func() time.Time
	newID func() string
}

// NewImporter creates an importer with the default clock and uuid generator
func NewImporter() *Importer {
	return &Importer{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// rawDocument is the top-level wire shape
type rawDocument struct {
	Analysis json.RawMessage   `json:"analysis"`
	Story    model.StorySource `json:"story"`
}

// wireComment is one entry of a prior full comment history. Missing ids and
// timestamps are filled during import so a previously exported file
// round-trips losslessly.
type wireComment struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Kind      model.CommentKind `json:"kind"`
	Timestamp *time.Time        `json:"timestamp"`
	GroupID   string            `json:"group_id"`
	AppliesTo []int             `json:"applies_to_sentences"`
}

// Parse parses a raw story document. Any structural problem aborts the whole
// import with a ValidationError; a partially parsed story is never returned.
func (im *Importer) Parse(data []byte) (*model.Story, error) {
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, validationErrorf("not a JSON object: %v", err)
	}

	if doc.Analysis == nil {
		return nil, validationErrorf("missing %q array", keyAnalysis)
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(doc.Analysis, &entries); err != nil {
		return nil, validationErrorf("%q is not a list of objects: %v", keyAnalysis, err)
	}

	title := strings.TrimSpace(doc.Story.Title)
	if title == "" {
		return nil, validationErrorf("missing story title")
	}

	importTime := im.now()
	st := &model.Story{
		Title:    title,
		Chapters: make(map[int][]model.AnalysisItem),
		Source:   doc.Story,
	}

	for i, entry := range entries {
		item, err := im.parseEntry(entry, importTime)
		if err != nil {
			return nil, validationErrorf("entry %d: %v", i, err)
		}
		st.Chapters[item.Chapter] = append(st.Chapters[item.Chapter], item)
	}

	// Sentence lists are kept sorted by sentence number ascending
	for ch := range st.Chapters {
		items := st.Chapters[ch]
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].Number < items[b].Number
		})
	}

	return st, nil
}

// parseEntry normalizes one raw sentence entry
func (im *Importer) parseEntry(entry map[string]json.RawMessage, importTime time.Time) (model.AnalysisItem, error) {
	var item model.AnalysisItem

	sentence, ok := decodeString(entry[keySentence])
	if !ok || strings.TrimSpace(sentence) == "" {
		return item, validationErrorf("missing or empty %q", keySentence)
	}

	chapter, ok := decodeInt(entry[keyChapter])
	if !ok {
		return item, validationErrorf("%q is not numeric", keyChapter)
	}

	number, ok := decodeInt(entry[keyNumber])
	if !ok {
		return item, validationErrorf("%q is not numeric", keyNumber)
	}

	item = model.AnalysisItem{
		SentenceID: model.SentenceID(chapter, number),
		Sentence:   sentence,
		Chapter:    chapter,
		Number:     number,
	}

	// Prior full comment history takes precedence over the legacy fields
	if raw, present := entry[keyComments]; present {
		var wire []wireComment
		if err := json.Unmarshal(raw, &wire); err != nil {
			return item, validationErrorf("%q is not a comment list: %v", keyComments, err)
		}
		for _, wc := range wire {
			item.Comments = append(item.Comments, im.adoptComment(wc, importTime))
		}
	} else if legacy, ok := decodeString(entry[keyLegacyComment]); ok && strings.TrimSpace(legacy) != "" {
		item.Comments = append(item.Comments, im.synthesizeLegacy(legacy, entry[keyLegacyApplies], importTime))
	}

	// Everything unrecognized is additional analysis, kept verbatim in
	// display-string form
	for key, raw := range entry {
		switch key {
		case keySentence, keyChapter, keyNumber, keyComments, keyLegacyComment, keyLegacyApplies:
			continue
		}
		if item.Analysis == nil {
			item.Analysis = make(map[string]string)
		}
		item.Analysis[key] = coerceString(raw)
	}

	return item, nil
}

// adoptComment fills the gaps of a previously exported comment
func (im *Importer) adoptComment(wc wireComment, importTime time.Time) model.Comment {
	c := model.Comment{
		ID:        wc.ID,
		Text:      wc.Text,
		Kind:      wc.Kind,
		GroupID:   wc.GroupID,
		AppliesTo: wc.AppliesTo,
	}
	if c.ID == "" {
		c.ID = im.newID()
	}
	if wc.Timestamp != nil {
		c.Timestamp = *wc.Timestamp
	} else {
		c.Timestamp = importTime
	}
	if c.Kind == "" {
		if c.GroupID != "" {
			c.Kind = model.KindGroup
		} else {
			c.Kind = model.KindSingle
		}
	}
	return c
}

// synthesizeLegacy converts the old single-field comment format into a proper
// comment record. The legacy format predates group linkage, so a legacy group
// comment becomes its own group of one per sentence. This is a lossy
// compatibility shim: the original multi-sentence linkage cannot be
// reconstructed from the legacy fields.
func (im *Importer) synthesizeLegacy(text string, rawApplies json.RawMessage, importTime time.Time) model.Comment {
	c := model.Comment{
		ID:        im.newID(),
		Text:      text,
		Kind:      model.KindSingle,
		Timestamp: importTime,
	}

	if applies, ok := decodeString(rawApplies); ok {
		numbers := parseAppliesTo(applies)
		c.Kind = model.KindGroup
		c.GroupID = im.newID()
		c.AppliesTo = numbers
	}

	return c
}

// parseAppliesTo parses the legacy comma-separated sentence number list,
// dropping invalid tokens
func parseAppliesTo(s string) []int {
	var numbers []int
	for _, token := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// decodeString decodes a raw JSON value as a string
func decodeString(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeInt decodes a raw JSON value as an integer. JSON numbers arrive as
// floats; integral values are accepted, anything else is rejected.
func decodeInt(raw json.RawMessage) (int, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	n := int(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}

// coerceString renders an arbitrary JSON value in display-string form
func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return string(raw)
}
