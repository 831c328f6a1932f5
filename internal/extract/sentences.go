package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// RawSentence is one sentence of an ingested manuscript, positioned by
// chapter and per-chapter sentence number
type RawSentence struct {
	Chapter int
	Number  int
	Text    string
}

// Splitter turns a raw manuscript (plain text or HTML) into chapters of
// sentences ready to become a story document
type Splitter struct {
	chapterMarker *regexp.Regexp
	maxLen        int
}

// NewSplitter creates a splitter with the default chapter heuristics
func NewSplitter() *Splitter {
	return &Splitter{
		// "Chapter 3", "CHAPTER XII", "Part 2", or markdown headings
		chapterMarker: regexp.MustCompile(`(?i)^\s*(?:#{1,3}\s+.*|(?:chapter|part|book)\s+[0-9ivxlc]+.*)$`),
		maxLen:        2000,
	}
}

// SplitText splits a plain-text manuscript. Lines matching a chapter marker
// start a new chapter (the marker line itself is not a sentence); sentence
// numbering restarts at 1 per chapter.
func (s *Splitter) SplitText(text string) []RawSentence {
	var chapters []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if s.chapterMarker.MatchString(line) {
			if strings.TrimSpace(current.String()) != "" {
				chapters = append(chapters, current.String())
			}
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if strings.TrimSpace(current.String()) != "" {
		chapters = append(chapters, current.String())
	}

	return s.numberChapters(chapters)
}

// SplitHTML splits an HTML manuscript. Headings (h1-h3) start a new chapter;
// script, style, noscript and iframe content is skipped.
func (s *Splitter) SplitHTML(htmlContent string) ([]RawSentence, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	var chapters []string
	var current strings.Builder

	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			chapters = append(chapters, current.String())
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "h1", "h2", "h3":
				flush()
				return // Heading text is a title, not story prose
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				current.WriteString(text)
				current.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	flush()

	return s.numberChapters(chapters), nil
}

// numberChapters splits each chapter body into sentences and assigns
// chapter/sentence numbers
func (s *Splitter) numberChapters(chapters []string) []RawSentence {
	var out []RawSentence
	for i, body := range chapters {
		for j, sentence := range s.splitSentences(body) {
			out = append(out, RawSentence{
				Chapter: i + 1,
				Number:  j + 1,
				Text:    sentence,
			})
		}
	}
	return out
}

// splitSentences splits prose into sentences on terminator punctuation
// followed by whitespace. Deliberately simple; abbreviations mid-sentence can
// over-split, which is acceptable for annotation granularity.
func (s *Splitter) splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" && len(sentence) <= s.maxLen {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	isTerminator := func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}
	boundary := func(i int, runes []rune) bool {
		return i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t'
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		switch {
		case isTerminator(r) && boundary(i, runes):
			flush()
		// Closing quotes stay attached to the sentence they end
		case (r == '"' || r == '”') && i > 0 && isTerminator(runes[i-1]) && boundary(i, runes):
			flush()
		}
	}
	flush()

	return sentences
}
