package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/marginalia/internal/stats"
)

// Renderer writes JSON documents and stdout summaries
type Renderer struct {
	pretty bool
}

// NewRenderer creates a renderer
func NewRenderer(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// RenderJSON writes v as JSON to path; "-" writes to stdout
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	var data []byte
	var err error
	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderStats prints a coverage report to stdout
func (r *Renderer) RenderStats(report stats.Report) {
	fmt.Printf("Story: %s\n", report.Title)
	fmt.Printf("  Sentences:  %d\n", report.Sentences)
	fmt.Printf("  Annotated:  %d (%d%%)\n", report.Annotated, report.Coverage)
	fmt.Printf("  Comments:   %d\n", report.Comments)
	fmt.Printf("  Groups:     %d\n", report.Groups)
	if report.LatestActivity != nil {
		fmt.Printf("  Last edit:  %s\n", report.LatestActivity.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	for _, ch := range report.Chapters {
		fmt.Printf("  Chapter %d: %d/%d sentences annotated (%d%%), %d comments\n",
			ch.Chapter, ch.Annotated, ch.Sentences, ch.Coverage, ch.Comments)
	}
}
