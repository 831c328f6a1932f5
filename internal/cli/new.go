package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/marginalia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	newTitle string
	newOut   string
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new <manuscript>",
	Short: "Build a story document from a raw manuscript",
	Long: `New splits a plain-text or HTML manuscript into chapters and numbered
sentences and writes an unannotated story document.

Chapter boundaries come from Markdown headings, "Chapter N" marker
lines, or h1-h3 elements in HTML input. Pass "-" to read stdin.

Example:
  marginalia new draft.txt --title "The Lighthouse" -o story.json
  marginalia new chapters.html -o story.json`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVar(&newTitle, "title", "", "story title (default: manuscript file name)")
	newCmd.Flags().StringVarP(&newOut, "out", "o", "-", "output path for the story document")
}

func runNew(cmd *cobra.Command, args []string) error {
	path := args[0]

	title := newTitle
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
		if path == "-" {
			title = "Untitled"
		}
	}

	p := pipeline.NewPipeline(buildConfig())

	st, err := p.BuildStory(path, title)
	if err != nil {
		return fmt.Errorf("build story: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d chapters, %d sentences\n", len(st.Chapters), st.SentenceCount())
	}

	return p.SaveStory(st, newOut)
}
