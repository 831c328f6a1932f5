package cli

import (
	"fmt"

	"github.com/ppiankov/marginalia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <story.json>",
	Short: "Export a story in full or simple shape",
	Long: `Export writes a story document in one of two shapes.

The full shape is lossless: it carries every comment with its history
and can be re-imported without drift. The simple shape is a flat,
read-only list of sentences where each entry shows only the most
recent comment, meant for quick review outside the tool.

Example:
  marginalia export story.json --format simple -o review.json
  marginalia export story.json --format full`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "full", "output shape: full or simple")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output path")
}

func runExport(cmd *cobra.Command, args []string) error {
	p := pipeline.NewPipeline(buildConfig())

	st, err := p.LoadStory(args[0])
	if err != nil {
		return err
	}

	switch exportFormat {
	case "full":
		return p.SaveStory(st, exportOut)
	case "simple":
		return p.WriteSimple(st, exportOut)
	default:
		return fmt.Errorf("unknown format %q (want full or simple)", exportFormat)
	}
}
