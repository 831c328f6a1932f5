package cli

import (
	"github.com/ppiankov/marginalia/internal/pipeline"
	"github.com/spf13/cobra"
)

var statsJSON bool

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <story.json>",
	Short: "Show annotation coverage for a story",
	Long: `Stats reports how much of a story has been annotated: sentence and
comment counts, group counts, per-chapter coverage, and the timestamp
of the most recent edit.

Example:
  marginalia stats story.json
  marginalia stats story.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit the report as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	p := pipeline.NewPipeline(buildConfig())

	st, err := p.LoadStory(args[0])
	if err != nil {
		return err
	}

	report := p.Stats(st)

	if statsJSON {
		return p.Renderer().RenderJSON(report, "-")
	}

	p.Renderer().RenderStats(report)
	return nil
}
