package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/marginalia/internal/pipeline"
	"github.com/ppiankov/marginalia/internal/validate"
	"github.com/spf13/cobra"
)

var checkJSON bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <story.json>",
	Short: "Audit a story for consistency problems",
	Long: `Check audits a story document against the invariants the tool
maintains: sentence ids that match their chapter and number, unique
comment ids, and linked groups whose copies carry identical text and
timestamps.

A document that was only ever touched by marginalia always passes;
findings point at hand edits or corruption. Errors set exit code 1.

Example:
  marginalia check story.json
  marginalia check story.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "emit findings as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p := pipeline.NewPipeline(buildConfig())

	st, err := p.LoadStory(args[0])
	if err != nil {
		return err
	}

	issues := p.Check(st)

	if checkJSON {
		if err := p.Renderer().RenderJSON(issues, "-"); err != nil {
			return err
		}
	} else {
		for _, issue := range issues {
			loc := issue.SentenceID
			if loc == "" {
				loc = issue.GroupID
			}
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", issue.Severity, loc, issue.Message)
		}
	}

	errCount := 0
	for _, issue := range issues {
		if issue.Severity == validate.SeverityError {
			errCount++
		}
	}

	if errCount > 0 {
		return fmt.Errorf("%d consistency error(s) found", errCount)
	}

	if !checkJSON {
		fmt.Fprintf(os.Stderr, "✓ No errors (%d warnings)\n", len(issues))
	}
	return nil
}
