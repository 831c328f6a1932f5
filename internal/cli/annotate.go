package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/marginalia/internal/model"
	"github.com/ppiankov/marginalia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	addSentence  string
	addSentences []string
	addMode      string
	addText      string
	addOut       string

	editComment string
	editGroup   string
	editText    string
	editOut     string

	delSentence string
	delComment  string
	delOut      string
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <story.json>",
	Short: "Attach a comment to one or more sentences",
	Long: `Add attaches a comment to sentences of a story document.

With --sentence, a single comment is attached to one sentence. With
--sentences, every listed sentence receives the comment: in group mode
the copies are linked and later edits or deletions apply to all of
them; in mass mode each copy is independent.

Sentences are addressed as chapter:number.

Example:
  marginalia add story.json --sentence 1:4 --text "Strong opening."
  marginalia add story.json --sentences 2:1,2:3,2:7 --mode group --text "Recurring motif."`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit <story.json>",
	Short: "Rewrite an existing comment",
	Long: `Edit replaces the text of a comment. When the comment belongs to a
group, every linked copy is rewritten in the same action so the group
never drifts apart.

Example:
  marginalia edit story.json --comment 4f1c... --text "Cut this entirely."`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <story.json>",
	Short: "Remove a comment",
	Long: `Delete removes a comment from a sentence. When the comment belongs to
a group, the whole group is removed from every sentence it touches.
Deleting a comment that is already gone is not an error.

Example:
  marginalia delete story.json --sentence 1:4 --comment 4f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)

	addCmd.Flags().StringVar(&addSentence, "sentence", "", "target sentence id (chapter:number)")
	addCmd.Flags().StringSliceVar(&addSentences, "sentences", nil, "target sentence ids for a bulk comment")
	addCmd.Flags().StringVar(&addMode, "mode", "mass", "bulk mode: mass (independent copies) or group (linked)")
	addCmd.Flags().StringVar(&addText, "text", "", "comment text")
	addCmd.Flags().StringVarP(&addOut, "out", "o", "", "output path (default: rewrite the input file)")
	_ = addCmd.MarkFlagRequired("text")

	editCmd.Flags().StringVar(&editComment, "comment", "", "comment id to edit")
	editCmd.Flags().StringVar(&editGroup, "group", "", "group id to edit (alternative to --comment)")
	editCmd.Flags().StringVar(&editText, "text", "", "replacement text")
	editCmd.Flags().StringVarP(&editOut, "out", "o", "", "output path (default: rewrite the input file)")
	_ = editCmd.MarkFlagRequired("text")

	deleteCmd.Flags().StringVar(&delSentence, "sentence", "", "sentence id the comment is attached to")
	deleteCmd.Flags().StringVar(&delComment, "comment", "", "comment id to delete")
	deleteCmd.Flags().StringVarP(&delOut, "out", "o", "", "output path (default: rewrite the input file)")
	_ = deleteCmd.MarkFlagRequired("sentence")
	_ = deleteCmd.MarkFlagRequired("comment")
}

func runAdd(cmd *cobra.Command, args []string) error {
	path := args[0]

	p := pipeline.NewPipeline(buildConfig())
	st, err := p.LoadStory(path)
	if err != nil {
		return err
	}

	switch {
	case addSentence != "" && len(addSentences) > 0:
		return fmt.Errorf("--sentence and --sentences are mutually exclusive")
	case addSentence != "":
		st, err = p.AddSingle(st, addSentence, addText)
	case len(addSentences) > 0:
		var kind model.BulkKind
		switch addMode {
		case "mass":
			kind = model.BulkMass
		case "group":
			kind = model.BulkGroup
		default:
			return fmt.Errorf("unknown mode %q (want mass or group)", addMode)
		}
		st, err = p.AddBulk(st, addSentences, addText, kind)
	default:
		return fmt.Errorf("either --sentence or --sentences is required")
	}
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}

	return p.SaveStory(st, outOrInput(addOut, path))
}

func runEdit(cmd *cobra.Command, args []string) error {
	path := args[0]

	if editComment == "" && editGroup == "" {
		return fmt.Errorf("either --comment or --group is required")
	}

	p := pipeline.NewPipeline(buildConfig())
	st, err := p.LoadStory(path)
	if err != nil {
		return err
	}

	st, err = p.EditComment(st, editComment, editGroup, editText)
	if err != nil {
		return fmt.Errorf("edit comment: %w", err)
	}

	return p.SaveStory(st, outOrInput(editOut, path))
}

func runDelete(cmd *cobra.Command, args []string) error {
	path := args[0]

	p := pipeline.NewPipeline(buildConfig())
	st, err := p.LoadStory(path)
	if err != nil {
		return err
	}

	st, err = p.DeleteComment(st, delSentence, delComment)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Story written\n")
	}

	return p.SaveStory(st, outOrInput(delOut, path))
}

// outOrInput rewrites the input file in place unless an output path is given
func outOrInput(out, input string) string {
	if out != "" {
		return out
	}
	if input == "-" {
		return "-"
	}
	return input
}
