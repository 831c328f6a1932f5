package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/marginalia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	suggestProvider     string
	suggestModel        string
	suggestTargets      []string
	suggestInstructions string
	suggestApply        bool
	suggestOut          string
	suggestWorkers      int
	suggestRPS          float64
	suggestNoCache      bool
	suggestClearCache   bool
	suggestTimeout      time.Duration
)

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest <story.json>",
	Short: "Draft margin comments with an LLM",
	Long: `Suggest asks an LLM provider to draft a margin comment for each
un-annotated sentence (or the sentences named with --sentences).

Drafts are printed for review by default; --apply attaches them as
single comments and writes the story back. Successful drafts are
cached so reruns do not repeat provider calls.

Example:
  marginalia suggest story.json --llm-provider openai
  marginalia suggest story.json --llm-provider ollama --sentences 1:2,1:5 --apply
  marginalia suggest story.json --llm-provider anthropic --instructions "focus on pacing"`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	// Provider flags
	suggestCmd.Flags().StringVar(&suggestProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	suggestCmd.Flags().StringVar(&suggestModel, "llm-model", "", "LLM model name (provider default if empty)")
	suggestCmd.Flags().StringVar(&suggestInstructions, "instructions", "", "extra guidance for the drafts")

	// Scope flags
	suggestCmd.Flags().StringSliceVar(&suggestTargets, "sentences", nil, "only draft for these sentence ids")
	suggestCmd.Flags().BoolVar(&suggestApply, "apply", false, "attach accepted drafts and write the story back")
	suggestCmd.Flags().StringVarP(&suggestOut, "out", "o", "", "output path with --apply (default: rewrite the input file)")

	// Concurrency flags
	suggestCmd.Flags().IntVar(&suggestWorkers, "concurrency", 4, "number of concurrent provider calls")
	suggestCmd.Flags().Float64Var(&suggestRPS, "rps", 2, "provider requests per second")
	suggestCmd.Flags().BoolVar(&suggestNoCache, "no-cache", false, "disable the suggestion cache")
	suggestCmd.Flags().BoolVar(&suggestClearCache, "clear-cache", false, "empty the suggestion cache before drafting")
	suggestCmd.Flags().DurationVar(&suggestTimeout, "timeout", 5*time.Minute, "overall timeout for the run")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
	defer cancel()

	cfg := buildConfig()
	if suggestProvider != "" {
		cfg.LLM.Provider = suggestProvider
	}
	if suggestModel != "" {
		cfg.LLM.Model = suggestModel
	}
	cfg.Concurrency.Workers = suggestWorkers
	cfg.Concurrency.RequestsPerSecond = suggestRPS
	if suggestNoCache {
		cfg.Cache.Enabled = false
	}

	if cfg.LLM.Provider == "" {
		return fmt.Errorf("no LLM provider configured (use --llm-provider or set llm.provider)")
	}
	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg)

	if suggestClearCache {
		if err := p.ClearSuggestionCache(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		if verbose {
			fmt.Fprintln(os.Stderr, "✓ Suggestion cache cleared")
		}
	}

	st, err := p.LoadStory(path)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Drafting with %s, %d workers\n", cfg.LLM.Provider, cfg.Concurrency.Workers)
	}

	outcomes, err := p.Suggest(ctx, st, suggestTargets, suggestInstructions)
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}

	if len(outcomes) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to draft: every sentence is already annotated")
		return nil
	}

	if !suggestApply {
		return p.Renderer().RenderJSON(outcomes, "-")
	}

	st, applied, err := p.ApplySuggestions(st, outcomes)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Applied %d of %d drafts\n", applied, len(outcomes))

	return p.SaveStory(st, outOrInput(suggestOut, path))
}
