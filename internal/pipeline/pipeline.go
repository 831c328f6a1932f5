package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/marginalia/internal/cache"
	"github.com/ppiankov/marginalia/internal/extract"
	"github.com/ppiankov/marginalia/internal/llm"
	"github.com/ppiankov/marginalia/internal/model"
	"github.com/ppiankov/marginalia/internal/stats"
	"github.com/ppiankov/marginalia/internal/story"
	"github.com/ppiankov/marginalia/internal/validate"
	"github.com/ppiankov/marginalia/internal/worker"
)

// Pipeline wires the loader, importer, annotator, exporter and the optional
// suggestion machinery behind one facade for the CLI
type Pipeline struct {
	loader     *Loader
	importer   *story.Importer
	annotator  *story.Annotator
	splitter   *extract.Splitter
	checker    *validate.Checker
	calculator *stats.Calculator
	renderer   *Renderer
	suggester  *llm.Suggester // nil if disabled
	limiter    *worker.Limiter
	suggCache  cache.Cache // nil if disabled
	config     *model.Config
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	var suggester *llm.Suggester
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSuggester(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			slog.Warn("failed to initialize LLM provider", "error", err)
		} else {
			suggester = s
		}
	}

	var suggCache cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				dir = filepath.Join(home, ".marginalia", "cache")
			}
		}
		if dir != "" {
			suggCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		}
	}

	return &Pipeline{
		loader:     NewLoader(cfg.Input.MaxBytes),
		importer:   story.NewImporter(),
		annotator:  story.NewAnnotator(),
		splitter:   extract.NewSplitter(),
		checker:    validate.NewChecker(),
		calculator: stats.NewCalculator(),
		renderer:   NewRenderer(cfg.Output.Pretty),
		suggester:  suggester,
		limiter:    worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst),
		suggCache:  suggCache,
		config:     cfg,
	}
}

// LoadStory reads and imports a story document
func (p *Pipeline) LoadStory(path string) (*model.Story, error) {
	data, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}
	st, err := p.importer.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return st, nil
}

// SaveStory writes the story back as a full document
func (p *Pipeline) SaveStory(st *model.Story, path string) error {
	return p.renderer.RenderJSON(story.ExportFull(st), path)
}

// WriteSimple writes the simple export shape
func (p *Pipeline) WriteSimple(st *model.Story, path string) error {
	return p.renderer.RenderJSON(story.ExportSimple(st), path)
}

// AddSingle appends a single comment to one sentence
func (p *Pipeline) AddSingle(st *model.Story, sentenceID, text string) (*model.Story, error) {
	return p.annotator.AddSingle(st, sentenceID, text)
}

// AddBulk annotates several sentences in one action
func (p *Pipeline) AddBulk(st *model.Story, sentenceIDs []string, text string, kind model.BulkKind) (*model.Story, error) {
	return p.annotator.AddBulk(st, sentenceIDs, text, kind)
}

// EditComment rewrites a comment (and its whole group, if linked)
func (p *Pipeline) EditComment(st *model.Story, commentID, groupID, newText string) (*model.Story, error) {
	return p.annotator.Edit(st, commentID, groupID, newText)
}

// DeleteComment removes a comment (and its whole group, if linked)
func (p *Pipeline) DeleteComment(st *model.Story, sentenceID, commentID string) (*model.Story, error) {
	return p.annotator.Delete(st, sentenceID, commentID)
}

// Check audits a story for invariant violations
func (p *Pipeline) Check(st *model.Story) []validate.Issue {
	return p.checker.Check(st)
}

// Stats computes the annotation coverage report
func (p *Pipeline) Stats(st *model.Story) stats.Report {
	return p.calculator.Calculate(st)
}

// Renderer exposes the output writer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// BuildStory ingests a raw manuscript (plain text or HTML by extension) and
// constructs a fresh, unannotated story
func (p *Pipeline) BuildStory(path, title string) (*model.Story, error) {
	data, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}

	var sentences []extract.RawSentence
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		sentences, err = p.splitter.SplitHTML(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse HTML: %w", err)
		}
	default:
		sentences = p.splitter.SplitText(string(data))
	}

	if len(sentences) == 0 {
		return nil, fmt.Errorf("no sentences found in %s", path)
	}

	st := &model.Story{
		Title:    title,
		Chapters: make(map[int][]model.AnalysisItem),
		Source: model.StorySource{
			Title:    title,
			Chapters: make(map[string]string),
		},
	}

	chapterText := make(map[int][]string)
	for _, s := range sentences {
		st.Chapters[s.Chapter] = append(st.Chapters[s.Chapter], model.AnalysisItem{
			SentenceID: model.SentenceID(s.Chapter, s.Number),
			Sentence:   s.Text,
			Chapter:    s.Chapter,
			Number:     s.Number,
		})
		chapterText[s.Chapter] = append(chapterText[s.Chapter], s.Text)
	}
	for ch, texts := range chapterText {
		st.Source.Chapters[fmt.Sprintf("%d", ch)] = strings.Join(texts, " ")
	}

	return st, nil
}

// ClearSuggestionCache empties both suggestion cache layers. A disabled
// cache is a no-op.
func (p *Pipeline) ClearSuggestionCache() error {
	if p.suggCache == nil {
		return nil
	}
	return p.suggCache.Clear()
}

// SuggestionOutcome pairs one sentence with its draft, in story order
type SuggestionOutcome struct {
	SentenceID string          `json:"sentence_id"`
	Sentence   string          `json:"sentence"`
	Suggestion *llm.Suggestion `json:"suggestion,omitempty"`
	FromCache  bool            `json:"from_cache,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Suggest drafts comments for the targeted sentences (all un-annotated
// sentences when targets is empty) and returns the outcomes in story order
func (p *Pipeline) Suggest(ctx context.Context, st *model.Story, targets []string, instructions string) ([]SuggestionOutcome, error) {
	if p.suggester == nil || !p.suggester.IsEnabled() {
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider or --llm-provider)")
	}
	if !p.suggester.CheckAvailable(ctx) {
		return nil, fmt.Errorf("LLM provider %s is not available", p.suggester.ProviderName())
	}

	wanted := make(map[string]bool, len(targets))
	for _, id := range targets {
		wanted[id] = true
	}

	items := st.Items()
	var requests []worker.SentenceRequest
	for i, item := range items {
		if len(targets) > 0 {
			if !wanted[item.SentenceID] {
				continue
			}
		} else if len(item.Comments) > 0 {
			continue // Default run only covers un-annotated sentences
		}

		requests = append(requests, worker.SentenceRequest{
			SentenceID: item.SentenceID,
			Request: llm.SuggestRequest{
				Sentence:     item.Sentence,
				Context:      neighborContext(items, i),
				StoryTitle:   st.Title,
				Instructions: instructions,
				Model:        p.config.LLM.Model,
			},
		})
	}

	if len(requests) == 0 {
		return []SuggestionOutcome{}, nil
	}

	batch := worker.NewSuggestBatch(p.suggester, p.limiter, p.suggCache, p.config.Concurrency.Workers)
	results := batch.Run(ctx, requests)

	byID := make(map[string]*worker.SuggestResult, len(results))
	for _, r := range results {
		byID[r.SentenceID] = r
	}

	var outcomes []SuggestionOutcome
	for _, item := range items {
		r, ok := byID[item.SentenceID]
		if !ok {
			continue
		}
		outcome := SuggestionOutcome{
			SentenceID: item.SentenceID,
			Sentence:   item.Sentence,
			Suggestion: r.Suggestion,
			FromCache:  r.FromCache,
		}
		if r.Error != nil {
			outcome.Error = r.Error.Error()
			slog.Warn("suggestion failed", "sentence", item.SentenceID, "error", r.Error)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// ApplySuggestions attaches accepted drafts as single comments
func (p *Pipeline) ApplySuggestions(st *model.Story, outcomes []SuggestionOutcome) (*model.Story, int, error) {
	applied := 0
	for _, outcome := range outcomes {
		if outcome.Suggestion == nil || !outcome.Suggestion.Enabled || outcome.Suggestion.Text == "" {
			continue
		}
		next, err := p.annotator.AddSingle(st, outcome.SentenceID, outcome.Suggestion.Text)
		if err != nil {
			return st, applied, fmt.Errorf("apply to %s: %w", outcome.SentenceID, err)
		}
		st = next
		applied++
	}
	return st, applied, nil
}

// neighborContext gathers the sentences on either side of index i
func neighborContext(items []model.AnalysisItem, i int) string {
	var parts []string
	if i > 0 && items[i-1].Chapter == items[i].Chapter {
		parts = append(parts, items[i-1].Sentence)
	}
	if i+1 < len(items) && items[i+1].Chapter == items[i].Chapter {
		parts = append(parts, items[i+1].Sentence)
	}
	return strings.Join(parts, " ")
}
