package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/marginalia/internal/model"
)

// Provider defines the interface for LLM suggestion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Suggest drafts an annotation for one sentence
	Suggest(ctx context.Context, req SuggestRequest) (*SuggestResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SuggestRequest contains the input for one suggestion
type SuggestRequest struct {
	// Sentence is the sentence to annotate
	Sentence string

	// Context holds the neighboring sentences, for continuity
	Context string

	// StoryTitle is shown to the model for framing
	StoryTitle string

	// Instructions is an optional user focus (e.g. "pacing only")
	Instructions string

	// Model overrides the configured model for this request
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SuggestResponse contains the provider's draft
type SuggestResponse struct {
	// Text is the suggested annotation
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 300,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}

// systemPrompt frames every request. Suggestions are drafts for a human
// editor; they never touch the story unless the user applies them.
const systemPrompt = "You are an editorial assistant drafting margin notes for a story editor. " +
	"Respond with one short, concrete annotation for the given sentence: what works, what to tighten, or what to check. " +
	"One or two sentences, no preamble, no praise padding."

// BuildPrompt constructs the user prompt for one suggestion
func BuildPrompt(req SuggestRequest) string {
	prompt := ""
	if req.StoryTitle != "" {
		prompt += fmt.Sprintf("Story: %s\n", req.StoryTitle)
	}
	if req.Context != "" {
		prompt += fmt.Sprintf("Surrounding text: %s\n", req.Context)
	}
	prompt += fmt.Sprintf("Sentence to annotate: %s\n", req.Sentence)
	if req.Instructions != "" {
		prompt += fmt.Sprintf("Focus: %s\n", req.Instructions)
	}
	return prompt
}
