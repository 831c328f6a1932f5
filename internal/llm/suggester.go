package llm

import (
	"context"
	"fmt"
)

// Suggestion is the outcome of one suggestion attempt. Warnings carry
// non-fatal problems (provider unavailable, generation failure) so a batch
// run over many sentences never aborts on one bad call.
type Suggestion struct {
	Enabled    bool     `json:"enabled"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
	Text       string   `json:"text,omitempty"`
	TokensUsed int      `json:"tokens_used,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Suggester wraps a provider with availability handling
type Suggester struct {
	provider Provider
	config   Config
}

// NewSuggester creates a suggester from configuration. An empty provider
// name yields a disabled suggester, not an error.
func NewSuggester(config Config) (*Suggester, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Suggester{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Suggester) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider's name, or "" when disabled
func (s *Suggester) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// CheckAvailable verifies the provider is reachable. Call once before a
// batch run instead of per sentence.
func (s *Suggester) CheckAvailable(ctx context.Context) bool {
	return s.provider != nil && s.provider.IsAvailable(ctx)
}

// SuggestComment drafts an annotation for one sentence. A nil result with a
// nil error means suggestions are disabled.
func (s *Suggester) SuggestComment(ctx context.Context, req SuggestRequest) (*Suggestion, error) {
	if s.provider == nil {
		return nil, nil
	}

	resp, err := s.provider.Suggest(ctx, req)
	if err != nil {
		return &Suggestion{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{fmt.Sprintf("suggestion failed: %v", err)},
		}, nil
	}

	return &Suggestion{
		Enabled:    true,
		Provider:   s.provider.Name(),
		Model:      resp.Model,
		Text:       resp.Text,
		TokensUsed: resp.TokensUsed,
	}, nil
}
