package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SuggestResponse
	err       error
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Suggest(ctx context.Context, req SuggestRequest) (*SuggestResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestNewSuggester_DisabledProvider(t *testing.T) {
	config := Config{
		Provider: "", // Empty = disabled
	}

	suggester, err := NewSuggester(config)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if suggester.provider != nil {
		t.Error("Expected provider to be nil when disabled")
	}

	if suggester.IsEnabled() {
		t.Error("Expected suggester to be disabled")
	}

	if suggester.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewSuggester_UnknownProvider(t *testing.T) {
	_, err := NewSuggester(Config{Provider: "carrier-pigeon"})
	if err == nil {
		t.Fatal("Expected an error for an unknown provider")
	}
	if !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Errorf("Expected error to name the provider, got %v", err)
	}
}

func TestSuggester_Disabled(t *testing.T) {
	suggester := &Suggester{
		provider: nil,
		config:   Config{},
	}

	suggestion, err := suggester.SuggestComment(context.Background(), SuggestRequest{Sentence: "A door opened."})

	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if suggestion != nil {
		t.Error("Expected nil suggestion when provider disabled")
	}
}

func TestSuggester_ProviderErrorBecomesWarning(t *testing.T) {
	suggester := &Suggester{
		provider: &MockProvider{
			name: "test-provider",
			err:  errors.New("model overloaded"),
		},
	}

	suggestion, err := suggester.SuggestComment(context.Background(), SuggestRequest{Sentence: "A door opened."})
	if err != nil {
		t.Fatalf("Expected no hard error, got %v", err)
	}
	if suggestion == nil {
		t.Fatal("Expected a suggestion object with warnings")
	}
	if suggestion.Enabled {
		t.Error("Expected failed suggestion to be marked disabled")
	}

	found := false
	for _, warning := range suggestion.Warnings {
		if strings.Contains(warning, "model overloaded") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected warning to carry the provider error, got %v", suggestion.Warnings)
	}
}

func TestSuggester_Success(t *testing.T) {
	suggester := &Suggester{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			response: &SuggestResponse{
				Text:       "Tighten the clause after the comma.",
				Model:      "test-model",
				TokensUsed: 42,
			},
		},
	}

	suggestion, err := suggester.SuggestComment(context.Background(), SuggestRequest{Sentence: "A door opened."})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !suggestion.Enabled {
		t.Error("Expected suggestion to be enabled")
	}
	if suggestion.Text != "Tighten the clause after the comma." {
		t.Errorf("Unexpected suggestion text: %q", suggestion.Text)
	}
	if suggestion.Provider != "test-provider" || suggestion.Model != "test-model" {
		t.Errorf("Expected provenance fields, got %+v", suggestion)
	}
	if suggestion.TokensUsed != 42 {
		t.Errorf("Expected token usage 42, got %d", suggestion.TokensUsed)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(SuggestRequest{
		Sentence:     "The rain had not stopped for days.",
		Context:      "It began with a knock.",
		StoryTitle:   "The Long Rain",
		Instructions: "pacing only",
	})

	for _, want := range []string{"The Long Rain", "It began with a knock.", "The rain had not stopped for days.", "pacing only"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	minimal := BuildPrompt(SuggestRequest{Sentence: "Just this."})
	if strings.Contains(minimal, "Story:") || strings.Contains(minimal, "Focus:") {
		t.Errorf("Expected optional sections to be omitted, got %q", minimal)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Error("Expected suggestions to be disabled by default")
	}
	if config.Timeout != 30 {
		t.Errorf("Expected 30s default timeout, got %d", config.Timeout)
	}
	if config.MaxTokens != 300 {
		t.Errorf("Expected 300 default max tokens, got %d", config.MaxTokens)
	}
}
