package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoader_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.json")
	if err := os.WriteFile(path, []byte(`{"analysis":[]}`), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := NewLoader(1000)
	data, err := loader.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"analysis":[]}` {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestLoader_RejectsOversizedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.json")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := NewLoader(50)
	if _, err := loader.Load(path); err == nil {
		t.Fatal("expected an error for an oversized document")
	}
}

func TestLoader_AcceptsDocumentAtTheLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exact.json")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 50)), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader := NewLoader(50)
	data, err := loader.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 50 {
		t.Errorf("expected 50 bytes, got %d", len(data))
	}
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader(1000)
	if _, err := loader.Load("/nonexistent/story.json"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
