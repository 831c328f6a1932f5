package pipeline

import (
	"fmt"
	"io"
	"os"
)

// Loader reads story documents from files or stdin with a size cap
type Loader struct {
	maxBytes int64
}

// NewLoader creates a loader with the given size cap
func NewLoader(maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = 20_000_000
	}
	return &Loader{maxBytes: maxBytes}
}

// Load reads the document at path; "-" reads stdin
func (l *Loader) Load(path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	// Read one byte past the cap to distinguish "at the limit" from "over"
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", l.maxBytes)
	}

	return data, nil
}
