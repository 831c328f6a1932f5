package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching suggestion payloads
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SuggestionKey generates a cache key for one sentence suggestion. The key
// covers provider, model and the exact sentence text, so switching models or
// editing the manuscript never serves a stale draft.
func SuggestionKey(provider, model, sentence string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + sentence))
	return "marginalia:v1:" + hex.EncodeToString(hash[:])
}
