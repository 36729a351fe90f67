package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sensefold/sensefold/internal/model"
)

// Cache stores serialized reduction results.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for one reduction from the raw input
// document and the mode. Identical inputs under the same mode always hit
// the same entry; the mode is part of the key because it changes bucket
// membership.
func Key(rawDoc []byte, mode model.Mode) string {
	sum := sha256.New()
	sum.Write(rawDoc)
	sum.Write([]byte{0})
	sum.Write([]byte(mode))
	return "sensefold:v1:" + hex.EncodeToString(sum.Sum(nil))
}
