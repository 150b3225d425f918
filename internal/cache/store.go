package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/clauseguard/clauseguard/internal/model"
)

// Store is the byte-level persistence interface behind the result cache.
// The persisted layout maps a fingerprint-derived key to a serialized
// analysis result.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// StoreKey derives the persistence key for a fingerprint. The in-memory
// result cache keeps exact fingerprints; only the persisted layout uses
// the hashed form.
func StoreKey(fp model.Fingerprint) string {
	hash := sha256.Sum256([]byte(fp.Key()))
	return "clauseguard:v1:" + hex.EncodeToString(hash[:])
}
