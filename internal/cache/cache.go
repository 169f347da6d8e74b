// Package cache provides a best-effort TTL cache for external lookup results.
// Backends never surface errors: a failed read is a miss, a failed write is
// dropped. Entries are keyed by call parameters only, so they are shared
// across sessions.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Key builds a deterministic cache key of the form
// "cache:<prefix>:<16 hex chars>" from a stable sort of the non-nil
// parameters. The same parameters always produce the same key regardless of
// map iteration order.
func Key(prefix string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([][2]any, 0, len(names))
	for _, name := range names {
		parts = append(parts, [2]any{name, params[name]})
	}

	raw, err := json.Marshal(parts)
	if err != nil {
		raw = []byte(prefix)
	}
	sum := sha256.Sum256(raw)
	return "cache:" + prefix + ":" + hex.EncodeToString(sum[:])[:16]
}
