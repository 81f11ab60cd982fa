// Package settings holds DB-backed runtime settings. Values live in the
// settings table as JSON and are served from an in-memory snapshot refreshed
// at startup and after writes.
package settings

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

// Setting keys.
const (
	// DefaultPageSizeKey overrides the configured listing page size.
	DefaultPageSizeKey = "pagination.default_page_size"
)

// snapshot holds the in-memory settings values.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

// global stores the latest snapshot atomically.
var global atomic.Value // stores snapshot

func init() {
	global.Store(snapshot{values: map[string]json.RawMessage{}})
}

// Store replaces the in-memory snapshot.
func Store(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if v == nil {
			next[key] = nil
			continue
		}
		copied := make([]byte, len(v))
		copy(copied, v)
		next[key] = copied
	}
	global.Store(snapshot{updatedAt: updatedAt.UTC(), values: next})
}

// UpdatedAt returns the last refresh timestamp.
func UpdatedAt() time.Time {
	return load().updatedAt
}

// Value returns a copy of the raw value for key.
func Value(key string) (json.RawMessage, bool) {
	snap := load()
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	val, ok := snap.values[key]
	if !ok {
		return nil, false
	}
	if val == nil {
		return nil, true
	}
	copied := make([]byte, len(val))
	copy(copied, val)
	return copied, true
}

// IntValue decodes the value for key as an integer, returning fallback when
// the key is absent or not a number.
func IntValue(key string, fallback int) int {
	raw, ok := Value(key)
	if !ok || raw == nil {
		return fallback
	}
	var n int
	if errDecode := json.Unmarshal(raw, &n); errDecode != nil {
		return fallback
	}
	return n
}

// DefaultPageSize returns the runtime default page size, falling back to the
// configured value.
func DefaultPageSize(configured int) int {
	size := IntValue(DefaultPageSizeKey, configured)
	if size <= 0 {
		return configured
	}
	return size
}

func load() snapshot {
	v := global.Load()
	snap, ok := v.(snapshot)
	if !ok {
		return snapshot{values: map[string]json.RawMessage{}}
	}
	if snap.values == nil {
		return snapshot{updatedAt: snap.updatedAt, values: map[string]json.RawMessage{}}
	}
	return snap
}
