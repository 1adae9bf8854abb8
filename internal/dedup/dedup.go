// Package dedup provides the inbound message deduplication filter.
//
// Webhook providers deliver events at least once; the filter guarantees that
// a given provider message id is processed at most once within a retention
// window. Entries expire after the window, which bounds memory in
// long-running processes while staying larger than the provider's redelivery
// horizon.
package dedup

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultRetention is the default time a message id is remembered. It should
// exceed the provider's maximum webhook redelivery window.
const DefaultRetention = 24 * time.Hour

// Filter is a bounded, TTL-windowed set of processed message ids. All
// methods are safe for concurrent use.
type Filter struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

// NewFilter creates a Filter with the given retention window. A
// non-positive retention falls back to DefaultRetention.
func NewFilter(retention time.Duration) *Filter {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Filter{
		seen:      make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// CheckAndMark atomically records the id and reports whether it had already
// been seen within the retention window. Empty ids are never deduplicated:
// malformed payloads must not collide with each other.
func (f *Filter) CheckAndMark(id string) bool {
	if id == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	f.pruneLocked(now)
	if _, dup := f.seen[id]; dup {
		slog.Debug("Dedup filter dropped duplicate delivery", "messageID", id)
		return true
	}
	f.seen[id] = now
	return false
}

// Seen reports whether the id is currently recorded, without marking it.
func (f *Filter) Seen(id string) bool {
	if id == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.seen[id]
	return ok && f.now().Sub(at) < f.retention
}

// Len returns the number of ids currently held.
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// pruneLocked drops expired entries. Caller must hold the mutex.
func (f *Filter) pruneLocked(now time.Time) {
	for id, at := range f.seen {
		if now.Sub(at) >= f.retention {
			delete(f.seen, id)
		}
	}
}
