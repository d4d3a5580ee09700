package webhooks

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Deduplicator remembers event IDs for a TTL so platform retries of the same
// delivery are answered once. A nil *Deduplicator lets everything through.
type Deduplicator struct {
	seen *cache.Cache
}

// NewDeduplicator returns nil when ttl is not positive.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		return nil
	}
	return &Deduplicator{seen: cache.New(ttl, 2*ttl)}
}

// FirstSeen records key and reports whether it was new. Empty keys are
// always new.
func (d *Deduplicator) FirstSeen(key string) bool {
	if d == nil || key == "" {
		return true
	}
	return d.seen.Add(key, struct{}{}, cache.DefaultExpiration) == nil
}
