package utils

import (
	"sync"
	"time"
)

// KeyGenerator mints package keys whose millisecond stamps strictly increase
// within the process, so two uploads in the same millisecond never share a key.
// Uploads from separate processes can still collide.
type KeyGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewKeyGenerator creates a generator driven by now. A nil now uses time.Now.
func NewKeyGenerator(now func() time.Time) *KeyGenerator {
	if now == nil {
		now = time.Now
	}
	return &KeyGenerator{now: now}
}

// Next returns a fresh key for filename under prefix.
func (g *KeyGenerator) Next(prefix, filename string) string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return GeneratePackageKey(prefix, time.UnixMilli(ms), filename)
}
