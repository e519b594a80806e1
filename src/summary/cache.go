package summary

import (
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// FingerprintCache
// -----------------------------------------------------------------------------

// FingerprintCache records the last fingerprint computed per facility. It is
// observability state only: snapshots are always recomputed per request, so
// the cache never changes response semantics.
type FingerprintCache struct {
	mu      sync.RWMutex
	entries map[int64]FingerprintRecord
}

// FingerprintRecord is one per-facility cache entry.
type FingerprintRecord struct {
	Fingerprint string `json:"fingerprint"`
	ComputedAt  int64  `json:"computed_at"`
}

// -----------------------------------------------------------------------------

func NewFingerprintCache() *FingerprintCache {
	return &FingerprintCache{
		entries: make(map[int64]FingerprintRecord),
	}
}

// -----------------------------------------------------------------------------

// Record stores the fingerprint just computed for a facility.
func (c *FingerprintCache) Record(facilityID int64, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[facilityID] = FingerprintRecord{
		Fingerprint: fingerprint,
		ComputedAt:  time.Now().UTC().Unix(),
	}
}

// -----------------------------------------------------------------------------

// Get returns the last recorded fingerprint for a facility, if any.
func (c *FingerprintCache) Get(facilityID int64) (FingerprintRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.entries[facilityID]
	return rec, ok
}

// -----------------------------------------------------------------------------

// Snapshot copies the full cache for the health endpoint.
func (c *FingerprintCache) Snapshot() map[int64]FingerprintRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int64]FingerprintRecord, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
