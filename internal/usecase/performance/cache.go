package performance

import (
	"encoding/binary"
	"hash/fnv"
	"sync"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

type cacheKey struct {
	scope  string
	period Period
}

type cacheEntry struct {
	fingerprint uint64
	result      Result
}

// resultCache memoizes performance results per (scope, period). An entry is
// only served while its fingerprint matches the contributing data, so a stale
// entry can never be returned, only recomputed. Guarded by an RWMutex: reads
// dominate, writes happen once per mutation.
type resultCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[cacheKey]cacheEntry)}
}

func (c *resultCache) get(key cacheKey, fingerprint uint64) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || entry.fingerprint != fingerprint {
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key cacheKey, fingerprint uint64, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{fingerprint: fingerprint, result: result}
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}

// fingerprintPoints hashes every contributing (date, value) pair. Any change
// to any point yields a different fingerprint.
func fingerprintPoints(points []domain.ChartDataPoint) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, p := range points {
		binary.BigEndian.PutUint64(buf[:], uint64(p.Date.UnixNano()))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(p.Value.String()))
	}
	return h.Sum64()
}
