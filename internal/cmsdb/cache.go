package cmsdb

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a collection snapshot is served without
// touching disk.
const DefaultCacheTTL = 2 * time.Second

// cache memoizes the raw bytes of each collection file.
//
// Snapshots are immutable byte slices; callers decode a fresh value on every
// read, so no caller can mutate another's view.
//
// The mutex is never held across file I/O. To keep a slow reader from
// overwriting a newer snapshot stored by a writer in the meantime, every
// entry carries a generation: a reader captures it with begin and its fill is
// dropped if a put or invalidate happened since.
type cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[Collection]cacheEntry
	gens    map[Collection]uint64
}

type cacheEntry struct {
	data      []byte
	fetchedAt time.Time
}

func newCache(ttl time.Duration, now func() time.Time) *cache {
	return &cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[Collection]cacheEntry),
		gens:    make(map[Collection]uint64),
	}
}

// get returns the snapshot for c if it is younger than the TTL.
func (ch *cache) get(c Collection) ([]byte, bool) {
	if ch.ttl <= 0 {
		return nil, false
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	e, ok := ch.entries[c]
	if !ok || ch.now().Sub(e.fetchedAt) >= ch.ttl {
		return nil, false
	}

	return e.data, true
}

// begin returns the current generation of c, to be passed to fill.
func (ch *cache) begin(c Collection) uint64 {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.gens[c]
}

// fill stores a snapshot read from disk unless c changed since begin.
func (ch *cache) fill(c Collection, gen uint64, data []byte) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.gens[c] != gen {
		return
	}

	ch.entries[c] = cacheEntry{data: data, fetchedAt: ch.now()}
}

// put stores the bytes a writer just persisted.
func (ch *cache) put(c Collection, data []byte) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.gens[c]++
	ch.entries[c] = cacheEntry{data: data, fetchedAt: ch.now()}
}

func (ch *cache) invalidate(c Collection) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.gens[c]++
	delete(ch.entries, c)
}
