package server

import (
	"math"
	"sync"

	"github.com/bastiangx/wordspell/pkg/speller"
)

// resultCache keeps the raw speller results of recent suggest requests.
// The least recently used entry is evicted when full.
type resultCache struct {
	entries     map[string][]speller.Suggestion
	accessTime  map[string]int64
	accessCount int64
	maxEntries  int
	hits        int64
	mu          sync.Mutex
}

func newResultCache(maxEntries int) *resultCache {
	if maxEntries <= 0 {
		return nil
	}
	return &resultCache{
		entries:    make(map[string][]speller.Suggestion, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// cacheKey separates searches with and without completion.
func cacheKey(word string, completing bool) string {
	if completing {
		return "c\x00" + word
	}
	return "n\x00" + word
}

func (rc *resultCache) get(key string) ([]speller.Suggestion, bool) {
	if rc == nil {
		return nil, false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	found, ok := rc.entries[key]
	if !ok {
		return nil, false
	}
	rc.hits++
	rc.markAccessed(key)
	return append([]speller.Suggestion(nil), found...), true
}

func (rc *resultCache) put(key string, found []speller.Suggestion) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, ok := rc.entries[key]; !ok && len(rc.entries) >= rc.maxEntries {
		rc.evictLRU()
	}
	rc.entries[key] = append([]speller.Suggestion(nil), found...)
	rc.markAccessed(key)
}

func (rc *resultCache) stats() (size int, hits int64) {
	if rc == nil {
		return 0, 0
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries), rc.hits
}

func (rc *resultCache) markAccessed(key string) {
	rc.accessCount++
	rc.accessTime[key] = rc.accessCount
}

func (rc *resultCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, t := range rc.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(rc.entries, oldestKey)
		delete(rc.accessTime, oldestKey)
	}
}
