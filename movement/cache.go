package movement

import "sync"

type cacheKey struct {
	noPairs  int
	noBoards int
}

var (
	cacheMu sync.RWMutex
	cache   = make(map[cacheKey]*Movement)
)

// Cached returns the movement for the configuration, generating it on first
// use. Generation is pure and idempotent, so a duplicate concurrent
// generation is wasted work at worst; the lock only ensures one stable copy
// is reused afterwards. A configuration change simply resolves to a different
// key, so no invalidation is needed.
func Cached(noPairs, noBoards int) (*Movement, error) {
	key := cacheKey{noPairs: noPairs, noBoards: noBoards}

	cacheMu.RLock()
	m, ok := cache[key]
	cacheMu.RUnlock()
	if ok {
		return m, nil
	}

	m, err := Generate(noPairs, noBoards)
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	if existing, ok := cache[key]; ok {
		m = existing
	} else {
		cache[key] = m
	}
	cacheMu.Unlock()
	return m, nil
}
