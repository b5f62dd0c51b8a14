package repository

import "sync"

// listingLocks hands out one mutex per listing id. Entries are reference
// counted and dropped once no goroutine holds or waits on them.
type listingLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newListingLocks() *listingLocks {
	return &listingLocks{locks: make(map[string]*lockEntry)}
}

// lock blocks until the listing's mutex is held and returns its release func
func (l *listingLocks) lock(listingID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[listingID]
	if !ok {
		entry = &lockEntry{}
		l.locks[listingID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, listingID)
		}
		l.mu.Unlock()
	}
}
