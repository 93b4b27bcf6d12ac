// Package lock serialises work per entity inside the process.
package lock

import (
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed hands out one mutex per id. Entries are dropped once nobody holds
// or waits on them, so the map stays the size of the active set.
type Keyed struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[uuid.UUID]*entry)}
}

// Lock blocks until id is free and returns the matching unlock.
func (k *Keyed) Lock(id uuid.UUID) func() {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &entry{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.entries, id)
			}
			k.mu.Unlock()
		})
	}
}

// Len reports how many ids are currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
