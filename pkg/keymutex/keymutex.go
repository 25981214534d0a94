package keymutex

import (
	"context"
	"sync"
)

// KeyMutex is a table of mutexes keyed by K. Locks on different keys never
// contend; an entry lives only while some goroutine holds or waits for it.
type KeyMutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

type entry struct {
	// sem has capacity one; a filled slot means the key is held.
	sem  chan struct{}
	refs int
}

// New creates an empty KeyMutex.
func New[K comparable]() *KeyMutex[K] {
	return &KeyMutex[K]{entries: make(map[K]*entry)}
}

// Lock blocks until the lock for key is acquired or ctx is done.
// On success the returned func releases the lock and must be called exactly once.
func (m *KeyMutex[K]) Lock(ctx context.Context, key K) (func(), error) {
	e := m.acquire(key)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.release(key, e)
		})
	}, nil
}

// Len returns the number of keys currently held or waited on.
func (m *KeyMutex[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *KeyMutex[K]) acquire(key K) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *KeyMutex[K]) release(key K, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}
