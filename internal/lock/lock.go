// Package lock serializes work per string key. The in-process KeyedMutex covers a
// single instance; RedisLocker extends the same guarantee across instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrNotObtained = errors.New("lock not obtained")

type Lock interface {
	Release(ctx context.Context) error
}

type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// With runs fn while holding key.
func With(ctx context.Context, l Locker, key string, fn func() error) error {
	held, err := l.Obtain(ctx, key)
	if err != nil {
		return fmt.Errorf("obtain %s: %w", key, err)
	}
	defer held.Release(context.WithoutCancel(ctx))
	return fn()
}

type keyEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. Entries are dropped once no caller holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyEntry)}
}

func (m *KeyedMutex) acquireEntry(key string) *keyEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.locks[key]
	if !ok {
		e = &keyEntry{sem: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	return e
}

func (m *KeyedMutex) dropEntry(key string, e *keyEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

func (m *KeyedMutex) Obtain(ctx context.Context, key string) (Lock, error) {
	e := m.acquireEntry(key)
	select {
	case e.sem <- struct{}{}:
		return &localLock{owner: m, key: key, entry: e}, nil
	case <-ctx.Done():
		m.dropEntry(key, e)
		return nil, fmt.Errorf("%w: %v", ErrNotObtained, ctx.Err())
	}
}

// Len reports how many keys are currently tracked.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

type localLock struct {
	owner    *KeyedMutex
	key      string
	entry    *keyEntry
	released sync.Once
}

func (l *localLock) Release(_ context.Context) error {
	l.released.Do(func() {
		<-l.entry.sem
		l.owner.dropEntry(l.key, l.entry)
	})
	return nil
}
