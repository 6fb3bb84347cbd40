package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
)

// Locker serialises turns per session id.
// An id's entry lives only while a turn holds or waits for it.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
	wait    time.Duration
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int // holders plus waiters
}

// NewLocker creates a locker. A turn waits up to wait for the previous one;
// wait <= 0 rejects immediately when the session is busy.
func NewLocker(wait time.Duration) *Locker {
	return &Locker{entries: make(map[string]*lockEntry), wait: wait}
}

// Lock acquires the session and returns its release function.
// It fails with agent.ErrSessionBusy when the session stays busy.
func (l *Locker) Lock(ctx context.Context, id string) (func(), error) {
	e := l.ref(id)

	if l.wait <= 0 {
		if !e.sem.TryAcquire(1) {
			l.unref(id)
			return nil, errors.Wrapf(agent.ErrSessionBusy, "session %s", id)
		}
		return l.releaser(id, e), nil
	}

	cctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	if err := e.sem.Acquire(cctx, 1); err != nil {
		l.unref(id)
		return nil, errors.Wrapf(agent.ErrSessionBusy, "session %s: %v", id, err)
	}
	return l.releaser(id, e), nil
}

// Len returns the number of sessions currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locker) ref(id string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[id] = e
	}
	e.refs++
	return e
}

func (l *Locker) unref(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(l.entries, id)
	}
}

func (l *Locker) releaser(id string, e *lockEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(id)
		})
	}
}
