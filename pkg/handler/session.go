package handler

import (
	"sync"
	"time"
)

type familyKey struct {
	Family Family
	windowKey
}

// sessionBook tracks window starts per session, device and family, and
// bounds the number of live sessions.
type sessionBook struct {
	mu      sync.Mutex
	max     int
	now     func() time.Time
	windows map[familyKey]time.Time
	// seq holds the use order of every live session.
	seq  map[uint64]uint64
	tick uint64
}

func newSessionBook(maxSessions int, now func() time.Time) *sessionBook {
	return &sessionBook{
		max:     maxSessions,
		now:     now,
		windows: make(map[familyKey]time.Time),
		seq:     make(map[uint64]uint64),
	}
}

// start returns the window start of the given key, opening the window when
// it does not exist yet. Sessions evicted to make room are returned.
func (b *sessionBook) start(f Family, key windowKey) (start time.Time, opened bool, evicted []uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted = b.use(key.Session)
	fk := familyKey{Family: f, windowKey: key}
	if s, ok := b.windows[fk]; ok {
		return s, false, evicted
	}
	start = b.now()
	b.windows[fk] = start
	return start, true, evicted
}

// reset moves the window start of key to now.
func (b *sessionBook) reset(f Family, key windowKey) (start time.Time, evicted []uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted = b.use(key.Session)
	start = b.now()
	b.windows[familyKey{Family: f, windowKey: key}] = start
	return start, evicted
}

// drop forgets a session.
func (b *sessionBook) drop(session uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forget(session)
}

// sessions returns the number of live sessions.
func (b *sessionBook) sessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.seq)
}

// use marks session as most recently used, evicting the least recently
// used sessions while the book is over capacity. Callers hold b.mu.
func (b *sessionBook) use(session uint64) []uint64 {
	b.tick++
	_, known := b.seq[session]
	b.seq[session] = b.tick
	if known || b.max <= 0 {
		return nil
	}

	var evicted []uint64
	for len(b.seq) > b.max {
		victim, oldest := uint64(0), uint64(0)
		for s, n := range b.seq {
			if s == session {
				continue
			}
			if oldest == 0 || n < oldest {
				victim, oldest = s, n
			}
		}
		if oldest == 0 {
			break
		}
		b.forget(victim)
		evicted = append(evicted, victim)
	}
	return evicted
}

// forget removes every trace of session. Callers hold b.mu.
func (b *sessionBook) forget(session uint64) bool {
	if _, ok := b.seq[session]; !ok {
		return false
	}
	delete(b.seq, session)
	for k := range b.windows {
		if k.Session == session {
			delete(b.windows, k)
		}
	}
	return true
}
