package handler

import "sync"

// recordLocks hands out one mutex per memory record id so concurrent engine
// completions (and tag/caption writes) serialize their read-modify-write of
// the analyses list instead of clobbering each other.
type recordLocks struct {
	mu    sync.Mutex
	locks map[uint]*recordLock
}

type recordLock struct {
	sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[uint]*recordLock)}
}

// Lock acquires the lock for a record id and returns its release func. The
// per-id entry is dropped once the last holder releases.
func (r *recordLocks) Lock(id uint) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &recordLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}
