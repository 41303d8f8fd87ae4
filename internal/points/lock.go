package points

import "sync"

// memberLocks serializes read-modify-write sequences per member id. Entries
// are dropped once no goroutine holds or waits on them.
type memberLocks struct {
	mu    sync.Mutex
	locks map[int64]*memberLock
}

type memberLock struct {
	mu   sync.Mutex
	refs int
}

func newMemberLocks() *memberLocks {
	return &memberLocks{locks: make(map[int64]*memberLock)}
}

// Lock blocks until the member's lock is held and returns its release func.
func (l *memberLocks) Lock(memberID int64) func() {
	l.mu.Lock()
	ml, ok := l.locks[memberID]
	if !ok {
		ml = &memberLock{}
		l.locks[memberID] = ml
	}
	ml.refs++
	l.mu.Unlock()

	ml.mu.Lock()
	return func() {
		ml.mu.Unlock()
		l.mu.Lock()
		ml.refs--
		if ml.refs == 0 {
			delete(l.locks, memberID)
		}
		l.mu.Unlock()
	}
}

func (l *memberLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
