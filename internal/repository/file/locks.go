package file

import "sync"

// keyedMutex hands out one mutex per question ID.
//
// The directory of record files is shared mutable state with no locking of
// its own: two concurrent mutations of the same question would both load the
// pre-mutation file, compute independent updates, and the second write would
// silently discard the first. Serializing the whole load-modify-store cycle
// per ID closes that window in-process. Mutexes are never released from the
// map; the corpus is small and IDs are never deleted.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*sync.Mutex)}
}

// lock acquires the mutex for id and returns the matching unlock func:
//
//	defer k.lock(id)()
func (k *keyedMutex) lock(id int) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
