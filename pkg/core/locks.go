package core

import "sync"

// nameLocks hands out one mutex per live file name, so load-modify-save
// sequences on the same name serialize while different names proceed
// in parallel. Entries are reference counted and dropped when idle.
type nameLocks struct {
	mu    sync.Mutex
	names map[string]*nameLock
}

type nameLock struct {
	mu   sync.Mutex
	held int
}

func newNameLocks() *nameLocks {
	return &nameLocks{names: make(map[string]*nameLock)}
}

func (nl *nameLocks) lock(name string) {
	nl.mu.Lock()
	entry, ok := nl.names[name]
	if !ok {
		entry = &nameLock{}
		nl.names[name] = entry
	}
	entry.held++
	nl.mu.Unlock()

	entry.mu.Lock()
}

func (nl *nameLocks) unlock(name string) {
	nl.mu.Lock()
	entry := nl.names[name]
	entry.held--
	if entry.held == 0 {
		delete(nl.names, name)
	}
	nl.mu.Unlock()

	entry.mu.Unlock()
}
