package main

import "sync"

// identifierDeduper is the run-wide set of identifiers already queued. Entries
// are never removed.
type identifierDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newIdentifierDeduper() *identifierDeduper {
	return &identifierDeduper{seen: make(map[string]struct{})}
}

// Add records id and reports whether it was new.
func (d *identifierDeduper) Add(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

func (d *identifierDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
