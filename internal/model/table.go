package model

import "time"

// NewHardware builds a Hardware entry with its neighbor table initialized.
func NewHardware(ifName string, ifIndex int) *Hardware {
	return &Hardware{
		IfName:    ifName,
		IfIndex:   ifIndex,
		neighbors: make(map[string]*NeighborPort),
	}
}

// Upsert inserts or refreshes a neighbor entry. A repeat announcement from
// the same chassis+port identity replaces the stored Port (picking up any
// changed fields) and refreshes LastSeen/TTL, rather than creating a
// duplicate entry: re-receiving an announcement from an already-known
// neighbor refreshes it without changing the set of stored neighbors.
func (h *Hardware) Upsert(remote *NeighborPort, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remote.Touch(now)
	h.neighbors[remote.key()] = remote
}

// Prune removes every neighbor entry whose TTL has elapsed as of now and
// returns the chassis identities that were released to zero references, so
// the caller can drop them from any cross-port chassis index.
func (h *Hardware) Prune(now time.Time) []*Chassis {
	h.mu.Lock()
	defer h.mu.Unlock()

	var released []*Chassis
	for key, n := range h.neighbors {
		if !n.Expired(now) {
			continue
		}
		delete(h.neighbors, key)
		if n.Port.Chassis != nil && n.Port.Chassis.Release() {
			released = append(released, n.Port.Chassis)
		}
	}
	return released
}

// Table indexes every Hardware entry the daemon currently watches, keyed
// by interface name.
type Table struct {
	byName map[string]*Hardware
}

// NewTable returns an empty interface table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Hardware)}
}

// Put registers or replaces the Hardware entry for its interface name.
func (t *Table) Put(hw *Hardware) {
	t.byName[hw.IfName] = hw
}

// Get returns the Hardware entry for name, or nil if untracked.
func (t *Table) Get(name string) *Hardware {
	return t.byName[name]
}

// Remove drops the Hardware entry for name from the table.
func (t *Table) Remove(name string) {
	delete(t.byName, name)
}

// All returns a snapshot slice of every tracked Hardware entry.
func (t *Table) All() []*Hardware {
	out := make([]*Hardware, 0, len(t.byName))
	for _, hw := range t.byName {
		out = append(out, hw)
	}
	return out
}

// PruneAll runs Prune across every tracked interface, returning the total
// set of chassis released to zero references.
func (t *Table) PruneAll(now time.Time) []*Chassis {
	var released []*Chassis
	for _, hw := range t.byName {
		released = append(released, hw.Prune(now)...)
	}
	return released
}
