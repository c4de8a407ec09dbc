package model

import (
	"time"

	"neighbord/internal/marshal"
)

// NeighborPort is one entry in a Hardware entry's neighbor table: a remote
// Port plus the local bookkeeping needed to expire it (spec.md's Neighbor
// Port TTL pruning).
type NeighborPort struct {
	Port Port

	// TTL is how long the entry stays valid after its last refresh.
	// Announcements carry no TTL, so internal/discovery sets a fixed
	// default on every received entry.
	TTL time.Duration

	// lastSeenUnixNano is the local clock time the entry was last refreshed
	// by an incoming announcement, stored as an int64 rather than a
	// time.Time: the generic struct encoder would otherwise walk into
	// time.Time's unexported fields and skip all of them, silently losing
	// the timestamp. Unexported here for the same reason the Hardware file
	// descriptors are: it is local bookkeeping, not part of the wire value.
	lastSeenUnixNano int64
}

// LastSeen returns the local time the entry was last refreshed.
func (n *NeighborPort) LastSeen() time.Time {
	return time.Unix(0, n.lastSeenUnixNano)
}

// Touch records now as the entry's last-refreshed time.
func (n *NeighborPort) Touch(now time.Time) {
	n.lastSeenUnixNano = now.UnixNano()
}

// key identifies a neighbor table entry by its remote chassis+port
// identity, so a repeat announcement from the same neighbor refreshes the
// existing entry (and its shared Chassis) instead of duplicating it.
func (n *NeighborPort) key() string {
	return string(n.Port.Chassis.IDSubtype.bytes()) + "\x00" +
		string(n.Port.Chassis.ID) + "\x00" +
		string(n.Port.ID)
}

// bytes gives ChassisIDSubtype a stable byte representation for use as part
// of a map key; it is not part of the wire format.
func (s ChassisIDSubtype) bytes() []byte {
	return []byte{byte(s)}
}

// Expired reports whether the entry's TTL has elapsed as of now.
func (n *NeighborPort) Expired(now time.Time) bool {
	return now.Sub(n.LastSeen()) >= n.TTL
}

var neighborPortInfo = marshal.Register("model.NeighborPort", &NeighborPort{}, &marshal.Info{
	Pointers: []marshal.SubInfo{
		{Kind: marshal.Substruct, Field: "Port", Type: portInfo},
	},
})
