package model

import (
	"sync"

	"golang.org/x/sys/unix"

	"neighbord/internal/marshal"
)

// MediaKind tags which per-medium behavior a Hardware entry exercises. The
// original daemon dispatches this through a struct of function pointers
// (lldpd_ops) filled in per interface type; a REDESIGN FLAG calls that an
// anti-pattern in Go, where the same dispatch is a closed, inspectable sum
// type plus a small interface, not a vtable assembled at interface-creation
// time.
type MediaKind int

const (
	MediaEthernet MediaKind = iota
	MediaBondMaster
	MediaBondSlave
)

func (m MediaKind) String() string {
	switch m {
	case MediaEthernet:
		return "ethernet"
	case MediaBondMaster:
		return "bond-master"
	case MediaBondSlave:
		return "bond-slave"
	default:
		return "unknown"
	}
}

// Medium reports the MediaKind of a per-medium implementation. Nothing in
// this module implements it: internal/discovery branches on
// Hardware.MediaKind directly when sending and receiving.
type Medium interface {
	Kind() MediaKind
}

// Stats are cumulative per-interface frame counters, reset only when the
// Hardware entry itself is recreated (interface flap).
type Stats struct {
	SentFrames     uint64
	ReceivedFrames uint64
	DiscardedFrames uint64
	ErrorFrames    uint64
	AgeoutCount    uint64
}

// Hardware is one physical or logical network interface the daemon speaks
// on: its link-layer identity, I/O state and owned local Port.
type Hardware struct {
	IfName     string
	IfIndex    int
	LLAddr     [6]byte
	MTU        int
	Flags      uint32 // interface flags; internal/discovery never sets it, so it stays 0
	MediaKind  MediaKind
	MasterName string // bond master name, set only for MediaBondSlave

	Counters Stats

	LocalPort Port

	// sendFD/recvFD/recvFDMaster are raw socket descriptors managed by
	// internal/rawio. Unexported so the generic struct encoder (which skips
	// any field with a non-empty PkgPath) naturally leaves them off the
	// wire: a file descriptor number is meaningless to whichever process
	// didn't open it. recvFDMaster is the second of the two receive
	// descriptors spec.md §4.4 calls for on a bond slave (one bound to the
	// slave, one to the bond master); it stays 0 for a plain interface.
	sendFD, recvFD, recvFDMaster int

	mu        sync.Mutex
	neighbors map[string]*NeighborPort // keyed by neighbor chassis+port ID
}

// SendFD returns the raw send socket descriptor, or 0 if not open.
func (h *Hardware) SendFD() int { return h.sendFD }

// RecvFD returns the raw receive socket descriptor, or 0 if not open.
func (h *Hardware) RecvFD() int { return h.recvFD }

// RecvFDMaster returns the bond master's receive socket descriptor for a
// bond slave's Hardware entry, or 0 if this entry isn't a bond slave or the
// master descriptor couldn't be opened.
func (h *Hardware) RecvFDMaster() int { return h.recvFDMaster }

// SetFDs records the send/receive descriptors internal/rawio opened for a
// plain (non-bond-slave) interface. Equivalent to SetBondFDs with no master
// descriptor.
func (h *Hardware) SetFDs(send, recv int) {
	h.setFDs(send, recv, 0)
}

// SetBondFDs records the dual receive descriptors spec.md §4.4 calls for on
// a bond slave: recv bound to the slave itself, recvMaster bound to the
// bond master, so discovery's BondReceiver can disambiguate which of the
// two delivered any given frame.
func (h *Hardware) SetBondFDs(send, recv, recvMaster int) {
	h.setFDs(send, recv, recvMaster)
}

// setFDs closes whichever descriptors were previously recorded before
// storing the new ones: the raw sockets internal/rawio hands back are a
// kernel resource the generic struct encoder has no way to finalize (it
// never sees these fields at all, being unexported), so this is the only
// place that can release one before it's overwritten or zeroed out by a
// port-disable request.
func (h *Hardware) setFDs(send, recv, recvMaster int) {
	if h.sendFD > 0 {
		unix.Close(h.sendFD)
	}
	if h.recvFD > 0 && h.recvFD != h.sendFD {
		unix.Close(h.recvFD)
	}
	if h.recvFDMaster > 0 && h.recvFDMaster != h.sendFD && h.recvFDMaster != h.recvFD {
		unix.Close(h.recvFDMaster)
	}
	h.sendFD, h.recvFD, h.recvFDMaster = send, recv, recvMaster
}

// Close releases this entry's raw sockets, if any are open. Called once an
// interface drops out of classification entirely and its Hardware entry is
// about to be dropped from the Table, since at that point nothing else
// still holds a reference through which SetFDs could otherwise close them,
// and when a port-disable request stops a port that stays in the Table.
func (h *Hardware) Close() {
	h.setFDs(0, 0, 0)
}

// Neighbors returns a snapshot slice of the port's current neighbor table,
// safe to call concurrently with Upsert/Prune.
func (h *Hardware) Neighbors() []*NeighborPort {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*NeighborPort, 0, len(h.neighbors))
	for _, n := range h.neighbors {
		out = append(out, n)
	}
	return out
}

var hardwareInfo = marshal.Register("model.Hardware", &Hardware{}, &marshal.Info{
	Pointers: []marshal.SubInfo{
		{Kind: marshal.Substruct, Field: "LocalPort", Type: portInfo},
	},
})
