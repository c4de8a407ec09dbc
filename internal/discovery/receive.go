package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"neighbord/internal/marshal"
	"neighbord/internal/model"
	"neighbord/internal/rawio"
)

// defaultNeighborTTL is the TTL decodeFrame gives every received neighbor
// entry. The announcement payload (a model.Port) carries no TTL of its
// own, so every neighbor expires this long after its last refresh.
const defaultNeighborTTL = 120 * time.Second

// receiveFrameSize comfortably fits a model.Port announcement frame; a
// larger frame is truncated by recvfrom and fails to deserialize, counted
// as a discard rather than crashing the receiver.
const receiveFrameSize = 4096

// receiver owns one Hardware entry's inbound raw socket: reading frames
// until its context is cancelled, decoding each into a NeighborPort and
// upserting it into the entry's neighbor table. One receiver runs per
// accepted interface, for the lifetime of that interface's Hardware entry.
type receiver struct {
	hw    *model.Hardware
	bond  *rawio.BondReceiver // nil for a non-bond-slave interface
	clock func() time.Time
	log   *slog.Logger
}

// run reads frames from hw's receive descriptor(s) until ctx is cancelled
// or a descriptor errors out (the interface going away underneath it). A
// bond slave holds two descriptors per spec.md §4.4 — one bound to the
// slave, one to the bond master — read concurrently by two goroutines
// feeding the same accept/decode/upsert path; a plain interface only ever
// has the one.
func (r *receiver) run(ctx context.Context) {
	masterFD := r.hw.RecvFDMaster()
	if r.bond == nil || masterFD <= 0 {
		r.readLoop(ctx, r.hw.RecvFD())
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); r.readLoop(ctx, r.hw.RecvFD()) }()
	go func() { defer wg.Done(); r.readLoop(ctx, masterFD) }()
	wg.Wait()
}

// readLoop reads frames from a single descriptor until ctx is cancelled or
// the descriptor errors out.
func (r *receiver) readLoop(ctx context.Context, fd int) {
	if fd <= 0 {
		return
	}
	buf := make([]byte, receiveFrameSize)
	for ctx.Err() == nil {
		n, fromIfIndex, pktType, err := rawio.Recv(fd, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Warn("receive failed, stopping", "interface", r.hw.IfName, "error", err)
			return
		}
		if !r.accept(pktType, fromIfIndex) {
			continue
		}
		neighbor, err := decodeFrame(buf[:n])
		if err != nil {
			r.hw.Counters.DiscardedFrames++
			r.log.Debug("discarded unreadable frame", "interface", r.hw.IfName, "error", err)
			continue
		}
		r.hw.Counters.ReceivedFrames++
		r.hw.Upsert(neighbor, r.clock())
	}
}

// accept reports whether a frame delivered with this packet metadata
// belongs to r's interface. A bond slave defers to BondReceiver.Accept
// (per scenario B's dual-fd disambiguation); any other interface only
// needs to reject the kernel's own PACKET_OUTGOING echo of frames this
// process just sent on the same raw socket.
func (r *receiver) accept(pktType uint8, fromIfIndex int) bool {
	if r.bond != nil {
		return r.bond.Accept(pktType, fromIfIndex)
	}
	return pktType != unix.PACKET_OUTGOING
}

// decodeFrame strips the 14-byte Ethernet header, verifies the EtherType
// matches this daemon's own announcement frames, and deserializes the
// payload into a NeighborPort ready for Hardware.Upsert. Split out from
// run so the decoding half can be exercised with synthetic frames.
func decodeFrame(frame []byte) (*model.NeighborPort, error) {
	const ethHeaderLen = 14
	if len(frame) < ethHeaderLen {
		return nil, fmt.Errorf("discovery: frame too short (%d bytes)", len(frame))
	}
	etherType := uint16(frame[12])<<8 | uint16(frame[13])
	if etherType != etherTypeAnnounce {
		return nil, fmt.Errorf("discovery: unexpected EtherType %#04x", etherType)
	}

	var port *model.Port
	if err := marshal.Deserialize("model.Port", frame[ethHeaderLen:], &port); err != nil {
		return nil, fmt.Errorf("discovery: deserialize announcement: %w", err)
	}
	if port.Chassis == nil {
		return nil, fmt.Errorf("discovery: announcement carried no chassis identity")
	}

	return &model.NeighborPort{Port: *port, TTL: defaultNeighborTTL}, nil
}
