package rawio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// OpenFilteredSocket opens an AF_PACKET/SOCK_RAW socket bound to ifIndex,
// installs the multicast-destination filter and returns its descriptor.
// Grounded on asroot_iface_init_os in original_source/src/daemon/priv-linux.c.
func OpenFilteredSocket(ifIndex int) (int, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, htons(unix.ETH_P_ALL))
	if err != nil {
		return 0, fmt.Errorf("rawio: socket(AF_PACKET): %w", err)
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifIndex,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return 0, fmt.Errorf("rawio: bind to ifindex %d: %w", ifIndex, err)
	}

	if err := attachFilter(fd); err != nil {
		unix.Close(fd)
		return 0, err
	}
	return fd, nil
}

// htons converts a 16-bit value from host to network byte order; AF_PACKET
// protocol numbers and SockaddrLinklayer.Protocol are always big-endian on
// the wire regardless of host endianness.
func htons(v uint16) uint16 {
	return v<<8 | v>>8
}

// Send writes one Ethernet frame to fd. zeroSrc, when true, sends a copy
// of the frame with its 6-byte source address set to zeros; the caller's
// slice is left unchanged.
func Send(fd int, frame []byte, zeroSrc bool) error {
	if len(frame) < 12 {
		return fmt.Errorf("rawio: frame too short to send: %d bytes", len(frame))
	}
	if zeroSrc {
		out := make([]byte, len(frame))
		copy(out, frame)
		for i := 6; i < 12; i++ {
			out[i] = 0
		}
		frame = out
	}
	_, err := unix.Write(fd, frame)
	return err
}

// BondReceiver decides which frames read from a bond slave's two receive
// descriptors (one bound to the slave, one to the bond master) belong to
// that slave. Outgoing frames are always refused, and a frame tagged with
// the slave's own ifindex is always accepted. LegacyIfindexMatch documents
// the decision in SPEC_FULL.md §13: when set, a frame tagged with the bond
// master's ifindex is accepted as well, a best-effort match for kernels
// that do not report the slave's ifindex on frames delivered through the
// master.
type BondReceiver struct {
	MasterIfIndex      int
	SlaveIfIndex       int
	LegacyIfindexMatch bool
}

// Accept reports whether a frame delivered with the given packet metadata
// should be attributed to this receiver's slave, per iface_bond_recv.
func (b *BondReceiver) Accept(pktType uint8, fromIfIndex int) bool {
	if pktType == unix.PACKET_OUTGOING {
		return false
	}
	if fromIfIndex == b.SlaveIfIndex {
		return true
	}
	if b.LegacyIfindexMatch && fromIfIndex == b.MasterIfIndex {
		return true
	}
	return false
}

// Recv reads one frame from fd along with the sll_ifindex and sll_pkttype
// of the link-layer address the kernel attached to it.
func Recv(fd int, buf []byte) (n int, fromIfIndex int, pktType uint8, err error) {
	n, from, err := unix.Recvfrom(fd, buf, 0)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("rawio: recvfrom: %w", err)
	}
	ll, ok := from.(*unix.SockaddrLinklayer)
	if !ok {
		return n, 0, 0, fmt.Errorf("rawio: recvfrom returned non-linklayer address")
	}
	return n, ll.Ifindex, ll.Pkttype, nil
}
