// Package rawio is the privileged side's raw L2 transport: opening
// AF_PACKET sockets, installing the fixed multicast-destination BPF
// filter, and sending/receiving frames including the bond dual-socket
// disambiguation lldpd's interfaces.c implements. OpenFilteredSocket,
// SetMulticast and Ethtool run inside the monitor process; the worker uses
// Send, Recv and BondReceiver only on the descriptors internal/privsep
// hands it.
package rawio

import (
	"fmt"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// lldpMulticastDest is LLDP's destination. Unlike the other four discovery
// protocols, LLDP is matched on EtherType 0x88CC *and* this destination
// together (LLDPD_FILTER_F: "ether proto 0x88cc and ether dst
// 01:80:c2:00:00:0e"), since 0x88CC is also a valid destination-MAC prefix
// byte pattern that would otherwise be ambiguous with nothing in
// particular — the guard is what the original filter actually checks.
var lldpMulticastDest = [6]byte{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e}

// otherMulticastDests are the link-layer destinations of the remaining four
// discovery protocols the daemon understands, taken from interfaces.c's
// LLDPD_FILTER_F. Each is identified by destination address alone, with no
// EtherType guard needed.
var otherMulticastDests = [][6]byte{
	{0x01, 0xe0, 0x2b, 0x00, 0x00, 0x00}, // EDP
	{0x01, 0x00, 0x0c, 0xcc, 0xcc, 0xcc}, // CDP
	{0x01, 0x00, 0x81, 0x00, 0x01, 0x00}, // SONMP
	{0x01, 0xe0, 0x52, 0xcc, 0xcc, 0xcc}, // FDP
}

// MulticastAddresses is the full set of destinations the daemon joins as
// kernel multicast memberships (via SetMulticast) on every interface it
// opens for receive, so frames addressed to them are delivered without the
// interface having to enter full promiscuous mode. It is exactly the set
// compiledFilter matches on.
var MulticastAddresses = append([][6]byte{lldpMulticastDest}, otherMulticastDests...)

// compiledFilter assembles the classic-BPF program that accepts a frame
// iff it matches one of the five discovery protocols' EtherType/destination
// rules above, and rejects everything else. Built once at package init with the
// golang.org/x/net/bpf high-level assembler rather than hand-encoded
// opcodes, then converted to the unix.SockFilter form SO_ATTACH_FILTER
// wants.
var compiledFilter = mustCompileFilter()

func mustCompileFilter() []unix.SockFilter {
	f, err := buildFilter()
	if err != nil {
		panic(fmt.Sprintf("rawio: compile multicast filter: %v", err))
	}
	return f
}

// destHighLow splits a 6-byte destination address into the two loads a
// block below compares against: the leading 4 bytes and the trailing 2
// (bpf.LoadAbsolute only offers 1/2/4-byte widths, and an Ethernet address
// is 6 bytes).
func destHighLow(dst [6]byte) (high, low uint32) {
	high = uint32(dst[0])<<24 | uint32(dst[1])<<16 | uint32(dst[2])<<8 | uint32(dst[3])
	low = uint32(dst[4])<<8 | uint32(dst[5])
	return high, low
}

func buildFilter() ([]unix.SockFilter, error) {
	var insns []bpf.Instruction

	// LLDP's block is the destination-match block (load, jump, load, jump,
	// ret) prefixed with an EtherType guard: a mismatch on EtherType 0x88CC
	// skips straight past the destination check to the first
	// destination-only block below, since none of the other four protocols
	// use that EtherType.
	lldpHigh, lldpLow := destHighLow(lldpMulticastDest)
	insns = append(insns,
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x88cc, SkipFalse: 5},
		bpf.LoadAbsolute{Off: 0, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: lldpHigh, SkipFalse: 3},
		bpf.LoadAbsolute{Off: 4, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: lldpLow, SkipFalse: 1},
		bpf.RetConstant{Val: 0x40000},
	)

	// Each remaining destination check spans two loads (first 4 bytes, then
	// the trailing 2). Every block is exactly 5 instructions (load, jump,
	// load, jump, ret), so a mismatch always skips a fixed number of
	// instructions to reach the next block's first load — 3 from the first
	// jump (past load2/jump2/ret), 1 from the second (past ret) — with the
	// trailing unconditional reject playing the role of "next block" for
	// the last real block.
	for _, dst := range otherMulticastDests {
		high, low := destHighLow(dst)
		insns = append(insns,
			bpf.LoadAbsolute{Off: 0, Size: 4},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: high, SkipFalse: 3},
			bpf.LoadAbsolute{Off: 4, Size: 2},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: low, SkipFalse: 1},
			bpf.RetConstant{Val: 0x40000},
		)
	}
	insns = append(insns, bpf.RetConstant{Val: 0})

	raw, err := bpf.Assemble(insns)
	if err != nil {
		return nil, err
	}
	out := make([]unix.SockFilter, len(raw))
	for i, r := range raw {
		out[i] = unix.SockFilter{Code: r.Op, Jt: r.Jt, Jf: r.Jf, K: r.K}
	}
	return out, nil
}

// attachFilter installs compiledFilter on fd and, where supported, locks it
// with SO_LOCK_FILTER so that even a later compromise of this same
// (already privileged) process cannot widen what the socket receives.
func attachFilter(fd int) error {
	prog := unix.SockFprog{
		Len:    uint16(len(compiledFilter)),
		Filter: &compiledFilter[0],
	}
	if err := unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &prog); err != nil {
		return fmt.Errorf("rawio: SO_ATTACH_FILTER: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_LOCK_FILTER, 1); err != nil {
		// Older kernels lack SO_LOCK_FILTER; the filter is still attached
		// and functional, so this is informational, not fatal.
		return nil
	}
	return nil
}
