// Package privsep implements the daemon's privilege separation: a
// privileged monitor process holding every raw capability, and an
// unprivileged worker process that requests operations from it over a
// synchronous socketpair. Grounded on the request/response/token pattern in
// getployz-ployz's infra/wireguard/helper.go, adapted from an HTTP-over-
// unix-socket JSON protocol to a fixed, closed menu of binary commands
// matching lldpd's priv-linux.c. Both processes run with the credentials
// the daemon was started with: neither side drops privileges or chroots.
package privsep

import "fmt"

// Command is the closed menu of operations the worker may request of the
// monitor. There is deliberately no way to add a command without editing
// this file: the monitor's authority is exactly this list, nothing more.
type Command uint8

const (
	CmdOpen Command = iota + 1
	CmdEthtool
	CmdIfaceInit
	CmdIfaceMulticast
)

func (c Command) String() string {
	switch c {
	case CmdOpen:
		return "open"
	case CmdEthtool:
		return "ethtool"
	case CmdIfaceInit:
		return "iface_init"
	case CmdIfaceMulticast:
		return "iface_multicast"
	default:
		return fmt.Sprintf("command(%d)", uint8(c))
	}
}

// OpenRequest asks the monitor to open a file by path. The monitor always
// opens it read-only; ReadOnly is carried on the wire but not consulted.
// Path is checked against allowedOpenPaths before the monitor will act on
// it.
type OpenRequest struct {
	Path     string
	ReadOnly bool
}

// EthtoolRequest asks the monitor to run an ETHTOOL ioctl against an
// interface on the worker's behalf, returning the raw ioctl result payload.
type EthtoolRequest struct {
	IfName string
	Cmd    uint32
}

// IfaceInitRequest asks the monitor to open and configure a raw AF_PACKET
// socket for an interface: bind it, install the fixed multicast-destination
// BPF filter and lock it.
type IfaceInitRequest struct {
	IfName  string
	IfIndex int
}

// IfaceMulticastRequest asks the monitor to add or remove one multicast
// address on an interface via SIOCADDMULTI/SIOCDELMULTI.
type IfaceMulticastRequest struct {
	IfName string
	Addr   [6]byte
	Add    bool
}

// Request is the envelope sent for every command: exactly one of the typed
// fields is meaningful, selected by Cmd.
type Request struct {
	Cmd       Command
	Open      OpenRequest
	Ethtool   EthtoolRequest
	IfaceInit IfaceInitRequest
	Multicast IfaceMulticastRequest
}

// Response is the envelope returned for every command. A non-empty Err
// means the operation was refused or failed; FD is set only for commands
// that hand back a descriptor (CmdOpen, CmdIfaceInit) and is carried
// out-of-band via SCM_RIGHTS, not in this struct itself.
type Response struct {
	Err        string
	EthtoolRaw []byte
}
