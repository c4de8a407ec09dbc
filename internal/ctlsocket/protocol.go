// Package ctlsocket implements the daemon's control socket: a UNIX stream
// listener that client tools connect to for read access to the neighbor
// table and (for SET_PORT) to adjust a local port's configuration.
// Grounded on ctl.h's message framing and daemon/server.go's unix-socket
// listener lifecycle (listen, remove stale socket, graceful shutdown on
// context cancellation).
package ctlsocket

import "neighbord/internal/model"

// DefaultSocketPath is where the daemon listens unless overridden by
// configuration, the direct analogue of LLDPD_CTL_SOCKET.
const DefaultSocketPath = "/var/run/neighbord.sock"

// MessageType is the closed set of request/response kinds exchanged on the
// control socket, matching enum hmsg_type in ctl.h.
type MessageType uint32

const (
	MsgNone MessageType = iota
	MsgGetInterfaces
	MsgGetInterface
	MsgSetPort
)

func (m MessageType) String() string {
	switch m {
	case MsgNone:
		return "NONE"
	case MsgGetInterfaces:
		return "GET_INTERFACES"
	case MsgGetInterface:
		return "GET_INTERFACE"
	case MsgSetPort:
		return "SET_PORT"
	default:
		return "UNKNOWN"
	}
}

// GetInterfaceRequest is the payload of a GET_INTERFACE message.
type GetInterfaceRequest struct {
	IfName string
}

// SetPortRequest is the payload of a SET_PORT message: the subset of local
// port configuration a client is allowed to change at runtime.
type SetPortRequest struct {
	IfName      string
	Description string
	Disabled    bool
}

// InterfaceNames is the payload of a GET_INTERFACES response.
type InterfaceNames struct {
	Names []string
}

// Ack is the payload of a successful SET_PORT response.
type Ack struct{}

// InterfaceView is the payload of a GET_INTERFACE response: a flattened,
// wire-friendly snapshot of a model.Hardware entry and its current
// neighbor table. It exists separately from model.Hardware because that
// type deliberately keeps its neighbor index and file descriptors
// unexported (so the marshalling engine's generic struct walk leaves them
// off the wire); this view assembles the parts a client actually wants to
// see from the exported accessors instead.
type InterfaceView struct {
	IfName    string
	IfIndex   int
	MediaKind string
	LocalPort model.Port
	Neighbors []model.NeighborPort
}

// NewInterfaceView builds an InterfaceView from a live Hardware entry.
func NewInterfaceView(hw *model.Hardware) InterfaceView {
	neighbors := hw.Neighbors()
	out := InterfaceView{
		IfName:    hw.IfName,
		IfIndex:   hw.IfIndex,
		MediaKind: hw.MediaKind.String(),
		LocalPort: hw.LocalPort,
		Neighbors: make([]model.NeighborPort, len(neighbors)),
	}
	for i, n := range neighbors {
		out.Neighbors[i] = *n
	}
	return out
}

// ErrorPayload carries a failure message for any request type.
type ErrorPayload struct {
	Message string
}
