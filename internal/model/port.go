package model

import "neighbord/internal/marshal"

// PortIDSubtype is the tag on a Port identifier.
type PortIDSubtype int

const (
	PortIDIfaceAlias PortIDSubtype = iota
	PortIDIfaceName
	PortIDLocal
	PortIDLinkLayerAddr
	PortIDNetworkAddr
	PortIDPort
	PortIDAgentCircuitID
)

// AutoNeg is a bitset of IEEE 802.3 MAU autonegotiation capability/advertised
// values. Only the handful of speed/duplex combinations lldpd itself reports
// are named; unknown bits are preserved on the wire but not interpreted.
type AutoNeg uint16

const (
	AutoNeg10BaseTHalf AutoNeg = 1 << iota
	AutoNeg10BaseTFull
	AutoNeg100BaseTXHalf
	AutoNeg100BaseTXFull
	AutoNeg1000BaseTHalf
	AutoNeg1000BaseTFull
)

// VLAN is a single 802.1Q VLAN association reported on a port.
type VLAN struct {
	VID  uint16
	Name string
}

var vlanInfo = marshal.Register("model.VLAN", &VLAN{}, &marshal.Info{})

// Port describes one protocol-visible port, either the local port owned by
// a Hardware entry or a remote port reported by a neighbor.
type Port struct {
	IDSubtype        PortIDSubtype
	ID               []byte
	Descr            string
	AggregationID    int
	MAUType          uint16
	AutoNegSupported bool
	AutoNegEnabled   bool
	AutoNegAdvertise AutoNeg
	MaxFrameSize     int
	VLANs            []VLAN

	// Chassis is nil for a local Port (the owning Hardware already knows its
	// own chassis is the daemon's) and set for a remote Port, jointly owned
	// with every other neighbor port reporting the same chassis — see
	// Chassis.Retain/Release.
	Chassis *Chassis
}

// VLANs is a slice field and needs no schema entry: the encoder walks
// slice, array, string and scalar fields generically. Only Pointer and
// inline-Substruct fields are declared, since those are the two shapes
// Register checks against the real struct shape at startup.
var portInfo = marshal.Register("model.Port", &Port{}, &marshal.Info{
	Pointers: []marshal.SubInfo{
		{Kind: marshal.Pointer, Field: "Chassis", Type: chassisInfo},
	},
})
