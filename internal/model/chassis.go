// Package model holds the daemon's in-memory data model: chassis, ports,
// hardware entries and the per-port neighbor table, matching the structures
// in spec.md §3 (Chassis, Port, Hardware, Neighbor Port).
package model

import "neighbord/internal/marshal"

// ChassisIDSubtype is the tag on a Chassis identifier.
type ChassisIDSubtype int

const (
	ChassisIDIfaceName ChassisIDSubtype = iota
	ChassisIDIfaceAlias
	ChassisIDLocal
	ChassisIDLinkLayerAddr
	ChassisIDNetworkAddr
	ChassisIDPort
	ChassisIDComponent
)

// Capability is a bitset drawn from the IEEE 802.1AB system capabilities.
type Capability uint16

const (
	CapOther Capability = 1 << iota
	CapRepeater
	CapBridge
	CapWLAN
	CapTelephone
	CapDocsis
	CapStation
)

// Chassis is the identity of a local or remote station. Exactly one local
// Chassis exists for the process lifetime; remote chassis are created on
// receipt of an announcement and destroyed when the holding port is
// cleaned. Because the same remote Chassis may be referenced by neighbor
// ports on multiple Hardware entries (joint ownership, longest-holder
// lifetime), refs counts the holders that have called Retain; Hardware's
// Upsert does not call Retain itself. It is bookkeeping local to this
// process and is never put on the wire.
type Chassis struct {
	IDSubtype     ChassisIDSubtype
	ID            []byte
	SysName       string
	SysDescr      string
	MgmtAddr      [4]byte // IPv4; zero value means "not reported"
	HasMgmtAddr   bool
	MgmtIfIndex   int
	CapAvailable  Capability
	CapEnabled    Capability
	refs          int
}

// Retain increments the joint-ownership reference count and returns c.
func (c *Chassis) Retain() *Chassis {
	c.refs++
	return c
}

// Release decrements the reference count. It reports whether the chassis
// has no remaining holders and should be dropped from the neighbor table.
func (c *Chassis) Release() bool {
	if c.refs > 0 {
		c.refs--
	}
	return c.refs == 0
}

var chassisInfo = marshal.Register("model.Chassis", &Chassis{}, &marshal.Info{})
