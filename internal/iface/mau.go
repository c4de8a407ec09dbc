package iface

import (
	"encoding/binary"
	"fmt"

	"neighbord/internal/model"
	"neighbord/internal/privsep"
)

// ethtoolGSET is ETHTOOL_GSET, the only ethtool sub-command this daemon's
// closed privsep command menu ever issues (spec.md §4.2: "the argument is
// validated by interface name only (no user-supplied ethtool command
// number)" — the command itself is fixed here, not parameterized from the
// worker).
const ethtoolGSET = 0x00000001

// Byte offsets of struct ethtool_cmd's fields as the kernel fills them in
// response to ETHTOOL_GSET, per linux/ethtool.h. rawio.Ethtool returns the
// raw buffer; this package, not rawio, knows how to read it, matching
// iface_macphy's own placement of the interpretation logic in
// interfaces.c rather than in the privileged ioctl wrapper.
const (
	offSupported   = 4
	offAdvertising = 8
	offSpeed       = 12
	offDuplex      = 14
	offPort        = 15
)

// ethtool_cmd bit values and enums (linux/ethtool.h), stable kernel ABI.
const (
	supportedAutoneg = 1 << 6

	advertised10baseTHalf   = 1 << 0
	advertised10baseTFull   = 1 << 1
	advertised100baseTHalf  = 1 << 2
	advertised100baseTFull  = 1 << 3
	advertised1000baseTHalf = 1 << 4
	advertised1000baseTFull = 1 << 5

	speed10    = 10
	speed100   = 100
	speed1000  = 1000
	speed10000 = 10000

	duplexHalf = 0
	duplexFull = 1

	portTP    = 0
	portAUI   = 1
	portMII   = 2
	portFibre = 3
	portBNC   = 4
)

// MAUType names the IEEE 802.3 medium attachment unit lldpd reports for
// p_mau_type, carrying the same distinctions iface_macphy's switch over
// {speed, duplex, port} makes, without reproducing lldpd's exact RFC 3636
// numeric codes (an external wire constant this daemon's own control
// socket and privsep protocols never need to match byte-for-byte, since
// neither speaks real LLDP to a third-party peer).
type MAUType uint16

const (
	MAUUnknown MAUType = iota
	MAU10BaseTHalf
	MAU10BaseTFull
	MAU10Base2
	MAU10BaseFLHalf
	MAU10BaseFLFull
	MAU100BaseTXHalf
	MAU100BaseTXFull
	MAU100BaseFXHalf
	MAU100BaseFXFull
	MAU1000BaseTHalf
	MAU1000BaseTFull
	MAU1000BaseXHalf
	MAU1000BaseXFull
	MAU10GigBaseX
	MAU10GigBaseR
	MAUAUI
)

// LinkInfo is the MAU/autonegotiation state iface_macphy populates on a
// local Port from one ETHTOOL_GSET call.
type LinkInfo struct {
	MAUType          MAUType
	AutoNegSupported bool
	AutoNegEnabled   bool
	AutoNegAdvertise model.AutoNeg
}

// QueryLinkInfo issues ETHTOOL_GSET for ifName through the monitor and
// decodes the result into a LinkInfo, following iface_macphy's
// speed/duplex/port switch exactly (including its BNC/fibre/AUI
// overrides), adapted from the ethtool_cmd C struct to named byte offsets
// since this side of the privsep boundary only ever sees the raw buffer.
func QueryLinkInfo(w *privsep.Worker, ifName string) (*LinkInfo, error) {
	raw, err := w.Ethtool(ifName, ethtoolGSET)
	if err != nil {
		return nil, fmt.Errorf("iface: ethtool %s: %w", ifName, err)
	}
	li, err := decodeLinkInfo(raw)
	if err != nil {
		return nil, fmt.Errorf("iface: ethtool %s: %w", ifName, err)
	}
	return li, nil
}

// decodeLinkInfo is QueryLinkInfo's pure decoding half, split out so the
// struct ethtool_cmd byte-layout logic can be exercised directly with
// synthetic buffers instead of a live ethtool ioctl.
func decodeLinkInfo(raw []byte) (*LinkInfo, error) {
	if len(raw) < offPort+1 {
		return nil, fmt.Errorf("short response (%d bytes)", len(raw))
	}

	supported := binary.LittleEndian.Uint32(raw[offSupported:])
	advertising := binary.LittleEndian.Uint32(raw[offAdvertising:])
	speed := binary.LittleEndian.Uint16(raw[offSpeed:])
	duplex := raw[offDuplex]
	port := raw[offPort]

	li := &LinkInfo{
		AutoNegSupported: supported&supportedAutoneg != 0,
	}

	for _, b := range []struct {
		bit uint32
		adv model.AutoNeg
	}{
		{advertised10baseTHalf, model.AutoNeg10BaseTHalf},
		{advertised10baseTFull, model.AutoNeg10BaseTFull},
		{advertised100baseTHalf, model.AutoNeg100BaseTXHalf},
		{advertised100baseTFull, model.AutoNeg100BaseTXFull},
		{advertised1000baseTHalf, model.AutoNeg1000BaseTHalf},
		{advertised1000baseTFull, model.AutoNeg1000BaseTFull},
	} {
		if advertising&b.bit != 0 {
			li.AutoNegAdvertise |= b.adv
		}
	}
	// ethtool's autoneg field (not decoded here beyond supported/advertising)
	// is read the same way lldpd reads it: autoneg != AUTONEG_DISABLE means
	// enabled. Offset 18 in struct ethtool_cmd.
	if len(raw) > 18 {
		li.AutoNegEnabled = raw[18] != 0
	}

	full := duplex == duplexFull
	switch speed {
	case speed10:
		li.MAUType = pick(full, MAU10BaseTFull, MAU10BaseTHalf)
		if port == portBNC {
			li.MAUType = MAU10Base2
		}
		if port == portFibre {
			li.MAUType = pick(full, MAU10BaseFLFull, MAU10BaseFLHalf)
		}
	case speed100:
		li.MAUType = pick(full, MAU100BaseTXFull, MAU100BaseTXHalf)
		if port == portFibre {
			li.MAUType = pick(full, MAU100BaseFXFull, MAU100BaseFXHalf)
		}
	case speed1000:
		li.MAUType = pick(full, MAU1000BaseTFull, MAU1000BaseTHalf)
		if port == portFibre {
			li.MAUType = pick(full, MAU1000BaseXFull, MAU1000BaseXHalf)
		}
	case speed10000:
		li.MAUType = pick(port == portFibre, MAU10GigBaseX, MAU10GigBaseR)
	}
	if port == portAUI {
		li.MAUType = MAUAUI
	}
	return li, nil
}

func pick(cond bool, ifTrue, ifFalse MAUType) MAUType {
	if cond {
		return ifTrue
	}
	return ifFalse
}
