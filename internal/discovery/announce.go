package discovery

import (
	"context"
	"fmt"

	"neighbord/internal/marshal"
	"neighbord/internal/model"
	"neighbord/internal/rawio"
)

// lldpMulticast is the frame destination used for this host's own
// announcements; listening for it is exactly what internal/rawio's
// installed BPF filter accepts.
var lldpMulticast = [6]byte{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e}

// etherTypeAnnounce is the LLDP EtherType. Together with lldpMulticast it
// is what internal/rawio's filter matches for LLDP, so peers running this
// daemon receive the frame. The payload is the marshalling engine's own
// schema-directed encoding, not 802.1AB TLVs.
const etherTypeAnnounce = 0x88cc

// FrameAnnouncer builds and sends one host's own chassis/port
// announcement on a Hardware entry's send descriptor.
type FrameAnnouncer struct {
	LocalChassis *model.Chassis
}

// Announce serializes the local chassis and the interface's own Port, then
// sends it as a single Ethernet frame on hw's send descriptor.
func (a *FrameAnnouncer) Announce(ctx context.Context, hw *model.Hardware) error {
	if hw.SendFD() == 0 {
		return fmt.Errorf("discovery: %s has no open send descriptor", hw.IfName)
	}

	port := hw.LocalPort
	port.Chassis = a.LocalChassis
	payload, err := marshal.Serialize("model.Port", &port)
	if err != nil {
		return fmt.Errorf("discovery: serialize announcement for %s: %w", hw.IfName, err)
	}

	frame := make([]byte, 14+len(payload))
	copy(frame[0:6], lldpMulticast[:])
	copy(frame[6:12], hw.LLAddr[:])
	frame[12] = byte(etherTypeAnnounce >> 8)
	frame[13] = byte(etherTypeAnnounce)
	copy(frame[14:], payload)

	// Every bond slave sends with a zeroed source address; whether the
	// slave is the bond's currently active one is not checked.
	zeroSrc := hw.MediaKind == model.MediaBondSlave
	if err := rawio.Send(hw.SendFD(), frame, zeroSrc); err != nil {
		return fmt.Errorf("discovery: send announcement on %s: %w", hw.IfName, err)
	}
	hw.Counters.SentFrames++
	return nil
}
