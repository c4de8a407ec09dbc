package discovery

import (
	"testing"

	"golang.org/x/sys/unix"

	"neighbord/internal/marshal"
	"neighbord/internal/model"
	"neighbord/internal/rawio"
)

func buildAnnouncementFrame(t *testing.T, port *model.Port) []byte {
	t.Helper()
	payload, err := marshal.Serialize("model.Port", port)
	if err != nil {
		t.Fatalf("serialize port: %v", err)
	}
	frame := make([]byte, 14+len(payload))
	frame[12] = byte(etherTypeAnnounce >> 8)
	frame[13] = byte(etherTypeAnnounce)
	copy(frame[14:], payload)
	return frame
}

func TestDecodeFrameRoundTrips(t *testing.T) {
	port := &model.Port{
		IDSubtype: model.PortIDLinkLayerAddr,
		ID:        []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		Descr:     "eth0",
		Chassis:   &model.Chassis{IDSubtype: model.ChassisIDLocal, ID: []byte("peer-chassis")},
	}
	frame := buildAnnouncementFrame(t, port)

	n, err := decodeFrame(frame)
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if n.Port.Descr != "eth0" {
		t.Errorf("Descr = %q, want eth0", n.Port.Descr)
	}
	if n.Port.Chassis == nil || string(n.Port.Chassis.ID) != "peer-chassis" {
		t.Errorf("Chassis = %+v, want ID peer-chassis", n.Port.Chassis)
	}
	if n.TTL != defaultNeighborTTL {
		t.Errorf("TTL = %v, want %v", n.TTL, defaultNeighborTTL)
	}
}

func TestDecodeFrameRejectsShortFrame(t *testing.T) {
	if _, err := decodeFrame(make([]byte, 8)); err == nil {
		t.Fatal("expected an error for a frame shorter than the Ethernet header")
	}
}

func TestDecodeFrameRejectsWrongEtherType(t *testing.T) {
	frame := make([]byte, 20)
	frame[12], frame[13] = 0x08, 0x00 // IPv4, not this daemon's announcement EtherType
	if _, err := decodeFrame(frame); err == nil {
		t.Fatal("expected an error for a non-announcement EtherType")
	}
}

func TestDecodeFrameRejectsMissingChassis(t *testing.T) {
	frame := buildAnnouncementFrame(t, &model.Port{Descr: "eth0"})
	if _, err := decodeFrame(frame); err == nil {
		t.Fatal("expected an error for an announcement with no chassis identity")
	}
}

func TestReceiverAcceptNonBondRejectsOutgoingEcho(t *testing.T) {
	r := &receiver{}
	if r.accept(unix.PACKET_OUTGOING, 5) {
		t.Fatal("expected PACKET_OUTGOING to be rejected for a non-bond interface")
	}
	if !r.accept(unix.PACKET_HOST, 5) {
		t.Fatal("expected PACKET_HOST to be accepted for a non-bond interface")
	}
}

func TestReceiverAcceptBondDefersToBondReceiver(t *testing.T) {
	r := &receiver{bond: &rawio.BondReceiver{MasterIfIndex: 10, SlaveIfIndex: 2, LegacyIfindexMatch: true}}
	if !r.accept(unix.PACKET_HOST, 2) {
		t.Fatal("expected a frame tagged with the slave's own ifindex to be accepted")
	}
	if r.accept(unix.PACKET_OUTGOING, 2) {
		t.Fatal("expected an outgoing echo to still be rejected on a bond slave")
	}
	if !r.accept(unix.PACKET_HOST, 10) {
		t.Fatal("expected legacy-ifindex fallback to accept the master's ifindex")
	}
}
