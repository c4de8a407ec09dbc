package discovery

import (
	"context"
	"testing"
	"time"

	"neighbord/internal/iface"
	"neighbord/internal/model"
)

type recordingAnnouncer struct {
	announced []string
}

func (r *recordingAnnouncer) Announce(ctx context.Context, hw *model.Hardware) error {
	r.announced = append(r.announced, hw.IfName)
	return nil
}

func TestTickAddsAcceptedInterfacesAndAnnounces(t *testing.T) {
	table := model.NewTable()
	ann := &recordingAnnouncer{}
	loop := NewLoop(nil, table, ann, nil)
	loop.Classify = func() ([]*iface.Classification, error) {
		return []*iface.Classification{
			{Name: "eth0", IfIndex: 2, Accept: true},
			{Name: "lo", IfIndex: 1, Accept: false},
		}, nil
	}

	var scanned bool
	var gotAdded []string
	loop.OnScan = func(added, removed []string) {
		scanned = true
		gotAdded = added
	}

	if err := loop.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if table.Get("eth0") == nil {
		t.Fatalf("expected eth0 to be tracked after tick")
	}
	if table.Get("lo") != nil {
		t.Fatalf("expected lo to be skipped (not accepted)")
	}
	if len(ann.announced) != 1 || ann.announced[0] != "eth0" {
		t.Fatalf("expected an announcement on eth0, got %v", ann.announced)
	}
	if !scanned || len(gotAdded) != 1 || gotAdded[0] != "eth0" {
		t.Fatalf("OnScan did not report eth0 as added: scanned=%v added=%v", scanned, gotAdded)
	}
}

func TestTickRemovesInterfacesNoLongerSeen(t *testing.T) {
	table := model.NewTable()
	table.Put(model.NewHardware("eth1", 5))

	loop := NewLoop(nil, table, nil, nil)
	loop.Classify = func() ([]*iface.Classification, error) { return nil, nil }

	if err := loop.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if table.Get("eth1") != nil {
		t.Fatalf("expected eth1 to be removed once it no longer appears in classification")
	}
}

func TestTickPrunesExpiredNeighbors(t *testing.T) {
	table := model.NewTable()
	hw := model.NewHardware("eth0", 2)
	table.Put(hw)

	chassis := &model.Chassis{IDSubtype: model.ChassisIDLocal, ID: []byte("peer")}
	n := &model.NeighborPort{
		Port: model.Port{IDSubtype: model.PortIDLocal, ID: []byte("p1"), Chassis: chassis},
		TTL:  time.Millisecond,
	}
	hw.Upsert(n, time.Now().Add(-time.Hour))

	loop := NewLoop(nil, table, nil, nil)
	loop.Classify = func() ([]*iface.Classification, error) {
		return []*iface.Classification{{Name: "eth0", IfIndex: 2, Accept: true}}, nil
	}
	loop.Clock = time.Now

	if err := loop.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := len(hw.Neighbors()); got != 0 {
		t.Fatalf("expected the expired neighbor to be pruned, got %d remaining", got)
	}
}

// TestTickSkipsConfiguredDisabledInterfaces covers DaemonConfig's
// disabled-interfaces list: an otherwise-acceptable interface named there
// must never be tracked or announced on.
func TestTickSkipsConfiguredDisabledInterfaces(t *testing.T) {
	table := model.NewTable()
	ann := &recordingAnnouncer{}
	loop := NewLoop(nil, table, ann, nil)
	loop.Disabled = map[string]bool{"eth0": true}
	loop.Classify = func() ([]*iface.Classification, error) {
		return []*iface.Classification{
			{Name: "eth0", IfIndex: 2, Accept: true},
			{Name: "eth1", IfIndex: 3, Accept: true},
		}, nil
	}

	if err := loop.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if table.Get("eth0") != nil {
		t.Fatalf("expected eth0 to be skipped as disabled")
	}
	if table.Get("eth1") == nil {
		t.Fatalf("expected eth1 to still be tracked")
	}
	if len(ann.announced) != 1 || ann.announced[0] != "eth1" {
		t.Fatalf("expected only eth1 to be announced, got %v", ann.announced)
	}
}

// TestTickAttachesVLANDescriptorToBondSlaves exercises spec.md scenario C
// end-to-end through the scan loop: vlan10 rides bond0, whose slaves eth0
// and eth1 are already tracked Hardware, and the VLAN descriptor must land
// on both of their local ports.
func TestTickAttachesVLANDescriptorToBondSlaves(t *testing.T) {
	table := model.NewTable()
	loop := NewLoop(nil, table, nil, nil)
	loop.Classify = func() ([]*iface.Classification, error) {
		return []*iface.Classification{
			{Name: "bond0", IfIndex: 10, Class: iface.ClassBondMaster},
			{Name: "eth0", IfIndex: 1, Class: iface.ClassBondSlave, MasterName: "bond0", Accept: true},
			{Name: "eth1", IfIndex: 2, Class: iface.ClassBondSlave, MasterName: "bond0", Accept: true},
			{Name: "vlan10", IfIndex: 20, IsVLAN: true, VLANID: 10, RealIfIndex: 10},
		}, nil
	}

	if err := loop.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	for _, name := range []string{"eth0", "eth1"} {
		hw := table.Get(name)
		if hw == nil {
			t.Fatalf("expected %s to be tracked", name)
		}
		if len(hw.LocalPort.VLANs) != 1 || hw.LocalPort.VLANs[0].VID != 10 || hw.LocalPort.VLANs[0].Name != "vlan10" {
			t.Fatalf("%s VLANs = %+v, want [{10 vlan10}]", name, hw.LocalPort.VLANs)
		}
	}

	// A second tick over the same snapshot must not duplicate the
	// descriptor (classifier idempotence, invariant 7).
	if err := loop.tick(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if got := len(table.Get("eth0").LocalPort.VLANs); got != 1 {
		t.Fatalf("expected VLANs to stay deduplicated across ticks, got %d entries", got)
	}
}
