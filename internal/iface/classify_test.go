package iface

import (
	"net"
	"reflect"
	"sort"
	"testing"

	"github.com/vishvananda/netlink"
)

func TestParseBridgeID(t *testing.T) {
	cases := []struct {
		in      string
		wantOK  bool
		wantPri uint16
	}{
		{"8000.0014bfb6f3c1\n", true, 0x8000},
		{"not-a-bridge-id", false, 0},
		{"8000.short", false, 0},
	}
	for _, c := range cases {
		pri, ok := parseBridgeID(c.in)
		if ok != c.wantOK {
			t.Errorf("parseBridgeID(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && pri != c.wantPri {
			t.Errorf("parseBridgeID(%q) priority = %#x, want %#x", c.in, pri, c.wantPri)
		}
	}
}

// TestResolveVLANAttachmentsOnBond exercises spec.md scenario C: vlan10
// rides real-device bond0, whose slaves are eth0 and eth1; the VLAN
// descriptor must attach to both slaves, never to the (unannounced) bond
// master itself.
func TestResolveVLANAttachmentsOnBond(t *testing.T) {
	bond0 := &Classification{Name: "bond0", IfIndex: 10, Class: ClassBondMaster}
	eth0 := &Classification{Name: "eth0", IfIndex: 1, Class: ClassBondSlave, MasterName: "bond0", Accept: true}
	eth1 := &Classification{Name: "eth1", IfIndex: 2, Class: ClassBondSlave, MasterName: "bond0", Accept: true}
	vlan10 := &Classification{Name: "vlan10", IfIndex: 20, IsVLAN: true, VLANID: 10, RealIfIndex: 10}

	got := ResolveVLANAttachments([]*Classification{bond0, eth0, eth1, vlan10})

	names, ok := got[vlan10]
	if !ok {
		t.Fatalf("expected vlan10 to resolve to an attachment set")
	}
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"eth0", "eth1"}) {
		t.Fatalf("vlan10 attachments = %v, want [eth0 eth1]", names)
	}
}

// TestResolveVLANAttachmentsOnPhysical covers a VLAN riding directly on a
// physical interface, with no bond in between.
func TestResolveVLANAttachmentsOnPhysical(t *testing.T) {
	eth0 := &Classification{Name: "eth0", IfIndex: 1, Class: ClassPhysical, Accept: true}
	vlan10 := &Classification{Name: "vlan10", IfIndex: 20, IsVLAN: true, VLANID: 10, RealIfIndex: 1}

	got := ResolveVLANAttachments([]*Classification{eth0, vlan10})

	if names := got[vlan10]; !reflect.DeepEqual(names, []string{"eth0"}) {
		t.Fatalf("vlan10 attachments = %v, want [eth0]", names)
	}
}

// TestResolveVLANAttachmentsUnresolvedParent covers Open Question 1: a VLAN
// whose real device isn't present in the classified set at all is simply
// omitted, not an error.
func TestResolveVLANAttachmentsUnresolvedParent(t *testing.T) {
	vlan10 := &Classification{Name: "vlan10", IfIndex: 20, IsVLAN: true, VLANID: 10, RealIfIndex: 999}

	got := ResolveVLANAttachments([]*Classification{vlan10})

	if _, ok := got[vlan10]; ok {
		t.Fatalf("expected no attachment for a VLAN with an unresolved parent")
	}
}

// TestClassifyAcceptExcludesAggregatesAndVLANs locks in the fix that
// bridges, bond masters and VLANs themselves are never Accept == true,
// even though they pass the same minimal Ethernet/multicast checks a
// physical interface does.
func TestClassifyAcceptExcludesAggregatesAndVLANs(t *testing.T) {
	attrs := func(name string, index, master int) netlink.LinkAttrs {
		return netlink.LinkAttrs{
			Name:        name,
			Index:       index,
			MasterIndex: master,
			EncapType:   "ether",
			Flags:       net.FlagMulticast | net.FlagBroadcast,
		}
	}
	bond0 := &netlink.Bond{LinkAttrs: attrs("bond0", 10, 0)}
	cases := []struct {
		name string
		link netlink.Link
		want bool
	}{
		{"physical", &netlink.Device{LinkAttrs: attrs("eth0", 1, 0)}, true},
		{"bond-slave", &netlink.Device{LinkAttrs: attrs("eth1", 2, 10)}, true},
		{"bridge-master", &netlink.Bridge{LinkAttrs: attrs("br0", 3, 0)}, false},
		{"bond-master", bond0, false},
		{"vlan", &netlink.Vlan{LinkAttrs: attrs("vlan10", 4, 0), VlanId: 10}, false},
	}
	for _, tc := range cases {
		c, err := Classify(tc.link, []netlink.Link{tc.link, bond0})
		if err != nil {
			t.Fatalf("%s: Classify: %v", tc.name, err)
		}
		if c.Accept != tc.want {
			t.Errorf("%s: accept = %v, want %v", tc.name, c.Accept, tc.want)
		}
	}
}
