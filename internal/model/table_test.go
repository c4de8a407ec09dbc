package model

import (
	"testing"
	"time"
)

func TestChassisRetainRelease(t *testing.T) {
	c := &Chassis{SysName: "switch-1"}

	c.Retain()
	c.Retain()
	if released := c.Release(); released {
		t.Fatalf("Release reported zero holders with one remaining")
	}
	if released := c.Release(); !released {
		t.Fatalf("Release did not report zero holders after last release")
	}
}

func TestNeighborPortExpired(t *testing.T) {
	n := &NeighborPort{TTL: 10 * time.Second}
	now := time.Unix(1_700_000_000, 0)
	n.Touch(now)

	if n.Expired(now.Add(5 * time.Second)) {
		t.Fatalf("entry reported expired before its TTL elapsed")
	}
	if !n.Expired(now.Add(10 * time.Second)) {
		t.Fatalf("entry not reported expired once its TTL elapsed")
	}
}

func newTestNeighbor(chassisID string, portID string, ttl time.Duration) *NeighborPort {
	chassis := &Chassis{IDSubtype: ChassisIDLocal, ID: []byte(chassisID)}
	return &NeighborPort{
		Port: Port{IDSubtype: PortIDLocal, ID: []byte(portID), Chassis: chassis},
		TTL:  ttl,
	}
}

func TestHardwareUpsertRefreshesRatherThanDuplicates(t *testing.T) {
	hw := NewHardware("eth0", 2)
	now := time.Unix(1_700_000_000, 0)

	first := newTestNeighbor("chassis-a", "port-a", time.Minute)
	hw.Upsert(first, now)
	if got := len(hw.Neighbors()); got != 1 {
		t.Fatalf("expected 1 neighbor after first upsert, got %d", got)
	}

	repeat := newTestNeighbor("chassis-a", "port-a", time.Minute)
	hw.Upsert(repeat, now.Add(30*time.Second))
	if got := len(hw.Neighbors()); got != 1 {
		t.Fatalf("repeat announcement from the same neighbor duplicated the entry: got %d", got)
	}
}

func TestHardwarePruneReleasesChassisAtZeroRefs(t *testing.T) {
	hw := NewHardware("eth0", 2)
	now := time.Unix(1_700_000_000, 0)

	n := newTestNeighbor("chassis-a", "port-a", time.Second)
	n.Port.Chassis.Retain()
	hw.Upsert(n, now)

	released := hw.Prune(now.Add(10 * time.Second))
	if len(released) != 1 {
		t.Fatalf("expected 1 released chassis, got %d", len(released))
	}
	if got := len(hw.Neighbors()); got != 0 {
		t.Fatalf("expired entry was not removed from the neighbor table, got %d entries", got)
	}
}

func TestTablePutGetRemove(t *testing.T) {
	table := NewTable()
	hw := NewHardware("eth0", 2)
	table.Put(hw)

	if got := table.Get("eth0"); got != hw {
		t.Fatalf("Get did not return the Hardware entry that was Put")
	}
	if got := len(table.All()); got != 1 {
		t.Fatalf("expected 1 tracked interface, got %d", got)
	}

	table.Remove("eth0")
	if got := table.Get("eth0"); got != nil {
		t.Fatalf("expected nil after Remove, got %v", got)
	}
}

func TestTablePruneAllAggregatesReleasedChassis(t *testing.T) {
	table := NewTable()
	now := time.Unix(1_700_000_000, 0)

	hw1 := NewHardware("eth0", 2)
	hw1.Upsert(newTestNeighbor("chassis-a", "port-a", time.Second), now)
	hw2 := NewHardware("eth1", 3)
	hw2.Upsert(newTestNeighbor("chassis-b", "port-b", time.Second), now)

	table.Put(hw1)
	table.Put(hw2)

	released := table.PruneAll(now.Add(time.Minute))
	if len(released) != 2 {
		t.Fatalf("expected 2 released chassis across the table, got %d", len(released))
	}
}
