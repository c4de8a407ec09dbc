package iface

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleBondingFile = `Ethernet Channel Bonding Driver: v3.7.1

Bonding Mode: fault-tolerance (active-backup)
Primary Slave: None
Currently Active Slave: eth0
MII Status: up

Slave Interface: eth0
MII Status: up
Speed: 1000 Mbps
Duplex: full
Permanent HW addr: aa:bb:cc:dd:ee:01
Slave queue ID: 0

Slave Interface: eth1
MII Status: up
Speed: 1000 Mbps
Duplex: full
Permanent HW addr: aa:bb:cc:dd:ee:02
Slave queue ID: 0
`

func TestScanBondingFileFindsCorrectSlave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bond0")
	if err := os.WriteFile(path, []byte(sampleBondingFile), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	mac, err := scanBondingFile(f, "eth1")
	if err != nil {
		t.Fatalf("scanBondingFile: %v", err)
	}
	if mac.String() != "aa:bb:cc:dd:ee:02" {
		t.Errorf("mac = %s, want aa:bb:cc:dd:ee:02", mac)
	}
}

func TestScanBondingFileUnknownSlaveReturnsNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bond0")
	if err := os.WriteFile(path, []byte(sampleBondingFile), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	mac, err := scanBondingFile(f, "eth9")
	if err != nil {
		t.Fatalf("scanBondingFile: %v", err)
	}
	if mac != nil {
		t.Errorf("mac = %v, want nil for unknown slave", mac)
	}
}
