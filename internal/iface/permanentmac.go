package iface

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"neighbord/internal/privsep"
)

// PermanentMAC reads the permanent hardware address a bond slave had
// before joining masterName, by scanning /proc/net/bonding/<masterName>
// (falling back to /proc/self/net/bonding/<masterName> inside network
// namespaces that only mount the process-relative path). Grounded on
// iface_get_permanent_mac in original_source/src/interfaces.c, including
// its two-state scan: find the "Slave Interface: <name>" line for
// slaveName, then the next "Permanent HW addr: " line belongs to it.
func PermanentMAC(w *privsep.Worker, masterName, slaveName string) (net.HardwareAddr, error) {
	for _, path := range []string{
		"/proc/net/bonding/" + masterName,
		"/proc/self/net/bonding/" + masterName,
	} {
		fd, err := w.Open(path, true)
		if err != nil {
			continue
		}
		mac, err := scanBondingFile(os.NewFile(uintptr(fd), path), slaveName)
		if err != nil {
			return nil, err
		}
		if mac != nil {
			return mac, nil
		}
	}
	return nil, fmt.Errorf("iface: no permanent MAC found for %s on bond %s", slaveName, masterName)
}

const (
	slaveInterfacePrefix = "Slave Interface: "
	permanentHWAddrPrefix = "Permanent HW addr: "
)

// scanBondingFile implements the two-state scan: stateSeeking until it
// finds the slave's own "Slave Interface:" line, then stateReading until
// the corresponding "Permanent HW addr:" line within the same slave's
// block. A block without that line yields no MAC and no error.
func scanBondingFile(f *os.File, slaveName string) (net.HardwareAddr, error) {
	defer f.Close()

	const (
		stateSeeking = iota
		stateReading
	)
	state := stateSeeking

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch state {
		case stateSeeking:
			if name, ok := strings.CutPrefix(line, slaveInterfacePrefix); ok && name == slaveName {
				state = stateReading
			}
		case stateReading:
			if addr, ok := strings.CutPrefix(line, permanentHWAddrPrefix); ok {
				mac, err := net.ParseMAC(addr)
				if err != nil {
					return nil, fmt.Errorf("iface: parse permanent MAC %q: %w", addr, err)
				}
				return mac, nil
			}
			if strings.HasPrefix(line, slaveInterfacePrefix) {
				// entered the next slave's block without finding the field;
				// this bonding driver version doesn't report it for this
				// slave, so there is nothing more to find.
				return nil, nil
			}
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("iface: scan bonding file: %w", err)
	}
	return nil, nil
}
