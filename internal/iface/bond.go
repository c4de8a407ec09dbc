package iface

import "github.com/vishvananda/netlink"

// BondSlaves returns the names of every interface enslaved to the bond
// master masterIndex, resolved from the same link list Classify was given
// (iface_is_enslaved's enumeration side, generalized from ioctl-walking
// /proc/net/dev to a single netlink.LinkList pass).
func BondSlaves(all []netlink.Link, masterIndex int) []string {
	var slaves []string
	for _, l := range all {
		a := l.Attrs()
		if a.MasterIndex == masterIndex {
			if _, isBond := findByIndex(all, masterIndex).(*netlink.Bond); isBond {
				slaves = append(slaves, a.Name)
			}
		}
	}
	return slaves
}

// IsEnslaved reports whether name is a slave of any bond in all.
func IsEnslaved(all []netlink.Link, name string) (masterName string, ok bool) {
	for _, l := range all {
		a := l.Attrs()
		if a.Name != name || a.MasterIndex == 0 {
			continue
		}
		master := findByIndex(all, a.MasterIndex)
		if master == nil {
			continue
		}
		if _, isBond := master.(*netlink.Bond); isBond {
			return master.Attrs().Name, true
		}
	}
	return "", false
}
