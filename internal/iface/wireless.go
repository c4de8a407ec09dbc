package iface

import "os"

// isWireless reports whether name exposes the wireless sysfs directory
// lldpd's iface_is_wireless checks for. Classify records the result in
// Classification.IsWireless; nothing reads that flag, so a wireless
// interface is announced on like any other accepted interface.
func isWireless(name string) bool {
	_, err := os.Stat("/sys/class/net/" + name + "/wireless")
	return err == nil
}
