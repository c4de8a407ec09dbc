package rawio

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ifreqHWAddr mirrors Linux's struct ifreq as used for the SIOCADDMULTI/
// SIOCDELMULTI/SIOCGIFHWADDR family: a 16-byte interface name followed by
// a struct sockaddr (2-byte family + 14 bytes of address data, of which
// only the first 6 are meaningful for an Ethernet address).
type ifreqHWAddr struct {
	name   [unix.IFNAMSIZ]byte
	family uint16
	data   [14]byte
}

// SetMulticast adds or removes addr as a multicast membership on ifName via
// SIOCADDMULTI/SIOCDELMULTI, the mechanism the daemon uses to receive each
// discovery protocol's destination address without switching the
// interface into full promiscuous mode.
func SetMulticast(ifName string, addr [6]byte, add bool) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return fmt.Errorf("rawio: socket for ifreq ioctl: %w", err)
	}
	defer unix.Close(fd)

	var req ifreqHWAddr
	copy(req.name[:], ifName)
	req.family = unix.ARPHRD_ETHER
	copy(req.data[:6], addr[:])

	cmd := uintptr(unix.SIOCADDMULTI)
	if !add {
		cmd = unix.SIOCDELMULTI
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), cmd, uintptr(unsafe.Pointer(&req))); errno != 0 {
		return fmt.Errorf("rawio: ioctl multicast on %s: %w", ifName, errno)
	}
	return nil
}
