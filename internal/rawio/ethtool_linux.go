package rawio

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ifreqData is struct ifreq laid out for the SIOCETHTOOL form: a 16-byte
// interface name followed by a single pointer (ifr_data) to the ethtool
// command buffer.
type ifreqData struct {
	name [unix.IFNAMSIZ]byte
	data unsafe.Pointer
}

// ethtoolBufSize covers the largest ethtool command the classifier issues
// (ETHTOOL_GSET / the newer link-mode queries); asroot_ethtool in
// priv-linux.c uses a similarly generous fixed buffer rather than sizing
// per-command.
const ethtoolBufSize = 128

// Ethtool runs an ETHTOOL ioctl for cmd against ifName and returns the raw
// response buffer (its first 4 bytes echo cmd, same as the kernel's own
// convention), leaving interpretation to the caller in internal/iface.
func Ethtool(ifName string, cmd uint32) ([]byte, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, fmt.Errorf("rawio: socket for ethtool ioctl: %w", err)
	}
	defer unix.Close(fd)

	buf := make([]byte, ethtoolBufSize)
	binary.LittleEndian.PutUint32(buf, cmd)

	var req ifreqData
	copy(req.name[:], ifName)
	req.data = unsafe.Pointer(&buf[0])

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCETHTOOL, uintptr(unsafe.Pointer(&req))); errno != 0 {
		return nil, fmt.Errorf("rawio: ethtool ioctl %d on %s: %w", cmd, ifName, errno)
	}
	return buf, nil
}
