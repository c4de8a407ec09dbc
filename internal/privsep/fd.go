package privsep

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sendFD passes fd to the peer on conn as ancillary data alongside a single
// marker byte, the same SCM_RIGHTS pattern send_tun_darwin.go uses to hand
// a tunnel descriptor to the privileged helper, run here in the opposite
// direction (privileged monitor to unprivileged worker).
func sendFD(sockFD int, fd int) error {
	rights := unix.UnixRights(fd)
	return unix.Sendmsg(sockFD, []byte{0}, rights, nil, 0)
}

// recvFD blocks for one message on sockFD and returns any file descriptor
// carried in its ancillary data. It is an error for the monitor to reply to
// an fd-bearing command without actually attaching a descriptor.
func recvFD(sockFD int) (int, error) {
	buf := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4))

	_, oobn, _, _, err := unix.Recvmsg(sockFD, buf, oob, 0)
	if err != nil {
		return 0, fmt.Errorf("privsep: recvmsg: %w", err)
	}
	if oobn == 0 {
		return 0, fmt.Errorf("privsep: response carried no file descriptor")
	}

	cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return 0, fmt.Errorf("privsep: parse control message: %w", err)
	}
	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			continue
		}
		if len(fds) > 0 {
			return fds[0], nil
		}
	}
	return 0, fmt.Errorf("privsep: control message carried no rights")
}
