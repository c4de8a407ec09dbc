package privsep

import (
	"context"
	"fmt"
	"net"

	"neighbord/internal/telemetry"
)

// Worker is the unprivileged side of the pair: every privileged operation
// it needs goes through one of these typed calls instead of touching raw
// sockets or root-only files directly.
type Worker struct {
	conn *net.UnixConn
}

// NewWorker wraps the worker's end of the socketpair connection to the
// monitor.
func NewWorker(conn *net.UnixConn) *Worker {
	return &Worker{conn: conn}
}

// Open asks the monitor to open path and returns the resulting descriptor
// number as handed to this process via SCM_RIGHTS.
func (w *Worker) Open(path string, readOnly bool) (int, error) {
	resp, fd, err := w.roundTrip(&Request{Cmd: CmdOpen, Open: OpenRequest{Path: path, ReadOnly: readOnly}}, true)
	if err != nil {
		return 0, err
	}
	if resp.Err != "" {
		return 0, fmt.Errorf("privsep: open %q: %s", path, resp.Err)
	}
	return fd, nil
}

// Ethtool asks the monitor to run an ETHTOOL ioctl and returns its raw
// result payload.
func (w *Worker) Ethtool(ifName string, cmd uint32) ([]byte, error) {
	resp, _, err := w.roundTrip(&Request{Cmd: CmdEthtool, Ethtool: EthtoolRequest{IfName: ifName, Cmd: cmd}}, false)
	if err != nil {
		return nil, err
	}
	if resp.Err != "" {
		return nil, fmt.Errorf("privsep: ethtool %s: %s", ifName, resp.Err)
	}
	return resp.EthtoolRaw, nil
}

// IfaceInit asks the monitor to open, bind and filter a raw AF_PACKET
// socket for the given interface, returning the resulting descriptor.
func (w *Worker) IfaceInit(ifName string, ifIndex int) (int, error) {
	resp, fd, err := w.roundTrip(&Request{Cmd: CmdIfaceInit, IfaceInit: IfaceInitRequest{IfName: ifName, IfIndex: ifIndex}}, true)
	if err != nil {
		return 0, err
	}
	if resp.Err != "" {
		return 0, fmt.Errorf("privsep: iface_init %s: %s", ifName, resp.Err)
	}
	return fd, nil
}

// SetMulticast asks the monitor to add or remove a multicast address on an
// interface.
func (w *Worker) SetMulticast(ifName string, addr [6]byte, add bool) error {
	resp, _, err := w.roundTrip(&Request{Cmd: CmdIfaceMulticast, Multicast: IfaceMulticastRequest{IfName: ifName, Addr: addr, Add: add}}, false)
	if err != nil {
		return err
	}
	if resp.Err != "" {
		return fmt.Errorf("privsep: iface_multicast %s: %s", ifName, resp.Err)
	}
	return nil
}

func (w *Worker) roundTrip(req *Request, expectFD bool) (resp *Response, fd int, err error) {
	_, end := telemetry.StartSpan(context.Background(), "privsep."+req.Cmd.String())
	defer func() { end(err) }()

	if werr := writeRequest(w.conn, req); werr != nil {
		Fatal(fmt.Errorf("privsep: worker: send %s request: %w", req.Cmd, werr))
	}
	resp, err = readResponse(w.conn)
	if err != nil {
		Fatal(fmt.Errorf("privsep: worker: read %s response: %w", req.Cmd, err))
	}

	if expectFD && resp.Err == "" {
		rawConn, err := w.conn.SyscallConn()
		if err != nil {
			Fatal(fmt.Errorf("privsep: worker: obtain raw conn for fd receive: %w", err))
		}
		var recvErr error
		if ctrlErr := rawConn.Control(func(sockFD uintptr) {
			fd, recvErr = recvFD(int(sockFD))
		}); ctrlErr != nil {
			recvErr = ctrlErr
		}
		if recvErr != nil {
			Fatal(fmt.Errorf("privsep: worker: receive fd for %s: %w", req.Cmd, recvErr))
		}
	}
	return resp, fd, nil
}
