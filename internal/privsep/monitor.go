package privsep

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"

	"golang.org/x/sys/unix"

	"neighbord/internal/rawio"
)

// allowedOpenPaths is the closed set of paths the monitor will open on the
// worker's behalf, mirrored from lldpd's asroot_open regex allowlist
// (original_source/src/daemon/priv-linux.c): bonding state files and the
// handful of sysfs/proc knobs the interface classifier needs to read.
// Anything not matching one of these is refused, full stop; there is no
// override and no way to widen the list at runtime.
var allowedOpenPaths = []*regexp.Regexp{
	regexp.MustCompile(`^/proc/net/bonding/[^./][^/]*$`),
	regexp.MustCompile(`^/proc/self/net/bonding/[^./][^/]*$`),
	regexp.MustCompile(`^/sys/class/net/[^./][^/]*/bridge/bridge_id$`),
	regexp.MustCompile(`^/sys/class/net/[^./][^/]*/brport/bridge/bridge_id$`),
	regexp.MustCompile(`^/proc/sys/net/ipv4/ip_forward$`),
}

// Monitor is the privileged side of the privilege-separated pair: it holds
// every raw capability (CAP_NET_RAW, CAP_NET_ADMIN, root-only file access)
// and grants the worker exactly the closed command menu in protocol.go,
// each validated before it runs. Grounded on helper.go's runHelperServer /
// servePrivilegedConn, adapted from an accept loop over a unix listener to
// a single already-connected socketpair fd (the worker is this process's
// own child, not an arbitrary peer).
type Monitor struct {
	conn *net.UnixConn
	log  *slog.Logger
}

// NewMonitor wraps an already-established socketpair connection to the
// worker process.
func NewMonitor(conn *net.UnixConn, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{conn: conn, log: log.With("component", "privsep-monitor")}
}

// Serve reads and dispatches requests until the connection closes, which
// happens when the worker process exits. There is no per-request timeout:
// per the design, a monitor that hangs mid-request is a fatal condition for
// the whole daemon, not something a timeout can paper over.
func (m *Monitor) Serve() error {
	for {
		req, err := readRequest(m.conn)
		if err != nil {
			return err
		}
		resp, fd := m.dispatch(req)
		if err := writeResponse(m.conn, resp); err != nil {
			return fmt.Errorf("privsep: monitor: write response: %w", err)
		}
		if fd > 0 {
			rawConn, err := m.conn.SyscallConn()
			if err != nil {
				m.log.Error("obtain raw conn for fd passing", "error", err)
				continue
			}
			var sendErr error
			if ctrlErr := rawConn.Control(func(sockFD uintptr) {
				sendErr = sendFD(int(sockFD), fd)
			}); ctrlErr != nil {
				sendErr = ctrlErr
			}
			unix.Close(fd)
			if sendErr != nil {
				m.log.Error("send file descriptor to worker", "error", sendErr)
			}
		}
	}
}

// dispatch authorizes and executes one request, returning the response to
// send and, for commands that hand back a descriptor, the fd to pass
// out-of-band (0 meaning none).
func (m *Monitor) dispatch(req *Request) (*Response, int) {
	switch req.Cmd {
	case CmdOpen:
		return m.doOpen(req.Open)
	case CmdEthtool:
		return m.doEthtool(req.Ethtool)
	case CmdIfaceInit:
		return m.doIfaceInit(req.IfaceInit)
	case CmdIfaceMulticast:
		return m.doIfaceMulticast(req.Multicast)
	default:
		m.log.Warn("rejected request outside the closed command menu", "cmd", req.Cmd)
		return &Response{Err: fmt.Sprintf("unknown command %d", req.Cmd)}, 0
	}
}

func (m *Monitor) doOpen(r OpenRequest) (*Response, int) {
	authorized := false
	for _, re := range allowedOpenPaths {
		if re.MatchString(r.Path) {
			authorized = true
			break
		}
	}
	if !authorized {
		m.log.Warn("refused open outside allowlist", "path", r.Path)
		return &Response{Err: fmt.Sprintf("path %q is not authorized", r.Path)}, 0
	}

	// Spec §4.2: the monitor's open command is read-only, full stop —
	// there is no authorized write path through this command menu, so
	// O_RDONLY is not conditional on the caller's request.
	f, err := os.OpenFile(r.Path, os.O_RDONLY, 0)
	if err != nil {
		return &Response{Err: err.Error()}, 0
	}
	fd, err := dupForHandoff(f)
	if err != nil {
		return &Response{Err: err.Error()}, 0
	}
	return &Response{}, fd
}

func (m *Monitor) doEthtool(r EthtoolRequest) (*Response, int) {
	// ETHTOOL_GSET is the only ethtool command the monitor will issue.
	const ethtoolGSET = 0x00000001
	if r.Cmd != ethtoolGSET {
		return &Response{Err: fmt.Sprintf("ethtool command %#x on %s is not authorized", r.Cmd, r.IfName)}, 0
	}
	raw, err := rawio.Ethtool(r.IfName, ethtoolGSET)
	if err != nil {
		return &Response{Err: err.Error()}, 0
	}
	return &Response{EthtoolRaw: raw}, 0
}

func (m *Monitor) doIfaceInit(r IfaceInitRequest) (*Response, int) {
	fd, err := rawio.OpenFilteredSocket(r.IfIndex)
	if err != nil {
		return &Response{Err: err.Error()}, 0
	}
	if fd <= 0 {
		return &Response{Err: fmt.Sprintf("iface_init %s: invalid descriptor", r.IfName)}, 0
	}
	return &Response{}, fd
}

func (m *Monitor) doIfaceMulticast(r IfaceMulticastRequest) (*Response, int) {
	if err := rawio.SetMulticast(r.IfName, r.Addr, r.Add); err != nil {
		return &Response{Err: err.Error()}, 0
	}
	return &Response{}, 0
}

// dupForHandoff duplicates f's descriptor and closes f's own handle, since
// *os.File would otherwise finalize and close the original fd out from
// under the one we just sent to the worker. A dup failure must be reported
// as an error response, never as a silent zero fd: Serve only sends an
// SCM_RIGHTS message when fd > 0, and the worker's roundTrip blocks
// expecting one whenever Response.Err is empty, so a fd-less success
// response would wedge the worker waiting on a message that never arrives.
func dupForHandoff(f *os.File) (int, error) {
	defer f.Close()
	newFD, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return 0, fmt.Errorf("dup: %w", err)
	}
	return newFD, nil
}
