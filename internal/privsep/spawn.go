package privsep

import (
	"fmt"
	"net"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// MonitorReexecArg is the hidden argument the daemon's own binary re-execs
// itself with to become the privileged monitor, the same closed-menu
// re-exec pattern priv_helper.go uses for the wireguard helper subcommand:
// one process image, an argument that only makes sense when invoked this
// way, never documented as a normal entry point. cmd/neighbord checks for
// it in os.Args[1] before cobra runs, so it is not a cobra command.
const MonitorReexecArg = "__privsep_monitor"

// Spawn creates a socketpair, forks the current binary re-invoked with
// MonitorReexecArg as the privileged monitor, and returns the worker's end
// of the pair along with the running command so the caller can wait on it.
func Spawn() (*net.UnixConn, *exec.Cmd, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("privsep: socketpair: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, nil, fmt.Errorf("privsep: resolve own executable: %w", err)
	}

	cmd := exec.Command(exe, MonitorReexecArg)
	monitorFile := os.NewFile(uintptr(fds[1]), "privsep-monitor-side")
	cmd.ExtraFiles = []*os.File{monitorFile}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		unix.Close(fds[0])
		monitorFile.Close()
		return nil, nil, fmt.Errorf("privsep: start monitor: %w", err)
	}
	monitorFile.Close()

	workerFile := os.NewFile(uintptr(fds[0]), "privsep-worker-side")
	defer workerFile.Close()
	genericConn, err := net.FileConn(workerFile)
	if err != nil {
		return nil, nil, fmt.Errorf("privsep: wrap worker fd: %w", err)
	}
	conn, ok := genericConn.(*net.UnixConn)
	if !ok {
		return nil, nil, fmt.Errorf("privsep: worker fd is not a unix socket")
	}
	return conn, cmd, nil
}

// MonitorConn wraps fd 3 (the inherited ExtraFiles[0] end of the
// socketpair) as the monitor's connection back to the worker. Called from
// cmd/neighbord's runMonitor immediately after re-exec.
func MonitorConn() (*net.UnixConn, error) {
	f := os.NewFile(3, "privsep-monitor-side")
	defer f.Close()
	genericConn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("privsep: wrap monitor fd: %w", err)
	}
	conn, ok := genericConn.(*net.UnixConn)
	if !ok {
		return nil, fmt.Errorf("privsep: monitor fd is not a unix socket")
	}
	return conn, nil
}
