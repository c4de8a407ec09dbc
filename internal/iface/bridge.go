package iface

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"neighbord/internal/privsep"
)

// maxLegacyBridges bounds the old-style bridge enumeration fallback, the
// same MAX_BRIDGES=1024 constant interfaces.c's old_iface_is_bridge uses.
// SPEC_FULL.md §13 decides that exceeding it is a silent truncation plus
// one informational log line, not an error: a host running more than 1024
// bridges through the deprecated ioctl interface is already far outside
// anything this mechanism was built for.
const maxLegacyBridges = 1024

// LegacyBridgeNames lists bridge interface names visible through the
// deprecated /sys/class/net/*/bridge/bridge_id enumeration path. Classify
// does not call it: bridges are identified from the netlink link kind
// alone, with no fallback for kernels that do not report one. worker
// asks the monitor to open each candidate file since /sys/class/net may
// include entries the worker process itself cannot read.
func LegacyBridgeNames(w *privsep.Worker, candidates []string) ([]string, error) {
	var names []string
	for i, name := range candidates {
		if i >= maxLegacyBridges {
			slog.Default().Info("legacy bridge enumeration truncated", "limit", maxLegacyBridges, "remaining", len(candidates)-i)
			break
		}
		path := fmt.Sprintf("/sys/class/net/%s/bridge/bridge_id", name)
		fd, err := w.Open(path, true)
		if err != nil {
			continue // not a bridge, or not readable: not an error, just excluded
		}
		contents := readAll(fd)
		if _, ok := parseBridgeID(contents); !ok {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func readAll(fd int) string {
	f := os.NewFile(uintptr(fd), "bridge_id")
	defer f.Close()
	buf := make([]byte, 64)
	n, _ := f.Read(buf)
	return string(buf[:n])
}

// parseBridgeID validates the bridge_id contents lldpd reads purely to
// confirm the file really is a bridge identifier (format
// "xxxx.xxxxxxxxxxxx"), rather than trusting the path alone.
func parseBridgeID(contents string) (priority uint16, ok bool) {
	contents = strings.TrimSpace(contents)
	parts := strings.SplitN(contents, ".", 2)
	if len(parts) != 2 || len(parts[1]) != 12 {
		return 0, false
	}
	p, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(p), true
}
