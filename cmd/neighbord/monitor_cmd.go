package main

import (
	"fmt"
	"log/slog"
	"os"

	"neighbord/internal/privsep"
)

// runMonitor is the privileged side's entire entry point after re-exec.
// It never touches cobra, config loading, or anything else that isn't
// strictly necessary to start serving the worker's closed command menu,
// mirroring priv_helper.go's own minimal-surface helper subcommand.
func runMonitor() {
	conn, err := privsep.MonitorConn()
	if err != nil {
		fmt.Fprintln(os.Stderr, "neighbord monitor: wrap inherited socket:", err)
		os.Exit(1)
	}

	m := privsep.NewMonitor(conn, slog.Default())
	if err := m.Serve(); err != nil {
		fmt.Fprintln(os.Stderr, "neighbord monitor: exiting:", err)
		os.Exit(1)
	}
}
