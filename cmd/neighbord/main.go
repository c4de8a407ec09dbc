// Command neighbord is the link-layer neighbor discovery daemon: an
// unprivileged worker process that scans and classifies interfaces,
// announces this host and listens for neighbors, paired with a privileged
// monitor process (reached by re-exec, see monitor_cmd.go) that holds
// every raw capability the worker needs on its behalf.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"neighbord/internal/privsep"
	"neighbord/internal/support/buildinfo"
	"neighbord/internal/support/logging"
	"neighbord/internal/telemetry"
)

func main() {
	// The hidden monitor re-exec path bypasses cobra entirely: it must do
	// nothing but wrap fd 3 and start serving before any other
	// initialization (flag parsing, tracer setup) has a chance to touch
	// file descriptors the child inherited.
	if len(os.Args) > 1 && os.Args[1] == privsep.MonitorReexecArg {
		runMonitor()
		return
	}

	shutdown, err := telemetry.Setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configure tracing:", err)
		os.Exit(1)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var debug bool
	if err := logging.Configure(logging.LevelWarn); err != nil {
		fmt.Fprintln(os.Stderr, "configure logger:", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "neighbord",
		Short:         "Link-layer neighbor discovery daemon",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.AddCommand(runCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
