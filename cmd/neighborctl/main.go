// Command neighborctl is the CLI client for a running neighbord daemon:
// list tracked interfaces, show one interface's neighbor table, and adjust
// local port configuration. Its root command construction follows
// cmd/ployz/main.go's pattern (otel tracer provider setup, a --debug flag
// toggling log level in PersistentPreRunE). It exits 0 on success and 1 on
// any failure: a command-line usage error, a daemon that cannot be
// reached, or a request the daemon reported as failed.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"neighbord/internal/ctlsocket"
	"neighbord/internal/support/buildinfo"
	"neighbord/internal/support/logging"
	"neighbord/internal/telemetry"
)

const exitRequestFailed = 1

func main() {
	shutdown, err := telemetry.Setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configure tracing:", err)
		os.Exit(exitRequestFailed)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var debug bool
	var socketPath string
	if err := logging.Configure(logging.LevelWarn); err != nil {
		fmt.Fprintln(os.Stderr, "configure logger:", err)
		os.Exit(exitRequestFailed)
	}

	root := &cobra.Command{
		Use:           "neighborctl",
		Short:         "Inspect and configure a running neighbord daemon",
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
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	root.PersistentFlags().StringVar(&socketPath, "socket", ctlsocket.DefaultSocketPath, "daemon control socket path")

	root.AddCommand(listCmd(&socketPath))
	root.AddCommand(showCmd(&socketPath))
	root.AddCommand(setPortCmd(&socketPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitRequestFailed)
	}
}
