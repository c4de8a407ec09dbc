package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"neighbord/config"
	"neighbord/internal/discovery"
	"neighbord/internal/ctlsocket"
	"neighbord/internal/model"
	"neighbord/internal/privsep"
	"neighbord/internal/supervisor"
)

func runCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultDaemonConfigPath, "daemon configuration file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadDaemonConfig(configPath)
	if err != nil {
		return fmt.Errorf("neighbord: load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerConn, monitorCmd, err := privsep.Spawn()
	if err != nil {
		return fmt.Errorf("neighbord: start privileged monitor: %w", err)
	}
	w := privsep.NewWorker(workerConn)

	table := model.NewTable()
	localChassis := &model.Chassis{SysName: hostname()}
	announcer := &discovery.FrameAnnouncer{LocalChassis: localChassis}

	loop := discovery.NewLoop(w, table, announcer, slog.Default())
	loop.ScanInterval = cfg.ScanInterval
	if len(cfg.DisabledInterfaces) > 0 {
		loop.Disabled = make(map[string]bool, len(cfg.DisabledInterfaces))
		for _, name := range cfg.DisabledInterfaces {
			loop.Disabled[name] = true
		}
	}
	registry := &tableRegistry{table: table}
	srv := ctlsocket.NewServer(cfg.SocketPath, registry, registry, slog.Default())

	// The discovery loop runs under the restart-on-failure Supervisor: a
	// transient netlink or privsep hiccup should be retried, not bring down
	// the whole daemon. The control socket server runs in the errgroup
	// instead, since failing to bind or serve it is not something a
	// restart will fix and should end the process.
	supCtx, cancelSup := context.WithCancel(ctx)
	defer cancelSup()
	sup := supervisor.New(slog.Default())
	if err := sup.Add(supCtx, supervisor.Named{Name: "discovery", Run: loop.Run}); err != nil {
		return fmt.Errorf("neighbord: start discovery loop: %w", err)
	}

	runErr := supervisor.RunGroup(ctx,
		srv.Serve,
		func(gctx context.Context) error {
			<-gctx.Done()
			cancelSup()
			return sup.Wait()
		},
	)

	stop()
	_ = monitorCmd.Wait()
	return runErr
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
