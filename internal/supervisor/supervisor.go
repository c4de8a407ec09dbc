// Package supervisor runs the worker process's small set of concurrent
// loops (discovery scan/announce, control socket server) to completion or
// failure. RunGroup uses golang.org/x/sync/errgroup for loops that should
// bring the whole worker down together on first error; Supervisor
// restarts a loop independently of the others when it returns an error,
// matching the "suspension points survive individual failure" design in
// convergence/loop.go's own Supervisor, reimplemented over goroutines and
// channels instead of github.com/juju/worker/v4: that library is pulled
// in by the juju-juju example application, but its own source is not part
// of the retrieval pack, so its Runner API could not be grounded against
// anything checkable here (see DESIGN.md).
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Named is one long-running loop the supervisor restarts on failure,
// identified for logging.
type Named struct {
	Name string
	Run  func(ctx context.Context) error
}

// restartDelay matches the conservative backoff convergence/loop.go's own
// Supervisor uses between retries of a failed background worker.
const restartDelay = 2 * time.Second

// Supervisor restarts each of its Named loops independently when they
// return an error: a crash in the discovery loop must not bring down the
// control socket server, and vice versa.
type Supervisor struct {
	log *slog.Logger
	wg  sync.WaitGroup
}

// New builds a Supervisor.
func New(log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{log: log.With("component", "supervisor")}
}

// Add starts n under supervision: whenever n.Run returns (error or not),
// it is restarted after restartDelay until ctx is cancelled.
func (s *Supervisor) Add(ctx context.Context, n Named) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			err := n.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			s.log.Error("supervised loop exited, restarting", "loop", n.Name, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(restartDelay):
			}
		}
	}()
	return nil
}

// Wait blocks until every supervised loop has stopped, which only happens
// once its context is cancelled.
func (s *Supervisor) Wait() error {
	s.wg.Wait()
	return nil
}

// RunGroup runs a fixed set of loops via errgroup instead of the
// restart-on-failure Supervisor, for the cases where any one loop failing
// should end the whole process rather than be retried — the control
// socket listener failing to bind, for instance, is not something a
// restart will fix.
func RunGroup(ctx context.Context, loops ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range loops {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("supervisor: group loop failed: %w", err)
	}
	return nil
}
