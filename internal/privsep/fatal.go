package privsep

import (
	"log/slog"
	"os"
)

// Fatal aborts the worker process. A privileged-channel failure (the
// monitor died, the socketpair broke, a response came back malformed) is
// not recoverable the way an ordinary operation error is: the worker has
// no privileges of its own and nothing useful it can do without the
// monitor, so the daemon exits rather than limping on half-privileged.
// Mirrors configureRequiredError's "this class of error ends the process"
// role in helper.go, generalized from a single startup check to every
// privsep round trip.
var Fatal = func(err error) {
	slog.Default().With("component", "privsep-worker").Error("privileged channel failure, exiting", "error", err)
	os.Exit(1)
}
