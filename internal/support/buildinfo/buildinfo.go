// Package buildinfo holds version information injected at link time via
// -ldflags, the same mechanism cmd/ployz/main.go relies on for its own
// buildinfo.Version.
package buildinfo

// Version is overwritten at build time, e.g.:
//
//	go build -ldflags "-X neighbord/internal/support/buildinfo.Version=1.2.3"
var Version = "dev"
