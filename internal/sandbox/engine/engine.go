// Package engine implements the sandboxed process execution and monitoring
// primitive: launch with optional privilege drop and process-group isolation,
// bounded stream capture, periodic resource sampling, hard wall-clock
// deadline, and whole-tree termination.
package engine

import (
	"context"
	"strings"
	"time"

	"evalbox/internal/sandbox/result"
	"evalbox/internal/sandbox/spec"
)

const (
	// defaultSampleInterval is the cadence of the monitoring loop.
	defaultSampleInterval = 100 * time.Millisecond
	// defaultMaxBytesPerRead bounds a single pipe read.
	defaultMaxBytesPerRead = 1024
	// readerJoinWait bounds how long result assembly waits for the
	// background stream drainers.
	readerJoinWait = 500 * time.Millisecond
	// clockTicksPerSecond is USER_HZ, fixed at 100 on all supported kernels.
	clockTicksPerSecond = 100
)

// ReaderMode selects the stream draining strategy.
type ReaderMode string

const (
	// ReaderModeAuto prefers non-blocking per-tick reads and falls back to
	// worker goroutines when the pipes cannot be put in non-blocking mode.
	ReaderModeAuto ReaderMode = "auto"
	// ReaderModeNonblock forces the single-loop non-blocking path.
	ReaderModeNonblock ReaderMode = "nonblock"
	// ReaderModeWorkers forces two background blocking drainers.
	ReaderModeWorkers ReaderMode = "workers"
)

// Config controls sandbox engine behavior. It replaces the process-wide
// sandbox identity and default environment globals of older designs; the
// engine reads nothing ambient.
type Config struct {
	// Identity, when set, launches every child as this user/group in a new
	// session.
	Identity *spec.Identity
	// DefaultEnv is the child environment used when a request carries none.
	DefaultEnv map[string]string
	// SampleInterval overrides the 100ms monitoring cadence.
	SampleInterval time.Duration
	// MaxBytesPerRead overrides the 1024-byte single-read bound.
	MaxBytesPerRead int
	// ReaderMode selects the stream draining strategy.
	ReaderMode ReaderMode
}

// Engine executes one LaunchRequest to completion or deadline.
//
// Run either fails synchronously (the process could not be created) or
// returns a complete RunResult; a timeout is a normal outcome, not an error.
// On return the process group has been signaled for termination.
type Engine interface {
	Run(ctx context.Context, req spec.LaunchRequest) (result.RunResult, error)
}

// launchArgv resolves the final argument vector. With Shell set the command
// line is handed to the POSIX shell, mirroring shell-mode subprocess
// invocation.
func launchArgv(req spec.LaunchRequest) []string {
	if req.Shell {
		return []string{"/bin/sh", "-c", strings.Join(req.Args, " ")}
	}
	return req.Args
}
