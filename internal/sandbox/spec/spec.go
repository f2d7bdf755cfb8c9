// Package spec defines the launch request consumed by the sandbox engine.
package spec

import (
	appErr "evalbox/pkg/errors"
)

// Identity is an optional reduced-privilege user/group the child is launched
// as. When set, the child also starts a new session so it roots its own
// process group.
type Identity struct {
	UID uint32
	GID uint32
}

// LaunchRequest describes one sandboxed command execution. It is immutable
// input; one invocation owns exactly one running process.
type LaunchRequest struct {
	// Args is the command argument vector. With Shell set, the vector is
	// joined and handed to /bin/sh -c instead of being exec'd directly.
	Args []string

	// TimeoutSeconds is the hard wall-clock limit. Must be positive.
	TimeoutSeconds int

	// MaxOutputBytes caps each captured stream independently. A single read
	// may overshoot the cap by at most one chunk. Zero disables capture.
	MaxOutputBytes int

	// Env is the child's full environment. When nil, the engine substitutes
	// its configured default environment; the parent's environ is never
	// merged in.
	Env map[string]string

	// WorkDir is the child's working directory. Empty means inherit.
	WorkDir string

	// Shell requests shell interpretation of the command line.
	Shell bool
}

// Validate checks the request constraints before launch.
func (r LaunchRequest) Validate() error {
	if len(r.Args) == 0 {
		return appErr.ValidationError("args", "required")
	}
	if r.TimeoutSeconds <= 0 {
		return appErr.ValidationError("timeout_seconds", "must be positive")
	}
	if r.MaxOutputBytes < 0 {
		return appErr.ValidationError("max_output_size", "must not be negative")
	}
	return nil
}
