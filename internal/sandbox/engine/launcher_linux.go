//go:build linux

package engine

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"syscall"

	appErr "evalbox/pkg/errors"

	"evalbox/internal/sandbox/spec"
)

// launch constructs and starts the child process. The child's stdin is bound
// to /dev/null, stdout/stderr go to fresh pipes whose read ends are returned
// to the caller. Launch failure is a hard failure: no partial process is
// returned.
func (e *linuxEngine) launch(req spec.LaunchRequest, argv []string) (*exec.Cmd, *os.File, *os.File, error) {
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, appErr.Wrapf(err, appErr.SandboxSystemError, "create stdout pipe failed")
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, nil, nil, appErr.Wrapf(err, appErr.SandboxSystemError, "create stderr pipe failed")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = req.WorkDir
	cmd.Env = buildEnv(req.Env, e.cfg.DefaultEnv)
	cmd.Stdin = nil // inherits /dev/null; the child never waits for input
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	cmd.SysProcAttr = e.sysProcAttr()

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, nil, nil, appErr.LaunchError(err)
	}

	// The parent's copies of the write ends must go away so the readers see
	// EOF once the tree exits.
	stdoutW.Close()
	stderrW.Close()
	return cmd, stdoutR, stderrR, nil
}

// sysProcAttr isolates the child so the whole subtree can be terminated with
// one signal. With a sandbox identity the child starts a new session under
// the reduced-privilege credentials; otherwise a plain process group is
// enough.
func (e *linuxEngine) sysProcAttr() *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
	}
	if e.cfg.Identity != nil {
		attr.Credential = &syscall.Credential{
			Uid: e.cfg.Identity.UID,
			Gid: e.cfg.Identity.GID,
		}
		attr.Setsid = true
		return attr
	}
	attr.Setpgid = true
	return attr
}

// buildEnv renders the child environment from the request's mapping or the
// engine default. The parent's environ is never merged in silently.
func buildEnv(reqEnv, defaultEnv map[string]string) []string {
	src := reqEnv
	if src == nil {
		src = defaultEnv
	}
	env := make([]string, 0, len(src))
	for k, v := range src {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}
