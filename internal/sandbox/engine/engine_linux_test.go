//go:build linux

package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	appErr "evalbox/pkg/errors"

	"evalbox/internal/sandbox/spec"
)

func newTestEngine(t *testing.T, cfg Config) Engine {
	t.Helper()
	eng, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestRunEchoHello(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"echo", "hello"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 4096,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Timeout {
		t.Fatal("unexpected timeout")
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if len(res.Cmd) != 2 || res.Cmd[0] != "echo" {
		t.Fatalf("cmd echo = %v", res.Cmd)
	}
}

func TestRunTimeout(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sleep", "10"},
		TimeoutSeconds: 1,
		MaxOutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Timeout {
		t.Fatal("timeout = false, want true")
	}
	if res.ExitCode != -1 {
		t.Fatalf("exit code = %d, want -1", res.ExitCode)
	}
	if res.ExecTime < 0.9 || res.ExecTime > 2.5 {
		t.Fatalf("exec time = %v, want about 1s", res.ExecTime)
	}
}

func TestRunOutputCap(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", "head -c 5000 /dev/zero | tr '\\0' x"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 100,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	// Hard cap plus at most one read chunk of overshoot.
	if len(res.Stdout) > 100+defaultMaxBytesPerRead {
		t.Fatalf("stdout length = %d, want <= %d", len(res.Stdout), 100+defaultMaxBytesPerRead)
	}
	if len(res.Stdout) == 0 {
		t.Fatal("stdout is empty, want capped prefix")
	}
}

func TestRunExitCode(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", "exit 2"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Timeout {
		t.Fatal("unexpected timeout")
	}
	if res.ExitCode != 2 {
		t.Fatalf("exit code = %d, want 2", res.ExitCode)
	}
}

func TestRunStderrCapture(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", "echo oops >&2; exit 1"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", res.ExitCode)
	}
	if res.Stderr != "oops\n" {
		t.Fatalf("stderr = %q, want %q", res.Stderr, "oops\n")
	}
	if res.Stdout != "" {
		t.Fatalf("stdout = %q, want empty", res.Stdout)
	}
}

func TestRunSignalDeath(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", "kill -9 $$"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Timeout {
		t.Fatal("unexpected timeout")
	}
	if res.ExitCode != -1 {
		t.Fatalf("exit code = %d, want -1 for signal death", res.ExitCode)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	eng := newTestEngine(t, Config{})
	_, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"/nonexistent/evalbox-test-binary"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
	})
	if err == nil {
		t.Fatal("Run succeeded, want launch failure")
	}
	if !appErr.Is(err, appErr.SandboxLaunchFailed) {
		t.Fatalf("error code = %v, want SandboxLaunchFailed", appErr.GetCode(err))
	}
}

func TestRunRequestValidation(t *testing.T) {
	eng := newTestEngine(t, Config{})
	cases := []spec.LaunchRequest{
		{TimeoutSeconds: 5},
		{Args: []string{"echo"}, TimeoutSeconds: 0},
		{Args: []string{"echo"}, TimeoutSeconds: 5, MaxOutputBytes: -1},
	}
	for i, req := range cases {
		if _, err := eng.Run(context.Background(), req); err == nil {
			t.Fatalf("case %d: Run succeeded, want validation error", i)
		}
	}
}

func TestRunWorkDir(t *testing.T) {
	dir := t.TempDir()
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}

	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", "pwd"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
		WorkDir:        dir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(res.Stdout); got != want {
		t.Fatalf("pwd = %q, want %q", got, want)
	}
}

func TestRunEnvIsolation(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", "echo \"$FOO:${HOME:-unset}\""},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
		Env:            map[string]string{"FOO": "bar"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The caller's mapping is the whole environment; the parent's HOME must
	// not leak in.
	if got := strings.TrimSpace(res.Stdout); got != "bar:unset" {
		t.Fatalf("env probe = %q, want %q", got, "bar:unset")
	}
}

func TestRunDefaultEnv(t *testing.T) {
	eng := newTestEngine(t, Config{
		DefaultEnv: map[string]string{"SANDBOX_MARK": "on"},
	})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", "echo $SANDBOX_MARK"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(res.Stdout); got != "on" {
		t.Fatalf("default env probe = %q, want %q", got, "on")
	}
}

func TestRunShellMode(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"echo hi", "&&", "echo there"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
		Shell:          true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stdout != "hi\nthere\n" {
		t.Fatalf("stdout = %q, want %q", res.Stdout, "hi\nthere\n")
	}
}

func TestRunWorkerReaderMode(t *testing.T) {
	eng := newTestEngine(t, Config{ReaderMode: ReaderModeWorkers})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"echo", "hello"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 4096,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stdout != "hello\n" || res.ExitCode != 0 {
		t.Fatalf("worker mode result = %+v", res)
	}
}

func TestRunPeakMemoryReported(t *testing.T) {
	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sleep", "0.3"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PeakMemoryKB <= 0 {
		t.Fatalf("peak memory = %d, want > 0", res.PeakMemoryKB)
	}
}

func TestRunIdempotent(t *testing.T) {
	eng := newTestEngine(t, Config{})
	req := spec.LaunchRequest{
		Args:           []string{"echo", "hello"},
		TimeoutSeconds: 5,
		MaxOutputBytes: 4096,
	}
	for i := 0; i < 3; i++ {
		res, err := eng.Run(context.Background(), req)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.Stdout != "hello\n" || res.ExitCode != 0 || res.Timeout {
			t.Fatalf("run %d: result = %+v", i, res)
		}
	}
}

func TestRunNoSurvivors(t *testing.T) {
	// Unique sleep durations act as the process markers; the script forks a
	// background child so the whole group must be reaped, not just the shell.
	token := fmt.Sprintf("31.%06d", os.Getpid()%1000000)
	script := fmt.Sprintf("sleep %s & sleep 4%s", token, token)

	eng := newTestEngine(t, Config{})
	res, err := eng.Run(context.Background(), spec.LaunchRequest{
		Args:           []string{"sh", "-c", script},
		TimeoutSeconds: 1,
		MaxOutputBytes: 1024,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Timeout {
		t.Fatal("timeout = false, want true")
	}

	deadline := time.Now().Add(2 * time.Second)
	for treeAlive(t, token) {
		if time.Now().After(deadline) {
			t.Fatalf("processes matching %q still alive after reap", token)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// treeAlive reports whether any process command line still contains token.
func treeAlive(t *testing.T, token string) bool {
	t.Helper()
	entries, err := os.ReadDir("/proc")
	if err != nil {
		t.Fatalf("read /proc: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] < '0' || e.Name()[0] > '9' {
			continue
		}
		data, err := os.ReadFile(filepath.Join("/proc", e.Name(), "cmdline"))
		if err != nil {
			continue
		}
		if bytes.Contains(data, []byte(token)) {
			return true
		}
	}
	return false
}
