//go:build linux

package engine

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	appErr "evalbox/pkg/errors"
	"evalbox/pkg/utils/logger"

	"evalbox/internal/sandbox/result"
	"evalbox/internal/sandbox/spec"
)

type linuxEngine struct {
	cfg Config
	smp sampler
}

// NewEngine creates the Linux sandbox engine.
func NewEngine(cfg Config) (Engine, error) {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = defaultSampleInterval
	}
	if cfg.MaxBytesPerRead <= 0 {
		cfg.MaxBytesPerRead = defaultMaxBytesPerRead
	}
	switch cfg.ReaderMode {
	case "", ReaderModeAuto, ReaderModeNonblock, ReaderModeWorkers:
	default:
		return nil, appErr.Newf(appErr.InvalidParams, "unknown reader mode: %s", cfg.ReaderMode)
	}
	return &linuxEngine{cfg: cfg, smp: newSampler()}, nil
}

func (e *linuxEngine) Run(ctx context.Context, req spec.LaunchRequest) (result.RunResult, error) {
	if err := req.Validate(); err != nil {
		return result.RunResult{}, err
	}
	argv := launchArgv(req)

	logger.Info(ctx, "sandbox run",
		zap.Strings("cmd", argv),
		zap.String("cwd", req.WorkDir),
		zap.Int("timeout_seconds", req.TimeoutSeconds),
	)

	start := time.Now()
	cmd, stdoutR, stderrR, err := e.launch(req, argv)
	if err != nil {
		return result.RunResult{}, err
	}

	pid := cmd.Process.Pid
	pgid, pgErr := unix.Getpgid(pid)
	if pgErr != nil {
		pgid = 0
	}

	sysStart := e.smp.systemTicks()
	reader := e.newReader(ctx, stdoutR, stderrR, req.MaxOutputBytes)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var (
		exited   bool
		waitErr  error
		cpuTicks float64
		peakKB   int64
	)
	// The deadline is a tick budget, not a blocking wait on the child.
	maxIterations := req.TimeoutSeconds * int(time.Second/e.cfg.SampleInterval)
	for i := 0; i < maxIterations; i++ {
		if s, ok := e.smp.sample(pid); ok {
			cpuTicks = s.CPUTicks
			if s.MemoryKB > peakKB {
				peakKB = s.MemoryKB
			}
		}
		reader.tick()
		select {
		case waitErr = <-waitCh:
			exited = true
		default:
		}
		if exited {
			break
		}
		time.Sleep(e.cfg.SampleInterval)
	}

	// Teardown happens before result construction, on both branches: a
	// completed primary process may still have live descendants.
	e.terminate(ctx, pgid, pid)
	reader.join(readerJoinWait)
	sysEnd := e.smp.systemTicks()

	exitCode := -1
	if exited {
		exitCode = exitCodeFromErr(waitErr, cmd.ProcessState)
	}

	res := result.RunResult{
		Cmd:          req.Args,
		Timeout:      !exited,
		ExitCode:     exitCode,
		Stdout:       reader.stdout(),
		Stderr:       reader.stderr(),
		CPUUtil:      result.Round2(cpuUtilization(cpuTicks, sysEnd-sysStart)),
		CPUTime:      result.Round2(cpuTicks / clockTicksPerSecond),
		ExecTime:     result.Round2(time.Since(start).Seconds()),
		PeakMemoryKB: peakMemoryKB(peakKB, cmd.ProcessState),
	}

	logger.Debug(ctx, "sandbox done",
		zap.Bool("timeout", res.Timeout),
		zap.Int("exit_code", res.ExitCode),
		zap.Float64("exec_time", res.ExecTime),
		zap.Int64("peak_memory_kb", res.PeakMemoryKB),
	)
	return res, nil
}

// newReader selects the stream draining strategy. The non-blocking path is
// preferred; worker goroutines are the fallback for pipes that cannot be put
// in non-blocking mode.
func (e *linuxEngine) newReader(ctx context.Context, stdoutR, stderrR *os.File, maxBytes int) streamReader {
	if e.cfg.ReaderMode == ReaderModeWorkers {
		return newWorkerReader(stdoutR, stderrR, maxBytes, e.cfg.MaxBytesPerRead)
	}
	r, err := newNonblockReader(stdoutR, stderrR, maxBytes, e.cfg.MaxBytesPerRead)
	if err != nil {
		logger.Warn(ctx, "non-blocking pipe mode unavailable, using worker readers", zap.Error(err))
		return newWorkerReader(stdoutR, stderrR, maxBytes, e.cfg.MaxBytesPerRead)
	}
	return r
}

// terminate sends SIGKILL to the whole process group, or to the single
// tracked process when no group was established. "Already gone" is success;
// the call never waits for the kill to take effect.
func (e *linuxEngine) terminate(ctx context.Context, pgid, pid int) {
	var err error
	if pgid > 0 {
		err = unix.Kill(-pgid, unix.SIGKILL)
	} else {
		err = unix.Kill(pid, unix.SIGKILL)
	}
	if err != nil && !errors.Is(err, unix.ESRCH) {
		logger.Warn(ctx, "terminate process group failed", zap.Int("pid", pid), zap.Error(err))
	}
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// cpuUtilization derives the CPU-count-normalized percentage. A zero system
// delta (interval too short to observe a tick change) yields 0.
func cpuUtilization(treeTicks, systemDelta float64) float64 {
	if systemDelta <= 0 {
		return 0
	}
	return treeTicks / systemDelta * 100 * float64(runtime.NumCPU())
}

// peakMemoryKB falls back to the primary process's resident high-water mark
// when no tree sample was taken.
func peakMemoryKB(sampled int64, state *os.ProcessState) int64 {
	if sampled > 0 {
		return sampled
	}
	if state == nil {
		return 0
	}
	if usage, ok := state.SysUsage().(*syscall.Rusage); ok {
		return usage.Maxrss
	}
	return 0
}
