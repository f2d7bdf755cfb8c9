// Package executor runs staged environments through the sandbox engine and
// classifies the result.
package executor

import (
	"context"

	"go.uber.org/zap"

	"evalbox/pkg/utils/logger"

	"evalbox/internal/harness/envbuilder"
	"evalbox/internal/sandbox/engine"
	"evalbox/internal/sandbox/result"
	"evalbox/internal/sandbox/spec"
)

// Outcome classifies one evaluation run.
type Outcome string

const (
	OutcomePassed       Outcome = "PASSED"
	OutcomeFailed       Outcome = "FAILED"
	OutcomeTimeout      Outcome = "TIMEOUT"
	OutcomeCompileError Outcome = "COMPILE_ERROR"
	OutcomeRuntimeError Outcome = "RUNTIME_ERROR"
)

const (
	defaultCompileTimeoutSeconds = 30
	defaultMaxOutputBytes        = 2048
)

// ExecResult carries the outcome together with the raw run measurements.
// CompileOutput is set only when compilation failed.
type ExecResult struct {
	Outcome       Outcome
	Run           result.RunResult
	CompileOutput string
}

type Config struct {
	CompileTimeoutSeconds int `yaml:"compileTimeoutSeconds"`
	MaxOutputBytes        int `yaml:"maxOutputBytes"`
}

type Executor struct {
	eng engine.Engine
	cfg Config
}

func New(eng engine.Engine, cfg Config) *Executor {
	if cfg.CompileTimeoutSeconds <= 0 {
		cfg.CompileTimeoutSeconds = defaultCompileTimeoutSeconds
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	return &Executor{eng: eng, cfg: cfg}
}

// Execute compiles the environment if its language requires it, then runs it
// with the given wall-clock budget. Engine errors (launch failures, bad
// requests) are returned as errors; everything the child process does wrong
// is an Outcome.
func (e *Executor) Execute(ctx context.Context, env *envbuilder.Environment, timeoutSeconds int) (ExecResult, error) {
	if len(env.CompileCmd) > 0 {
		compileRes, err := e.eng.Run(ctx, spec.LaunchRequest{
			Args:           env.CompileCmd,
			TimeoutSeconds: e.cfg.CompileTimeoutSeconds,
			MaxOutputBytes: e.cfg.MaxOutputBytes,
			WorkDir:        env.WorkDir,
			Env:            env.Language.Env,
		})
		if err != nil {
			return ExecResult{}, err
		}
		if compileRes.Timeout || compileRes.ExitCode != 0 {
			logger.Info(ctx, "compilation failed",
				zap.String("src_uid", env.SrcUID),
				zap.Int("exit_code", compileRes.ExitCode),
			)
			return ExecResult{
				Outcome:       OutcomeCompileError,
				Run:           compileRes,
				CompileOutput: compileOutput(compileRes),
			}, nil
		}
	}

	runRes, err := e.eng.Run(ctx, spec.LaunchRequest{
		Args:           env.RunCmd,
		TimeoutSeconds: timeoutSeconds,
		MaxOutputBytes: e.cfg.MaxOutputBytes,
		WorkDir:        env.WorkDir,
		Env:            env.Language.Env,
	})
	if err != nil {
		return ExecResult{}, err
	}
	return ExecResult{Outcome: classify(runRes), Run: runRes}, nil
}

func classify(res result.RunResult) Outcome {
	switch {
	case res.Timeout:
		return OutcomeTimeout
	case res.ExitCode == 0:
		return OutcomePassed
	case res.ExitCode < 0:
		// Killed by a signal before reporting a status.
		return OutcomeRuntimeError
	default:
		return OutcomeFailed
	}
}

func compileOutput(res result.RunResult) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}
