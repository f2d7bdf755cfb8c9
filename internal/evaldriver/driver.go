// Package evaldriver feeds question/solution records through the evaluation
// harness and tabulates one CSV row per question.
package evaldriver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	appErr "evalbox/pkg/errors"
	"evalbox/pkg/utils/logger"

	"evalbox/internal/evalcache"
	"evalbox/internal/harness/envbuilder"
	"evalbox/internal/harness/executor"
	"evalbox/internal/sandbox/result"
)

const (
	// maxOutputChars bounds the per-solution output cell in the report.
	maxOutputChars = 8000
	// maxLineBytes bounds one JSONL input line; records embed whole source
	// files, so the default scanner limit is far too small.
	maxLineBytes = 16 << 20

	defaultTimeoutSeconds = 5
)

// CodeSplicer merges a candidate function with its test scaffolding.
type CodeSplicer interface {
	Splice(funcCode, mainCode string) (string, error)
}

// EnvBuilder stages and tears down per-submission work directories.
type EnvBuilder interface {
	Build(ctx context.Context, req envbuilder.BuildRequest) (*envbuilder.Environment, error)
	Destroy(ctx context.Context, env *envbuilder.Environment)
}

// Executor runs one staged environment to an outcome.
type Executor interface {
	Execute(ctx context.Context, env *envbuilder.Environment, timeoutSeconds int) (executor.ExecResult, error)
}

// ResultCache stores finished solution cells keyed by submission content.
// Optional; a nil cache disables lookups.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, payload string) error
}

type Config struct {
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

type Driver struct {
	splicer CodeSplicer
	builder EnvBuilder
	exec    Executor
	cache   ResultCache
	cfg     Config
}

func New(splicer CodeSplicer, builder EnvBuilder, exec Executor, cache ResultCache, cfg Config) *Driver {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}
	return &Driver{splicer: splicer, builder: builder, exec: exec, cache: cache, cfg: cfg}
}

// Run reads JSONL records from in, evaluates each solution, and writes the
// per-question CSV report to out. Per-record failures become report cells;
// only input and output plumbing failures abort the batch.
func (d *Driver) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	report := newReport()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return appErr.Wrapf(err, appErr.EvalInputUnreadable, "parse record at line %d", lineNo)
		}
		cell := d.runOne(ctx, rec)
		report.add(rec, cell)
	}
	if err := scanner.Err(); err != nil {
		return appErr.Wrap(err, appErr.EvalInputUnreadable)
	}

	if err := report.writeCSV(out); err != nil {
		return appErr.Wrap(err, appErr.EvalOutputWriteFailed)
	}
	return nil
}

// runOne evaluates a single record. It never fails the batch: any error
// becomes the cell's output text with zeroed metrics.
func (d *Driver) runOne(ctx context.Context, rec Record) solutionCell {
	if err := rec.Validate(); err != nil {
		return errorCell(rec, err)
	}

	spliced, err := d.splicer.Splice(rec.FuncCode, rec.MainCode)
	if err != nil {
		return errorCell(rec, err)
	}

	cacheKey := evalcache.Key(rec.Lang, spliced, d.cfg.TimeoutSeconds)
	if d.cache != nil {
		if payload, cacheErr := d.cache.Get(ctx, cacheKey); cacheErr == nil {
			var cell solutionCell
			if json.Unmarshal([]byte(payload), &cell) == nil {
				logger.Debug(ctx, "cache hit", zap.String("src_uid", rec.SrcUID()))
				return cell
			}
		} else if !errors.Is(cacheErr, evalcache.ErrMiss) {
			logger.Warn(ctx, "cache lookup failed", zap.Error(cacheErr))
		}
	}

	env, err := d.builder.Build(ctx, envbuilder.BuildRequest{
		SrcUID:     rec.SrcUID(),
		LanguageID: rec.Lang,
		SourceCode: spliced,
	})
	if err != nil {
		return errorCell(rec, err)
	}
	defer d.builder.Destroy(ctx, env)

	res, err := d.exec.Execute(ctx, env, d.cfg.TimeoutSeconds)
	if err != nil {
		return errorCell(rec, err)
	}

	cell := solutionCell{
		Solution: rec.FuncCode,
		Output:   truncateOutput(cellOutput(res)),
		RuntimeS: result.Round3(res.Run.ExecTime),
		SpaceKB:  res.Run.PeakMemoryKB,
	}
	if res.Outcome != executor.OutcomePassed {
		logger.Info(ctx, "solution did not pass",
			zap.String("src_uid", rec.SrcUID()),
			zap.String("outcome", string(res.Outcome)),
		)
	}
	if d.cache != nil {
		if payload, mErr := json.Marshal(cell); mErr == nil {
			if setErr := d.cache.Set(ctx, cacheKey, string(payload)); setErr != nil {
				logger.Warn(ctx, "cache store failed", zap.Error(setErr))
			}
		}
	}
	return cell
}

// cellOutput picks the most informative text for the report: compiler
// diagnostics, then the child's own streams, then the bare outcome label.
func cellOutput(res executor.ExecResult) string {
	if out := strings.TrimSpace(res.CompileOutput); out != "" {
		return out
	}
	if out := strings.TrimSpace(res.Run.Stderr); out != "" {
		return out
	}
	if out := strings.TrimSpace(res.Run.Stdout); out != "" {
		return out
	}
	return string(res.Outcome)
}

func errorCell(rec Record, err error) solutionCell {
	return solutionCell{Solution: rec.FuncCode, Output: err.Error()}
}

func truncateOutput(s string) string {
	if len(s) <= maxOutputChars {
		return s
	}
	return s[:maxOutputChars] + "\n... (truncated)"
}
