// Command run-eval reads question/solution records from a JSONL file, runs
// each solution in the sandbox, and writes one CSV row per question.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"evalbox/internal/evalcache"
	"evalbox/internal/evaldriver"
	"evalbox/internal/harness/envbuilder"
	"evalbox/internal/harness/executor"
	"evalbox/internal/harness/profile"
	"evalbox/internal/harness/splicer"
	"evalbox/internal/sandbox/engine"
	"evalbox/pkg/utils/logger"
)

func main() {
	outPath := flag.String("out", "results.csv", "Path of the CSV report")
	timeoutSeconds := flag.Int("timeout", 5, "Per-solution wall-clock limit in seconds")
	workRoot := flag.String("work-root", filepath.Join(os.TempDir(), "evalbox"), "Root directory for per-solution workspaces")
	cacheAddr := flag.String("cache-addr", "", "Redis address for result caching (empty disables)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input.jsonl>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	if err := logger.Init(logger.Config{Level: *logLevel, Format: "console"}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.NewEngine(engine.Config{})
	if err != nil {
		logger.Error(ctx, "init sandbox engine failed", zap.Error(err))
		os.Exit(1)
	}

	registry := profile.NewRegistry(profile.Builtin())
	builder := envbuilder.New(*workRoot, registry)
	exec := executor.New(eng, executor.Config{})

	var cache evaldriver.ResultCache
	if *cacheAddr != "" {
		c, err := evalcache.New(evalcache.Config{Addr: *cacheAddr, TTL: 24 * time.Hour})
		if err != nil {
			logger.Error(ctx, "init result cache failed", zap.Error(err))
			os.Exit(1)
		}
		defer func() {
			_ = c.Close()
		}()
		cache = c
	}

	driver := evaldriver.New(splicer.New(), builder, exec, cache, evaldriver.Config{
		TimeoutSeconds: *timeoutSeconds,
	})

	in, err := os.Open(inputPath)
	if err != nil {
		logger.Error(ctx, "open input failed", zap.String("path", inputPath), zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(*outPath)
	if err != nil {
		logger.Error(ctx, "create output failed", zap.String("path", *outPath), zap.Error(err))
		os.Exit(1)
	}

	runErr := driver.Run(ctx, in, out)
	if closeErr := out.Close(); runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		logger.Error(ctx, "evaluation batch failed", zap.Error(runErr))
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Wrote %s\n", *outPath)
}
