//go:build !linux

package engine

import (
	"context"

	appErr "evalbox/pkg/errors"

	"evalbox/internal/sandbox/result"
	"evalbox/internal/sandbox/spec"
)

type stubEngine struct{}

func NewEngine(cfg Config) (Engine, error) {
	return &stubEngine{}, nil
}

func (s *stubEngine) Run(ctx context.Context, req spec.LaunchRequest) (result.RunResult, error) {
	return result.RunResult{}, appErr.New(appErr.SandboxNotSupported)
}
