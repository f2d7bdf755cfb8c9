// Package envbuilder prepares and tears down per-submission work
// directories: a directory under the work root, the spliced source file, and
// the resolved compile/run argument vectors.
package envbuilder

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	appErr "evalbox/pkg/errors"
	"evalbox/pkg/utils/logger"

	"evalbox/internal/harness/profile"
)

// BuildRequest describes one submission to stage.
type BuildRequest struct {
	SrcUID     string
	LanguageID string
	SourceCode string
}

// Environment is a staged submission ready to execute. Destroy it when the
// evaluation is done.
type Environment struct {
	SrcUID     string
	Language   profile.LanguageSpec
	WorkDir    string
	SourcePath string
	CompileCmd []string
	RunCmd     []string
}

type Builder struct {
	workRoot string
	registry *profile.Registry
}

func New(workRoot string, registry *profile.Registry) *Builder {
	return &Builder{workRoot: workRoot, registry: registry}
}

// Build stages the submission on disk. On any failure the partially created
// directory is removed before returning.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*Environment, error) {
	if strings.TrimSpace(req.SrcUID) == "" {
		return nil, appErr.ValidationError("srcUID", "is required")
	}
	if strings.TrimSpace(req.SourceCode) == "" {
		return nil, appErr.New(appErr.SourceEmpty)
	}
	lang, err := b.registry.Get(req.LanguageID)
	if err != nil {
		return nil, err
	}

	workDir := filepath.Join(b.workRoot, req.SrcUID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceCreateFailed, "create work dir %s", workDir)
	}

	sourcePath := filepath.Join(workDir, lang.SourceFile)
	if err := os.WriteFile(sourcePath, []byte(req.SourceCode), 0o644); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, appErr.Wrapf(err, appErr.SourceWriteFailed, "write source %s", sourcePath)
	}

	env := &Environment{
		SrcUID:     req.SrcUID,
		Language:   lang,
		WorkDir:    workDir,
		SourcePath: sourcePath,
	}
	if lang.CompileEnabled {
		env.CompileCmd, err = lang.CompileCommand(workDir)
		if err != nil {
			_ = os.RemoveAll(workDir)
			return nil, err
		}
	}
	env.RunCmd, err = lang.RunCommand(workDir)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}

	logger.Debug(ctx, "environment staged",
		zap.String("src_uid", req.SrcUID),
		zap.String("lang", lang.ID),
		zap.String("work_dir", workDir),
	)
	return env, nil
}

// Destroy removes the environment's work directory. Safe to call with nil or
// on an environment that was already destroyed.
func (b *Builder) Destroy(ctx context.Context, env *Environment) {
	if env == nil || env.WorkDir == "" {
		return
	}
	if err := os.RemoveAll(env.WorkDir); err != nil {
		logger.Warn(ctx, "remove work dir failed",
			zap.String("work_dir", env.WorkDir), zap.Error(err))
	}
}
