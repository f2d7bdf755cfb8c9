// Package profile defines language profiles used by the evaluation harness.
package profile

import (
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	appErr "evalbox/pkg/errors"
)

// LanguageSpec defines how to compile and run a language. Command templates
// expand {src} and {bin} against the submission's work directory and are
// tokenized with shell rules.
type LanguageSpec struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	SourceFile     string            `yaml:"sourceFile"`
	BinaryFile     string            `yaml:"binaryFile"`
	CompileEnabled bool              `yaml:"compileEnabled"`
	CompileCmdTpl  string            `yaml:"compileCmd"`
	RunCmdTpl      string            `yaml:"runCmd"`
	Env            map[string]string `yaml:"env"`
}

// CompileCommand expands the compile template into an argument vector.
func (s LanguageSpec) CompileCommand(workDir string) ([]string, error) {
	return s.expand(s.CompileCmdTpl, workDir)
}

// RunCommand expands the run template into an argument vector.
func (s LanguageSpec) RunCommand(workDir string) ([]string, error) {
	return s.expand(s.RunCmdTpl, workDir)
}

func (s LanguageSpec) expand(tpl, workDir string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	expanded := tpl
	expanded = strings.ReplaceAll(expanded, "{src}", filepath.Join(workDir, s.SourceFile))
	expanded = strings.ReplaceAll(expanded, "{bin}", filepath.Join(workDir, s.BinaryFile))
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CommandInvalid, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.CommandInvalid).WithMessage("command is empty after expansion")
	}
	return fields, nil
}
