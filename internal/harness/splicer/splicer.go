// Package splicer merges a candidate function with its test scaffolding into
// one runnable source file.
package splicer

import (
	"strings"

	appErr "evalbox/pkg/errors"
)

// Splicer builds complete source files from record fragments.
type Splicer struct{}

func New() *Splicer {
	return &Splicer{}
}

// Splice concatenates the candidate function and the test driver, separated
// by a blank line. Fragments arriving with escaped newlines (the JSONL
// pipeline stores some records that way) are normalized first.
func (s *Splicer) Splice(funcCode, mainCode string) (string, error) {
	funcCode = NormalizeNewlines(funcCode)
	mainCode = NormalizeNewlines(mainCode)
	if strings.TrimSpace(funcCode) == "" {
		return "", appErr.New(appErr.SourceEmpty).WithMessage("candidate code is empty")
	}
	if strings.TrimSpace(mainCode) == "" {
		return funcCode, nil
	}
	return funcCode + "\n\n" + mainCode, nil
}

// NormalizeNewlines rewrites literal backslash-n sequences into real
// newlines, but only for fragments that contain no real newlines at all.
// Mixed content is left untouched so escaped sequences inside string
// literals of normal code survive.
func NormalizeNewlines(code string) string {
	if code == "" || strings.Contains(code, "\n") {
		return code
	}
	if !strings.Contains(code, `\n`) {
		return code
	}
	return strings.ReplaceAll(code, `\n`, "\n")
}
