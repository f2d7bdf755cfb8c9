package profile

import (
	appErr "evalbox/pkg/errors"
)

// Registry resolves language ids into specs.
type Registry struct {
	specs map[string]LanguageSpec
}

// NewRegistry builds a registry from the given specs. Later entries override
// earlier ones with the same id.
func NewRegistry(specs []LanguageSpec) *Registry {
	index := make(map[string]LanguageSpec, len(specs))
	for _, s := range specs {
		if s.ID == "" {
			continue
		}
		index[s.ID] = s
	}
	return &Registry{specs: index}
}

// Get returns the spec for a language id.
func (r *Registry) Get(id string) (LanguageSpec, error) {
	if s, ok := r.specs[id]; ok {
		return s, nil
	}
	return LanguageSpec{}, appErr.Newf(appErr.LanguageNotSupported, "language not supported: %s", id)
}

// Builtin returns the default language set. Config files may extend or
// override it.
func Builtin() []LanguageSpec {
	return []LanguageSpec{
		{
			ID:         "python",
			Name:       "Python 3",
			SourceFile: "main.py",
			RunCmdTpl:  "python3 {src}",
		},
		{
			ID:             "cpp",
			Name:           "C++17",
			SourceFile:     "main.cpp",
			BinaryFile:     "main",
			CompileEnabled: true,
			CompileCmdTpl:  "g++ -O2 -std=c++17 -o {bin} {src}",
			RunCmdTpl:      "{bin}",
		},
		{
			ID:         "go",
			Name:       "Go",
			SourceFile: "main.go",
			RunCmdTpl:  "go run {src}",
		},
	}
}
