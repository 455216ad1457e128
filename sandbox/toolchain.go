package sandbox

import (
	"fmt"
	"sort"
	"strings"

	"github.com/isdmx/codeprobe/config"
	"github.com/isdmx/codeprobe/lang"
)

// Kind is the execution strategy of a toolchain
type Kind string

// Toolchain kinds
const (
	KindInterpreted Kind = "interpreted"
	KindCompiled    Kind = "compiled"
)

// Command template placeholders
const (
	PlaceholderSource  = "{{source}}"
	PlaceholderWorkdir = "{{workdir}}"
	PlaceholderBinary  = "{{binary}}"
)

// BinaryName is the artifact produced by native compilers
const BinaryName = "main"

// Toolchain describes how to execute one language
type Toolchain struct {
	Language string
	Kind     Kind
	// EntryFile is the file name the source is written to. Compiled
	// toolchains may require it exactly (Java needs Main.java for a public
	// class Main).
	EntryFile string
	Compile   []string
	Run       []string
	Image     string
	Env       []string
}

// Paths locates a workspace for command expansion
type Paths struct {
	Source  string
	Workdir string
	Binary  string
}

// Extension returns the entry file extension including the dot
func (t Toolchain) Extension() string {
	if i := strings.LastIndex(t.EntryFile, "."); i >= 0 {
		return t.EntryFile[i:]
	}
	return ""
}

// Compiled reports whether the toolchain has a compile phase
func (t Toolchain) Compiled() bool {
	return t.Kind == KindCompiled
}

// CompileArgs returns the compile command for p
func (t Toolchain) CompileArgs(p Paths) []string {
	return expand(t.Compile, p)
}

// RunArgs returns the run command for p
func (t Toolchain) RunArgs(p Paths) []string {
	return expand(t.Run, p)
}

func expand(template []string, p Paths) []string {
	r := strings.NewReplacer(
		PlaceholderSource, p.Source,
		PlaceholderWorkdir, p.Workdir,
		PlaceholderBinary, p.Binary,
	)
	args := make([]string, len(template))
	for i, arg := range template {
		args[i] = r.Replace(arg)
	}
	return args
}

// DefaultToolchains returns the built-in toolchains keyed by language
func DefaultToolchains() map[string]Toolchain {
	return map[string]Toolchain{
		lang.Python: {
			Kind:      KindInterpreted,
			EntryFile: "main.py",
			Run:       []string{"python3", PlaceholderSource},
			Image:     "python:3.11-slim",
			Env:       []string{"PYTHONUNBUFFERED=1", "PYTHONDONTWRITEBYTECODE=1"},
		},
		lang.JavaScript: {
			Kind:      KindInterpreted,
			EntryFile: "main.js",
			Run:       []string{"node", PlaceholderSource},
			Image:     "node:20-alpine",
		},
		lang.Java: {
			Kind:      KindCompiled,
			EntryFile: "Main.java",
			Compile:   []string{"javac", PlaceholderSource},
			Run:       []string{"java", "-cp", PlaceholderWorkdir, "Main"},
			Image:     "eclipse-temurin:21-jdk",
		},
		lang.CPP: {
			Kind:      KindCompiled,
			EntryFile: "main.cpp",
			Compile:   []string{"g++", "-std=c++17", "-O2", "-o", PlaceholderBinary, PlaceholderSource},
			Run:       []string{PlaceholderBinary},
			Image:     "gcc:13",
		},
		lang.C: {
			Kind:      KindCompiled,
			EntryFile: "main.c",
			Compile:   []string{"gcc", "-O2", "-o", PlaceholderBinary, PlaceholderSource, "-lm"},
			Run:       []string{PlaceholderBinary},
			Image:     "gcc:13",
		},
		lang.Go: {
			Kind:      KindCompiled,
			EntryFile: "main.go",
			Compile:   []string{"go", "build", "-o", PlaceholderBinary, PlaceholderSource},
			Run:       []string{PlaceholderBinary},
			Image:     "golang:1.23-alpine",
		},
	}
}

// Registry resolves languages to toolchains. It is read-only after
// construction.
type Registry struct {
	toolchains map[string]Toolchain
}

// NewRegistry builds a registry from the defaults and per-language
// overrides. Overrides for languages without a default must supply a run
// command.
func NewRegistry(overrides map[string]config.Language) (*Registry, error) {
	toolchains := DefaultToolchains()

	for name, o := range overrides {
		language, _ := lang.Normalize(name)
		tc, ok := toolchains[language]
		if !ok {
			if o.RunCmd == "" {
				return nil, fmt.Errorf("language %q: run_cmd is required for a new toolchain", name)
			}
			tc = Toolchain{Kind: KindInterpreted, EntryFile: "main"}
		}

		if o.BuildCmd != "" {
			tc.Compile = strings.Fields(o.BuildCmd)
			tc.Kind = KindCompiled
		}
		if o.RunCmd != "" {
			tc.Run = strings.Fields(o.RunCmd)
		}
		if o.Image != "" {
			tc.Image = o.Image
		}
		tc.Env = append(append([]string{}, tc.Env...), o.Environment...)

		for _, kv := range o.Environment {
			if !strings.Contains(kv, "=") {
				return nil, fmt.Errorf("language %q: environment entry %q must be KEY=VALUE", name, kv)
			}
		}

		toolchains[language] = tc
	}

	for language, tc := range toolchains {
		tc.Language = language
		toolchains[language] = tc
	}

	return &Registry{toolchains: toolchains}, nil
}

// Resolve returns the toolchain for language, accepting aliases
func (r *Registry) Resolve(language string) (Toolchain, error) {
	canonical, _ := lang.Normalize(language)
	tc, ok := r.toolchains[canonical]
	if !ok {
		return Toolchain{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return tc, nil
}

// Languages returns the supported languages in sorted order
func (r *Registry) Languages() []string {
	languages := make([]string, 0, len(r.toolchains))
	for language := range r.toolchains {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}
