// Package config loads the optional project file (brutalist.cue or
// brutalist.toml) and merges it with command-line overrides.
//
// Precedence, lowest first: built-in defaults, the project file, flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/brutalist/internal/emit"
	"github.com/roach88/brutalist/internal/eval"
	"github.com/roach88/brutalist/internal/optimizer"
)

// File names searched for by Find, in order.
const (
	CUEFileName  = "brutalist.cue"
	TOMLFileName = "brutalist.toml"
)

// File mirrors the project file layout.
type File struct {
	Optimize OptimizeSection `json:"optimize" toml:"optimize"`
	Eval     EvalSection     `json:"eval" toml:"eval"`
	Emit     EmitSection     `json:"emit" toml:"emit"`
}

// OptimizeSection selects a level and optionally overrides single passes.
type OptimizeSection struct {
	Level       string `json:"level" toml:"level"`
	Contraction *bool  `json:"contraction,omitempty" toml:"contraction"`
	ClearLoop   *bool  `json:"clear_loop,omitempty" toml:"clear_loop"`
	ScanLoop    *bool  `json:"scan_loop,omitempty" toml:"scan_loop"`
	CopyMulLoop *bool  `json:"copy_mul_loop,omitempty" toml:"copy_mul_loop"`
}

// EvalSection configures the evaluator.
type EvalSection struct {
	EOF      string `json:"eof" toml:"eof"`
	MaxSteps int64  `json:"max_steps" toml:"max_steps"`
}

// EmitSection lists code generation targets and their output directory.
type EmitSection struct {
	Targets []string `json:"targets" toml:"targets"`
	Dir     string   `json:"dir" toml:"dir"`
}

// Settings is the resolved configuration used by the commands.
type Settings struct {
	Source    string // file the settings came from, empty for defaults
	Level     optimizer.Level
	Optimizer optimizer.Config
	EOF       eval.EOFPolicy
	MaxSteps  int64
	Emit      []string
	EmitDir   string
}

// Default returns the settings used when no project file exists.
func Default() Settings {
	return Settings{
		Level:     optimizer.LevelAggressive,
		Optimizer: optimizer.LevelAggressive.Config(),
		EOF:       eval.EOFUnchanged,
		Emit:      []string{},
		EmitDir:   ".",
	}
}

// Error reports an invalid project file.
type Error struct {
	Path    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Find returns the project file in dir, or "" when there is none. Having
// both a CUE and a TOML file is an error.
func Find(dir string) (string, error) {
	var found []string
	for _, name := range []string{CUEFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			found = append(found, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("find config: %w", err)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("find config: both %s and %s exist in %s", CUEFileName, TOMLFileName, dir)
	}
}

// LoadFile reads a project file, choosing the decoder by extension.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return decodeCUE(path, data)
	case ".toml":
		return decodeTOML(path, data)
	default:
		return nil, &Error{Path: path, Message: "config file must end in .cue or .toml"}
	}
}

// Load reads and resolves a project file.
func Load(path string) (Settings, error) {
	f, err := LoadFile(path)
	if err != nil {
		return Settings{}, err
	}
	s, err := f.Settings()
	if err != nil {
		return Settings{}, &Error{Path: path, Message: err.Error()}
	}
	s.Source = path
	return s, nil
}

// Resolve loads explicit when set, otherwise the project file found in
// dir, otherwise the defaults.
func Resolve(explicit, dir string) (Settings, error) {
	path := explicit
	if path == "" {
		var err error
		if path, err = Find(dir); err != nil {
			return Settings{}, err
		}
		if path == "" {
			return Default(), nil
		}
	}
	return Load(path)
}

// Settings validates the file and applies it over the defaults.
func (f *File) Settings() (Settings, error) {
	s := Default()

	if f.Optimize.Level != "" {
		level, err := optimizer.ParseLevel(f.Optimize.Level)
		if err != nil {
			return Settings{}, err
		}
		s.Level = level
		s.Optimizer = level.Config()
	}
	passes := []struct {
		name string
		on   *bool
	}{
		{optimizer.OptContraction, f.Optimize.Contraction},
		{optimizer.OptClearLoop, f.Optimize.ClearLoop},
		{optimizer.OptScanLoop, f.Optimize.ScanLoop},
		{optimizer.OptCopyMulLoop, f.Optimize.CopyMulLoop},
	}
	for _, p := range passes {
		if p.on == nil {
			continue
		}
		if err := s.Optimizer.Set(p.name, *p.on); err != nil {
			return Settings{}, err
		}
	}

	policy, err := eval.ParseEOFPolicy(f.Eval.EOF)
	if err != nil {
		return Settings{}, err
	}
	s.EOF = policy

	if f.Eval.MaxSteps < 0 {
		return Settings{}, fmt.Errorf("eval.max_steps must not be negative, got %d", f.Eval.MaxSteps)
	}
	s.MaxSteps = f.Eval.MaxSteps

	if err := s.setEmit(f.Emit.Targets); err != nil {
		return Settings{}, err
	}
	if f.Emit.Dir != "" {
		s.EmitDir = f.Emit.Dir
	}
	return s, nil
}

func (s *Settings) setEmit(targets []string) error {
	emitters, err := emit.ParseTargets(targets)
	if err != nil {
		return err
	}
	s.Emit = make([]string, 0, len(emitters))
	for _, e := range emitters {
		s.Emit = append(s.Emit, e.Name())
	}
	return nil
}

// Overrides carries command-line flags. Nil and empty fields leave the
// loaded value alone.
type Overrides struct {
	Level    *string
	Enable   []string
	Disable  []string
	EOF      *string
	MaxSteps *int64
	Emit     []string
	EmitDir  *string
}

// Apply merges flags into s. A level flag replaces the whole pass set,
// including per-pass choices from the file; Enable and Disable then adjust
// it.
func (s *Settings) Apply(o Overrides) error {
	if o.Level != nil {
		level, err := optimizer.ParseLevel(*o.Level)
		if err != nil {
			return err
		}
		s.Level = level
		s.Optimizer = level.Config()
	}
	for _, names := range []struct {
		list []string
		on   bool
	}{{o.Enable, true}, {o.Disable, false}} {
		for _, entry := range names.list {
			for _, name := range strings.Split(entry, ",") {
				if strings.TrimSpace(name) == "" {
					continue
				}
				if err := s.Optimizer.Set(strings.TrimSpace(name), names.on); err != nil {
					return err
				}
			}
		}
	}
	if o.EOF != nil {
		policy, err := eval.ParseEOFPolicy(*o.EOF)
		if err != nil {
			return err
		}
		s.EOF = policy
	}
	if o.MaxSteps != nil {
		if *o.MaxSteps < 0 {
			return fmt.Errorf("--max-steps must not be negative, got %d", *o.MaxSteps)
		}
		s.MaxSteps = *o.MaxSteps
	}
	if len(o.Emit) > 0 {
		if err := s.setEmit(o.Emit); err != nil {
			return err
		}
	}
	if o.EmitDir != nil {
		s.EmitDir = *o.EmitDir
	}
	return nil
}
