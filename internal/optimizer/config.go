package optimizer

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/suggest"
)

// Option names as they appear in flags, config files and hashes.
const (
	OptContraction = "contraction"
	OptClearLoop   = "clear_loop"
	OptScanLoop    = "scan_loop"
	OptCopyMulLoop = "copy_mul_loop"
)

// OptionNames lists the optional passes in pipeline order.
var OptionNames = []string{OptContraction, OptClearLoop, OptScanLoop, OptCopyMulLoop}

// Config selects which optional passes run. The two dead-loop passes are
// not configurable.
type Config struct {
	Contraction bool `json:"contraction" yaml:"contraction" toml:"contraction"`
	ClearLoop   bool `json:"clear_loop" yaml:"clear_loop" toml:"clear_loop"`
	ScanLoop    bool `json:"scan_loop" yaml:"scan_loop" toml:"scan_loop"`
	CopyMulLoop bool `json:"copy_mul_loop" yaml:"copy_mul_loop" toml:"copy_mul_loop"`
}

// DefaultConfig enables every pass.
func DefaultConfig() Config {
	return Config{Contraction: true, ClearLoop: true, ScanLoop: true, CopyMulLoop: true}
}

func (c *Config) field(name string) (*bool, error) {
	switch name {
	case OptContraction:
		return &c.Contraction, nil
	case OptClearLoop:
		return &c.ClearLoop, nil
	case OptScanLoop:
		return &c.ScanLoop, nil
	case OptCopyMulLoop:
		return &c.CopyMulLoop, nil
	default:
		return nil, suggest.Unknown("optimization", name, OptionNames)
	}
}

// Set turns a named pass on or off. Dashes are accepted in place of
// underscores.
func (c *Config) Set(name string, on bool) error {
	f, err := c.field(strings.ReplaceAll(name, "-", "_"))
	if err != nil {
		return err
	}
	*f = on
	return nil
}

// Enabled reports whether the named pass is on.
func (c Config) Enabled(name string) (bool, error) {
	f, err := c.field(name)
	if err != nil {
		return false, err
	}
	return *f, nil
}

// Options returns the configuration as named booleans.
func (c Config) Options() map[string]any {
	return map[string]any{
		OptContraction: c.Contraction,
		OptClearLoop:   c.ClearLoop,
		OptScanLoop:    c.ScanLoop,
		OptCopyMulLoop: c.CopyMulLoop,
	}
}

// Hash identifies the configuration in the compilation cache.
func (c Config) Hash() (string, error) {
	return ir.ConfigHash(c.Options())
}

// String lists the enabled passes, or "none".
func (c Config) String() string {
	var on []string
	for _, name := range OptionNames {
		if enabled, _ := c.Enabled(name); enabled {
			on = append(on, name)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}

// Level is a named preset of passes. It exists only at the configuration
// boundary; the optimizer itself only sees Config.
type Level int

const (
	LevelNone Level = iota
	LevelLight
	LevelStandard
	LevelAggressive
)

// LevelNames lists the presets from least to most optimization.
var LevelNames = []string{"none", "light", "standard", "aggressive"}

func (l Level) String() string {
	if l < LevelNone || l > LevelAggressive {
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
	return LevelNames[l]
}

// Config returns the pass selection for the preset.
func (l Level) Config() Config {
	switch l {
	case LevelLight:
		return Config{Contraction: true}
	case LevelStandard:
		return Config{Contraction: true, ClearLoop: true, ScanLoop: true}
	case LevelAggressive:
		return DefaultConfig()
	default:
		return Config{}
	}
}

// ParseLevel accepts a preset name or its number, 0 through 3.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(LevelNames) {
		return Level(n), nil
	}
	for i, name := range LevelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelNone, suggest.Unknown("optimization level", s, slices.Concat(LevelNames, []string{"0", "1", "2", "3"}))
}
