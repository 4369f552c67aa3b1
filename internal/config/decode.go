package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
)

//go:embed schema.cue
var schemaCUE string

// decodeCUE unifies the file with #Config, which fills defaults and
// rejects unknown fields, then decodes the concrete result.
func decodeCUE(path string, data []byte) (*File, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(path, err)
	}

	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(path, err)
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, formatCUEError(path, err)
	}
	return &f, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Path: path, Message: err.Error()}
	}

	first := errs[0]
	cfgErr := &Error{Path: path, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}

func decodeTOML(path string, data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, &Error{Path: path, Message: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &Error{Path: path, Message: "unknown keys: " + strings.Join(keys, ", ")}
	}
	return &f, nil
}
