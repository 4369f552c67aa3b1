// Package emit translates an optimized instruction sequence into source
// text for another language.
//
// Every target uses a 65536-cell byte tape, wrapping cell arithmetic and
// leaves the cell unchanged on end of input. Generated programs do not
// check tape bounds.
package emit

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/suggest"
)

// Emitter writes a program in one target language.
type Emitter interface {
	// Name is the target name used on the command line.
	Name() string

	// Ext is the file extension of generated files, without the dot.
	Ext() string

	// Emit writes the translation of ast to w. The Ast must be balanced.
	Emit(w io.Writer, ast ir.Ast) error
}

var registry = map[string]Emitter{}

func register(e Emitter) {
	registry[e.Name()] = e
}

func init() {
	register(irEmitter{})
	register(cEmitter)
	register(rustEmitter)
	register(goEmitter{})
}

// Names lists the registered targets in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the emitter for a target name.
func Lookup(name string) (Emitter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if e, ok := registry[name]; ok {
		return e, nil
	}
	return nil, suggest.Unknown("emit target", name, Names())
}

// ParseTargets resolves a list of target names, each of which may itself
// be comma separated. Duplicates are dropped; order is preserved.
func ParseTargets(names []string) ([]Emitter, error) {
	var out []Emitter
	var seen []string
	for _, entry := range names {
		for _, name := range strings.Split(entry, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			e, err := Lookup(name)
			if err != nil {
				return nil, err
			}
			if slices.Contains(seen, e.Name()) {
				continue
			}
			seen = append(seen, e.Name())
			out = append(out, e)
		}
	}
	return out, nil
}

// FileName returns the output file name for base and target e.
func FileName(base string, e Emitter) string {
	return base + "." + e.Ext()
}

// irEmitter writes one instruction per line in its text form.
type irEmitter struct{}

func (irEmitter) Name() string { return "ir" }
func (irEmitter) Ext() string  { return "ir" }

func (irEmitter) Emit(w io.Writer, ast ir.Ast) error {
	if err := ir.Validate(ast); err != nil {
		return fmt.Errorf("emit ir: %w", err)
	}
	_, err := io.WriteString(w, ast.String())
	return err
}

// factorParts splits a multiply factor into a byte magnitude and a sign.
func factorParts(f int) (mag int, negative bool) {
	if f < 0 {
		return (-f) % 256, true
	}
	return f % 256, false
}
