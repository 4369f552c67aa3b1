package ir

import (
	"encoding/json"
	"fmt"
)

// opJSON is the wire shape of an Op.
type opJSON struct {
	Op     string `json:"op"`
	Dir    string `json:"dir,omitempty"`
	N      int    `json:"n,omitempty"`
	Factor int    `json:"factor,omitempty"`
}

func hasDir(k Kind) bool {
	switch k {
	case KindShift, KindScan, KindCopy, KindMul:
		return true
	}
	return false
}

func dirName(d Dir) string {
	if d == Left {
		return "left"
	}
	return "right"
}

func parseDir(s string) (Dir, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("invalid direction %q: must be left or right", s)
	}
}

func (o Op) wire() opJSON {
	w := opJSON{Op: o.Kind.String(), N: o.N, Factor: o.Factor}
	if hasDir(o.Kind) {
		w.Dir = dirName(o.Dir)
	}
	return w
}

// MarshalJSON encodes an Op as {"op":"shift","dir":"right","n":2}.
func (o Op) MarshalJSON() ([]byte, error) {
	if err := o.Check(); err != nil {
		return nil, err
	}
	return json.Marshal(o.wire())
}

// UnmarshalJSON decodes and range-checks an Op.
func (o *Op) UnmarshalJSON(data []byte) error {
	var w opJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	kind, ok := ParseKind(w.Op)
	if !ok {
		return fmt.Errorf("unknown op %q", w.Op)
	}

	op := Op{Kind: kind, N: w.N, Factor: w.Factor}
	if hasDir(kind) {
		dir, err := parseDir(w.Dir)
		if err != nil {
			return fmt.Errorf("%s: %w", w.Op, err)
		}
		op.Dir = dir
	} else if w.Dir != "" {
		return fmt.Errorf("%s does not take a direction", w.Op)
	}

	if err := op.Check(); err != nil {
		return err
	}
	*o = op
	return nil
}

// canonicalValue returns the Op as a map accepted by MarshalCanonical.
func (o Op) canonicalValue() map[string]any {
	w := o.wire()
	m := map[string]any{"op": w.Op}
	if w.Dir != "" {
		m["dir"] = w.Dir
	}
	if w.N != 0 {
		m["n"] = w.N
	}
	if w.Factor != 0 {
		m["factor"] = w.Factor
	}
	return m
}

func (a Ast) canonicalValue() []any {
	out := make([]any, len(a))
	for i, op := range a {
		out[i] = op.canonicalValue()
	}
	return out
}
