package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/roach88/brutalist/internal/ir"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor enc mode: %v", err))
	}
	cborEncMode = em
}

// opCBOR is the stored form of one instruction: a four element array.
type opCBOR struct {
	_      struct{} `cbor:",toarray"`
	Kind   uint8
	Dir    uint8
	N      int
	Factor int
}

// marshalAst encodes an instruction sequence as canonical CBOR.
func marshalAst(ast ir.Ast) ([]byte, error) {
	wire := make([]opCBOR, len(ast))
	for i, op := range ast {
		wire[i] = opCBOR{Kind: uint8(op.Kind), Dir: uint8(op.Dir), N: op.N, Factor: op.Factor}
	}
	data, err := cborEncMode.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal ir: %w", err)
	}
	return data, nil
}

// unmarshalAst decodes and validates a stored instruction sequence.
func unmarshalAst(data []byte) (ir.Ast, error) {
	var wire []opCBOR
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal ir: %w", err)
	}
	ast := make(ir.Ast, len(wire))
	for i, w := range wire {
		ast[i] = ir.Op{Kind: ir.Kind(w.Kind), Dir: ir.Dir(w.Dir), N: w.N, Factor: w.Factor}
	}
	if err := ir.Validate(ast); err != nil {
		return nil, fmt.Errorf("unmarshal ir: %w", err)
	}
	return ast, nil
}
