package store

import (
	"github.com/google/uuid"

	"github.com/roach88/brutalist/internal/ir"
)

// Program is a parsed instruction sequence.
type Program struct {
	Hash         string
	Instructions ir.Ast
	Seq          int64
}

// Compilation is the optimizer output for one program under one pass
// configuration.
type Compilation struct {
	ProgramHash  string
	ConfigHash   string
	Config       string // canonical JSON of the enabled options
	Instructions ir.Ast
	Seq          int64
}

// Run records one evaluation.
type Run struct {
	ID          string
	Seq         int64
	ProgramHash string
	ConfigHash  string
	EOF         string
	MaxSteps    int64
	Input       []byte
	Output      []byte
	Steps       int64
	ErrorCode   string // empty when the run finished cleanly
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator returns UUIDv7 strings, which sort by creation time.
type UUIDGenerator struct{}

// Generate returns a new UUIDv7.
func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
