package store

import (
	"context"
	"fmt"

	"github.com/roach88/brutalist/internal/ir"
)

// PutProgram stores a parsed program under its content hash and returns
// the stored record. Storing the same program twice returns the existing
// record unchanged.
func (s *Store) PutProgram(ctx context.Context, ast ir.Ast) (Program, error) {
	hash, err := ir.ProgramHash(ast)
	if err != nil {
		return Program{}, fmt.Errorf("put program: %w", err)
	}
	blob, err := marshalAst(ast)
	if err != nil {
		return Program{}, fmt.Errorf("put program: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Program{}, fmt.Errorf("put program: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "programs")
	if err != nil {
		return Program{}, fmt.Errorf("put program: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO programs (hash, ir, instructions, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, blob, len(ast), seq)
	if err != nil {
		return Program{}, fmt.Errorf("put program: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Program{}, fmt.Errorf("put program: commit: %w", err)
	}

	return s.GetProgram(ctx, hash)
}

// PutCompilation caches optimizer output. ProgramHash must name a stored
// program. A second write for the same program and config hash keeps the
// first record.
func (s *Store) PutCompilation(ctx context.Context, c Compilation) (Compilation, error) {
	blob, err := marshalAst(c.Instructions)
	if err != nil {
		return Compilation{}, fmt.Errorf("put compilation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Compilation{}, fmt.Errorf("put compilation: begin tx: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, "compilations")
	if err != nil {
		return Compilation{}, fmt.Errorf("put compilation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compilations (program_hash, config_hash, config, ir, instructions, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(program_hash, config_hash) DO NOTHING
	`, c.ProgramHash, c.ConfigHash, c.Config, blob, len(c.Instructions), seq)
	if err != nil {
		return Compilation{}, fmt.Errorf("put compilation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Compilation{}, fmt.Errorf("put compilation: commit: %w", err)
	}

	return s.GetCompilation(ctx, c.ProgramHash, c.ConfigHash)
}

// WriteRun appends a run to the log. The store assigns Seq, and ID when
// it is empty. The returned record carries both.
func (s *Store) WriteRun(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = s.idGen.Generate()
	}
	if r.Input == nil {
		r.Input = []byte{}
	}
	if r.Output == nil {
		r.Output = []byte{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback()

	r.Seq, err = nextSeq(ctx, tx, "runs")
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, program_hash, config_hash, eof, max_steps, input, output, steps, error_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Seq,
		r.ProgramHash,
		r.ConfigHash,
		r.EOF,
		r.MaxSteps,
		r.Input,
		r.Output,
		r.Steps,
		r.ErrorCode,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return r, nil
}
