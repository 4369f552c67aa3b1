package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetProgram returns the program stored under hash, or ErrNotFound.
func (s *Store) GetProgram(ctx context.Context, hash string) (Program, error) {
	var (
		p    Program
		blob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, ir, seq FROM programs WHERE hash = ?
	`, hash).Scan(&p.Hash, &blob, &p.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Program{}, fmt.Errorf("program %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return Program{}, fmt.Errorf("get program: %w", err)
	}

	p.Instructions, err = unmarshalAst(blob)
	if err != nil {
		return Program{}, fmt.Errorf("get program %s: %w", hash, err)
	}
	return p, nil
}

// GetCompilation returns cached optimizer output, or ErrNotFound.
func (s *Store) GetCompilation(ctx context.Context, programHash, configHash string) (Compilation, error) {
	var (
		c    Compilation
		blob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT program_hash, config_hash, config, ir, seq
		FROM compilations
		WHERE program_hash = ? AND config_hash = ?
	`, programHash, configHash).Scan(&c.ProgramHash, &c.ConfigHash, &c.Config, &blob, &c.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Compilation{}, fmt.Errorf("compilation %s/%s: %w", programHash, configHash, ErrNotFound)
	}
	if err != nil {
		return Compilation{}, fmt.Errorf("get compilation: %w", err)
	}

	c.Instructions, err = unmarshalAst(blob)
	if err != nil {
		return Compilation{}, fmt.Errorf("get compilation: %w", err)
	}
	return c, nil
}

const runColumns = `id, seq, program_hash, config_hash, eof, max_steps, input, output, steps, error_code`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID,
		&r.Seq,
		&r.ProgramHash,
		&r.ConfigHash,
		&r.EOF,
		&r.MaxSteps,
		&r.Input,
		&r.Output,
		&r.Steps,
		&r.ErrorCode,
	)
	if err != nil {
		return Run{}, err
	}
	if r.Input == nil {
		r.Input = []byte{}
	}
	if r.Output == nil {
		r.Output = []byte{}
	}
	return r, nil
}

// ReadRun returns one run by ID, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs ordered by seq. A positive limit keeps only the
// most recent runs, still in ascending order.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq ASC`
	args := []any{}
	if limit > 0 {
		query = `SELECT ` + runColumns + ` FROM (
			SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LastSeq returns the highest run seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM runs`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
