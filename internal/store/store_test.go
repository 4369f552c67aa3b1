package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/parser"
)

func TestOpenAppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.checkPragmas())

	_, err := s.DB().Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	assert.ErrorContains(t, s.checkPragmas(), `foreign_keys = "0", expected "1"`)
}

func TestOpenMigratesOldDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_runs_program_hash'`).Scan(&name)
	require.NoError(t, err)
	assert.NoError(t, s.checkPragmas())
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.PutProgram(context.Background(), parser.MustParse("+."))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	hash := ir.MustProgramHash(parser.MustParse("+."))
	p, err := s2.GetProgram(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, parser.MustParse("+."), p.Instructions)
}

func TestPutProgram(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	ast := parser.MustParse("++[>+<-]>.")
	p, err := s.PutProgram(ctx, ast)
	require.NoError(t, err)
	assert.Equal(t, ir.MustProgramHash(ast), p.Hash)
	assert.Equal(t, ast, p.Instructions)
	assert.Equal(t, int64(1), p.Seq)

	again, err := s.PutProgram(ctx, ast)
	require.NoError(t, err)
	assert.Equal(t, p, again, "second put returns the original record")

	other, err := s.PutProgram(ctx, ir.Ast{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), other.Seq)
	assert.Equal(t, ir.Ast{}, other.Instructions)
}

func TestGetProgramNotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetProgram(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDerivedInstructionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	src := parser.MustParse("++++++[>++++++++++<-]>.")
	p, err := s.PutProgram(ctx, src)
	require.NoError(t, err)

	optimized := ir.Ast{
		ir.Add(6), ir.Mul(ir.Right, 1, 10), ir.Mul(ir.Left, 2, -3), ir.Copy(ir.Left, 4),
		ir.Clear(), ir.Scan(ir.Left), ir.Shift(ir.Right, 1), ir.Write(),
	}
	c, err := s.PutCompilation(ctx, Compilation{
		ProgramHash:  p.Hash,
		ConfigHash:   "cfg-1",
		Config:       `{"contraction":true}`,
		Instructions: optimized,
	})
	require.NoError(t, err)
	assert.Equal(t, optimized, c.Instructions)
	assert.Equal(t, int64(1), c.Seq)

	got, err := s.GetCompilation(ctx, p.Hash, "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = s.GetCompilation(ctx, p.Hash, "cfg-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutCompilationKeepsFirstRecord(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	p, err := s.PutProgram(ctx, parser.MustParse("+"))
	require.NoError(t, err)

	first, err := s.PutCompilation(ctx, Compilation{ProgramHash: p.Hash, ConfigHash: "h", Config: "{}", Instructions: ir.Ast{ir.Add(1)}})
	require.NoError(t, err)
	second, err := s.PutCompilation(ctx, Compilation{ProgramHash: p.Hash, ConfigHash: "h", Config: "{}", Instructions: ir.Ast{ir.Add(2)}})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPutCompilationRequiresProgram(t *testing.T) {
	s := createTestStore(t)
	_, err := s.PutCompilation(context.Background(), Compilation{ProgramHash: "nope", ConfigHash: "h", Config: "{}", Instructions: ir.Ast{}})
	assert.Error(t, err)
}

func TestWriteAndReadRuns(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	p, err := s.PutProgram(ctx, parser.MustParse(",."))
	require.NoError(t, err)

	r1, err := s.WriteRun(ctx, Run{ProgramHash: p.Hash, ConfigHash: "c", EOF: "unchanged", Input: []byte("a"), Output: []byte("a"), Steps: 2})
	require.NoError(t, err)
	assert.Equal(t, "run-0001", r1.ID)
	assert.Equal(t, int64(1), r1.Seq)

	r2, err := s.WriteRun(ctx, Run{ProgramHash: p.Hash, ConfigHash: "c", EOF: "zero", MaxSteps: 1, Steps: 1, ErrorCode: "STEPS_EXCEEDED"})
	require.NoError(t, err)
	assert.Equal(t, "run-0002", r2.ID)
	assert.Equal(t, int64(2), r2.Seq)

	got, err := s.ReadRun(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, r2, got)
	assert.Equal(t, []byte{}, got.Input)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, r1, all[0])
	assert.Equal(t, r2, all[1])

	recent, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, r2.ID, recent[0].ID)

	last, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	_, err = s.ReadRun(ctx, "run-9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsEmpty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestDefaultRunIDsAreUUIDv7(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "uuid.db"))
	require.NoError(t, err)
	defer s.Close()

	p, err := s.PutProgram(ctx, ir.Ast{})
	require.NoError(t, err)
	r, err := s.WriteRun(ctx, Run{ProgramHash: p.Hash, EOF: "unchanged"})
	require.NoError(t, err)

	parsed, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestMarshalAstIsCanonical(t *testing.T) {
	ast := ir.Ast{ir.Add(3), ir.Mul(ir.Left, 1, -2)}
	a, err := marshalAst(ast)
	require.NoError(t, err)
	b, err := marshalAst(ast.Clone())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	back, err := unmarshalAst(a)
	require.NoError(t, err)
	assert.Equal(t, ast, back)
}

func TestUnmarshalAstRejectsUnbalanced(t *testing.T) {
	data, err := marshalAst(ir.Ast{ir.Open()})
	require.NoError(t, err)
	_, err = unmarshalAst(data)
	var balance *ir.BalanceError
	assert.ErrorAs(t, err, &balance)
}
