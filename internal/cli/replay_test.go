package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brutalist/internal/store"
)

// recordRuns runs programs with --db and returns the database path and the
// recorded run IDs.
func recordRuns(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	mul := writeProgram(t, dir, "mul.b", multiplySrc)
	cat := writeProgram(t, dir, "cat.b", catSrc)
	left := writeProgram(t, dir, "left.b", "+<")

	var ids []string
	for _, run := range []struct {
		stdin string
		args  []string
	}{
		{"", []string{"run", "--db", db, mul}},
		{"abc", []string{"run", "--db", db, "--eof", "zero", "-O", "light", cat}},
		{"", []string{"run", "--db", db, left}},
	} {
		out, _ := executeCLI(t, run.stdin, append([]string{"--format", "json"}, run.args...)...)
		var res RunResult
		decodeResponse(t, out.Stdout, &res)
		require.NotEmpty(t, res.RunID)
		ids = append(ids, res.RunID)
	}
	return db, ids
}

func TestReplayAllDeterministic(t *testing.T) {
	db, ids := recordRuns(t)

	out, err := executeCLI(t, "", "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "Replay Summary: 3 run(s)")
	assert.Contains(t, out.Stdout, "✓ [1] "+ids[0])
	assert.Contains(t, out.Stdout, "✓ [3] "+ids[2])
	assert.Contains(t, out.Stdout, "All runs deterministic")

	out, err = executeCLI(t, "", "--format", "json", "replay", "--db", db, "--run", ids[1])
	require.NoError(t, err)
	var res ReplayResult
	resp := decodeResponse(t, out.Stdout, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, res.TotalRuns)
	assert.True(t, res.AllDeterministic)
	assert.Equal(t, ids[1], res.Runs[0].ID)
}

func TestReplayDetectsDivergence(t *testing.T) {
	db, ids := recordRuns(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(), `UPDATE runs SET output = ?, steps = 1 WHERE id = ?`, []byte("x"), ids[0])
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeCLI(t, "", "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.Stdout, "✗ [1] "+ids[0])
	assert.Contains(t, out.Stdout, `output "<", recorded "x"`)
	assert.Contains(t, out.Stdout, "steps 5, recorded 1")
	assert.Contains(t, out.Stdout, "Determinism verification failed")

	out, err = executeCLI(t, "", "--format", "json", "replay", "--db", db)
	require.Error(t, err)
	var res ReplayResult
	resp := decodeResponse(t, out.Stdout, &res)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E009", resp.Error.Code)
	assert.False(t, res.AllDeterministic)
	assert.False(t, res.Runs[0].Deterministic)
	assert.True(t, res.Runs[1].Deterministic)
}

func TestReplayUnknownRun(t *testing.T) {
	db, _ := recordRuns(t)

	out, err := executeCLI(t, "", "replay", "--db", db, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.Stderr, "E004")
}

func TestReplayEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := executeCLI(t, "", "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "No runs found in database.")
}

func TestRunsListing(t *testing.T) {
	db, ids := recordRuns(t)

	out, err := executeCLI(t, "", "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, truncateID(ids[0]))
	assert.Contains(t, out.Stdout, "OUT_OF_BOUNDS")

	var records []RunRecord
	out, err = executeCLI(t, "", "--format", "json", "runs", "--db", db, "--limit", "1")
	require.NoError(t, err)
	decodeResponse(t, out.Stdout, &records)
	require.Len(t, records, 1)
	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, "OUT_OF_BOUNDS", records[0].ErrorCode)
}

func TestRunsEmptyAndMissingFlag(t *testing.T) {
	out, err := executeCLI(t, "", "runs", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "No runs recorded.")

	_, err = executeCLI(t, "", "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0123456789abcdef"))
}
