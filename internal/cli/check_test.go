package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckValidFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeProgram(t, dir, "mul.b", multiplySrc)
	b := writeProgram(t, dir, "cat.b", "read and echo: "+catSrc)

	out, err := executeCLI(t, "", "check", a, b)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "✓ "+a+" (23 instructions)")
	assert.Contains(t, out.Stdout, "✓ "+b+" (5 instructions)")
}

func TestCheckReportsEveryInvalidFile(t *testing.T) {
	dir := t.TempDir()
	good := writeProgram(t, dir, "good.b", "+")
	bad := writeProgram(t, dir, "bad.b", "+\n  ]")
	missing := filepath.Join(dir, "missing.b")

	out, err := executeCLI(t, "", "check", good, bad, missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.Stdout, "✓ "+good)
	assert.Contains(t, out.Stdout, "✗ "+bad+":2:3: [E002] unmatched ']'")
	assert.Contains(t, out.Stdout, "✗ "+missing+": [E004] file not found")
}

func TestCheckJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeProgram(t, dir, "bad.b", "[")

	out, err := executeCLI(t, "", "--format", "json", "check", bad)
	require.Error(t, err)

	var res CheckResult
	resp := decodeResponse(t, out.Stdout, &res)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E002", resp.Error.Code)
	assert.False(t, res.Valid)
	require.Len(t, res.Files, 1)
	assert.Equal(t, 1, res.Files[0].Line)
	assert.Equal(t, 1, res.Files[0].Column)
}

func TestCheckRequiresArgs(t *testing.T) {
	_, err := executeCLI(t, "", "check")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
