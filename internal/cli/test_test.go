package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiplyScenario = `name: multiply
description: "a counted loop collapses into Mul and Clear"
program: "++++++[>++++++++++<-]>."
expect:
  output: "<"
`

const helloScenario = `name: hello
description: "prints a greeting"
program: "++++++++[>+++++++++<-]>.<++++++[>+++++<-]>+++."
expect:
  output: "Hi"
`

const brokenScenario = `name: broken
description: "expects the wrong output"
program: "+++."
expect:
  output: "nope"
`

func TestTestCommandPasses(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "multiply.yaml", multiplyScenario)
	writeProgram(t, dir, "nested/hello.yaml", helloScenario)

	out, err := executeCLI(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "✓ multiply")
	assert.Contains(t, out.Stdout, "✓ hello")
	assert.Contains(t, out.Stdout, "2 passed, 0 failed, 2 total")
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "multiply.yaml", multiplyScenario)
	writeProgram(t, dir, "broken.yaml", brokenScenario)

	out, err := executeCLI(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.Stdout, "✗ broken")
	assert.Contains(t, out.Stdout, `level none: output "\x03", expected "nope"`)

	out, err = executeCLI(t, "", "--format", "json", "test", dir)
	require.Error(t, err)
	var res TestResult
	resp := decodeResponse(t, out.Stdout, &res)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E010", resp.Error.Code)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Total)
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "multiply.yaml", multiplyScenario)
	writeProgram(t, dir, "broken.yaml", brokenScenario)

	out, err := executeCLI(t, "", "test", "--filter", "mul*", dir)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "1 passed, 0 failed, 1 total")

	_, err = executeCLI(t, "", "test", "--filter", "[", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandGoldenFiles(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "multiply.yaml", multiplyScenario)
	golden := filepath.Join(dir, "golden", "multiply.golden")

	out, err := executeCLI(t, "", "test", "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "✓ multiply (golden updated)")
	require.FileExists(t, golden)

	out, err = executeCLI(t, "", "--format", "json", "test", dir)
	require.NoError(t, err)
	var res TestResult
	decodeResponse(t, out.Stdout, &res)
	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "match", res.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0o644))
	out, err = executeCLI(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out.Stdout, "snapshot does not match golden file")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "bad.yaml", "name: bad\n")

	out, err := executeCLI(t, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out.Stdout, "✗ bad.yaml")
	assert.Contains(t, out.Stdout, "failed to load scenario")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := executeCLI(t, "", "test", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out.Stdout)
	assert.Contains(t, out.Stdout, "0 failed")
}

func TestTestCommandMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope")

	out, err := executeCLI(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.Stderr, "scenarios directory not found")

	out, err = executeCLI(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "No scenarios found.")
}

func TestTestCommandStopsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "multiply.yaml", multiplyScenario)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := executeCLIContext(t, ctx, strings.NewReader(""), "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.Stderr, "test run cancelled")
}
