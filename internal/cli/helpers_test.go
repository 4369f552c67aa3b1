package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// multiplySrc prints "<" (6 * 10 = 60) through a counted loop.
const multiplySrc = "++++++[>++++++++++<-]>."

// catSrc echoes its input until end of input reads as zero.
const catSrc = ",[.,]"

type cliOutput struct {
	Stdout string
	Stderr string
}

// executeCLI runs the root command with args and stdin.
func executeCLI(t *testing.T, stdin string, args ...string) (cliOutput, error) {
	t.Helper()
	return executeCLIContext(t, context.Background(), strings.NewReader(stdin), args...)
}

// executeCLIContext runs the root command under ctx, the way main does.
func executeCLIContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) (cliOutput, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(stdin)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return cliOutput{Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// cancelOnRead cancels its context on the first Read, standing in for a
// signal that arrives once the program is running.
type cancelOnRead struct {
	r      io.Reader
	cancel context.CancelFunc
}

func (c *cancelOnRead) Read(p []byte) (int, error) {
	c.cancel()
	return c.r.Read(p)
}

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

type rawResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// decodeResponse parses a JSON envelope and decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) rawResponse {
	t.Helper()
	var resp rawResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if v != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp
}
