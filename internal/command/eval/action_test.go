package eval

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

const settingsYAML = `
Philosopher Count: 5
Fork Count: "{%Philosopher Count%}"
Half: "{%Integer-divide::{%Fork Count%}::2%}"
Nothing: null
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	file := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte(settingsYAML), 0o600))

	var out bytes.Buffer
	root := &cli.Command{
		Name:     "macroexp",
		Reader:   strings.NewReader(stdin),
		Writer:   &out,
		Commands: []*cli.Command{newEvalCommand(), newResolveCommand(), newGetCommand()},
	}
	argv := append([]string{"macroexp", args[0], "--source-file", file}, args[1:]...)
	err := root.Run(context.Background(), argv)

	return out.String(), err
}

func TestEval(t *testing.T) {
	out, err := run(t, "", "eval", "{%Integer-divide::7::2%}", "forks={%fork count%}")
	require.NoError(t, err)
	assert.Equal(t, "3\nforks=5\n", out)

	out, err = run(t, "half={%Half%}\n", "eval")
	require.NoError(t, err)
	assert.Equal(t, "half=2\n", out)

	_, err = run(t, "", "eval", "{%Integer-divide::1::0%}")
	require.ErrorIs(t, err, macroexp.ErrEvaluate)
}

func TestEval_CustomDelimiters(t *testing.T) {
	out, err := run(t, "", "eval",
		"--delimiters-open", "<", "--delimiters-close", ">", "--delimiters-separator", ",",
		"<Integer-divide,9,2>")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestResolve(t *testing.T) {
	out, err := run(t, "", "resolve")
	require.NoError(t, err)
	assert.Contains(t, out, "Fork Count: \"5\"")
	assert.Contains(t, out, "Half: \"2\"")
	assert.Contains(t, out, "Nothing: null")

	out, err = run(t, "", "resolve", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Philosopher Count":"5","Fork Count":"5","Half":"2","Nothing":null}`, out)

	_, err = run(t, "", "resolve", "--format", "xml")
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	out, err := run(t, "", "get", "half")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	_, err = run(t, "", "get", "missing")
	require.Error(t, err)

	_, err = run(t, "", "get")
	require.Error(t, err)
}
