package kvstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/kvstore"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

func snapshot(elems []*macroexp.Element) map[string]any {
	out := make(map[string]any, len(elems))
	for _, e := range elems {
		if e.IsNull() {
			out[e.Identifier()] = nil

			continue
		}
		out[e.Identifier()] = e.Value()
	}

	return out
}

func TestLoadFile(t *testing.T) {
	want := map[string]any{
		"Philosopher Count": "5",
		"Fork Count":        "{%Philosopher Count%}",
		"db.host":           "localhost",
		"db.ratio":          "0.5",
		"debug":             "true",
		"nothing":           nil,
		"tags":              `["a","b"]`,
	}

	tests := []struct {
		file    string
		content string
	}{
		{file: "s.yaml", content: `
Philosopher Count: 5
Fork Count: "{%Philosopher Count%}"
db:
  host: localhost
  ratio: 0.5
debug: true
nothing: null
tags: [a, b]
`},
		{file: "s.json", content: `{
  "Philosopher Count": 5,
  "Fork Count": "{%Philosopher Count%}",
  "db": {"host": "localhost", "ratio": 0.5},
  "debug": true,
  "nothing": null,
  "tags": ["a", "b"]
}`},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			elems, err := kvstore.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, want, snapshot(elems))
			assert.Equal(t, "Fork Count", elems[0].Identifier(), "elements are sorted by key")
		})
	}
}

func TestLoadFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.toml")
	require.NoError(t, os.WriteFile(path, []byte("count = 5\n[server]\naddr = \"{%Env::ADDR::0.0.0.0%}\"\n"), 0o600))

	elems, err := kvstore.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": "5", "server.addr": "{%Env::ADDR::0.0.0.0%}"}, snapshot(elems))
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := kvstore.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "list.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n"), 0o600))
	_, err = kvstore.LoadFile(path)
	require.Error(t, err)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := kvstore.OpenSQLite(path, "settings")
	require.NoError(t, err)

	require.NoError(t, s.Put("Philosopher Count", "5"))
	require.NoError(t, s.Put("Fork Count", "{%Philosopher Count%}"))
	require.NoError(t, s.PutNull("Nothing"))
	require.NoError(t, s.Put("tmp", "x"))
	require.NoError(t, s.Delete("tmp"))
	require.NoError(t, s.Delete("never-existed"))

	got, err := s.Get("philosopher count")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Philosopher Count", got.Identifier())
	assert.Equal(t, "5", got.Value())

	got, err = s.Get("nothing")
	require.NoError(t, err)
	assert.True(t, got.IsNull())

	got, err = s.Get("tmp")
	require.NoError(t, err)
	assert.Nil(t, got)

	// 覆盖写入时 key 大小写不敏感
	require.NoError(t, s.Put("PHILOSOPHER COUNT", "6"))
	require.NoError(t, s.Close())

	// 重新打开验证持久化
	s2, err := kvstore.OpenSQLite(path, "settings")
	require.NoError(t, err)
	defer s2.Close()

	elems, err := s2.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"Fork Count":        "{%Philosopher Count%}",
		"Nothing":           nil,
		"Philosopher Count": "6",
	}, snapshot(elems))
}

func TestSQLite_PutElements(t *testing.T) {
	s, err := kvstore.OpenSQLite(filepath.Join(t.TempDir(), "s.db"), "kv")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutElements([]*macroexp.Element{
		macroexp.NewElement("a", "1"),
		macroexp.NewNullElement("b"),
		macroexp.Empty,
		nil,
	}))

	elems, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": nil}, snapshot(elems))
}

func TestOpenSQLite_InvalidTable(t *testing.T) {
	_, err := kvstore.OpenSQLite(filepath.Join(t.TempDir(), "s.db"), "bad; DROP")
	require.ErrorIs(t, err, kvstore.ErrInvalidTable)
}
