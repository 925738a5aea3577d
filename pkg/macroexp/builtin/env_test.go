package builtin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp/builtin"
)

func TestEnv_Evaluate(t *testing.T) {
	t.Setenv("MACROEXP_TEST_HOST", "db.local")
	t.Setenv("MACROEXP_TEST_EMPTY", "")
	env := builtin.NewEnv(nil)

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "set", value: "{%Env::MACROEXP_TEST_HOST%}", want: "db.local"},
		{name: "keyword case and spaces", value: "{% env :: MACROEXP_TEST_HOST %}", want: "db.local"},
		{name: "set ignores fallback", value: "{%Env::MACROEXP_TEST_HOST::x%}", want: "db.local"},
		{name: "unset with fallback", value: "{%Env::MACROEXP_TEST_UNSET::5432%}", want: "5432"},
		{name: "unset with empty fallback", value: "a{%Env::MACROEXP_TEST_UNSET::%}b", want: "ab"},
		{name: "empty with fallback", value: "{%Env::MACROEXP_TEST_EMPTY::d%}", want: "d"},
		{name: "empty without fallback", value: "[{%Env::MACROEXP_TEST_EMPTY%}]", want: "[]"},
		{name: "unset without fallback", value: "{%Env::MACROEXP_TEST_UNSET%}", want: "{%Env::MACROEXP_TEST_UNSET%}"},
		{name: "embedded", value: "postgres://{%Env::MACROEXP_TEST_HOST%}:5432", want: "postgres://db.local:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := evaluate(t, env, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ctx.Element.Value())
			assert.Equal(t, tt.want != tt.value, ctx.Handled)
		})
	}
}

func TestEnv_NestedFallback(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "PORT" {
			return "8080", true
		}

		return "", false
	}
	p := macroexp.DefaultProfile()
	eng, err := macroexp.New(p, macroexp.WithEvaluators(builtin.NewEnvFunc(p, lookup)))
	require.NoError(t, err)

	got, err := eng.EvaluateString("{%Env::ADDR::0.0.0.0:{%Env::PORT%}%}")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", got)
}
