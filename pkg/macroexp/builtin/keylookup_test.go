package builtin_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp/builtin"
)

func TestKeyLookup_SelfResolution(t *testing.T) {
	k, err := builtin.NewKeyLookup(nil, map[string]string{
		"A": "5",
		"B": "{%A%}",
		"C": "{%b%}",
		"D": "{%Missing%}",
		"E": "{%Integer-divide::{%A%}::2%}",
	})
	require.NoError(t, err)

	want := map[string]string{
		"a": "5",
		"B": "5",
		"c": "5",
		"D": "{%Missing%}",
		"E": "{%Integer-divide::{%A%}::2%}",
	}
	for name, v := range want {
		got, ok := k.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, v, got, name)
	}

	_, ok := k.Lookup("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, k.Keys())
	assert.Equal(t, 5, k.Len())
}

func TestKeyLookup_Evaluate(t *testing.T) {
	k, err := builtin.NewKeyLookup(nil, map[string]string{"Philosopher Count": "5"})
	require.NoError(t, err)

	ctx, err := evaluate(t, k, "n={%philosopher count%}, m={%other%}")
	require.NoError(t, err)
	assert.True(t, ctx.Handled)
	assert.Equal(t, "n=5, m={%other%}", ctx.Element.Value())

	ctx, err = evaluate(t, k, "{%other%}")
	require.NoError(t, err)
	assert.False(t, ctx.Handled)

	// 含分隔符的结构不属于 KeyLookup
	ctx, err = evaluate(t, k, "{%Philosopher Count::x%}")
	require.NoError(t, err)
	assert.False(t, ctx.Handled)
}

func TestKeyLookup_NullValue(t *testing.T) {
	k, err := builtin.NewKeyLookupElements(nil, []*macroexp.Element{
		macroexp.NewNullElement("Nothing"),
		macroexp.NewElement("Ref", "{%Nothing%}"),
		nil,
		macroexp.Empty,
	})
	require.NoError(t, err)

	_, ok := k.Lookup("nothing")
	assert.False(t, ok)
	v, ok := k.Lookup("ref")
	require.True(t, ok)
	assert.Equal(t, "{%Nothing%}", v)
	assert.Equal(t, 2, k.Len())
}

func TestKeyLookup_CopiesElements(t *testing.T) {
	src := []*macroexp.Element{macroexp.NewElement("A", "1"), macroexp.NewElement("B", "{%A%}")}
	k, err := builtin.NewKeyLookupElements(nil, src)
	require.NoError(t, err)

	v, _ := k.Lookup("B")
	assert.Equal(t, "1", v)
	assert.Equal(t, "{%A%}", src[1].Value())
}

func TestKeyLookup_DuplicateKey(t *testing.T) {
	_, err := builtin.NewKeyLookup(nil, map[string]string{"Key": "1", "KEY": "2"})
	require.ErrorIs(t, err, macroexp.ErrDuplicateKey)
}

func TestKeyLookup_Unbalanced(t *testing.T) {
	_, err := builtin.NewKeyLookup(nil, map[string]string{"A": "{%B"})
	require.ErrorIs(t, err, macroexp.ErrUnbalanced)
}

func TestKeyLookup_MutualReferenceIsCycle(t *testing.T) {
	// 第一轮后 A 与 B 都变成 {%A%}，第二轮 A 引用自身
	_, err := builtin.NewKeyLookup(nil, map[string]string{"A": "{%B%}", "B": "{%A%}"})
	require.ErrorIs(t, err, macroexp.ErrCycle)
}

func TestKeyLookup_SelfReference(t *testing.T) {
	tests := []struct {
		name  string
		pairs map[string]string
	}{
		{name: "prefix", pairs: map[string]string{"A": "x{%A%}"}},
		{name: "twice", pairs: map[string]string{"A": "{%A%}{%A%}"}},
		{name: "case", pairs: map[string]string{"Fork Count": "1{%fork count%}"}},
		{name: "via other key", pairs: map[string]string{"A": "{%B%}{%B%}", "B": "{%A%}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, err := builtin.NewKeyLookup(nil, tt.pairs)
			require.ErrorIs(t, err, macroexp.ErrCycle)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestKeyLookup_SelfKeyOutsideResolution(t *testing.T) {
	k, err := builtin.NewKeyLookup(nil, map[string]string{"A": "5"})
	require.NoError(t, err)

	// 外部批量求值中与字典同名的条目不是自引用
	eng, err := macroexp.New(nil, macroexp.WithEvaluators(k))
	require.NoError(t, err)

	pairs := map[string]string{"a": "{%A%}"}
	require.NoError(t, eng.EvaluateStrings(pairs))
	assert.Equal(t, "5", pairs["a"])
}

func TestKeyLookup_ThreeWayCycle(t *testing.T) {
	// 第二轮 B 回到 {%C%}
	_, err := builtin.NewKeyLookup(nil, map[string]string{"A": "{%B%}", "B": "{%C%}", "C": "{%A%}"})
	require.ErrorIs(t, err, macroexp.ErrCycle)
}
