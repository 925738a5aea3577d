package macroexp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

func TestError_Format(t *testing.T) {
	cause := errors.New("bad digit")
	err := &macroexp.Error{Kind: macroexp.KindEvaluate, Identifier: "k", Message: "divide", Err: cause}

	assert.Equal(t, "macroexp: evaluate [k]: divide: bad digit", err.Error())
	assert.ErrorIs(t, err, macroexp.ErrEvaluate)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, macroexp.ErrCycle)

	bare := &macroexp.Error{Kind: macroexp.KindRunaway}
	assert.Equal(t, "macroexp: runaway", bare.Error())
}

func TestKind_String(t *testing.T) {
	kinds := map[macroexp.Kind]string{
		macroexp.KindConfig:   "config",
		macroexp.KindBalance:  "balance",
		macroexp.KindEvaluate: "evaluate",
		macroexp.KindRunaway:  "runaway",
		macroexp.KindCycle:    "cycle",
		macroexp.Kind(99):     "unknown",
	}
	for k, want := range kinds {
		assert.Equal(t, want, k.String())
	}
}

func TestAggregateError(t *testing.T) {
	agg := &macroexp.AggregateError{Errors: []*macroexp.Error{
		{Kind: macroexp.KindBalance, Identifier: "a"},
		{Kind: macroexp.KindCycle, Identifier: "b"},
	}}

	assert.Equal(t, "macroexp: 2 errors: macroexp: balance [a]; macroexp: cycle [b]", agg.Error())
	assert.ErrorIs(t, agg, macroexp.ErrUnbalanced)
	assert.ErrorIs(t, agg, macroexp.ErrCycle)
	assert.NotErrorIs(t, agg, macroexp.ErrRunaway)

	var rec *macroexp.Error
	assert.ErrorAs(t, agg, &rec)
	assert.Equal(t, "a", rec.Identifier)
}
