package macroexp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

func TestNewProfile_Validation(t *testing.T) {
	tests := []struct {
		name      string
		open      string
		close     string
		separator string
		wantErr   bool
	}{
		{name: "default tokens", open: "{%", close: "%}", separator: "::"},
		{name: "single characters", open: "<", close: ">", separator: "|"},
		{name: "same open and close", open: "##", close: "##", separator: "::"},
		{name: "empty open", open: "", close: "%}", separator: "::", wantErr: true},
		{name: "white-space close", open: "{%", close: "  ", separator: "::", wantErr: true},
		{name: "empty separator", open: "{%", close: "%}", separator: "", wantErr: true},
		{name: "separator equals open", open: "ab", close: "%}", separator: "AB", wantErr: true},
		{name: "separator equals close", open: "{%", close: "%}", separator: "%}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := macroexp.NewProfile(tt.open, tt.close, tt.separator)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, macroexp.ErrInvalidProfile)
				assert.Nil(t, p)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.open, p.Open())
			assert.Equal(t, tt.close, p.Close())
			assert.Equal(t, tt.separator, p.Separator())
		})
	}
}

func TestMustProfile_Panics(t *testing.T) {
	assert.Panics(t, func() { macroexp.MustProfile("{%", "%}", "{%") })
}

func TestProfile_Equivalents(t *testing.T) {
	def := macroexp.DefaultProfile()
	assert.Equal(t, '\uE000', def.OpenEquivalent())
	assert.Equal(t, '\uE001', def.CloseEquivalent())
	assert.Equal(t, '\uE002', def.SeparatorEquivalent())

	single := macroexp.MustProfile("<", ">", ",")
	assert.Equal(t, '<', single.OpenEquivalent())
	assert.Equal(t, '>', single.CloseEquivalent())
	assert.Equal(t, ',', single.SeparatorEquivalent())

	// 正则元字符需要替换
	meta := macroexp.MustProfile("(", ")", "|")
	assert.Equal(t, '\uE000', meta.OpenEquivalent())
	assert.Equal(t, '\uE001', meta.CloseEquivalent())
	assert.Equal(t, '\uE002', meta.SeparatorEquivalent())
}

func TestProfile_EquivalentRoundTrip(t *testing.T) {
	profiles := []*macroexp.Profile{
		macroexp.DefaultProfile(),
		macroexp.MustProfile("<", ">", ","),
		macroexp.MustProfile("((", "))", "|"),
		macroexp.MustProfile("${", "}$", "--"),
	}
	texts := []string{
		"",
		"plain text",
		"{%Integer-divide::7::2%}",
		"a <b,c> ((d|e)) ${f--g}$",
	}

	for _, p := range profiles {
		for _, text := range texts {
			assert.Equal(t, text, p.FromEquivalent(p.ToEquivalent(text)), "profile %v text %q", p, text)
		}
	}

	def := macroexp.DefaultProfile()
	assert.Equal(t, "\uE000id\uE002v\uE001", def.ToEquivalent("{%id::v%}"))
}

func TestProfile_IsBalanced(t *testing.T) {
	p := macroexp.DefaultProfile()
	tests := []struct {
		text string
		want bool
	}{
		{text: "", want: true},
		{text: "no constructs", want: true},
		{text: "{%a%}", want: true},
		{text: "{%a%}{%b%}", want: true},
		{text: "{%id::{%inner::v%}%}", want: true},
		{text: "{%a", want: false},
		{text: "a%}", want: false},
		{text: "%}{%", want: false},
		{text: "{%a%}%}{%", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsBalanced(tt.text))
		})
	}
}

func TestProfile_IsBalanced_SameOpenClose(t *testing.T) {
	p := macroexp.MustProfile("##", "##", "::")
	assert.True(t, p.IsBalanced("##a"))
	assert.True(t, p.IsBalanced("##a##"))
}

func TestProfile_IsSimpleExpression(t *testing.T) {
	p := macroexp.DefaultProfile()
	tests := []struct {
		text string
		want bool
	}{
		{text: "{%id::v%}", want: true},
		{text: "prefix {%id::v::w%} suffix", want: true},
		{text: "{%name%}", want: true},
		{text: "{%a%} and {%b::c%}", want: true},
		{text: "{%id::{%inner::v%}%}", want: false},
		// 任一处嵌套都使整段文本不是简单结构，即使其中另有简单结构
		{text: "{%a::b%}{%c::{%d%}%}", want: false},
		{text: "{%%}", want: false},
		{text: "plain", want: false},
		{text: "", want: false},
		{text: "{%unterminated", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsSimpleExpression(tt.text))
		})
	}

	symmetric := macroexp.MustProfile("##", "##", "::")
	assert.True(t, symmetric.IsSimpleExpression("x ##id::v## y"))
	assert.False(t, symmetric.IsSimpleExpression("####"))
}

func TestProfile_Equal(t *testing.T) {
	a := macroexp.MustProfile("{%", "%}", "::")
	assert.True(t, a.Equal(macroexp.DefaultProfile()))
	assert.False(t, a.Equal(macroexp.MustProfile("<", ">", "::")))
	assert.False(t, macroexp.MustProfile("ab", "cd", "::").Equal(macroexp.MustProfile("AB", "cd", "::")))
	assert.False(t, a.Equal(nil))
	assert.Equal(t, `("{%", "%}", "::")`, a.String())
}
