package builtin

import (
	"os"
	"regexp"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// Env 处理环境变量引用：
//
//	{%Env::NAME%}          - 变量值；未设置时保持原样
//	{%Env::NAME::default%} - 未设置或为空时使用 default（同 Shell 的 ${NAME:-default}）
//
// 关键字忽略大小写，变量名区分大小写。
type Env struct {
	*macroexp.PatternEvaluator

	lookup func(string) (string, bool)
}

// NewEnv 创建读取进程环境变量的 Env。
func NewEnv(profile *macroexp.Profile) *Env {
	return NewEnvFunc(profile, os.LookupEnv)
}

// NewEnvFunc 创建使用自定义查找函数的 Env，lookup 语义同 os.LookupEnv。
func NewEnvFunc(profile *macroexp.Profile, lookup func(string) (string, bool)) *Env {
	if profile == nil {
		profile = macroexp.DefaultProfile()
	}

	sep := profile.SeparatorPattern()
	pattern := regexp.MustCompile(`(?s)` + profile.OpenPattern() +
		`\s*(?i:Env)\s*` + sep +
		`\s*(?P<name>[A-Za-z_][A-Za-z0-9_]*)\s*` +
		`(?P<alt>` + sep + `(?P<fallback>` + profile.BodyClass() + `*))?` +
		profile.ClosePattern())

	e := &Env{lookup: lookup}
	e.PatternEvaluator = macroexp.NewPatternEvaluator(profile, pattern, e.replace)

	return e
}

func (e *Env) replace(m macroexp.Match, _ *macroexp.Context) (string, error) {
	val, isSet := e.lookup(m.Group("name"))
	hasFallback := m.Group("alt") != ""

	switch {
	case isSet && val != "":
		return val, nil
	case hasFallback:
		return m.Group("fallback"), nil
	case isSet:
		return "", nil
	default:
		return m.Text(), nil
	}
}
