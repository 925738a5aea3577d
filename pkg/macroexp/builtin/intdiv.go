package builtin

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// ErrOverflow 整除结果超出 int64 范围（MinInt64 / -1）。
var ErrOverflow = errors.New("integer-divide: result overflows int64")

// IntegerDivide 处理 {%Integer-divide::被除数::除数%}。
//
// 关键字忽略大小写，分隔符两侧允许空白。结果向零截断：
//
//	{%Integer-divide::7::2%}  → 3
//	{%Integer-divide::-7::2%} → -3
//
// 除数为 0 不做特殊处理，由运行时 panic 产生，引擎将其转为 evaluator 错误。
type IntegerDivide struct {
	*macroexp.PatternEvaluator
}

// NewIntegerDivide 创建 IntegerDivide，profile 为 nil 时使用默认 Profile。
func NewIntegerDivide(profile *macroexp.Profile) *IntegerDivide {
	if profile == nil {
		profile = macroexp.DefaultProfile()
	}

	sep := profile.SeparatorPattern()
	pattern := regexp.MustCompile(`(?is)` + profile.OpenPattern() +
		`\s*Integer-divide\s*` + sep +
		`\s*(?P<dividend>[-+]?\d+)\s*` + sep +
		`\s*(?P<divisor>[-+]?\d+)\s*` + profile.ClosePattern())

	d := &IntegerDivide{}
	d.PatternEvaluator = macroexp.NewPatternEvaluator(profile, pattern, d.replace)

	return d
}

func (d *IntegerDivide) replace(m macroexp.Match, _ *macroexp.Context) (string, error) {
	dividend, err := strconv.ParseInt(m.Group("dividend"), 10, 64)
	if err != nil {
		return "", fmt.Errorf("integer-divide: dividend: %w", err)
	}
	divisor, err := strconv.ParseInt(m.Group("divisor"), 10, 64)
	if err != nil {
		return "", fmt.Errorf("integer-divide: divisor: %w", err)
	}
	if dividend == math.MinInt64 && divisor == -1 {
		return "", ErrOverflow
	}

	return strconv.FormatInt(dividend/divisor, 10), nil
}
