package macroexp

import (
	"regexp"
	"strings"
)

// Evaluator 是可插拔的改写规则，每个实现识别一种结构语法。
//
// Evaluate 的约定：
//   - 元素的值不符合语法时，保持 ctx.Handled 为 false 并返回 nil
//   - 符合时计算替换文本，写回 ctx.Element 并置 ctx.Handled 为 true
//   - 计算失败时返回 error，由 [Engine] 收集，不会中断同一 pass 内的其余记录
//
// Profile 必须与注册目标 [Engine] 的 Profile 相等（见 [Profile.Equal]）。
type Evaluator interface {
	Profile() *Profile
	Evaluate(ctx *Context) error
}

// Context 是单次 evaluator 调用的工作状态。
type Context struct {
	Element *Element
	Handled bool
}

// ═══════════════════════════════════════════════════════════════════════════
// Match
// ═══════════════════════════════════════════════════════════════════════════

// Match 是一次正则匹配，文本为等价形式。
type Match struct {
	groups []string
	names  []string
}

func newMatch(text string, loc []int, names []string) Match {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}

	return Match{groups: groups, names: names}
}

// Text 返回整个匹配。
func (m Match) Text() string { return m.groups[0] }

// Index 返回第 i 个分组，不存在时为空串。
func (m Match) Index(i int) string {
	if i < 0 || i >= len(m.groups) {
		return ""
	}

	return m.groups[i]
}

// Group 返回命名分组，不存在时为空串。
func (m Match) Group(name string) string {
	for i, n := range m.names {
		if n == name && n != "" {
			return m.Index(i)
		}
	}

	return ""
}

// ═══════════════════════════════════════════════════════════════════════════
// PatternEvaluator
// ═══════════════════════════════════════════════════════════════════════════

// ReplaceFunc 计算单个匹配的替换文本。返回 m.Text() 表示保持原样。
type ReplaceFunc func(m Match, ctx *Context) (string, error)

// PatternEvaluator 是基于正则的 [Evaluator] 默认实现。
//
// 处理流程：
//  1. 值转为等价形式（见 [Profile.ToEquivalent]）
//  2. 不匹配 pattern 则直接返回
//  3. 逐个匹配调用 replace，任一失败立即返回该 error
//  4. 结果与原文相同视为未处理；否则转回原始形式写入元素并置 Handled
//
// pattern 应使用 [Profile.OpenPattern] 等片段构造。
type PatternEvaluator struct {
	profile *Profile
	pattern *regexp.Regexp
	replace ReplaceFunc
}

// NewPatternEvaluator 创建 PatternEvaluator。profile 为 nil 时使用 [DefaultProfile]。
func NewPatternEvaluator(profile *Profile, pattern *regexp.Regexp, replace ReplaceFunc) *PatternEvaluator {
	if profile == nil {
		profile = DefaultProfile()
	}

	return &PatternEvaluator{profile: profile, pattern: pattern, replace: replace}
}

// Profile 实现 [Evaluator]。
func (e *PatternEvaluator) Profile() *Profile { return e.profile }

// Pattern 返回作用于等价形式文本的正则。
func (e *PatternEvaluator) Pattern() *regexp.Regexp { return e.pattern }

// Evaluate 实现 [Evaluator]。
func (e *PatternEvaluator) Evaluate(ctx *Context) error {
	ctx.Handled = false

	text := ctx.Element.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pre := e.profile.ToEquivalent(text)
	locs := e.pattern.FindAllStringSubmatchIndex(pre, -1)
	if len(locs) == 0 {
		return nil
	}

	names := e.pattern.SubexpNames()
	var buf strings.Builder
	buf.Grow(len(pre))
	last := 0
	for _, loc := range locs {
		buf.WriteString(pre[last:loc[0]])
		replacement, err := e.replace(newMatch(pre, loc, names), ctx)
		if err != nil {
			return err
		}
		buf.WriteString(replacement)
		last = loc[1]
	}
	buf.WriteString(pre[last:])

	out := buf.String()
	if out == pre {
		return nil
	}
	if err := ctx.Element.SetValue(e.profile.FromEquivalent(out)); err != nil {
		return err
	}
	ctx.Handled = true

	return nil
}
