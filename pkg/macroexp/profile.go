package macroexp

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// 默认的开/闭定界符与参数分隔符。
const (
	DefaultOpen      = "{%"
	DefaultClose     = "%}"
	DefaultSeparator = "::"
)

// 多字符或正则元字符的定界符/分隔符在内部被替换成这些私有区字符。
//
// 前提：待展开的文本本身不包含这三个字符。该前提不做校验。
const (
	openAlternate      = '\uE000'
	closeAlternate     = '\uE001'
	separatorAlternate = '\uE002'
)

// regexpMetaChars 列出需要替换为私有区字符的单字符 token。
//
// "{" 与 "}" 单独出现时无需转义，故不在列表中。
const regexpMetaChars = `.$^[](|)*+?\`

// ═══════════════════════════════════════════════════════════════════════════
// Profile
// ═══════════════════════════════════════════════════════════════════════════

// Profile 描述一组开定界符、闭定界符与分隔符。
//
// Profile 构造后不可变，可被多个 evaluator 与 [Engine] 并发只读共享。
// 两个 Profile 是否相同只取决于三个 token（区分大小写），见 [Profile.Equal]。
type Profile struct {
	open      string
	close     string
	separator string

	openEq      rune
	closeEq     rune
	separatorEq rune
}

var defaultProfile = MustProfile(DefaultOpen, DefaultClose, DefaultSeparator)

// DefaultProfile 返回 "{%" / "%}" / "::" 组成的默认 Profile。
func DefaultProfile() *Profile {
	return defaultProfile
}

// NewProfile 校验并创建 Profile。
//
// 校验规则：
//   - 三个 token 均不能为空或纯空白
//   - 分隔符不能与任一定界符相同（忽略大小写）
//
// 开、闭定界符允许相同，此时 [Profile.IsBalanced] 恒为 true。
func NewProfile(open, closeDelim, separator string) (*Profile, error) {
	if strings.TrimSpace(open) == "" {
		return nil, profileError("open delimiter cannot be empty or white-space")
	}
	if strings.TrimSpace(closeDelim) == "" {
		return nil, profileError("close delimiter cannot be empty or white-space")
	}
	if strings.TrimSpace(separator) == "" {
		return nil, profileError("separator cannot be empty or white-space")
	}
	if strings.EqualFold(separator, open) {
		return nil, profileError("separator cannot equal open delimiter")
	}
	if strings.EqualFold(separator, closeDelim) {
		return nil, profileError("separator cannot equal close delimiter")
	}

	p := &Profile{
		open:        open,
		close:       closeDelim,
		separator:   separator,
		openEq:      equivalent(open, openAlternate),
		closeEq:     equivalent(closeDelim, closeAlternate),
		separatorEq: equivalent(separator, separatorAlternate),
	}
	if open == closeDelim {
		p.closeEq = p.openEq
	}

	return p, nil
}

// MustProfile 调用 [NewProfile]，失败时 panic，适合包级变量初始化。
func MustProfile(open, closeDelim, separator string) *Profile {
	p, err := NewProfile(open, closeDelim, separator)
	if err != nil {
		panic(err)
	}

	return p
}

func profileError(msg string) error {
	return &Error{Kind: KindConfig, Message: msg}
}

func equivalent(token string, alternate rune) rune {
	if utf8.RuneCountInString(token) == 1 {
		r, _ := utf8.DecodeRuneInString(token)
		if !strings.ContainsRune(regexpMetaChars, r) {
			return r
		}
	}

	return alternate
}

// Open 返回开定界符。
func (p *Profile) Open() string { return p.open }

// Close 返回闭定界符。
func (p *Profile) Close() string { return p.close }

// Separator 返回分隔符。
func (p *Profile) Separator() string { return p.separator }

// OpenEquivalent 返回开定界符的单字符等价形式。
func (p *Profile) OpenEquivalent() rune { return p.openEq }

// CloseEquivalent 返回闭定界符的单字符等价形式。
func (p *Profile) CloseEquivalent() rune { return p.closeEq }

// SeparatorEquivalent 返回分隔符的单字符等价形式。
func (p *Profile) SeparatorEquivalent() rune { return p.separatorEq }

// Equal 按 (open, close, separator) 三元组比较，区分大小写。
func (p *Profile) Equal(other *Profile) bool {
	if p == nil || other == nil {
		return p == other
	}

	return p.open == other.open && p.close == other.close && p.separator == other.separator
}

func (p *Profile) String() string {
	return fmt.Sprintf("(%q, %q, %q)", p.open, p.close, p.separator)
}

// ═══════════════════════════════════════════════════════════════════════════
// 等价形式转换
// ═══════════════════════════════════════════════════════════════════════════

// ToEquivalent 把文本中的定界符与分隔符替换为单字符等价形式。
//
// 替换顺序为 open → close → separator。
func (p *Profile) ToEquivalent(text string) string {
	if text == "" {
		return text
	}
	text = replaceToken(text, p.open, p.openEq)
	text = replaceToken(text, p.close, p.closeEq)

	return replaceToken(text, p.separator, p.separatorEq)
}

// FromEquivalent 是 [Profile.ToEquivalent] 的逆操作。
func (p *Profile) FromEquivalent(text string) string {
	if text == "" {
		return text
	}
	text = restoreToken(text, p.open, p.openEq)
	text = restoreToken(text, p.close, p.closeEq)

	return restoreToken(text, p.separator, p.separatorEq)
}

func replaceToken(text, token string, eq rune) string {
	if token == string(eq) {
		return text
	}

	return strings.ReplaceAll(text, token, string(eq))
}

func restoreToken(text, token string, eq rune) string {
	if token == string(eq) {
		return text
	}

	return strings.ReplaceAll(text, string(eq), token)
}

// ═══════════════════════════════════════════════════════════════════════════
// 结构判定
// ═══════════════════════════════════════════════════════════════════════════

// IsBalanced 判断开、闭定界符是否成对且正确嵌套。
//
// 空文本视为平衡；开、闭等价字符相同时无法判定，恒返回 true。
func (p *Profile) IsBalanced(text string) bool {
	if p.openEq == p.closeEq || text == "" {
		return true
	}

	depth := 0
	for _, r := range p.ToEquivalent(text) {
		switch r {
		case p.openEq:
			depth++
		case p.closeEq:
			depth--
			if depth < 0 {
				return false
			}
		}
	}

	return depth == 0
}

// IsSimpleExpression 判断文本是否包含可直接求值的简单结构。
//
// 简单结构形如 OPEN body CLOSE，body 非空且不含定界符，
// body 内可以出现分隔符（如 {%id::v%}），也可以没有（如 {%name%}）。
// 只要文本中存在嵌套结构（如 {%id::{%inner::v%}%}），即返回 false。
// 未闭合的开定界符与多余的闭定界符不构成结构。
func (p *Profile) IsSimpleExpression(text string) bool {
	if text == "" {
		return false
	}
	if p.openEq == p.closeEq {
		return p.isSimpleSymmetric(text)
	}

	found := false
	depth := 0
	bodyLen := 0
	for _, r := range p.ToEquivalent(text) {
		switch r {
		case p.openEq:
			depth++
			if depth > 1 {
				return false
			}
			bodyLen = 0
		case p.closeEq:
			if depth == 0 {
				continue
			}
			depth--
			if bodyLen > 0 {
				found = true
			}
		default:
			if depth > 0 {
				bodyLen++
			}
		}
	}

	return found
}

// isSimpleSymmetric 处理开、闭定界符相同的情况：定界符交替开启与关闭，不存在嵌套。
func (p *Profile) isSimpleSymmetric(text string) bool {
	inside := false
	bodyLen := 0
	for _, r := range p.ToEquivalent(text) {
		if r != p.openEq {
			if inside {
				bodyLen++
			}

			continue
		}
		if inside && bodyLen > 0 {
			return true
		}
		inside = !inside
		bodyLen = 0
	}

	return false
}

// ═══════════════════════════════════════════════════════════════════════════
// 正则片段
// ═══════════════════════════════════════════════════════════════════════════

// OpenPattern 返回匹配开定界符等价字符的正则片段。
//
// evaluator 的正则总是作用于等价形式的文本，见 [PatternEvaluator]。
func (p *Profile) OpenPattern() string { return quoteRune(p.openEq) }

// ClosePattern 返回匹配闭定界符等价字符的正则片段。
func (p *Profile) ClosePattern() string { return quoteRune(p.closeEq) }

// SeparatorPattern 返回匹配分隔符等价字符的正则片段。
func (p *Profile) SeparatorPattern() string { return quoteRune(p.separatorEq) }

// BodyClass 返回 "既非定界符也非分隔符" 的否定字符类，如 [^\x{E000}\x{E001}\x{E002}]。
func (p *Profile) BodyClass() string {
	return "[^" + quoteRune(p.openEq) + quoteRune(p.closeEq) + quoteRune(p.separatorEq) + "]"
}

// quoteRune 以 \x{..} 形式转义，字符类内外均安全（包括 "-" 与 "]"）。
func quoteRune(r rune) string {
	return fmt.Sprintf(`\x{%X}`, r)
}
