package macroexp

import (
	"errors"
	"fmt"
	"strings"
)

// 错误分类的哨兵值，配合 errors.Is 使用：
//
//	if errors.Is(err, macroexp.ErrUnbalanced) { ... }
var (
	ErrInvalidProfile  = errors.New("macroexp: invalid delimiter profile")
	ErrUnbalanced      = errors.New("macroexp: delimiters are not balanced")
	ErrEvaluate        = errors.New("macroexp: evaluator failed")
	ErrRunaway         = errors.New("macroexp: pass limit exceeded")
	ErrCycle           = errors.New("macroexp: rewrite cycle detected")
	ErrEmptyElement    = errors.New("macroexp: cannot change the value of the empty element")
	ErrProfileMismatch = errors.New("macroexp: evaluator profile does not match engine profile")
	ErrDuplicateKey    = errors.New("macroexp: duplicate key")
)

// Kind 是错误记录的分类。
type Kind int

const (
	// KindConfig 配置错误：Profile 非法、evaluator 注册失败、重复 key 等。
	KindConfig Kind = iota
	// KindBalance 定界符不平衡。
	KindBalance
	// KindEvaluate evaluator 在计算替换文本时失败。
	KindEvaluate
	// KindRunaway 超过 pass 上限仍未收敛。
	KindRunaway
	// KindCycle 同一元素在一次调用中回到了先前出现过的值。
	KindCycle
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindBalance:
		return "balance"
	case KindEvaluate:
		return "evaluate"
	case KindRunaway:
		return "runaway"
	case KindCycle:
		return "cycle"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrInvalidProfile
	case KindBalance:
		return ErrUnbalanced
	case KindEvaluate:
		return ErrEvaluate
	case KindRunaway:
		return ErrRunaway
	case KindCycle:
		return ErrCycle
	default:
		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Error
// ═══════════════════════════════════════════════════════════════════════════

// Error 是单条错误记录。
//
// Identifier 与 Value 可能为空；Err 为底层原因（如 strconv 或 runtime 错误）。
type Error struct {
	Kind       Kind
	Identifier string
	Value      string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("macroexp: ")
	b.WriteString(e.Kind.String())
	if e.Identifier != "" {
		fmt.Fprintf(&b, " [%s]", e.Identifier)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap 返回底层原因。
func (e *Error) Unwrap() error { return e.Err }

// Is 使记录与其分类的哨兵值相等。
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()

	return s != nil && target == s
}

func newElementError(kind Kind, elem *Element, msg string, cause error) *Error {
	e := &Error{Kind: kind, Message: msg, Err: cause}
	if elem != nil {
		e.Identifier = elem.Identifier()
		e.Value = elem.Value()
	}

	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// AggregateError
// ═══════════════════════════════════════════════════════════════════════════

// AggregateError 汇总同一 pass 内产生的全部错误记录。
type AggregateError struct {
	Errors []*Error
}

func (a *AggregateError) Error() string {
	if len(a.Errors) == 1 {
		return a.Errors[0].Error()
	}

	msgs := make([]string, len(a.Errors))
	for i, e := range a.Errors {
		msgs[i] = e.Error()
	}

	return fmt.Sprintf("macroexp: %d errors: %s", len(a.Errors), strings.Join(msgs, "; "))
}

// Unwrap 让 errors.Is / errors.As 能够遍历每一条记录。
func (a *AggregateError) Unwrap() []error {
	errs := make([]error, len(a.Errors))
	for i, e := range a.Errors {
		errs[i] = e
	}

	return errs
}

func aggregate(errs ...*Error) error {
	if len(errs) == 0 {
		return nil
	}

	return &AggregateError{Errors: errs}
}
