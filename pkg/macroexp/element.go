package macroexp

import (
	"fmt"
	"strings"
)

// Element 是 (identifier, value) 对，evaluator 直接修改其 value。
//
// identifier 作为 map key 时忽略大小写（见 [Element.Key]），原始大小写保留。
// value 可以为 null，表示 key 存在但没有值。
type Element struct {
	id     string
	value  string
	isNull bool
	empty  bool
}

// Empty 是没有 identifier 的哨兵元素，拒绝任何赋值。
var Empty = &Element{empty: true, isNull: true}

// NewElement 创建元素。
func NewElement(identifier, value string) *Element {
	return &Element{id: identifier, value: value}
}

// NewNullElement 创建值为 null 的元素。
func NewNullElement(identifier string) *Element {
	return &Element{id: identifier, isNull: true}
}

// NormalizeKey 返回大小写无关的查找 key。
func NormalizeKey(identifier string) string {
	return strings.ToUpper(identifier)
}

// Identifier 返回原始 identifier。
func (e *Element) Identifier() string { return e.id }

// Key 返回大写形式的 identifier。
func (e *Element) Key() string { return NormalizeKey(e.id) }

// Value 返回当前值，null 时为空串。
func (e *Element) Value() string { return e.value }

// IsNull 报告值是否为 null。
func (e *Element) IsNull() bool { return e.isNull }

// IsEmpty 报告是否为 [Empty] 哨兵。
func (e *Element) IsEmpty() bool { return e.empty }

// SetValue 写入新值并清除 null 标记。对 [Empty] 调用返回 [ErrEmptyElement]。
func (e *Element) SetValue(value string) error {
	if e.empty {
		return ErrEmptyElement
	}
	e.value = value
	e.isNull = false

	return nil
}

// Clone 返回独立副本。Empty 的副本仍是 Empty 本身。
func (e *Element) Clone() *Element {
	if e.empty {
		return e
	}
	c := *e

	return &c
}

func (e *Element) String() string {
	if e.empty {
		return "(<empty>)"
	}
	if e.isNull {
		return fmt.Sprintf("(%s, <null>)", e.id)
	}

	return fmt.Sprintf("(%s, %s)", e.id, e.value)
}
