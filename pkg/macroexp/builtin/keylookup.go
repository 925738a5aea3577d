package builtin

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// KeyLookup 处理 {%name%}，用 name 对应的值替换整个结构。
//
// name 查找忽略大小写。构造时会用自身对全部值做一次批量求值（自解析），
// 因此一个值可以通过 {%其他 key%} 引用另一个值：
//
//	{"Philosopher Count": "5", "Fork Count": "{%Philosopher Count%}"}
//
// 自解析后 "Fork Count" 的值为 "5"。
//
// name 不存在，或存在但值为 null 时，结构保持原样。
//
// 自解析期间，值引用自身 key（如 {"A": "x{%A%}"}）返回 [macroexp.ErrCycle]。
// 互相引用的一对 key 会在第二轮变成自引用，同样以 [macroexp.ErrCycle] 结束。
type KeyLookup struct {
	*macroexp.PatternEvaluator

	entries   map[string]*macroexp.Element
	order     []*macroexp.Element
	resolving bool
}

// NewKeyLookup 从 map 创建 KeyLookup。
//
// opts 作用于自解析所用的内部引擎（如 [macroexp.WithMaxPasses]、[macroexp.WithLogger]）。
func NewKeyLookup(profile *macroexp.Profile, pairs map[string]string, opts ...macroexp.Option) (*KeyLookup, error) {
	elems := make([]*macroexp.Element, 0, len(pairs))
	for _, key := range slices.Sorted(maps.Keys(pairs)) {
		elems = append(elems, macroexp.NewElement(key, pairs[key]))
	}

	return NewKeyLookupElements(profile, elems, opts...)
}

// NewKeyLookupElements 从元素列表创建 KeyLookup，允许 null 值。
//
// 元素会被复制，调用方的元素不受自解析影响。
// 仅大小写不同的重复 key 返回 [macroexp.ErrDuplicateKey]。
func NewKeyLookupElements(profile *macroexp.Profile, elems []*macroexp.Element, opts ...macroexp.Option) (*KeyLookup, error) {
	if profile == nil {
		profile = macroexp.DefaultProfile()
	}

	k := &KeyLookup{
		entries: make(map[string]*macroexp.Element, len(elems)),
		order:   make([]*macroexp.Element, 0, len(elems)),
	}
	for _, elem := range elems {
		if elem == nil || elem.IsEmpty() {
			continue
		}
		key := elem.Key()
		if prev, ok := k.entries[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q", macroexp.ErrDuplicateKey, prev.Identifier(), elem.Identifier())
		}
		c := elem.Clone()
		k.entries[key] = c
		k.order = append(k.order, c)
	}

	pattern := regexp.MustCompile(`(?s)` + profile.OpenPattern() +
		`(?P<name>` + profile.BodyClass() + `+)` + profile.ClosePattern())
	k.PatternEvaluator = macroexp.NewPatternEvaluator(profile, pattern, k.replace)

	if err := k.resolve(opts...); err != nil {
		return nil, fmt.Errorf("resolve keys: %w", err)
	}

	return k, nil
}

// resolve 以自身为唯一 evaluator 原地批量求值全部条目。
func (k *KeyLookup) resolve(opts ...macroexp.Option) error {
	opts = append(slices.Clone(opts), macroexp.WithEvaluators(k))
	eng, err := macroexp.New(k.Profile(), opts...)
	if err != nil {
		return err
	}

	k.resolving = true
	defer func() { k.resolving = false }()

	return eng.EvaluateElements(k.order)
}

func (k *KeyLookup) replace(m macroexp.Match, ctx *macroexp.Context) (string, error) {
	key := macroexp.NormalizeKey(m.Group("name"))
	if k.resolving && key == ctx.Element.Key() {
		return "", &macroexp.Error{
			Kind:       macroexp.KindCycle,
			Identifier: ctx.Element.Identifier(),
			Value:      k.Profile().FromEquivalent(ctx.Element.Value()),
			Message:    "value refers to its own key",
		}
	}

	elem, ok := k.entries[key]
	if !ok || elem.IsNull() {
		return m.Text(), nil
	}

	return elem.Value(), nil
}

// Lookup 返回 name 的（已自解析的）值。null 值返回 ok=false。
func (k *KeyLookup) Lookup(name string) (string, bool) {
	elem, ok := k.entries[macroexp.NormalizeKey(name)]
	if !ok || elem.IsNull() {
		return "", false
	}

	return elem.Value(), true
}

// Keys 按构造顺序返回原始大小写的 key。
func (k *KeyLookup) Keys() []string {
	keys := make([]string, len(k.order))
	for i, elem := range k.order {
		keys[i] = elem.Identifier()
	}

	return keys
}

// Len 返回条目数。
func (k *KeyLookup) Len() int { return len(k.order) }
