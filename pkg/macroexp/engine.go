package macroexp

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Engine 按注册顺序调度 evaluator，迭代改写直到不动点或达到 pass 上限。
//
// Engine 内部不加锁：在求值进行中不得并发调用 [Engine.Add] / [Engine.Remove]，
// 多个 goroutine 共享同一实例时由调用方负责同步。
type Engine struct {
	profile    *Profile
	evaluators []Evaluator
	maxPasses  int
	maxLen     int
	logger     *slog.Logger
	pre        func(string) string
	post       func(string) string
}

// New 创建引擎。profile 为 nil 时使用 [DefaultProfile]。
//
// 通过 [WithEvaluators] 注册的 evaluator 若 Profile 不一致，返回 [ErrProfileMismatch]。
func New(profile *Profile, opts ...Option) (*Engine, error) {
	if profile == nil {
		profile = DefaultProfile()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		profile:   profile,
		maxPasses: o.maxPasses,
		maxLen:    o.maxLen,
		logger:    o.logger,
		pre:       o.pre,
		post:      o.post,
	}
	if e.maxPasses <= 0 {
		e.maxPasses = DefaultMaxPasses
	}
	if e.maxLen <= 0 {
		e.maxLen = DefaultMaxValueLen
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.pre == nil {
		e.pre = identity
	}
	if e.post == nil {
		e.post = identity
	}

	if err := e.Add(o.evaluators...); err != nil {
		return nil, err
	}

	return e, nil
}

// Profile 返回引擎的 Profile。
func (e *Engine) Profile() *Profile { return e.profile }

// MaxPasses 返回 pass 上限。
func (e *Engine) MaxPasses() int { return e.maxPasses }

// ═══════════════════════════════════════════════════════════════════════════
// 注册管理
// ═══════════════════════════════════════════════════════════════════════════

// Add 按顺序追加 evaluator。
//
// 任一 evaluator 为 nil 或 Profile 与引擎不一致时返回 error，且不注册任何一个。
func (e *Engine) Add(evaluators ...Evaluator) error {
	for i, ev := range evaluators {
		if ev == nil || reflect.ValueOf(ev).Kind() == reflect.Pointer && reflect.ValueOf(ev).IsNil() {
			return &Error{Kind: KindConfig, Message: fmt.Sprintf("evaluator #%d is nil", i)}
		}
		if !e.profile.Equal(ev.Profile()) {
			return fmt.Errorf("%w: %T has %v, expected %v", ErrProfileMismatch, ev, ev.Profile(), e.profile)
		}
	}
	e.evaluators = append(e.evaluators, evaluators...)

	return nil
}

// Remove 按实例移除 evaluator，未注册的忽略。
func (e *Engine) Remove(evaluators ...Evaluator) {
	e.evaluators = slices.DeleteFunc(e.evaluators, func(registered Evaluator) bool {
		return slices.ContainsFunc(evaluators, func(target Evaluator) bool {
			return sameEvaluator(registered, target)
		})
	})
}

// Clear 移除全部 evaluator。
func (e *Engine) Clear() {
	e.evaluators = nil
}

// Evaluators 返回已注册 evaluator 的快照。
func (e *Engine) Evaluators() []Evaluator {
	return slices.Clone(e.evaluators)
}

func sameEvaluator(a, b Evaluator) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}

// ═══════════════════════════════════════════════════════════════════════════
// 单字符串求值
// ═══════════════════════════════════════════════════════════════════════════

// EvaluateString 展开 text 中的全部结构并返回结果。
//
// 每个 pass 按注册顺序把当前文本交给 evaluator，第一个成功改写的 evaluator
// 结束本 pass（其余 evaluator 不会看到改写后的文本），随后开始下一个 pass。
// 某个 pass 内没有任何改写时到达不动点。
//
// 失败是全有或全无的：
//   - 输入或任一中间结果定界符不平衡：[ErrUnbalanced]
//   - 同一 pass 内任一 evaluator 失败：[*AggregateError]，即使同 pass 有其他成功改写
//   - 回到先前出现过的文本：[ErrCycle]
//   - 超过 pass 上限或改写结果超过长度上限：[ErrRunaway]
func (e *Engine) EvaluateString(text string) (string, error) {
	text = e.pre(text)
	if !e.profile.IsBalanced(text) {
		return "", &Error{Kind: KindBalance, Value: text, Message: "delimiters are not balanced"}
	}

	evaluators := e.Evaluators()
	if len(evaluators) == 0 {
		return e.post(text), nil
	}

	id := "eval-" + uuid.NewString()
	log := e.logger.With("trace", id)
	current := NewElement(id, e.profile.ToEquivalent(text))
	seen := map[string]struct{}{current.Value(): {}}

	for pass := 0; ; pass++ {
		if pass >= e.maxPasses {
			return "", e.record(KindRunaway, current, fmt.Sprintf("no fixed point after %d passes", e.maxPasses), nil)
		}

		var errs []*Error
		handled := false
		for _, ev := range evaluators {
			ctx := &Context{Element: current.Clone()}
			if rec := e.invoke(ev, ctx); rec != nil {
				errs = append(errs, rec)

				continue
			}
			if !ctx.Handled {
				continue
			}

			handled = true
			rewritten := e.pre(e.profile.FromEquivalent(ctx.Element.Value()))
			if len(rewritten) > e.maxLen {
				errs = append(errs, e.tooLong(ev, NewElement(id, rewritten)))

				break
			}
			if !e.profile.IsBalanced(rewritten) {
				errs = append(errs, &Error{
					Kind:    KindBalance,
					Value:   rewritten,
					Message: fmt.Sprintf("delimiters are not balanced after %T", ev),
				})

				break
			}

			next := NewElement(id, e.profile.ToEquivalent(rewritten))
			if _, dup := seen[next.Value()]; dup {
				errs = append(errs, e.record(KindCycle, next, fmt.Sprintf("%T reproduced an earlier value", ev), nil))

				break
			}
			seen[next.Value()] = struct{}{}

			log.Debug("Rewrote construct", "pass", pass, "evaluator", fmt.Sprintf("%T", ev))
			current = next

			break
		}

		if len(errs) > 0 {
			return "", aggregate(errs...)
		}
		if !handled {
			log.Debug("Reached fixed point", "passes", pass+1)

			break
		}
	}

	return e.post(e.profile.FromEquivalent(current.Value())), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 批量求值
// ═══════════════════════════════════════════════════════════════════════════

// EvaluateStrings 把一组命名值作为整体求值，值之间可以互相引用。
//
// key 按字典序处理以保证结果确定。成功时原地写回 pairs；失败时 pairs 保持不变。
// 只有初始值满足 [Profile.IsSimpleExpression] 的条目会被改写，见 [Engine.EvaluateElements]。
func (e *Engine) EvaluateStrings(pairs map[string]string) error {
	keys := slices.Sorted(maps.Keys(pairs))
	elems := make([]*Element, len(keys))
	for i, key := range keys {
		elems[i] = NewElement(key, pairs[key])
	}

	if err := e.EvaluateElements(elems); err != nil {
		return err
	}

	for _, elem := range elems {
		pairs[elem.Identifier()] = elem.Value()
	}

	return nil
}

// EvaluateElements 原地求值一组元素。
//
// 算法：
//  1. 校验全部值的定界符平衡
//  2. 取值为简单结构的元素组成工作列表（null 值与嵌套结构不进入列表）
//  3. 每轮依次对工作列表中的元素尝试一次 evaluator pass：
//     无 evaluator 命中则移出列表；命中则保留，并重新校验全部值的平衡
//  4. 列表为空时结束，超过 pass 上限或改写结果超过长度上限返回 [ErrRunaway]
//
// 改写立即写入元素，后续元素（以及引用这些元素的 evaluator）看到的是最新值。
// 返回 error 时元素可能处于中间状态。
func (e *Engine) EvaluateElements(elems []*Element) error {
	if err := e.checkBalance(elems); err != nil {
		return err
	}

	evaluators := e.Evaluators()
	if len(evaluators) == 0 {
		return nil
	}

	type entry struct {
		elem *Element
		seen map[string]struct{}
	}

	var worklist []*entry
	for _, elem := range elems {
		if elem.IsNull() || !e.profile.IsSimpleExpression(elem.Value()) {
			continue
		}
		worklist = append(worklist, &entry{elem: elem, seen: map[string]struct{}{elem.Value(): {}}})
	}

	for pass := 0; len(worklist) > 0; pass++ {
		if pass >= e.maxPasses {
			ids := make([]string, len(worklist))
			for i, w := range worklist {
				ids[i] = w.elem.Identifier()
			}

			return &Error{
				Kind:       KindRunaway,
				Identifier: strings.Join(ids, ", "),
				Message:    fmt.Sprintf("no fixed point after %d passes", e.maxPasses),
			}
		}

		next := worklist[:0]
		for _, w := range worklist {
			handled, err := e.evaluateSimple(evaluators, w.elem)
			if err != nil {
				return err
			}
			if !handled {
				continue
			}

			if _, dup := w.seen[w.elem.Value()]; dup {
				return aggregate(e.record(KindCycle, w.elem, "entry reproduced an earlier value", nil))
			}
			w.seen[w.elem.Value()] = struct{}{}
			e.logger.Debug("Rewrote entry", "key", w.elem.Identifier(), "pass", pass)

			next = append(next, w)
			if err := e.checkBalance(elems); err != nil {
				return err
			}
		}
		worklist = next
	}

	return nil
}

// evaluateSimple 对单个元素尝试一个 pass：第一个命中的 evaluator 生效。
func (e *Engine) evaluateSimple(evaluators []Evaluator, elem *Element) (bool, error) {
	if !e.profile.IsSimpleExpression(elem.Value()) {
		return false, nil
	}

	var errs []*Error
	handled := false
	for _, ev := range evaluators {
		ctx := &Context{Element: NewElement(elem.Identifier(), e.profile.ToEquivalent(elem.Value()))}
		if rec := e.invoke(ev, ctx); rec != nil {
			errs = append(errs, rec)

			continue
		}
		if !ctx.Handled {
			continue
		}
		if len(ctx.Element.Value()) > e.maxLen {
			errs = append(errs, e.tooLong(ev, NewElement(elem.Identifier(), ctx.Element.Value())))

			break
		}

		if err := elem.SetValue(e.profile.FromEquivalent(ctx.Element.Value())); err != nil {
			errs = append(errs, e.record(KindEvaluate, elem, "cannot store rewritten value", err))
		}
		handled = true

		break
	}

	if len(errs) > 0 {
		return false, aggregate(errs...)
	}

	return handled, nil
}

func (e *Engine) checkBalance(elems []*Element) error {
	var errs []*Error
	for _, elem := range elems {
		if elem.IsNull() || e.profile.IsBalanced(elem.Value()) {
			continue
		}
		errs = append(errs, e.record(KindBalance, elem, "delimiters are not balanced", nil))
	}

	return aggregate(errs...)
}

// ═══════════════════════════════════════════════════════════════════════════
// 调用与错误记录
// ═══════════════════════════════════════════════════════════════════════════

// invoke 调用单个 evaluator，把返回的 error 与 panic 统一转成错误记录。
func (e *Engine) invoke(ev Evaluator, ctx *Context) (rec *Error) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Handled = false
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			rec = e.record(KindEvaluate, ctx.Element, fmt.Sprintf("%T panicked", ev), cause)
		}
	}()

	err := ev.Evaluate(ctx)
	if err == nil {
		return nil
	}
	ctx.Handled = false

	var me *Error
	if errors.As(err, &me) {
		if me.Identifier == "" {
			me.Identifier = ctx.Element.Identifier()
		}

		return me
	}

	return e.record(KindEvaluate, ctx.Element, fmt.Sprintf("%T", ev), err)
}

// tooLong 记录超过长度上限的改写，Value 只保留开头部分。
func (e *Engine) tooLong(ev Evaluator, elem *Element) *Error {
	rec := e.record(KindRunaway, elem, fmt.Sprintf("%T produced %d bytes, limit %d", ev, len(elem.Value()), e.maxLen), nil)
	if len(rec.Value) > 64 {
		rec.Value = rec.Value[:64] + "..."
	}

	return rec
}

// record 创建错误记录，Value 总是原始（非等价）形式。
func (e *Engine) record(kind Kind, elem *Element, msg string, cause error) *Error {
	rec := newElementError(kind, elem, msg, cause)
	rec.Value = e.profile.FromEquivalent(rec.Value)

	return rec
}
