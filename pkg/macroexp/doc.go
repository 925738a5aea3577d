// Package macroexp 提供可插拔的文本宏展开引擎。
//
// 文本中以开/闭定界符包围、以分隔符分隔参数的片段称为结构（construct），
// 默认语法为 {%identifier::arg1::arg2%}。[Engine] 反复把文本交给已注册的
// [Evaluator]，每次接受第一个成功的改写，直到没有结构可再改写（不动点）
// 或达到 pass 上限。典型用途是让一个配置值引用另一个配置值，或在读取时
// 计算派生值（如整除）。
//
// # 语义说明
//
//  1. 定界符与分隔符可自定义（见 [NewProfile]），多字符 token 在内部折叠为单字符
//  2. 每个 pass 只接受一个改写，evaluator 的注册顺序决定优先级
//  3. 同一 pass 内任一 evaluator 失败即整体失败，错误汇总为 [*AggregateError]
//  4. 只保证有界迭代：超过 pass 上限返回 [ErrRunaway]，重复出现的中间值返回 [ErrCycle]
//  5. 无法识别的结构保持原样
//
// # 快速开始
//
//	eng, err := macroexp.New(nil, macroexp.WithEvaluators(
//	    builtin.NewIntegerDivide(nil),
//	))
//	out, err := eng.EvaluateString("{%Integer-divide::7::2%}") // "3"
//
// 批量求值，值之间可以互相引用：
//
//	pairs := map[string]string{"A": "5", "B": "{%A%}"}
//	lookup, err := builtin.NewKeyLookup(nil, pairs)
//
// # 编写 evaluator
//
// 实现 [Evaluator] 接口即可；多数情况下用 [PatternEvaluator] 组合一个正则与替换函数，
// 正则使用 [Profile.OpenPattern]、[Profile.SeparatorPattern]、[Profile.ClosePattern]
// 与 [Profile.BodyClass] 拼装，这样无论定界符有几个字符都能使用简单的否定字符类。
//
// # 并发
//
// [Profile] 不可变，可任意共享。[Engine] 不加锁，求值期间不得并发修改其 evaluator 列表，
// 传给 [Engine.EvaluateStrings] 的 map 在调用期间也不得被并发读取。
package macroexp
