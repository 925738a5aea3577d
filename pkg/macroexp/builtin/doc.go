// Package builtin 提供内置的 evaluator。
//
//   - [IntegerDivide]: {%Integer-divide::7::2%} → 3
//   - [KeyLookup]: {%name%} → name 对应的值，构造时自解析互相引用
//   - [Env]: {%Env::NAME::default%} → 环境变量值
//
// 所有 evaluator 都基于 [macroexp.PatternEvaluator]，并以构造时传入的 Profile 拼装正则，
// 注册到引擎时 Profile 必须一致。
package builtin
