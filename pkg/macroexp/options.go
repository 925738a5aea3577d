package macroexp

import "log/slog"

// DefaultMaxPasses 是默认的 pass 上限。
//
// 正常输入所需的 pass 数等于结构嵌套深度加一，达到上限即视为失控。
const DefaultMaxPasses = 1000

// DefaultMaxValueLen 是改写结果的默认字节上限（1 MiB）。
//
// 每轮只增长线性长度的输入在 pass 上限内即可结束；成倍增长的输入由该上限截停。
const DefaultMaxValueLen = 1 << 20

// options 引擎选项。
type options struct {
	evaluators []Evaluator
	maxPasses  int
	maxLen     int
	logger     *slog.Logger
	pre        func(string) string
	post       func(string) string
}

// Option 引擎选项函数。
type Option func(*options)

// WithEvaluators 在创建时注册 evaluator，等价于随后调用 [Engine.Add]。
func WithEvaluators(evaluators ...Evaluator) Option {
	return func(o *options) {
		o.evaluators = append(o.evaluators, evaluators...)
	}
}

// WithMaxPasses 设置 pass 上限，n <= 0 时使用 [DefaultMaxPasses]。
func WithMaxPasses(n int) Option {
	return func(o *options) {
		o.maxPasses = n
	}
}

// WithMaxValueLen 设置改写结果的字节上限，n <= 0 时使用 [DefaultMaxValueLen]。
//
// 任一改写结果超过上限即以 [ErrRunaway] 结束求值。
func WithMaxValueLen(n int) Option {
	return func(o *options) {
		o.maxLen = n
	}
}

// WithLogger 设置调试日志输出，默认 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPreEvaluate 设置单字符串求值的前置钩子。
//
// 钩子在平衡校验之前执行，且每次成功改写后再次执行。
// 例如把 "#{" 替换为 "${" 以兼容另一种书写方式。
// 批量求值（[Engine.EvaluateStrings]）不使用该钩子。
func WithPreEvaluate(fn func(string) string) Option {
	return func(o *options) {
		o.pre = fn
	}
}

// WithPostEvaluate 设置单字符串求值的后置钩子，在返回结果前执行一次。
func WithPostEvaluate(fn func(string) string) Option {
	return func(o *options) {
		o.post = fn
	}
}

func identity(s string) string { return s }
