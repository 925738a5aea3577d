package cfgm

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// options 配置加载选项。
type options struct {
	appName     string // 应用名称，用于生成默认配置路径
	cmd         *cli.Command
	configPaths []string
	baseDir     string // 相对路径的解析基准，空表示当前工作目录
	envPrefix   string
	noExpansion bool // 是否禁用字符串展开（默认启用）
	profile     *macroexp.Profile
	evaluators  []macroexp.Evaluator
}

// Option 配置加载选项函数。
type Option func(*options)

// WithCommand 绑定 CLI 命令，读取显式设置的 flags 以覆盖配置（最高优先级）。
func WithCommand(cmd *cli.Command) Option {
	return func(o *options) {
		o.cmd = cmd
	}
}

// WithAppName 设置应用名称，用于生成默认搜索路径（见 [DefaultPaths]）。
func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = name
	}
}

// WithConfigPaths 设置配置文件搜索路径。
//
// 按顺序查找，命中首个文件即停止；相对路径会基于 [WithBaseDir] 解析。
func WithConfigPaths(paths ...string) Option {
	return func(o *options) {
		o.configPaths = paths
	}
}

// WithBaseDir 设置相对配置路径的解析基准。绝对路径不受影响。
func WithBaseDir(path string) Option {
	return func(o *options) {
		o.baseDir = path
	}
}

// WithEnvPrefix 启用环境变量前缀解析。
//
// 环境变量命名规则：
//   - 前缀 + 大写的配置 key
//   - 点号 (.) 和连字符 (-) 转为下划线 (_)
//
// 示例 (前缀为 "MACROEXP_")：
//   - MACROEXP_ENGINE_MAX_PASSES → engine.max-passes
//   - MACROEXP_SERVER_ADDR → server.addr
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithoutExpansion 禁用配置字符串的宏展开，保留原始 {%...%} 文本。
func WithoutExpansion() Option {
	return func(o *options) {
		o.noExpansion = true
	}
}

// WithExpansionProfile 设置展开使用的定界符，默认 {% %} ::。
func WithExpansionProfile(p *macroexp.Profile) Option {
	return func(o *options) {
		o.profile = p
	}
}

// WithExpansionEvaluators 在 Env 之后追加展开用的 evaluator，
// Profile 必须与 [WithExpansionProfile] 一致。
func WithExpansionEvaluators(evaluators ...macroexp.Evaluator) Option {
	return func(o *options) {
		o.evaluators = append(o.evaluators, evaluators...)
	}
}
