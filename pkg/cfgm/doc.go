// Package cfgm 提供通用的配置加载功能。
//
// 支持 YAML/JSON/TOML，按默认值、配置文件、环境变量与 CLI flags 逐层覆盖。
// 配置 key 使用 json tag 统一描述，三种格式共享同一套 key。
//
// # 加载优先级 (从低到高)
//
//  1. 默认值 - 通过 defaultConfig 参数传入
//  2. 配置文件 - 通过 [WithConfigPaths] 或 [WithAppName] 设置
//  3. 环境变量(前缀) - 通过 [WithEnvPrefix] 自动生成绑定
//  4. CLI flags - 通过 [WithCommand] 选项设置，最高优先级
//
// # 快速开始
//
//	type Config struct {
//	    Name    string        `json:"name"`
//	    Timeout time.Duration `json:"timeout"`
//	}
//
//	cfg, err := cfgm.LoadCmd(cmd, DefaultConfig(), "myapp",
//	    cfgm.WithEnvPrefix("MYAPP_"),
//	)
//
// [WithAppName] 生成的默认搜索路径见 [DefaultPaths]；文件格式按扩展名选择（见 [FormatOf]）。
//
// # 宏展开
//
// 默认值与配置文件中的字符串值在合并后经过 macroexp 引擎展开，默认注册 Env evaluator：
//
//	# config.yaml
//	api_key: "{%Env::OPENAI_API_KEY%}"
//	model: "{%Env::LLM_MODEL::gpt-4%}"
//	base_url: "{%Env::PROD_URL::{%Env::DEV_URL::http://localhost:8080%}%}"
//
// 定界符不平衡的字符串原样保留。可通过 [WithExpansionProfile] 更换定界符、
// [WithExpansionEvaluators] 追加 evaluator，或用 [WithoutExpansion] 关闭展开。
//
// # CLI Flag 映射
//
// 仅替换 "." 为 "-"（见 [FlagName]）：
//   - server.addr → --server-addr
//   - engine.max-passes → --engine-max-passes
//
// # 解析辅助
//
// [ParseFile]、[Flatten] 与 [Decode] 也可单独使用，例如把 TOML 文件展平成 "a.b" 形式的 key。
package cfgm
