package cfgm

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// DefaultPaths 返回默认配置文件的搜索顺序。
//
// appName 可选，提供后会追加应用专属路径。
// 返回顺序即查找顺序，先命中的文件生效。
//
// 优先级 (从高到低)：
//  1. ./.appname.yaml - 当前目录应用配置
//  2. ~/.appname.yaml - 用户主目录配置
//  3. /etc/appname/config.yaml - 系统级配置
//  4. config.yaml - 当前目录通用配置
//  5. config/config.yaml - 子目录通用配置
func DefaultPaths(appName ...string) []string {
	var paths []string

	if len(appName) > 0 && appName[0] != "" {
		name := appName[0]
		paths = append(paths, "."+name+".yaml")
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, "."+name+".yaml"))
		}
		paths = append(paths, "/etc/"+name+"/config.yaml")
	}

	return append(paths, "config.yaml", "config/config.yaml")
}

// Load 读取配置并按优先级合并。
//
// 优先级 (从低到高)：
//  1. 默认值 - defaultConfig
//  2. 配置文件 - [WithConfigPaths] / [WithAppName]
//  3. 环境变量(前缀) - [WithEnvPrefix]
//  4. CLI flags - [WithCommand]
//
// 默认值与配置文件合并后，其中的字符串做一次宏展开（见 [WithoutExpansion]），
// 环境变量与 CLI flags 的值原样使用。
func Load[T any](defaultConfig T, opts ...Option) (*T, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	paths := o.configPaths
	if len(paths) == 0 {
		paths = DefaultPaths(o.appName)
	}

	configMap := structToMap(defaultConfig)

	var expander *macroexp.Engine
	if !o.noExpansion {
		eng, err := newExpander(o)
		if err != nil {
			return nil, fmt.Errorf("create expander: %w", err)
		}
		expander = eng
	}

	// 2️⃣ 配置文件 (按顺序搜索，找到第一个即停止)
	loaded := false
	for _, path := range paths {
		if o.baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(o.baseDir, path)
		}

		fileMap, err := ParseFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		mergeMaps(configMap, fileMap)

		slog.Debug("Loaded config from file", "path", path, "expansion", expander != nil)
		loaded = true

		break
	}
	if !loaded {
		slog.Debug("No config file found, using defaults")
	}

	if expander != nil {
		if err := expandStrings(expander, configMap, ""); err != nil {
			return nil, err
		}
	}

	// 3️⃣ 环境变量
	if o.envPrefix != "" {
		for envKey, path := range envBindings(o.envPrefix, reflect.TypeOf(defaultConfig)) {
			if val := os.Getenv(envKey); val != "" {
				setByPath(configMap, path, val)
				slog.Debug("Loaded env binding", "env", envKey, "path", path)
			}
		}
	}

	// 4️⃣ CLI flags (仅当用户明确指定时)
	if o.cmd != nil {
		applyCLIFlags(o.cmd, configMap, reflect.TypeOf(defaultConfig))
	}

	var cfg T
	if err := Decode(configMap, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadCmd 是 [Load] 的便捷版本，适用于 CLI 场景。
//
// 它会注入 [WithCommand]，appName 非空时额外注入 [WithAppName]。
//
//	cfg, err := cfgm.LoadCmd(cmd, config.DefaultConfig(), "macroexp",
//	    cfgm.WithEnvPrefix("MACROEXP_"),
//	)
func LoadCmd[T any](cmd *cli.Command, defaultConfig T, appName string, opts ...Option) (*T, error) {
	base := []Option{WithCommand(cmd)}
	if appName != "" {
		base = append(base, WithAppName(appName))
	}

	return Load(defaultConfig, append(base, opts...)...)
}

// MustLoad 调用 [Load] 并在失败时 panic，适合启动阶段。
func MustLoad[T any](defaultConfig T, opts ...Option) *T {
	cfg, err := Load(defaultConfig, opts...)
	if err != nil {
		panic(fmt.Sprintf("cfgm: failed to load config: %v", err))
	}

	return cfg
}

// MustLoadCmd 调用 [LoadCmd] 并在失败时 panic。
func MustLoadCmd[T any](cmd *cli.Command, defaultConfig T, appName string, opts ...Option) *T {
	cfg, err := LoadCmd(cmd, defaultConfig, appName, opts...)
	if err != nil {
		panic(fmt.Sprintf("cfgm: failed to load config: %v", err))
	}

	return cfg
}

// FlagName 返回配置 key 对应的 CLI flag 名称，仅替换 "." 为 "-"。
//
//   - server.addr → --server-addr
//   - engine.max-passes → --engine-max-passes
func FlagName(key string) string {
	return strings.ReplaceAll(key, ".", "-")
}

// envBindings 根据配置结构体生成 环境变量名 → 配置 key 的映射。
func envBindings(prefix string, typ reflect.Type) map[string]string {
	bindings := make(map[string]string)
	replacer := strings.NewReplacer(".", "_", "-", "_")
	walkLeaves(typ, "", func(path string, _ reflect.Type) {
		bindings[prefix+strings.ToUpper(replacer.Replace(path))] = path
	})

	return bindings
}

// applyCLIFlags 将用户显式设置的 CLI flags 写入配置 map。
func applyCLIFlags(cmd *cli.Command, config map[string]any, typ reflect.Type) {
	walkLeaves(typ, "", func(path string, fieldType reflect.Type) {
		name := FlagName(path)
		if !cmd.IsSet(name) {
			return
		}
		if val, ok := flagValue(cmd, name, fieldType); ok {
			setByPath(config, path, val)
		}
	})
}

// flagValue 按字段类型读取 CLI 值，不支持的类型返回 ok=false。
func flagValue(cmd *cli.Command, name string, fieldType reflect.Type) (any, bool) {
	switch fieldType {
	case durationType:
		return cmd.Duration(name), true
	case timeType:
		return cmd.Timestamp(name), true
	}

	switch fieldType.Kind() {
	case reflect.String:
		return cmd.String(name), true
	case reflect.Bool:
		return cmd.Bool(name), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return cmd.Int(name), true
	case reflect.Int64:
		return cmd.Int64(name), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return cmd.Uint(name), true
	case reflect.Uint64:
		return cmd.Uint64(name), true
	case reflect.Float32, reflect.Float64:
		return cmd.Float64(name), true
	case reflect.Slice:
		switch fieldType.Elem().Kind() {
		case reflect.String:
			return cmd.StringSlice(name), true
		case reflect.Int:
			return cmd.IntSlice(name), true
		case reflect.Int64:
			return cmd.Int64Slice(name), true
		case reflect.Float64:
			return cmd.Float64Slice(name), true
		}
	case reflect.Map:
		if fieldType.Key().Kind() == reflect.String && fieldType.Elem().Kind() == reflect.String {
			return cmd.StringMap(name), true
		}
	}

	return nil, false
}
