// Package config 提供应用配置管理。
//
// 配置加载优先级 (从低到高)：
//  1. 默认值 - DefaultConfig() 函数中定义
//  2. 配置文件 - 通过 WithAppName / WithConfigPaths 选项设置
//  3. 环境变量 - 通过 WithEnvPrefix 选项启用
//  4. CLI flags - 通过 WithCommand 选项设置
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// AppName 用于默认配置路径（.macroexp.yaml 等）。
const AppName = "macroexp"

// EnvPrefix 环境变量前缀，如 MACROEXP_SERVER_ADDR。
const EnvPrefix = "MACROEXP_"

// Config 应用配置。
type Config struct {
	Delimiters DelimiterConfig `json:"delimiters" desc:"定界符"`
	Engine     EngineConfig    `json:"engine" desc:"求值引擎"`
	Source     SourceConfig    `json:"source" desc:"设置来源"`
	Log        LogConfig       `json:"log" desc:"日志"`
	Server     ServerConfig    `json:"server" desc:"服务端配置"`
	Client     ClientConfig    `json:"client" desc:"客户端配置"`
}

// DelimiterConfig 定界符配置。
type DelimiterConfig struct {
	Open      string `json:"open" desc:"起始定界符"`
	Close     string `json:"close" desc:"结束定界符"`
	Separator string `json:"separator" desc:"参数分隔符"`
}

// Profile 构造定界符 Profile。
func (d DelimiterConfig) Profile() (*macroexp.Profile, error) {
	return macroexp.NewProfile(d.Open, d.Close, d.Separator)
}

// EngineConfig 引擎配置。
//
//nolint:tagliatelle
type EngineConfig struct {
	MaxPasses int `json:"max-passes" desc:"pass 上限，超过即视为失控"`
}

// SourceConfig 设置来源。File 与 SQLite 二选一，SQLite 优先。
type SourceConfig struct {
	File   string `json:"file" desc:"YAML/JSON/TOML 设置文件"`
	SQLite string `json:"sqlite" desc:"SQLite 数据库路径"`
	Table  string `json:"table" desc:"SQLite 表名"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level string `json:"level" desc:"日志级别 debug/info/warn/error"`
}

// SlogLevel 解析日志级别，未知值返回 error。
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", l.Level, err)
	}

	return lvl, nil
}

// ServerConfig 服务端配置。
type ServerConfig struct {
	Addr     string        `json:"addr" desc:"服务器监听地址"`
	Timeout  time.Duration `json:"timeout" desc:"HTTP 读写超时"`
	Idletime time.Duration `json:"idletime" desc:"HTTP 空闲超时"`
}

// ClientConfig 客户端配置。
type ClientConfig struct {
	URL     string        `json:"url" desc:"服务器地址"`
	Timeout time.Duration `json:"timeout" desc:"请求超时时间"`
	Retries int           `json:"retries" desc:"重试次数"`
}

// DefaultConfig 返回默认配置。
// 注意：internal/command/command.go 中的 Defaults 变量引用此函数以实现单一配置来源。
func DefaultConfig() Config {
	def := macroexp.DefaultProfile()

	return Config{
		Delimiters: DelimiterConfig{
			Open:      def.Open(),
			Close:     def.Close(),
			Separator: def.Separator(),
		},
		Engine: EngineConfig{
			MaxPasses: macroexp.DefaultMaxPasses,
		},
		Source: SourceConfig{
			File:  "settings.yaml",
			Table: "settings",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:     ":40117",
			Timeout:  15 * time.Second,
			Idletime: 60 * time.Second,
		},
		Client: ClientConfig{
			URL:     "{%Env::API_BASE_URL::http://localhost:40117%}",
			Timeout: 30 * time.Second,
			Retries: 3,
		},
	}
}
