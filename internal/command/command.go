// Package command 提供各子命令共享的配置加载与设置构建。
package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/config"
	"github.com/lwmacct/251207-go-pkg-macroexp/internal/settings"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/cfgm"
)

// Defaults 为默认配置的单一来源。
var Defaults = config.DefaultConfig()

// SettingsFlags 返回定界符、引擎、设置来源与日志相关的 flags。
//
// 每次调用返回新实例，可挂到多个子命令上。
func SettingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "delimiters-open",
			Value: Defaults.Delimiters.Open,
			Usage: "起始定界符",
		},
		&cli.StringFlag{
			Name:  "delimiters-close",
			Value: Defaults.Delimiters.Close,
			Usage: "结束定界符",
		},
		&cli.StringFlag{
			Name:  "delimiters-separator",
			Value: Defaults.Delimiters.Separator,
			Usage: "参数分隔符",
		},
		&cli.IntFlag{
			Name:  "engine-max-passes",
			Value: Defaults.Engine.MaxPasses,
			Usage: "pass 上限",
		},
		&cli.StringFlag{
			Name:    "source-file",
			Aliases: []string{"f"},
			Value:   Defaults.Source.File,
			Usage:   "YAML/JSON/TOML 设置文件",
		},
		&cli.StringFlag{
			Name:  "source-sqlite",
			Usage: "SQLite 数据库路径（优先于设置文件）",
		},
		&cli.StringFlag{
			Name:  "source-table",
			Value: Defaults.Source.Table,
			Usage: "SQLite 表名",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: Defaults.Log.Level,
			Usage: "日志级别 debug/info/warn/error",
		},
	}
}

// LoadConfig 加载配置：默认值 → 配置文件 → 环境变量 → CLI flags，并按配置设置默认 logger。
func LoadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := cfgm.LoadCmd(cmd, config.DefaultConfig(), config.AppName,
		cfgm.WithEnvPrefix(config.EnvPrefix),
	)
	if err != nil {
		return nil, err
	}

	lvl, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	return cfg, nil
}

// LoadSettings 加载配置并打开设置来源。
func LoadSettings(cmd *cli.Command) (*config.Config, *settings.Settings, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	s, err := settings.FromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	return cfg, s, nil
}
