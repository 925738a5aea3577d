// Package client 提供 HTTP 客户端命令。
package client

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command"
)

// Command 客户端命令
var Command = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "HTTP 客户端工具",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "client-url",
				Aliases: []string{"s"},
				Value:   command.Defaults.Client.URL,
				Usage:   "服务器地址",
			},
			&cli.DurationFlag{
				Name:  "client-timeout",
				Value: command.Defaults.Client.Timeout,
				Usage: "请求超时时间",
			},
			&cli.IntFlag{
				Name:  "client-retries",
				Value: command.Defaults.Client.Retries,
				Usage: "重试次数",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "检查服务器健康状态",
				Action: healthAction,
			},
			{
				Name:      "eval",
				Usage:     "在服务端展开文本中的宏",
				ArgsUsage: "<text...>",
				Action:    evalAction,
			},
			{
				Name:      "get",
				Usage:     "读取服务端的单个设置",
				ArgsUsage: "<key>",
				Action:    getAction,
			},
		},
	}
}
