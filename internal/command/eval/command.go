// Package eval 提供本地求值命令：eval、resolve、get。
package eval

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command"
)

// Command 展开参数（或标准输入）中的宏。
var Command = newEvalCommand()

// ResolveCommand 输出全部设置的求值结果。
var ResolveCommand = newResolveCommand()

// GetCommand 输出单个设置的求值结果。
var GetCommand = newGetCommand()

func newEvalCommand() *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "展开文本中的宏",
		ArgsUsage: "[text...]",
		Flags:     command.SettingsFlags(),
		Action:    evalAction,
	}
}

func newResolveCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "求值并输出全部设置",
		Flags: append(command.SettingsFlags(),
			&cli.StringFlag{
				Name:  "format",
				Value: "yaml",
				Usage: "输出格式 yaml/json",
			},
		),
		Action: resolveAction,
	}
}

func newGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "求值并输出单个设置",
		ArgsUsage: "<key>",
		Flags:     command.SettingsFlags(),
		Action:    getAction,
	}
}
