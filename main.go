package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command/client"
	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command/eval"
	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command/server"
	"github.com/lwmacct/251207-go-pkg-macroexp/internal/config"
)

// version 在构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

func main() {
	app := &cli.Command{
		Name:    config.AppName,
		Usage:   "宏展开工具",
		Version: version,
		Commands: []*cli.Command{
			eval.Command,
			eval.ResolveCommand,
			eval.GetCommand,
			server.Command,
			client.Command,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
