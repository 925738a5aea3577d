package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
	yamlv3 "go.yaml.in/yaml/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command"
)

func evalAction(_ context.Context, cmd *cli.Command) error {
	_, s, err := command.LoadSettings(cmd)
	if err != nil {
		return err
	}

	texts := cmd.Args().Slice()
	if len(texts) == 0 {
		b, err := io.ReadAll(cmd.Root().Reader)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		texts = []string{strings.TrimRight(string(b), "\r\n")}
	}

	w := cmd.Root().Writer
	for _, text := range texts {
		out, err := s.Evaluate(text)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, out)
	}

	return nil
}

func resolveAction(_ context.Context, cmd *cli.Command) error {
	_, s, err := command.LoadSettings(cmd)
	if err != nil {
		return err
	}

	resolved, err := s.Resolve()
	if err != nil {
		return err
	}

	var out []byte
	switch format := cmd.String("format"); format {
	case "json":
		out, err = json.MarshalIndent(resolved, "", "  ")
		out = append(out, '\n')
	case "yaml", "":
		out, err = yamlv3.Marshal(resolved)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return err
	}

	_, err = cmd.Root().Writer.Write(out)

	return err
}

func getAction(_ context.Context, cmd *cli.Command) error {
	key := cmd.Args().First()
	if key == "" {
		return errors.New("missing key")
	}

	_, s, err := command.LoadSettings(cmd)
	if err != nil {
		return err
	}

	v, err := s.Get(key)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.Root().Writer, v)

	return nil
}
