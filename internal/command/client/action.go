package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command"
	"github.com/lwmacct/251207-go-pkg-macroexp/internal/command/server"
	"github.com/lwmacct/251207-go-pkg-macroexp/internal/config"
)

// retryDelay 是两次重试之间的基础等待时间，第 n 次重试等待 n 倍。
var retryDelay = 200 * time.Millisecond

// apiClient 是带重试的 HTTP 客户端。
type apiClient struct {
	base    string
	retries int
	http    *http.Client
}

func newAPIClient(cfg config.ClientConfig) *apiClient {
	return &apiClient{
		base:    strings.TrimRight(cfg.URL, "/"),
		retries: max(cfg.Retries, 0),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// do 发送请求并返回状态码与响应体。网络错误与 5xx 响应会重试。
func (c *apiClient) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			slog.Debug("Retrying request", "path", path, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err

			continue
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err

			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("server returned %s", resp.Status)

			continue
		}

		return resp.StatusCode, data, nil
	}

	return 0, nil, fmt.Errorf("request %s %s failed after %d attempts: %w", method, path, c.retries+1, lastErr)
}

func load(cmd *cli.Command) (*apiClient, error) {
	cfg, err := command.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return newAPIClient(cfg.Client), nil
}

func healthAction(ctx context.Context, cmd *cli.Command) error {
	c, err := load(cmd)
	if err != nil {
		return err
	}

	status, body, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", status)
	}
	_, _ = fmt.Fprint(cmd.Root().Writer, string(body))

	return nil
}

func evalAction(ctx context.Context, cmd *cli.Command) error {
	texts := cmd.Args().Slice()
	if len(texts) == 0 {
		return errors.New("missing text")
	}

	c, err := load(cmd)
	if err != nil {
		return err
	}

	for _, text := range texts {
		payload, err := json.Marshal(server.EvalRequest{Text: text})
		if err != nil {
			return err
		}
		_, body, err := c.do(ctx, http.MethodPost, "/eval", payload)
		if err != nil {
			return err
		}

		var resp server.EvalResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		_, _ = fmt.Fprintln(cmd.Root().Writer, resp.Result)
	}

	return nil
}

func getAction(ctx context.Context, cmd *cli.Command) error {
	key := cmd.Args().First()
	if key == "" {
		return errors.New("missing key")
	}

	c, err := load(cmd)
	if err != nil {
		return err
	}

	status, body, err := c.do(ctx, http.MethodGet, "/settings/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		var resp server.EvalResponse
		_ = json.Unmarshal(body, &resp)

		return fmt.Errorf("get %q: status %d: %s", key, status, resp.Error)
	}

	var resp server.SettingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Value == nil {
		_, _ = fmt.Fprintln(cmd.Root().Writer, "null")

		return nil
	}
	_, _ = fmt.Fprintln(cmd.Root().Writer, *resp.Value)

	return nil
}
