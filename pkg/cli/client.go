package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/query"
	"github.com/NVIDIA/fleet-telemetry/pkg/serializer"
	"github.com/NVIDIA/fleet-telemetry/pkg/server"
)

// apiClient calls the telemd HTTP API.
type apiClient struct {
	base   string
	reader *serializer.HttpReader
}

func newAPIClient(cmd *cli.Command) (*apiClient, error) {
	base := strings.TrimRight(cmd.String("server"), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", base)
	}

	opts := []serializer.HttpReaderOption{
		serializer.WithUserAgent(name + "/" + version),
	}
	if token := cmd.String("token"); token != "" {
		opts = append(opts, serializer.WithBearerToken(token))
	}
	if cmd.Bool("insecure") {
		opts = append(opts, serializer.WithInsecureSkipVerify(true))
	}
	return &apiClient{base: base, reader: serializer.NewHttpReader(opts...)}, nil
}

func devicePath(id string, parts ...string) string {
	return "/v1/devices/" + url.PathEscape(id) + "/" + strings.Join(parts, "/")
}

func (c *apiClient) get(ctx context.Context, path string, params url.Values, v any) error {
	return c.call(ctx, http.MethodGet, path, params, v)
}

func (c *apiClient) post(ctx context.Context, path string, params url.Values, v any) error {
	return c.call(ctx, http.MethodPost, path, params, v)
}

func (c *apiClient) call(ctx context.Context, method, path string, params url.Values, v any) error {
	target := c.base + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	data, err := c.reader.Do(ctx, method, target, nil)
	if err != nil {
		return apiError(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// apiError turns an error envelope into a StructuredError carrying the
// server's code.
func apiError(err error) error {
	var se *serializer.HTTPStatusError
	if !stderrors.As(err, &se) {
		return err
	}
	var body server.ErrorResponse
	if json.Unmarshal(se.Body, &body) != nil || body.Code == "" {
		return fmt.Errorf("server returned %s", se.Status)
	}
	return errors.NewWithContext(errors.ErrorCode(body.Code), body.Message, map[string]any{
		"status":    se.StatusCode,
		"requestId": body.RequestID,
	})
}

func sessionParams(cmd *cli.Command) url.Values {
	return url.Values{query.ParamSession: {fmt.Sprint(cmd.Uint("session"))}}
}
