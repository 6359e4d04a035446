package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/payport/pkg/config"
	"github.com/fatflowers/payport/pkg/logctx"
	"github.com/fatflowers/payport/pkg/metrics"
)

const (
	HeaderAccessKey = "X-NN-Access-Key"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// Caller sends a payload to a gateway endpoint and returns the raw response body.
type Caller interface {
	Call(ctx context.Context, endpoint Endpoint, payload any) (string, error)
}

// Client posts signed JSON requests to the payment API.
type Client struct {
	baseURL   string
	accessKey string
	http      *http.Client
	metrics   *metrics.Recorder
	log       *zap.SugaredLogger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(r *metrics.Recorder) ClientOption {
	return func(c *Client) { c.metrics = r }
}

func NewClient(cfg config.GatewayConfig, log *zap.SugaredLogger, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := &Client{
		baseURL:   cfg.BaseURL,
		accessKey: cfg.AccessKey,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call POSTs payload to endpoint. The body is returned unparsed so that Normalize
// sees the original text. Non-2xx responses that carry a body are returned as-is;
// the gateway reports business failures inside the body.
func (c *Client) Call(ctx context.Context, endpoint Endpoint, payload any) (raw string, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "transport_error"
		}
		c.metrics.ObserveGatewayCall(string(endpoint), outcome, start)
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &TransportError{Endpoint: endpoint, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL(c.baseURL), bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Endpoint: endpoint, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Charset", "UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAccessKey, base64.StdEncoding.EncodeToString([]byte(c.accessKey)))

	lg := logctx.FromCtx(ctx, c.log)
	resp, err := c.http.Do(req)
	if err != nil {
		lg.Warnw("gateway call failed", "endpoint", endpoint, "err", err)
		msg := "request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		return "", &TransportError{Endpoint: endpoint, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(bytes.TrimSpace(data)) == 0 {
			lg.Warnw("gateway returned empty error response", "endpoint", endpoint, "status", resp.StatusCode)
			return "", &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		lg.Infow("gateway returned non-2xx with body", "endpoint", endpoint, "status", resp.StatusCode)
	}
	return string(data), nil
}

// Do calls endpoint and normalizes the response.
func Do(ctx context.Context, c Caller, endpoint Endpoint, payload any) (*Response, error) {
	raw, err := c.Call(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	resp, err := Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	return resp, nil
}
