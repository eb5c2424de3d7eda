// Package supabase talks to the hosted backend over HTTP: the PostgREST data API,
// its RPC endpoint for aggregation functions, and the GoTrue auth API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"retail-erp/internal/core"
	"retail-erp/internal/metrics"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	restPrefix = "/rest/v1/"
	rpcPrefix  = "/rest/v1/rpc/"
	authPrefix = "/auth/v1/"

	maxResponseBytes = 8 << 20

	// singleObject asks PostgREST for one JSON object instead of an array.
	singleObject = "application/vnd.pgrst.object+json"
)

// Config configures a Client.
type Config struct {
	URL     string
	AnonKey string
	// Timeout bounds every request. Zero means 30s.
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Client is safe for concurrent use. It implements core.Backend and core.Authenticator.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("supabase URL is not set")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid supabase URL: %w", err)
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase anon key is not set")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: base,
		anonKey: cfg.AnonKey,
		http:    httpClient,
		metrics: cfg.Metrics,
		log:     log.Named("supabase"),
		now:     time.Now,
	}, nil
}

// As returns a store whose calls are authorized with accessToken.
func (c *Client) As(accessToken string) core.Store {
	return &Store{c: c, token: accessToken}
}

// Ping checks that the auth service answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{op: "ping", method: http.MethodGet, path: authPrefix + "health"}, nil)
}

type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	token   string
	headers map[string]string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, req, out)
	c.metrics.ObserveBackend(req.op, time.Since(start), err)
	if err != nil {
		c.log.Warn("backend call failed", zap.String("op", req.op), zap.Error(err))
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", req.op, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", req.op, err)
	}

	bearer := req.token
	if bearer == "" {
		bearer = c.anonKey
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return core.NewRemoteError(req.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return core.NewRemoteError(req.op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return remoteError(req.op, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.op, err)
	}
	return nil
}

// remoteError extracts the server's own message. PostgREST uses "message";
// GoTrue uses "msg", "error_description" or "error" depending on version.
func remoteError(op string, status int, raw []byte) *core.RemoteError {
	e := &core.RemoteError{Op: op, Status: status}
	if gjson.ValidBytes(raw) {
		for _, r := range gjson.GetManyBytes(raw, "message", "error_description", "msg", "error") {
			if r.Type == gjson.String && r.String() != "" {
				e.Message = r.String()
				break
			}
		}
		if code := gjson.GetBytes(raw, "error_code"); code.Exists() {
			e.Code = code.String()
		} else {
			e.Code = gjson.GetBytes(raw, "code").String()
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// firstObject returns raw itself when it is an object, or its first element when
// it is an array. RPC functions may return either shape.
func firstObject(raw []byte) ([]byte, bool) {
	res := gjson.ParseBytes(raw)
	switch {
	case res.IsObject():
		return raw, true
	case res.IsArray():
		first := res.Get("0")
		if !first.Exists() {
			return nil, false
		}
		return []byte(first.Raw), true
	}
	return nil, false
}

// asArray wraps a lone object into a one-element array.
func asArray(raw []byte) []byte {
	res := gjson.ParseBytes(raw)
	if res.IsObject() {
		out := make([]byte, 0, len(raw)+2)
		out = append(out, '[')
		out = append(out, raw...)
		return append(out, ']')
	}
	if !res.IsArray() {
		return []byte("[]")
	}
	return raw
}
