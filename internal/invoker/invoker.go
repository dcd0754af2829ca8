package invoker

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

	"github.com/jjudge-oj/grader/config"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxResponseBytes      = 16 << 20
)

// Request is a single execution of source code on the runtime.
type Request struct {
	// EntryPoint selects the runtime endpoint for the language.
	EntryPoint string
	Code       string
	Stdin      string
}

// Response is the raw result reported by the runtime.
type Response struct {
	Output string `json:"output"`
	// Error holds compile or runtime diagnostics; empty on success.
	Error    string `json:"error"`
	ExitCode int    `json:"exit_code"`
	// MemoryKB is zero when the runtime does not measure memory.
	MemoryKB int64 `json:"memory_kb"`
}

// Failed reports whether the runtime signalled a compile or runtime failure.
func (r Response) Failed() bool {
	return strings.TrimSpace(r.Error) != "" || r.ExitCode != 0
}

// Invoker runs untrusted code in an isolated environment. Implementations
// must bound their own execution; a returned error is an infrastructure fault,
// never a program failure.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// HTTPInvoker calls a remote runtime at POST {baseURL}/invoke/{entryPoint}.
type HTTPInvoker struct {
	baseURL *url.URL
	client  *http.Client
}

type invokePayload struct {
	Code  string `json:"code"`
	Stdin string `json:"stdin"`
}

// NewHTTPInvoker constructs an invoker from config.
func NewHTTPInvoker(cfg config.RuntimeConfig) (*HTTPInvoker, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("runtime url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid runtime url: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &HTTPInvoker{
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Invoke implements Invoker.
func (h *HTTPInvoker) Invoke(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.EntryPoint) == "" {
		return Response{}, errors.New("runtime entry point is required")
	}

	body, err := json.Marshal(invokePayload{Code: req.Code, Stdin: req.Stdin})
	if err != nil {
		return Response{}, err
	}

	endpoint := h.baseURL.JoinPath("invoke", req.EntryPoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("runtime request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read runtime response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("runtime status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return Response{}, fmt.Errorf("decode runtime response: %w", err)
	}
	return out, nil
}
