package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 30 * time.Second

// Task states reported by the sandbox.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrTaskFailed is returned by Wait when the sandbox reports a failed task.
var ErrTaskFailed = errors.New("sandbox task failed")

// Status is the body of the status endpoint.
type Status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// IsTerminal reports whether the task finished (successfully or not).
func (s Status) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// HTTPError reports a non-2xx response from the sandbox.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sandbox %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each HTTP request; a shorter ctx deadline wins.
	Timeout time.Duration

	// PollInterval is the default interval used by Wait.
	PollInterval time.Duration

	// Headers are added to every request (e.g. an API token).
	Headers map[string]string

	Logger logging.Logger
}

// Client talks to the sandbox REST API.
type Client struct {
	baseURL string
	client  *fasthttp.Client
	opts    Options
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeout:      defaultTimeout,
		PollInterval: 500 * time.Millisecond,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			MaxIdleConnDuration:    90 * time.Second,
			ReadTimeout:            opts.Timeout,
			WriteTimeout:           opts.Timeout,
			DisablePathNormalizing: true,
		},
		opts: opts,
	}
}

// BaseURL returns the sandbox base URL without trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SubmitTask registers a task under a fresh id and returns the id.
func (c *Client) SubmitTask(ctx context.Context, task map[string]any) (string, error) {
	id := util.NewID()

	body, err := sonic.Marshal(map[string]any{"id": id, "task": task})
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}

	if _, err := c.do(ctx, fasthttp.MethodPost, "/tasks", body); err != nil {
		return "", err
	}

	c.opts.Logger.Debug("Sandbox task submitted", "task_id", id)

	return id, nil
}

// PollStatus returns the current status of task id.
func (c *Client) PollStatus(ctx context.Context, id string) (Status, error) {
	raw, err := c.do(ctx, fasthttp.MethodGet, "/tasks/"+id+"/status", nil)
	if err != nil {
		return Status{}, err
	}

	var st Status
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}

	return st, nil
}

// GetResult fetches the result document of task id.
func (c *Client) GetResult(ctx context.Context, id string) (map[string]any, error) {
	raw, err := c.do(ctx, fasthttp.MethodGet, "/tasks/"+id+"/result", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	return result, nil
}

// Wait polls task id every interval (Options.PollInterval if zero) until it
// completes, fails or ctx is done, then returns its result.
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration) (map[string]any, error) {
	if interval <= 0 {
		interval = c.opts.PollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := c.PollStatus(ctx, id)
		if err != nil {
			return nil, err
		}

		switch st.Status {
		case StatusCompleted:
			return c.GetResult(ctx, id)
		case StatusFailed:
			if st.Error != "" {
				return nil, fmt.Errorf("%w: %s", ErrTaskFailed, st.Error)
			}
			return nil, ErrTaskFailed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Run submits task and waits for its result.
func (c *Client) Run(ctx context.Context, task map[string]any) (string, map[string]any, error) {
	id, err := c.SubmitTask(ctx, task)
	if err != nil {
		return "", nil, err
	}

	result, err := c.Wait(ctx, id, 0)

	return id, result, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	url := c.baseURL + path
	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("sandbox %s %s: %w", method, url, err)
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &HTTPError{Method: method, URL: url, StatusCode: code, Body: string(resp.Body())}
	}

	// resp is released on return
	return append([]byte(nil), resp.Body()...), nil
}
