package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSandbox reports "running" for the first pollsBeforeDone status calls.
type fakeSandbox struct {
	mu              sync.Mutex
	tasks           map[string]map[string]any
	polls           map[string]int
	pollsBeforeDone int
	fail            string
}

func newFakeSandbox(pollsBeforeDone int) *fakeSandbox {
	return &fakeSandbox{tasks: map[string]map[string]any{}, polls: map[string]int{}, pollsBeforeDone: pollsBeforeDone}
}

func (f *fakeSandbox) pollCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[id]
}

func (f *fakeSandbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "tasks":
		var body struct {
			ID   string         `json:"id"`
			Task map[string]any `json:"task"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.tasks[body.ID] = body.Task
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "status":
		if _, ok := f.tasks[parts[1]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		f.polls[parts[1]]++
		status := StatusRunning
		if f.polls[parts[1]] > f.pollsBeforeDone {
			status = StatusCompleted
			if f.fail != "" {
				status = StatusFailed
			}
		}
		_ = json.NewEncoder(w).Encode(Status{Status: status, Error: f.fail})
	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "result":
		task := f.tasks[parts[1]]
		_ = json.NewEncoder(w).Encode(map[string]any{"output": "ran " + task["task"].(string)})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestClient_RunCompletes(t *testing.T) {
	fake := newFakeSandbox(2)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient(srv.URL+"/", func(o *Options) { o.PollInterval = 5 * time.Millisecond })

	id, result, err := c.Run(context.Background(), map[string]any{"task": "build"})

	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, "ran build", result["output"])
	assert.Equal(t, 3, fake.pollCount(id))
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestClient_WaitFailed(t *testing.T) {
	fake := newFakeSandbox(0)
	fake.fail = "segfault"
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient(srv.URL)
	id, err := c.SubmitTask(context.Background(), map[string]any{"task": "crash"})
	require.NoError(t, err)

	_, err = c.Wait(context.Background(), id, time.Millisecond)

	assert.ErrorIs(t, err, ErrTaskFailed)
	assert.Contains(t, err.Error(), "segfault")
}

func TestClient_PollStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(newFakeSandbox(0))
	defer srv.Close()

	_, err := NewClient(srv.URL).PollStatus(context.Background(), "missing")

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.StatusCode)
}

func TestClient_WaitHonoursContext(t *testing.T) {
	fake := newFakeSandbox(1 << 30)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient(srv.URL)
	id, err := c.SubmitTask(context.Background(), map[string]any{"task": "forever"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = c.Wait(ctx, id, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_CancelledBeforeRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("http://127.0.0.1:1").SubmitTask(ctx, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_HeadersSent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, func(o *Options) { o.Headers = map[string]string{"Authorization": "Bearer t"} })
	st, err := c.PollStatus(context.Background(), "x")

	require.NoError(t, err)
	assert.False(t, st.IsTerminal())
	assert.Equal(t, "Bearer t", got)
}
