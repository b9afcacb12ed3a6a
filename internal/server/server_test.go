package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/leapstack-labs/leaporm/internal/testutil"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := testutil.OpenPeople(t)

	srv, err := New(context.Background(), Options{
		Store:     st,
		Config:    config.ServerConfig{Addr: "127.0.0.1:0", MaxLimit: 2},
		Resources: []config.ResourceConfig{{Table: "people", Defaults: map[string]any{"status": "draft"}}},
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestServer_CRUD(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/people"

	resp, body := do(t, http.MethodPost, base, `{"name": "ada", "age": 36}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "ada", body["name"])
	assert.Equal(t, "draft", body["status"], "entity defaults apply")
	id := body["id"].(float64)
	assert.Positive(t, id)

	resp, body = do(t, http.MethodGet, fmt.Sprintf("%s/%d", base, int(id)), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada", body["name"])
	assert.Equal(t, float64(36), body["age"])

	resp, body = do(t, http.MethodPut, fmt.Sprintf("%s/%d", base, int(id)), `{"status": "live"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "live", body["status"])

	resp, _ = do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, int(id)), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, http.MethodGet, fmt.Sprintf("%s/%d", base, int(id)), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "not found")
}

func TestServer_List(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/people"

	for _, p := range []string{`{"name":"a","age":1}`, `{"name":"b","age":2,"status":"live"}`, `{"name":"c","age":3,"status":"live"}`} {
		resp, body := do(t, http.MethodPost, base, p)
		require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	}

	t.Run("capped by max limit", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(3), body["total"])
		assert.Equal(t, float64(2), body["limit"])
		assert.Len(t, body["data"], 2)
	})

	t.Run("filter and projection", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, base+"?status=live&columns=name&offset=1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(2), body["total"])
		data := body["data"].([]any)
		require.Len(t, data, 1)
		assert.Equal(t, map[string]any{"name": "c"}, data[0])
	})

	t.Run("no match is an empty list", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, base+"?status=archived", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []any{}, body["data"])
	})

	t.Run("unknown filter column", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, base+"?nickname=x", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "nickname")
	})

	t.Run("bad limit", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, base+"?limit=many", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_Errors(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/people"

	tests := []struct {
		name   string
		method string
		url    string
		body   string
		status int
	}{
		{name: "unknown resource", method: http.MethodGet, url: ts.URL + "/api/ghosts", status: http.StatusNotFound},
		{name: "invalid json", method: http.MethodPost, url: base, body: `{"name":`, status: http.StatusBadRequest},
		{name: "missing required column", method: http.MethodPost, url: base, body: `{"name":"x"}`, status: http.StatusUnprocessableEntity},
		{name: "invalid type", method: http.MethodPost, url: base, body: `{"name":"x","age":"old"}`, status: http.StatusUnprocessableEntity},
		{name: "guarded attribute", method: http.MethodPost, url: base, body: `{"id":5,"name":"x","age":1}`, status: http.StatusUnprocessableEntity},
		{name: "unknown column", method: http.MethodPost, url: base, body: `{"nickname":"x"}`, status: http.StatusBadRequest},
		{name: "update missing row", method: http.MethodPut, url: base + "/999", body: `{"name":"x"}`, status: http.StatusNotFound},
		{name: "delete missing row", method: http.MethodDelete, url: base + "/999", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, resp.Header.Get(RequestIDHeader), body["request_id"])
		})
	}
}

func TestServer_RequestID(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	resp, _ = do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36, "a uuid is assigned")
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "sqlite", body["store"])

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `leaporm_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, text, "leaporm_store_statements_total")
}

func TestServer_MissingResourceTable(t *testing.T) {
	st := testutil.OpenPeople(t)
	_, err := New(context.Background(), Options{
		Store:     st,
		Resources: []config.ResourceConfig{{Table: "ghosts"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load resource ghosts")
}

func TestServer_ServeListenerShutsDown(t *testing.T) {
	st := testutil.OpenPeople(t)
	srv, err := New(context.Background(), Options{Store: st, Config: config.ServerConfig{ShutdownTimeout: time.Second}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&core.SchemaError{}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("wrapped: %w", &core.ValidationError{})))
	assert.Equal(t, http.StatusConflict, statusFor(&core.LogicError{}))
	assert.Equal(t, http.StatusConflict, statusFor(&core.PersistenceError{Err: errors.New("dup")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
