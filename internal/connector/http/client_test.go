package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig()
	cfg.BaseURL = srv.URL + "/genesisWS"
	cfg.RateLimit = 1000
	cfg.RateBurst = 100
	if mutate != nil {
		mutate(cfg)
	}
	return NewClient(cfg)
}

func TestClient_PostRaw(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/genesisWS/services/TestService", r.URL.Path)
		assert.Equal(t, "text/xml; charset=utf-8", r.Header.Get("Content-Type"))
		assert.Equal(t, `""`, r.Header.Get("SOAPAction"))
		assert.Equal(t, "genesisclient/1.0", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "<env/>", string(body))
		_, _ = w.Write([]byte("<ok/>"))
	}, nil)

	resp, err := c.PostRaw(context.Background(), "/services/TestService", "text/xml; charset=utf-8",
		[]byte("<env/>"), map[string]string{"SOAPAction": `""`})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "<ok/>", string(resp.Body))
}

func TestClient_HTTPErrorCarriesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such service"))
	}, nil)

	_, err := c.PostRaw(context.Background(), "/x", "text/xml", nil, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 404, httpErr.StatusCode)
	assert.Equal(t, "no such service", string(httpErr.Body))
	assert.False(t, httpErr.IsServerError())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}, func(cfg *ClientConfig) { cfg.MaxRetries = 3 })

	resp, err := c.PostRaw(context.Background(), "/", "text/xml", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetryIfVeto(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 3
		cfg.RetryIf = func(*HTTPError) bool { return false }
	})

	_, err := c.PostRaw(context.Background(), "/", "text/xml", nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_SingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := c.PostRaw(context.Background(), "/", "text/xml", nil, nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PostRaw(ctx, "/", "text/xml", nil, nil)
	assert.Error(t, err)
}
