package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yellowair/config"
)

func newTestClient(t *testing.T, baseURL string, retries uint64, timeout time.Duration) *Client {
	t.Helper()

	log, _ := test.NewNullLogger()
	client, err := NewClient(config.Proxy{
		APIBaseURL:   baseURL,
		Timeout:      timeout,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	}, log)
	require.NoError(t, err)
	return client
}

func TestClient_RetriesIdempotentOnUnavailable(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"f-1"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2, time.Second)
	resp, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/flights/f-1"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"id":"f-1"}`, string(resp.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_ReturnsLastResponseWhenRetriesRunOut(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 1, time.Second)
	resp, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/version"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_NeverRetriesPost(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3, time.Second)
	resp, err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/auth/login", Body: []byte(`{}`)})

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := newTestClient(t, srv.URL, 0, 50*time.Millisecond)
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/version"})

	require.Error(t, err)
}

func TestClient_ForwardsRequestParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/admin/bookings", r.URL.Path)
		assert.Equal(t, "dry=1", r.URL.RawQuery)
		assert.Equal(t, "token=abc", r.Header.Get("Cookie"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"id":"b-1","status":"CANCELLED"}`, string(body))

		http.SetCookie(w, &http.Cookie{Name: "token", Value: "new"})
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/", 0, time.Second)
	resp, err := client.Do(context.Background(), Request{
		Method:      http.MethodPut,
		Path:        "/api/admin/bookings",
		RawQuery:    "dry=1",
		Body:        []byte(`{"id":"b-1","status":"CANCELLED"}`),
		ContentType: "application/json",
		Caller:      Caller{Cookie: "token=abc"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"token=new"}, resp.SetCookies)
	assert.Equal(t, `"v1"`, resp.ETag)
}

func TestClient_AdminBookings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/bookings", r.URL.Path)
		assert.Equal(t, "Mei Lin", r.URL.Query().Get("search"))
		assert.Equal(t, "token=abc", r.Header.Get("Cookie"))
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		assert.Equal(t, "203.0.113.1", r.Header.Get("X-Forwarded-For"))
		assert.Equal(t, "203.0.113.1", r.Header.Get("X-Real-IP"))
		_, _ = io.WriteString(w, `{"bookings":[]}`)
	}))
	defer srv.Close()

	caller := Caller{Cookie: "token=abc", Authorization: "Bearer jwt", ClientIP: "203.0.113.1"}
	resp, err := newTestClient(t, srv.URL, 0, time.Second).AdminBookings(context.Background(), "Mei Lin", caller)

	require.NoError(t, err)
	assert.JSONEq(t, `{"bookings":[]}`, string(resp.Body))
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	log, _ := test.NewNullLogger()

	for _, base := range []string{"", "localhost:3001", "://bad"} {
		_, err := NewClient(config.Proxy{APIBaseURL: base}, log)
		assert.Error(t, err, base)
	}
}
