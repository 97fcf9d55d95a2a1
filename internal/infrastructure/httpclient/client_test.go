package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewLimiter(t *testing.T) {
	if NewLimiter(0, 5) != nil {
		t.Fatalf("expected nil limiter for zero rps")
	}
	l := NewLimiter(2, 0)
	if l == nil {
		t.Fatalf("expected limiter")
	}
	if l.Burst() != 1 {
		t.Errorf("Burst() = %d, want 1", l.Burst())
	}
}

func TestClient_PassesThrough(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(Options{Timeout: time.Second, Limiter: NewLimiter(1000, 1), Operation: "test"})
	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		resp.Body.Close()
	}

	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 requests, got %d", hits)
	}
}

func TestClient_LimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	client := New(Options{Limiter: limiter})

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("first request error = %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if _, err := client.Do(req); err == nil {
		t.Fatalf("expected limiter wait to fail once the budget is spent")
	}
}
