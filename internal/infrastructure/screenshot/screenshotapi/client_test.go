package screenshotapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dreschagin/event-media-fetcher/pkg/logger"
)

func TestClient_CaptureOK(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("token") != "tok" || q.Get("url") != "http://x/news?id=1" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("full_page") != "true" || q.Get("output") != "image" {
			t.Errorf("missing capture flags: %v", q)
		}
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	client, err := NewClient(srv.Client(), Config{Endpoint: srv.URL, Token: "tok"}, logger.New("error"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	data, err := client.Capture(context.Background(), "http://x/news?id=1")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if !bytes.Equal(data, png) {
		t.Fatalf("unexpected body %v", data)
	}
}

func TestClient_CaptureNon200IsSilent(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusCreated, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("nope"))
		}))

		var buf bytes.Buffer
		client, _ := NewClient(srv.Client(), Config{Endpoint: srv.URL, Token: "tok"}, logger.NewWithWriter("info", &buf))
		data, err := client.Capture(context.Background(), "http://bad")
		srv.Close()

		if err != nil {
			t.Fatalf("status %d: unexpected error %v", status, err)
		}
		if data != nil {
			t.Fatalf("status %d: expected no data", status)
		}
		if strings.Contains(buf.String(), "WARN") {
			t.Fatalf("status %d: expected no warning, got %q", status, buf.String())
		}
	}
}

func TestClient_CaptureTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	client, _ := NewClient(nil, Config{Endpoint: endpoint, Token: "tok"}, logger.New("error"))
	if _, err := client.Capture(context.Background(), "http://x"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	if _, err := NewClient(nil, Config{}, logger.New("error")); err == nil {
		t.Fatalf("expected error for missing token")
	}
	client, err := NewClient(nil, Config{Token: "tok"}, logger.New("error"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %q, want default", client.endpoint)
	}
}
