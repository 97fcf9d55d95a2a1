package httpclient

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Options configures an outbound API client.
type Options struct {
	// Timeout bounds the whole request including the body read. Zero means no limit.
	Timeout time.Duration
	// Limiter paces outgoing requests; nil disables pacing.
	Limiter *rate.Limiter
	// Operation names the client in trace spans.
	Operation string
}

func New(opts Options) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	var rt http.RoundTripper = tr
	if opts.Limiter != nil {
		rt = &limitedTransport{next: rt, limiter: opts.Limiter}
	}

	operation := opts.Operation
	if operation == "" {
		operation = "http.client"
	}
	rt = otelhttp.NewTransport(rt, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return operation + " " + r.Method
	}))

	return &http.Client{Timeout: opts.Timeout, Transport: rt}
}

// NewLimiter returns nil when rps is not positive so callers can pass it through unconditionally.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
