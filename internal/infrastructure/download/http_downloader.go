package download

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/httpclient"
)

const defaultMaxBytes = 25 * 1024 * 1024

// HTTPDownloader fetches image bytes. The per-request timeout lives on the http.Client.
type HTTPDownloader struct {
	http     *http.Client
	maxBytes int64
	verifier *Verifier
}

func NewHTTPDownloader(httpClient *http.Client, maxBytes int64, verifier *Verifier) *HTTPDownloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &HTTPDownloader{
		http:     httpClient,
		maxBytes: maxBytes,
		verifier: verifier,
	}
}

func (d *HTTPDownloader) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, httpclient.NewStatusError("image host", resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", d.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image body is empty")
	}

	if d.verifier != nil {
		if err := d.verifier.Verify(data); err != nil {
			return nil, err
		}
	}

	return data, nil
}
