package screenshotapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dreschagin/event-media-fetcher/pkg/logger"
)

const DefaultEndpoint = "https://shot.screenshotapi.net/screenshot"

type Config struct {
	Endpoint string
	Token    string
}

// Client requests full-page screenshots from a screenshotapi.net compatible service.
type Client struct {
	http     *http.Client
	endpoint string
	token    string
	logger   *logger.Logger
}

func NewClient(httpClient *http.Client, cfg Config, log *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("screenshot api token is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		http:     httpClient,
		endpoint: endpoint,
		token:    cfg.Token,
		logger:   log,
	}, nil
}

// Capture returns the rendered image when the service answers 200.
// Any other status yields (nil, nil); only transport failures are errors.
func (c *Client) Capture(ctx context.Context, targetURL string) ([]byte, error) {
	params := url.Values{}
	params.Set("token", c.token)
	params.Set("url", targetURL)
	params.Set("full_page", "true")
	params.Set("output", "image")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build screenshot request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screenshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("Screenshot service returned no image",
			"url", targetURL,
			"status", resp.StatusCode,
		)
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read screenshot body: %w", err)
	}

	return data, nil
}
