package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dreschagin/event-media-fetcher/internal/infrastructure/httpclient"
)

const (
	searchPath      = "/images/search"
	subscriptionKey = "Ocp-Apim-Subscription-Key"
	defaultCount    = 3
)

type Config struct {
	Endpoint string
	APIKey   string
	Count    int
}

// Client queries an image search API compatible with Bing Image Search v7.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	count    int
}

type searchResponse struct {
	Value []struct {
		ContentURL string `json:"contentUrl"`
	} `json:"value"`
}

func NewClient(httpClient *http.Client, cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("search endpoint is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("search api key is required")
	}
	if cfg.Count <= 0 {
		cfg.Count = defaultCount
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		http:     httpClient,
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		count:    cfg.Count,
	}, nil
}

// Search returns up to Count content URLs in the order the service ranked them.
// A non-2xx status is returned as *httpclient.StatusError.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(c.count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set(subscriptionKey, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request: %w", err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, httpclient.NewStatusError("image search", resp)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode image search response: %w", err)
	}

	urls := make([]string, 0, len(body.Value))
	for _, item := range body.Value {
		contentURL := strings.TrimSpace(item.ContentURL)
		if contentURL == "" {
			continue
		}
		urls = append(urls, contentURL)
		if len(urls) == c.count {
			break
		}
	}

	return urls, nil
}
