package port

import "context"

// ImageSearcher returns candidate image URLs for a text query, in service order.
type ImageSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}
