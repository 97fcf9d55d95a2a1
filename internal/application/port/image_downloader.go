package port

import "context"

// ImageDownloader fetches the raw bytes behind an image URL.
type ImageDownloader interface {
	Download(ctx context.Context, imageURL string) ([]byte, error)
}
