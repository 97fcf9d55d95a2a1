package port

import "context"

// ScreenshotCapturer renders a page to an image.
// A nil slice with a nil error means the service produced no image.
type ScreenshotCapturer interface {
	Capture(ctx context.Context, targetURL string) ([]byte, error)
}
