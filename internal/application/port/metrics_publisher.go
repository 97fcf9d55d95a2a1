package port

import (
	"context"
	"time"
)

// RunMetric is a single named measurement describing a finished run.
type RunMetric struct {
	Name       string
	Value      float64
	Unit       string
	Timestamp  time.Time
	Dimensions map[string]string
}

// MetricsPublisher defines the interface for publishing run metrics to external observability platforms.
type MetricsPublisher interface {
	// PublishBatch publishes multiple metrics in a single operation.
	PublishBatch(ctx context.Context, metrics []RunMetric) error

	// Flush forces immediate publication of any buffered metrics.
	Flush(ctx context.Context) error
}
