package cloudwatch

import (
	"context"
	"testing"
	"time"

	"github.com/dreschagin/event-media-fetcher/internal/application/port"
)

func TestMapUnit(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected string
	}{
		{"percentage", "%", "Percent"},
		{"bytes", "bytes", "Bytes"},
		{"milliseconds", "ms", "Milliseconds"},
		{"seconds", "s", "Seconds"},
		{"count", "count", "Count"},
		{"unknown", "custom", "None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := mapUnit(tt.unit); string(result) != tt.expected {
				t.Errorf("mapUnit(%q) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestConvertToDatum(t *testing.T) {
	p := &MetricsPublisher{
		namespace: "EventMediaFetcher",
		defaultDimensions: map[string]string{
			"Environment": "test",
			"RunID":       "default",
		},
		storageResolution: 60,
	}

	ts := time.Date(2024, 7, 26, 12, 0, 0, 0, time.UTC)
	datum := p.convertToDatum(port.RunMetric{
		Name:       "images_saved",
		Value:      7,
		Unit:       "count",
		Timestamp:  ts,
		Dimensions: map[string]string{"RunID": "run-1"},
	})

	if datum.MetricName == nil || *datum.MetricName != "images_saved" {
		t.Errorf("Expected MetricName=images_saved, got %v", datum.MetricName)
	}
	if datum.Value == nil || *datum.Value != 7 {
		t.Errorf("Expected Value=7, got %v", datum.Value)
	}
	if datum.Unit != "Count" {
		t.Errorf("Expected Unit=Count, got %v", datum.Unit)
	}
	if datum.Timestamp == nil || !datum.Timestamp.Equal(ts) {
		t.Errorf("Expected Timestamp=%v, got %v", ts, datum.Timestamp)
	}
	if datum.StorageResolution == nil || *datum.StorageResolution != 60 {
		t.Errorf("Expected StorageResolution=60, got %v", datum.StorageResolution)
	}

	expected := map[string]string{"Environment": "test", "RunID": "run-1"}
	if len(datum.Dimensions) != len(expected) {
		t.Fatalf("Expected %d dimensions, got %d", len(expected), len(datum.Dimensions))
	}
	for _, dim := range datum.Dimensions {
		if want := expected[*dim.Name]; *dim.Value != want {
			t.Errorf("Dimension %s: expected %s, got %s", *dim.Name, want, *dim.Value)
		}
	}
	if *datum.Dimensions[0].Name != "Environment" {
		t.Errorf("dimensions must be sorted by name, got %s first", *datum.Dimensions[0].Name)
	}
}

func TestMetricsPublisher_BuffersUntilFlush(t *testing.T) {
	p := &MetricsPublisher{namespace: "EventMediaFetcher"}

	if err := p.PublishBatch(context.Background(), []port.RunMetric{{Name: "a"}, {Name: "b"}}); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}
	if len(p.buffer) != 2 {
		t.Fatalf("expected 2 buffered metrics, got %d", len(p.buffer))
	}
	if err := p.PublishBatch(context.Background(), nil); err != nil || len(p.buffer) != 2 {
		t.Fatalf("empty batch must be a no-op")
	}
}

func TestNewMetricsPublisher_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewMetricsPublisher(ctx, MetricsPublisherConfig{Region: "us-east-1"}); err == nil {
		t.Error("expected error for missing namespace")
	}
	if _, err := NewMetricsPublisher(ctx, MetricsPublisherConfig{Namespace: "N"}); err == nil {
		t.Error("expected error for missing region")
	}
}
