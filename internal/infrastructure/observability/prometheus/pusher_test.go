package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dreschagin/event-media-fetcher/internal/application/port"
)

func TestPusher_PublishAndFlush(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := NewPusher(server.URL, "event_media_fetcher")
	if err != nil {
		t.Fatalf("NewPusher() error = %v", err)
	}

	metrics := []port.RunMetric{
		{Name: "images_saved", Value: 5, Unit: "count", Dimensions: map[string]string{"RunID": "run-1"}},
		{Name: "run_duration", Value: 1.5, Unit: "s", Dimensions: map[string]string{"RunID": "run-1"}},
	}
	if err := p.PublishBatch(context.Background(), metrics); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}

	families, err := p.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	values := map[string]float64{}
	for _, family := range families {
		metric := family.GetMetric()[0]
		if label := metric.GetLabel()[0]; label.GetName() != "run_id" || label.GetValue() != "run-1" {
			t.Errorf("%s: unexpected label %s=%s", family.GetName(), label.GetName(), label.GetValue())
		}
		values[family.GetName()] = metric.GetGauge().GetValue()
	}
	if values["event_media_fetcher_images_saved"] != 5 {
		t.Errorf("images_saved = %v", values["event_media_fetcher_images_saved"])
	}
	if values["event_media_fetcher_run_duration_seconds"] != 1.5 {
		t.Errorf("run_duration_seconds = %v", values["event_media_fetcher_run_duration_seconds"])
	}

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/metrics/job/event_media_fetcher" {
		t.Errorf("unexpected push %s %s", gotMethod, gotPath)
	}
}

func TestPusher_LabelSetMustNotChange(t *testing.T) {
	p, err := NewPusher("http://localhost:9091", "job")
	if err != nil {
		t.Fatalf("NewPusher() error = %v", err)
	}
	ctx := context.Background()

	if err := p.PublishBatch(ctx, []port.RunMetric{{Name: "events_total", Dimensions: map[string]string{"RunID": "a"}}}); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}
	if err := p.PublishBatch(ctx, []port.RunMetric{{Name: "events_total"}}); err == nil {
		t.Fatal("expected error for changed label set")
	}
}

func TestPusher_FlushWithoutMetricsIsNoop(t *testing.T) {
	p, err := NewPusher("http://127.0.0.1:1", "job")
	if err != nil {
		t.Fatalf("NewPusher() error = %v", err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"RunID":        "run_id",
		"images_saved": "images_saved",
		"EventTitle":   "event_title",
		"run-duration": "run_duration",
		"HTTPStatus":   "http_status",
	}
	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewPusher_Validation(t *testing.T) {
	if _, err := NewPusher("", "job"); err == nil {
		t.Error("expected error for missing url")
	}
	if _, err := NewPusher("http://localhost:9091", " "); err == nil {
		t.Error("expected error for missing job")
	}
}
