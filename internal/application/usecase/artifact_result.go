package usecase

import (
	"time"

	"github.com/dreschagin/event-media-fetcher/internal/application/dto"
	"github.com/dreschagin/event-media-fetcher/internal/application/port"
	"github.com/dreschagin/event-media-fetcher/internal/domain/valueobject"
)

type ArtifactStatus string

const (
	ArtifactSaved   ArtifactStatus = "saved"
	ArtifactFailed  ArtifactStatus = "failed"
	ArtifactSkipped ArtifactStatus = "skipped"
)

// ArtifactResult is the outcome of one image download or screenshot capture.
type ArtifactResult struct {
	Kind      valueobject.ArtifactKind
	Index     int
	SourceURL string
	FileName  string
	Path      string
	SizeBytes int64
	MirrorKey string
	MirrorURL string
	Status    ArtifactStatus
	Err       error
}

func (r ArtifactResult) errorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// EventSummary collects the results produced for one event.
type EventSummary struct {
	Title     string
	Link      string
	SearchErr error
	Results   []ArtifactResult
}

func (s EventSummary) count(kind valueobject.ArtifactKind, status ArtifactStatus) int {
	n := 0
	for _, r := range s.Results {
		if r.Kind == kind && r.Status == status {
			n++
		}
	}
	return n
}

func (s EventSummary) Saved() int {
	return s.count(valueobject.ArtifactImage, ArtifactSaved) + s.count(valueobject.ArtifactScreenshot, ArtifactSaved)
}

func (s EventSummary) Failed() int {
	return s.count(valueobject.ArtifactImage, ArtifactFailed) + s.count(valueobject.ArtifactScreenshot, ArtifactFailed)
}

// RunSummary is the fold of all event summaries of a run.
type RunSummary struct {
	RunID              string
	StartedAt          time.Time
	FinishedAt         time.Time
	EventsTotal        int
	EventsProcessed    int
	ImagesSaved        int
	ImagesFailed       int
	ScreenshotsSaved   int
	ScreenshotsFailed  int
	ScreenshotsSkipped int
	SearchFailures     int
	Aborted            bool
	Events             []EventSummary
}

func (s *RunSummary) add(event EventSummary) {
	s.Events = append(s.Events, event)
	s.ImagesSaved += event.count(valueobject.ArtifactImage, ArtifactSaved)
	s.ImagesFailed += event.count(valueobject.ArtifactImage, ArtifactFailed)
	s.ScreenshotsSaved += event.count(valueobject.ArtifactScreenshot, ArtifactSaved)
	s.ScreenshotsFailed += event.count(valueobject.ArtifactScreenshot, ArtifactFailed)
	s.ScreenshotsSkipped += event.count(valueobject.ArtifactScreenshot, ArtifactSkipped)
	if event.SearchErr != nil {
		s.SearchFailures++
	}
}

// Metrics flattens the summary into publishable measurements.
func (s *RunSummary) Metrics() []port.RunMetric {
	ts := s.FinishedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	dims := map[string]string{"RunID": s.RunID}

	metric := func(name string, value float64, unit string) port.RunMetric {
		return port.RunMetric{Name: name, Value: value, Unit: unit, Timestamp: ts, Dimensions: dims}
	}

	aborted := 0.0
	if s.Aborted {
		aborted = 1
	}

	return []port.RunMetric{
		metric("events_total", float64(s.EventsTotal), "count"),
		metric("events_processed", float64(s.EventsProcessed), "count"),
		metric("images_saved", float64(s.ImagesSaved), "count"),
		metric("images_failed", float64(s.ImagesFailed), "count"),
		metric("screenshots_saved", float64(s.ScreenshotsSaved), "count"),
		metric("screenshots_failed", float64(s.ScreenshotsFailed), "count"),
		metric("screenshots_skipped", float64(s.ScreenshotsSkipped), "count"),
		metric("search_failures", float64(s.SearchFailures), "count"),
		metric("run_aborted", aborted, "count"),
		metric("run_duration", s.FinishedAt.Sub(s.StartedAt).Seconds(), "s"),
	}
}

func toEventProcessedDTO(runID string, event EventSummary, processedAt time.Time) dto.EventProcessedDTO {
	artifacts := make([]dto.ArtifactDTO, 0, len(event.Results))
	for _, r := range event.Results {
		artifacts = append(artifacts, dto.ArtifactDTO{
			Kind:      r.Kind.String(),
			Index:     r.Index,
			Status:    string(r.Status),
			FileName:  r.FileName,
			SourceURL: r.SourceURL,
			MirrorURL: r.MirrorURL,
			SizeBytes: r.SizeBytes,
			Error:     r.errorString(),
		})
	}

	out := dto.EventProcessedDTO{
		RunID:       runID,
		Title:       event.Title,
		Link:        event.Link,
		Saved:       event.Saved(),
		Failed:      event.Failed(),
		Artifacts:   artifacts,
		ProcessedAt: processedAt,
	}
	if event.SearchErr != nil {
		out.SearchError = event.SearchErr.Error()
	}
	return out
}

func toRunCompletedDTO(s *RunSummary) dto.RunCompletedDTO {
	return dto.RunCompletedDTO{
		RunID:              s.RunID,
		StartedAt:          s.StartedAt,
		FinishedAt:         s.FinishedAt,
		EventsTotal:        s.EventsTotal,
		EventsProcessed:    s.EventsProcessed,
		ImagesSaved:        s.ImagesSaved,
		ImagesFailed:       s.ImagesFailed,
		ScreenshotsSaved:   s.ScreenshotsSaved,
		ScreenshotsFailed:  s.ScreenshotsFailed,
		ScreenshotsSkipped: s.ScreenshotsSkipped,
		SearchFailures:     s.SearchFailures,
		Aborted:            s.Aborted,
	}
}
