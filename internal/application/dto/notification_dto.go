package dto

import "time"

// ArtifactDTO describes one artifact attempt in a notification payload.
type ArtifactDTO struct {
	Kind      string `json:"kind"`
	Index     int    `json:"index,omitempty"`
	Status    string `json:"status"`
	FileName  string `json:"file_name"`
	SourceURL string `json:"source_url,omitempty"`
	MirrorURL string `json:"mirror_url,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EventProcessedDTO is published once per handled event.
type EventProcessedDTO struct {
	RunID       string        `json:"run_id"`
	Title       string        `json:"title"`
	Link        string        `json:"link,omitempty"`
	SearchError string        `json:"search_error,omitempty"`
	Saved       int           `json:"saved"`
	Failed      int           `json:"failed"`
	Artifacts   []ArtifactDTO `json:"artifacts"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// RunCompletedDTO is published when the event loop ends, including aborted runs.
type RunCompletedDTO struct {
	RunID              string    `json:"run_id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	EventsTotal        int       `json:"events_total"`
	EventsProcessed    int       `json:"events_processed"`
	ImagesSaved        int       `json:"images_saved"`
	ImagesFailed       int       `json:"images_failed"`
	ScreenshotsSaved   int       `json:"screenshots_saved"`
	ScreenshotsFailed  int       `json:"screenshots_failed"`
	ScreenshotsSkipped int       `json:"screenshots_skipped"`
	SearchFailures     int       `json:"search_failures"`
	Aborted            bool      `json:"aborted"`
}
