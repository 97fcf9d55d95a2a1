package port

import (
	"context"
	"time"
)

// ArtifactMetadata describes one artifact produced for an event during a run.
type ArtifactMetadata struct {
	RunID        string
	EventTitle   string
	ArtifactKind string
	Index        int
	SourceURL    string
	FileName     string
	MirrorKey    string
	MirrorURL    string
	Status       string
	Error        string
	SizeBytes    int64
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// ArtifactMetadataRepository stores the per-event artifact manifest.
type ArtifactMetadataRepository interface {
	PutBatch(ctx context.Context, records []ArtifactMetadata) error
	ListByEvent(ctx context.Context, eventTitle string, limit int) ([]ArtifactMetadata, error)
}
