package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dreschagin/event-media-fetcher/internal/application/port"
	"github.com/dreschagin/event-media-fetcher/internal/domain/entity"
	"github.com/dreschagin/event-media-fetcher/internal/domain/valueobject"
	"github.com/dreschagin/event-media-fetcher/pkg/logger"
)

// ErrSearchFailed wraps image search failures surfaced by Run.
var ErrSearchFailed = errors.New("image search failed")

type SearchFailurePolicy string

const (
	// SearchFailureAbort stops the whole run on the first failed search.
	SearchFailureAbort SearchFailurePolicy = "abort"
	// SearchFailureSkip records the failure and moves on to the event's screenshot.
	SearchFailureSkip SearchFailurePolicy = "skip"
)

const defaultDownloadTimeout = 10 * time.Second

var tracer = otel.Tracer("github.com/dreschagin/event-media-fetcher/internal/application/usecase")

type ProcessEventsConfig struct {
	SearchFailurePolicy SearchFailurePolicy
	DownloadTimeout     time.Duration
	OutputDir           string
	MirrorKeyPrefix     string
	MetadataTTL         time.Duration
	SubjectPrefix       string
}

// ProcessEventsSinks are optional side channels. Any of them may be nil.
type ProcessEventsSinks struct {
	Mirror   port.ArtifactMirror
	Metadata port.ArtifactMetadataRepository
	Events   port.EventPublisher
	Metrics  []port.MetricsPublisher
}

type ProcessEventsUseCase struct {
	searcher   port.ImageSearcher
	capturer   port.ScreenshotCapturer
	downloader port.ImageDownloader
	store      port.ArtifactStore
	sinks      ProcessEventsSinks
	config     ProcessEventsConfig
	logger     *logger.Logger
	now        func() time.Time
}

func NewProcessEventsUseCase(
	searcher port.ImageSearcher,
	capturer port.ScreenshotCapturer,
	downloader port.ImageDownloader,
	store port.ArtifactStore,
	sinks ProcessEventsSinks,
	config ProcessEventsConfig,
	log *logger.Logger,
) *ProcessEventsUseCase {
	if config.SearchFailurePolicy == "" {
		config.SearchFailurePolicy = SearchFailureAbort
	}
	if config.DownloadTimeout <= 0 {
		config.DownloadTimeout = defaultDownloadTimeout
	}
	if config.OutputDir == "" {
		config.OutputDir = "output"
	}
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = "media"
	}

	return &ProcessEventsUseCase{
		searcher:   searcher,
		capturer:   capturer,
		downloader: downloader,
		store:      store,
		sinks:      sinks,
		config:     config,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run handles events one at a time in input order. Artifact failures are logged
// and counted; only a failed search under the abort policy or a cancelled context
// ends the run early, in which case the partial summary is returned with the error.
func (uc *ProcessEventsUseCase) Run(ctx context.Context, events []*entity.Event) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:       uuid.NewString(),
		StartedAt:   uc.now(),
		EventsTotal: len(events),
	}
	log := uc.logger.With("run_id", summary.RunID)
	log.Info("Starting run", "events", len(events), "output", uc.config.OutputDir)

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			summary.Aborted = true
			uc.finish(ctx, log, summary)
			return summary, fmt.Errorf("run interrupted: %w", err)
		}

		eventSummary, err := uc.processEvent(ctx, log, event)
		summary.add(eventSummary)
		if err != nil {
			summary.Aborted = true
			uc.finish(ctx, log, summary)
			return summary, err
		}

		summary.EventsProcessed++
		uc.recordEvent(ctx, log, summary.RunID, eventSummary)
	}

	uc.finish(ctx, log, summary)
	log.Info(fmt.Sprintf("All events processed, results saved to %s/", strings.TrimRight(uc.config.OutputDir, "/")),
		"images_saved", summary.ImagesSaved,
		"images_failed", summary.ImagesFailed,
		"screenshots_saved", summary.ScreenshotsSaved,
		"screenshots_failed", summary.ScreenshotsFailed,
	)

	return summary, nil
}

func (uc *ProcessEventsUseCase) processEvent(ctx context.Context, log *logger.Logger, event *entity.Event) (EventSummary, error) {
	ctx, span := tracer.Start(ctx, "process_event", trace.WithAttributes(
		attribute.String("event.title", event.Title()),
		attribute.Bool("event.has_link", event.HasLink()),
	))
	defer span.End()

	summary := EventSummary{Title: event.Title(), Link: event.Link()}
	log = log.With("title", event.Title())
	log.Info("Processing event")

	urls, err := uc.searcher.Search(ctx, event.Title())
	if err != nil {
		searchErr := fmt.Errorf("%w for %q: %w", ErrSearchFailed, event.Title(), err)
		summary.SearchErr = searchErr
		span.RecordError(searchErr)

		if uc.config.SearchFailurePolicy == SearchFailureAbort {
			span.SetStatus(codes.Error, "search failed")
			log.Error("Image search failed, aborting run", err)
			return summary, searchErr
		}
		log.Warn("Image search failed, skipping images", "error", err.Error())
	}

	for i, imageURL := range urls {
		summary.Results = append(summary.Results, uc.fetchImage(ctx, log, event.Title(), i+1, imageURL))
	}

	if event.HasLink() {
		summary.Results = append(summary.Results, uc.captureScreenshot(ctx, log, event))
	}

	span.SetAttributes(
		attribute.Int("artifacts.saved", summary.Saved()),
		attribute.Int("artifacts.failed", summary.Failed()),
	)

	return summary, nil
}

func (uc *ProcessEventsUseCase) fetchImage(ctx context.Context, log *logger.Logger, title string, index int, imageURL string) ArtifactResult {
	result := ArtifactResult{
		Kind:      valueobject.ArtifactImage,
		Index:     index,
		SourceURL: imageURL,
		FileName:  valueobject.ImageFileName(title, index),
	}

	downloadCtx, cancel := context.WithTimeout(ctx, uc.config.DownloadTimeout)
	data, err := uc.downloader.Download(downloadCtx, imageURL)
	cancel()
	if err != nil {
		return uc.fail(log, result, "Image download failed", err)
	}

	return uc.save(ctx, log, result, data)
}

func (uc *ProcessEventsUseCase) captureScreenshot(ctx context.Context, log *logger.Logger, event *entity.Event) ArtifactResult {
	result := ArtifactResult{
		Kind:      valueobject.ArtifactScreenshot,
		SourceURL: event.Link(),
		FileName:  valueobject.ScreenshotFileName(event.Title()),
	}

	data, err := uc.capturer.Capture(ctx, event.Link())
	if err != nil {
		return uc.fail(log, result, "Screenshot failed", err)
	}
	if data == nil {
		result.Status = ArtifactSkipped
		return result
	}

	return uc.save(ctx, log, result, data)
}

func (uc *ProcessEventsUseCase) save(ctx context.Context, log *logger.Logger, result ArtifactResult, data []byte) ArtifactResult {
	path, err := uc.store.Save(ctx, result.FileName, data)
	if err != nil {
		return uc.fail(log, result, "Failed to write artifact", err)
	}

	result.Path = path
	result.SizeBytes = int64(len(data))
	result.Status = ArtifactSaved
	log.Debug("Artifact saved", "file", result.FileName, "size", result.SizeBytes)

	uc.mirror(ctx, log, &result, data)
	return result
}

func (uc *ProcessEventsUseCase) fail(log *logger.Logger, result ArtifactResult, msg string, err error) ArtifactResult {
	result.Status = ArtifactFailed
	result.Err = err
	log.Warn(msg, "file", result.FileName, "url", result.SourceURL, "error", err.Error())
	return result
}

func (uc *ProcessEventsUseCase) mirror(ctx context.Context, log *logger.Logger, result *ArtifactResult, data []byte) {
	if uc.sinks.Mirror == nil {
		return
	}

	key := uc.buildMirrorKey(result.FileName)
	url, err := uc.sinks.Mirror.PutObject(ctx, key, result.Kind.ContentType(), data)
	if err != nil {
		log.Warn("Failed to mirror artifact", "file", result.FileName, "error", err.Error())
		return
	}

	result.MirrorKey = key
	result.MirrorURL = url
}

func (uc *ProcessEventsUseCase) buildMirrorKey(fileName string) string {
	prefix := strings.Trim(uc.config.MirrorKeyPrefix, "/")
	if prefix == "" {
		prefix = "events"
	}
	return fmt.Sprintf("%s/%s/%s", prefix, uc.now().Format("2006/01/02"), fileName)
}

// recordEvent writes the manifest and notification for an event. Failures here never affect the run.
func (uc *ProcessEventsUseCase) recordEvent(ctx context.Context, log *logger.Logger, runID string, event EventSummary) {
	now := uc.now()

	if uc.sinks.Metadata != nil && len(event.Results) > 0 {
		records := make([]port.ArtifactMetadata, 0, len(event.Results))
		for _, r := range event.Results {
			record := port.ArtifactMetadata{
				RunID:        runID,
				EventTitle:   event.Title,
				ArtifactKind: r.Kind.String(),
				Index:        r.Index,
				SourceURL:    r.SourceURL,
				FileName:     r.FileName,
				MirrorKey:    r.MirrorKey,
				MirrorURL:    r.MirrorURL,
				Status:       string(r.Status),
				Error:        r.errorString(),
				SizeBytes:    r.SizeBytes,
				CreatedAt:    now,
			}
			if uc.config.MetadataTTL > 0 {
				record.ExpiresAt = now.Add(uc.config.MetadataTTL)
			}
			records = append(records, record)
		}

		if err := uc.sinks.Metadata.PutBatch(ctx, records); err != nil {
			log.Warn("Failed to record artifact metadata", "title", event.Title, "error", err.Error())
		}
	}

	if uc.sinks.Events != nil {
		subject := uc.config.SubjectPrefix + ".event.processed"
		if err := uc.sinks.Events.PublishEvent(ctx, subject, toEventProcessedDTO(runID, event, now)); err != nil {
			log.Warn("Failed to publish event notification", "title", event.Title, "error", err.Error())
		}
	}
}

func (uc *ProcessEventsUseCase) finish(ctx context.Context, log *logger.Logger, summary *RunSummary) {
	summary.FinishedAt = uc.now()

	// Sinks still get the summary when ctx is already cancelled.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	metrics := summary.Metrics()
	for _, publisher := range uc.sinks.Metrics {
		if publisher == nil {
			continue
		}
		if err := publisher.PublishBatch(sinkCtx, metrics); err != nil {
			log.Warn("Failed to publish run metrics", "error", err.Error())
			continue
		}
		if err := publisher.Flush(sinkCtx); err != nil {
			log.Warn("Failed to flush run metrics", "error", err.Error())
		}
	}

	if uc.sinks.Events != nil {
		subject := uc.config.SubjectPrefix + ".run.completed"
		if err := uc.sinks.Events.PublishEvent(sinkCtx, subject, toRunCompletedDTO(summary)); err != nil {
			log.Warn("Failed to publish run notification", "error", err.Error())
		}
	}
}
