package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dreschagin/event-media-fetcher/internal/application/port"
)

const (
	defaultListLimit  = 24
	maxListLimit      = 100
	maxBatchWriteSize = 25
	maxBatchRetries   = 5

	attrPK           = "PK"
	attrSK           = "SK"
	attrRunID        = "run_id"
	attrEventTitle   = "event_title"
	attrArtifactKind = "artifact_kind"
	attrIndex        = "artifact_index"
	attrSourceURL    = "source_url"
	attrFileName     = "file_name"
	attrMirrorKey    = "mirror_key"
	attrMirrorURL    = "mirror_url"
	attrStatus       = "status"
	attrError        = "error"
	attrSizeBytes    = "size_bytes"
	attrCreatedAt    = "created_at"
	attrExpiresAt    = "expires_at"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// ArtifactMetadataRepository keeps one item per artifact attempt, partitioned by event title.
type ArtifactMetadataRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewArtifactMetadataRepository(ctx context.Context, cfg Config) (*ArtifactMetadataRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return &ArtifactMetadataRepository{
		client:    client,
		tableName: strings.TrimSpace(cfg.TableName),
	}, nil
}

func (r *ArtifactMetadataRepository) PutBatch(ctx context.Context, records []port.ArtifactMetadata) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += maxBatchWriteSize {
		end := start + maxBatchWriteSize
		if end > len(records) {
			end = len(records)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, record := range records[start:end] {
			item, err := toItem(record)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := r.writeBatchWithRetry(ctx, requests); err != nil {
			return err
		}
	}

	return nil
}

// ListByEvent returns the newest records for an event title first.
func (r *ArtifactMetadataRepository) ListByEvent(ctx context.Context, eventTitle string, limit int) ([]port.ArtifactMetadata, error) {
	if strings.TrimSpace(eventTitle) == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	keyCondition := "#pk = :pk"
	output, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                &r.tableName,
		KeyConditionExpression:   &keyCondition,
		ExpressionAttributeNames: map[string]string{"#pk": attrPK},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(eventTitle)},
		},
		Limit:            int32Pointer(int32(limit)),
		ScanIndexForward: boolPointer(false),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]port.ArtifactMetadata, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func (r *ArtifactMetadataRepository) writeBatchWithRetry(ctx context.Context, requests []types.WriteRequest) error {
	if len(requests) == 0 {
		return nil
	}

	pending := map[string][]types.WriteRequest{
		r.tableName: requests,
	}

	for attempt := 0; attempt < maxBatchRetries; attempt++ {
		output, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("dynamodb batch write failed: %w", err)
		}

		if len(output.UnprocessedItems) == 0 {
			return nil
		}

		pending = output.UnprocessedItems
		select {
		case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("dynamodb batch write has unprocessed items after retries")
}

func toItem(record port.ArtifactMetadata) (map[string]types.AttributeValue, error) {
	title := record.EventTitle
	runID := strings.TrimSpace(record.RunID)
	kind := strings.TrimSpace(record.ArtifactKind)
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("event_title is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	if kind == "" {
		return nil, fmt.Errorf("artifact_kind is required")
	}

	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	createdAtMS := createdAt.UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:           &types.AttributeValueMemberS{Value: buildPK(title)},
		attrSK:           &types.AttributeValueMemberS{Value: buildSK(createdAtMS, runID, kind, record.Index)},
		attrRunID:        &types.AttributeValueMemberS{Value: runID},
		attrEventTitle:   &types.AttributeValueMemberS{Value: title},
		attrArtifactKind: &types.AttributeValueMemberS{Value: kind},
		attrIndex:        &types.AttributeValueMemberN{Value: strconv.Itoa(record.Index)},
		attrFileName:     &types.AttributeValueMemberS{Value: record.FileName},
		attrStatus:       &types.AttributeValueMemberS{Value: record.Status},
		attrCreatedAt:    &types.AttributeValueMemberN{Value: strconv.FormatInt(createdAtMS, 10)},
	}

	optional := map[string]string{
		attrSourceURL: record.SourceURL,
		attrMirrorKey: record.MirrorKey,
		attrMirrorURL: record.MirrorURL,
		attrError:     record.Error,
	}
	for name, value := range optional {
		if value = strings.TrimSpace(value); value != "" {
			item[name] = &types.AttributeValueMemberS{Value: value}
		}
	}
	if record.SizeBytes > 0 {
		item[attrSizeBytes] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.SizeBytes, 10)}
	}
	if !record.ExpiresAt.IsZero() {
		item[attrExpiresAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.ExpiresAt.UTC().Unix(), 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.ArtifactMetadata, error) {
	title, err := attrString(item, attrEventTitle)
	if err != nil {
		return port.ArtifactMetadata{}, err
	}
	runID, err := attrString(item, attrRunID)
	if err != nil {
		return port.ArtifactMetadata{}, err
	}
	kind, err := attrString(item, attrArtifactKind)
	if err != nil {
		return port.ArtifactMetadata{}, err
	}
	createdAtMS, err := attrInt64(item, attrCreatedAt)
	if err != nil {
		return port.ArtifactMetadata{}, err
	}

	record := port.ArtifactMetadata{
		RunID:        runID,
		EventTitle:   title,
		ArtifactKind: kind,
		Index:        int(optionalInt64(item, attrIndex)),
		SourceURL:    optionalString(item, attrSourceURL),
		FileName:     optionalString(item, attrFileName),
		MirrorKey:    optionalString(item, attrMirrorKey),
		MirrorURL:    optionalString(item, attrMirrorURL),
		Status:       optionalString(item, attrStatus),
		Error:        optionalString(item, attrError),
		SizeBytes:    optionalInt64(item, attrSizeBytes),
		CreatedAt:    time.UnixMilli(createdAtMS).UTC(),
	}

	if expiresAtSeconds := optionalInt64(item, attrExpiresAt); expiresAtSeconds > 0 {
		record.ExpiresAt = time.Unix(expiresAtSeconds, 0).UTC()
	}

	return record, nil
}

func buildPK(eventTitle string) string {
	return "EVENT#" + eventTitle
}

func buildSK(createdAtMS int64, runID, kind string, index int) string {
	return fmt.Sprintf("TS#%013d#RUN#%s#KIND#%s#IDX#%02d", createdAtMS, runID, kind, index)
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	raw, ok := item[name]
	if !ok {
		return ""
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64(item map[string]types.AttributeValue, name string) int64 {
	raw, ok := item[name]
	if !ok {
		return 0
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}
