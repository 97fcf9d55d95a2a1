package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	applicationPort "github.com/dreschagin/event-media-fetcher/internal/application/port"
	dynamodbRepo "github.com/dreschagin/event-media-fetcher/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/event-media-fetcher/pkg/config"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <event title>",
		Short: "List recorded artifacts for an event, newest first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")

			cfg, err := config.LoadEnv()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.Dynamo.Enabled {
				return fmt.Errorf("artifact history requires DYNAMO_ENABLED=true")
			}

			repository, err := dynamodbRepo.NewArtifactMetadataRepository(cmd.Context(), dynamodbRepo.Config{
				TableName:       cfg.Dynamo.TableName,
				Region:          cfg.Dynamo.Region,
				Endpoint:        cfg.Dynamo.Endpoint,
				AccessKeyID:     cfg.Dynamo.AccessKeyID,
				SecretAccessKey: cfg.Dynamo.SecretAccessKey,
			})
			if err != nil {
				return err
			}

			records, err := repository.ListByEvent(cmd.Context(), title, limit)
			if err != nil {
				return err
			}

			return writeHistory(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 24, "Maximum number of records to show")
	return cmd
}

func writeHistory(w io.Writer, records []applicationPort.ArtifactMetadata) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No artifacts recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tRUN\tFILE\tSTATUS\tDETAIL")
	for _, r := range records {
		detail := r.MirrorURL
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format(time.RFC3339),
			shortID(r.RunID),
			r.FileName,
			r.Status,
			detail,
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
