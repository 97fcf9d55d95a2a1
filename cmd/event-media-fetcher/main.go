package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			stop()
			os.Exit(130)
		}
		stop()
		os.Exit(1)
	}
}

// newRootCommand fetches media for every event when invoked without a subcommand.
func newRootCommand() *cobra.Command {
	var opts fetchOptions

	root := &cobra.Command{
		Use:           "event-media-fetcher",
		Short:         "Collect images and page screenshots for a list of events",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd.Context(), opts)
		},
	}

	root.Flags().StringVar(&opts.eventsFile, "events", "", "Events JSON file (overrides EVENTS_FILE)")
	root.Flags().StringVar(&opts.outputDir, "output", "", "Output directory (overrides OUTPUT_DIR)")
	root.Flags().StringVar(&opts.policy, "on-search-failure", "", "abort or skip (overrides SEARCH_FAILURE_POLICY)")

	root.AddCommand(newHistoryCommand())
	return root
}
