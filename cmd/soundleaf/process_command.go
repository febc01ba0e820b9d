package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundleaf/internal/books"
	"soundleaf/internal/catalog"
	"soundleaf/internal/classifier"
	"soundleaf/internal/config"
	"soundleaf/internal/logging"
	"soundleaf/internal/notifications"
	"soundleaf/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var retryFailed bool
	var jsonOutput bool
	var attempts int

	cmd := &cobra.Command{
		Use:   "process <book-id>",
		Short: "Run the full pipeline for a pending book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *books.Store) error {
				if retryFailed {
					if err := pipeline.Retry(cmd.Context(), store, bookID); err != nil {
						return err
					}
				}

				logger, err := logging.New(logging.Options{
					Level:  cfg.Logging.Level,
					Format: cfg.Logging.Format,
				})
				if err != nil {
					return err
				}
				cls, err := classifier.New(cfg.Classifier, logger)
				if err != nil {
					return err
				}
				loader := catalog.NewLoader(cfg.Paths.CatalogDir)
				notifier := notifications.NewService(cfg)
				runner := pipeline.NewRunner(cfg, store, cls, loader, notifier, logger)

				if attempts < 1 {
					attempts = 1
				}
				report, runErr := runner.Run(cmd.Context(), bookID)
				for attempt := 2; runErr != nil && attempt <= attempts; attempt++ {
					if err := pipeline.Retry(cmd.Context(), store, bookID); err != nil {
						break
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "attempt %d of %d for book %d\n",
						attempt, attempts, bookID)
					report, runErr = runner.Run(cmd.Context(), bookID)
				}
				if jsonOutput {
					encoded, err := json.MarshalIndent(report, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
					return runErr
				}
				printReport(cmd, report)
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&retryFailed, "retry", false, "Reset a failed book to pending before processing")
	cmd.Flags().IntVar(&attempts, "attempts", 1, "Re-run the whole job up to this many times on fatal failure")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report pipeline.Report) {
	out := cmd.OutOrStdout()
	if report.Success {
		fmt.Fprintf(out, "Book %d (%s) processed: %s\n", report.BookID, report.Title, report.Status)
	} else {
		fmt.Fprintf(out, "Book %d (%s) failed\n", report.BookID, report.Title)
	}
	fmt.Fprintf(out, "  units:       %d processed, %d failed of %d\n",
		report.Stats.ProcessedUnits, report.Stats.ErrorCount, report.Stats.TotalUnits)
	fmt.Fprintf(out, "  scenes:      %d created, %d soundscapes matched\n",
		report.Stats.ScenesCreated, report.Stats.SoundscapesMatched)
	fmt.Fprintf(out, "  duration:    %.1fs\n", report.Stats.ProcessingSeconds)
	if report.Warning != "" {
		fmt.Fprintf(out, "  warning:     %s\n", report.Warning)
	}
	if report.FailureReason != "" {
		fmt.Fprintf(out, "  failure:     %s\n", report.FailureReason)
	}
	for _, unitErr := range report.Errors {
		fmt.Fprintf(out, "  error:       unit %d (pages %s): %s\n",
			unitErr.UnitIndex, pageRange(unitErr.PageNumbers), unitErr.Message)
	}
}

func pageRange(pages []int) string {
	switch len(pages) {
	case 0:
		return "?"
	case 1:
		return strconv.Itoa(pages[0])
	default:
		return fmt.Sprintf("%d-%d", pages[0], pages[len(pages)-1])
	}
}
