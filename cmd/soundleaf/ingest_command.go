package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundleaf/internal/books"
	"soundleaf/internal/config"
	"soundleaf/internal/notifications"
	"soundleaf/internal/pipeline"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <book.json>",
		Short: "Store an extracted book as a pending job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *books.Store) error {
				book, err := pipeline.Ingest(cmd.Context(), store, cfg.Classifier.MinPageChars, args[0])
				if err != nil {
					return err
				}
				notifier := notifications.NewService(cfg)
				if err := notifier.NotifyBookIngested(cmd.Context(), book.Title, book.TotalPages); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: notification failed: %v\n", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ingested %q as book %d (%d pages)\n",
					book.Title, book.ID, book.TotalPages)
				fmt.Fprintf(cmd.OutOrStdout(), "Run 'soundleaf process %d' to start processing\n", book.ID)
				return nil
			})
		},
	}
}
