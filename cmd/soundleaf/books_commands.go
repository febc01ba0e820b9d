package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundleaf/internal/books"
	"soundleaf/internal/config"
	"soundleaf/internal/pipeline"
)

func newBooksCommand(ctx *commandContext) *cobra.Command {
	booksCmd := &cobra.Command{
		Use:   "books",
		Short: "Manage stored books",
	}

	booksCmd.AddCommand(newBooksPublishCommand(ctx))
	booksCmd.AddCommand(newBooksApproveCommand(ctx))
	booksCmd.AddCommand(newBooksRetryCommand(ctx))
	booksCmd.AddCommand(newBooksRemoveCommand(ctx))

	return booksCmd
}

func parseBookID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid book id %q", arg)
	}
	return id, nil
}

func newBooksPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <book-id>",
		Short: "Publish a ready book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *books.Store) error {
				if err := store.UpdateStatus(cmd.Context(), id, books.StatusPublished); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d published\n", id)
				return nil
			})
		},
	}
}

func newBooksApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <book-id>",
		Short: "Approve a reviewed book, marking it ready",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *books.Store) error {
				if err := store.UpdateStatus(cmd.Context(), id, books.StatusReady); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d approved\n", id)
				return nil
			})
		},
	}
}

func newBooksRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <book-id>",
		Short: "Reset a failed book to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *books.Store) error {
				if err := pipeline.Retry(cmd.Context(), store, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d reset to pending\n", id)
				return nil
			})
		},
	}
}

func newBooksRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <book-id>",
		Short: "Delete a book and its scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *books.Store) error {
				book, err := store.GetBook(cmd.Context(), id)
				if err != nil {
					return err
				}
				if book == nil {
					return fmt.Errorf("book %d not found", id)
				}
				if err := store.DeleteBook(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed book %d (%s)\n", id, book.Title)
				return nil
			})
		},
	}
}
