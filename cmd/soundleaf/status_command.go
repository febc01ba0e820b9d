package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"soundleaf/internal/books"
	"soundleaf/internal/config"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [book-id]",
		Short: "Show books or the scenes of one book",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *books.Store) error {
				if len(args) == 0 {
					return printBookList(cmd, store)
				}
				bookID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid book id %q", args[0])
				}
				return printBookDetail(cmd, store, bookID)
			})
		},
	}
}

func printBookList(cmd *cobra.Command, store *books.Store) error {
	list, err := store.ListBooks(cmd.Context())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No books ingested yet")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, book := range list {
		rows = append(rows, []string{
			strconv.FormatInt(book.ID, 10),
			book.Title,
			string(book.Status),
			strconv.Itoa(book.TotalPages),
			book.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "Title", "Status", "Pages", "Updated"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func printBookDetail(cmd *cobra.Command, store *books.Store, bookID int64) error {
	book, err := store.GetBook(cmd.Context(), bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("book %d not found", bookID)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Book %d: %s\n", book.ID, book.Title)
	if book.Author != "" {
		fmt.Fprintf(out, "Author:  %s\n", book.Author)
	}
	fmt.Fprintf(out, "Status:  %s\n", book.Status)
	fmt.Fprintf(out, "Pages:   %d\n", book.TotalPages)
	if book.ErrorSummary != "" {
		fmt.Fprintf(out, "Error:   %s\n", book.ErrorSummary)
	}

	scenes, err := store.Scenes(cmd.Context(), bookID)
	if err != nil {
		return err
	}
	if len(scenes) > 0 {
		rows := make([][]string, 0, len(scenes))
		for _, scene := range scenes {
			soundscape := "-"
			score := "-"
			if scene.HasSoundscape() {
				soundscape = scene.SoundscapeCategory + "/" + scene.SoundscapeFile
				score = fmt.Sprintf("%.2f", scene.MatchScore)
			}
			rows = append(rows, []string{
				strconv.Itoa(scene.SceneNumber),
				fmt.Sprintf("%d-%d", scene.StartPage, scene.EndPage),
				scene.Descriptors.Setting,
				scene.Descriptors.Mood,
				soundscape,
				score,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Scene", "Pages", "Setting", "Mood", "Soundscape", "Score"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	records, err := store.Errors(cmd.Context(), bookID)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		fmt.Fprintf(out, "Recorded errors (%d):\n", len(records))
		for _, record := range records {
			fmt.Fprintf(out, "  page %d [%s/%s]: %s\n",
				record.StartPage, record.Phase, record.Kind, firstLine(record.Message))
		}
	}
	return nil
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}
