package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"soundleaf/internal/books"
	"soundleaf/internal/services"
)

// bookDocument is the JSON shape produced by the text extraction step.
type bookDocument struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Pages  []struct {
		PageNumber int    `json:"page_number"`
		Text       string `json:"text"`
	} `json:"pages"`
}

// Ingest reads an extracted-pages JSON file and stores it as a new pending
// book. Pages shorter than minPageChars are flagged image-only and will be
// skipped during classification.
func Ingest(ctx context.Context, store *books.Store, minPageChars int, path string) (*books.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read book file: %w", err)
	}

	var doc bookDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "parse_book",
			fmt.Sprintf("parse %q", path), err)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "parse_book", "title required", nil)
	}

	pages := make([]books.PageInput, len(doc.Pages))
	for i, page := range doc.Pages {
		text := strings.TrimSpace(page.Text)
		pages[i] = books.PageInput{
			PageNumber: page.PageNumber,
			Text:       text,
			ImageOnly:  len([]rune(text)) < minPageChars,
		}
	}

	return store.CreateBook(ctx, doc.Title, doc.Author, pages)
}
