package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundleaf/internal/services"
	"soundleaf/internal/testsupport"
)

func writeBookFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write book file: %v", err)
	}
	return path
}

func TestIngestStoresBookAndFlagsShortPages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)

	long := strings.Repeat("prose ", 20)
	path := writeBookFile(t, `{
		"title": "The Long Walk",
		"author": "Someone",
		"pages": [
			{"page_number": 1, "text": "`+long+`"},
			{"page_number": 2, "text": "[map]"},
			{"page_number": 3, "text": "`+long+`"}
		]
	}`)

	book, err := Ingest(context.Background(), store, cfg.Classifier.MinPageChars, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if book.Title != "The Long Walk" || book.TotalPages != 3 {
		t.Fatalf("unexpected book: %+v", book)
	}

	pages, err := store.Pages(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if pages[0].ImageOnly || !pages[1].ImageOnly || pages[2].ImageOnly {
		t.Fatalf("image-only flags wrong: %+v", pages)
	}
}

func TestIngestRejectsBadInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)

	if _, err := Ingest(context.Background(), store, 50, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := writeBookFile(t, "not json")
	if _, err := Ingest(context.Background(), store, 50, path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bad json, got %v", err)
	}

	path = writeBookFile(t, `{"title": "", "pages": [{"page_number": 1, "text": "x"}]}`)
	if _, err := Ingest(context.Background(), store, 50, path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}

	path = writeBookFile(t, `{"title": "Gap", "pages": [{"page_number": 2, "text": "x"}]}`)
	if _, err := Ingest(context.Background(), store, 50, path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for page gap, got %v", err)
	}
}
