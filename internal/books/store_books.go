package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"soundleaf/internal/services"
)

const bookColumns = "id, title, author, status, total_pages, error_summary, created_at, updated_at, last_activity_at, processed_at"

// CreateBook inserts a new book and its pages in one transaction. The book
// starts in pending. Page numbers must form the contiguous range 1..N.
func (s *Store) CreateBook(ctx context.Context, title, author string, pages []PageInput) (*Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "create_book", "title required", nil)
	}
	if len(pages) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "create_book", "at least one page required", nil)
	}
	for i, page := range pages {
		if page.PageNumber != i+1 {
			return nil, services.Wrap(services.ErrValidation, "ingest", "create_book",
				fmt.Sprintf("page numbers must be contiguous from 1, got %d at position %d", page.PageNumber, i+1), nil)
		}
	}

	ctx = ensureContext(ctx)
	now := timestamp(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin book tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO books (title, author, status, total_pages, created_at, updated_at, last_activity_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, strings.TrimSpace(author), StatusPending, len(pages), now, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, page := range pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pages (book_id, page_number, text, char_count, image_only)
             VALUES (?, ?, ?, ?, ?)`,
			id, page.PageNumber, page.Text, len([]rune(page.Text)), page.ImageOnly); err != nil {
			return nil, fmt.Errorf("insert page %d: %w", page.PageNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit book: %w", err)
	}
	return s.GetBook(ctx, id)
}

// GetBook fetches a book by identifier. Returns nil when not found.
func (s *Store) GetBook(ctx context.Context, id int64) (*Book, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns every book ordered by identifier.
func (s *Store) ListBooks(ctx context.Context) ([]*Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
}

// ListByStatus returns books currently in the given status.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE status = ? ORDER BY id`, string(status))
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]*Book, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var result []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		result = append(result, book)
	}
	return result, rows.Err()
}

// UpdateStatus moves a book to a new status, enforcing the transition table.
// Terminal moves also stamp processed_at.
func (s *Store) UpdateStatus(ctx context.Context, id int64, to Status) error {
	if _, ok := statusSet[to]; !ok {
		return services.Wrap(services.ErrValidation, "persist", "update_status",
			fmt.Sprintf("unknown status %q", to), nil)
	}
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if book == nil {
		return services.Wrap(services.ErrValidation, "persist", "update_status",
			fmt.Sprintf("book %d not found", id), nil)
	}
	if !CanTransition(book.Status, to) {
		return services.Wrap(services.ErrValidation, "persist", "update_status",
			fmt.Sprintf("illegal transition %s -> %s for book %d", book.Status, to, id), nil)
	}

	now := timestamp(time.Now())
	var processedAt any
	if to.IsTerminal() {
		processedAt = now
	}
	_, err = s.execWithRetry(ctx,
		`UPDATE books SET status = ?, updated_at = ?, last_activity_at = ?,
            processed_at = COALESCE(?, processed_at),
            error_summary = CASE WHEN ? = 'pending' THEN NULL ELSE error_summary END
         WHERE id = ?`,
		string(to), now, now, processedAt, string(to), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// SetFailure moves a book to failed and records the error summary.
func (s *Store) SetFailure(ctx context.Context, id int64, summary string) error {
	if err := s.UpdateStatus(ctx, id, StatusFailed); err != nil {
		return err
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE books SET error_summary = ? WHERE id = ?`,
		nullableString(summary), id)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// Touch refreshes the book's liveness timestamp while long work runs.
func (s *Store) Touch(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE books SET last_activity_at = ? WHERE id = ?`,
		timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("touch book: %w", err)
	}
	return nil
}

// Pages returns the extracted pages for a book in page order.
func (s *Store) Pages(ctx context.Context, bookID int64) ([]Page, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT book_id, page_number, text, char_count, image_only
         FROM pages WHERE book_id = ? ORDER BY page_number`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.BookID, &page.PageNumber, &page.Text, &page.CharCount, &page.ImageOnly); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// DeleteBook removes a book and all dependent rows.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	var (
		book         Book
		status       string
		errorSummary sql.NullString
		createdAt    string
		updatedAt    string
		lastActivity string
		processedAt  sql.NullString
	)
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &status, &book.TotalPages,
		&errorSummary, &createdAt, &updatedAt, &lastActivity, &processedAt); err != nil {
		return nil, err
	}
	book.Status = Status(status)
	book.ErrorSummary = errorSummary.String

	var err error
	if book.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if book.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if book.LastActivityAt, err = parseTimestamp(lastActivity); err != nil {
		return nil, fmt.Errorf("parse last_activity_at: %w", err)
	}
	if processedAt.Valid {
		parsed, err := parseTimestamp(processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse processed_at: %w", err)
		}
		book.ProcessedAt = &parsed
	}
	return &book, nil
}
