package books

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"soundleaf/internal/descriptor"
	"soundleaf/internal/services"
)

// ReplaceScenes atomically replaces every scene for a book. The scenes must
// form a contiguous partition of pages 1..TotalPages in scene order;
// violations are rejected so the database never holds gapped or overlapping
// scenes.
func (s *Store) ReplaceScenes(ctx context.Context, bookID int64, scenes []Scene) error {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return services.Wrap(services.ErrValidation, "persist", "replace_scenes",
			fmt.Sprintf("book %d not found", bookID), nil)
	}
	if err := validateScenePartition(scenes, book.TotalPages); err != nil {
		return err
	}

	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scenes tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("clear scenes: %w", err)
	}
	for _, scene := range scenes {
		descriptors, err := json.Marshal(scene.Descriptors)
		if err != nil {
			return fmt.Errorf("marshal descriptors for scene %d: %w", scene.SceneNumber, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenes (book_id, scene_number, start_page, end_page, descriptors_json,
                soundscape_category, soundscape_file, match_score)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			bookID, scene.SceneNumber, scene.StartPage, scene.EndPage, string(descriptors),
			scene.SoundscapeCategory, scene.SoundscapeFile, scene.MatchScore); err != nil {
			return fmt.Errorf("insert scene %d: %w", scene.SceneNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scenes: %w", err)
	}
	return nil
}

func validateScenePartition(scenes []Scene, totalPages int) error {
	if len(scenes) == 0 {
		return services.Wrap(services.ErrValidation, "persist", "replace_scenes", "no scenes to store", nil)
	}
	next := 1
	for i, scene := range scenes {
		if scene.SceneNumber != i+1 {
			return services.Wrap(services.ErrValidation, "persist", "replace_scenes",
				fmt.Sprintf("scene numbers must be sequential, got %d at position %d", scene.SceneNumber, i+1), nil)
		}
		if scene.StartPage != next {
			return services.Wrap(services.ErrValidation, "persist", "replace_scenes",
				fmt.Sprintf("scene %d starts at page %d, expected %d", scene.SceneNumber, scene.StartPage, next), nil)
		}
		if scene.EndPage < scene.StartPage {
			return services.Wrap(services.ErrValidation, "persist", "replace_scenes",
				fmt.Sprintf("scene %d ends before it starts", scene.SceneNumber), nil)
		}
		next = scene.EndPage + 1
	}
	if next != totalPages+1 {
		return services.Wrap(services.ErrValidation, "persist", "replace_scenes",
			fmt.Sprintf("scenes cover pages 1..%d, book has %d", next-1, totalPages), nil)
	}
	return nil
}

// Scenes returns the stored scenes for a book in scene order.
func (s *Store) Scenes(ctx context.Context, bookID int64) ([]Scene, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, book_id, scene_number, start_page, end_page, descriptors_json,
            soundscape_category, soundscape_file, match_score
         FROM scenes WHERE book_id = ? ORDER BY scene_number`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query scenes: %w", err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		var (
			scene       Scene
			descriptors string
		)
		if err := rows.Scan(&scene.ID, &scene.BookID, &scene.SceneNumber, &scene.StartPage,
			&scene.EndPage, &descriptors, &scene.SoundscapeCategory, &scene.SoundscapeFile,
			&scene.MatchScore); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		var set descriptor.Set
		if err := json.Unmarshal([]byte(descriptors), &set); err != nil {
			return nil, fmt.Errorf("unmarshal descriptors for scene %d: %w", scene.SceneNumber, err)
		}
		scene.Descriptors = set
		scenes = append(scenes, scene)
	}
	return scenes, rows.Err()
}

// AppendError records one unit failure for a book.
func (s *Store) AppendError(ctx context.Context, record ProcessingError) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO processing_errors (book_id, unit_index, start_page, phase, kind, message, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.BookID, record.UnitIndex, record.StartPage, record.Phase, record.Kind,
		record.Message, timestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("append error: %w", err)
	}
	return nil
}

// Errors returns recorded failures for a book in insertion order.
func (s *Store) Errors(ctx context.Context, bookID int64) ([]ProcessingError, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, book_id, unit_index, start_page, phase, kind, message, created_at
         FROM processing_errors WHERE book_id = ? ORDER BY id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query errors: %w", err)
	}
	defer rows.Close()

	var records []ProcessingError
	for rows.Next() {
		var (
			record    ProcessingError
			createdAt string
		)
		if err := rows.Scan(&record.ID, &record.BookID, &record.UnitIndex, &record.StartPage,
			&record.Phase, &record.Kind, &record.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan error record: %w", err)
		}
		if record.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("parse error timestamp: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ClearErrors removes recorded failures before a reprocessing run.
func (s *Store) ClearErrors(ctx context.Context, bookID int64) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM processing_errors WHERE book_id = ?`, bookID)
	if err != nil {
		return fmt.Errorf("clear errors: %w", err)
	}
	return nil
}
