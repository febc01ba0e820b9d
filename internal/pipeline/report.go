package pipeline

import (
	"time"

	"soundleaf/internal/books"
)

// Stats summarizes the work performed during one processing run.
type Stats struct {
	TotalUnits         int     `json:"total_units"`
	ProcessedUnits     int     `json:"processed_units"`
	ScenesCreated      int     `json:"scenes_created"`
	SoundscapesMatched int     `json:"soundscapes_matched"`
	ErrorCount         int     `json:"error_count"`
	ProcessingSeconds  float64 `json:"processing_seconds"`
}

// UnitError identifies one classification unit that failed after retries,
// with the page numbers it covered.
type UnitError struct {
	UnitIndex   int    `json:"unit_index"`
	PageNumbers []int  `json:"page_numbers"`
	Message     string `json:"error_message"`
}

// Report is the outcome of one processing run. A run with recorded unit
// errors can still succeed as long as the failure rate stayed within budget.
type Report struct {
	BookID        int64        `json:"book_id"`
	Title         string       `json:"title"`
	Status        books.Status `json:"status"`
	Success       bool         `json:"success"`
	Stats         Stats        `json:"stats"`
	Warning       string       `json:"warning,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	Errors        []UnitError  `json:"errors,omitempty"`
}

func (r *Report) finish(start time.Time) {
	r.Stats.ProcessingSeconds = time.Since(start).Seconds()
}
