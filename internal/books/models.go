package books

import (
	"fmt"
	"strings"
	"time"

	"soundleaf/internal/descriptor"
)

// Status represents the processing lifecycle of a book.
type Status string

const (
	StatusPending        Status = "pending"
	StatusExtracting     Status = "extracting"
	StatusAnalyzing      Status = "analyzing"
	StatusMapping        Status = "mapping"
	StatusReady          Status = "ready"
	StatusReadyForReview Status = "ready_for_review"
	StatusPublished      Status = "published"
	StatusFailed         Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusAnalyzing,
	StatusMapping,
	StatusReady,
	StatusReadyForReview,
	StatusPublished,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// transitions is the full set of legal status moves. failed -> pending is the
// retry path; everything else follows the processing order.
var transitions = map[Status][]Status{
	StatusPending:        {StatusExtracting, StatusFailed},
	StatusExtracting:     {StatusAnalyzing, StatusFailed},
	StatusAnalyzing:      {StatusMapping, StatusFailed},
	StatusMapping:        {StatusReady, StatusReadyForReview, StatusFailed},
	StatusReady:          {StatusPublished},
	StatusReadyForReview: {StatusReady, StatusPublished},
	StatusPublished:      {},
	StatusFailed:         {StatusPending},
}

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown status %q", value)
	}
	return status, nil
}

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status ends processing for this run.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusReady, StatusReadyForReview, StatusPublished, StatusFailed:
		return true
	}
	return false
}

// Book is one stored book and its processing state.
type Book struct {
	ID             int64
	Title          string
	Author         string
	Status         Status
	TotalPages     int
	ErrorSummary   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt time.Time
	ProcessedAt    *time.Time
}

// Page is one extracted page of text.
type Page struct {
	BookID     int64
	PageNumber int
	Text       string
	CharCount  int
	ImageOnly  bool
}

// PageInput is the caller-supplied form of a page during ingest.
type PageInput struct {
	PageNumber int
	Text       string
	ImageOnly  bool
}

// Scene is a stored scene with its optional soundscape assignment.
type Scene struct {
	ID          int64
	BookID      int64
	SceneNumber int
	StartPage   int
	EndPage     int
	Descriptors descriptor.Set

	// Assignment fields are empty when no soundscape reached the threshold.
	SoundscapeCategory string
	SoundscapeFile     string
	MatchScore         float64
}

// HasSoundscape reports whether a soundscape was assigned to the scene.
func (s Scene) HasSoundscape() bool {
	return s.SoundscapeFile != ""
}

// ProcessingError is one recorded unit failure for a book.
type ProcessingError struct {
	ID        int64
	BookID    int64
	UnitIndex int
	StartPage int
	Phase     string
	Kind      string
	Message   string
	CreatedAt time.Time
}
