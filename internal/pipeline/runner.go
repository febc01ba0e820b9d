package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"soundleaf/internal/books"
	"soundleaf/internal/catalog"
	"soundleaf/internal/classifier"
	"soundleaf/internal/config"
	"soundleaf/internal/descriptor"
	"soundleaf/internal/logging"
	"soundleaf/internal/notifications"
	"soundleaf/internal/retry"
	"soundleaf/internal/segment"
	"soundleaf/internal/services"
	"soundleaf/internal/soundscape"
)

// Classifier produces descriptor sets for classification units.
type Classifier interface {
	Classify(ctx context.Context, unit classifier.Unit) (descriptor.Set, error)
}

// Catalog lists soundscape assets available for assignment.
type Catalog interface {
	All(ctx context.Context) ([]catalog.Asset, error)
}

// Runner processes one book at a time through the full pipeline.
type Runner struct {
	cfg        *config.Config
	store      *books.Store
	classifier Classifier
	catalog    Catalog
	matcher    *soundscape.Matcher
	notifier   notifications.Service
	logger     *slog.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, store *books.Store, cls Classifier, cat Catalog, notifier notifications.Service, logger *slog.Logger) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		store:      store,
		classifier: cls,
		catalog:    cat,
		matcher:    soundscape.NewMatcher(cfg.MatchThreshold()),
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
}

type unitResult struct {
	set descriptor.Set
	err error
}

// Run processes a pending book and returns a report. The process lock
// serializes runs across processes; a second concurrent run fails fast.
//
// Unit classification failures within the configured budget are substituted
// with neutral descriptors and reported as warnings; exceeding the budget
// fails the book.
func (r *Runner) Run(ctx context.Context, bookID int64) (Report, error) {
	start := time.Now()
	report := Report{BookID: bookID}

	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("acquire process lock: %w", err)
	}
	if !locked {
		return report, services.Wrap(services.ErrValidation, "run", "lock",
			"another processing run is active", nil)
	}
	defer func() { _ = lock.Unlock() }()

	book, err := r.store.GetBook(ctx, bookID)
	if err != nil {
		return report, err
	}
	if book == nil {
		return report, services.Wrap(services.ErrValidation, "run", "load_book",
			fmt.Sprintf("book %d not found", bookID), nil)
	}
	if book.Status != books.StatusPending {
		return report, services.Wrap(services.ErrValidation, "run", "load_book",
			fmt.Sprintf("book %d is %s, only pending books can be processed", bookID, book.Status), nil)
	}
	report.Title = book.Title

	runID := uuid.NewString()
	ctx = services.WithBookID(ctx, bookID)
	ctx = services.WithRequestID(ctx, runID)
	logger := r.logger.With(
		logging.Int64(logging.FieldBookID, bookID),
		logging.String(logging.FieldCorrelationID, runID))
	logger.Info("processing started", logging.String("title", book.Title))

	if err := r.store.ClearErrors(ctx, bookID); err != nil {
		return report, err
	}
	if err := r.store.UpdateStatus(ctx, bookID, books.StatusExtracting); err != nil {
		return report, err
	}
	report.Status = books.StatusExtracting
	if err := r.notifier.NotifyProcessingStarted(ctx, book.Title); err != nil {
		logger.Warn("notification failed", logging.Error(err))
	}

	pages, err := r.store.Pages(ctx, bookID)
	if err != nil {
		return r.fail(ctx, &report, book, start, err)
	}
	if len(pages) == 0 {
		return r.fail(ctx, &report, book, start,
			services.Wrap(services.ErrValidation, "extracting", "load_pages", "book has no pages", nil))
	}

	units := BuildUnits(pages, r.cfg.Classifier.SpreadPages, r.cfg.Classifier.MinPageChars)
	if len(units) == 0 {
		return r.fail(ctx, &report, book, start,
			services.Wrap(services.ErrValidation, "extracting", "build_units",
				"no classifiable pages: every page is image-only or too short", nil))
	}
	report.Stats.TotalUnits = len(units)

	// Pages are persisted and units are built: classification is the
	// analysis phase, and pollers should see it as such.
	if err := r.store.UpdateStatus(ctx, bookID, books.StatusAnalyzing); err != nil {
		return r.fail(ctx, &report, book, start, err)
	}
	report.Status = books.StatusAnalyzing

	results, err := r.classifyUnits(ctx, logger, bookID, units)
	if err != nil {
		return r.fail(ctx, &report, book, start, err)
	}

	failed := 0
	for i, result := range results {
		if result.err == nil {
			continue
		}
		failed++
		unit := units[i]
		message := result.err.Error()
		pageNumbers := make([]int, 0, unit.EndPage-unit.StartPage+1)
		for page := unit.StartPage; page <= unit.EndPage; page++ {
			pageNumbers = append(pageNumbers, page)
		}
		report.Errors = append(report.Errors, UnitError{
			UnitIndex:   unit.Index,
			PageNumbers: pageNumbers,
			Message:     message,
		})
		record := books.ProcessingError{
			BookID:    bookID,
			UnitIndex: unit.Index,
			StartPage: unit.StartPage,
			Phase:     "analyzing",
			Kind:      services.ErrorKind(result.err),
			Message:   message,
		}
		if err := r.store.AppendError(ctx, record); err != nil {
			logger.Warn("failed to record unit error", logging.Error(err))
		}
	}
	report.Stats.ProcessedUnits = len(units) - failed
	report.Stats.ErrorCount = failed

	rate := float64(failed) / float64(len(units))
	if rate > r.cfg.Workflow.MaxFailureRate {
		return r.fail(ctx, &report, book, start,
			services.Wrap(services.ErrHighFailureRate, "analyzing", "classify",
				fmt.Sprintf("%d of %d units failed (%.0f%% exceeds %.0f%% budget)",
					failed, len(units), rate*100, r.cfg.Workflow.MaxFailureRate*100), nil))
	}
	if failed > 0 {
		report.Warning = fmt.Sprintf("%d of %d units failed classification; neutral descriptors substituted", failed, len(units))
		logger.Warn("partial classification",
			logging.Int("failed_units", failed),
			logging.Int("total_units", len(units)))
	}

	// Every page gets a descriptor set: classified units fill their range,
	// failed units and skipped pages carry neutral descriptors, which never
	// open a scene boundary.
	pageDescriptors := make([]descriptor.Set, book.TotalPages)
	for i := range pageDescriptors {
		pageDescriptors[i] = descriptor.Neutral()
	}
	for i, result := range results {
		if result.err != nil {
			continue
		}
		unit := units[i]
		for page := unit.StartPage; page <= unit.EndPage; page++ {
			pageDescriptors[page-1] = result.set
		}
	}

	boundaries := segment.DetectBoundaries(pageDescriptors)
	scenes, err := segment.BuildScenes(pageDescriptors, boundaries)
	if err != nil {
		return r.fail(ctx, &report, book, start, err)
	}
	report.Stats.ScenesCreated = len(scenes)
	logger.Info("scenes built",
		logging.Int("scenes", len(scenes)),
		logging.Int("boundaries", len(boundaries)))

	if err := r.store.UpdateStatus(ctx, bookID, books.StatusMapping); err != nil {
		return r.fail(ctx, &report, book, start, err)
	}
	report.Status = books.StatusMapping

	assets, err := r.catalog.All(ctx)
	if err != nil {
		return r.fail(ctx, &report, book, start, err)
	}
	if len(assets) == 0 {
		logger.Warn("soundscape catalog is empty, scenes will have no assignments")
	}

	records := make([]books.Scene, len(scenes))
	matched := 0
	for i, scene := range scenes {
		record := books.Scene{
			BookID:      bookID,
			SceneNumber: scene.SceneNumber,
			StartPage:   scene.StartPage,
			EndPage:     scene.EndPage,
			Descriptors: scene.Descriptors,
		}
		if match, ok := r.matcher.Best(scene.Descriptors, assets); ok {
			record.SoundscapeCategory = match.Asset.Category
			record.SoundscapeFile = match.Asset.Filename
			record.MatchScore = match.Score
			matched++
		}
		records[i] = record
	}
	report.Stats.SoundscapesMatched = matched

	persistPolicy := retry.Default()
	err = retry.Do(ctx, persistPolicy, func(ctx context.Context, attempt int) error {
		if err := r.store.ReplaceScenes(ctx, bookID, records); err != nil {
			if services.IsFatal(err) {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return r.fail(ctx, &report, book, start,
			services.Wrap(services.ErrPersistence, "mapping", "replace_scenes", "store scenes", err))
	}

	terminal := books.StatusReady
	if r.cfg.Workflow.ReviewRequired {
		terminal = books.StatusReadyForReview
	}
	if err := r.store.UpdateStatus(ctx, bookID, terminal); err != nil {
		return r.fail(ctx, &report, book, start, err)
	}
	report.Status = terminal
	report.Success = true
	report.finish(start)

	logger.Info("processing completed",
		logging.String("status", string(terminal)),
		logging.Int("scenes", report.Stats.ScenesCreated),
		logging.Int("matched", report.Stats.SoundscapesMatched),
		logging.Int("errors", report.Stats.ErrorCount))

	var notifyErr error
	if terminal == books.StatusReadyForReview {
		notifyErr = r.notifier.NotifyReviewRequired(ctx, book.Title)
	} else {
		notifyErr = r.notifier.NotifyProcessingCompleted(ctx, book.Title,
			report.Stats.ScenesCreated, report.Stats.SoundscapesMatched, time.Since(start))
	}
	if notifyErr != nil {
		logger.Warn("notification failed", logging.Error(notifyErr))
	}
	return report, nil
}

// classifyUnits runs the worker pool with per-unit timeouts and a keepalive
// that refreshes the book's activity timestamp while requests are in flight.
func (r *Runner) classifyUnits(ctx context.Context, logger *slog.Logger, bookID int64, units []classifier.Unit) ([]unitResult, error) {
	keepaliveCtx, stopKeepalive := context.WithCancel(ctx)
	defer stopKeepalive()
	go r.keepalive(keepaliveCtx, bookID)

	results := make([]unitResult, len(units))
	unitTimeout := time.Duration(r.cfg.Classifier.UnitTimeoutSeconds) * time.Second

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Classifier.Concurrency)
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unitCtx, cancel := context.WithTimeout(gctx, unitTimeout)
			defer cancel()
			unitCtx = services.WithUnitIndex(unitCtx, unit.Index)

			set, err := r.classifier.Classify(unitCtx, unit)
			if err != nil {
				// A unit failure is data, not a reason to stop the pool.
				results[i] = unitResult{err: err}
				logger.Warn("unit classification failed",
					logging.Int(logging.FieldUnitIndex, unit.Index),
					logging.Int("start_page", unit.StartPage),
					logging.Error(err))
				return nil
			}
			results[i] = unitResult{set: set}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) keepalive(ctx context.Context, bookID int64) {
	interval := time.Duration(r.cfg.Workflow.KeepaliveInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.store.Touch(ctx, bookID); err != nil {
				r.logger.Warn("keepalive touch failed", logging.Error(err))
			}
		}
	}
}

// fail marks the book failed, records the reason, and closes out the report.
func (r *Runner) fail(ctx context.Context, report *Report, book *books.Book, start time.Time, cause error) (Report, error) {
	report.Success = false
	report.FailureReason = cause.Error()
	report.finish(start)

	if err := r.store.SetFailure(ctx, book.ID, cause.Error()); err != nil {
		r.logger.Error("failed to record book failure", logging.Error(err))
	} else {
		report.Status = books.StatusFailed
	}
	if err := r.notifier.NotifyProcessingFailed(ctx, book.Title, cause.Error()); err != nil {
		r.logger.Warn("notification failed", logging.Error(err))
	}
	r.logger.Error("processing failed",
		logging.Int64(logging.FieldBookID, book.ID),
		logging.String(logging.FieldErrorKind, services.ErrorKind(cause)),
		logging.Error(cause))
	return *report, cause
}

// Retry resets a failed book to pending so it can be processed again.
func Retry(ctx context.Context, store *books.Store, bookID int64) error {
	book, err := store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return services.Wrap(services.ErrValidation, "retry", "load_book",
			fmt.Sprintf("book %d not found", bookID), nil)
	}
	if book.Status != books.StatusFailed {
		return services.Wrap(services.ErrValidation, "retry", "load_book",
			fmt.Sprintf("book %d is %s, only failed books can be retried", bookID, book.Status), nil)
	}
	return store.UpdateStatus(ctx, bookID, books.StatusPending)
}
