package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"soundleaf/internal/books"
	"soundleaf/internal/catalog"
	"soundleaf/internal/classifier"
	"soundleaf/internal/config"
	"soundleaf/internal/descriptor"
	"soundleaf/internal/logging"
	"soundleaf/internal/services"
	"soundleaf/internal/testsupport"
)

type fakeClassifier struct {
	classify func(ctx context.Context, unit classifier.Unit) (descriptor.Set, error)
}

func (f *fakeClassifier) Classify(ctx context.Context, unit classifier.Unit) (descriptor.Set, error) {
	return f.classify(ctx, unit)
}

type fakeCatalog struct {
	assets []catalog.Asset
}

func (f *fakeCatalog) All(context.Context) ([]catalog.Asset, error) {
	return f.assets, nil
}

func pageText() string {
	return strings.Repeat("the wind moved through the trees ", 4)
}

func seedBook(t *testing.T, store *books.Store, pageCount int) *books.Book {
	t.Helper()
	pages := make([]books.PageInput, pageCount)
	for i := range pages {
		pages[i] = books.PageInput{PageNumber: i + 1, Text: pageText()}
	}
	book, err := store.CreateBook(context.Background(), "Test Book", "Author", pages)
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	return book
}

func forestSet() descriptor.Set {
	set := descriptor.Neutral()
	set.Setting = "forest"
	set.Mood = "peaceful"
	set.ActivityLevel = "calm"
	set.DominantElements = "wind, birds"
	return set
}

func caveSet() descriptor.Set {
	set := descriptor.Neutral()
	set.Setting = "underground"
	set.Mood = "ominous"
	set.ActivityLevel = "calm"
	set.DominantElements = "dripping water"
	return set
}

func newRunner(t *testing.T, cfg *config.Config, store *books.Store, cls Classifier, cat Catalog) *Runner {
	t.Helper()
	return NewRunner(cfg, store, cls, cat, nil, logging.NewNop())
}

func TestRunHappyPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 6)

	// Pages 1-3 forest, pages 4-6 cave.
	cls := &fakeClassifier{classify: func(_ context.Context, unit classifier.Unit) (descriptor.Set, error) {
		if unit.StartPage <= 3 {
			return forestSet(), nil
		}
		return caveSet(), nil
	}}
	cat := &fakeCatalog{assets: []catalog.Asset{
		{Category: "nature", Filename: "Forest_Wind.mp3"},
		{Category: "nature", Filename: "Echoing_Cave.mp3"},
	}}

	report, err := newRunner(t, cfg, store, cls, cat).Run(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Success || report.Status != books.StatusReady {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Stats.TotalUnits != 6 || report.Stats.ProcessedUnits != 6 || report.Stats.ErrorCount != 0 {
		t.Fatalf("unexpected stats: %+v", report.Stats)
	}
	if report.Stats.ScenesCreated != 2 || report.Stats.SoundscapesMatched != 2 {
		t.Fatalf("unexpected scene stats: %+v", report.Stats)
	}

	scenes, err := store.Scenes(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Scenes: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("expected 2 stored scenes, got %d", len(scenes))
	}
	if scenes[0].SoundscapeFile != "Forest_Wind.mp3" {
		t.Fatalf("scene 1 assignment = %q", scenes[0].SoundscapeFile)
	}
	if scenes[1].SoundscapeFile != "Echoing_Cave.mp3" {
		t.Fatalf("scene 2 assignment = %q", scenes[1].SoundscapeFile)
	}
	if scenes[1].StartPage != 4 || scenes[1].EndPage != 6 {
		t.Fatalf("scene 2 range = %d..%d", scenes[1].StartPage, scenes[1].EndPage)
	}

	got, _ := store.GetBook(context.Background(), book.ID)
	if got.Status != books.StatusReady || got.ProcessedAt == nil {
		t.Fatalf("book not finalized: %+v", got)
	}
}

func TestRunWithinFailureBudget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 100)

	// 25 of 100 units fail: inside the 30% budget.
	cls := &fakeClassifier{classify: func(_ context.Context, unit classifier.Unit) (descriptor.Set, error) {
		if unit.Index < 25 {
			return descriptor.Set{}, fmt.Errorf("synthetic failure for unit %d", unit.Index)
		}
		return forestSet(), nil
	}}

	report, err := newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Success || report.Status != books.StatusReady {
		t.Fatalf("expected partial success, got %+v", report)
	}
	if report.Stats.ErrorCount != 25 || report.Stats.ProcessedUnits != 75 {
		t.Fatalf("unexpected stats: %+v", report.Stats)
	}
	if report.Warning == "" {
		t.Fatal("expected warning about substituted descriptors")
	}

	if len(report.Errors) != 25 {
		t.Fatalf("expected 25 report errors, got %d", len(report.Errors))
	}
	for _, unitErr := range report.Errors {
		if unitErr.UnitIndex >= 25 || len(unitErr.PageNumbers) == 0 || unitErr.Message == "" {
			t.Fatalf("malformed unit error: %+v", unitErr)
		}
	}

	records, err := store.Errors(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Errors: %v", err)
	}
	if len(records) != 25 {
		t.Fatalf("expected 25 recorded errors, got %d", len(records))
	}
	if records[0].Phase != "analyzing" {
		t.Fatalf("error phase = %q, want analyzing", records[0].Phase)
	}
}

func TestRunStatusIsAnalyzingDuringClassification(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 2)

	var observed books.Status
	var once sync.Once
	cls := &fakeClassifier{classify: func(ctx context.Context, unit classifier.Unit) (descriptor.Set, error) {
		once.Do(func() {
			got, err := store.GetBook(ctx, book.ID)
			if err != nil {
				t.Errorf("GetBook during classification: %v", err)
				return
			}
			observed = got.Status
		})
		return forestSet(), nil
	}}

	if _, err := newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if observed != books.StatusAnalyzing {
		t.Fatalf("status during classification = %q, want analyzing", observed)
	}
}

func TestRunSpreadUnitErrorCoversBothPages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Classifier.SpreadPages = 2
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 8)

	// Fail only the first spread; three of four units succeed, under budget.
	cls := &fakeClassifier{classify: func(_ context.Context, unit classifier.Unit) (descriptor.Set, error) {
		if unit.Index == 0 {
			return descriptor.Set{}, errors.New("synthetic failure")
		}
		return forestSet(), nil
	}}

	report, err := newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 report error, got %d", len(report.Errors))
	}
	unitErr := report.Errors[0]
	if unitErr.UnitIndex != 0 {
		t.Fatalf("unit index = %d, want 0", unitErr.UnitIndex)
	}
	if len(unitErr.PageNumbers) != 2 || unitErr.PageNumbers[0] != 1 || unitErr.PageNumbers[1] != 2 {
		t.Fatalf("page numbers = %v, want [1 2]", unitErr.PageNumbers)
	}
}

func TestRunExceedsFailureBudget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 100)

	// 35 of 100 units fail: over the 30% budget.
	cls := &fakeClassifier{classify: func(_ context.Context, unit classifier.Unit) (descriptor.Set, error) {
		if unit.Index < 35 {
			return descriptor.Set{}, errors.New("synthetic failure")
		}
		return forestSet(), nil
	}}

	report, err := newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID)
	if !errors.Is(err, services.ErrHighFailureRate) {
		t.Fatalf("expected high failure rate error, got %v", err)
	}
	if report.Success || report.Status != books.StatusFailed {
		t.Fatalf("unexpected report: %+v", report)
	}

	got, _ := store.GetBook(context.Background(), book.ID)
	if got.Status != books.StatusFailed || got.ErrorSummary == "" {
		t.Fatalf("book not failed: %+v", got)
	}
}

func TestRunEmptyCatalogStillSucceeds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 3)

	cls := &fakeClassifier{classify: func(context.Context, classifier.Unit) (descriptor.Set, error) {
		return forestSet(), nil
	}}

	report, err := newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Success || report.Status != books.StatusReady {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Stats.SoundscapesMatched != 0 {
		t.Fatalf("matched = %d, want 0", report.Stats.SoundscapesMatched)
	}

	scenes, _ := store.Scenes(context.Background(), book.ID)
	for _, scene := range scenes {
		if scene.HasSoundscape() {
			t.Fatalf("scene %d has unexpected assignment: %+v", scene.SceneNumber, scene)
		}
	}
}

func TestRunReviewRequiredRoutesToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.ReviewRequired = true
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 2)

	cls := &fakeClassifier{classify: func(context.Context, classifier.Unit) (descriptor.Set, error) {
		return forestSet(), nil
	}}

	report, err := newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Status != books.StatusReadyForReview {
		t.Fatalf("status = %s, want ready_for_review", report.Status)
	}
}

func TestRunRejectsNonPendingBook(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 2)
	if err := store.UpdateStatus(context.Background(), book.ID, books.StatusExtracting); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	cls := &fakeClassifier{classify: func(context.Context, classifier.Unit) (descriptor.Set, error) {
		return forestSet(), nil
	}}
	_, err := newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunAllPagesImageOnlyFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	pages := []books.PageInput{
		{PageNumber: 1, Text: "short", ImageOnly: true},
		{PageNumber: 2, Text: "", ImageOnly: true},
	}
	book, err := store.CreateBook(context.Background(), "Picture Book", "", pages)
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	cls := &fakeClassifier{classify: func(context.Context, classifier.Unit) (descriptor.Set, error) {
		return forestSet(), nil
	}}
	_, err = newRunner(t, cfg, store, cls, &fakeCatalog{}).Run(context.Background(), book.ID)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := store.GetBook(context.Background(), book.ID)
	if got.Status != books.StatusFailed {
		t.Fatalf("book status = %s, want failed", got.Status)
	}
}

func TestRetryResetsFailedBook(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	book := seedBook(t, store, 2)

	if err := store.UpdateStatus(context.Background(), book.ID, books.StatusExtracting); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := store.SetFailure(context.Background(), book.ID, "boom"); err != nil {
		t.Fatalf("SetFailure: %v", err)
	}

	if err := Retry(context.Background(), store, book.ID); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	got, _ := store.GetBook(context.Background(), book.ID)
	if got.Status != books.StatusPending || got.ErrorSummary != "" {
		t.Fatalf("retry did not reset: %+v", got)
	}

	if err := Retry(context.Background(), store, book.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("retrying a pending book should fail, got %v", err)
	}
}
