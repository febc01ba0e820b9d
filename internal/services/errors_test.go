package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"soundleaf/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("socket closed")
	err := services.Wrap(services.ErrClassification, "analyzing", "classify page", "request failed", cause)
	if !errors.Is(err, services.ErrClassification) {
		t.Fatalf("expected classification marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "analyzing: classify page: request failed") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "mapping", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		expect string
	}{
		{"validation", services.Wrap(services.ErrValidation, "p", "o", "m", nil), "validation"},
		{"classification", services.ErrClassification, "classification"},
		{"circuit breaker", services.ErrHighFailureRate, "high_failure_rate"},
		{"persistence", services.ErrPersistence, "persistence"},
		{"no match", services.ErrNoMatch, "no_match"},
		{"unknown", errors.New("boom"), "transient"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if kind := services.ErrorKind(tc.err); kind != tc.expect {
				t.Fatalf("expected kind %q, got %q", tc.expect, kind)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !services.IsFatal(services.ErrValidation) {
		t.Fatal("validation errors must be fatal")
	}
	if !services.IsFatal(services.ErrHighFailureRate) {
		t.Fatal("circuit-breaker trips must be fatal")
	}
	if services.IsFatal(services.ErrClassification) {
		t.Fatal("unit classification failures must not be fatal")
	}
	if services.IsFatal(services.ErrNoMatch) {
		t.Fatal("no-match outcomes must not be fatal")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := services.WithBookID(context.Background(), 42)
	ctx = services.WithPhase(ctx, "analyzing")
	ctx = services.WithUnitIndex(ctx, 7)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.BookIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected book id: %v %v", id, ok)
	}
	if phase, ok := services.PhaseFromContext(ctx); !ok || phase != "analyzing" {
		t.Fatalf("unexpected phase: %v %v", phase, ok)
	}
	if unit, ok := services.UnitIndexFromContext(ctx); !ok || unit != 7 {
		t.Fatalf("unexpected unit index: %v %v", unit, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestPhaseBlankPreservesContext(t *testing.T) {
	ctx := services.WithPhase(context.Background(), "")
	if _, ok := services.PhaseFromContext(ctx); ok {
		t.Fatal("expected no phase value")
	}
}
