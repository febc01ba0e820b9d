package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"soundleaf/internal/services"
)

func TestConsoleHandlerFormatsComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl)).With(String(FieldComponent, "matcher"))

	logger.Info("scene matched", String("asset", "Forest_Morning.mp3"), Float64("score", 0.55))

	line := buf.String()
	if !strings.Contains(line, "INFO matcher: scene matched") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "asset=Forest_Morning.mp3") {
		t.Fatalf("expected asset attr in %q", line)
	}
	if !strings.Contains(line, "score=0.55") {
		t.Fatalf("expected score attr in %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("skip", String("reason", "page too short"))

	if !strings.Contains(buf.String(), `reason="page too short"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsPipelineFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, lvl))

	ctx := services.WithBookID(context.Background(), 9)
	ctx = services.WithPhase(ctx, "mapping")
	WithContext(ctx, base).Info("hello")

	line := buf.String()
	if !strings.Contains(line, "book_id=9") || !strings.Contains(line, "phase=mapping") {
		t.Fatalf("expected context fields, got %q", line)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
