// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"soundleaf/internal/books"
	"soundleaf/internal/config"
)

// NewConfig returns a validated configuration rooted in temporary
// directories, suitable for tests that touch the filesystem.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CatalogDir = filepath.Join(base, "catalog")
	cfg.Classifier.APIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// NewStore opens a books store inside the configuration's data directory.
func NewStore(t *testing.T, cfg *config.Config) *books.Store {
	t.Helper()
	store, err := books.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
