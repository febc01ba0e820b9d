package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func seedCatalog(t *testing.T, layout map[string][]string) string {
	t.Helper()
	root := t.TempDir()
	for category, files := range layout {
		dir := filepath.Join(root, category)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		for _, file := range files {
			if err := os.WriteFile(filepath.Join(dir, file), []byte("audio"), 0o644); err != nil {
				t.Fatalf("write %s: %v", file, err)
			}
		}
	}
	return root
}

func TestListGroupsByCategory(t *testing.T) {
	root := seedCatalog(t, map[string][]string{
		"nature": {"Forest_Wind.mp3", "Echoing_Cave.mp3", "notes.txt"},
		"urban":  {"city-traffic.ogg"},
	})

	loader := NewLoader(root)
	grouped, err := loader.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("expected 2 categories, got %v", grouped)
	}
	nature := grouped["nature"]
	if len(nature) != 2 {
		t.Fatalf("expected 2 nature assets, got %v", nature)
	}
	// Sorted by filename; non-audio files skipped.
	if nature[0].Filename != "Echoing_Cave.mp3" || nature[1].Filename != "Forest_Wind.mp3" {
		t.Fatalf("unexpected ordering: %v", nature)
	}
	if nature[0].Category != "nature" {
		t.Fatalf("unexpected category: %q", nature[0].Category)
	}
	if nature[0].Path != filepath.Join(root, "nature", "Echoing_Cave.mp3") {
		t.Fatalf("unexpected path: %q", nature[0].Path)
	}
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent"))
	grouped, err := loader.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(grouped) != 0 {
		t.Fatalf("expected empty catalog, got %v", grouped)
	}
}

func TestListSkipsEmptyAndHiddenCategories(t *testing.T) {
	root := seedCatalog(t, map[string][]string{
		"nature": {},
		".git":   {"config.mp3"},
	})

	loader := NewLoader(root)
	grouped, err := loader.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(grouped) != 0 {
		t.Fatalf("expected no categories, got %v", grouped)
	}
}

func TestAllFlattensSorted(t *testing.T) {
	root := seedCatalog(t, map[string][]string{
		"urban":  {"traffic.mp3"},
		"nature": {"wind.mp3"},
	})

	loader := NewLoader(root)
	all, err := loader.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all[0].Category != "nature" || all[1].Category != "urban" {
		t.Fatalf("unexpected flat order: %v", all)
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Echoing_Cave.mp3", "Echoing Cave"},
		{"city-traffic.ogg", "City Traffic"},
		{"rain_on_tin_roof.flac", "Rain On Tin Roof"},
	}
	for _, tt := range tests {
		asset := Asset{Filename: tt.filename}
		if got := asset.DisplayTitle(); got != tt.want {
			t.Fatalf("DisplayTitle(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
