// Package catalog loads the soundscape library from a directory tree.
//
// The catalog root contains one subdirectory per category (nature, urban,
// indoor, ...) holding audio files. The directory layout is the source of
// truth; there is no separate manifest to drift out of sync.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Audio extensions recognized as soundscape assets. Anything else in a
// category directory is ignored.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".ogg":  {},
	".wav":  {},
	".flac": {},
	".m4a":  {},
	".opus": {},
}

// Asset is one soundscape file in the catalog.
type Asset struct {
	Category string
	Filename string
	Path     string
}

// DisplayTitle renders the filename as a human-readable title for CLI output.
func (a Asset) DisplayTitle() string {
	name := strings.TrimSuffix(a.Filename, filepath.Ext(a.Filename))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(language.English).String(name)
}

// Loader reads soundscape assets from a catalog directory.
type Loader struct {
	root string
}

// NewLoader constructs a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{root: dir}
}

// Root returns the catalog directory.
func (l *Loader) Root() string {
	return l.root
}

// List returns every asset grouped by category, with categories and filenames
// sorted. A missing or empty catalog directory yields an empty map, not an
// error, so books can still finish processing without assignments.
func (l *Loader) List(ctx context.Context) (map[string][]Asset, error) {
	assets := make(map[string][]Asset)

	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return assets, nil
		}
		return nil, fmt.Errorf("read catalog directory %q: %w", l.root, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		category := strings.ToLower(entry.Name())
		if strings.HasPrefix(category, ".") {
			continue
		}
		files, err := l.listCategory(entry.Name())
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			assets[category] = files
		}
	}
	return assets, nil
}

// All returns every asset as a flat sorted slice.
func (l *Loader) All(ctx context.Context) ([]Asset, error) {
	grouped, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(grouped))
	for category := range grouped {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var flat []Asset
	for _, category := range categories {
		flat = append(flat, grouped[category]...)
	}
	return flat, nil
}

func (l *Loader) listCategory(name string) ([]Asset, error) {
	dir := filepath.Join(l.root, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read category directory %q: %w", dir, err)
	}

	var files []Asset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isAudioFile(entry) {
			continue
		}
		files = append(files, Asset{
			Category: strings.ToLower(name),
			Filename: entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

func isAudioFile(entry fs.DirEntry) bool {
	ext := strings.ToLower(filepath.Ext(entry.Name()))
	_, ok := audioExtensions[ext]
	return ok
}
