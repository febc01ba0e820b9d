package soundscape

import (
	"path/filepath"
	"strings"
)

// noiseWords are filename filler that carries no matching signal.
var noiseWords = map[string]struct{}{
	"sound":    {},
	"sounds":   {},
	"audio":    {},
	"ambience": {},
	"ambient":  {},
	"loop":     {},
	"track":    {},
	"mix":      {},
}

// Keywords extracts matching keywords from a soundscape filename. The
// extension is stripped, separators become spaces, everything is lowercased,
// and filler words are dropped.
func Keywords(filename string) []string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.ToLower(name)
	name = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)

	var keywords []string
	for _, word := range strings.Fields(name) {
		if _, noise := noiseWords[word]; noise {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}
