package pipeline

import (
	"strings"

	"soundleaf/internal/books"
	"soundleaf/internal/classifier"
)

// BuildUnits converts extracted pages into classification units. Image-only
// and under-length pages are skipped; the remaining pages are grouped into
// runs of spreadPages strictly consecutive pages. A spread never bridges a
// skipped page, so each unit's text reads continuously.
func BuildUnits(pages []books.Page, spreadPages, minPageChars int) []classifier.Unit {
	if spreadPages < 1 {
		spreadPages = 1
	}

	var units []classifier.Unit
	var current []books.Page

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, page := range current {
			texts[i] = page.Text
		}
		units = append(units, classifier.Unit{
			Index:     len(units),
			StartPage: current[0].PageNumber,
			EndPage:   current[len(current)-1].PageNumber,
			Text:      strings.Join(texts, "\n\n"),
		})
		current = nil
	}

	for _, page := range pages {
		if page.ImageOnly || page.CharCount < minPageChars {
			flush()
			continue
		}
		if len(current) > 0 && page.PageNumber != current[len(current)-1].PageNumber+1 {
			flush()
		}
		current = append(current, page)
		if len(current) == spreadPages {
			flush()
		}
	}
	flush()
	return units
}
