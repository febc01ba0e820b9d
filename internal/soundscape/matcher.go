package soundscape

import (
	"strings"

	"soundleaf/internal/catalog"
	"soundleaf/internal/descriptor"
)

// Score weights. A perfect setting hit dominates; elements, mood, and
// category alignment refine the ranking.
const (
	settingWeight  = 0.4
	elementWeight  = 0.15
	moodWeight     = 0.25
	categoryWeight = 0.2
)

// Match is a scored soundscape assignment for one scene.
type Match struct {
	Asset catalog.Asset
	Score float64
}

// Matcher scores catalog assets against scene descriptors.
type Matcher struct {
	threshold float64
}

// NewMatcher constructs a matcher that assigns soundscapes scoring strictly
// above threshold.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Threshold returns the minimum assignment score.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Best returns the highest-scoring asset for the descriptors. The second
// return is false when no asset reaches the threshold; a scene without a
// suitable soundscape is a normal outcome, not an error.
//
// Ties keep the first candidate in catalog order, so results are stable for a
// given catalog listing.
func (m *Matcher) Best(set descriptor.Set, assets []catalog.Asset) (Match, bool) {
	var best Match
	found := false
	for _, asset := range assets {
		score := CalculateMatchScore(set, asset)
		if score > best.Score {
			best = Match{Asset: asset, Score: score}
			found = true
		}
	}
	if !found || best.Score <= m.threshold {
		return Match{}, false
	}
	return best, true
}

// CalculateMatchScore computes the relevance of one asset for one descriptor
// set. The result is clamped to [0, 1].
func CalculateMatchScore(set descriptor.Set, asset catalog.Asset) float64 {
	keywords := Keywords(asset.Filename)
	if len(keywords) == 0 {
		return 0
	}

	score := 0.0
	if matchesAnyTerm(keywords, set.Setting) {
		score += settingWeight
	}
	for _, element := range set.Elements() {
		if elementMatches(keywords, element) {
			score += elementWeight
		}
	}
	if matchesAnyTerm(keywords, set.Mood) || matchesAnyTerm(keywords, set.Atmosphere) {
		score += moodWeight
	}
	if categoryAligned(asset.Category, set.Setting) || categoryAligned(asset.Category, set.SceneType) {
		score += categoryWeight
	}

	if score > 1 {
		return 1
	}
	return score
}

// matchesAnyTerm reports whether any keyword matches any word of the value,
// directly or through a synonym.
func matchesAnyTerm(keywords []string, value string) bool {
	if value == "" || value == descriptor.Unknown {
		return false
	}
	for _, word := range strings.Fields(value) {
		for _, keyword := range keywords {
			if termsMatch(keyword, word) {
				return true
			}
		}
	}
	return false
}

// elementMatches is matchesAnyTerm with a substring fallback, so partial
// word forms still count ("rocky" against keyword "rock").
func elementMatches(keywords []string, element string) bool {
	if matchesAnyTerm(keywords, element) {
		return true
	}
	for _, word := range strings.Fields(element) {
		if len(word) < 3 {
			continue
		}
		for _, keyword := range keywords {
			if len(keyword) < 3 {
				continue
			}
			if strings.Contains(word, keyword) || strings.Contains(keyword, word) {
				return true
			}
		}
	}
	return false
}

// categoryAligned reports whether the asset category and the descriptor field
// overlap as substrings in either direction.
func categoryAligned(category, value string) bool {
	if category == "" || value == "" || value == descriptor.Unknown {
		return false
	}
	return strings.Contains(value, category) || strings.Contains(category, value)
}
