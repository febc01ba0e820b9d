package descriptor

import "strings"

// activityRanks is the 5-point ordinal scale used for distance comparisons,
// with common classifier aliases folded in. "intensity" values from older
// payloads use the same scale.
var activityRanks = map[string]int{
	"calm":      0,
	"low":       0,
	"quiet":     0,
	"moderate":  1,
	"medium":    1,
	"active":    2,
	"busy":      2,
	"energetic": 3,
	"high":      4,
	"intense":   4,
	"frantic":   4,
}

// ActivityRank maps an activity level to its position on the ordinal scale.
// The second result is false for unknown or unrecognized values.
func ActivityRank(level string) (int, bool) {
	rank, ok := activityRanks[strings.ToLower(strings.TrimSpace(level))]
	return rank, ok
}

// ActivityDistance returns the absolute ordinal distance between two activity
// levels. When either side is unknown the distance is reported as 0 so that
// missing data never manufactures a scene boundary.
func ActivityDistance(a, b string) int {
	rankA, okA := ActivityRank(a)
	rankB, okB := ActivityRank(b)
	if !okA || !okB {
		return 0
	}
	if rankA > rankB {
		return rankA - rankB
	}
	return rankB - rankA
}
