// Package segment turns an ordered sequence of per-page descriptor sets into
// scene boundaries and contiguous scenes.
//
// Detection is a deterministic order-dependent scan over consecutive pairs;
// there is no global optimization because scenes must remain contiguous page
// ranges.
package segment

import (
	"soundleaf/internal/descriptor"
)

// activityJumpThreshold is the ordinal distance on the 5-point activity scale
// that signals a boundary. A change of exactly one level is treated as
// classifier noise and does not open a new scene.
const activityJumpThreshold = 2

// DetectBoundaries walks consecutive descriptor pairs and returns the sorted
// 1-based page numbers where a new scene starts. Page 1 is always a boundary.
//
// A boundary is raised when setting changed, mood changed, or the activity
// level jumped by two or more ordinal steps. Fields carrying the unknown
// sentinel never count as a change so that fallback descriptors from failed
// classifications do not fragment the scene sequence.
func DetectBoundaries(descriptors []descriptor.Set) []int {
	if len(descriptors) == 0 {
		return nil
	}
	boundaries := []int{1}
	for i := 1; i < len(descriptors); i++ {
		if isBoundary(descriptors[i-1], descriptors[i]) {
			boundaries = append(boundaries, i+1)
		}
	}
	return boundaries
}

func isBoundary(prev, next descriptor.Set) bool {
	if fieldChanged(prev.Setting, next.Setting) {
		return true
	}
	if fieldChanged(prev.Mood, next.Mood) {
		return true
	}
	return descriptor.ActivityDistance(prev.ActivityLevel, next.ActivityLevel) >= activityJumpThreshold
}

func fieldChanged(prev, next string) bool {
	if prev == descriptor.Unknown || next == descriptor.Unknown {
		return false
	}
	return prev != next
}
