package segment

import (
	"fmt"

	"soundleaf/internal/descriptor"
	"soundleaf/internal/services"
)

// Scene is a contiguous page range sharing one representative descriptor set.
type Scene struct {
	SceneNumber int
	StartPage   int
	EndPage     int
	Descriptors descriptor.Set
}

// PageCount returns the number of pages the scene spans.
func (s Scene) PageCount() int {
	return s.EndPage - s.StartPage + 1
}

// BuildScenes converts boundary page numbers into scenes covering the whole
// page sequence. Each scene ends one page before the next boundary; the final
// scene runs to the last page. The representative descriptors are taken from
// the scene's first page.
//
// Boundaries must be strictly increasing, start at page 1, and stay within
// the page range; anything else is rejected with an invalid boundary error so
// a malformed sequence never produces gapped or overlapping scenes.
func BuildScenes(descriptors []descriptor.Set, boundaries []int) ([]Scene, error) {
	if len(descriptors) == 0 {
		return nil, services.Wrap(services.ErrInvalidBoundary, "analyzing", "build_scenes", "no pages to segment", nil)
	}
	if err := validateBoundaries(boundaries, len(descriptors)); err != nil {
		return nil, err
	}

	scenes := make([]Scene, 0, len(boundaries))
	for i, start := range boundaries {
		end := len(descriptors)
		if i+1 < len(boundaries) {
			end = boundaries[i+1] - 1
		}
		scenes = append(scenes, Scene{
			SceneNumber: i + 1,
			StartPage:   start,
			EndPage:     end,
			Descriptors: descriptors[start-1],
		})
	}
	return scenes, nil
}

func validateBoundaries(boundaries []int, pageCount int) error {
	if len(boundaries) == 0 {
		return services.Wrap(services.ErrInvalidBoundary, "analyzing", "build_scenes", "boundary list is empty", nil)
	}
	if boundaries[0] != 1 {
		return services.Wrap(services.ErrInvalidBoundary, "analyzing", "build_scenes",
			fmt.Sprintf("first boundary must be page 1, got %d", boundaries[0]), nil)
	}
	for i, page := range boundaries {
		if page < 1 || page > pageCount {
			return services.Wrap(services.ErrInvalidBoundary, "analyzing", "build_scenes",
				fmt.Sprintf("boundary %d outside page range 1..%d", page, pageCount), nil)
		}
		if i > 0 && page <= boundaries[i-1] {
			return services.Wrap(services.ErrInvalidBoundary, "analyzing", "build_scenes",
				fmt.Sprintf("boundaries must be strictly increasing, got %d after %d", page, boundaries[i-1]), nil)
		}
	}
	return nil
}
