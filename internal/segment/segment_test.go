package segment

import (
	"errors"
	"testing"

	"soundleaf/internal/descriptor"
	"soundleaf/internal/services"
)

func page(setting, mood, activity string) descriptor.Set {
	set := descriptor.Neutral()
	set.Setting = setting
	set.Mood = mood
	set.ActivityLevel = activity
	return set
}

func TestDetectBoundariesFirstPageAlways(t *testing.T) {
	boundaries := DetectBoundaries([]descriptor.Set{page("forest", "calm", "low")})
	if len(boundaries) != 1 || boundaries[0] != 1 {
		t.Fatalf("expected [1], got %v", boundaries)
	}
}

func TestDetectBoundariesEmptyInput(t *testing.T) {
	if boundaries := DetectBoundaries(nil); boundaries != nil {
		t.Fatalf("expected nil for empty input, got %v", boundaries)
	}
}

func TestDetectBoundariesSettingChange(t *testing.T) {
	boundaries := DetectBoundaries([]descriptor.Set{
		page("forest", "calm", "low"),
		page("forest", "calm", "low"),
		page("castle", "calm", "low"),
	})
	want := []int{1, 3}
	assertBoundaries(t, boundaries, want)
}

func TestDetectBoundariesMoodChange(t *testing.T) {
	boundaries := DetectBoundaries([]descriptor.Set{
		page("forest", "calm", "low"),
		page("forest", "tense", "low"),
	})
	assertBoundaries(t, boundaries, []int{1, 2})
}

func TestDetectBoundariesActivityJump(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want []int
	}{
		{"one level stays", "calm", "moderate", []int{1}},
		{"two levels split", "calm", "active", []int{1, 2}},
		{"four levels split", "calm", "frantic", []int{1, 2}},
		{"unranked stays", "calm", "wild", []int{1}},
		{"unknown stays", "unknown", "frantic", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boundaries := DetectBoundaries([]descriptor.Set{
				page("forest", "calm", tt.from),
				page("forest", "calm", tt.to),
			})
			assertBoundaries(t, boundaries, tt.want)
		})
	}
}

func TestDetectBoundariesUnknownNeverSplits(t *testing.T) {
	boundaries := DetectBoundaries([]descriptor.Set{
		page("forest", "calm", "low"),
		page(descriptor.Unknown, descriptor.Unknown, descriptor.Unknown),
		page("forest", "calm", "low"),
	})
	assertBoundaries(t, boundaries, []int{1})
}

// Pages 1-3 share a quiet forest, page 4 moves indoors, pages 5-6 turn tense.
func TestDetectBoundariesMixedNarrative(t *testing.T) {
	boundaries := DetectBoundaries([]descriptor.Set{
		page("forest", "peaceful", "calm"),
		page("forest", "peaceful", "calm"),
		page("forest", "peaceful", "moderate"),
		page("tavern", "peaceful", "moderate"),
		page("tavern", "tense", "active"),
		page("tavern", "tense", "frantic"),
	})
	assertBoundaries(t, boundaries, []int{1, 4, 5})
}

func TestBuildScenesPartition(t *testing.T) {
	descriptors := []descriptor.Set{
		page("forest", "peaceful", "calm"),
		page("forest", "peaceful", "calm"),
		page("tavern", "tense", "active"),
		page("tavern", "tense", "active"),
		page("cave", "ominous", "low"),
	}
	scenes, err := BuildScenes(descriptors, []int{1, 3, 5})
	if err != nil {
		t.Fatalf("BuildScenes: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}

	// Scenes must partition 1..5 without gaps or overlap.
	expected := []struct{ number, start, end int }{
		{1, 1, 2},
		{2, 3, 4},
		{3, 5, 5},
	}
	for i, want := range expected {
		got := scenes[i]
		if got.SceneNumber != want.number || got.StartPage != want.start || got.EndPage != want.end {
			t.Fatalf("scene %d: got %+v, want %+v", i, got, want)
		}
	}
	if scenes[0].Descriptors.Setting != "forest" || scenes[2].Descriptors.Setting != "cave" {
		t.Fatalf("scene descriptors not taken from first page: %+v", scenes)
	}
	if scenes[1].PageCount() != 2 {
		t.Fatalf("expected page count 2, got %d", scenes[1].PageCount())
	}
}

func TestBuildScenesSingleScene(t *testing.T) {
	descriptors := []descriptor.Set{
		page("forest", "peaceful", "calm"),
		page("forest", "peaceful", "calm"),
	}
	scenes, err := BuildScenes(descriptors, []int{1})
	if err != nil {
		t.Fatalf("BuildScenes: %v", err)
	}
	if len(scenes) != 1 || scenes[0].StartPage != 1 || scenes[0].EndPage != 2 {
		t.Fatalf("unexpected scenes: %+v", scenes)
	}
}

func TestBuildScenesRejectsMalformedBoundaries(t *testing.T) {
	descriptors := []descriptor.Set{
		page("forest", "peaceful", "calm"),
		page("tavern", "tense", "active"),
		page("cave", "ominous", "low"),
	}
	tests := []struct {
		name       string
		boundaries []int
	}{
		{"empty", nil},
		{"missing page one", []int{2, 3}},
		{"duplicate", []int{1, 2, 2}},
		{"unsorted", []int{1, 3, 2}},
		{"out of range", []int{1, 4}},
		{"below range", []int{1, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildScenes(descriptors, tt.boundaries)
			if !errors.Is(err, services.ErrInvalidBoundary) {
				t.Fatalf("expected invalid boundary error, got %v", err)
			}
		})
	}
}

func TestBuildScenesNoPages(t *testing.T) {
	_, err := BuildScenes(nil, []int{1})
	if !errors.Is(err, services.ErrInvalidBoundary) {
		t.Fatalf("expected invalid boundary error, got %v", err)
	}
}

// Round trip: detection output always satisfies the builder's invariants.
func TestDetectThenBuildCoversAllPages(t *testing.T) {
	descriptors := []descriptor.Set{
		page("forest", "peaceful", "calm"),
		page("castle", "tense", "active"),
		page("castle", "tense", "active"),
		page("castle", "somber", "low"),
		page("harbor", "somber", "low"),
	}
	scenes, err := BuildScenes(descriptors, DetectBoundaries(descriptors))
	if err != nil {
		t.Fatalf("BuildScenes: %v", err)
	}
	next := 1
	for _, scene := range scenes {
		if scene.StartPage != next {
			t.Fatalf("gap before scene %d: start %d, want %d", scene.SceneNumber, scene.StartPage, next)
		}
		next = scene.EndPage + 1
	}
	if next != len(descriptors)+1 {
		t.Fatalf("scenes end at %d, want %d", next-1, len(descriptors))
	}
}

func assertBoundaries(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("boundaries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("boundaries = %v, want %v", got, want)
		}
	}
}
