// Package descriptor models the structured mood/setting annotation the
// classifier produces for a page or spread.
//
// Every field is always present; absence is represented by the literal value
// "unknown" rather than an optional type, preserving the "always present,
// sometimes unknown" contract of the classifier schema.
package descriptor

import "strings"

// Unknown is the sentinel value carried by any field the classifier could not
// determine.
const Unknown = "unknown"

// Set is the fixed descriptor schema produced per classification unit.
// DominantElements is a comma-separated phrase list; ActivityLevel is ordinal
// (calm < moderate < active < energetic < high).
type Set struct {
	Mood             string `json:"mood"`
	Setting          string `json:"setting"`
	TimeOfDay        string `json:"time_of_day"`
	Weather          string `json:"weather"`
	ActivityLevel    string `json:"activity_level"`
	Atmosphere       string `json:"atmosphere"`
	DominantElements string `json:"dominant_elements"`
	SceneType        string `json:"scene_type"`
}

// Neutral returns the fallback set substituted when classification fails.
func Neutral() Set {
	return Set{
		Mood:             Unknown,
		Setting:          Unknown,
		TimeOfDay:        Unknown,
		Weather:          Unknown,
		ActivityLevel:    Unknown,
		Atmosphere:       Unknown,
		DominantElements: "",
		SceneType:        Unknown,
	}
}

// Normalize lowercases and trims every field and replaces empties with the
// unknown sentinel. DominantElements keeps its comma structure but drops
// blank entries.
func (s Set) Normalize() Set {
	return Set{
		Mood:             normalizeField(s.Mood),
		Setting:          normalizeField(s.Setting),
		TimeOfDay:        normalizeField(s.TimeOfDay),
		Weather:          normalizeField(s.Weather),
		ActivityLevel:    normalizeField(s.ActivityLevel),
		Atmosphere:       normalizeField(s.Atmosphere),
		DominantElements: normalizeElements(s.DominantElements),
		SceneType:        normalizeField(s.SceneType),
	}
}

// Elements splits DominantElements on commas into trimmed lowercase phrases.
func (s Set) Elements() []string {
	if strings.TrimSpace(s.DominantElements) == "" {
		return nil
	}
	parts := strings.Split(s.DominantElements, ",")
	elements := make([]string, 0, len(parts))
	for _, part := range parts {
		cleaned := strings.ToLower(strings.TrimSpace(part))
		if cleaned == "" || cleaned == Unknown {
			continue
		}
		elements = append(elements, cleaned)
	}
	return elements
}

func normalizeField(value string) string {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return Unknown
	}
	return cleaned
}

func normalizeElements(value string) string {
	parts := strings.Split(value, ",")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		cleaned := strings.ToLower(strings.TrimSpace(part))
		if cleaned == "" || cleaned == Unknown {
			continue
		}
		kept = append(kept, cleaned)
	}
	return strings.Join(kept, ", ")
}
