package story

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// arcCandidate is the loosely-typed shape the composer's LLM branch produces.
// Fields are `any` because the model may emit strings where numbers belong
// and vice versa; the normalizer coerces them field by field.
type arcCandidate struct {
	ID      any              `json:"id"`
	City    any              `json:"city"`
	Theme   any              `json:"theme"`
	Title   any              `json:"title"`
	Logline any              `json:"logline"`
	Summary any              `json:"summary"`
	Scenes  []sceneCandidate `json:"scenes"`
}

type sceneCandidate struct {
	ID              any           `json:"id"`
	Title           any           `json:"title"`
	TimeOfDay       any           `json:"timeOfDay"`
	POI             *poiCandidate `json:"poi"`
	Shot            any           `json:"shot"`
	Narration       any           `json:"narration"`
	Task            any           `json:"task"`
	Tip             any           `json:"tip"`
	DurationMinutes any           `json:"durationMinutes"`
}

type poiCandidate struct {
	ID      any `json:"id"`
	Name    any `json:"name"`
	Lng     any `json:"lng"`
	Lat     any `json:"lat"`
	Address any `json:"address"`
}

// normalizeArc repairs a composer candidate into the strict schema, filling
// every missing or uncoercible field from the template arc. Candidate scenes
// are matched to template scenes positionally, clamping to the last template
// scene when the candidate runs longer. The result always has exactly as many
// scenes as the template.
func normalizeArc(candidate *arcCandidate, tmpl Arc) Arc {
	if candidate == nil || len(candidate.Scenes) == 0 {
		return tmpl
	}

	out := Arc{
		ID:      coerceString(candidate.ID, tmpl.ID),
		City:    coerceString(candidate.City, tmpl.City),
		Theme:   coerceString(candidate.Theme, tmpl.Theme),
		Title:   coerceString(candidate.Title, tmpl.Title),
		Logline: coerceString(candidate.Logline, tmpl.Logline),
		Summary: coerceString(candidate.Summary, tmpl.Summary),
	}

	limit := len(candidate.Scenes)
	if limit > len(tmpl.Scenes) {
		limit = len(tmpl.Scenes)
	}
	out.Scenes = make([]Scene, 0, len(tmpl.Scenes))
	for i := 0; i < limit; i++ {
		out.Scenes = append(out.Scenes, normalizeScene(candidate.Scenes[i], tmpl.Scenes[i]))
	}
	// Candidate came up short: the template supplies the remaining scenes so
	// the arc keeps the promised scene count.
	for i := limit; i < len(tmpl.Scenes); i++ {
		out.Scenes = append(out.Scenes, tmpl.Scenes[i])
	}
	return out
}

func normalizeScene(candidate sceneCandidate, ref Scene) Scene {
	scene := Scene{
		ID:              coerceString(candidate.ID, ref.ID),
		Title:           coerceString(candidate.Title, ref.Title),
		TimeOfDay:       coerceString(candidate.TimeOfDay, ref.TimeOfDay),
		Shot:            coerceString(candidate.Shot, ref.Shot),
		Narration:       coerceString(candidate.Narration, ref.Narration),
		Task:            coerceString(candidate.Task, ref.Task),
		Tip:             coerceString(candidate.Tip, ref.Tip),
		DurationMinutes: coerceNumber(candidate.DurationMinutes, ref.DurationMinutes),
	}
	if candidate.POI == nil {
		scene.POI = ref.POI
		return scene
	}
	scene.POI = PointOfInterest{
		ID:      coerceString(candidate.POI.ID, ref.POI.ID),
		Name:    coerceString(candidate.POI.Name, ref.POI.Name),
		Lng:     coerceNumber(candidate.POI.Lng, ref.POI.Lng),
		Lat:     coerceNumber(candidate.POI.Lat, ref.POI.Lat),
		Address: coerceString(candidate.POI.Address, ref.POI.Address),
	}
	return scene
}

// coerceString renders a candidate value as a non-empty string, else returns
// the fallback. Numbers are formatted rather than discarded.
func coerceString(value any, fallback string) string {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return fallback
}

// coerceNumber renders a candidate value as a finite float64, else returns
// the fallback. A non-finite fallback collapses to 0.
func coerceNumber(value any, fallback float64) float64 {
	if math.IsNaN(fallback) || math.IsInf(fallback, 0) {
		fallback = 0
	}
	switch v := value.(type) {
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return parsed
		}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
			return parsed
		}
	case int:
		return float64(v)
	}
	return fallback
}
