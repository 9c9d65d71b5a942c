package story

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/weiluo/roamstory/internal/infra/llm/chatgpt"
	"github.com/weiluo/roamstory/internal/infra/places/amap"
	"github.com/weiluo/roamstory/pkg/metrics"
)

// PointOfInterest is a named, geolocated place anchoring one scene. Instances
// are built fresh per request and never persisted.
type PointOfInterest struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Address string  `json:"address,omitempty"`
}

// Usable reports whether the POI can anchor a scene. The provider uses (0,0)
// as a null coordinate, so such entries count as absent.
func (p PointOfInterest) Usable() bool {
	if strings.TrimSpace(p.Name) == "" {
		return false
	}
	return p.Lng != 0 || p.Lat != 0
}

// Scene is one step of an arc. It owns its POI snapshot by value so the arc
// stays valid even if the source POI list changes later.
type Scene struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	TimeOfDay       string          `json:"timeOfDay,omitempty"`
	POI             PointOfInterest `json:"poi"`
	Shot            string          `json:"shot"`
	Narration       string          `json:"narration"`
	Task            string          `json:"task"`
	Tip             string          `json:"tip,omitempty"`
	DurationMinutes float64         `json:"durationMinutes,omitempty"`
}

// Arc is the generated narrative itinerary returned to clients.
type Arc struct {
	ID      string  `json:"id"`
	City    string  `json:"city"`
	Theme   string  `json:"theme"`
	Title   string  `json:"title"`
	Logline string  `json:"logline"`
	Summary string  `json:"summary,omitempty"`
	Scenes  []Scene `json:"scenes"`

	// TokenUsage is set only when the arc came from the model branch and the
	// provider reported token counts.
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Location is a geographic anchor. It accepts either a "lng,lat" string or a
// {"lng":..,"lat":..} object on the wire.
type Location struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// UnmarshalJSON implements the dual wire shape.
func (l *Location) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			return nil
		}
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLng != nil || errLat != nil {
			return nil
		}
		l.Lng, l.Lat = lng, lat
		return nil
	}
	type plain Location
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// Valid reports whether the anchor carries a usable coordinate.
func (l *Location) Valid() bool {
	if l == nil {
		return false
	}
	return l.Lng != 0 || l.Lat != 0
}

// Request is the inbound payload for arc generation. Every field is optional;
// the service supplies defaults.
type Request struct {
	City       string    `json:"city"`
	Theme      string    `json:"theme"`
	Keyword    string    `json:"keyword"`
	Location   *Location `json:"location"`
	Radius     int       `json:"radius"`
	SceneCount int       `json:"sceneCount"`
}

// PlacesClient is the outbound boundary to the place-search provider.
type PlacesClient interface {
	SearchText(ctx context.Context, city, keyword string) ([]amap.Place, error)
	SearchAround(ctx context.Context, lng, lat float64, keyword string, radiusMeters int) ([]amap.Place, error)
}

// ChatClient is the outbound boundary to the text-generation provider. The
// raw payload is returned because relays disagree about response nesting.
type ChatClient interface {
	Complete(ctx context.Context, req chatgpt.ChatCompletionRequest) (json.RawMessage, error)
}

// Config tunes the generation pipeline.
type Config struct {
	Model           string
	Temperature     float32
	MaxPromptTokens int
	DefaultCity     string
	DefaultTheme    string
	DefaultRadius   int
}
