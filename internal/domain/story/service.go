package story

import (
	"context"
	"log/slog"
	"strings"
)

// Service generates narrative itineraries. The single operation is total: it
// always returns a well-formed arc, substituting deterministic fallbacks for
// any upstream failure.
type Service interface {
	GenerateArc(ctx context.Context, req Request) (Arc, error)
}

type service struct {
	cfg    Config
	places PlacesClient
	chat   ChatClient
	logger *slog.Logger
}

// NewService wires up the story domain. Both clients may be nil: a nil places
// client pins the pipeline to the built-in POI table, a nil chat client pins
// it to the template branch.
func NewService(cfg Config, places PlacesClient, chat ChatClient, logger *slog.Logger) Service {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "北京"
	}
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = "citywalk"
	}
	return &service{
		cfg:    cfg,
		places: places,
		chat:   chat,
		logger: logger.With("component", "story.service"),
	}
}

// GenerateArc walks the pipeline: resolve POIs, compose, normalize. Each
// stage degrades independently, so the returned error is always nil; the
// signature keeps the error slot for interface symmetry with the other
// domains.
func (s *service) GenerateArc(ctx context.Context, req Request) (Arc, error) {
	city := firstNonEmpty(strings.TrimSpace(req.City), s.cfg.DefaultCity)
	theme := firstNonEmpty(strings.TrimSpace(req.Theme), s.cfg.DefaultTheme)
	sceneCount := ClampSceneCount(req.SceneCount)

	radius := req.Radius
	if radius <= 0 {
		radius = s.cfg.DefaultRadius
	}

	pois := s.resolvePois(ctx, city, theme, req.Keyword, req.Location, radius)
	if len(pois) == 0 {
		pois = defaultPois()
	}

	tmpl := templateArc(city, theme, pois, sceneCount)
	candidate, usage, ok := s.composeWithModel(ctx, city, theme, pois, sceneCount)
	if !ok {
		return tmpl, nil
	}
	arc := normalizeArc(candidate, tmpl)
	arc.TokenUsage = usage
	return arc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
