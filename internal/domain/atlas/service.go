// Package atlas exposes raw point-of-interest browsing, sharing the places
// provider with the story pipeline.
package atlas

import (
	"context"
	"log/slog"
	"strings"

	"github.com/weiluo/roamstory/internal/infra/places/amap"
	apperrors "github.com/weiluo/roamstory/pkg/errors"
)

const (
	defaultRadius = 3000
	maxRadius     = 50_000
)

// PlacesClient is the provider surface the atlas needs.
type PlacesClient interface {
	SearchText(ctx context.Context, city, keyword string) ([]amap.Place, error)
	SearchAround(ctx context.Context, lng, lat float64, keyword string, radiusMeters int) ([]amap.Place, error)
}

// Query describes a POI lookup. When Lng/Lat are set the search is anchored
// there, otherwise it is a city-wide keyword search.
type Query struct {
	City    string
	Keyword string
	Lng     *float64
	Lat     *float64
	Radius  int
}

// Service answers POI searches.
type Service interface {
	Search(ctx context.Context, q Query) ([]amap.Place, error)
}

type service struct {
	places PlacesClient
	logger *slog.Logger
}

// NewService constructs the atlas. places may be nil when no provider key is
// configured; searches then report the feature as unavailable.
func NewService(places PlacesClient, logger *slog.Logger) Service {
	return &service{places: places, logger: logger.With("component", "atlas.service")}
}

func (s *service) Search(ctx context.Context, q Query) ([]amap.Place, error) {
	if s.places == nil {
		return nil, apperrors.Wrap("places_unavailable", "places provider is not configured", nil)
	}
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return nil, apperrors.Wrap("invalid_input", "keyword cannot be empty", nil)
	}
	if q.Lng != nil && q.Lat != nil {
		radius := q.Radius
		if radius <= 0 {
			radius = defaultRadius
		}
		if radius > maxRadius {
			radius = maxRadius
		}
		places, err := s.places.SearchAround(ctx, *q.Lng, *q.Lat, keyword, radius)
		if err != nil {
			return nil, apperrors.Wrap("places_error", "around search failed", err)
		}
		return places, nil
	}
	city := strings.TrimSpace(q.City)
	if city == "" {
		return nil, apperrors.Wrap("invalid_input", "city is required without an anchor", nil)
	}
	places, err := s.places.SearchText(ctx, city, keyword)
	if err != nil {
		return nil, apperrors.Wrap("places_error", "keyword search failed", err)
	}
	return places, nil
}
