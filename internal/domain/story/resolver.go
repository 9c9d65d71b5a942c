package story

import (
	"context"
	"strings"

	"github.com/weiluo/roamstory/internal/infra/places/amap"
)

// themeKeywords maps itinerary themes to the provider search keyword that
// tends to surface matching places.
var themeKeywords = map[string]string{
	"夜景":       "夜景",
	"美食":       "美食",
	"文艺":       "文艺小店",
	"亲子":       "亲子乐园",
	"自然":       "公园",
	"历史":       "历史古迹",
	"citywalk": "街区",
}

const genericKeyword = "景点"

// fallbackPois is the built-in POI table used when the provider is
// unreachable or returns nothing. It has no external dependency, which is
// what makes the whole pipeline total.
var fallbackPois = []PointOfInterest{
	{ID: "fallback_1", Name: "故宫", Lng: 116.397, Lat: 39.918, Address: "北京市东城区景山前街4号"},
	{ID: "fallback_2", Name: "景山公园", Lng: 116.395, Lat: 39.928, Address: "北京市西城区景山西街44号"},
	{ID: "fallback_3", Name: "南锣鼓巷", Lng: 116.403, Lat: 39.937, Address: "北京市东城区南锣鼓巷"},
	{ID: "fallback_4", Name: "什刹海", Lng: 116.384, Lat: 39.94, Address: "北京市西城区地安门西大街49号"},
	{ID: "fallback_5", Name: "角楼咖啡", Lng: 116.398, Lat: 39.913, Address: "北京市东城区东华门大街"},
}

// resolveKeyword picks the effective search keyword: an explicit keyword
// wins, then the theme table, then the generic fallback.
func resolveKeyword(theme, keyword string) string {
	if kw := strings.TrimSpace(keyword); kw != "" {
		return kw
	}
	if kw, ok := themeKeywords[strings.TrimSpace(theme)]; ok {
		return kw
	}
	return genericKeyword
}

// resolvePois asks the places provider for candidates. Provider failure is a
// warning, not an error: an empty slice tells the caller to substitute the
// built-in table.
func (s *service) resolvePois(ctx context.Context, city, theme, keyword string, anchor *Location, radius int) []PointOfInterest {
	if s.places == nil {
		return nil
	}
	kw := resolveKeyword(theme, keyword)

	var (
		places []amap.Place
		err    error
	)
	if anchor.Valid() {
		places, err = s.places.SearchAround(ctx, anchor.Lng, anchor.Lat, kw, radius)
	} else {
		places, err = s.places.SearchText(ctx, city, kw)
	}
	if err != nil {
		s.logger.Warn("poi search failed, will use built-in table", "city", city, "keyword", kw, "error", err)
		return nil
	}

	out := make([]PointOfInterest, 0, len(places))
	for _, place := range places {
		poi := PointOfInterest{
			ID:      place.ID,
			Name:    place.Name,
			Lng:     place.Lng,
			Lat:     place.Lat,
			Address: place.Address,
		}
		if !poi.Usable() {
			continue
		}
		out = append(out, poi)
	}
	return out
}

// defaultPois returns a copy of the fallback table so callers can mutate
// their slice freely.
func defaultPois() []PointOfInterest {
	out := make([]PointOfInterest, len(fallbackPois))
	copy(out, fallbackPois)
	return out
}
