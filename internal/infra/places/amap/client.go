package amap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://restapi.amap.com/v3"
	defaultLimit   = 20
)

// Place is a normalized point-of-interest record returned by the provider.
type Place struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Address string  `json:"address,omitempty"`
}

// Client talks to the Amap place-search web service.
type Client struct {
	key        string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a places client. The API key is required.
func NewClient(key, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("amap api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		key:        key,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SearchText performs a city-scoped keyword search.
func (c *Client) SearchText(ctx context.Context, city, keyword string) ([]Place, error) {
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("city", city)
	params.Set("citylimit", "true")
	return c.search(ctx, "/place/text", params)
}

// SearchAround performs a radius search centered on an anchor coordinate.
func (c *Client) SearchAround(ctx context.Context, lng, lat float64, keyword string, radiusMeters int) ([]Place, error) {
	if radiusMeters <= 0 {
		radiusMeters = 3000
	}
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("location", fmt.Sprintf("%.6f,%.6f", lng, lat))
	params.Set("radius", strconv.Itoa(radiusMeters))
	return c.search(ctx, "/place/around", params)
}

func (c *Client) search(ctx context.Context, path string, params url.Values) ([]Place, error) {
	params.Set("key", c.key)
	params.Set("offset", strconv.Itoa(defaultLimit))
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build place search request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("place search failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read place search response: %w", err)
	}
	return decodePlaces(body)
}

// searchResponse tolerates both response shapes the proxy layer may hand us:
// an already-normalized "items" list, or the raw provider "pois" list where
// the coordinate is a single "lng,lat" string.
type searchResponse struct {
	Status string     `json:"status"`
	Info   string     `json:"info"`
	Items  []Place    `json:"items"`
	Pois   []rawPlace `json:"pois"`
}

type rawPlace struct {
	ID       flexString `json:"id"`
	Name     flexString `json:"name"`
	Location flexString `json:"location"`
	Address  flexString `json:"address"`
}

// flexString absorbs the provider's habit of returning [] instead of "" for
// absent string fields.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || trimmed == "[]" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = ""
	return nil
}

func decodePlaces(body []byte) ([]Place, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode place search response: %w", err)
	}
	if resp.Status == "0" {
		return nil, fmt.Errorf("place search rejected: %s", resp.Info)
	}

	if len(resp.Items) > 0 {
		out := make([]Place, 0, len(resp.Items))
		for _, item := range resp.Items {
			if !usableCoordinate(item.Lng, item.Lat) {
				continue
			}
			out = append(out, item)
		}
		return out, nil
	}

	out := make([]Place, 0, len(resp.Pois))
	for _, poi := range resp.Pois {
		lng, lat, ok := parseLocation(string(poi.Location))
		if !ok {
			continue
		}
		out = append(out, Place{
			ID:      string(poi.ID),
			Name:    string(poi.Name),
			Lng:     lng,
			Lat:     lat,
			Address: string(poi.Address),
		})
	}
	return out, nil
}

// parseLocation splits a "lng,lat" pair. Entries that do not parse to two
// finite numbers, or that sit at the (0,0) null island sentinel, are dropped.
func parseLocation(raw string) (lng, lat float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLng != nil || errLat != nil {
		return 0, 0, false
	}
	if !usableCoordinate(lng, lat) {
		return 0, 0, false
	}
	return lng, lat, true
}

func usableCoordinate(lng, lat float64) bool {
	if lng == 0 && lat == 0 {
		return false
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return false
	}
	return true
}
