package amap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient("test-key", server.URL, 0)
	require.NoError(t, err)
	return client
}

func TestSearchTextRawPoisShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/place/text", r.URL.Path)
		require.Equal(t, "夜景", r.URL.Query().Get("keywords"))
		require.Equal(t, "北京", r.URL.Query().Get("city"))
		w.Write([]byte(`{
			"status": "1",
			"pois": [
				{"id": "B01", "name": "什刹海", "location": "116.384,39.94", "address": "西城区"},
				{"id": "B02", "name": "坏坐标", "location": "0,0", "address": []},
				{"id": "B03", "name": "没坐标", "location": "not,numbers"}
			]
		}`))
	})

	places, err := client.SearchText(context.Background(), "北京", "夜景")
	require.NoError(t, err)
	require.Len(t, places, 1)
	require.Equal(t, "什刹海", places[0].Name)
	require.Equal(t, 116.384, places[0].Lng)
	require.Equal(t, 39.94, places[0].Lat)
	require.Equal(t, "西城区", places[0].Address)
}

func TestSearchAroundItemsShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/place/around", r.URL.Path)
		require.Equal(t, "116.390000,39.900000", r.URL.Query().Get("location"))
		require.Equal(t, "500", r.URL.Query().Get("radius"))
		w.Write([]byte(`{
			"status": "1",
			"items": [
				{"id": "a", "name": "故宫", "lng": 116.397, "lat": 39.918},
				{"id": "b", "name": "原点", "lng": 0, "lat": 0}
			]
		}`))
	})

	places, err := client.SearchAround(context.Background(), 116.39, 39.90, "景点", 500)
	require.NoError(t, err)
	require.Len(t, places, 1)
	require.Equal(t, "故宫", places[0].Name)
}

func TestSearchRejectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","info":"INVALID_USER_KEY"}`))
	})

	_, err := client.SearchText(context.Background(), "北京", "景点")
	require.Error(t, err)
	require.Contains(t, err.Error(), "INVALID_USER_KEY")
}

func TestParseLocation(t *testing.T) {
	cases := []struct {
		raw  string
		ok   bool
		lng  float64
		lat  float64
		name string
	}{
		{raw: "116.39,39.90", ok: true, lng: 116.39, lat: 39.90, name: "valid pair"},
		{raw: "0,0", ok: false, name: "null island filtered"},
		{raw: "116.39", ok: false, name: "single component"},
		{raw: "abc,def", ok: false, name: "non numeric"},
		{raw: " 121.47 , 31.23 ", ok: true, lng: 121.47, lat: 31.23, name: "padded"},
		{raw: "500,100", ok: false, name: "out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lng, lat, ok := parseLocation(tc.raw)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.lng, lng)
				require.Equal(t, tc.lat, lat)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("  ", "", 0)
	require.Error(t, err)
}
