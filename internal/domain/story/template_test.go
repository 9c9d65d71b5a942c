package story

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampSceneCount(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: -3, want: 2},
		{in: 0, want: 2},
		{in: 1, want: 2},
		{in: 2, want: 2},
		{in: 3, want: 3},
		{in: 5, want: 5},
		{in: 6, want: 5},
		{in: 99, want: 5},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClampSceneCount(tc.in), "input %d", tc.in)
	}
}

func TestTemplateArcDeterministic(t *testing.T) {
	pois := defaultPois()

	first := templateArc("北京", "夜景", pois, 4)
	second := templateArc("北京", "夜景", pois, 4)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, string(a), string(b))
}

func TestTemplateArcShape(t *testing.T) {
	pois := defaultPois()
	arc := templateArc("北京", "美食", pois, 5)

	require.Len(t, arc.Scenes, 5)
	require.Equal(t, "北京", arc.City)
	require.Equal(t, "美食", arc.Theme)
	require.NotEmpty(t, arc.Title)
	require.NotEmpty(t, arc.Logline)

	for i, scene := range arc.Scenes {
		require.Equal(t, timeOfDayCycle[i%len(timeOfDayCycle)], scene.TimeOfDay)
		require.NotEmpty(t, scene.POI.Name)
		require.NotEmpty(t, scene.Shot)
		require.NotEmpty(t, scene.Narration)
		require.NotEmpty(t, scene.Task)
		require.Equal(t, float64(templateSceneMinutes), scene.DurationMinutes)
	}
}

func TestTemplateArcWrapsShortPoiList(t *testing.T) {
	pois := []PointOfInterest{{ID: "only", Name: "外滩", Lng: 121.49, Lat: 31.24}}
	arc := templateArc("上海", "夜景", pois, 3)

	require.Len(t, arc.Scenes, 3)
	for _, scene := range arc.Scenes {
		require.Equal(t, "外滩", scene.POI.Name)
	}
}
