package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherUnreachableEndpointIsContained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	out := NewWeather("key", addr, time.Second).Invoke(context.Background(), "Lisbon")
	assert.True(t, strings.HasPrefix(out, "Unable to get weather for Lisbon: Failed to fetch weather"), out)
}

func TestWeatherUnexpectedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Lisbon"}`))
	}))
	defer srv.Close()

	out := NewWeather("key", srv.URL, time.Second).Invoke(context.Background(), "Lisbon")
	assert.Contains(t, out, "Unable to get weather for Lisbon: Unexpected API response format: missing main, sys, weather, wind")
}

func TestWeatherFormatsReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Porto", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{
			"name": "Porto",
			"sys": {"country": "PT"},
			"main": {"temp": 18.46, "feels_like": 17.9, "humidity": 72},
			"weather": [{"description": "scattered clouds"}],
			"wind": {"speed": 4.6}
		}`))
	}))
	defer srv.Close()

	out := NewWeather("secret", srv.URL, time.Second).Invoke(context.Background(), " Porto ")
	assert.Equal(t, "Current weather in Porto, PT:\n- Temperature: 18.5°C (feels like 17.9°C)\n- Conditions: scattered clouds\n- Humidity: 72%\n- Wind speed: 4.6 m/s", out)
}

func TestWeatherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"city not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	out := NewWeather("key", srv.URL, time.Second).Invoke(context.Background(), "Atlantis")
	assert.Equal(t, "Unable to get weather for Atlantis: Failed to fetch weather: 404 Not Found", out)
}

func TestRecommend(t *testing.T) {
	cases := map[string]string{
		"Sunny":           "- Visit outdoor attractions and parks",
		"clear sky":       "- Photography excursions",
		"overcast clouds": "- Museum visits",
		"broken clouds":   "- Architecture walking tour",
		"light rain":      "- Cooking classes",
		"heavy snow":      "- Ice skating",
	}
	for desc, want := range cases {
		out := Recommend(desc)
		assert.True(t, strings.HasPrefix(out, "Recommended activities for "+desc+" weather:\n"), out)
		assert.Contains(t, out, want)
	}

	assert.Equal(t, "For foggy weather, consider checking indoor and outdoor options based on comfort level.", Recommend("foggy"))
	assert.Equal(t, "For cloudy weather, consider checking indoor and outdoor options based on comfort level.", Recommend("cloudy"))
}

func TestSearchCollectsSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go generics", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`<html><body>
			<div class="result"><a class="result__a">Generics tutorial</a><a class="result__snippet">Type parameters in   Go.</a></div>
			<div class="result"><a class="result__a">Reference</a><a class="result__snippet">The language reference.</a></div>
		</body></html>`))
	}))
	defer srv.Close()

	out := NewSearch(srv.URL, 100).Invoke(context.Background(), "go generics")
	assert.Equal(t, "Generics tutorial: Type parameters in Go.\nReference: The language reference.", out)
}

func TestSearchFailuresAreText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewSearch(srv.URL, 100)
	assert.Equal(t, `Search failed for "x": received status code 503`, s.Invoke(context.Background(), "x"))
	assert.Equal(t, `Search failed for "": query is empty`, s.Invoke(context.Background(), "  "))
}

func TestRegistry(t *testing.T) {
	fail := Func{ToolName: "Broken", ToolDescription: "always fails", Fn: func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	}}
	panics := Func{ToolName: "Panicky", ToolDescription: "panics", Fn: func(context.Context, string) (string, error) {
		panic("bad state")
	}}

	r, err := NewRegistry(NewTravel(), fail, panics)
	require.NoError(t, err)
	assert.Equal(t, []string{"TravelRecommendation", "Broken", "Panicky"}, r.Names())
	assert.Equal(t, 3, r.Len())
	assert.Contains(t, r.Describe(), "Broken: always fails")

	got, ok := r.Lookup("travelrecommendation")
	require.True(t, ok)
	assert.Equal(t, TravelToolName, got.Name())

	_, ok = r.Lookup("Calculator")
	assert.False(t, ok)

	assert.Equal(t, "Broken failed: boom", fail.Invoke(context.Background(), ""))
	assert.Equal(t, "Panicky failed: panic: bad state", panics.Invoke(context.Background(), ""))

	_, err = NewRegistry(NewTravel(), NewTravel())
	assert.ErrorIs(t, err, ErrDuplicateTool)
}
