package tools

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
	WeatherToolName       = "WeatherLookup"
	defaultWeatherURL     = "http://api.openweathermap.org/data/2.5/weather"
	defaultWeatherTimeout = 10 * time.Second

	weatherDescription = `Useful for getting current weather information for any city.
Input should be a city name (e.g., 'Paris', 'New York', 'Tokyo').
Returns current temperature, conditions, humidity, and wind speed.
Use this when users ask about weather or current conditions in a location.`
)

var (
	errFetchWeather   = errors.New("Failed to fetch weather")
	errWeatherPayload = errors.New("Unexpected API response format")
)

// Weather looks up current conditions through the OpenWeather API.
type Weather struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewWeather builds the weather tool. Empty baseURL and zero timeout select defaults.
func NewWeather(apiKey, baseURL string, timeout time.Duration) *Weather {
	if baseURL == "" {
		baseURL = defaultWeatherURL
	}
	if timeout <= 0 {
		timeout = defaultWeatherTimeout
	}
	return &Weather{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (w *Weather) Name() string        { return WeatherToolName }
func (w *Weather) Description() string { return weatherDescription }

// Invoke returns a formatted report or "Unable to get weather for <city>: <reason>".
func (w *Weather) Invoke(ctx context.Context, input string) string {
	city := strings.TrimSpace(input)
	return contain(ctx, WeatherToolName, city, w.report, func(err error) string {
		return fmt.Sprintf("Unable to get weather for %s: %v", city, err)
	})
}

// Conditions is the subset of the upstream payload the tool reports.
type Conditions struct {
	City        string
	Country     string
	Temperature float64
	FeelsLike   float64
	Humidity    int
	Description string
	WindSpeed   float64
}

func (c Conditions) String() string {
	return fmt.Sprintf("Current weather in %s, %s:\n- Temperature: %.1f°C (feels like %.1f°C)\n- Conditions: %s\n- Humidity: %d%%\n- Wind speed: %s m/s",
		c.City, c.Country, c.Temperature, c.FeelsLike, c.Description, c.Humidity,
		strconv.FormatFloat(c.WindSpeed, 'f', -1, 64))
}

func (w *Weather) report(ctx context.Context, city string) (string, error) {
	if city == "" {
		return "", fmt.Errorf("%w: city name is empty", errFetchWeather)
	}
	c, err := w.Fetch(ctx, city)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

type weatherPayload struct {
	Name string `json:"name"`
	Sys  *struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// Fetch queries the upstream API in metric units.
func (w *Weather) Fetch(ctx context.Context, city string) (Conditions, error) {
	endpoint, err := url.Parse(w.baseURL)
	if err != nil {
		return Conditions{}, fmt.Errorf("%w: %v", errFetchWeather, err)
	}
	q := endpoint.Query()
	q.Set("q", city)
	q.Set("appid", w.apiKey)
	q.Set("units", "metric")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("%w: %v", errFetchWeather, err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("%w: %v", errFetchWeather, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Conditions{}, fmt.Errorf("%w: %s", errFetchWeather, resp.Status)
	}

	var payload weatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Conditions{}, fmt.Errorf("%w: %v", errWeatherPayload, err)
	}
	return payload.conditions()
}

func (p weatherPayload) conditions() (Conditions, error) {
	missing := map[string]bool{}
	if p.Name == "" {
		missing["name"] = true
	}
	if p.Sys == nil {
		missing["sys"] = true
	}
	if p.Main == nil || p.Main.Temp == nil || p.Main.FeelsLike == nil || p.Main.Humidity == nil {
		missing["main"] = true
	}
	if len(p.Weather) == 0 {
		missing["weather"] = true
	}
	if p.Wind == nil || p.Wind.Speed == nil {
		missing["wind"] = true
	}
	if len(missing) > 0 {
		return Conditions{}, fmt.Errorf("%w: missing %s", errWeatherPayload, strings.Join(sortedKeys(missing), ", "))
	}
	return Conditions{
		City:        p.Name,
		Country:     p.Sys.Country,
		Temperature: *p.Main.Temp,
		FeelsLike:   *p.Main.FeelsLike,
		Humidity:    *p.Main.Humidity,
		Description: p.Weather[0].Description,
		WindSpeed:   *p.Wind.Speed,
	}, nil
}
