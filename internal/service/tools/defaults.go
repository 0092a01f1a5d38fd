package tools

import "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/config"

// NewDefaultRegistry wires WebSearch, WeatherLookup and TravelRecommendation.
func NewDefaultRegistry(cfg config.ToolsConfig) (*Registry, error) {
	return NewRegistry(
		NewSearch(cfg.SearchURL, cfg.SearchRate),
		NewWeather(cfg.WeatherAPIKey, cfg.WeatherURL, cfg.WeatherTimeout),
		NewTravel(),
	)
}
