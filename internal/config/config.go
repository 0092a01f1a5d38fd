package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every service setting.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Agent     AgentConfig
	Database  DatabaseConfig
	Analytics AnalyticsConfig
	Tools     ToolsConfig
	Auth      AuthConfig
	Log       LogConfig
	SeedFile  string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	agent, err := loadAgentConfig()
	if err != nil {
		return nil, err
	}

	analytics, err := loadAnalyticsConfig()
	if err != nil {
		return nil, err
	}

	tools, err := loadToolsConfig()
	if err != nil {
		return nil, err
	}

	logMode := getEnvOrDefault("LOG_MODE", "dev")
	auth, err := loadAuthConfig(logMode)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Agent:     agent,
		Database:  loadDatabaseConfig(),
		Analytics: analytics,
		Tools:     tools,
		Auth:      auth,
		Log:       LogConfig{Mode: logMode},
		SeedFile:  strings.TrimSpace(os.Getenv("PERSONA_SEED_FILE")),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are used verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Ark chat model.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether credentials and a model name were supplied.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("missing Ark credentials or model: set ARK_API_KEY (or ARK_ACCESS_KEY + ARK_SECRET_KEY) and Model")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// AgentConfig bounds the reasoning loop and the supervisor.
type AgentConfig struct {
	MaxIterations    int
	MaxParseFailures int
	Confidence       float64
}

func loadAgentConfig() (AgentConfig, error) {
	cfg := AgentConfig{MaxIterations: 10, MaxParseFailures: 3, Confidence: 0.9}

	if v, err := parseOptionalIntEnv("AGENT_MAX_ITERATIONS"); err != nil {
		return AgentConfig{}, err
	} else if v != nil {
		if *v < 1 {
			return AgentConfig{}, fmt.Errorf("invalid AGENT_MAX_ITERATIONS value %q: must be positive", strconv.Itoa(*v))
		}
		cfg.MaxIterations = *v
	}

	if v, err := parseOptionalIntEnv("AGENT_MAX_PARSE_FAILURES"); err != nil {
		return AgentConfig{}, err
	} else if v != nil {
		if *v < 1 {
			return AgentConfig{}, fmt.Errorf("invalid AGENT_MAX_PARSE_FAILURES value %q: must be positive", strconv.Itoa(*v))
		}
		cfg.MaxParseFailures = *v
	}

	if v, err := parseOptionalFloatEnv("SUPERVISOR_CONFIDENCE"); err != nil {
		return AgentConfig{}, err
	} else if v != nil {
		if *v < 0 || *v > 1 {
			return AgentConfig{}, fmt.Errorf("invalid SUPERVISOR_CONFIDENCE value %q: must be within [0,1]", strconv.FormatFloat(*v, 'f', -1, 64))
		}
		cfg.Confidence = *v
	}

	return cfg, nil
}

// DatabaseConfig selects the persistence backend: memory, sqlite or postgres.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver: strings.ToLower(getEnvOrDefault("DB_DRIVER", "memory")),
		DSN:    strings.TrimSpace(os.Getenv("DB_DSN")),
	}
}

// AnalyticsConfig describes the lakehouse sink.
type AnalyticsConfig struct {
	Backend     string
	Dir         string
	RedisAddr   string
	RedisPrefix string
	Buffer      int
}

func loadAnalyticsConfig() (AnalyticsConfig, error) {
	buffer := 256
	if v, err := parseOptionalIntEnv("ANALYTICS_BUFFER"); err != nil {
		return AnalyticsConfig{}, err
	} else if v != nil && *v > 0 {
		buffer = *v
	}

	backend := strings.ToLower(getEnvOrDefault("ANALYTICS_BACKEND", "file"))
	switch backend {
	case "file", "redis", "none":
	default:
		return AnalyticsConfig{}, fmt.Errorf("invalid ANALYTICS_BACKEND value %q", backend)
	}

	return AnalyticsConfig{
		Backend:     backend,
		Dir:         getEnvOrDefault("ANALYTICS_DIR", "lakehouse"),
		RedisAddr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPrefix: getEnvOrDefault("ANALYTICS_REDIS_PREFIX", "lakehouse"),
		Buffer:      buffer,
	}, nil
}

// ToolsConfig configures the external capabilities available to agents.
type ToolsConfig struct {
	WeatherAPIKey  string
	WeatherURL     string
	WeatherTimeout time.Duration
	SearchURL      string
	SearchRate     float64
}

func loadToolsConfig() (ToolsConfig, error) {
	timeout := 10 * time.Second
	if v, err := parseOptionalIntEnv("WEATHER_TIMEOUT"); err != nil {
		return ToolsConfig{}, err
	} else if v != nil && *v > 0 {
		timeout = time.Duration(*v) * time.Second
	}

	rate := 1.0
	if v, err := parseOptionalFloatEnv("SEARCH_RATE"); err != nil {
		return ToolsConfig{}, err
	} else if v != nil && *v > 0 {
		rate = *v
	}

	return ToolsConfig{
		WeatherAPIKey:  strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")),
		WeatherURL:     getEnvOrDefault("WEATHER_API_URL", "http://api.openweathermap.org/data/2.5/weather"),
		WeatherTimeout: timeout,
		SearchURL:      getEnvOrDefault("SEARCH_URL", "https://html.duckduckgo.com/html/"),
		SearchRate:     rate,
	}, nil
}

// DevAuthSecret signs tokens when AUTH_SECRET is unset outside production.
const DevAuthSecret = "dev-secret-change-me"

// AuthConfig configures bearer token issuance.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
	// DevSecret is set when Secret fell back to DevAuthSecret.
	DevSecret bool
}

func loadAuthConfig(logMode string) (AuthConfig, error) {
	ttl := 30 * time.Minute
	if v, err := parseOptionalIntEnv("AUTH_TTL_MINUTES"); err != nil {
		return AuthConfig{}, err
	} else if v != nil && *v > 0 {
		ttl = time.Duration(*v) * time.Minute
	}
	secret := strings.TrimSpace(os.Getenv("AUTH_SECRET"))
	if secret != "" {
		return AuthConfig{Secret: secret, TTL: ttl}, nil
	}
	if isProduction(logMode) {
		return AuthConfig{}, fmt.Errorf("AUTH_SECRET must be set when LOG_MODE is %q", logMode)
	}
	return AuthConfig{Secret: DevAuthSecret, TTL: ttl, DevSecret: true}, nil
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Mode string
}

func isProduction(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return true
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
