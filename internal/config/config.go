package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"finance-qa-be/pkg/assistant/prompt"
	"finance-qa-be/pkg/llm/factory"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Keys      APIKeys
	Ai        AIConfig
	Assistant AssistantConfig
	Telemetry TelemetryConfig

	warnings []string
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	SessionStore       string // "memory" or "redis"
	SessionTTL         time.Duration
	RedisURL           string
	NatsURL            string
}

type APIKeys struct {
	Groq        string
	Anthropic   string
	HuggingFace string
}

type AIConfig struct {
	LLMProvider    string // "groq", "anthropic", "ollama", "huggingface"
	LLMModel       string
	GroqBaseURL    string
	OllamaBaseURL  string
	Temperature    float64
	RequestTimeout time.Duration
}

type AssistantConfig struct {
	DefaultMode prompt.Mode
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() *Config {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "groq"))

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			SessionStore:       strings.ToLower(getEnv("SESSION_STORE", "memory")),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", time.Hour),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			NatsURL:            getEnv("NATS_URL", ""),
		},
		Keys: APIKeys{
			Groq:        getEnv("GROQ_API_KEY", ""),
			Anthropic:   getEnv("ANTHROPIC_API_KEY", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:    provider,
			LLMModel:       getEnv("LLM_MODEL", factory.DefaultModel(provider)),
			GroqBaseURL:    getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Temperature:    getEnvAsFloat("AI_TEMPERATURE", 0.2),
			RequestTimeout: getEnvAsDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "finance-qa-backend"),
		},
	}

	if cfg.Ai.Temperature < 0 || cfg.Ai.Temperature > 1 {
		cfg.warnings = append(cfg.warnings, fmt.Sprintf("AI_TEMPERATURE %.2f is outside 0.0-1.0, using 0.2", cfg.Ai.Temperature))
		cfg.Ai.Temperature = 0.2
	}

	mode, err := prompt.ParseMode(getEnv("ASSISTANT_DEFAULT_MODE", string(prompt.DefaultMode)))
	if err != nil {
		cfg.warnings = append(cfg.warnings, fmt.Sprintf("ASSISTANT_DEFAULT_MODE: %v, using %q", err, prompt.DefaultMode))
		mode = prompt.DefaultMode
	}
	cfg.Assistant.DefaultMode = mode

	if cfg.APIKey() == "" && cfg.Ai.LLMProvider != "ollama" {
		cfg.warnings = append(cfg.warnings, fmt.Sprintf("no API key set for LLM provider %q; completion calls will fail", cfg.Ai.LLMProvider))
	}

	return cfg
}

// APIKey returns the credential of the configured LLM provider.
func (c *Config) APIKey() string {
	switch c.Ai.LLMProvider {
	case "anthropic":
		return c.Keys.Anthropic
	case "huggingface":
		return c.Keys.HuggingFace
	case "ollama":
		return ""
	default:
		return c.Keys.Groq
	}
}

// BaseURL returns the endpoint override for the configured LLM provider.
func (c *Config) BaseURL() string {
	switch c.Ai.LLMProvider {
	case "groq", "":
		return c.Ai.GroqBaseURL
	case "ollama":
		return c.Ai.OllamaBaseURL
	default:
		return ""
	}
}

// Warnings lists non-fatal configuration problems found while loading.
func (c *Config) Warnings() []string {
	return c.warnings
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
