package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPAddr = ":8080"

const (
	defaultDBDriver       = "sqlite"
	defaultDBDSN          = "voyage.db"
	defaultLLMProvider    = "gemini"
	defaultLLMModel       = "gemini-2.0-flash"
	defaultLLMTimeout     = 60 * time.Second
	defaultAmadeusBaseURL = "https://test.api.amadeus.com"
	defaultRedisDB        = 0
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	LLMProvider  string
	LLMModel     string
	LLMTimeout   time.Duration
	GeminiAPIKey string
	OpenAIAPIKey string

	AmadeusAPIKey    string
	AmadeusAPISecret string
	AmadeusBaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := strings.TrimSpace(os.Getenv("VOYAGE_HTTP_ADDR"))
	if addr == "" {
		addr = defaultHTTPAddr
	}

	driver := strings.TrimSpace(os.Getenv("VOYAGE_DB_DRIVER"))
	if driver == "" {
		driver = defaultDBDriver
	}
	dsn := strings.TrimSpace(os.Getenv("VOYAGE_DB_DSN"))
	if dsn == "" {
		dsn = defaultDBDSN
	}

	provider := strings.TrimSpace(os.Getenv("VOYAGE_LLM_PROVIDER"))
	if provider == "" {
		provider = defaultLLMProvider
	}
	llmModel := strings.TrimSpace(os.Getenv("VOYAGE_LLM_MODEL"))
	if llmModel == "" {
		llmModel = defaultLLMModel
	}
	llmTimeout := defaultLLMTimeout
	if raw := strings.TrimSpace(os.Getenv("VOYAGE_LLM_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err == nil && parsed > 0 {
			llmTimeout = parsed
		}
	}

	amadeusBaseURL := strings.TrimSpace(os.Getenv("VOYAGE_AMADEUS_BASE_URL"))
	if amadeusBaseURL == "" {
		amadeusBaseURL = defaultAmadeusBaseURL
	}

	redisDB := defaultRedisDB
	if raw := strings.TrimSpace(os.Getenv("VOYAGE_REDIS_DB")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed >= 0 {
			redisDB = parsed
		}
	}

	return Config{
		HTTPAddr:         addr,
		DBDriver:         strings.ToLower(driver),
		DBDSN:            dsn,
		LLMProvider:      strings.ToLower(provider),
		LLMModel:         llmModel,
		LLMTimeout:       llmTimeout,
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("VOYAGE_GEMINI_API_KEY")),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("VOYAGE_OPENAI_API_KEY")),
		AmadeusAPIKey:    strings.TrimSpace(os.Getenv("VOYAGE_AMADEUS_API_KEY")),
		AmadeusAPISecret: strings.TrimSpace(os.Getenv("VOYAGE_AMADEUS_API_SECRET")),
		AmadeusBaseURL:   amadeusBaseURL,
		RedisAddr:        strings.TrimSpace(os.Getenv("VOYAGE_REDIS_ADDR")),
		RedisPassword:    strings.TrimSpace(os.Getenv("VOYAGE_REDIS_PASSWORD")),
		RedisDB:          redisDB,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("VOYAGE_HTTP_ADDR must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("VOYAGE_DB_DRIVER must be sqlite or postgres")
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("VOYAGE_DB_DSN must not be empty")
	}
	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("VOYAGE_GEMINI_API_KEY is required when VOYAGE_LLM_PROVIDER is gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("VOYAGE_OPENAI_API_KEY is required when VOYAGE_LLM_PROVIDER is openai")
		}
	default:
		return fmt.Errorf("VOYAGE_LLM_PROVIDER must be gemini or openai")
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		return fmt.Errorf("VOYAGE_LLM_MODEL must not be empty")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("VOYAGE_LLM_TIMEOUT must be > 0")
	}
	if (c.AmadeusAPIKey == "") != (c.AmadeusAPISecret == "") {
		return fmt.Errorf("VOYAGE_AMADEUS_API_KEY and VOYAGE_AMADEUS_API_SECRET must be provided together")
	}
	return nil
}
