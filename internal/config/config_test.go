package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VOYAGE_HTTP_ADDR",
		"VOYAGE_DB_DRIVER",
		"VOYAGE_DB_DSN",
		"VOYAGE_LLM_PROVIDER",
		"VOYAGE_LLM_MODEL",
		"VOYAGE_LLM_TIMEOUT",
		"VOYAGE_GEMINI_API_KEY",
		"VOYAGE_OPENAI_API_KEY",
		"VOYAGE_AMADEUS_API_KEY",
		"VOYAGE_AMADEUS_API_SECRET",
		"VOYAGE_AMADEUS_BASE_URL",
		"VOYAGE_REDIS_ADDR",
		"VOYAGE_REDIS_PASSWORD",
		"VOYAGE_REDIS_DB",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv()
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("expected default addr %q, got %q", defaultHTTPAddr, cfg.HTTPAddr)
	}
	if cfg.DBDriver != defaultDBDriver {
		t.Fatalf("expected default db driver %q, got %q", defaultDBDriver, cfg.DBDriver)
	}
	if cfg.DBDSN != defaultDBDSN {
		t.Fatalf("expected default db dsn %q, got %q", defaultDBDSN, cfg.DBDSN)
	}
	if cfg.LLMProvider != defaultLLMProvider {
		t.Fatalf("expected default llm provider %q, got %q", defaultLLMProvider, cfg.LLMProvider)
	}
	if cfg.LLMTimeout != defaultLLMTimeout {
		t.Fatalf("expected default llm timeout %s, got %s", defaultLLMTimeout, cfg.LLMTimeout)
	}
	if cfg.AmadeusBaseURL != defaultAmadeusBaseURL {
		t.Fatalf("expected default amadeus base url %q, got %q", defaultAmadeusBaseURL, cfg.AmadeusBaseURL)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOYAGE_HTTP_ADDR", ":9090")
	t.Setenv("VOYAGE_DB_DRIVER", "Postgres")
	t.Setenv("VOYAGE_DB_DSN", "host=localhost dbname=voyage")
	t.Setenv("VOYAGE_LLM_PROVIDER", "OpenAI")
	t.Setenv("VOYAGE_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("VOYAGE_LLM_TIMEOUT", "90s")
	t.Setenv("VOYAGE_REDIS_DB", "3")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr: %q", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("expected lowered driver, got %q", cfg.DBDriver)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected lowered provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMTimeout != 90*time.Second {
		t.Fatalf("unexpected llm timeout: %s", cfg.LLMTimeout)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("unexpected redis db: %d", cfg.RedisDB)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		HTTPAddr:     ":8080",
		DBDriver:     "sqlite",
		DBDSN:        "voyage.db",
		LLMProvider:  "gemini",
		LLMModel:     "gemini-2.0-flash",
		LLMTimeout:   time.Minute,
		GeminiAPIKey: "key",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg := base
	cfg.DBDriver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported db driver")
	}

	cfg = base
	cfg.GeminiAPIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing gemini key")
	}

	cfg = base
	cfg.LLMProvider = "openai"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing openai key")
	}
	cfg.OpenAIAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid openai config, got %v", err)
	}

	cfg = base
	cfg.AmadeusAPIKey = "id-only"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for amadeus key without secret")
	}
}
