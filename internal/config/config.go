package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Environment string
	API         struct {
		Port        string
		CORSOrigins []string
	}
	DB struct {
		DSN string
	}
	Storage struct {
		Provider  string // "local" or "gcs"
		LocalDir  string
		PublicURL string
		GCSBucket string
		GCSCreds  string
	}
	Transcription struct {
		UseMock    bool
		MockText   string
		MockLang   string
		BaseURL    string
		APIKey     string
		Model      string
		Timeout    time.Duration
		MaxRetries uint64
	}
	LLM struct {
		DefaultProvider string
		GatewayURL      string
		APIKey          string
		Model           string
		Timeout         time.Duration
		MaxRetries      uint64
		GeminiAPIKey    string
		GeminiModel     string
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	Telegram struct {
		BotToken   string
		ChatID     int64
		RatePerSec int
	}
	Logging struct {
		Level      string
		File       string
		MaxSizeMB  int
		MaxBackups int
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	cfg.Environment = os.Getenv("ENVIRONMENT")

	cfg.API.Port = envOr("PORT", "8080")
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.API.CORSOrigins = append(cfg.API.CORSOrigins, o)
			}
		}
	}

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.Storage.Provider = strings.ToLower(envOr("STORAGE_PROVIDER", "local"))
	cfg.Storage.LocalDir = envOr("RECORDINGS_DIR", "public/recordings")
	cfg.Storage.PublicURL = envOr("RECORDINGS_URL_PREFIX", "/recordings")
	cfg.Storage.GCSBucket = os.Getenv("GCS_BUCKET")
	cfg.Storage.GCSCreds = os.Getenv("GCS_CREDENTIALS_JSON")

	cfg.Transcription.UseMock = os.Getenv("USE_MOCK_TRANSCRIBE") == "true"
	cfg.Transcription.MockText = envOr("MOCK_TRANSCRIPT", "There is smoke coming from the warehouse, please send help.")
	cfg.Transcription.MockLang = envOr("MOCK_LANGUAGE_CODE", "eng")
	cfg.Transcription.BaseURL = envOr("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io")
	cfg.Transcription.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	cfg.Transcription.Model = envOr("ELEVENLABS_MODEL", "scribe_v1")
	cfg.Transcription.Timeout = envDuration("TRANSCRIBE_TIMEOUT", 60*time.Second)
	cfg.Transcription.MaxRetries = envUint("TRANSCRIBE_MAX_RETRIES", 0)

	cfg.LLM.DefaultProvider = strings.ToLower(envOr("LLM_DEFAULT_PROVIDER", "gpt"))
	cfg.LLM.GatewayURL = envOr("LLM_GATEWAY_URL", "https://api.openai.com/v1/chat/completions")
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.Model = envOr("LLM_MODEL", "gpt-4")
	cfg.LLM.Timeout = envDuration("LLM_TIMEOUT", 30*time.Second)
	cfg.LLM.MaxRetries = envUint("LLM_MAX_RETRIES", 0)
	cfg.LLM.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.LLM.GeminiModel = envOr("GEMINI_MODEL", "gemini-2.5-flash")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = envOr("KAFKA_TOPIC", "voice_alerts")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}
	cfg.Telegram.RatePerSec = int(envUint("TELEGRAM_RATE_PER_SEC", 1))

	cfg.Logging.Level = os.Getenv("LOG_LEVEL")
	cfg.Logging.File = os.Getenv("LOG_FILE")
	cfg.Logging.MaxSizeMB = int(envUint("LOG_MAX_SIZE_MB", 50))
	cfg.Logging.MaxBackups = int(envUint("LOG_MAX_BACKUPS", 5))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every enabled integration has its credentials.
func (c Config) Validate() error {
	missing := []string{}
	if !c.Transcription.UseMock && c.Transcription.APIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	switch c.LLM.DefaultProvider {
	case "gpt":
		if c.LLM.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case "rules":
	default:
		return fmt.Errorf("unknown LLM_DEFAULT_PROVIDER %q", c.LLM.DefaultProvider)
	}
	switch c.Storage.Provider {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			missing = append(missing, "GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configurations: %v", missing)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return d
	}
	return def
}

func envUint(k string, def uint64) uint64 {
	if n, err := strconv.ParseUint(os.Getenv(k), 10, 64); err == nil {
		return n
	}
	return def
}
