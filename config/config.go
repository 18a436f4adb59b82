package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "copywriter-bot"
	EnvFileName = "config.env"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds everything read from the environment at startup.
type Config struct {
	BotToken string
	AdminID  int64

	Provider      string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiKey     string
	GeminiModel   string

	Temperature    float64
	MaxTokens      int
	CallTimeout    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration

	DBPath     string
	HistoryKey string

	HTTPAddr       string
	AllowedOrigins []string

	LogLevel string
}

// ConfigDir returns the application's config directory, creating it if
// needed.
func ConfigDir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// FilePath returns the full path to the env file.
func FilePath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Variables already set in the environment win. Errors are
// ignored since the file may not exist.
func LoadEnvFile() {
	configPath, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		Provider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   os.Getenv("GEMINI_MODEL"),
		DBPath:        getEnv("DB_PATH", "copywriter.db"),
		HistoryKey:    os.Getenv("HISTORY_KEY"),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Provider != ProviderOpenAI && cfg.Provider != ProviderGemini {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, cfg.Provider)
	}

	var err error
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		cfg.AdminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be a valid integer: %w", err)
		}
	}
	if cfg.Temperature, err = getEnvFloat("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = getEnvInt("LLM_MAX_TOKENS", 4096); err != nil {
		return nil, err
	}
	if cfg.CallTimeout, err = getEnvDuration("LLM_TIMEOUT_SECONDS", time.Second, 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryAttempts, err = getEnvInt("RETRY_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.RetryBaseDelay, err = getEnvDuration("RETRY_BASE_DELAY_MS", time.Millisecond, time.Second); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnv("HTTP_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// CheckRequired returns the names of required variables that are not set.
// The API key requirement follows LLM_PROVIDER.
func CheckRequired() []string {
	required := []string{"BOT_TOKEN", "ADMIN_TELEGRAM_ID"}
	if strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)) == ProviderGemini {
		required = append(required, "GEMINI_API_KEY")
	} else {
		required = append(required, "OPENAI_API_KEY")
	}

	var missing []string
	for _, v := range required {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

// getEnvDuration reads an integer count of unit.
func getEnvDuration(key string, unit, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return time.Duration(n) * unit, nil
}
