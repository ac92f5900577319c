package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// LINE Messaging API
	LineChannelAccessToken string
	LineChannelSecret      string
	LineAPIBase            string
	LineDataAPIBase        string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Google Sheets
	ServiceAccountJSON string
	ServiceAccountFile string
	MasterSheetName    string

	// Dispatch
	WorkerCount int
	QueueBuffer int

	// Session persistence
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "10000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineAPIBase:            getEnv("LINE_API_BASE", ""),
		LineDataAPIBase:        getEnv("LINE_DATA_API_BASE", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-pro-latest"),

		ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT", ""),
		ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		MasterSheetName:    getEnv("MASTER_SHEET_NAME", "契約店舗一覧"),

		WorkerCount: getEnvAsInt("WORKER_COUNT", 2),
		QueueBuffer: getEnvAsInt("QUEUE_BUFFER", 128),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
	}
}

// Validate reports fatal configuration problems. Missing credentials stop the
// process at startup rather than failing on the first conversation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return errors.New("config: GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(c.LineChannelAccessToken) == "" {
		return errors.New("config: LINE_CHANNEL_ACCESS_TOKEN is required")
	}
	if strings.TrimSpace(c.ServiceAccountJSON) == "" && strings.TrimSpace(c.ServiceAccountFile) == "" {
		return errors.New("config: GOOGLE_SERVICE_ACCOUNT or GOOGLE_SERVICE_ACCOUNT_FILE is required")
	}
	switch c.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	return nil
}

// ServiceAccountKey resolves the service-account credential blob. The value
// may be raw JSON, base64-encoded JSON, or a path to a key file.
func (c *Config) ServiceAccountKey() ([]byte, error) {
	if raw := strings.TrimSpace(c.ServiceAccountJSON); raw != "" {
		data := []byte(raw)
		if !strings.HasPrefix(raw, "{") {
			decoded, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return nil, fmt.Errorf("config: GOOGLE_SERVICE_ACCOUNT is neither JSON nor base64: %w", err)
			}
			data = decoded
		}
		if !json.Valid(data) {
			return nil, errors.New("config: GOOGLE_SERVICE_ACCOUNT does not contain valid JSON")
		}
		return data, nil
	}

	if c.ServiceAccountFile != "" {
		data, err := os.ReadFile(c.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("config: read GOOGLE_SERVICE_ACCOUNT_FILE: %w", err)
		}
		return data, nil
	}

	return nil, errors.New("config: service account credentials not configured")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
