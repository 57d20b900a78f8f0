package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBDriver   string // "sqlite" or "postgres"
	DBPath     string // sqlite file, ":memory:" allowed
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	RedisURL       string // empty disables cross-device sync
	AllowedOrigins []string

	ServerURL  string // backend base URL used by the chat client
	STTCommand string // external speech-to-text command, empty disables voice capture
}

func Load() *Config {
	godotenv.Load()
	godotenv.Load("../.env")

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "mira.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "mira"),
		DBPassword: getEnv("DB_PASSWORD", "mira"),
		DBName:     getEnv("DB_NAME", "mira"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		RedisURL:       getEnv("REDIS_URL", ""),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")),

		ServerURL:  getEnv("MIRA_SERVER_URL", "http://localhost:8080"),
		STTCommand: getEnv("STT_COMMAND", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=disable TimeZone=UTC"
}

// OriginAllowed reports whether a browser Origin is in the allow-list.
// An empty origin (non-browser clients, including the bundled terminal
// client) is always allowed.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
