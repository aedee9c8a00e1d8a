// Env loader
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig is matched by *MissingEnvError.
var ErrMissingConfig = errors.New("missing required environment variables")

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	RapidAPIHost    string
	RapidAPIKey     string
	RapidAPIBaseURL string

	RedisURL          string
	CacheTTL          time.Duration
	CacheWarmInterval time.Duration
	UpstreamRateLimit float64

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSchema   string

	Reader ReaderConfig
}

// ReaderConfig drives the terminal reader: where it fetches from and where
// it keeps reading history.
type ReaderConfig struct {
	APIBaseURL      string
	FallbackBaseURL string
	FetchTimeout    time.Duration
	RetryCount      int
	BackoffBase     time.Duration
	HistoryDriver   string
	HistoryPath     string
}

// Upstream holds the credentials the proxy needs to reach RapidAPI.
type Upstream struct {
	Host    string
	Key     string
	BaseURL string
}

// MissingEnvError lists every required variable that was not set.
type MissingEnvError struct {
	Vars []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingConfig.Error(), strings.Join(e.Vars, ", "))
}

func (e *MissingEnvError) Is(target error) bool {
	return target == ErrMissingConfig
}

// LoadConfig loads environment variables from the .env file
func LoadConfig() *Config {

	appEnv := os.Getenv("APP_ENV")

	switch appEnv {
	case "production":
		if err := godotenv.Load(".env.production"); err == nil {
			fmt.Println("Loaded .env.production")
		}
	default:
		if err := godotenv.Load(".env.development"); err == nil {
			fmt.Println("Loaded .env.development")
		}
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RapidAPIHost:    getEnv("RAPIDAPI_HOST", ""),
		RapidAPIKey:     getEnv("RAPIDAPI_KEY", ""),
		RapidAPIBaseURL: getEnv("RAPIDAPI_BASE_URL", ""),

		RedisURL:          getEnv("REDIS_URL", ""),
		CacheTTL:          getEnvDuration("CACHE_TTL", 6*time.Hour),
		CacheWarmInterval: getEnvDuration("CACHE_WARM_INTERVAL", time.Hour),
		UpstreamRateLimit: getEnvFloat("UPSTREAM_RATE_LIMIT", 5),

		DBHost:     getEnv("BLUEPRINT_DB_HOST", "localhost"),
		DBPort:     getEnv("BLUEPRINT_DB_PORT", "5432"),
		DBName:     getEnv("BLUEPRINT_DB_DATABASE", "gita_reader"),
		DBUser:     getEnv("BLUEPRINT_DB_USERNAME", "postgres"),
		DBPassword: getEnv("BLUEPRINT_DB_PASSWORD", ""),
		DBSchema:   getEnv("BLUEPRINT_DB_SCHEMA", "public"),

		Reader: ReaderConfig{
			APIBaseURL:      getEnv("GITA_API_URL", "http://localhost:8080/api"),
			FallbackBaseURL: getEnv("GITA_FALLBACK_URL", ""),
			FetchTimeout:    getEnvDuration("GITA_FETCH_TIMEOUT", 10*time.Second),
			RetryCount:      getEnvInt("GITA_RETRY_COUNT", 3),
			BackoffBase:     getEnvDuration("GITA_BACKOFF_BASE", time.Second),
			HistoryDriver:   getEnv("GITA_HISTORY_DRIVER", "badger"),
			HistoryPath:     getEnv("GITA_HISTORY_PATH", defaultHistoryPath()),
		},
	}

	return cfg
}

// Upstream returns the RapidAPI credentials, or a *MissingEnvError naming
// each variable that is empty.
func (c *Config) Upstream() (Upstream, error) {
	var missing []string
	if c.RapidAPIHost == "" {
		missing = append(missing, "RAPIDAPI_HOST")
	}
	if c.RapidAPIKey == "" {
		missing = append(missing, "RAPIDAPI_KEY")
	}
	if c.RapidAPIBaseURL == "" {
		missing = append(missing, "RAPIDAPI_BASE_URL")
	}
	if len(missing) > 0 {
		return Upstream{}, &MissingEnvError{Vars: missing}
	}

	return Upstream{
		Host:    c.RapidAPIHost,
		Key:     c.RapidAPIKey,
		BaseURL: strings.TrimRight(c.RapidAPIBaseURL, "/"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Printf("Invalid %s=%q, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		fmt.Printf("Invalid %s=%q, using %v\n", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		fmt.Printf("Invalid %s=%q, using %s\n", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gita-reader"
	}
	return home + string(os.PathSeparator) + ".gita-reader"
}
