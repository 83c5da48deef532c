package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort string
	Env      string
	LogLevel string

	OWMAPIKey       string
	OWMBaseURL      string
	UpstreamTimeout time.Duration

	AllowedOrigins []string

	// Redis включается только при заданном REDIS_ADDR
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Kafka включается только при заданном KAFKA_BROKERS
	KafkaBrokers []string
	KafkaTopic   string

	CollectCities   []string
	CollectInterval time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8000"),
		Env:      getEnv("ENV", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OWMAPIKey:       getEnv("OWM_API_KEY", ""),
		OWMBaseURL:      strings.TrimRight(getEnv("OWM_BASE_URL", "http://api.openweathermap.org/data/2.5"), "/"),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,

		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5175"}),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "weather_data"),

		CollectCities:   getEnvSlice("COLLECT_CITIES", []string{"London", "Paris", "Berlin", "Tokyo", "New York"}),
		CollectInterval: time.Duration(getEnvInt("COLLECT_INTERVAL_SECONDS", 600)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvSlice разбирает список через запятую, пустые элементы отбрасываются
func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
