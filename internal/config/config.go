package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultAPIURL = "http://localhost:5002/api"

// Config centralizes runtime settings for the CLI client and the dev server.
type Config struct {
	APIURL       string
	APIToken     string
	APITimeoutMS int

	Port string

	AuthToken string

	CORSAllowedOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
	RedisDLQ      string
	RedisGroup    string
	RedisConsumer string

	StepDelayMS   int
	ExportBaseURL string

	WorkerEnabled bool
}

func Load() Config {
	return Config{
		APIURL:       getEnv("BRIEFCASE_API_URL", DefaultAPIURL),
		APIToken:     getEnv("BRIEFCASE_API_TOKEN", ""),
		APITimeoutMS: getEnvInt("BRIEFCASE_API_TIMEOUT_MS", 10000),

		Port: getEnv("PORT", "5002"),

		AuthToken: getEnv("API_AUTH_TOKEN", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisStream:   getEnv("REDIS_STREAM", "dossier_jobs"),
		RedisDLQ:      getEnv("REDIS_DLQ_STREAM", "dossier_jobs_dlq"),
		RedisGroup:    getEnv("REDIS_GROUP", "dossier_workers"),
		RedisConsumer: getEnv("REDIS_CONSUMER", "devserver-1"),

		StepDelayMS:   getEnvInt("DEVSERVER_STEP_DELAY_MS", 400),
		ExportBaseURL: getEnv("DEVSERVER_EXPORT_BASE_URL", "https://www.notion.so"),

		WorkerEnabled: getEnvBool("WORKER_ENABLED", true),
	}
}

func (c Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

func (c Config) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
