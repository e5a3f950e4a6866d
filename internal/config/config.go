package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is the process-level configuration, read from the environment with
// an optional .env file for local development.
type Config struct {
	Port       string
	CorsOrigin string
	LogLevel   string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:       getenv("PORT", "8080"),
		CorsOrigin: getenv("CORS_ORIGIN", "*"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
