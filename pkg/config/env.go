package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from .env.local if APP_ENV is "local".
// Deployed functions get their environment from the function configuration,
// so a missing file is only a warning.
func LoadEnv() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development" // Default to development if not set
		os.Setenv("APP_ENV", appEnv)
	}

	if appEnv == "local" {
		err := godotenv.Load(".env.local")
		if err != nil {
			log.Printf("Warning: .env.local file not found, or error loading: %v. Relying on system environment variables.", err)
		} else {
			log.Println("Loaded .env.local for local development.")
		}
	}
}

// Get reads an environment variable or returns a default value.
func Get(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// MustGet reads an environment variable and fails fast when it is missing.
// Used in init() so a misconfigured function never starts serving.
func MustGet(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		log.Fatalf("Configuration error: environment variable %s must be set.", key)
	}
	return value
}

// GetInt reads a numeric environment variable, falling back to the default
// on absence or parse failure.
func GetInt(key string, defaultValue int) int {
	valueStr := Get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: value of %s (%q) is not a valid integer. Using default (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
