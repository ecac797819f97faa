package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration.
type Config struct {
	ModelName          string
	Temperature        float64
	MaxContinuations   int
	MaxRetries         int
	APIRateLimitPerMin int
	MaxTranslationJobs int
	MinEntryDuration   time.Duration
}

// Default returns a Config with hardcoded defaults matching the Python version.
func Default() *Config {
	return &Config{
		ModelName:          "gemini-2.5-flash",
		Temperature:        0.20,
		MaxContinuations:   10,
		MaxRetries:         3,
		APIRateLimitPerMin: 30,
		MaxTranslationJobs: 2,
		MinEntryDuration:   500 * time.Millisecond,
	}
}

// APIKey resolves the Gemini API key, loading a .env file first when one is
// present in the working directory.
func APIKey() (string, error) {
	_ = godotenv.Load()

	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("no API key found: set GEMINI_API_KEY (environment or .env)")
}
