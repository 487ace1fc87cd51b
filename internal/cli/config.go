package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	// Server is the relay's TCP address
	Server string
	// AdminURL is the base URL of the admin HTTP endpoints
	AdminURL string
	// Output selects the output format ("text" or "json")
	Output string
	// Timeout bounds one-shot request/response exchanges
	Timeout time.Duration
	Verbose bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Server:   getEnvOrDefault("ROOMCTL_SERVER", "localhost:4650"),
		AdminURL: getEnvOrDefault("ROOMCTL_ADMIN", "http://localhost:8080"),
		Output:   "text",
		Timeout:  10 * time.Second,
		Verbose:  false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
