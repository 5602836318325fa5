// internal/services/medicalinfo/config.go
package medicalinfo

import "time"

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:    "https://api.fda.gov",
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}
}
