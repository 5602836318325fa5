// internal/services/recognition/config.go
package recognition

import "time"

type Config struct {
	BotID      string
	BotAliasID string
	LocaleID   string
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		LocaleID:   "en_US",
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}
}
