// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AWS_LEX_BOT_ID
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the first location that has one, so the
// loader behaves the same from the repo root and from package test dirs.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pocket-pharmacist"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.AWS.Lex.LocaleID == "" {
		cfg.AWS.Lex.LocaleID = "en_US"
	}
	if cfg.AWS.Lex.Timeout == 0 {
		cfg.AWS.Lex.Timeout = 10000
	}
	if cfg.AWS.Lex.MaxRetries == 0 {
		cfg.AWS.Lex.MaxRetries = 2
	}
	if cfg.AWS.Translate.Timeout == 0 {
		cfg.AWS.Translate.Timeout = 10000
	}
	if cfg.FDA.BaseURL == "" {
		cfg.FDA.BaseURL = "https://api.fda.gov"
	}
	if cfg.FDA.Timeout == 0 {
		cfg.FDA.Timeout = 10000
	}
	if cfg.FDA.MaxRetries == 0 {
		cfg.FDA.MaxRetries = 2
	}
	if cfg.Orchestrator.WorkingLanguage == "" {
		cfg.Orchestrator.WorkingLanguage = "en"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "none"
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// overrideFromEnv applies direct env overrides for values that are usually
// injected as plain environment variables in deployment.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("LEX_BOT_ID"); v != "" {
		cfg.AWS.Lex.BotID = v
	}
	if v := os.Getenv("LEX_BOT_ALIAS_ID"); v != "" {
		cfg.AWS.Lex.BotAliasID = v
	}
	if v := os.Getenv("OPENFDA_API_KEY"); v != "" {
		cfg.FDA.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.Session.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Session.Redis.Password = v
	}
}
