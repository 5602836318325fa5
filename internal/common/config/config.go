// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	AWS          AWSConfig          `mapstructure:"aws"`
	FDA          FDAConfig          `mapstructure:"fda"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Session      SessionConfig      `mapstructure:"session"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // milliseconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AWSConfig holds settings for the AWS-backed collaborators.
type AWSConfig struct {
	Region string `mapstructure:"region"`

	Translate struct {
		Region  string `mapstructure:"region"` // overrides Region when set
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"translate"`

	Lex struct {
		BotID      string `mapstructure:"bot_id"`
		BotAliasID string `mapstructure:"bot_alias_id"`
		LocaleID   string `mapstructure:"locale_id"`
		Timeout    int    `mapstructure:"timeout"`     // milliseconds
		MaxRetries int    `mapstructure:"max_retries"` // transient-fault retries
	} `mapstructure:"lex"`
}

// FDAConfig holds settings for the openFDA drug-fact source.
type FDAConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// OrchestratorConfig holds pipeline-level settings.
type OrchestratorConfig struct {
	WorkingLanguage string `mapstructure:"working_language"`
}

// SessionConfig controls the optional shared session store. The default
// ("none") carries session context in the request/response only; "redis"
// additionally caches it server-side with a per-key TTL so clients may
// omit the context blob.
type SessionConfig struct {
	Store    string      `mapstructure:"store"`     // "none" or "redis"
	TTLHours int         `mapstructure:"ttl_hours"` // per-key expiry
	Redis    RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TranslateRegion returns the effective region for the Translate client.
func (a AWSConfig) TranslateRegion() string {
	if a.Translate.Region != "" {
		return a.Translate.Region
	}
	return a.Region
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Session.Store != "none" && cfg.Session.Store != "redis" {
		return fmt.Errorf("session.store must be \"none\" or \"redis\", got %q", cfg.Session.Store)
	}
	if cfg.Session.Store == "redis" && cfg.Session.Redis.Address == "" {
		return fmt.Errorf("session.redis.address required when session.store is redis")
	}
	if cfg.AWS.Lex.BotID == "" || cfg.AWS.Lex.BotAliasID == "" {
		return fmt.Errorf("aws.lex.bot_id and aws.lex.bot_alias_id are required")
	}
	return nil
}
