package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration, sourced from environment
// variables with sane development defaults.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	RedisURL    string `mapstructure:"REDIS_URL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// MatchDataDir holds ball-by-ball match JSON files used to build the
	// appearance history and role tables at startup.
	MatchDataDir string `mapstructure:"MATCH_DATA_DIR"`

	// ModelWeightsPath optionally points at trained baseline weights.
	ModelWeightsPath string `mapstructure:"MODEL_WEIGHTS_PATH"`

	SolveTimeout time.Duration `mapstructure:"SOLVE_TIMEOUT"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8083")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MATCH_DATA_DIR", "./data/matches")
	v.SetDefault("MODEL_WEIGHTS_PATH", "")
	v.SetDefault("SOLVE_TIMEOUT", 10*time.Second)
	v.SetDefault("CACHE_TTL", 24*time.Hour)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.MatchDataDir == "" {
		return nil, fmt.Errorf("MATCH_DATA_DIR must be set")
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in a development env.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
