package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// AuthSecret signs and verifies API bearer tokens. Empty is only
	// allowed in development mode, where auth is skipped entirely.
	AuthSecret string `mapstructure:"AUTH_SECRET"`

	// MatchStrategy selects the patient matching strategy. Empty means the
	// built-in matcher; anything else names a shared object under
	// MatchStrategyDir that is loaded once per job.
	MatchStrategy    string `mapstructure:"MATCH_STRATEGY"`
	MatchStrategyDir string `mapstructure:"MATCH_STRATEGY_DIR"`

	// ImportWorkers is the number of rows processed concurrently by one
	// import job.
	ImportWorkers int `mapstructure:"IMPORT_WORKERS"`

	// DefaultVisitType is used when a row encounter does not name one.
	DefaultVisitType string `mapstructure:"DEFAULT_VISIT_TYPE"`

	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MATCH_STRATEGY_DIR", "/var/lib/emrflow/matching")
	v.SetDefault("IMPORT_WORKERS", 4)
	v.SetDefault("DEFAULT_VISIT_TYPE", "OPD")
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("MATCH_STRATEGY")
	v.BindEnv("MATCH_STRATEGY_DIR")
	v.BindEnv("IMPORT_WORKERS")
	v.BindEnv("DEFAULT_VISIT_TYPE")
	v.BindEnv("MIGRATIONS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ImportWorkers < 1 {
		cfg.ImportWorkers = 1
	}
	if strings.TrimSpace(cfg.AuthSecret) == "" && !cfg.IsDev() {
		return nil, fmt.Errorf("AUTH_SECRET is required outside development")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: The import API accepts unauthenticated requests.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
