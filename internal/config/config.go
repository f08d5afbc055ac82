package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded by a .env file.
type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	DatabaseURL   string        `env:"DATABASE_URL" envDefault:"host=localhost user=postgres password=postgres dbname=brokenexp port=5432 sslmode=disable TimeZone=America/Jamaica"`
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"secret_key_change_me"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"jwt_secret_change_me"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
	SiteURL       string        `env:"SITE_URL" envDefault:"http://localhost:8080"`
	TemplatesDir  string        `env:"TEMPLATES_DIR" envDefault:"./web/templates"`
	StaticDir     string        `env:"STATIC_DIR" envDefault:"./web/static"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:19006"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr       string `env:"REDIS_ADDR"` // empty disables the issue rate limit
	RedisPassword   string `env:"REDIS_PASSWORD"`
	IssueDailyLimit int    `env:"ISSUE_DAILY_LIMIT" envDefault:"10"`

	ReputationCron string        `env:"REPUTATION_CRON" envDefault:"@every 15m"`
	FeedCacheTTL   time.Duration `env:"FEED_CACHE_TTL" envDefault:"30s"`
	MapCenterLat   float64       `env:"MAP_CENTER_LAT" envDefault:"18.0179"`
	MapCenterLng   float64       `env:"MAP_CENTER_LNG" envDefault:"-76.8099"`
	MapZoom        int           `env:"MAP_ZOOM" envDefault:"12"`
}

// Load reads .env files (if present) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (*Config, bool, error) {
	foundEnv := godotenv.Load(files...) == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, foundEnv, fmt.Errorf("parse config: %w", err)
	}
	if cfg.IssueDailyLimit < 0 {
		return nil, foundEnv, fmt.Errorf("parse config: ISSUE_DAILY_LIMIT must not be negative")
	}
	return &cfg, foundEnv, nil
}
