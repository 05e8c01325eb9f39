package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string   `env:"DATABASE_URL,required,notEmpty"`
	Port           string   `env:"PORT" envDefault:"5200"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	GatewayToken   string   `env:"GATEWAY_TOKEN,required,notEmpty"`

	CheckpointXP       int64         `env:"CHECKPOINT_XP" envDefault:"100"`
	DefaultMaxTeamSize int           `env:"DEFAULT_MAX_TEAM_SIZE" envDefault:"4"`
	JoinCodeAttempts   int           `env:"JOIN_CODE_ATTEMPTS" envDefault:"8"`
	LifecycleInterval  time.Duration `env:"LIFECYCLE_INTERVAL" envDefault:"1m"`
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	R2 R2Config `envPrefix:"R2_"`

	IdentitySyncURL   string        `env:"IDENTITY_SYNC_URL"`
	IdentitySyncPath  string        `env:"IDENTITY_SYNC_PATH" envDefault:"/api/v1/public/profiles"`
	IdentitySyncToken string        `env:"IDENTITY_SYNC_TOKEN"`
	MemberSyncEvery   time.Duration `env:"MEMBER_SYNC_INTERVAL" envDefault:"1m"`
}

// R2Config is optional; uploads are disabled unless every field but CDNBaseURL is set.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	Bucket          string `env:"BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(o)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CheckpointXP <= 0 {
		return fmt.Errorf("CHECKPOINT_XP must be positive, got %d", c.CheckpointXP)
	}
	if c.DefaultMaxTeamSize < 1 {
		return fmt.Errorf("DEFAULT_MAX_TEAM_SIZE must be at least 1, got %d", c.DefaultMaxTeamSize)
	}
	if c.JoinCodeAttempts < 1 {
		return fmt.Errorf("JOIN_CODE_ATTEMPTS must be at least 1, got %d", c.JoinCodeAttempts)
	}
	return nil
}

// OriginsHeader joins AllowedOrigins for Fiber's CORS config.
func (c *Config) OriginsHeader() string {
	return strings.Join(c.AllowedOrigins, ",")
}
