package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reconciler/internal/database"
	"github.com/MrJamesThe3rd/reconciler/internal/matching"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Reconciler"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
		// LogFile receives the logs of the terminal UI, which owns stdout and stderr.
		LogFile string `envconfig:"LOG_FILE" default:"reconciler-tui.log"`
	}

	DB struct {
		Host         string        `envconfig:"DB_HOST" default:"localhost"`
		Port         int           `envconfig:"DB_PORT" default:"5432"`
		User         string        `envconfig:"DB_USER" default:"postgres"`
		Password     string        `envconfig:"DB_PASSWORD" default:""`
		Name         string        `envconfig:"DB_NAME" default:"reconciler"`
		MaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnLifetime time.Duration `envconfig:"DB_CONN_LIFETIME" default:"5m"`
		Migrate      bool          `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		// JWTSecret signs HS256 bearer tokens. Empty disables authentication.
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Reconcile struct {
		Tolerance            decimal.Decimal `envconfig:"RECONCILE_TOLERANCE" default:"0.01"`
		// DeclarationTolerance applies to declaration estimates; unset means Tolerance.
		DeclarationTolerance decimal.Decimal `envconfig:"RECONCILE_DECLARATION_TOLERANCE"`
		MatchedThreshold     int             `envconfig:"RECONCILE_MATCHED_THRESHOLD" default:"70"`
		AutoSaveDelay        time.Duration   `envconfig:"RECONCILE_AUTOSAVE_DELAY" default:"2s"`
		FlushConcurrency     int             `envconfig:"RECONCILE_FLUSH_CONCURRENCY" default:"8"`
		LinePrefix           string          `envconfig:"RECONCILE_LINE_PREFIX" default:"RL"`
		BatchPrefix          string          `envconfig:"RECONCILE_BATCH_PREFIX" default:"RB"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) Pool() database.Pool {
	return database.Pool{
		MaxOpen:     c.DB.MaxOpenConns,
		MaxIdle:     c.DB.MaxIdleConns,
		MaxLifetime: c.DB.ConnLifetime,
	}
}

func (c *Config) MatchingConfig() matching.Config {
	declaration := c.Reconcile.DeclarationTolerance
	if !declaration.IsPositive() {
		declaration = c.Reconcile.Tolerance
	}

	return matching.Config{
		Tolerance:            c.Reconcile.Tolerance,
		DeclarationTolerance: declaration,
		MatchedThreshold:     c.Reconcile.MatchedThreshold,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if !cfg.Reconcile.Tolerance.IsPositive() {
		return nil, fmt.Errorf("RECONCILE_TOLERANCE must be positive, got %s", cfg.Reconcile.Tolerance)
	}

	return &cfg, nil
}
