package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reconciler/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "reconciler-tui.log", cfg.App.LogFile)
	assert.Equal(t, "postgres://postgres:@localhost:5432/reconciler?sslmode=disable", cfg.ConnectionString())
	assert.Equal(t, 2*time.Second, cfg.Reconcile.AutoSaveDelay)
	assert.Equal(t, "RL", cfg.Reconcile.LinePrefix)

	m := cfg.MatchingConfig()
	assert.Equal(t, "0.01", m.Tolerance.String())
	assert.Equal(t, "0.01", m.DeclarationTolerance.String(), "falls back to the global tolerance")
	assert.Equal(t, 70, m.MatchedThreshold)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "books")
	t.Setenv("RECONCILE_TOLERANCE", "0.05")
	t.Setenv("RECONCILE_DECLARATION_TOLERANCE", "5")
	t.Setenv("RECONCILE_MATCHED_THRESHOLD", "80")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://postgres:@db:5432/books?sslmode=disable", cfg.ConnectionString())
	assert.Equal(t, "0.05", cfg.MatchingConfig().Tolerance.String())
	assert.Equal(t, "5", cfg.MatchingConfig().DeclarationTolerance.String())
	assert.Equal(t, 80, cfg.MatchingConfig().MatchedThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_RejectsNonPositiveTolerance(t *testing.T) {
	t.Setenv("RECONCILE_TOLERANCE", "0")

	_, err := config.Load()
	assert.Error(t, err)
}
