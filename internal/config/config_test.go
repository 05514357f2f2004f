package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftgate/draftgate/internal/tiers"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.GetRedisAddr())
	assert.Equal(t, 24, cfg.Auth.ExpiryHours)
	assert.NotEmpty(t, cfg.Capabilities)
	assert.NotEmpty(t, cfg.Quotas)
	assert.NotEmpty(t, cfg.Formats)
}

func TestLoadRejectsUnknownTier(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"capabilities": [{"route_key": "X", "required_tier": "PLATINUM"}]
	}`))
	assert.Error(t, err)
}

func TestLoadRejectsNegativeQuota(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"quotas": [{"tier": "FREE", "requests_per_hour": -1}]
	}`))
	assert.Error(t, err)
}

func TestLoadRejectsFormatWithoutSlots(t *testing.T) {
	_, err := Load(writeConfig(t, `{
		"formats": [{"name": "broken", "salary_cap": 50000}]
	}`))
	assert.Error(t, err)
}

func TestJWTSecretComesFromEnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, `{"auth": {"expiry_hours": 12}}`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 12, cfg.Auth.ExpiryHours)
}

func TestCapabilityTable(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"capabilities": [
			{"route_key": "LINEUP_OPTIMIZER", "required_tier": "PRO", "metered": true}
		]
	}`))
	require.NoError(t, err)

	table := cfg.CapabilityTable()
	require.Contains(t, table, "LINEUP_OPTIMIZER")
	assert.Equal(t, tiers.Pro, table["LINEUP_OPTIMIZER"].RequiredTier)
	assert.True(t, table["LINEUP_OPTIMIZER"].Metered)
}

func TestQuotaTableUnlimitedSentinel(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	table := cfg.QuotaTable()
	assert.Equal(t, 0, table[tiers.Elite], "ELITE default is the unlimited sentinel")
	assert.Greater(t, table[tiers.Free], 0)
}

func TestFormatLookup(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	reqs, rules, ok := cfg.Format("classic")
	require.True(t, ok)
	assert.Equal(t, int64(50000), rules.SalaryCap)

	total := 0
	for _, r := range reqs {
		total += r.Count
	}
	assert.Equal(t, 9, total)

	_, _, ok = cfg.Format("nonexistent")
	assert.False(t, ok)
}
