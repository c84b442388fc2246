package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[server]
admins = ["Warden"]

[network]
tick_rate = "20ms"

[round]
running_seconds = 90
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Warden"}, cfg.Server.Admins)
	assert.Equal(t, 20*time.Millisecond, cfg.Network.TickRate)
	assert.InDelta(t, 50, cfg.Network.TickHz(), 1e-9)
	assert.Equal(t, 90, cfg.Round.RunningSeconds)
	// untouched sections keep their defaults
	assert.Equal(t, 10, cfg.Round.PostRoundSeconds)
	assert.Equal(t, 100, cfg.Economy.StartingGems)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadShippedConfig(t *testing.T) {
	path := filepath.Join("..", "..", "config", "server.toml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("config/server.toml not present")
	}
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16*time.Millisecond, cfg.Network.TickRate)
}
