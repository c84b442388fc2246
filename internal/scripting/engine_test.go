package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShippedFishingTable(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "nothing", e.RollFishing(0.1).Kind)

	r := e.RollFishing(0.5)
	assert.Equal(t, "gems", r.Kind)
	assert.GreaterOrEqual(t, r.Gems, 5)
	assert.LessOrEqual(t, r.Gems, 20)

	r = e.RollFishing(0.999)
	assert.Equal(t, "item", r.Kind)
	assert.Equal(t, "card", r.Item)
	assert.Equal(t, "legendary", r.Rarity)
}

func TestMissingScriptsFallBack(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, DefaultFishing(0.8), e.RollFishing(0.8))
}

func TestBadReturnFallsBack(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.LoadString(`function roll_fishing(r) return 42 end`))
	assert.Equal(t, DefaultFishing(0.3), e.RollFishing(0.3))

	require.NoError(t, e.LoadString(`function roll_fishing(r) error("boom") end`))
	assert.Equal(t, DefaultFishing(0.3), e.RollFishing(0.3))

	require.NoError(t, e.LoadString(`function roll_fishing(r) return { kind = "gems", gems = -5 } end`))
	assert.Equal(t, 0, e.RollFishing(0.3).Gems)
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "world"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world", "bad.lua"), []byte("function ("), 0o644))

	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}
