package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for game logic execution.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "world"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source. Used by tests and the admin reload.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// FishingReward is one draw from the fishing table.
type FishingReward struct {
	Kind   string // "nothing", "gems" or "item"
	Gems   int
	Item   string
	Rarity string // cosmetic tier shown in floating text
}

// RollFishing calls the Lua roll_fishing(roll) function. roll is a uniform
// sample in [0, 1) drawn by the caller so results stay reproducible.
func (e *Engine) RollFishing(roll float64) FishingReward {
	fn := e.vm.GetGlobal("roll_fishing")
	if fn == lua.LNil {
		return DefaultFishing(roll)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(roll)); err != nil {
		e.log.Error("lua roll_fishing error", zap.Error(err))
		return DefaultFishing(roll)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return DefaultFishing(roll)
	}
	r := FishingReward{
		Kind:   lStr(tbl, "kind"),
		Gems:   lInt(tbl, "gems"),
		Item:   lStr(tbl, "item"),
		Rarity: lStr(tbl, "rarity"),
	}
	if r.Kind == "" {
		r.Kind = "nothing"
	}
	if r.Gems < 0 {
		r.Gems = 0
	}
	return r
}

// DefaultFishing is the built-in table used when no script provides one.
func DefaultFishing(roll float64) FishingReward {
	switch {
	case roll < 0.40:
		return FishingReward{Kind: "nothing", Rarity: "common"}
	case roll < 0.75:
		return FishingReward{Kind: "gems", Gems: 5 + int(roll*20), Rarity: "common"}
	case roll < 0.93:
		return FishingReward{Kind: "gems", Gems: 30 + int(roll*40), Rarity: "rare"}
	case roll < 0.99:
		return FishingReward{Kind: "item", Item: "running_shoes", Rarity: "epic"}
	default:
		return FishingReward{Kind: "item", Item: "card", Rarity: "legendary"}
	}
}

func lInt(t *lua.LTable, key string) int {
	v := t.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func lStr(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
