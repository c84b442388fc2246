// Package worldtest builds small deterministic worlds for tests.
package worldtest

import (
	"math/rand"
	"testing"

	"github.com/hvz-game/server/internal/config"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// Now is the clock every test world starts at.
const Now int64 = 1_700_000_000_000

// CatalogYAML mirrors the shipped shop table.
const CatalogYAML = `
items:
  - { id: glove,          cost: 60,  tier: basic, unique: true }
  - { id: running_shoes,  cost: 120, tier: basic, unique: true }
  - { id: bow,            cost: 150, tier: basic, unique: true, ammo: 5 }
  - { id: blowgun,        cost: 130, tier: basic, unique: true, ammo: 4 }
  - { id: skateboard,     cost: 90,  tier: basic, unique: true }
  - { id: fishing_rod,    cost: 40,  tier: basic, unique: true }
  - { id: gravity_glove,  cost: 200, tier: basic, unique: true }
  - { id: angel_wings,    cost: 260, tier: basic, unique: true }
  - { id: gem_multiplier, cost: 300, tier: basic, unique: true }
  - { id: antidote,       cost: 80,  tier: basic, unique: true }
  - { id: backpack,       cost: 250, tier: basic, upgrade: true }
  - { id: card,           cost: 400, tier: basic, unique: true, token: true }
  - { id: drone,          cost: 350, tier: exclusive, rare: true, unique: true, ammo: 6 }
  - { id: portal_gun,     cost: 300, tier: exclusive, rare: true, unique: true }
  - { id: cloak,          cost: 320, tier: exclusive, rare: true, unique: true }
  - { id: cannon,         cost: 380, tier: exclusive, rare: true, unique: true }
functions:
  - { id: athlete,    cost: 100 }
  - { id: engineer,   cost: 150 }
  - { id: spy,        cost: 200 }
  - { id: butterfly,  cost: 250 }
  - { id: rhinoceros, cost: 200 }
zombie_abilities:
  - { id: trap, cost: 50 }
  - { id: mine, cost: 100 }
`

// LayoutYAML is an empty beach: no walls, furniture, sharks or ground items,
// so tests spawn exactly what they need.
const LayoutYAML = `
width: 2400
height: 1600
sea: { x: 1900, y: 0, w: 500, h: 1600 }
sand:
  - { x: 1700, y: 0, w: 200, h: 1600 }
hazards:
  - { x: 2100, y: 0, w: 300, h: 1600 }
shade:
  - { x: 1720, y: 200, w: 120, h: 120 }
ducts:
  - { a: { x: 150, y: 150 }, b: { x: 1500, y: 1450 } }
hiding_spots:
  - { x: 500, y: 500 }
  - { x: 1300, y: 1000 }
spawn: { x: 200, y: 200, w: 1300, h: 1200 }
`

// Catalog parses CatalogYAML.
func Catalog(t testing.TB) *data.Catalog {
	t.Helper()
	c, err := data.ParseCatalog([]byte(CatalogYAML))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

// Layout parses LayoutYAML.
func Layout(t testing.TB) *data.Layout {
	t.Helper()
	l, err := data.ParseLayout([]byte(LayoutYAML))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return l
}

// New returns a seeded world on the test beach with the clock at Now.
func New(t testing.TB) *world.State {
	t.Helper()
	cfg := config.Defaults()
	s := world.NewState(Layout(t), Catalog(t), cfg.Economy, cfg.Round, 60, rand.New(rand.NewSource(1)))
	s.Advance(Now)
	return s
}

// AddPlayer joins a player and puts them at (x, y).
func AddPlayer(s *world.State, session uint64, name string, x, y float64) *world.Player {
	p := s.AddPlayer(session, name)
	s.TeleportPlayer(p, geom.V(x, y))
	p.RecomputeHitbox()
	return p
}

// Step moves the clock forward by ms and runs due tasks.
func Step(s *world.State, ms int64) {
	s.Advance(s.Now + ms)
	s.Sched.RunDue(s.Now)
}
