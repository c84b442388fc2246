package system

import (
	"math"
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// HazardSystem triggers zombie traps and mines. Both are one-shot and vanish
// when their lifetime ends untriggered. Phase 3 (Update).
type HazardSystem struct {
	world *world.State
}

func NewHazardSystem(ws *world.State) *HazardSystem {
	return &HazardSystem{world: ws}
}

func (s *HazardSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *HazardSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Hazards.Sorted(func(id ecs.EntityID, h *world.Hazard) {
		if ws.ECS.Pending(id) {
			return
		}
		if ws.Now >= h.ExpiresAt {
			ws.ECS.MarkForDestruction(id)
			return
		}
		if !h.Armed(ws.Now) {
			return
		}
		victim := s.humanWithin(h.Pos, h.Radius)
		if victim == nil {
			return
		}
		switch h.Kind {
		case world.KindTrap:
			ws.TrapPlayer(victim, world.TrapDuration)
		case world.KindMine:
			s.detonate(h, victim)
		}
		ws.ECS.MarkForDestruction(id)
	})
}

// humanWithin returns the nearest human a hazard can catch.
func (s *HazardSystem) humanWithin(pos geom.Vec, radius float64) *world.Player {
	var best *world.Player
	bestDist := math.Inf(1)
	s.world.EachPlayer(func(p *world.Player) {
		if !p.IsHuman() || p.Trapped || p.Flying || p.Hidden || p.InDuct || p.BeingEaten {
			return
		}
		if d := p.Pos.Dist(pos); d <= radius && d < bestDist {
			best, bestDist = p, d
		}
	})
	return best
}

// detonate throws the triggering human with full force and everyone else in
// the splash radius with falloff.
func (s *HazardSystem) detonate(h *world.Hazard, trigger *world.Player) {
	ws := s.world
	dir := trigger.Pos.Sub(h.Pos).Normalize()
	if dir.IsZero() {
		dir = geom.FromAngle(ws.Rand.Float64()*2*math.Pi, 1)
	}
	ws.ApplyKnockback(trigger, dir.Scale(world.MineForce))
	ws.EachPlayer(func(p *world.Player) {
		if p.ID != trigger.ID {
			ws.RadialKnockback(p, h.Pos, world.MineSplash, world.MineForce)
		}
	})
}
