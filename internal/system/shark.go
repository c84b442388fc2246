package system

import (
	"fmt"
	"math"
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/core/event"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// SharkSystem runs the shark AI: patrol between sea waypoints with a pause
// on arrival, chase the nearest human swimming within sensor range, and
// eat what it catches. Phase 3 (Update).
type SharkSystem struct {
	world *world.State
}

func NewSharkSystem(ws *world.State) *SharkSystem {
	return &SharkSystem{world: ws}
}

func (s *SharkSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SharkSystem) Update(_ time.Duration) {
	s.world.Sharks.Sorted(func(_ ecs.EntityID, sh *world.Shark) {
		s.think(sh)
	})
}

func (s *SharkSystem) think(sh *world.Shark) {
	ws := s.world
	if sh.State == world.SharkAttacking {
		target := ws.Player(sh.Target)
		if target == nil || !s.prey(target) {
			s.patrol(sh)
			return
		}
		s.swim(sh, target.Pos)
		if sh.Pos.Dist(target.Pos) <= world.SharkContact {
			s.eat(target)
			s.patrol(sh)
		}
		return
	}

	if target := s.nearestPrey(sh.Pos); target != nil {
		sh.State = world.SharkAttacking
		sh.Target = target.ID
		sh.Speed = world.SharkAttackSpeed
		s.swim(sh, target.Pos)
		return
	}

	switch sh.State {
	case world.SharkPaused:
		if ws.Now >= sh.PauseUntil {
			s.patrol(sh)
		}
	default:
		if sh.Pos.Dist(sh.Waypoint) <= sh.Speed {
			sh.Pos = sh.Waypoint
			sh.State = world.SharkPaused
			sh.PauseUntil = ws.Now + world.SharkPause
			return
		}
		s.swim(sh, sh.Waypoint)
	}
}

// patrol sends the shark to a fresh waypoint.
func (s *SharkSystem) patrol(sh *world.Shark) {
	sh.State = world.SharkPatrolling
	sh.Target = 0
	sh.Speed = world.SharkPatrolSpeed
	sh.Waypoint = s.world.SeaWaypoint()
}

func (s *SharkSystem) swim(sh *world.Shark, to geom.Vec) {
	d := to.Sub(sh.Pos)
	if d.IsZero() {
		return
	}
	sh.Rotation = d.Angle()
	sh.Pos = sh.Pos.Add(d.Normalize().Scale(math.Min(sh.Speed, d.Len())))
}

// prey reports whether the shark can go after h. Shade hides swimmers.
func (s *SharkSystem) prey(h *world.Player) bool {
	ws := s.world
	if !h.IsHuman() || h.BeingEaten || h.Hidden || h.Flying || h.InDuct || h.HitboxOff {
		return false
	}
	return ws.InSea(h.Pos) && !ws.InShade(h.Pos)
}

func (s *SharkSystem) nearestPrey(from geom.Vec) *world.Player {
	var best *world.Player
	bestDist := math.Inf(1)
	s.world.EachPlayer(func(p *world.Player) {
		if !s.prey(p) {
			return
		}
		if d := p.Pos.Dist(from); d <= world.SharkSensor && d < bestDist {
			best, bestDist = p, d
		}
	})
	return best
}

// eat freezes the human and turns them after the eat delay.
func (s *SharkSystem) eat(h *world.Player) {
	ws := s.world
	ws.DropAllItems(h)
	ws.Land(h)
	h.BeingEaten = true
	h.Sprinting = false
	h.Vel = geom.Vec{}
	h.Knockback = geom.Vec{}
	ws.Physics.SetVelocity(h.ID, geom.Vec{})

	id := h.ID
	ws.Sched.At(ws.Now+world.SharkEatDelay, id, world.TaskEaten, func() {
		p := ws.Player(id)
		if p == nil {
			return
		}
		p.BeingEaten = false
		if p.IsZombie() {
			return
		}
		ws.MakeZombie(p)
		event.Emit(ws.Bus, event.PlayerInfected{Human: p.ID, HumanName: p.Name, By: "shark"})
		ws.Announce(fmt.Sprintf("%s was eaten by a shark", p.Name))
	})
}
