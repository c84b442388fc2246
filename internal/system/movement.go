package system

import (
	"math"
	"time"

	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// MovementSystem turns each player's latest input into a body velocity for
// the coming physics step. Flight bypasses the body and moves the player
// directly. Phase 1 (PreUpdate).
type MovementSystem struct {
	world *world.State
}

func NewMovementSystem(ws *world.State) *MovementSystem {
	return &MovementSystem{world: ws}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *MovementSystem) Update(_ time.Duration) {
	s.world.EachPlayer(s.move)
}

func (s *MovementSystem) move(p *world.Player) {
	ws := s.world
	if p.Immobile() {
		p.Vel = geom.Vec{}
		if p.BeingEaten || p.InDuct {
			p.Knockback = geom.Vec{}
		}
		ws.Physics.SetVelocity(p.ID, geom.Vec{})
		return
	}

	if aim := p.Input.Aim; aim.Finite() && !aim.IsZero() && aim != p.Pos {
		p.Rotation = aim.Sub(p.Pos).Angle()
	}
	dir := p.Input.Dir()

	if p.Flying {
		pos := clampToMap(ws, p.Pos.Add(dir.Scale(world.FlightSpeed)))
		p.Pos = pos
		p.Vel = geom.Vec{}
		ws.Physics.SetPosition(p.ID, pos)
		ws.Physics.SetVelocity(p.ID, geom.Vec{})
		return
	}

	var vel geom.Vec
	if p.Skating {
		vel = geom.FromAngle(p.Rotation, world.SkateSpeed)
	} else {
		top := MaxSpeed(ws, p)
		target := dir.Scale(top)
		vel = p.Vel.Add(target.Sub(p.Vel).Scale(world.Acceleration)).Limit(top)
	}
	p.Vel = vel

	total := vel.Add(p.Knockback)
	p.Knockback = p.Knockback.Scale(world.KnockbackDecay)
	if p.Knockback.Len() < world.KnockbackEpsilon {
		p.Knockback = geom.Vec{}
	}

	if p.DragUntil > ws.Now {
		total = total.Add(p.DragVel)
	} else {
		p.DragVel = geom.Vec{}
		p.DragBy = 0
	}
	if !total.Finite() {
		total = geom.Vec{}
	}
	ws.Physics.SetVelocity(p.ID, total)
}

// MaxSpeed is the speed cap for the player this tick: base speed scaled by
// sprint, role and terrain, plus the human gem bonus and item bonuses.
func MaxSpeed(ws *world.State, p *world.Player) float64 {
	m := p.Speed
	if p.Sprinting {
		m *= world.SprintMult
	}
	if p.IsZombie() {
		m *= world.ZombieMult
	}
	switch {
	case ws.InSea(p.Pos):
		m *= world.SeaMult
	case ws.OnSand(p.Pos):
		m *= world.SandMult
	}
	if p.IsHuman() {
		m += math.Min(float64(p.Gems)*world.GemBonusPerGem, world.GemBonusCap)
	}
	if p.Has(data.ItemRunningShoes) {
		m += world.ShoesBonus
	}
	return m
}

// clampToMap keeps pos inside the world rectangle.
func clampToMap(ws *world.State, pos geom.Vec) geom.Vec {
	pos.X, _ = geom.Clamp(pos.X, 0, ws.Layout.Width)
	pos.Y, _ = geom.Clamp(pos.Y, 0, ws.Layout.Height)
	return pos
}
