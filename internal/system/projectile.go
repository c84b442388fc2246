package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// ProjectileSystem flies arrows and blowdarts. They are kinematic: each tick
// they move a fixed step along their heading and are tested against player
// hitboxes and walls. Phase 3 (Update).
type ProjectileSystem struct {
	world *world.State
}

func NewProjectileSystem(ws *world.State) *ProjectileSystem {
	return &ProjectileSystem{world: ws}
}

func (s *ProjectileSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ProjectileSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Projectiles.Sorted(func(id ecs.EntityID, pr *world.Projectile) {
		if ws.ECS.Pending(id) {
			return
		}
		if pr.Stuck {
			pr.Rotation += pr.Spin
			pr.Spin *= world.ArrowSpinDecay
			if ws.Now-pr.StuckAt >= world.ArrowStuckLifetime {
				ws.ECS.MarkForDestruction(id)
			}
			return
		}

		speed := world.ArrowSpeed
		if pr.Kind == world.KindBlowdart {
			speed = world.DartSpeed
		}
		pr.Pos = pr.Pos.Add(geom.FromAngle(pr.Angle, speed))
		pr.Rotation = pr.Angle

		if !ws.InBounds(pr.Pos) {
			ws.ECS.MarkForDestruction(id)
			return
		}
		if ws.InWall(pr.Pos) {
			if pr.Kind == world.KindArrow {
				s.stick(pr, 0)
			} else {
				ws.ECS.MarkForDestruction(id)
			}
			return
		}
		if p := s.victim(pr); p != nil {
			s.hit(pr, p)
		}
	})
}

// victim returns the first player the projectile tip is inside of.
// Arrows hit anyone but the shooter; darts only zombies.
func (s *ProjectileSystem) victim(pr *world.Projectile) *world.Player {
	var found *world.Player
	s.world.EachPlayer(func(p *world.Player) {
		if found != nil || p.ID == pr.Owner {
			return
		}
		if p.Flying || p.Hidden || p.InDuct || p.BeingEaten || p.HitboxOff {
			return
		}
		if pr.Kind == world.KindBlowdart && !p.IsZombie() {
			return
		}
		if p.Hitbox.Contains(pr.Pos) {
			found = p
		}
	})
	return found
}

func (s *ProjectileSystem) hit(pr *world.Projectile, p *world.Player) {
	ws := s.world
	pr.Hit = true
	if pr.Kind == world.KindBlowdart {
		ws.ApplySlow(p, world.DartSlowFactor, world.DartSlowTime)
		ws.ECS.MarkForDestruction(pr.ID)
		return
	}
	ws.ApplyKnockback(p, geom.FromAngle(pr.Angle, world.ArrowKnockback))
	s.stick(pr, world.ArrowSpin)
}

func (s *ProjectileSystem) stick(pr *world.Projectile, spin float64) {
	pr.Stuck = true
	pr.StuckAt = s.world.Now
	pr.Spin = spin
}

// CannonballSystem retires cannonballs at the end of their lifetime. Flight
// and contacts are handled by physics and the collision pass.
// Phase 3 (Update).
type CannonballSystem struct {
	world *world.State
}

func NewCannonballSystem(ws *world.State) *CannonballSystem {
	return &CannonballSystem{world: ws}
}

func (s *CannonballSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CannonballSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Balls.Sorted(func(id ecs.EntityID, b *world.Cannonball) {
		if ws.Now >= b.ExpiresAt {
			ws.ECS.MarkForDestruction(id)
		}
	})
}

// GrenadeSystem detonates grenades when their fuse runs out: every player
// in the blast radius is knocked back with linear falloff.
// Phase 3 (Update).
type GrenadeSystem struct {
	world *world.State
}

func NewGrenadeSystem(ws *world.State) *GrenadeSystem {
	return &GrenadeSystem{world: ws}
}

func (s *GrenadeSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *GrenadeSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Grenades.Sorted(func(id ecs.EntityID, g *world.Grenade) {
		if ws.ECS.Pending(id) || ws.Now < g.ExplodeAt {
			return
		}
		ws.EachPlayer(func(p *world.Player) {
			ws.RadialKnockback(p, g.Pos, world.GrenadeRadius, world.GrenadeForce)
		})
		ws.ECS.MarkForDestruction(id)
	})
}
