package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/physics"
	"github.com/hvz-game/server/internal/world"
)

// CollisionSystem turns the contacts of this tick's physics step into
// gameplay: infection on zombie-human contact, furniture pushing, and
// cannonball drag. Runs after every entity subsystem. Phase 3 (Update).
type CollisionSystem struct {
	world *world.State
}

func NewCollisionSystem(ws *world.State) *CollisionSystem {
	return &CollisionSystem{world: ws}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CollisionSystem) Update(_ time.Duration) {
	for _, c := range s.world.Contacts {
		switch c.Pair {
		case physics.PairPlayerPlayer:
			s.touch(c.A, c.B)
		case physics.PairPlayerObject:
			s.push(c.A, c.B)
		case physics.PairBallPlayer, physics.PairBallObject:
			s.drag(c.A, c.B)
		}
	}
}

func (s *CollisionSystem) touch(a, b ecs.EntityID) {
	ws := s.world
	pa, pb := ws.Player(a), ws.Player(b)
	if pa == nil || pb == nil || pa.Role == pb.Role {
		return
	}
	z, h := pa, pb
	if pb.IsZombie() {
		z, h = pb, pa
	}
	z.RecomputeHitbox()
	h.RecomputeHitbox()
	ws.ZombieTouch(z, h)
}

// push shoves a pushable body the player is walking into, with spin from
// the lever arm between the player and the body center.
func (s *CollisionSystem) push(playerID, objID ecs.EntityID) {
	ws := s.world
	p := ws.Player(playerID)
	tag, ok := ws.Tags.Get(objID)
	if p == nil || !ok || !tag.Can(world.CapPushable) || ws.ECS.Pending(objID) {
		return
	}
	v := p.Vel
	if v.Len() < world.PushMinVel {
		return
	}
	center, ok := ws.PositionOf(objID)
	if !ok {
		return
	}
	lever := p.Pos.Sub(center)
	if v.Dot(center.Sub(p.Pos)) <= 0 {
		return // moving away
	}
	mult := 1.0
	if p.Has(data.ItemGlove) {
		mult *= world.GloveMult
	}
	if p.IsZombie() {
		mult *= world.ZombiePush
	}
	ws.Physics.Push(objID, v.Scale(world.PushFactor*mult))
	ws.Physics.AddSpin(objID, lever.Cross(v)*world.TorqueScale*mult)
}

// drag refreshes the drag window of whatever a cannonball touched.
func (s *CollisionSystem) drag(ballID, other ecs.EntityID) {
	ws := s.world
	b, ok := ws.Balls.Get(ballID)
	if !ok || ws.ECS.Pending(ballID) || other == b.Owner {
		return
	}
	until := ws.Now + world.DragWindow
	if p := ws.Player(other); p != nil {
		p.DragBy, p.DragUntil = ballID, until
		return
	}
	tag, ok := ws.Tags.Get(other)
	if !ok || !tag.Can(world.CapDraggable) {
		return
	}
	if o, ok := ws.Objects.Get(other); ok {
		o.DragBy, o.DragUntil = ballID, until
	} else if g, ok := ws.Ground.Get(other); ok {
		g.DragBy, g.DragUntil = ballID, until
	}
}

// HitboxSystem refreshes every player's size and infection circle from
// their gems and position. Phase 4 (PostUpdate).
type HitboxSystem struct {
	world *world.State
}

func NewHitboxSystem(ws *world.State) *HitboxSystem {
	return &HitboxSystem{world: ws}
}

func (s *HitboxSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *HitboxSystem) Update(_ time.Duration) {
	s.world.EachPlayer(func(p *world.Player) {
		p.RecomputeHitbox()
		if !p.Pos.Finite() {
			s.world.TeleportPlayer(p, s.world.Physics.Center())
			p.Hitbox = geom.Circle{Center: p.Pos, Radius: p.Width / 2}
		}
	})
}
