package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// PhysicsSystem steps the rigid-body space, copies body transforms back
// into the world and keeps players inside the map. The contacts of the step
// are left on the world for the collision pass. Phase 2 (Physics).
type PhysicsSystem struct {
	world *world.State
}

func NewPhysicsSystem(ws *world.State) *PhysicsSystem {
	return &PhysicsSystem{world: ws}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(_ time.Duration) {
	ws := s.world
	eng := ws.Physics
	ws.Contacts = eng.Step()

	ws.EachPlayer(func(p *world.Player) {
		if p.Flying || p.Hidden {
			// position owned by movement / the hiding spot
			eng.SetPosition(p.ID, p.Pos)
			return
		}
		pos, ok := eng.Position(p.ID)
		if !ok {
			return
		}
		x, cx := geom.Clamp(pos.X, 0, ws.Layout.Width)
		y, cy := geom.Clamp(pos.Y, 0, ws.Layout.Height)
		if cx || cy {
			pos = geom.V(x, y)
			eng.SetPosition(p.ID, pos)
			eng.SetVelocity(p.ID, geom.Vec{})
			p.Vel = geom.Vec{}
		}
		p.Pos = pos
	})
	ws.Objects.Each(func(id ecs.EntityID, o *world.WorldObject) {
		if pos, ok := eng.Position(id); ok {
			o.Pos = pos
			o.Rotation = eng.Angle(id)
		}
	})
	ws.Ground.Each(func(id ecs.EntityID, g *world.GroundItem) {
		if pos, ok := eng.Position(id); ok {
			g.Pos = pos
			g.Rotation = eng.Angle(id)
		}
	})
	ws.Balls.Each(func(id ecs.EntityID, b *world.Cannonball) {
		if pos, ok := eng.Position(id); ok {
			b.Pos = pos
			b.Vel = eng.Velocity(id)
		}
	})
}
