package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// DragSystem carries entities hit by a cannonball along with it while the
// drag window lasts. Bodies get a share of the ball velocity as a push;
// players get it through DragVel, which movement adds on top of input.
// Phase 1 (PreUpdate), before movement.
type DragSystem struct {
	world *world.State
}

func NewDragSystem(ws *world.State) *DragSystem {
	return &DragSystem{world: ws}
}

func (s *DragSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *DragSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Objects.Sorted(func(id ecs.EntityID, o *world.WorldObject) {
		o.DragBy, o.DragUntil = s.drag(id, o.DragBy, o.DragUntil)
	})
	ws.Ground.Sorted(func(id ecs.EntityID, g *world.GroundItem) {
		g.DragBy, g.DragUntil = s.drag(id, g.DragBy, g.DragUntil)
	})
	ws.EachPlayer(func(p *world.Player) {
		if p.DragBy == 0 {
			return
		}
		b, ok := ws.Balls.Get(p.DragBy)
		if !ok || p.DragUntil <= ws.Now {
			p.DragBy, p.DragUntil, p.DragVel = 0, 0, geom.Vec{}
			return
		}
		p.DragVel = b.Vel.Scale(world.DragFraction)
	})
}

// drag pushes one body and returns its updated drag fields.
func (s *DragSystem) drag(id, by ecs.EntityID, until int64) (ecs.EntityID, int64) {
	if by == 0 {
		return 0, 0
	}
	b, ok := s.world.Balls.Get(by)
	if !ok || until <= s.world.Now || s.world.ECS.Pending(id) {
		return 0, 0
	}
	s.world.Physics.Push(id, b.Vel.Scale(world.DragFraction))
	return by, until
}
