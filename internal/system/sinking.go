package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// SinkingSystem swallows sinkable entities that enter a hazard zone. The
// timer starts once and is never restarted; at full progress the entity is
// queued for removal, which detaches its body. Phase 3 (Update).
type SinkingSystem struct {
	world *world.State
}

func NewSinkingSystem(ws *world.State) *SinkingSystem {
	return &SinkingSystem{world: ws}
}

func (s *SinkingSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SinkingSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Objects.Sorted(func(id ecs.EntityID, o *world.WorldObject) { s.sink(id, o.Pos, &o.Sink) })
	ws.Ground.Sorted(func(id ecs.EntityID, g *world.GroundItem) { s.sink(id, g.Pos, &g.Sink) })
	ws.Balls.Sorted(func(id ecs.EntityID, b *world.Cannonball) { s.sink(id, b.Pos, &b.Sink) })
}

func (s *SinkingSystem) sink(id ecs.EntityID, pos geom.Vec, sk *world.Sinking) {
	ws := s.world
	if ws.ECS.Pending(id) {
		return
	}
	if tag, ok := ws.Tags.Get(id); !ok || !tag.Can(world.CapSinkable) {
		return
	}
	if !sk.Active() {
		if !ws.InHazard(pos) {
			return
		}
		sk.StartedAt = ws.Now
	}
	p := float64(ws.Now-sk.StartedAt) / world.SinkDuration
	if p > 1 {
		p = 1
	}
	if p > sk.Progress {
		sk.Progress = p
	}
	if sk.Progress >= 1 {
		ws.ECS.MarkForDestruction(id)
	}
}
