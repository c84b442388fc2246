package system

import (
	"time"

	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/world"
)

// GrabSystem pulls the body held by a gravity glove toward its holder's aim.
// The hold breaks when the glove is no longer selected, the holder can't
// act, or the body is gone. Phase 1 (PreUpdate).
type GrabSystem struct {
	world *world.State
}

func NewGrabSystem(ws *world.State) *GrabSystem {
	return &GrabSystem{world: ws}
}

func (s *GrabSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *GrabSystem) Update(_ time.Duration) {
	ws := s.world
	ws.EachPlayer(func(p *world.Player) {
		if p.Grabbed == 0 {
			return
		}
		id := p.Grabbed
		tag, ok := ws.Tags.Get(id)
		if !ok || !ws.Alive(id) || !tag.Can(world.CapGrabbable) ||
			!p.IsHuman() || p.Busy() || p.Hidden || !p.SelectedIs(data.ItemGravityGlove) {
			ws.ReleaseGrab(p)
			return
		}
		pos, ok := ws.PositionOf(id)
		if !ok {
			ws.ReleaseGrab(p)
			return
		}
		aim := p.Input.Aim
		if !aim.Finite() || aim.IsZero() {
			aim = p.Pos
		}
		vel := aim.Sub(pos).Scale(world.GrabPull).Limit(world.GrabMaxSpeed)
		ws.Physics.SetVelocity(id, vel)
	})
}
