package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/world"
)

// DroneSystem eases every drone toward its owner's aim. A drone whose owner
// left or no longer carries the drone item is removed. Phase 1 (PreUpdate).
type DroneSystem struct {
	world *world.State
}

func NewDroneSystem(ws *world.State) *DroneSystem {
	return &DroneSystem{world: ws}
}

func (s *DroneSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *DroneSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Drones.Sorted(func(id ecs.EntityID, d *world.Drone) {
		if ws.ECS.Pending(id) {
			return
		}
		owner := ws.Player(d.Owner)
		if owner == nil || !owner.Has(data.ItemDrone) || owner.IsZombie() {
			ws.ECS.MarkForDestruction(id)
			return
		}
		target := owner.Input.Aim
		if !target.Finite() || target.IsZero() {
			target = owner.Pos
		}
		d.Pos = d.Pos.Add(target.Sub(d.Pos).Scale(world.DroneSmoothing))
	})
}
