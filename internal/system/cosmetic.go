package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/event"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/world"
)

// CosmeticSystem drops expired floating texts. Phase 4 (PostUpdate).
type CosmeticSystem struct {
	world *world.State
}

func NewCosmeticSystem(ws *world.State) *CosmeticSystem {
	return &CosmeticSystem{world: ws}
}

func (s *CosmeticSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *CosmeticSystem) Update(_ time.Duration) {
	s.world.ExpireTexts()
}

// EventSystem delivers the events emitted so far to their subscribers.
// Phase 4 (PostUpdate), registered last in its phase.
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
