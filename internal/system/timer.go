package system

import (
	"time"

	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/world"
)

// TimerSystem fires scheduled one-shot effects (ability ends, duct exits,
// shark meals) whose deadline has passed. Effects bound to an entity that
// no longer exists are dropped by the scheduler. Phase 1 (PreUpdate), first.
type TimerSystem struct {
	world *world.State
}

func NewTimerSystem(ws *world.State) *TimerSystem {
	return &TimerSystem{world: ws}
}

func (s *TimerSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *TimerSystem) Update(_ time.Duration) {
	s.world.Sched.RunDue(s.world.Now)
}
