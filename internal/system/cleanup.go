package system

import (
	"time"

	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Physics bodies and hiding spots are released by the world's destroy hook.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.ECS.FlushDestroyQueue()
}
