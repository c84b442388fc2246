package system

import (
	"sync/atomic"
	"time"

	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/handler"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/world"
)

// OutputSystem broadcasts the full world snapshot, updates the gauges and
// flushes every session's output queue. It also publishes a small status
// summary for the HTTP goroutines. Phase 5 (Output).
type OutputSystem struct {
	deps    *handler.Deps
	summary atomic.Pointer[world.Summary]
}

func NewOutputSystem(deps *handler.Deps) *OutputSystem {
	s := &OutputSystem{deps: deps}
	s.summary.Store(deps.World.Summarize())
	return s
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	deps := s.deps
	n := handler.BroadcastSnapshot(deps)

	if m := deps.Metrics; m != nil {
		m.BroadcastBytes.Add(float64(n))
		m.SetPlayers(deps.World.CountRoles())
		m.Sessions.Set(float64(deps.Sessions.Count()))
	}
	s.summary.Store(deps.World.Summarize())

	deps.Sessions.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// Summary returns the status as of the last tick. Safe from any goroutine.
func (s *OutputSystem) Summary() *world.Summary {
	return s.summary.Load()
}
