package system

import (
	"time"

	"github.com/hvz-game/server/internal/core/ecs"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/world"
)

// PortalSystem teleports players between the two ends of a portal pair.
// A lone portal does nothing. One cooldown is shared by every pair so a
// player arriving on an exit is not bounced straight back.
// Phase 3 (Update).
type PortalSystem struct {
	world *world.State
}

func NewPortalSystem(ws *world.State) *PortalSystem {
	return &PortalSystem{world: ws}
}

func (s *PortalSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *PortalSystem) Update(_ time.Duration) {
	ws := s.world
	if ws.LastPortalUse > 0 && ws.Now-ws.LastPortalUse < world.PortalCooldown {
		return
	}

	seen := make(map[ecs.EntityID]bool)
	var pairs [][]*world.Portal
	ws.Portals.Sorted(func(_ ecs.EntityID, pt *world.Portal) {
		if seen[pt.Owner] {
			return
		}
		seen[pt.Owner] = true
		if mine := ws.PortalsOf(pt.Owner); len(mine) == 2 {
			pairs = append(pairs, mine)
		}
	})
	if len(pairs) == 0 {
		return
	}

	ws.EachPlayer(func(p *world.Player) {
		if ws.LastPortalUse == ws.Now || p.InDuct || p.Hidden || p.BeingEaten || p.Flying {
			return
		}
		for _, pair := range pairs {
			for i, end := range pair {
				if p.Pos.Dist(end.Pos) > world.PortalRadius {
					continue
				}
				ws.TeleportPlayer(p, pair[1-i].Pos)
				ws.LastPortalUse = ws.Now
				return
			}
		}
	})
}
