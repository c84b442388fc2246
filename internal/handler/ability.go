package handler

import (
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
)

// Activatable abilities.
const (
	AbilitySprint   = "sprint"
	AbilitySpy      = "spy"
	AbilityEngineer = "engineer"
	AbilityShove    = "rhinoceros"
	AbilityCloak    = "cloak"
	AbilityAntidote = "antidote"
	AbilityWings    = "wings"
	AbilityPortal   = "portal"
	AbilityPlace    = "place"
)

type activateMsg struct {
	Ability string `json:"ability"`
}

// HandleActivate triggers a function, item ability or zombie placement.
func HandleActivate(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m activateMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	p := playerOf(sess, deps)
	if p == nil {
		return
	}
	if Activate(deps.World, p, m.Ability) {
		deps.Log.Debug("發動能力", zap.String("player", p.Name), zap.String("ability", m.Ability))
	}
}

// Activate runs one ability. Every precondition failure is a silent no-op.
func Activate(ws *world.State, p *world.Player, ability string) bool {
	if p.Busy() {
		return false
	}
	switch ability {
	case AbilitySprint:
		return sprint(ws, p)
	case AbilitySpy:
		return spy(ws, p)
	case AbilityEngineer:
		return engineer(ws, p)
	case AbilityShove:
		return shove(ws, p)
	case AbilityCloak:
		return cloak(ws, p)
	case AbilityAntidote:
		return antidote(ws, p)
	case AbilityWings:
		return wings(ws, p)
	case AbilityPortal:
		if !p.IsHuman() || !p.Has(data.ItemPortalGun) {
			return false
		}
		placePortal(ws, p)
		return true
	case AbilityPlace:
		return placeHazard(ws, p)
	}
	return false
}

func sprint(ws *world.State, p *world.Player) bool {
	if p.Function != world.FuncAthlete || p.Sprinting || ws.Now < p.SprintReadyAt {
		return false
	}
	p.Sprinting = true
	p.SprintReadyAt = ws.Now + world.SprintCooldown
	id := p.ID
	ws.Sched.At(ws.Now+world.SprintDuration, id, world.TaskSprintEnd, func() {
		if pl := ws.Player(id); pl != nil {
			pl.Sprinting = false
		}
	})
	return true
}

func spy(ws *world.State, p *world.Player) bool {
	if p.Function != world.FuncSpy || p.Spying || ws.Now < p.SpyReadyAt {
		return false
	}
	p.Spying = true
	p.SpyReadyAt = ws.Now + world.SpyCooldown
	id := p.ID
	ws.Sched.At(ws.Now+world.SpyDuration, id, world.TaskSpyEnd, func() {
		if pl := ws.Player(id); pl != nil {
			pl.Spying = false
		}
	})
	return true
}

func engineer(ws *world.State, p *world.Player) bool {
	if p.Function != world.FuncEngineer || p.EngineerUses >= world.EngineerMaxUses || ws.Now < p.EngineerReadyAt {
		return false
	}
	exit, ok := ductExit(ws, p.Pos, world.EngineerReach)
	if !ok {
		return false
	}
	p.EngineerUses++
	p.EngineerReadyAt = ws.Now + world.EngineerCooldown
	EnterDuct(ws, p, exit)
	return true
}

// ductExit returns the far end of the closest duct whose opening is within reach.
func ductExit(ws *world.State, pos geom.Vec, reach float64) (geom.Vec, bool) {
	best := reach
	var exit geom.Vec
	found := false
	for _, d := range ws.Layout.Ducts {
		if dist := d.A.Vec().Dist(pos); dist <= best {
			best, exit, found = dist, d.B.Vec(), true
		}
		if dist := d.B.Vec().Dist(pos); dist <= best {
			best, exit, found = dist, d.A.Vec(), true
		}
	}
	return exit, found
}

// EnterDuct hides the player inside a duct and brings them out at exit
// after the travel time.
func EnterDuct(ws *world.State, p *world.Player, exit geom.Vec) {
	ws.Unhide(p)
	ws.ReleaseGrab(p)
	p.InDuct = true
	p.Vel = geom.Vec{}
	p.Knockback = geom.Vec{}
	ws.Physics.SetVelocity(p.ID, geom.Vec{})
	ws.Physics.SetCollidable(p.ID, false)
	id := p.ID
	ws.Sched.At(ws.Now+world.DuctTravelTime, id, world.TaskDuctExit, func() {
		pl := ws.Player(id)
		if pl == nil || !pl.InDuct {
			return
		}
		pl.InDuct = false
		ws.TeleportPlayer(pl, exit)
		if !pl.Flying {
			ws.Physics.SetCollidable(pl.ID, true)
		}
	})
}

func shove(ws *world.State, p *world.Player) bool {
	if p.Function != world.FuncRhinoceros || ws.Now < p.ShoveReadyAt {
		return false
	}
	p.ShoveReadyAt = ws.Now + world.ShoveCooldown
	ws.EachPlayer(func(o *world.Player) {
		if o.ID != p.ID {
			ws.RadialKnockback(o, p.Pos, world.ShoveRadius, world.ShoveForce)
		}
	})
	return true
}

func cloak(ws *world.State, p *world.Player) bool {
	if !p.IsHuman() || !p.Has(data.ItemCloak) || p.Invisible || ws.Now < p.CloakReadyAt {
		return false
	}
	p.Invisible = true
	p.CloakReadyAt = ws.Now + world.CloakCooldown
	id := p.ID
	ws.Sched.At(ws.Now+world.CloakDuration, id, world.TaskCloakEnd, func() {
		if pl := ws.Player(id); pl != nil {
			pl.Invisible = false
		}
	})
	return true
}

// antidote only matters before patient zero is picked.
func antidote(ws *world.State, p *world.Player) bool {
	if ws.Phase != world.PhaseWaiting || !p.Has(data.ItemAntidote) {
		return false
	}
	p.RemoveItem(data.ItemAntidote)
	p.Protection = world.AntidoteProtection
	return true
}

func wings(ws *world.State, p *world.Player) bool {
	if !p.IsHuman() || !p.Has(data.ItemAngelWings) {
		return false
	}
	if p.Flying {
		if !p.Winged {
			return false
		}
		ws.Land(p)
		return true
	}
	if ws.Now < p.WingsReadyAt || p.Hidden || p.Trapped {
		return false
	}
	ws.StartFlight(p, world.WingsMaxFlight, true)
	return true
}

// placePortal opens a portal at the aim point, or at the player's feet when
// the aim is off the map or inside a wall.
func placePortal(ws *world.State, p *world.Player) {
	at := p.Input.Aim
	if at.IsZero() || !ws.InBounds(at) || ws.InWall(at) {
		at = p.Pos
	}
	ws.PlacePortal(p.ID, at)
}

// placeHazard spends one zombie charge on a trap or mine at the zombie's feet.
func placeHazard(ws *world.State, p *world.Player) bool {
	if !p.IsZombie() || p.AbilityCharges <= 0 {
		return false
	}
	kind := world.KindTrap
	switch p.ZombieAbility {
	case "trap":
	case "mine":
		kind = world.KindMine
	default:
		return false
	}
	ws.SpawnHazard(kind, p.ID, p.Pos)
	p.AbilityCharges--
	if p.AbilityCharges == 0 {
		p.ZombieAbility = ""
	}
	return true
}
