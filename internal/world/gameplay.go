package world

import (
	"fmt"
	"math"

	"github.com/hvz-game/server/internal/core/event"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
)

// Scheduled task names. A player has at most one pending task per name.
const (
	TaskSprintEnd = "sprint-end"
	TaskSpyEnd    = "spy-end"
	TaskCloakEnd  = "cloak-end"
	TaskFlightEnd = "flight-end"
	TaskSlowEnd   = "slow-end"
	TaskTrapEnd   = "trap-end"
	TaskDuctExit  = "duct-exit"
	TaskEaten     = "eaten"
)

// ApplyKnockback adds an impulse to the player's decaying knockback.
// Players out of reach of the world (eaten, hidden, in a duct, airborne
// butterflies) ignore it.
func (s *State) ApplyKnockback(p *Player, impulse geom.Vec) {
	if p.BeingEaten || p.Hidden || p.InDuct || p.HitboxOff || !impulse.Finite() {
		return
	}
	p.Knockback = p.Knockback.Add(impulse)
}

// RadialKnockback pushes p away from origin with force scaled linearly by
// distance over radius. Returns false when p is outside the radius.
func (s *State) RadialKnockback(p *Player, origin geom.Vec, radius, force float64) bool {
	d := p.Pos.Dist(origin)
	if d > radius {
		return false
	}
	dir := p.Pos.Sub(origin).Normalize()
	if dir.IsZero() {
		dir = geom.FromAngle(s.Rand.Float64()*2*math.Pi, 1)
	}
	s.ApplyKnockback(p, dir.Scale(force*(1-d/radius)))
	return true
}

// DropItemAt puts one inventory entry on the ground near the player.
func (s *State) DropItemAt(p *Player, i int) bool {
	it, ok := p.RemoveAt(i)
	if !ok {
		return false
	}
	if it.ID == data.ItemDrone {
		if d := s.DroneOf(p.ID); d != nil {
			it.Ammo = d.Ammo
			s.ECS.MarkForDestruction(d.ID)
		}
	}
	angle := s.Rand.Float64() * 2 * math.Pi
	s.SpawnGroundItem(it, p.Pos.Add(geom.FromAngle(angle, 20+s.Rand.Float64()*20)))
	return true
}

// DropAllItems empties the inventory onto the ground.
func (s *State) DropAllItems(p *Player) {
	for len(p.Inventory) > 0 {
		s.DropItemAt(p, len(p.Inventory)-1)
	}
	s.ReleaseGrab(p)
	p.Skating = false
}

// ReleaseGrab lets go of whatever the gravity glove holds.
func (s *State) ReleaseGrab(p *Player) {
	p.Grabbed = 0
}

// SyncDroneAmmo copies the drone's ammo into the inventory entry.
func (s *State) SyncDroneAmmo(p *Player) {
	d := s.DroneOf(p.ID)
	if d == nil {
		return
	}
	if i := p.Find(data.ItemDrone); i >= 0 {
		p.Inventory[i].Ammo = d.Ammo
	}
}

// StartFlight lifts the player off the ground for duration ms. Airborne
// players have no hitbox and no contacts.
func (s *State) StartFlight(p *Player, duration int64, winged bool) {
	p.Flying = true
	p.Winged = winged
	p.HitboxOff = true
	p.Knockback = geom.Vec{}
	s.Physics.SetCollidable(p.ID, false)
	s.Sched.Cancel(p.ID, TaskFlightEnd)
	id := p.ID
	s.Sched.At(s.Now+duration, id, TaskFlightEnd, func() {
		if pl := s.Player(id); pl != nil {
			s.Land(pl)
		}
	})
}

// Land ends a flight early or on schedule.
func (s *State) Land(p *Player) {
	if !p.Flying {
		return
	}
	if p.Winged {
		p.WingsReadyAt = s.Now + WingsCooldown
	}
	p.Flying = false
	p.Winged = false
	p.HitboxOff = false
	if !p.Hidden && !p.InDuct {
		s.Physics.SetCollidable(p.ID, true)
	}
	s.Sched.Cancel(p.ID, TaskFlightEnd)
}

// ApplySlow scales the player's speed down for a while. Repeated hits extend
// the slow. On expiry only the amount the slow took is given back, so speed
// won or lost in the meantime stays.
func (s *State) ApplySlow(p *Player, factor float64, duration int64) {
	if p.SlowedUntil <= s.Now {
		p.SlowLoss = p.Speed * (1 - factor)
		p.Speed -= p.SlowLoss
	}
	p.SlowedUntil = s.Now + duration
	s.Sched.Cancel(p.ID, TaskSlowEnd)
	id := p.ID
	s.Sched.At(p.SlowedUntil, id, TaskSlowEnd, func() {
		if pl := s.Player(id); pl != nil && pl.SlowedUntil > 0 {
			pl.Speed += pl.SlowLoss
			pl.SlowLoss = 0
			pl.SlowedUntil = 0
		}
	})
}

// TrapPlayer immobilizes the player for duration ms.
func (s *State) TrapPlayer(p *Player, duration int64) {
	p.Trapped = true
	p.Vel = geom.Vec{}
	s.Physics.SetVelocity(p.ID, geom.Vec{})
	id := p.ID
	s.Sched.At(s.Now+duration, id, TaskTrapEnd, func() {
		if pl := s.Player(id); pl != nil {
			pl.Trapped = false
		}
	})
}

// ZombieTouch resolves a zombie reaching a human. Returns true when the
// human was infected.
func (s *State) ZombieTouch(z, h *Player) bool {
	if s.Phase != PhaseRunning || !z.IsZombie() || !h.IsHuman() {
		return false
	}
	if h.Flying || h.Trapped || h.BeingEaten || h.Hidden || h.InDuct || h.HitboxOff || z.HitboxOff {
		return false
	}
	if !z.Hitbox.Overlaps(h.Hitbox) {
		return false
	}
	if h.Function == FuncButterfly && !h.ButterflyUsed {
		h.ButterflyUsed = true
		s.StartFlight(h, ButterflyFlight, false)
		return false
	}
	s.Infect(h, z)
	return true
}

// Infect turns a human into a zombie. When by is a zombie player it
// receives 70–80% of the human's gems and speed above the floor.
func (s *State) Infect(h, by *Player) {
	if !h.IsHuman() {
		return
	}
	s.DropAllItems(h)

	byName := "the horde"
	pre := h.Gems
	if by != nil {
		byName = by.Name
		f := InfectMinFrac + s.Rand.Float64()*(InfectMaxFrac-InfectMinFrac)
		post := int(math.Floor(float64(pre) * (1 - f)))
		h.Gems = post
		by.AddGems(pre - post)

		moved := math.Max(0, h.Speed-s.Econ.SpeedFloor) * f
		h.Speed -= moved
		by.Speed += moved
	}
	s.turnZombie(h)
	event.Emit(s.Bus, event.PlayerInfected{Human: h.ID, HumanName: h.Name, By: byName, Gems: pre - h.Gems})
	s.Announce(fmt.Sprintf("%s was infected by %s", h.Name, byName))
}

// turnZombie flips role and clears every human-only state.
func (s *State) turnZombie(p *Player) {
	s.Land(p)
	s.Unhide(p)
	p.Function = FuncNone
	p.Sprinting = false
	p.Spying = false
	p.Invisible = false
	p.Skating = false
	for _, name := range []string{TaskSprintEnd, TaskSpyEnd, TaskCloakEnd} {
		s.Sched.Cancel(p.ID, name)
	}
	s.SetRole(p, RoleZombie)
}

// MakeZombie converts a player without transferring anything (shark meal,
// admin command, patient zero).
func (s *State) MakeZombie(p *Player) {
	if p.IsZombie() {
		return
	}
	s.DropAllItems(p)
	s.turnZombie(p)
}

// MakeHuman cures a zombie.
func (s *State) MakeHuman(p *Player) {
	if p.IsHuman() {
		return
	}
	p.ZombieAbility = ""
	p.AbilityCharges = 0
	s.Unhide(p)
	s.SetRole(p, RoleHuman)
}
