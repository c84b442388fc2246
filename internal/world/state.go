package world

import (
	"math/rand"

	"github.com/hvz-game/server/internal/config"
	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/core/event"
	"github.com/hvz-game/server/internal/core/sched"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/physics"
)

// Economy is the shop and growth tuning read from config.
type Economy = config.EconomyConfig

// Phase is the round lifecycle state.
type Phase uint8

const (
	PhaseWaiting Phase = iota
	PhaseRunning
	PhasePostRound
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhasePostRound:
		return "post-round"
	default:
		return "waiting"
	}
}

// State is the single mutable world, owned by the game loop goroutine.
// Every system and handler receives it by pointer; nothing here locks.
type State struct {
	ECS     *ecs.World
	Physics *physics.Engine
	Sched   *sched.Scheduler
	Bus     *event.Bus
	Rand    *rand.Rand
	Layout  *data.Layout
	Catalog *data.Catalog
	Econ    Economy
	Round   config.RoundConfig

	Tick uint64
	Now  int64 // unix ms of the current tick

	Phase             Phase
	WaitingTimeLeft   int
	TimeLeft          int
	PostRoundTimeLeft int

	TakenFunctions map[Function]ecs.EntityID
	LastPortalUse  int64           // global across every portal pair
	CommandGrants  map[string]bool // account usernames granted /commands, survives rounds

	Tags        *ecs.PtrComponentStore[Tag]
	Players     *ecs.PtrComponentStore[Player]
	Objects     *ecs.PtrComponentStore[WorldObject]
	Ground      *ecs.PtrComponentStore[GroundItem]
	Projectiles *ecs.PtrComponentStore[Projectile]
	Balls       *ecs.PtrComponentStore[Cannonball]
	Grenades    *ecs.PtrComponentStore[Grenade]
	Hazards     *ecs.PtrComponentStore[Hazard]
	Portals     *ecs.PtrComponentStore[Portal]
	Sharks      *ecs.PtrComponentStore[Shark]
	Drones      *ecs.PtrComponentStore[Drone]

	Contacts []physics.Contact // produced by this tick's physics step
	Texts    []FloatingText
	Chat     []ChatLine

	bySession   map[uint64]ecs.EntityID
	hidingSpots []ecs.EntityID // occupant per layout hiding spot
	portalSeq   uint64
}

// NewState builds the world and lays out the map. hz is the physics rate.
func NewState(layout *data.Layout, catalog *data.Catalog, econ Economy, round config.RoundConfig, hz float64, rng *rand.Rand) *State {
	w := ecs.NewWorld()
	s := &State{
		ECS:            w,
		Physics:        physics.New(layout.Width, layout.Height, hz),
		Sched:          sched.New(w.Alive),
		Bus:            event.NewBus(),
		Rand:           rng,
		Layout:         layout,
		Catalog:        catalog,
		Econ:           econ,
		Round:          round,
		TakenFunctions: make(map[Function]ecs.EntityID),
		CommandGrants:  make(map[string]bool),
		Tags:           ecs.NewPtrComponentStore[Tag](),
		Players:        ecs.NewPtrComponentStore[Player](),
		Objects:        ecs.NewPtrComponentStore[WorldObject](),
		Ground:         ecs.NewPtrComponentStore[GroundItem](),
		Projectiles:    ecs.NewPtrComponentStore[Projectile](),
		Balls:          ecs.NewPtrComponentStore[Cannonball](),
		Grenades:       ecs.NewPtrComponentStore[Grenade](),
		Hazards:        ecs.NewPtrComponentStore[Hazard](),
		Portals:        ecs.NewPtrComponentStore[Portal](),
		Sharks:         ecs.NewPtrComponentStore[Shark](),
		Drones:         ecs.NewPtrComponentStore[Drone](),
		bySession:      make(map[uint64]ecs.EntityID),
	}
	reg := w.Registry()
	reg.Register(s.Tags)
	reg.Register(s.Players)
	reg.Register(s.Objects)
	reg.Register(s.Ground)
	reg.Register(s.Projectiles)
	reg.Register(s.Balls)
	reg.Register(s.Grenades)
	reg.Register(s.Hazards)
	reg.Register(s.Portals)
	reg.Register(s.Sharks)
	reg.Register(s.Drones)
	w.OnDestroy(s.detach)
	s.Reset()
	return s
}

// Reset reinitializes geometry, physics and every entity. Connected
// players must be re-added by the caller.
func (s *State) Reset() {
	s.ECS.Reset()
	s.Physics.Reset(s.Layout.Width, s.Layout.Height)
	s.Sched.Clear()
	clear(s.bySession)
	clear(s.TakenFunctions)
	s.hidingSpots = make([]ecs.EntityID, len(s.Layout.HidingSpots))
	s.Contacts = nil
	s.Texts = s.Texts[:0]
	s.LastPortalUse = 0
	s.portalSeq = 0

	s.Phase = PhaseWaiting
	s.WaitingTimeLeft = s.Round.WaitingSeconds
	s.TimeLeft = s.Round.RunningSeconds
	s.PostRoundTimeLeft = s.Round.PostRoundSeconds

	for _, r := range s.Layout.Walls {
		s.Physics.AddWall(r)
	}
	for _, f := range s.Layout.Furniture {
		s.SpawnFurniture(f.Kind, f.Rect, f.Mass)
	}
	for _, p := range s.Layout.Sharks {
		s.SpawnShark(p.Vec())
	}
	for _, g := range s.Layout.Ground {
		it := InvItem{ID: g.Item}
		if tmpl := s.Catalog.Item(g.Item); tmpl != nil {
			it.Ammo = tmpl.Ammo
		}
		s.SpawnGroundItem(it, geom.V(g.X, g.Y))
	}
}

// Advance moves the clock to now (unix ms) and counts the tick.
func (s *State) Advance(now int64) {
	s.Tick++
	s.Now = now
}

// detach runs for every destroyed entity before its components are cleared.
func (s *State) detach(id ecs.EntityID) {
	s.Physics.Remove(id)
	if p, ok := s.Players.Get(id); ok {
		s.freeHidingSpot(p)
		if s.bySession[p.SessionID] == id {
			delete(s.bySession, p.SessionID)
		}
	}
}

func (s *State) tag(id ecs.EntityID, k Kind, caps Caps) {
	s.Tags.Set(id, &Tag{Kind: k, Caps: caps})
}

// KindOf returns the entity's kind, or 0 for unknown IDs.
func (s *State) KindOf(id ecs.EntityID) Kind {
	if t, ok := s.Tags.Get(id); ok {
		return t.Kind
	}
	return 0
}

// Alive reports whether id is a live entity not queued for removal.
func (s *State) Alive(id ecs.EntityID) bool {
	return s.ECS.Alive(id) && !s.ECS.Pending(id)
}

// Player returns a live player, or nil.
func (s *State) Player(id ecs.EntityID) *Player {
	if p, ok := s.Players.Get(id); ok {
		return p
	}
	return nil
}

// PlayerBySession returns the player bound to a session, or nil.
func (s *State) PlayerBySession(sessionID uint64) *Player {
	id, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	return s.Player(id)
}

// PlayerByName finds a connected player by display name.
func (s *State) PlayerByName(name string) *Player {
	var found *Player
	s.Players.Sorted(func(_ ecs.EntityID, p *Player) {
		if found == nil && p.Name == name {
			found = p
		}
	})
	return found
}

// EachPlayer iterates players in ID order.
func (s *State) EachPlayer(fn func(*Player)) {
	s.Players.Sorted(func(_ ecs.EntityID, p *Player) { fn(p) })
}

// PlayerCount is the number of connected players.
func (s *State) PlayerCount() int { return s.Players.Len() }

// CountRoles returns the number of humans and zombies.
func (s *State) CountRoles() (humans, zombies int) {
	s.Players.Each(func(_ ecs.EntityID, p *Player) {
		if p.IsZombie() {
			zombies++
		} else {
			humans++
		}
	})
	return humans, zombies
}

// AddPlayer creates a human at a random spawn point.
func (s *State) AddPlayer(sessionID uint64, name string) *Player {
	id := s.ECS.CreateEntity()
	pos := s.Layout.Spawn.RandomPoint(s.Rand.Float64(), s.Rand.Float64())
	p := &Player{
		ID:         id,
		SessionID:  sessionID,
		Name:       name,
		Role:       RoleHuman,
		Pos:        pos,
		Gems:       s.Econ.StartingGems,
		Speed:      s.Econ.BaseSpeed,
		HidingSpot: -1,
	}
	p.RecomputeHitbox()
	s.Players.Set(id, p)
	s.tag(id, KindPlayer, CapDraggable)
	s.bySession[sessionID] = id
	s.Physics.AddPlayer(id, pos, p.BodyRadius())
	return p
}

// RemovePlayer drops everything the player holds and detaches them.
// Called from the input phase on disconnect.
func (s *State) RemovePlayer(id ecs.EntityID) {
	p := s.Player(id)
	if p == nil {
		return
	}
	s.DropAllItems(p)
	for _, pid := range s.Portals.IDs() {
		if pt, _ := s.Portals.Get(pid); pt.Owner == id {
			s.ECS.Destroy(pid)
		}
	}
	s.ECS.Destroy(id)
}

// SetRole flips the player's team and rebuilds the physics body with the
// radius of the new role.
func (s *State) SetRole(p *Player, role Role) {
	if p.Role == role {
		return
	}
	p.Role = role
	s.Physics.RecreatePlayer(p.ID, p.BodyRadius())
}

// TeleportPlayer moves a player and their body.
func (s *State) TeleportPlayer(p *Player, pos geom.Vec) {
	p.Pos = pos
	p.Vel = geom.Vec{}
	s.Physics.SetPosition(p.ID, pos)
	s.Physics.SetVelocity(p.ID, geom.Vec{})
	p.Hitbox.Center = pos
}

// RandomSpawn returns a point inside the layout spawn area.
func (s *State) RandomSpawn() geom.Vec {
	return s.Layout.Spawn.RandomPoint(s.Rand.Float64(), s.Rand.Float64())
}

// ── zones ───────────────────────────────────────────────────────────

func (s *State) InSea(pos geom.Vec) bool { return s.Layout.Sea.Contains(pos) }

func (s *State) OnSand(pos geom.Vec) bool { return anyContains(s.Layout.Sand, pos) }

func (s *State) InHazard(pos geom.Vec) bool { return anyContains(s.Layout.Hazards, pos) }

func (s *State) InShade(pos geom.Vec) bool { return anyContains(s.Layout.Shade, pos) }

func (s *State) InWall(pos geom.Vec) bool { return anyContains(s.Layout.Walls, pos) }

// InBounds reports whether pos lies inside the map.
func (s *State) InBounds(pos geom.Vec) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X <= s.Layout.Width && pos.Y <= s.Layout.Height
}

func anyContains(rs []geom.Rect, pos geom.Vec) bool {
	for _, r := range rs {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

// ── hiding spots ────────────────────────────────────────────────────

// HidingSpotNear returns the index of a free hiding spot within reach, or -1.
func (s *State) HidingSpotNear(pos geom.Vec, reach float64) int {
	for i, hs := range s.Layout.HidingSpots {
		if s.hidingSpots[i] != 0 {
			continue
		}
		if hs.Vec().Dist(pos) <= reach {
			return i
		}
	}
	return -1
}

// HidingOccupant returns who occupies spot i.
func (s *State) HidingOccupant(i int) ecs.EntityID {
	if i < 0 || i >= len(s.hidingSpots) {
		return 0
	}
	return s.hidingSpots[i]
}

// Hide puts the player into spot i if it is free.
func (s *State) Hide(p *Player, i int) bool {
	if i < 0 || i >= len(s.hidingSpots) || s.hidingSpots[i] != 0 || p.Hidden {
		return false
	}
	s.hidingSpots[i] = p.ID
	p.Hidden = true
	p.HidingSpot = i
	s.TeleportPlayer(p, s.Layout.HidingSpots[i].Vec())
	s.Physics.SetCollidable(p.ID, false)
	return true
}

// Unhide releases the player's hiding spot.
func (s *State) Unhide(p *Player) {
	if !p.Hidden {
		return
	}
	s.freeHidingSpot(p)
	s.Physics.SetCollidable(p.ID, true)
}

func (s *State) freeHidingSpot(p *Player) {
	if p.HidingSpot >= 0 && p.HidingSpot < len(s.hidingSpots) && s.hidingSpots[p.HidingSpot] == p.ID {
		s.hidingSpots[p.HidingSpot] = 0
	}
	p.Hidden = false
	p.HidingSpot = -1
}

// ── cosmetics ───────────────────────────────────────────────────────

// AddFloatingText shows a short label above pos.
func (s *State) AddFloatingText(text string, pos geom.Vec, color string) {
	s.Texts = append(s.Texts, FloatingText{Text: text, Pos: pos, Color: color, ExpiresAt: s.Now + FloatingTextLife})
}

// ExpireTexts drops floating texts past their lifetime.
func (s *State) ExpireTexts() {
	kept := s.Texts[:0]
	for _, t := range s.Texts {
		if t.ExpiresAt > s.Now {
			kept = append(kept, t)
		}
	}
	s.Texts = kept
}

// PostChat appends to the chat log and emits ChatPosted.
func (s *State) PostChat(from, text string) {
	s.appendChat(ChatLine{From: from, Text: text, At: s.Now})
	event.Emit(s.Bus, event.ChatPosted{From: from, Text: text})
}

// Announce posts a public server message.
func (s *State) Announce(text string) {
	s.appendChat(ChatLine{From: "server", Text: text, At: s.Now, System: true})
	event.Emit(s.Bus, event.Announcement{Text: text})
}

func (s *State) appendChat(line ChatLine) {
	s.Chat = append(s.Chat, line)
	if len(s.Chat) > ChatLogCap {
		s.Chat = append(s.Chat[:0], s.Chat[len(s.Chat)-ChatLogCap:]...)
	}
}
