package world

import (
	"sort"

	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/geom"
)

// PlayerView is the broadcast form of a player.
type PlayerView struct {
	ID         uint64      `json:"id"`
	Name       string      `json:"name"`
	Color      string      `json:"color,omitempty"`
	Role       string      `json:"role"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Rotation   float64     `json:"rotation"`
	Gems       int         `json:"gems"`
	Speed      float64     `json:"speed"`
	Function   string      `json:"function,omitempty"`
	Ability    string      `json:"ability,omitempty"`
	Inventory  []InvItem   `json:"inventory"`
	Hidden     bool        `json:"isHidden,omitempty"`
	InDuct     bool        `json:"isInDuct,omitempty"`
	Trapped    bool        `json:"isTrapped,omitempty"`
	Flying     bool        `json:"isFlying,omitempty"`
	Invisible  bool        `json:"isInvisible,omitempty"`
	BeingEaten bool        `json:"isBeingEaten,omitempty"`
	Sprinting  bool        `json:"isSprinting,omitempty"`
	Skating    bool        `json:"isSkating,omitempty"`
	Hitbox     geom.Circle `json:"physicalHitbox"`
}

// ObjectView covers furniture and ground items.
type ObjectView struct {
	ID       uint64  `json:"id"`
	Kind     string  `json:"kind"`
	Item     string  `json:"item,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Sinking  float64 `json:"sinking,omitempty"`
}

type ProjectileView struct {
	ID       uint64  `json:"id"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Rotation float64 `json:"rotation"`
	Owner    uint64  `json:"owner"`
	Stuck    bool    `json:"stuck,omitempty"`
}

type EntityView struct {
	ID    uint64  `json:"id"`
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Owner uint64  `json:"owner,omitempty"`
	Armed bool    `json:"armed,omitempty"`
}

type SharkView struct {
	ID       uint64  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	State    string  `json:"state"`
}

type DroneView struct {
	ID    uint64  `json:"id"`
	Owner uint64  `json:"owner"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Ammo  int     `json:"ammo"`
}

// Snapshot is the full world state sent every tick.
type Snapshot struct {
	Tick              uint64           `json:"tick"`
	Phase             string           `json:"gamePhase"`
	WaitingTimeLeft   int              `json:"waitingTimeLeft"`
	TimeLeft          int              `json:"timeLeft"`
	PostRoundTimeLeft int              `json:"postRoundTimeLeft"`
	TakenFunctions    []string         `json:"takenFunctions"`
	Players           []PlayerView     `json:"players"`
	Objects           []ObjectView     `json:"objects"`
	Projectiles       []ProjectileView `json:"projectiles"`
	Balls             []EntityView     `json:"cannonballs"`
	Grenades          []EntityView     `json:"grenades"`
	Hazards           []EntityView     `json:"hazards"`
	Portals           []EntityView     `json:"portals"`
	Sharks            []SharkView      `json:"sharks"`
	Drones            []DroneView      `json:"drones"`
	Texts             []FloatingText   `json:"floatingTexts"`
	Chat              []ChatLine       `json:"chat"`
}

// Summary is the small status record exposed over HTTP.
type Summary struct {
	Tick     uint64 `json:"tick"`
	Phase    string `json:"phase"`
	TimeLeft int    `json:"timeLeft"`
	Humans   int    `json:"humans"`
	Zombies  int    `json:"zombies"`
}

// Summarize builds the HTTP status record.
func (s *State) Summarize() *Summary {
	h, z := s.CountRoles()
	return &Summary{Tick: s.Tick, Phase: s.Phase.String(), TimeLeft: s.TimeLeft, Humans: h, Zombies: z}
}

// Snapshot captures the whole world. Spies show up as zombies.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Tick:              s.Tick,
		Phase:             s.Phase.String(),
		WaitingTimeLeft:   s.WaitingTimeLeft,
		TimeLeft:          s.TimeLeft,
		PostRoundTimeLeft: s.PostRoundTimeLeft,
		TakenFunctions:    make([]string, 0, len(s.TakenFunctions)),
		Players:           make([]PlayerView, 0, s.Players.Len()),
		Objects:           make([]ObjectView, 0, s.Objects.Len()+s.Ground.Len()),
		Projectiles:       make([]ProjectileView, 0, s.Projectiles.Len()),
		Balls:             make([]EntityView, 0, s.Balls.Len()),
		Grenades:          make([]EntityView, 0, s.Grenades.Len()),
		Hazards:           make([]EntityView, 0, s.Hazards.Len()),
		Portals:           make([]EntityView, 0, s.Portals.Len()),
		Sharks:            make([]SharkView, 0, s.Sharks.Len()),
		Drones:            make([]DroneView, 0, s.Drones.Len()),
		Texts:             s.Texts,
		Chat:              s.Chat,
	}
	for f := range s.TakenFunctions {
		snap.TakenFunctions = append(snap.TakenFunctions, string(f))
	}
	sort.Strings(snap.TakenFunctions)

	s.Players.Sorted(func(id ecs.EntityID, p *Player) {
		v := PlayerView{
			ID: uint64(id), Name: p.Name, Color: p.Color, Role: p.Role.String(),
			X: p.Pos.X, Y: p.Pos.Y, Width: p.Width, Height: p.Height, Rotation: p.Rotation,
			Gems: p.Gems, Speed: p.Speed, Function: string(p.Function), Ability: p.ZombieAbility,
			Inventory: p.Inventory, Hidden: p.Hidden, InDuct: p.InDuct, Trapped: p.Trapped,
			Flying: p.Flying, Invisible: p.Invisible, BeingEaten: p.BeingEaten,
			Sprinting: p.Sprinting, Skating: p.Skating, Hitbox: p.Hitbox,
		}
		// The snapshot is shared by every client; a spy must look like
		// any other zombie in it.
		if p.Spying {
			v.Role = RoleZombie.String()
			v.Function = ""
			v.Inventory = nil
		}
		snap.Players = append(snap.Players, v)
	})
	s.Objects.Sorted(func(id ecs.EntityID, o *WorldObject) {
		snap.Objects = append(snap.Objects, ObjectView{
			ID: uint64(id), Kind: o.Kind, X: o.Pos.X, Y: o.Pos.Y,
			Width: o.Width, Height: o.Height, Rotation: o.Rotation, Sinking: o.Sink.Progress,
		})
	})
	s.Ground.Sorted(func(id ecs.EntityID, g *GroundItem) {
		snap.Objects = append(snap.Objects, ObjectView{
			ID: uint64(id), Kind: KindGroundItem.String(), Item: g.Item.ID, X: g.Pos.X, Y: g.Pos.Y,
			Width: GroundItemSize, Height: GroundItemSize, Rotation: g.Rotation, Sinking: g.Sink.Progress,
		})
	})
	s.Projectiles.Sorted(func(id ecs.EntityID, pr *Projectile) {
		snap.Projectiles = append(snap.Projectiles, ProjectileView{
			ID: uint64(id), Kind: pr.Kind.String(), X: pr.Pos.X, Y: pr.Pos.Y,
			Angle: pr.Angle, Rotation: pr.Rotation, Owner: uint64(pr.Owner), Stuck: pr.Stuck,
		})
	})
	s.Balls.Sorted(func(id ecs.EntityID, b *Cannonball) {
		snap.Balls = append(snap.Balls, EntityView{ID: uint64(id), Kind: KindCannonball.String(), X: b.Pos.X, Y: b.Pos.Y, Owner: uint64(b.Owner)})
	})
	s.Grenades.Sorted(func(id ecs.EntityID, g *Grenade) {
		snap.Grenades = append(snap.Grenades, EntityView{ID: uint64(id), Kind: KindGrenade.String(), X: g.Pos.X, Y: g.Pos.Y, Owner: uint64(g.Owner)})
	})
	s.Hazards.Sorted(func(id ecs.EntityID, h *Hazard) {
		snap.Hazards = append(snap.Hazards, EntityView{ID: uint64(id), Kind: h.Kind.String(), X: h.Pos.X, Y: h.Pos.Y, Owner: uint64(h.Owner), Armed: h.Armed(s.Now)})
	})
	s.Portals.Sorted(func(id ecs.EntityID, pt *Portal) {
		snap.Portals = append(snap.Portals, EntityView{ID: uint64(id), Kind: KindPortal.String(), X: pt.Pos.X, Y: pt.Pos.Y, Owner: uint64(pt.Owner)})
	})
	s.Sharks.Sorted(func(id ecs.EntityID, sh *Shark) {
		snap.Sharks = append(snap.Sharks, SharkView{ID: uint64(id), X: sh.Pos.X, Y: sh.Pos.Y, Rotation: sh.Rotation, State: sh.State.String()})
	})
	s.Drones.Sorted(func(id ecs.EntityID, d *Drone) {
		snap.Drones = append(snap.Drones, DroneView{ID: uint64(id), Owner: uint64(d.Owner), X: d.Pos.X, Y: d.Pos.Y, Ammo: d.Ammo})
	})
	return snap
}
