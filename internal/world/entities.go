package world

import (
	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/geom"
)

// Kind tags every entity with its variant.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindFurniture
	KindGroundItem
	KindArrow
	KindBlowdart
	KindCannonball
	KindGrenade
	KindTrap
	KindMine
	KindPortal
	KindShark
	KindDrone
)

var kindNames = map[Kind]string{
	KindPlayer:     "player",
	KindFurniture:  "furniture",
	KindGroundItem: "ground_item",
	KindArrow:      "arrow",
	KindBlowdart:   "blowdart",
	KindCannonball: "cannonball",
	KindGrenade:    "grenade",
	KindTrap:       "trap",
	KindMine:       "mine",
	KindPortal:     "portal",
	KindShark:      "shark",
	KindDrone:      "drone",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Caps are the capabilities queried by gameplay code instead of switching
// on kinds.
type Caps uint8

const (
	CapGrabbable Caps = 1 << iota // gravity glove can hold it
	CapSinkable                   // hazard zones swallow it
	CapPushable                   // players shove it on contact
	CapDraggable                  // cannonballs drag it along
)

// Tag is the per-entity kind and capability record.
type Tag struct {
	Kind Kind
	Caps Caps
}

func (t *Tag) Can(c Caps) bool { return t.Caps&c == c }

// Sinking tracks progress through a hazard zone. Progress only grows.
type Sinking struct {
	StartedAt int64
	Progress  float64
}

func (s *Sinking) Active() bool { return s.StartedAt > 0 }

// WorldObject is a movable piece of furniture backed by a physics body.
type WorldObject struct {
	ID        ecs.EntityID
	Kind      string // table, chair, crate ...
	Pos       geom.Vec
	Width     float64
	Height    float64
	Rotation  float64
	Sink      Sinking
	DragBy    ecs.EntityID
	DragUntil int64
}

// GroundItem is a dropped or spawned item lying in the world.
type GroundItem struct {
	ID        ecs.EntityID
	Item      InvItem
	Pos       geom.Vec
	Rotation  float64
	Sink      Sinking
	DragBy    ecs.EntityID
	DragUntil int64
}

// Projectile is a kinematic arrow or blowdart. Position is integrated by
// hand, not by the physics engine.
type Projectile struct {
	ID        ecs.EntityID
	Kind      Kind // KindArrow or KindBlowdart
	Pos       geom.Vec
	Angle     float64
	Rotation  float64
	Spin      float64
	Owner     ecs.EntityID
	Hit       bool
	Stuck     bool
	StuckAt   int64
	SpawnedAt int64
}

// Cannonball is a physics-driven projectile that drags what it touches.
type Cannonball struct {
	ID        ecs.EntityID
	Owner     ecs.EntityID
	Pos       geom.Vec
	Vel       geom.Vec
	ExpiresAt int64
	Sink      Sinking
}

// Grenade explodes at ExplodeAt.
type Grenade struct {
	ID        ecs.EntityID
	Owner     ecs.EntityID
	Pos       geom.Vec
	ExplodeAt int64
}

// Hazard is a zombie trap or mine.
type Hazard struct {
	ID        ecs.EntityID
	Kind      Kind // KindTrap or KindMine
	Owner     ecs.EntityID
	Pos       geom.Vec
	Radius    float64
	ArmAt     int64
	ExpiresAt int64
}

func (h *Hazard) Armed(now int64) bool { return now >= h.ArmAt }

// Portal is one end of an owner's portal pair.
type Portal struct {
	ID       ecs.EntityID
	Owner    ecs.EntityID
	Pos      geom.Vec
	PlacedAt int64
	Seq      uint64 // placement order, oldest is replaced first
}

// SharkState is the shark AI state.
type SharkState uint8

const (
	SharkPatrolling SharkState = iota
	SharkPaused
	SharkAttacking
)

func (s SharkState) String() string {
	switch s {
	case SharkPaused:
		return "paused"
	case SharkAttacking:
		return "attacking"
	default:
		return "patrolling"
	}
}

// Shark is a sea NPC.
type Shark struct {
	ID         ecs.EntityID
	Pos        geom.Vec
	Rotation   float64
	Speed      float64
	State      SharkState
	Target     ecs.EntityID
	Waypoint   geom.Vec
	PauseUntil int64
}

// Drone follows its owner's aim and drops grenades.
type Drone struct {
	ID    ecs.EntityID
	Owner ecs.EntityID
	Pos   geom.Vec
	Ammo  int
}

// FloatingText is a short-lived cosmetic label.
type FloatingText struct {
	Text      string   `json:"text"`
	Pos       geom.Vec `json:"pos"`
	Color     string   `json:"color"`
	ExpiresAt int64    `json:"-"`
}

// ChatLine is one entry of the public chat log.
type ChatLine struct {
	From   string `json:"from"`
	Text   string `json:"text"`
	At     int64  `json:"at"`
	System bool   `json:"system,omitempty"`
}
