package world

import (
	"math"

	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/geom"
)

// Role is a player's team.
type Role uint8

const (
	RoleHuman Role = iota
	RoleZombie
)

func (r Role) String() string {
	if r == RoleZombie {
		return "zombie"
	}
	return "human"
}

// Function is a human-only, round-scoped special ability.
type Function string

const (
	FuncNone       Function = ""
	FuncAthlete    Function = "athlete"
	FuncEngineer   Function = "engineer"
	FuncSpy        Function = "spy"
	FuncButterfly  Function = "butterfly"
	FuncRhinoceros Function = "rhinoceros"
)

// Movement intent bits.
const (
	KeyUp uint8 = 1 << iota
	KeyDown
	KeyLeft
	KeyRight
)

// Input is the latest client intent, consumed by the next tick.
type Input struct {
	Keys uint8
	Aim  geom.Vec
}

// Dir returns the normalized movement direction of the pressed keys.
func (in Input) Dir() geom.Vec {
	var d geom.Vec
	if in.Keys&KeyUp != 0 {
		d.Y--
	}
	if in.Keys&KeyDown != 0 {
		d.Y++
	}
	if in.Keys&KeyLeft != 0 {
		d.X--
	}
	if in.Keys&KeyRight != 0 {
		d.X++
	}
	return d.Normalize()
}

// InvItem is one inventory entry. Ammo is only meaningful for ammo-based items.
type InvItem struct {
	ID   string `json:"id"`
	Ammo int    `json:"ammo,omitempty"`
}

// Player holds the live state of one connected client.
// Game loop only.
type Player struct {
	ID        ecs.EntityID
	SessionID uint64
	Name      string
	Account   string // username when logged in, "" for guests
	Color     string
	Role      Role

	Pos      geom.Vec // center
	Width    float64
	Height   float64
	Rotation float64

	Vel           geom.Vec // own movement velocity, px/tick
	Knockback     geom.Vec
	DragVel       geom.Vec // set by cannonball drag, consumed by movement
	Speed         float64
	SlowLoss      float64 // speed taken away by the active dart slow

	Gems          int
	Inventory     []InvItem
	UpgradedSlots bool // backpack, account-level for the session

	Function       Function
	ZombieAbility  string
	AbilityCharges int
	ButterflyUsed  bool
	EngineerUses   int
	Protection     float64 // antidote, lowers patient-zero odds

	SprintReadyAt   int64
	SpyReadyAt      int64
	ShoveReadyAt    int64
	CloakReadyAt    int64
	EngineerReadyAt int64
	WingsReadyAt    int64
	BowReadyAt      int64
	BlowgunReadyAt  int64
	GrenadeReadyAt  int64
	CannonReadyAt   int64
	FishReadyAt     int64
	SlowedUntil     int64
	DragUntil       int64

	Hidden     bool
	HidingSpot int // index into layout hiding spots, -1 when not hiding
	InDuct     bool
	Trapped    bool
	Flying     bool
	Winged     bool // flying from angel wings rather than butterfly
	Invisible  bool
	BeingEaten bool
	Sprinting  bool
	Spying     bool
	Skating    bool

	Grabbed ecs.EntityID // body held by the gravity glove
	DragBy  ecs.EntityID

	Hitbox    geom.Circle
	HitboxOff bool

	Input Input
}

// Busy reports whether the player is frozen out of voluntary actions.
func (p *Player) Busy() bool {
	return p.BeingEaten || p.InDuct
}

// Immobile reports whether normal movement is suppressed this tick.
func (p *Player) Immobile() bool {
	return p.BeingEaten || p.InDuct || p.Trapped || p.Hidden
}

// IsHuman and IsZombie are shorthands used all over the systems.
func (p *Player) IsHuman() bool  { return p.Role == RoleHuman }
func (p *Player) IsZombie() bool { return p.Role == RoleZombie }

// BodyRadius is the collision circle radius for the player's role.
func (p *Player) BodyRadius() float64 {
	if p.Role == RoleZombie {
		return ZombieBodyRadius
	}
	return HumanBodyRadius
}

// AddGems changes the gem balance, never going below zero or past
// math.MaxInt. Returns the amount actually applied.
func (p *Player) AddGems(delta int) int {
	switch {
	case delta > 0 && p.Gems > math.MaxInt-delta:
		delta = math.MaxInt - p.Gems
	case delta < 0 && p.Gems+delta < 0:
		delta = -p.Gems
	}
	p.Gems += delta
	return delta
}

// Spend deducts cost if affordable.
func (p *Player) Spend(cost int) bool {
	if cost < 0 || cost > p.Gems {
		return false
	}
	p.Gems -= cost
	return true
}

// RecomputeHitbox resizes the player from gems and refreshes the
// infection circle. Humans grow with wealth, capped.
func (p *Player) RecomputeHitbox() {
	grow := float64(p.Gems) / GemsPerPixel
	if grow > PlayerMaxGrowth {
		grow = PlayerMaxGrowth
	}
	p.Width = PlayerBaseSize + grow
	p.Height = PlayerBaseSize + grow
	p.Hitbox = geom.Circle{Center: p.Pos, Radius: p.Width / 2}
}

// resetTransient clears per-round flags and timers.
func (p *Player) resetTransient() {
	p.Vel = geom.Vec{}
	p.Knockback = geom.Vec{}
	p.DragVel = geom.Vec{}
	p.Function = FuncNone
	p.ZombieAbility = ""
	p.AbilityCharges = 0
	p.ButterflyUsed = false
	p.EngineerUses = 0
	p.Protection = 0
	p.SprintReadyAt, p.SpyReadyAt, p.ShoveReadyAt = 0, 0, 0
	p.CloakReadyAt, p.EngineerReadyAt, p.WingsReadyAt = 0, 0, 0
	p.BowReadyAt, p.BlowgunReadyAt, p.GrenadeReadyAt = 0, 0, 0
	p.CannonReadyAt, p.FishReadyAt = 0, 0
	p.SlowedUntil, p.DragUntil = 0, 0
	p.Hidden = false
	p.HidingSpot = -1
	p.InDuct = false
	p.Trapped = false
	p.Flying = false
	p.Winged = false
	p.Invisible = false
	p.BeingEaten = false
	p.Sprinting = false
	p.Spying = false
	p.Skating = false
	p.Grabbed = 0
	p.DragBy = 0
	p.HitboxOff = false
}
