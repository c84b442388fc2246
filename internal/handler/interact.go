package handler

import (
	"fmt"
	"math"

	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/scripting"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
)

// Fisher draws a fishing reward for a uniform roll in [0, 1).
type Fisher func(roll float64) scripting.FishingReward

// fisher picks the Lua table when scripts are loaded.
func (d *Deps) fisher() Fisher {
	if d.Scripting != nil {
		return d.Scripting.RollFishing
	}
	return scripting.DefaultFishing
}

// interaction is one context the interact key can resolve to. The first
// entry whose when matches handles the key press, even if do then fails.
type interaction struct {
	name string
	when func(ws *world.State, p *world.Player) bool
	do   func(ws *world.State, p *world.Player, fish Fisher) bool
}

var interactions = []interaction{
	{"hide", canToggleHiding, toggleHiding},
	{"fish", canFish, fish},
	{"grab", canGrab, grab},
	{"pickup", canPickup, pickup},
	{"duct", canCrawl, crawl},
}

// HandleInteract resolves the context-sensitive interact key.
func HandleInteract(sess *net.Session, r *packet.Reader, deps *Deps) {
	p := playerOf(sess, deps)
	if p == nil {
		return
	}
	if name, ok := Interact(deps.World, p, deps.fisher()); ok {
		deps.Log.Debug("互動", zap.String("player", p.Name), zap.String("action", name))
	}
}

// Interact runs the first matching interaction and reports its name.
func Interact(ws *world.State, p *world.Player, fish Fisher) (string, bool) {
	if p.Busy() {
		return "", false
	}
	for _, in := range interactions {
		if in.when(ws, p) {
			return in.name, in.do(ws, p, fish)
		}
	}
	return "", false
}

// ── hiding ──────────────────────────────────────────────────────────

func canToggleHiding(ws *world.State, p *world.Player) bool {
	if p.Hidden {
		return true
	}
	return p.IsZombie() && !p.Flying && ws.HidingSpotNear(p.Pos, world.HidingReach) >= 0
}

func toggleHiding(ws *world.State, p *world.Player, _ Fisher) bool {
	if p.Hidden {
		ws.Unhide(p)
		return true
	}
	return ws.Hide(p, ws.HidingSpotNear(p.Pos, world.HidingReach))
}

// ── fishing ─────────────────────────────────────────────────────────

func canFish(ws *world.State, p *world.Player) bool {
	return p.SelectedIs(data.ItemFishingRod) && rectDist(ws.Layout.Sea, p.Pos) <= world.FishingReach
}

func fish(ws *world.State, p *world.Player, roll Fisher) bool {
	if ws.Now < p.FishReadyAt {
		return false
	}
	p.FishReadyAt = ws.Now + world.FishingCooldown

	reward := roll(ws.Rand.Float64())
	switch reward.Kind {
	case "gems":
		n := p.AddGems(reward.Gems)
		ws.AddFloatingText(fmt.Sprintf("+%d", n), p.Pos, rarityColor(reward.Rarity))
	case "item":
		tmpl := ws.Catalog.Item(reward.Item)
		if tmpl == nil {
			return true
		}
		it := world.InvItem{ID: tmpl.ID, Ammo: tmpl.Ammo}
		if (tmpl.Unique && p.Has(tmpl.ID)) || !p.AddItem(it, &ws.Econ) {
			ws.SpawnGroundItem(it, p.Pos)
		} else if tmpl.ID == data.ItemDrone {
			ws.SpawnDrone(p, tmpl.Ammo)
		}
		ws.AddFloatingText(tmpl.ID, p.Pos, rarityColor(reward.Rarity))
	default:
		ws.AddFloatingText("...", p.Pos, rarityColor(""))
	}
	return true
}

func rarityColor(rarity string) string {
	switch rarity {
	case "rare":
		return "#4aa3ff"
	case "epic":
		return "#b04aff"
	case "legendary":
		return "#ffb000"
	default:
		return "#ffffff"
	}
}

// rectDist is the distance from pos to the closest point of r.
func rectDist(r geom.Rect, pos geom.Vec) float64 {
	dx := math.Max(math.Max(r.X-pos.X, 0), pos.X-(r.X+r.W))
	dy := math.Max(math.Max(r.Y-pos.Y, 0), pos.Y-(r.Y+r.H))
	return math.Hypot(dx, dy)
}

// ── gravity glove ───────────────────────────────────────────────────

func canGrab(ws *world.State, p *world.Player) bool {
	if !p.SelectedIs(data.ItemGravityGlove) {
		return false
	}
	if p.Grabbed != 0 {
		return true
	}
	_, ok := ws.Nearest(p.Pos, world.CapGrabbable, world.GrabReach, p.ID)
	return ok
}

func grab(ws *world.State, p *world.Player, _ Fisher) bool {
	if p.Grabbed != 0 {
		ws.ReleaseGrab(p)
		return true
	}
	id, ok := ws.Nearest(p.Pos, world.CapGrabbable, world.GrabReach, p.ID)
	if !ok {
		return false
	}
	p.Grabbed = id
	return true
}

// ── ground pickup ───────────────────────────────────────────────────

func canPickup(ws *world.State, p *world.Player) bool {
	return p.IsHuman() && ws.NearestGroundItem(p.Pos, world.PickupReach) != nil
}

func pickup(ws *world.State, p *world.Player, _ Fisher) bool {
	g := ws.NearestGroundItem(p.Pos, world.PickupReach)
	if g == nil {
		return false
	}
	if tmpl := ws.Catalog.Item(g.Item.ID); tmpl != nil && tmpl.Unique && p.Has(g.Item.ID) {
		return false
	}
	if !p.AddItem(g.Item, &ws.Econ) {
		return false
	}
	if g.Item.ID == data.ItemDrone {
		ws.SpawnDrone(p, g.Item.Ammo)
	}
	ws.ECS.Destroy(g.ID)
	return true
}

// ── ducts ───────────────────────────────────────────────────────────

// Anyone standing at a duct opening can crawl through it. The engineer
// function reaches ducts from further away.
func canCrawl(ws *world.State, p *world.Player) bool {
	_, ok := ductExit(ws, p.Pos, world.DuctReach)
	return ok && !p.Flying
}

func crawl(ws *world.State, p *world.Player, _ Fisher) bool {
	exit, ok := ductExit(ws, p.Pos, world.DuctReach)
	if !ok {
		return false
	}
	EnterDuct(ws, p, exit)
	return true
}
