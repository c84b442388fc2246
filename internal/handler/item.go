package handler

import (
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/world"
)

// HandleUseItem fires the selected item's primary action.
func HandleUseItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	if p := playerOf(sess, deps); p != nil {
		UseItem(deps.World, p)
	}
}

// UseItem acts with the item in slot 0 along the player's facing. Zombies
// have no items; for them the same key places their trap or mine.
func UseItem(ws *world.State, p *world.Player) bool {
	if p.Busy() || p.Hidden {
		return false
	}
	if p.IsZombie() {
		return placeHazard(ws, p)
	}
	it := p.Selected()
	if it == nil {
		return false
	}
	switch it.ID {
	case data.ItemBow:
		if it.Ammo <= 0 || ws.Now < p.BowReadyAt {
			return false
		}
		it.Ammo--
		p.BowReadyAt = ws.Now + world.BowCooldown
		ws.SpawnProjectile(world.KindArrow, p, p.Rotation)
		return true

	case data.ItemBlowgun:
		if it.Ammo <= 0 || ws.Now < p.BlowgunReadyAt {
			return false
		}
		it.Ammo--
		p.BlowgunReadyAt = ws.Now + world.BlowgunCooldown
		ws.SpawnProjectile(world.KindBlowdart, p, p.Rotation)
		return true

	case data.ItemDrone:
		d := ws.DroneOf(p.ID)
		if d == nil {
			d = ws.SpawnDrone(p, it.Ammo)
		}
		if d.Ammo <= 0 || ws.Now < p.GrenadeReadyAt {
			return false
		}
		d.Ammo--
		p.GrenadeReadyAt = ws.Now + world.GrenadeCooldown
		ws.SpawnGrenade(p.ID, d.Pos)
		ws.SyncDroneAmmo(p)
		return true

	case data.ItemSkateboard:
		if p.Flying {
			return false
		}
		p.Skating = !p.Skating
		return true

	case data.ItemCannon:
		if ws.Now < p.CannonReadyAt {
			return false
		}
		p.CannonReadyAt = ws.Now + world.CannonCooldown
		muzzle := p.Pos.Add(geom.FromAngle(p.Rotation, p.BodyRadius()+world.BallRadius+4))
		ws.SpawnBall(p.ID, muzzle, geom.FromAngle(p.Rotation, world.BallSpeed))
		return true

	case data.ItemPortalGun:
		placePortal(ws, p)
		return true
	}
	return false
}

// HandleDropItem puts an inventory entry on the ground.
func HandleDropItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m slotMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	if p := playerOf(sess, deps); p != nil {
		DropItem(deps.World, p, m.Slot)
	}
}

// DropItem drops entry i. Losing the skateboard or the gravity glove ends
// what they were doing.
func DropItem(ws *world.State, p *world.Player, i int) bool {
	if p.Busy() || i < 0 || i >= len(p.Inventory) {
		return false
	}
	id := p.Inventory[i].ID
	if !ws.DropItemAt(p, i) {
		return false
	}
	switch id {
	case data.ItemSkateboard:
		p.Skating = false
	case data.ItemGravityGlove:
		ws.ReleaseGrab(p)
	case data.ItemAngelWings:
		if p.Winged {
			ws.Land(p)
		}
	}
	return true
}
