package handler

import (
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
)

type idMsg struct {
	ID string `json:"id"`
}

// HandleChooseFunction claims a round function for the player.
func HandleChooseFunction(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m idMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	if p := playerOf(sess, deps); p != nil && ChooseFunction(deps.World, p, m.ID) {
		deps.Log.Debug("選擇職能", zap.String("player", p.Name), zap.String("function", m.ID))
	}
}

// ChooseFunction succeeds only while running, for a human without a
// function, when the function is affordable and nobody holds it this round.
func ChooseFunction(ws *world.State, p *world.Player, id string) bool {
	if ws.Phase != world.PhaseRunning || !p.IsHuman() || p.Function != world.FuncNone {
		return false
	}
	offer := ws.Catalog.Function(id)
	if offer == nil {
		return false
	}
	fn := world.Function(offer.ID)
	if _, taken := ws.TakenFunctions[fn]; taken {
		return false
	}
	if !p.Spend(offer.Cost) {
		return false
	}
	p.Function = fn
	ws.TakenFunctions[fn] = p.ID
	return true
}

// HandleBuyItem buys a regular shop item.
func HandleBuyItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m idMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	if p := playerOf(sess, deps); p != nil && BuyItem(deps.World, p, m.ID) {
		deps.Log.Debug("購買物品", zap.String("player", p.Name), zap.String("item", m.ID))
	}
}

// BuyItem sells a non-rare item to a human. The backpack is a one-time
// capacity upgrade and never enters the inventory.
func BuyItem(ws *world.State, p *world.Player, id string) bool {
	tmpl := ws.Catalog.Item(id)
	if tmpl == nil || tmpl.Rare || !p.IsHuman() || p.Busy() {
		return false
	}
	if tmpl.Upgrade {
		if p.UpgradedSlots || !p.Spend(tmpl.Cost) {
			return false
		}
		p.UpgradedSlots = true
		return true
	}
	return sell(ws, p, tmpl)
}

// HandleBuyRareItem trades a card plus gems for an exclusive item.
func HandleBuyRareItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m idMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	if p := playerOf(sess, deps); p != nil && BuyRareItem(deps.World, p, m.ID) {
		deps.Log.Info("購買稀有物品", zap.String("player", p.Name), zap.String("item", m.ID))
	}
}

// BuyRareItem needs a held card, which is consumed on success.
func BuyRareItem(ws *world.State, p *world.Player, id string) bool {
	tmpl := ws.Catalog.Item(id)
	if tmpl == nil || !tmpl.Rare || !p.IsHuman() || p.Busy() || !p.Has(data.ItemCard) {
		return false
	}
	if !sell(ws, p, tmpl) {
		return false
	}
	p.RemoveItem(data.ItemCard)
	return true
}

// sell runs the shared unique, room and price checks and hands the item over.
func sell(ws *world.State, p *world.Player, tmpl *data.ItemTemplate) bool {
	if tmpl.Unique && p.Has(tmpl.ID) {
		return false
	}
	if !tmpl.Token && !p.HasRoom(&ws.Econ) {
		return false
	}
	if !p.Spend(tmpl.Cost) {
		return false
	}
	p.AddItem(world.InvItem{ID: tmpl.ID, Ammo: tmpl.Ammo}, &ws.Econ)
	if tmpl.ID == data.ItemDrone {
		ws.SpawnDrone(p, tmpl.Ammo)
	}
	return true
}

// HandleBuyZombieAbility buys one placeable charge.
func HandleBuyZombieAbility(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m idMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	if p := playerOf(sess, deps); p != nil {
		BuyZombieAbility(deps.World, p, m.ID)
	}
}

// BuyZombieAbility is zombie only and allowed once per round.
func BuyZombieAbility(ws *world.State, p *world.Player, id string) bool {
	if !p.IsZombie() || p.ZombieAbility != "" {
		return false
	}
	offer := ws.Catalog.Ability(id)
	if offer == nil || !p.Spend(offer.Cost) {
		return false
	}
	p.ZombieAbility = offer.ID
	p.AbilityCharges = 1
	return true
}
