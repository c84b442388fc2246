package handler

import (
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/world"
)

type moveMsg struct {
	Keys uint8    `json:"keys"`
	Aim  geom.Vec `json:"aim"`
}

type slotMsg struct {
	Slot int `json:"slot"`
}

// HandleMove stores the latest movement bits and aim point. The next
// tick's movement system reads them.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m moveMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	if p := playerOf(sess, deps); p != nil {
		Move(p, m.Keys, m.Aim)
	}
}

// Move always accepts. Unknown key bits are masked off and a non-finite aim
// keeps the previous one.
func Move(p *world.Player, keys uint8, aim geom.Vec) bool {
	p.Input.Keys = keys & (world.KeyUp | world.KeyDown | world.KeyLeft | world.KeyRight)
	if aim.Finite() {
		p.Input.Aim = aim
	}
	return true
}

// HandleSelectSlot moves an inventory entry into slot 0.
func HandleSelectSlot(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m slotMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	if p := playerOf(sess, deps); p != nil {
		SelectSlot(deps.World, p, m.Slot)
	}
}

// SelectSlot selects entry i. Switching away from the gravity glove lets go
// of the held body.
func SelectSlot(ws *world.State, p *world.Player, i int) bool {
	if p.Busy() || !p.Select(i) {
		return false
	}
	if p.Grabbed != 0 && !p.SelectedIs(data.ItemGravityGlove) {
		ws.ReleaseGrab(p)
	}
	return true
}
