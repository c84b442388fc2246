package handler

import (
	"github.com/hvz-game/server/internal/core/event"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
)

type welcomeMsg struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type chatPush struct {
	From   string `json:"from"`
	Text   string `json:"text"`
	System bool   `json:"system,omitempty"`
}

// SendWelcome tells a client which player it controls. Sent on connect and
// again after every round reset, since players get new IDs.
func SendWelcome(sess *net.Session, p *world.Player) {
	sess.SendMsg(packet.TypeWelcome, welcomeMsg{ID: uint64(p.ID), Name: p.Name})
}

// BroadcastSnapshot encodes the world once and queues it for every open
// session. Returns the encoded size.
func BroadcastSnapshot(deps *Deps) int {
	data, err := packet.Encode(packet.TypeSnapshot, deps.World.Snapshot())
	if err != nil {
		deps.Log.Error("快照編碼失敗", zap.Error(err))
		return 0
	}
	n := 0
	deps.Sessions.ForEach(func(s *net.Session) {
		if s.IsClosed() {
			return
		}
		s.Send(data)
		n++
	})
	return len(data) * n
}

// sendAll queues one message for every open session.
func sendAll(deps *Deps, typ string, v any) {
	data, err := packet.Encode(typ, v)
	if err != nil {
		deps.Log.Error("封包編碼失敗", zap.String("type", typ), zap.Error(err))
		return
	}
	deps.Sessions.ForEach(func(s *net.Session) {
		if !s.IsClosed() {
			s.Send(data)
		}
	})
}

// SubscribeEvents wires world events to client pushes and metrics.
func SubscribeEvents(deps *Deps) {
	bus := deps.World.Bus
	event.Subscribe(bus, func(e event.ChatPosted) {
		sendAll(deps, packet.TypeChat, chatPush{From: e.From, Text: e.Text})
	})
	event.Subscribe(bus, func(e event.Announcement) {
		sendAll(deps, packet.TypeChat, chatPush{From: "server", Text: e.Text, System: true})
	})
	event.Subscribe(bus, func(e event.PlayerInfected) {
		deps.Log.Info("玩家感染",
			zap.String("human", e.HumanName),
			zap.String("by", e.By),
			zap.Int("gems", e.Gems))
		if deps.Metrics != nil {
			deps.Metrics.Infections.Inc()
		}
	})
	event.Subscribe(bus, func(e event.RoundEnded) {
		deps.Log.Info("回合結束", zap.String("winner", e.Winner))
		if deps.Metrics != nil {
			deps.Metrics.Rounds.WithLabelValues(e.Winner).Inc()
		}
	})
}
