package handler

import (
	"github.com/hvz-game/server/internal/auth"
	"github.com/hvz-game/server/internal/config"
	"github.com/hvz-game/server/internal/metrics"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/scripting"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
)

// Client intent types.
const (
	IntentMove             = "move"
	IntentSelectSlot       = "selectSlot"
	IntentChooseFunction   = "chooseFunction"
	IntentBuyItem          = "buyItem"
	IntentBuyRareItem      = "buyRareItem"
	IntentBuyZombieAbility = "buyZombieAbility"
	IntentActivate         = "activate"
	IntentUseItem          = "useItem"
	IntentDropItem         = "dropItem"
	IntentInteract         = "interact"
	IntentChat             = "chat"
	IntentLogin            = "login"
	IntentRegister         = "register"
	IntentResume           = "resume"
)

// RoundManager restarts the round on behalf of the /restart command.
type RoundManager interface {
	StartNewRound()
}

// Deps holds shared dependencies injected into all intent handlers.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	World     *world.State
	Scripting *scripting.Engine // nil = built-in fishing table
	Auth      auth.Provider
	Tokens    *auth.TokenIssuer
	Rounds    RoundManager
	Metrics   *metrics.Metrics // nil in tests
	Sessions  *net.SessionStore

	// AuthResults carries finished register/login calls back to the game loop.
	AuthResults chan AuthOutcome
}

// RegisterAll registers all intent handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	playing := []packet.SessionState{packet.StateGuest, packet.StateAuthenticated}
	guest := []packet.SessionState{packet.StateGuest}

	on := func(typ string, states []packet.SessionState, fn func(*net.Session, *packet.Reader, *Deps)) {
		reg.Register(typ, states, func(sess any, r *packet.Reader) {
			fn(sess.(*net.Session), r, deps)
		})
	}

	// Gameplay
	on(IntentMove, playing, HandleMove)
	on(IntentSelectSlot, playing, HandleSelectSlot)
	on(IntentChooseFunction, playing, HandleChooseFunction)
	on(IntentBuyItem, playing, HandleBuyItem)
	on(IntentBuyRareItem, playing, HandleBuyRareItem)
	on(IntentBuyZombieAbility, playing, HandleBuyZombieAbility)
	on(IntentActivate, playing, HandleActivate)
	on(IntentUseItem, playing, HandleUseItem)
	on(IntentDropItem, playing, HandleDropItem)
	on(IntentInteract, playing, HandleInteract)
	on(IntentChat, playing, HandleChat)

	// Identity
	on(IntentLogin, guest, HandleLogin)
	on(IntentRegister, guest, HandleRegister)
	on(IntentResume, guest, HandleResume)
}

// playerOf returns the live player bound to the session, or nil.
func playerOf(sess *net.Session, deps *Deps) *world.Player {
	return deps.World.PlayerBySession(sess.ID)
}

// decode reads the intent payload; malformed payloads are logged and dropped.
func decode(sess *net.Session, r *packet.Reader, deps *Deps, v any) bool {
	if err := r.Decode(v); err != nil {
		deps.Log.Debug("指令格式錯誤",
			zap.Uint64("session", sess.ID),
			zap.String("type", r.Type()),
			zap.Error(err))
		return false
	}
	return true
}
