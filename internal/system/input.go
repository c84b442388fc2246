package system

import (
	"errors"
	"fmt"
	"time"

	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/gatekeeper"
	"github.com/hvz-game/server/internal/handler"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"go.uber.org/zap"
)

// Acceptor hands new and dead sessions to the game loop. *net.Server
// implements it.
type Acceptor interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
	NotifyDead(sessionID uint64)
}

// InputSystem accepts connections, screens and dispatches queued intents,
// applies finished auth calls and tears down closed sessions. Phase 0 (Input).
type InputSystem struct {
	acceptor   Acceptor
	registry   *packet.Registry
	gate       gatekeeper.Validator
	deps       *handler.Deps
	maxPerTick int
}

func NewInputSystem(acceptor Acceptor, registry *packet.Registry, gate gatekeeper.Validator, deps *handler.Deps, maxPerTick int) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 16
	}
	return &InputSystem{
		acceptor:   acceptor,
		registry:   registry,
		gate:       gate,
		deps:       deps,
		maxPerTick: maxPerTick,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	store := s.deps.Sessions

	// Accept new sessions
	for {
		select {
		case sess := <-s.acceptor.NewSessions():
			s.join(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.acceptor.DeadSessions():
			store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Finished register/login calls
	for {
		select {
		case out := <-s.deps.AuthResults:
			handler.ApplyAuth(s.deps, out)
		default:
			goto doneAuth
		}
	}
doneAuth:

	store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			s.leave(sess)
			return
		}
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				s.dispatch(sess, data)
			default:
				return
			}
		}
	})
}

// dispatch screens one frame with the gatekeeper and routes it. Rejected
// frames are dropped without telling the client.
func (s *InputSystem) dispatch(sess *net.Session, data []byte) {
	if s.gate != nil {
		if err := s.gate.Check(sess.ID, data, s.deps.World.Now); err != nil {
			s.deps.Log.Warn("封包遭攔截",
				zap.Uint64("session", sess.ID),
				zap.String("ip", sess.IP),
				zap.Error(err))
			if s.deps.Metrics != nil {
				s.deps.Metrics.Rejections.WithLabelValues(rejectReason(err)).Inc()
			}
			return
		}
	}
	if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
		s.deps.Log.Debug("封包分派錯誤",
			zap.Uint64("session", sess.ID),
			zap.Error(err))
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, gatekeeper.ErrRateLimited):
		return "rate"
	case errors.Is(err, gatekeeper.ErrTooLarge):
		return "size"
	case errors.Is(err, gatekeeper.ErrHostileKey):
		return "hostile"
	default:
		return "malformed"
	}
}

// join spawns a guest player for a new connection.
func (s *InputSystem) join(sess *net.Session) {
	s.deps.Sessions.Add(sess)
	p := s.deps.World.AddPlayer(sess.ID, fmt.Sprintf("Guest%d", sess.ID))
	handler.SendWelcome(sess, p)
	s.deps.Log.Info("玩家加入",
		zap.Uint64("session", sess.ID),
		zap.String("name", p.Name),
		zap.Int("online", s.deps.World.PlayerCount()))
}

// leave drops the player's items, frees what they held and forgets the
// session. Scheduled effects aimed at the player become no-ops.
func (s *InputSystem) leave(sess *net.Session) {
	ws := s.deps.World
	if p := ws.PlayerBySession(sess.ID); p != nil {
		s.deps.Log.Info("玩家離線",
			zap.Uint64("session", sess.ID),
			zap.String("name", p.Name))
		ws.RemovePlayer(p.ID)
	}
	if s.gate != nil {
		s.gate.Forget(sess.ID)
	}
	s.deps.Sessions.Remove(sess.ID)
	s.acceptor.NotifyDead(sess.ID)
}
