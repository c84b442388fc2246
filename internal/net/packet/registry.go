package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateGuest         SessionState = iota // connected, playing without an account
	StateAuthenticated                     // logged in
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateGuest:
		return "Guest"
	case StateAuthenticated:
		return "Authenticated"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for intent handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps intent types to handlers with state-based access control.
type Registry struct {
	handlers map[string]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]*handlerEntry),
		log:      log,
	}
}

// Register maps an intent type to a handler, restricted to the given session states.
func (reg *Registry) Register(typ string, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[typ] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Has reports whether a handler is registered for typ.
func (reg *Registry) Has(typ string) bool {
	_, ok := reg.handlers[typ]
	return ok
}

// Dispatch decodes the envelope, validates the session state, and calls the
// handler. Unknown types are ignored.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	r, err := NewReader(data)
	if err != nil {
		return err
	}
	typ := r.Type()
	reg.log.Debug("收到封包",
		zap.String("type", typ),
		zap.Int("size", len(data)),
		zap.String("state", state.String()),
	)

	entry, ok := reg.handlers[typ]
	if !ok {
		reg.log.Debug("未知封包類型", zap.String("type", typ), zap.String("state", state.String()))
		return nil // silently ignore unknown types
	}

	if !entry.allowedStates[state] {
		reg.log.Warn("封包類型在此狀態下不允許",
			zap.String("type", typ),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("type %q not allowed in state %s", typ, state)
	}

	return reg.safeCall(entry.fn, sess, r, typ)
}

// safeCall executes a handler with panic recovery to prevent a single
// bad intent from crashing the entire game loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, typ string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("處理器 panic 已恢復",
				zap.String("type", typ),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for type %q: %v", typ, rec)
		}
	}()
	fn(sess, r)
	return nil
}
