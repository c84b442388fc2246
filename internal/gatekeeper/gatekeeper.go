// Package gatekeeper screens raw client frames before they reach the intent
// registry. Rejections are silent to the client; callers log and count them.
package gatekeeper

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/hvz-game/server/internal/config"
)

var (
	ErrRateLimited = errors.New("gatekeeper: rate limited")
	ErrTooLarge    = errors.New("gatekeeper: payload too large")
	ErrHostileKey  = errors.New("gatekeeper: hostile key")
	ErrMalformed   = errors.New("gatekeeper: malformed payload")
)

// hostileKeys are object keys that only show up in prototype-pollution
// attempts against the browser client.
var hostileKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// Validator is the pluggable request check run by the input system.
type Validator interface {
	Check(sessionID uint64, payload []byte, nowMs int64) error
	Forget(sessionID uint64)
}

type window struct {
	second int64 // unix second of the current window
	count  int
}

// Gatekeeper enforces a fixed-window intents-per-second limit per session
// and rejects oversized or hostile payloads. Game loop only.
type Gatekeeper struct {
	cfg     config.RateLimitConfig
	windows map[uint64]*window
}

func New(cfg config.RateLimitConfig) *Gatekeeper {
	return &Gatekeeper{cfg: cfg, windows: make(map[uint64]*window)}
}

// Check returns nil when the frame may be dispatched.
func (g *Gatekeeper) Check(sessionID uint64, payload []byte, nowMs int64) error {
	if g.cfg.MaxPayloadBytes > 0 && len(payload) > g.cfg.MaxPayloadBytes {
		return ErrTooLarge
	}
	if g.cfg.Enabled && g.cfg.IntentsPerSecond > 0 {
		w := g.windows[sessionID]
		if w == nil {
			w = &window{}
			g.windows[sessionID] = w
		}
		sec := nowMs / 1000
		if sec != w.second {
			w.second = sec
			w.count = 0
		}
		w.count++
		if w.count > g.cfg.IntentsPerSecond {
			return ErrRateLimited
		}
	}
	return scanKeys(payload)
}

// Forget drops the session's rate window.
func (g *Gatekeeper) Forget(sessionID uint64) {
	delete(g.windows, sessionID)
}

// scanKeys walks every object key in the JSON document.
func scanKeys(payload []byte) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	// Object keys are the string tokens read while expecting a key.
	type frame struct{ object, wantKey bool }
	var stack []frame
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) && len(stack) == 0 {
				return nil
			}
			return ErrMalformed
		}
		top := len(stack) - 1
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				if top >= 0 && stack[top].object {
					stack[top].wantKey = true
				}
				stack = append(stack, frame{object: v == '{', wantKey: v == '{'})
			default:
				stack = stack[:top]
			}
			continue
		case string:
			if top >= 0 && stack[top].object && stack[top].wantKey {
				if hostileKeys[v] {
					return ErrHostileKey
				}
				stack[top].wantKey = false
				continue
			}
		}
		if top >= 0 && stack[top].object {
			stack[top].wantKey = true
		}
	}
}
