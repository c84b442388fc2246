package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"go.uber.org/zap"
)

// MaxChatLen caps a chat line in runes.
const MaxChatLen = 200

type chatMsg struct {
	Text string `json:"text"`
}

// HandleChat posts to the public log, or runs a slash command and answers
// the issuer alone.
func HandleChat(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m chatMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	p := playerOf(sess, deps)
	if p == nil {
		return
	}
	text := clampChat(m.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		res := ExecuteCommand(deps, p, text)
		deps.Log.Info("執行指令",
			zap.String("player", p.Name),
			zap.String("command", text),
			zap.Bool("success", res.Success))
		sess.SendMsg(packet.TypeCommandResult, res)
		return
	}

	deps.Log.Debug("聊天", zap.String("player", p.Name), zap.String("text", text))
	deps.World.PostChat(p.Name, text)
}

// clampChat trims whitespace and cuts the line to MaxChatLen runes.
func clampChat(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxChatLen {
		return s
	}
	return string([]rune(s)[:MaxChatLen])
}
