package handler

import (
	"context"
	"time"

	"github.com/hvz-game/server/internal/auth"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"go.uber.org/zap"
)

// authTimeout bounds one provider call.
const authTimeout = 5 * time.Second

type credentialsMsg struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type resumeMsg struct {
	Token string `json:"token"`
}

// AuthOutcome is a finished provider call waiting to be applied by the
// game loop.
type AuthOutcome struct {
	SessionID uint64
	Username  string
	Result    auth.Result
}

// HandleLogin checks credentials off the game loop.
func HandleLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m credentialsMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	startAuth(sess, deps, false, m)
}

// HandleRegister creates an account off the game loop.
func HandleRegister(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m credentialsMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	startAuth(sess, deps, true, m)
}

// startAuth runs the provider in its own goroutine; the bcrypt and database
// work must not stall the tick. The result comes back through AuthResults.
func startAuth(sess *net.Session, deps *Deps, register bool, m credentialsMsg) {
	id := sess.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		res := auth.Authenticate(ctx, deps.Auth, deps.Tokens, register, m.Username, m.Password, m.DisplayName)
		deliver(deps, AuthOutcome{SessionID: id, Username: auth.NormalizeName(m.Username), Result: res})
	}()
}

// deliver hands a finished call back to the game loop without blocking.
func deliver(deps *Deps, out AuthOutcome) {
	select {
	case deps.AuthResults <- out:
	default:
		deps.Log.Warn("驗證結果佇列已滿，丟棄", zap.Uint64("session", out.SessionID))
	}
}

// HandleResume restores an account from a session token. The token is
// checked inline; the account lookup for the current display name and
// color goes through AuthResults like login.
func HandleResume(sess *net.Session, r *packet.Reader, deps *Deps) {
	var m resumeMsg
	if !decode(sess, r, deps, &m) {
		return
	}
	claims, err := deps.Tokens.Verify(m.Token)
	if err != nil {
		sess.SendMsg(packet.TypeAuthResult, auth.Result{Success: false, Message: "session expired, please log in"})
		return
	}
	id := sess.ID
	go func() {
		res := auth.Result{
			Success: true,
			Message: "welcome back",
			Token:   m.Token,
			Name:    claims.DisplayName,
			Color:   auth.DefaultColor(claims.Username),
		}
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		if acc, err := deps.Auth.Lookup(ctx, claims.Username); err == nil {
			res.Name, res.Color = acc.DisplayName, acc.Color
		}
		deliver(deps, AuthOutcome{SessionID: id, Username: claims.Username, Result: res})
	}()
}

// ApplyAuth reports the outcome to the client and, on success, binds the
// account to the session and its live player. Runs on the game loop.
func ApplyAuth(deps *Deps, out AuthOutcome) {
	sess := deps.Sessions.Get(out.SessionID)
	if sess == nil || sess.IsClosed() {
		return
	}
	sess.SendMsg(packet.TypeAuthResult, out.Result)
	if !out.Result.Success {
		deps.Log.Info("驗證失敗",
			zap.Uint64("session", out.SessionID),
			zap.String("account", out.Username),
			zap.String("reason", out.Result.Message))
		return
	}

	sess.AccountName = out.Username
	sess.SetState(packet.StateAuthenticated)
	if p := deps.World.PlayerBySession(sess.ID); p != nil {
		p.Account = out.Username
		if out.Result.Name != "" {
			p.Name = out.Result.Name
		}
		if out.Result.Color != "" {
			p.Color = out.Result.Color
		}
	}
	deps.Log.Info("帳號登入",
		zap.Uint64("session", out.SessionID),
		zap.String("account", out.Username))
}
