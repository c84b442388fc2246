package handler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hvz-game/server/internal/auth"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
)

// CommandResult is the reply to a slash command, sent to the issuer only.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func done(format string, a ...any) CommandResult {
	return CommandResult{Success: true, Message: fmt.Sprintf(format, a...)}
}

func refuse(format string, a ...any) CommandResult {
	return CommandResult{Success: false, Message: fmt.Sprintf(format, a...)}
}

type command struct {
	usage      string
	privileged bool
	run        func(deps *Deps, issuer *world.Player, args []string) CommandResult
}

// maxGemGrant bounds a single /gems amount in either direction.
const maxGemGrant = 1_000_000_000

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":        {"/help", false, cmdHelp},
		"players":     {"/players", false, cmdPlayers},
		"time":        {"/time", false, cmdTime},
		"commandlist": {"/commandlist", true, cmdList},
		"kill":        {"/kill <name>", true, cmdKill},
		"heal":        {"/heal <name>", true, cmdHeal},
		"tp":          {"/tp <name> | /tp <x> <y>", true, cmdTeleport},
		"speed":       {"/speed <value> [name]", true, cmdSpeed},
		"gems":        {"/gems <amount> [name]", true, cmdGems},
		"restart":     {"/restart", true, cmdRestart},
		"givcmd":      {"/givcmd <name>", true, cmdGrant},
	}
}

// ExecuteCommand parses and runs one "/" command for issuer.
func ExecuteCommand(deps *Deps, issuer *world.Player, text string) CommandResult {
	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return refuse("empty command")
	}
	name := strings.ToLower(parts[0])
	cmd, found := commands[name]
	if !found {
		return refuse("unknown command /%s, try /help", name)
	}
	if cmd.privileged && !Privileged(deps, issuer) {
		return refuse("you are not allowed to use /%s", name)
	}
	return cmd.run(deps, issuer, parts[1:])
}

// Privileged reports whether the player may run admin commands. Only the
// logged-in account counts: listed in the config, or granted with /givcmd
// this server run. Display names are free text and guests never qualify.
func Privileged(deps *Deps, p *world.Player) bool {
	if p.Account == "" {
		return false
	}
	for _, a := range deps.Config.Server.Admins {
		if auth.NormalizeName(a) == p.Account {
			return true
		}
	}
	return deps.World.CommandGrants[p.Account]
}

// target resolves an optional trailing name argument, defaulting to the issuer.
func target(deps *Deps, issuer *world.Player, args []string, at int) (*world.Player, CommandResult, bool) {
	if len(args) <= at {
		return issuer, CommandResult{}, true
	}
	p := deps.World.PlayerByName(args[at])
	if p == nil {
		return nil, refuse("player %q not found", args[at]), false
	}
	return p, CommandResult{}, true
}

func cmdHelp(deps *Deps, issuer *world.Player, _ []string) CommandResult {
	msg := "/help, /players, /time"
	if Privileged(deps, issuer) {
		msg += ", /commandlist"
	}
	return done("%s", msg)
}

func cmdList(_ *Deps, _ *world.Player, _ []string) CommandResult {
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, c.usage)
	}
	sort.Strings(lines)
	return done("%s", strings.Join(lines, "\n"))
}

func cmdPlayers(deps *Deps, _ *world.Player, _ []string) CommandResult {
	var names []string
	deps.World.EachPlayer(func(p *world.Player) {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Role))
	})
	return done("%d online: %s", len(names), strings.Join(names, ", "))
}

func cmdTime(deps *Deps, _ *world.Player, _ []string) CommandResult {
	ws := deps.World
	switch ws.Phase {
	case world.PhaseRunning:
		return done("round running, %ds left", ws.TimeLeft)
	case world.PhasePostRound:
		return done("round over, next in %ds", ws.PostRoundTimeLeft)
	default:
		return done("waiting for players, %ds to start", ws.WaitingTimeLeft)
	}
}

func cmdKill(deps *Deps, _ *world.Player, args []string) CommandResult {
	if len(args) < 1 {
		return refuse("usage: /kill <name>")
	}
	p := deps.World.PlayerByName(args[0])
	if p == nil {
		return refuse("player %q not found", args[0])
	}
	if p.IsZombie() {
		return refuse("%s is already a zombie", p.Name)
	}
	deps.World.MakeZombie(p)
	deps.World.Announce(fmt.Sprintf("%s was turned by an admin", p.Name))
	return done("%s is now a zombie", p.Name)
}

func cmdHeal(deps *Deps, _ *world.Player, args []string) CommandResult {
	if len(args) < 1 {
		return refuse("usage: /heal <name>")
	}
	p := deps.World.PlayerByName(args[0])
	if p == nil {
		return refuse("player %q not found", args[0])
	}
	if p.IsHuman() {
		return refuse("%s is already human", p.Name)
	}
	deps.World.MakeHuman(p)
	return done("%s is human again", p.Name)
}

func cmdTeleport(deps *Deps, issuer *world.Player, args []string) CommandResult {
	ws := deps.World
	switch len(args) {
	case 1:
		dst := ws.PlayerByName(args[0])
		if dst == nil {
			return refuse("player %q not found", args[0])
		}
		ws.TeleportPlayer(issuer, dst.Pos)
		return done("teleported to %s", dst.Name)
	case 2:
		x, errX := strconv.ParseFloat(args[0], 64)
		y, errY := strconv.ParseFloat(args[1], 64)
		pos := geom.V(x, y)
		if errX != nil || errY != nil || !pos.Finite() || !ws.InBounds(pos) {
			return refuse("bad coordinates")
		}
		ws.TeleportPlayer(issuer, pos)
		return done("teleported to %.0f, %.0f", x, y)
	}
	return refuse("usage: /tp <name> | /tp <x> <y>")
}

func cmdSpeed(deps *Deps, issuer *world.Player, args []string) CommandResult {
	if len(args) < 1 {
		return refuse("usage: /speed <value> [name]")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil || v <= 0 || v > 50 {
		return refuse("speed must be between 0 and 50")
	}
	p, res, found := target(deps, issuer, args, 1)
	if !found {
		return res
	}
	p.Speed = v
	p.SlowLoss = 0
	return done("%s speed set to %.2f", p.Name, v)
}

func cmdGems(deps *Deps, issuer *world.Player, args []string) CommandResult {
	if len(args) < 1 {
		return refuse("usage: /gems <amount> [name]")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return refuse("amount must be a whole number")
	}
	if n < -maxGemGrant || n > maxGemGrant {
		return refuse("amount must be between %d and %d", -maxGemGrant, maxGemGrant)
	}
	p, res, found := target(deps, issuer, args, 1)
	if !found {
		return res
	}
	p.AddGems(n)
	return done("%s now has %d gems", p.Name, p.Gems)
}

func cmdRestart(deps *Deps, _ *world.Player, _ []string) CommandResult {
	if deps.Rounds == nil {
		return refuse("round control unavailable")
	}
	deps.Rounds.StartNewRound()
	return done("round restarted")
}

func cmdGrant(deps *Deps, _ *world.Player, args []string) CommandResult {
	if len(args) < 1 {
		return refuse("usage: /givcmd <name>")
	}
	p := deps.World.PlayerByName(args[0])
	if p == nil {
		return refuse("player %q not found", args[0])
	}
	if p.Account == "" {
		return refuse("%s must log in before being granted commands", p.Name)
	}
	deps.World.CommandGrants[p.Account] = true
	return done("%s (%s) can now use commands", p.Name, p.Account)
}
