package system

import (
	"fmt"
	"math"
	"time"

	"github.com/hvz-game/server/internal/core/event"
	coresys "github.com/hvz-game/server/internal/core/system"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/handler"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
)

// RoundController is the once-per-second round state machine: the waiting
// countdown, patient zero selection, the running economy and win checks,
// and the post-round countdown back into a fresh round. It runs inside the
// tick but only acts when a full second of world time has passed.
// Phase 4 (PostUpdate), before EventSystem.
type RoundController struct {
	deps     *handler.Deps
	lastTick int64
}

func NewRoundController(deps *handler.Deps) *RoundController {
	return &RoundController{deps: deps}
}

func (rc *RoundController) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (rc *RoundController) Update(_ time.Duration) {
	now := rc.deps.World.Now
	if rc.lastTick == 0 {
		rc.lastTick = now
		return
	}
	if now-rc.lastTick >= 1000 {
		rc.lastTick = now
		rc.Tick()
	}
}

// Tick advances the round clock by one second.
func (rc *RoundController) Tick() {
	ws := rc.deps.World
	n := ws.PlayerCount()
	if n <= 1 && ws.Phase != world.PhaseWaiting {
		rc.deps.Log.Info("玩家不足，回合中止", zap.Int("online", n))
		rc.StartNewRound()
		return
	}

	switch ws.Phase {
	case world.PhaseWaiting:
		if n < max(ws.Round.MinPlayers, 2) {
			ws.WaitingTimeLeft = ws.Round.WaitingSeconds
			return
		}
		ws.WaitingTimeLeft--
		if ws.WaitingTimeLeft <= 0 {
			rc.StartRound()
		}

	case world.PhaseRunning:
		rc.accrue()
		ws.TimeLeft--
		humans, _ := ws.CountRoles()
		switch {
		case humans == 0:
			rc.EndRound("zombies")
		case ws.TimeLeft <= 0:
			rc.EndRound("humans")
		}

	case world.PhasePostRound:
		ws.PostRoundTimeLeft--
		if ws.PostRoundTimeLeft <= 0 {
			rc.StartNewRound()
		}
	}
}

// StartRound picks patient zero and starts the round clock. Candidates are
// weighted by 1 - protection; if every weight is zero the pick is uniform.
func (rc *RoundController) StartRound() {
	ws := rc.deps.World
	var candidates []*world.Player
	total := 0.0
	ws.EachPlayer(func(p *world.Player) {
		if !p.IsHuman() {
			return
		}
		candidates = append(candidates, p)
		total += math.Max(0, 1-p.Protection)
	})
	if len(candidates) == 0 {
		// Everyone was turned before the round began (sharks, /kill).
		rc.deps.Log.Info("無人類可開局，重新準備", zap.Int("online", ws.PlayerCount()))
		rc.StartNewRound()
		return
	}

	var zero *world.Player
	if total > 0 {
		roll := ws.Rand.Float64() * total
		for _, p := range candidates {
			w := math.Max(0, 1-p.Protection)
			if w == 0 {
				continue
			}
			zero = p
			if roll < w {
				break
			}
			roll -= w
		}
	}
	if zero == nil {
		zero = candidates[ws.Rand.Intn(len(candidates))]
	}

	ws.Phase = world.PhaseRunning
	ws.TimeLeft = ws.Round.RunningSeconds
	ws.MakeZombie(zero)
	ws.Announce(fmt.Sprintf("The round has started! %s is patient zero", zero.Name))
	rc.deps.Log.Info("回合開始",
		zap.String("patient_zero", zero.Name),
		zap.Int("players", len(candidates)))
}

// EndRound moves to post-round and announces the winner.
func (rc *RoundController) EndRound(winner string) {
	ws := rc.deps.World
	if ws.Phase != world.PhaseRunning {
		return
	}
	ws.Phase = world.PhasePostRound
	ws.PostRoundTimeLeft = ws.Round.PostRoundSeconds
	if winner == "humans" {
		ws.Announce("Time is up, the humans survived!")
	} else {
		ws.Announce("Every human was infected, the zombies win!")
	}
	event.Emit(ws.Bus, event.RoundEnded{Winner: winner})
}

// carried is what a connected player keeps across a round reset.
type carried struct {
	session  uint64
	name     string
	color    string
	account  string
	gems     int
	speed    float64
	upgraded bool
	items    []world.InvItem
}

// StartNewRound rebuilds the world and puts every connected player back as
// a human, keeping name, account, gems, speed (at least the floor) and
// exclusive items. Everything else is round scoped.
func (rc *RoundController) StartNewRound() {
	deps := rc.deps
	ws := deps.World

	var keep []carried
	ws.EachPlayer(func(p *world.Player) {
		ws.SyncDroneAmmo(p)
		speed := p.Speed
		if p.SlowedUntil > 0 {
			speed += p.SlowLoss
		}
		c := carried{
			session:  p.SessionID,
			name:     p.Name,
			color:    p.Color,
			account:  p.Account,
			gems:     p.Gems,
			speed:    math.Max(speed, ws.Econ.SpeedFloor),
			upgraded: p.UpgradedSlots,
		}
		for _, it := range p.Inventory {
			if tmpl := ws.Catalog.Item(it.ID); tmpl != nil && tmpl.Exclusive() {
				c.items = append(c.items, it)
			}
		}
		keep = append(keep, c)
	})

	ws.Reset()

	for _, c := range keep {
		sess := deps.Sessions.Get(c.session)
		if sess == nil || sess.IsClosed() {
			continue
		}
		p := ws.AddPlayer(c.session, c.name)
		p.Color = c.color
		p.Account = c.account
		p.Gems = c.gems
		p.Speed = c.speed
		p.UpgradedSlots = c.upgraded
		p.Inventory = c.items
		if i := p.Find(data.ItemDrone); i >= 0 {
			ws.SpawnDrone(p, p.Inventory[i].Ammo)
		}
		p.RecomputeHitbox()
		handler.SendWelcome(sess, p)
	}
	rc.lastTick = ws.Now
	deps.Log.Info("新回合準備", zap.Int("players", ws.PlayerCount()))
}

// accrue runs the per-second economy: zombies bleed gems and speed down to
// the floor, humans earn gems, doubled by the gem multiplier.
func (rc *RoundController) accrue() {
	ws := rc.deps.World
	floor := ws.Econ.SpeedFloor
	ws.EachPlayer(func(p *world.Player) {
		if p.IsZombie() {
			p.AddGems(-ws.Rand.Intn(3))
			loss := ws.Rand.Float64() * 0.02
			if p.Speed > floor {
				p.Speed = math.Max(floor, p.Speed-loss)
			}
			return
		}
		if p.BeingEaten {
			return
		}
		gain := 1 + ws.Rand.Intn(3)
		if p.Has(data.ItemGemMultiplier) {
			gain *= 2
		}
		p.AddGems(gain)
	})
}
