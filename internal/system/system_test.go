package system

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hvz-game/server/internal/auth"
	"github.com/hvz-game/server/internal/config"
	"github.com/hvz-game/server/internal/core/event"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/gatekeeper"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/handler"
	"github.com/hvz-game/server/internal/metrics"
	"github.com/hvz-game/server/internal/net"
	"github.com/hvz-game/server/internal/net/packet"
	"github.com/hvz-game/server/internal/physics"
	"github.com/hvz-game/server/internal/world"
	"github.com/hvz-game/server/internal/world/worldtest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDeps(t *testing.T) *handler.Deps {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour, "test")
	require.NoError(t, err)
	return &handler.Deps{
		Config:      config.Defaults(),
		Log:         zap.NewNop(),
		World:       worldtest.New(t),
		Auth:        auth.NewMemoryProvider(),
		Tokens:      tokens,
		Sessions:    net.NewSessionStore(),
		AuthResults: make(chan handler.AuthOutcome, 4),
	}
}

func connect(deps *handler.Deps, id uint64, name string, x, y float64) (*net.Session, *world.Player) {
	sess := net.NewSession(nil, id, 8, 8, time.Second, zap.NewNop())
	deps.Sessions.Add(sess)
	return sess, worldtest.AddPlayer(deps.World, id, name, x, y)
}

func TestSharkEatsSwimmerAfterDelay(t *testing.T) {
	ws := worldtest.New(t)
	sharks := NewSharkSystem(ws)
	moves := NewMovementSystem(ws)
	ws.SpawnShark(geom.V(2000, 800))
	h := worldtest.AddPlayer(ws, 1, "swimmer", 2030, 800)
	h.Inventory = []world.InvItem{{ID: data.ItemBow, Ammo: 3}}

	sharks.Update(0) // spots the swimmer
	sharks.Update(0) // reaches them
	require.True(t, h.BeingEaten)
	assert.Empty(t, h.Inventory)
	assert.Equal(t, 1, ws.Ground.Len())

	h.Input.Keys = world.KeyLeft
	moves.Update(0)
	assert.True(t, ws.Physics.Velocity(h.ID).IsZero())
	ws.ApplyKnockback(h, geom.V(10, 0))
	assert.True(t, h.Knockback.IsZero())

	worldtest.Step(ws, world.SharkEatDelay-1)
	assert.True(t, h.IsHuman())

	worldtest.Step(ws, 1)
	assert.True(t, h.IsZombie())
	assert.False(t, h.BeingEaten)
}

func TestSharkIgnoresPlayersOnLand(t *testing.T) {
	ws := worldtest.New(t)
	sharks := NewSharkSystem(ws)
	sh := ws.SpawnShark(geom.V(2000, 800))
	worldtest.AddPlayer(ws, 1, "beach", 1850, 800)

	sharks.Update(0)
	assert.NotEqual(t, world.SharkAttacking, sh.State)
}

func TestArrowHitsAndSticks(t *testing.T) {
	ws := worldtest.New(t)
	proj := NewProjectileSystem(ws)
	shooter := worldtest.AddPlayer(ws, 1, "archer", 400, 400)
	target := worldtest.AddPlayer(ws, 2, "target", 470, 400)

	pr := ws.SpawnProjectile(world.KindArrow, shooter, 0)
	assert.InDelta(t, 400+world.ArrowSpawnOffset, pr.Pos.X, 1e-9)

	proj.Update(0)
	assert.True(t, pr.Hit)
	assert.True(t, pr.Stuck)
	assert.Greater(t, target.Knockback.X, 0.0)

	worldtest.Step(ws, world.ArrowStuckLifetime)
	proj.Update(0)
	assert.True(t, ws.ECS.Pending(pr.ID))
}

func TestDartOnlySlowsZombies(t *testing.T) {
	ws := worldtest.New(t)
	proj := NewProjectileSystem(ws)
	shooter := worldtest.AddPlayer(ws, 1, "archer", 400, 400)
	human := worldtest.AddPlayer(ws, 2, "human", 470, 400)

	dart := ws.SpawnProjectile(world.KindBlowdart, shooter, 0)
	proj.Update(0)
	assert.False(t, dart.Hit)

	ws.MakeZombie(human)
	human.RecomputeHitbox()
	speed := human.Speed
	dart2 := ws.SpawnProjectile(world.KindBlowdart, shooter, 0)
	proj.Update(0)
	assert.True(t, dart2.Hit)
	assert.InDelta(t, speed*world.DartSlowFactor, human.Speed, 1e-9)

	worldtest.Step(ws, world.DartSlowTime)
	assert.InDelta(t, speed, human.Speed, 1e-9)
}

func TestSlowExpiryKeepsSpeedGainedMeanwhile(t *testing.T) {
	ws := worldtest.New(t)
	z := worldtest.AddPlayer(ws, 1, "zed", 400, 400)
	h := worldtest.AddPlayer(ws, 2, "hugo", 430, 400)
	ws.MakeZombie(z)
	base := z.Speed

	ws.ApplySlow(z, world.DartSlowFactor, world.DartSlowTime)
	slowed := z.Speed
	assert.Less(t, slowed, base)

	ws.Infect(h, z)
	gained := z.Speed - slowed
	assert.Greater(t, gained, 0.0)

	worldtest.Step(ws, world.DartSlowTime)
	assert.InDelta(t, base+gained, z.Speed, 1e-9)
	assert.Zero(t, z.SlowedUntil)
	assert.Zero(t, z.SlowLoss)
}

func TestProjectileLeavesMap(t *testing.T) {
	ws := worldtest.New(t)
	proj := NewProjectileSystem(ws)
	shooter := worldtest.AddPlayer(ws, 1, "archer", 10, 400)
	pr := ws.SpawnProjectile(world.KindArrow, shooter, 3.14159)

	proj.Update(0)
	assert.True(t, ws.ECS.Pending(pr.ID))
}

func TestGrenadeFalloff(t *testing.T) {
	ws := worldtest.New(t)
	grenades := NewGrenadeSystem(ws)
	near := worldtest.AddPlayer(ws, 1, "near", 530, 500)
	far := worldtest.AddPlayer(ws, 2, "far", 650, 500)
	out := worldtest.AddPlayer(ws, 3, "out", 900, 500)
	g := ws.SpawnGrenade(0, geom.V(500, 500))

	grenades.Update(0)
	assert.True(t, near.Knockback.IsZero())

	worldtest.Step(ws, world.GrenadeFuse)
	grenades.Update(0)
	assert.Greater(t, near.Knockback.X, far.Knockback.X)
	assert.Greater(t, far.Knockback.X, 0.0)
	assert.True(t, out.Knockback.IsZero())
	assert.True(t, ws.ECS.Pending(g.ID))
}

func TestTrapAndMine(t *testing.T) {
	ws := worldtest.New(t)
	hazards := NewHazardSystem(ws)
	zombie := worldtest.AddPlayer(ws, 1, "z", 300, 300)
	ws.MakeZombie(zombie)
	victim := worldtest.AddPlayer(ws, 2, "v", 600, 600)
	bystander := worldtest.AddPlayer(ws, 3, "b", 700, 600)

	trap := ws.SpawnHazard(world.KindTrap, zombie.ID, geom.V(605, 600))
	hazards.Update(0)
	assert.True(t, victim.Trapped)
	assert.True(t, ws.ECS.Pending(trap.ID))
	worldtest.Step(ws, world.TrapDuration)
	assert.False(t, victim.Trapped)

	mine := ws.SpawnHazard(world.KindMine, zombie.ID, geom.V(590, 600))
	hazards.Update(0)
	assert.True(t, victim.Knockback.IsZero(), "mine is not armed yet")

	worldtest.Step(ws, world.MineArmDelay)
	hazards.Update(0)
	assert.InDelta(t, world.MineForce, victim.Knockback.Len(), 1e-9)
	assert.Greater(t, bystander.Knockback.X, 0.0)
	assert.Less(t, bystander.Knockback.Len(), world.MineForce)
	assert.True(t, ws.ECS.Pending(mine.ID))
}

func TestSinkingRemovesOnce(t *testing.T) {
	ws := worldtest.New(t)
	sinking := NewSinkingSystem(ws)
	cleanup := NewCleanupSystem(ws)
	crate := ws.SpawnFurniture("crate", geom.Rect{X: 2180, Y: 780, W: 40, H: 40}, 5)

	sinking.Update(0)
	require.True(t, crate.Sink.Active())
	started := crate.Sink.StartedAt

	worldtest.Step(ws, world.SinkDuration/2)
	sinking.Update(0)
	assert.Equal(t, started, crate.Sink.StartedAt)
	assert.InDelta(t, 0.5, crate.Sink.Progress, 1e-9)

	// leaving the zone does not undo progress
	crate.Pos = geom.V(1000, 800)
	worldtest.Step(ws, world.SinkDuration/2)
	sinking.Update(0)
	assert.Equal(t, 1.0, crate.Sink.Progress)
	assert.True(t, ws.ECS.Pending(crate.ID))

	assert.Equal(t, 1, ws.ECS.FlushDestroyQueue())
	assert.False(t, ws.Physics.Has(crate.ID))
	for i := 0; i < 3; i++ {
		sinking.Update(0)
		cleanup.Update(0)
	}
	assert.Equal(t, 0, ws.Objects.Len())
}

func TestPortalNeedsPair(t *testing.T) {
	ws := worldtest.New(t)
	portals := NewPortalSystem(ws)
	owner := worldtest.AddPlayer(ws, 1, "owner", 300, 300)
	walker := worldtest.AddPlayer(ws, 2, "walker", 600, 600)

	ws.PlacePortal(owner.ID, geom.V(600, 600))
	portals.Update(0)
	assert.Equal(t, geom.V(600, 600), walker.Pos)

	ws.PlacePortal(owner.ID, geom.V(1000, 1000))
	portals.Update(0)
	assert.Equal(t, geom.V(1000, 1000), walker.Pos)

	worldtest.Step(ws, world.PortalCooldown/2)
	portals.Update(0)
	assert.Equal(t, geom.V(1000, 1000), walker.Pos, "cooldown is global")

	worldtest.Step(ws, world.PortalCooldown/2)
	portals.Update(0)
	assert.Equal(t, geom.V(600, 600), walker.Pos)
}

func TestCollisionInfectsOnContact(t *testing.T) {
	ws := worldtest.New(t)
	ws.Phase = world.PhaseRunning
	phys := NewPhysicsSystem(ws)
	coll := NewCollisionSystem(ws)
	z := worldtest.AddPlayer(ws, 1, "z", 500, 500)
	h := worldtest.AddPlayer(ws, 2, "h", 540, 500)
	ws.MakeZombie(z)
	z.Gems, h.Gems = 0, 1000

	for i := 0; i < 5 && h.IsHuman(); i++ {
		phys.Update(0)
		coll.Update(0)
	}
	require.True(t, h.IsZombie())
	assert.GreaterOrEqual(t, z.Gems, 700)
	assert.LessOrEqual(t, z.Gems, 800)
	assert.Equal(t, 1000, z.Gems+h.Gems)
}

func TestMovementSpeedCap(t *testing.T) {
	ws := worldtest.New(t)
	p := worldtest.AddPlayer(ws, 1, "runner", 500, 500)
	p.Gems = 0
	assert.InDelta(t, 4.0, MaxSpeed(ws, p), 1e-9)

	p.Sprinting = true
	assert.InDelta(t, 6.4, MaxSpeed(ws, p), 1e-9)

	p.Sprinting = false
	p.Gems = 10000
	p.Inventory = []world.InvItem{{ID: data.ItemRunningShoes}}
	assert.InDelta(t, 4+world.GemBonusCap+world.ShoesBonus, MaxSpeed(ws, p), 1e-9)

	ws.TeleportPlayer(p, geom.V(2000, 500))
	p.Inventory = nil
	p.Gems = 0
	assert.InDelta(t, 4*world.SeaMult, MaxSpeed(ws, p), 1e-9)

	ws.TeleportPlayer(p, geom.V(1800, 500))
	assert.InDelta(t, 4*world.SandMult, MaxSpeed(ws, p), 1e-9)
}

func TestMovementAcceleratesAndFlies(t *testing.T) {
	ws := worldtest.New(t)
	moves := NewMovementSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "runner", 500, 500)
	p.Gems = 0
	p.Input.Keys = world.KeyRight

	moves.Update(0)
	assert.InDelta(t, 4*world.Acceleration, p.Vel.X, 1e-9)
	for i := 0; i < 100; i++ {
		moves.Update(0)
	}
	assert.InDelta(t, 4.0, p.Vel.X, 1e-6)

	ws.StartFlight(p, world.ButterflyFlight, false)
	moves.Update(0)
	assert.InDelta(t, 500+world.FlightSpeed, p.Pos.X, 1e-9)
}

func TestKnockbackDecaysThenClears(t *testing.T) {
	ws := worldtest.New(t)
	moves := NewMovementSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "bumped", 500, 500)
	p.Knockback = geom.V(1, 0)

	moves.Update(0)
	assert.InDelta(t, 1.0, ws.Physics.Velocity(p.ID).X, 1e-9)
	assert.InDelta(t, world.KnockbackDecay, p.Knockback.X, 1e-9)

	p.Knockback = geom.V(world.KnockbackEpsilon, 0)
	moves.Update(0)
	assert.True(t, p.Knockback.IsZero())
}

func TestSkateboardIgnoresKeys(t *testing.T) {
	ws := worldtest.New(t)
	moves := NewMovementSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "skater", 500, 500)
	p.Skating = true
	p.Input.Keys = world.KeyLeft
	p.Input.Aim = geom.V(500, 600)

	moves.Update(0)
	assert.InDelta(t, math.Pi/2, p.Rotation, 1e-9)
	assert.InDelta(t, 0, p.Vel.X, 1e-9)
	assert.InDelta(t, world.SkateSpeed, p.Vel.Y, 1e-9)
}

func TestPhysicsStopsPlayersAtTheMapEdge(t *testing.T) {
	ws := worldtest.New(t)
	phys := NewPhysicsSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "edge", 2, 1598)
	ws.Physics.SetCollidable(p.ID, false)
	p.Vel = geom.V(-5, 5)
	ws.Physics.SetVelocity(p.ID, p.Vel)

	phys.Update(0)
	assert.Equal(t, geom.V(0, 1600), p.Pos)
	assert.True(t, p.Vel.IsZero())
	assert.True(t, ws.Physics.Velocity(p.ID).IsZero())
}

func TestWalkingIntoFurniturePushesAndSpinsIt(t *testing.T) {
	ws := worldtest.New(t)
	phys := NewPhysicsSystem(ws)
	coll := NewCollisionSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "mover", 840, 500)
	crate := ws.SpawnFurniture("crate", geom.Rect{X: 900, Y: 480, W: 60, H: 60}, 2)
	contact := []physics.Contact{{Pair: physics.PairPlayerObject, A: p.ID, B: crate.ID}}

	// walking away does nothing
	p.Vel = geom.V(-4, 0)
	ws.Contacts = contact
	coll.Update(0)
	assert.True(t, ws.Physics.Velocity(crate.ID).IsZero())

	p.Vel = geom.V(4, 0)
	ws.Contacts = contact
	coll.Update(0)
	assert.InDelta(t, 4*world.PushFactor/2, ws.Physics.Velocity(crate.ID).X, 1e-9)

	ws.Physics.SetCollidable(p.ID, false)
	phys.Update(0)
	assert.Greater(t, crate.Pos.X, 930.0)
	assert.Greater(t, crate.Rotation, 0.0, "an off-center push turns it")

	glove := ws.SpawnFurniture("crate", geom.Rect{X: 900, Y: 1000, W: 60, H: 60}, 2)
	p.Inventory = []world.InvItem{{ID: data.ItemGlove}}
	ws.TeleportPlayer(p, geom.V(840, 1030))
	p.Vel = geom.V(4, 0)
	ws.Contacts = []physics.Contact{{Pair: physics.PairPlayerObject, A: p.ID, B: glove.ID}}
	coll.Update(0)
	assert.InDelta(t, 4*world.PushFactor*world.GloveMult/2, ws.Physics.Velocity(glove.ID).X, 1e-9)
}

func TestCannonballDragsWhatItTouches(t *testing.T) {
	ws := worldtest.New(t)
	coll := NewCollisionSystem(ws)
	drag := NewDragSystem(ws)
	moves := NewMovementSystem(ws)
	gunner := worldtest.AddPlayer(ws, 1, "gunner", 300, 300)
	p := worldtest.AddPlayer(ws, 2, "target", 1000, 1000)
	crate := ws.SpawnFurniture("crate", geom.Rect{X: 600, Y: 600, W: 40, H: 40}, 1)
	ball := ws.SpawnBall(gunner.ID, geom.V(400, 300), geom.V(10, 0))

	ws.Contacts = []physics.Contact{
		{Pair: physics.PairBallPlayer, A: ball.ID, B: gunner.ID},
		{Pair: physics.PairBallPlayer, A: ball.ID, B: p.ID},
		{Pair: physics.PairBallObject, A: ball.ID, B: crate.ID},
	}
	coll.Update(0)
	assert.Zero(t, gunner.DragBy, "the shooter is never dragged")
	assert.Equal(t, ball.ID, p.DragBy)
	assert.Equal(t, ws.Now+world.DragWindow, crate.DragUntil)

	drag.Update(0)
	assert.InDelta(t, 10*world.DragFraction, p.DragVel.X, 1e-9)
	assert.InDelta(t, 10*world.DragFraction, ws.Physics.Velocity(crate.ID).X, 1e-9)
	moves.Update(0)
	assert.InDelta(t, 10*world.DragFraction, ws.Physics.Velocity(p.ID).X, 1e-9)

	worldtest.Step(ws, world.DragWindow)
	drag.Update(0)
	assert.Zero(t, p.DragBy)
	assert.True(t, p.DragVel.IsZero())
	assert.Zero(t, crate.DragBy)
}

func TestGravityGlovePullsTowardAim(t *testing.T) {
	ws := worldtest.New(t)
	grab := NewGrabSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "holder", 500, 500)
	p.Inventory = []world.InvItem{{ID: data.ItemGravityGlove}, {ID: data.ItemBow, Ammo: 1}}
	crate := ws.SpawnFurniture("crate", geom.Rect{X: 680, Y: 480, W: 40, H: 40}, 1)
	p.Grabbed = crate.ID

	p.Input.Aim = geom.V(690, 500)
	grab.Update(0)
	assert.InDelta(t, -10*world.GrabPull, ws.Physics.Velocity(crate.ID).X, 1e-9)

	p.Input.Aim = geom.V(100, 500)
	grab.Update(0)
	assert.InDelta(t, -world.GrabMaxSpeed, ws.Physics.Velocity(crate.ID).X, 1e-9)

	require.True(t, p.Select(1))
	grab.Update(0)
	assert.Zero(t, p.Grabbed)
}

func TestDroneEasesTowardAim(t *testing.T) {
	ws := worldtest.New(t)
	drones := NewDroneSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "pilot", 500, 500)
	p.Inventory = []world.InvItem{{ID: data.ItemDrone, Ammo: 6}}
	d := ws.SpawnDrone(p, 6)
	p.Input.Aim = geom.V(600, 500)

	drones.Update(0)
	assert.InDelta(t, 500+100*world.DroneSmoothing, d.Pos.X, 1e-9)
	drones.Update(0)
	assert.InDelta(t, 512+88*world.DroneSmoothing, d.Pos.X, 1e-9)

	p.Inventory = nil
	drones.Update(0)
	assert.True(t, ws.ECS.Pending(d.ID))
}

func TestSharkPausesAtWaypoint(t *testing.T) {
	ws := worldtest.New(t)
	sharks := NewSharkSystem(ws)
	sh := ws.SpawnShark(geom.V(2000, 800))
	sh.Waypoint = geom.V(2002, 800)

	sharks.Update(0)
	assert.Equal(t, world.SharkPaused, sh.State)
	assert.Equal(t, geom.V(2002, 800), sh.Pos)
	assert.Equal(t, ws.Now+world.SharkPause, sh.PauseUntil)

	worldtest.Step(ws, world.SharkPause-1)
	sharks.Update(0)
	assert.Equal(t, world.SharkPaused, sh.State)

	worldtest.Step(ws, 1)
	sharks.Update(0)
	assert.Equal(t, world.SharkPatrolling, sh.State)
	assert.True(t, ws.InSea(sh.Waypoint))
	assert.Equal(t, world.SharkPatrolSpeed, sh.Speed)
}

func TestHitboxRecoversNonFinitePosition(t *testing.T) {
	ws := worldtest.New(t)
	hb := NewHitboxSystem(ws)
	p := worldtest.AddPlayer(ws, 1, "lost", 500, 500)
	p.Pos = geom.V(math.NaN(), 500)

	hb.Update(0)
	assert.Equal(t, ws.Physics.Center(), p.Pos)
	assert.Equal(t, p.Pos, p.Hitbox.Center)
	pos, ok := ws.Physics.Position(p.ID)
	require.True(t, ok)
	assert.Equal(t, p.Pos, pos)
}

func TestRoundTimeoutHumansWin(t *testing.T) {
	deps := newDeps(t)
	ws := deps.World
	rc := NewRoundController(deps)
	connect(deps, 1, "a", 400, 400)
	connect(deps, 2, "b", 600, 600)
	var winner string
	event.Subscribe(ws.Bus, func(e event.RoundEnded) { winner = e.Winner })

	ws.Phase = world.PhaseRunning
	ws.TimeLeft = 1
	rc.Tick()

	assert.Equal(t, world.PhasePostRound, ws.Phase)
	assert.Equal(t, 10, ws.PostRoundTimeLeft)
	require.NotEmpty(t, ws.Chat)
	assert.True(t, strings.Contains(ws.Chat[len(ws.Chat)-1].Text, "humans survived"))

	ws.Bus.SwapBuffers()
	ws.Bus.DispatchAll()
	assert.Equal(t, "humans", winner)
}

func TestRoundZombiesWin(t *testing.T) {
	deps := newDeps(t)
	ws := deps.World
	rc := NewRoundController(deps)
	_, a := connect(deps, 1, "a", 400, 400)
	_, b := connect(deps, 2, "b", 600, 600)
	ws.Phase = world.PhaseRunning
	ws.MakeZombie(a)
	ws.MakeZombie(b)

	rc.Tick()
	assert.Equal(t, world.PhasePostRound, ws.Phase)
}

func TestPatientZeroSkipsProtected(t *testing.T) {
	deps := newDeps(t)
	ws := deps.World
	rc := NewRoundController(deps)
	_, safe := connect(deps, 1, "safe", 400, 400)
	_, other := connect(deps, 2, "other", 600, 600)
	safe.Protection = 1

	ws.WaitingTimeLeft = 1
	rc.Tick()

	assert.Equal(t, world.PhaseRunning, ws.Phase)
	assert.True(t, safe.IsHuman())
	assert.True(t, other.IsZombie())
	assert.Equal(t, ws.Round.RunningSeconds, ws.TimeLeft)
}

func TestWaitingNeedsTwoPlayers(t *testing.T) {
	deps := newDeps(t)
	ws := deps.World
	rc := NewRoundController(deps)
	connect(deps, 1, "alone", 400, 400)

	ws.WaitingTimeLeft = 1
	rc.Tick()
	assert.Equal(t, world.PhaseWaiting, ws.Phase)
	assert.Equal(t, ws.Round.WaitingSeconds, ws.WaitingTimeLeft)

	ws.Phase = world.PhaseRunning
	rc.Tick()
	assert.Equal(t, world.PhaseWaiting, ws.Phase)
}

func TestWaitingRestartsWhenEveryoneWasEaten(t *testing.T) {
	deps := newDeps(t)
	ws := deps.World
	rc := NewRoundController(deps)
	sharks := NewSharkSystem(ws)
	ws.SpawnShark(geom.V(2000, 400))
	ws.SpawnShark(geom.V(2000, 1200))
	_, a := connect(deps, 1, "a", 2030, 400)
	_, b := connect(deps, 2, "b", 2030, 1200)

	sharks.Update(0)
	sharks.Update(0)
	worldtest.Step(ws, world.SharkEatDelay)
	require.True(t, a.IsZombie())
	require.True(t, b.IsZombie())
	require.Equal(t, world.PhaseWaiting, ws.Phase)

	for i, n := 0, ws.Round.WaitingSeconds; i < n; i++ {
		rc.Tick()
	}

	assert.Equal(t, world.PhaseWaiting, ws.Phase)
	assert.Equal(t, ws.Round.WaitingSeconds, ws.WaitingTimeLeft)
	for _, id := range []uint64{1, 2} {
		p := ws.PlayerBySession(id)
		require.NotNil(t, p)
		assert.True(t, p.IsHuman())
	}

	for i, n := 0, ws.Round.WaitingSeconds; i < n; i++ {
		rc.Tick()
	}
	assert.Equal(t, world.PhaseRunning, ws.Phase)
	assert.GreaterOrEqual(t, ws.WaitingTimeLeft, 0)
}

func TestNewRoundKeepsPersistentState(t *testing.T) {
	deps := newDeps(t)
	ws := deps.World
	rc := NewRoundController(deps)
	sess, p := connect(deps, 1, "keeper", 400, 400)
	_, slow := connect(deps, 2, "slow", 600, 600)
	gone, _ := connect(deps, 3, "gone", 800, 800)
	gone.Close()

	p.Gems = 500
	p.Speed = 4.2
	p.Color = "#ff0000"
	p.Inventory = []world.InvItem{{ID: data.ItemDrone, Ammo: 6}, {ID: data.ItemGlove}}
	ws.SpawnDrone(p, 4)
	ws.SetRole(p, world.RoleZombie)
	p.Trapped = true
	slow.Speed = 2
	ws.Phase = world.PhasePostRound
	ws.PostRoundTimeLeft = 1

	rc.Tick()

	assert.Equal(t, world.PhaseWaiting, ws.Phase)
	assert.Equal(t, 2, ws.PlayerCount())
	np := ws.PlayerBySession(1)
	require.NotNil(t, np)
	assert.True(t, np.IsHuman())
	assert.Equal(t, 500, np.Gems)
	assert.InDelta(t, 4.2, np.Speed, 1e-9)
	assert.Equal(t, "#ff0000", np.Color)
	assert.True(t, np.Has(data.ItemDrone))
	assert.False(t, np.Has(data.ItemGlove))
	assert.False(t, np.Trapped)
	d := ws.DroneOf(np.ID)
	require.NotNil(t, d)
	assert.Equal(t, 4, d.Ammo)
	assert.Equal(t, 0, ws.Ground.Len())

	ns := ws.PlayerBySession(2)
	require.NotNil(t, ns)
	assert.InDelta(t, ws.Econ.SpeedFloor, ns.Speed, 1e-9)
	assert.Nil(t, ws.PlayerBySession(3))

	var welcome struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	out := sess.Pending()
	require.NotEmpty(t, out)
	env, err := packet.NewReader(out[len(out)-1])
	require.NoError(t, err)
	require.Equal(t, packet.TypeWelcome, env.Type())
	require.NoError(t, env.Decode(&welcome))
	assert.Equal(t, uint64(np.ID), welcome.ID)
}

func TestEconomyAccrual(t *testing.T) {
	deps := newDeps(t)
	ws := deps.World
	rc := NewRoundController(deps)
	_, h := connect(deps, 1, "h", 400, 400)
	_, z := connect(deps, 2, "z", 600, 600)
	ws.MakeZombie(z)
	ws.Phase = world.PhaseRunning
	h.Gems, z.Gems = 0, 1
	z.Speed = ws.Econ.SpeedFloor

	for i := 0; i < 10; i++ {
		rc.Tick()
	}
	assert.GreaterOrEqual(t, h.Gems, 10)
	assert.LessOrEqual(t, h.Gems, 30)
	assert.GreaterOrEqual(t, z.Gems, 0)
	assert.Equal(t, ws.Econ.SpeedFloor, z.Speed)
}

type fakeAcceptor struct {
	newCh  chan *net.Session
	deadCh chan uint64
	dead   []uint64
}

func (f *fakeAcceptor) NewSessions() <-chan *net.Session { return f.newCh }
func (f *fakeAcceptor) DeadSessions() <-chan uint64      { return f.deadCh }
func (f *fakeAcceptor) NotifyDead(id uint64)             { f.dead = append(f.dead, id) }

func TestInputScreensAndDispatches(t *testing.T) {
	deps := newDeps(t)
	deps.Metrics = metrics.New("test")
	acc := &fakeAcceptor{newCh: make(chan *net.Session, 1), deadCh: make(chan uint64, 1)}
	reg := packet.NewRegistry(zap.NewNop())
	handler.RegisterAll(reg, deps)
	in := NewInputSystem(acc, reg, gatekeeper.New(deps.Config.RateLimit), deps, 8)

	sess := net.NewSession(nil, 7, 8, 8, time.Second, zap.NewNop())
	acc.newCh <- sess
	in.Update(0)

	p := deps.World.PlayerBySession(7)
	require.NotNil(t, p)
	assert.Equal(t, "Guest7", p.Name)
	assert.Equal(t, 1, deps.Sessions.Count())

	sess.InQueue <- []byte(`{"type":"move","data":{"keys":1,"__proto__":{"x":1}}}`)
	in.Update(0)
	assert.Equal(t, uint8(0), p.Input.Keys)
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.Rejections.WithLabelValues("hostile")))

	sess.InQueue <- []byte(`{"type":"move","data":{"keys":1,"aim":{"x":1,"y":2}}}`)
	in.Update(0)
	assert.Equal(t, world.KeyUp, p.Input.Keys)

	sess.Close()
	in.Update(0)
	assert.Nil(t, deps.World.PlayerBySession(7))
	assert.Equal(t, 0, deps.Sessions.Count())
	assert.Equal(t, []uint64{7}, acc.dead)
}
