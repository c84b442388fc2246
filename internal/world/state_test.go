package world_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/data"
	"github.com/hvz-game/server/internal/geom"
	"github.com/hvz-game/server/internal/world"
	"github.com/hvz-game/server/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGemsNeverNegative(t *testing.T) {
	ws := worldtest.New(t)
	p := worldtest.AddPlayer(ws, 1, "ann", 400, 400)

	deltas := []int{-30, 50, -500, 7, -8, -1, 1000, -1001}
	for _, d := range deltas {
		p.AddGems(d)
		assert.GreaterOrEqual(t, p.Gems, 0)
	}
	assert.False(t, p.Spend(1))
	assert.False(t, p.Spend(-5))
}

func TestInventoryCapacityIgnoresCard(t *testing.T) {
	ws := worldtest.New(t)
	p := worldtest.AddPlayer(ws, 1, "ann", 400, 400)

	for _, id := range []string{data.ItemGlove, data.ItemBow, data.ItemSkateboard} {
		require.True(t, p.AddItem(world.InvItem{ID: id}, &ws.Econ))
	}
	assert.False(t, p.AddItem(world.InvItem{ID: data.ItemFishingRod}, &ws.Econ))
	assert.True(t, p.AddItem(world.InvItem{ID: data.ItemCard}, &ws.Econ))
	assert.Equal(t, 3, p.CountedItems())
	assert.LessOrEqual(t, p.CountedItems(), p.Slots(&ws.Econ))

	p.UpgradedSlots = true
	assert.True(t, p.AddItem(world.InvItem{ID: data.ItemFishingRod}, &ws.Econ))
}

func TestSelectMovesEntryToSlotZero(t *testing.T) {
	p := &world.Player{Inventory: []world.InvItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	require.True(t, p.Select(2))
	assert.Equal(t, []world.InvItem{{ID: "c"}, {ID: "a"}, {ID: "b"}}, p.Inventory)
	assert.False(t, p.Select(5))
}

func TestInfectionTransferBounds(t *testing.T) {
	for seed := 0; seed < 20; seed++ {
		ws := worldtest.New(t)
		ws.Rand.Seed(int64(seed))
		ws.Phase = world.PhaseRunning

		h := worldtest.AddPlayer(ws, 1, "human", 400, 400)
		z := worldtest.AddPlayer(ws, 2, "zombie", 420, 400)
		ws.SetRole(z, world.RoleZombie)
		h.Gems, z.Gems = 537, 10
		h.RecomputeHitbox()
		z.RecomputeHitbox()
		h.Inventory = []world.InvItem{{ID: data.ItemGlove}, {ID: data.ItemBow, Ammo: 2}}

		require.True(t, ws.ZombieTouch(z, h))

		gained := z.Gems - 10
		assert.Equal(t, 537-h.Gems, gained)
		lo := int(math.Floor(537 * (1 - world.InfectMaxFrac)))
		hi := int(math.Floor(537 * (1 - world.InfectMinFrac)))
		assert.GreaterOrEqual(t, h.Gems, lo)
		assert.LessOrEqual(t, h.Gems, hi)
		assert.Equal(t, world.RoleZombie, h.Role)
		assert.Empty(t, h.Inventory)
		assert.Equal(t, 2, ws.Ground.Len())
		assert.InDelta(t, world.ZombieBodyRadius, h.BodyRadius(), 1e-9)
		assert.True(t, ws.Physics.Has(h.ID))
	}
}

func TestZombieTouchOutsideRunningDoesNothing(t *testing.T) {
	ws := worldtest.New(t)
	h := worldtest.AddPlayer(ws, 1, "human", 400, 400)
	z := worldtest.AddPlayer(ws, 2, "zombie", 410, 400)
	ws.SetRole(z, world.RoleZombie)

	assert.False(t, ws.ZombieTouch(z, h))
	assert.True(t, h.IsHuman())
}

func TestButterflyEscapesOnce(t *testing.T) {
	ws := worldtest.New(t)
	ws.Phase = world.PhaseRunning
	h := worldtest.AddPlayer(ws, 1, "moth", 400, 400)
	z := worldtest.AddPlayer(ws, 2, "zombie", 410, 400)
	ws.SetRole(z, world.RoleZombie)
	h.Function = world.FuncButterfly

	assert.False(t, ws.ZombieTouch(z, h))
	assert.True(t, h.Flying)
	assert.True(t, h.HitboxOff)
	assert.True(t, h.IsHuman())

	worldtest.Step(ws, world.ButterflyFlight)
	assert.False(t, h.Flying)
	assert.False(t, h.HitboxOff)

	h.RecomputeHitbox()
	assert.True(t, ws.ZombieTouch(z, h))
	assert.True(t, h.IsZombie())
}

func TestSlowRestoresSpeedFromBeforeFirstHit(t *testing.T) {
	ws := worldtest.New(t)
	z := worldtest.AddPlayer(ws, 1, "z", 400, 400)
	z.Speed = 4.2

	ws.ApplySlow(z, world.DartSlowFactor, world.DartSlowTime)
	assert.InDelta(t, 2.1, z.Speed, 1e-9)

	worldtest.Step(ws, 1000)
	ws.ApplySlow(z, world.DartSlowFactor, world.DartSlowTime)
	assert.InDelta(t, 2.1, z.Speed, 1e-9)

	worldtest.Step(ws, world.DartSlowTime-1)
	assert.InDelta(t, 2.1, z.Speed, 1e-9)
	worldtest.Step(ws, 1)
	assert.InDelta(t, 4.2, z.Speed, 1e-9)
}

func TestScheduledEffectsSurviveDisconnect(t *testing.T) {
	ws := worldtest.New(t)
	p := worldtest.AddPlayer(ws, 1, "gone", 400, 400)
	ws.ApplySlow(p, 0.5, 100)
	ws.TrapPlayer(p, 100)

	ws.RemovePlayer(p.ID)
	assert.NotPanics(t, func() { worldtest.Step(ws, 200) })
	assert.Nil(t, ws.PlayerBySession(1))
	assert.False(t, ws.Physics.Has(p.ID))
}

func TestAtMostTwoPortalsPerOwner(t *testing.T) {
	ws := worldtest.New(t)
	p := worldtest.AddPlayer(ws, 1, "p", 400, 400)

	first := ws.PlacePortal(p.ID, geom.V(100, 100))
	ws.PlacePortal(p.ID, geom.V(200, 100))
	ws.PlacePortal(p.ID, geom.V(300, 100))

	mine := ws.PortalsOf(p.ID)
	require.Len(t, mine, 2)
	assert.False(t, ws.Portals.Has(first.ID))
	assert.Equal(t, geom.V(200, 100), mine[0].Pos)
	assert.Equal(t, geom.V(300, 100), mine[1].Pos)
}

func TestHidingSpotHoldsOnePlayer(t *testing.T) {
	ws := worldtest.New(t)
	a := worldtest.AddPlayer(ws, 1, "a", 505, 500)
	b := worldtest.AddPlayer(ws, 2, "b", 495, 500)

	spot := ws.HidingSpotNear(a.Pos, world.HidingReach)
	require.Equal(t, 0, spot)
	require.True(t, ws.Hide(a, spot))

	assert.Equal(t, -1, ws.HidingSpotNear(b.Pos, world.HidingReach))
	assert.False(t, ws.Hide(b, spot))
	assert.Equal(t, a.ID, ws.HidingOccupant(spot))

	ws.RemovePlayer(a.ID)
	assert.Equal(t, 0, ws.HidingSpotNear(b.Pos, world.HidingReach))
}

func TestDroppingDroneCarriesAmmo(t *testing.T) {
	ws := worldtest.New(t)
	p := worldtest.AddPlayer(ws, 1, "p", 400, 400)
	p.Inventory = []world.InvItem{{ID: data.ItemDrone, Ammo: 6}}
	d := ws.SpawnDrone(p, 6)
	d.Ammo = 2

	ws.DropAllItems(p)
	ws.ECS.FlushDestroyQueue()

	assert.Nil(t, ws.DroneOf(p.ID))
	require.Equal(t, 1, ws.Ground.Len())
	ws.Ground.Each(func(_ ecs.EntityID, g *world.GroundItem) {
		assert.Equal(t, 2, g.Item.Ammo)
	})
}

func TestChatLogIsCapped(t *testing.T) {
	ws := worldtest.New(t)
	for i := 0; i < world.ChatLogCap+10; i++ {
		ws.PostChat("a", "hi")
	}
	assert.Len(t, ws.Chat, world.ChatLogCap)
}

func TestSnapshotShowsSpiesAsZombies(t *testing.T) {
	ws := worldtest.New(t)
	p := worldtest.AddPlayer(ws, 1, "sneaky", 400, 400)
	p.Spying = true
	p.Function = world.FuncSpy
	p.Inventory = []world.InvItem{{ID: data.ItemBow, Ammo: 3}}
	snap := ws.Snapshot()
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "zombie", snap.Players[0].Role)
	assert.Empty(t, snap.Players[0].Function)
	assert.Empty(t, snap.Players[0].Inventory)
	assert.Equal(t, "waiting", snap.Phase)

	raw, err := json.Marshal(snap.Players[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "isSpying")
	assert.NotContains(t, string(raw), `"spy"`)
}
