package world

import (
	"math"

	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/geom"
)

// SpawnFurniture adds a movable object with a physics box.
func (s *State) SpawnFurniture(kind string, r geom.Rect, mass float64) *WorldObject {
	id := s.ECS.CreateEntity()
	o := &WorldObject{ID: id, Kind: kind, Pos: r.Center(), Width: r.W, Height: r.H}
	s.Objects.Set(id, o)
	s.tag(id, KindFurniture, CapGrabbable|CapSinkable|CapPushable|CapDraggable)
	s.Physics.AddObject(id, r, mass)
	return o
}

// SpawnGroundItem drops an item at pos with a small physics body so it can
// be pushed, dragged and grabbed.
func (s *State) SpawnGroundItem(it InvItem, pos geom.Vec) *GroundItem {
	id := s.ECS.CreateEntity()
	g := &GroundItem{ID: id, Item: it, Pos: pos}
	s.Ground.Set(id, g)
	s.tag(id, KindGroundItem, CapGrabbable|CapSinkable|CapPushable|CapDraggable)
	half := GroundItemSize / 2
	s.Physics.AddObject(id, geom.Rect{X: pos.X - half, Y: pos.Y - half, W: GroundItemSize, H: GroundItemSize}, 1)
	return g
}

// SpawnShark adds a patrolling shark.
func (s *State) SpawnShark(pos geom.Vec) *Shark {
	id := s.ECS.CreateEntity()
	sh := &Shark{ID: id, Pos: pos, Speed: SharkPatrolSpeed, State: SharkPatrolling}
	sh.Waypoint = s.SeaWaypoint()
	s.Sharks.Set(id, sh)
	s.tag(id, KindShark, 0)
	return sh
}

// SeaWaypoint picks a random point inside the sea.
func (s *State) SeaWaypoint() geom.Vec {
	return s.Layout.Sea.RandomPoint(s.Rand.Float64(), s.Rand.Float64())
}

// SpawnProjectile fires an arrow or blowdart from the owner along angle.
func (s *State) SpawnProjectile(kind Kind, owner *Player, angle float64) *Projectile {
	id := s.ECS.CreateEntity()
	pr := &Projectile{
		ID:        id,
		Kind:      kind,
		Pos:       owner.Pos.Add(geom.FromAngle(angle, ArrowSpawnOffset)),
		Angle:     angle,
		Rotation:  angle,
		Owner:     owner.ID,
		SpawnedAt: s.Now,
	}
	s.Projectiles.Set(id, pr)
	s.tag(id, kind, 0)
	return pr
}

// SpawnBall fires a cannonball from pos with a px/tick velocity.
func (s *State) SpawnBall(owner ecs.EntityID, pos, vel geom.Vec) *Cannonball {
	id := s.ECS.CreateEntity()
	b := &Cannonball{ID: id, Owner: owner, Pos: pos, Vel: vel, ExpiresAt: s.Now + BallLifetime}
	s.Balls.Set(id, b)
	s.tag(id, KindCannonball, CapGrabbable|CapSinkable)
	s.Physics.AddBall(id, pos, BallRadius, vel)
	return b
}

// SpawnGrenade arms a grenade at pos.
func (s *State) SpawnGrenade(owner ecs.EntityID, pos geom.Vec) *Grenade {
	id := s.ECS.CreateEntity()
	g := &Grenade{ID: id, Owner: owner, Pos: pos, ExplodeAt: s.Now + GrenadeFuse}
	s.Grenades.Set(id, g)
	s.tag(id, KindGrenade, 0)
	return g
}

// SpawnHazard places a trap or mine.
func (s *State) SpawnHazard(kind Kind, owner ecs.EntityID, pos geom.Vec) *Hazard {
	id := s.ECS.CreateEntity()
	h := &Hazard{ID: id, Kind: kind, Owner: owner, Pos: pos, Radius: TrapRadius, ArmAt: s.Now, ExpiresAt: s.Now + HazardLifetime}
	if kind == KindMine {
		h.Radius = MineRadius
		h.ArmAt = s.Now + MineArmDelay
	}
	s.Hazards.Set(id, h)
	s.tag(id, kind, 0)
	return h
}

// PlacePortal adds a portal for owner. The oldest of the owner's portals is
// removed first so no owner ever has more than two.
func (s *State) PlacePortal(owner ecs.EntityID, pos geom.Vec) *Portal {
	mine := s.PortalsOf(owner)
	if len(mine) >= 2 {
		s.ECS.Destroy(mine[0].ID)
	}
	id := s.ECS.CreateEntity()
	s.portalSeq++
	pt := &Portal{ID: id, Owner: owner, Pos: pos, PlacedAt: s.Now, Seq: s.portalSeq}
	s.Portals.Set(id, pt)
	s.tag(id, KindPortal, 0)
	return pt
}

// PortalsOf returns the owner's portals, oldest first.
func (s *State) PortalsOf(owner ecs.EntityID) []*Portal {
	var out []*Portal
	s.Portals.Sorted(func(_ ecs.EntityID, pt *Portal) {
		if pt.Owner == owner {
			out = append(out, pt)
		}
	})
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Seq < out[j-1].Seq; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// SpawnDrone gives owner a drone hovering at their position.
func (s *State) SpawnDrone(owner *Player, ammo int) *Drone {
	if d := s.DroneOf(owner.ID); d != nil {
		return d
	}
	id := s.ECS.CreateEntity()
	d := &Drone{ID: id, Owner: owner.ID, Pos: owner.Pos, Ammo: ammo}
	s.Drones.Set(id, d)
	s.tag(id, KindDrone, 0)
	return d
}

// DroneOf returns the owner's drone, or nil.
func (s *State) DroneOf(owner ecs.EntityID) *Drone {
	var found *Drone
	s.Drones.Each(func(_ ecs.EntityID, d *Drone) {
		if d.Owner == owner {
			found = d
		}
	})
	return found
}

// PositionOf returns the world position of any positioned entity.
func (s *State) PositionOf(id ecs.EntityID) (geom.Vec, bool) {
	switch s.KindOf(id) {
	case KindPlayer:
		if p, ok := s.Players.Get(id); ok {
			return p.Pos, true
		}
	case KindFurniture:
		if o, ok := s.Objects.Get(id); ok {
			return o.Pos, true
		}
	case KindGroundItem:
		if g, ok := s.Ground.Get(id); ok {
			return g.Pos, true
		}
	case KindCannonball:
		if b, ok := s.Balls.Get(id); ok {
			return b.Pos, true
		}
	}
	return geom.Vec{}, false
}

// Nearest returns the closest live entity having every capability in caps
// within reach of pos.
func (s *State) Nearest(pos geom.Vec, caps Caps, reach float64, exclude ecs.EntityID) (ecs.EntityID, bool) {
	best := ecs.EntityID(0)
	bestDist := math.Inf(1)
	for _, id := range s.Tags.IDs() {
		t, _ := s.Tags.Get(id)
		if id == exclude || !t.Can(caps) || s.ECS.Pending(id) {
			continue
		}
		p, ok := s.PositionOf(id)
		if !ok {
			continue
		}
		if d := p.Dist(pos); d <= reach && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != 0
}

// NearestGroundItem returns the closest ground item within reach.
func (s *State) NearestGroundItem(pos geom.Vec, reach float64) *GroundItem {
	var best *GroundItem
	bestDist := math.Inf(1)
	s.Ground.Sorted(func(id ecs.EntityID, g *GroundItem) {
		if s.ECS.Pending(id) || g.Sink.Active() {
			return
		}
		if d := g.Pos.Dist(pos); d <= reach && d < bestDist {
			best, bestDist = g, d
		}
	})
	return best
}
