// Package physics adapts the Chipmunk2D port to the simulation. Gameplay code
// talks in entity IDs and px/tick velocities; the engine converts to the
// space's px/s units and reports contacts as plain values.
package physics

import (
	"math"

	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/hvz-game/server/internal/geom"
	"github.com/jakecoffman/cp"
)

// Category is a collision filter bit.
type Category uint

const (
	CategoryPlayer Category = 1 << iota
	CategoryWall
	CategoryObject
	CategoryProjectile
)

const (
	maskPlayer     = CategoryPlayer | CategoryWall | CategoryObject | CategoryProjectile
	maskObject     = CategoryPlayer | CategoryWall | CategoryObject | CategoryProjectile
	maskProjectile = CategoryPlayer | CategoryWall | CategoryObject
	maskWall       = CategoryPlayer | CategoryObject | CategoryProjectile
)

const (
	collisionPlayer cp.CollisionType = iota + 1
	collisionWall
	collisionObject
	collisionBall
)

const (
	boundsThickness = 200
	spaceDamping    = 0.1 // fraction of velocity kept after one second
)

type bodyRef struct {
	body       *cp.Body
	shape      *cp.Shape
	cat        Category
	mask       Category
	collidable bool
}

// Engine owns the rigid-body space. Single-goroutine access only (game loop).
type Engine struct {
	space    *cp.Space
	hz       float64
	width    float64
	height   float64
	bodies   map[ecs.EntityID]*bodyRef
	contacts []Contact
	began    map[pairKey]struct{}
}

// New creates an engine for a width×height world stepping at hz.
func New(width, height, hz float64) *Engine {
	if hz <= 0 {
		hz = 60
	}
	e := &Engine{hz: hz}
	e.Reset(width, height)
	return e
}

// Reset discards every body and starts a fresh space.
func (e *Engine) Reset(width, height float64) {
	e.width, e.height = width, height
	e.space = cp.NewSpace()
	e.space.SetGravity(cp.Vector{})
	e.space.SetDamping(spaceDamping)
	e.bodies = make(map[ecs.EntityID]*bodyRef, 64)
	e.contacts = e.contacts[:0]
	e.began = make(map[pairKey]struct{}, 16)
	e.installHandlers()
	e.addBounds()
}

// Center is the safe position for corrupted bodies.
func (e *Engine) Center() geom.Vec {
	return geom.Vec{X: e.width / 2, Y: e.height / 2}
}

func (e *Engine) addBounds() {
	t := float64(boundsThickness)
	e.addStaticBox(geom.Rect{X: -t, Y: -t, W: e.width + 2*t, H: t})
	e.addStaticBox(geom.Rect{X: -t, Y: e.height, W: e.width + 2*t, H: t})
	e.addStaticBox(geom.Rect{X: -t, Y: 0, W: t, H: e.height})
	e.addStaticBox(geom.Rect{X: e.width, Y: 0, W: t, H: e.height})
}

// AddWall adds an immovable rectangle.
func (e *Engine) AddWall(r geom.Rect) {
	e.addStaticBox(r)
}

func (e *Engine) addStaticBox(r geom.Rect) {
	bb := cp.BB{L: r.X, B: r.Y, R: r.X + r.W, T: r.Y + r.H}
	shape := e.space.AddShape(cp.NewBox2(e.space.StaticBody, bb, 0))
	shape.SetFriction(0.5)
	shape.SetElasticity(0)
	shape.SetCollisionType(collisionWall)
	shape.SetFilter(cp.NewShapeFilter(0, uint(CategoryWall), uint(maskWall)))
}

// AddPlayer attaches a circle body for a player. Players never rotate.
func (e *Engine) AddPlayer(id ecs.EntityID, pos geom.Vec, radius float64) {
	body := e.space.AddBody(cp.NewBody(1, math.Inf(1)))
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	body.UserData = id
	shape := e.space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))
	shape.SetFriction(0)
	shape.SetElasticity(0)
	shape.SetCollisionType(collisionPlayer)
	ref := &bodyRef{body: body, shape: shape, cat: CategoryPlayer, mask: maskPlayer, collidable: true}
	e.applyFilter(ref)
	e.bodies[id] = ref
}

// RecreatePlayer swaps a player's circle for one of a new radius. The old
// body is detached and the new one keeps its position, velocity and
// collidable flag.
func (e *Engine) RecreatePlayer(id ecs.EntityID, radius float64) {
	ref, ok := e.bodies[id]
	if !ok {
		return
	}
	pos := ref.body.Position()
	vel := ref.body.Velocity()
	collidable := ref.collidable
	e.Remove(id)
	e.AddPlayer(id, geom.Vec{X: pos.X, Y: pos.Y}, radius)
	nref := e.bodies[id]
	nref.body.SetVelocity(vel.X, vel.Y)
	nref.collidable = collidable
	e.applyFilter(nref)
}

// AddObject attaches a movable box (furniture, ground items).
func (e *Engine) AddObject(id ecs.EntityID, r geom.Rect, mass float64) {
	if mass <= 0 {
		mass = 1
	}
	body := e.space.AddBody(cp.NewBody(mass, cp.MomentForBox(mass, r.W, r.H)))
	c := r.Center()
	body.SetPosition(cp.Vector{X: c.X, Y: c.Y})
	body.UserData = id
	shape := e.space.AddShape(cp.NewBox(body, r.W, r.H, 0))
	shape.SetFriction(0.6)
	shape.SetElasticity(0.1)
	shape.SetCollisionType(collisionObject)
	ref := &bodyRef{body: body, shape: shape, cat: CategoryObject, mask: maskObject, collidable: true}
	e.applyFilter(ref)
	e.bodies[id] = ref
}

// AddBall attaches a cannonball with an initial px/tick velocity.
func (e *Engine) AddBall(id ecs.EntityID, pos geom.Vec, radius float64, vel geom.Vec) {
	const mass = 4
	body := e.space.AddBody(cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{})))
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	body.SetVelocity(vel.X*e.hz, vel.Y*e.hz)
	body.UserData = id
	shape := e.space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))
	shape.SetFriction(0.2)
	shape.SetElasticity(0.5)
	shape.SetCollisionType(collisionBall)
	ref := &bodyRef{body: body, shape: shape, cat: CategoryProjectile, mask: maskProjectile, collidable: true}
	e.applyFilter(ref)
	e.bodies[id] = ref
}

// Remove detaches the entity's body. Unknown IDs are ignored.
func (e *Engine) Remove(id ecs.EntityID) {
	ref, ok := e.bodies[id]
	if !ok {
		return
	}
	e.space.RemoveShape(ref.shape)
	e.space.RemoveBody(ref.body)
	delete(e.bodies, id)
}

func (e *Engine) Has(id ecs.EntityID) bool {
	_, ok := e.bodies[id]
	return ok
}

// BodyCount returns the number of attached dynamic bodies.
func (e *Engine) BodyCount() int { return len(e.bodies) }

// SetCollidable turns contact resolution on or off for one body.
func (e *Engine) SetCollidable(id ecs.EntityID, on bool) {
	if ref, ok := e.bodies[id]; ok && ref.collidable != on {
		ref.collidable = on
		e.applyFilter(ref)
	}
}

func (e *Engine) applyFilter(ref *bodyRef) {
	mask := ref.mask
	if !ref.collidable {
		mask = 0
	}
	ref.shape.SetFilter(cp.NewShapeFilter(0, uint(ref.cat), uint(mask)))
}

// Position returns the body center.
func (e *Engine) Position(id ecs.EntityID) (geom.Vec, bool) {
	ref, ok := e.bodies[id]
	if !ok {
		return geom.Vec{}, false
	}
	p := ref.body.Position()
	return geom.Vec{X: p.X, Y: p.Y}, true
}

func (e *Engine) SetPosition(id ecs.EntityID, pos geom.Vec) {
	if ref, ok := e.bodies[id]; ok {
		ref.body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	}
}

// Velocity returns the body velocity in px/tick.
func (e *Engine) Velocity(id ecs.EntityID) geom.Vec {
	ref, ok := e.bodies[id]
	if !ok {
		return geom.Vec{}
	}
	v := ref.body.Velocity()
	return geom.Vec{X: v.X / e.hz, Y: v.Y / e.hz}
}

// SetVelocity sets the body velocity from px/tick.
func (e *Engine) SetVelocity(id ecs.EntityID, v geom.Vec) {
	if ref, ok := e.bodies[id]; ok {
		ref.body.SetVelocity(v.X*e.hz, v.Y*e.hz)
	}
}

// Push changes velocity by force/mass (px/tick).
func (e *Engine) Push(id ecs.EntityID, force geom.Vec) {
	ref, ok := e.bodies[id]
	if !ok {
		return
	}
	m := ref.body.Mass()
	if m <= 0 || math.IsInf(m, 0) {
		return
	}
	v := ref.body.Velocity()
	ref.body.SetVelocity(v.X+force.X/m*e.hz, v.Y+force.Y/m*e.hz)
}

// Angle returns the body rotation in radians.
func (e *Engine) Angle(id ecs.EntityID) float64 {
	if ref, ok := e.bodies[id]; ok {
		return ref.body.Angle()
	}
	return 0
}

// AddSpin adds angular velocity in rad/tick.
func (e *Engine) AddSpin(id ecs.EntityID, delta float64) {
	if ref, ok := e.bodies[id]; ok {
		ref.body.SetAngularVelocity(ref.body.AngularVelocity() + delta*e.hz)
	}
}

// Step advances the space by one tick and returns the contacts it produced.
// The returned slice is reused by the next Step.
func (e *Engine) Step() []Contact {
	e.contacts = e.contacts[:0]
	clear(e.began)
	e.space.Step(1 / e.hz)
	e.sanitize()
	return e.contacts
}

// sanitize puts bodies with non-finite state back at the world center.
func (e *Engine) sanitize() {
	center := e.Center()
	for _, ref := range e.bodies {
		p := ref.body.Position()
		v := ref.body.Velocity()
		if finite(p.X) && finite(p.Y) && finite(v.X) && finite(v.Y) {
			continue
		}
		ref.body.SetPosition(cp.Vector{X: center.X, Y: center.Y})
		ref.body.SetVelocity(0, 0)
		ref.body.SetAngularVelocity(0)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
