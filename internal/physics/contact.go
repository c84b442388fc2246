package physics

import (
	"github.com/hvz-game/server/internal/core/ecs"
	"github.com/jakecoffman/cp"
)

// ContactKind separates the first frame of a contact from later frames.
type ContactKind int

const (
	ContactBegin ContactKind = iota
	ContactActive
)

// Pair names the two body kinds of a contact. A and B follow the order in
// the name (PairBallPlayer: A is the ball, B the player).
type Pair int

const (
	PairPlayerPlayer Pair = iota
	PairPlayerObject
	PairBallPlayer
	PairBallObject
)

func (p Pair) String() string {
	switch p {
	case PairPlayerPlayer:
		return "player-player"
	case PairPlayerObject:
		return "player-object"
	case PairBallPlayer:
		return "ball-player"
	case PairBallObject:
		return "ball-object"
	default:
		return "unknown"
	}
}

// Contact is one pairwise collision reported by Step.
type Contact struct {
	Kind ContactKind
	Pair Pair
	A    ecs.EntityID
	B    ecs.EntityID
}

type pairKey struct {
	a, b ecs.EntityID
}

func (e *Engine) installHandlers() {
	e.watch(collisionPlayer, collisionPlayer, PairPlayerPlayer)
	e.watch(collisionPlayer, collisionObject, PairPlayerObject)
	e.watch(collisionBall, collisionPlayer, PairBallPlayer)
	e.watch(collisionBall, collisionObject, PairBallObject)
}

func (e *Engine) watch(a, b cp.CollisionType, pair Pair) {
	h := e.space.NewCollisionHandler(a, b)
	h.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		e.record(arb, pair, ContactBegin)
		return true
	}
	h.PreSolveFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		e.record(arb, pair, ContactActive)
		return true
	}
}

// record runs inside space.Step and must not touch the space.
func (e *Engine) record(arb *cp.Arbiter, pair Pair, kind ContactKind) {
	ba, bb := arb.Bodies()
	ida, okA := ba.UserData.(ecs.EntityID)
	idb, okB := bb.UserData.(ecs.EntityID)
	if !okA || !okB {
		return
	}
	key := pairKey{a: ida, b: idb}
	if kind == ContactBegin {
		e.began[key] = struct{}{}
	} else if _, dup := e.began[key]; dup {
		return
	}
	e.contacts = append(e.contacts, Contact{Kind: kind, Pair: pair, A: ida, B: idb})
}
