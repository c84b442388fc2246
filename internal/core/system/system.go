package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain intent queues
	PhasePreUpdate               // 1: fire due timers, turn input into velocities
	PhasePhysics                 // 2: step the rigid-body world, sync transforms
	PhaseUpdate                  // 3: entity subsystems, then collision reactions
	PhasePostUpdate              // 4: hitboxes, cosmetics
	PhaseOutput                  // 5: build + send snapshot
	PhaseCleanup                 // 6: destroy queued entities
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
