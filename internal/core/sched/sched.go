// Package sched replaces fire-and-forget timers with a deadline table that
// the game loop drains once per tick.
package sched

import (
	"container/heap"

	"github.com/hvz-game/server/internal/core/ecs"
)

// Task is a one-shot effect bound to the entity it mutates.
type Task struct {
	At     int64 // unix ms deadline
	Target ecs.EntityID
	Name   string
	Fn     func()
	seq    uint64
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].At != h[j].At {
		return h[i].At < h[j].At
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler is a min-heap of tasks ordered by deadline, then insertion.
// Single-goroutine access only (game loop).
type Scheduler struct {
	tasks taskHeap
	seq   uint64
	alive func(ecs.EntityID) bool
}

// New returns a scheduler that drops tasks whose target is no longer alive.
func New(alive func(ecs.EntityID) bool) *Scheduler {
	return &Scheduler{alive: alive}
}

// At schedules fn to run on the first RunDue call with now >= at.
// A zero target means the task is not bound to an entity.
func (s *Scheduler) At(at int64, target ecs.EntityID, name string, fn func()) {
	s.seq++
	heap.Push(&s.tasks, &Task{At: at, Target: target, Name: name, Fn: fn, seq: s.seq})
}

// RunDue runs every task due at now and returns how many ran. Tasks whose
// target vanished are discarded without running.
func (s *Scheduler) RunDue(now int64) int {
	ran := 0
	for len(s.tasks) > 0 && s.tasks[0].At <= now {
		t := heap.Pop(&s.tasks).(*Task)
		if !t.Target.IsZero() && s.alive != nil && !s.alive(t.Target) {
			continue
		}
		t.Fn()
		ran++
	}
	return ran
}

// Cancel drops pending tasks with the given target and name.
func (s *Scheduler) Cancel(target ecs.EntityID, name string) {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Target == target && t.Name == name {
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = kept
	heap.Init(&s.tasks)
}

func (s *Scheduler) Len() int { return len(s.tasks) }

// Clear drops every pending task (round reset).
func (s *Scheduler) Clear() {
	s.tasks = s.tasks[:0]
}
