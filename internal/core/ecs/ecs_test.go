package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolNeverHandsOutZero(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	assert.False(t, id.IsZero())
	assert.True(t, p.Alive(id))
	assert.False(t, p.Alive(0))
}

func TestStaleIDAfterDestroy(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	p.Destroy(id)
	assert.False(t, p.Alive(id))

	reused := p.Create()
	assert.Equal(t, id.Index(), reused.Index())
	assert.NotEqual(t, id, reused)
	assert.True(t, p.Alive(reused))
	assert.False(t, p.Alive(id))
}

func TestFlushDestroysOnceAndRunsHooks(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[int]()
	w.Registry().Register(store)

	var destroyed []EntityID
	w.OnDestroy(func(id EntityID) { destroyed = append(destroyed, id) })

	id := w.CreateEntity()
	v := 7
	store.Set(id, &v)

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.True(t, w.Pending(id))
	assert.Equal(t, 1, w.FlushDestroyQueue())

	assert.Equal(t, []EntityID{id}, destroyed)
	assert.False(t, store.Has(id))
	assert.False(t, w.Alive(id))

	// marking a dead entity is a no-op
	w.MarkForDestruction(id)
	assert.Equal(t, 0, w.FlushDestroyQueue())
}

func TestResetInvalidatesLiveIDs(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[string]()
	w.Registry().Register(store)

	a := w.CreateEntity()
	b := w.CreateEntity()
	s := "x"
	store.Set(a, &s)

	w.Reset()

	assert.False(t, w.Alive(a))
	assert.False(t, w.Alive(b))
	assert.Zero(t, store.Len())

	c := w.CreateEntity()
	require.True(t, w.Alive(c))
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestSortedIteration(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[int]()
	var ids []EntityID
	for i := 0; i < 5; i++ {
		id := w.CreateEntity()
		v := i
		store.Set(id, &v)
		ids = append(ids, id)
	}
	var seen []EntityID
	store.Sorted(func(id EntityID, _ *int) {
		seen = append(seen, id)
		store.Remove(ids[4])
	})
	assert.Equal(t, ids[:4], seen)
}
