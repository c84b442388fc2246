package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsAreDeliveredOnTheNextTick(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(a Announcement) { got = append(got, a.Text) })

	Emit(b, Announcement{Text: "humans survived"})
	b.DispatchAll()
	assert.Empty(t, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"humans survived"}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1)
}

func TestDispatchKeepsEmissionOrderAcrossTypes(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(a Announcement) { got = append(got, "server:"+a.Text) })
	Subscribe(b, func(c ChatPosted) { got = append(got, c.From+":"+c.Text) })

	Emit(b, ChatPosted{From: "ann", Text: "hi"})
	Emit(b, Announcement{Text: "round started"})
	Emit(b, ChatPosted{From: "bob", Text: "run"})
	Emit(b, Announcement{Text: "bob was infected"})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, []string{"ann:hi", "server:round started", "bob:run", "server:bob was infected"}, got)
}
