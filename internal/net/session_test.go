package net

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hvz-game/server/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu      sync.Mutex
	in      chan []byte
	written [][]byte
	closed  bool
}

func newFakeConn() *fakeConn { return &fakeConn{in: make(chan []byte, 8)} }

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	b, ok := <-c.in
	if !ok {
		return 0, nil, errors.New("closed")
	}
	return 1, b, nil
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadLimit(int64)               {}
func (c *fakeConn) RemoteAddr() net.Addr              { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9} }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.in)
	}
	return nil
}

func (c *fakeConn) writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

func TestSessionRoundTrip(t *testing.T) {
	conn := newFakeConn()
	s := NewSession(conn, 7, 4, 4, time.Second, zap.NewNop())
	s.Start(0)
	assert.Equal(t, "127.0.0.1:9", s.IP)

	conn.in <- []byte(`{"type":"move"}`)
	select {
	case got := <-s.InQueue:
		assert.Equal(t, `{"type":"move"}`, string(got))
	case <-time.After(time.Second):
		t.Fatal("no frame")
	}

	s.Send([]byte("a"))
	s.Send([]byte("b"))
	s.FlushOutput()
	assert.Empty(t, s.Pending())
	require.Eventually(t, func() bool { return conn.writes() == 2 }, time.Second, 5*time.Millisecond)

	s.Close()
	assert.True(t, s.IsClosed())
	assert.Equal(t, packet.StateDisconnecting, s.State())
	s.Send([]byte("late"))
	assert.Empty(t, s.Pending())
}

func TestDetachedSessionKeepsOutput(t *testing.T) {
	s := NewSession(nil, 1, 1, 1, 0, zap.NewNop())
	s.SendMsg(packet.TypeChat, map[string]string{"text": "x"})
	s.FlushOutput()
	require.Len(t, s.Pending(), 1)
	s.Close()
}

func TestSessionStoreOrder(t *testing.T) {
	st := NewSessionStore()
	for _, id := range []uint64{3, 1, 2} {
		st.Add(NewSession(nil, id, 1, 1, 0, zap.NewNop()))
	}
	var seen []uint64
	st.ForEach(func(s *Session) { seen = append(seen, s.ID) })
	assert.Equal(t, []uint64{1, 2, 3}, seen)
	st.Remove(2)
	assert.Nil(t, st.Get(2))
	assert.Equal(t, 2, st.Count())
}
