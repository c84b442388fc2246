package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type moveData struct {
	Keys uint8 `json:"keys"`
}

func TestDispatchDecodesData(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got moveData
	reg.Register("move", []SessionState{StateGuest}, func(_ any, r *Reader) {
		require.NoError(t, r.Decode(&got))
	})

	require.NoError(t, reg.Dispatch(nil, StateGuest, []byte(`{"type":"move","data":{"keys":5}}`)))
	assert.Equal(t, uint8(5), got.Keys)
}

func TestDispatchRejectsWrongState(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	called := false
	reg.Register("login", []SessionState{StateGuest}, func(any, *Reader) { called = true })

	err := reg.Dispatch(nil, StateAuthenticated, []byte(`{"type":"login"}`))
	assert.Error(t, err)
	assert.False(t, called)
}

func TestDispatchIgnoresUnknownType(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.NoError(t, reg.Dispatch(nil, StateGuest, []byte(`{"type":"nope"}`)))
}

func TestDispatchRejectsMalformedFrames(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.Error(t, reg.Dispatch(nil, StateGuest, []byte(`not json`)))
	assert.ErrorIs(t, reg.Dispatch(nil, StateGuest, []byte(`{"data":{}}`)), ErrNoType)
}

func TestDispatchRecoversPanics(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register("boom", []SessionState{StateGuest}, func(any, *Reader) {
		var m map[string]int
		m["x"] = 1
	})

	var err error
	assert.NotPanics(t, func() {
		err = reg.Dispatch(nil, StateGuest, []byte(`{"type":"boom"}`))
	})
	assert.Error(t, err)
}

func TestEncodeWrapsEnvelope(t *testing.T) {
	b, err := Encode(TypeChat, map[string]string{"text": "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","data":{"text":"hi"}}`, string(b))

	r, err := NewReader(b)
	require.NoError(t, err)
	assert.Equal(t, TypeChat, r.Type())
	var body map[string]string
	require.NoError(t, r.Decode(&body))
	assert.Equal(t, "hi", body["text"])
}
