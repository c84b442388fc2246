package packet

import (
	"encoding/json"
	"fmt"
)

// Outbound message types.
const (
	TypeSnapshot      = "state"
	TypeChat          = "chat"
	TypeCommandResult = "commandResult"
	TypeAuthResult    = "authResult"
	TypeWelcome       = "welcome"
)

// Encode wraps v in an envelope of the given type.
func Encode(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("packet: encode %s: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Data: data})
}

// MustEncode is Encode for values that always marshal (plain structs).
func MustEncode(typ string, v any) []byte {
	b, err := Encode(typ, v)
	if err != nil {
		panic(err)
	}
	return b
}
