package packet

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoType is returned for envelopes without a type field.
var ErrNoType = errors.New("packet: missing type")

// Envelope is the wire frame in both directions: {"type": ..., "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reader gives handlers typed access to one inbound message.
type Reader struct {
	env Envelope
	raw []byte
}

// NewReader parses the envelope of a text frame.
func NewReader(data []byte) (*Reader, error) {
	r := &Reader{raw: data}
	if err := json.Unmarshal(data, &r.env); err != nil {
		return nil, fmt.Errorf("packet: decode envelope: %w", err)
	}
	if r.env.Type == "" {
		return nil, ErrNoType
	}
	return r, nil
}

// Type returns the intent type.
func (r *Reader) Type() string { return r.env.Type }

// Raw returns the full frame as received.
func (r *Reader) Raw() []byte { return r.raw }

// Decode unmarshals the data field into v. An absent data field leaves v
// untouched.
func (r *Reader) Decode(v any) error {
	if len(r.env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.env.Data, v)
}
