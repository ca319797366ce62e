package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrEmptyType is returned when encoding an envelope without a type
var ErrEmptyType = errors.New("protocol: envelope type is empty")

// Encode marshals a typed JSON envelope
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, ErrEmptyType
	}
	b, err := json.Marshal(Envelope{T: t, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return b, nil
}

// EncodeState marshals a game state for a binary frame
func EncodeState(gs *GameState) ([]byte, error) {
	b, err := msgpack.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// DecodeState unmarshals a binary game state frame
func DecodeState(b []byte) (*GameState, error) {
	var gs GameState
	if err := msgpack.Unmarshal(b, &gs); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &gs, nil
}

// DecodeJoin reads a join payload. A missing or malformed payload yields an
// empty name.
func DecodeJoin(raw json.RawMessage) JoinMsg {
	var msg JoinMsg
	fields := decodeFields(raw)
	if v, ok := fields["name"]; ok {
		_ = json.Unmarshal(v, &msg.Name)
	}
	return msg
}

// DecodeInput reads an input payload field by field: a malformed field is
// dropped without discarding the others.
func DecodeInput(raw json.RawMessage) InputMsg {
	var msg InputMsg
	fields := decodeFields(raw)
	if v, ok := fields["angle"]; ok {
		var a float64
		if err := json.Unmarshal(v, &a); err == nil {
			msg.Angle = &a
		}
	}
	if v, ok := fields["boosting"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			msg.Boosting = &b
		}
	}
	return msg
}

func decodeFields(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}
