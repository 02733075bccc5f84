package users

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingType is returned when an action envelope has no type.
var ErrMissingType = errors.New("action type is required")

type traverseData struct {
	Page int `json:"page" yaml:"page"`
}

type filterData struct {
	Filter *Filter `json:"filter" yaml:"filter"`
}

type syncData struct {
	Users []User `json:"users" yaml:"users"`
	Count int    `json:"count" yaml:"count"`
}

// Envelope is the wire form of an [Action]: a type name plus a data object.
//
// Envelope implements the JSON and YAML (un)marshaler interfaces. Payload
// fields are not validated; missing fields decode to zero values. An unknown
// type decodes to [UnknownAction].
type Envelope struct {
	Action Action
}

// DecodeJSON decodes a single JSON action envelope.
func DecodeJSON(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Action, nil
}

// EncodeJSON encodes an action as a JSON envelope.
func EncodeJSON(a Action) ([]byte, error) {
	return json.Marshal(Envelope{Action: a})
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Action == nil {
		return nil, ErrMissingType
	}
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		Data any        `json:"data,omitempty"`
	}{e.Action.ActionType(), payloadOf(e.Action)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type ActionType      `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("failed to parse action: %w", err)
	}

	a, err := decodeAction(raw.Type, func(v any) error {
		if len(raw.Data) == 0 {
			return nil
		}
		return json.Unmarshal(raw.Data, v)
	})
	if err != nil {
		return err
	}
	e.Action = a
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e Envelope) MarshalYAML() (any, error) {
	if e.Action == nil {
		return nil, ErrMissingType
	}
	return struct {
		Type ActionType `yaml:"type"`
		Data any        `yaml:"data,omitempty"`
	}{e.Action.ActionType(), payloadOf(e.Action)}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Envelope) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("action must be a mapping, got line %d", node.Line)
	}

	var raw struct {
		Type ActionType `yaml:"type"`
		Data yaml.Node  `yaml:"data"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	a, err := decodeAction(raw.Type, func(v any) error {
		if raw.Data.Kind == 0 {
			return nil
		}
		return raw.Data.Decode(v)
	})
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	e.Action = a
	return nil
}

// decodeAction builds the typed action for t, reading the payload through
// decodeData.
func decodeAction(t ActionType, decodeData func(any) error) (Action, error) {
	switch t {
	case "":
		return nil, ErrMissingType
	case TypeTraverse:
		var d traverseData
		if err := decodeData(&d); err != nil {
			return nil, fmt.Errorf("%s: invalid data: %w", t, err)
		}
		return TraverseAction{Page: d.Page}, nil
	case TypeFilter:
		var d filterData
		if err := decodeData(&d); err != nil {
			return nil, fmt.Errorf("%s: invalid data: %w", t, err)
		}
		return FilterAction{Filter: d.Filter}, nil
	case TypeSync:
		var d syncData
		if err := decodeData(&d); err != nil {
			return nil, fmt.Errorf("%s: invalid data: %w", t, err)
		}
		return SyncAction{Users: d.Users, Count: d.Count}, nil
	default:
		return UnknownAction{Type: t}, nil
	}
}

// payloadOf returns the data object for a known action, or nil.
func payloadOf(a Action) any {
	switch v := a.(type) {
	case TraverseAction:
		return traverseData{Page: v.Page}
	case FilterAction:
		return filterData{Filter: v.Filter}
	case SyncAction:
		return syncData{Users: v.Users, Count: v.Count}
	default:
		return nil
	}
}
