package models

import (
	"encoding/json"
	"fmt"
)

// WithID pairs an entity with its record id. On the wire the entity fields
// sit next to "id".
type WithID[T any] struct {
	ID   ID
	Data T
}

func (w WithID[T]) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(w.Data)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("entity must encode as an object: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	idRaw, err := json.Marshal(w.ID)
	if err != nil {
		return nil, err
	}
	fields["id"] = idRaw
	return json.Marshal(fields)
}

func (w *WithID[T]) UnmarshalJSON(data []byte) error {
	var head struct {
		ID ID `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	w.ID = head.ID
	w.Data = v
	return nil
}
