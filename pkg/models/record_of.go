package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// RecordKey is the wrapper key that marks an inline record on the wire.
const RecordKey = "Record"

// Of is a relationship value: either the id of a stored entity or a full
// entity that has not been stored yet.
type Of[T any] struct {
	id     ID
	record *T
}

// Ref returns a reference to an already stored entity.
func Ref[T any](id ID) Of[T] {
	return Of[T]{id: id}
}

// Inline returns a reference holding an entity to be created.
func Inline[T any](v T) Of[T] {
	return Of[T]{record: &v}
}

func (o Of[T]) IsID() bool { return o.record == nil }

func (o Of[T]) ID() (ID, bool) {
	if o.record != nil {
		return ID{}, false
	}
	return o.id, true
}

func (o Of[T]) Record() (*T, bool) {
	return o.record, o.record != nil
}

func (o Of[T]) String() string {
	if o.record != nil {
		return fmt.Sprintf("Record(%+v)", *o.record)
	}
	return "Id(" + o.id.String() + ")"
}

func (o Of[T]) MarshalJSON() ([]byte, error) {
	if o.record != nil {
		return json.Marshal(map[string]any{RecordKey: o.record})
	}
	return json.Marshal(o.id)
}

func (o *Of[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return err
		}
		raw, ok := wrapper[RecordKey]
		if !ok {
			return fmt.Errorf("record reference object must carry a %q key", RecordKey)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*o = Of[T]{record: &v}
		return nil
	}

	var id ID
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return err
	}
	*o = Of[T]{id: id}
	return nil
}

func (o Of[T]) MarshalCBOR() ([]byte, error) {
	if o.record != nil {
		return cbor.Marshal(map[string]any{RecordKey: o.record})
	}
	return o.id.MarshalCBOR()
}

func (o *Of[T]) UnmarshalCBOR(data []byte) error {
	if len(data) > 0 && data[0]>>5 == 5 {
		var wrapper map[string]cbor.RawMessage
		if err := cbor.Unmarshal(data, &wrapper); err != nil {
			return err
		}
		raw, ok := wrapper[RecordKey]
		if !ok {
			return fmt.Errorf("record reference map must carry a %q key", RecordKey)
		}
		var v T
		if err := cbor.Unmarshal(raw, &v); err != nil {
			return err
		}
		*o = Of[T]{record: &v}
		return nil
	}

	var id ID
	if err := id.UnmarshalCBOR(data); err != nil {
		return err
	}
	*o = Of[T]{id: id}
	return nil
}
