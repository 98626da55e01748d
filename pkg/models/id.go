package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// TagRecordID is the CBOR tag SurrealDB uses for record ids.
const TagRecordID = 8

// ID identifies one stored row. The zero value is the absent id.
type ID struct {
	Table string
	Key   string
}

func NewID(table, key string) ID {
	return ID{Table: table, Key: key}
}

// NewRandomID returns an id in table with a random UUID key.
func NewRandomID(table string) ID {
	return ID{Table: table, Key: uuid.NewString()}
}

// ParseID parses the "table:key" form. Keys wrapped in ⟨⟩ or backticks,
// as SurrealDB prints complex keys, are unwrapped.
func ParseID(s string) (ID, error) {
	table, key, ok := strings.Cut(s, ":")
	if !ok || table == "" || key == "" {
		return ID{}, fmt.Errorf("invalid record id %q: expected table:key", s)
	}
	switch {
	case strings.HasPrefix(key, "⟨") && strings.HasSuffix(key, "⟩"):
		key = strings.TrimSuffix(strings.TrimPrefix(key, "⟨"), "⟩")
	case len(key) > 1 && key[0] == '`' && key[len(key)-1] == '`':
		key = key[1 : len(key)-1]
	}
	if key == "" {
		return ID{}, fmt.Errorf("invalid record id %q: empty key", s)
	}
	return ID{Table: table, Key: key}, nil
}

func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.Table + ":" + id.Key
}

func (id ID) IsZero() bool { return id.Table == "" && id.Key == "" }

// RecordID converts to the SDK's record id.
func (id ID) RecordID() surrealmodels.RecordID {
	return surrealmodels.NewRecordID(id.Table, id.Key)
}

// FromRecordID converts SDK record ids (by value or pointer) to an ID.
// Non-string keys are rendered with their default format.
func FromRecordID(v any) (ID, bool) {
	switch rid := v.(type) {
	case surrealmodels.RecordID:
		return ID{Table: rid.Table, Key: keyString(rid.ID)}, true
	case *surrealmodels.RecordID:
		if rid == nil {
			return ID{}, false
		}
		return ID{Table: rid.Table, Key: keyString(rid.ID)}, true
	case ID:
		return rid, true
	case *ID:
		if rid == nil {
			return ID{}, false
		}
		return *rid, true
	}
	return ID{}, false
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("record id must be a string: %w", err)
	}
	return id.UnmarshalText([]byte(s))
}

func (id ID) MarshalCBOR() ([]byte, error) {
	if id.IsZero() {
		return cbor.Marshal(nil)
	}
	return cbor.Marshal(cbor.Tag{
		Number:  TagRecordID,
		Content: []any{id.Table, id.Key},
	})
}

func (id *ID) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}
	if data[0] == 0xf6 || data[0] == 0xf7 {
		*id = ID{}
		return nil
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}
	if tag.Number != TagRecordID {
		return fmt.Errorf("expected record id tag (%d), got %d", TagRecordID, tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid record id: expected [table, id] array")
	}
	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid record id: table name must be string")
	}

	*id = ID{Table: table, Key: keyString(arr[1])}
	return nil
}
