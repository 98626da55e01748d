// Package schema describes entity types: their table, fields and ownership
// paths. A Registry is built once at startup, validated eagerly, and only
// read afterwards.
package schema

import (
	"strings"
	"time"

	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

const (
	// OwnerField is the field that holds the owning user on directly owned
	// entities.
	OwnerField = "user_id"

	// UserTable is the table owner ids point into.
	UserTable = "user"

	// IDField is reserved for the record id.
	IDField = "id"
)

// Kind classifies a field.
type Kind int

const (
	// Scalar holds a plain value.
	Scalar Kind = iota
	// Ref holds a record reference that may carry an inline record.
	Ref
	// Link holds a record id only.
	Link
	// Owner is the implicit user_id link of directly owned entities.
	Owner
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Ref:
		return "ref"
	case Link:
		return "link"
	case Owner:
		return "owner"
	}
	return "unknown"
}

// ScalarType is the declared type of a scalar field.
type ScalarType string

const (
	String   ScalarType = "string"
	Number   ScalarType = "number"
	Bool     ScalarType = "bool"
	Datetime ScalarType = "datetime"
	Any      ScalarType = "any"
)

func (t ScalarType) valid() bool {
	switch t {
	case String, Number, Bool, Datetime, Any:
		return true
	}
	return false
}

type Field struct {
	Name     string
	Kind     Kind
	Type     ScalarType
	Target   string
	Optional bool
	Rules    []validation.Spec

	validators []validation.Validator
}

// IsLink reports whether the field holds a record id (ref, link or owner).
func (f *Field) IsLink() bool { return f.Kind != Scalar }

// Validators returns the compiled rules. Only fields of entities obtained
// from a Registry have them.
func (f *Field) Validators() []validation.Validator { return f.validators }

// Junction names the two fields of a many-to-many junction entity.
type Junction struct {
	A string
	B string
}

// Other returns the side opposite to field, or false when field is not a
// side of the junction.
func (j *Junction) Other(field string) (string, bool) {
	switch field {
	case j.A:
		return j.B, true
	case j.B:
		return j.A, true
	}
	return "", false
}

type Entity struct {
	Table    string
	Fields   []Field
	Paths    []string
	Fkeys    map[string]string
	Junction *Junction
}

func (e *Entity) Field(name string) (*Field, bool) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// Owned reports whether the entity is tenant scoped. Entities without paths
// are global reference data.
func (e *Entity) Owned() bool { return len(e.Paths) > 0 }

// DirectlyOwned reports whether the first path is the entity's own owner
// field, in which case writes carry the requesting user.
func (e *Entity) DirectlyOwned() bool {
	return len(e.Paths) > 0 && e.Paths[0] == OwnerField
}

// FkeyPaths maps a field to the ownership path that starts at it. Paths are
// keyed by their first segment, the first declared path wins, and explicit
// overrides replace derived entries.
func (e *Entity) FkeyPaths() map[string]string {
	m := make(map[string]string, len(e.Paths)+len(e.Fkeys))
	for _, p := range e.Paths {
		head, _, _ := strings.Cut(p, ".")
		if _, seen := m[head]; !seen {
			m[head] = p
		}
	}
	for k, v := range e.Fkeys {
		m[k] = v
	}
	return m
}

func (e *Entity) clone() *Entity {
	c := *e
	c.Fields = make([]Field, len(e.Fields))
	for i, f := range e.Fields {
		f.Rules = append([]validation.Spec(nil), f.Rules...)
		c.Fields[i] = f
	}
	c.Paths = append([]string(nil), e.Paths...)
	if e.Fkeys != nil {
		c.Fkeys = make(map[string]string, len(e.Fkeys))
		for k, v := range e.Fkeys {
			c.Fkeys[k] = v
		}
	}
	if e.Junction != nil {
		j := *e.Junction
		c.Junction = &j
	}
	return &c
}

// Tabler is implemented by Go entity types to name their table.
type Tabler interface {
	TableName() string
}

// Accepts reports whether v is a value of type t. Datetimes are RFC 3339
// strings or time.Time values.
func (t ScalarType) Accepts(v any) bool {
	switch t {
	case String:
		_, ok := v.(string)
		return ok
	case Number:
		switch v.(type) {
		case int, int32, int64, uint64, float32, float64:
			return true
		}
		return false
	case Bool:
		_, ok := v.(bool)
		return ok
	case Datetime:
		switch x := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339Nano, x)
			return err == nil
		}
		return false
	}
	return true
}
