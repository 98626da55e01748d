package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Registry is the validated set of entity types.
type Registry struct {
	entities map[string]*Entity
	order    []string
}

// NewRegistry validates entities and returns the registry. Every problem
// found is reported, joined into one error.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}

	var errs []error
	for i := range entities {
		e := entities[i].clone()
		if !identPattern.MatchString(e.Table) {
			errs = append(errs, &Error{Table: e.Table, Reason: "invalid table name"})
			continue
		}
		if _, dup := r.entities[e.Table]; dup {
			errs = append(errs, &Error{Table: e.Table, Reason: "declared twice"})
			continue
		}
		addOwnerField(e)
		r.entities[e.Table] = e
		r.order = append(r.order, e.Table)
	}

	for _, table := range r.order {
		errs = append(errs, r.check(r.entities[table])...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

func MustRegistry(entities ...Entity) *Registry {
	r, err := NewRegistry(entities...)
	if err != nil {
		panic(err)
	}
	return r
}

// addOwnerField declares user_id on entities that own rows directly and do
// not declare it themselves. A declared user_id link becomes the owner.
func addOwnerField(e *Entity) {
	direct := false
	for _, p := range e.Paths {
		if p == OwnerField {
			direct = true
		}
	}
	if !direct {
		return
	}
	if f, ok := e.Field(OwnerField); ok {
		if f.Kind == Link {
			f.Kind = Owner
			if f.Target == "" {
				f.Target = UserTable
			}
		}
		return
	}
	e.Fields = append(e.Fields, Field{
		Name:     OwnerField,
		Kind:     Owner,
		Target:   UserTable,
		Optional: true,
	})
}

func (r *Registry) check(e *Entity) []error {
	var errs []error
	fail := func(field, path, format string, args ...any) {
		errs = append(errs, &Error{Table: e.Table, Field: field, Path: path, Reason: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]bool, len(e.Fields))
	for i := range e.Fields {
		f := &e.Fields[i]
		switch {
		case !identPattern.MatchString(f.Name):
			fail(f.Name, "", "invalid field name")
			continue
		case f.Name == IDField:
			fail(f.Name, "", "id is reserved")
			continue
		case seen[f.Name]:
			fail(f.Name, "", "declared twice")
			continue
		}
		seen[f.Name] = true

		switch f.Kind {
		case Scalar:
			if f.Type == "" {
				f.Type = Any
			}
			if !f.Type.valid() {
				fail(f.Name, "", "unknown type %q", f.Type)
			}
		case Ref:
			if _, ok := r.entities[f.Target]; !ok {
				fail(f.Name, "", "ref target %q is not a registered entity", f.Target)
			}
		case Link:
			if f.Target != "" && f.Target != UserTable {
				if _, ok := r.entities[f.Target]; !ok {
					fail(f.Name, "", "link target %q is not a registered entity", f.Target)
				}
			}
		}

		f.validators = f.validators[:0]
		for _, spec := range f.Rules {
			v, err := validation.Compile(spec)
			if err != nil {
				fail(f.Name, "", "%v", err)
				continue
			}
			f.validators = append(f.validators, v)
		}
	}

	for _, p := range e.Paths {
		if err := r.walk(e, p); err != nil {
			fail("", p, "%v", err)
		}
	}

	for field, p := range e.Fkeys {
		if _, ok := e.Field(field); !ok {
			fail(field, p, "fkey field is not declared")
			continue
		}
		if !strings.HasPrefix(p, field+".") {
			fail(field, p, "fkey path must start with %s.", field)
			continue
		}
		if err := r.walk(e, p); err != nil {
			fail(field, p, "%v", err)
		}
	}

	if j := e.Junction; j != nil {
		if j.A == j.B {
			fail(j.A, "", "junction sides must differ")
		}
		for _, side := range []string{j.A, j.B} {
			f, ok := e.Field(side)
			if !ok {
				fail(side, "", "junction side is not declared")
				continue
			}
			if (f.Kind != Ref && f.Kind != Link) || f.Target == "" {
				fail(side, "", "junction side must be a ref or a typed link")
			}
		}
	}

	return errs
}

// walk follows path from e. Every hop must be a typed link into a registered
// entity and the last segment must be a field of the entity reached.
func (r *Registry) walk(from *Entity, path string) error {
	segments := strings.Split(path, ".")
	cur := from
	for i, seg := range segments {
		if !identPattern.MatchString(seg) {
			return fmt.Errorf("malformed segment %q", seg)
		}
		f, ok := cur.Field(seg)
		if !ok {
			return fmt.Errorf("%s has no field %s", cur.Table, seg)
		}
		if i == len(segments)-1 {
			return nil
		}
		if !f.IsLink() {
			return fmt.Errorf("%s.%s is not a link and cannot be followed", cur.Table, seg)
		}
		next, ok := r.entities[f.Target]
		if !ok {
			return fmt.Errorf("%s.%s points to %q which is not a registered entity", cur.Table, seg, f.Target)
		}
		cur = next
	}
	return nil
}

func (r *Registry) Entity(table string) (*Entity, bool) {
	e, ok := r.entities[table]
	return e, ok
}

// Paths returns the ownership paths of table, in declaration order.
func (r *Registry) Paths(table string) ([]string, bool) {
	e, ok := r.entities[table]
	if !ok {
		return nil, false
	}
	return e.Paths, true
}

// FkeyPath returns the ownership path used to check rows of table selected
// by field.
func (r *Registry) FkeyPath(table, field string) (string, bool) {
	e, ok := r.entities[table]
	if !ok {
		return "", false
	}
	p, ok := e.FkeyPaths()[field]
	return p, ok
}

// Tables lists the registered tables in declaration order.
func (r *Registry) Tables() []string {
	return append([]string(nil), r.order...)
}

// Entities returns the registered entities in declaration order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, len(r.order))
	for i, t := range r.order {
		out[i] = r.entities[t]
	}
	return out
}
