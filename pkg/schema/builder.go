package schema

import (
	"errors"
	"fmt"

	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// EntityBuilder declares an entity in code.
//
//	tags := schema.NewEntity("tags").
//		OwnedBy("user_id", "metadata_id.user_id").
//		Ref("metadata_id", "metadata").
//		Scalar("title", schema.String, "not_empty").
//		MustBuild()
type EntityBuilder struct {
	e    Entity
	errs []error
}

func NewEntity(table string) *EntityBuilder {
	return &EntityBuilder{e: Entity{Table: table}}
}

func (b *EntityBuilder) OwnedBy(paths ...string) *EntityBuilder {
	b.e.Paths = append(b.e.Paths, paths...)
	return b
}

func (b *EntityBuilder) Scalar(name string, typ ScalarType, rules ...string) *EntityBuilder {
	return b.add(Field{Name: name, Kind: Scalar, Type: typ}, rules)
}

func (b *EntityBuilder) Ref(name, target string, rules ...string) *EntityBuilder {
	return b.add(Field{Name: name, Kind: Ref, Target: target}, rules)
}

// Link declares a field holding a bare record id. target may be empty for
// links that paths never follow.
func (b *EntityBuilder) Link(name, target string, rules ...string) *EntityBuilder {
	return b.add(Field{Name: name, Kind: Link, Target: target}, rules)
}

// Optional marks the last declared field optional.
func (b *EntityBuilder) Optional() *EntityBuilder {
	if n := len(b.e.Fields); n > 0 {
		b.e.Fields[n-1].Optional = true
	} else {
		b.errs = append(b.errs, fmt.Errorf("Optional called before any field"))
	}
	return b
}

// Fkey overrides the ownership path used when rows are selected by field.
func (b *EntityBuilder) Fkey(field, path string) *EntityBuilder {
	if b.e.Fkeys == nil {
		b.e.Fkeys = map[string]string{}
	}
	b.e.Fkeys[field] = path
	return b
}

// Junction marks the entity as the junction between the a and b fields.
func (b *EntityBuilder) Junction(a, bField string) *EntityBuilder {
	b.e.Junction = &Junction{A: a, B: bField}
	return b
}

func (b *EntityBuilder) add(f Field, rules []string) *EntityBuilder {
	for _, r := range rules {
		specs, err := validation.SplitSpecs(r)
		if err != nil {
			b.errs = append(b.errs, &Error{Table: b.e.Table, Field: f.Name, Reason: err.Error()})
			continue
		}
		f.Rules = append(f.Rules, specs...)
	}
	b.e.Fields = append(b.e.Fields, f)
	return b
}

// Build returns the declared entity. Cross-entity checks happen in
// NewRegistry.
func (b *EntityBuilder) Build() (Entity, error) {
	if len(b.errs) > 0 {
		return Entity{}, errors.Join(b.errs...)
	}
	return *b.e.clone(), nil
}

func (b *EntityBuilder) MustBuild() Entity {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}
