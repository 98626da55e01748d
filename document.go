package surrealcrud

import (
	"sort"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
)

// ref is a parsed ref field value: a stored id or an inline record.
type ref struct {
	id     models.ID
	record models.Document
}

func (r ref) inline() bool { return r.record != nil }

// parseID accepts record ids and their text form.
func parseID(ent *schema.Entity, f *schema.Field, v any) (models.ID, error) {
	if id, ok := models.FromRecordID(v); ok {
		return id, checkTarget(ent, f, id)
	}
	s, ok := v.(string)
	if !ok {
		return models.ID{}, &DocumentError{Table: ent.Table, Field: f.Name, Reason: "expected a record id"}
	}
	id, err := models.ParseID(s)
	if err != nil {
		return models.ID{}, &DocumentError{Table: ent.Table, Field: f.Name, Reason: err.Error()}
	}
	return id, checkTarget(ent, f, id)
}

func checkTarget(ent *schema.Entity, f *schema.Field, id models.ID) error {
	if f.Target != "" && id.Table != f.Target {
		return &DocumentError{Table: ent.Table, Field: f.Name, Reason: "expected a " + f.Target + " id, got " + id.String()}
	}
	return nil
}

// parseRef accepts an id, its text form, a models.Of[models.Document] or
// the wire form of an inline record, {"Record": {...}}.
func parseRef(ent *schema.Entity, f *schema.Field, v any) (ref, error) {
	switch x := v.(type) {
	case models.Of[models.Document]:
		if rec, ok := x.Record(); ok {
			return inlineRef(ent, f, *rec)
		}
		id, _ := x.ID()
		return ref{id: id}, checkTarget(ent, f, id)
	case models.Document:
		return parseWrapped(ent, f, x)
	case map[string]any:
		return parseWrapped(ent, f, x)
	}
	id, err := parseID(ent, f, v)
	return ref{id: id}, err
}

func parseWrapped(ent *schema.Entity, f *schema.Field, m map[string]any) (ref, error) {
	rec, ok := m[models.RecordKey]
	if !ok || len(m) != 1 {
		return ref{}, &DocumentError{Table: ent.Table, Field: f.Name, Reason: "inline records must be wrapped as {\"" + models.RecordKey + "\": {...}}"}
	}
	switch r := rec.(type) {
	case models.Document:
		return inlineRef(ent, f, r)
	case map[string]any:
		return inlineRef(ent, f, models.Document(r))
	}
	return ref{}, &DocumentError{Table: ent.Table, Field: f.Name, Reason: "inline record must be an object"}
}

func inlineRef(ent *schema.Entity, f *schema.Field, rec models.Document) (ref, error) {
	if rec == nil {
		rec = models.Document{}
	}
	if f.Kind != schema.Ref {
		return ref{}, &DocumentError{Table: ent.Table, Field: f.Name, Reason: "only ref fields may hold inline records"}
	}
	return ref{record: rec}, nil
}

// checkFields rejects fields the entity does not declare.
func checkFields(ent *schema.Entity, doc models.Document) error {
	for _, k := range sortedKeys(doc) {
		if k == schema.IDField {
			continue
		}
		if _, ok := ent.Field(k); !ok {
			return &DocumentError{Table: ent.Table, Field: k, Reason: "unknown field"}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
