package surrealcrud

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// Validate checks doc against table without writing. Scalar fields run
// their validators, inline records are validated recursively and nested in
// the report, and stored ids are not validated again. The error is non-nil
// only when doc does not fit the schema.
func (e *Engine) Validate(table string, doc models.Document) (*validation.Report, error) {
	tq, err := e.table(table)
	if err != nil {
		return nil, err
	}
	return e.validate(tq.entity, doc)
}

func (e *Engine) validate(ent *schema.Entity, doc models.Document) (*validation.Report, error) {
	if err := checkFields(ent, doc); err != nil {
		return nil, err
	}

	rep := validation.NewReport()
	for i := range ent.Fields {
		f := &ent.Fields[i]
		v, present := doc[f.Name]
		if f.Kind == schema.Owner {
			continue
		}
		if !present || v == nil {
			if !f.Optional {
				rep.Add(f.Name, validation.Error{Code: validation.ValueIsNone})
			}
			continue
		}

		in := validation.Input{Value: v, Present: true, Doc: doc}
		switch f.Kind {
		case schema.Scalar:
			if !f.Type.Accepts(v) {
				rep.Add(f.Name, validation.Error{Code: validation.TypeMismatch, Arg: string(f.Type)})
				continue
			}
			rep.Add(f.Name, validation.Run(in, f.Validators()...)...)

		case schema.Link:
			if _, err := parseID(ent, f, v); err != nil {
				return nil, err
			}
			rep.Add(f.Name, validation.Run(in, f.Validators()...)...)

		case schema.Ref:
			r, err := parseRef(ent, f, v)
			if err != nil {
				return nil, err
			}
			if !r.inline() {
				continue
			}
			target, err := e.table(f.Target)
			if err != nil {
				return nil, err
			}
			child, err := e.validate(target.entity, r.record)
			if err != nil {
				return nil, err
			}
			rep.Nest(f.Name, child)
		}
	}
	return rep, nil
}

// Insert validates doc and its inline records, stores the inline records
// depth-first and then doc itself. Directly owned entities get user as
// their owner; others must reach user through one of their paths.
func (e *Engine) Insert(ctx context.Context, user models.ID, table string, doc models.Document) (*Node, error) {
	tq, err := e.table(table)
	if err != nil {
		return nil, err
	}
	if tq.insert == nil {
		return nil, fmt.Errorf("insert %s: %w", table, ErrReadOnly)
	}
	rep, err := e.validate(tq.entity, doc)
	if err != nil {
		return nil, err
	}
	if rep.Erroneous() {
		return nil, &ValidationError{Report: rep}
	}
	return e.insert(ctx, user, tq, doc)
}

func (e *Engine) insert(ctx context.Context, user models.ID, tq *tableQueries, doc models.Document) (*Node, error) {
	if tq.insert == nil {
		return nil, fmt.Errorf("insert %s: %w", tq.entity.Table, ErrReadOnly)
	}
	flat, children, err := e.resolveChildren(ctx, user, tq.entity, doc)
	if err != nil {
		return nil, err
	}
	if tq.insert.Inject {
		flat[schema.OwnerField] = user
	}

	rows, err := e.exec(ctx, *tq.insert, map[string]any{
		surrealql.VarValue: flat,
		surrealql.VarUser:  user,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if len(tq.insert.Guard) > 0 {
			return nil, &MissingRecordError{ID: guardTarget(tq.insert.Guard, flat)}
		}
		return nil, ErrMissingID
	}
	id, ok := rows[0].ID()
	if !ok {
		return nil, ErrMissingID
	}

	e.log.Debug("inserted", "id", id.String(), "children", len(children))
	return &Node{ID: id, Data: flat, Children: children}, nil
}

// guardTarget names the row a failed create guard could not reach: the
// first link the guard paths start from.
func guardTarget(guard []string, value models.Document) models.ID {
	for _, p := range guard {
		head, _, _ := strings.Cut(p, ".")
		if id, ok := models.FromRecordID(value[head]); ok {
			return id
		}
	}
	return models.ID{}
}

// Update validates doc, stores its inline records and merges it into the
// row id when user owns it. The owner field is never written; links that
// start an ownership path must point at rows user owns through that path.
func (e *Engine) Update(ctx context.Context, user, id models.ID, doc models.Document) (*Node, error) {
	tq, err := e.table(id.Table)
	if err != nil {
		return nil, err
	}
	if tq.update == nil {
		return nil, fmt.Errorf("update %s: %w", id.Table, ErrReadOnly)
	}
	rep, err := e.validate(tq.entity, doc)
	if err != nil {
		return nil, err
	}
	if rep.Erroneous() {
		return nil, &ValidationError{Report: rep}
	}

	flat, children, err := e.resolveChildren(ctx, user, tq.entity, doc)
	if err != nil {
		return nil, err
	}
	for _, f := range tq.entity.Fields {
		if f.Kind == schema.Owner {
			delete(flat, f.Name)
		}
	}

	rows, err := e.exec(ctx, *tq.update, map[string]any{
		surrealql.VarID:    id,
		surrealql.VarValue: flat,
		surrealql.VarUser:  user,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &MissingRecordError{ID: id}
	}
	return &Node{ID: id, Data: flat, Children: children}, nil
}

// resolveChildren returns a copy of doc whose links hold record ids. Inline
// records are inserted first, in field order, one at a time; each node is
// returned under its field name.
func (e *Engine) resolveChildren(ctx context.Context, user models.ID, ent *schema.Entity, doc models.Document) (models.Document, map[string]*Node, error) {
	flat := make(models.Document, len(doc))
	for k, v := range doc {
		if k != schema.IDField {
			flat[k] = v
		}
	}

	var children map[string]*Node
	for i := range ent.Fields {
		f := &ent.Fields[i]
		v, ok := flat[f.Name]
		if !ok || v == nil || f.Kind == schema.Scalar {
			continue
		}

		if f.Kind != schema.Ref {
			id, err := parseID(ent, f, v)
			if err != nil {
				return nil, nil, err
			}
			flat[f.Name] = id
			continue
		}

		r, err := parseRef(ent, f, v)
		if err != nil {
			return nil, nil, err
		}
		if !r.inline() {
			flat[f.Name] = r.id
			continue
		}

		target, err := e.table(f.Target)
		if err != nil {
			return nil, nil, err
		}
		child, err := e.insert(ctx, user, target, r.record)
		if err != nil {
			return nil, nil, fmt.Errorf("%s.%s: %w", ent.Table, f.Name, err)
		}
		flat[f.Name] = child.ID
		if children == nil {
			children = map[string]*Node{}
		}
		children[f.Name] = child
	}
	return flat, children, nil
}
