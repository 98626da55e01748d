package surrealcrud

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// MtmChange is one many-to-many change: bind the other side (stored or
// inline) with a context payload, or remove the link to a stored row.
//
// On the wire it is {"Bind": [ref, context]} or {"Remove": id}.
type MtmChange struct {
	bind    *mtmBind
	removed models.ID
}

type mtmBind struct {
	other   models.Of[models.Document]
	context models.Document
}

// Bind links the other side. context holds the junction's own fields.
func Bind(other models.Of[models.Document], context models.Document) MtmChange {
	return MtmChange{bind: &mtmBind{other: other, context: context}}
}

// Remove unlinks the stored row other.
func Remove(other models.ID) MtmChange {
	return MtmChange{removed: other}
}

func (c MtmChange) IsBind() bool { return c.bind != nil }

func (c MtmChange) MarshalJSON() ([]byte, error) {
	if c.bind != nil {
		return json.Marshal(map[string]any{"Bind": []any{c.bind.other, c.bind.context}})
	}
	return json.Marshal(map[string]any{"Remove": c.removed})
}

func (c *MtmChange) UnmarshalJSON(data []byte) error {
	var wire struct {
		Bind   []json.RawMessage `json:"Bind"`
		Remove *models.ID        `json:"Remove"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Bind != nil && wire.Remove == nil:
		if len(wire.Bind) != 2 {
			return fmt.Errorf("Bind takes [reference, context], got %d elements", len(wire.Bind))
		}
		var other models.Of[models.Document]
		if err := json.Unmarshal(wire.Bind[0], &other); err != nil {
			return err
		}
		ctx, err := decodeContext(wire.Bind[1])
		if err != nil {
			return err
		}
		*c = Bind(other, ctx)
	case wire.Remove != nil && wire.Bind == nil:
		*c = Remove(*wire.Remove)
	default:
		return fmt.Errorf("change must be exactly one of Bind or Remove")
	}
	return nil
}

func decodeContext(raw json.RawMessage) (models.Document, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	return models.DecodeDocument(raw)
}

// OutcomeKind tags the result of a relationship change.
type OutcomeKind string

const (
	Created OutcomeKind = "Created"
	Bound   OutcomeKind = "Bound"
	Unbound OutcomeKind = "Unbound"
	Removed OutcomeKind = "Removed"
)

// MtmOutcome is the result of one MtmChange. Created carries the node of
// the other side created inline; every kind carries the junction row id.
//
// On the wire: {"Created": [node, id]}, {"Bound": id} or {"Unbound": id}.
type MtmOutcome struct {
	Kind     OutcomeKind
	Node     *Node
	Junction models.ID
}

func (o MtmOutcome) MarshalJSON() ([]byte, error) {
	if o.Kind == Created {
		return json.Marshal(map[OutcomeKind]any{Created: []any{o.Node, o.Junction}})
	}
	return json.Marshal(map[OutcomeKind]any{o.Kind: o.Junction})
}

func (o *MtmOutcome) UnmarshalJSON(data []byte) error {
	var wire map[OutcomeKind]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if len(wire) != 1 {
		return fmt.Errorf("outcome must have exactly one key")
	}
	for kind, raw := range wire {
		switch kind {
		case Created:
			var pair []json.RawMessage
			if err := json.Unmarshal(raw, &pair); err != nil {
				return err
			}
			if len(pair) != 2 {
				return fmt.Errorf("Created takes [node, id], got %d elements", len(pair))
			}
			node := &Node{}
			if err := json.Unmarshal(pair[0], node); err != nil {
				return err
			}
			var id models.ID
			if err := json.Unmarshal(pair[1], &id); err != nil {
				return err
			}
			*o = MtmOutcome{Kind: Created, Node: node, Junction: id}
		case Bound, Unbound:
			var id models.ID
			if err := json.Unmarshal(raw, &id); err != nil {
				return err
			}
			*o = MtmOutcome{Kind: kind, Junction: id}
		default:
			return fmt.Errorf("unknown outcome %q", kind)
		}
	}
	return nil
}

// ApplyManyToMany applies changes to the junction table, where selfID sits
// in selfField. Every Bind, with its inline record and context, is
// validated before anything is written; changes then run in order and the
// outcomes match them one to one. A Remove that matches no owned junction
// row fails with MissingRecordError; earlier changes stay applied.
func (e *Engine) ApplyManyToMany(ctx context.Context, user models.ID, junction, selfField string, selfID models.ID, changes []MtmChange) ([]MtmOutcome, error) {
	tq, err := e.table(junction)
	if err != nil {
		return nil, err
	}
	j := tq.entity.Junction
	if j == nil {
		return nil, &DocumentError{Table: junction, Reason: "not a junction"}
	}
	otherField, ok := j.Other(selfField)
	if !ok {
		return nil, &DocumentError{Table: junction, Field: selfField, Reason: "not a side of the junction"}
	}
	if tq.insert == nil || tq.unbind == nil {
		return nil, fmt.Errorf("junction %s: %w", junction, ErrReadOnly)
	}
	self, _ := tq.entity.Field(selfField)
	if err := checkTarget(tq.entity, self, selfID); err != nil {
		return nil, err
	}

	docs := make([]models.Document, len(changes))
	rep := validation.NewReport()
	for i, c := range changes {
		if !c.IsBind() {
			continue
		}
		doc := models.Document{}
		for k, v := range c.bind.context {
			doc[k] = v
		}
		doc[selfField] = selfID
		if id, ok := c.bind.other.ID(); ok {
			doc[otherField] = id
		} else {
			doc[otherField] = c.bind.other
		}
		r, err := e.validate(tq.entity, doc)
		if err != nil {
			return nil, err
		}
		rep.Nest(strconv.Itoa(i), r)
		docs[i] = doc
	}
	if rep.Erroneous() {
		return nil, &ValidationError{Report: rep}
	}

	out := make([]MtmOutcome, 0, len(changes))
	for i, c := range changes {
		if c.IsBind() {
			node, err := e.insert(ctx, user, tq, docs[i])
			if err != nil {
				return nil, err
			}
			if child, ok := node.Child(otherField); ok {
				out = append(out, MtmOutcome{Kind: Created, Node: child, Junction: node.ID})
			} else {
				out = append(out, MtmOutcome{Kind: Bound, Junction: node.ID})
			}
			continue
		}

		id, err := e.unbind(ctx, user, tq, j, selfField, selfID, c.removed)
		if err != nil {
			return nil, err
		}
		out = append(out, MtmOutcome{Kind: Unbound, Junction: id})
	}
	return out, nil
}

func (e *Engine) unbind(ctx context.Context, user models.ID, tq *tableQueries, j *schema.Junction, selfField string, selfID, other models.ID) (models.ID, error) {
	a, b := selfID, other
	if selfField != j.A {
		a, b = other, selfID
	}
	rows, err := e.exec(ctx, *tq.unbind, map[string]any{
		surrealql.VarA:    a,
		surrealql.VarB:    b,
		surrealql.VarUser: user,
	})
	if err != nil {
		return models.ID{}, err
	}
	if len(rows) == 0 {
		return models.ID{}, &MissingRecordError{ID: other}
	}
	id, ok := rows[0].ID()
	if !ok {
		return models.ID{}, ErrMissingID
	}
	return id, nil
}
