package surrealcrud

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// OtmChange is one one-to-many change: create a child pointing at the
// parent, or remove a stored child.
//
// On the wire it is {"Bind": {...}} or {"Remove": id}.
type OtmChange struct {
	bind    models.Document
	removed models.ID
}

// BindChild creates child with its foreign key set to the parent.
func BindChild(child models.Document) OtmChange {
	if child == nil {
		child = models.Document{}
	}
	return OtmChange{bind: child}
}

// RemoveChild deletes the stored child id.
func RemoveChild(id models.ID) OtmChange {
	return OtmChange{removed: id}
}

func (c OtmChange) IsBind() bool { return c.bind != nil }

func (c OtmChange) MarshalJSON() ([]byte, error) {
	if c.bind != nil {
		return json.Marshal(map[string]any{"Bind": c.bind})
	}
	return json.Marshal(map[string]any{"Remove": c.removed})
}

func (c *OtmChange) UnmarshalJSON(data []byte) error {
	var wire struct {
		Bind   json.RawMessage `json:"Bind"`
		Remove *models.ID      `json:"Remove"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Bind != nil && wire.Remove == nil:
		doc, err := models.DecodeDocument(wire.Bind)
		if err != nil {
			return err
		}
		*c = BindChild(doc)
	case wire.Remove != nil && wire.Bind == nil:
		*c = RemoveChild(*wire.Remove)
	default:
		return fmt.Errorf("change must be exactly one of Bind or Remove")
	}
	return nil
}

// OtmOutcome is the result of one OtmChange: the created child's node, or
// the id of the removed child.
//
// On the wire: {"Created": node} or {"Removed": id}.
type OtmOutcome struct {
	Kind OutcomeKind
	Node *Node
	ID   models.ID
}

func (o OtmOutcome) MarshalJSON() ([]byte, error) {
	if o.Kind == Created {
		return json.Marshal(map[OutcomeKind]any{Created: o.Node})
	}
	return json.Marshal(map[OutcomeKind]any{Removed: o.ID})
}

func (o *OtmOutcome) UnmarshalJSON(data []byte) error {
	var wire struct {
		Created *Node      `json:"Created"`
		Removed *models.ID `json:"Removed"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Created != nil:
		*o = OtmOutcome{Kind: Created, Node: wire.Created, ID: wire.Created.ID}
	case wire.Removed != nil:
		*o = OtmOutcome{Kind: Removed, ID: *wire.Removed}
	default:
		return fmt.Errorf("outcome must be one of Created or Removed")
	}
	return nil
}

// ApplyOneToMany applies changes to the children of selfID in childTable,
// linked through the field fkey. Binds are validated up front, then every
// change runs in order. Removing a child checks ownership of the child
// itself.
func (e *Engine) ApplyOneToMany(ctx context.Context, user models.ID, childTable, fkey string, selfID models.ID, changes []OtmChange) ([]OtmOutcome, error) {
	tq, err := e.table(childTable)
	if err != nil {
		return nil, err
	}
	f, ok := tq.entity.Field(fkey)
	if !ok || !f.IsLink() {
		return nil, &DocumentError{Table: childTable, Field: fkey, Reason: "not a foreign key"}
	}
	if err := checkTarget(tq.entity, f, selfID); err != nil {
		return nil, err
	}
	if tq.insert == nil || tq.remove == nil {
		return nil, fmt.Errorf("children %s: %w", childTable, ErrReadOnly)
	}

	docs := make([]models.Document, len(changes))
	rep := validation.NewReport()
	for i, c := range changes {
		if !c.IsBind() {
			if c.removed.Table != childTable {
				return nil, &DocumentError{Table: childTable, Reason: "cannot remove " + c.removed.String()}
			}
			continue
		}
		doc := models.Document{}
		for k, v := range c.bind {
			doc[k] = v
		}
		doc[fkey] = selfID
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

	out := make([]OtmOutcome, 0, len(changes))
	for i, c := range changes {
		if c.IsBind() {
			node, err := e.insert(ctx, user, tq, docs[i])
			if err != nil {
				return nil, err
			}
			out = append(out, OtmOutcome{Kind: Created, Node: node, ID: node.ID})
			continue
		}
		if _, err := e.Delete(ctx, user, c.removed); err != nil {
			return nil, err
		}
		out = append(out, OtmOutcome{Kind: Removed, ID: c.removed})
	}
	return out, nil
}
