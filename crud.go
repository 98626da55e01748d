package surrealcrud

import (
	"context"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// Typed helpers. T names its table through TableName and converts to and
// from documents through its JSON form.

func tableOf[T schema.Tabler]() string {
	var zero T
	return zero.TableName()
}

func toDocument(v any) (models.Document, error) {
	doc, err := models.ToDocument(v)
	if err != nil {
		return nil, &SerdeError{Err: err}
	}
	return doc, nil
}

func fromDocument[T any](doc models.Document) (models.WithID[T], error) {
	var w models.WithID[T]
	if err := models.FromDocument(doc, &w); err != nil {
		return w, &SerdeError{Err: err}
	}
	return w, nil
}

func fromDocuments[T any](docs []models.Document) ([]models.WithID[T], error) {
	out := make([]models.WithID[T], len(docs))
	for i, d := range docs {
		w, err := fromDocument[T](d)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func checkTable[T schema.Tabler](id models.ID) error {
	if t := tableOf[T](); id.Table != t {
		return &DocumentError{Table: t, Reason: "id " + id.String() + " belongs to another table"}
	}
	return nil
}

func Get[T schema.Tabler](ctx context.Context, e *Engine, user, id models.ID) (models.WithID[T], error) {
	if err := checkTable[T](id); err != nil {
		return models.WithID[T]{}, err
	}
	doc, err := e.Get(ctx, user, id)
	if err != nil {
		return models.WithID[T]{}, err
	}
	return fromDocument[T](doc)
}

func GetAll[T schema.Tabler](ctx context.Context, e *Engine, user models.ID) ([]models.WithID[T], error) {
	docs, err := e.GetAll(ctx, user, tableOf[T]())
	if err != nil {
		return nil, err
	}
	return fromDocuments[T](docs)
}

func GetAllByFkey[T schema.Tabler](ctx context.Context, e *Engine, user models.ID, fkey string, value models.ID) ([]models.WithID[T], error) {
	docs, err := e.GetAllByFkey(ctx, user, tableOf[T](), fkey, value)
	if err != nil {
		return nil, err
	}
	return fromDocuments[T](docs)
}

func Insert[T schema.Tabler](ctx context.Context, e *Engine, user models.ID, v T) (*Node, error) {
	doc, err := toDocument(v)
	if err != nil {
		return nil, err
	}
	return e.Insert(ctx, user, tableOf[T](), doc)
}

func Update[T schema.Tabler](ctx context.Context, e *Engine, user, id models.ID, v T) (*Node, error) {
	if err := checkTable[T](id); err != nil {
		return nil, err
	}
	doc, err := toDocument(v)
	if err != nil {
		return nil, err
	}
	return e.Update(ctx, user, id, doc)
}

func Delete[T schema.Tabler](ctx context.Context, e *Engine, user, id models.ID) (models.WithID[T], error) {
	if err := checkTable[T](id); err != nil {
		return models.WithID[T]{}, err
	}
	doc, err := e.Delete(ctx, user, id)
	if err != nil {
		return models.WithID[T]{}, err
	}
	return fromDocument[T](doc)
}

func Validate[T schema.Tabler](e *Engine, v T) (*validation.Report, error) {
	doc, err := toDocument(v)
	if err != nil {
		return nil, err
	}
	return e.Validate(tableOf[T](), doc)
}

// ApplyManyToMany applies changes to the junction J, where selfID sits in
// selfField. Inline records in the changes are of the other side's type.
func ApplyManyToMany[J schema.Tabler](ctx context.Context, e *Engine, user models.ID, selfField string, selfID models.ID, changes []MtmChange) ([]MtmOutcome, error) {
	return e.ApplyManyToMany(ctx, user, tableOf[J](), selfField, selfID, changes)
}

// ApplyOneToMany applies changes to the children of type C of selfID.
func ApplyOneToMany[C schema.Tabler](ctx context.Context, e *Engine, user models.ID, fkey string, selfID models.ID, changes []OtmChange) ([]OtmOutcome, error) {
	return e.ApplyOneToMany(ctx, user, tableOf[C](), fkey, selfID, changes)
}

// BindTyped builds a many-to-many Bind from a typed reference and a typed
// context. Fields of ctx that hold zero ids are dropped so the junction
// sides are filled by the engine.
func BindTyped[O, C any](other models.Of[O], ctx C) (MtmChange, error) {
	var ref models.Of[models.Document]
	if rec, ok := other.Record(); ok {
		doc, err := toDocument(rec)
		if err != nil {
			return MtmChange{}, err
		}
		ref = models.Inline(doc)
	} else {
		id, _ := other.ID()
		ref = models.Ref[models.Document](id)
	}
	ctxDoc, err := toDocument(ctx)
	if err != nil {
		return MtmChange{}, err
	}
	for k, v := range ctxDoc {
		if v == nil {
			delete(ctxDoc, k)
		}
	}
	return Bind(ref, ctxDoc), nil
}
