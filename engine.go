package surrealcrud

import (
	"context"
	"errors"
	"fmt"

	"github.com/surrealcrud/surrealcrud/pkg/logger"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/schema"
	"github.com/surrealcrud/surrealcrud/pkg/store"
	"github.com/surrealcrud/surrealcrud/pkg/surrealql"
)

// Engine runs ownership constrained CRUD operations for the entities of a
// registry. It is safe for concurrent use.
type Engine struct {
	reg    *schema.Registry
	store  store.Store
	log    logger.Logger
	tables map[string]*tableQueries
}

// tableQueries holds the templates of one table. Write templates are nil
// for tables without ownership paths.
type tableQueries struct {
	entity    *schema.Entity
	selectOne surrealql.Template
	selectAll surrealql.Template
	byFkey    map[string]surrealql.Template
	insert    *surrealql.Template
	update    *surrealql.Template
	remove    *surrealql.Template
	unbind    *surrealql.Template
}

type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New synthesizes the templates of every registered table. Template
// construction errors are returned here and never per request.
func New(reg *schema.Registry, st store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		reg:    reg,
		store:  st,
		log:    logger.Nop(),
		tables: make(map[string]*tableQueries),
	}
	for _, opt := range opts {
		opt(e)
	}

	var errs []error
	for _, ent := range reg.Entities() {
		tq, err := buildTable(ent)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		e.tables[ent.Table] = tq
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return e, nil
}

func buildTable(ent *schema.Entity) (*tableQueries, error) {
	qb, err := surrealql.NewQueryBuilder(surrealql.Spec{
		Table:     ent.Table,
		Paths:     ent.Paths,
		FkeyPaths: ent.FkeyPaths(),
		Fields:    ent.FieldNames(),
	})
	if err != nil {
		return nil, err
	}

	tq := &tableQueries{entity: ent, byFkey: map[string]surrealql.Template{}}
	if tq.selectOne, err = qb.Select(); err != nil {
		return nil, err
	}
	if tq.selectAll, err = qb.SelectAll(); err != nil {
		return nil, err
	}

	fkeys := qb.Fkeys()
	if !qb.Owned() {
		for _, f := range ent.Fields {
			if f.IsLink() {
				fkeys = append(fkeys, f.Name)
			}
		}
	}
	for _, k := range fkeys {
		t, err := qb.SelectAllByFkey(k)
		if err != nil {
			return nil, err
		}
		tq.byFkey[k] = t
	}

	write := func(build func() (surrealql.Template, error)) (*surrealql.Template, error) {
		t, err := build()
		if errors.Is(err, surrealql.ErrUnowned) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	if tq.insert, err = write(qb.Insert); err != nil {
		return nil, err
	}
	if tq.update, err = write(qb.Update); err != nil {
		return nil, err
	}
	if tq.remove, err = write(qb.Delete); err != nil {
		return nil, err
	}
	if j := ent.Junction; j != nil {
		if tq.unbind, err = write(func() (surrealql.Template, error) { return qb.Unbind(j.A, j.B) }); err != nil {
			return nil, err
		}
	}
	return tq, nil
}

// Registry returns the schema the engine serves.
func (e *Engine) Registry() *schema.Registry { return e.reg }

// Templates lists the templates synthesized for table.
func (e *Engine) Templates(table string) ([]surrealql.Template, error) {
	tq, err := e.table(table)
	if err != nil {
		return nil, err
	}
	out := []surrealql.Template{tq.selectOne, tq.selectAll}
	for _, k := range sortedKeys(tq.byFkey) {
		out = append(out, tq.byFkey[k])
	}
	for _, t := range []*surrealql.Template{tq.insert, tq.update, tq.remove, tq.unbind} {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (e *Engine) table(name string) (*tableQueries, error) {
	tq, ok := e.tables[name]
	if !ok {
		return nil, &DocumentError{Table: name, Reason: "unknown table"}
	}
	return tq, nil
}

// exec runs one statement. Store failures are logged and wrapped.
func (e *Engine) exec(ctx context.Context, t surrealql.Template, vars map[string]any) ([]models.Document, error) {
	e.log.Debug("exec", "op", t.Op.String(), "table", t.Table)
	rows, err := e.store.Exec(ctx, t.Bind(vars))
	if err != nil {
		e.log.Error("statement failed", "op", t.Op.String(), "table", t.Table, "error", err)
		return nil, &DatabaseError{Op: t.Op.String(), Table: t.Table, Err: err}
	}
	return rows, nil
}

// Get returns the row id when user owns it.
func (e *Engine) Get(ctx context.Context, user, id models.ID) (models.Document, error) {
	tq, err := e.table(id.Table)
	if err != nil {
		return nil, err
	}
	rows, err := e.exec(ctx, tq.selectOne, map[string]any{
		surrealql.VarID:   id,
		surrealql.VarUser: user,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &MissingRecordError{ID: id}
	}
	return rows[0], nil
}

// GetAll returns every row of table visible to user.
func (e *Engine) GetAll(ctx context.Context, user models.ID, table string) ([]models.Document, error) {
	tq, err := e.table(table)
	if err != nil {
		return nil, err
	}
	return e.exec(ctx, tq.selectAll, map[string]any{surrealql.VarUser: user})
}

// GetAllByFkey returns the rows of table whose field fkey holds value,
// checked through the ownership path starting at fkey.
func (e *Engine) GetAllByFkey(ctx context.Context, user models.ID, table, fkey string, value models.ID) ([]models.Document, error) {
	tq, err := e.table(table)
	if err != nil {
		return nil, err
	}
	t, ok := tq.byFkey[fkey]
	if !ok {
		return nil, &DocumentError{Table: table, Field: fkey, Reason: "not a foreign key"}
	}
	return e.exec(ctx, t, map[string]any{
		surrealql.VarFkey: value,
		surrealql.VarUser: user,
	})
}

// Delete removes the row id when user owns it and returns the removed row.
func (e *Engine) Delete(ctx context.Context, user, id models.ID) (models.Document, error) {
	tq, err := e.table(id.Table)
	if err != nil {
		return nil, err
	}
	if tq.remove == nil {
		return nil, fmt.Errorf("delete %s: %w", id.Table, ErrReadOnly)
	}
	rows, err := e.exec(ctx, *tq.remove, map[string]any{
		surrealql.VarID:   id,
		surrealql.VarUser: user,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &MissingRecordError{ID: id}
	}
	return rows[0], nil
}
