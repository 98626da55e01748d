package surrealql

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// OwnerPath is the direct ownership path. Entities whose first path is
// OwnerPath get the requesting user injected on writes.
const OwnerPath = "user_id"

// ErrUnowned is wrapped by the BuilderError returned for write templates of
// tables without ownership paths.
var ErrUnowned = errors.New("table has no ownership paths")

// BuilderError is a construction error: it is raised when templates are
// built, never per request.
type BuilderError struct {
	Table  string
	Op     Op
	Reason string
	Err    error
}

func (e *BuilderError) Error() string {
	msg := "surrealql"
	if e.Table != "" {
		msg += ": " + e.Table
	}
	if e.Op != 0 {
		msg += ": " + e.Op.String()
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuilderError) Unwrap() error { return e.Err }

// Spec describes the table a QueryBuilder synthesizes templates for.
type Spec struct {
	Table string
	// Paths are the ownership paths in declaration order.
	Paths []string
	// FkeyPaths maps a field to the ownership path starting at it. When nil
	// it is derived from Paths: each path is keyed by its first segment and
	// the first path wins.
	FkeyPaths map[string]string
	// Fields, when set, are the fields a path may start with.
	Fields []string
}

// QueryBuilder synthesizes ownership constrained templates for one table.
type QueryBuilder struct {
	table  string
	paths  []string
	fkeys  map[string]string
	fields map[string]bool
}

func NewQueryBuilder(spec Spec) (*QueryBuilder, error) {
	qb := &QueryBuilder{
		table: spec.Table,
		paths: append([]string(nil), spec.Paths...),
		fkeys: map[string]string{},
	}
	if spec.Table == "" {
		return nil, &BuilderError{Reason: "empty table name"}
	}
	if len(spec.Fields) > 0 {
		qb.fields = make(map[string]bool, len(spec.Fields))
		for _, f := range spec.Fields {
			qb.fields[f] = true
		}
	}

	for _, p := range qb.paths {
		if err := qb.checkPath(p); err != nil {
			return nil, err
		}
	}

	if spec.FkeyPaths == nil {
		for _, p := range qb.paths {
			head, _, _ := strings.Cut(p, ".")
			if _, seen := qb.fkeys[head]; !seen {
				qb.fkeys[head] = p
			}
		}
	}
	for field, p := range spec.FkeyPaths {
		if p != field && !strings.HasPrefix(p, field+".") {
			return nil, &BuilderError{Table: qb.table, Reason: fmt.Sprintf("fkey path %q does not start at %s", p, field)}
		}
		if err := qb.checkPath(p); err != nil {
			return nil, err
		}
		qb.fkeys[field] = p
	}
	return qb, nil
}

func (qb *QueryBuilder) checkPath(p string) error {
	segments := strings.Split(p, ".")
	for _, s := range segments {
		if s == "" {
			return &BuilderError{Table: qb.table, Reason: fmt.Sprintf("malformed path %q", p)}
		}
	}
	if qb.fields != nil && !qb.fields[segments[0]] {
		return &BuilderError{Table: qb.table, Reason: fmt.Sprintf("path %q starts at unknown field %s", p, segments[0])}
	}
	return nil
}

// Table returns the table the builder targets.
func (qb *QueryBuilder) Table() string { return qb.table }

// Owned reports whether the table has ownership paths.
func (qb *QueryBuilder) Owned() bool { return len(qb.paths) > 0 }

// Injects reports whether writes carry the requesting user in user_id.
func (qb *QueryBuilder) Injects() bool {
	return len(qb.paths) > 0 && qb.paths[0] == OwnerPath
}

// Fkeys lists the fields SelectAllByFkey accepts, sorted.
func (qb *QueryBuilder) Fkeys() []string {
	keys := make([]string, 0, len(qb.fkeys))
	for k := range qb.fkeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (qb *QueryBuilder) owner() Cond {
	conds := make([]Cond, len(qb.paths))
	for i, p := range qb.paths {
		conds[i] = Eq(p, V(VarUser))
	}
	return Or(conds...)
}

func (qb *QueryBuilder) unowned(op Op) error {
	return &BuilderError{Table: qb.table, Op: op, Err: ErrUnowned}
}

// Select fetches one row by $id.
func (qb *QueryBuilder) Select() (Template, error) {
	return Template{
		Op:    OpSelect,
		Table: qb.table,
		SQL:   Select(V(VarID)).Where(qb.owner()).Build(),
		Owner: qb.paths,
	}, nil
}

// SelectAll fetches every row visible to $user_id.
func (qb *QueryBuilder) SelectAll() (Template, error) {
	return Template{
		Op:    OpSelectAll,
		Table: qb.table,
		SQL:   Select(Table(qb.table)).Where(qb.owner()).Build(),
		Owner: qb.paths,
	}, nil
}

// SelectAllByFkey fetches the rows whose field name equals $fkey. Only the
// ownership path starting at name is checked.
func (qb *QueryBuilder) SelectAllByFkey(name string) (Template, error) {
	t := Template{
		Op:    OpSelectByFkey,
		Table: qb.table,
		Match: []Match{{Field: name, Var: VarFkey}},
	}
	q := Select(Table(qb.table)).Where(Eq(name, V(VarFkey)))

	if qb.Owned() {
		p, ok := qb.fkeys[name]
		if !ok {
			return Template{}, &BuilderError{Table: qb.table, Op: OpSelectByFkey, Reason: fmt.Sprintf("no fkey path for %q", name)}
		}
		q.Where(Eq(p, V(VarUser)))
		t.Owner = []string{p}
	} else if qb.fields != nil && !qb.fields[name] {
		return Template{}, &BuilderError{Table: qb.table, Op: OpSelectByFkey, Reason: fmt.Sprintf("unknown field %q", name)}
	}

	t.SQL = q.Build()
	return t, nil
}

// Insert creates a row from $value. Directly owned tables inject the user;
// others only create when $value resolves to $user_id through a path.
func (qb *QueryBuilder) Insert() (Template, error) {
	if !qb.Owned() {
		return Template{}, qb.unowned(OpInsert)
	}
	create := Create(Table(qb.table)).Content(V(VarValue)).Return(ReturnIDClause)
	t := Template{Op: OpInsert, Table: qb.table}

	if qb.Injects() {
		t.Inject = true
		t.SQL = create.Build()
		return t, nil
	}

	conds := make([]Cond, len(qb.paths))
	for i, p := range qb.paths {
		conds[i] = EqRaw(V(VarValue).Field(p), V(VarUser))
	}
	t.Guard = qb.paths
	t.SQL = If(Or(conds...), create).Build()
	return t, nil
}

// Update merges $value into the row $id when it is owned by $user_id. A
// link that starts an ownership path may only be rewritten to a row that
// resolves to $user_id through that path. The direct owner is never
// written by an update.
func (qb *QueryBuilder) Update() (Template, error) {
	if !qb.Owned() {
		return Template{}, qb.unowned(OpUpdate)
	}
	q := Update(V(VarID)).Merge(V(VarValue)).Where(qb.owner())

	var guard []string
	for _, p := range qb.paths {
		head, _, linked := strings.Cut(p, ".")
		if !linked {
			continue
		}
		guard = append(guard, p)
		q.Where(Or(Unset(V(VarValue).Field(head)), EqRaw(V(VarValue).Field(p), V(VarUser))))
	}
	return Template{
		Op:    OpUpdate,
		Table: qb.table,
		SQL:   q.Return(ReturnIDClause).Build(),
		Owner: qb.paths,
		Guard: guard,
	}, nil
}

// Delete removes the row $id when it is owned by $user_id.
func (qb *QueryBuilder) Delete() (Template, error) {
	if !qb.Owned() {
		return Template{}, qb.unowned(OpDelete)
	}
	return Template{
		Op:    OpDelete,
		Table: qb.table,
		SQL:   Delete(V(VarID)).Where(qb.owner()).Return(ReturnBeforeClause).Build(),
		Owner: qb.paths,
	}, nil
}

// Unbind removes the junction rows linking $id_a through field a and $id_b
// through field b, when owned by $user_id.
func (qb *QueryBuilder) Unbind(a, b string) (Template, error) {
	if !qb.Owned() {
		return Template{}, qb.unowned(OpUnbind)
	}
	if a == "" || b == "" || a == b {
		return Template{}, &BuilderError{Table: qb.table, Op: OpUnbind, Reason: fmt.Sprintf("invalid junction sides %q, %q", a, b)}
	}
	for _, f := range []string{a, b} {
		if qb.fields != nil && !qb.fields[f] {
			return Template{}, &BuilderError{Table: qb.table, Op: OpUnbind, Reason: fmt.Sprintf("unknown field %q", f)}
		}
	}
	q := Delete(Table(qb.table)).
		Where(Eq(a, V(VarA))).
		Where(Eq(b, V(VarB))).
		Where(qb.owner()).
		Return(ReturnBeforeClause)
	return Template{
		Op:    OpUnbind,
		Table: qb.table,
		SQL:   q.Build(),
		Owner: qb.paths,
		Match: []Match{{Field: a, Var: VarA}, {Field: b, Var: VarB}},
	}, nil
}

// Templates returns every template the table supports: reads, one
// select-by-fkey per fkey, and writes when the table is owned.
func (qb *QueryBuilder) Templates() []Template {
	var out []Template
	add := func(t Template, err error) {
		if err == nil {
			out = append(out, t)
		}
	}
	add(qb.Select())
	add(qb.SelectAll())
	for _, k := range qb.Fkeys() {
		add(qb.SelectAllByFkey(k))
	}
	add(qb.Insert())
	add(qb.Update())
	add(qb.Delete())
	return out
}
