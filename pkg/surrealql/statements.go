package surrealql

import "strings"

// target renders a FROM/UPDATE/DELETE target: a table or a variable.
type target interface {
	String() string
}

// Table is a table target.
type Table string

func (t Table) String() string { return escapeIdent(string(t)) }

// SelectQuery represents a SELECT * query builder
type SelectQuery struct {
	from  target
	where []Cond
}

// Select starts a SELECT * query on a table or a record id variable.
func Select(from target) *SelectQuery {
	return &SelectQuery{from: from}
}

// Where adds a condition; conditions are joined with AND.
func (q *SelectQuery) Where(c Cond) *SelectQuery {
	if c != "" {
		q.where = append(q.where, c)
	}
	return q
}

func (q *SelectQuery) Build() string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(q.from.String())
	writeWhere(&b, q.where)
	return b.String()
}

// CreateQuery represents a CREATE ... CONTENT query
type CreateQuery struct {
	table        Table
	content      Var
	returnClause string
}

func Create(table Table) *CreateQuery {
	return &CreateQuery{table: table}
}

func (q *CreateQuery) Content(v Var) *CreateQuery {
	q.content = v
	return q
}

// Return sets the RETURN clause
func (q *CreateQuery) Return(clause string) *CreateQuery {
	q.returnClause = clause
	return q
}

func (q *CreateQuery) Build() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	b.WriteString(q.table.String())
	if q.content.name != "" {
		b.WriteString(" CONTENT ")
		b.WriteString(q.content.String())
	}
	writeReturn(&b, q.returnClause)
	return b.String()
}

// UpdateQuery represents an UPDATE ... MERGE query
type UpdateQuery struct {
	target       target
	merge        Var
	where        []Cond
	returnClause string
}

func Update(t target) *UpdateQuery {
	return &UpdateQuery{target: t}
}

func (q *UpdateQuery) Merge(v Var) *UpdateQuery {
	q.merge = v
	return q
}

func (q *UpdateQuery) Where(c Cond) *UpdateQuery {
	if c != "" {
		q.where = append(q.where, c)
	}
	return q
}

func (q *UpdateQuery) Return(clause string) *UpdateQuery {
	q.returnClause = clause
	return q
}

func (q *UpdateQuery) Build() string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(q.target.String())
	if q.merge.name != "" {
		b.WriteString(" MERGE ")
		b.WriteString(q.merge.String())
	}
	writeWhere(&b, q.where)
	writeReturn(&b, q.returnClause)
	return b.String()
}

// DeleteQuery represents a DELETE query
type DeleteQuery struct {
	target       target
	where        []Cond
	returnClause string
}

func Delete(t target) *DeleteQuery {
	return &DeleteQuery{target: t}
}

func (q *DeleteQuery) Where(c Cond) *DeleteQuery {
	if c != "" {
		q.where = append(q.where, c)
	}
	return q
}

func (q *DeleteQuery) Return(clause string) *DeleteQuery {
	q.returnClause = clause
	return q
}

func (q *DeleteQuery) Build() string {
	var b strings.Builder
	b.WriteString("DELETE ")
	b.WriteString(q.target.String())
	writeWhere(&b, q.where)
	writeReturn(&b, q.returnClause)
	return b.String()
}

// IfQuery runs a statement only when a condition holds. When it does not,
// the statement yields NONE.
type IfQuery struct {
	cond Cond
	then Query
}

func If(cond Cond, then Query) *IfQuery {
	return &IfQuery{cond: cond, then: then}
}

func (q *IfQuery) Build() string {
	c := string(q.cond)
	if !strings.HasPrefix(c, "(") {
		c = "(" + c + ")"
	}
	return "IF " + c + " { " + q.then.Build() + " }"
}

func writeWhere(b *strings.Builder, conds []Cond) {
	for i, c := range conds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(string(c))
	}
}

func writeReturn(b *strings.Builder, clause string) {
	if clause != "" {
		b.WriteString(" RETURN ")
		b.WriteString(clause)
	}
}
