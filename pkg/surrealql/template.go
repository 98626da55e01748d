package surrealql

import "maps"

// Op names the engine operation a Template serves.
type Op int

const (
	OpSelect Op = iota + 1
	OpSelectAll
	OpSelectByFkey
	OpInsert
	OpUpdate
	OpDelete
	OpUnbind
)

func (o Op) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpSelectAll:
		return "select_all"
	case OpSelectByFkey:
		return "select_all_by_fkey"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpUnbind:
		return "unbind"
	}
	return "unknown"
}

// Match is an equality filter between a row field and a bound variable.
type Match struct {
	Field string
	Var   string
}

// Template is a synthesized statement for one operation on one table.
type Template struct {
	Op    Op
	Table string
	SQL   string

	// Owner lists the ownership paths checked against the stored row. The
	// row qualifies when any of them resolves to $user_id. Empty means the
	// operation is not ownership constrained.
	Owner []string

	// Guard lists the paths checked against $value. An insert creates the
	// row when any of them resolves to $user_id. An update requires every
	// path whose first field is set in $value to resolve to $user_id.
	Guard []string

	// Inject asks the caller to write the requesting user into
	// $value.user_id before binding. Only inserts inject.
	Inject bool

	// Match lists the equality filters besides ownership.
	Match []Match
}

// Statement is a template bound to its variables.
type Statement struct {
	Template
	Vars map[string]any
}

// Bind returns a statement executing t with vars. The map is copied.
func (t Template) Bind(vars map[string]any) Statement {
	return Statement{Template: t, Vars: maps.Clone(vars)}
}
