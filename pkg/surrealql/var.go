package surrealql

import "strings"

// Placeholder names shared by templates and the engine.
const (
	VarID    = "id"
	VarUser  = "user_id"
	VarValue = "value"
	VarFkey  = "fkey"
	VarA     = "id_a"
	VarB     = "id_b"
)

// Var represents a variable reference in SurrealQL
type Var struct {
	name string
}

// V creates a variable reference. The name can be given with or without the
// $ prefix.
func V(name string) Var {
	return Var{name: strings.TrimPrefix(name, "$")}
}

// String returns the variable reference as a string
func (v Var) String() string {
	return "$" + v.name
}

// Name returns the variable name without the $ prefix
func (v Var) Name() string {
	return v.name
}

// Field references a field path of the value the variable holds.
func (v Var) Field(path string) string {
	return v.String() + "." + escapePath(path)
}
