package surrealql

import "strings"

// Cond is a rendered WHERE condition.
type Cond string

// Eq compares a field path with a variable.
func Eq(path string, v Var) Cond {
	return Cond(escapePath(path) + " = " + v.String())
}

// EqRaw compares an already rendered left side with a variable.
func EqRaw(lhs string, v Var) Cond {
	return Cond(lhs + " = " + v.String())
}

// Unset holds when the rendered value is NONE, NULL or otherwise falsy.
func Unset(lhs string) Cond {
	return Cond("!" + lhs)
}

// Or joins conditions with OR. More than one condition is parenthesized so
// the result can be combined with AND.
func Or(conds ...Cond) Cond {
	return join(" OR ", conds)
}

func And(conds ...Cond) Cond {
	return join(" AND ", conds)
}

func join(op string, conds []Cond) Cond {
	switch len(conds) {
	case 0:
		return ""
	case 1:
		return conds[0]
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = string(c)
	}
	return Cond("(" + strings.Join(parts, op) + ")")
}
