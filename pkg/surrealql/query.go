package surrealql

import "strings"

// Constants for common return clauses
const (
	ReturnNoneClause   = "NONE"
	ReturnBeforeClause = "BEFORE"
	ReturnAfterClause  = "AFTER"
	ReturnIDClause     = "id"
)

// Query is a statement that renders to SurrealQL.
type Query interface {
	// Build returns the SurrealQL text. Values are never inlined; they are
	// referenced through named placeholders and bound at execution.
	Build() string
}

// escapeIdent escapes an identifier for use in SurrealQL
func escapeIdent(ident string) string {
	if strings.ContainsAny(ident, " -:.`") || isReservedWord(ident) {
		return "`" + strings.ReplaceAll(ident, "`", "\\`") + "`"
	}
	return ident
}

// escapePath escapes every segment of a dotted field path.
func escapePath(path string) string {
	segments := strings.Split(path, ".")
	for i, s := range segments {
		segments[i] = escapeIdent(s)
	}
	return strings.Join(segments, ".")
}

var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"SELECT", "FROM", "WHERE", "ORDER", "BY", "LIMIT", "START",
		"FETCH", "GROUP", "SPLIT", "RETURN", "PARALLEL", "EXPLAIN",
		"CREATE", "UPDATE", "DELETE", "RELATE", "INSERT", "DEFINE",
		"REMOVE", "INFO", "USE", "BEGIN", "CANCEL", "COMMIT",
		"IF", "ELSE", "THEN", "END", "BREAK", "CONTINUE",
		"FUNCTION", "PARAM", "FIELD", "TYPE", "DEFAULT",
		"ASSERT", "PERMISSIONS", "DURATION", "FLEXIBLE",
		"AND", "OR", "NOT", "IS", "CONTENT", "MERGE", "SET",
		"VALUE", "NONE", "NULL", "TRUE", "FALSE",
	} {
		reservedWords[w] = struct{}{}
	}
}

// isReservedWord checks if a word is a SurrealQL reserved word
func isReservedWord(word string) bool {
	_, ok := reservedWords[strings.ToUpper(word)]
	return ok
}
