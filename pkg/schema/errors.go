package schema

import "fmt"

// Error is a construction error: the schema is malformed. It is reported at
// startup and never per request.
type Error struct {
	Table  string
	Field  string
	Path   string
	Reason string
}

func (e *Error) Error() string {
	msg := "schema"
	if e.Table != "" {
		msg += ": " + e.Table
	}
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Path != "" {
		msg += fmt.Sprintf(": path %q", e.Path)
	}
	return msg + ": " + e.Reason
}
