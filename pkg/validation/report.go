package validation

import (
	"encoding/json"
	"sort"
	"strings"
)

// Report mirrors an entity's fields: scalar fields carry their errors, ref
// fields holding an inline record carry the record's own report.
type Report struct {
	Fields map[string][]Error
	Nested map[string]*Report
}

func NewReport() *Report {
	return &Report{
		Fields: map[string][]Error{},
		Nested: map[string]*Report{},
	}
}

// Add appends errors for field. Adding no errors records nothing.
func (r *Report) Add(field string, errs ...Error) {
	if len(errs) == 0 {
		return
	}
	r.Fields[field] = append(r.Fields[field], errs...)
}

// Nest stores the report of the inline record held by field.
func (r *Report) Nest(field string, child *Report) {
	if child == nil {
		return
	}
	r.Nested[field] = child
}

// Erroneous reports whether any field of r, or of any nested report, failed.
func (r *Report) Erroneous() bool {
	if r == nil {
		return false
	}
	for _, errs := range r.Fields {
		if len(errs) > 0 {
			return true
		}
	}
	for _, child := range r.Nested {
		if child.Erroneous() {
			return true
		}
	}
	return false
}

func (r *Report) Field(name string) []Error {
	if r == nil {
		return nil
	}
	return r.Fields[name]
}

func (r *Report) Child(name string) *Report {
	if r == nil {
		return nil
	}
	return r.Nested[name]
}

// String lists failures as dotted field paths, sorted.
func (r *Report) String() string {
	var lines []string
	r.walk("", func(path string, errs []Error) {
		parts := make([]string, len(errs))
		for i, e := range errs {
			parts[i] = e.Error()
		}
		lines = append(lines, path+": "+strings.Join(parts, ", "))
	})
	sort.Strings(lines)
	return strings.Join(lines, "; ")
}

func (r *Report) walk(prefix string, fn func(path string, errs []Error)) {
	if r == nil {
		return
	}
	for field, errs := range r.Fields {
		if len(errs) > 0 {
			fn(prefix+field, errs)
		}
	}
	for field, child := range r.Nested {
		child.walk(prefix+field+".", fn)
	}
}

type reportJSON struct {
	Erroneous bool               `json:"erroneous"`
	Fields    map[string][]Error `json:"fields,omitempty"`
	Nested    map[string]*Report `json:"nested,omitempty"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{Erroneous: r.Erroneous()}
	if len(r.Fields) > 0 {
		out.Fields = r.Fields
	}
	if len(r.Nested) > 0 {
		out.Nested = r.Nested
	}
	return json.Marshal(out)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = *NewReport()
	for k, v := range in.Fields {
		r.Fields[k] = v
	}
	for k, v := range in.Nested {
		r.Nested[k] = v
	}
	return nil
}
