package validation

import (
	"fmt"
	"strings"
)

// Spec is a validator reference as written in a schema:
// "not_empty" or "length_in_range(3, 64)".
type Spec struct {
	Name string
	Args []string
}

func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + "(" + strings.Join(s.Args, ", ") + ")"
}

func ParseSpec(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	name, rest, hasArgs := strings.Cut(s, "(")
	name = strings.TrimSpace(name)
	if name == "" {
		return Spec{}, fmt.Errorf("empty validator in %q", s)
	}
	if !hasArgs {
		return Spec{Name: name}, nil
	}
	if !strings.HasSuffix(rest, ")") {
		return Spec{}, fmt.Errorf("unterminated arguments in %q", s)
	}
	rest = strings.TrimSpace(strings.TrimSuffix(rest, ")"))
	spec := Spec{Name: name}
	if rest == "" {
		return spec, nil
	}
	for _, a := range strings.Split(rest, ",") {
		spec.Args = append(spec.Args, strings.TrimSpace(a))
	}
	return spec, nil
}

// SplitSpecs splits a comma separated list of specs, keeping commas inside
// parentheses: "not_empty, length_in_range(1, 5)".
func SplitSpecs(s string) ([]Spec, error) {
	var (
		specs []Spec
		depth int
		start int
	)
	flush := func(end int) error {
		part := strings.TrimSpace(s[start:end])
		if part == "" {
			return nil
		}
		spec, err := ParseSpec(part)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
		return nil
	}
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses in %q", s)
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}
	return specs, nil
}
