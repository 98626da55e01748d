package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/surrealcrud/surrealcrud/pkg/models"
)

// Input is what a validator sees. Doc is the whole entity so cross-field
// rules can read the other operand.
type Input struct {
	Value   any
	Present bool
	Doc     models.Document
}

// Validator checks one field and returns nil when it passes.
type Validator func(in Input) *Error

// Factory builds a Validator from the arguments of a spec.
type Factory func(args []string) (Validator, error)

var (
	spaces             = regexp.MustCompile(`\s`)
	validPasswordChars = regexp.MustCompile(`^[a-zA-Z0-9@#!$%^&*()_+\-=<>?{}\[\]|~]+$`)
	uppercase          = regexp.MustCompile(`[A-Z]`)
	lowercase          = regexp.MustCompile(`[a-z]`)
	digit              = regexp.MustCompile(`\d`)
	specialChar        = regexp.MustCompile(`[^\w\s:]`)

	formats = validator.New()
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"not_empty":         noArgs(notEmpty),
		"gt_zero":           noArgs(zeroCompare(func(c int) bool { return c <= 0 }, LEZero)),
		"ge_zero":           noArgs(zeroCompare(func(c int) bool { return c < 0 }, LTZero)),
		"lt_zero":           noArgs(zeroCompare(func(c int) bool { return c >= 0 }, GEZero)),
		"le_zero":           noArgs(zeroCompare(func(c int) bool { return c > 0 }, GTZero)),
		"eq_zero":           noArgs(zeroCompare(func(c int) bool { return c != 0 }, NEZero)),
		"ne_zero":           noArgs(zeroCompare(func(c int) bool { return c == 0 }, EQZero)),
		"length_at_least":   lengthAtLeast,
		"length_at_most":    lengthAtMost,
		"length_in_range":   lengthInRange,
		"v1_ge_v2":          fieldCompare(func(c int) bool { return c < 0 }, V1LTV2),
		"v1_gt_v2":          fieldCompare(func(c int) bool { return c <= 0 }, V1LEV2),
		"v1_le_v2":          fieldCompare(func(c int) bool { return c > 0 }, V1GTV2),
		"v1_lt_v2":          fieldCompare(func(c int) bool { return c >= 0 }, V1GEV2),
		"v1_eq_v2":          fieldCompare(func(c int) bool { return c != 0 }, V1NEV2),
		"v1_ne_v2":          fieldCompare(func(c int) bool { return c == 0 }, V1EQV2),
		"optional_v2_gt_v1": fieldCompare(func(c int) bool { return c > 0 }, V1GTV2),
		"email_format":      noArgs(emailFormat),
		"password_length":   passwordLength,
		"password_basic":    noArgs(passwordBasic),
		"password_moderate": noArgs(passwordModerate),
		"password_strict":   noArgs(passwordStrict),
		"none":              noArgs(none),
		"some":              noArgs(some),
	}
)

// Register adds or replaces a named validator. Call it before schemas that
// use the name are built.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Names lists the registered validators, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compile resolves a spec against the registry.
func Compile(spec Spec) (Validator, error) {
	registryMu.RLock()
	f, ok := registry[spec.Name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown validator %q", spec.Name)
	}
	v, err := f(spec.Args)
	if err != nil {
		return nil, fmt.Errorf("validator %s: %w", spec, err)
	}
	return v, nil
}

// Run applies validators in order and collects every failure.
func Run(in Input, validators ...Validator) []Error {
	var errs []Error
	for _, v := range validators {
		if e := v(in); e != nil {
			errs = append(errs, *e)
		}
	}
	return errs
}

func noArgs(v Validator) Factory {
	return func(args []string) (Validator, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("takes no arguments, got %d", len(args))
		}
		return v, nil
	}
}

func fail(c Code) *Error { return &Error{Code: c} }

func present(in Input) bool { return in.Present && in.Value != nil }

func stringValue(in Input) (string, bool) {
	if !present(in) {
		return "", false
	}
	s, ok := in.Value.(string)
	return s, ok
}

func notEmpty(in Input) *Error {
	if !present(in) {
		return nil
	}
	switch v := in.Value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return fail(StringIsEmpty)
		}
	case []any:
		if len(v) == 0 {
			return fail(StringIsEmpty)
		}
	}
	return nil
}

func zeroCompare(bad func(int) bool, c Code) Validator {
	return func(in Input) *Error {
		if !present(in) {
			return nil
		}
		cmp, ok := Compare(in.Value, int64(0))
		if !ok {
			return &Error{Code: TypeMismatch}
		}
		if bad(cmp) {
			return fail(c)
		}
		return nil
	}
}

func parseCounts(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("takes %d arguments, got %d", n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("argument %q is not a length", a)
		}
		out[i] = v
	}
	return out, nil
}

func lengthAtLeast(args []string) (Validator, error) {
	n, err := parseCounts(args, 1)
	if err != nil {
		return nil, err
	}
	return lengthBetween(n[0], -1, StringTooShort, StringTooLong), nil
}

func lengthAtMost(args []string) (Validator, error) {
	n, err := parseCounts(args, 1)
	if err != nil {
		return nil, err
	}
	return lengthBetween(-1, n[0], StringTooShort, StringTooLong), nil
}

func lengthInRange(args []string) (Validator, error) {
	n, err := parseCounts(args, 2)
	if err != nil {
		return nil, err
	}
	if n[0] > n[1] {
		return nil, fmt.Errorf("empty range %d..%d", n[0], n[1])
	}
	return lengthBetween(n[0], n[1], StringTooShort, StringTooLong), nil
}

// lengthBetween counts characters, not bytes. A negative bound is open.
func lengthBetween(lo, hi int, short, long Code) Validator {
	return func(in Input) *Error {
		s, ok := stringValue(in)
		if !ok {
			return nil
		}
		c := utf8.RuneCountInString(s)
		if lo >= 0 && c < lo {
			return &Error{Code: short, Arg: lo}
		}
		if hi >= 0 && c > hi {
			return &Error{Code: long, Arg: hi}
		}
		return nil
	}
}

func fieldCompare(bad func(int) bool, c Code) Factory {
	return func(args []string) (Validator, error) {
		if len(args) != 1 || args[0] == "" {
			return nil, fmt.Errorf("takes the name of the other field")
		}
		other := args[0]
		return func(in Input) *Error {
			v2, ok := in.Doc[other]
			if !present(in) || !ok || v2 == nil {
				return nil
			}
			cmp, ok := Compare(in.Value, v2)
			if !ok {
				return &Error{Code: TypeMismatch, Arg: other}
			}
			if bad(cmp) {
				return &Error{Code: c, Arg: other}
			}
			return nil
		}, nil
	}
}

func emailFormat(in Input) *Error {
	s, ok := stringValue(in)
	if !ok {
		return nil
	}
	if err := formats.Var(s, "required,email"); err != nil {
		return fail(EmailFormatInvalid)
	}
	return nil
}

func passwordLength(args []string) (Validator, error) {
	n, err := parseCounts(args, 2)
	if err != nil {
		return nil, err
	}
	return lengthBetween(n[0], n[1], PasswordTooShort, PasswordTooLong), nil
}

var (
	basicLength    = lengthBetween(6, 64, PasswordTooShort, PasswordTooLong)
	moderateLength = lengthBetween(8, 64, PasswordTooShort, PasswordTooLong)
	strictLength   = lengthBetween(12, 64, PasswordTooShort, PasswordTooLong)
)

func passwordBasic(in Input) *Error {
	s, ok := stringValue(in)
	if !ok {
		return nil
	}
	if e := basicLength(in); e != nil {
		return e
	}
	switch {
	case spaces.MatchString(s):
		return fail(PasswordMustNotContainSpaces)
	case !validPasswordChars.MatchString(s):
		return fail(PasswordContainsInvalidCharacters)
	case !digit.MatchString(s):
		return fail(PasswordMustContainDigit)
	}
	return nil
}

func passwordModerate(in Input) *Error {
	if e := passwordBasic(in); e != nil {
		return e
	}
	s, ok := stringValue(in)
	if !ok {
		return nil
	}
	if e := moderateLength(in); e != nil {
		return e
	}
	switch {
	case !uppercase.MatchString(s):
		return fail(PasswordMustContainUppercase)
	case !lowercase.MatchString(s):
		return fail(PasswordMustContainLowercase)
	}
	return nil
}

func passwordStrict(in Input) *Error {
	if e := passwordModerate(in); e != nil {
		return e
	}
	s, ok := stringValue(in)
	if !ok {
		return nil
	}
	if e := strictLength(in); e != nil {
		return e
	}
	if !specialChar.MatchString(s) {
		return fail(PasswordMustContainSpecial)
	}
	return nil
}

func none(in Input) *Error {
	if present(in) {
		return fail(ValueIsSome)
	}
	return nil
}

func some(in Input) *Error {
	if !present(in) {
		return fail(ValueIsNone)
	}
	return nil
}

// Compare orders two scalar values. Numbers compare numerically, strings
// that both parse as RFC 3339 timestamps compare as instants, other strings
// compare lexically. ok is false for values that cannot be ordered.
func Compare(a, b any) (cmp int, ok bool) {
	if fa, isNum := number(a); isNum {
		fb, isNum := number(b)
		if !isNum {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}

	sa, isStr := a.(string)
	sb, isStr2 := b.(string)
	if !isStr || !isStr2 {
		if ba, isBool := a.(bool); isBool {
			if bb, isBool := b.(bool); isBool && ba == bb {
				return 0, true
			}
		}
		return 0, false
	}
	ta, errA := time.Parse(time.RFC3339Nano, sa)
	tb, errB := time.Parse(time.RFC3339Nano, sb)
	if errA == nil && errB == nil {
		return ta.Compare(tb), true
	}
	return strings.Compare(sa, sb), true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
