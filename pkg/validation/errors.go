// Package validation implements the field validators that entity schemas
// reference by name, and the nested report that mirrors an entity's fields.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Code names the condition a validator found.
type Code string

const (
	StringIsEmpty                     Code = "StringIsEmpty"
	StringTooShort                    Code = "StringTooShort"
	StringTooLong                     Code = "StringTooLong"
	GTZero                            Code = "GTZero"
	GEZero                            Code = "GEZero"
	LTZero                            Code = "LTZero"
	LEZero                            Code = "LEZero"
	EQZero                            Code = "EQZero"
	NEZero                            Code = "NEZero"
	V1LTV2                            Code = "V1LTV2"
	V1LEV2                            Code = "V1LEV2"
	V1GTV2                            Code = "V1GTV2"
	V1GEV2                            Code = "V1GEV2"
	V1EQV2                            Code = "V1EQV2"
	V1NEV2                            Code = "V1NEV2"
	EmailFormatInvalid                Code = "EmailFormatInvalid"
	PasswordTooShort                  Code = "PasswordTooShort"
	PasswordTooLong                   Code = "PasswordTooLong"
	PasswordMustNotContainSpaces      Code = "PasswordMustNotContainSpaces"
	PasswordContainsInvalidCharacters Code = "PasswordContainsInvalidCharacters"
	PasswordMustContainUppercase      Code = "PasswordMustContainUppercase"
	PasswordMustContainLowercase      Code = "PasswordMustContainLowercase"
	PasswordMustContainDigit          Code = "PasswordMustContainDigit"
	PasswordMustContainSpecial        Code = "PasswordMustContainSpecial"
	ValueIsSome                       Code = "ValueIsSome"
	ValueIsNone                       Code = "ValueIsNone"
	TypeMismatch                      Code = "TypeMismatch"
)

// Error is one validation failure. Arg, when set, carries the limit or
// the other field involved.
type Error struct {
	Code Code
	Arg  any
}

func (e Error) Error() string {
	if e.Arg == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s(%v)", e.Code, e.Arg)
}

// MarshalJSON encodes an Error as "Code" or {"Code": arg}.
func (e Error) MarshalJSON() ([]byte, error) {
	if e.Arg == nil {
		return json.Marshal(e.Code)
	}
	return json.Marshal(map[Code]any{e.Code: e.Arg})
}

func (e *Error) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var c Code
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*e = Error{Code: c}
		return nil
	}
	var m map[Code]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("validation error object must have exactly one key")
	}
	for c, arg := range m {
		*e = Error{Code: c, Arg: arg}
	}
	return nil
}
