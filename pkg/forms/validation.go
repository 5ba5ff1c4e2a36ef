package forms

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Validator validates a single, already coerced field value.
type Validator interface {
	// Validate checks if the value is valid.
	Validate(value any) error

	// Message returns the error message.
	Message() string
}

// EmailValidator validates email format. Empty values pass.
type EmailValidator struct{}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (v EmailValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if !emailRegex.MatchString(str) {
		return errors.New("invalid email")
	}
	return nil
}

func (v EmailValidator) Message() string {
	return "Please enter a valid email address"
}

// LengthValidator bounds the rune length of a string. Zero bounds are ignored.
type LengthValidator struct {
	Min int
	Max int
}

func (v LengthValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok {
		return nil
	}
	n := utf8.RuneCountInString(str)
	if v.Min > 0 && n < v.Min {
		return fmt.Errorf("too short (min %d)", v.Min)
	}
	if v.Max > 0 && n > v.Max {
		return fmt.Errorf("too long (max %d)", v.Max)
	}
	return nil
}

func (v LengthValidator) Message() string {
	switch {
	case v.Min > 0 && v.Max > 0:
		return fmt.Sprintf("Must be between %d and %d characters", v.Min, v.Max)
	case v.Max > 0:
		return fmt.Sprintf("Must be at most %d characters", v.Max)
	default:
		return fmt.Sprintf("Must be at least %d characters", v.Min)
	}
}

// PatternValidator validates a string against a compiled pattern.
type PatternValidator struct {
	Pattern *regexp.Regexp
	Msg     string
}

func (v PatternValidator) Validate(value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if !v.Pattern.MatchString(str) {
		return errors.New("pattern mismatch")
	}
	return nil
}

func (v PatternValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Invalid format"
}

// BoundValidator checks a numeric lower and/or upper bound, inclusive.
type BoundValidator struct {
	Min *float64
	Max *float64
}

func (v BoundValidator) Validate(value any) error {
	num, ok := toNumber(value)
	if !ok {
		return nil
	}
	if v.Min != nil && num < *v.Min {
		return fmt.Errorf("must be at least %v", *v.Min)
	}
	if v.Max != nil && num > *v.Max {
		return fmt.Errorf("must be at most %v", *v.Max)
	}
	return nil
}

func (v BoundValidator) Message() string {
	switch {
	case v.Min != nil && v.Max != nil:
		return fmt.Sprintf("Must be between %v and %v", *v.Min, *v.Max)
	case v.Max != nil:
		return fmt.Sprintf("Must be at most %v", *v.Max)
	case v.Min != nil:
		return fmt.Sprintf("Must be at least %v", *v.Min)
	}
	return "Out of range"
}

// OneOfValidator validates that value is one of allowed values.
type OneOfValidator struct {
	Values []any
}

func (v OneOfValidator) Validate(value any) error {
	for _, allowed := range v.Values {
		if equalValues(value, allowed) {
			return nil
		}
	}
	return errors.New("invalid option")
}

func (v OneOfValidator) Message() string {
	return "Invalid selection"
}

// equalValues compares a coerced value with a literal, coercing the literal
// side the same way so that 1 == 1.0 and "on" == true.
func equalValues(value, want any) bool {
	switch w := want.(type) {
	case bool:
		b, ok := toBool(value)
		return ok && b == w
	case string:
		s, ok := value.(string)
		return ok && s == w
	case nil:
		return value == nil
	}
	if wn, ok := toNumber(want); ok {
		vn, ok := toNumber(value)
		return ok && vn == wn
	}
	return value == want
}
