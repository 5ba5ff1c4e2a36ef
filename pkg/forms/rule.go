package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rule validates a set of values. It returns the coerced values of the
// fields it owns that passed, and the errors of those that did not.
type Rule interface {
	Validate(values Values) (Values, Errors)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(values Values) (Values, Errors)

func (f RuleFunc) Validate(values Values) (Values, Errors) {
	return f(values)
}

// Kind is the type a field value is coerced to before checks run.
type Kind int

const (
	KindMixed Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "mixed"
	}
}

// Predicate tests the value of the field a conditional rule depends on.
type Predicate func(value any) bool

// Is matches values equal to want after coercion.
func Is(want any) Predicate {
	return func(value any) bool {
		return equalValues(value, want)
	}
}

// Resolver derives the effective rule of a field from all form values.
// Returning nil keeps only the base rule.
type Resolver func(values Values) *FieldRule

type check struct {
	validator Validator
	test      func(value any, values Values) bool
	message   string
	fallback  func(field string) string
}

func (c check) failed(value any, values Values) bool {
	if c.test != nil {
		return !c.test(value, values)
	}
	return c.validator.Validate(value) != nil
}

func (c check) messageFor(field string) string {
	if c.message != "" {
		return c.message
	}
	if c.fallback != nil {
		return c.fallback(field)
	}
	return c.validator.Message()
}

// FieldRule is the declarative constraint on one field: its kind, whether it
// is required, an ordered list of checks, and an optional resolver that adds
// a rule depending on other fields.
type FieldRule struct {
	name        string
	kind        Kind
	required    bool
	requiredMsg string
	typeMsg     string
	checks      []check
	resolve     Resolver
}

func newFieldRule(name string, kind Kind) *FieldRule {
	return &FieldRule{name: name, kind: kind}
}

// String declares a string field.
func String(name string) *FieldRule { return newFieldRule(name, KindString) }

// Number declares a numeric field. Numeric strings are coerced.
func Number(name string) *FieldRule { return newFieldRule(name, KindNumber) }

// Bool declares a boolean field. "true", "on" and "1" style strings are coerced.
func Bool(name string) *FieldRule { return newFieldRule(name, KindBool) }

// Mixed declares a field of unspecified kind, usually refined with When.
func Mixed(name string) *FieldRule { return newFieldRule(name, KindMixed) }

// Name returns the field name.
func (r *FieldRule) Name() string { return r.name }

// Kind returns the declared kind.
func (r *FieldRule) Kind() Kind { return r.kind }

// Required marks the field as required, with an optional message.
func (r *FieldRule) Required(msg ...string) *FieldRule {
	r.required = true
	if len(msg) > 0 {
		r.requiredMsg = msg[0]
	}
	return r
}

// TypeError overrides the message used when coercion fails.
func (r *FieldRule) TypeError(msg string) *FieldRule {
	r.typeMsg = msg
	return r
}

// Min requires a number to be at least n.
func (r *FieldRule) Min(n float64, msg ...string) *FieldRule {
	return r.add(BoundValidator{Min: &n}, msg, func(field string) string {
		return fmt.Sprintf("%s must be greater than or equal to %s", field, formatNumber(n))
	})
}

// Max requires a number to be at most n.
func (r *FieldRule) Max(n float64, msg ...string) *FieldRule {
	return r.add(BoundValidator{Max: &n}, msg, func(field string) string {
		return fmt.Sprintf("%s must be less than or equal to %s", field, formatNumber(n))
	})
}

// MinLength requires a string of at least n characters.
func (r *FieldRule) MinLength(n int, msg ...string) *FieldRule {
	return r.add(LengthValidator{Min: n}, msg, func(field string) string {
		return fmt.Sprintf("%s must be at least %d characters", field, n)
	})
}

// MaxLength requires a string of at most n characters.
func (r *FieldRule) MaxLength(n int, msg ...string) *FieldRule {
	return r.add(LengthValidator{Max: n}, msg, func(field string) string {
		return fmt.Sprintf("%s must be at most %d characters", field, n)
	})
}

// Matches requires a string to match pattern. It panics on an invalid
// expression.
func (r *FieldRule) Matches(pattern string, msg ...string) *FieldRule {
	re := regexp.MustCompile(pattern)
	return r.add(PatternValidator{Pattern: re}, msg, func(field string) string {
		return fmt.Sprintf("%s must match the following: %q", field, pattern)
	})
}

// Email requires a well-formed email address.
func (r *FieldRule) Email(msg ...string) *FieldRule {
	return r.add(EmailValidator{}, msg, func(field string) string {
		return field + " must be a valid email"
	})
}

// OneOf restricts the value to the given options.
func (r *FieldRule) OneOf(values []any, msg ...string) *FieldRule {
	return r.add(OneOfValidator{Values: values}, msg, func(field string) string {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprint(v)
		}
		return fmt.Sprintf("%s must be one of the following values: %s", field, strings.Join(parts, ", "))
	})
}

// Use appends an arbitrary Validator; its Message is reported on failure.
func (r *FieldRule) Use(v Validator) *FieldRule {
	r.checks = append(r.checks, check{validator: v})
	return r
}

// Test appends a check that sees the coerced value and all form values.
func (r *FieldRule) Test(fn func(value any, values Values) bool, msg string) *FieldRule {
	r.checks = append(r.checks, check{test: fn, message: msg})
	return r
}

// Resolve attaches a resolver whose rule is applied after the base rule.
func (r *FieldRule) Resolve(fn Resolver) *FieldRule {
	r.resolve = fn
	return r
}

// When applies then if the dependency field satisfies is, otherwise
// otherwise. Either branch may be nil. The branch rules' names are ignored.
func (r *FieldRule) When(dependency string, is Predicate, then, otherwise *FieldRule) *FieldRule {
	return r.Resolve(func(values Values) *FieldRule {
		if is(values[dependency]) {
			return then
		}
		return otherwise
	})
}

func (r *FieldRule) add(v Validator, msg []string, fallback func(string) string) *FieldRule {
	c := check{validator: v, fallback: fallback}
	if len(msg) > 0 {
		c.message = msg[0]
	}
	r.checks = append(r.checks, c)
	return r
}

// Check validates the field against values. It returns the coerced value
// and the first failing message, which is empty when the field is valid.
func (r *FieldRule) Check(values Values) (any, string) {
	rules := []*FieldRule{r}
	if r.resolve != nil {
		if extra := r.resolve(values); extra != nil {
			rules = append(rules, extra)
		}
	}

	kind, required, requiredMsg, typeMsg := r.kind, false, "", ""
	for _, rule := range rules {
		if rule.kind != KindMixed {
			kind = rule.kind
		}
		if rule.required {
			required = true
			if rule.requiredMsg != "" {
				requiredMsg = rule.requiredMsg
			}
		}
		if rule.typeMsg != "" {
			typeMsg = rule.typeMsg
		}
	}

	raw := values[r.name]
	if isEmpty(raw) {
		if !required {
			return raw, ""
		}
		if requiredMsg == "" {
			requiredMsg = r.name + " is a required field"
		}
		return nil, requiredMsg
	}

	value, ok := coerce(raw, kind)
	if !ok {
		if typeMsg == "" {
			typeMsg = fmt.Sprintf("%s must be a %s", r.name, kind)
		}
		return nil, typeMsg
	}

	for _, rule := range rules {
		for _, c := range rule.checks {
			if c.failed(value, values) {
				return nil, c.messageFor(r.name)
			}
		}
	}
	return value, ""
}

func coerce(raw any, kind Kind) (any, bool) {
	switch kind {
	case KindNumber:
		return toNumber(raw)
	case KindBool:
		return toBool(raw)
	case KindString:
		switch v := raw.(type) {
		case string:
			return v, true
		case bool:
			return strconv.FormatBool(v), true
		}
		if n, ok := toNumber(raw); ok {
			return formatNumber(n), true
		}
		return nil, false
	default:
		return raw, true
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Schema is an ordered set of field rules, the rule of one step.
type Schema struct {
	fields []*FieldRule
}

// Object builds a schema from field rules. Declaration order is the order in
// which errors are reported.
func Object(fields ...*FieldRule) *Schema {
	return &Schema{fields: fields}
}

// Fields returns the names of the fields the schema validates.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// Field returns the rule for a field, or nil.
func (s *Schema) Field(name string) *FieldRule {
	for _, f := range s.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Validate checks every field of the schema against values. Fields outside
// the schema are neither validated nor returned.
func (s *Schema) Validate(values Values) (Values, Errors) {
	coerced := make(Values, len(s.fields))
	var errs Errors
	for _, f := range s.fields {
		value, msg := f.Check(values)
		if msg != "" {
			errs.Add(f.name, msg)
			continue
		}
		if _, present := values[f.name]; present {
			coerced[f.name] = value
		}
	}
	return coerced, errs
}
