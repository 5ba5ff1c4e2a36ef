package forms

import (
	"fmt"
	"regexp"
)

// CheckSpec is the declarative form of one check, as read from YAML. Exactly
// one constraint is expected per entry; Message overrides its default text.
type CheckSpec struct {
	Required  bool     `yaml:"required,omitempty"`
	Min       *float64 `yaml:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty"`
	Matches   string   `yaml:"matches,omitempty"`
	Email     bool     `yaml:"email,omitempty"`
	OneOf     []any    `yaml:"one_of,omitempty"`
	Message   string   `yaml:"message,omitempty"`
}

// RuleSpec is the declarative form of a field rule.
type RuleSpec struct {
	Kind   string      `yaml:"kind,omitempty"`
	Checks []CheckSpec `yaml:"checks,omitempty"`
}

// ConditionSpec is the declarative form of FieldRule.When.
type ConditionSpec struct {
	Field     string    `yaml:"field"`
	Is        any       `yaml:"is"`
	Then      *RuleSpec `yaml:"then,omitempty"`
	Otherwise *RuleSpec `yaml:"otherwise,omitempty"`
}

// ParseKind maps a kind name to a Kind. The empty string is KindMixed.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "mixed":
		return KindMixed, nil
	case "string":
		return KindString, nil
	case "number":
		return KindNumber, nil
	case "boolean", "bool":
		return KindBool, nil
	}
	return KindMixed, fmt.Errorf("unknown rule kind %q", s)
}

// KindFor returns the kind values of an input widget are coerced to.
func KindFor(t FieldType) Kind {
	switch t {
	case FieldNumber:
		return KindNumber
	case FieldCheckbox:
		return KindBool
	default:
		return KindString
	}
}

// Build turns s into a rule for field name. fallback is used when the
// rule names no kind.
func (s RuleSpec) Build(name string, fallback Kind) (*FieldRule, error) {
	kind, err := ParseKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	if s.Kind == "" {
		kind = fallback
	}

	rule := newFieldRule(name, kind)
	for i, c := range s.Checks {
		if err := c.apply(rule); err != nil {
			return nil, fmt.Errorf("field %s: check %d: %w", name, i, err)
		}
	}
	return rule, nil
}

func (c CheckSpec) apply(rule *FieldRule) error {
	var msg []string
	if c.Message != "" {
		msg = []string{c.Message}
	}

	n := 0
	if c.Required {
		rule.Required(msg...)
		n++
	}
	if c.Min != nil {
		rule.Min(*c.Min, msg...)
		n++
	}
	if c.Max != nil {
		rule.Max(*c.Max, msg...)
		n++
	}
	if c.MinLength != nil {
		rule.MinLength(*c.MinLength, msg...)
		n++
	}
	if c.MaxLength != nil {
		rule.MaxLength(*c.MaxLength, msg...)
		n++
	}
	if c.Matches != "" {
		if _, err := regexp.Compile(c.Matches); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		rule.Matches(c.Matches, msg...)
		n++
	}
	if c.Email {
		rule.Email(msg...)
		n++
	}
	if len(c.OneOf) > 0 {
		rule.OneOf(c.OneOf, msg...)
		n++
	}

	if n != 1 {
		return fmt.Errorf("expected exactly one constraint, got %d", n)
	}
	return nil
}

// Build turns the condition into a resolver attached to base.
func (c ConditionSpec) Build(base *FieldRule) (*FieldRule, error) {
	if c.Field == "" {
		return nil, fmt.Errorf("field %s: condition without field", base.Name())
	}
	var then, otherwise *FieldRule
	var err error
	if c.Then != nil {
		if then, err = c.Then.Build(base.Name(), base.Kind()); err != nil {
			return nil, err
		}
	}
	if c.Otherwise != nil {
		if otherwise, err = c.Otherwise.Build(base.Name(), base.Kind()); err != nil {
			return nil, err
		}
	}
	return base.When(c.Field, Is(c.Is), then, otherwise), nil
}
