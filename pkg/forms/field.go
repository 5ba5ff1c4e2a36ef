package forms

import (
	"net/url"
	"strings"
)

// FieldType identifies the input widget of a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPassword FieldType = "password"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Field describes one input of a step. It carries presentation only;
// constraints live in the step's Rule.
type Field struct {
	Name        string    `yaml:"name"`
	Type        FieldType `yaml:"type"`
	Label       string    `yaml:"label"`
	Placeholder string    `yaml:"placeholder,omitempty"`
	Help        string    `yaml:"help,omitempty"`
	Options     []Option  `yaml:"options,omitempty"`
}

// Option represents a select option.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// FieldOption is a function that configures a field.
type FieldOption func(*Field)

// NewField creates a new field.
func NewField(name string, fieldType FieldType, label string, opts ...FieldOption) Field {
	field := Field{
		Name:  name,
		Type:  fieldType,
		Label: label,
	}
	for _, opt := range opts {
		opt(&field)
	}
	return field
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(placeholder string) FieldOption {
	return func(f *Field) {
		f.Placeholder = placeholder
	}
}

// WithHelp sets the help text.
func WithHelp(help string) FieldOption {
	return func(f *Field) {
		f.Help = help
	}
}

// WithOptions sets the select options.
func WithOptions(options ...Option) FieldOption {
	return func(f *Field) {
		f.Options = options
	}
}

// TextField creates a text field.
func TextField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldText, label, opts...)
}

// EmailField creates an email field.
func EmailField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldEmail, label, opts...)
}

// NumberField creates a number field.
func NumberField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldNumber, label, opts...)
}

// TextareaField creates a textarea field.
func TextareaField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldTextarea, label, opts...)
}

// SelectField creates a select field.
func SelectField(name, label string, options []Option, opts ...FieldOption) Field {
	field := NewField(name, FieldSelect, label, opts...)
	field.Options = options
	return field
}

// CheckboxField creates a checkbox field.
func CheckboxField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldCheckbox, label, opts...)
}

// FromURLValues binds posted form data for the given fields. Browsers omit
// unchecked checkboxes, so a missing checkbox binds false. Other values stay
// strings; the step rule coerces them.
func FromURLValues(fields []Field, form url.Values) Values {
	out := make(Values, len(fields))
	for _, field := range fields {
		if field.Type == FieldCheckbox {
			b, _ := toBool(form.Get(field.Name))
			out[field.Name] = form.Has(field.Name) && (b || form.Get(field.Name) == "")
			continue
		}
		if form.Has(field.Name) {
			out[field.Name] = strings.TrimSpace(form.Get(field.Name))
		}
	}
	return out
}

// FromPayload binds an event payload (decoded JSON or MessagePack) for the
// given fields, with the same checkbox semantics as FromURLValues.
func FromPayload(fields []Field, payload map[string]any) Values {
	out := make(Values, len(fields))
	for _, field := range fields {
		raw, ok := payload[field.Name]
		if field.Type == FieldCheckbox {
			b, _ := toBool(raw)
			out[field.Name] = ok && b
			continue
		}
		if !ok {
			continue
		}
		if s, isString := raw.(string); isString {
			raw = strings.TrimSpace(s)
		}
		out[field.Name] = raw
	}
	return out
}
