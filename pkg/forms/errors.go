package forms

import "strings"

// FieldError is a single validation message attached to a field.
type FieldError struct {
	Field   string `json:"field" msgpack:"field"`
	Message string `json:"message" msgpack:"message"`
}

// Errors is an ordered set of field errors. Order follows the rule's field
// declaration order. A non-empty Errors value is an error.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Add appends an error.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Has reports whether the field has at least one error.
func (e Errors) Has(field string) bool {
	return e.Get(field) != ""
}

// Get returns the first message for a field.
func (e Errors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Fields returns the distinct field names in order of first appearance.
func (e Errors) Fields() []string {
	seen := make(map[string]bool, len(e))
	var out []string
	for _, fe := range e {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			out = append(out, fe.Field)
		}
	}
	return out
}

// Map returns the first message for each field.
func (e Errors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}
