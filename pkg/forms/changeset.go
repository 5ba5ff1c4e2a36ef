package forms

import "reflect"

// Changeset provides an Ecto-inspired way to stage submitted values on top of
// existing ones, validate them, and apply them only when valid.
type Changeset struct {
	// Data is the original data.
	Data Values

	// Changes are the submitted values that differ from Data.
	Changes Values

	// Errors contains validation errors in rule order.
	Errors Errors

	// Valid indicates if the changeset has passed validation.
	Valid bool
}

// NewChangeset creates a new changeset from existing data.
func NewChangeset(data Values) *Changeset {
	return &Changeset{
		Data:    data.Clone(),
		Changes: make(Values),
		Valid:   true,
	}
}

// Cast stages params as changes over data. When allowed is non-empty only
// those keys are taken.
func Cast(data, params Values, allowed ...string) *Changeset {
	cs := NewChangeset(data)

	var allowedSet map[string]bool
	if len(allowed) > 0 {
		allowedSet = make(map[string]bool, len(allowed))
		for _, field := range allowed {
			allowedSet[field] = true
		}
	}

	for key, value := range params {
		if allowedSet != nil && !allowedSet[key] {
			continue
		}
		if existing, ok := data[key]; !ok || !reflect.DeepEqual(existing, value) {
			cs.Changes[key] = value
		}
	}

	return cs
}

// Merged returns data overlaid with changes, regardless of validity.
func (cs *Changeset) Merged() Values {
	return cs.Data.Merge(cs.Changes)
}

// Validate runs rule against the merged values. Coerced values are staged
// as changes so that applying stores typed values.
func (cs *Changeset) Validate(rule Rule) *Changeset {
	if rule == nil {
		return cs
	}
	coerced, errs := rule.Validate(cs.Merged())
	for _, fe := range errs {
		cs.AddError(fe.Field, fe.Message)
	}
	for key, value := range coerced {
		cs.Changes[key] = value
	}
	return cs
}

// AddError adds an error to a field.
func (cs *Changeset) AddError(field, message string) *Changeset {
	cs.Errors.Add(field, message)
	cs.Valid = false
	return cs
}

// HasChanges returns true if there are any changes.
func (cs *Changeset) HasChanges() bool {
	return len(cs.Changes) > 0
}

// Apply returns the merged data with changes.
// Returns the validation errors if the changeset is invalid.
func (cs *Changeset) Apply() (Values, error) {
	if !cs.Valid {
		return nil, cs.Errors
	}
	return cs.Merged(), nil
}
