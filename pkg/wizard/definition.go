package wizard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
)

// Definition is the declarative form of a wizard whose step content is a
// list of form fields.
//
//	title: Onboarding
//	initial:
//	  millionaire: false
//	steps:
//	  - label: Wealth Info
//	    fields:
//	      - name: money
//	        type: number
//	        label: Money
//	        when:
//	          field: millionaire
//	          is: true
//	          then:
//	            checks:
//	              - required: true
//	              - min: 1000000
//	                message: Money should be minimum 1,000,000
type Definition struct {
	Title   string           `yaml:"title"`
	Initial forms.Values     `yaml:"initial,omitempty"`
	Steps   []StepDefinition `yaml:"steps"`
}

// StepDefinition declares one step.
type StepDefinition struct {
	Label  string            `yaml:"label"`
	Fields []FieldDefinition `yaml:"fields"`
}

// FieldDefinition is a field plus its rule.
type FieldDefinition struct {
	forms.Field `yaml:",inline"`

	// Kind overrides the kind derived from the field type.
	Kind  string               `yaml:"kind,omitempty"`
	Rules []forms.CheckSpec    `yaml:"rules,omitempty"`
	When  *forms.ConditionSpec `yaml:"when,omitempty"`
}

// ParseDefinition decodes a YAML definition. Unknown keys are rejected.
func ParseDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigurationError{Reason: "empty definition"}
		}
		return nil, fmt.Errorf("decoding definition: %w", err)
	}
	return &def, nil
}

// LoadDefinitionFile reads and decodes a YAML definition file.
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}
	return ParseDefinition(bytes.NewReader(data))
}

// Steps builds the wizard steps, one schema per step.
func (d *Definition) Steps() ([]Step[[]forms.Field], error) {
	seen := make(map[string]string)
	steps := make([]Step[[]forms.Field], 0, len(d.Steps))

	for _, sd := range d.Steps {
		rules := make([]*forms.FieldRule, 0, len(sd.Fields))
		fields := make([]forms.Field, 0, len(sd.Fields))

		for _, fd := range sd.Fields {
			if fd.Name == "" {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("step %q has a field without a name", sd.Label)}
			}
			if owner, dup := seen[fd.Name]; dup {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("field %q declared in steps %q and %q", fd.Name, owner, sd.Label)}
			}
			seen[fd.Name] = sd.Label

			if fd.Type == "" {
				fd.Type = forms.FieldText
			}
			rule, err := forms.RuleSpec{Kind: fd.Kind, Checks: fd.Rules}.Build(fd.Name, forms.KindFor(fd.Type))
			if err != nil {
				return nil, &ConfigurationError{Reason: err.Error()}
			}
			if fd.When != nil {
				if rule, err = fd.When.Build(rule); err != nil {
					return nil, &ConfigurationError{Reason: err.Error()}
				}
			}

			rules = append(rules, rule)
			fields = append(fields, fd.Field)
		}

		steps = append(steps, Step[[]forms.Field]{
			Label:   sd.Label,
			Rule:    forms.Object(rules...),
			Content: fields,
		})
	}
	return steps, nil
}

// InitialValues returns the declared initial values, with an empty value
// for every field left out: false for checkboxes, "" otherwise.
func (d *Definition) InitialValues() forms.Values {
	values := d.Initial.Clone()
	for _, sd := range d.Steps {
		for _, fd := range sd.Fields {
			if _, ok := values[fd.Name]; ok {
				continue
			}
			if fd.Type == forms.FieldCheckbox {
				values[fd.Name] = false
			} else {
				values[fd.Name] = ""
			}
		}
	}
	return values
}

// New builds a wizard from the definition.
func (d *Definition) New(onSubmit SubmitFunc, opts ...Option) (*Wizard[[]forms.Field], error) {
	steps, err := d.Steps()
	if err != nil {
		return nil, err
	}
	return New(steps, d.InitialValues(), onSubmit, opts...)
}
