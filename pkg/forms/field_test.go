package forms

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromURLValues(t *testing.T) {
	fields := []Field{
		TextField("firstName", "First Name"),
		CheckboxField("millionaire", "Millionaire"),
		NumberField("money", "Money"),
	}

	got := FromURLValues(fields, url.Values{"firstName": {" Ann "}, "money": {"500"}})
	assert.Equal(t, Values{"firstName": "Ann", "millionaire": false, "money": "500"}, got)

	got = FromURLValues(fields, url.Values{"millionaire": {"on"}})
	assert.Equal(t, Values{"millionaire": true}, got)
}

func TestFromPayload(t *testing.T) {
	fields := []Field{
		TextField("lastName", "Last Name"),
		CheckboxField("millionaire", "Millionaire"),
	}

	got := FromPayload(fields, map[string]any{"lastName": "Lee ", "millionaire": true, "other": 1})
	assert.Equal(t, Values{"lastName": "Lee", "millionaire": true}, got)

	got = FromPayload(fields, map[string]any{})
	assert.Equal(t, Values{"millionaire": false}, got)
}

func TestValuesHelpers(t *testing.T) {
	v := Values{"money": float64(2000000), "flag": "on", "name": "Ann"}
	assert.Equal(t, "2000000", v.String("money"))
	assert.True(t, v.Bool("flag"))
	n, ok := v.Float("money")
	assert.True(t, ok)
	assert.Equal(t, float64(2000000), n)
	assert.Equal(t, []string{"flag", "money", "name"}, v.Keys())

	merged := v.Merge(Values{"name": "Bo"})
	assert.Equal(t, "Bo", merged["name"])
	assert.Equal(t, "Ann", v["name"])
}

func TestFieldConstructors(t *testing.T) {
	sel := SelectField("plan", "Plan", []Option{{Value: "a", Label: "A"}}, WithHelp("Pick one"))
	assert.Equal(t, FieldSelect, sel.Type)
	assert.Equal(t, "Pick one", sel.Help)
	assert.Len(t, sel.Options, 1)

	email := EmailField("email", "Email", WithPlaceholder("you@example.com"))
	assert.Equal(t, FieldEmail, email.Type)
	assert.Equal(t, "you@example.com", email.Placeholder)

	assert.Equal(t, FieldTextarea, TextareaField("bio", "Bio").Type)
}
