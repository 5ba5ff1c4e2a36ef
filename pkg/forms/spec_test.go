package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSpec_Build(t *testing.T) {
	minimum := float64(1000000)
	cond := ConditionSpec{
		Field: "millionaire",
		Is:    true,
		Then: &RuleSpec{Checks: []CheckSpec{
			{Required: true},
			{Min: &minimum, Message: "Money should be minimum 1,000,000"},
		}},
		Otherwise: &RuleSpec{Checks: []CheckSpec{{Required: true}}},
	}

	base, err := RuleSpec{}.Build("money", KindFor(FieldNumber))
	require.NoError(t, err)
	rule, err := cond.Build(base)
	require.NoError(t, err)

	_, msg := rule.Check(Values{"millionaire": true, "money": "500"})
	assert.Equal(t, "Money should be minimum 1,000,000", msg)
	_, msg = rule.Check(Values{"millionaire": false, "money": "500"})
	assert.Empty(t, msg)
}

func TestRuleSpec_Errors(t *testing.T) {
	_, err := RuleSpec{Kind: "date"}.Build("x", KindString)
	assert.ErrorContains(t, err, `unknown rule kind "date"`)

	_, err = RuleSpec{Checks: []CheckSpec{{}}}.Build("x", KindString)
	assert.ErrorContains(t, err, "expected exactly one constraint")

	_, err = RuleSpec{Checks: []CheckSpec{{Matches: "("}}}.Build("x", KindString)
	assert.ErrorContains(t, err, "invalid pattern")

	_, err = ConditionSpec{}.Build(String("x"))
	assert.ErrorContains(t, err, "condition without field")
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindNumber, KindFor(FieldNumber))
	assert.Equal(t, KindBool, KindFor(FieldCheckbox))
	assert.Equal(t, KindString, KindFor(FieldTextarea))
}
