package forms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wealthSchema() *Schema {
	return Object(
		Mixed("money").When("millionaire", Is(true),
			Number("money").Required().Min(1000000, "Money should be minimum 1,000,000"),
			Number("money").Required(),
		),
	)
}

func TestSchema_RequiredMessages(t *testing.T) {
	schema := Object(
		String("firstName").Required("First name is required"),
		String("lastName").Required("Last name is required"),
	)

	_, errs := schema.Validate(Values{"firstName": "", "lastName": "Lee"})
	require.Len(t, errs, 1)
	assert.Equal(t, FieldError{Field: "firstName", Message: "First name is required"}, errs[0])

	_, errs = schema.Validate(Values{"firstName": "  ", "lastName": ""})
	assert.Equal(t, []string{"firstName", "lastName"}, errs.Fields())
}

func TestSchema_DefaultRequiredMessage(t *testing.T) {
	_, errs := Object(String("description").Required()).Validate(Values{})
	assert.Equal(t, "description is a required field", errs.Get("description"))
}

func TestSchema_OnlyOwnFieldsValidated(t *testing.T) {
	schema := Object(String("firstName").Required())

	coerced, errs := schema.Validate(Values{"firstName": "Ann", "description": ""})
	assert.Empty(t, errs)
	assert.Equal(t, Values{"firstName": "Ann"}, coerced)
}

func TestConditional_MillionaireNeedsMinimum(t *testing.T) {
	_, errs := wealthSchema().Validate(Values{"millionaire": true, "money": 500})
	require.Len(t, errs, 1)
	assert.Equal(t, "Money should be minimum 1,000,000", errs.Get("money"))

	coerced, errs := wealthSchema().Validate(Values{"millionaire": true, "money": "2000000"})
	assert.Empty(t, errs)
	assert.Equal(t, float64(2000000), coerced["money"])
}

func TestConditional_NotMillionaireAnyAmount(t *testing.T) {
	for _, money := range []any{500, "500", 1.5, float64(999999)} {
		_, errs := wealthSchema().Validate(Values{"millionaire": false, "money": money})
		assert.Empty(t, errs, "money=%v", money)
	}
}

func TestConditional_MoneyRejectsNaN(t *testing.T) {
	for _, money := range []any{"NaN", "nan", math.NaN()} {
		coerced, errs := wealthSchema().Validate(Values{"millionaire": true, "money": money})
		assert.Equal(t, "money must be a number", errs.Get("money"), "money=%v", money)
		assert.NotContains(t, coerced, "money")
	}
}

func TestConditional_DecodedIntegerKinds(t *testing.T) {
	for _, money := range []any{uint8(200), uint16(500), int16(500), int8(5), uint32(500), int32(500)} {
		_, errs := wealthSchema().Validate(Values{"millionaire": false, "money": money})
		assert.Empty(t, errs, "money=%T", money)

		_, errs = wealthSchema().Validate(Values{"millionaire": true, "money": money})
		assert.Equal(t, "Money should be minimum 1,000,000", errs.Get("money"), "money=%T", money)
	}
}

func TestConditional_MoneyStillRequired(t *testing.T) {
	_, errs := wealthSchema().Validate(Values{"millionaire": false, "money": ""})
	assert.Equal(t, "money is a required field", errs.Get("money"))
}

func TestConditional_CheckboxStringsCoerced(t *testing.T) {
	_, errs := wealthSchema().Validate(Values{"millionaire": "on", "money": "10"})
	assert.Equal(t, "Money should be minimum 1,000,000", errs.Get("money"))
}

func TestNumber_TypeError(t *testing.T) {
	_, errs := Object(Number("age").Required()).Validate(Values{"age": "abc"})
	assert.Equal(t, "age must be a number", errs.Get("age"))

	_, errs = Object(Number("age").TypeError("Age must be numeric")).Validate(Values{"age": "abc"})
	assert.Equal(t, "Age must be numeric", errs.Get("age"))
}

func TestFieldRule_FirstFailingCheckWins(t *testing.T) {
	rule := String("username").MinLength(3).Matches(`^[a-z]+$`)

	_, msg := rule.Check(Values{"username": "A"})
	assert.Equal(t, "username must be at least 3 characters", msg)

	_, msg = rule.Check(Values{"username": "ABCD"})
	assert.Contains(t, msg, "must match the following")

	v, msg := rule.Check(Values{"username": "abcd"})
	assert.Empty(t, msg)
	assert.Equal(t, "abcd", v)
}

func TestFieldRule_Optional(t *testing.T) {
	_, msg := Number("money").Min(10).Check(Values{})
	assert.Empty(t, msg)
}

func TestFieldRule_TestSeesAllValues(t *testing.T) {
	rule := String("confirm").Test(func(value any, values Values) bool {
		return value == values["password"]
	}, "Passwords do not match")

	_, msg := rule.Check(Values{"password": "secret", "confirm": "secrets"})
	assert.Equal(t, "Passwords do not match", msg)
}

func TestFieldRule_UseValidator(t *testing.T) {
	rule := String("email").Use(EmailValidator{})
	_, msg := rule.Check(Values{"email": "nope"})
	assert.Equal(t, "Please enter a valid email address", msg)
}

func TestFieldRule_OneOf(t *testing.T) {
	rule := Number("count").OneOf([]any{1, 3, 5})
	_, msg := rule.Check(Values{"count": "3"})
	assert.Empty(t, msg)
	_, msg = rule.Check(Values{"count": 2})
	assert.Equal(t, "count must be one of the following values: 1, 3, 5", msg)
}

func TestBool_RequiredAcceptsFalse(t *testing.T) {
	v, msg := Bool("terms").Required().Check(Values{"terms": false})
	assert.Empty(t, msg)
	assert.Equal(t, false, v)
}

func TestRuleFunc(t *testing.T) {
	var rule Rule = RuleFunc(func(values Values) (Values, Errors) {
		return nil, Errors{{Field: "x", Message: "bad"}}
	})
	_, errs := rule.Validate(nil)
	assert.EqualError(t, errs, "x: bad")
}
