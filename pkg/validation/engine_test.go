package validation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-calculator/pkg/model"
)

func retirementRules() []model.ValidationRule {
	return []model.ValidationRule{
		{
			Field:   "currentAge",
			Type:    model.RuleRequired,
			Message: "Current age is required",
			Validator: func(value any, _ model.Values) bool {
				age, ok := model.ToNumber(value)
				return ok && age >= 18 && age <= 100
			},
		},
		{
			Field:      "retirementAge",
			Type:       model.RuleCrossField,
			Message:    "Retirement age must be greater than current age",
			Expression: "retirementAge > currentAge",
		},
		{
			Field:   "rothPercentage",
			Type:    model.RuleRange,
			Message: "Roth percentage must be between 0 and 100",
			Min:     model.Float(0),
			Max:     model.Float(100),
			When:    `planType == "roth"`,
		},
	}
}

func TestValidateEmptyRulesIsValid(t *testing.T) {
	t.Parallel()

	result := Validate(nil, model.Values{"anything": 1})
	if !result.Valid {
		t.Fatalf("expected empty rule set to be valid, got %#v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %#v", result.Errors)
	}

	result = Validate(nil, nil)
	if !result.Valid {
		t.Fatalf("expected nil inputs with no rules to be valid")
	}
}

func TestValidateCrossFieldRetirementAge(t *testing.T) {
	t.Parallel()

	rules := retirementRules()

	result := Validate(rules, model.Values{"currentAge": 30, "retirementAge": 25})
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if got := result.Errors["retirementAge"]; got != "Retirement age must be greater than current age" {
		t.Fatalf("unexpected retirementAge error %q", got)
	}

	result = Validate(rules, model.Values{"currentAge": 30, "retirementAge": 65})
	if !result.Valid {
		t.Fatalf("expected valid result, got %#v", result.Errors)
	}
	if _, ok := result.Errors["retirementAge"]; ok {
		t.Fatalf("expected no retirementAge error")
	}
}

func TestValidateRequiredAgeScenario(t *testing.T) {
	t.Parallel()

	rules := retirementRules()[:1]

	cases := []struct {
		name  string
		input model.Values
		want  map[string]string
	}{
		{name: "under age", input: model.Values{"currentAge": 15}, want: map[string]string{"currentAge": "Current age is required"}},
		{name: "missing", input: model.Values{}, want: map[string]string{"currentAge": "Current age is required"}},
		{name: "not a number", input: model.Values{"currentAge": "abc"}, want: map[string]string{"currentAge": "Current age is required"}},
		{name: "in range", input: model.Values{"currentAge": 40}, want: nil},
		{name: "string in range", input: model.Values{"currentAge": "40"}, want: nil},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := Validate(rules, tc.input)
			if diff := cmp.Diff(tc.want, result.Errors); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
			if result.Valid != (len(tc.want) == 0) {
				t.Fatalf("expected Valid=%v", len(tc.want) == 0)
			}
		})
	}
}

func TestValidateDeclarativeRequiredWithBounds(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{{
		Field:   "currentAge",
		Type:    model.RuleRequired,
		Message: "Current age is required",
		Min:     model.Float(18),
		Max:     model.Float(100),
	}}

	if Validate(rules, model.Values{"currentAge": 15}).Valid {
		t.Fatalf("expected 15 to fail")
	}
	if !Validate(rules, model.Values{"currentAge": 40}).Valid {
		t.Fatalf("expected 40 to pass")
	}
}

func TestValidateGuardSkipsInapplicableRule(t *testing.T) {
	t.Parallel()

	rules := retirementRules()
	base := model.Values{"currentAge": 30, "retirementAge": 65}

	traditional := base.Clone()
	traditional["planType"] = "traditional"
	traditional["rothPercentage"] = 150
	if result := Validate(rules, traditional); !result.Valid {
		t.Fatalf("expected guard to skip roth rule, got %#v", result.Errors)
	}

	roth := base.Clone()
	roth["planType"] = "roth"
	roth["rothPercentage"] = 150
	result := Validate(rules, roth)
	if got := result.Errors["rothPercentage"]; got != "Roth percentage must be between 0 and 100" {
		t.Fatalf("expected roth rule to fire, got %q", got)
	}
}

func TestValidateLastWriteWins(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{
		{Field: "amount", Type: model.RuleRequired, Message: "Amount is required"},
		{Field: "amount", Type: model.RuleMin, Min: model.Float(1), Message: "Amount must be positive"},
		{Field: "amount", Type: model.RuleCustom, Message: "Amount must be positive", Validator: func(any, model.Values) bool { return false }},
	}

	result := Validate(rules, model.Values{"amount": ""})
	if got := result.Errors["amount"]; got != "Amount must be positive" {
		t.Fatalf("expected last failing message to win, got %q", got)
	}
	want := []string{"Amount is required", "Amount must be positive"}
	if diff := cmp.Diff(want, result.Messages["amount"]); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateNaNIsInvalid(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{
		{Field: "rate", Type: model.RuleRange, Min: model.Float(0), Max: model.Float(100), Message: "Rate must be between 0 and 100"},
	}
	if Validate(rules, model.Values{"rate": "n/a"}).Valid {
		t.Fatalf("expected non-numeric value to fail range rule")
	}
	if !Validate(rules, model.Values{}).Valid {
		t.Fatalf("expected absent value to pass range rule")
	}
	if Validate(rules, model.Values{"rate": 101}).Valid {
		t.Fatalf("expected out-of-range value to fail")
	}
	if Validate(rules, model.Values{"rate": math.NaN()}).Valid {
		t.Fatalf("expected NaN to fail range rule")
	}
}

func TestValidateRequiredRejectsNaN(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{
		{Field: "amount", Type: model.RuleRequired, Message: "Amount is required"},
	}
	for _, value := range []any{math.NaN(), float32(math.NaN())} {
		result := Validate(rules, model.Values{"amount": value})
		if got := result.Errors["amount"]; got != "Amount is required" {
			t.Fatalf("expected NaN %T to fail required rule, got %q", value, got)
		}
	}
	if !Validate(rules, model.Values{"amount": 0}).Valid {
		t.Fatalf("expected zero to satisfy required rule")
	}
}

func TestValidatePanickingValidatorFailsRule(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{
		{
			Field:   "amount",
			Type:    model.RuleCustom,
			Message: "Amount could not be checked",
			Validator: func(value any, _ model.Values) bool {
				return value.(float64) > 0
			},
		},
		{Field: "label", Type: model.RuleRequired, Message: "Label is required"},
	}

	result := Validate(rules, model.Values{"amount": "ten"})
	want := map[string]string{
		"amount": "Amount could not be checked",
		"label":  "Label is required",
	}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if !Validate(rules, model.Values{"amount": 5.0, "label": "ok"}).Valid {
		t.Fatalf("expected well-typed values to pass")
	}
}

func TestValidateFormatRule(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{
		{Field: "zip", Type: model.RuleFormat, Pattern: `^\d{5}$`, Message: "ZIP must be five digits"},
	}
	if !Validate(rules, model.Values{"zip": "12345"}).Valid {
		t.Fatalf("expected valid zip")
	}
	if Validate(rules, model.Values{"zip": "1234a"}).Valid {
		t.Fatalf("expected invalid zip")
	}

	broken := []model.ValidationRule{
		{Field: "zip", Type: model.RuleFormat, Pattern: `(`, Message: "broken"},
	}
	if Validate(broken, model.Values{"zip": "12345"}).Valid {
		t.Fatalf("expected unparsable pattern to fail")
	}
}

func TestValidateUnresolvableRuleFails(t *testing.T) {
	t.Parallel()

	rules := []model.ValidationRule{
		{Field: "x", Type: model.RuleBusiness, Message: "no predicate"},
		{Field: "y", Type: model.RuleCustom, ValidatorName: "missing", Message: "unknown validator"},
	}
	result := Validate(rules, model.Values{"x": 1, "y": 2})
	want := map[string]string{"x": "no predicate", "y": "unknown validator"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

type lookupFunc func(string) (model.Validator, bool)

func (fn lookupFunc) Validator(name string) (model.Validator, bool) { return fn(name) }

func TestEngineNamedValidators(t *testing.T) {
	t.Parallel()

	engine := NewEngine(WithValidators(lookupFunc(func(name string) (model.Validator, bool) {
		if name != "positive-number" {
			return nil, false
		}
		return func(value any, _ model.Values) bool {
			n, ok := model.ToNumber(value)
			return ok && n > 0
		}, true
	})))

	rules := []model.ValidationRule{
		{Field: "amount", Type: model.RuleCustom, ValidatorName: "positive-number", Message: "Amount must be positive"},
	}
	if !engine.Validate(rules, model.Values{"amount": 10}).Valid {
		t.Fatalf("expected positive amount to pass")
	}
	if engine.Validate(rules, model.Values{"amount": -1}).Valid {
		t.Fatalf("expected negative amount to fail")
	}
}

func TestValidateIsPure(t *testing.T) {
	t.Parallel()

	rules := retirementRules()
	inputs := model.Values{"currentAge": 15, "retirementAge": 10, "planType": "roth", "rothPercentage": 120}
	snapshot := inputs.Clone()

	first := Validate(rules, inputs)
	second := Validate(rules, inputs)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated validation differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, inputs); diff != "" {
		t.Fatalf("inputs mutated (-want +got):\n%s", diff)
	}
}

func TestValidateFieldOnlyRunsFieldRules(t *testing.T) {
	t.Parallel()

	rules := retirementRules()
	inputs := model.Values{"currentAge": 15, "retirementAge": 10}

	result := ValidateField(rules, "retirementAge", inputs)
	want := map[string]string{"retirementAge": "Retirement age must be greater than current age"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}
