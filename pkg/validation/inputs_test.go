package validation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-calculator/pkg/model"
)

func TestValidateInputsSchemaChecks(t *testing.T) {
	t.Parallel()

	calc := validCalculator()
	calc.Inputs = append(calc.Inputs,
		model.Input{ID: "startDate", Label: "Start Date", Type: model.InputTypeDate},
		model.Input{ID: "smoker", Label: "Smoker", Type: model.InputTypeBoolean},
	)

	cases := []struct {
		name  string
		input model.Values
		want  map[string]string
	}{
		{
			name:  "valid",
			input: model.Values{"currentAge": 40, "retirementAge": 65, "planType": "roth", "rothPercentage": 50, "startDate": "2024-01-31", "smoker": "no"},
			want:  nil,
		},
		{
			name:  "unknown key",
			input: model.Values{"currentAge": 40, "retirementAge": 65, "bonus": 1},
			want:  map[string]string{"bonus": `unknown input "bonus"`},
		},
		{
			name:  "missing required",
			input: model.Values{"currentAge": 40},
			want: map[string]string{
				"retirementAge": "Retirement age must be greater than current age",
			},
		},
		{
			name:  "bad types",
			input: model.Values{"currentAge": 40, "retirementAge": 65, "planType": "hybrid", "startDate": "31/01/2024", "smoker": "maybe"},
			want: map[string]string{
				"planType":  `Plan Type must be one of "traditional", "roth"`,
				"startDate": "Start Date must be a date (YYYY-MM-DD)",
				"smoker":    "Smoker must be true or false",
			},
		},
		{
			name:  "input bounds",
			input: model.Values{"currentAge": 120, "retirementAge": 130},
			want: map[string]string{
				"currentAge": "Current age is required",
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := ValidateInputs(calc, tc.input)
			if diff := cmp.Diff(tc.want, result.Errors); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
			if result.Valid != (len(tc.want) == 0) {
				t.Fatalf("expected Valid=%v", len(tc.want) == 0)
			}
		})
	}
}

func TestCheckInputSeparatesNaNFromAbsent(t *testing.T) {
	t.Parallel()

	required := model.Input{ID: "amount", Label: "Amount", Type: model.InputTypeCurrency, Required: true}
	optional := model.Input{ID: "tip", Label: "Tip", Type: model.InputTypeNumber}

	cases := []struct {
		name  string
		input model.Input
		value any
		want  string
		ok    bool
	}{
		{name: "required absent", input: required, value: nil, want: "Amount is required"},
		{name: "required NaN", input: required, value: math.NaN(), want: "Amount must be a number"},
		{name: "optional absent", input: optional, value: "  ", ok: true},
		{name: "optional NaN", input: optional, value: math.NaN(), want: "Tip must be a number"},
		{name: "optional float32 NaN", input: optional, value: float32(math.NaN()), want: "Tip must be a number"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg, ok := CheckInput(tc.input, tc.value)
			if msg != tc.want || ok != tc.ok {
				t.Fatalf("CheckInput = (%q, %v), want (%q, %v)", msg, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestValidateInputsKeepsSchemaMessages(t *testing.T) {
	t.Parallel()

	calc := validCalculator()
	result := ValidateInputs(calc, model.Values{"currentAge": 120, "retirementAge": 130})

	want := []string{"Current Age must be at most 100", "Current age is required"}
	if diff := cmp.Diff(want, result.Messages["currentAge"]); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestCoerceParsesByType(t *testing.T) {
	t.Parallel()

	calc := validCalculator()
	calc.Inputs[3].DefaultValue = 25.0

	values, result := Coerce(calc, map[string]string{
		"currentAge":    " 40 ",
		"retirementAge": "65",
		"planType":      "roth",
	})
	if !result.Valid {
		t.Fatalf("expected valid result, got %#v", result.Errors)
	}
	want := model.Values{
		"currentAge":     40.0,
		"retirementAge":  65.0,
		"planType":       "roth",
		"rothPercentage": 25.0,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCoerceReportsUnparsableValues(t *testing.T) {
	t.Parallel()

	calc := validCalculator()
	values, result := Coerce(calc, map[string]string{
		"currentAge":    "forty",
		"retirementAge": "65",
		"extra":         "1",
	})
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if values["currentAge"] != "forty" {
		t.Fatalf("expected raw value to be kept, got %#v", values["currentAge"])
	}
	if _, ok := result.Errors["extra"]; !ok {
		t.Fatalf("expected unknown input error for extra")
	}
	wantMessages := []string{"Current Age must be a number", "Current age is required"}
	if diff := cmp.Diff(wantMessages, result.Messages["currentAge"]); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestCoerceCurrencyFormatting(t *testing.T) {
	t.Parallel()

	calc := model.Calculator{
		ID:       "loan",
		Title:    "Loan",
		Category: model.CategoryFinance,
		Inputs: []model.Input{
			{ID: "principal", Label: "Principal", Type: model.InputTypeCurrency, Required: true},
			{ID: "rate", Label: "Rate", Type: model.InputTypePercentage, Required: true},
		},
	}
	values, result := Coerce(calc, map[string]string{"principal": "$250,000", "rate": "6.5%"})
	if !result.Valid {
		t.Fatalf("expected valid result, got %#v", result.Errors)
	}
	if diff := cmp.Diff(model.Values{"principal": 250000.0, "rate": 6.5}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}
