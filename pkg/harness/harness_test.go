package harness

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/registry"
)

func calmar() model.Calculator {
	return model.Calculator{
		ID:       "calmar-ratio-calculator",
		Title:    "Calmar Ratio Calculator",
		Category: model.CategoryFinance,
		Examples: []model.Example{{
			Title:           "Placeholder",
			Inputs:          model.Values{"value": 100},
			ExpectedOutputs: model.Values{"result": 100},
		}},
	}
}

func doubler(examples ...model.Example) model.Calculator {
	return model.Calculator{
		ID:       "doubler",
		Title:    "Doubler",
		Category: model.CategoryMath,
		Inputs:   []model.Input{{ID: "x", Label: "X", Type: model.InputTypeNumber, Required: true}},
		Outputs: []model.Output{
			{ID: "y", Label: "Y", Type: model.OutputTypeNumber},
			{ID: "label", Label: "Label", Type: model.OutputTypeText},
		},
		Formulas: []model.Formula{{
			ID: "double",
			Calculate: func(in model.Values) (model.FormulaResult, error) {
				x, ok := in.Number("x")
				if !ok {
					return model.FormulaResult{}, errors.New("x is not a number")
				}
				return model.FormulaResult{Outputs: model.Values{"y": x * 2, "label": "doubled"}}, nil
			},
		}},
		ValidationRules: []model.ValidationRule{
			{Field: "x", Type: model.RuleRange, Min: model.Float(0), Max: model.Float(1000), Message: "X must be between 0 and 1000"},
		},
		Examples: examples,
	}
}

func TestRunReportsCalmarAsUntested(t *testing.T) {
	t.Parallel()

	report := Run([]model.Calculator{calmar()})
	if len(report.Calculators) != 1 {
		t.Fatalf("expected one calculator result, got %d", len(report.Calculators))
	}
	calc := report.Calculators[0]
	if calc.Status != StatusUntested {
		t.Fatalf("expected untested calculator, got %s (%s)", calc.Status, calc.Reason)
	}
	if calc.Examples[0].Status != StatusUntested {
		t.Fatalf("expected untested example, got %s", calc.Examples[0].Status)
	}
	if report.Failed() {
		t.Fatalf("expected no failures")
	}
	want := Totals{Calculators: 1, Untested: 1, Examples: 1}
	if diff := cmp.Diff(want, report.Totals); diff != "" {
		t.Fatalf("totals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"calmar-ratio-calculator"}, report.Untested()); diff != "" {
		t.Fatalf("untested mismatch (-want +got):\n%s", diff)
	}
	if report.Status != StatusUntested {
		t.Fatalf("expected untested overall status, got %s", report.Status)
	}
}

func TestRunComparesOutputs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		example    model.Example
		status     Status
		mismatches []Mismatch
	}{
		{
			name:    "exact",
			example: model.Example{Title: "exact", Inputs: model.Values{"x": 21}, ExpectedOutputs: model.Values{"y": 42, "label": "doubled"}},
			status:  StatusPassed,
		},
		{
			name:    "within tolerance",
			example: model.Example{Title: "tolerance", Inputs: model.Values{"x": 0.1}, ExpectedOutputs: model.Values{"y": 0.2000000001}},
			status:  StatusPassed,
		},
		{
			name:       "numeric mismatch",
			example:    model.Example{Title: "wrong", Inputs: model.Values{"x": 2}, ExpectedOutputs: model.Values{"y": 5}},
			status:     StatusFailed,
			mismatches: []Mismatch{{Output: "y", Expected: 5, Actual: 4.0}},
		},
		{
			name:       "string mismatch",
			example:    model.Example{Title: "label", Inputs: model.Values{"x": 2}, ExpectedOutputs: model.Values{"label": "tripled"}},
			status:     StatusFailed,
			mismatches: []Mismatch{{Output: "label", Expected: "tripled", Actual: "doubled"}},
		},
		{
			name:       "missing output",
			example:    model.Example{Title: "missing", Inputs: model.Values{"x": 2}, ExpectedOutputs: model.Values{"z": 1}},
			status:     StatusFailed,
			mismatches: []Mismatch{{Output: "z", Expected: 1, Missing: true}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			report := Run([]model.Calculator{doubler(tc.example)})
			got := report.Calculators[0]
			if got.Status != tc.status {
				t.Fatalf("expected %s, got %s (%s)", tc.status, got.Status, got.Examples[0].Reason)
			}
			if diff := cmp.Diff(tc.mismatches, got.Examples[0].Mismatches); diff != "" {
				t.Fatalf("mismatches (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunFailsExamplesWithInvalidInputs(t *testing.T) {
	t.Parallel()

	report := Run([]model.Calculator{doubler(model.Example{
		Title:           "out of range",
		Inputs:          model.Values{"x": 5000},
		ExpectedOutputs: model.Values{"y": 10000},
	})})

	example := report.Calculators[0].Examples[0]
	if example.Status != StatusFailed {
		t.Fatalf("expected failed example, got %s", example.Status)
	}
	if example.Reason != "example inputs fail the calculator's own validation rules" {
		t.Fatalf("unexpected reason %q", example.Reason)
	}
	if example.Errors["x"] != "X must be between 0 and 1000" {
		t.Fatalf("unexpected errors %#v", example.Errors)
	}
}

func TestRunReportsCalculationErrors(t *testing.T) {
	t.Parallel()

	report := Run([]model.Calculator{doubler(model.Example{
		Title:           "missing input",
		Inputs:          model.Values{},
		ExpectedOutputs: model.Values{"y": 0},
	})})

	example := report.Calculators[0].Examples[0]
	if example.Status != StatusFailed {
		t.Fatalf("expected failed example, got %s", example.Status)
	}
	if example.Reason != "formula-error: x is not a number" {
		t.Fatalf("unexpected reason %q", example.Reason)
	}
}

func TestRunWithoutExamplesIsUntested(t *testing.T) {
	t.Parallel()

	report := Run([]model.Calculator{doubler()})
	if got := report.Calculators[0]; got.Status != StatusUntested || got.Reason != "no examples declared" {
		t.Fatalf("unexpected result %#v", got)
	}
}

func TestWithToleranceTightensComparison(t *testing.T) {
	t.Parallel()

	calc := doubler(model.Example{Title: "close", Inputs: model.Values{"x": 1}, ExpectedOutputs: model.Values{"y": 2.001}})
	if Run([]model.Calculator{calc}).Failed() != true {
		t.Fatalf("expected default tolerance to reject 0.001 difference")
	}
	if Run([]model.Calculator{calc}, WithTolerance(0.01)).Failed() {
		t.Fatalf("expected loose tolerance to accept 0.001 difference")
	}
}

func TestRunRegistryIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.MustRegister(calmar())
	reg.MustRegister(doubler(
		model.Example{Title: "ok", Inputs: model.Values{"x": 3}, ExpectedOutputs: model.Values{"y": 6}},
		model.Example{Title: "bad", Inputs: model.Values{"x": 3}, ExpectedOutputs: model.Values{"y": 7}},
	))

	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	first := RunRegistry(reg, WithClock(clock))
	second := RunRegistry(reg, WithClock(clock))

	if first.RunID == second.RunID {
		t.Fatalf("expected distinct run ids")
	}
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(Report{}, "RunID")); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}
	if first.Totals.Failed != 1 || first.Totals.Untested != 1 {
		t.Fatalf("unexpected totals %#v", first.Totals)
	}
	if first.Score != 0 || first.Status != StatusFailed {
		t.Fatalf("expected score 0 and failed status, got %v %s", first.Score, first.Status)
	}
}

func TestOverallStatusThresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		totals Totals
		want   Status
	}{
		{Totals{Passed: 19, Failed: 1}, StatusPassed},
		{Totals{Passed: 17, Failed: 3}, StatusWarning},
		{Totals{Passed: 1, Failed: 1}, StatusFailed},
		{Totals{Untested: 4}, StatusUntested},
	}
	for _, tc := range cases {
		if got := overallStatus(tc.totals, score(tc.totals)); got != tc.want {
			t.Fatalf("totals %#v: expected %s, got %s", tc.totals, tc.want, got)
		}
	}
}
