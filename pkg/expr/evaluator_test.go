package expr

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluatorBooleanComparison(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("smoker", "smoker == true", Context{
		Values: map[string]any{"smoker": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("smoker", "smoker == true", Context{
		Values: map[string]any{"smoker": "true"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for string true")
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("", "includeTax", Context{
		Values: map[string]any{"includeTax": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("", "!includeTax", Context{
		Values: map[string]any{"includeTax": false},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for !false")
	}

	ok, err = eval.Eval("", "missing", Context{Values: map[string]any{}})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected missing identifier to be falsy")
	}
}

func TestEvaluatorFieldToFieldOrdering(t *testing.T) {
	t.Parallel()

	eval := New()
	cases := []struct {
		name   string
		values map[string]any
		want   bool
	}{
		{name: "retirement before current age", values: map[string]any{"currentAge": 30, "retirementAge": 25}, want: false},
		{name: "retirement after current age", values: map[string]any{"currentAge": 30, "retirementAge": 65}, want: true},
		{name: "equal ages", values: map[string]any{"currentAge": 40, "retirementAge": 40}, want: false},
		{name: "string numbers", values: map[string]any{"currentAge": "30", "retirementAge": "65"}, want: true},
		{name: "non numeric side", values: map[string]any{"currentAge": "thirty", "retirementAge": 65}, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := eval.Eval("retirementAge", "retirementAge > currentAge", Context{Values: tc.values})
			if err != nil {
				t.Fatalf("Eval returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEvaluatorNumericLiterals(t *testing.T) {
	t.Parallel()

	eval := New()
	values := map[string]any{"age": 18.0, "rate": "5.5", "label": "abc"}

	cases := map[string]bool{
		"age >= 18":              true,
		"age > 18":               false,
		"age <= 100 && age >= 0": true,
		"rate < 6":               true,
		"rate == 5.5":            true,
		"age != 18":              false,
		"missing > 0":            false,
		"missing == 0":           false,
		"missing != 0":           true,
		"label == 0":             false,
		"label != 0":             true,
	}
	for rule, want := range cases {
		got, err := eval.Eval("", rule, Context{Values: values})
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("Eval(%q): expected %v, got %v", rule, want, got)
		}
	}
}

func TestEvaluatorStringAndGuardComposition(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("rothPercentage", `planType != "roth" || (rothPercentage >= 0 && rothPercentage <= 100)`, Context{
		Values: map[string]any{"planType": "roth", "rothPercentage": 120},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected out-of-range roth percentage to fail")
	}

	ok, err = eval.Eval("rothPercentage", `planType == 'traditional'`, Context{
		Values: map[string]any{"planType": "traditional"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected single-quoted literal to match")
	}

	ok, err = eval.Eval("", "planType == roth", Context{
		Values: map[string]any{"planType": "roth"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected bare identifier without a field to compare as a string")
	}
}

func TestEvaluatorNullAndDotPath(t *testing.T) {
	t.Parallel()

	eval := New()
	values := map[string]any{
		"loan": map[string]any{"term": 30},
		"note": nil,
	}

	ok, err := eval.Eval("", "loan.term >= 15 && note == null", Context{Values: values})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected dot path and null checks to hold")
	}
}

func TestEvaluatorEmptyRule(t *testing.T) {
	t.Parallel()

	ok, err := New().Eval("", "   ", Context{})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected empty rule to hold")
	}
}

func TestCheckRejectsMalformedRules(t *testing.T) {
	t.Parallel()

	bad := []string{
		"age = 18",
		"age > ",
		"(age > 18",
		`name == "open`,
		"a & b",
		`"x" == name`,
		`flag < true`,
	}
	for _, rule := range bad {
		if err := Check(rule); err == nil {
			t.Fatalf("expected %q to be rejected", rule)
		}
	}

	if err := Check("retirementAge > currentAge && !retired"); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
}

func TestEvaluatorNumericKinds(t *testing.T) {
	t.Parallel()

	eval := New()
	values := map[string]any{
		"small":  int8(5),
		"byte":   uint8(200),
		"wide":   uint32(7),
		"parsed": json.Number("12.5"),
	}

	cases := map[string]bool{
		"small == 5":     true,
		"small > 4":      true,
		"byte >= 200":    true,
		"wide < 8":       true,
		"parsed == 12.5": true,
		"parsed > small": true,
	}
	for rule, want := range cases {
		got, err := eval.Eval("", rule, Context{Values: values})
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("Eval(%q): expected %v, got %v", rule, want, got)
		}
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	got, err := Fields(`pricePerUnit > variableCostPerUnit && (mode == "fast" || pricePerUnit != null) && !flag.enabled`)
	if err != nil {
		t.Fatalf("Fields returned error: %v", err)
	}
	want := []string{"pricePerUnit", "variableCostPerUnit", "mode", "flag.enabled"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	empty, err := Fields("  ")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no fields for empty rule, got %v (%v)", empty, err)
	}

	if _, err := Fields(`name == "open`); err == nil {
		t.Fatalf("expected error for unterminated literal")
	}
}
