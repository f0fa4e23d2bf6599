package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-calculator/pkg/model"
)

// DoubleFormula returns a formula that writes y = x * 2.
func DoubleFormula() model.Formula {
	return model.Formula{
		ID:   "double",
		Name: "Double",
		Calculate: func(in model.Values) (model.FormulaResult, error) {
			x, ok := in.Number("x")
			if !ok {
				return model.FormulaResult{}, fmt.Errorf("x is not a number")
			}
			return model.FormulaResult{
				Outputs:     model.Values{"y": x * 2},
				Explanation: "Doubled x.",
			}, nil
		},
	}
}

// DoubleCalculator returns a minimal implemented calculator with one
// required numeric input x and one output y. The example expects y = want
// for x = 2.
func DoubleCalculator(id string, want float64) model.Calculator {
	return model.Calculator{
		ID:       id,
		Title:    "Double",
		Category: model.CategoryMath,
		Inputs: []model.Input{
			{ID: "x", Label: "X", Type: model.InputTypeNumber, Required: true},
		},
		Outputs: []model.Output{
			{ID: "y", Label: "Y", Type: model.OutputTypeNumber},
		},
		Formulas: []model.Formula{DoubleFormula()},
		Examples: []model.Example{{
			Title:           "Doubles",
			Inputs:          model.Values{"x": 2},
			ExpectedOutputs: model.Values{"y": want},
		}},
	}
}

// PlaceholderCalculator returns a calculator without formulas whose single
// example can never be checked.
func PlaceholderCalculator(id string) model.Calculator {
	return model.Calculator{
		ID:       id,
		Title:    "Placeholder",
		Category: model.CategoryFinance,
		Inputs: []model.Input{
			{ID: "value", Label: "Value", Type: model.InputTypeNumber},
		},
		Outputs: []model.Output{
			{ID: "result", Label: "Result", Type: model.OutputTypeNumber},
		},
		Examples: []model.Example{{
			Title:           "Placeholder",
			Inputs:          model.Values{"value": 100},
			ExpectedOutputs: model.Values{"result": 100},
		}},
	}
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureOutput runs render against a buffer and returns what was written.
func CaptureOutput(t *testing.T, render func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}
