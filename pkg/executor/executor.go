package executor

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// Status describes whether a calculation produced authoritative outputs.
type Status string

const (
	StatusOK             Status = "ok"
	StatusNotImplemented Status = "not-implemented"
)

// Result is the merged output of every formula a calculator declares.
type Result struct {
	Status       Status       `json:"status"`
	CalculatorID string       `json:"calculatorId"`
	Outputs      model.Values `json:"outputs,omitempty"`
	Explanation  string       `json:"explanation,omitempty"`
	Steps        []model.Step `json:"steps,omitempty"`
}

// Implemented reports whether outputs came from at least one formula.
func (r Result) Implemented() bool {
	return r.Status == StatusOK
}

// Execute runs every formula of calc in declaration order. Output maps are
// merged with later formulas overriding earlier keys; explanations are joined
// and steps concatenated. Inputs are not re-validated. A calculator without
// formulas returns StatusNotImplemented and a nil error.
func Execute(calc model.Calculator, inputs model.Values) (Result, error) {
	result := Result{CalculatorID: calc.ID}
	if len(calc.Formulas) == 0 {
		result.Status = StatusNotImplemented
		return result, nil
	}

	var explanations []string
	outputs := make(model.Values)
	for _, formula := range calc.Formulas {
		produced, err := invoke(calc.ID, formula, inputs.Clone())
		if err != nil {
			return Result{CalculatorID: calc.ID}, err
		}
		for key, value := range produced.Outputs {
			outputs[key] = value
		}
		if text := strings.TrimSpace(produced.Explanation); text != "" {
			explanations = append(explanations, text)
		}
		result.Steps = append(result.Steps, produced.Steps...)
	}

	result.Status = StatusOK
	result.Outputs = outputs
	result.Explanation = strings.Join(explanations, " ")
	return result, nil
}

func invoke(calculatorID string, formula model.Formula, inputs model.Values) (out model.FormulaResult, err error) {
	if formula.Calculate == nil {
		return model.FormulaResult{}, &CalculationError{
			Kind:         KindFormulaError,
			CalculatorID: calculatorID,
			FormulaID:    formula.ID,
			Message:      "formula has no calculate function",
		}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			out = model.FormulaResult{}
			err = &CalculationError{
				Kind:         KindFormulaError,
				CalculatorID: calculatorID,
				FormulaID:    formula.ID,
				Message:      fmt.Sprintf("panic: %v", recovered),
			}
		}
	}()

	out, err = formula.Calculate(inputs)
	if err != nil {
		return model.FormulaResult{}, &CalculationError{
			Kind:         KindFormulaError,
			CalculatorID: calculatorID,
			FormulaID:    formula.ID,
			Message:      err.Error(),
			Err:          err,
		}
	}
	return out, nil
}

// Option configures an Executor.
type Option func(*Executor)

// WithEngine overrides the validation engine used by Run.
func WithEngine(engine *validation.Engine) Option {
	return func(e *Executor) {
		if engine != nil {
			e.engine = engine
		}
	}
}

// Executor validates inputs against a calculator's schema and rules before
// executing it.
type Executor struct {
	engine *validation.Engine
}

// New constructs an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{engine: validation.NewEngine()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Run validates inputs and executes calc. Invalid inputs return *InputError
// carrying the validation result.
func (e *Executor) Run(calc model.Calculator, inputs model.Values) (Result, error) {
	check := e.engine.ValidateInputs(calc, inputs)
	if !check.Valid {
		return Result{CalculatorID: calc.ID}, &InputError{CalculatorID: calc.ID, Result: check}
	}
	return Execute(calc, inputs)
}
