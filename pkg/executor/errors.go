package executor

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-calculator/pkg/validation"
)

// KindFormulaError tags failures raised by a formula's calculate function.
const KindFormulaError = "formula-error"

// ErrCalculation is matched by every *CalculationError via errors.Is.
var ErrCalculation = errors.New("executor: calculation failed")

// CalculationError reports a formula that failed or panicked.
type CalculationError struct {
	Kind         string
	CalculatorID string
	FormulaID    string
	Message      string
	Err          error
}

func (e *CalculationError) Error() string {
	if e == nil {
		return ""
	}
	if e.FormulaID != "" {
		return fmt.Sprintf("executor: calculator %q formula %q: %s", e.CalculatorID, e.FormulaID, e.Message)
	}
	return fmt.Sprintf("executor: calculator %q: %s", e.CalculatorID, e.Message)
}

func (e *CalculationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrCalculation) match any calculation error.
func (e *CalculationError) Is(target error) bool {
	return target == ErrCalculation
}

// InputError is returned by Executor.Run when inputs fail validation.
type InputError struct {
	CalculatorID string
	Result       validation.Result
}

func (e *InputError) Error() string {
	if e == nil {
		return ""
	}
	fields := e.Result.Fields()
	if len(fields) == 0 {
		return fmt.Sprintf("executor: calculator %q: invalid inputs", e.CalculatorID)
	}
	return fmt.Sprintf("executor: calculator %q: invalid inputs %v", e.CalculatorID, fields)
}
