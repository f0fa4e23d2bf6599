package formulas

import (
	"math"

	"github.com/goliatone/go-calculator/pkg/model"
)

// Built-in validator names.
const (
	ValidatorPositiveNumber    = "positive-number"
	ValidatorNonNegativeNumber = "non-negative-number"
	ValidatorPercentage        = "percentage"
	ValidatorWholeNumber       = "whole-number"
)

func builtinValidators() map[string]model.Validator {
	return map[string]model.Validator{
		ValidatorPositiveNumber: func(value any, _ model.Values) bool {
			n, ok := model.ToNumber(value)
			return ok && n > 0
		},
		ValidatorNonNegativeNumber: func(value any, _ model.Values) bool {
			n, ok := model.ToNumber(value)
			return ok && n >= 0
		},
		ValidatorPercentage: func(value any, _ model.Values) bool {
			n, ok := model.ToNumber(value)
			return ok && n >= 0 && n <= 100
		},
		ValidatorWholeNumber: func(value any, _ model.Values) bool {
			n, ok := model.ToNumber(value)
			return ok && n == math.Trunc(n)
		},
	}
}
