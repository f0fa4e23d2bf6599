package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-calculator/pkg/model"
)

// DateLayout is the accepted layout for date inputs.
const DateLayout = "2006-01-02"

// ValidateInputs checks inputs against the declared schema of calc and then
// applies the calculator's validation rules with the default engine.
func ValidateInputs(calc model.Calculator, inputs model.Values) Result {
	return defaultEngine.ValidateInputs(calc, inputs)
}

// Coerce parses raw string values into typed inputs with the default engine.
func Coerce(calc model.Calculator, raw map[string]string) (model.Values, Result) {
	return defaultEngine.Coerce(calc, raw)
}

// ValidateInputs rejects undeclared keys, values that do not match the input
// type, declared bounds and required inputs, then evaluates calc's rules.
// Rule messages are applied last so they win in Result.Errors.
func (e *Engine) ValidateInputs(calc model.Calculator, inputs model.Values) Result {
	result := Result{Valid: true}

	declared := make(map[string]struct{}, len(calc.Inputs))
	for _, in := range calc.Inputs {
		declared[in.ID] = struct{}{}
	}
	for _, key := range sortedKeys(map[string]any(inputs)) {
		if _, ok := declared[key]; !ok {
			result.Fail(key, fmt.Sprintf("unknown input %q", key))
		}
	}

	for _, in := range calc.Inputs {
		if message, ok := CheckInput(in, inputs[in.ID]); !ok {
			result.Fail(in.ID, message)
		}
	}

	result.Merge(e.Validate(calc.ValidationRules, inputs))
	result.Valid = len(result.Errors) == 0
	return result
}

// CheckInput validates one value against its declaration. The message is
// empty when the value is acceptable.
func CheckInput(in model.Input, value any) (string, bool) {
	label := inputLabel(in)
	if model.IsBlank(value) {
		if in.Required {
			return label + " is required", false
		}
		return "", true
	}

	switch {
	case in.Type.Numeric():
		number, ok := model.ToNumber(value)
		if !ok {
			return label + " must be a number", false
		}
		if in.Min != nil && number < *in.Min {
			return fmt.Sprintf("%s must be at least %s", label, formatBound(*in.Min)), false
		}
		if in.Max != nil && number > *in.Max {
			return fmt.Sprintf("%s must be at most %s", label, formatBound(*in.Max)), false
		}
	case in.Type == model.InputTypeSelect:
		if !in.HasOption(model.ToString(value)) {
			return fmt.Sprintf("%s must be one of %s", label, optionList(in.Options)), false
		}
	case in.Type == model.InputTypeBoolean:
		if _, ok := model.ToBool(value); !ok {
			return label + " must be true or false", false
		}
	case in.Type == model.InputTypeDate:
		if _, ok := value.(time.Time); ok {
			return "", true
		}
		if _, err := time.Parse(DateLayout, strings.TrimSpace(model.ToString(value))); err != nil {
			return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", label), false
		}
	}
	return "", true
}

// Coerce converts raw string values (flags, form posts) into typed values
// according to each declared input, filling DefaultValue for inputs that are
// absent or blank. Values that fail to parse are kept as the raw string so
// ValidateInputs reports them.
func (e *Engine) Coerce(calc model.Calculator, raw map[string]string) (model.Values, Result) {
	values := make(model.Values, len(calc.Inputs))
	for _, in := range calc.Inputs {
		text, ok := raw[in.ID]
		if !ok || strings.TrimSpace(text) == "" {
			if in.DefaultValue != nil {
				values[in.ID] = in.DefaultValue
			}
			continue
		}
		values[in.ID] = CoerceValue(in, text)
	}
	for key, text := range raw {
		if _, ok := calc.Input(key); !ok {
			values[key] = text
		}
	}
	return values, e.ValidateInputs(calc, values)
}

// CoerceValue parses text according to the input type. Unparsable text is
// returned trimmed.
func CoerceValue(in model.Input, text string) any {
	trimmed := strings.TrimSpace(text)
	switch {
	case in.Type.Numeric():
		cleaned := strings.NewReplacer("$", "", ",", "", "%", "", "_", "").Replace(trimmed)
		if number, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return number
		}
		return trimmed
	case in.Type == model.InputTypeBoolean:
		if b, ok := model.ToBool(trimmed); ok {
			return b
		}
		return trimmed
	default:
		return trimmed
	}
}

func inputLabel(in model.Input) string {
	if label := strings.TrimSpace(in.Label); label != "" {
		return label
	}
	return in.ID
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionList(options []model.Option) string {
	values := make([]string, 0, len(options))
	for _, opt := range options {
		values = append(values, strconv.Quote(opt.Value))
	}
	return strings.Join(values, ", ")
}
