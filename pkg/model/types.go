package model

// InputType enumerates the kinds of values a calculator input accepts.
type InputType string

const (
	InputTypeNumber     InputType = "number"
	InputTypeCurrency   InputType = "currency"
	InputTypePercentage InputType = "percentage"
	InputTypeDate       InputType = "date"
	InputTypeSelect     InputType = "select"
	InputTypeBoolean    InputType = "boolean"
	InputTypeText       InputType = "text"
)

// Numeric reports whether values of this type are cast to float64.
func (t InputType) Numeric() bool {
	switch t {
	case InputTypeNumber, InputTypeCurrency, InputTypePercentage:
		return true
	default:
		return false
	}
}

// Valid reports whether the type is part of the enumeration.
func (t InputType) Valid() bool {
	switch t {
	case InputTypeNumber, InputTypeCurrency, InputTypePercentage, InputTypeDate,
		InputTypeSelect, InputTypeBoolean, InputTypeText:
		return true
	default:
		return false
	}
}

// OutputType enumerates how a calculator output is presented.
type OutputType string

const (
	OutputTypeCurrency   OutputType = "currency"
	OutputTypePercentage OutputType = "percentage"
	OutputTypeNumber     OutputType = "number"
	OutputTypeText       OutputType = "text"
	OutputTypeChart      OutputType = "chart"
)

// Valid reports whether the type is part of the enumeration.
func (t OutputType) Valid() bool {
	switch t {
	case OutputTypeCurrency, OutputTypePercentage, OutputTypeNumber, OutputTypeText, OutputTypeChart:
		return true
	default:
		return false
	}
}

// RuleType tags a validation rule. Declarative kinds (required, range, min,
// max, format) are resolved from the rule parameters; business, cross-field
// and custom rules rely on Expression, a named validator or a Validator func.
type RuleType string

const (
	RuleRequired   RuleType = "required"
	RuleRange      RuleType = "range"
	RuleMin        RuleType = "min"
	RuleMax        RuleType = "max"
	RuleFormat     RuleType = "format"
	RuleBusiness   RuleType = "business"
	RuleCrossField RuleType = "cross-field"
	RuleCustom     RuleType = "custom"
)

// Option is a single choice for select inputs.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Input declares a single calculator input field.
type Input struct {
	ID           string    `json:"id" yaml:"id"`
	Label        string    `json:"label" yaml:"label"`
	Type         InputType `json:"type" yaml:"type"`
	Required     bool      `json:"required" yaml:"required"`
	Min          *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step         *float64  `json:"step,omitempty" yaml:"step,omitempty"`
	Options      []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	DefaultValue any       `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Placeholder  string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Tooltip      string    `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasOption reports whether value matches one of the declared options.
func (in Input) HasOption(value string) bool {
	for _, opt := range in.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Output declares a single calculator result.
type Output struct {
	ID          string     `json:"id" yaml:"id"`
	Label       string     `json:"label" yaml:"label"`
	Type        OutputType `json:"type" yaml:"type"`
	Format      string     `json:"format,omitempty" yaml:"format,omitempty"`
	Explanation string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Validator is the escape hatch for rules that need arbitrary logic. It must be
// a pure function of the candidate value and the full input set and must not
// mutate all.
type Validator func(value any, all Values) bool

// ValidationRule targets a single input field. Min/Max bound range, min and
// max rules (and optionally required rules). Pattern is a regular expression
// for format rules. Expression is a condition evaluated over the whole input
// set, used by cross-field and business rules. When guards the rule: a guard
// that evaluates false makes the rule pass.
type ValidationRule struct {
	Field         string    `json:"field" yaml:"field"`
	Type          RuleType  `json:"type" yaml:"type"`
	Message       string    `json:"message" yaml:"message"`
	Min           *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern       string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Expression    string    `json:"expression,omitempty" yaml:"expression,omitempty"`
	When          string    `json:"when,omitempty" yaml:"when,omitempty"`
	ValidatorName string    `json:"validator,omitempty" yaml:"validator,omitempty"`
	Validator     Validator `json:"-" yaml:"-"`
}

// Step records an intermediate value produced while calculating.
type Step struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// FormulaResult is what a formula produces.
type FormulaResult struct {
	Outputs     Values `json:"outputs"`
	Explanation string `json:"explanation,omitempty"`
	Steps       []Step `json:"steps,omitempty"`
}

// CalculateFunc computes outputs from already validated inputs.
type CalculateFunc func(inputs Values) (FormulaResult, error)

// Formula is an executable computation attached to a calculator.
type Formula struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Calculate   CalculateFunc `json:"-" yaml:"-"`
}

// Example is a fixed input/output pair used to regression test a calculator.
type Example struct {
	Title           string `json:"title" yaml:"title"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs          Values `json:"inputs" yaml:"inputs"`
	ExpectedOutputs Values `json:"expectedOutputs" yaml:"expectedOutputs"`
}

// Calculator is the aggregate root: a static, self-describing definition.
// Values are treated as immutable once registered.
type Calculator struct {
	ID                string           `json:"id" yaml:"id"`
	Title             string           `json:"title" yaml:"title"`
	Category          Category         `json:"category" yaml:"category"`
	Subcategory       string           `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Description       string           `json:"description,omitempty" yaml:"description,omitempty"`
	UsageInstructions []string         `json:"usageInstructions,omitempty" yaml:"usageInstructions,omitempty"`
	Tags              []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Inputs            []Input          `json:"inputs" yaml:"inputs"`
	Outputs           []Output         `json:"outputs" yaml:"outputs"`
	Formulas          []Formula        `json:"formulas" yaml:"formulas"`
	ValidationRules   []ValidationRule `json:"validationRules" yaml:"validationRules"`
	Examples          []Example        `json:"examples" yaml:"examples"`
}

// Input returns the declared input with the given id.
func (c Calculator) Input(id string) (Input, bool) {
	for _, in := range c.Inputs {
		if in.ID == id {
			return in, true
		}
	}
	return Input{}, false
}

// Output returns the declared output with the given id.
func (c Calculator) Output(id string) (Output, bool) {
	for _, out := range c.Outputs {
		if out.ID == id {
			return out, true
		}
	}
	return Output{}, false
}

// Implemented reports whether the calculator declares any formula.
func (c Calculator) Implemented() bool {
	return len(c.Formulas) > 0
}

// Clone returns a copy that shares no slices or maps with c. Validator and
// Calculate funcs are shared since they are pure.
func (c Calculator) Clone() Calculator {
	out := c
	out.UsageInstructions = cloneStrings(c.UsageInstructions)
	out.Tags = cloneStrings(c.Tags)

	if c.Inputs != nil {
		out.Inputs = make([]Input, len(c.Inputs))
		for idx, in := range c.Inputs {
			cloned := in
			cloned.Min = cloneFloat(in.Min)
			cloned.Max = cloneFloat(in.Max)
			cloned.Step = cloneFloat(in.Step)
			if in.Options != nil {
				cloned.Options = append([]Option(nil), in.Options...)
			}
			out.Inputs[idx] = cloned
		}
	}
	if c.Outputs != nil {
		out.Outputs = append([]Output(nil), c.Outputs...)
	}
	if c.Formulas != nil {
		out.Formulas = append([]Formula(nil), c.Formulas...)
	}
	if c.ValidationRules != nil {
		out.ValidationRules = make([]ValidationRule, len(c.ValidationRules))
		for idx, rule := range c.ValidationRules {
			cloned := rule
			cloned.Min = cloneFloat(rule.Min)
			cloned.Max = cloneFloat(rule.Max)
			out.ValidationRules[idx] = cloned
		}
	}
	if c.Examples != nil {
		out.Examples = make([]Example, len(c.Examples))
		for idx, ex := range c.Examples {
			cloned := ex
			cloned.Inputs = ex.Inputs.Clone()
			cloned.ExpectedOutputs = ex.ExpectedOutputs.Clone()
			out.Examples[idx] = cloned
		}
	}
	return out
}

// Float returns a pointer to v, handy when declaring bounds in Go literals.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}
