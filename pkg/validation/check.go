package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-calculator/pkg/expr"
	"github.com/goliatone/go-calculator/pkg/model"
)

// Severity grades a definition issue. Only errors block registration.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue describes a defect in a calculator definition.
type Issue struct {
	Path     string   `json:"path,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CheckCalculator inspects a definition with the default engine.
func CheckCalculator(calc model.Calculator) []Issue {
	return defaultEngine.Check(calc)
}

// Check reports structural defects in calc: identity, category, duplicate or
// malformed inputs and outputs, rules that reference undeclared inputs or
// cannot be evaluated, and examples feeding undeclared inputs. Examples only
// produce warnings since placeholder calculators often declare none.
func (e *Engine) Check(calc model.Calculator) []Issue {
	var issues []Issue
	add := func(severity Severity, path, field, format string, args ...any) {
		issues = append(issues, Issue{
			Path:     path,
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Severity: severity,
		})
	}

	if strings.TrimSpace(calc.ID) == "" {
		add(SeverityError, "id", "", "id is required")
	}
	if strings.TrimSpace(calc.Title) == "" {
		add(SeverityError, "title", "", "title is required")
	}
	if !calc.Category.Valid() {
		add(SeverityError, "category", "", "unknown category %q", calc.Category)
	}

	inputs := make(map[string]struct{}, len(calc.Inputs))
	for idx, in := range calc.Inputs {
		path := fmt.Sprintf("inputs[%d]", idx)
		if strings.TrimSpace(in.ID) == "" {
			add(SeverityError, path, "", "input id is required")
			continue
		}
		if _, dup := inputs[in.ID]; dup {
			add(SeverityError, path, in.ID, "duplicate input id %q", in.ID)
		}
		inputs[in.ID] = struct{}{}
		if !in.Type.Valid() {
			add(SeverityError, path, in.ID, "unknown input type %q", in.Type)
		}
		if in.Type == model.InputTypeSelect && len(in.Options) == 0 {
			add(SeverityError, path, in.ID, "select input needs options")
		}
		if in.Min != nil && in.Max != nil && *in.Min > *in.Max {
			add(SeverityError, path, in.ID, "min %v exceeds max %v", *in.Min, *in.Max)
		}
	}

	outputs := make(map[string]struct{}, len(calc.Outputs))
	for idx, out := range calc.Outputs {
		path := fmt.Sprintf("outputs[%d]", idx)
		if strings.TrimSpace(out.ID) == "" {
			add(SeverityError, path, "", "output id is required")
			continue
		}
		if _, dup := outputs[out.ID]; dup {
			add(SeverityError, path, out.ID, "duplicate output id %q", out.ID)
		}
		outputs[out.ID] = struct{}{}
		if !out.Type.Valid() {
			add(SeverityError, path, out.ID, "unknown output type %q", out.Type)
		}
	}

	formulas := make(map[string]struct{}, len(calc.Formulas))
	for idx, formula := range calc.Formulas {
		path := fmt.Sprintf("formulas[%d]", idx)
		if formula.Calculate == nil {
			add(SeverityError, path, "", "formula %q has no calculate function", formula.ID)
		}
		if formula.ID == "" {
			continue
		}
		if _, dup := formulas[formula.ID]; dup {
			add(SeverityError, path, "", "duplicate formula id %q", formula.ID)
		}
		formulas[formula.ID] = struct{}{}
	}

	for idx, rule := range calc.ValidationRules {
		path := fmt.Sprintf("validationRules[%d]", idx)
		if _, ok := inputs[rule.Field]; !ok {
			add(SeverityError, path, rule.Field, "rule references undeclared input %q", rule.Field)
		}
		if strings.TrimSpace(rule.Message) == "" {
			add(SeverityError, path, rule.Field, "rule message is required")
		}
		if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
			add(SeverityError, path, rule.Field, "min %v exceeds max %v", *rule.Min, *rule.Max)
		}
		if _, err := e.predicate(rule); err != nil {
			add(SeverityError, path, rule.Field, "%s", trimPrefix(err))
		}
		if rule.Validator == nil && rule.ValidatorName == "" && strings.TrimSpace(rule.Expression) != "" {
			if err := expr.Check(rule.Expression); err != nil {
				add(SeverityError, path, rule.Field, "invalid expression: %s", trimPrefix(err))
			}
		}
		if strings.TrimSpace(rule.When) != "" {
			if err := expr.Check(rule.When); err != nil {
				add(SeverityError, path, rule.Field, "invalid guard: %s", trimPrefix(err))
			}
		}
	}

	for idx, example := range calc.Examples {
		path := fmt.Sprintf("examples[%d]", idx)
		if strings.TrimSpace(example.Title) == "" {
			add(SeverityWarning, path, "", "example title is empty")
		}
		for _, key := range sortedKeys(map[string]any(example.Inputs)) {
			if _, ok := inputs[key]; !ok {
				add(SeverityWarning, path, key, "example sets undeclared input %q", key)
			}
		}
		for _, key := range sortedKeys(map[string]any(example.ExpectedOutputs)) {
			if _, ok := outputs[key]; !ok && len(calc.Outputs) > 0 {
				add(SeverityWarning, path, key, "example expects undeclared output %q", key)
			}
		}
	}

	return issues
}

func trimPrefix(err error) string {
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, "validation: ")
	msg = strings.TrimPrefix(msg, "expr: ")
	return msg
}
