package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-calculator/pkg/executor"
	"github.com/goliatone/go-calculator/pkg/format"
	"github.com/goliatone/go-calculator/pkg/harness"
	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/registry"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// Counter is the part of the registry the summary needs.
type Counter interface {
	TotalCount() int
	CategoryCounts() []registry.CategoryTotal
}

// Summary is the calculator count overview.
type Summary struct {
	Total      int                      `json:"total" yaml:"total"`
	Categories []registry.CategoryTotal `json:"categories" yaml:"categories"`
}

// NewSummary snapshots the counts of src.
func NewSummary(src Counter) Summary {
	return Summary{
		Total:      src.TotalCount(),
		Categories: src.CategoryCounts(),
	}
}

// ListEntry is one row of a calculator listing.
type ListEntry struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Category      string `json:"category" yaml:"category"`
	CategoryLabel string `json:"categoryLabel" yaml:"categoryLabel"`
	Subcategory   string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Implemented   bool   `json:"implemented" yaml:"implemented"`
}

// NewList converts calculators into listing rows.
func NewList(calcs []model.Calculator) []ListEntry {
	out := make([]ListEntry, 0, len(calcs))
	for _, calc := range calcs {
		out = append(out, ListEntry{
			ID:            calc.ID,
			Title:         calc.Title,
			Category:      string(calc.Category),
			CategoryLabel: calc.Category.Label(),
			Subcategory:   calc.Subcategory,
			Implemented:   calc.Implemented(),
		})
	}
	return out
}

// InputView describes one input for display.
type InputView struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Type        string   `json:"type" yaml:"type"`
	Required    bool     `json:"required" yaml:"required"`
	Constraints []string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// OutputView describes one declared output for display.
type OutputView struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`
}

// RuleView describes one validation rule for display.
type RuleView struct {
	Field   string `json:"field" yaml:"field"`
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
}

// CalculatorView is the detail view of a single calculator.
type CalculatorView struct {
	ID            string       `json:"id" yaml:"id"`
	Title         string       `json:"title" yaml:"title"`
	Category      string       `json:"category" yaml:"category"`
	CategoryLabel string       `json:"categoryLabel" yaml:"categoryLabel"`
	Subcategory   string       `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Description   string       `json:"description,omitempty" yaml:"description,omitempty"`
	Usage         []string     `json:"usageInstructions,omitempty" yaml:"usageInstructions,omitempty"`
	Tags          []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	Implemented   bool         `json:"implemented" yaml:"implemented"`
	Formulas      []string     `json:"formulas" yaml:"formulas"`
	Inputs        []InputView  `json:"inputs" yaml:"inputs"`
	Outputs       []OutputView `json:"outputs" yaml:"outputs"`
	Rules         []RuleView   `json:"validationRules" yaml:"validationRules"`
	Examples      int          `json:"examples" yaml:"examples"`
}

// NewCalculatorView builds the detail view of calc.
func NewCalculatorView(calc model.Calculator) CalculatorView {
	view := CalculatorView{
		ID:            calc.ID,
		Title:         calc.Title,
		Category:      string(calc.Category),
		CategoryLabel: calc.Category.Label(),
		Subcategory:   calc.Subcategory,
		Description:   calc.Description,
		Usage:         calc.UsageInstructions,
		Tags:          calc.Tags,
		Implemented:   calc.Implemented(),
		Formulas:      make([]string, 0, len(calc.Formulas)),
		Examples:      len(calc.Examples),
	}
	for _, formula := range calc.Formulas {
		view.Formulas = append(view.Formulas, formula.ID)
	}
	for _, in := range calc.Inputs {
		view.Inputs = append(view.Inputs, InputView{
			ID:          in.ID,
			Label:       in.Label,
			Type:        string(in.Type),
			Required:    in.Required,
			Constraints: constraints(in),
		})
	}
	for _, out := range calc.Outputs {
		view.Outputs = append(view.Outputs, OutputView{ID: out.ID, Label: out.Label, Type: string(out.Type)})
	}
	for _, rule := range calc.ValidationRules {
		view.Rules = append(view.Rules, RuleView{Field: rule.Field, Type: string(rule.Type), Message: rule.Message})
	}
	return view
}

func constraints(in model.Input) []string {
	var out []string
	if in.Min != nil {
		out = append(out, "min "+format.Number(*in.Min, -1))
	}
	if in.Max != nil {
		out = append(out, "max "+format.Number(*in.Max, -1))
	}
	if len(in.Options) > 0 {
		values := make([]string, 0, len(in.Options))
		for _, opt := range in.Options {
			values = append(values, opt.Value)
		}
		out = append(out, "one of "+strings.Join(values, "|"))
	}
	if in.DefaultValue != nil {
		out = append(out, "default "+model.ToString(in.DefaultValue))
	}
	return out
}

// OutputValue is a computed output paired with its display form.
type OutputValue struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Value   any    `json:"value" yaml:"value"`
	Display string `json:"display" yaml:"display"`
}

// ResultView is the outcome of running a calculator.
type ResultView struct {
	CalculatorID string        `json:"calculatorId" yaml:"calculatorId"`
	Title        string        `json:"title" yaml:"title"`
	Status       string        `json:"status" yaml:"status"`
	Outputs      []OutputValue `json:"outputs" yaml:"outputs"`
	Explanation  string        `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// NewResultView pairs result outputs with their declarations. Declared
// outputs come first in declaration order, undeclared extras follow sorted.
func NewResultView(calc model.Calculator, result executor.Result) ResultView {
	view := ResultView{
		CalculatorID: calc.ID,
		Title:        calc.Title,
		Status:       string(result.Status),
		Explanation:  result.Explanation,
	}

	seen := make(map[string]struct{}, len(calc.Outputs))
	for _, out := range calc.Outputs {
		seen[out.ID] = struct{}{}
		value, ok := result.Outputs[out.ID]
		if !ok {
			continue
		}
		view.Outputs = append(view.Outputs, OutputValue{
			ID:      out.ID,
			Label:   out.Label,
			Value:   value,
			Display: format.Output(out, value),
		})
	}

	extras := make([]string, 0)
	for key := range result.Outputs {
		if _, ok := seen[key]; !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		value := result.Outputs[key]
		view.Outputs = append(view.Outputs, OutputValue{
			ID:      key,
			Label:   key,
			Value:   value,
			Display: format.Output(model.Output{Type: model.OutputTypeNumber}, value),
		})
	}
	return view
}

// FieldMessage is a failing field and its message.
type FieldMessage struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// ValidationView is the outcome of validating inputs.
type ValidationView struct {
	CalculatorID string         `json:"calculatorId" yaml:"calculatorId"`
	Valid        bool           `json:"valid" yaml:"valid"`
	Errors       []FieldMessage `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewValidationView flattens result into field order.
func NewValidationView(calcID string, result validation.Result) ValidationView {
	view := ValidationView{CalculatorID: calcID, Valid: result.Valid}
	for _, field := range result.Fields() {
		view.Errors = append(view.Errors, FieldMessage{Field: field, Message: result.Errors[field]})
	}
	return view
}

// LintIssue is a definition issue tagged with its calculator.
type LintIssue struct {
	CalculatorID string `json:"calculatorId" yaml:"calculatorId"`
	Path         string `json:"path" yaml:"path"`
	Severity     string `json:"severity" yaml:"severity"`
	Message      string `json:"message" yaml:"message"`
}

// LintView aggregates definition issues across calculators.
type LintView struct {
	Calculators int         `json:"calculators" yaml:"calculators"`
	Errors      int         `json:"errors" yaml:"errors"`
	Warnings    int         `json:"warnings" yaml:"warnings"`
	Issues      []LintIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// NewLintView checks every calculator with engine.
func NewLintView(engine *validation.Engine, calcs []model.Calculator) LintView {
	if engine == nil {
		engine = validation.NewEngine()
	}
	view := LintView{Calculators: len(calcs)}
	for _, calc := range calcs {
		for _, issue := range engine.Check(calc) {
			view.Issues = append(view.Issues, LintIssue{
				CalculatorID: calc.ID,
				Path:         issue.Path,
				Severity:     string(issue.Severity),
				Message:      issue.Message,
			})
			if issue.Severity == validation.SeverityError {
				view.Errors++
			} else {
				view.Warnings++
			}
		}
	}
	return view
}

// ExampleLine is a failing example in the text harness report.
type ExampleLine struct {
	Title   string   `json:"title" yaml:"title"`
	Reason  string   `json:"reason" yaml:"reason"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// CalculatorLine is one calculator in the text harness report.
type CalculatorLine struct {
	ID       string        `json:"id" yaml:"id"`
	Status   string        `json:"status" yaml:"status"`
	Note     string        `json:"note,omitempty" yaml:"note,omitempty"`
	Failures []ExampleLine `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// HarnessView flattens a harness report for the text template.
type HarnessView struct {
	Calculators int              `json:"calculators" yaml:"calculators"`
	Examples    int              `json:"examples" yaml:"examples"`
	Passed      int              `json:"passed" yaml:"passed"`
	Failed      int              `json:"failed" yaml:"failed"`
	Untested    int              `json:"untested" yaml:"untested"`
	Score       string           `json:"score" yaml:"score"`
	Status      string           `json:"status" yaml:"status"`
	Results     []CalculatorLine `json:"results" yaml:"results"`
}

// NewHarnessView flattens rep.
func NewHarnessView(rep harness.Report) HarnessView {
	view := HarnessView{
		Calculators: rep.Totals.Calculators,
		Examples:    rep.Totals.Examples,
		Passed:      rep.Totals.Passed,
		Failed:      rep.Totals.Failed,
		Untested:    rep.Totals.Untested,
		Score:       format.Percentage(rep.Score),
		Status:      string(rep.Status),
	}
	for _, calc := range rep.Calculators {
		line := CalculatorLine{ID: calc.ID, Status: string(calc.Status)}
		if calc.Reason != "" {
			line.Note = fmt.Sprintf(" (%s)", calc.Reason)
		}
		for _, ex := range calc.Examples {
			if ex.Status != harness.StatusFailed {
				continue
			}
			failure := ExampleLine{Title: ex.Title, Reason: ex.Reason}
			for _, mismatch := range ex.Mismatches {
				failure.Details = append(failure.Details, mismatch.String())
			}
			for _, field := range sortedFields(ex.Errors) {
				failure.Details = append(failure.Details, field+": "+ex.Errors[field])
			}
			line.Failures = append(line.Failures, failure)
		}
		view.Results = append(view.Results, line)
	}
	return view
}

func sortedFields(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
