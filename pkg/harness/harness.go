package harness

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-calculator/pkg/executor"
	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// DefaultTolerance is the absolute epsilon used for numeric outputs.
const DefaultTolerance = 1e-6

// Score thresholds for the overall report status.
const (
	PassThreshold    = 95.0
	WarningThreshold = 80.0
)

// Status is the outcome of an example, a calculator or a whole run.
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusUntested Status = "untested"
	StatusWarning  Status = "warning"
)

// Mismatch describes one output that differs from the expectation.
type Mismatch struct {
	Output   string `json:"output" yaml:"output"`
	Expected any    `json:"expected" yaml:"expected"`
	Actual   any    `json:"actual" yaml:"actual"`
	Missing  bool   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func (m Mismatch) String() string {
	if m.Missing {
		return fmt.Sprintf("%s: expected %v, output missing", m.Output, m.Expected)
	}
	return fmt.Sprintf("%s: expected %v, got %v", m.Output, m.Expected, m.Actual)
}

// ExampleResult is the outcome of replaying a single example.
type ExampleResult struct {
	Title       string            `json:"title" yaml:"title"`
	Status      Status            `json:"status" yaml:"status"`
	Reason      string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Errors      map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Mismatches  []Mismatch        `json:"mismatches,omitempty" yaml:"mismatches,omitempty"`
	Outputs     model.Values      `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Explanation string            `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// CalculatorResult aggregates the examples of one calculator.
type CalculatorResult struct {
	ID       string          `json:"id" yaml:"id"`
	Title    string          `json:"title" yaml:"title"`
	Category model.Category  `json:"category" yaml:"category"`
	Status   Status          `json:"status" yaml:"status"`
	Reason   string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	Examples []ExampleResult `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Totals counts calculators by status.
type Totals struct {
	Calculators int `json:"calculators" yaml:"calculators"`
	Passed      int `json:"passed" yaml:"passed"`
	Failed      int `json:"failed" yaml:"failed"`
	Untested    int `json:"untested" yaml:"untested"`
	Examples    int `json:"examples" yaml:"examples"`
}

// Report is the outcome of a harness run.
type Report struct {
	RunID       string             `json:"runId" yaml:"runId"`
	StartedAt   time.Time          `json:"startedAt" yaml:"startedAt"`
	Tolerance   float64            `json:"tolerance" yaml:"tolerance"`
	Calculators []CalculatorResult `json:"calculators" yaml:"calculators"`
	Totals      Totals             `json:"totals" yaml:"totals"`
	Score       float64            `json:"score" yaml:"score"`
	Status      Status             `json:"status" yaml:"status"`
}

// Failed reports whether any calculator failed.
func (r Report) Failed() bool {
	return r.Totals.Failed > 0
}

// Untested returns the ids of calculators that had nothing to check.
func (r Report) Untested() []string {
	var ids []string
	for _, calc := range r.Calculators {
		if calc.Status == StatusUntested {
			ids = append(ids, calc.ID)
		}
	}
	return ids
}

// Option configures a harness run.
type Option func(*Harness)

// WithTolerance overrides the numeric tolerance.
func WithTolerance(tolerance float64) Option {
	return func(h *Harness) {
		if tolerance >= 0 && !math.IsNaN(tolerance) {
			h.tolerance = tolerance
		}
	}
}

// WithLogger attaches a logger for per-calculator events.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithEngine overrides the validation engine used for example inputs.
func WithEngine(engine *validation.Engine) Option {
	return func(h *Harness) {
		if engine != nil {
			h.engine = engine
		}
	}
}

// WithClock overrides the time source used for Report.StartedAt.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) {
		if now != nil {
			h.now = now
		}
	}
}

// Harness replays calculator examples through validation and execution.
type Harness struct {
	tolerance float64
	logger    zerolog.Logger
	engine    *validation.Engine
	now       func() time.Time
}

// New constructs a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		tolerance: DefaultTolerance,
		logger:    zerolog.Nop(),
		engine:    validation.NewEngine(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Source yields calculators to test; *registry.Registry satisfies it.
type Source interface {
	All() []model.Calculator
}

// Run replays every example of calcs with a fresh harness.
func Run(calcs []model.Calculator, opts ...Option) Report {
	return New(opts...).Run(calcs)
}

// RunRegistry replays every calculator in src.
func RunRegistry(src Source, opts ...Option) Report {
	return New(opts...).Run(src.All())
}

// Run replays every example of calcs. Results are deterministic for the same
// input apart from RunID and StartedAt.
func (h *Harness) Run(calcs []model.Calculator) Report {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: h.now(),
		Tolerance: h.tolerance,
	}

	for _, calc := range calcs {
		result := h.runCalculator(calc)
		report.Calculators = append(report.Calculators, result)
		report.Totals.Calculators++
		report.Totals.Examples += len(result.Examples)
		switch result.Status {
		case StatusPassed:
			report.Totals.Passed++
		case StatusFailed:
			report.Totals.Failed++
		default:
			report.Totals.Untested++
		}

		event := h.logger.Debug()
		if result.Status == StatusFailed {
			event = h.logger.Warn()
		}
		event.Str("component", "harness").
			Str("run_id", report.RunID).
			Str("calculator_id", calc.ID).
			Str("status", string(result.Status)).
			Msg("calculator examples checked")
	}

	report.Score = score(report.Totals)
	report.Status = overallStatus(report.Totals, report.Score)
	return report
}

func score(totals Totals) float64 {
	tested := totals.Passed + totals.Failed
	if tested == 0 {
		return 0
	}
	return math.Round(float64(totals.Passed)/float64(tested)*10000) / 100
}

func overallStatus(totals Totals, score float64) Status {
	if totals.Passed+totals.Failed == 0 {
		return StatusUntested
	}
	switch {
	case score >= PassThreshold:
		return StatusPassed
	case score >= WarningThreshold:
		return StatusWarning
	default:
		return StatusFailed
	}
}

func (h *Harness) runCalculator(calc model.Calculator) CalculatorResult {
	result := CalculatorResult{
		ID:       calc.ID,
		Title:    calc.Title,
		Category: calc.Category,
	}

	for _, example := range calc.Examples {
		result.Examples = append(result.Examples, h.runExample(calc, example))
	}

	switch {
	case len(calc.Examples) == 0:
		result.Status = StatusUntested
		result.Reason = "no examples declared"
	case len(calc.Formulas) == 0:
		result.Status = StatusUntested
		result.Reason = "no formulas declared"
		for _, ex := range result.Examples {
			if ex.Status == StatusFailed {
				result.Status = StatusFailed
				result.Reason = "example inputs fail validation"
				break
			}
		}
	default:
		result.Status = StatusPassed
		for _, ex := range result.Examples {
			if ex.Status == StatusFailed {
				result.Status = StatusFailed
				break
			}
		}
	}
	return result
}

func (h *Harness) runExample(calc model.Calculator, example model.Example) ExampleResult {
	result := ExampleResult{Title: example.Title}

	check := h.engine.Validate(calc.ValidationRules, example.Inputs)
	if !check.Valid {
		result.Status = StatusFailed
		result.Reason = "example inputs fail the calculator's own validation rules"
		result.Errors = check.Errors
		return result
	}

	executed, err := executor.Execute(calc, example.Inputs)
	if err != nil {
		result.Status = StatusFailed
		var calcErr *executor.CalculationError
		if errors.As(err, &calcErr) {
			result.Reason = calcErr.Kind + ": " + calcErr.Message
		} else {
			result.Reason = err.Error()
		}
		return result
	}
	if executed.Status == executor.StatusNotImplemented {
		result.Status = StatusUntested
		result.Reason = "calculator has no formulas"
		return result
	}

	result.Outputs = executed.Outputs
	result.Explanation = executed.Explanation
	result.Mismatches = compareOutputs(example.ExpectedOutputs, executed.Outputs, h.tolerance)
	if len(result.Mismatches) > 0 {
		result.Status = StatusFailed
		result.Reason = fmt.Sprintf("%d output(s) differ from expected", len(result.Mismatches))
		return result
	}
	result.Status = StatusPassed
	return result
}

// compareOutputs checks expected key by key: numbers within tolerance,
// strings and booleans exactly, anything else by deep equality. Extra actual
// outputs are ignored.
func compareOutputs(expected, actual model.Values, tolerance float64) []Mismatch {
	keys := make([]string, 0, len(expected))
	for key := range expected {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var mismatches []Mismatch
	for _, key := range keys {
		want := expected[key]
		got, ok := actual[key]
		if !ok {
			mismatches = append(mismatches, Mismatch{Output: key, Expected: want, Missing: true})
			continue
		}
		if !Equal(want, got, tolerance) {
			mismatches = append(mismatches, Mismatch{Output: key, Expected: want, Actual: got})
		}
	}
	return mismatches
}

// Equal compares an expected and an actual output value.
func Equal(want, got any, tolerance float64) bool {
	if isNumber(want) && isNumber(got) {
		w, _ := model.ToNumber(want)
		g, _ := model.ToNumber(got)
		return math.Abs(w-g) <= tolerance
	}
	switch typed := want.(type) {
	case string:
		s, ok := got.(string)
		return ok && s == typed
	case bool:
		b, ok := got.(bool)
		return ok && b == typed
	}
	return reflect.DeepEqual(want, got)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		_, ok := model.ToNumber(v)
		return ok
	default:
		return false
	}
}
