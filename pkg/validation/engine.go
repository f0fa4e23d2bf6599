package validation

import (
	"strings"

	"github.com/goliatone/go-calculator/pkg/expr"
	"github.com/goliatone/go-calculator/pkg/model"
)

// Result captures the outcome of a validation pass. Errors keeps a single
// message per field where the last failing rule wins; Messages keeps every
// failing message per field in evaluation order without duplicates.
type Result struct {
	Valid    bool                `json:"valid"`
	Errors   map[string]string   `json:"errors,omitempty"`
	Messages map[string][]string `json:"messages,omitempty"`
}

// Fail records message against field.
func (r *Result) Fail(field, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "invalid value"
	}
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	if r.Messages == nil {
		r.Messages = make(map[string][]string)
	}
	r.Errors[field] = message
	r.Messages[field] = normalizeMessages(append(r.Messages[field], message))
	r.Valid = false
}

// Merge folds other into r. Messages from other are applied after the ones
// already recorded, so other wins for Errors.
func (r *Result) Merge(other Result) {
	for field, messages := range other.Messages {
		for _, message := range messages {
			r.Fail(field, message)
		}
		if last, ok := other.Errors[field]; ok {
			r.Errors[field] = last
		}
	}
	r.Valid = len(r.Errors) == 0
}

// FieldError returns the surviving message for field.
func (r Result) FieldError(field string) (string, bool) {
	msg, ok := r.Errors[field]
	return msg, ok
}

// Fields returns the failing field ids in sorted order.
func (r Result) Fields() []string {
	return sortedKeys(r.Errors)
}

// ValidatorLookup resolves named validators referenced by rules defined in
// data files.
type ValidatorLookup interface {
	Validator(name string) (model.Validator, bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvaluator overrides the condition evaluator used for Expression and
// When clauses.
func WithEvaluator(evaluator expr.Evaluator) Option {
	return func(e *Engine) {
		if evaluator != nil {
			e.evaluator = evaluator
		}
	}
}

// WithValidators supplies the lookup used for rules that name a validator
// without carrying a Validator func.
func WithValidators(lookup ValidatorLookup) Option {
	return func(e *Engine) {
		e.validators = lookup
	}
}

// Engine evaluates validation rules. The zero value is not usable; call
// NewEngine.
type Engine struct {
	evaluator  expr.Evaluator
	validators ValidatorLookup
	patterns   *patternCache
}

// NewEngine constructs an engine with the default condition evaluator.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		evaluator: expr.New(),
		patterns:  newPatternCache(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

var defaultEngine = NewEngine()

// Validate evaluates rules against inputs with the default engine.
func Validate(rules []model.ValidationRule, inputs model.Values) Result {
	return defaultEngine.Validate(rules, inputs)
}

// ValidateField evaluates only the rules attached to field.
func ValidateField(rules []model.ValidationRule, field string, inputs model.Values) Result {
	return defaultEngine.ValidateField(rules, field, inputs)
}

// Validate runs every rule once, in declaration order, against the inputs
// snapshot. Rules never short-circuit each other. An empty rule set is valid.
func (e *Engine) Validate(rules []model.ValidationRule, inputs model.Values) Result {
	result := Result{Valid: true}
	for _, rule := range rules {
		if !e.holds(rule, inputs) {
			result.Fail(rule.Field, rule.Message)
		}
	}
	return result
}

// ValidateField is Validate restricted to the rules targeting field. Other
// inputs are still visible to cross-field predicates.
func (e *Engine) ValidateField(rules []model.ValidationRule, field string, inputs model.Values) Result {
	subset := make([]model.ValidationRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Field == field {
			subset = append(subset, rule)
		}
	}
	return e.Validate(subset, inputs)
}

// holds reports whether rule passes. A predicate or evaluator that panics
// counts as a failed rule.
func (e *Engine) holds(rule model.ValidationRule, inputs model.Values) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if guard := strings.TrimSpace(rule.When); guard != "" {
		applies, err := e.evaluator.Eval(rule.Field, guard, expr.Context{Values: inputs})
		if err != nil {
			return false
		}
		if !applies {
			return true
		}
	}

	predicate, err := e.predicate(rule)
	if err != nil {
		return false
	}
	var value any
	if inputs != nil {
		value = inputs[rule.Field]
	}
	return predicate(value, inputs)
}
