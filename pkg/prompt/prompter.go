package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-calculator/pkg/expr"
	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// DefaultMaxAttempts bounds how often a single field is asked again.
const DefaultMaxAttempts = 5

// Option configures a Prompter.
type Option func(*Prompter)

// WithDriver overrides the prompt driver.
func WithDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithEngine overrides the validation engine.
func WithEngine(engine *validation.Engine) Option {
	return func(p *Prompter) {
		if engine != nil {
			p.engine = engine
		}
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(p *Prompter) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// Prompter asks a person for every input of a calculator.
type Prompter struct {
	driver      PromptDriver
	engine      *validation.Engine
	maxAttempts int
}

// New constructs a Prompter. The default driver talks to the terminal.
func New(opts ...Option) *Prompter {
	p := &Prompter{
		engine:      validation.NewEngine(),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.driver == nil {
		p.driver = NewSurveyDriver(nil, nil, nil)
	}
	return p
}

// Collect asks for each input in declaration order, repeating a question
// until the answer passes the input's own checks and its single-field rules.
// Once every input is answered the full set is validated and the fields that
// fail (cross-field rules included) are asked again.
func (p *Prompter) Collect(ctx context.Context, calc model.Calculator) (model.Values, error) {
	values := make(model.Values, len(calc.Inputs))
	for _, in := range calc.Inputs {
		if err := p.ask(ctx, calc, in, values); err != nil {
			return nil, err
		}
	}

	for round := 1; ; round++ {
		result := p.engine.ValidateInputs(calc, values)
		if result.Valid {
			return values, nil
		}
		if round > p.maxAttempts {
			return nil, fmt.Errorf("%w: %s", ErrTooManyAttempts, strings.Join(messages(calc, result), "; "))
		}
		for _, in := range calc.Inputs {
			message, failed := result.FieldError(in.ID)
			if !failed {
				continue
			}
			if err := p.driver.Info(ctx, message); err != nil {
				return nil, err
			}
			if err := p.ask(ctx, calc, in, values); err != nil {
				return nil, err
			}
		}
	}
}

func (p *Prompter) ask(ctx context.Context, calc model.Calculator, in model.Input, values model.Values) error {
	for attempt := 1; ; attempt++ {
		value, answered, err := p.read(ctx, in, values)
		if err != nil {
			return err
		}
		if answered {
			values[in.ID] = value
		} else {
			delete(values, in.ID)
		}

		message, ok := p.checkField(calc, in, values)
		if ok {
			return nil
		}
		if err := p.driver.Info(ctx, message); err != nil {
			return err
		}
		if attempt >= p.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, message)
		}
	}
}

// checkField runs the declaration checks and the rules on in that can already
// be decided. Cross-field rules, and rules whose expression or guard names an
// input that has no value yet, wait for the full pass in Collect.
func (p *Prompter) checkField(calc model.Calculator, in model.Input, values model.Values) (string, bool) {
	if message, ok := validation.CheckInput(in, values[in.ID]); !ok {
		return message, false
	}
	rules := make([]model.ValidationRule, 0, len(calc.ValidationRules))
	for _, rule := range calc.ValidationRules {
		if rule.Type == model.RuleCrossField || awaitsInput(calc, in.ID, rule, values) {
			continue
		}
		rules = append(rules, rule)
	}
	result := p.engine.ValidateField(rules, in.ID, values)
	if message, failed := result.FieldError(in.ID); failed {
		return message, false
	}
	return "", true
}

// awaitsInput reports whether rule references another declared input that is
// still missing from values. Identifiers that are not inputs are literals.
func awaitsInput(calc model.Calculator, field string, rule model.ValidationRule, values model.Values) bool {
	for _, clause := range []string{rule.When, rule.Expression} {
		names, err := expr.Fields(clause)
		if err != nil {
			continue
		}
		for _, name := range names {
			id, _, _ := strings.Cut(name, ".")
			if id == field {
				continue
			}
			if _, declared := calc.Input(id); !declared {
				continue
			}
			if _, answered := values[id]; !answered {
				return true
			}
		}
	}
	return false
}

func (p *Prompter) read(ctx context.Context, in model.Input, values model.Values) (any, bool, error) {
	current, hasCurrent := values[in.ID]
	if !hasCurrent {
		current = in.DefaultValue
	}

	switch in.Type {
	case model.InputTypeBoolean:
		def, _ := model.ToBool(current)
		answer, err := p.driver.Confirm(ctx, ConfirmConfig{
			Message: label(in),
			Default: def,
			Help:    help(in),
		})
		if err != nil {
			return nil, false, err
		}
		return answer, true, nil

	case model.InputTypeSelect:
		options := make([]string, 0, len(in.Options))
		defaultIdx := -1
		for idx, opt := range in.Options {
			text := opt.Label
			if text == "" {
				text = opt.Value
			}
			options = append(options, text)
			if opt.Value == model.ToString(current) {
				defaultIdx = idx
			}
		}
		idx, err := p.driver.Select(ctx, SelectConfig{
			Message:      label(in),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         help(in),
		})
		if err != nil {
			return nil, false, err
		}
		if idx < 0 || idx >= len(in.Options) {
			return nil, false, nil
		}
		return in.Options[idx].Value, true, nil

	default:
		answer, err := p.driver.Input(ctx, InputConfig{
			Message: label(in),
			Default: model.ToString(current),
			Help:    help(in),
		})
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(answer) == "" {
			return nil, false, nil
		}
		return validation.CoerceValue(in, answer), true, nil
	}
}

func label(in model.Input) string {
	text := strings.TrimSpace(in.Label)
	if text == "" {
		text = in.ID
	}
	switch in.Type {
	case model.InputTypeCurrency:
		return text + " ($)"
	case model.InputTypePercentage:
		return text + " (%)"
	case model.InputTypeDate:
		return text + " (YYYY-MM-DD)"
	default:
		return text
	}
}

func help(in model.Input) string {
	if in.Tooltip != "" {
		return in.Tooltip
	}
	return in.Description
}

func messages(calc model.Calculator, result validation.Result) []string {
	var out []string
	for _, in := range calc.Inputs {
		if message, failed := result.FieldError(in.ID); failed {
			out = append(out, message)
		}
	}
	return out
}
