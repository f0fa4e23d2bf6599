package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-calculator/pkg/expr"
	"github.com/goliatone/go-calculator/pkg/model"
)

// ErrUnresolvedRule reports a rule that carries no usable predicate.
var ErrUnresolvedRule = errors.New("validation: rule has no predicate")

// predicate resolves the check applied for rule. An explicit Validator always
// wins, then a named validator, then the declarative parameters of the rule
// type.
func (e *Engine) predicate(rule model.ValidationRule) (model.Validator, error) {
	if rule.Validator != nil {
		return rule.Validator, nil
	}
	if name := strings.TrimSpace(rule.ValidatorName); name != "" {
		if e.validators != nil {
			if fn, ok := e.validators.Validator(name); ok && fn != nil {
				return fn, nil
			}
		}
		return nil, fmt.Errorf("%w: validator %q is not registered", ErrUnresolvedRule, name)
	}

	switch rule.Type {
	case model.RuleRequired:
		return requiredPredicate(rule.Min, rule.Max), nil
	case model.RuleRange:
		if rule.Min == nil && rule.Max == nil {
			return nil, fmt.Errorf("%w: range rule needs min or max", ErrUnresolvedRule)
		}
		return boundsPredicate(rule.Min, rule.Max), nil
	case model.RuleMin:
		if rule.Min == nil {
			return nil, fmt.Errorf("%w: min rule needs min", ErrUnresolvedRule)
		}
		return boundsPredicate(rule.Min, nil), nil
	case model.RuleMax:
		if rule.Max == nil {
			return nil, fmt.Errorf("%w: max rule needs max", ErrUnresolvedRule)
		}
		return boundsPredicate(nil, rule.Max), nil
	case model.RuleFormat:
		if strings.TrimSpace(rule.Pattern) == "" {
			return nil, fmt.Errorf("%w: format rule needs pattern", ErrUnresolvedRule)
		}
		re, err := e.patterns.compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		return func(value any, _ model.Values) bool {
			if model.IsBlank(value) {
				return true
			}
			return re.MatchString(model.ToString(value))
		}, nil
	case model.RuleBusiness, model.RuleCrossField, model.RuleCustom:
		condition := strings.TrimSpace(rule.Expression)
		if condition == "" {
			return nil, fmt.Errorf("%w: %s rule needs an expression or validator", ErrUnresolvedRule, rule.Type)
		}
		evaluator := e.evaluator
		field := rule.Field
		return func(_ any, all model.Values) bool {
			ok, err := evaluator.Eval(field, condition, expr.Context{Values: all})
			return err == nil && ok
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown rule type %q", ErrUnresolvedRule, rule.Type)
	}
}

// requiredPredicate accepts any supplied value except NaN. When bounds are
// declared the value must also cast to a number inside them, which is how
// age-style "required" rules are usually written.
func requiredPredicate(min, max *float64) model.Validator {
	return func(value any, _ model.Values) bool {
		if model.IsBlank(value) || isNaN(value) {
			return false
		}
		if min == nil && max == nil {
			return true
		}
		return withinBounds(value, min, max)
	}
}

// boundsPredicate skips absent values; anything supplied must cast to a
// number inside the bounds.
func boundsPredicate(min, max *float64) model.Validator {
	return func(value any, _ model.Values) bool {
		if model.IsBlank(value) {
			return true
		}
		return withinBounds(value, min, max)
	}
}

func isNaN(value any) bool {
	switch typed := value.(type) {
	case float64:
		return math.IsNaN(typed)
	case float32:
		return math.IsNaN(float64(typed))
	default:
		return false
	}
}

func withinBounds(value any, min, max *float64) bool {
	number, ok := model.ToNumber(value)
	if !ok {
		return false
	}
	if min != nil && number < *min {
		return false
	}
	if max != nil && number > *max {
		return false
	}
	return true
}

type patternCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{compiled: make(map[string]*regexp.Regexp)}
}

func (c *patternCache) compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("validation: invalid pattern %q: %w", pattern, err)
	}
	c.mu.Lock()
	c.compiled[pattern] = re
	c.mu.Unlock()
	return re, nil
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
