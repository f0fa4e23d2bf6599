package formulas

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-calculator/pkg/model"
)

// Library stores calculation routines and named validators so calculator
// definitions kept in data files can reference them by id.
type Library struct {
	mu         sync.RWMutex
	formulas   map[string]model.Formula
	validators map[string]model.Validator
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		formulas:   make(map[string]model.Formula),
		validators: make(map[string]model.Validator),
	}
}

// Default returns a library preloaded with the built-in formulas and
// validators.
func Default() *Library {
	lib := NewLibrary()
	for _, formula := range builtinFormulas() {
		lib.MustRegisterFormula(formula)
	}
	for name, fn := range builtinValidators() {
		lib.MustRegisterValidator(name, fn)
	}
	return lib
}

// RegisterFormula adds formula by its ID. Duplicate ids return an error.
func (l *Library) RegisterFormula(formula model.Formula) error {
	id := strings.TrimSpace(formula.ID)
	if id == "" {
		return fmt.Errorf("formulas: formula id is required")
	}
	if formula.Calculate == nil {
		return fmt.Errorf("formulas: formula %q has no calculate function", id)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.formulas[id]; exists {
		return fmt.Errorf("formulas: formula %q already registered", id)
	}
	l.formulas[id] = formula
	return nil
}

// MustRegisterFormula panics on registration failure. Useful for init-time
// wiring.
func (l *Library) MustRegisterFormula(formula model.Formula) {
	if err := l.RegisterFormula(formula); err != nil {
		panic(err)
	}
}

// Formula retrieves a formula by id.
func (l *Library) Formula(id string) (model.Formula, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	formula, ok := l.formulas[id]
	return formula, ok
}

// Formulas returns a sorted list of formula ids.
func (l *Library) Formulas() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.formulas))
	for id := range l.formulas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegisterValidator adds a named validator. Duplicate names return an error.
func (l *Library) RegisterValidator(name string, fn model.Validator) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("formulas: validator name is required")
	}
	if fn == nil {
		return fmt.Errorf("formulas: validator %q is nil", name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.validators[name]; exists {
		return fmt.Errorf("formulas: validator %q already registered", name)
	}
	l.validators[name] = fn
	return nil
}

// MustRegisterValidator panics on registration failure.
func (l *Library) MustRegisterValidator(name string, fn model.Validator) {
	if err := l.RegisterValidator(name, fn); err != nil {
		panic(err)
	}
}

// Validator retrieves a named validator.
func (l *Library) Validator(name string) (model.Validator, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fn, ok := l.validators[name]
	return fn, ok
}

// Validators returns a sorted list of validator names.
func (l *Library) Validators() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.validators))
	for name := range l.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
