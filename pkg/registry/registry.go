package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// Option configures a Registry.
type Option func(*Registry)

// WithRejectDuplicates switches the duplicate-id policy from overwrite to
// reject. The first registration is kept and later ones return
// *ConflictError.
func WithRejectDuplicates() Option {
	return func(r *Registry) {
		r.rejectDuplicates = true
	}
}

// WithSkipChecks disables definition checks at registration. Id and category
// are still enforced so lookups and category counts stay consistent.
func WithSkipChecks() Option {
	return func(r *Registry) {
		r.skipChecks = true
	}
}

// WithEngine sets the validation engine used for definition checks.
func WithEngine(engine *validation.Engine) Option {
	return func(r *Registry) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithLogger attaches a logger for registration events.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry is the in-memory index of calculator definitions. By default a
// second registration under an existing id replaces the stored definition in
// place (it keeps its original position in listings) and logs a warning.
//
// Reads are safe to call concurrently with each other and with Register.
type Registry struct {
	mu               sync.RWMutex
	calculators      map[string]model.Calculator
	order            []string
	rejectDuplicates bool
	skipChecks       bool
	engine           *validation.Engine
	logger           zerolog.Logger
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		calculators: make(map[string]model.Calculator),
		engine:      validation.NewEngine(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register stores calc. Definitions with blocking issues (including unknown
// categories) return *DefinitionError and are not stored. Duplicate ids
// follow the registry's policy. The stored value is a deep copy.
func (r *Registry) Register(calc model.Calculator) error {
	id := strings.TrimSpace(calc.ID)
	if id == "" {
		return &DefinitionError{Issues: []validation.Issue{{
			Path: "id", Message: "id is required", Severity: validation.SeverityError,
		}}}
	}
	if issues := r.check(calc); validation.HasErrors(issues) {
		return &DefinitionError{ID: id, Issues: issues}
	}

	stored := calc.Clone()
	stored.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calculators[id]; exists {
		if r.rejectDuplicates {
			return &ConflictError{ID: id}
		}
		r.logger.Warn().
			Str("component", "registry").
			Str("calculator_id", id).
			Msg("replacing previously registered calculator")
		r.calculators[id] = stored
		return nil
	}

	r.calculators[id] = stored
	r.order = append(r.order, id)
	r.logger.Debug().
		Str("component", "registry").
		Str("calculator_id", id).
		Str("category", string(stored.Category)).
		Msg("calculator registered")
	return nil
}

func (r *Registry) check(calc model.Calculator) []validation.Issue {
	if !r.skipChecks {
		return r.engine.Check(calc)
	}
	if calc.Category.Valid() {
		return nil
	}
	return []validation.Issue{{
		Path:     "category",
		Message:  fmt.Sprintf("unknown category %q", calc.Category),
		Severity: validation.SeverityError,
	}}
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(calc model.Calculator) {
	if err := r.Register(calc); err != nil {
		panic(err)
	}
}

// Load registers every calculator and returns the joined registration
// errors. Valid definitions are stored even when others fail.
func (r *Registry) Load(calcs ...model.Calculator) error {
	var errs []error
	for _, calc := range calcs {
		if err := r.Register(calc); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		r.logger.Error().
			Str("component", "registry").
			Int("failed", len(errs)).
			Int("loaded", r.TotalCount()).
			Msg("calculator load finished with errors")
	}
	return errors.Join(errs...)
}

// Get returns the calculator registered under id. Missing ids report false.
func (r *Registry) Get(id string) (model.Calculator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, ok := r.calculators[strings.TrimSpace(id)]
	if !ok {
		return model.Calculator{}, false
	}
	return calc.Clone(), true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.calculators[strings.TrimSpace(id)]
	return ok
}

// IDs returns registered ids in insertion order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// All returns every calculator in insertion order.
func (r *Registry) All() []model.Calculator {
	return r.filter(func(model.Calculator) bool { return true })
}

// ByCategory returns the calculators in category, in insertion order.
func (r *Registry) ByCategory(category model.Category) []model.Calculator {
	return r.filter(func(calc model.Calculator) bool { return calc.Category == category })
}

// BySubcategory narrows ByCategory to a subcategory (case-insensitive).
func (r *Registry) BySubcategory(category model.Category, subcategory string) []model.Calculator {
	return r.filter(func(calc model.Calculator) bool {
		return calc.Category == category && strings.EqualFold(calc.Subcategory, strings.TrimSpace(subcategory))
	})
}

// Subcategories lists the distinct non-empty subcategories of category,
// sorted.
func (r *Registry) Subcategories(category model.Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, id := range r.order {
		calc := r.calculators[id]
		if calc.Category != category || calc.Subcategory == "" {
			continue
		}
		seen[calc.Subcategory] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for sub := range seen {
		out = append(out, sub)
	}
	sort.Strings(out)
	return out
}

// Search returns calculators whose id, title, description or tags contain
// term, case-insensitively, in insertion order. An empty term matches all.
func (r *Registry) Search(term string) []model.Calculator {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return r.All()
	}
	return r.filter(func(calc model.Calculator) bool {
		if strings.Contains(strings.ToLower(calc.ID), needle) ||
			strings.Contains(strings.ToLower(calc.Title), needle) ||
			strings.Contains(strings.ToLower(calc.Description), needle) {
			return true
		}
		for _, tag := range calc.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	})
}

// TotalCount returns the number of registered calculators.
func (r *Registry) TotalCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.calculators)
}

// CategoryCount returns the number of calculators in category. It always
// equals len(ByCategory(category)).
func (r *Registry) CategoryCount(category model.Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, calc := range r.calculators {
		if calc.Category == category {
			count++
		}
	}
	return count
}

// CategoryTotal pairs a category with its number of calculators.
type CategoryTotal struct {
	Category model.Category `json:"category" yaml:"category"`
	Label    string         `json:"label" yaml:"label"`
	Count    int            `json:"count" yaml:"count"`
}

// CategoryCounts returns a count for every known category in enumeration
// order, including empty ones.
func (r *Registry) CategoryCounts() []CategoryTotal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.Category]int, len(r.calculators))
	for _, calc := range r.calculators {
		counts[calc.Category]++
	}
	categories := model.Categories()
	out := make([]CategoryTotal, 0, len(categories))
	for _, category := range categories {
		out = append(out, CategoryTotal{
			Category: category,
			Label:    category.Label(),
			Count:    counts[category],
		})
	}
	return out
}

func (r *Registry) filter(keep func(model.Calculator) bool) []model.Calculator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Calculator
	for _, id := range r.order {
		calc := r.calculators[id]
		if keep(calc) {
			out = append(out, calc.Clone())
		}
	}
	return out
}
