package calculator

import (
	"fmt"
	"io/fs"

	"github.com/goliatone/go-calculator/pkg/catalog"
	"github.com/goliatone/go-calculator/pkg/executor"
	"github.com/goliatone/go-calculator/pkg/formulas"
	"github.com/goliatone/go-calculator/pkg/harness"
	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/registry"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// Calculator aliases model.Calculator so callers can stay on the root
// package for the common path.
type Calculator = model.Calculator

// Values is the input/output map passed through validation and execution.
type Values = model.Values

// Category is the closed set of catalog groupings.
type Category = model.Category

// ValidationResult aliases validation.Result.
type ValidationResult = validation.Result

// Result aliases executor.Result.
type Result = executor.Result

// Report aliases harness.Report.
type Report = harness.Report

// NewRegistry exposes the registry constructor from the top-level module.
func NewRegistry(options ...registry.Option) *registry.Registry {
	return registry.New(options...)
}

// LoadDefault parses the bundled catalog with the built-in formula library
// and registers it into a new registry.
func LoadDefault(options ...registry.Option) (*registry.Registry, error) {
	return LoadFS(catalog.EmbeddedFS(), formulas.Default(), options...)
}

// LoadFS parses definitions from fsys, binds them through lib and registers
// them. Registration errors are joined; valid definitions are still stored.
func LoadFS(fsys fs.FS, lib catalog.Library, options ...registry.Option) (*registry.Registry, error) {
	calcs, err := catalog.LoadFS(fsys, lib)
	if err != nil {
		return nil, err
	}
	reg := registry.New(options...)
	if err := reg.Load(calcs...); err != nil {
		return reg, fmt.Errorf("calculator: %w", err)
	}
	return reg, nil
}

// Validate evaluates calc's rules and declared input schema against inputs.
func Validate(calc Calculator, inputs Values) ValidationResult {
	return validation.ValidateInputs(calc, inputs)
}

// Run validates inputs and executes calc. Invalid inputs return
// *executor.InputError.
func Run(calc Calculator, inputs Values) (Result, error) {
	return executor.New().Run(calc, inputs)
}

// RunExamples replays every worked example held by src.
func RunExamples(src harness.Source, options ...harness.Option) Report {
	return harness.RunRegistry(src, options...)
}
