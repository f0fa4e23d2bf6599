package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-calculator/pkg/formulas"
	"github.com/goliatone/go-calculator/pkg/model"
)

// Library resolves the formula and validator ids referenced by definition
// files. *formulas.Library satisfies it.
type Library interface {
	Formula(id string) (model.Formula, bool)
	Validator(name string) (model.Validator, bool)
}

// LoadFS walks fsys and parses every JSON/YAML definition file, in lexical
// path order. Formula and validator ids are bound through lib; a nil lib uses
// formulas.Default(). Duplicate calculator ids are returned as-is so the
// registry's duplicate policy decides.
func LoadFS(fsys fs.FS, lib Library) ([]model.Calculator, error) {
	if fsys == nil {
		return nil, nil
	}
	if lib == nil {
		lib = formulas.Default()
	}

	var calcs []model.Calculator
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for idx, raw := range doc.Calculators {
			calc, err := bind(raw, lib)
			if err != nil {
				return fmt.Errorf("catalog: %s calculators[%d]: %w", path, idx, err)
			}
			calcs = append(calcs, calc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return calcs, nil
}

// LoadDir loads definitions from a directory on disk.
func LoadDir(dir string, lib Library) ([]model.Calculator, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), lib)
}

// LoadEmbedded loads the bundled catalog.
func LoadEmbedded(lib Library) ([]model.Calculator, error) {
	return LoadFS(EmbeddedFS(), lib)
}

type documentFile struct {
	Calculators []calculatorFile `json:"calculators" yaml:"calculators"`
}

type calculatorFile struct {
	ID                string                 `json:"id" yaml:"id"`
	Title             string                 `json:"title" yaml:"title"`
	Category          string                 `json:"category" yaml:"category"`
	Subcategory       string                 `json:"subcategory" yaml:"subcategory"`
	Description       string                 `json:"description" yaml:"description"`
	UsageInstructions []string               `json:"usageInstructions" yaml:"usageInstructions"`
	Tags              []string               `json:"tags" yaml:"tags"`
	Inputs            []model.Input          `json:"inputs" yaml:"inputs"`
	Outputs           []model.Output         `json:"outputs" yaml:"outputs"`
	Formulas          []string               `json:"formulas" yaml:"formulas"`
	ValidationRules   []model.ValidationRule `json:"validationRules" yaml:"validationRules"`
	Examples          []model.Example        `json:"examples" yaml:"examples"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(bytes.TrimSpace(data)) == 0 {
		return documentFile{}, fmt.Errorf("catalog: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return documentFile{}, fmt.Errorf("catalog: parse %s: %w", source, err)
		}
		return doc, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return documentFile{}, fmt.Errorf("catalog: parse %s: %w", source, err)
	}
	return doc, nil
}

func bind(raw calculatorFile, lib Library) (model.Calculator, error) {
	category, _ := model.ParseCategory(raw.Category)
	calc := model.Calculator{
		ID:                strings.TrimSpace(raw.ID),
		Title:             sanitizeText(raw.Title),
		Category:          category,
		Subcategory:       sanitizeText(raw.Subcategory),
		Description:       sanitizeText(raw.Description),
		UsageInstructions: sanitizeAll(raw.UsageInstructions),
		Tags:              sanitizeAll(raw.Tags),
		Inputs:            raw.Inputs,
		Outputs:           raw.Outputs,
		ValidationRules:   raw.ValidationRules,
		Examples:          raw.Examples,
	}

	for idx := range calc.Inputs {
		in := &calc.Inputs[idx]
		in.Label = sanitizeText(in.Label)
		in.Placeholder = sanitizeText(in.Placeholder)
		in.Tooltip = sanitizeText(in.Tooltip)
		in.Description = sanitizeText(in.Description)
		for optIdx := range in.Options {
			in.Options[optIdx].Label = sanitizeText(in.Options[optIdx].Label)
		}
	}
	for idx := range calc.Outputs {
		out := &calc.Outputs[idx]
		out.Label = sanitizeText(out.Label)
		out.Explanation = sanitizeText(out.Explanation)
	}
	for idx := range calc.Examples {
		ex := &calc.Examples[idx]
		ex.Title = sanitizeText(ex.Title)
		ex.Description = sanitizeText(ex.Description)
	}

	for _, id := range raw.Formulas {
		id = strings.TrimSpace(id)
		formula, ok := lib.Formula(id)
		if !ok {
			return model.Calculator{}, fmt.Errorf("calculator %q references unknown formula %q", calc.ID, id)
		}
		calc.Formulas = append(calc.Formulas, formula)
	}

	for idx := range calc.ValidationRules {
		rule := &calc.ValidationRules[idx]
		name := strings.TrimSpace(rule.ValidatorName)
		if name == "" {
			continue
		}
		fn, ok := lib.Validator(name)
		if !ok {
			return model.Calculator{}, fmt.Errorf("calculator %q rule %d references unknown validator %q", calc.ID, idx, name)
		}
		rule.Validator = fn
	}

	return calc, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
