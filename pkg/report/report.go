package report

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-calculator/pkg/executor"
	"github.com/goliatone/go-calculator/pkg/harness"
	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// Format selects how a report is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps user input onto a Format. Empty input means text.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("report: unsupported format %q", raw)
	}
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templates fs.FS
}

// WithTemplates replaces the bundled templates. The filesystem must provide
// every template name the renderer uses.
func WithTemplates(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templates = files
		}
	}
}

// Renderer writes reports as text (through templates), JSON or YAML.
type Renderer struct {
	engine *engine
}

// New constructs a Renderer.
func New(opts ...Option) (*Renderer, error) {
	cfg := &config{templates: TemplatesFS()}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	eng, err := newEngine(cfg.templates)
	if err != nil {
		return nil, err
	}
	return &Renderer{engine: eng}, nil
}

// Summary writes the calculator count overview.
func (r *Renderer) Summary(w io.Writer, format Format, summary Summary) error {
	return r.write(w, format, "summary", summary, summary)
}

// List writes a calculator listing.
func (r *Renderer) List(w io.Writer, format Format, calcs []model.Calculator) error {
	rows := NewList(calcs)
	return r.write(w, format, "list", rows, rows)
}

// Calculator writes the detail view of calc.
func (r *Renderer) Calculator(w io.Writer, format Format, calc model.Calculator) error {
	view := NewCalculatorView(calc)
	return r.write(w, format, "calculator", view, view)
}

// Result writes the outcome of running calc.
func (r *Renderer) Result(w io.Writer, format Format, calc model.Calculator, result executor.Result) error {
	view := NewResultView(calc, result)
	return r.write(w, format, "result", view, view)
}

// Validation writes the outcome of validating inputs for calcID.
func (r *Renderer) Validation(w io.Writer, format Format, calcID string, result validation.Result) error {
	view := NewValidationView(calcID, result)
	return r.write(w, format, "validation", view, view)
}

// Lint writes definition issues.
func (r *Renderer) Lint(w io.Writer, format Format, view LintView) error {
	return r.write(w, format, "lint", view, view)
}

// Harness writes a harness report. Structured formats carry the full report.
func (r *Renderer) Harness(w io.Writer, format Format, rep harness.Report) error {
	return r.write(w, format, "harness", NewHarnessView(rep), rep)
}

func (r *Renderer) write(w io.Writer, format Format, name string, view, structured any) error {
	switch format {
	case FormatText, "":
		return r.engine.execute(w, name, pongo2.Context{"report": view})
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(structured); err != nil {
			return fmt.Errorf("report: encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(structured); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("report: unsupported format %q", format)
	}
}
