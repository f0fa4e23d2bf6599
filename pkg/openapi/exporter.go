package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-calculator/pkg/model"
)

// Format selects the serialisation produced by Export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps user input onto a Format. Empty input means JSON.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("openapi: unsupported format %q", raw)
	}
}

const (
	// PathPrefix is prepended to calculator ids to build operation paths.
	PathPrefix = "/calculators/"

	validationResultSchema = "ValidationResult"
	contentTypeJSON        = "application/json"
)

// Extension keys attached to operations and schemas.
const (
	ExtensionID          = "x-calculator-id"
	ExtensionCategory    = "x-calculator-category"
	ExtensionSubcategory = "x-calculator-subcategory"
	ExtensionImplemented = "x-calculator-implemented"
	ExtensionFormulas    = "x-calculator-formulas"
	ExtensionInputType   = "x-calculator-input-type"
	ExtensionOutputType  = "x-calculator-output-type"
	ExtensionOutputFmt   = "x-calculator-output-format"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithTitle overrides the document title.
func WithTitle(title string) Option {
	return func(e *Exporter) {
		if strings.TrimSpace(title) != "" {
			e.title = title
		}
	}
}

// WithVersion overrides the document version.
func WithVersion(version string) Option {
	return func(e *Exporter) {
		if strings.TrimSpace(version) != "" {
			e.version = version
		}
	}
}

// WithServerURL adds a server entry to the document.
func WithServerURL(url string) Option {
	return func(e *Exporter) {
		if strings.TrimSpace(url) != "" {
			e.servers = append(e.servers, url)
		}
	}
}

// Exporter builds OpenAPI documents from calculator definitions.
type Exporter struct {
	title   string
	version string
	servers []string
}

// New constructs an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		title:   "Calculators",
		version: "1.0.0",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Export builds, validates and serialises the document for calcs.
func Export(ctx context.Context, calcs []model.Calculator, format Format, opts ...Option) ([]byte, error) {
	return New(opts...).Export(ctx, calcs, format)
}

// Export builds, validates and serialises the document for calcs.
func (e *Exporter) Export(ctx context.Context, calcs []model.Calculator, format Format) ([]byte, error) {
	doc, err := e.Document(ctx, calcs)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: marshal document: %w", err)
	}

	switch format {
	case FormatJSON, "":
		return append(data, '\n'), nil
	case FormatYAML:
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("openapi: convert document to yaml: %w", err)
		}
		out, err := yaml.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("openapi: marshal yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("openapi: unsupported format %q", format)
	}
}

// Document builds the OpenAPI document for calcs and validates it.
func (e *Exporter) Document(ctx context.Context, calcs []model.Calculator) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   e.title,
			Version: e.version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				validationResultSchema: openapi3.NewSchemaRef("", validationResult()),
			},
		},
	}
	for _, url := range e.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}

	categories := make(map[model.Category]struct{})
	for _, calc := range calcs {
		id := strings.TrimSpace(calc.ID)
		if id == "" {
			return nil, errors.New("openapi: calculator id is required")
		}
		path := PathPrefix + id
		if doc.Paths.Value(path) != nil {
			return nil, fmt.Errorf("openapi: duplicate calculator id %q", id)
		}
		doc.Paths.Set(path, &openapi3.PathItem{Post: operation(calc)})
		categories[calc.Category] = struct{}{}
	}

	for _, category := range model.Categories() {
		if _, ok := categories[category]; !ok {
			continue
		}
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: category.Label()})
	}

	if err := doc.Validate(ctx,
		openapi3.DisableExamplesValidation(),
		openapi3.DisableSchemaDefaultsValidation(),
	); err != nil {
		return nil, fmt.Errorf("openapi: validate document: %w", err)
	}
	return doc, nil
}

func operation(calc model.Calculator) *openapi3.Operation {
	formulaIDs := make([]string, 0, len(calc.Formulas))
	for _, formula := range calc.Formulas {
		formulaIDs = append(formulaIDs, formula.ID)
	}

	extensions := map[string]any{
		ExtensionID:          calc.ID,
		ExtensionCategory:    string(calc.Category),
		ExtensionImplemented: calc.Implemented(),
		ExtensionFormulas:    formulaIDs,
	}
	if calc.Subcategory != "" {
		extensions[ExtensionSubcategory] = calc.Subcategory
	}

	request := openapi3.NewRequestBody().
		WithRequired(true).
		WithDescription("Calculator inputs").
		WithJSONSchema(requestSchema(calc))

	ok := openapi3.NewResponse().
		WithDescription("Calculated outputs").
		WithJSONSchema(responseSchema(calc))
	invalid := openapi3.NewResponse().
		WithDescription("Inputs failed validation").
		WithContent(openapi3.NewContentWithJSONSchemaRef(
			openapi3.NewSchemaRef("#/components/schemas/"+validationResultSchema, validationResult()),
		))

	return &openapi3.Operation{
		OperationID: calc.ID,
		Summary:     calc.Title,
		Description: calc.Description,
		Tags:        []string{calc.Category.Label()},
		RequestBody: &openapi3.RequestBodyRef{Value: request},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{Value: ok}),
			openapi3.WithStatus(422, &openapi3.ResponseRef{Value: invalid}),
		),
		Extensions: extensions,
	}
}

func requestSchema(calc model.Calculator) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Title = calc.Title
	for _, in := range calc.Inputs {
		schema.WithProperty(in.ID, inputSchema(in))
		if in.Required {
			schema.Required = append(schema.Required, in.ID)
		}
	}
	sort.Strings(schema.Required)
	return schema
}

func inputSchema(in model.Input) *openapi3.Schema {
	var schema *openapi3.Schema
	switch in.Type {
	case model.InputTypeNumber, model.InputTypeCurrency, model.InputTypePercentage:
		schema = openapi3.NewFloat64Schema()
		if in.Min != nil {
			schema.WithMin(*in.Min)
		}
		if in.Max != nil {
			schema.WithMax(*in.Max)
		}
		if in.Step != nil && *in.Step > 0 {
			step := *in.Step
			schema.MultipleOf = &step
		}
	case model.InputTypeBoolean:
		schema = openapi3.NewBoolSchema()
	case model.InputTypeDate:
		schema = openapi3.NewStringSchema().WithFormat("date")
	case model.InputTypeSelect:
		schema = openapi3.NewStringSchema()
		values := make([]any, 0, len(in.Options))
		for _, opt := range in.Options {
			values = append(values, opt.Value)
		}
		if len(values) > 0 {
			schema.WithEnum(values...)
		}
	default:
		schema = openapi3.NewStringSchema()
	}

	schema.Title = in.Label
	schema.Description = in.Description
	if schema.Description == "" {
		schema.Description = in.Tooltip
	}
	if in.DefaultValue != nil {
		schema.Default = defaultValue(in)
	}
	schema.Extensions = map[string]any{ExtensionInputType: string(in.Type)}
	return schema
}

func defaultValue(in model.Input) any {
	if in.Type.Numeric() {
		if n, ok := model.ToNumber(in.DefaultValue); ok {
			return n
		}
	}
	if in.Type == model.InputTypeBoolean {
		if b, ok := model.ToBool(in.DefaultValue); ok {
			return b
		}
	}
	if in.Type == model.InputTypeSelect || in.Type == model.InputTypeText || in.Type == model.InputTypeDate {
		return model.ToString(in.DefaultValue)
	}
	return in.DefaultValue
}

func responseSchema(calc model.Calculator) *openapi3.Schema {
	outputs := openapi3.NewObjectSchema()
	for _, out := range calc.Outputs {
		outputs.WithProperty(out.ID, outputSchema(out))
	}

	return openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema().WithEnum("ok", "not-implemented")).
		WithProperty("calculatorId", openapi3.NewStringSchema()).
		WithProperty("outputs", outputs).
		WithProperty("explanation", openapi3.NewStringSchema())
}

func outputSchema(out model.Output) *openapi3.Schema {
	var schema *openapi3.Schema
	switch out.Type {
	case model.OutputTypeCurrency, model.OutputTypePercentage, model.OutputTypeNumber:
		schema = openapi3.NewFloat64Schema()
	case model.OutputTypeText:
		schema = openapi3.NewStringSchema()
	default:
		schema = &openapi3.Schema{}
	}
	schema.Title = out.Label
	schema.Description = out.Explanation
	schema.Extensions = map[string]any{ExtensionOutputType: string(out.Type)}
	if out.Format != "" {
		schema.Extensions[ExtensionOutputFmt] = out.Format
	}
	return schema
}

func validationResult() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("valid", openapi3.NewBoolSchema()).
		WithProperty("errors", openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema()))
}
