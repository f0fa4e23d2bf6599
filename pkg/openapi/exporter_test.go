package openapi

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-calculator/pkg/catalog"
	"github.com/goliatone/go-calculator/pkg/model"
)

func float(v float64) *float64 { return &v }

func retirementFixture() model.Calculator {
	return model.Calculator{
		ID:          "retirement-calculator",
		Title:       "Retirement Calculator",
		Category:    model.CategoryFinance,
		Subcategory: "Retirement",
		Description: "Project savings at retirement.",
		Inputs: []model.Input{
			{ID: "currentAge", Label: "Current Age", Type: model.InputTypeNumber, Required: true, Min: float(18), Max: float(100)},
			{ID: "retirementAge", Label: "Retirement Age", Type: model.InputTypeNumber, Required: true, DefaultValue: 65},
			{ID: "accountType", Label: "Account Type", Type: model.InputTypeSelect, Options: []model.Option{
				{Value: "401k", Label: "401(k)"},
				{Value: "roth", Label: "Roth IRA"},
			}},
			{ID: "startDate", Label: "Start Date", Type: model.InputTypeDate},
			{ID: "reinvest", Label: "Reinvest", Type: model.InputTypeBoolean},
		},
		Outputs: []model.Output{
			{ID: "projectedSavings", Label: "Projected Savings", Type: model.OutputTypeCurrency},
			{ID: "summary", Label: "Summary", Type: model.OutputTypeText},
			{ID: "growth", Label: "Growth", Type: model.OutputTypeChart},
		},
		Formulas: []model.Formula{{ID: "retirement-projection"}},
	}
}

func TestDocumentDescribesCalculator(t *testing.T) {
	t.Parallel()

	doc, err := New(WithTitle("Test"), WithVersion("2.0.0")).Document(context.Background(), []model.Calculator{retirementFixture()})
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if doc.Info.Title != "Test" || doc.Info.Version != "2.0.0" {
		t.Fatalf("unexpected info %#v", doc.Info)
	}

	item := doc.Paths.Value("/calculators/retirement-calculator")
	if item == nil || item.Post == nil {
		t.Fatalf("expected POST operation for retirement-calculator")
	}
	op := item.Post
	if op.OperationID != "retirement-calculator" || op.Summary != "Retirement Calculator" {
		t.Fatalf("unexpected operation %#v", op)
	}
	if diff := cmp.Diff([]string{"Finance & Investment"}, op.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if op.Extensions[ExtensionCategory] != "finance" || op.Extensions[ExtensionImplemented] != true {
		t.Fatalf("unexpected extensions %#v", op.Extensions)
	}

	request := op.RequestBody.Value.Content.Get("application/json").Schema.Value
	if diff := cmp.Diff([]string{"currentAge", "retirementAge"}, request.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	age := request.Properties["currentAge"].Value
	if age.Min == nil || *age.Min != 18 || age.Max == nil || *age.Max != 100 {
		t.Fatalf("expected currentAge bounds 18..100, got %v..%v", age.Min, age.Max)
	}
	if got := request.Properties["retirementAge"].Value.Default; got != 65.0 {
		t.Fatalf("expected numeric default 65, got %#v", got)
	}
	if diff := cmp.Diff([]any{"401k", "roth"}, request.Properties["accountType"].Value.Enum); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	if got := request.Properties["startDate"].Value.Format; got != "date" {
		t.Fatalf("expected date format, got %q", got)
	}
	if !request.Properties["reinvest"].Value.Type.Is(openapi3.TypeBoolean) {
		t.Fatalf("expected boolean schema for reinvest")
	}

	response := op.Responses.Status(200).Value.Content.Get("application/json").Schema.Value
	outputs := response.Properties["outputs"].Value
	if !outputs.Properties["projectedSavings"].Value.Type.Is(openapi3.TypeNumber) {
		t.Fatalf("expected number schema for currency output")
	}
	if !outputs.Properties["summary"].Value.Type.Is(openapi3.TypeString) {
		t.Fatalf("expected string schema for text output")
	}
	if op.Responses.Status(422) == nil {
		t.Fatalf("expected validation failure response")
	}
}

func TestExportRoundTripsEmbeddedCatalog(t *testing.T) {
	t.Parallel()

	calcs, err := catalog.LoadEmbedded(nil)
	if err != nil {
		t.Fatalf("LoadEmbedded returned error: %v", err)
	}

	data, err := Export(context.Background(), calcs, FormatJSON)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("load exported document: %v", err)
	}
	if err := doc.Validate(context.Background(), openapi3.DisableExamplesValidation(), openapi3.DisableSchemaDefaultsValidation()); err != nil {
		t.Fatalf("exported document is invalid: %v", err)
	}
	if got := doc.Paths.Len(); got != len(calcs) {
		t.Fatalf("expected %d paths, got %d", len(calcs), got)
	}

	calmar := doc.Paths.Value("/calculators/calmar-ratio-calculator")
	if calmar == nil || calmar.Post == nil {
		t.Fatalf("expected calmar operation")
	}
	if calmar.Post.Extensions[ExtensionImplemented] != false {
		t.Fatalf("expected calmar to be flagged as not implemented, got %#v", calmar.Post.Extensions[ExtensionImplemented])
	}
}

func TestExportYAML(t *testing.T) {
	t.Parallel()

	data, err := Export(context.Background(), []model.Calculator{retirementFixture()}, FormatYAML)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if !strings.Contains(string(data), "/calculators/retirement-calculator:") {
		t.Fatalf("expected yaml path key, got:\n%s", data)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if tree["openapi"] != "3.0.3" {
		t.Fatalf("unexpected openapi version %#v", tree["openapi"])
	}

	if _, err := openapi3.NewLoader().LoadFromData(data); err != nil {
		t.Fatalf("yaml output does not load: %v", err)
	}
}

func TestExportRejectsBadInput(t *testing.T) {
	t.Parallel()

	calc := retirementFixture()
	if _, err := Export(context.Background(), []model.Calculator{calc, calc}, FormatJSON); err == nil || !strings.Contains(err.Error(), "duplicate calculator id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if _, err := Export(context.Background(), []model.Calculator{{Title: "No id"}}, FormatJSON); err == nil {
		t.Fatalf("expected missing id error")
	}
	if _, err := Export(context.Background(), []model.Calculator{calc}, Format("xml")); err == nil {
		t.Fatalf("expected unsupported format error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Document(ctx, []model.Calculator{calc}); err == nil {
		t.Fatalf("expected cancelled context error")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Fatalf("expected error for toml")
	}
}
