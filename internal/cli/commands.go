package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-calculator/pkg/executor"
	"github.com/goliatone/go-calculator/pkg/harness"
	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/openapi"
	"github.com/goliatone/go-calculator/pkg/prompt"
	"github.com/goliatone/go-calculator/pkg/report"
)

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the total and per-category calculator counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.count(cmd)
		},
	}
}

func (a *app) count(cmd *cobra.Command) error {
	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}
	return a.renderer.Summary(cmd.OutOrStdout(), a.format, report.NewSummary(reg))
}

func newListCmd(a *app) *cobra.Command {
	var category, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calculators, optionally filtered by category or search term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			calcs := reg.Search(search)
			if category != "" {
				want, ok := model.ParseCategory(category)
				if !ok {
					return fmt.Errorf("cli: unknown category %q", category)
				}
				kept := calcs[:0]
				for _, calc := range calcs {
					if calc.Category == want {
						kept = append(kept, calc)
					}
				}
				calcs = kept
			}
			return a.renderer.List(cmd.OutOrStdout(), a.format, calcs)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list calculators in this category")
	cmd.Flags().StringVar(&search, "search", "", "match id, title, description or tags")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Describe a calculator's inputs, outputs and rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := a.calculator(args[0])
			if err != nil {
				return err
			}
			return a.renderer.Calculator(cmd.OutOrStdout(), a.format, calc)
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "validate <id>",
		Short: "Validate inputs against a calculator without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := a.calculator(args[0])
			if err != nil {
				return err
			}
			raw, err := parseSets(sets)
			if err != nil {
				return err
			}
			_, result := a.engine.Coerce(calc, raw)
			if err := a.renderer.Validation(cmd.OutOrStdout(), a.format, calc.ID, result); err != nil {
				return err
			}
			if !result.Valid {
				return checksFailed("%d invalid input(s) for %s", len(result.Errors), calc.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "input value as key=value (repeatable)")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var (
		sets        []string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Validate inputs and execute a calculator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := a.calculator(args[0])
			if err != nil {
				return err
			}

			var values model.Values
			if interactive {
				opts := []prompt.Option{prompt.WithEngine(a.engine)}
				if a.settings.driver != nil {
					opts = append(opts, prompt.WithDriver(a.settings.driver))
				}
				values, err = prompt.New(opts...).Collect(cmd.Context(), calc)
				if err != nil {
					return err
				}
			} else {
				raw, err := parseSets(sets)
				if err != nil {
					return err
				}
				values, _ = a.engine.Coerce(calc, raw)
			}

			result, err := executor.New(executor.WithEngine(a.engine)).Run(calc, values)
			var inputErr *executor.InputError
			if errors.As(err, &inputErr) {
				if renderErr := a.renderer.Validation(cmd.OutOrStdout(), a.format, calc.ID, inputErr.Result); renderErr != nil {
					return renderErr
				}
				return checksFailed("%d invalid input(s) for %s", len(inputErr.Result.Errors), calc.ID)
			}
			if err != nil {
				a.logger.Error().Err(err).Str("calculator_id", calc.ID).Msg("calculation failed")
				return err
			}
			return a.renderer.Result(cmd.OutOrStdout(), a.format, calc, result)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "input value as key=value (repeatable)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask for each input in the terminal")
	return cmd
}

func newExamplesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "examples [id...]",
		Short: "Replay worked examples and compare the outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			calcs := reg.All()
			if len(args) > 0 {
				calcs = calcs[:0]
				for _, id := range args {
					calc, err := a.calculator(id)
					if err != nil {
						return err
					}
					calcs = append(calcs, calc)
				}
			}

			rep := harness.New(
				harness.WithTolerance(a.cfg.Harness.Tolerance),
				harness.WithEngine(a.engine),
				harness.WithLogger(a.base),
			).Run(calcs)
			if err := a.renderer.Harness(cmd.OutOrStdout(), a.format, rep); err != nil {
				return err
			}
			if rep.Failed() {
				return checksFailed("%d calculator(s) failed their examples", rep.Totals.Failed)
			}
			return nil
		},
	}
}

func newLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Check definitions for errors and warnings before registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			calcs, err := a.loadDefinitions()
			if err != nil {
				return err
			}
			view := report.NewLintView(a.engine, calcs)
			if err := a.renderer.Lint(cmd.OutOrStdout(), a.format, view); err != nil {
				return err
			}
			if view.Errors > 0 {
				return checksFailed("%d definition error(s)", view.Errors)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog in other formats",
	}

	var formatName, title, serverURL string
	openapiCmd := &cobra.Command{
		Use:   "openapi",
		Short: "Describe every calculator as an OpenAPI 3 operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := openapi.ParseFormat(formatName)
			if err != nil {
				return err
			}
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			opts := []openapi.Option{openapi.WithVersion(cmd.Root().Version)}
			if title != "" {
				opts = append(opts, openapi.WithTitle(title))
			}
			if serverURL != "" {
				opts = append(opts, openapi.WithServerURL(serverURL))
			}
			data, err := openapi.Export(cmd.Context(), reg.All(), format, opts...)
			if err != nil {
				return err
			}
			if !strings.HasSuffix(string(data), "\n") {
				data = append(data, '\n')
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	openapiCmd.Flags().StringVar(&formatName, "format", "json", "document format: json or yaml")
	openapiCmd.Flags().StringVar(&title, "title", "", "document title")
	openapiCmd.Flags().StringVar(&serverURL, "server-url", "", "base URL listed under servers")

	cmd.AddCommand(openapiCmd)
	return cmd
}

// parseSets turns repeated key=value flags into raw input strings.
func parseSets(sets []string) (map[string]string, error) {
	raw := make(map[string]string, len(sets))
	for _, item := range sets {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("cli: --set expects key=value, got %q", item)
		}
		raw[key] = value
	}
	return raw, nil
}
