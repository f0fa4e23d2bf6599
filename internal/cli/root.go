// Package cli implements the calculators command tree.
package cli

import (
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-calculator/pkg/formulas"
	"github.com/goliatone/go-calculator/pkg/prompt"
)

// Option customises the command tree, mainly for tests.
type Option func(*settings)

type settings struct {
	catalog fs.FS
	library *formulas.Library
	driver  prompt.PromptDriver
}

// WithCatalogFS replaces the embedded catalog. --catalog-dir and
// catalog.dir still take precedence.
func WithCatalogFS(fsys fs.FS) Option {
	return func(s *settings) {
		if fsys != nil {
			s.catalog = fsys
		}
	}
}

// WithLibrary sets the formula and validator library used to bind
// definitions.
func WithLibrary(lib *formulas.Library) Option {
	return func(s *settings) {
		if lib != nil {
			s.library = lib
		}
	}
}

// WithPromptDriver sets the driver used by run --interactive.
func WithPromptDriver(driver prompt.PromptDriver) Option {
	return func(s *settings) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// NewRootCmd creates the calculators command. Run without a subcommand it
// prints the calculator count summary.
func NewRootCmd(version string, opts ...Option) *cobra.Command {
	s := &settings{library: formulas.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	var flags rootFlags
	a := &app{settings: s}

	cmd := &cobra.Command{
		Use:           "calculators",
		Short:         "Inspect, validate and run calculator definitions",
		Long:          "calculators loads the calculator catalog into a registry and exposes counts, validation, execution and example checks.",
		Version:       version,
		Example:       rootCmdExample,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.count(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.catalogDir, "catalog-dir", "", "load definitions from this directory instead of the embedded catalog")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: console or json")
	pf.StringVarP(&flags.output, "output", "o", "", "report format: text, json or yaml")
	pf.BoolVar(&flags.rejectDuplicates, "reject-duplicates", false, "fail when two definitions share an id instead of keeping the last")

	cmd.AddCommand(
		newCountCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newValidateCmd(a),
		newRunCmd(a),
		newExamplesCmd(a),
		newLintCmd(a),
		newExportCmd(a),
	)
	return cmd
}

type rootFlags struct {
	configPath       string
	catalogDir       string
	logLevel         string
	logFormat        string
	output           string
	rejectDuplicates bool
}

const rootCmdExample = `  # Show how many calculators each category holds
  calculators

  # List the finance calculators
  calculators list --category finance

  # Check inputs without running anything
  calculators validate retirement-calculator --set currentAge=40 --set retirementAge=65

  # Run a calculator, asking for each input
  calculators run mortgage-calculator --interactive

  # Replay every worked example
  calculators examples

  # Describe the catalog as an OpenAPI document
  calculators export openapi --format yaml`
