package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-calculator/internal/config"
	"github.com/goliatone/go-calculator/internal/logging"
	"github.com/goliatone/go-calculator/pkg/catalog"
	"github.com/goliatone/go-calculator/pkg/model"
	"github.com/goliatone/go-calculator/pkg/registry"
	"github.com/goliatone/go-calculator/pkg/report"
	"github.com/goliatone/go-calculator/pkg/validation"
)

// app holds the state shared by every subcommand for a single invocation.
type app struct {
	settings *settings

	cfg      *config.Config
	base     zerolog.Logger
	logger   zerolog.Logger
	engine   *validation.Engine
	renderer *report.Renderer
	format   report.Format

	definitions []model.Calculator
	registry    *registry.Registry
}

func (a *app) setup(cmd *cobra.Command, flags rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	flagSet := cmd.Flags()
	if flagSet.Changed("catalog-dir") {
		cfg.Catalog.Dir = flags.catalogDir
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if flagSet.Changed("output") {
		cfg.Output.Format = flags.output
	}
	if flagSet.Changed("reject-duplicates") {
		cfg.Catalog.RejectDuplicates = flags.rejectDuplicates
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	renderer, err := report.New()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.format = format
	a.renderer = renderer
	a.base = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	a.logger = logging.Component(a.base, "cli")
	a.engine = validation.NewEngine(validation.WithValidators(a.settings.library))
	a.definitions = nil
	a.registry = nil

	a.logger.Debug().Str("command", cmd.CommandPath()).Msg("command started")
	return nil
}

// loadDefinitions parses the configured catalog without registering it.
func (a *app) loadDefinitions() ([]model.Calculator, error) {
	if a.definitions != nil {
		return a.definitions, nil
	}

	var (
		calcs  []model.Calculator
		err    error
		source string
	)
	switch {
	case a.cfg.Catalog.Dir != "":
		source = a.cfg.Catalog.Dir
		calcs, err = catalog.LoadDir(a.cfg.Catalog.Dir, a.settings.library)
	case a.settings.catalog != nil:
		source = "custom"
		calcs, err = catalog.LoadFS(a.settings.catalog, a.settings.library)
	default:
		source = "embedded"
		calcs, err = catalog.LoadFS(catalog.EmbeddedFS(), a.settings.library)
	}
	if err != nil {
		a.logger.Error().Err(err).Str("source", source).Msg("catalog load failed")
		return nil, fmt.Errorf("cli: load catalog: %w", err)
	}

	a.logger.Debug().Str("source", source).Int("definitions", len(calcs)).Msg("catalog loaded")
	a.definitions = calcs
	return calcs, nil
}

// loadRegistry registers the catalog. Any rejected definition fails the
// command.
func (a *app) loadRegistry() (*registry.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}
	calcs, err := a.loadDefinitions()
	if err != nil {
		return nil, err
	}

	opts := []registry.Option{
		registry.WithEngine(a.engine),
		registry.WithLogger(a.base),
	}
	if a.cfg.Catalog.RejectDuplicates {
		opts = append(opts, registry.WithRejectDuplicates())
	}
	reg := registry.New(opts...)
	if err := reg.Load(calcs...); err != nil {
		return nil, fmt.Errorf("cli: load registry: %w", err)
	}
	a.registry = reg
	return reg, nil
}

func (a *app) calculator(id string) (model.Calculator, error) {
	reg, err := a.loadRegistry()
	if err != nil {
		return model.Calculator{}, err
	}
	calc, ok := reg.Get(id)
	if !ok {
		return model.Calculator{}, fmt.Errorf("cli: unknown calculator %q", id)
	}
	return calc, nil
}
