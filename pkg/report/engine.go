package report

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-calculator/pkg/format"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the bundled text templates rooted at templates/.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(fmt.Sprintf("report: embed templates: %v", err))
	}
	return sub
}

const templateExt = ".tpl"

// engine wraps a pongo2 template set with a parsed template cache.
type engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

func newEngine(files fs.FS) (*engine, error) {
	if files == nil {
		return nil, errors.New("report: template filesystem is required")
	}
	set := pongo2.NewSet("calculators", pongo2.NewFSLoader(files))
	set.Options.TrimBlocks = true
	set.Options.LStripBlocks = true
	registerFilters()

	return &engine{
		set:       set,
		templates: make(map[string]*pongo2.Template),
	}, nil
}

func (e *engine) execute(w io.Writer, name string, data pongo2.Context) error {
	path := name
	if !strings.HasSuffix(path, templateExt) {
		path += templateExt
	}
	tmpl, err := e.template(path)
	if err != nil {
		return err
	}

	e.mu.RLock()
	err = tmpl.ExecuteWriter(data, w)
	e.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("report: execute template %q: %w", path, err)
	}
	return nil
}

func (e *engine) template(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

var registerOnce sync.Once

func registerFilters() {
	registerOnce.Do(func() {
		if !pongo2.FilterExists("grouped") {
			_ = pongo2.RegisterFilter("grouped", filterGrouped)
		}
	})
}

// filterGrouped renders numbers with thousand separators.
func filterGrouped(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if !in.IsNumber() {
		return in, nil
	}
	if in.IsInteger() {
		return pongo2.AsValue(format.Number(float64(in.Integer()), 0)), nil
	}
	return pongo2.AsValue(format.Number(in.Float(), -1)), nil
}
