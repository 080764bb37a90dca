package views

import (
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tessera-cms/fluid/errortypes"
	"github.com/tessera-cms/fluid/parse"
	"github.com/tessera-cms/fluid/template"
	"github.com/tessera-cms/fluid/viewparse"
)

// LocationSetting names the configuration setting of the template source
// location.
const LocationSetting = "templates.location"

// Compiler builds a compiled-view table from the application's templates and
// its providers.
type Compiler struct {
	Location   fs.FS    // template source location; required
	AppName    string   // name of the hosting application
	Extensions []string // template file extensions; nil means DefaultExtensions
	Providers  []Provider
	Parser     *parse.Parser // nil means viewparse.NewParser()
	Logger     *slog.Logger  // nil means slog.Default()
}

// Build aggregates and compiles the views.  It fails with a
// ConfigurationError before doing any work if no location is configured.
func (c *Compiler) Build() (*template.Registry, error) {
	if c.Location == nil {
		return nil, &errortypes.ConfigurationError{Setting: LocationSetting, Err: errortypes.ErrNoTemplateSource}
	}
	var start = time.Now()
	var app = Application{Name: c.AppName, FS: c.Location, Extensions: c.Extensions}
	set, err := Aggregator{App: app, Providers: c.Providers}.Aggregate()
	if err != nil {
		return nil, fmt.Errorf("aggregate views: %w", err)
	}
	reg, err := c.Compile(set)
	if err != nil {
		return nil, err
	}
	c.logger().Info("compiled views",
		"app", c.AppName,
		"views", reg.Len(),
		"elapsed", time.Since(start))
	return reg, nil
}

// Compile parses every descriptor into a compiled view and checks that each
// include names a view of the table.  Any failure is returned as a
// CompilationError and no registry is produced.  Identical input yields an
// equivalent registry with the same path order.
func (c *Compiler) Compile(set *DescriptorSet) (*template.Registry, error) {
	var parser = c.Parser
	if parser == nil {
		parser = viewparse.NewParser()
	}

	var descriptors = set.Descriptors()
	var compiled = make([]*template.View, len(descriptors))
	var errs = make([]error, len(descriptors))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, d := range descriptors {
		g.Go(func() error {
			node, err := parser.Parse(d.Path, d.Text)
			if err != nil {
				errs[i] = &errortypes.CompilationError{Path: d.Path, Origin: d.Origin, Err: err}
				return nil
			}
			compiled[i] = &template.View{Path: d.Path, Origin: d.Origin, Node: node}
			return nil
		})
	}
	_ = g.Wait()
	// report the first failure in aggregation order
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	reg, err := template.NewRegistry(compiled)
	if err != nil {
		return nil, &errortypes.CompilationError{Err: err}
	}
	if err := checkIncludes(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// checkIncludes verifies that every include target is in the table.
func checkIncludes(reg *template.Registry) error {
	for _, v := range reg.Views() {
		for _, name := range v.Includes() {
			if _, ok := reg.Lookup(name); !ok {
				return &errortypes.CompilationError{
					Path:   v.Path,
					Origin: v.Origin,
					Err:    fmt.Errorf("include of unknown view %q", name),
				}
			}
		}
	}
	return nil
}

func (c *Compiler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
