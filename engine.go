package fluid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tessera-cms/fluid/config"
	"github.com/tessera-cms/fluid/data"
	"github.com/tessera-cms/fluid/locale"
	"github.com/tessera-cms/fluid/render"
	"github.com/tessera-cms/fluid/scripting"
	"github.com/tessera-cms/fluid/template"
	"github.com/tessera-cms/fluid/views"
)

// ErrInvalidTenant is returned for tenant names that are not a single path
// element.
var ErrInvalidTenant = errors.New("invalid tenant name")

// Engine compiles a site's views on demand and renders them.  It is safe for
// concurrent use.
type Engine struct {
	config    *config.Config
	logger    *slog.Logger
	compilers *views.CompilerSet
	globals   data.Map
	filters   map[string]render.Filter
	locales   *locale.Provider
}

// Request describes one rendering.
type Request struct {
	Tenant    string   // "" for the site itself
	Path      string   // logical path of the view, e.g. "pages/home"
	Data      data.Map // may be nil
	Languages []string // locales or Accept-Language values, most preferred first
}

// New returns an engine for the given configuration.  Globals, locales and
// scripts are loaded immediately; views are compiled on first use, so a
// missing template location is reported by the first rendering.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var e = &Engine{config: cfg, logger: logger}

	if cfg.Templates.Globals != "" {
		var f, err = os.Open(cfg.Templates.Globals)
		if err != nil {
			return nil, err
		}
		e.globals, err = render.ParseGlobals(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Templates.Globals, err)
		}
	}

	if cfg.Locale.Dir != "" {
		var err error
		if e.locales, err = locale.Dir(os.DirFS(cfg.Locale.Dir), "."); err != nil {
			return nil, fmt.Errorf("load locales: %w", err)
		}
		logger.Info("loaded locales", "locales", e.locales.Locales())
	}

	if cfg.Scripts.Dir != "" {
		var scripts, err = scripting.LoadDir(os.DirFS(cfg.Scripts.Dir), ".")
		if err != nil {
			return nil, fmt.Errorf("load scripts: %w", err)
		}
		scripts.Timeout = cfg.Scripts.Timeout
		e.filters = scripts.Filters()
		logger.Info("loaded script filters", "filters", scripts.Names())
	}

	e.compilers = views.NewCompilerSet(cfg.Scope(), e.compilerFor)
	return e, nil
}

// compilerFor returns the shared compiler of a tenant's views.
func (e *Engine) compilerFor(tenant string) *views.SharedCompiler {
	var tmpl = e.config.Templates
	var logger = e.logger
	if tenant != "" {
		logger = logger.With("tenant", tenant)
	}
	var compiler = &views.Compiler{
		AppName:    e.config.Application.Name,
		Extensions: tmpl.Extensions,
		Logger:     logger,
	}
	if tmpl.Location != "" {
		compiler.Location = os.DirFS(tmpl.Location)
		compiler.Providers = append(compiler.Providers, views.DirProvider{})
	}
	if tmpl.Manifest != "" {
		compiler.Providers = append(compiler.Providers, views.ManifestProvider{File: tmpl.Manifest})
	}
	if tenant != "" && tmpl.Tenants != "" {
		compiler.Providers = append(compiler.Providers, tenantProvider(filepath.Join(tmpl.Tenants, tenant), tenant))
	}
	return views.ForCompiler(compiler)
}

// tenantProvider contributes the views of a tenant's override directory.  A
// tenant without overrides contributes nothing.
func tenantProvider(dir, tenant string) views.Provider {
	return views.ProviderFunc(func(app views.Application, set *views.DescriptorSet) error {
		var info, err = os.Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case err != nil:
			return err
		case !info.IsDir():
			return fmt.Errorf("tenant %s: %s is not a directory", tenant, dir)
		}
		return views.DirProvider{Name: "tenant:" + tenant, FS: os.DirFS(dir)}.Populate(app, set)
	})
}

// Registry returns the compiled views serving the tenant, compiling them if
// necessary.
func (e *Engine) Registry(tenant string) (*template.Registry, error) {
	if !validTenant(tenant) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTenant, tenant)
	}
	return e.compilers.For(tenant).Get()
}

func validTenant(tenant string) bool {
	return tenant == "" ||
		(fs.ValidPath(tenant) && tenant != "." && !strings.ContainsAny(tenant, `/\`))
}

// Renderer returns a renderer for the tenant's views, translating with the
// catalog that best matches languages.
func (e *Engine) Renderer(tenant string, languages ...string) (*render.Renderer, error) {
	var reg, err = e.Registry(tenant)
	if err != nil {
		return nil, err
	}
	var r = render.New(reg).
		WithGlobals(e.globals).
		WithFilters(e.filters).
		WithLayout(e.config.Render.Layout).
		WithAutoescape(e.config.Render.Autoescape).
		WithLogger(e.logger)
	if catalog := e.catalog(languages); catalog != nil {
		r = r.WithMessages(catalog)
	}
	return r, nil
}

func (e *Engine) catalog(languages []string) *locale.Catalog {
	if e.locales == nil {
		return nil
	}
	var prefs = languages
	if e.config.Locale.Default != "" {
		prefs = append(append([]string(nil), languages...), e.config.Locale.Default)
	}
	return e.locales.Match(prefs...)
}

// Execute renders the requested view to w.  Nothing is written if rendering
// fails.
func (e *Engine) Execute(w io.Writer, req Request) error {
	var r, err = e.Renderer(req.Tenant, req.Languages...)
	if err != nil {
		return err
	}
	return r.Execute(w, req.Path, req.Data)
}

// Invalidate discards every compiled table; the next rendering recompiles.
func (e *Engine) Invalidate() {
	e.compilers.Invalidate()
}

// Compilers returns the engine's compilers.
func (e *Engine) Compilers() *views.CompilerSet {
	return e.compilers
}

// Watch invalidates the compiled views whenever a template file changes,
// until ctx is done.  Each of after is called following an invalidation.
func (e *Engine) Watch(ctx context.Context, after ...func()) error {
	var tmpl = e.config.Templates
	var dirs []string
	for _, dir := range []string{tmpl.Location, tmpl.Tenants} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err == nil {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return errors.New("watch: no template directories")
	}
	var target = watchTarget{e.compilers, after}
	return views.Watch(ctx, target, dirs, e.config.Cache.Debounce, e.logger)
}

type watchTarget struct {
	compilers *views.CompilerSet
	after     []func()
}

func (t watchTarget) Invalidate() {
	t.compilers.Invalidate()
	for _, fn := range t.after {
		fn()
	}
}
