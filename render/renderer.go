// Package render executes compiled views, wrapping them in their layouts.
//
// A view selects its layout by assigning the "layout" variable, or the caller
// supplies one with Renderer.WithLayout.  The layout is rendered after the
// view: {% renderbody %} writes the view's output and
// {% rendersection name %} writes what the view captured under that name.
// Layouts may themselves select a layout.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tessera-cms/fluid/data"
	"github.com/tessera-cms/fluid/template"
)

// ErrViewNotFound is returned when the requested view or layout is not in the
// registry.
var ErrViewNotFound = errors.New("view not found")

// MaxLayoutDepth bounds the length of a chain of layouts.
const MaxLayoutDepth = 8

// MaxIncludeDepth bounds the nesting of include tags.
const MaxIncludeDepth = 32

// Messages translates the text passed through the "t" filter.
type Messages interface {
	Locale() string
	Gettext(msgid string) string
	NGettext(msgid, plural string, n int) string
}

// Renderer provides parameters to view execution.  It is immutable; the With
// methods return modified copies, so one Renderer may be shared by
// concurrent requests.
type Renderer struct {
	registry *template.Registry
	globals  data.Map
	filters  map[string]Filter
	msgs     Messages
	layout   string
	noEscape bool
	logger   *slog.Logger
}

// New returns a Renderer for the views of the given registry.
func New(registry *template.Registry) *Renderer {
	return &Renderer{registry: registry, logger: slog.Default()}
}

// WithGlobals sets values visible to every view, below the render data.
func (r Renderer) WithGlobals(globals data.Map) *Renderer {
	r.globals = globals
	return &r
}

// WithFilters adds filters that take precedence over the builtin Filters.
func (r Renderer) WithFilters(filters map[string]Filter) *Renderer {
	var merged = make(map[string]Filter, len(r.filters)+len(filters))
	for k, v := range r.filters {
		merged[k] = v
	}
	for k, v := range filters {
		merged[k] = v
	}
	r.filters = merged
	return &r
}

// WithMessages provides the catalog used by the "t" filter.
func (r Renderer) WithMessages(msgs Messages) *Renderer {
	r.msgs = msgs
	return &r
}

// WithLayout wraps every rendered view in the given layout, unless the view
// selects its own.
func (r Renderer) WithLayout(path string) *Renderer {
	r.layout = path
	return &r
}

// WithAutoescape turns HTML escaping of output tags on or off.  It is on by
// default.
func (r Renderer) WithAutoescape(on bool) *Renderer {
	r.noEscape = !on
	return &r
}

// WithLogger sets the logger that receives render diagnostics.
func (r Renderer) WithLogger(logger *slog.Logger) *Renderer {
	r.logger = logger
	return &r
}

// Execute renders the view at path with the given data and writes the output,
// including any layouts, to wr.  Nothing is written if rendering fails.
func (r *Renderer) Execute(wr io.Writer, path string, obj data.Map) error {
	if r.registry == nil {
		return errors.New("render: view registry required")
	}
	if path == "" {
		return errors.New("render: view path required")
	}
	view, ok := r.registry.Lookup(path)
	if !ok {
		return fmt.Errorf("render: %w: %s", ErrViewNotFound, path)
	}

	var s = &state{
		renderer: r,
		view:     view,
		context:  newScope(obj),
		captures: make(map[string]data.Safe),
	}
	var out bytes.Buffer
	if err := s.execute(&out); err != nil {
		if r.logger != nil {
			r.logger.Debug("render failed", "view", path, "error", err)
		}
		return err
	}
	_, err := out.WriteTo(wr)
	return err
}

// Render is a convenience that renders to a string.
func (r *Renderer) Render(path string, obj data.Map) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, path, obj); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) filter(name string) (Filter, bool) {
	if f, ok := r.filters[name]; ok {
		return f, true
	}
	if name == "t" && r.msgs != nil {
		return Filter{filterTranslate(r.msgs), []int{0, 2}}, true
	}
	f, ok := Filters[name]
	return f, ok
}
