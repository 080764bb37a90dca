// Package template holds the compiled-view table.
package template

import "fmt"

// Registry is the compiled-view table: a mapping from logical path to
// compiled view.  It is immutable once created and safe for concurrent use.
type Registry struct {
	views map[string]*View
	paths []string // in the order the views were given
}

// NewRegistry builds a registry of the given views.  Logical paths must be
// unique.
func NewRegistry(views []*View) (*Registry, error) {
	var r = &Registry{
		views: make(map[string]*View, len(views)),
		paths: make([]string, 0, len(views)),
	}
	for _, v := range views {
		if _, ok := r.views[v.Path]; ok {
			return nil, fmt.Errorf("duplicate view path %q", v.Path)
		}
		r.views[v.Path] = v
		r.paths = append(r.paths, v.Path)
	}
	return r, nil
}

// Lookup returns the view registered under the given logical path.
func (r *Registry) Lookup(path string) (*View, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.views[path]
	return v, ok
}

// Paths returns the logical paths of all views, in registration order.
func (r *Registry) Paths() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.paths...)
}

// Views returns all views, in registration order.
func (r *Registry) Views() []*View {
	if r == nil {
		return nil
	}
	var views = make([]*View, len(r.paths))
	for i, path := range r.paths {
		views[i] = r.views[path]
	}
	return views
}

// Len returns the number of views.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.paths)
}
