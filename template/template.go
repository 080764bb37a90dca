package template

import (
	"strings"

	"github.com/tessera-cms/fluid/ast"
)

// View is one compiled view: its parse tree along with the logical path it
// is registered under and the provider that contributed it.
type View struct {
	Path   string // logical path, e.g. "layouts/main"
	Origin string // name of the contributing provider
	Node   *ast.TemplateNode
}

// Includes returns the distinct static targets of the view's include tags,
// in order of appearance.
func (v *View) Includes() []string {
	var seen = make(map[string]bool)
	var names []string
	ast.Walk(v.Node, func(n ast.Node) bool {
		if inc, ok := n.(*ast.IncludeNode); ok && !seen[inc.Name] {
			seen[inc.Name] = true
			names = append(names, inc.Name)
		}
		return true
	})
	return names
}

// Sections returns the render section statements of the view, which are
// non-empty only for layouts.
func (v *View) Sections() []*ast.RenderSectionNode {
	var sections []*ast.RenderSectionNode
	ast.Walk(v.Node, func(n ast.Node) bool {
		if s, ok := n.(*ast.RenderSectionNode); ok {
			sections = append(sections, s)
		}
		return true
	})
	return sections
}

// IsLayout reports whether the view renders the body of another view.
func (v *View) IsLayout() bool {
	var found bool
	ast.Walk(v.Node, func(n ast.Node) bool {
		if _, ok := n.(*ast.RenderBodyNode); ok {
			found = true
		}
		return !found
	})
	return found
}

// Position converts a byte offset in the view's source into a 1-based line
// and column.
func (v *View) Position(pos ast.Pos) (line, col int) {
	var text = v.Node.Text
	if int(pos) > len(text) {
		pos = ast.Pos(len(text))
	}
	if pos < 0 {
		pos = 0
	}
	var before = text[:pos]
	return 1 + strings.Count(before, "\n"), int(pos) - strings.LastIndex(before, "\n")
}
