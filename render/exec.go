package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"runtime"
	"runtime/debug"
	"strings"
	"text/template"

	"github.com/tessera-cms/fluid/ast"
	"github.com/tessera-cms/fluid/data"
	"github.com/tessera-cms/fluid/errortypes"
	views "github.com/tessera-cms/fluid/template"
)

// maxRange bounds the number of elements a (start..end) literal may produce.
const maxRange = 1 << 20

// state represents the state of an execution.
type state struct {
	renderer *Renderer
	view     *views.View // view currently executing, for errors
	wr       io.Writer
	node     ast.Node             // current node, for errors
	context  scope                // variable scope
	captures map[string]data.Safe // sections captured by the current pass
	frame    *frame               // set while a layout executes
	includes int                  // include nesting
}

// frame is what a layout may render from the view it wraps.
type frame struct {
	body     data.Safe
	sections map[string]data.Safe
}

// at marks the state to be on node n, for error reporting.
func (s *state) at(node ast.Node) {
	s.node = node
}

func (s *state) position() (line, col int) {
	var pos ast.Pos
	if s.node != nil {
		pos = s.node.Position()
	}
	return s.view.Position(pos)
}

// errorf formats the error and terminates processing.
func (s *state) errorf(format string, args ...interface{}) {
	var line, col = s.position()
	panic(errortypes.NewRenderError(s.view.Path, line, col, fmt.Errorf(format, args...)))
}

// errRecover is the handler that turns panics into returns from the top
// level of execute.
func (s *state) errRecover(errp *error) {
	if e := recover(); e != nil {
		var line, col = s.position()
		switch e := e.(type) {
		case *errortypes.RenderError:
			*errp = e
		case runtime.Error:
			*errp = errortypes.NewRenderError(s.view.Path, line, col,
				fmt.Errorf("%v\n%s", e, debug.Stack()))
		case error:
			*errp = errortypes.NewRenderError(s.view.Path, line, col, e)
		default:
			*errp = errortypes.NewRenderError(s.view.Path, line, col, fmt.Errorf("%v", e))
		}
	}
}

// execute renders the view, then each layout in the chain it selects.
func (s *state) execute(out *bytes.Buffer) (err error) {
	defer s.errRecover(&err)

	var body = s.renderBlock(s.view.Node.Body)
	var sections = s.captures
	var fallback = s.renderer.layout
	for depth := 0; ; depth++ {
		var path = s.nextLayout(fallback)
		if path == "" {
			break
		}
		if depth == MaxLayoutDepth {
			s.errorf("layout chain exceeds %d levels", MaxLayoutDepth)
		}
		layout, ok := s.renderer.registry.Lookup(path)
		if !ok {
			s.errorf("layout %q: %w", path, ErrViewNotFound)
		}
		if !layout.IsLayout() {
			s.errorf("view %q is not a layout: it has no {%% renderbody %%}", path)
		}

		// The layout sees the view's variables but chooses its own layout.
		s.context.assign("layout", data.Undefined{})
		fallback = ""
		s.view, s.node = layout, nil
		s.frame = &frame{body, sections}
		s.captures = make(map[string]data.Safe)
		body = s.renderBlock(layout.Node.Body)
		for name, content := range s.captures {
			if _, ok := sections[name]; !ok {
				sections[name] = content
			}
		}
	}
	out.WriteString(string(body))
	return nil
}

// nextLayout returns the layout selected by the "layout" variable.  A nil or
// empty value selects no layout; an undefined one selects the fallback.
func (s *state) nextLayout(fallback string) string {
	switch v := s.context.lookup("layout").(type) {
	case data.Undefined:
		return fallback
	case data.String, data.Safe:
		return v.String()
	}
	return ""
}

// walk recursively goes through each node and executes the indicated logic and
// writes the output
func (s *state) walk(node ast.Node) {
	s.at(node)
	switch node := node.(type) {
	case *ast.TemplateNode:
		s.walk(node.Body)
	case *ast.ListNode:
		for _, node := range node.Nodes {
			s.walk(node)
		}

		// Output nodes ----------
	case *ast.RawTextNode:
		s.write(node.Text)
	case *ast.OutputNode:
		s.evalOutput(node)

		// Control flow ----------
	case *ast.IfNode:
		for _, cond := range node.Conds {
			if cond.Cond == nil || s.eval(cond.Cond).Truthy() {
				s.walk(cond.Body)
				break
			}
		}
	case *ast.ForNode:
		s.evalFor(node)
	case *ast.AssignNode:
		s.context.assign(node.Name, s.applyFilters(s.eval(node.Expr), node.Filters))
	case *ast.CaptureNode:
		var content = s.renderBlock(node.Body)
		s.context.assign(node.Name, content)
		s.captures[node.Name] = content
	case *ast.IncludeNode:
		s.evalInclude(node)

		// Layouts ----------
	case *ast.RenderBodyNode:
		if s.frame == nil {
			s.errorf("renderbody outside of a layout")
		}
		s.write([]byte(s.frame.body))
	case *ast.RenderSectionNode:
		if s.frame == nil {
			s.errorf("rendersection outside of a layout")
		}
		content, ok := s.frame.sections[node.Name()]
		if !ok && node.Required() {
			s.errorf("section %q is required but was not defined", node.Name())
		}
		s.write([]byte(content))

	default:
		s.errorf("unknown node: %T", node)
	}
}

func (s *state) write(p []byte) {
	if _, err := s.wr.Write(p); err != nil {
		s.errorf("%s", err)
	}
}

// renderBlock executes the given node into a buffer and returns the output.
func (s *state) renderBlock(node ast.Node) data.Safe {
	var buf bytes.Buffer
	var origWriter = s.wr
	s.wr = &buf
	s.walk(node)
	s.wr = origWriter
	return data.Safe(buf.String())
}

func (s *state) evalOutput(node *ast.OutputNode) {
	var value = s.applyFilters(s.eval(node.Expr), node.Filters)
	if _, safe := value.(data.Safe); safe || s.renderer.noEscape {
		s.write([]byte(value.String()))
		return
	}
	template.HTMLEscape(s.wr, []byte(value.String()))
}

func (s *state) applyFilters(value data.Value, filters []*ast.FilterNode) data.Value {
	for _, node := range filters {
		s.at(node)
		var filter, ok = s.renderer.filter(node.Name)
		if !ok {
			s.errorf("unknown filter %q", node.Name)
		}
		if !checkNumArgs(filter.ValidArgLengths, len(node.Args)) {
			s.errorf("filter %q called with %v args, expected one of: %v",
				node.Name, len(node.Args), filter.ValidArgLengths)
		}

		var args = make([]data.Value, len(node.Args))
		for i, arg := range node.Args {
			args[i] = s.eval(arg)
		}
		var err error
		func() {
			defer func() {
				if e := recover(); e != nil {
					s.errorf("panic in filter %q: %v", node.Name, e)
				}
			}()
			value, err = filter.Apply(value, args)
		}()
		if err != nil {
			s.errorf("filter %q: %w", node.Name, err)
		}
	}
	return value
}

func (s *state) evalFor(node *ast.ForNode) {
	var items data.List
	switch list := s.eval(node.List).(type) {
	case data.List:
		items = list
	case data.Map:
		for _, k := range list.Keys() {
			items = append(items, data.List{data.String(k), list[k]})
		}
	case data.Undefined, data.Null:
	default:
		s.errorf("in for loop %q, %q does not resolve to a list", node.Var, node.List.String())
	}

	if node.Offset != nil {
		var offset = s.evalInt(node.Offset, "offset")
		switch {
		case offset >= len(items):
			items = nil
		case offset > 0:
			items = items[offset:]
		}
	}
	if node.Limit != nil {
		var limit = s.evalInt(node.Limit, "limit")
		if limit < 0 {
			limit = 0
		}
		if limit < len(items) {
			items = items[:limit]
		}
	}
	if node.Reversed {
		var reversed = make(data.List, len(items))
		for i, item := range items {
			reversed[len(items)-1-i] = item
		}
		items = reversed
	}

	if len(items) == 0 {
		if node.IfEmpty != nil {
			s.walk(node.IfEmpty)
		}
		return
	}
	var length = len(items)
	s.context.push()
	for i, item := range items {
		s.context.set(node.Var, item)
		s.context.set("forloop", data.Map{
			"index":   data.Int(i + 1),
			"index0":  data.Int(i),
			"rindex":  data.Int(length - i),
			"rindex0": data.Int(length - i - 1),
			"first":   data.Bool(i == 0),
			"last":    data.Bool(i == length-1),
			"length":  data.Int(length),
		})
		s.walk(node.Body)
	}
	s.context.pop()
}

func (s *state) evalInclude(node *ast.IncludeNode) {
	var view, ok = s.renderer.registry.Lookup(node.Name)
	if !ok {
		s.errorf("include %q: %w", node.Name, ErrViewNotFound)
	}
	if s.includes == MaxIncludeDepth {
		s.errorf("include nesting exceeds %d levels", MaxIncludeDepth)
	}

	var params = make(data.Map, len(node.Params))
	for _, param := range node.Params {
		params[param.Key] = s.eval(param.Value)
	}
	var caller = s.view
	s.includes++
	s.view = view
	s.context.augment(params)
	s.walk(view.Node.Body)
	s.context.pop()
	s.view = caller
	s.includes--
}

// Expressions ----------

func (s *state) eval(node ast.Node) data.Value {
	switch node := node.(type) {
	case *ast.NilNode:
		return data.Null{}
	case *ast.BoolNode:
		return data.Bool(node.True)
	case *ast.IntNode:
		return data.Int(node.Value)
	case *ast.FloatNode:
		return data.Float(node.Value)
	case *ast.StringNode:
		return data.String(node.Value)
	case *ast.RangeNode:
		return s.evalRange(node)
	case *ast.DataRefNode:
		return s.evalDataRef(node)

	case *ast.NotNode:
		return data.Bool(!s.eval(node.Arg).Truthy())
	case *ast.AndNode:
		return data.Bool(s.eval(node.Arg1).Truthy() && s.eval(node.Arg2).Truthy())
	case *ast.OrNode:
		return data.Bool(s.eval(node.Arg1).Truthy() || s.eval(node.Arg2).Truthy())

	case *ast.EqNode:
		return data.Bool(s.eval(node.Arg1).Equals(s.eval(node.Arg2)))
	case *ast.NotEqNode:
		return data.Bool(!s.eval(node.Arg1).Equals(s.eval(node.Arg2)))
	case *ast.LtNode:
		return s.compare(node.Arg1, node.Arg2, func(c int) bool { return c < 0 })
	case *ast.LteNode:
		return s.compare(node.Arg1, node.Arg2, func(c int) bool { return c <= 0 })
	case *ast.GtNode:
		return s.compare(node.Arg1, node.Arg2, func(c int) bool { return c > 0 })
	case *ast.GteNode:
		return s.compare(node.Arg1, node.Arg2, func(c int) bool { return c >= 0 })
	case *ast.ContainsNode:
		return data.Bool(contains(s.eval(node.Arg1), s.eval(node.Arg2)))
	}
	s.errorf("unknown expression: %T", node)
	return nil
}

// compare is false for values that have no order, such as a string and a
// number.
func (s *state) compare(a, b ast.Node, test func(int) bool) data.Value {
	c, ok := data.Compare(s.eval(a), s.eval(b))
	return data.Bool(ok && test(c))
}

func contains(container, item data.Value) bool {
	switch c := container.(type) {
	case data.String, data.Safe:
		return strings.Contains(c.String(), item.String())
	case data.List:
		for _, elem := range c {
			if elem.Equals(item) {
				return true
			}
		}
	case data.Map:
		_, ok := c[item.String()]
		return ok
	}
	return false
}

func (s *state) evalInt(node ast.Node, what string) int {
	var value = s.eval(node)
	f, ok := data.Number(value)
	if !ok || f != math.Trunc(f) {
		s.errorf("%s must be an integer, got %q", what, value.String())
	}
	return int(f)
}

func (s *state) evalRange(node *ast.RangeNode) data.Value {
	var start, end = s.evalInt(node.Start, "range start"), s.evalInt(node.End, "range end")
	if end < start {
		return data.List{}
	}
	if end-start >= maxRange {
		s.errorf("range (%d..%d) is too large", start, end)
	}
	var list = make(data.List, 0, end-start+1)
	for i := start; i <= end; i++ {
		list = append(list, data.Int(i))
	}
	return list
}

func (s *state) evalDataRef(node *ast.DataRefNode) data.Value {
	var ref = s.lookup(node.Key)
	for _, accessNode := range node.Access {
		switch access := accessNode.(type) {
		case *ast.DataRefKeyNode:
			ref = property(ref, access.Key)
		case *ast.DataRefExprNode:
			ref = index(ref, s.eval(access.Arg))
		default:
			s.errorf("unknown data access: %T", accessNode)
		}
	}
	return ref
}

// lookup resolves a variable from the scopes, then the globals.
func (s *state) lookup(key string) data.Value {
	var val = s.context.lookup(key)
	if _, ok := val.(data.Undefined); ok && s.renderer.globals != nil {
		return s.renderer.globals.Key(key)
	}
	return val
}

// property implements ".key" access.  Lists and strings expose size, and
// lists also first and last.
func property(v data.Value, key string) data.Value {
	switch v := v.(type) {
	case data.Map:
		if val, ok := v[key]; ok {
			return val
		}
		if key == "size" {
			return data.Int(len(v))
		}
	case data.List:
		switch key {
		case "size":
			return data.Int(len(v))
		case "first":
			return v.Index(0)
		case "last":
			return v.Index(-1)
		}
	case data.String, data.Safe:
		if key == "size" {
			return data.Int(data.Size(v))
		}
	}
	return data.Undefined{}
}

// index implements "[expr]" access.
func index(v, key data.Value) data.Value {
	switch v := v.(type) {
	case data.List:
		if i, ok := key.(data.Int); ok {
			return v.Index(int(i))
		}
	case data.Map:
		return v.Key(key.String())
	}
	return data.Undefined{}
}
