// Package ast contains definitions for the in-memory representation of a
// fluid template.
package ast

import (
	"bytes"
	"fmt"
	"strings"
)

// Node represents any singular piece of a template.  For example, a sequence
// of raw text or an output tag.
type Node interface {
	String() string // String returns the template source representation of this node.
	Position() Pos  // byte position of start of node in full original input string
}

// ParentNode is any Node that has descendent nodes.  For example, the Children
// of an IfNode are its conditions and their bodies.
type ParentNode interface {
	Node
	Children() []Node
}

// Pos represents a byte position in the original input text from which this
// template was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.  It is implemented as a method so that Nodes
// may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// TemplateNode is the root of one parsed template.
type TemplateNode struct {
	Name string    // name provided for the input, e.g. the logical view path
	Text string    // the full input text
	Body *ListNode // top-level nodes
}

func (n *TemplateNode) Position() Pos {
	return 0
}

func (n *TemplateNode) String() string {
	return n.Body.String()
}

func (n *TemplateNode) Children() []Node {
	return []Node{n.Body}
}

// ListNode holds a sequence of nodes.
type ListNode struct {
	Pos
	Nodes []Node // The element nodes in lexical order.
}

func (l *ListNode) String() string {
	b := new(bytes.Buffer)
	for _, n := range l.Nodes {
		fmt.Fprint(b, n)
	}
	return b.String()
}

func (l *ListNode) Children() []Node {
	return l.Nodes
}

type RawTextNode struct {
	Pos
	Text []byte // The text; may span newlines.
}

func (t *RawTextNode) String() string {
	return string(t.Text)
}

// OutputNode prints the value of an expression after applying its filters.
type OutputNode struct {
	Pos
	Expr    Node
	Filters []*FilterNode
}

func (n *OutputNode) String() string {
	return "{{ " + n.Expr.String() + filters(n.Filters) + " }}"
}

func (n *OutputNode) Children() []Node {
	var nodes = []Node{n.Expr}
	for _, f := range n.Filters {
		nodes = append(nodes, f)
	}
	return nodes
}

// FilterNode is one "| name: arg, arg" segment of an output or assignment.
type FilterNode struct {
	Pos
	Name string
	Args []Node
}

func (n *FilterNode) String() string {
	if len(n.Args) == 0 {
		return " | " + n.Name
	}
	var args = make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return " | " + n.Name + ": " + strings.Join(args, ", ")
}

func (n *FilterNode) Children() []Node {
	return n.Args
}

func filters(fs []*FilterNode) string {
	var s string
	for _, f := range fs {
		s += f.String()
	}
	return s
}

// Control flow ----------

type IfNode struct {
	Pos
	Conds []*IfCondNode
}

func (n *IfNode) String() string {
	var expr string
	for i, cond := range n.Conds {
		switch {
		case i == 0:
			expr += "{% if "
		case cond.Cond == nil:
			expr += "{% else %}"
		default:
			expr += "{% elsif "
		}
		expr += cond.String()
	}
	return expr + "{% endif %}"
}

func (n *IfNode) Children() []Node {
	var nodes []Node
	for _, child := range n.Conds {
		nodes = append(nodes, child)
	}
	return nodes
}

type IfCondNode struct {
	Pos
	Cond Node // nil if "else"
	Body Node
}

func (n *IfCondNode) String() string {
	var expr string
	if n.Cond != nil {
		expr = n.Cond.String() + " %}"
	}
	return expr + n.Body.String()
}

func (n *IfCondNode) Children() []Node {
	if n.Cond == nil {
		return []Node{n.Body}
	}
	return []Node{n.Cond, n.Body}
}

// ForNode iterates over a list, binding each element to Var.
type ForNode struct {
	Pos
	Var      string
	List     Node
	Limit    Node // nil if absent
	Offset   Node // nil if absent
	Reversed bool
	Body     Node
	IfEmpty  Node // nil if there is no {% else %}
}

func (n *ForNode) String() string {
	var expr = "{% for " + n.Var + " in " + n.List.String()
	if n.Reversed {
		expr += " reversed"
	}
	if n.Limit != nil {
		expr += " limit: " + n.Limit.String()
	}
	if n.Offset != nil {
		expr += " offset: " + n.Offset.String()
	}
	expr += " %}" + n.Body.String()
	if n.IfEmpty != nil {
		expr += "{% else %}" + n.IfEmpty.String()
	}
	return expr + "{% endfor %}"
}

func (n *ForNode) Children() []Node {
	var nodes = []Node{n.List}
	for _, child := range []Node{n.Limit, n.Offset, n.Body, n.IfEmpty} {
		if child != nil {
			nodes = append(nodes, child)
		}
	}
	return nodes
}

// AssignNode binds the filtered value of an expression to a variable.
type AssignNode struct {
	Pos
	Name    string
	Expr    Node
	Filters []*FilterNode
}

func (n *AssignNode) String() string {
	return fmt.Sprintf("{%% assign %s = %s%s %%}", n.Name, n.Expr, filters(n.Filters))
}

func (n *AssignNode) Children() []Node {
	var nodes = []Node{n.Expr}
	for _, f := range n.Filters {
		nodes = append(nodes, f)
	}
	return nodes
}

// CaptureNode renders its body into a string variable.  Captures made by a
// view are also the sections its layout may render.
type CaptureNode struct {
	Pos
	Name string
	Body Node
}

func (n *CaptureNode) String() string {
	return "{% capture " + n.Name + " %}" + n.Body.String() + "{% endcapture %}"
}

func (n *CaptureNode) Children() []Node {
	return []Node{n.Body}
}

// IncludeNode renders another compiled view in place.
type IncludeNode struct {
	Pos
	Name   string
	Params []*ParamNode
}

func (n *IncludeNode) String() string {
	var expr = "{% include " + quote(n.Name)
	for _, p := range n.Params {
		expr += ", " + p.String()
	}
	return expr + " %}"
}

func (n *IncludeNode) Children() []Node {
	var nodes []Node
	for _, p := range n.Params {
		nodes = append(nodes, p)
	}
	return nodes
}

// ParamNode is a "key: value" argument.
type ParamNode struct {
	Pos
	Key   string
	Value Node
}

func (n *ParamNode) String() string {
	return n.Key + ": " + n.Value.String()
}

func (n *ParamNode) Children() []Node {
	return []Node{n.Value}
}

// Walk calls fn for node and each of its descendants, depth first.  It stops
// descending into a node's children when fn returns false.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	if parent, ok := node.(ParentNode); ok {
		for _, child := range parent.Children() {
			Walk(child, fn)
		}
	}
}
