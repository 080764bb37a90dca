package ast

import "strconv"

// RenderBodyNode marks where a layout substitutes the body of the view it
// wraps.
type RenderBodyNode struct {
	Pos
}

// NewRenderBodyNode returns the {% renderbody %} statement found at pos.
func NewRenderBodyNode(pos Pos) *RenderBodyNode {
	return &RenderBodyNode{pos}
}

func (n *RenderBodyNode) String() string {
	return "{% renderbody %}"
}

// RenderSectionNode marks where a layout renders a named section captured by
// the view it wraps.  Its fields cannot change after construction.
type RenderSectionNode struct {
	Pos
	name     string
	required bool
}

// NewRenderSectionNode returns the {% rendersection %} statement found at pos.
func NewRenderSectionNode(pos Pos, name string, required bool) *RenderSectionNode {
	return &RenderSectionNode{pos, name, required}
}

// Name is the section name; empty when the tag had no identifier.
func (n *RenderSectionNode) Name() string {
	return n.name
}

// Required reports whether rendering fails when the view does not define the
// section.
func (n *RenderSectionNode) Required() bool {
	return n.required
}

func (n *RenderSectionNode) String() string {
	var expr = "{% rendersection"
	if n.name != "" {
		expr += " " + n.name
		if n.required {
			expr += ","
		}
	}
	if n.required {
		expr += " required: " + strconv.FormatBool(n.required)
	}
	return expr + " %}"
}
