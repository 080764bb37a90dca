package ast

import (
	"strconv"
	"strings"
)

// Values ----------

type NilNode struct {
	Pos
}

func (n *NilNode) String() string {
	return "nil"
}

type BoolNode struct {
	Pos
	True bool
}

func (n *BoolNode) String() string {
	return strconv.FormatBool(n.True)
}

type IntNode struct {
	Pos
	Value int64
}

func (n *IntNode) String() string {
	return strconv.FormatInt(n.Value, 10)
}

type FloatNode struct {
	Pos
	Value float64
}

func (n *FloatNode) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

type StringNode struct {
	Pos
	Quoted string // e.g. 'hello\tworld'
	Value  string // e.g. hello	world
}

func (n *StringNode) String() string {
	return n.Quoted
}

// RangeNode is an inclusive integer range, e.g. (1..limit)
type RangeNode struct {
	Pos
	Start, End Node
}

func (n *RangeNode) String() string {
	return "(" + n.Start.String() + ".." + n.End.String() + ")"
}

func (n *RangeNode) Children() []Node {
	return []Node{n.Start, n.End}
}

// DataRefNode references a variable, optionally followed by key or index
// accesses, e.g. product.images[0].url
type DataRefNode struct {
	Pos
	Key    string
	Access []Node // DataRefKeyNode or DataRefExprNode
}

func (n *DataRefNode) String() string {
	var expr = n.Key
	for _, access := range n.Access {
		expr += access.String()
	}
	return expr
}

func (n *DataRefNode) Children() []Node {
	return n.Access
}

type DataRefKeyNode struct {
	Pos
	Key string
}

func (n *DataRefKeyNode) String() string {
	return "." + n.Key
}

type DataRefExprNode struct {
	Pos
	Arg Node
}

func (n *DataRefExprNode) String() string {
	return "[" + n.Arg.String() + "]"
}

func (n *DataRefExprNode) Children() []Node {
	return []Node{n.Arg}
}

// Operators ----------

type NotNode struct {
	Pos
	Arg Node
}

func (n *NotNode) String() string {
	return "not " + n.Arg.String()
}

func (n *NotNode) Children() []Node {
	return []Node{n.Arg}
}

// BinaryOpNode holds the operands shared by every binary operator node.
type BinaryOpNode struct {
	Name string
	Pos
	Arg1, Arg2 Node
}

func (n *BinaryOpNode) String() string {
	return n.Arg1.String() + " " + n.Name + " " + n.Arg2.String()
}

func (n *BinaryOpNode) Children() []Node {
	return []Node{n.Arg1, n.Arg2}
}

type (
	EqNode       struct{ BinaryOpNode }
	NotEqNode    struct{ BinaryOpNode }
	GtNode       struct{ BinaryOpNode }
	GteNode      struct{ BinaryOpNode }
	LtNode       struct{ BinaryOpNode }
	LteNode      struct{ BinaryOpNode }
	ContainsNode struct{ BinaryOpNode }
	AndNode      struct{ BinaryOpNode }
	OrNode       struct{ BinaryOpNode }
)

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
