package parse

import (
	"fmt"
	"strings"

	"github.com/tessera-cms/fluid/ast"
	"github.com/tessera-cms/fluid/errortypes"
)

// Terms label the nodes of a simple tag's parse tree.
const (
	TermIdentifier = "identifier" // variable name or dotted path, e.g. scripts or page.title
	TermString     = "string"     // 'quoted' or "quoted" literal
	TermNumber     = "number"     // integer or decimal literal
	TermBoolean    = "boolean"    // true or false
	TermNil        = "nil"        // nil or null
	TermArguments  = "arguments"  // the list of named arguments
	TermArgument   = "argument"   // one "key: value" pair; children are the key and the value
)

// TagNode is one node of the parse tree of a simple tag, handed to a
// TagBuilder.  The root's Term is the tag keyword.  Its children are the
// optional positional argument followed by the optional TermArguments node.
type TagNode struct {
	Term     string     // tag keyword, or one of the Term constants
	Token    string     // the value for leaf terms; strings are unquoted
	Pos      ast.Pos    // byte position in the template text
	File     string     // template name
	Line     int        // 1-based line of Pos
	Col      int        // 1-based column of Pos
	Children []*TagNode // in source order
}

// FindToken returns the first token of this node or its descendants, depth
// first, or "" if there is none.
func (n *TagNode) FindToken() string {
	if n == nil {
		return ""
	}
	if n.Token != "" {
		return n.Token
	}
	for _, child := range n.Children {
		if tok := child.FindToken(); tok != "" {
			return tok
		}
	}
	return ""
}

// Child returns the first direct child with the given term, or nil.
func (n *TagNode) Child(term string) *TagNode {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Term == term {
			return child
		}
	}
	return nil
}

// Errorf returns a parse error located at this node.
func (n *TagNode) Errorf(format string, args ...interface{}) *errortypes.ParseError {
	return errortypes.NewParseErrorf(n.File, n.Line, n.Col, format, args...)
}

func (n *TagNode) String() string {
	if len(n.Children) == 0 {
		if n.Token != "" {
			return fmt.Sprintf("%s(%s)", n.Term, n.Token)
		}
		return n.Term
	}
	var children = make([]string, len(n.Children))
	for i, child := range n.Children {
		children[i] = child.String()
	}
	return n.Term + "[" + strings.Join(children, " ") + "]"
}

// ValueNode converts a leaf term into an expression node.  Identifiers become
// data references and dotted paths become key accesses.
func ValueNode(n *TagNode) (ast.Node, error) {
	switch n.Term {
	case TermString:
		return &ast.StringNode{Pos: n.Pos, Quoted: quote(n.Token), Value: n.Token}, nil
	case TermNumber:
		num, err := parseNumber(n.Pos, n.Token)
		if err != nil {
			return nil, n.Errorf("%v", err)
		}
		return num, nil
	case TermBoolean:
		return &ast.BoolNode{Pos: n.Pos, True: n.Token == "true"}, nil
	case TermNil:
		return &ast.NilNode{Pos: n.Pos}, nil
	case TermIdentifier:
		var parts = strings.Split(n.Token, ".")
		var ref = &ast.DataRefNode{Pos: n.Pos, Key: parts[0]}
		for _, part := range parts[1:] {
			ref.Access = append(ref.Access, &ast.DataRefKeyNode{Pos: n.Pos, Key: part})
		}
		return ref, nil
	}
	return nil, n.Errorf("expected a value, found %s", n.Term)
}

func quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(s) + "'"
}
