package parse

import "github.com/tessera-cms/fluid/ast"

// TagBuilder turns the parse tree of a simple tag into a statement node.
// Implementations must be safe for concurrent use; the parser calls them from
// whichever goroutine is parsing.
type TagBuilder interface {
	BuildTag(tag *TagNode) (ast.Node, error)
}

// TagBuilderFunc adapts a function to the TagBuilder interface.
type TagBuilderFunc func(tag *TagNode) (ast.Node, error)

func (f TagBuilderFunc) BuildTag(tag *TagNode) (ast.Node, error) {
	return f(tag)
}

// DefaultBuilder builds the simple tags of the base grammar.
type DefaultBuilder struct{}

func (DefaultBuilder) BuildTag(tag *TagNode) (ast.Node, error) {
	switch tag.Term {
	case "include":
		return buildInclude(tag)
	}
	return nil, tag.Errorf("unknown tag %q", tag.Term)
}

// buildInclude builds {% include 'path', key: value %}.
func buildInclude(tag *TagNode) (ast.Node, error) {
	var name *TagNode
	if len(tag.Children) > 0 && tag.Children[0].Term != TermArguments {
		name = tag.Children[0]
	}
	if name == nil || (name.Term != TermString && name.Term != TermIdentifier) {
		return nil, tag.Errorf("include requires a view name")
	}

	var node = &ast.IncludeNode{Pos: tag.Pos, Name: name.Token}
	if args := tag.Child(TermArguments); args != nil {
		for _, arg := range args.Children {
			key, val := arg.Children[0], arg.Children[1]
			value, err := ValueNode(val)
			if err != nil {
				return nil, err
			}
			node.Params = append(node.Params, &ast.ParamNode{Pos: arg.Pos, Key: key.Token, Value: value})
		}
	}
	return node, nil
}
