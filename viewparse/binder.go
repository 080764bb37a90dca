package viewparse

import (
	"strings"

	"github.com/tessera-cms/fluid/ast"
	"github.com/tessera-cms/fluid/parse"
)

// Binder builds the view statements and hands every other tag to Base.
type Binder struct {
	Base parse.TagBuilder // nil means parse.DefaultBuilder
}

func (b Binder) BuildTag(tag *parse.TagNode) (ast.Node, error) {
	switch tag.Term {
	case RenderBody.Keyword:
		return ast.NewRenderBodyNode(tag.Pos), nil
	case RenderSection.Keyword:
		return buildRenderSection(tag)
	}
	if b.Base == nil {
		return parse.DefaultBuilder{}.BuildTag(tag)
	}
	return b.Base.BuildTag(tag)
}

// buildRenderSection takes the section name from a leading identifier and
// the required flag from the first "required" argument.  Both are optional.
func buildRenderSection(tag *parse.TagNode) (ast.Node, error) {
	var name string
	if len(tag.Children) > 0 && tag.Children[0].Term == parse.TermIdentifier {
		name = tag.Children[0].Token
	}

	var required bool
	if args := tag.Child(parse.TermArguments); args != nil {
		for _, arg := range args.Children {
			if len(arg.Children) != 2 || arg.Children[0].Token != "required" {
				continue
			}
			var value = arg.Children[1]
			var ok bool
			if required, ok = parseBool(value); !ok {
				return nil, value.Errorf("rendersection: required must be true or false, got %q", value.Token)
			}
			break
		}
	}
	return ast.NewRenderSectionNode(tag.Pos, name, required), nil
}

// parseBool accepts true or false in any case, bare or quoted.
func parseBool(n *parse.TagNode) (value, ok bool) {
	switch n.Term {
	case parse.TermBoolean, parse.TermString, parse.TermIdentifier:
	default:
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(n.Token)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
