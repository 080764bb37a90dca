// Package viewparse extends the template grammar with the view statements
// used by layouts: {% renderbody %} and {% rendersection name, required: bool %}.
package viewparse

import "github.com/tessera-cms/fluid/parse"

// Shapes of the view tags.
var (
	RenderBody    = parse.TagShape{Keyword: "renderbody"}
	RenderSection = parse.TagShape{Keyword: "rendersection", Argument: true, Arguments: true}
)

// Grammar returns the base grammar extended with the view tags.  It fails
// only if the base grammar already declares one of them.
func Grammar() (*parse.Grammar, error) {
	return parse.BaseGrammar().Extend(RenderBody, RenderSection)
}

// NewParser returns a parser for view templates.  It panics if the grammar
// cannot be extended, which is a program configuration error.
func NewParser() *parse.Parser {
	grammar, err := Grammar()
	if err != nil {
		panic(err)
	}
	return parse.New(grammar, Binder{Base: parse.DefaultBuilder{}})
}
