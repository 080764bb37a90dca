package parse

import (
	"errors"
	"fmt"
	"sort"
)

// ErrTagConflict is returned when a grammar extension declares a tag keyword
// that is already part of the grammar.
var ErrTagConflict = errors.New("tag keyword already declared")

// ErrInvalidKeyword is returned for tag keywords that are not identifiers.
var ErrInvalidKeyword = errors.New("tag keyword must be an identifier")

// TagShape declares the syntax of a simple tag: a keyword, optionally followed
// by one positional argument and a list of named arguments.
//
//	{% keyword %}
//	{% keyword argument %}
//	{% keyword argument, key: value, key2: value2 %}
type TagShape struct {
	Keyword   string
	Argument  bool // accepts an optional positional argument
	Arguments bool // accepts an optional "key: value" list
}

// Grammar is the set of simple tags the parser recognizes in addition to the
// block statements (if, unless, for, capture, comment, raw) and assign.
// A Grammar is immutable once built and safe for concurrent use.
type Grammar struct {
	tags map[string]TagShape
}

// builtinKeywords are handled by the parser itself and may not be redeclared.
var builtinKeywords = map[string]bool{
	"if": true, "elsif": true, "else": true, "endif": true,
	"unless": true, "endunless": true,
	"for": true, "endfor": true,
	"assign":  true,
	"capture": true, "endcapture": true,
	"comment": true, "endcomment": true,
	"raw": true, "endraw": true,
}

// BaseGrammar returns the grammar of the base template language.
func BaseGrammar() *Grammar {
	return &Grammar{map[string]TagShape{
		"include": {Keyword: "include", Argument: true, Arguments: true},
	}}
}

// Extend returns a new grammar that recognizes the given tags in addition to
// those of g.  g is not modified.
func (g *Grammar) Extend(shapes ...TagShape) (*Grammar, error) {
	if g == nil {
		return nil, errors.New("extend: nil base grammar")
	}
	var tags = make(map[string]TagShape, len(g.tags)+len(shapes))
	for k, v := range g.tags {
		tags[k] = v
	}
	for _, shape := range shapes {
		if !isKeyword(shape.Keyword) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyword, shape.Keyword)
		}
		if _, ok := tags[shape.Keyword]; ok || builtinKeywords[shape.Keyword] {
			return nil, fmt.Errorf("%w: %q", ErrTagConflict, shape.Keyword)
		}
		tags[shape.Keyword] = shape
	}
	return &Grammar{tags}, nil
}

// MustExtend is like Extend but panics if the extension is invalid.  It
// simplifies safe initialization of global grammars.
func (g *Grammar) MustExtend(shapes ...TagShape) *Grammar {
	ext, err := g.Extend(shapes...)
	if err != nil {
		panic(err)
	}
	return ext
}

// Shape returns the declared shape of the given tag keyword.
func (g *Grammar) Shape(keyword string) (TagShape, bool) {
	shape, ok := g.tags[keyword]
	return shape, ok
}

// Keywords returns the declared simple tag keywords in sorted order.
func (g *Grammar) Keywords() []string {
	var keywords = make([]string, 0, len(g.tags))
	for k := range g.tags {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

func isKeyword(s string) bool {
	if s == "" || !isLetterOrUnderscore(rune(s[0])) {
		return false
	}
	for _, r := range s {
		if !isLetterOrUnderscore(r) && !isDigit(r) {
			return false
		}
	}
	return true
}
