// Package parse converts template source into an abstract syntax tree.
//
// The base language has output statements ({{ expr | filter: arg }}), the
// block statements if, unless, for, capture, comment and raw, the assign
// statement, and the simple tags declared by a Grammar.  Simple tags are
// parsed according to their declared TagShape and handed to a TagBuilder,
// which allows a dialect to add statements without modifying this package.
package parse

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/tessera-cms/fluid/ast"
	"github.com/tessera-cms/fluid/errortypes"
)

// Parser parses template text.  It is immutable and safe for concurrent use.
type Parser struct {
	grammar *Grammar
	builder TagBuilder
}

// New returns a parser for the given grammar that builds simple tags with b.
// A nil grammar selects BaseGrammar and a nil builder selects DefaultBuilder.
func New(g *Grammar, b TagBuilder) *Parser {
	if g == nil {
		g = BaseGrammar()
	}
	if b == nil {
		b = DefaultBuilder{}
	}
	return &Parser{g, b}
}

// Grammar returns the grammar this parser recognizes.
func (p *Parser) Grammar() *Grammar {
	return p.grammar
}

// Parse parses the named template text.  Errors are *errortypes.ParseError,
// located at the offending token.
func (p *Parser) Parse(name, text string) (node *ast.TemplateNode, err error) {
	var t = &tree{
		name:    name,
		text:    text,
		lex:     lex(name, text),
		grammar: p.grammar,
		builder: p.builder,
	}
	defer t.recover(&err)
	var body, _ = t.itemList()
	return &ast.TemplateNode{Name: name, Text: text, Body: body}, nil
}

// Template parses the named template text with the base grammar.
func Template(name, text string) (*ast.TemplateNode, error) {
	return New(nil, nil).Parse(name, text)
}

// tree is the state of a single parse.
type tree struct {
	name    string
	text    string
	lex     *lexer
	pending []item // items pushed back by backup, last one first
	grammar *Grammar
	builder TagBuilder
}

// itemList parses until EOF or until one of the given tag keywords, which is
// returned.  The rest of that tag is left for the caller.
func (t *tree) itemList(until ...string) (*ast.ListNode, item) {
	var list = &ast.ListNode{Pos: t.peek().pos}
	for {
		var tok = t.next()
		switch tok.typ {
		case itemEOF:
			if len(until) > 0 {
				t.errorf(tok.pos, "unexpected EOF, expected {%% %s %%}", until[len(until)-1])
			}
			return list, tok
		case itemText:
			list.Nodes = append(list.Nodes, &ast.RawTextNode{Pos: tok.pos, Text: []byte(tok.val)})
		case itemLeftOutput:
			if node := t.parseOutput(tok); node != nil {
				list.Nodes = append(list.Nodes, node)
			}
		case itemLeftTag:
			var kw = t.expect(itemIdent, "tag")
			for _, end := range until {
				if kw.val == end {
					return list, kw
				}
			}
			if node := t.parseTag(kw); node != nil {
				list.Nodes = append(list.Nodes, node)
			}
		default:
			t.unexpected(tok, "template")
		}
	}
}

// parseOutput parses {{ expr | filters }}.  An empty output renders nothing.
func (t *tree) parseOutput(left item) ast.Node {
	var tok = t.next()
	if tok.typ == itemRightOutput {
		return nil
	}
	t.backup(tok)
	var expr = t.parseExpr()
	var filters = t.parseFilters()
	t.expect(itemRightOutput, "output")
	return &ast.OutputNode{Pos: left.pos, Expr: expr, Filters: filters}
}

// parseTag parses the statement introduced by kw.  It returns nil for
// statements that produce no node.
func (t *tree) parseTag(kw item) ast.Node {
	switch kw.val {
	case "if":
		return t.parseIf(kw, "endif", false)
	case "unless":
		return t.parseIf(kw, "endunless", true)
	case "for":
		return t.parseFor(kw)
	case "assign":
		return t.parseAssign(kw)
	case "capture":
		return t.parseCapture(kw)
	case "comment":
		t.parseVerbatim(kw)
		return nil
	case "raw":
		if text := t.parseVerbatim(kw); text.val != "" {
			return &ast.RawTextNode{Pos: text.pos, Text: []byte(text.val)}
		}
		return nil
	}
	if builtinKeywords[kw.val] {
		t.errorf(kw.pos, "unexpected {%% %s %%}", kw.val)
	}

	var shape, ok = t.grammar.Shape(kw.val)
	if !ok {
		t.errorf(kw.pos, "unknown tag %q", kw.val)
	}
	var tag = t.parseShape(kw, shape)
	node, err := t.builder.BuildTag(tag)
	if err != nil {
		if errortypes.IsErrFilePos(err) {
			panic(err)
		}
		t.errorf(kw.pos, "%s: %v", kw.val, err)
	}
	return node
}

// parseIf parses an if or unless block.  The condition of unless is negated;
// any elsif conditions are not.
func (t *tree) parseIf(kw item, end string, negate bool) ast.Node {
	var node = &ast.IfNode{Pos: kw.pos}
	var pos = t.peek().pos
	var cond = t.parseExpr()
	if negate {
		cond = &ast.NotNode{Pos: pos, Arg: cond}
	}
	for {
		t.expect(itemRightTag, kw.val)
		var body, next = t.itemList("elsif", "else", end)
		node.Conds = append(node.Conds, &ast.IfCondNode{Pos: pos, Cond: cond, Body: body})
		switch next.val {
		case "elsif":
			kw, pos = next, t.peek().pos
			cond = t.parseExpr()
		case "else":
			t.expect(itemRightTag, "else")
			body, _ = t.itemList(end)
			node.Conds = append(node.Conds, &ast.IfCondNode{Pos: next.pos, Body: body})
			t.expect(itemRightTag, end)
			return node
		default:
			t.expect(itemRightTag, end)
			return node
		}
	}
}

// parseFor parses {% for x in list reversed limit: n offset: n %}.
func (t *tree) parseFor(kw item) ast.Node {
	var node = &ast.ForNode{Pos: kw.pos}
	node.Var = t.expect(itemIdent, "for").val
	t.expectKeyword("in", "for")
	node.List = t.parseValue()

Options:
	for {
		var tok = t.next()
		switch {
		case tok.typ == itemRightTag:
			break Options
		case tok.typ == itemIdent && tok.val == "reversed":
			node.Reversed = true
		case tok.typ == itemIdent && tok.val == "limit":
			t.expect(itemColon, "limit")
			node.Limit = t.parseValue()
		case tok.typ == itemIdent && tok.val == "offset":
			t.expect(itemColon, "offset")
			node.Offset = t.parseValue()
		default:
			t.unexpected(tok, "for")
		}
	}

	var body, next = t.itemList("else", "endfor")
	node.Body = body
	if next.val == "else" {
		t.expect(itemRightTag, "else")
		node.IfEmpty, _ = t.itemList("endfor")
	}
	t.expect(itemRightTag, "endfor")
	return node
}

// parseAssign parses {% assign name = expr | filters %}.
func (t *tree) parseAssign(kw item) ast.Node {
	var name = t.expect(itemIdent, "assign")
	t.expect(itemAssign, "assign")
	var node = &ast.AssignNode{Pos: kw.pos, Name: name.val}
	node.Expr = t.parseExpr()
	node.Filters = t.parseFilters()
	t.expect(itemRightTag, "assign")
	return node
}

// parseCapture parses {% capture name %}...{% endcapture %}.
func (t *tree) parseCapture(kw item) ast.Node {
	var node = &ast.CaptureNode{Pos: kw.pos}
	switch tok := t.next(); tok.typ {
	case itemIdent:
		node.Name = tok.val
	case itemString:
		node.Name = t.unquote(tok)
	default:
		t.unexpected(tok, "capture")
	}
	t.expect(itemRightTag, "capture")
	node.Body, _ = t.itemList("endcapture")
	t.expect(itemRightTag, "endcapture")
	return node
}

// parseVerbatim consumes the remainder of a raw or comment block, which the
// lexer delivers as a single text item.  It returns that item, if any.
func (t *tree) parseVerbatim(kw item) item {
	t.expect(itemRightTag, kw.val)
	var text item
	var tok = t.next()
	if tok.typ == itemText {
		text, tok = tok, t.next()
	}
	if tok.typ != itemLeftTag {
		t.unexpected(tok, kw.val)
	}
	t.expectKeyword("end"+kw.val, kw.val)
	t.expect(itemRightTag, "end"+kw.val)
	return text
}

// parseShape parses the arguments of a simple tag according to its shape.
func (t *tree) parseShape(kw item, shape TagShape) *TagNode {
	var tag = t.tagNode(kw.pos, kw.val, "")
	var tok = t.next()
	if shape.Argument && isValueItem(tok) && !t.isNamedArgument(tok) {
		tag.Children = append(tag.Children, t.tagValue(tok))
		if tok = t.next(); tok.typ == itemComma {
			tok = t.next()
			if !shape.Arguments || !t.isNamedArgument(tok) {
				t.unexpected(tok, kw.val+" tag")
			}
		}
	}
	if shape.Arguments && t.isNamedArgument(tok) {
		var args = t.tagNode(tok.pos, TermArguments, "")
		for {
			t.expect(itemColon, "argument")
			var arg = t.tagNode(tok.pos, TermArgument, "")
			arg.Children = []*TagNode{
				t.tagNode(tok.pos, TermIdentifier, tok.val),
				t.tagValue(t.next()),
			}
			args.Children = append(args.Children, arg)
			if tok = t.next(); tok.typ != itemComma {
				break
			}
			if tok = t.next(); !t.isNamedArgument(tok) {
				t.unexpected(tok, kw.val+" arguments")
			}
		}
		tag.Children = append(tag.Children, args)
	}
	if tok.typ != itemRightTag {
		t.unexpected(tok, kw.val+" tag")
	}
	return tag
}

// tagValue parses a single-token tag argument value.  Identifiers may be
// dotted paths.
func (t *tree) tagValue(tok item) *TagNode {
	switch tok.typ {
	case itemString:
		return t.tagNode(tok.pos, TermString, t.unquote(tok))
	case itemInteger, itemFloat:
		return t.tagNode(tok.pos, TermNumber, tok.val)
	case itemIdent:
		switch tok.val {
		case "true", "false":
			return t.tagNode(tok.pos, TermBoolean, tok.val)
		case "nil", "null":
			return t.tagNode(tok.pos, TermNil, tok.val)
		}
		var path = tok.val
		for {
			var dot = t.next()
			if dot.typ != itemDot {
				t.backup(dot)
				break
			}
			path += "." + t.expect(itemIdent, "identifier").val
		}
		return t.tagNode(tok.pos, TermIdentifier, path)
	}
	t.unexpected(tok, "tag argument")
	return nil
}

func (t *tree) tagNode(pos ast.Pos, term, token string) *TagNode {
	return &TagNode{
		Term:  term,
		Token: token,
		Pos:   pos,
		File:  t.name,
		Line:  t.lex.lineNumber(pos),
		Col:   t.lex.columnNumber(pos),
	}
}

// isNamedArgument reports whether tok begins a "key: value" pair.
func (t *tree) isNamedArgument(tok item) bool {
	return tok.typ == itemIdent && t.peek().typ == itemColon
}

func isValueItem(tok item) bool {
	switch tok.typ {
	case itemIdent, itemString, itemInteger, itemFloat:
		return true
	}
	return false
}

// Expressions ----------

// parseExpr parses an expression.  Precedence, loosest first: or, and,
// comparison, not.
func (t *tree) parseExpr() ast.Node {
	var left = t.parseAnd()
	for {
		var tok = t.next()
		if tok.typ != itemIdent || tok.val != "or" {
			t.backup(tok)
			return left
		}
		left = &ast.OrNode{BinaryOpNode: ast.BinaryOpNode{Name: "or", Pos: tok.pos, Arg1: left, Arg2: t.parseAnd()}}
	}
}

func (t *tree) parseAnd() ast.Node {
	var left = t.parseComparison()
	for {
		var tok = t.next()
		if tok.typ != itemIdent || tok.val != "and" {
			t.backup(tok)
			return left
		}
		left = &ast.AndNode{BinaryOpNode: ast.BinaryOpNode{Name: "and", Pos: tok.pos, Arg1: left, Arg2: t.parseComparison()}}
	}
}

func (t *tree) parseComparison() ast.Node {
	var left = t.parseUnary()
	var tok = t.next()
	if !tok.typ.isComparison() && (tok.typ != itemIdent || tok.val != "contains") {
		t.backup(tok)
		return left
	}
	var op = ast.BinaryOpNode{Name: tok.val, Pos: tok.pos, Arg1: left, Arg2: t.parseUnary()}
	switch tok.typ {
	case itemEq:
		return &ast.EqNode{BinaryOpNode: op}
	case itemNotEq:
		op.Name = "!="
		return &ast.NotEqNode{BinaryOpNode: op}
	case itemLt:
		return &ast.LtNode{BinaryOpNode: op}
	case itemLte:
		return &ast.LteNode{BinaryOpNode: op}
	case itemGt:
		return &ast.GtNode{BinaryOpNode: op}
	case itemGte:
		return &ast.GteNode{BinaryOpNode: op}
	}
	return &ast.ContainsNode{BinaryOpNode: op}
}

func (t *tree) parseUnary() ast.Node {
	var tok = t.next()
	if tok.typ == itemIdent && tok.val == "not" {
		return &ast.NotNode{Pos: tok.pos, Arg: t.parseUnary()}
	}
	t.backup(tok)
	return t.parseValue()
}

// parseValue parses a literal, a range or a data reference.
func (t *tree) parseValue() ast.Node {
	var tok = t.next()
	switch tok.typ {
	case itemString:
		return &ast.StringNode{Pos: tok.pos, Quoted: tok.val, Value: t.unquote(tok)}
	case itemInteger, itemFloat:
		var num, err = parseNumber(tok.pos, tok.val)
		if err != nil {
			t.errorf(tok.pos, "%v", err)
		}
		return num
	case itemLeftParen:
		var node = &ast.RangeNode{Pos: tok.pos, Start: t.parseValue()}
		t.expect(itemDot, "range")
		t.expect(itemDot, "range")
		node.End = t.parseValue()
		t.expect(itemRightParen, "range")
		return node
	case itemIdent:
		switch tok.val {
		case "true", "false":
			return &ast.BoolNode{Pos: tok.pos, True: tok.val == "true"}
		case "nil", "null":
			return &ast.NilNode{Pos: tok.pos}
		case "and", "or", "not", "contains":
			t.unexpected(tok, "expression")
		}
		return t.parseDataRef(tok)
	}
	t.unexpected(tok, "expression")
	return nil
}

// parseDataRef parses the key and index accesses following a variable name.
func (t *tree) parseDataRef(name item) ast.Node {
	var ref = &ast.DataRefNode{Pos: name.pos, Key: name.val}
	for {
		var tok = t.next()
		switch tok.typ {
		case itemDot:
			var key = t.next()
			if key.typ == itemDot {
				// a range, e.g. (first..last)
				t.backup(tok, key)
				return ref
			}
			if key.typ != itemIdent {
				t.unexpected(key, "data reference")
			}
			ref.Access = append(ref.Access, &ast.DataRefKeyNode{Pos: key.pos, Key: key.val})
		case itemLeftBracket:
			var arg = t.parseExpr()
			t.expect(itemRightBracket, "index")
			ref.Access = append(ref.Access, &ast.DataRefExprNode{Pos: tok.pos, Arg: arg})
		default:
			t.backup(tok)
			return ref
		}
	}
}

// parseFilters parses zero or more "| name: arg, arg" segments.
func (t *tree) parseFilters() []*ast.FilterNode {
	var filters []*ast.FilterNode
	for {
		var tok = t.next()
		if tok.typ != itemPipe {
			t.backup(tok)
			return filters
		}
		var name = t.expect(itemIdent, "filter")
		var filter = &ast.FilterNode{Pos: name.pos, Name: name.val}
		if colon := t.next(); colon.typ == itemColon {
			for {
				filter.Args = append(filter.Args, t.parseExpr())
				if comma := t.next(); comma.typ != itemComma {
					t.backup(comma)
					break
				}
			}
		} else {
			t.backup(colon)
		}
		filters = append(filters, filter)
	}
}

func parseNumber(pos ast.Pos, s string) (ast.Node, error) {
	if strings.ContainsRune(s, '.') {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return &ast.FloatNode{Pos: pos, Value: f}, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &ast.IntNode{Pos: pos, Value: i}, nil
}

// Helpers ----------

// next returns the next token.
func (t *tree) next() item {
	if n := len(t.pending); n > 0 {
		var tok = t.pending[n-1]
		t.pending = t.pending[:n-1]
		return tok
	}
	return t.lex.nextItem()
}

// backup returns the given tokens to the input, so that the first of them is
// the next one read.
func (t *tree) backup(items ...item) {
	for i := len(items) - 1; i >= 0; i-- {
		t.pending = append(t.pending, items[i])
	}
}

// peek returns but does not consume the next token.
func (t *tree) peek() item {
	var tok = t.next()
	t.backup(tok)
	return tok
}

// expect consumes the next token and guarantees it has the required type.
func (t *tree) expect(expected itemType, context string) item {
	var tok = t.next()
	if tok.typ != expected {
		t.unexpected(tok, context)
	}
	return tok
}

// expectKeyword consumes the next token and guarantees it is the given word.
func (t *tree) expectKeyword(word, context string) item {
	var tok = t.next()
	if tok.typ != itemIdent || tok.val != word {
		t.unexpected(tok, context)
	}
	return tok
}

func (t *tree) unquote(tok item) string {
	s, err := unquoteString(tok.val)
	if err != nil {
		t.errorf(tok.pos, "%v", err)
	}
	return s
}

// unexpected complains about the token and terminates processing.
func (t *tree) unexpected(tok item, context string) {
	switch tok.typ {
	case itemError:
		t.errorf(tok.pos, "%s", tok.val)
	case itemEOF:
		t.errorf(tok.pos, "unexpected EOF in %s", context)
	}
	t.errorf(tok.pos, "unexpected %v in %s", tok, context)
}

// errorf formats the error and terminates processing.
func (t *tree) errorf(pos ast.Pos, format string, args ...interface{}) {
	panic(errortypes.NewParseErrorf(t.name, t.lex.lineNumber(pos), t.lex.columnNumber(pos), format, args...))
}

// recover is the handler that turns panics into returns from the top level of Parse.
func (t *tree) recover(errp *error) {
	if e := recover(); e != nil {
		if _, ok := e.(runtime.Error); ok {
			panic(e)
		}
		err, ok := e.(error)
		if !ok {
			panic(e)
		}
		*errp = err
	}
}
