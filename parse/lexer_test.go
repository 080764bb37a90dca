package parse

import (
	"testing"

	"github.com/tessera-cms/fluid/ast"
)

type lexTest struct {
	name  string
	input string
	items []item
}

var (
	tEOF         = item{itemEOF, 0, ""}
	tLeftOutput  = item{itemLeftOutput, 0, "{{"}
	tRightOutput = item{itemRightOutput, 0, "}}"}
	tLeftTag     = item{itemLeftTag, 0, "{%"}
	tRightTag    = item{itemRightTag, 0, "%}"}
)

func tIdent(name string) item {
	return item{itemIdent, 0, name}
}

var lexTests = []lexTest{
	{"empty", "", []item{tEOF}},
	{"text", `now is the time`, []item{{itemText, 0, "now is the time"}, tEOF}},
	{"lone brace", `a { b`, []item{{itemText, 0, "a { b"}, tEOF}},
	{"output", `Hello {{ name }}!`, []item{
		{itemText, 0, "Hello "},
		tLeftOutput,
		tIdent("name"),
		tRightOutput,
		{itemText, 0, "!"},
		tEOF,
	}},
	{"trim markers", "a  {{- x -}}  \n b", []item{
		{itemText, 0, "a"},
		{itemLeftOutput, 0, "{{-"},
		tIdent("x"),
		{itemRightOutput, 0, "-}}"},
		{itemText, 0, "b"},
		tEOF,
	}},
	{"tag trim markers", "x\n{%- renderbody -%}\ny", []item{
		{itemText, 0, "x"},
		{itemLeftTag, 0, "{%-"},
		tIdent("renderbody"),
		{itemRightTag, 0, "-%}"},
		{itemText, 0, "y"},
		tEOF,
	}},
	{"named arguments", `{% rendersection scripts, required: true %}`, []item{
		tLeftTag,
		tIdent("rendersection"),
		tIdent("scripts"),
		{itemComma, 0, ","},
		tIdent("required"),
		{itemColon, 0, ":"},
		tIdent("true"),
		tRightTag,
		tEOF,
	}},
	{"operators", `{% if a >= 1 and b != 'x' or c <> "y" %}`, []item{
		tLeftTag,
		tIdent("if"),
		tIdent("a"),
		{itemGte, 0, ">="},
		{itemInteger, 0, "1"},
		tIdent("and"),
		tIdent("b"),
		{itemNotEq, 0, "!="},
		{itemString, 0, "'x'"},
		tIdent("or"),
		tIdent("c"),
		{itemNotEq, 0, "<>"},
		{itemString, 0, `"y"`},
		tRightTag,
		tEOF,
	}},
	{"comparisons", `{{ a < b <= c > d == e = f }}`, []item{
		tLeftOutput,
		tIdent("a"),
		{itemLt, 0, "<"},
		tIdent("b"),
		{itemLte, 0, "<="},
		tIdent("c"),
		{itemGt, 0, ">"},
		tIdent("d"),
		{itemEq, 0, "=="},
		tIdent("e"),
		{itemAssign, 0, "="},
		tIdent("f"),
		tRightOutput,
		tEOF,
	}},
	{"filters", `{{ -1.5 | plus: 2, 'a\'b' }}`, []item{
		tLeftOutput,
		{itemFloat, 0, "-1.5"},
		{itemPipe, 0, "|"},
		tIdent("plus"),
		{itemColon, 0, ":"},
		{itemInteger, 0, "2"},
		{itemComma, 0, ","},
		{itemString, 0, `'a\'b'`},
		tRightOutput,
		tEOF,
	}},
	{"accessors", `{{ a[0].b_c }}`, []item{
		tLeftOutput,
		tIdent("a"),
		{itemLeftBracket, 0, "["},
		{itemInteger, 0, "0"},
		{itemRightBracket, 0, "]"},
		{itemDot, 0, "."},
		tIdent("b_c"),
		tRightOutput,
		tEOF,
	}},
	{"raw", `{% raw %}{{ x }}{% if %}{% endraw %}`, []item{
		tLeftTag,
		tIdent("raw"),
		tRightTag,
		{itemText, 0, "{{ x }}{% if %}"},
		tLeftTag,
		tIdent("endraw"),
		tRightTag,
		tEOF,
	}},
	{"empty raw", `{% raw %}{%endraw%}`, []item{
		tLeftTag,
		tIdent("raw"),
		tRightTag,
		tLeftTag,
		tIdent("endraw"),
		tRightTag,
		tEOF,
	}},
	{"comment", "a{% comment %} {{ }} {% endcomment -%}\n b", []item{
		{itemText, 0, "a"},
		tLeftTag,
		tIdent("comment"),
		tRightTag,
		{itemText, 0, " {{ }} "},
		tLeftTag,
		tIdent("endcomment"),
		{itemRightTag, 0, "-%}"},
		{itemText, 0, "b"},
		tEOF,
	}},

	// errors
	{"unclosed output", `{{ x`, []item{
		tLeftOutput,
		tIdent("x"),
		{itemError, 0, "unclosed tag"},
	}},
	{"unterminated string", `{{ 'abc }}`, []item{
		tLeftOutput,
		{itemError, 0, "unterminated string"},
	}},
	{"unclosed raw", `{% raw %}abc`, []item{
		tLeftTag,
		tIdent("raw"),
		tRightTag,
		{itemError, 0, "unclosed raw tag"},
	}},
	{"bad character", `{{ a $ }}`, []item{
		tLeftOutput,
		tIdent("a"),
		{itemError, 0, "unrecognized character in tag: U+0024 '$'"},
	}},
	{"bad number", `{{ 12ab }}`, []item{
		tLeftOutput,
		{itemError, 0, `bad number syntax: "12a"`},
	}},
}

// collect gathers the emitted items into a slice.
func collect(t *lexTest) (items []item) {
	l := lex(t.name, t.input)
	for {
		item := l.nextItem()
		items = append(items, item)
		if item.typ == itemEOF || item.typ == itemError {
			break
		}
	}
	return
}

func equal(i1, i2 []item, checkPos bool) bool {
	if len(i1) != len(i2) {
		return false
	}
	for k := range i1 {
		if i1[k].typ != i2[k].typ {
			return false
		}
		if i1[k].val != i2[k].val {
			return false
		}
		if checkPos && i1[k].pos != i2[k].pos {
			return false
		}
	}
	return true
}

func TestLex(t *testing.T) {
	for _, test := range lexTests {
		items := collect(&test)
		if !equal(items, test.items, false) {
			t.Errorf("%s: got\n\t%+v\nexpected\n\t%v", test.name, items, test.items)
		}
	}
}

func TestLexPositions(t *testing.T) {
	var test = lexTest{"positions", "ab\n{{ x }}", []item{
		{itemText, 0, "ab\n"},
		{itemLeftOutput, 3, "{{"},
		{itemIdent, 6, "x"},
		{itemRightOutput, 8, "}}"},
		{itemEOF, 10, ""},
	}}
	items := collect(&test)
	if !equal(items, test.items, true) {
		t.Errorf("got\n\t%+v\nexpected\n\t%v", items, test.items)
	}

	var l = lex("positions", test.input)
	for _, pos := range []struct {
		pos       ast.Pos
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{6, 2, 4},
	} {
		if line := l.lineNumber(pos.pos); line != pos.line {
			t.Errorf("line of %d: got %d, expected %d", pos.pos, line, pos.line)
		}
		if col := l.columnNumber(pos.pos); col != pos.col {
			t.Errorf("column of %d: got %d, expected %d", pos.pos, col, pos.col)
		}
	}
}
