package parse

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-cms/fluid/ast"
	"github.com/tessera-cms/fluid/errortypes"
)

// ignorePos excludes byte positions from tree comparisons.
var ignorePos = cmp.FilterPath(func(p cmp.Path) bool {
	return p.Last().Type() == reflect.TypeOf(ast.Pos(0))
}, cmp.Ignore())

type parseTest struct {
	name   string
	input  string
	output string // String() of the parsed template
}

var parseTests = []parseTest{
	{"empty", "", ""},
	{"text", "Hello world!", "Hello world!"},
	{"output", "Hello {{ name }}!", "Hello {{ name }}!"},
	{"empty output", "{{ }}x", "x"},
	{"filters", "{{ a.b[0] | upcase | append: 'x', y }}", "{{ a.b[0] | upcase | append: 'x', y }}"},
	{"literals", "{{ 1.5 }}{{ -2 }}{{ true }}{{ nil }}{{ \"q\" }}", "{{ 1.5 }}{{ -2 }}{{ true }}{{ nil }}{{ \"q\" }}"},
	{"not equal", "{{ x <> 1 }}", "{{ x != 1 }}"},
	{"if", "{% if a == 1 and not b %}x{% elsif c contains 'd' %}y{% else %}z{% endif %}",
		"{% if a == 1 and not b %}x{% elsif c contains 'd' %}y{% else %}z{% endif %}"},
	{"empty if", "{% if x == nil or true %}{% endif %}", "{% if x == nil or true %}{% endif %}"},
	{"unless", "{% unless a %}x{% else %}y{% endunless %}", "{% if not a %}x{% else %}y{% endif %}"},
	{"for", "{% for p in products reversed limit: 2 offset: n %}{{ p.title }}{% else %}none{% endfor %}",
		"{% for p in products reversed limit: 2 offset: n %}{{ p.title }}{% else %}none{% endfor %}"},
	{"range", "{% for i in (1..n) %}{{ i }}{% endfor %}", "{% for i in (1..n) %}{{ i }}{% endfor %}"},
	{"variable range", "{% for i in (a.first..b) %}{% endfor %}", "{% for i in (a.first..b) %}{% endfor %}"},
	{"assign", "{% assign x = 'a' | upcase %}", "{% assign x = 'a' | upcase %}"},
	{"capture", "{% capture s %}hi {{ x }}{% endcapture %}", "{% capture s %}hi {{ x }}{% endcapture %}"},
	{"comment", "a{% comment %}{{ x }}{% endcomment %}b", "ab"},
	{"raw", "{% raw %}{{ x }}{% endraw %}", "{{ x }}"},
	{"include", "{% include 'header', title: page.title, n: 2 %}", "{% include 'header', title: page.title, n: 2 %}"},
	{"include identifier", "{% include header %}", "{% include 'header' %}"},
	{"trim", "a {{- 'b' -}} c", "a{{ 'b' }}c"},
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		tmpl, err := Template(test.name, test.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if actual := tmpl.String(); actual != test.output {
			t.Errorf("%s:\ngot\n\t%q\nexpected\n\t%q", test.name, actual, test.output)
		}
	}
}

func TestParseTree(t *testing.T) {
	tmpl, err := Template("tree", "Hi {{ user.name | default: 'you' }}")
	require.NoError(t, err)
	assert.Equal(t, "tree", tmpl.Name)

	var expected = &ast.ListNode{Nodes: []ast.Node{
		&ast.RawTextNode{Text: []byte("Hi ")},
		&ast.OutputNode{
			Expr: &ast.DataRefNode{Key: "user", Access: []ast.Node{&ast.DataRefKeyNode{Key: "name"}}},
			Filters: []*ast.FilterNode{{
				Name: "default",
				Args: []ast.Node{&ast.StringNode{Quoted: "'you'", Value: "you"}},
			}},
		},
	}}
	if diff := cmp.Diff(expected, tmpl.Body, ignorePos); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	var tests = []struct {
		name, input, msg string
	}{
		{"unclosed if", "{% if x %}", "unexpected EOF, expected {% endif %}"},
		{"stray end", "{% endif %}", "unexpected {% endif %}"},
		{"unknown tag", "{% foo %}", `unknown tag "foo"`},
		{"empty filter", "{{ x | }}", `unexpected "}}" in filter`},
		{"include without name", "{% include %}", "include requires a view name"},
		{"lexical", "{{ 'a }}", "unterminated string"},
		{"for without list", "{% for x in %}", `unexpected "%}" in expression`},
		{"assign without name", "{% assign = 1 %}", `unexpected "=" in assign`},
		{"mismatched delimiter", "{{ x %}", `unexpected "%}" in output`},
		{"keyword as value", "{{ and }}", `unexpected "and" in expression`},
	}
	for _, test := range tests {
		_, err := Template(test.name, test.input)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
			continue
		}
		var perr *errortypes.ParseError
		if !assert.ErrorAs(t, err, &perr, test.name) {
			continue
		}
		assert.Equal(t, test.msg, perr.Message(), test.name)
		assert.Equal(t, test.name, perr.File(), test.name)
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Template("t", "a\n  {% bogus %}")
	require.Error(t, err)
	assert.Equal(t, `template t:2:6: unknown tag "bogus"`, err.Error())
}

// shapeRecorder records the parse tree of every simple tag it builds.
type shapeRecorder struct {
	trees []string
}

func (r *shapeRecorder) BuildTag(tag *TagNode) (ast.Node, error) {
	r.trees = append(r.trees, tag.String())
	if tag.Term == "include" {
		return DefaultBuilder{}.BuildTag(tag)
	}
	return &ast.RawTextNode{Pos: tag.Pos, Text: []byte(tag.Term + ":" + tag.FindToken())}, nil
}

func TestParseShapes(t *testing.T) {
	var grammar = BaseGrammar().MustExtend(
		TagShape{Keyword: "bare"},
		TagShape{Keyword: "one", Argument: true},
		TagShape{Keyword: "named", Arguments: true},
		TagShape{Keyword: "both", Argument: true, Arguments: true},
	)
	var tests = []struct {
		input, tree, output string
	}{
		{"{% bare %}", "bare", "bare:"},
		{"{% one %}", "one", "one:"},
		{"{% one page.title %}", "one[identifier(page.title)]", "one:page.title"},
		{"{% one 'x' %}", "one[string(x)]", "one:x"},
		{"{% one 3 %}", "one[number(3)]", "one:3"},
		{"{% named a: 1, b: 'two' %}", "named[arguments[argument[identifier(a) number(1)] argument[identifier(b) string(two)]]]", "named:a"},
		{"{% both x, required: true %}", "both[identifier(x) arguments[argument[identifier(required) boolean(true)]]]", "both:x"},
		{"{% both x required: false %}", "both[identifier(x) arguments[argument[identifier(required) boolean(false)]]]", "both:x"},
		{"{% both required: nil %}", "both[arguments[argument[identifier(required) nil(nil)]]]", "both:required"},
		{"{% both true %}", "both[boolean(true)]", "both:true"},
	}
	for _, test := range tests {
		var recorder = &shapeRecorder{}
		tmpl, err := New(grammar, recorder).Parse("shapes", test.input)
		if !assert.NoError(t, err, test.input) {
			continue
		}
		assert.Equal(t, []string{test.tree}, recorder.trees, test.input)
		assert.Equal(t, test.output, tmpl.String(), test.input)
	}
}

func TestParseShapeErrors(t *testing.T) {
	var grammar = BaseGrammar().MustExtend(
		TagShape{Keyword: "bare"},
		TagShape{Keyword: "one", Argument: true},
		TagShape{Keyword: "named", Arguments: true},
	)
	var tests = []struct {
		input, msg string
	}{
		{"{% bare x %}", `unexpected "x" in bare tag`},
		{"{% one a, k: v %}", `unexpected "k" in one tag`},
		{"{% one a b %}", `unexpected "b" in one tag`},
		{"{% named a: %}", `unexpected "%}" in tag argument`},
		{"{% named a: 1, %}", `unexpected "%}" in named arguments`},
		{"{% named a: x | upcase %}", `unexpected "|" in named tag`},
		{"{% named 'x' %}", `unexpected "'x'" in named tag`},
	}
	for _, test := range tests {
		_, err := New(grammar, &shapeRecorder{}).Parse("shapes", test.input)
		var perr *errortypes.ParseError
		if !assert.ErrorAs(t, err, &perr, test.input) {
			continue
		}
		assert.Equal(t, test.msg, perr.Message(), test.input)
	}
}

func TestBuilderErrors(t *testing.T) {
	var grammar = BaseGrammar().MustExtend(TagShape{Keyword: "fail", Argument: true})
	var builder = TagBuilderFunc(func(tag *TagNode) (ast.Node, error) {
		if tag.FindToken() == "located" {
			return nil, tag.Children[0].Errorf("bad value %q", tag.FindToken())
		}
		return nil, assert.AnError
	})

	_, err := New(grammar, builder).Parse("b", "{% fail located %}")
	require.Error(t, err)
	assert.Equal(t, `template b:1:9: bad value "located"`, err.Error())

	_, err = New(grammar, builder).Parse("b", "\n{% fail other %}")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "template b:2:4: fail: "), err.Error())
}

func TestGrammarExtend(t *testing.T) {
	var base = BaseGrammar()

	ext, err := base.Extend(TagShape{Keyword: "renderbody"})
	require.NoError(t, err)
	assert.Equal(t, []string{"include", "renderbody"}, ext.Keywords())
	assert.Equal(t, []string{"include"}, base.Keywords(), "base must be unchanged")

	shape, ok := ext.Shape("renderbody")
	assert.True(t, ok)
	assert.Equal(t, TagShape{Keyword: "renderbody"}, shape)

	for _, kw := range []string{"if", "endraw", "include"} {
		_, err = base.Extend(TagShape{Keyword: kw})
		assert.ErrorIs(t, err, ErrTagConflict, kw)
	}
	_, err = base.Extend(TagShape{Keyword: "x"}, TagShape{Keyword: "x"})
	assert.ErrorIs(t, err, ErrTagConflict)

	for _, kw := range []string{"", "two words", "9lives", "dash-ed"} {
		_, err = base.Extend(TagShape{Keyword: kw})
		assert.ErrorIs(t, err, ErrInvalidKeyword, kw)
	}

	var nilGrammar *Grammar
	_, err = nilGrammar.Extend(TagShape{Keyword: "x"})
	assert.Error(t, err)

	assert.Panics(t, func() { base.MustExtend(TagShape{Keyword: "for"}) })
}

func TestUnknownTagWithoutExtension(t *testing.T) {
	_, err := Template("base", "{% renderbody %}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tag "renderbody"`)
}
