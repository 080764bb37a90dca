package locale

import (
	"testing"

	"github.com/robfig/gettext/po"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-cms/fluid/template"
	"github.com/tessera-cms/fluid/viewparse"
)

func compile(t *testing.T, views map[string]string, order ...string) *template.Registry {
	t.Helper()
	var parser = viewparse.NewParser()
	var compiled []*template.View
	for _, path := range order {
		node, err := parser.Parse(path, views[path])
		require.NoError(t, err, path)
		compiled = append(compiled, &template.View{Path: path, Node: node})
	}
	reg, err := template.NewRegistry(compiled)
	require.NoError(t, err)
	return reg
}

func TestExtract(t *testing.T) {
	var reg = compile(t, map[string]string{
		"pages/home": "{{ 'Welcome' | t }}\n{% if user %}{{ 'one item' | t: 'many items', n }}{% endif %}",
		"pages/cart": "{% for i in items %}\n\n{{ 'Welcome' | t | upcase }}{% endfor %}",
		"pages/skip": "{{ title | t }}{{ 'Not translated' | upcase | t }}{% assign x = 'Saved' | t %}",
	}, "pages/home", "pages/cart", "pages/skip")

	var file = Extract(reg)
	var ids []string
	for _, msg := range file.Messages {
		ids = append(ids, msg.Id)
	}
	assert.Equal(t, []string{"Welcome", "one item", "Saved"}, ids)

	var welcome = file.Messages[0]
	assert.Equal(t, []string{"pages/home:1", "pages/cart:3"}, welcome.References)
	assert.Equal(t, "", welcome.IdPlural)

	var item = file.Messages[1]
	assert.Equal(t, "many items", item.IdPlural)
	assert.Equal(t, []string{"pages/home:2"}, item.References)
}

func TestExtractEmpty(t *testing.T) {
	var file = Extract(compile(t, map[string]string{"a": "plain"}, "a"))
	assert.Equal(t, []po.Message(nil), file.Messages)
}
