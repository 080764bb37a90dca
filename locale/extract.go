package locale

import (
	"fmt"

	"github.com/robfig/gettext/po"

	"github.com/tessera-cms/fluid/ast"
	"github.com/tessera-cms/fluid/template"
)

// Extract returns a PO template of the messages passed through the t filter
// by the views of reg.  Only literal text is extracted:
//
//	{{ 'Welcome' | t }}
//	{{ 'one item' | t: 'many items', count }}
//
// A message used more than once appears once, with a reference to each use.
func Extract(reg *template.Registry) *po.File {
	var e = extractor{file: &po.File{}, index: make(map[string]int)}
	for _, v := range reg.Views() {
		ast.Walk(v.Node, func(node ast.Node) bool {
			switch node := node.(type) {
			case *ast.OutputNode:
				e.extract(v, node.Expr, node.Filters)
			case *ast.AssignNode:
				e.extract(v, node.Expr, node.Filters)
			}
			return true
		})
	}
	return e.file
}

type extractor struct {
	file  *po.File
	index map[string]int // position in file.Messages by msgid
}

func (e extractor) extract(v *template.View, expr ast.Node, filters []*ast.FilterNode) {
	var msgid, ok = expr.(*ast.StringNode)
	if !ok || msgid.Value == "" || len(filters) == 0 || filters[0].Name != "t" {
		return
	}
	var plural string
	if args := filters[0].Args; len(args) > 0 {
		if s, ok := args[0].(*ast.StringNode); ok {
			plural = s.Value
		}
	}

	var line, _ = v.Position(msgid.Position())
	var ref = fmt.Sprintf("%s:%d", v.Path, line)
	if i, ok := e.index[msgid.Value]; ok {
		var msg = &e.file.Messages[i]
		msg.References = append(msg.References, ref)
		if msg.IdPlural == "" {
			msg.IdPlural = plural
		}
		return
	}
	e.index[msgid.Value] = len(e.file.Messages)
	e.file.Messages = append(e.file.Messages, po.Message{
		Comment:  po.Comment{References: []string{ref}},
		Id:       msgid.Value,
		IdPlural: plural,
	})
}
