package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tessera-cms/fluid/data"
)

// Filter represents a transformation applied by "| name: args" in an output
// or assignment.
type Filter struct {
	Apply           func(value data.Value, args []data.Value) (data.Value, error)
	ValidArgLengths []int
}

// Filters are the builtin filters.
// Callers may add their own filters to this map before rendering starts, or
// supply per-renderer filters with Renderer.WithFilters.
var Filters = map[string]Filter{
	"upcase":     {filterUpcase, []int{0}},
	"downcase":   {filterDowncase, []int{0}},
	"capitalize": {filterCapitalize, []int{0}},
	"escape":     {filterEscape, []int{0}},
	"raw":        {filterRaw, []int{0}},
	"strip":      {filterStrip, []int{0}},
	"size":       {filterSize, []int{0}},
	"default":    {filterDefault, []int{1}},
	"append":     {filterAppend, []int{1}},
	"prepend":    {filterPrepend, []int{1}},
	"replace":    {filterReplace, []int{2}},
	"truncate":   {filterTruncate, []int{1, 2}},
	"join":       {filterJoin, []int{0, 1}},
	"first":      {filterFirst, []int{0}},
	"last":       {filterLast, []int{0}},
	"plus":       {arithmetic(func(a, b float64) float64 { return a + b }), []int{1}},
	"minus":      {arithmetic(func(a, b float64) float64 { return a - b }), []int{1}},
	"times":      {arithmetic(func(a, b float64) float64 { return a * b }), []int{1}},
	"json":       {filterJson, []int{0}},
	"t":          {filterTranslate(nil), []int{0, 2}},
}

func filterUpcase(value data.Value, _ []data.Value) (data.Value, error) {
	return data.String(cases.Upper(language.Und).String(value.String())), nil
}

func filterDowncase(value data.Value, _ []data.Value) (data.Value, error) {
	return data.String(cases.Lower(language.Und).String(value.String())), nil
}

// filterCapitalize upper-cases the first character and leaves the rest alone.
func filterCapitalize(value data.Value, _ []data.Value) (data.Value, error) {
	var s = value.String()
	var r, size = utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return data.String(s), nil
	}
	return data.String(cases.Upper(language.Und).String(s[:size]) + s[size:]), nil
}

func filterEscape(value data.Value, _ []data.Value) (data.Value, error) {
	return data.Safe(template.HTMLEscapeString(value.String())), nil
}

func filterRaw(value data.Value, _ []data.Value) (data.Value, error) {
	return data.Safe(value.String()), nil
}

func filterStrip(value data.Value, _ []data.Value) (data.Value, error) {
	return data.String(strings.TrimSpace(value.String())), nil
}

func filterSize(value data.Value, _ []data.Value) (data.Value, error) {
	return data.Int(data.Size(value)), nil
}

// filterDefault substitutes its argument for undefined, nil, false and empty
// values.
func filterDefault(value data.Value, args []data.Value) (data.Value, error) {
	if data.IsEmpty(value) || value == data.Bool(false) {
		return args[0], nil
	}
	return value, nil
}

func filterAppend(value data.Value, args []data.Value) (data.Value, error) {
	return data.String(value.String() + args[0].String()), nil
}

func filterPrepend(value data.Value, args []data.Value) (data.Value, error) {
	return data.String(args[0].String() + value.String()), nil
}

func filterReplace(value data.Value, args []data.Value) (data.Value, error) {
	return data.String(strings.ReplaceAll(value.String(), args[0].String(), args[1].String())), nil
}

// filterTruncate shortens a string to the given number of characters,
// including the ellipsis ("..." unless a second argument is given).
func filterTruncate(value data.Value, args []data.Value) (data.Value, error) {
	max, ok := args[0].(data.Int)
	if !ok {
		return nil, fmt.Errorf("first argument of truncate is not an integer: %v", args[0])
	}
	var ellipsis = "..."
	if len(args) == 2 {
		ellipsis = args[1].String()
	}
	var runes = []rune(value.String())
	if len(runes) <= int(max) {
		return data.String(value.String()), nil
	}
	var keep = int(max) - utf8.RuneCountInString(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return data.String(string(runes[:keep]) + ellipsis), nil
}

func filterJoin(value data.Value, args []data.Value) (data.Value, error) {
	list, ok := value.(data.List)
	if !ok {
		return value, nil
	}
	var sep = " "
	if len(args) == 1 {
		sep = args[0].String()
	}
	var items = make([]string, len(list))
	for i, item := range list {
		items[i] = item.String()
	}
	return data.String(strings.Join(items, sep)), nil
}

func filterFirst(value data.Value, _ []data.Value) (data.Value, error) {
	if list, ok := value.(data.List); ok {
		return list.Index(0), nil
	}
	return data.Undefined{}, nil
}

func filterLast(value data.Value, _ []data.Value) (data.Value, error) {
	if list, ok := value.(data.List); ok {
		return list.Index(-1), nil
	}
	return data.Undefined{}, nil
}

// arithmetic returns a filter that keeps integer results integral.
func arithmetic(op func(a, b float64) float64) func(data.Value, []data.Value) (data.Value, error) {
	return func(value data.Value, args []data.Value) (data.Value, error) {
		a, ok := data.Number(value)
		if !ok {
			return nil, fmt.Errorf("not a number: %q", value.String())
		}
		b, ok := data.Number(args[0])
		if !ok {
			return nil, fmt.Errorf("not a number: %q", args[0].String())
		}
		var result = op(a, b)
		_, intA := value.(data.Int)
		_, intB := args[0].(data.Int)
		if intA && intB && result == math.Trunc(result) {
			return data.Int(result), nil
		}
		return data.Float(result), nil
	}
}

func filterJson(value data.Value, _ []data.Value) (data.Value, error) {
	j, err := json.Marshal(data.Export(value))
	if err != nil {
		return nil, err
	}
	return data.Safe(j), nil
}

// filterTranslate looks the value up in the message catalog.  With two
// arguments, {{ 'one item' | t: 'many items', n }}, it selects the plural form
// for n.  Without a catalog, the source text is used.
func filterTranslate(msgs Messages) func(data.Value, []data.Value) (data.Value, error) {
	return func(value data.Value, args []data.Value) (data.Value, error) {
		var msgid = value.String()
		if len(args) == 0 {
			if msgs == nil {
				return data.String(msgid), nil
			}
			return data.String(msgs.Gettext(msgid)), nil
		}
		n, ok := args[1].(data.Int)
		if !ok {
			return nil, fmt.Errorf("plural count is not an integer: %v", args[1])
		}
		var plural = args[0].String()
		if msgs != nil {
			return data.String(msgs.NGettext(msgid, plural, int(n))), nil
		}
		if n == 1 {
			return data.String(msgid), nil
		}
		return data.String(plural), nil
	}
}

func checkNumArgs(allowedNumArgs []int, actualNumArgs int) bool {
	for _, len := range allowedNumArgs {
		if actualNumArgs == len {
			return true
		}
	}
	return false
}
