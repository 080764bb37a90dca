package scripting

import (
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-cms/fluid/data"
	"github.com/tessera-cms/fluid/render"
	"github.com/tessera-cms/fluid/template"
	"github.com/tessera-cms/fluid/viewparse"
)

const filtersJS = `
filter("initials", function(value, sep) {
	return value.split(" ").map(function(w) { return w[0]; }).join(sep || "");
});
filter("double", function(n) { return n * 2; });
filter("pick", function(obj, key) { return obj[key]; });
filter("nothing", function() {});
filter("fail", function(v) { throw new Error("bad input " + v); });
`

func newEngine(t *testing.T) *Engine {
	t.Helper()
	var e = New()
	require.NoError(t, e.Load("filters.js", filtersJS))
	return e
}

func TestCall(t *testing.T) {
	var e = newEngine(t)
	assert.Equal(t, []string{"double", "fail", "initials", "nothing", "pick"}, e.Names())

	var tests = []struct {
		name   string
		value  data.Value
		args   []data.Value
		output string
	}{
		{"initials", data.String("Ada Lovelace"), nil, "AL"},
		{"initials", data.String("Ada Lovelace"), []data.Value{data.String(".")}, "A.L"},
		{"double", data.Int(21), nil, "42"},
		{"pick", data.Map{"a": data.String("x")}, []data.Value{data.String("a")}, "x"},
		{"nothing", data.String("v"), nil, ""},
	}
	for _, test := range tests {
		result, err := e.Call(test.name, test.value, test.args)
		if !assert.NoError(t, err, test.name) {
			continue
		}
		assert.Equal(t, test.output, result.String(), test.name)
	}

	result, err := e.Call("nothing", data.Null{}, nil)
	require.NoError(t, err)
	assert.Equal(t, data.Undefined{}, result)
}

func TestCallErrors(t *testing.T) {
	var e = newEngine(t)

	_, err := e.Call("missing", data.Null{}, nil)
	assert.Error(t, err)

	_, err = e.Call("fail", data.String("x"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input x")
}

func TestLoadErrors(t *testing.T) {
	for _, src := range []string{
		`filter("broken", function( {`,
		`filter(1, function() {});`,
		`filter("", function() {});`,
		`filter("x", 3);`,
		`throw new Error("boom");`,
	} {
		assert.Error(t, New().Load("bad.js", src), src)
	}
}

func TestTimeout(t *testing.T) {
	var e = New()
	e.Timeout = 50 * time.Millisecond
	require.NoError(t, e.Load("spin.js", `filter("spin", function(v) { var i = 0; while (true) { i++; } });`))

	_, err := e.Call("spin", data.Null{}, nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLoadDir(t *testing.T) {
	var fsys = fstest.MapFS{
		"scripts/a.js":       {Data: []byte(`filter("greet", function(v) { return "hello " + v; });`)},
		"scripts/b.js":       {Data: []byte(`filter("greet", function(v) { return "hi " + v; }); filter("shout", function(v) { return v.toUpperCase(); });`)},
		"scripts/readme.txt": {Data: []byte(`filter("ignored", function(v) { return v; });`)},
	}
	e, err := LoadDir(fsys, "scripts")
	require.NoError(t, err)
	assert.Equal(t, []string{"greet", "shout"}, e.Names())

	result, err := e.Call("greet", data.String("you"), nil)
	require.NoError(t, err)
	assert.Equal(t, "hi you", result.String())

	_, err = LoadDir(fstest.MapFS{"scripts/bad.js": {Data: []byte(`{`)}}, "scripts")
	assert.Error(t, err)
}

func TestFilters(t *testing.T) {
	var e = newEngine(t)
	var filters = e.Filters()
	assert.Equal(t, []int{0, 1}, filters["initials"].ValidArgLengths)
	assert.Equal(t, []int{0}, filters["double"].ValidArgLengths)
	assert.Equal(t, []int{0}, filters["nothing"].ValidArgLengths)

	node, err := viewparse.NewParser().Parse("v", "{{ name | initials: '.' }} {{ n | double }}")
	require.NoError(t, err)
	reg, err := template.NewRegistry([]*template.View{{Path: "v", Node: node}})
	require.NoError(t, err)

	out, err := render.New(reg).WithFilters(filters).Render("v",
		data.Map{"name": data.String("Grace Hopper"), "n": data.Int(4)})
	require.NoError(t, err)
	assert.Equal(t, "G.H 8", out)

	node, err = viewparse.NewParser().Parse("w", "{{ 1 | double: 2 }}")
	require.NoError(t, err)
	reg, err = template.NewRegistry([]*template.View{{Path: "w", Node: node}})
	require.NoError(t, err)
	_, err = render.New(reg).WithFilters(filters).Render("w", nil)
	assert.Error(t, err, "too many arguments")
}

func TestConcurrentCalls(t *testing.T) {
	var e = newEngine(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := e.Call("double", data.Int(i), nil)
			if assert.NoError(t, err) {
				assert.Equal(t, data.New(i*2).String(), result.String())
			}
		}(i)
	}
	wg.Wait()
}
