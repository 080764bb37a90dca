// Package scripting lets sites define template filters in JavaScript.
//
// A script registers filters by calling the global filter function:
//
//	filter("initials", function(value, sep) {
//	    return value.split(" ").map(function(w) { return w[0]; }).join(sep || "");
//	});
//
// The first parameter receives the filtered value; the remaining parameters
// receive the filter arguments.
package scripting

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/robertkrimen/otto"

	"github.com/tessera-cms/fluid/data"
	"github.com/tessera-cms/fluid/render"
)

// ErrTimeout is returned when a filter runs longer than the engine's timeout.
var ErrTimeout = errors.New("script filter timed out")

var errHalt = errors.New("halt")

// Engine holds a JavaScript interpreter and the filters its scripts
// registered.  It is safe for concurrent use; calls are serialized.
type Engine struct {
	Timeout time.Duration // limit for a single filter call; zero means none

	mu      sync.Mutex
	vm      *otto.Otto
	filters map[string]otto.Value
	loadErr error // set by the filter builtin while a script runs
}

// New returns an engine with no filters.
func New() *Engine {
	var e = &Engine{vm: otto.New(), filters: make(map[string]otto.Value)}
	if err := e.vm.Set("filter", e.register); err != nil {
		panic(err)
	}
	return e
}

// register implements the filter(name, fn) builtin.
func (e *Engine) register(call otto.FunctionCall) otto.Value {
	var name, fn = call.Argument(0), call.Argument(1)
	switch {
	case !name.IsString() || name.String() == "":
		e.loadErr = errors.New("filter: name must be a non-empty string")
	case !fn.IsFunction():
		e.loadErr = fmt.Errorf("filter %q: second argument must be a function", name.String())
	default:
		e.filters[name.String()] = fn
	}
	return otto.UndefinedValue()
}

// Load runs the given script, registering the filters it declares.  A later
// registration of the same name replaces the earlier one.
func (e *Engine) Load(name, src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadErr = nil
	if _, err := e.vm.Run(src); err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	if e.loadErr != nil {
		return fmt.Errorf("script %s: %w", name, e.loadErr)
	}
	return nil
}

// LoadDir loads every .js file of dir, in name order.
func LoadDir(fsys fs.FS, dir string) (*Engine, error) {
	var matches, err = fs.Glob(fsys, path.Join(dir, "*.js"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	var e = New()
	for _, file := range matches {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		if err := e.Load(file, string(src)); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Names returns the registered filter names in sorted order.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var names = make([]string, 0, len(e.filters))
	for name := range e.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call applies the named filter.
func (e *Engine) Call(name string, value data.Value, args []data.Value) (data.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var fn, ok = e.filters[name]
	if !ok {
		return nil, fmt.Errorf("no script filter %q", name)
	}

	var jsArgs = make([]interface{}, 0, len(args)+1)
	for _, arg := range append([]data.Value{value}, args...) {
		v, err := e.vm.ToValue(data.Export(arg))
		if err != nil {
			return nil, err
		}
		jsArgs = append(jsArgs, v)
	}
	result, err := e.call(fn, jsArgs)
	if err != nil {
		return nil, fmt.Errorf("script filter %q: %w", name, err)
	}
	return toData(result)
}

// call invokes fn, interrupting it if it exceeds the timeout.
func (e *Engine) call(fn otto.Value, args []interface{}) (result otto.Value, err error) {
	if e.Timeout > 0 {
		var interrupt = make(chan func(), 1)
		e.vm.Interrupt = interrupt
		var timer = time.AfterFunc(e.Timeout, func() {
			interrupt <- func() { panic(errHalt) }
		})
		defer func() {
			timer.Stop()
			e.vm.Interrupt = nil
			if caught := recover(); caught != nil {
				if caught == errHalt {
					err = ErrTimeout
					return
				}
				panic(caught)
			}
		}()
	}
	return fn.Call(otto.NullValue(), args...)
}

func toData(v otto.Value) (result data.Value, err error) {
	if v.IsUndefined() {
		return data.Undefined{}, nil
	}
	exported, err := v.Export()
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("unsupported filter result: %v", e)
		}
	}()
	return data.New(exported), nil
}

// Filters returns a render filter for each registered script filter.  The
// number of arguments a filter accepts is at most the number of parameters
// its function declares, less the value parameter.
func (e *Engine) Filters() map[string]render.Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	var filters = make(map[string]render.Filter, len(e.filters))
	for name, fn := range e.filters {
		var name = name
		filters[name] = render.Filter{
			Apply: func(value data.Value, args []data.Value) (data.Value, error) {
				return e.Call(name, value, args)
			},
			ValidArgLengths: argLengths(fn),
		}
	}
	return filters
}

func argLengths(fn otto.Value) []int {
	var params int64 = 1
	if length, err := fn.Object().Get("length"); err == nil {
		if n, err := length.ToInteger(); err == nil && n > 1 {
			params = n
		}
	}
	var lengths = make([]int, params)
	for i := range lengths {
		lengths[i] = i
	}
	return lengths
}
