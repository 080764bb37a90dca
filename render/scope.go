package render

import "github.com/tessera-cms/fluid/data"

// scope is a stack of variable bindings.  The bottom entry is the caller's
// data, which is never written; the entry above it holds the view's assigned
// variables.
type scope []data.Map

func newScope(m data.Map) scope {
	if m == nil {
		m = make(data.Map)
	}
	return scope{m, make(data.Map)}
}

// push creates a new scope
func (s *scope) push() {
	*s = append(*s, make(data.Map))
}

// augment pushes the given bindings as a new scope.
func (s *scope) augment(m data.Map) {
	*s = append(*s, m)
}

// pop discards the last scope pushed.
func (s *scope) pop() {
	*s = (*s)[:len(*s)-1]
}

// set adds a new binding to the deepest scope
func (s scope) set(k string, v data.Value) {
	s[len(s)-1][k] = v
}

// assign binds a variable for the remainder of the view, regardless of how
// deeply nested the assignment is.
func (s scope) assign(k string, v data.Value) {
	s[1][k] = v
}

// lookup checks the variable scopes, deepest out, for the given key
func (s scope) lookup(k string) data.Value {
	for i := range s {
		var elem = s[len(s)-i-1]
		if val, ok := elem[k]; ok {
			return val
		}
	}
	return data.Undefined{}
}
