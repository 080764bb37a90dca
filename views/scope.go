package views

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Scope decides which callers share a compiled-view table.
type Scope int

const (
	// ScopeProcess shares one table between all tenants of the process.
	ScopeProcess Scope = iota
	// ScopeTenant gives every tenant its own table.
	ScopeTenant
)

// ParseScope parses "process" or "tenant".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "process":
		return ScopeProcess, nil
	case "tenant":
		return ScopeTenant, nil
	}
	return 0, fmt.Errorf("unknown cache scope %q (want process or tenant)", s)
}

func (s Scope) String() string {
	if s == ScopeTenant {
		return "tenant"
	}
	return "process"
}

// CompilerSet hands out SharedCompilers according to a Scope.  With
// ScopeProcess every tenant receives the same compiler, created for tenant "".
// With ScopeTenant each tenant's compiler is created on first use.
type CompilerSet struct {
	scope   Scope
	factory func(tenant string) *SharedCompiler

	mu        sync.Mutex
	compilers map[string]*SharedCompiler
}

// NewCompilerSet returns a set that creates compilers with factory.
func NewCompilerSet(scope Scope, factory func(tenant string) *SharedCompiler) *CompilerSet {
	return &CompilerSet{
		scope:     scope,
		factory:   factory,
		compilers: make(map[string]*SharedCompiler),
	}
}

// Scope returns the set's policy.
func (s *CompilerSet) Scope() Scope {
	return s.scope
}

// For returns the compiler serving the given tenant.
func (s *CompilerSet) For(tenant string) *SharedCompiler {
	if s.scope == ScopeProcess {
		tenant = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.compilers[tenant]; ok {
		return c
	}
	var c = s.factory(tenant)
	s.compilers[tenant] = c
	return c
}

// Tenants returns the keys of the compilers created so far, sorted.
func (s *CompilerSet) Tenants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tenants = make([]string, 0, len(s.compilers))
	for t := range s.compilers {
		tenants = append(tenants, t)
	}
	sort.Strings(tenants)
	return tenants
}

// Invalidate invalidates every compiler in the set.
func (s *CompilerSet) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.compilers {
		c.Invalidate()
	}
}
