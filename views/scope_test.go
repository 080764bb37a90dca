package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-cms/fluid/template"
)

func countingFactory(t *testing.T, created *[]string) func(string) *SharedCompiler {
	return func(tenant string) *SharedCompiler {
		*created = append(*created, tenant)
		return NewSharedCompiler(func() (*template.Registry, error) {
			return emptyRegistry(t), nil
		}, nil)
	}
}

func TestProcessScope(t *testing.T) {
	var created []string
	var set = NewCompilerSet(ScopeProcess, countingFactory(t, &created))
	assert.Equal(t, ScopeProcess, set.Scope())

	var a, b = set.For("acme"), set.For("globex")
	assert.Same(t, a, b)
	assert.Equal(t, []string{""}, created)

	regA, err := a.Get()
	require.NoError(t, err)
	regB, err := set.For("initech").Get()
	require.NoError(t, err)
	assert.Same(t, regA, regB, "all tenants share one table")
}

func TestTenantScope(t *testing.T) {
	var created []string
	var set = NewCompilerSet(ScopeTenant, countingFactory(t, &created))

	var a, b = set.For("acme"), set.For("globex")
	assert.NotSame(t, a, b)
	assert.Same(t, a, set.For("acme"))
	assert.Equal(t, []string{"acme", "globex"}, created)
	assert.Equal(t, []string{"acme", "globex"}, set.Tenants())

	_, err := a.Get()
	require.NoError(t, err)
	_, err = b.Get()
	require.NoError(t, err)
	set.Invalidate()
	assert.Equal(t, Unbuilt, a.State())
	assert.Equal(t, Unbuilt, b.State())
}

func TestParseScope(t *testing.T) {
	for input, expected := range map[string]Scope{
		"":         ScopeProcess,
		"process":  ScopeProcess,
		" Tenant ": ScopeTenant,
	} {
		scope, err := ParseScope(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, scope, input)
	}
	_, err := ParseScope("request")
	assert.Error(t, err)
	assert.Equal(t, "tenant", ScopeTenant.String())
	assert.Equal(t, "process", ScopeProcess.String())
}
