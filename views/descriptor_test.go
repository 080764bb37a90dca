package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorSet(t *testing.T) {
	var set DescriptorSet
	assert.Equal(t, 0, set.Len())
	_, ok := set.Get("a")
	assert.False(t, ok)

	require.NoError(t, set.Put(Descriptor{Path: "a", Origin: "x", Text: "1"}))
	require.NoError(t, set.Put(Descriptor{Path: "b", Origin: "x", Text: "2"}))
	require.NoError(t, set.Put(Descriptor{Path: "a", Origin: "y", Text: "3"}))

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []Descriptor{
		{Path: "a", Origin: "y", Text: "3"},
		{Path: "b", Origin: "x", Text: "2"},
	}, set.Descriptors())

	d, ok := set.Get("a")
	require.True(t, ok)
	assert.Equal(t, "y", d.Origin)

	// the returned slice is a copy
	set.Descriptors()[0].Text = "changed"
	d, _ = set.Get("a")
	assert.Equal(t, "3", d.Text)
}

func TestDescriptorSetEmptyPath(t *testing.T) {
	var set DescriptorSet
	assert.Error(t, set.Put(Descriptor{Text: "x"}))
	assert.Equal(t, 0, set.Len())
}
