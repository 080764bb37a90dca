package views

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateLastWriteWins(t *testing.T) {
	var a = MapProvider{Name: "A", Views: map[string]string{"Layout": "from A", "Only/A": "a"}}
	var b = MapProvider{Name: "B", Views: map[string]string{"Layout": "from B"}}

	set, err := Aggregator{Providers: []Provider{a, b}}.Aggregate()
	require.NoError(t, err)
	assert.Equal(t, []string{"Layout", "Only/A"}, paths(set))

	layout, ok := set.Get("Layout")
	require.True(t, ok)
	assert.Equal(t, "from B", layout.Text)
	assert.Equal(t, "B", layout.Origin)

	// order is significant
	set, err = Aggregator{Providers: []Provider{b, a}}.Aggregate()
	require.NoError(t, err)
	layout, _ = set.Get("Layout")
	assert.Equal(t, "from A", layout.Text)
}

func TestAggregateApplicationFirst(t *testing.T) {
	var app = Application{Name: "site", FS: fstest.MapFS{
		"home.liquid":   {Data: []byte("app home")},
		"footer.liquid": {Data: []byte("app footer")},
	}}
	var feature = MapProvider{Name: "feature", Views: map[string]string{"home": "feature home"}}

	set, err := Aggregator{App: app, Providers: []Provider{feature}}.Aggregate()
	require.NoError(t, err)
	assert.Equal(t, []string{"footer", "home"}, paths(set))
	home, _ := set.Get("home")
	assert.Equal(t, "feature home", home.Text)
	footer, _ := set.Get("footer")
	assert.Equal(t, "site", footer.Origin)
}

func TestAggregateEmpty(t *testing.T) {
	set, err := Aggregator{App: Application{FS: fstest.MapFS{}}}.Aggregate()
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	set, err = Aggregator{}.Aggregate()
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestAggregateProviderError(t *testing.T) {
	var boom = errors.New("boom")
	var calls int
	var after = ProviderFunc(func(Application, *DescriptorSet) error {
		calls++
		return nil
	})
	_, err := Aggregator{Providers: []Provider{
		MapProvider{Name: "ok"},
		ManifestProvider{Name: "blog", FS: fstest.MapFS{}, File: "views.yaml"},
		after,
	}}.Aggregate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider blog: ")
	assert.Equal(t, 0, calls)

	_, err = Aggregator{Providers: []Provider{ProviderFunc(func(Application, *DescriptorSet) error {
		return boom
	})}}.Aggregate()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "views.ProviderFunc")
}
