package all_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/conneroisu/viewkit/pkg/engine/all"
	"github.com/conneroisu/viewkit/pkg/loader"
	"github.com/conneroisu/viewkit/pkg/provider"
	"github.com/conneroisu/viewkit/pkg/resource"
)

func TestEveryEngineIsRegistered(t *testing.T) {
	providers := provider.Default.List()
	require.Len(t, providers, len(provider.Kinds))

	for i, p := range providers {
		assert.Equal(t, provider.Kinds[i], p.Kind)
		assert.NotEmpty(t, p.Strategy)
	}
}

func TestDefaultSelection(t *testing.T) {
	p, err := provider.Default.Select()
	require.NoError(t, err)
	assert.Equal(t, provider.KindMustache, p.Kind)
}

func TestFactoriesBuildNamedAdapters(t *testing.T) {
	l := loader.New(resource.NewComposite())

	for _, p := range provider.Default.List() {
		a, err := p.New(l)
		require.NoError(t, err, p.Name())
		assert.Equal(t, p.Name(), a.Name())
		assert.Same(t, l, a.Loader())
	}
}
