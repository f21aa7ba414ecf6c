package app

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/viewkit/internal/config"
	"github.com/conneroisu/viewkit/pkg/engine"
	"github.com/conneroisu/viewkit/pkg/engine/mustache"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
	"github.com/conneroisu/viewkit/pkg/provider"
	"github.com/conneroisu/viewkit/pkg/view"
)

func testConfig() *config.Config {
	return &config.Config{
		Templates: config.TemplatesConfig{
			Engine:  config.EngineAuto,
			Sources: []string{"overrides", "templates"},
			Aliases: map[string]string{"header": "partials/header"},
			Layout:  config.LayoutConfig{ContentKey: config.DefaultContentKey},
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func testFs(t *testing.T) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"templates/page.mustache":            "{{> header}}<p>{{title}}</p>",
		"templates/partials/header.mustache": "<h1>base</h1>",
		"templates/layout.mustache":          "<main>{{> content}}</main>",
		"overrides/partials/header.mustache": "<h1>override</h1>",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}

	return fsys
}

func TestNewWiresTheDefaultEngine(t *testing.T) {
	a, err := New(context.Background(), testConfig(), WithFs(testFs(t)))
	require.NoError(t, err)

	assert.Equal(t, provider.KindMustache, a.Provider.Kind)
	assert.Equal(t, mustache.Name, a.Adapter.Name())
	assert.Equal(t, ".mustache", a.Loader.Suffix())
	assert.Len(t, a.Sources.Sources(), 2)

	out, err := a.Render(context.Background(), "page", map[string]any{"title": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>override</h1><p>Hi</p>", out)
}

func TestConfiguredSuffixWins(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.Suffix = ".mst"

	a, err := New(context.Background(), cfg, WithFs(testFs(t)))
	require.NoError(t, err)
	assert.Equal(t, ".mst", a.Loader.Suffix())
}

func TestLayoutFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.Layout.Name = "layout"

	a, err := New(context.Background(), cfg, WithFs(testFs(t)))
	require.NoError(t, err)

	out, err := a.Render(context.Background(), "page", map[string]any{"title": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "<main><h1>override</h1><p>Hi</p></main>", out)

	out, err = a.Render(context.Background(), "page", map[string]any{"title": "Hi"}, view.WithoutLayout())
	require.NoError(t, err)
	assert.Equal(t, "<h1>override</h1><p>Hi</p>", out)
}

func TestPinnedEngine(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.Engine = "hcl"

	a, err := New(context.Background(), cfg, WithFs(testFs(t)))
	require.NoError(t, err)
	assert.Equal(t, provider.KindHCL, a.Provider.Kind)
	assert.Equal(t, ".hcltpl", a.Loader.Suffix())
}

func TestNoEngineAvailable(t *testing.T) {
	r := provider.NewRegistry()
	require.NoError(t, r.Register(provider.Provider{
		Kind:  provider.KindMustache,
		Probe: func() error { return errors.New("down") },
		New:   func(l *loader.Loader) (engine.Adapter, error) { return mustache.New(l), nil },
	}))

	_, err := New(context.Background(), testConfig(), WithFs(testFs(t)), WithRegistry(r))
	require.Error(t, err)
	assert.True(t, viewerrors.IsNoProvider(err))

	var ve *viewerrors.ViewError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, provider.Names(), ve.Tried)
}

func TestFactoryFailure(t *testing.T) {
	r := provider.NewRegistry()
	require.NoError(t, r.Register(provider.Provider{
		Kind: provider.KindHTML,
		New:  func(*loader.Loader) (engine.Adapter, error) { return nil, errors.New("no funcs") },
	}))

	_, err := New(context.Background(), testConfig(), WithFs(testFs(t)), WithRegistry(r))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create html adapter")
}

func TestResolve(t *testing.T) {
	a, err := New(context.Background(), testConfig(), WithFs(testFs(t)))
	require.NoError(t, err)

	tests := []struct {
		name      string
		overrides map[string]string
		want      Resolution
	}{
		{
			name: "permanent alias",
			want: Resolution{
				Name:     "header",
				Location: "partials/header.mustache",
				Exists:   true,
				Resource: "overrides: partials/header.mustache",
			},
		},
		{
			name:      "temporary alias",
			overrides: map[string]string{"header": "page"},
			want: Resolution{
				Name:     "header",
				Location: "page.mustache",
				Exists:   true,
				Resource: "templates: page.mustache",
			},
		},
		{
			name:      "missing",
			overrides: map[string]string{"header": "gone"},
			want: Resolution{
				Name:     "header",
				Location: "gone.mustache",
				Exists:   false,
				Resource: "templates: missing gone.mustache",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Resolve("header", tt.overrides))
		})
	}

	assert.Equal(t, map[string]string{"header": "partials/header"}, a.Loader.PartialAliases())
}

func TestRenderNotFound(t *testing.T) {
	a, err := New(context.Background(), testConfig(), WithFs(testFs(t)))
	require.NoError(t, err)

	_, err = a.Render(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.True(t, viewerrors.IsNotFound(err))
	assert.Equal(t, "nope.mustache", viewerrors.LocationOf(err))
}
