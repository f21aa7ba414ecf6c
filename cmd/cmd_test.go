package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/viewkit/internal/app"
	"github.com/conneroisu/viewkit/internal/config"
	"github.com/conneroisu/viewkit/internal/watcher"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
)

const testConfig = `templates:
  sources:
    - ./overrides
    - ./templates
  aliases:
    header: partials/header
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// project creates a template project and makes it the working directory.
func project(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".viewkit.yml":                       testConfig,
		"templates/page.mustache":            "{{> header}}<p>{{title}}</p>",
		"templates/layout.mustache":          "<main>{{> content}}</main>",
		"templates/partials/header.mustache": "<h1>base</h1>",
		"templates/partials/alt.mustache":    "<h1>alt</h1>",
		"overrides/partials/header.mustache": "<h1>override</h1>",
		"templates/card.hcltpl":              `<div>${upper(title)}</div>`,
	})
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "first directory wins",
			args: []string{"render", "page", "--model", `{"title":"Hi"}`},
			want: "<h1>override</h1><p>Hi</p>",
		},
		{
			name: "temporary alias",
			args: []string{"render", "page", "--model", `{"title":"Hi"}`, "--alias", "header=partials/alt"},
			want: "<h1>alt</h1><p>Hi</p>",
		},
		{
			name: "layout",
			args: []string{"render", "page", "--model", `{"title":"Hi"}`, "--layout", "layout"},
			want: "<main><h1>override</h1><p>Hi</p></main>",
		},
		{
			name: "pinned engine",
			args: []string{"render", "card", "--engine", "hcl", "--model", `{"title":"hi"}`},
			want: "<div>HI</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project(t)

			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderModelFile(t *testing.T) {
	dir := project(t)
	writeFiles(t, dir, map[string]string{"model.yaml": "title: From YAML\n"})

	out, err := execute(t, "render", "page", "--model", "@model.yaml", "--out", "page.html")
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(filepath.Join(dir, "page.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>override</h1><p>From YAML</p>", string(written))
}

func TestRenderErrors(t *testing.T) {
	project(t)

	_, err := execute(t, "render", "missing")
	require.Error(t, err)
	assert.True(t, viewerrors.IsNotFound(err))

	_, err = execute(t, "render", "page", "--layout", "layout", "--no-layout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--layout and --no-layout")

	_, err = execute(t, "render", "page", "--engine", "jinja")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "templates.engine")
}

func TestConfigFileSelection(t *testing.T) {
	dir := project(t)
	writeFiles(t, dir, map[string]string{
		"alt.yml": "templates:\n  sources: [./templates]\n  aliases:\n    header: partials/header\n",
	})

	out, err := execute(t, "render", "page", "--config", "alt.yml")
	require.NoError(t, err)
	assert.Equal(t, "<h1>base</h1><p></p>", out)

	t.Setenv("VIEWKIT_CONFIG_FILE", "alt.yml")
	out, err = execute(t, "render", "page")
	require.NoError(t, err)
	assert.Equal(t, "<h1>base</h1><p></p>", out)

	_, err = execute(t, "render", "page", "--config", "nowhere.yml")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	project(t)

	out, err := execute(t, "resolve", "header", "nothing", "-o", "json")
	require.NoError(t, err)

	var results []app.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "partials/header.mustache", results[0].Location)
	assert.True(t, results[0].Exists)
	assert.Contains(t, results[0].Resource, "overrides")
	assert.False(t, results[1].Exists)

	out, err = execute(t, "resolve", "header", "-a", "header=partials/alt")
	require.NoError(t, err)
	assert.Contains(t, out, "partials/alt.mustache")
}

func TestListCommand(t *testing.T) {
	project(t)

	out, err := execute(t, "list", "partials/**")
	require.NoError(t, err)
	assert.Contains(t, out, "TEMPLATE")
	assert.Contains(t, out, "partials/header.mustache")
	assert.Contains(t, out, "./templates")
	assert.NotContains(t, out, "page.mustache")

	out, err = execute(t, "list", "nothing/**", "-q")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProvidersCommand(t *testing.T) {
	project(t)

	out, err := execute(t, "providers", "-o", "json")
	require.NoError(t, err)

	var reports []providerReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 4)
	assert.Equal(t, "mustache", reports[0].Name)
	assert.True(t, reports[0].Selected)
	for _, r := range reports {
		assert.True(t, r.Linked, r.Name)
		assert.Equal(t, "available", r.Status, r.Name)
	}

	out, err = execute(t, "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "Available")
}

func TestOutputFormatSuggestion(t *testing.T) {
	project(t)

	_, err := execute(t, "providers", "-o", "jsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"`)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.Len(t, info["engines"], 4)

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestParseModel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"m.json":   `{"a":1}`,
		"m.yml":    "a: 1\n",
		"bad.json": "{",
	})

	tests := []struct {
		name    string
		flags   StandardFlags
		want    map[string]interface{}
		wantErr bool
	}{
		{"empty", StandardFlags{}, map[string]interface{}{}, false},
		{"inline", StandardFlags{Model: `{"a":"b"}`}, map[string]interface{}{"a": "b"}, false},
		{"json file", StandardFlags{Model: "@" + filepath.Join(dir, "m.json")}, map[string]interface{}{"a": float64(1)}, false},
		{"yaml file", StandardFlags{ModelFile: filepath.Join(dir, "m.yml")}, map[string]interface{}{"a": 1}, false},
		{"bad inline", StandardFlags{Model: "{"}, nil, true},
		{"bad file", StandardFlags{ModelFile: filepath.Join(dir, "bad.json")}, nil, true},
		{"missing file", StandardFlags{ModelFile: filepath.Join(dir, "none.json")}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.ParseModel()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRerenderHandler(t *testing.T) {
	project(t)
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Templates.Sources = []string{"./templates"}
	cfg.Templates.Aliases = map[string]string{"header": "partials/header"}
	cfg.Templates.Cache = true

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	h := &rerender{app: a, name: "page", model: map[string]interface{}{"title": "Hi"}, out: &out}

	require.NoError(t, h.render(context.Background()))
	assert.Equal(t, 1, a.Renderer.Cached())

	writeFiles(t, ".", map[string]string{"templates/page.mustache": "changed"})
	require.NoError(t, h.handle(context.Background(), []watcher.ChangeEvent{{Path: "templates/page.mustache"}}))

	assert.Equal(t, "<h1>base</h1><p>Hi</p>\nchanged\n", out.String())
}
