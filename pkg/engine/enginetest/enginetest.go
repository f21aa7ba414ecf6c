// Package enginetest holds the behaviour every engine adapter must share.
// Each engine package runs Run from its own tests, supplying the syntax its
// templates use to print a variable and to include a partial.
package enginetest

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/viewkit/pkg/engine"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
	"github.com/conneroisu/viewkit/pkg/resource"
)

// Prefix is the loader prefix used by the suite.
const Prefix = "/templates/"

// Syntax describes how an engine spells the constructs the suite needs.
type Syntax struct {
	// Suffix is the template file extension.
	Suffix string
	// Var prints the model value called name.
	Var func(name string) string
	// Include includes the partial called name.
	Include func(name string) string
	// Broken is a template the engine must refuse to compile.
	Broken string
}

// Factory builds the adapter under test.
type Factory func(l *loader.Loader) engine.Adapter

// Fixture is an in-memory template tree and the loader over it.
type Fixture struct {
	FS     afero.Fs
	Loader *loader.Loader
	Syntax Syntax
}

// NewFixture writes files below Prefix, adding the syntax suffix to each
// name, and returns a loader over them.
func NewFixture(t *testing.T, syntax Syntax, files map[string]string) *Fixture {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for name, content := range files {
		path := Prefix + name + syntax.Suffix
		if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", path, err)
		}
	}

	l := loader.New(
		resource.NewFileSource("fixture", fsys, "/"),
		loader.WithPrefix(Prefix),
		loader.WithSuffix(syntax.Suffix),
	)

	return &Fixture{FS: fsys, Loader: l, Syntax: syntax}
}

// Render compiles name with overrides and executes it with model.
func Render(t *testing.T, a engine.Adapter, name string, overrides map[string]string, model any) string {
	t.Helper()

	tpl, err := a.CompileWithAliases(name, overrides)
	require.NoError(t, err)

	return Execute(t, a, tpl, model)
}

// Execute runs tpl and returns its output.
func Execute(t *testing.T, a engine.Adapter, tpl engine.Template, model any) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, a.Execute(tpl, model, &buf))

	return buf.String()
}

// Equal fails t with a diff when got differs from want.
func Equal(t *testing.T, want, got string) {
	t.Helper()

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rendered output mismatch (-want +got):\n%s", diff)
	}
}

// Run exercises the adapter contract.
func Run(t *testing.T, newAdapter Factory, syntax Syntax) {
	s := syntax
	model := map[string]any{"title": "Hello"}

	pages := map[string]string{
		"foo":      "<h1>" + s.Var("title") + "</h1>" + s.Include("bar"),
		"wrapper":  "<div>" + s.Include("inner") + "</div>",
		"inner":    "[" + s.Include("bar") + "]",
		"nested":   "<main>" + s.Include("wrapper") + "</main>",
		"bar":      "bar",
		"baz":      "baz",
		"qux":      "qux",
		"broken":   s.Broken,
		"dangling": "<p>" + s.Include("nowhere") + "</p>",
	}

	setup := func(t *testing.T) (*Fixture, engine.Adapter) {
		f := NewFixture(t, s, pages)
		f.Loader.AddPartialAliases(map[string]string{"bar": "baz"})

		return f, newAdapter(f.Loader)
	}

	t.Run("renders variables and permanent aliases", func(t *testing.T) {
		_, a := setup(t)

		Equal(t, "<h1>Hello</h1>baz", Render(t, a, "foo", nil, model))
	})

	t.Run("temporary alias applies to one compile only", func(t *testing.T) {
		_, a := setup(t)

		Equal(t, "<h1>Hello</h1>qux", Render(t, a, "foo", map[string]string{"bar": "qux"}, model))
		Equal(t, "<h1>Hello</h1>baz", Render(t, a, "foo", nil, model))
	})

	t.Run("temporary alias applies at every depth", func(t *testing.T) {
		_, a := setup(t)

		Equal(t, "<main><div>[qux]</div></main>", Render(t, a, "nested", map[string]string{"bar": "qux"}, model))
		Equal(t, "<main><div>[baz]</div></main>", Render(t, a, "nested", nil, model))
	})

	t.Run("compiled template keeps its aliases", func(t *testing.T) {
		_, a := setup(t)

		tpl, err := a.CompileWithAliases("foo", map[string]string{"bar": "qux"})
		require.NoError(t, err)

		plain, err := a.Compile("foo")
		require.NoError(t, err)

		Equal(t, "<h1>Hello</h1>qux", Execute(t, a, tpl, model))
		Equal(t, "<h1>Hello</h1>baz", Execute(t, a, plain, model))
		Equal(t, "<h1>Hello</h1>qux", Execute(t, a, tpl, model))
	})

	t.Run("missing root is not found with resolved location", func(t *testing.T) {
		_, a := setup(t)

		_, err := a.Compile("absent")
		require.Error(t, err)
		assert.True(t, viewerrors.IsNotFound(err), "got %v", err)
		assert.Equal(t, Prefix+"absent"+s.Suffix, viewerrors.LocationOf(err))
	})

	t.Run("missing partial is a compilation failure", func(t *testing.T) {
		_, a := setup(t)

		_, err := a.Compile("dangling")
		require.Error(t, err)
		assert.True(t, viewerrors.IsCompilation(err), "got %v", err)
		assert.True(t, errors.Is(err, viewerrors.ErrTemplateNotFound), "cause should stay reachable: %v", err)

		var ve *viewerrors.ViewError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "dangling", ve.Name)
	})

	t.Run("syntax error is a compilation failure naming the template", func(t *testing.T) {
		_, a := setup(t)

		_, err := a.Compile("broken")
		require.Error(t, err)
		assert.True(t, errors.Is(err, viewerrors.ErrTemplateCompilation), "got %v", err)

		var ve *viewerrors.ViewError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "broken", ve.Name)
		assert.Equal(t, Prefix+"broken"+s.Suffix, ve.Location)
	})

	t.Run("prefix and suffix delegate to the loader", func(t *testing.T) {
		f, a := setup(t)

		a.SetPrefix("/other/")
		assert.Equal(t, "/other/", f.Loader.Prefix())
		assert.Equal(t, "/other/", a.Prefix())

		a.SetSuffix(".x")
		assert.Equal(t, ".x", f.Loader.Suffix())
		assert.Equal(t, ".x", a.Suffix())
		assert.Same(t, f.Loader, a.Loader())
	})

	t.Run("concurrent compiles do not share temporary aliases", func(t *testing.T) {
		_, a := setup(t)

		const workers = 8
		var wg sync.WaitGroup
		failures := make(chan string, workers*10)

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()

				target, want := "qux", "<h1>Hello</h1>qux"
				if w%2 == 0 {
					target, want = "baz", "<h1>Hello</h1>baz"
				}

				for i := 0; i < 10; i++ {
					tpl, err := a.CompileWithAliases("foo", map[string]string{"bar": target})
					if err != nil {
						failures <- err.Error()
						continue
					}
					var buf bytes.Buffer
					if err := a.Execute(tpl, model, &buf); err != nil {
						failures <- err.Error()
						continue
					}
					if buf.String() != want {
						failures <- fmt.Sprintf("worker %d got %q, want %q", w, buf.String(), want)
					}
				}
			}(w)
		}

		wg.Wait()
		close(failures)

		for f := range failures {
			t.Error(f)
		}
	})
}
