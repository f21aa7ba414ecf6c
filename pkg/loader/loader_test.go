package loader

import (
	"errors"
	"io"
	"io/fs"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/resource"
)

func newTestLoader(t *testing.T, files map[string]string, opts ...Option) *Loader {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}

	return New(resource.NewFileSource("mem", fsys, "/"), opts...)
}

func read(t *testing.T, g Getter, name string) string {
	t.Helper()

	content, _, err := ReadString(g, name)
	require.NoError(t, err)

	return content
}

func TestDecorationApply(t *testing.T) {
	tests := []struct {
		name     string
		d        Decoration
		input    string
		expected string
	}{
		{"both sides", Decoration{"/templates/", ".template.html"}, "foo", "/templates/foo.template.html"},
		{"already decorated", Decoration{"/templates/", ".template.html"}, "/templates/foo.template.html", "/templates/foo.template.html"},
		{"prefix present", Decoration{"/templates/", ".html"}, "/templates/foo", "/templates/foo.html"},
		{"suffix present", Decoration{"/templates/", ".html"}, "foo.html", "/templates/foo.html"},
		{"no prefix", Decoration{"", ".html"}, "foo", "foo.html"},
		{"no suffix", Decoration{"/t/", ""}, "foo", "/t/foo"},
		{"no decoration", Decoration{}, "foo", "foo"},
		{"empty name", Decoration{"/t/", ".html"}, "", "/t/.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.d.Apply(tt.input))
		})
	}
}

func TestResolverAliases(t *testing.T) {
	r := NewResolver("/templates/", ".html")
	r.AddAliases(map[string]string{"header": "partials/header", "a": "b"})
	r.AddAliases(map[string]string{"b": "c"})

	assert.Equal(t, "/templates/partials/header.html", r.Resolve("header"))
	assert.Equal(t, "/templates/b.html", r.Resolve("a"), "alias targets are not aliased again")
	assert.Equal(t, "/templates/c.html", r.Resolve("b"))
	assert.Equal(t, "/templates/plain.html", r.Resolve("plain"))
	assert.Len(t, r.Aliases(), 3, "additions merge")
}

func TestResolverSetters(t *testing.T) {
	r := NewResolver("", "")
	r.SetPrefix("/p/")
	r.SetSuffix(".s")

	assert.Equal(t, "/p/", r.Prefix())
	assert.Equal(t, ".s", r.Suffix())
	assert.Equal(t, Decoration{Prefix: "/p/", Suffix: ".s"}, r.Decoration())

	r.SetPrefix("")
	assert.Equal(t, "x.s", r.Resolve("x"))
}

func TestLoaderGetTemplate(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"/templates/foo.template.html": "foo",
	}, WithPrefix("/templates/"), WithSuffix(".template.html"))

	t.Run("found", func(t *testing.T) {
		content, location, err := ReadString(l, "foo")
		require.NoError(t, err)
		assert.Equal(t, "foo", content)
		assert.Equal(t, "/templates/foo.template.html", location)
	})

	t.Run("not found carries resolved location", func(t *testing.T) {
		_, err := l.GetTemplate("missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, viewerrors.ErrTemplateNotFound))

		var ve *viewerrors.ViewError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "/templates/missing.template.html", ve.Location)
		assert.NotEqual(t, "missing", ve.Location)
	})

	t.Run("lookup reports existence", func(t *testing.T) {
		assert.True(t, l.Lookup("foo").Exists())
		assert.False(t, l.Lookup("missing").Exists())
	})
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }

func (brokenSource) Resource(location string) resource.Resource {
	return brokenResource(location)
}

type brokenResource string

func (b brokenResource) Exists() bool                 { return true }
func (b brokenResource) Open() (io.ReadCloser, error) { return nil, fs.ErrPermission }
func (b brokenResource) Location() string             { return string(b) }
func (b brokenResource) Description() string          { return "broken: " + string(b) }

func TestLoaderIOFailure(t *testing.T) {
	l := New(brokenSource{}, WithSuffix(".html"))

	_, err := l.GetTemplate("foo")
	require.Error(t, err)
	assert.True(t, viewerrors.IsIO(err))
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, "foo.html", viewerrors.LocationOf(err))
}

func TestTemporaryAliasPrecedence(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"/t/baz.html": "baz",
		"/t/qux.html": "qux",
		"/t/bar.html": "bar",
	}, WithPrefix("/t/"), WithSuffix(".html"), WithAliases(map[string]string{"bar": "baz"}))

	scope := l.Scope()
	assert.Equal(t, "baz", read(t, scope, "bar"))

	scope.AddTemporaryPartialAliases(map[string]string{"bar": "qux"})
	assert.Equal(t, "qux", read(t, scope, "bar"), "temporary alias shadows permanent")
	assert.Equal(t, "baz", read(t, l, "bar"), "loader itself never sees temporary aliases")

	scope.RemoveTemporaryPartialAliases()
	assert.Equal(t, "baz", read(t, scope, "bar"))

	require.NoError(t, scope.Close())
	require.NoError(t, scope.Close())
	assert.True(t, scope.Closed())
}

func TestTemporaryAliasesMerge(t *testing.T) {
	l := newTestLoader(t, nil)
	scope := l.Scope()
	defer scope.Close()

	scope.AddTemporaryPartialAliases(map[string]string{"a": "1"})
	scope.AddTemporaryPartialAliases(map[string]string{"b": "2"})
	scope.AddTemporaryPartialAliases(nil)

	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, scope.TemporaryPartialAliases())
}

func TestWithTemporaryAliasesReleases(t *testing.T) {
	l := newTestLoader(t, nil, WithAliases(map[string]string{"content": "home"}))

	t.Run("on success", func(t *testing.T) {
		var captured *Scope
		err := l.WithTemporaryAliases(map[string]string{"content": "about"}, func(s *Scope) error {
			captured = s
			assert.Equal(t, "about", s.Resolve("content"))
			return nil
		})
		require.NoError(t, err)
		assert.True(t, captured.Closed())
		assert.Equal(t, "home", captured.Resolve("content"))
	})

	t.Run("on error", func(t *testing.T) {
		boom := errors.New("boom")
		var captured *Scope
		err := l.WithTemporaryAliases(map[string]string{"content": "about"}, func(s *Scope) error {
			captured = s
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, captured.TemporaryPartialAliases())
	})

	t.Run("on panic", func(t *testing.T) {
		var captured *Scope
		assert.Panics(t, func() {
			_ = l.WithTemporaryAliases(map[string]string{"content": "about"}, func(s *Scope) error {
				captured = s
				panic("engine exploded")
			})
		})
		require.NotNil(t, captured)
		assert.True(t, captured.Closed())
		assert.Empty(t, captured.TemporaryPartialAliases())
	})
}

func TestScopeIsolationAcrossGoroutines(t *testing.T) {
	l := newTestLoader(t, nil, WithPrefix("/t/"))

	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	errs := make(chan string, workers*iterations)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			target := "page" + string(rune('a'+w))
			for i := 0; i < iterations; i++ {
				_ = l.WithTemporaryAliases(map[string]string{"content": target}, func(s *Scope) error {
					if got := s.Resolve("content"); got != "/t/"+target {
						errs <- got
					}
					return nil
				})
			}
		}(w)
	}

	wg.Wait()
	close(errs)

	for got := range errs {
		t.Errorf("scope observed another goroutine's alias: %s", got)
	}
	assert.Equal(t, "/t/content", l.Resolve("content"))
}

func TestConcurrentPermanentAliasMerge(t *testing.T) {
	l := newTestLoader(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			l.AddPartialAliases(map[string]string{string(rune('a' + i)): "x"})
		}(i)
		go func() {
			defer wg.Done()
			_ = l.Resolve("a")
		}()
	}
	wg.Wait()

	assert.Len(t, l.PartialAliases(), 8)
}

func TestConcurrentDecorationWrites(t *testing.T) {
	l := newTestLoader(t, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		l.SetPrefix("/p/")
	}()
	go func() {
		defer wg.Done()
		l.SetSuffix(".s")
	}()
	wg.Wait()

	assert.Equal(t, "/p/x.s", l.Resolve("x"), "neither write may be lost")
}
