// Package loader resolves logical template names to content.
//
// A Loader combines a Resolver (prefix/suffix convention plus partial
// aliases) with a resource.Source. Aliases come in two flavours: permanent
// aliases shared by every caller, and temporary aliases owned by a Scope and
// visible only to code holding that scope. Engine adapters compile inside a
// scope so that one render can remap a partial without touching shared
// state.
package loader

import (
	"io"
	"strings"

	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/resource"
)

// Getter is the read side shared by *Loader and *Scope. Engine adapters
// depend on it rather than on either concrete type.
type Getter interface {
	// Resolve returns the resolved location for name.
	Resolve(name string) string
	// GetTemplate opens the template name resolves to.
	GetTemplate(name string) (io.ReadCloser, error)
}

var (
	_ Getter = (*Loader)(nil)
	_ Getter = (*Scope)(nil)
)

// Loader produces template streams for logical names. It is safe for
// concurrent use.
type Loader struct {
	resolver *Resolver
	source   resource.Source
}

// Option configures a Loader.
type Option func(*Loader)

// WithPrefix sets the initial prefix.
func WithPrefix(prefix string) Option {
	return func(l *Loader) { l.resolver.SetPrefix(prefix) }
}

// WithSuffix sets the initial suffix.
func WithSuffix(suffix string) Option {
	return func(l *Loader) { l.resolver.SetSuffix(suffix) }
}

// WithAliases adds permanent partial aliases.
func WithAliases(aliases map[string]string) Option {
	return func(l *Loader) { l.resolver.AddAliases(aliases) }
}

// New returns a loader reading from source.
func New(source resource.Source, opts ...Option) *Loader {
	l := &Loader{
		resolver: NewResolver("", ""),
		source:   source,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Source returns the resource source the loader reads from.
func (l *Loader) Source() resource.Source {
	return l.source
}

// SetPrefix replaces the prefix. The change is visible to all goroutines.
func (l *Loader) SetPrefix(prefix string) { l.resolver.SetPrefix(prefix) }

// Prefix returns the configured prefix.
func (l *Loader) Prefix() string { return l.resolver.Prefix() }

// SetSuffix replaces the suffix. The change is visible to all goroutines.
func (l *Loader) SetSuffix(suffix string) { l.resolver.SetSuffix(suffix) }

// Suffix returns the configured suffix.
func (l *Loader) Suffix() string { return l.resolver.Suffix() }

// AddPartialAliases merges aliases into the permanent alias map.
func (l *Loader) AddPartialAliases(aliases map[string]string) {
	l.resolver.AddAliases(aliases)
}

// PartialAliases returns a copy of the permanent alias map.
func (l *Loader) PartialAliases() map[string]string {
	return l.resolver.Aliases()
}

// Resolve returns the resolved location for name using permanent aliases.
func (l *Loader) Resolve(name string) string {
	return l.resolver.Resolve(name)
}

// Lookup resolves name and returns the resource it maps to, existing or not.
func (l *Loader) Lookup(name string) resource.Resource {
	return l.source.Resource(l.Resolve(name))
}

// GetTemplate opens the template for name using permanent aliases.
func (l *Loader) GetTemplate(name string) (io.ReadCloser, error) {
	return l.open(l.Resolve(name))
}

// Scope returns a new alias scope. The scope must be closed by its owner.
func (l *Loader) Scope() *Scope {
	return &Scope{loader: l}
}

// WithTemporaryAliases runs fn with a scope carrying overrides as temporary
// aliases. The scope is released when fn returns, fails or panics.
func (l *Loader) WithTemporaryAliases(overrides map[string]string, fn func(*Scope) error) error {
	scope := l.Scope()
	defer scope.Close()

	scope.AddTemporaryPartialAliases(overrides)

	return fn(scope)
}

func (l *Loader) open(location string) (io.ReadCloser, error) {
	res := l.source.Resource(location)
	if !res.Exists() {
		return nil, viewerrors.TemplateNotFound(location)
	}

	rc, err := res.Open()
	if err != nil {
		if viewerrors.IsNotFound(err) {
			return nil, err
		}

		return nil, viewerrors.TemplateIO(location, err).
			WithContext("resource", res.Description())
	}

	return rc, nil
}

// ReadString reads the whole template for name through g and returns it with
// its resolved location. Errors keep the loader's not-found and I/O kinds.
func ReadString(g Getter, name string) (content, location string, err error) {
	location = g.Resolve(name)

	rc, err := g.GetTemplate(name)
	if err != nil {
		return "", location, err
	}
	defer rc.Close()

	var b strings.Builder
	if _, err := io.Copy(&b, rc); err != nil {
		return "", location, viewerrors.TemplateIO(location, err)
	}

	return b.String(), location, nil
}
