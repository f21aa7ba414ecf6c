// Package engine defines the contract every template engine adapter meets.
//
// Adapters differ in how their engine discovers partials: some engines call
// back into a pluggable loader, some need every source handed over eagerly,
// and the scripting engine reads partials through a read-only view. From the
// outside they all compile a logical name, optionally under temporary
// partial aliases, into an immutable Template.
package engine

import (
	"errors"
	"io"

	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
)

// Template is a compiled, immutable template.
type Template interface {
	// Name is the logical name the template was compiled from.
	Name() string
	// Location is the resolved location of the root template.
	Location() string
	// Execute renders the template with model into w.
	Execute(w io.Writer, model any) error
}

// Adapter compiles and executes templates for one engine.
type Adapter interface {
	// Name identifies the engine, e.g. "pongo2".
	Name() string
	// Loader returns the shared loader the adapter reads through.
	Loader() *loader.Loader

	SetPrefix(prefix string)
	Prefix() string
	SetSuffix(suffix string)
	Suffix() string

	// Compile compiles name using permanent aliases only.
	Compile(name string) (Template, error)
	// CompileWithAliases compiles name with overrides installed as temporary
	// aliases for the duration of the compile. The overrides are released
	// before it returns, on success and on failure.
	CompileWithAliases(name string, overrides map[string]string) (Template, error)
	// Execute renders tpl with model into w.
	Execute(tpl Template, model any, w io.Writer) error
}

// CompileFunc compiles name with every lookup going through scope.
type CompileFunc func(scope *loader.Scope, name string) (Template, error)

// Base holds the loader shared by every adapter and implements the
// configuration half of Adapter by delegating to it.
type Base struct {
	loader *loader.Loader
}

// NewBase returns a Base over l.
func NewBase(l *loader.Loader) Base {
	return Base{loader: l}
}

// Loader returns the shared loader.
func (b Base) Loader() *loader.Loader { return b.loader }

// SetPrefix sets the loader prefix.
func (b Base) SetPrefix(prefix string) { b.loader.SetPrefix(prefix) }

// Prefix returns the loader prefix.
func (b Base) Prefix() string { return b.loader.Prefix() }

// SetSuffix sets the loader suffix.
func (b Base) SetSuffix(suffix string) { b.loader.SetSuffix(suffix) }

// Suffix returns the loader suffix.
func (b Base) Suffix() string { return b.loader.Suffix() }

// Execute renders tpl into w, reporting failures as render errors.
func (b Base) Execute(tpl Template, model any, w io.Writer) error {
	if tpl == nil {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError, "nil template", nil)
	}
	if err := tpl.Execute(w, model); err != nil {
		var ve *viewerrors.ViewError
		if errors.As(err, &ve) {
			return err
		}

		return viewerrors.Render(tpl.Name(), err).WithContext("location", tpl.Location())
	}

	return nil
}

// Compile runs fn inside a fresh scope carrying overrides and normalises
// the outcome. The scope is released before Compile returns.
//
// A missing or unreadable root template is returned as is. Every other
// failure, including a missing partial, becomes a Template-Compilation
// error naming the logical template and wrapping the cause.
func Compile(l *loader.Loader, name string, overrides map[string]string, fn CompileFunc) (Template, error) {
	var (
		tpl      Template
		location string
	)

	err := l.WithTemporaryAliases(overrides, func(scope *loader.Scope) error {
		location = scope.Resolve(name)

		var err error
		tpl, err = fn(scope, name)

		return err
	})
	if err != nil {
		return nil, normalize(name, location, err)
	}

	return tpl, nil
}

func normalize(name, location string, err error) error {
	var ve *viewerrors.ViewError
	if errors.As(err, &ve) {
		switch ve.Type {
		case viewerrors.ErrorTypeCompilation:
			return err
		case viewerrors.ErrorTypeNotFound, viewerrors.ErrorTypeIO:
			if ve.Location == location {
				return err
			}
		}
	}

	return viewerrors.TemplateCompilation(name, location, err)
}
