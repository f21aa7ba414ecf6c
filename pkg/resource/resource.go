// Package resource provides the lookup layer between resolved template
// locations and the bytes behind them.
//
// A Source answers "does this location exist, and can I read it". Sources
// never fail a lookup: absence is reported through Resource.Exists so that
// chains of sources can be searched uniformly. The Composite source searches
// an ordered list and degrades to the last miss.
package resource

import (
	"io"
	"path"
	"strings"

	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
)

// Resource is a handle on one template location in one source.
type Resource interface {
	// Exists reports whether the location is backed by readable content.
	// A resource whose existence could not be determined reports true so
	// that the failure surfaces from Open.
	Exists() bool
	// Open returns a stream over the content. Callers must close it.
	Open() (io.ReadCloser, error)
	// Location is the location the resource was requested under.
	Location() string
	// Description names the backing source and path for diagnostics.
	Description() string
}

// Source produces resources for resolved locations.
type Source interface {
	Name() string
	Resource(location string) Resource
}

// Lister is implemented by sources that can enumerate their templates.
// Patterns use doublestar syntax and match against relative keys.
type Lister interface {
	List(pattern string) ([]string, error)
}

// Missing returns a resource that does not exist.
func Missing(source, location string) Resource {
	return &missingResource{source: source, location: location}
}

type missingResource struct {
	source   string
	location string
}

func (m *missingResource) Exists() bool { return false }

func (m *missingResource) Open() (io.ReadCloser, error) {
	return nil, viewerrors.TemplateNotFound(m.location)
}

func (m *missingResource) Location() string { return m.location }

func (m *missingResource) Description() string {
	if m.source == "" {
		return "missing " + m.location
	}

	return m.source + ": missing " + m.location
}

// Key converts a resolved location into the slash separated, root relative
// key used to address a source. Locations are anchored at the source root,
// so "/templates/a.html", "templates/a.html" and "../templates/a.html" all
// address the same key. ok is false for empty locations and the root.
func Key(location string) (key string, ok bool) {
	if location == "" || strings.ContainsRune(location, 0) {
		return "", false
	}

	key = strings.ReplaceAll(location, "\\", "/")
	key = strings.TrimPrefix(path.Clean("/"+key), "/")

	if key == "" {
		return "", false
	}

	return key, true
}
