//go:build property
// +build property

package resource

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// flagSource holds every location or none, and counts lookups.
type flagSource struct {
	name  string
	holds bool
	calls int
}

func (f *flagSource) Name() string { return f.name }

func (f *flagSource) Resource(location string) Resource {
	f.calls++
	if f.holds {
		return heldResource{source: f.name, location: location}
	}

	return Missing(f.name, location)
}

type heldResource struct{ source, location string }

func (h heldResource) Exists() bool                 { return true }
func (h heldResource) Open() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("")), nil }
func (h heldResource) Location() string             { return h.location }
func (h heldResource) Description() string          { return h.source + ": " + h.location }

func sourcesFrom(holds []bool) ([]Source, []*flagSource) {
	sources := make([]Source, len(holds))
	flags := make([]*flagSource, len(holds))
	for i, h := range holds {
		flags[i] = &flagSource{name: fmt.Sprintf("s%d", i), holds: h}
		sources[i] = flags[i]
	}

	return sources, flags
}

// TestCompositeProperties checks fallback order for arbitrary source chains.
func TestCompositeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	chains := gen.SliceOfN(5, gen.Bool())

	// Property: the first holding source serves and later ones are not asked
	properties.Property("first hit wins", prop.ForAll(
		func(holds []bool) bool {
			sources, flags := sourcesFrom(holds)
			r := NewComposite(sources...).Resource("page.html")

			first := -1
			for i, h := range holds {
				if h {
					first = i
					break
				}
			}
			if first < 0 {
				return !r.Exists()
			}

			for i, f := range flags {
				want := 0
				if i <= first {
					want = 1
				}
				if f.calls != want {
					return false
				}
			}

			return r.Exists() && strings.HasPrefix(r.Description(), flags[first].name+":")
		},
		chains,
	))

	// Property: a total miss returns the last source's resource
	properties.Property("miss returns last", prop.ForAll(
		func(n int) bool {
			sources, flags := sourcesFrom(make([]bool, n))
			r := NewComposite(sources...).Resource("page.html")

			return r != nil &&
				!r.Exists() &&
				r.Location() == "page.html" &&
				strings.HasPrefix(r.Description(), flags[n-1].name+":")
		},
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
