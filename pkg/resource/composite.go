package resource

import (
	"sort"
	"strings"
)

// Composite searches an ordered list of sources. Order is significant: put
// override directories first and shipped defaults last.
type Composite struct {
	sources []Source
}

var _ Source = (*Composite)(nil)

// NewComposite returns a composite over sources, searched in order.
func NewComposite(sources ...Source) *Composite {
	return &Composite{sources: append([]Source(nil), sources...)}
}

// Name lists the member sources.
func (c *Composite) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}

	return "composite[" + strings.Join(names, ", ") + "]"
}

// Sources returns the member sources in search order.
func (c *Composite) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Resource returns the first existing resource for location. Sources after
// the first hit are not consulted. When every source misses, the resource
// produced by the last source is returned, so callers test Exists instead of
// handling a nil.
func (c *Composite) Resource(location string) Resource {
	var last Resource
	for _, s := range c.sources {
		last = s.Resource(location)
		if last.Exists() {
			return last
		}
	}

	if last == nil {
		return Missing("", location)
	}

	return last
}

// Entry is one listed template and the source that serves it.
type Entry struct {
	Key    string `json:"key" yaml:"key"`
	Source string `json:"source" yaml:"source"`
	// Shadowed names later sources that also carry the key.
	Shadowed []string `json:"shadowed,omitempty" yaml:"shadowed,omitempty"`
}

// List enumerates templates across every listable source. A key present in
// several sources is attributed to the first, matching Resource.
func (c *Composite) List(pattern string) ([]Entry, error) {
	index := make(map[string]int)
	var entries []Entry

	for _, s := range c.sources {
		lister, ok := s.(Lister)
		if !ok {
			continue
		}

		keys, err := lister.List(pattern)
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			if i, seen := index[key]; seen {
				entries[i].Shadowed = append(entries[i].Shadowed, s.Name())
				continue
			}
			index[key] = len(entries)
			entries = append(entries, Entry{Key: key, Source: s.Name()})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	return entries, nil
}
