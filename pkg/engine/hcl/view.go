package hcl

import (
	"sort"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
)

// partial is one parsed partial template.
type partial struct {
	name     string
	location string
	expr     hclsyntax.Expression
}

// PartialView exposes templates to scripts as a read-only name to template
// mapping. Each name is loaded on first access and cached for the lifetime
// of the view; writes are rejected.
type PartialView struct {
	mu     sync.Mutex
	getter loader.Getter
	cache  map[string]*partial
}

// NewPartialView returns a view reading through getter.
func NewPartialView(getter loader.Getter) *PartialView {
	return &PartialView{
		getter: getter,
		cache:  make(map[string]*partial),
	}
}

// Get returns the parsed partial for name, loading it on first access.
func (v *PartialView) Get(name string) (*partial, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if p, ok := v.cache[name]; ok {
		return p, nil
	}

	content, location, err := loader.ReadString(v.getter, name)
	if err != nil {
		return nil, err
	}

	expr, diags := hclsyntax.ParseTemplate([]byte(content), location, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, viewerrors.TemplateCompilation(name, location, diags)
	}

	p := &partial{name: name, location: location, expr: expr}
	v.cache[name] = p

	return p, nil
}

// Set always fails: the view is immutable.
func (v *PartialView) Set(name, _ string) error {
	return viewerrors.ReadOnly("partial view").WithName(name)
}

// Delete always fails: the view is immutable.
func (v *PartialView) Delete(name string) error {
	return viewerrors.ReadOnly("partial view").WithName(name)
}

// Has reports whether name has been loaded.
func (v *PartialView) Has(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.cache[name]

	return ok
}

// Keys returns the loaded partial names, sorted.
func (v *PartialView) Keys() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	keys := make([]string, 0, len(v.cache))
	for k := range v.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// rebind switches the source of future loads. Already cached partials are
// kept.
func (v *PartialView) rebind(getter loader.Getter) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.getter = getter
}
