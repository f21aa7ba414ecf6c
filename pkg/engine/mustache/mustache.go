// Package mustache adapts github.com/cbroglie/mustache to the engine
// contract.
//
// The engine asks a PartialProvider for partial sources, but only while
// rendering. To keep compiled templates independent of the scope they were
// compiled in, the adapter walks the parsed tag tree at compile time and
// snapshots every reachable partial through the scope. Rendering then reads
// from the snapshot.
package mustache

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cbroglie/mustache"

	"github.com/conneroisu/viewkit/pkg/engine"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
)

// Name is the provider name of this engine.
const Name = "mustache"

// Adapter compiles mustache templates through a shared loader.
type Adapter struct {
	engine.Base
}

var _ engine.Adapter = (*Adapter)(nil)

// New returns an adapter reading through l.
func New(l *loader.Loader) *Adapter {
	return &Adapter{Base: engine.NewBase(l)}
}

// Name returns the provider name.
func (a *Adapter) Name() string { return Name }

// Compile compiles name using permanent aliases.
func (a *Adapter) Compile(name string) (engine.Template, error) {
	return a.CompileWithAliases(name, nil)
}

// CompileWithAliases compiles name with overrides as temporary aliases.
func (a *Adapter) CompileWithAliases(name string, overrides map[string]string) (engine.Template, error) {
	return engine.Compile(a.Loader(), name, overrides, a.compile)
}

func (a *Adapter) compile(scope *loader.Scope, name string) (engine.Template, error) {
	content, location, err := loader.ReadString(scope, name)
	if err != nil {
		return nil, err
	}

	partials := &snapshot{
		sources:  make(map[string]string),
		parsed:   make(map[string]*mustache.Template),
		fallback: a.Loader(),
	}

	tmpl, err := mustache.ParseStringPartials(content, partials)
	if err != nil {
		return nil, err
	}

	if err := partials.collect(scope, tmpl.Tags()); err != nil {
		return nil, err
	}
	if err := partials.checkCycles(name, tmpl.Tags()); err != nil {
		return nil, err
	}

	return &template{name: name, location: location, tmpl: tmpl}, nil
}

// snapshot is the PartialProvider handed to the engine. It is filled while
// compiling and only read afterwards.
type snapshot struct {
	mu       sync.RWMutex
	sources  map[string]string
	parsed   map[string]*mustache.Template
	fallback loader.Getter
}

var _ mustache.PartialProvider = (*snapshot)(nil)

// Get returns the snapshotted source for name. Partials that were not seen
// at compile time, such as those produced by lambdas, are read through the
// loader with permanent aliases.
func (s *snapshot) Get(name string) (string, error) {
	s.mu.RLock()
	content, ok := s.sources[name]
	s.mu.RUnlock()

	if ok {
		return content, nil
	}

	content, _, err := loader.ReadString(s.fallback, name)

	return content, err
}

// collect loads every partial reachable from tags through scope. Each
// partial is parsed once to find the partials it references; recursive
// partials terminate because a name is only loaded the first time it is
// seen.
func (s *snapshot) collect(scope loader.Getter, tags []mustache.Tag) error {
	for _, tag := range tags {
		switch tag.Type() {
		case mustache.Section, mustache.InvertedSection:
			if err := s.collect(scope, tag.Tags()); err != nil {
				return err
			}
		case mustache.Partial:
			if err := s.load(scope, tag.Name()); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *snapshot) load(scope loader.Getter, name string) error {
	s.mu.RLock()
	_, seen := s.sources[name]
	s.mu.RUnlock()

	if seen {
		return nil
	}

	content, _, err := loader.ReadString(scope, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sources[name] = content
	s.mu.Unlock()

	partial, err := mustache.ParseStringPartials(content, s)
	if err != nil {
		return viewerrors.TemplateCompilation(name, scope.Resolve(name), err)
	}

	s.mu.Lock()
	s.parsed[name] = partial
	s.mu.Unlock()

	return s.collect(scope, partial.Tags())
}

// checkCycles rejects a partial that reaches itself without passing through
// a section. Rendering such a template never terminates.
func (s *snapshot) checkCycles(root string, tags []mustache.Tag) error {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{root: visiting}

	var visit func(path []string, tags []mustache.Tag) error
	visit = func(path []string, tags []mustache.Tag) error {
		for _, name := range unconditional(tags) {
			switch state[name] {
			case visiting:
				return fmt.Errorf("partial %q includes itself unconditionally: %s",
					name, strings.Join(append(path, name), " -> "))
			case done:
				continue
			}

			s.mu.RLock()
			partial, ok := s.parsed[name]
			s.mu.RUnlock()
			if !ok {
				continue
			}

			state[name] = visiting
			if err := visit(append(path, name), partial.Tags()); err != nil {
				return err
			}
			state[name] = done
		}

		return nil
	}

	return visit([]string{root}, tags)
}

// unconditional returns the partials included outside every section.
func unconditional(tags []mustache.Tag) []string {
	var names []string
	for _, tag := range tags {
		if tag.Type() == mustache.Partial {
			names = append(names, tag.Name())
		}
	}

	return names
}

type template struct {
	name     string
	location string
	tmpl     *mustache.Template
}

func (t *template) Name() string     { return t.name }
func (t *template) Location() string { return t.location }

func (t *template) Execute(w io.Writer, model any) error {
	if model == nil {
		return t.tmpl.FRender(w)
	}

	return t.tmpl.FRender(w, model)
}

// Probe checks the engine can parse and render a trivial template.
func Probe() error {
	tmpl, err := mustache.ParseString(`{{#ok}}ok{{/ok}}`)
	if err != nil {
		return err
	}

	out, err := tmpl.Render(map[string]any{"ok": true})
	if err != nil {
		return err
	}
	if out != "ok" {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError, "mustache probe rendered "+out, nil)
	}

	return nil
}
