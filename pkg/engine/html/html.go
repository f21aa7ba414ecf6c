// Package html adapts the standard html/template engine to the engine
// contract.
//
// html/template has no loader hook: every template must be parsed into the
// set before the first execution. The adapter therefore loads the root
// source eagerly, then walks the parse trees for {{template "name"}}
// references that the set does not define yet and loads each of them
// through the compile scope, repeating until the set is closed. Because the
// walk happens inside the scope, temporary aliases apply at every depth.
package html

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"
	"text/template/parse"

	"github.com/conneroisu/viewkit/pkg/engine"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
)

// Name is the provider name of this engine.
const Name = "html"

// Adapter compiles html/template templates through a shared loader.
type Adapter struct {
	engine.Base
	funcs template.FuncMap
}

var _ engine.Adapter = (*Adapter)(nil)

// Option configures the adapter.
type Option func(*Adapter)

// WithFuncs registers template functions available to every template.
func WithFuncs(funcs template.FuncMap) Option {
	return func(a *Adapter) {
		for name, fn := range funcs {
			a.funcs[name] = fn
		}
	}
}

// New returns an adapter reading through l.
func New(l *loader.Loader, opts ...Option) *Adapter {
	a := &Adapter{
		Base:  engine.NewBase(l),
		funcs: template.FuncMap{},
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
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

	root, err := template.New(name).Funcs(a.funcs).Parse(content)
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]bool)
	for {
		missing := undefined(root)
		if len(missing) == 0 {
			break
		}

		for _, ref := range missing {
			if loaded[ref] {
				return nil, viewerrors.TemplateCompilation(ref, scope.Resolve(ref),
					fmt.Errorf("template %q is still undefined after loading", ref))
			}
			loaded[ref] = true

			src, refLocation, err := loader.ReadString(scope, ref)
			if err != nil {
				return nil, err
			}
			if _, err := root.New(ref).Parse(src); err != nil {
				return nil, viewerrors.TemplateCompilation(ref, refLocation, err)
			}
		}
	}

	return &htmlTemplate{name: name, location: location, tmpl: root}, nil
}

// undefined returns, sorted, the template names referenced somewhere in the
// set that the set does not define.
func undefined(root *template.Template) []string {
	refs := make(map[string]struct{})
	for _, t := range root.Templates() {
		if t.Tree == nil {
			continue
		}
		references(t.Tree.Root, refs)
	}

	var missing []string
	for ref := range refs {
		if t := root.Lookup(ref); t == nil || t.Tree == nil {
			missing = append(missing, ref)
		}
	}
	sort.Strings(missing)

	return missing
}

func references(node parse.Node, refs map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			references(child, refs)
		}
	case *parse.TemplateNode:
		refs[n.Name] = struct{}{}
	case *parse.IfNode:
		references(n.List, refs)
		references(n.ElseList, refs)
	case *parse.RangeNode:
		references(n.List, refs)
		references(n.ElseList, refs)
	case *parse.WithNode:
		references(n.List, refs)
		references(n.ElseList, refs)
	}
}

type htmlTemplate struct {
	name     string
	location string
	tmpl     *template.Template
}

func (t *htmlTemplate) Name() string     { return t.name }
func (t *htmlTemplate) Location() string { return t.location }

// Execute renders into a buffer first so a failed render writes nothing.
func (t *htmlTemplate) Execute(w io.Writer, model any) error {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, model); err != nil {
		return err
	}

	_, err := buf.WriteTo(w)

	return err
}

// Probe checks the engine can parse and execute a trivial template.
func Probe() error {
	tmpl, err := template.New("probe").Parse(`{{if .}}ok{{end}}`)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, true); err != nil {
		return err
	}
	if buf.String() != "ok" {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError, "html probe rendered "+buf.String(), nil)
	}

	return nil
}
