// Package pongo2 adapts github.com/flosch/pongo2 to the engine contract.
//
// pongo2 accepts a pluggable TemplateLoader, so the adapter hands it a
// loader bound to the compile scope. Static {% include %}, {% extends %} and
// {% import %} tags are resolved while parsing, which means temporary
// aliases apply at every nesting level. Includes whose name is computed at
// render time resolve after the scope is released and see permanent aliases
// only.
package pongo2

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/conneroisu/viewkit/pkg/engine"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
)

// Name is the provider name of this engine.
const Name = "pongo2"

// Adapter compiles pongo2 templates through a shared loader.
type Adapter struct {
	engine.Base
	globals pongo2.Context
}

var _ engine.Adapter = (*Adapter)(nil)

// Option configures the adapter before construction.
type Option func(*Adapter)

// WithGlobals seeds values visible to every template.
func WithGlobals(globals map[string]any) Option {
	return func(a *Adapter) {
		for key, value := range globals {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			a.globals[key] = value
		}
	}
}

// New returns an adapter reading through l.
func New(l *loader.Loader, opts ...Option) *Adapter {
	a := &Adapter{
		Base:    engine.NewBase(l),
		globals: make(pongo2.Context),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
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
	tl := &templateLoader{getter: scope}
	set := pongo2.NewSet("viewkit", tl)
	set.Globals.Update(a.globals)

	tpl, err := set.FromFile(name)
	if err != nil {
		return nil, tl.cause(err)
	}

	// Render-time includes run after the scope is gone.
	tl.release(a.Loader())

	return &template{
		name:     name,
		location: scope.Resolve(name),
		tpl:      tpl,
	}, nil
}

// templateLoader implements pongo2.TemplateLoader over a loader.Getter and
// remembers why lookups failed, since pongo2 reports every miss as the same
// opaque error.
type templateLoader struct {
	mu     sync.Mutex
	getter loader.Getter
	failed map[string]error
}

var _ pongo2.TemplateLoader = (*templateLoader)(nil)

// Abs returns name unchanged: include paths are logical names.
func (l *templateLoader) Abs(_, name string) string {
	return name
}

// Get reads the template name resolves to.
func (l *templateLoader) Get(name string) (io.Reader, error) {
	l.mu.Lock()
	getter := l.getter
	l.mu.Unlock()

	content, _, err := loader.ReadString(getter, name)
	if err != nil {
		l.mu.Lock()
		if l.failed == nil {
			l.failed = make(map[string]error)
		}
		l.failed[name] = err
		l.mu.Unlock()

		return nil, err
	}

	return strings.NewReader(content), nil
}

func (l *templateLoader) release(to loader.Getter) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.getter = to
	l.failed = nil
}

// cause maps a pongo2 error back to the loader failure behind it, if any.
func (l *templateLoader) cause(err error) error {
	var perr *pongo2.Error
	if !errors.As(err, &perr) || perr.Sender != "fromfile" {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if failed, ok := l.failed[perr.Filename]; ok {
		return failed
	}

	return err
}

type template struct {
	name     string
	location string
	tpl      *pongo2.Template
}

func (t *template) Name() string     { return t.name }
func (t *template) Location() string { return t.location }

// Execute renders the template. Output is buffered by pongo2, so nothing is
// written to w when rendering fails.
func (t *template) Execute(w io.Writer, model any) error {
	ctx, err := toContext(model)
	if err != nil {
		return err
	}

	return t.tpl.ExecuteWriter(ctx, w)
}

func toContext(model any) (pongo2.Context, error) {
	switch v := model.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	case map[string]any:
		return pongo2.Context(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out := map[string]any{}
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}

		return pongo2.Context(integers(out).(map[string]any)), nil
	}
}

// integers turns whole JSON numbers back into ints so they print without a
// fractional part.
func integers(v any) any {
	switch v := v.(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	case map[string]any:
		for key, value := range v {
			v[key] = integers(value)
		}
		return v
	case []any:
		for i, value := range v {
			v[i] = integers(value)
		}
		return v
	default:
		return v
	}
}

// Probe checks the engine can parse and execute a trivial template.
func Probe() error {
	set := pongo2.NewSet("probe", &templateLoader{getter: probeGetter{}})

	tpl, err := set.FromString(`{% if ok %}ok{% endif %}`)
	if err != nil {
		return err
	}
	out, err := tpl.Execute(pongo2.Context{"ok": true})
	if err != nil {
		return err
	}
	if out != "ok" {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError, "pongo2 probe rendered "+out, nil)
	}

	return nil
}

type probeGetter struct{}

func (probeGetter) Resolve(name string) string { return name }

func (probeGetter) GetTemplate(name string) (io.ReadCloser, error) {
	return nil, viewerrors.TemplateNotFound(name)
}
