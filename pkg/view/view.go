// Package view renders named templates through one engine adapter.
//
// A Renderer adds what hosts usually want on top of an adapter: layout
// inheritance through a temporary "content" alias, an optional compiled
// template cache, buffered output and templ.Component interop.
package view

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/viewkit/pkg/engine"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
)

// DefaultContentKey is the alias a layout includes to render the page body.
const DefaultContentKey = "content"

// Logger is the subset of a structured logger the renderer uses.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...interface{})        {}
func (nopLogger) Error(context.Context, error, string, ...interface{}) {}

// Layout names a template that wraps every rendered view.
type Layout struct {
	// Name is the logical name of the layout template. Empty disables
	// layouts.
	Name string
	// ContentKey is the partial name the layout includes to render the view.
	ContentKey string
}

// Renderer renders views. It is safe for concurrent use.
type Renderer struct {
	adapter engine.Adapter
	logger  Logger
	layout  Layout
	caching bool

	mu    sync.RWMutex
	cache map[string]engine.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for compile and render diagnostics.
func WithLogger(logger Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultLayout wraps every view in the layout called name. An empty
// contentKey means DefaultContentKey.
func WithDefaultLayout(name, contentKey string) Option {
	return func(r *Renderer) {
		if contentKey == "" {
			contentKey = DefaultContentKey
		}
		r.layout = Layout{Name: name, ContentKey: contentKey}
	}
}

// WithCache keeps compiled templates until Invalidate is called.
func WithCache(enabled bool) Option {
	return func(r *Renderer) {
		r.caching = enabled
	}
}

// New returns a renderer over adapter.
func New(adapter engine.Adapter, opts ...Option) *Renderer {
	r := &Renderer{
		adapter: adapter,
		logger:  nopLogger{},
		layout:  Layout{ContentKey: DefaultContentKey},
		cache:   make(map[string]engine.Template),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Adapter returns the adapter views are compiled with.
func (r *Renderer) Adapter() engine.Adapter { return r.adapter }

// Layout returns the default layout.
func (r *Renderer) Layout() Layout { return r.layout }

// renderOptions holds per-call settings.
type renderOptions struct {
	aliases map[string]string
	layout  string
}

// RenderOption adjusts a single Render call.
type RenderOption func(*renderOptions)

// WithAliases installs aliases as temporary partial aliases for this call.
func WithAliases(aliases map[string]string) RenderOption {
	return func(o *renderOptions) {
		if len(aliases) == 0 {
			return
		}
		if o.aliases == nil {
			o.aliases = make(map[string]string, len(aliases))
		}
		for from, to := range aliases {
			o.aliases[from] = to
		}
	}
}

// WithLayout wraps this call's view in the layout called name.
func WithLayout(name string) RenderOption {
	return func(o *renderOptions) { o.layout = name }
}

// WithoutLayout renders the view on its own.
func WithoutLayout() RenderOption {
	return WithLayout("")
}

// plan returns the template to compile and its temporary aliases.
func (r *Renderer) plan(name string, opts []RenderOption) (string, map[string]string) {
	o := renderOptions{layout: r.layout.Name}
	for _, opt := range opts {
		opt(&o)
	}

	if o.layout == "" || o.layout == name {
		return name, o.aliases
	}

	overrides := make(map[string]string, len(o.aliases)+1)
	for from, to := range o.aliases {
		overrides[from] = to
	}
	overrides[r.layout.ContentKey] = name

	return o.layout, overrides
}

// Compile returns the compiled template for name under overrides, from the
// cache when caching is enabled.
func (r *Renderer) Compile(ctx context.Context, name string, overrides map[string]string) (engine.Template, error) {
	if !r.caching {
		return r.compile(ctx, name, overrides)
	}

	key := r.cacheKey(name, overrides)

	r.mu.RLock()
	tpl, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	tpl, err := r.compile(ctx, name, overrides)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		tpl = cached
	} else {
		r.cache[key] = tpl
	}
	r.mu.Unlock()

	return tpl, nil
}

func (r *Renderer) compile(ctx context.Context, name string, overrides map[string]string) (engine.Template, error) {
	start := time.Now()

	tpl, err := r.adapter.CompileWithAliases(name, overrides)
	if err != nil {
		r.logger.Error(ctx, err, "compile failed", "template", name, "engine", r.adapter.Name())
		return nil, err
	}

	r.logger.Debug(ctx, "compiled template",
		"template", name,
		"location", tpl.Location(),
		"engine", r.adapter.Name(),
		"duration", time.Since(start))

	return tpl, nil
}

// cacheKey identifies a compile by name, overrides and decoration, since a
// prefix or suffix change makes the same name resolve elsewhere.
func (r *Renderer) cacheKey(name string, overrides map[string]string) string {
	var b strings.Builder
	b.WriteString(r.adapter.Prefix())
	b.WriteByte(0)
	b.WriteString(r.adapter.Suffix())
	b.WriteByte(0)
	b.WriteString(name)

	keys := make([]string, 0, len(overrides))
	for from := range overrides {
		keys = append(keys, from)
	}
	sort.Strings(keys)
	for _, from := range keys {
		b.WriteByte(0)
		b.WriteString(from)
		b.WriteByte('=')
		b.WriteString(overrides[from])
	}

	return b.String()
}

// Invalidate drops every cached template.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.cache)
}

// Cached returns the number of cached templates.
func (r *Renderer) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.cache)
}

// Render compiles the view called name and executes it with model. Output
// reaches w only when rendering succeeds.
func (r *Renderer) Render(ctx context.Context, w io.Writer, name string, model any, opts ...RenderOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	root, overrides := r.plan(name, opts)

	tpl, err := r.Compile(ctx, root, overrides)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()

	var buf bytes.Buffer
	if err := r.adapter.Execute(tpl, model, &buf); err != nil {
		r.logger.Error(ctx, err, "render failed", "template", name)
		return err
	}

	n, err := buf.WriteTo(w)
	if err != nil {
		return viewerrors.Render(name, err)
	}

	r.logger.Debug(ctx, "rendered template",
		"template", name,
		"root", root,
		"bytes", n,
		"duration", time.Since(start))

	return nil
}

// RenderString renders the view called name and returns the output.
func (r *Renderer) RenderString(ctx context.Context, name string, model any, opts ...RenderOption) (string, error) {
	var b strings.Builder
	if err := r.Render(ctx, &b, name, model, opts...); err != nil {
		return "", err
	}

	return b.String(), nil
}

// Component returns the view as a templ component.
func (r *Renderer) Component(name string, model any, opts ...RenderOption) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return r.Render(ctx, w, name, model, opts...)
	})
}
