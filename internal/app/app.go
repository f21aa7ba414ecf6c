// Package app wires the configured template sources, loader, engine and
// renderer together for the viewkit command.
package app

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/conneroisu/viewkit/internal/config"
	"github.com/conneroisu/viewkit/internal/logging"
	"github.com/conneroisu/viewkit/pkg/engine"
	_ "github.com/conneroisu/viewkit/pkg/engine/all"
	"github.com/conneroisu/viewkit/pkg/loader"
	"github.com/conneroisu/viewkit/pkg/provider"
	"github.com/conneroisu/viewkit/pkg/resource"
	"github.com/conneroisu/viewkit/pkg/view"
)

// DefaultSuffixes is the template suffix used for each engine when the
// configuration does not set one.
var DefaultSuffixes = map[provider.Kind]string{
	provider.KindMustache: ".mustache",
	provider.KindPongo2:   ".html",
	provider.KindHTML:     ".tmpl",
	provider.KindHCL:      ".hcltpl",
}

// App holds the services built from one configuration.
type App struct {
	Config   *config.Config
	Logger   logging.Logger
	Fs       afero.Fs
	Sources  *resource.Composite
	Loader   *loader.Loader
	Provider provider.Provider
	Adapter  engine.Adapter
	Renderer *view.Renderer
}

type options struct {
	fs       afero.Fs
	registry *provider.Registry
	logger   logging.Logger
}

// Option customises how an App is built.
type Option func(*options)

// WithFs reads template directories from fsys instead of the local disk.
func WithFs(fsys afero.Fs) Option {
	return func(o *options) { o.fs = fsys }
}

// WithRegistry selects engines from r instead of provider.Default.
func WithRegistry(r *provider.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger shared by every service.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds the services described by cfg. It fails when no engine is
// available.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{
		fs:       afero.NewReadOnlyFs(afero.NewOsFs()),
		registry: provider.Default,
		logger:   logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.WithComponent("app")

	sources := make([]resource.Source, 0, len(cfg.Templates.Sources))
	for _, dir := range cfg.Templates.Sources {
		if ok, err := afero.DirExists(o.fs, dir); err != nil || !ok {
			logger.Warn(ctx, err, "template source is not a directory", "source", dir)
		}
		sources = append(sources, resource.NewFileSource(dir, o.fs, dir))
	}
	composite := resource.NewComposite(sources...)

	p, err := o.registry.SelectNamed(cfg.Templates.Engine)
	if err != nil {
		logger.Error(ctx, err, "no template engine available", "engine", cfg.Templates.Engine)
		return nil, err
	}

	suffix := cfg.Templates.Suffix
	if suffix == "" {
		suffix = DefaultSuffixes[p.Kind]
	}

	l := loader.New(composite,
		loader.WithPrefix(cfg.Templates.Prefix),
		loader.WithSuffix(suffix),
		loader.WithAliases(cfg.Templates.Aliases),
	)

	adapter, err := p.New(l)
	if err != nil {
		return nil, fmt.Errorf("create %s adapter: %w", p.Name(), err)
	}

	renderer := view.New(adapter,
		view.WithLogger(o.logger.WithComponent("view")),
		view.WithCache(cfg.Templates.Cache),
		view.WithDefaultLayout(cfg.Templates.Layout.Name, cfg.Templates.Layout.ContentKey),
	)

	logger.Debug(ctx, "application wired",
		"engine", p.Name(),
		"sources", len(sources),
		"prefix", l.Prefix(),
		"suffix", l.Suffix(),
		"cache", cfg.Templates.Cache)

	return &App{
		Config:   cfg,
		Logger:   o.logger,
		Fs:       o.fs,
		Sources:  composite,
		Loader:   l,
		Provider: p,
		Adapter:  adapter,
		Renderer: renderer,
	}, nil
}

// Render renders the view called name to a string.
func (a *App) Render(ctx context.Context, name string, model any, opts ...view.RenderOption) (string, error) {
	perf := logging.StartOperation(a.Logger, "render")

	out, err := a.Renderer.RenderString(ctx, name, model, opts...)
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", err
	}
	perf.End(ctx)

	return out, nil
}

// Resolution describes where a logical name resolves to.
type Resolution struct {
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location" yaml:"location"`
	Exists   bool   `json:"exists" yaml:"exists"`
	Resource string `json:"resource" yaml:"resource"`
}

// Resolve reports the location name resolves to and the resource serving
// it, with overrides installed as temporary aliases.
func (a *App) Resolve(name string, overrides map[string]string) Resolution {
	var res Resolution

	_ = a.Loader.WithTemporaryAliases(overrides, func(scope *loader.Scope) error {
		location := scope.Resolve(name)
		r := a.Sources.Resource(location)
		res = Resolution{
			Name:     name,
			Location: location,
			Exists:   r.Exists(),
			Resource: r.Description(),
		}

		return nil
	})

	return res
}
