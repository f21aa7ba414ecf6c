// Package docs describes how the viewkit packages fit together.
//
// viewkit renders named templates. A logical name such as "header" goes
// through three steps before an engine sees it:
//
//  1. Alias lookup. Temporary aliases installed for one render are checked
//     first, then the permanent aliases of the loader.
//  2. Decoration. The loader prefix and suffix are added, so "header"
//     becomes "partials/header.mustache".
//  3. Lookup. The resolved location is asked of each resource source in
//     order; the first one holding it wins.
//
// # Packages
//
//   - resource: Sources and resources, including the first-match Composite
//   - loader: Name resolution with prefix, suffix and aliases
//   - engine: The Adapter interface and the mustache, pongo2, html and hcl
//     adapters
//   - provider: Engine registration and priority based selection
//   - view: Rendering with layouts, per-call aliases and a compiled
//     template cache
//   - errors: Not found, IO, compilation and no provider errors
//
// # Quick Start
//
//	l := loader.New(resource.NewDirSource("templates"),
//		loader.WithSuffix(".mustache"),
//		loader.WithAliases(map[string]string{"header": "partials/header"}))
//
//	p, err := provider.Default.Select()
//	if err != nil {
//		return err
//	}
//	adapter, err := p.New(l)
//	if err != nil {
//		return err
//	}
//
//	r := view.New(adapter, view.WithDefaultLayout("layout", "content"))
//	out, err := r.RenderString(ctx, "page", map[string]any{"title": "Hello"})
//
// Engines register themselves from init. Import
// github.com/conneroisu/viewkit/pkg/engine/all, or a single engine
// package, to link them in.
//
// # Command Line
//
//	viewkit render page --model '{"title":"Hello"}'
//	viewkit resolve header --alias header=partials/alt
//	viewkit list 'partials/**'
//	viewkit providers
//	viewkit watch page --out public/index.html
package docs
