// Package cmd provides the command-line interface for viewkit.
//
// # Available Commands
//
//   - render: Render a view with a model, layout and temporary aliases
//   - resolve: Show the location and directory a name resolves to
//   - list: List templates across directories, including shadowed copies
//   - providers: Probe the template engines and show the selected one
//   - watch: Re-render a view when templates change
//   - version: Show build information
//
// # Command Examples
//
//	// Render a page with an inline model
//	viewkit render page --model '{"title":"Hello"}'
//
//	// Swap a partial for one render only
//	viewkit render page --alias header=partials/alt-header
//
//	// Pin an engine and template directories
//	viewkit render page --engine pongo2 --source ./overrides --source ./templates
package cmd
