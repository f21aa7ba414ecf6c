// Package internal contains the packages behind the viewkit command.
//
// # Package Organization
//
//   - app: Wires sources, loader, engine and renderer from one configuration
//   - config: Configuration loading with Viper and validation
//   - logging: Structured logging on log/slog
//   - version: Build and version information
//   - watcher: File system monitoring with debouncing
//
// The reusable pieces live under pkg/: resource sources, the name
// resolving loader, engine adapters, the provider registry and the view
// renderer. Nothing under internal/ is needed to embed viewkit in another
// program.
//
// # Inter-Package Communication
//
//   - config produces a Config that app turns into a ready Renderer
//   - app selects the engine through the provider registry
//   - watcher delivers debounced change batches that invalidate the
//     renderer cache
//
// # Testing Strategy
//
// Packages are tested with testify. Filesystem backed tests use an afero
// memory filesystem where possible. Property tests built with gopter run
// under the "property" build tag:
//
//	go test -tags property ./...
package internal
