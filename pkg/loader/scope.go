package loader

import (
	"io"
	"maps"
)

// Scope carries temporary partial aliases for one unit of work, typically a
// single compile. Temporary aliases shadow permanent ones for lookups made
// through the scope and are invisible to every other scope and to the
// Loader itself.
//
// A Scope belongs to the goroutine that created it and must not be shared.
type Scope struct {
	loader    *Loader
	temporary map[string]string
	closed    bool
}

// Loader returns the loader the scope was created from.
func (s *Scope) Loader() *Loader {
	return s.loader
}

// AddTemporaryPartialAliases merges aliases into this scope's temporary
// map, allocating it on first use.
func (s *Scope) AddTemporaryPartialAliases(aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}
	if s.temporary == nil {
		s.temporary = make(map[string]string, len(aliases))
	}

	maps.Copy(s.temporary, aliases)
}

// RemoveTemporaryPartialAliases clears this scope's temporary aliases.
func (s *Scope) RemoveTemporaryPartialAliases() {
	s.temporary = nil
}

// TemporaryPartialAliases returns a copy of this scope's temporary aliases.
func (s *Scope) TemporaryPartialAliases() map[string]string {
	return maps.Clone(s.temporary)
}

// Close releases the scope. It is safe to call more than once.
func (s *Scope) Close() error {
	s.RemoveTemporaryPartialAliases()
	s.closed = true

	return nil
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	return s.closed
}

// Resolve returns the resolved location for name, honouring temporary
// aliases.
func (s *Scope) Resolve(name string) string {
	return s.loader.resolver.resolve(name, s.temporary)
}

// GetTemplate opens the template for name, honouring temporary aliases.
func (s *Scope) GetTemplate(name string) (io.ReadCloser, error) {
	return s.loader.open(s.Resolve(name))
}
