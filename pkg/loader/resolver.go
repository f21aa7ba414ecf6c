package loader

import (
	"maps"
	"strings"
	"sync"
	"sync/atomic"
)

// Decoration is the prefix/suffix convention applied to every lookup. An
// empty side leaves names undecorated on that side.
type Decoration struct {
	Prefix string
	Suffix string
}

// Apply decorates name, adding each side only when it is not already there.
func (d Decoration) Apply(name string) string {
	if d.Prefix != "" && !strings.HasPrefix(name, d.Prefix) {
		name = d.Prefix + name
	}
	if d.Suffix != "" && !strings.HasSuffix(name, d.Suffix) {
		name += d.Suffix
	}

	return name
}

// Resolver turns logical names into resolved locations.
//
// The decoration is an immutable snapshot swapped atomically, so readers
// never lock. Permanent aliases are merged under a read/write lock and are
// expected to settle at startup.
type Resolver struct {
	decoration atomic.Pointer[Decoration]

	mu      sync.RWMutex
	aliases map[string]string
}

// NewResolver returns a resolver with the given decoration and no aliases.
func NewResolver(prefix, suffix string) *Resolver {
	r := &Resolver{aliases: make(map[string]string)}
	r.decoration.Store(&Decoration{Prefix: prefix, Suffix: suffix})

	return r
}

// Decoration returns the current prefix/suffix snapshot.
func (r *Resolver) Decoration() Decoration {
	return *r.decoration.Load()
}

// SetPrefix replaces the prefix, keeping the suffix.
func (r *Resolver) SetPrefix(prefix string) {
	r.update(func(d *Decoration) { d.Prefix = prefix })
}

// SetSuffix replaces the suffix, keeping the prefix.
func (r *Resolver) SetSuffix(suffix string) {
	r.update(func(d *Decoration) { d.Suffix = suffix })
}

func (r *Resolver) update(fn func(*Decoration)) {
	for {
		old := r.decoration.Load()
		next := *old
		fn(&next)
		if r.decoration.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Prefix returns the configured prefix.
func (r *Resolver) Prefix() string {
	return r.decoration.Load().Prefix
}

// Suffix returns the configured suffix.
func (r *Resolver) Suffix() string {
	return r.decoration.Load().Suffix
}

// AddAliases merges aliases into the permanent map. Existing keys are
// overwritten; keys not named are kept.
func (r *Resolver) AddAliases(aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	maps.Copy(r.aliases, aliases)
}

// Aliases returns a copy of the permanent alias map.
func (r *Resolver) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.aliases)
}

// Resolve resolves name using permanent aliases only.
func (r *Resolver) Resolve(name string) string {
	return r.resolve(name, nil)
}

// resolve applies one level of alias indirection, temporary aliases first,
// then the decoration. Alias targets are never aliased again.
func (r *Resolver) resolve(name string, temporary map[string]string) string {
	return r.Decoration().Apply(r.alias(name, temporary))
}

func (r *Resolver) alias(name string, temporary map[string]string) string {
	if target, ok := temporary[name]; ok {
		return target
	}

	r.mu.RLock()
	target, ok := r.aliases[name]
	r.mu.RUnlock()

	if ok {
		return target
	}

	return name
}
