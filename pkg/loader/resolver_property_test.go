//go:build property
// +build property

package loader

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestResolverProperties checks the decoration and alias rules for arbitrary
// names.
func TestResolverProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	prefixes := gen.OneConstOf("/templates/", "views/", "/")
	suffixes := gen.OneConstOf(".template.html", ".mustache", ".html")

	// Property: resolved names carry the prefix and suffix exactly once
	properties.Property("no double decoration", prop.ForAll(
		func(name, prefix, suffix string) bool {
			r := NewResolver(prefix, suffix)
			once := r.Resolve(name)
			twice := r.Resolve(prefix + name + suffix)

			return strings.HasPrefix(once, prefix) &&
				strings.HasSuffix(once, suffix) &&
				once == twice
		},
		gen.AlphaString(),
		prefixes,
		suffixes,
	))

	// Property: resolving a resolved name changes nothing
	properties.Property("idempotent", prop.ForAll(
		func(name, prefix, suffix string) bool {
			r := NewResolver(prefix, suffix)
			once := r.Resolve(name)

			return r.Resolve(once) == once
		},
		gen.AlphaString(),
		prefixes,
		suffixes,
	))

	// Property: temporary aliases win inside a scope and vanish after close
	properties.Property("temporary shadows permanent", prop.ForAll(
		func(key, permanent, temporary string) bool {
			l := New(nil, WithPrefix("/t/"), WithAliases(map[string]string{key: permanent}))
			s := l.Scope()
			s.AddTemporaryPartialAliases(map[string]string{key: temporary})

			inside := s.Resolve(key) == "/t/"+temporary
			_ = s.Close()
			after := s.Resolve(key) == "/t/"+permanent

			return inside && after && l.Resolve(key) == "/t/"+permanent
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
