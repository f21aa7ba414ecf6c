// Package provider keeps the catalogue of template engines that can back a
// view renderer and picks one when the host does not pin an engine.
//
// Engines register themselves from init, the way database/sql drivers do,
// so linking an engine package is what makes it selectable. Import
// github.com/conneroisu/viewkit/pkg/engine/all to link every engine.
package provider

import (
	"fmt"
	"strings"

	"github.com/conneroisu/viewkit/pkg/engine"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
)

// Kind identifies one supported engine. Kinds are totally ordered by
// priority: a lower Kind wins automatic selection.
type Kind int

const (
	KindMustache Kind = iota + 1
	KindPongo2
	KindHTML
	KindHCL
)

// Kinds lists every supported engine in priority order.
var Kinds = []Kind{KindMustache, KindPongo2, KindHTML, KindHCL}

var kindNames = map[Kind]string{
	KindMustache: "mustache",
	KindPongo2:   "pongo2",
	KindHTML:     "html",
	KindHCL:      "hcl",
}

// String returns the provider name for k.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Priority returns the selection rank of k. Lower ranks are preferred.
func (k Kind) Priority() int {
	return int(k) * 10
}

// Valid reports whether k is a supported engine.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]

	return ok
}

// ParseKind returns the Kind named s, ignoring case and surrounding space.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if kindNames[k] == name {
			return k, nil
		}
	}

	return 0, viewerrors.UnknownProvider(s, Names())
}

// Names returns every supported engine name in priority order.
func Names() []string {
	names := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		names = append(names, k.String())
	}

	return names
}

// Factory builds an adapter reading through l.
type Factory func(l *loader.Loader) (engine.Adapter, error)

// Provider describes one installable engine.
type Provider struct {
	Kind Kind
	// Strategy names how the engine discovers partials.
	Strategy string
	// Probe reports whether the engine works in this process. A nil Probe
	// always succeeds.
	Probe func() error
	// New builds the adapter.
	New Factory
}

// Name returns the provider name.
func (p Provider) Name() string {
	return p.Kind.String()
}

// Priority returns the provider's selection rank.
func (p Provider) Priority() int {
	return p.Kind.Priority()
}

// probe runs the availability check, turning a panic into an error.
func (p Provider) probe() (err error) {
	if p.Probe == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()

	return p.Probe()
}
