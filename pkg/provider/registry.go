package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
)

// State is the outcome of probing one provider.
type State int

const (
	StateUnprobed State = iota
	StateProbing
	StateAvailable
	StateUnavailable
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnprobed:
		return "unprobed"
	case StateProbing:
		return "probing"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Status is the result of probing one kind.
type Status struct {
	Kind       Kind
	Registered bool
	State      State
	Err        error
}

// ErrNotLinked is the probe error for kinds no package registered.
var ErrNotLinked = fmt.Errorf("engine package not linked")

// Registry holds the registered providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[Kind]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Kind]Provider)}
}

// Default is the registry engine packages register with.
var Default = NewRegistry()

// Register adds p to the Default registry. It panics if p is invalid or
// its kind is already registered.
func Register(p Provider) {
	if err := Default.Register(p); err != nil {
		panic(err)
	}
}

// Register adds p to the registry.
func (r *Registry) Register(p Provider) error {
	if !p.Kind.Valid() {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError,
			fmt.Sprintf("provider: invalid kind %d", int(p.Kind)), nil)
	}
	if p.New == nil {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError,
			"provider: "+p.Name()+" has no factory", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Kind]; exists {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError,
			"provider: "+p.Name()+" registered twice", nil)
	}
	r.providers[p.Kind] = p

	return nil
}

// List returns the registered providers ordered by priority.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})

	return out
}

// Get returns the provider registered for k.
func (r *Registry) Get(k Kind) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[k]

	return p, ok
}

// IsAvailable reports whether k is registered and its probe succeeds. The
// probe runs on every call.
func (r *Registry) IsAvailable(k Kind) bool {
	return r.Probe(k).State == StateAvailable
}

// Probe checks one kind.
func (r *Registry) Probe(k Kind) Status {
	p, ok := r.Get(k)
	if !ok {
		return Status{Kind: k, State: StateUnavailable, Err: ErrNotLinked}
	}

	status := Status{Kind: k, Registered: true, State: StateProbing}
	if err := p.probe(); err != nil {
		status.State = StateUnavailable
		status.Err = err

		return status
	}
	status.State = StateAvailable

	return status
}

// Statuses probes every supported kind in priority order.
func (r *Registry) Statuses() []Status {
	out := make([]Status, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, r.Probe(k))
	}

	return out
}

// Select returns the highest priority provider whose probe succeeds. When
// none does, the error names every kind tried and aggregates their probe
// failures.
func (r *Registry) Select() (Provider, error) {
	var (
		tried []string
		errs  *multierror.Error
	)

	for _, k := range Kinds {
		tried = append(tried, k.String())

		status := r.Probe(k)
		if status.State == StateAvailable {
			p, _ := r.Get(k)

			return p, nil
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", k, status.Err))
	}

	return Provider{}, viewerrors.NoProviderAvailable(tried, errs.ErrorOrNil())
}

// SelectNamed returns the provider called name, or runs Select when name is
// empty or "auto". A pinned provider must be registered and pass its probe.
func (r *Registry) SelectNamed(name string) (Provider, error) {
	if name == "" || name == "auto" {
		return r.Select()
	}

	k, err := ParseKind(name)
	if err != nil {
		return Provider{}, err
	}

	status := r.Probe(k)
	if status.State != StateAvailable {
		return Provider{}, viewerrors.NoProviderAvailable([]string{k.String()}, status.Err)
	}

	p, _ := r.Get(k)

	return p, nil
}
