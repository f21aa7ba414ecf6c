package mustache

import (
	"github.com/conneroisu/viewkit/pkg/engine"
	"github.com/conneroisu/viewkit/pkg/loader"
	"github.com/conneroisu/viewkit/pkg/provider"
)

func init() {
	provider.Register(provider.Provider{
		Kind:     provider.KindMustache,
		Strategy: "snapshot",
		Probe:    Probe,
		New: func(l *loader.Loader) (engine.Adapter, error) {
			return New(l), nil
		},
	})
}
