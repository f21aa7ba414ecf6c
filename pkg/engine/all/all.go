// Package all links every bundled template engine into the provider
// registry.
package all

import (
	_ "github.com/conneroisu/viewkit/pkg/engine/hcl"
	_ "github.com/conneroisu/viewkit/pkg/engine/html"
	_ "github.com/conneroisu/viewkit/pkg/engine/mustache"
	_ "github.com/conneroisu/viewkit/pkg/engine/pongo2"
)
