// Package hcl renders templates written in HCL template syntax, evaluated
// by the HCL expression runtime from github.com/hashicorp/hcl/v2.
//
// Templates reach their partials through a PartialView exposed to the
// script as the partial(name) function. Partials named by a literal string
// are loaded while compiling, inside the compile scope, so temporary aliases
// apply to them at any depth. Partials whose name is computed at render time
// load lazily through the view after the scope has been released.
//
// HCL templates do not escape their output. Use escape() for plain text and
// sanitize() for untrusted HTML.
package hcl

import (
	"encoding/json"
	"fmt"
	"html"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/microcosm-cc/bluemonday"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/conneroisu/viewkit/pkg/engine"
	viewerrors "github.com/conneroisu/viewkit/pkg/errors"
	"github.com/conneroisu/viewkit/pkg/loader"
)

// Name is the provider name of this engine.
const Name = "hcl"

// MaxDepth bounds partial nesting during evaluation.
const MaxDepth = 32

// Adapter compiles HCL templates through a shared loader.
type Adapter struct {
	engine.Base
	policy *bluemonday.Policy
}

var _ engine.Adapter = (*Adapter)(nil)

// New returns an adapter reading through l.
func New(l *loader.Loader) *Adapter {
	return &Adapter{
		Base:   engine.NewBase(l),
		policy: bluemonday.UGCPolicy(),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string { return Name }

// Compile compiles name using permanent aliases.
func (a *Adapter) Compile(name string) (engine.Template, error) {
	return a.CompileWithAliases(name, nil)
}

// CompileWithAliases compiles name with overrides as temporary aliases.
func (a *Adapter) CompileWithAliases(name string, overrides map[string]string) (engine.Template, error) {
	return engine.Compile(a.Loader(), name, overrides, a.compile)
}

func (a *Adapter) compile(scope *loader.Scope, name string) (engine.Template, error) {
	content, location, err := loader.ReadString(scope, name)
	if err != nil {
		return nil, err
	}

	expr, diags := hclsyntax.ParseTemplate([]byte(content), location, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diags
	}

	view := NewPartialView(scope)
	if err := preload(view, expr); err != nil {
		return nil, err
	}
	view.rebind(a.Loader())

	return &template{
		name:     name,
		location: location,
		expr:     expr,
		view:     view,
		policy:   a.policy,
	}, nil
}

// preload loads every partial named by a literal in expr, and recursively
// in those partials.
func preload(view *PartialView, expr hclsyntax.Expression) error {
	for _, name := range staticPartials(expr) {
		if view.Has(name) {
			continue
		}
		p, err := view.Get(name)
		if err != nil {
			return err
		}
		if err := preload(view, p.expr); err != nil {
			return err
		}
	}

	return nil
}

// staticPartials returns the names passed as literals to partial().
func staticPartials(expr hclsyntax.Expression) []string {
	var names []string

	hclsyntax.VisitAll(expr, func(node hclsyntax.Node) hcl.Diagnostics {
		call, ok := node.(*hclsyntax.FunctionCallExpr)
		if !ok || call.Name != "partial" || len(call.Args) == 0 {
			return nil
		}

		v, diags := call.Args[0].Value(nil)
		if diags.HasErrors() || !v.IsKnown() || v.IsNull() || v.Type() != cty.String {
			return nil
		}
		names = append(names, v.AsString())

		return nil
	})

	return names
}

type template struct {
	name     string
	location string
	expr     hclsyntax.Expression
	view     *PartialView
	policy   *bluemonday.Policy
}

func (t *template) Name() string     { return t.name }
func (t *template) Location() string { return t.location }

func (t *template) Execute(w io.Writer, model any) error {
	vars, err := variables(model)
	if err != nil {
		return err
	}

	out, err := t.eval(t.expr, vars, 0)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, out)

	return err
}

func (t *template) eval(expr hclsyntax.Expression, vars map[string]cty.Value, depth int) (string, error) {
	ctx := &hcl.EvalContext{
		Variables: vars,
		Functions: t.functions(vars, depth),
	}

	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return "", diags
	}

	return asString(val)
}

func (t *template) functions(vars map[string]cty.Value, depth int) map[string]function.Function {
	return map[string]function.Function{
		"partial": function.New(&function.Spec{
			Description: "Renders the named partial with the template variables. " +
				"An optional object argument adds or overrides variables, " +
				`as in partial("item", {item = item}) inside a for directive.`,
			Params: []function.Parameter{
				{Name: "name", Type: cty.String},
			},
			VarParam: &function.Parameter{
				Name: "locals",
				Type: cty.DynamicPseudoType,
			},
			Type: function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				if depth+1 > MaxDepth {
					return cty.NilVal, fmt.Errorf("partials nested deeper than %d", MaxDepth)
				}
				if len(args) > 2 {
					return cty.NilVal, fmt.Errorf("partial takes a name and at most one object of variables")
				}
				scope := vars
				if len(args) == 2 {
					var err error
					if scope, err = withLocals(vars, args[1]); err != nil {
						return cty.NilVal, err
					}
				}
				p, err := t.view.Get(args[0].AsString())
				if err != nil {
					return cty.NilVal, err
				}
				out, err := t.eval(p.expr, scope, depth+1)
				if err != nil {
					return cty.NilVal, err
				}

				return cty.StringVal(out), nil
			},
		}),
		"sanitize": function.New(&function.Spec{
			Description: "Strips unsafe markup from HTML.",
			Params: []function.Parameter{
				{Name: "html", Type: cty.String},
			},
			Type: function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.StringVal(t.policy.Sanitize(args[0].AsString())), nil
			},
		}),
		"escape": function.New(&function.Spec{
			Description: "Escapes text for inclusion in HTML.",
			Params: []function.Parameter{
				{Name: "text", Type: cty.String},
			},
			Type: function.StaticReturnType(cty.String),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.StringVal(html.EscapeString(args[0].AsString())), nil
			},
		}),
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
		"trim":       stdlib.TrimFunc,
		"join":       stdlib.JoinFunc,
		"length":     stdlib.LengthFunc,
		"format":     stdlib.FormatFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
	}
}

// withLocals returns vars overlaid with the attributes of locals, which must
// be an object or a map.
func withLocals(vars map[string]cty.Value, locals cty.Value) (map[string]cty.Value, error) {
	if locals.IsNull() {
		return vars, nil
	}
	if !locals.IsWhollyKnown() {
		return nil, fmt.Errorf("partial variables must be known")
	}
	ty := locals.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("partial variables must be an object, got %s", ty.FriendlyName())
	}

	merged := make(map[string]cty.Value, len(vars)+locals.LengthInt())
	for k, v := range vars {
		merged[k] = v
	}
	for it := locals.ElementIterator(); it.Next(); {
		k, v := it.Element()
		merged[k.AsString()] = v
	}

	return merged, nil
}

func asString(val cty.Value) (string, error) {
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("template produced an unknown value")
	}
	if val.IsNull() {
		return "", nil
	}

	s, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("template produced %s, not a string: %w", val.Type().FriendlyName(), err)
	}

	return s.AsString(), nil
}

// variables converts a model into HCL variables by way of its JSON form.
func variables(model any) (map[string]cty.Value, error) {
	if model == nil {
		return map[string]cty.Value{}, nil
	}

	buf, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}

	ty, err := ctyjson.ImpliedType(buf)
	if err != nil {
		return nil, err
	}
	if !ty.IsObjectType() {
		return nil, fmt.Errorf("model must be an object, got %s", ty.FriendlyName())
	}

	val, err := ctyjson.Unmarshal(buf, ty)
	if err != nil {
		return nil, err
	}

	return val.AsValueMap(), nil
}

// Probe instantiates the runtime and evaluates a trivial expression.
func Probe() error {
	expr, diags := hclsyntax.ParseTemplate([]byte("${1 + 1}"), "probe", hcl.InitialPos)
	if diags.HasErrors() {
		return diags
	}

	val, diags := expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return diags
	}

	out, err := asString(val)
	if err != nil {
		return err
	}
	if out != "2" {
		return viewerrors.NewInternalError(viewerrors.ErrCodeInternalError, "hcl probe evaluated "+out, nil)
	}

	return nil
}
