package evaluator

import (
	"slices"
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/parser"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/stack"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

func displayName(fn *value.Function) string {
	if fn.Name == "" {
		return "anonymous function"
	}
	return fn.Name
}

func (in *interp) makeFunction(name string, params []*ast.Param, body *ast.Block, result ast.Expr, env *frame) *value.Function {
	return &value.Function{
		Name:  name,
		Arity: resolver.ParamsArity(params),
		Closure: &closure{
			name:   name,
			params: params,
			body:   body,
			result: result,
			env:    env,
			unit:   in.unit,
		},
	}
}

func (in *interp) call(n *ast.Call, env *frame) (value.Value, error) {
	callee, err := in.eval(n.Fn, env)
	if err != nil {
		return nil, err
	}

	args := make([]value.Value, 0, len(n.Args))
	for _, arg := range n.Args {
		v, err := in.eval(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := callee.(*value.Function)
	if !ok {
		return nil, in.fault(diagnostic.CodeNotCallable, n.Fn.Span(), nil, "%s is not a function", value.TypeName(callee))
	}
	return in.invoke(fn, args, n.Span())
}

// Call lets built-ins invoke function values; the call is attributed to the
// expression that called the built-in.
func (in *interp) Call(fn *value.Function, args []value.Value) (value.Value, error) {
	return in.invoke(fn, args, in.site)
}

func (in *interp) invoke(fn *value.Function, args []value.Value, site source.Span) (value.Value, error) {
	name := displayName(fn)
	if !fn.Arity.Accepts(len(args)) {
		return nil, in.fault(diagnostic.CodeCallArity, site, nil, "%s expects %s arguments, got %d", name, fn.Arity, len(args))
	}

	if err := in.calls.Push(callRecord{frame: Frame{Function: name, Call: site}, file: in.unit.file}); err != nil {
		return nil, in.fault(diagnostic.CodeStackOverflow, site, err, "maximum call depth of %d exceeded", in.calls.Limit())
	}
	defer in.calls.Pop()

	saved := in.site
	in.site = site
	defer func() { in.site = saved }()

	if fn.Native != nil {
		v, err := fn.Native(in, args)
		if err != nil {
			if f, ok := err.(*Fault); ok {
				return nil, f
			}
			return nil, in.fault(codeFor(err), site, err, "%v", err)
		}
		if v == nil {
			v = value.Null{}
		}
		return v, nil
	}

	c, ok := fn.Closure.(*closure)
	if !ok {
		return nil, in.fault(diagnostic.CodeNotCallable, site, nil, "%s has no body", name)
	}
	v, err := in.callClosure(c, args)
	if err != nil {
		return nil, in.crossUnit(err, site)
	}
	return v, nil
}

// callClosure binds parameters in a fresh frame on top of the captured
// environment. Missing arguments take their default or null; a variadic
// parameter collects the rest as an array.
func (in *interp) callClosure(c *closure, args []value.Value) (value.Value, error) {
	saved := in.unit
	in.unit = c.unit
	defer func() { in.unit = saved }()

	env := newFrame(c.env)
	for i, p := range c.params {
		var v value.Value
		switch {
		case p.Variadic:
			var rest []value.Value
			if i < len(args) {
				rest = slices.Clone(args[i:])
			}
			v = value.NewArray(rest...)
		case i < len(args):
			v = args[i]
		case p.Default != nil:
			var err error
			if v, err = in.eval(p.Default, env); err != nil {
				return nil, err
			}
		default:
			v = value.Null{}
		}
		if id := c.unit.symbol(p); id != resolver.NoSymbol {
			env.define(id, v)
		}
	}

	if c.result != nil {
		return in.eval(c.result, env)
	}

	ctrl, err := in.block(c.body.Stmts, env)
	if err != nil {
		return nil, err
	}
	if ctrl == ctrlReturn {
		v := in.returned
		in.returned = nil
		return v, nil
	}
	return value.Null{}, nil
}

// importLibrary compiles and runs a library against an empty document. The
// library's final document is the value bound to the import alias.
func (in *interp) importLibrary(n *ast.Import) (value.Value, error) {
	if v, ok := in.loaded[n.Path]; ok {
		return v, nil
	}
	if stack.Contains(in.imports, n.Path) {
		cycle := append(in.imports.ToSlice(), n.Path)
		return nil, in.fault(diagnostic.CodeImportFailed, n.PathSpan, nil, "import cycle: %s", strings.Join(cycle, " -> "))
	}

	text, ok := in.e.opts.Libraries[n.Path]
	if !ok {
		return nil, in.fault(diagnostic.CodeImportFailed, n.PathSpan, nil, "library %q is not available", n.Path)
	}

	file := source.NewFile(n.Path, text)
	diags := diagnostic.NewCollector(file)
	prog := parser.Parse(file, diags)
	res := resolver.Resolve(prog, diags, in.e.ResolverOptions())
	if diags.HasErrors() {
		for _, d := range diags.Snapshot() {
			if d.IsError() {
				return nil, in.fault(diagnostic.CodeImportFailed, n.PathSpan, nil, "library %q does not compile: %s:%s: %s", n.Path, n.Path, d.Range.Start, d.Message)
			}
		}
	}

	_ = in.imports.Push(n.Path)
	defer in.imports.Pop()

	saved := in.root
	in.root = value.NewObject()
	err := in.runUnit(in.newUnit(n.Path, prog, res))
	exported := in.root
	in.root = saved
	if err != nil {
		if f, ok := err.(*Fault); ok && f.File == in.unit.file {
			return nil, f
		}
		return nil, in.fault(diagnostic.CodeImportFailed, n.PathSpan, err, "library %q failed: %v", n.Path, err)
	}

	in.loaded[n.Path] = exported
	return exported, nil
}
