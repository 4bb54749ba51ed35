package evaluator

import (
	"errors"
	"slices"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// reference is an evaluated assignment target: the document root or a
// variable, followed by a path into its value.
type reference struct {
	root  bool
	cell  *cell
	path  []value.Segment
	spans []source.Span
	span  source.Span
}

// writable reports whether x is a path rooted at `$` or at an assignable
// variable.
func (in *interp) writable(x ast.Expr) bool {
	for {
		switch n := x.(type) {
		case *ast.Member:
			x = n.X
		case *ast.Index:
			x = n.X
		case *ast.Root:
			return true
		case *ast.Ident:
			sym, ok := in.unit.res.Symbol(in.unit.symbol(n))
			return ok && sym.Assignable()
		default:
			return false
		}
	}
}

// reference evaluates the index expressions of target, outermost first,
// without reading the addressed value.
func (in *interp) reference(target ast.Expr, env *frame) (*reference, error) {
	var chain []ast.Expr
	base := target
loop:
	for {
		switch n := base.(type) {
		case *ast.Member:
			chain = append(chain, n)
			base = n.X
		case *ast.Index:
			chain = append(chain, n)
			base = n.X
		default:
			break loop
		}
	}
	slices.Reverse(chain)

	ref := &reference{span: target.Span()}
	switch n := base.(type) {
	case *ast.Root:
		ref.root = true
	case *ast.Ident:
		c, err := in.variable(n, env)
		if err != nil {
			return nil, err
		}
		ref.cell = c
	default:
		return nil, in.fault(diagnostic.CodeInvalidProgram, target.Span(), nil, "cannot modify the result of an expression")
	}

	for _, link := range chain {
		switch n := link.(type) {
		case *ast.Member:
			ref.path = append(ref.path, value.Key(n.Name))
			ref.spans = append(ref.spans, n.NameSpan)
		case *ast.Index:
			idx, err := in.eval(n.Index, env)
			if err != nil {
				return nil, err
			}
			segment, err := in.segment(idx, n.Index.Span())
			if err != nil {
				return nil, err
			}
			ref.path = append(ref.path, segment)
			ref.spans = append(ref.spans, n.Index.Span())
		}
	}
	return ref, nil
}

func (in *interp) segment(idx value.Value, span source.Span) (value.Segment, error) {
	switch i := idx.(type) {
	case value.String:
		return value.Key(string(i)), nil
	case value.Number:
		if n, ok := i.Integral(); ok {
			return value.Index(int(n)), nil
		}
		return value.Segment{}, in.fault(diagnostic.CodeTypeMismatch, span, nil, "array index must be an integer, got %s", i)
	}
	return value.Segment{}, in.fault(diagnostic.CodeTypeMismatch, span, nil, "index must be a string or an integer, got %s", value.TypeName(idx))
}

func (in *interp) variable(n *ast.Ident, env *frame) (*cell, error) {
	id := in.unit.symbol(n)
	if id == resolver.NoSymbol {
		return nil, in.fault(diagnostic.CodeUnboundVariable, n.Span(), nil, "%s is not defined", n.Name)
	}
	c, ok := env.lookup(id)
	if !ok {
		return nil, in.fault(diagnostic.CodeUnboundVariable, n.Span(), nil, "%s is used before it is initialized", n.Name)
	}
	return c, nil
}

func (in *interp) base(ref *reference) value.Value {
	if ref.root {
		return in.root
	}
	return ref.cell.v
}

func (in *interp) load(ref *reference) (value.Value, error) {
	v, err := value.Get(in.base(ref), ref.path)
	if err != nil {
		return nil, in.pathFault(ref, err)
	}
	return v, nil
}

func (in *interp) store(ref *reference, v value.Value) error {
	return in.patch(ref, func(base value.Value) (value.Value, error) {
		return value.Set(base, ref.path, v)
	})
}

// patch replaces the base of ref with fn's copy-on-write result.
func (in *interp) patch(ref *reference, fn func(base value.Value) (value.Value, error)) error {
	out, err := fn(in.base(ref))
	if err != nil {
		return in.pathFault(ref, err)
	}
	if ref.root {
		in.root = out
	} else {
		ref.cell.v = out
	}
	return nil
}

// pathFault blames the path segment that failed, or the whole target when
// the addressed value itself was wrong.
func (in *interp) pathFault(ref *reference, err error) error {
	var pathErr *value.PathError
	if !errors.As(err, &pathErr) {
		return in.asFault(err, ref.span)
	}
	span := ref.span
	if pathErr.Depth < len(ref.spans) {
		span = ref.spans[pathErr.Depth]
	}
	msg := pathErr.Message
	if ref.root {
		msg += " at " + value.FormatPath(ref.path[:min(pathErr.Depth, len(ref.path))])
	}
	return in.fault(codeFor(err), span, err, "%s", msg)
}
