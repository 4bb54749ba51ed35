package evaluator

import (
	"unicode/utf8"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/token"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

func (in *interp) eval(x ast.Expr, env *frame) (value.Value, error) {
	switch n := x.(type) {
	case nil:
		return value.Null{}, nil

	case *ast.Literal:
		return n.Value, nil

	case *ast.Ident:
		c, err := in.variable(n, env)
		if err != nil {
			return nil, err
		}
		return c.v, nil

	case *ast.Root:
		return in.root, nil

	case *ast.Member:
		obj, err := in.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		return in.member(obj, n)

	case *ast.Index:
		container, err := in.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(n.Index, env)
		if err != nil {
			return nil, err
		}
		return in.index(container, idx, n.Index.Span())

	case *ast.Call:
		return in.call(n, env)

	case *ast.Unary:
		v, err := in.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		out, err := unaryOp(n.Op, v)
		if err != nil {
			return nil, in.fault(diagnostic.CodeTypeMismatch, n.Span(), err, "%v", err)
		}
		return out, nil

	case *ast.Binary:
		return in.binary(n, env)

	case *ast.Conditional:
		ok, err := in.condition(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if ok {
			return in.eval(n.Then, env)
		}
		return in.eval(n.Else, env)

	case *ast.Assign:
		return in.assign(n, env)

	case *ast.IncDec:
		return in.incDec(n, env)

	case *ast.TypeTest:
		v, err := in.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		kind, ok := value.KindByName(n.TypeName)
		if !ok {
			return nil, in.fault(diagnostic.CodeInvalidProgram, n.TypeSpan, nil, "unknown type %q", n.TypeName)
		}
		return value.Bool(v.Kind() == kind), nil

	case *ast.ArrayLit:
		items := make([]value.Value, 0, len(n.Elements))
		for _, el := range n.Elements {
			v, err := in.eval(el, env)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return value.NewArray(items...), nil

	case *ast.ObjectLit:
		obj := value.NewObject()
		for _, field := range n.Fields {
			v, err := in.eval(field.Value, env)
			if err != nil {
				return nil, err
			}
			obj = obj.With(field.Key, v)
		}
		return obj, nil

	case *ast.FuncLit:
		return in.makeFunction("", n.Params, n.Body, n.Result, env), nil

	case *ast.BadExpr:
		return nil, in.fault(diagnostic.CodeInvalidProgram, n.Span(), nil, "cannot evaluate an expression that failed to parse")
	}

	return nil, in.fault(diagnostic.CodeInvalidProgram, x.Span(), nil, "unsupported expression %T", x)
}

// member reads `x.name`: object keys, `length` of arrays and strings, and
// library functions bound as methods.
func (in *interp) member(obj value.Value, n *ast.Member) (value.Value, error) {
	switch o := obj.(type) {
	case *value.Object:
		v, ok := o.Get(n.Name)
		if !ok {
			return nil, in.fault(diagnostic.CodeMissingPath, n.NameSpan, nil, "key %q does not exist", n.Name)
		}
		return v, nil
	case *value.Array:
		if n.Name == "length" {
			return value.Int(int64(o.Len())), nil
		}
	case value.String:
		if n.Name == "length" {
			return value.Int(int64(utf8.RuneCountInString(string(o)))), nil
		}
	}

	if method, ok := in.e.opts.Registry.Method(obj.Kind(), n.Name); ok {
		return method.Bind(obj), nil
	}
	return nil, in.fault(diagnostic.CodePathTypeMismatch, n.NameSpan, nil, "cannot access key %q of %s", n.Name, value.TypeName(obj))
}

func (in *interp) index(container value.Value, idx value.Value, span source.Span) (value.Value, error) {
	segment, err := in.segment(idx, span)
	if err != nil {
		return nil, err
	}

	if s, ok := container.(value.String); ok && segment.IsIndex {
		runes := []rune(string(s))
		i := segment.Index
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return nil, in.fault(diagnostic.CodeMissingPath, span, nil, "index %d out of range for string of length %d", segment.Index, len(runes))
		}
		return value.String(string(runes[i])), nil
	}

	v, err := value.Step(container, segment)
	if err != nil {
		return nil, in.fault(codeFor(err), span, err, "%v", err)
	}
	return v, nil
}

func (in *interp) binary(n *ast.Binary, env *frame) (value.Value, error) {
	if n.Op == token.And || n.Op == token.Or {
		left, err := in.logical(n.X, n.Op, env)
		if err != nil {
			return nil, err
		}
		if left == (n.Op == token.Or) {
			return value.Bool(left), nil
		}
		right, err := in.logical(n.Y, n.Op, env)
		if err != nil {
			return nil, err
		}
		return value.Bool(right), nil
	}

	x, err := in.eval(n.X, env)
	if err != nil {
		return nil, err
	}
	y, err := in.eval(n.Y, env)
	if err != nil {
		return nil, err
	}
	out, err := binaryOp(n.Op, x, y)
	if err != nil {
		return nil, in.fault(codeFor(err), n.Span(), err, "%v", err)
	}
	return out, nil
}

func (in *interp) logical(x ast.Expr, op token.Kind, env *frame) (bool, error) {
	v, err := in.eval(x, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(value.Bool)
	if !ok {
		return false, in.fault(diagnostic.CodeTypeMismatch, x.Span(), nil, "operand of %s must be a boolean, got %s", op, value.TypeName(v))
	}
	return bool(b), nil
}

func (in *interp) assign(n *ast.Assign, env *frame) (value.Value, error) {
	ref, err := in.reference(n.Target, env)
	if err != nil {
		return nil, err
	}

	op, compound := token.BinaryFor(n.Op)
	var old value.Value
	if compound {
		if old, err = in.load(ref); err != nil {
			return nil, err
		}
	}

	v, err := in.eval(n.Value, env)
	if err != nil {
		return nil, err
	}
	if compound {
		if v, err = binaryOp(op, old, v); err != nil {
			return nil, in.fault(codeFor(err), n.Span(), err, "%v", err)
		}
	}

	if err := in.store(ref, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (in *interp) incDec(n *ast.IncDec, env *frame) (value.Value, error) {
	ref, err := in.reference(n.Target, env)
	if err != nil {
		return nil, err
	}
	old, err := in.load(ref)
	if err != nil {
		return nil, err
	}
	num, ok := old.(value.Number)
	if !ok {
		return nil, in.fault(diagnostic.CodeTypeMismatch, n.Span(), nil, "cannot apply %s to %s", n.Op, value.TypeName(old))
	}

	delta := value.Int(1)
	if n.Op == token.Dec {
		delta = value.Int(-1)
	}
	updated := num.Add(delta)
	if err := in.store(ref, updated); err != nil {
		return nil, err
	}
	if n.Prefix {
		return updated, nil
	}
	return num, nil
}
