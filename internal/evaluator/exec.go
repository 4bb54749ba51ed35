package evaluator

import (
	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// control reports how a statement finished.
type control int

const (
	ctrlNext control = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

// block runs statements in env. Function declarations are bound before the
// first statement runs so they can be called ahead of their position.
func (in *interp) block(stmts []ast.Stmt, env *frame) (control, error) {
	for _, stmt := range stmts {
		if decl, ok := stmt.(*ast.FuncDecl); ok {
			if id := in.unit.symbol(decl); id != resolver.NoSymbol {
				env.define(id, in.makeFunction(decl.Name, decl.Params, decl.Body, nil, env))
			}
		}
	}

	for _, stmt := range stmts {
		ctrl, err := in.exec(stmt, env)
		if err != nil || ctrl != ctrlNext {
			return ctrl, err
		}
	}
	return ctrlNext, nil
}

func (in *interp) exec(stmt ast.Stmt, env *frame) (control, error) {
	if err := in.cancelled(stmt.Span()); err != nil {
		return ctrlNext, err
	}

	switch n := stmt.(type) {
	case *ast.Empty, *ast.FuncDecl:
		return ctrlNext, nil

	case *ast.ExprStmt:
		_, err := in.eval(n.X, env)
		return ctrlNext, err

	case *ast.Block:
		return in.block(n.Stmts, newFrame(env))

	case *ast.VarDecl:
		v, err := in.eval(n.Value, env)
		if err != nil {
			return ctrlNext, err
		}
		if fn, ok := v.(*value.Function); ok && fn.Name == "" {
			if _, isLit := n.Value.(*ast.FuncLit); isLit {
				fn.Name = n.Name
			}
		}
		if id := in.unit.symbol(n); id != resolver.NoSymbol {
			env.define(id, v)
		}
		return ctrlNext, nil

	case *ast.If:
		ok, err := in.condition(n.Cond, env)
		if err != nil {
			return ctrlNext, err
		}
		if ok {
			return in.exec(n.Then, env)
		}
		if n.Else != nil {
			return in.exec(n.Else, env)
		}
		return ctrlNext, nil

	case *ast.While:
		for {
			if err := in.cancelled(n.Span()); err != nil {
				return ctrlNext, err
			}
			ok, err := in.condition(n.Cond, env)
			if err != nil || !ok {
				return ctrlNext, err
			}
			ctrl, err := in.exec(n.Body, env)
			if err != nil {
				return ctrlNext, err
			}
			if ctrl == ctrlBreak {
				return ctrlNext, nil
			}
			if ctrl == ctrlReturn {
				return ctrl, nil
			}
		}

	case *ast.For:
		return in.forLoop(n, newFrame(env))

	case *ast.ForEach:
		return in.forEach(n, env)

	case *ast.Break:
		return ctrlBreak, nil

	case *ast.Continue:
		return ctrlContinue, nil

	case *ast.Return:
		in.returned = value.Null{}
		if n.Value != nil {
			v, err := in.eval(n.Value, env)
			if err != nil {
				return ctrlNext, err
			}
			in.returned = v
		}
		return ctrlReturn, nil

	case *ast.Import:
		v, err := in.importLibrary(n)
		if err != nil {
			return ctrlNext, err
		}
		if id := in.unit.symbol(n); id != resolver.NoSymbol {
			env.define(id, v)
		}
		return ctrlNext, nil

	case *ast.Apply:
		return in.apply(n, env)

	case *ast.Set:
		ref, err := in.reference(n.Target, env)
		if err != nil {
			return ctrlNext, err
		}
		v, err := in.eval(n.Value, env)
		if err != nil {
			return ctrlNext, err
		}
		return ctrlNext, in.patch(ref, func(base value.Value) (value.Value, error) {
			return value.Set(base, ref.path, v)
		})

	case *ast.Insert:
		v, err := in.eval(n.Value, env)
		if err != nil {
			return ctrlNext, err
		}
		ref, err := in.reference(n.Target, env)
		if err != nil {
			return ctrlNext, err
		}
		var at *int
		if n.At != nil {
			position, err := in.integer(n.At, env)
			if err != nil {
				return ctrlNext, err
			}
			at = &position
		}
		return ctrlNext, in.patch(ref, func(base value.Value) (value.Value, error) {
			return value.Insert(base, ref.path, at, v)
		})

	case *ast.Remove:
		return ctrlNext, in.remove(n.Target, env)

	case *ast.Delete:
		return ctrlNext, in.remove(n.Target, env)

	case *ast.Merge:
		v, err := in.eval(n.Value, env)
		if err != nil {
			return ctrlNext, err
		}
		patch, ok := v.(*value.Object)
		if !ok {
			return ctrlNext, in.fault(diagnostic.CodeTypeMismatch, n.Value.Span(), nil, "merge requires an object, got %s", value.TypeName(v))
		}
		ref, err := in.reference(n.Target, env)
		if err != nil {
			return ctrlNext, err
		}
		return ctrlNext, in.patch(ref, func(base value.Value) (value.Value, error) {
			return value.Merge(base, ref.path, patch)
		})

	case *ast.BadStmt:
		return ctrlNext, in.fault(diagnostic.CodeInvalidProgram, n.Span(), nil, "cannot run a statement that failed to parse")
	}

	return ctrlNext, in.fault(diagnostic.CodeInvalidProgram, stmt.Span(), nil, "unsupported statement %T", stmt)
}

func (in *interp) forLoop(n *ast.For, env *frame) (control, error) {
	if n.Init != nil {
		if _, err := in.exec(n.Init, env); err != nil {
			return ctrlNext, err
		}
	}

	for {
		if err := in.cancelled(n.Span()); err != nil {
			return ctrlNext, err
		}
		if n.Cond != nil {
			ok, err := in.condition(n.Cond, env)
			if err != nil || !ok {
				return ctrlNext, err
			}
		}

		ctrl, err := in.exec(n.Body, env)
		if err != nil {
			return ctrlNext, err
		}
		if ctrl == ctrlBreak {
			return ctrlNext, nil
		}
		if ctrl == ctrlReturn {
			return ctrl, nil
		}

		if n.Post != nil {
			if _, err := in.eval(n.Post, env); err != nil {
				return ctrlNext, err
			}
		}
	}
}

// forEach iterates arrays as (index, element), objects as (key, value) and
// strings as (index, character). With a single variable only the second
// half of each pair is bound for arrays and strings, and the key for objects.
func (in *interp) forEach(n *ast.ForEach, env *frame) (control, error) {
	seq, err := in.eval(n.Seq, env)
	if err != nil {
		return ctrlNext, err
	}

	type pair struct {
		first  value.Value
		second value.Value
	}
	var pairs []pair
	keyOnly := false

	switch s := seq.(type) {
	case *value.Array:
		for i, item := range s.All() {
			pairs = append(pairs, pair{value.Int(int64(i)), item})
		}
	case *value.Object:
		for key, item := range s.All() {
			pairs = append(pairs, pair{value.String(key), item})
		}
		keyOnly = true
	case value.String:
		for i, r := range []rune(string(s)) {
			pairs = append(pairs, pair{value.Int(int64(i)), value.String(string(r))})
		}
	default:
		return ctrlNext, in.fault(diagnostic.CodeTypeMismatch, n.Seq.Span(), nil, "cannot iterate over %s", value.TypeName(seq))
	}

	for _, p := range pairs {
		if err := in.cancelled(n.Span()); err != nil {
			return ctrlNext, err
		}

		iteration := newFrame(env)
		switch len(n.Vars) {
		case 1:
			bound := p.second
			if keyOnly {
				bound = p.first
			}
			in.bindLoopVar(iteration, n.Vars[0], bound)
		case 2:
			in.bindLoopVar(iteration, n.Vars[0], p.first)
			in.bindLoopVar(iteration, n.Vars[1], p.second)
		}

		ctrl, err := in.exec(n.Body, iteration)
		if err != nil {
			return ctrlNext, err
		}
		if ctrl == ctrlBreak {
			break
		}
		if ctrl == ctrlReturn {
			return ctrl, nil
		}
	}
	return ctrlNext, nil
}

func (in *interp) bindLoopVar(env *frame, v *ast.LoopVar, val value.Value) {
	if id := in.unit.symbol(v); id != resolver.NoSymbol {
		env.define(id, val)
	}
}

// apply runs the body with `$` bound to the target value. When the target
// is a writable path the final `$` is stored back there.
func (in *interp) apply(n *ast.Apply, env *frame) (control, error) {
	var (
		ref    *reference
		target value.Value
		err    error
	)
	if in.writable(n.Target) {
		if ref, err = in.reference(n.Target, env); err != nil {
			return ctrlNext, err
		}
		target, err = in.load(ref)
	} else {
		target, err = in.eval(n.Target, env)
	}
	if err != nil {
		return ctrlNext, err
	}

	saved := in.root
	in.root = target
	ctrl, err := in.exec(n.Body, env)
	result := in.root
	in.root = saved
	if err != nil || ref == nil {
		return ctrl, err
	}

	return ctrl, in.store(ref, result)
}

func (in *interp) remove(target ast.Expr, env *frame) error {
	ref, err := in.reference(target, env)
	if err != nil {
		return err
	}
	return in.patch(ref, func(base value.Value) (value.Value, error) {
		return value.Remove(base, ref.path)
	})
}

func (in *interp) condition(x ast.Expr, env *frame) (bool, error) {
	v, err := in.eval(x, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(value.Bool)
	if !ok {
		return false, in.fault(diagnostic.CodeTypeMismatch, x.Span(), nil, "condition must be a boolean, got %s", value.TypeName(v))
	}
	return bool(b), nil
}

func (in *interp) integer(x ast.Expr, env *frame) (int, error) {
	v, err := in.eval(x, env)
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.Number)
	if !ok {
		return 0, in.fault(diagnostic.CodeTypeMismatch, x.Span(), nil, "expected an integer, got %s", value.TypeName(v))
	}
	i, ok := n.Integral()
	if !ok {
		return 0, in.fault(diagnostic.CodeTypeMismatch, x.Span(), nil, "expected an integer, got %s", n)
	}
	return int(i), nil
}
