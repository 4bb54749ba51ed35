package ast

import (
	"reflect"

	"github.com/jacoelho/jsonpatcher/internal/source"
)

// Children returns the direct child nodes of n in source order. Nil
// optional children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(children ...Node) {
		for _, child := range children {
			if !isNil(child) {
				out = append(out, child)
			}
		}
	}

	switch n := n.(type) {
	case *Program:
		for _, m := range n.Metadata {
			add(m)
		}
		for _, s := range n.Stmts {
			add(s)
		}
	case *Metadata:
		add(n.Value)
	case *Member:
		add(n.X)
	case *Index:
		add(n.X, n.Index)
	case *Call:
		add(n.Fn)
		for _, arg := range n.Args {
			add(arg)
		}
	case *Unary:
		add(n.X)
	case *Binary:
		add(n.X, n.Y)
	case *Conditional:
		add(n.Cond, n.Then, n.Else)
	case *Assign:
		add(n.Target, n.Value)
	case *IncDec:
		add(n.Target)
	case *TypeTest:
		add(n.X)
	case *ArrayLit:
		for _, e := range n.Elements {
			add(e)
		}
	case *ObjectLit:
		for _, f := range n.Fields {
			add(f.Value)
		}
	case *FuncLit:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body, n.Result)
	case *Param:
		add(n.Default)
	case *Block:
		for _, s := range n.Stmts {
			add(s)
		}
	case *ExprStmt:
		add(n.X)
	case *VarDecl:
		add(n.Value)
	case *FuncDecl:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *While:
		add(n.Cond, n.Body)
	case *For:
		add(n.Init, n.Cond, n.Post, n.Body)
	case *ForEach:
		for _, v := range n.Vars {
			add(v)
		}
		add(n.Seq, n.Body)
	case *Return:
		add(n.Value)
	case *Delete:
		add(n.Target)
	case *Apply:
		add(n.Target, n.Body)
	case *Set:
		add(n.Target, n.Value)
	case *Insert:
		add(n.Value, n.Target, n.At)
	case *Remove:
		add(n.Target)
	case *Merge:
		add(n.Value, n.Target)
	}
	return out
}

// isNil catches typed nil pointers stored in interface fields.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Inspect traverses the tree depth-first, calling f before visiting the
// children of each node. Returning false skips the children.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, f)
	}
}

// PathTo returns the chain of nodes enclosing offset, outermost first.
func PathTo(root Node, offset int) []Node {
	var path []Node
	Inspect(root, func(n Node) bool {
		if _, isProgram := n.(*Program); !isProgram && !n.Span().Contains(offset) {
			return false
		}
		path = append(path, n)
		return true
	})
	return path
}

// NameSpan returns the span of the identifier a declaration introduces,
// falling back to the node span.
func NameSpan(n Node) source.Span {
	switch n := n.(type) {
	case *VarDecl:
		return n.NameSpan
	case *FuncDecl:
		return n.NameSpan
	case *Import:
		if !n.AliasSpan.IsZero() {
			return n.AliasSpan
		}
		return n.PathSpan
	case *Metadata:
		return n.NameSpan
	}
	return n.Span()
}
