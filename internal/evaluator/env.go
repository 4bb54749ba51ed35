package evaluator

import (
	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

type cell struct {
	v value.Value
}

// frame holds the variables of one scope activation. Frames form a chain
// through parent and are captured by closures.
type frame struct {
	parent *frame
	slots  map[resolver.SymbolID]*cell
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent, slots: make(map[resolver.SymbolID]*cell)}
}

func (f *frame) define(id resolver.SymbolID, v value.Value) {
	f.slots[id] = &cell{v: v}
}

func (f *frame) lookup(id resolver.SymbolID) (*cell, bool) {
	for current := f; current != nil; current = current.parent {
		if c, ok := current.slots[id]; ok {
			return c, true
		}
	}
	return nil, false
}

// unit is one compiled source file: the main program or an imported
// library. Node ids and bindings are only meaningful within their unit.
type unit struct {
	name    string
	file    *source.File
	program *ast.Program
	res     *resolver.Result
	globals *frame
}

func (u *unit) symbol(n ast.Node) resolver.SymbolID {
	b, ok := u.res.Bindings[n.ID()]
	if !ok {
		return resolver.NoSymbol
	}
	return b.Symbol
}

// closure is the engine-side half of a script function value.
type closure struct {
	name   string
	params []*ast.Param
	body   *ast.Block
	result ast.Expr
	env    *frame
	unit   *unit
}
