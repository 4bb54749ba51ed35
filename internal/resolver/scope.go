package resolver

import (
	"cmp"
	"slices"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/stdlib"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

type (
	SymbolID int
	ScopeID  int
)

const (
	// NoSymbol marks a binding without a resolved symbol.
	NoSymbol SymbolID = -1
	// NoScope is the parent of the global scope.
	NoScope ScopeID = -1
	// NoNode is the declaration node of symbols that have no source.
	NoNode ast.ID = -1
)

type SymbolKind int

const (
	SymbolVariable SymbolKind = iota + 1
	SymbolConstant
	SymbolParameter
	SymbolFunction
	SymbolImport
	SymbolLibrary
	SymbolHost
	SymbolLoopVar
)

var symbolKindNames = map[SymbolKind]string{
	SymbolVariable:  "variable",
	SymbolConstant:  "constant",
	SymbolParameter: "parameter",
	SymbolFunction:  "function",
	SymbolImport:    "import",
	SymbolLibrary:   "library",
	SymbolHost:      "host variable",
	SymbolLoopVar:   "loop variable",
}

func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "unknown"
}

type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota + 1
	ScopeProgram
	ScopeBlock
	ScopeFunction
	ScopeLoop
)

// Symbol is a named binding. Symbols without source, such as built-in
// libraries and host variables, have Decl set to NoNode.
type Symbol struct {
	ID       SymbolID
	Name     string
	Kind     SymbolKind
	Scope    ScopeID
	Decl     ast.ID
	NameSpan source.Span
	Mutable  bool

	// Callable is set when the symbol is statically known to hold a
	// function of the given arity.
	Callable bool
	Arity    value.Arity

	Library *stdlib.Library
}

// Assignable reports whether the symbol can be the target of an assignment.
func (s *Symbol) Assignable() bool {
	switch s.Kind {
	case SymbolVariable, SymbolParameter:
		return true
	}
	return false
}

// Scope maps names to symbols and links to its lexical parent.
type Scope struct {
	ID     ScopeID
	Parent ScopeID
	Kind   ScopeKind
	Node   ast.ID
	Span   source.Span

	names   map[string]SymbolID
	symbols []SymbolID
}

// Lookup finds name declared directly in s.
func (s *Scope) Lookup(name string) (SymbolID, bool) {
	id, ok := s.names[name]
	return id, ok
}

// Symbols lists the symbols declared in s, in declaration order.
func (s *Scope) Symbols() []SymbolID {
	return slices.Clone(s.symbols)
}

// Binding is the side-table entry for one node: the scope the node was
// resolved in and, for identifiers and declarations, its symbol.
type Binding struct {
	Scope  ScopeID
	Symbol SymbolID
}

// Result is the read-only outcome of resolving one program.
type Result struct {
	Scopes     []*Scope
	Symbols    []*Symbol
	Bindings   map[ast.ID]Binding
	References map[SymbolID][]source.Span
}

// Symbol returns the symbol with the given id.
func (r *Result) Symbol(id SymbolID) (*Symbol, bool) {
	if id < 0 || int(id) >= len(r.Symbols) {
		return nil, false
	}
	return r.Symbols[id], true
}

// Scope returns the scope with the given id.
func (r *Result) Scope(id ScopeID) (*Scope, bool) {
	if id < 0 || int(id) >= len(r.Scopes) {
		return nil, false
	}
	return r.Scopes[id], true
}

// SymbolOf returns the symbol an identifier or declaration node is bound to.
func (r *Result) SymbolOf(node ast.ID) (*Symbol, bool) {
	b, ok := r.Bindings[node]
	if !ok {
		return nil, false
	}
	return r.Symbol(b.Symbol)
}

// LookupFrom resolves name starting at scope and walking outwards.
func (r *Result) LookupFrom(scope ScopeID, name string) (*Symbol, bool) {
	for scope != NoScope {
		s := r.Scopes[scope]
		if id, ok := s.names[name]; ok {
			return r.Symbols[id], true
		}
		scope = s.Parent
	}
	return nil, false
}

// ScopeAt returns the innermost scope whose span contains offset. Offsets
// outside every source scope map to the program scope.
func (r *Result) ScopeAt(offset int) ScopeID {
	best := NoScope
	for _, s := range r.Scopes {
		switch {
		case s.Kind == ScopeGlobal:
			continue
		case s.Kind == ScopeProgram && best == NoScope:
			best = s.ID
			continue
		case !s.Span.Contains(offset):
			continue
		}
		if best == NoScope || r.Scopes[best].Span.Encloses(s.Span) {
			best = s.ID
		}
	}
	return best
}

// Visible lists the symbols reachable at offset, innermost first, skipping
// shadowed names and variables declared after offset.
func (r *Result) Visible(offset int) []*Symbol {
	seen := make(map[string]bool)
	var out []*Symbol
	for scope := r.ScopeAt(offset); scope != NoScope; scope = r.Scopes[scope].Parent {
		var level []*Symbol
		for _, id := range r.Scopes[scope].symbols {
			sym := r.Symbols[id]
			if seen[sym.Name] || !visibleAt(sym, offset) {
				continue
			}
			seen[sym.Name] = true
			level = append(level, sym)
		}
		slices.SortStableFunc(level, func(a, b *Symbol) int {
			return cmp.Compare(a.Name, b.Name)
		})
		out = append(out, level...)
	}
	return out
}

func visibleAt(sym *Symbol, offset int) bool {
	switch sym.Kind {
	case SymbolVariable, SymbolConstant, SymbolImport:
		return sym.NameSpan.End <= offset
	}
	return true
}
