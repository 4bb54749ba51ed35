// Package analysis answers editor queries over a resolved program without
// running it: what a name refers to, where it is declared and used, an
// outline of declarations and completions at a cursor.
package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// Analysis is read-only after New and safe for concurrent queries.
type Analysis struct {
	file    *source.File
	program *ast.Program
	result  *resolver.Result
	nodes   map[ast.ID]ast.Node
	docs    map[ast.ID]string
}

func New(prog *ast.Program, res *resolver.Result) *Analysis {
	a := &Analysis{
		file:    prog.File,
		program: prog,
		result:  res,
		nodes:   make(map[ast.ID]ast.Node, prog.NodeCount),
	}
	ast.Inspect(prog, func(n ast.Node) bool {
		a.nodes[n.ID()] = n
		return true
	})
	a.docs = docComments(prog, a.nodes)
	return a
}

func (a *Analysis) File() *source.File {
	return a.file
}

func (a *Analysis) Program() *ast.Program {
	return a.program
}

func (a *Analysis) Result() *resolver.Result {
	return a.result
}

// Info describes a symbol or library member for hover and completion.
type Info struct {
	Name   string
	Kind   string
	Detail string
	Doc    string
	// Span is the declaration name; zero for names without source.
	Span source.Span
}

// nameSpan narrows parameter spans, which cover default values, to the name.
func nameSpan(sym *resolver.Symbol) source.Span {
	if sym.Kind == resolver.SymbolParameter {
		return source.NewSpan(sym.NameSpan.Start, min(sym.NameSpan.End, sym.NameSpan.Start+len(sym.Name)))
	}
	return sym.NameSpan
}

// SymbolAt returns the symbol whose declaration or use covers offset. When
// spans nest the smallest one wins.
func (a *Analysis) SymbolAt(offset int) (*resolver.Symbol, bool) {
	var (
		best     *resolver.Symbol
		bestSpan source.Span
	)
	consider := func(sym *resolver.Symbol, span source.Span) {
		if !span.Contains(offset) {
			return
		}
		if best == nil || span.Len() < bestSpan.Len() {
			best, bestSpan = sym, span
		}
	}

	for _, sym := range a.result.Symbols {
		if sym.Decl != resolver.NoNode {
			consider(sym, nameSpan(sym))
		}
		for _, use := range a.result.References[sym.ID] {
			consider(sym, use)
		}
	}
	return best, best != nil
}

// DefinitionAt returns the declaration name span of the symbol at offset.
// Built-in libraries and host variables have no definition in the source.
func (a *Analysis) DefinitionAt(offset int) (source.Span, bool) {
	sym, ok := a.SymbolAt(offset)
	if !ok || sym.Decl == resolver.NoNode {
		return source.Span{}, false
	}
	return nameSpan(sym), true
}

// References lists the declaration and every use of the symbol in source
// order.
func (a *Analysis) References(id resolver.SymbolID) []source.Span {
	sym, ok := a.result.Symbol(id)
	if !ok {
		return nil
	}
	var out []source.Span
	if sym.Decl != resolver.NoNode {
		out = append(out, nameSpan(sym))
	}
	out = append(out, a.result.References[id]...)
	slices.SortFunc(out, func(x, y source.Span) int {
		return cmp.Compare(x.Start, y.Start)
	})
	return out
}

// Hover describes the symbol or library member at offset.
func (a *Analysis) Hover(offset int) (Info, bool) {
	if info, ok := a.libraryMemberAt(offset); ok {
		return info, true
	}
	sym, ok := a.SymbolAt(offset)
	if !ok {
		return Info{}, false
	}
	return a.Describe(sym), true
}

func (a *Analysis) libraryMemberAt(offset int) (Info, bool) {
	for _, n := range slices.Backward(ast.PathTo(a.program, offset)) {
		m, ok := n.(*ast.Member)
		if !ok || !m.NameSpan.Contains(offset) {
			continue
		}
		base, ok := m.X.(*ast.Ident)
		if !ok {
			return Info{}, false
		}
		sym, ok := a.result.SymbolOf(base.ID())
		if !ok || sym.Library == nil {
			return Info{}, false
		}
		member, ok := sym.Library.Lookup(m.Name)
		if !ok {
			return Info{}, false
		}
		return memberInfo(sym.Library.Name, member.Name, member.Doc, member.Value), true
	}
	return Info{}, false
}

func memberInfo(lib string, name string, doc string, v value.Value) Info {
	info := Info{Name: name, Kind: value.TypeName(v), Doc: doc}
	if fn, ok := v.(*value.Function); ok {
		info.Detail = fmt.Sprintf("%s.%s (%s arguments)", lib, name, fn.Arity)
	} else {
		info.Kind = "constant"
		info.Detail = fmt.Sprintf("%s.%s = %s", lib, name, value.Format(v))
	}
	return info
}

// Describe renders a symbol for display.
func (a *Analysis) Describe(sym *resolver.Symbol) Info {
	info := Info{Name: sym.Name, Kind: sym.Kind.String(), Doc: a.docs[sym.Decl]}
	if sym.Decl != resolver.NoNode {
		info.Span = nameSpan(sym)
	}

	switch n := a.nodes[sym.Decl].(type) {
	case *ast.FuncDecl:
		info.Detail = "function " + signature(sym.Name, n.Params)
	case *ast.VarDecl:
		keyword := "val"
		if n.Mutable {
			keyword = "var"
		}
		info.Detail = keyword + " " + sym.Name
		if fn, ok := n.Value.(*ast.FuncLit); ok {
			info.Detail = keyword + " " + signature(sym.Name, fn.Params)
		}
	case *ast.Import:
		info.Detail = fmt.Sprintf("import %q as %s", n.Path, n.Alias)
	default:
		switch {
		case sym.Library != nil:
			info.Detail = "library " + sym.Library.Name
			info.Doc = sym.Library.Doc
		default:
			info.Detail = sym.Kind.String() + " " + sym.Name
		}
	}
	return info
}

// signature renders parameters the way they are declared: `b?` has a
// default and `rest*` collects the remaining arguments.
func signature(name string, params []*ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch {
		case p.Variadic:
			parts[i] = p.Name + "*"
		case p.Default != nil:
			parts[i] = p.Name + "?"
		default:
			parts[i] = p.Name
		}
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// Metadata is one `@name value` header entry. Non-literal values are kept
// as their source text.
type Metadata struct {
	Name  string
	Value value.Value
	Span  source.Span
}

func (a *Analysis) Metadata() []Metadata {
	out := make([]Metadata, 0, len(a.program.Metadata))
	for _, m := range a.program.Metadata {
		entry := Metadata{Name: m.Name, Value: value.Null{}, Span: m.Span()}
		switch v := m.Value.(type) {
		case nil:
		case *ast.Literal:
			entry.Value = v.Value
		default:
			entry.Value = value.String(a.file.Slice(v.Span()))
		}
		out = append(out, entry)
	}
	return out
}
