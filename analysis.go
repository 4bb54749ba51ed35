package jsonpatcher

import (
	"github.com/jacoelho/jsonpatcher/internal/analysis"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
)

// Analysis answers editor queries about a script without running it. It is
// built even for scripts with syntax errors, covering the parts that parsed.
type Analysis struct {
	compiled
}

// Analyze parses and resolves src for tooling queries.
func Analyze(src string, opts ...Option) (*Analysis, []Diagnostic) {
	c := compile(src, newOptions(opts))
	return &Analysis{compiled: c}, convert(c.file, c.diags.Snapshot())
}

// Symbol is a declared name. Builtin libraries and host variables have no
// declaration and report HasDeclaration false.
type Symbol struct {
	Name           string
	Kind           string
	Detail         string
	Doc            string
	Declaration    Location
	HasDeclaration bool

	id resolver.SymbolID
}

// Hover describes the name under a cursor.
type Hover struct {
	Name   string
	Kind   string
	Detail string
	Doc    string
}

// Declaration is one outline entry.
type Declaration struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Detail       string   `json:"detail"`
	Doc          string   `json:"doc,omitempty"`
	Location     Location `json:"location"`
	NameLocation Location `json:"name_location"`
	// Source is the text of the whole declaration.
	Source   string        `json:"source"`
	Children []Declaration `json:"children,omitempty"`
}

type Completion struct {
	Label  string
	Kind   string
	Detail string
	Doc    string
}

func (a *Analysis) offset(line int, column int) int {
	return a.file.Offset(line, column)
}

func (a *Analysis) symbol(sym *resolver.Symbol) Symbol {
	info := a.analysis.Describe(sym)
	out := Symbol{
		Name:   sym.Name,
		Kind:   info.Kind,
		Detail: info.Detail,
		Doc:    info.Doc,
		id:     sym.ID,
	}
	if sym.Decl != resolver.NoNode {
		out.Declaration = spanLocation(a.file, info.Span)
		out.HasDeclaration = true
	}
	return out
}

// SymbolAt returns the symbol declared or used at the zero-based position.
func (a *Analysis) SymbolAt(line int, column int) (Symbol, bool) {
	sym, ok := a.analysis.SymbolAt(a.offset(line, column))
	if !ok {
		return Symbol{}, false
	}
	return a.symbol(sym), true
}

// DefinitionAt returns where the name at the position is declared.
func (a *Analysis) DefinitionAt(line int, column int) (Location, bool) {
	span, ok := a.analysis.DefinitionAt(a.offset(line, column))
	if !ok {
		return Location{}, false
	}
	return spanLocation(a.file, span), true
}

// References lists the declaration and every use of sym in source order.
func (a *Analysis) References(sym Symbol) []Location {
	spans := a.analysis.References(sym.id)
	out := make([]Location, 0, len(spans))
	for _, span := range spans {
		out = append(out, spanLocation(a.file, span))
	}
	return out
}

// Hover describes the symbol or library member at the position.
func (a *Analysis) Hover(line int, column int) (Hover, bool) {
	info, ok := a.analysis.Hover(a.offset(line, column))
	if !ok {
		return Hover{}, false
	}
	return Hover{Name: info.Name, Kind: info.Kind, Detail: info.Detail, Doc: info.Doc}, true
}

// Declarations returns the script outline.
func (a *Analysis) Declarations() []Declaration {
	return a.declarations(a.analysis.Declarations())
}

func (a *Analysis) declarations(decls []analysis.Declaration) []Declaration {
	if len(decls) == 0 {
		return nil
	}
	out := make([]Declaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, Declaration{
			Name:         d.Name,
			Kind:         d.Kind.String(),
			Detail:       d.Detail,
			Doc:          d.Doc,
			Location:     spanLocation(a.file, d.Span),
			NameLocation: spanLocation(a.file, d.NameSpan),
			Source:       a.file.Slice(d.Span),
			Children:     a.declarations(d.Children),
		})
	}
	return out
}

// Completions lists candidates for the word ending at the position.
func (a *Analysis) Completions(line int, column int) []Completion {
	items := a.analysis.Completions(a.offset(line, column))
	out := make([]Completion, 0, len(items))
	for _, c := range items {
		out = append(out, Completion(c))
	}
	return out
}

// Metadata returns the `@name value` header entries in source order.
func (a *Analysis) Metadata() []Metadata {
	return metadata(a.analysis)
}
