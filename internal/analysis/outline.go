package analysis

import (
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/source"
)

// Declaration is one entry of the document outline.
type Declaration struct {
	Name     string
	Kind     resolver.SymbolKind
	Detail   string
	Doc      string
	Span     source.Span
	NameSpan source.Span
	Children []Declaration
}

// Declarations returns the top-level functions, variables and imports in
// source order. Function entries list the declarations of their body.
func (a *Analysis) Declarations() []Declaration {
	return a.declarations(a.program.Stmts)
}

func (a *Analysis) declarations(stmts []ast.Stmt) []Declaration {
	var out []Declaration
	for _, stmt := range stmts {
		sym, ok := a.result.SymbolOf(stmt.ID())
		if !ok {
			continue
		}

		var children []Declaration
		switch n := stmt.(type) {
		case *ast.FuncDecl:
			if n.Body != nil {
				children = a.declarations(n.Body.Stmts)
			}
		case *ast.VarDecl:
			if fn, ok := n.Value.(*ast.FuncLit); ok && fn.Body != nil {
				children = a.declarations(fn.Body.Stmts)
			}
		case *ast.Import:
		default:
			continue
		}

		info := a.Describe(sym)
		out = append(out, Declaration{
			Name:     sym.Name,
			Kind:     sym.Kind,
			Detail:   info.Detail,
			Doc:      info.Doc,
			Span:     stmt.Span(),
			NameSpan: sym.NameSpan,
			Children: children,
		})
	}
	return out
}

// docComments attaches the block of `#` lines directly above a declaration
// to it. A blank line or code between the comments and the declaration
// breaks the association.
func docComments(prog *ast.Program, nodes map[ast.ID]ast.Node) map[ast.ID]string {
	file := prog.File
	byLine := make(map[int]string)
	for _, c := range prog.Comments {
		pos := file.Position(c.Span.Start)
		if !strings.HasPrefix(strings.TrimSpace(file.LineText(pos.Line)), "#") {
			continue
		}
		byLine[pos.Line] = strings.TrimSpace(c.Text)
	}

	docs := make(map[ast.ID]string)
	for id, n := range nodes {
		switch n.(type) {
		case *ast.FuncDecl, *ast.VarDecl, *ast.Import:
		default:
			continue
		}

		var lines []string
		for line := file.Position(n.Span().Start).Line - 1; line >= 0; line-- {
			text, ok := byLine[line]
			if !ok {
				break
			}
			lines = append([]string{text}, lines...)
		}
		if len(lines) > 0 {
			docs[id] = strings.Join(lines, "\n")
		}
	}
	return docs
}
