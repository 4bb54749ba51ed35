// Package parser builds the syntax tree of a patch script.
//
// Parsing never stops at the first error: each problem is reported once,
// the offending region is replaced by a BadExpr or BadStmt node and parsing
// resumes at the next statement boundary.
package parser

import (
	"fmt"
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/lexer"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/token"
)

type parser struct {
	file   *source.File
	diags  *diagnostic.Collector
	tokens []token.Token
	pos    int
	tok    token.Token
	nextID ast.ID

	// failed is set by the first error of a statement and cleared once the
	// parser has resynchronized, so one mistake yields one diagnostic.
	failed bool
}

func newParser(file *source.File, diags *diagnostic.Collector) (*parser, []ast.Comment) {
	l := lexer.New(file, diags)
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	var comments []ast.Comment
	for _, c := range l.Comments() {
		comments = append(comments, ast.Comment{Text: c.Text, Span: c.Span})
	}

	p := &parser{file: file, diags: diags, tokens: tokens}
	p.tok = tokens[0]
	return p, comments
}

// Parse parses a whole script. It always returns a program, even when the
// source is malformed.
func Parse(file *source.File, diags *diagnostic.Collector) *ast.Program {
	p, comments := newParser(file, diags)

	prog := &ast.Program{File: file, Comments: comments}
	prog.NodeID = p.id()
	if file.Len() > 0 {
		prog.Range = source.NewSpan(0, file.Len())
	}

	prog.Metadata = p.parseMetadata()
	for p.tok.Kind != token.EOF {
		if p.tok.Kind == token.RBrace {
			p.errorAt(p.tok.Span, diagnostic.CodeUnexpectedToken, "unexpected %s", describe(p.tok))
			p.next()
			p.failed = false
			continue
		}
		prog.Stmts = append(prog.Stmts, p.parseStmtRecover())
	}

	prog.NodeCount = int(p.nextID)
	return prog
}

// ParseExpression parses source holding a single expression.
func ParseExpression(file *source.File, diags *diagnostic.Collector) ast.Expr {
	p, _ := newParser(file, diags)
	expr := p.parseExpr()
	if p.tok.Kind != token.EOF {
		p.unexpected()
	}
	return expr
}

func (p *parser) id() ast.ID {
	id := p.nextID
	p.nextID++
	return id
}

func (p *parser) base(span source.Span) ast.Base {
	return ast.Base{NodeID: p.id(), Range: span}
}

func (p *parser) next() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.tok = p.tokens[p.pos]
}

func (p *parser) peek(n int) token.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) prev() token.Token {
	if p.pos == 0 {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos-1]
}

// spanFrom covers from start to the end of the last consumed token.
func (p *parser) spanFrom(start int) source.Span {
	end := p.prev().Span.End
	if end < start {
		end = start
	}
	return source.NewSpan(start, end)
}

// errorSpan is where a problem at the current token is reported. At the end
// of input it falls back to the last real token so the span is never empty.
func (p *parser) errorSpan() source.Span {
	if p.tok.Kind == token.EOF && p.pos > 0 {
		return p.prev().Span
	}
	return p.tok.Span
}

func (p *parser) errorAt(span source.Span, code diagnostic.Code, format string, args ...any) {
	if p.failed {
		return
	}
	p.failed = true
	if p.diags != nil {
		p.diags.Add(code, span, format, args...)
	}
}

// report records a problem that does not disturb parsing.
func (p *parser) report(span source.Span, code diagnostic.Code, format string, args ...any) {
	if p.diags != nil {
		p.diags.Add(code, span, format, args...)
	}
}

func (p *parser) unexpected() {
	if p.tok.Kind == token.EOF {
		p.errorAt(p.errorSpan(), diagnostic.CodeUnexpectedEnd, "unexpected end of input")
		return
	}
	p.errorAt(p.tok.Span, diagnostic.CodeUnexpectedToken, "unexpected %s", describe(p.tok))
}

func (p *parser) expect(kind token.Kind) bool {
	if p.tok.Kind == kind {
		p.next()
		return true
	}
	if p.tok.Kind == token.EOF {
		p.errorAt(p.errorSpan(), diagnostic.CodeUnexpectedEnd, "unexpected end of input, expected %q", kind)
		return false
	}
	p.errorAt(p.tok.Span, diagnostic.CodeUnexpectedToken, "unexpected %s, expected %q", describe(p.tok), kind)
	return false
}

// expectWord consumes a contextual word such as `to` or `into`.
func (p *parser) expectWord(word string) bool {
	if p.tok.Is(word) {
		p.next()
		return true
	}
	if p.tok.Kind == token.EOF {
		p.errorAt(p.errorSpan(), diagnostic.CodeUnexpectedEnd, "unexpected end of input, expected %q", word)
		return false
	}
	p.errorAt(p.tok.Span, diagnostic.CodeUnexpectedToken, "unexpected %s, expected %q", describe(p.tok), word)
	return false
}

func (p *parser) optionalSemicolon() {
	if p.tok.Kind == token.Semicolon {
		p.next()
	}
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.Ident, token.Number, token.String, token.QuotedIdent, token.Illegal:
		return fmt.Sprintf("%s %s", tok.Kind, tok.Lexeme)
	default:
		return fmt.Sprintf("%q", tok.Lexeme)
	}
}

var statementKeywords = map[token.Kind]bool{
	token.Apply:    true,
	token.If:       true,
	token.Var:      true,
	token.Val:      true,
	token.Function: true,
	token.Delete:   true,
	token.Return:   true,
	token.Import:   true,
	token.While:    true,
	token.For:      true,
	token.Foreach:  true,
	token.Break:    true,
	token.Continue: true,
	token.Set:      true,
	token.Insert:   true,
	token.Remove:   true,
	token.Merge:    true,
}

// synchronize discards tokens up to the next statement boundary: a `;`
// (consumed), a `}` or a statement keyword.
func (p *parser) synchronize() {
	for {
		switch {
		case p.tok.Kind == token.EOF || p.tok.Kind == token.RBrace:
			return
		case p.tok.Kind == token.Semicolon:
			p.next()
			return
		case statementKeywords[p.tok.Kind]:
			return
		}
		p.next()
	}
}

// parseStmtRecover parses one statement and resynchronizes after an error.
func (p *parser) parseStmtRecover() ast.Stmt {
	start := p.pos
	startOffset := p.tok.Span.Start
	stmt := p.parseStmt()
	if !p.failed {
		return stmt
	}

	if p.pos == start {
		p.next()
	}
	p.synchronize()
	p.failed = false

	if isEmptyBad(stmt) {
		return &ast.BadStmt{Base: p.base(p.spanFrom(startOffset))}
	}
	return stmt
}

func isEmptyBad(stmt ast.Stmt) bool {
	es, ok := stmt.(*ast.ExprStmt)
	if !ok {
		return false
	}
	_, bad := es.X.(*ast.BadExpr)
	return bad
}

func (p *parser) parseMetadata() []*ast.Metadata {
	var out []*ast.Metadata
	for p.tok.Kind == token.At {
		start := p.tok.Span.Start
		p.next()

		if !p.tok.IsName() {
			p.errorAt(p.errorSpan(), diagnostic.CodeInvalidMetadata, "expected a name after %q", "@")
			p.synchronize()
			p.failed = false
			continue
		}

		m := &ast.Metadata{Name: p.tok.Text, NameSpan: p.tok.Span}
		p.next()
		switch p.tok.Kind {
		case token.Semicolon, token.At, token.EOF:
		default:
			m.Value = p.parseExpr()
		}
		p.optionalSemicolon()
		m.Base = p.base(p.spanFrom(start))
		out = append(out, m)

		if p.failed {
			p.synchronize()
			p.failed = false
		}
	}
	return out
}

func (p *parser) parseStmt() ast.Stmt {
	start := p.tok.Span.Start

	switch p.tok.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.next()
		return &ast.Empty{Base: p.base(p.spanFrom(start))}
	case token.At:
		p.errorAt(p.tok.Span, diagnostic.CodeInvalidMetadata, "metadata must precede all statements")
		p.next()
		return &ast.BadStmt{Base: p.base(p.spanFrom(start))}
	case token.Apply:
		p.next()
		p.expect(token.LParen)
		target := p.parseExpr()
		p.expect(token.RParen)
		body := p.parseStmt()
		return &ast.Apply{Base: p.base(p.spanFrom(start)), Target: target, Body: body}
	case token.If:
		return p.parseIf()
	case token.Var, token.Val:
		decl := p.parseVarDecl()
		p.optionalSemicolon()
		decl.Range = p.spanFrom(start)
		return decl
	case token.Function:
		if next := p.peek(1); next.Kind == token.Ident || next.Kind == token.QuotedIdent {
			return p.parseFuncDecl()
		}
	case token.Delete:
		p.next()
		target := p.parseExpr()
		p.optionalSemicolon()
		return &ast.Delete{Base: p.base(p.spanFrom(start)), Target: target}
	case token.Return:
		p.next()
		var result ast.Expr
		switch p.tok.Kind {
		case token.Semicolon, token.RBrace, token.EOF:
		default:
			if !p.newlineBefore() {
				result = p.parseExpr()
			}
		}
		p.optionalSemicolon()
		return &ast.Return{Base: p.base(p.spanFrom(start)), Value: result}
	case token.While:
		p.next()
		p.expect(token.LParen)
		cond := p.parseExpr()
		p.expect(token.RParen)
		body := p.parseStmt()
		return &ast.While{Base: p.base(p.spanFrom(start)), Cond: cond, Body: body}
	case token.For:
		return p.parseFor()
	case token.Foreach:
		return p.parseForEach()
	case token.Break:
		p.next()
		p.optionalSemicolon()
		return &ast.Break{Base: p.base(p.spanFrom(start))}
	case token.Continue:
		p.next()
		p.optionalSemicolon()
		return &ast.Continue{Base: p.base(p.spanFrom(start))}
	case token.Import:
		return p.parseImport()
	case token.Set:
		p.next()
		target := p.parseExpr()
		p.expectWord("to")
		v := p.parseExpr()
		p.optionalSemicolon()
		return &ast.Set{Base: p.base(p.spanFrom(start)), Target: target, Value: v}
	case token.Insert:
		p.next()
		v := p.parseExpr()
		p.expectWord("into")
		target := p.parseExpr()
		var at ast.Expr
		if p.tok.Is("at") {
			p.next()
			at = p.parseExpr()
		}
		p.optionalSemicolon()
		return &ast.Insert{Base: p.base(p.spanFrom(start)), Value: v, Target: target, At: at}
	case token.Remove:
		p.next()
		target := p.parseExpr()
		p.optionalSemicolon()
		return &ast.Remove{Base: p.base(p.spanFrom(start)), Target: target}
	case token.Merge:
		p.next()
		v := p.parseExpr()
		p.expectWord("into")
		target := p.parseExpr()
		p.optionalSemicolon()
		return &ast.Merge{Base: p.base(p.spanFrom(start)), Value: v, Target: target}
	}

	x := p.parseExpr()
	p.optionalSemicolon()
	return &ast.ExprStmt{Base: p.base(p.spanFrom(start)), X: x}
}

func (p *parser) parseBlock() *ast.Block {
	start := p.tok.Span.Start
	p.expect(token.LBrace)

	var stmts []ast.Stmt
	for p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
		stmts = append(stmts, p.parseStmtRecover())
	}
	p.expect(token.RBrace)
	return &ast.Block{Base: p.base(p.spanFrom(start)), Stmts: stmts}
}

func (p *parser) parseIf() ast.Stmt {
	start := p.tok.Span.Start
	p.next()
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseStmt()

	var els ast.Stmt
	if p.tok.Kind == token.Else {
		p.next()
		els = p.parseStmt()
	}
	return &ast.If{Base: p.base(p.spanFrom(start)), Cond: cond, Then: then, Else: els}
}

func (p *parser) parseVarDecl() *ast.VarDecl {
	start := p.tok.Span.Start
	mutable := p.tok.Kind == token.Var
	p.next()

	decl := &ast.VarDecl{Mutable: mutable}
	if p.tok.Kind == token.Ident || p.tok.Kind == token.QuotedIdent {
		decl.Name = p.tok.Text
		decl.NameSpan = p.tok.Span
		p.next()
	} else {
		p.unexpected()
	}

	if p.expect(token.Assign) {
		decl.Value = p.parseExpr()
	} else {
		decl.Value = p.badExpr()
	}
	decl.Base = p.base(p.spanFrom(start))
	return decl
}

func (p *parser) parseFuncDecl() ast.Stmt {
	start := p.tok.Span.Start
	p.next()

	decl := &ast.FuncDecl{Name: p.tok.Text, NameSpan: p.tok.Span}
	p.next()
	decl.Params = p.parseParams()
	decl.Body = p.parseBlock()
	decl.Base = p.base(p.spanFrom(start))
	return decl
}

func (p *parser) parseFor() ast.Stmt {
	start := p.tok.Span.Start
	p.next()
	p.expect(token.LParen)

	loop := &ast.For{}
	switch p.tok.Kind {
	case token.Semicolon:
	case token.Var, token.Val:
		loop.Init = p.parseVarDecl()
	default:
		initStart := p.tok.Span.Start
		x := p.parseExpr()
		loop.Init = &ast.ExprStmt{Base: p.base(p.spanFrom(initStart)), X: x}
	}
	p.expect(token.Semicolon)

	if p.tok.Kind != token.Semicolon {
		loop.Cond = p.parseExpr()
	}
	p.expect(token.Semicolon)

	if p.tok.Kind != token.RParen {
		loop.Post = p.parseExpr()
	}
	p.expect(token.RParen)

	loop.Body = p.parseStmt()
	loop.Base = p.base(p.spanFrom(start))
	return loop
}

func (p *parser) parseForEach() ast.Stmt {
	start := p.tok.Span.Start
	p.next()
	p.expect(token.LParen)

	loop := &ast.ForEach{}
	for {
		if p.tok.Kind != token.Ident && p.tok.Kind != token.QuotedIdent {
			p.unexpected()
			break
		}
		loop.Vars = append(loop.Vars, &ast.LoopVar{Base: p.base(p.tok.Span), Name: p.tok.Text})
		p.next()
		if p.tok.Kind != token.Comma || len(loop.Vars) == 2 {
			break
		}
		p.next()
	}

	p.expect(token.In)
	loop.Seq = p.parseExpr()
	p.expect(token.RParen)
	loop.Body = p.parseStmt()
	loop.Base = p.base(p.spanFrom(start))
	return loop
}

func (p *parser) parseImport() ast.Stmt {
	start := p.tok.Span.Start
	p.next()

	imp := &ast.Import{}
	if p.tok.Kind == token.String {
		imp.Path = p.tok.Text
		imp.PathSpan = p.tok.Span
		p.next()
	} else {
		p.unexpected()
	}

	if p.tok.Kind == token.As {
		p.next()
		if p.tok.Kind == token.Ident || p.tok.Kind == token.QuotedIdent {
			imp.Alias = p.tok.Text
			imp.AliasSpan = p.tok.Span
			p.next()
		} else {
			p.unexpected()
		}
	} else {
		imp.Alias = strings.TrimSpace(imp.Path)
	}

	p.optionalSemicolon()
	imp.Base = p.base(p.spanFrom(start))
	return imp
}
