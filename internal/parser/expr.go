package parser

import (
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/token"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// Binary operator precedence, lowest first. Assignment and the conditional
// operator sit below these and are parsed separately.
const (
	precLowest = iota + 1
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
	precPower
)

func precedence(kind token.Kind) int {
	switch kind {
	case token.Or:
		return precOr
	case token.And:
		return precAnd
	case token.BitOr:
		return precBitOr
	case token.BitXor:
		return precBitXor
	case token.BitAnd:
		return precBitAnd
	case token.Eq, token.NotEq:
		return precEquality
	case token.Less, token.LessEq, token.Greater, token.GreaterEq, token.In, token.Is:
		return precComparison
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	case token.Pow:
		return precPower
	}
	return 0
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

func (p *parser) parseAssign() ast.Expr {
	target := p.parseConditional()
	if !p.tok.Kind.IsAssignment() {
		return target
	}

	op := p.tok.Kind
	p.next()
	v := p.parseAssign()
	return &ast.Assign{Base: p.base(target.Span().Cover(v.Span())), Op: op, Target: target, Value: v}
}

func (p *parser) parseConditional() ast.Expr {
	cond := p.parseBinary(precOr)
	if p.tok.Kind != token.Question {
		return cond
	}

	p.next()
	then := p.parseAssign()
	p.expect(token.Colon)
	els := p.parseConditional()
	return &ast.Conditional{Base: p.base(cond.Span().Cover(els.Span())), Cond: cond, Then: then, Else: els}
}

// parseBinary implements precedence climbing over the binary operators.
func (p *parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		op := p.tok.Kind
		prec := precedence(op)
		if prec == 0 || prec < minPrec {
			return left
		}
		opSpan := p.tok.Span
		p.next()

		if op == token.Is {
			left = p.parseTypeTest(left)
			continue
		}

		next := prec + 1
		if op == token.Pow {
			next = prec
		}
		right := p.parseBinary(next)
		left = &ast.Binary{
			Base:   p.base(left.Span().Cover(right.Span())),
			Op:     op,
			OpSpan: opSpan,
			X:      left,
			Y:      right,
		}
	}
}

func (p *parser) parseTypeTest(x ast.Expr) ast.Expr {
	if !p.tok.IsName() {
		p.unexpected()
		bad := p.badExpr()
		return &ast.TypeTest{Base: p.base(x.Span().Cover(bad.Span())), X: x}
	}

	test := &ast.TypeTest{X: x, TypeName: p.tok.Text, TypeSpan: p.tok.Span}
	p.next()
	test.Base = p.base(x.Span().Cover(test.TypeSpan))
	return test
}

func (p *parser) parseUnary() ast.Expr {
	start := p.tok.Span.Start
	op := p.tok.Kind
	opSpan := p.tok.Span

	switch op {
	case token.Minus, token.Not, token.Tilde:
		p.next()
		x := p.parseUnary()
		return &ast.Unary{Base: p.base(p.spanFrom(start)), Op: op, OpSpan: opSpan, X: x}
	case token.Inc, token.Dec:
		p.next()
		x := p.parseUnary()
		return &ast.IncDec{Base: p.base(p.spanFrom(start)), Op: op, Prefix: true, Target: x}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	start := x.Span().Start

	for {
		switch p.tok.Kind {
		case token.Dot:
			p.next()
			if !p.tok.IsName() {
				p.unexpected()
				return x
			}
			name := p.tok
			p.next()
			x = &ast.Member{Base: p.base(p.spanFrom(start)), X: x, Name: name.Text, NameSpan: name.Span}
		case token.LBracket:
			if p.newlineBefore() {
				return x
			}
			p.next()
			index := p.parseExpr()
			p.expect(token.RBracket)
			x = &ast.Index{Base: p.base(p.spanFrom(start)), X: x, Index: index}
		case token.LParen:
			if p.newlineBefore() {
				return x
			}
			args := p.parseArgs()
			x = &ast.Call{Base: p.base(p.spanFrom(start)), Fn: x, Args: args}
		case token.Inc, token.Dec:
			if p.newlineBefore() {
				return x
			}
			op := p.tok.Kind
			p.next()
			x = &ast.IncDec{Base: p.base(p.spanFrom(start)), Op: op, Target: x}
		default:
			return x
		}
	}
}

// newlineBefore reports whether a line break separates the current token
// from the previous one.
func (p *parser) newlineBefore() bool {
	gap := p.file.Slice(source.NewSpan(p.prev().Span.End, p.tok.Span.Start))
	return strings.ContainsAny(gap, "\n")
}

func (p *parser) parseArgs() []ast.Expr {
	p.expect(token.LParen)

	var args []ast.Expr
	for p.tok.Kind != token.RParen && p.tok.Kind != token.EOF {
		args = append(args, p.parseExpr())
		if p.tok.Kind != token.Comma {
			break
		}
		p.next()
	}
	p.expect(token.RParen)
	return args
}

func (p *parser) badExpr() ast.Expr {
	return &ast.BadExpr{Base: p.base(p.errorSpan())}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.tok
	start := tok.Span.Start

	switch tok.Kind {
	case token.Number:
		p.next()
		return &ast.Literal{Base: p.base(tok.Span), Value: tok.Number}
	case token.String:
		p.next()
		return &ast.Literal{Base: p.base(tok.Span), Value: value.String(tok.Text)}
	case token.True:
		p.next()
		return &ast.Literal{Base: p.base(tok.Span), Value: value.Bool(true)}
	case token.False:
		p.next()
		return &ast.Literal{Base: p.base(tok.Span), Value: value.Bool(false)}
	case token.Null:
		p.next()
		return &ast.Literal{Base: p.base(tok.Span), Value: value.Null{}}
	case token.Ident, token.QuotedIdent:
		p.next()
		return &ast.Ident{Base: p.base(tok.Span), Name: tok.Text}
	case token.Dollar:
		p.next()
		root := &ast.Root{Base: p.base(tok.Span)}
		if name := p.tok; name.IsName() && name.Span.Start == tok.Span.End {
			p.next()
			return &ast.Member{Base: p.base(p.spanFrom(start)), X: root, Name: name.Text, NameSpan: name.Span}
		}
		return root
	case token.LParen:
		if p.isArrow() {
			return p.parseArrow()
		}
		p.next()
		x := p.parseExpr()
		p.expect(token.RParen)
		return x
	case token.Function:
		p.next()
		params := p.parseParams()
		body := p.parseBlock()
		return &ast.FuncLit{Base: p.base(p.spanFrom(start)), Params: params, Body: body}
	case token.LBracket:
		return p.parseArrayLit()
	case token.LBrace:
		return p.parseObjectLit()
	}

	p.unexpected()
	return p.badExpr()
}

// isArrow reports whether the parenthesis at the current token closes a
// parameter list followed by `->`.
func (p *parser) isArrow() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Kind == token.Arrow
			}
		case token.EOF:
			return false
		}
	}
	return false
}

func (p *parser) parseArrow() ast.Expr {
	start := p.tok.Span.Start
	params := p.parseParams()
	p.expect(token.Arrow)

	fn := &ast.FuncLit{Params: params}
	if p.tok.Kind == token.LBrace {
		fn.Body = p.parseBlock()
	} else {
		fn.Result = p.parseAssign()
	}
	fn.Base = p.base(p.spanFrom(start))
	return fn
}

// parseParams parses `(a, b = 1, rest*)` and validates its shape.
func (p *parser) parseParams() []*ast.Param {
	p.expect(token.LParen)

	var params []*ast.Param
	for p.tok.Kind == token.Ident || p.tok.Kind == token.QuotedIdent {
		start := p.tok.Span.Start
		param := &ast.Param{Name: p.tok.Text}
		p.next()
		if p.tok.Kind == token.Star {
			param.Variadic = true
			p.next()
		}
		if p.tok.Kind == token.Assign {
			p.next()
			param.Default = p.parseConditional()
		}
		param.Base = p.base(p.spanFrom(start))
		params = append(params, param)

		if p.tok.Kind != token.Comma {
			break
		}
		p.next()
	}
	p.expect(token.RParen)

	p.validateParams(params)
	return params
}

func (p *parser) validateParams(params []*ast.Param) {
	seen := make(map[string]bool, len(params))
	optional := false
	for i, param := range params {
		switch {
		case seen[param.Name]:
			p.report(param.Span(), diagnostic.CodeInvalidParameters, "duplicate parameter %q", param.Name)
		case param.Variadic && param.Default != nil:
			p.report(param.Span(), diagnostic.CodeInvalidParameters, "variadic parameter %q cannot have a default", param.Name)
		case param.Variadic && i != len(params)-1:
			p.report(param.Span(), diagnostic.CodeInvalidParameters, "variadic parameter %q must be last", param.Name)
		case optional && param.Default == nil && !param.Variadic:
			p.report(param.Span(), diagnostic.CodeInvalidParameters, "required parameter %q follows an optional one", param.Name)
		}
		seen[param.Name] = true
		if param.Default != nil {
			optional = true
		}
	}
}

func (p *parser) parseArrayLit() ast.Expr {
	start := p.tok.Span.Start
	p.next()

	var elements []ast.Expr
	for p.tok.Kind != token.RBracket && p.tok.Kind != token.EOF {
		elements = append(elements, p.parseExpr())
		if p.tok.Kind != token.Comma {
			break
		}
		p.next()
	}
	p.expect(token.RBracket)
	return &ast.ArrayLit{Base: p.base(p.spanFrom(start)), Elements: elements}
}

func (p *parser) parseObjectLit() ast.Expr {
	start := p.tok.Span.Start
	p.next()

	var fields []*ast.Field
	for p.tok.Kind != token.RBrace && p.tok.Kind != token.EOF {
		key := p.tok
		switch {
		case key.IsName() || key.Kind == token.String:
			p.next()
		case key.Kind == token.Number:
			key.Text = key.Lexeme
			p.next()
		default:
			p.unexpected()
			p.skipTo(token.RBrace)
			p.expect(token.RBrace)
			return &ast.ObjectLit{Base: p.base(p.spanFrom(start)), Fields: fields}
		}

		p.expect(token.Colon)
		fields = append(fields, &ast.Field{Key: key.Text, KeySpan: key.Span, Value: p.parseExpr()})
		if p.tok.Kind != token.Comma {
			break
		}
		p.next()
	}
	p.expect(token.RBrace)
	return &ast.ObjectLit{Base: p.base(p.spanFrom(start)), Fields: fields}
}

// skipTo advances to the given closing token at the current nesting level.
func (p *parser) skipTo(kind token.Kind) {
	depth := 0
	for p.tok.Kind != token.EOF {
		switch p.tok.Kind {
		case token.LBrace, token.LBracket, token.LParen:
			depth++
		case token.RBrace, token.RBracket, token.RParen:
			if depth == 0 && p.tok.Kind == kind {
				return
			}
			depth--
		}
		p.next()
	}
}
