// Package lexer turns source text into tokens on demand.
package lexer

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/token"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// Comment is a `#` comment with its text after the marker.
type Comment struct {
	Text string
	Span source.Span
}

// Lexer produces tokens lazily. After Reset it starts over from the
// beginning; diagnostics are only reported the first time a region is
// scanned.
type Lexer struct {
	file     *source.File
	src      string
	pos      int
	reported int
	diags    *diagnostic.Collector
	comments []Comment
}

// New returns a lexer over file reporting into diags. diags may be nil.
func New(file *source.File, diags *diagnostic.Collector) *Lexer {
	return &Lexer{file: file, src: file.Text(), diags: diags}
}

// Tokenize collects every token including the trailing EOF.
func Tokenize(file *source.File, diags *diagnostic.Collector) []token.Token {
	l := New(file, diags)
	var out []token.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// Reset rewinds to the start of the source.
func (l *Lexer) Reset() {
	l.pos = 0
	l.comments = l.comments[:0]
}

// Comments returns the comments skipped so far, in source order.
func (l *Lexer) Comments() []Comment {
	return append([]Comment(nil), l.comments...)
}

func (l *Lexer) report(code diagnostic.Code, span source.Span, format string, args ...any) {
	if l.diags == nil || span.Start < l.reported {
		return
	}
	l.diags.Add(code, span, format, args...)
}

// Next returns the next token. At the end of input it keeps returning a
// zero-width EOF token.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()
	tok := l.scan()
	if tok.Span.End > l.reported {
		l.reported = tok.Span.End
	}
	return tok
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		switch ch := l.src[l.pos]; {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.pos++
		case ch == '#':
			start := l.pos
			end := strings.IndexByte(l.src[start:], '\n')
			if end < 0 {
				end = len(l.src)
			} else {
				end += start
			}
			text := strings.TrimSuffix(l.src[start+1:end], "\r")
			l.comments = append(l.comments, Comment{Text: text, Span: source.NewSpan(start, end)})
			l.pos = end
		default:
			return
		}
	}
}

func (l *Lexer) make(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Lexeme: l.src[start:l.pos], Span: source.NewSpan(start, l.pos)}
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *Lexer) scan() token.Token {
	start := l.pos
	if start >= len(l.src) {
		return token.Token{Kind: token.EOF, Span: source.NewSpan(start, start)}
	}

	ch := l.src[start]
	switch {
	case isIdentStart(ch):
		l.pos++
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		tok := l.make(token.Lookup(l.src[start:l.pos]), start)
		tok.Text = tok.Lexeme
		return tok
	case isDigit(ch):
		return l.scanNumber(start)
	case ch == '"':
		return l.scanQuoted(start, '"', token.String)
	case ch == '\'':
		return l.scanQuoted(start, '\'', token.QuotedIdent)
	}

	if kind, width := l.operator(); width > 0 {
		l.pos += width
		return l.make(kind, start)
	}

	_, size := utf8.DecodeRuneInString(l.src[start:])
	l.pos += size
	tok := l.make(token.Illegal, start)
	l.report(diagnostic.CodeUnexpectedCharacter, tok.Span, "unexpected character %q", tok.Lexeme)
	return tok
}

// operator matches the longest operator at the current position.
func (l *Lexer) operator() (token.Kind, int) {
	next := l.peekByte(1)
	switch l.src[l.pos] {
	case '=':
		if next == '=' {
			return token.Eq, 2
		}
		return token.Assign, 1
	case '!':
		if next == '=' {
			return token.NotEq, 2
		}
		return token.Not, 1
	case '<':
		if next == '=' {
			return token.LessEq, 2
		}
		return token.Less, 1
	case '>':
		if next == '=' {
			return token.GreaterEq, 2
		}
		return token.Greater, 1
	case '+':
		switch next {
		case '+':
			return token.Inc, 2
		case '=':
			return token.AddAssign, 2
		}
		return token.Plus, 1
	case '-':
		switch next {
		case '-':
			return token.Dec, 2
		case '=':
			return token.SubAssign, 2
		case '>':
			return token.Arrow, 2
		}
		return token.Minus, 1
	case '*':
		switch next {
		case '*':
			return token.Pow, 2
		case '=':
			return token.MulAssign, 2
		}
		return token.Star, 1
	case '/':
		if next == '=' {
			return token.DivAssign, 2
		}
		return token.Slash, 1
	case '%':
		if next == '=' {
			return token.ModAssign, 2
		}
		return token.Percent, 1
	case '&':
		switch next {
		case '&':
			return token.And, 2
		case '=':
			return token.AndAssign, 2
		}
		return token.BitAnd, 1
	case '|':
		switch next {
		case '|':
			return token.Or, 2
		case '=':
			return token.OrAssign, 2
		}
		return token.BitOr, 1
	case '^':
		if next == '=' {
			return token.XorAssign, 2
		}
		return token.BitXor, 1
	case '{':
		return token.LBrace, 1
	case '}':
		return token.RBrace, 1
	case '(':
		return token.LParen, 1
	case ')':
		return token.RParen, 1
	case '[':
		return token.LBracket, 1
	case ']':
		return token.RBracket, 1
	case '.':
		return token.Dot, 1
	case ',':
		return token.Comma, 1
	case ':':
		return token.Colon, 1
	case ';':
		return token.Semicolon, 1
	case '?':
		return token.Question, 1
	case '$':
		return token.Dollar, 1
	case '@':
		return token.At, 1
	case '~':
		return token.Tilde, 1
	}
	return token.Illegal, 0
}

func (l *Lexer) scanDigits() int {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	return l.pos - start
}

func (l *Lexer) scanNumber(start int) token.Token {
	l.scanDigits()
	isFloat := false

	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		l.pos++
		l.scanDigits()
		isFloat = true
	}

	if c := l.peekByte(0); c == 'e' || c == 'E' {
		l.pos++
		if c := l.peekByte(0); c == '+' || c == '-' {
			l.pos++
		}
		if l.scanDigits() == 0 {
			tok := l.make(token.Number, start)
			tok.Number = value.Int(0)
			l.report(diagnostic.CodeMalformedNumber, tok.Span, "malformed number %q: exponent has no digits", tok.Lexeme)
			return tok
		}
		isFloat = true
	}

	tok := l.make(token.Number, start)
	if !isFloat {
		if i, err := strconv.ParseInt(tok.Lexeme, 10, 64); err == nil {
			tok.Number = value.Int(i)
			return tok
		}
	}

	// the lexeme is well formed here, so only range errors remain and
	// ParseFloat already saturates those
	f, _ := strconv.ParseFloat(tok.Lexeme, 64)
	tok.Number = value.Float(f)
	return tok
}

// scanQuoted reads a string or quoted identifier. Problems are reported but
// a token with the text decoded so far is always produced.
func (l *Lexer) scanQuoted(start int, quote byte, kind token.Kind) token.Token {
	l.pos++
	var b strings.Builder

	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' || l.src[l.pos] == '\r' {
			tok := l.make(kind, start)
			tok.Text = b.String()
			l.report(diagnostic.CodeUnterminatedString, tok.Span, "unterminated %s", kind)
			return tok
		}

		ch := l.src[l.pos]
		switch ch {
		case quote:
			l.pos++
			tok := l.make(kind, start)
			tok.Text = b.String()
			return tok
		case '\\':
			l.scanEscape(&b)
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			b.WriteRune(r)
			l.pos += size
		}
	}
}

func (l *Lexer) scanEscape(b *strings.Builder) {
	start := l.pos
	l.pos++
	if l.pos >= len(l.src) {
		return
	}

	ch := l.src[l.pos]
	l.pos++
	switch ch {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case '0':
		b.WriteByte(0)
	case '"', '\'', '\\':
		b.WriteByte(ch)
	case 'x':
		if r, ok := l.scanHex(2); ok {
			b.WriteRune(r)
			return
		}
		l.report(diagnostic.CodeInvalidEscape, source.NewSpan(start, l.pos), "invalid hex escape %q", l.src[start:l.pos])
	case 'u':
		r, ok := l.scanHex(4)
		if !ok {
			l.report(diagnostic.CodeInvalidEscape, source.NewSpan(start, l.pos), "invalid unicode escape %q", l.src[start:l.pos])
			return
		}
		if utf16.IsSurrogate(r) && l.peekByte(0) == '\\' && l.peekByte(1) == 'u' {
			save := l.pos
			l.pos += 2
			if low, ok := l.scanHex(4); ok {
				if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
					b.WriteRune(pair)
					return
				}
			}
			l.pos = save
		}
		b.WriteRune(r)
	default:
		if ch == '\n' || ch == '\r' {
			l.pos--
		}
		l.report(diagnostic.CodeInvalidEscape, source.NewSpan(start, l.pos), "invalid escape sequence %q", l.src[start:l.pos])
	}
}

// scanHex consumes up to n hex digits and decodes them when all n are present.
func (l *Lexer) scanHex(n int) (rune, bool) {
	var r rune
	for i := 0; i < n; i++ {
		d, ok := hexValue(l.peekByte(0))
		if !ok {
			return utf8.RuneError, false
		}
		r = r<<4 | d
		l.pos++
	}
	return r, true
}

func hexValue(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
