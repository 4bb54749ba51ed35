// Package token defines the lexical vocabulary of the patch language.
package token

import (
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Illegal

	Ident
	QuotedIdent
	Number
	String

	keywordStart
	True
	False
	Null
	Apply
	If
	Else
	In
	Is
	Var
	Val
	Delete
	Function
	Return
	Import
	While
	For
	Foreach
	Break
	Continue
	As
	Set
	Insert
	Remove
	Merge
	keywordEnd

	Assign
	Eq
	NotEq
	Less
	Greater
	LessEq
	GreaterEq
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	AndAssign
	OrAssign
	XorAssign
	BitAnd
	BitOr
	BitXor
	And
	Or
	Dec
	Inc
	Pow
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Dot
	Comma
	Colon
	Semicolon
	Not
	Question
	Dollar
	At
	Arrow
	Minus
	Plus
	Star
	Slash
	Percent
	Tilde
)

var names = map[Kind]string{
	EOF:         "end of input",
	Illegal:     "illegal character",
	Ident:       "identifier",
	QuotedIdent: "quoted identifier",
	Number:      "number",
	String:      "string",

	True:     "true",
	False:    "false",
	Null:     "null",
	Apply:    "apply",
	If:       "if",
	Else:     "else",
	In:       "in",
	Is:       "is",
	Var:      "var",
	Val:      "val",
	Delete:   "delete",
	Function: "function",
	Return:   "return",
	Import:   "import",
	While:    "while",
	For:      "for",
	Foreach:  "foreach",
	Break:    "break",
	Continue: "continue",
	As:       "as",
	Set:      "set",
	Insert:   "insert",
	Remove:   "remove",
	Merge:    "merge",

	Assign:    "=",
	Eq:        "==",
	NotEq:     "!=",
	Less:      "<",
	Greater:   ">",
	LessEq:    "<=",
	GreaterEq: ">=",
	AddAssign: "+=",
	SubAssign: "-=",
	MulAssign: "*=",
	DivAssign: "/=",
	ModAssign: "%=",
	AndAssign: "&=",
	OrAssign:  "|=",
	XorAssign: "^=",
	BitAnd:    "&",
	BitOr:     "|",
	BitXor:    "^",
	And:       "&&",
	Or:        "||",
	Dec:       "--",
	Inc:       "++",
	Pow:       "**",
	LBrace:    "{",
	RBrace:    "}",
	LParen:    "(",
	RParen:    ")",
	LBracket:  "[",
	RBracket:  "]",
	Dot:       ".",
	Comma:     ",",
	Colon:     ":",
	Semicolon: ";",
	Not:       "!",
	Question:  "?",
	Dollar:    "$",
	At:        "@",
	Arrow:     "->",
	Minus:     "-",
	Plus:      "+",
	Star:      "*",
	Slash:     "/",
	Percent:   "%",
	Tilde:     "~",
}

func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return "unknown"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k > keywordStart && k < keywordEnd
}

// IsAssignment reports whether k is `=` or a compound assignment operator.
func (k Kind) IsAssignment() bool {
	switch k {
	case Assign, AddAssign, SubAssign, MulAssign, DivAssign, ModAssign, AndAssign, OrAssign, XorAssign:
		return true
	}
	return false
}

// BinaryFor maps a compound assignment to the operator it applies.
func BinaryFor(k Kind) (Kind, bool) {
	switch k {
	case AddAssign:
		return Plus, true
	case SubAssign:
		return Minus, true
	case MulAssign:
		return Star, true
	case DivAssign:
		return Slash, true
	case ModAssign:
		return Percent, true
	case AndAssign:
		return BitAnd, true
	case OrAssign:
		return BitOr, true
	case XorAssign:
		return BitXor, true
	}
	return 0, false
}

var keywords = func() map[string]Kind {
	out := make(map[string]Kind, int(keywordEnd-keywordStart))
	for k := keywordStart + 1; k < keywordEnd; k++ {
		out[names[k]] = k
	}
	return out
}()

// Lookup returns the keyword kind for an identifier, or Ident.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// Keywords lists every reserved word in declaration order.
func Keywords() []string {
	out := make([]string, 0, int(keywordEnd-keywordStart-1))
	for k := keywordStart + 1; k < keywordEnd; k++ {
		out = append(out, names[k])
	}
	return out
}

// Token is one lexeme. Lexeme is the exact source slice; Text holds the
// decoded content of identifiers and strings; Number holds numeric literals.
type Token struct {
	Kind   Kind
	Lexeme string
	Text   string
	Number value.Number
	Span   source.Span
}

// IsName reports whether the token can serve as a property or member name,
// which includes keywords.
func (t Token) IsName() bool {
	return t.Kind == Ident || t.Kind == QuotedIdent || t.Kind.IsKeyword()
}

// Is reports whether t is the plain identifier word, used for the contextual
// words `to`, `into` and `at`.
func (t Token) Is(word string) bool {
	return t.Kind == Ident && t.Text == word
}
