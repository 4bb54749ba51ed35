package lexer

import (
	"strings"
	"testing"

	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/token"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

func tokenize(t *testing.T, text string) ([]token.Token, []diagnostic.Diagnostic) {
	t.Helper()

	file := source.NewFile("test", text)
	diags := diagnostic.NewCollector(file)
	return Tokenize(file, diags), diags.Snapshot()
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "patch",
			input: `set $.a to 5`,
			want:  []token.Kind{token.Set, token.Dollar, token.Dot, token.Ident, token.Ident, token.Number, token.EOF},
		},
		{
			name:  "operators",
			input: `a += b ** 2 -> c-- >= !d`,
			want: []token.Kind{
				token.Ident, token.AddAssign, token.Ident, token.Pow, token.Number, token.Arrow,
				token.Ident, token.Dec, token.GreaterEq, token.Not, token.Ident, token.EOF,
			},
		},
		{
			name:  "keywords_and_names",
			input: `foreach (k, v in $obj) val x$1 = 'odd key'`,
			want: []token.Kind{
				token.Foreach, token.LParen, token.Ident, token.Comma, token.Ident, token.In,
				token.Dollar, token.Ident, token.RParen, token.Val, token.Ident, token.Assign,
				token.QuotedIdent, token.EOF,
			},
		},
		{
			name:  "member_on_number",
			input: `1.foo 2.5`,
			want:  []token.Kind{token.Number, token.Dot, token.Ident, token.Number, token.EOF},
		},
		{
			name:  "comment",
			input: "a # trailing ; stuff\nb",
			want:  []token.Kind{token.Ident, token.Ident, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tokens, diags := tokenize(t, tt.input)
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			got := kinds(tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("kinds = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("kinds[%d] = %v, want %v (all: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  value.Number
	}{
		{input: "42", want: value.Int(42)},
		{input: "2.5", want: value.Float(2.5)},
		{input: "1e3", want: value.Float(1000)},
		{input: "1E-2", want: value.Float(0.01)},
		{input: "99999999999999999999", want: value.Float(1e20)},
	}

	for _, tt := range tests {
		tokens, diags := tokenize(t, tt.input)
		if len(diags) != 0 {
			t.Fatalf("Tokenize(%q) diagnostics = %v", tt.input, diags)
		}
		got := tokens[0].Number
		if got.IsInt() != tt.want.IsInt() || !got.Equal(tt.want) {
			t.Fatalf("Tokenize(%q) number = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	t.Parallel()

	tokens, diags := tokenize(t, `"a\n\t\"\x41é😀\0"`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got, want := tokens[0].Text, "a\n\t\"Aé😀\x00"; got != want {
		t.Fatalf("Text = %q, want %q", got, want)
	}
}

func TestLexicalDiagnostics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantCode diagnostic.Code
		wantKind token.Kind
	}{
		{name: "unterminated", input: "\"abc\nx", wantCode: diagnostic.CodeUnterminatedString, wantKind: token.String},
		{name: "bad_escape", input: `"\q"`, wantCode: diagnostic.CodeInvalidEscape, wantKind: token.String},
		{name: "bad_hex", input: `"\xZZ"`, wantCode: diagnostic.CodeInvalidEscape, wantKind: token.String},
		{name: "dangling_exponent", input: `1e+`, wantCode: diagnostic.CodeMalformedNumber, wantKind: token.Number},
		{name: "unknown_char", input: "`", wantCode: diagnostic.CodeUnexpectedCharacter, wantKind: token.Illegal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tokens, diags := tokenize(t, tt.input)
			if len(diags) != 1 || diags[0].Code != tt.wantCode {
				t.Fatalf("diagnostics = %v, want one %s", diags, tt.wantCode)
			}
			if diags[0].Stage != diagnostic.StageLex {
				t.Fatalf("Stage = %q, want lex", diags[0].Stage)
			}
			if tokens[0].Kind != tt.wantKind {
				t.Fatalf("first token = %v, want %v", tokens[0].Kind, tt.wantKind)
			}
		})
	}
}

var roundTripInputs = []string{
	"set $.a to 5\n",
	"# header\nvar x = \"é\\n\" ; x++ # done",
	"function f(a, b = 2, c*) { return a ** b }\n\tremove $.list[-1]",
	"\"unterminated\n`odd` 1e",
}

// assertRoundTrip checks that the tokens and the text between them rebuild
// input exactly and that the stream ends with a zero-width EOF.
func assertRoundTrip(t *testing.T, input string) {
	t.Helper()

	tokens, _ := tokenize(t, input)

	var b strings.Builder
	prev := 0
	for _, tok := range tokens {
		if tok.Span.Start < prev || tok.Span.End < tok.Span.Start {
			t.Fatalf("token %+v overlaps previous end %d", tok, prev)
		}
		b.WriteString(input[prev:tok.Span.Start])
		b.WriteString(tok.Lexeme)
		prev = tok.Span.End
	}
	b.WriteString(input[prev:])

	if b.String() != input {
		t.Fatalf("round trip = %q, want %q", b.String(), input)
	}
	if last := tokens[len(tokens)-1]; last.Kind != token.EOF || last.Span.Len() != 0 {
		t.Fatalf("last token = %+v, want zero-width EOF", last)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, input := range roundTripInputs {
		assertRoundTrip(t, input)
	}
}

func FuzzRoundTrip(f *testing.F) {
	for _, input := range roundTripInputs {
		f.Add(input)
	}
	f.Add("")
	f.Add("set $.a to \"\xff\xfe\"")
	f.Add("var \xc3 = 1 \x80")
	f.Add("\"\\uD800\" 0x 1e+ `")

	f.Fuzz(func(t *testing.T, input string) {
		assertRoundTrip(t, input)
	})
}

func TestResetDoesNotDuplicateDiagnostics(t *testing.T) {
	t.Parallel()

	file := source.NewFile("test", "a ` b # note")
	diags := diagnostic.NewCollector(file)
	l := New(file, diags)

	first := drain(l)
	l.Reset()
	second := drain(l)

	if len(first) != len(second) {
		t.Fatalf("token counts differ after Reset: %d vs %d", len(first), len(second))
	}
	if diags.Len() != 1 {
		t.Fatalf("diagnostics = %d, want 1", diags.Len())
	}
	if comments := l.Comments(); len(comments) != 1 || comments[0].Text != " note" {
		t.Fatalf("Comments() = %+v, want one \" note\"", comments)
	}
}

func drain(l *Lexer) []token.Token {
	var out []token.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}
