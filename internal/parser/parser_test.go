package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

func parse(t *testing.T, text string) (*ast.Program, []diagnostic.Diagnostic) {
	t.Helper()

	file := source.NewFile("test", text)
	diags := diagnostic.NewCollector(file)
	prog := Parse(file, diags)
	return prog, diags.Snapshot()
}

func parseClean(t *testing.T, text string) *ast.Program {
	t.Helper()

	prog, diags := parse(t, text)
	if len(diags) != 0 {
		t.Fatalf("Parse(%q) diagnostics = %v", text, diags)
	}
	return prog
}

// sexpr renders an expression in prefix form for precedence checks.
func sexpr(e ast.Expr) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case *ast.Literal:
		return value.Format(e.Value)
	case *ast.Ident:
		return e.Name
	case *ast.Root:
		return "$"
	case *ast.Member:
		return fmt.Sprintf("(. %s %s)", sexpr(e.X), e.Name)
	case *ast.Index:
		return fmt.Sprintf("([] %s %s)", sexpr(e.X), sexpr(e.Index))
	case *ast.Call:
		parts := []string{"call", sexpr(e.Fn)}
		for _, arg := range e.Args {
			parts = append(parts, sexpr(arg))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.Unary:
		return fmt.Sprintf("(%s %s)", e.Op, sexpr(e.X))
	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", e.Op, sexpr(e.X), sexpr(e.Y))
	case *ast.Conditional:
		return fmt.Sprintf("(? %s %s %s)", sexpr(e.Cond), sexpr(e.Then), sexpr(e.Else))
	case *ast.Assign:
		return fmt.Sprintf("(%s %s %s)", e.Op, sexpr(e.Target), sexpr(e.Value))
	case *ast.IncDec:
		if e.Prefix {
			return fmt.Sprintf("(%s. %s)", e.Op, sexpr(e.Target))
		}
		return fmt.Sprintf("(.%s %s)", e.Op, sexpr(e.Target))
	case *ast.TypeTest:
		return fmt.Sprintf("(is %s %s)", sexpr(e.X), e.TypeName)
	case *ast.ArrayLit:
		parts := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			parts[i] = sexpr(el)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *ast.ObjectLit:
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Key + ":" + sexpr(f.Value)
		}
		return "{" + strings.Join(parts, " ") + "}"
	case *ast.FuncLit:
		names := make([]string, len(e.Params))
		for i, param := range e.Params {
			names[i] = param.Name
		}
		if e.Result != nil {
			return fmt.Sprintf("(fn (%s) %s)", strings.Join(names, " "), sexpr(e.Result))
		}
		return fmt.Sprintf("(fn (%s) {...})", strings.Join(names, " "))
	case *ast.BadExpr:
		return "<bad>"
	}
	return fmt.Sprintf("<%T>", e)
}

func TestExpressionPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "1 + 2 * 3", want: "(+ 1 (* 2 3))"},
		{input: "1 - 2 - 3", want: "(- (- 1 2) 3)"},
		{input: "2 ** 3 ** 2", want: "(** 2 (** 3 2))"},
		{input: "-2 ** 2", want: "(** (- 2) 2)"},
		{input: "a || b && c", want: "(|| a (&& b c))"},
		{input: "a | b ^ c & d", want: "(| a (^ b (& c d)))"},
		{input: "a == b < c", want: "(== a (< b c))"},
		{input: "a = b = c", want: "(= a (= b c))"},
		{input: "a ? b : c ? d : e", want: "(? a b (? c d e))"},
		{input: "x += a ? 1 : 2", want: "(+= x (? a 1 2))"},
		{input: "$.a.b[0](1, 2)", want: "(call ([] (. (. $ a) b) 0) 1 2)"},
		{input: "$name.x", want: "(. (. $ name) x)"},
		{input: "$ .name", want: "(. $ name)"},
		{input: "!a.b++", want: "(! (.++ (. a b)))"},
		{input: "++a.b", want: "(++. (. a b))"},
		{input: "x is number && y in list", want: "(&& (is x number) (in y list))"},
		{input: "a.if.null", want: "(. (. a if) null)"},
		{input: "(a, b = 2) -> a + b", want: "(fn (a b) (+ a b))"},
		{input: "(a + b) * c", want: "(* (+ a b) c)"},
		{input: `{a: 1, "b c": [1, 2], if: null}`, want: "{a:1 b c:[1 2] if:null}"},
		{input: "~1 & 3", want: "(& (~ 1) 3)"},
		{input: "'odd name' + 1", want: "(+ odd name 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			file := source.NewFile("test", tt.input)
			diags := diagnostic.NewCollector(file)
			got := sexpr(ParseExpression(file, diags))
			if diags.Len() != 0 {
				t.Fatalf("ParseExpression(%q) diagnostics = %v", tt.input, diags.Snapshot())
			}
			if got != tt.want {
				t.Fatalf("ParseExpression(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestPatchStatements(t *testing.T) {
	t.Parallel()

	prog := parseClean(t, `
set $.a to 5
insert 1 into $.list at 0; insert 2 into $.list
remove $.old
merge {x: 1} into $.cfg
delete $.gone
`)

	if len(prog.Stmts) != 6 {
		t.Fatalf("len(Stmts) = %d, want 6", len(prog.Stmts))
	}

	set := prog.Stmts[0].(*ast.Set)
	if sexpr(set.Target) != "(. $ a)" || sexpr(set.Value) != "5" {
		t.Fatalf("set = %s to %s", sexpr(set.Target), sexpr(set.Value))
	}
	insert := prog.Stmts[1].(*ast.Insert)
	if sexpr(insert.At) != "0" || sexpr(insert.Target) != "(. $ list)" {
		t.Fatalf("insert at = %s into %s", sexpr(insert.At), sexpr(insert.Target))
	}
	if appendInsert := prog.Stmts[2].(*ast.Insert); appendInsert.At != nil {
		t.Fatalf("second insert At = %s, want nil", sexpr(appendInsert.At))
	}
	if _, ok := prog.Stmts[3].(*ast.Remove); !ok {
		t.Fatalf("Stmts[3] = %T, want *ast.Remove", prog.Stmts[3])
	}
	if merge := prog.Stmts[4].(*ast.Merge); sexpr(merge.Value) != "{x:1}" {
		t.Fatalf("merge value = %s", sexpr(merge.Value))
	}
	if _, ok := prog.Stmts[5].(*ast.Delete); !ok {
		t.Fatalf("Stmts[5] = %T, want *ast.Delete", prog.Stmts[5])
	}
}

func TestDanglingElseBindsInnermost(t *testing.T) {
	t.Parallel()

	prog := parseClean(t, "if (a) if (b) x = 1 else x = 2")

	outer := prog.Stmts[0].(*ast.If)
	if outer.Else != nil {
		t.Fatalf("outer if has else branch")
	}
	inner, ok := outer.Then.(*ast.If)
	if !ok || inner.Else == nil {
		t.Fatalf("inner if = %#v, want else branch", outer.Then)
	}
}

func TestControlFlowStatements(t *testing.T) {
	t.Parallel()

	prog := parseClean(t, `
# adds things
function add(a, b = 1, rest*) {
  return a + b
}
for (var i = 0; i < 3; i++) { continue }
foreach (k, v in $obj) { break }
while (true) {}
apply ($.inner) set $.x to 1
import "helpers" as h
`)

	wantTypes := []string{"*ast.FuncDecl", "*ast.For", "*ast.ForEach", "*ast.While", "*ast.Apply", "*ast.Import"}
	if len(prog.Stmts) != len(wantTypes) {
		t.Fatalf("len(Stmts) = %d, want %d", len(prog.Stmts), len(wantTypes))
	}
	for i, want := range wantTypes {
		if got := fmt.Sprintf("%T", prog.Stmts[i]); got != want {
			t.Fatalf("Stmts[%d] = %s, want %s", i, got, want)
		}
	}

	fn := prog.Stmts[0].(*ast.FuncDecl)
	if fn.Name != "add" || len(fn.Params) != 3 || !fn.Params[2].Variadic || fn.Params[1].Default == nil {
		t.Fatalf("function decl = %+v", fn)
	}
	if loop := prog.Stmts[2].(*ast.ForEach); len(loop.Vars) != 2 || loop.Vars[1].Name != "v" {
		t.Fatalf("foreach vars = %+v", loop.Vars)
	}
	if imp := prog.Stmts[5].(*ast.Import); imp.Path != "helpers" || imp.Alias != "h" {
		t.Fatalf("import = %+v", imp)
	}
	if len(prog.Comments) != 1 || prog.Comments[0].Text != " adds things" {
		t.Fatalf("Comments = %+v", prog.Comments)
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	prog := parseClean(t, "@name \"fixup\";\n@version 2\nset $.a to 1")
	if len(prog.Metadata) != 2 {
		t.Fatalf("len(Metadata) = %d, want 2", len(prog.Metadata))
	}
	if prog.Metadata[1].Name != "version" || sexpr(prog.Metadata[1].Value) != "2" {
		t.Fatalf("Metadata[1] = %+v", prog.Metadata[1])
	}

	_, diags := parse(t, "set $.a to 1\n@late 1")
	if len(diags) != 1 || diags[0].Code != diagnostic.CodeInvalidMetadata {
		t.Fatalf("diagnostics = %v, want one invalid metadata", diags)
	}
}

func TestIncompleteExpression(t *testing.T) {
	t.Parallel()

	prog, diags := parse(t, "1 +")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want exactly one", diags)
	}
	if diags[0].Code != diagnostic.CodeUnexpectedEnd || diags[0].Stage != diagnostic.StageParse {
		t.Fatalf("diagnostic = %v, want syntax.unexpected_end", diags[0])
	}

	stmt := prog.Stmts[0].(*ast.ExprStmt)
	bin, ok := stmt.X.(*ast.Binary)
	if !ok {
		t.Fatalf("statement = %s, want binary", sexpr(stmt.X))
	}
	bad, ok := bin.Y.(*ast.BadExpr)
	if !ok {
		t.Fatalf("right operand = %s, want <bad>", sexpr(bin.Y))
	}
	if bad.Span().Len() == 0 {
		t.Fatalf("BadExpr span is empty")
	}
}

func TestRecoveryResumesAtStatementBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantStmts int
		wantLast  string
	}{
		{name: "semicolon", input: "var = 1 2 3; set $.a to 1", wantStmts: 2, wantLast: "*ast.Set"},
		{name: "keyword", input: "x = ) ) )\nremove $.a", wantStmts: 2, wantLast: "*ast.Remove"},
		{name: "block", input: "if (x) { y = ) ; z = 1 } remove $.b", wantStmts: 2, wantLast: "*ast.Remove"},
		{name: "stray_brace", input: "} set $.a to 1", wantStmts: 1, wantLast: "*ast.Set"},
		{name: "missing_to", input: "set $.a 5\nremove $.a", wantStmts: 2, wantLast: "*ast.Remove"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prog, diags := parse(t, tt.input)
			if len(diags) != 1 {
				t.Fatalf("diagnostics = %v, want exactly one", diags)
			}
			if len(prog.Stmts) != tt.wantStmts {
				t.Fatalf("len(Stmts) = %d, want %d", len(prog.Stmts), tt.wantStmts)
			}
			if got := fmt.Sprintf("%T", prog.Stmts[len(prog.Stmts)-1]); got != tt.wantLast {
				t.Fatalf("last statement = %s, want %s", got, tt.wantLast)
			}
		})
	}
}

func TestInvalidParameters(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"function f(a, a) {}",
		"function f(a*, b) {}",
		"function f(a = 1, b) {}",
		"function f(a* = 1) {}",
	}

	for _, input := range inputs {
		_, diags := parse(t, input)
		if len(diags) != 1 || diags[0].Code != diagnostic.CodeInvalidParameters {
			t.Fatalf("Parse(%q) diagnostics = %v, want one invalid parameters", input, diags)
		}
	}
}

func TestNodeIDsAndSpans(t *testing.T) {
	t.Parallel()

	prog := parseClean(t, "var x = [1, {a: $.b}]\nfunction f(p) { return p ? x : -1 }\nset $.y to f(2)")

	seen := make(map[ast.ID]bool)
	ast.Inspect(prog, func(n ast.Node) bool {
		if seen[n.ID()] {
			t.Fatalf("duplicate node id %d", n.ID())
		}
		seen[n.ID()] = true
		if int(n.ID()) >= prog.NodeCount {
			t.Fatalf("node id %d >= NodeCount %d", n.ID(), prog.NodeCount)
		}
		if n.Span().Len() <= 0 {
			t.Fatalf("%T has empty span %v", n, n.Span())
		}
		if !prog.Span().Encloses(n.Span()) {
			t.Fatalf("%T span %v outside program", n, n.Span())
		}
		return true
	})
}

func TestEmptyProgram(t *testing.T) {
	t.Parallel()

	prog := parseClean(t, "  # nothing here\n")
	if len(prog.Stmts) != 0 {
		t.Fatalf("len(Stmts) = %d, want 0", len(prog.Stmts))
	}
}

func TestLineBreakEndsPostfix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "call", input: "f()\n(g)", want: []string{"(call f)", "g"}},
		{name: "index", input: "x\n[1]", want: []string{"x", "[1]"}},
		{name: "increment", input: "x\n++y", want: []string{"x", "(++. y)"}},
		{name: "member continues", input: "list\n  .length", want: []string{"(. list length)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prog := parseClean(t, tt.input)
			var got []string
			for _, stmt := range prog.Stmts {
				got = append(got, sexpr(stmt.(*ast.ExprStmt).X))
			}
			if strings.Join(got, " | ") != strings.Join(tt.want, " | ") {
				t.Fatalf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestReturnValueStartsOnSameLine(t *testing.T) {
	t.Parallel()

	prog := parseClean(t, "function f() {\n  return\n  g()\n}\nfunction g() { return 1 }")
	body := prog.Stmts[0].(*ast.FuncDecl).Body.Stmts
	if len(body) != 2 {
		t.Fatalf("body statements = %d, want 2", len(body))
	}
	if ret := body[0].(*ast.Return); ret.Value != nil {
		t.Fatalf("return value = %s, want none", sexpr(ret.Value))
	}
}
