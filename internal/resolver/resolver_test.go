package resolver

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/parser"
	"github.com/jacoelho/jsonpatcher/internal/source"
)

func resolve(t *testing.T, src string, opts Options) (*ast.Program, *Result, []diagnostic.Diagnostic) {
	t.Helper()

	file := source.NewFile("test.jp", src)
	diags := diagnostic.NewCollector(file)
	prog := parser.Parse(file, diags)
	if diags.HasErrors() {
		t.Fatalf("Parse(%q) diagnostics = %v", src, diags.Snapshot())
	}
	res := Resolve(prog, diags, opts)
	return prog, res, diags.Snapshot()
}

func codes(diags []diagnostic.Diagnostic) []diagnostic.Code {
	out := make([]diagnostic.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

// identAt returns the n-th identifier node named name.
func identAt(t *testing.T, prog *ast.Program, name string, n int) *ast.Ident {
	t.Helper()

	var found []*ast.Ident
	ast.Inspect(prog, func(node ast.Node) bool {
		if id, ok := node.(*ast.Ident); ok && id.Name == name {
			found = append(found, id)
		}
		return true
	})
	if n >= len(found) {
		t.Fatalf("identifier %s #%d not found (have %d)", name, n, len(found))
	}
	return found[n]
}

func TestDuplicateDeclarationKeepsFirst(t *testing.T) {
	t.Parallel()

	src := "var x = 1\nvar x = 2\nset $.a to x"
	prog, res, diags := resolve(t, src, Options{})

	if len(diags) != 1 {
		t.Fatalf("Resolve() diagnostics = %v, want exactly one", diags)
	}
	d := diags[0]
	if d.Code != diagnostic.CodeDuplicateDeclaration {
		t.Fatalf("Resolve() code = %s, want %s", d.Code, diagnostic.CodeDuplicateDeclaration)
	}
	second := prog.Stmts[1].(*ast.VarDecl)
	if d.Span != second.NameSpan {
		t.Fatalf("diagnostic span = %v, want second declaration %v", d.Span, second.NameSpan)
	}
	first := prog.Stmts[0].(*ast.VarDecl)
	if len(d.Related) != 1 || d.Related[0].Span != first.NameSpan {
		t.Fatalf("diagnostic related = %v, want first declaration %v", d.Related, first.NameSpan)
	}

	use, ok := res.SymbolOf(identAt(t, prog, "x", 0).ID())
	if !ok {
		t.Fatal("SymbolOf(x) not bound")
	}
	if use.Decl != first.ID() {
		t.Fatalf("x bound to declaration %d, want %d", use.Decl, first.ID())
	}
}

func TestResolveDiagnostics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		opts Options
		want []diagnostic.Code
	}{
		{name: "clean program", src: "var n = $.items.length\nforeach (i, item in $.items) { set $.items[i].n to n }"},
		{name: "unresolved name", src: "set $.a to missing", want: []diagnostic.Code{diagnostic.CodeUnresolvedName}},
		{name: "hoisted function", src: "set $.a to twice(2)\nfunction twice(x) { return x * 2 }"},
		{name: "function sees later declaration", src: "function get() { return later }\nval later = 1"},
		{name: "recursive arrow", src: "val fact = (n) -> n <= 1 ? 1 : n * fact(n - 1)"},
		{name: "variable before declaration", src: "set $.a to y\nvar y = 1", want: []diagnostic.Code{diagnostic.CodeUnresolvedName}},
		{name: "block scope ends", src: "{ var inner = 1 }\nset $.a to inner", want: []diagnostic.Code{diagnostic.CodeUnresolvedName}},
		{name: "shadowing allowed", src: "var x = 1\n{ var x = 2 }\nset $.x to x"},
		{name: "function arity", src: "function f(a, b = 1) { return a }\nf()\nf(1)\nf(1, 2, 3)", want: []diagnostic.Code{diagnostic.CodeArityMismatch, diagnostic.CodeArityMismatch}},
		{name: "variadic arity", src: "function f(a, rest*) { return rest }\nf(1, 2, 3, 4)"},
		{name: "builtin arity", src: "set $.a to math.abs(1, 2)", want: []diagnostic.Code{diagnostic.CodeArityMismatch}},
		{name: "unknown member", src: "set $.a to math.absolute(1)", want: []diagnostic.Code{diagnostic.CodeUnknownMember}},
		{name: "builtin constant", src: "set $.a to math.PI"},
		{name: "break outside loop", src: "break", want: []diagnostic.Code{diagnostic.CodeMisplacedControl}},
		{name: "continue inside loop", src: "while (true) { continue }"},
		{name: "function resets loop", src: "while (true) { val f = () -> { break } }", want: []diagnostic.Code{diagnostic.CodeMisplacedControl}},
		{name: "invalid jsonpath", src: `set $.a to json.query($, "$[")`, want: []diagnostic.Code{diagnostic.CodeInvalidJSONPath}},
		{name: "valid jsonpath", src: `set $.a to json.query($, "$.items[?@.ok == true]")`},
		{name: "set literal", src: "set 1 to 2", want: []diagnostic.Code{diagnostic.CodeInvalidPath}},
		{name: "set call result", src: "set f().a to 2\nfunction f() { return {} }", want: []diagnostic.Code{diagnostic.CodeInvalidPath}},
		{name: "float index", src: "set $.a[1.5] to 2", want: []diagnostic.Code{diagnostic.CodeInvalidPath}},
		{name: "fractional read index", src: "set $.x to $.list[0.5]", want: []diagnostic.Code{diagnostic.CodeInvalidPath}},
		{name: "boolean index", src: "set $.b to $.a[true]", want: []diagnostic.Code{diagnostic.CodeInvalidPath}},
		{name: "remove root", src: "remove $", want: []diagnostic.Code{diagnostic.CodeInvalidPath}},
		{name: "set root", src: "set $ to {}"},
		{name: "assign val", src: "val x = 1\nx = 2", want: []diagnostic.Code{diagnostic.CodeInvalidAssignment}},
		{name: "assign through val", src: "val x = {}\nx.a = 2", want: []diagnostic.Code{diagnostic.CodeInvalidAssignment}},
		{name: "increment var", src: "var x = 1\nx++\nx += 2"},
		{name: "assign function", src: "function f() {}\nf = 1", want: []diagnostic.Code{diagnostic.CodeInvalidAssignment}},
		{name: "assign library", src: "math = 1", want: []diagnostic.Code{diagnostic.CodeInvalidAssignment}},
		{name: "assign loop variable", src: "foreach (x in [1]) { x = 2 }", want: []diagnostic.Code{diagnostic.CodeInvalidAssignment}},
		{name: "assign parameter", src: "function f(x) { x = 2; return x }"},
		{name: "unknown type", src: "set $.a to $.b is strng", want: []diagnostic.Code{diagnostic.CodeUnresolvedName}},
		{name: "import builtin", src: `import "math"`, want: []diagnostic.Code{diagnostic.CodeUnknownLibrary}},
		{name: "import unknown", src: `import "helpers"`, opts: Options{Libraries: []string{"utils"}}, want: []diagnostic.Code{diagnostic.CodeUnknownLibrary}},
		{name: "import known", src: `import "utils" as u` + "\nset $.a to u.x", opts: Options{Libraries: []string{"utils"}}},
		{name: "host variable", src: "set $.env to env", opts: Options{Globals: []string{"env"}}},
		{name: "assign host variable", src: "env = 1", opts: Options{Globals: []string{"env"}}, want: []diagnostic.Code{diagnostic.CodeInvalidAssignment}},
		{name: "unused warning", src: "var unused = 1\nvar _ignored = 2", opts: Options{WarnUnused: true}, want: []diagnostic.Code{diagnostic.CodeUnusedSymbol}},
		{name: "param default sees earlier param", src: "function f(a, b = a) { return b }\nf(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, diags := resolve(t, tt.src, tt.opts)
			if got := codes(diags); !slices.Equal(got, tt.want) {
				t.Fatalf("Resolve(%q) = %v, want %v (%v)", tt.src, got, tt.want, diags)
			}
		})
	}
}

func TestUnresolvedNameSuggestion(t *testing.T) {
	t.Parallel()

	_, _, diags := resolve(t, "var counter = 0\nset $.a to countr", Options{})
	if len(diags) != 1 {
		t.Fatalf("Resolve() diagnostics = %v, want one", diags)
	}
	if !strings.Contains(diags[0].Message, "did you mean counter?") {
		t.Fatalf("Resolve() message = %q, want a suggestion for counter", diags[0].Message)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	src := `
var total = 0
function add(x) { total += x; return total }
foreach (item in $.items) {
  if (item is number) add(item) else missing(item)
}
val f = (a, b = 2) -> a + b + undefinedName
`
	file := source.NewFile("test.jp", src)
	diags := diagnostic.NewCollector(file)
	prog := parser.Parse(file, diags)

	first := diagnostic.NewCollector(file)
	a := Resolve(prog, first, Options{WarnUnused: true})
	second := diagnostic.NewCollector(file)
	b := Resolve(prog, second, Options{WarnUnused: true})

	if !reflect.DeepEqual(first.Snapshot(), second.Snapshot()) {
		t.Fatalf("Resolve() diagnostics differ:\n%v\n%v", first.Snapshot(), second.Snapshot())
	}
	if !reflect.DeepEqual(a.Bindings, b.Bindings) {
		t.Fatal("Resolve() bindings differ between runs")
	}
	if !reflect.DeepEqual(a.References, b.References) {
		t.Fatal("Resolve() references differ between runs")
	}
	if len(a.Symbols) != len(b.Symbols) {
		t.Fatalf("Resolve() symbols = %d then %d", len(a.Symbols), len(b.Symbols))
	}
	for i := range a.Symbols {
		x, y := *a.Symbols[i], *b.Symbols[i]
		x.Library, y.Library = nil, nil
		if x != y {
			t.Fatalf("symbol %d = %+v then %+v", i, x, y)
		}
	}
}

func TestEveryNodeIsBound(t *testing.T) {
	t.Parallel()

	src := "@version 1\nvar a = [1, {k: 2}]\nfunction f(x, y*) { return x ? y : (z) -> z }\napply ($.a) { set $.b to -a[0] }"
	prog, res, _ := resolve(t, src, Options{})

	ast.Inspect(prog, func(n ast.Node) bool {
		if _, ok := res.Bindings[n.ID()]; !ok {
			t.Fatalf("node %T at %v has no binding", n, n.Span())
		}
		return true
	})
}

func TestVisibleAndScopeAt(t *testing.T) {
	t.Parallel()

	src := "var outer = 1\nfunction f(param) {\n  var local = 2\n  return local\n}\nvar after = 3"
	_, res, _ := resolve(t, src, Options{})

	inside := strings.Index(src, "return")
	names := func(offset int) []string {
		var out []string
		for _, sym := range res.Visible(offset) {
			out = append(out, sym.Name)
		}
		return out
	}

	got := names(inside)
	for _, want := range []string{"local", "param", "outer", "f", "math"} {
		if !slices.Contains(got, want) {
			t.Fatalf("Visible(%d) = %v, want it to contain %s", inside, got, want)
		}
	}
	if slices.Contains(got, "after") {
		t.Fatalf("Visible(%d) = %v, want after hidden", inside, got)
	}

	if scope, _ := res.Scope(res.ScopeAt(inside)); scope.Kind != ScopeFunction {
		t.Fatalf("ScopeAt(%d) kind = %v, want function", inside, scope.Kind)
	}
	if scope, _ := res.Scope(res.ScopeAt(0)); scope.Kind != ScopeProgram {
		t.Fatalf("ScopeAt(0) kind = %v, want program", scope.Kind)
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	candidates := []string{"arrays", "counter", "math", "strings"}
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{name: "cnt", want: "counter", ok: true},
		{name: "mtah", want: "math", ok: true},
		{name: "zzzzzz", ok: false},
	}

	for _, tt := range tests {
		got, ok := Suggest(tt.name, candidates)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Suggest(%q) = %q, %v, want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
