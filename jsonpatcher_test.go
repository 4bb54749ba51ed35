package jsonpatcher_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/jacoelho/jsonpatcher"
)

func mustJSON(t *testing.T, text string) jsonpatcher.Value {
	t.Helper()

	v, err := jsonpatcher.ParseJSON([]byte(text))
	if err != nil {
		t.Fatalf("ParseJSON(%q) error = %v", text, err)
	}
	return v
}

func assertJSON(t *testing.T, got jsonpatcher.Value, want string) {
	t.Helper()

	if !jsonpatcher.Equal(got, mustJSON(t, want)) {
		t.Fatalf("document = %s, want %s", jsonpatcher.Format(got), want)
	}
}

func TestRunScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		src       string
		doc       string
		want      string
		wantCodes []string
	}{
		{name: "set existing key", src: "set $.a to 5", doc: `{"a": 1}`, want: `{"a": 5}`},
		{name: "set creates key", src: "set $.b to 5", doc: `{"a": 1}`, want: `{"a": 1, "b": 5}`},
		{name: "intermediate is not an object", src: "set $.a.x to 1", doc: `{"a": 1}`, want: `{"a": 1}`, wantCodes: []string{"runtime.path_type_mismatch"}},
		{name: "incomplete expression", src: "1 +", doc: `{"a": 1}`, want: `{"a": 1}`, wantCodes: []string{"syntax.unexpected_end"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, diags := jsonpatcher.Run(context.Background(), tt.src, mustJSON(t, tt.doc))
			var codes []string
			for _, d := range diags {
				codes = append(codes, d.Code)
			}
			if strings.Join(codes, ",") != strings.Join(tt.wantCodes, ",") {
				t.Fatalf("Run() codes = %v, want %v", codes, tt.wantCodes)
			}
			assertJSON(t, got, tt.want)
		})
	}
}

func TestDiagnosticShape(t *testing.T) {
	t.Parallel()

	_, diags := jsonpatcher.Run(context.Background(), "var ok = 1\nset $.a.x to ok", mustJSON(t, `{"a": 1}`), jsonpatcher.WithFileName("fix.jp"))
	if len(diags) != 1 {
		t.Fatalf("Run() diagnostics = %v, want one", diags)
	}

	d := diags[0]
	want := jsonpatcher.Location{
		Start: jsonpatcher.Position{Line: 1, Column: 8},
		End:   jsonpatcher.Position{Line: 1, Column: 9},
	}
	if d.Location != want {
		t.Fatalf("Location = %+v, want %+v", d.Location, want)
	}
	if d.Severity != jsonpatcher.SeverityError || d.Stage != "eval" || !d.IsError() {
		t.Fatalf("diagnostic = %+v", d)
	}
	if got := d.String(); !strings.HasPrefix(got, "fix.jp:2:9: error: ") {
		t.Fatalf("String() = %q", got)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	for _, key := range []string{`"code":"runtime.path_type_mismatch"`, `"severity":"error"`, `"line":1`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Fatalf("json = %s, missing %s", data, key)
		}
	}
}

func TestStaticErrorsBlockRun(t *testing.T) {
	t.Parallel()

	src := "set $.a to 2\nset $.b to missing"
	doc := mustJSON(t, `{}`)

	p, diags := jsonpatcher.Compile(src)
	if !p.HasErrors() || !jsonpatcher.HasErrors(diags) {
		t.Fatalf("Compile() diagnostics = %v, want errors", diags)
	}
	got, runDiags := p.Run(context.Background(), doc)
	assertJSON(t, got, `{}`)
	if len(runDiags) != len(diags) {
		t.Fatalf("Run() diagnostics = %v, want the compile diagnostics only", runDiags)
	}

	p, _ = jsonpatcher.Compile(src, jsonpatcher.WithRunOnStaticErrors(true))
	got, runDiags = p.Run(context.Background(), doc)
	assertJSON(t, got, `{"a": 2}`)
	if last := runDiags[len(runDiags)-1]; last.Code != "runtime.unbound_variable" {
		t.Fatalf("last diagnostic = %v, want runtime.unbound_variable", last)
	}
}

func TestProgramIsReusable(t *testing.T) {
	t.Parallel()

	p, diags := jsonpatcher.Compile(`
function total(items) {
  var sum = 0
  foreach (item in items) { sum += item.price * item.qty }
  return sum
}
set $.total to total($.items)
`)
	if len(diags) != 0 {
		t.Fatalf("Compile() diagnostics = %v", diags)
	}

	input := mustJSON(t, `{"items": [{"price": 2, "qty": 3}, {"price": 1.5, "qty": 2}]}`)
	want := `{"items": [{"price": 2, "qty": 3}, {"price": 1.5, "qty": 2}], "total": 9}`

	var wg sync.WaitGroup
	results := make([]jsonpatcher.Value, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = p.Run(context.Background(), input)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assertJSON(t, got, want)
	}
}

func TestRunDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	doc := mustJSON(t, `{"a": {"b": [1, 2]}}`)
	got, diags := jsonpatcher.Run(context.Background(), "set $.a.b[0] to 9\nremove $.a.b[1]", doc)
	if len(diags) != 0 {
		t.Fatalf("Run() diagnostics = %v", diags)
	}
	assertJSON(t, got, `{"a": {"b": [9]}}`)
	assertJSON(t, doc, `{"a": {"b": [1, 2]}}`)
}

func TestVariablesAndLibraries(t *testing.T) {
	t.Parallel()

	env, err := jsonpatcher.FromAny(map[string]any{"region": "eu"})
	if err != nil {
		t.Fatalf("FromAny() error = %v", err)
	}

	got, diags := jsonpatcher.Run(context.Background(),
		"import \"money\" as m\nset $.region to env.region\nset $.price to m.gross($.price)",
		mustJSON(t, `{"price": 10}`),
		jsonpatcher.WithVariables(map[string]jsonpatcher.Value{"env": env}),
		jsonpatcher.WithLibraries(map[string]string{
			"money": "val rate = 0.5\nfunction gross(net) { return net + net * rate }\nset $.gross to gross",
		}),
	)
	if len(diags) != 0 {
		t.Fatalf("Run() diagnostics = %v", diags)
	}
	assertJSON(t, got, `{"price": 15, "region": "eu"}`)
}

func TestWarnUnused(t *testing.T) {
	t.Parallel()

	src := "var unused = 1\nset $.a to 1"
	if _, diags := jsonpatcher.Compile(src); len(diags) != 0 {
		t.Fatalf("Compile() diagnostics = %v, want none by default", diags)
	}

	p, diags := jsonpatcher.Compile(src, jsonpatcher.WithWarnUnused(true))
	if len(diags) != 1 || diags[0].Code != "resolve.unused_symbol" || diags[0].IsError() {
		t.Fatalf("Compile() diagnostics = %v, want one unused warning", diags)
	}
	got, _ := p.Run(context.Background(), mustJSON(t, `{}`))
	assertJSON(t, got, `{"a": 1}`)
}

func TestDebugLogUsesLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, diags := jsonpatcher.Run(context.Background(), `debug.log("hello")`, mustJSON(t, `{}`),
		jsonpatcher.WithLogger(logger), jsonpatcher.WithFileName("log.jp"))
	if len(diags) != 0 {
		t.Fatalf("Run() diagnostics = %v", diags)
	}
	if out := buf.String(); !strings.Contains(out, "hello") || !strings.Contains(out, "log.jp:1:1") {
		t.Fatalf("log output = %q", out)
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	p, _ := jsonpatcher.Compile("@name \"prices\"\n@version 3\nset $.a to 1")
	got := p.Metadata()
	if len(got) != 2 || got[0].Name != "name" || got[1].Name != "version" {
		t.Fatalf("Metadata() = %+v", got)
	}
	if !jsonpatcher.Equal(got[1].Value, mustJSON(t, "3")) {
		t.Fatalf("Metadata()[1].Value = %v, want 3", got[1].Value)
	}
}

func TestAnalyzeDuplicateDeclaration(t *testing.T) {
	t.Parallel()

	a, diags := jsonpatcher.Analyze("var x = 1\nvar x = 2\nset $.y to x")
	if len(diags) != 1 || diags[0].Code != "resolve.duplicate_declaration" {
		t.Fatalf("Analyze() diagnostics = %v, want one duplicate_declaration", diags)
	}
	if diags[0].Location.Start.Line != 1 {
		t.Fatalf("diagnostic line = %d, want 1", diags[0].Location.Start.Line)
	}

	def, ok := a.DefinitionAt(2, 11)
	if !ok {
		t.Fatal("DefinitionAt(2, 11) found nothing")
	}
	if def.Start != (jsonpatcher.Position{Line: 0, Column: 4}) {
		t.Fatalf("DefinitionAt(2, 11) = %+v, want line 0 column 4", def)
	}
}

func TestAnalyzeQueries(t *testing.T) {
	t.Parallel()

	src := `# Doubles a number.
function double(n) {
  return n * 2
}
var total = double(2)
set $.total to total
set $.abs to math.ab`

	a, _ := jsonpatcher.Analyze(src)

	sym, ok := a.SymbolAt(4, 13)
	if !ok || sym.Name != "double" || sym.Kind != "function" {
		t.Fatalf("SymbolAt(4, 13) = %+v, %v", sym, ok)
	}
	if sym.Doc != "Doubles a number." || sym.Detail != "function double(n)" {
		t.Fatalf("SymbolAt(4, 13) doc = %q, detail = %q", sym.Doc, sym.Detail)
	}

	refs := a.References(sym)
	if len(refs) != 2 || refs[0].Start.Line != 1 || refs[1].Start.Line != 4 {
		t.Fatalf("References(double) = %+v", refs)
	}

	decls := a.Declarations()
	if len(decls) != 2 || decls[0].Name != "double" || decls[1].Name != "total" {
		t.Fatalf("Declarations() = %+v", decls)
	}
	if decls[0].NameLocation.Start != (jsonpatcher.Position{Line: 1, Column: 9}) {
		t.Fatalf("double name location = %+v", decls[0].NameLocation)
	}

	completions := a.Completions(6, 20)
	if len(completions) == 0 || completions[0].Label != "abs" {
		t.Fatalf("Completions(6, 20) = %+v, want abs first", completions)
	}

	hover, ok := a.Hover(5, 16)
	if !ok || hover.Name != "total" || hover.Detail != "var total" {
		t.Fatalf("Hover(5, 16) = %+v, %v", hover, ok)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := jsonpatcher.ParseYAML([]byte("name: app\nreplicas: 2\n"))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	got, diags := jsonpatcher.Run(context.Background(), "$.replicas += 1", doc)
	if len(diags) != 0 {
		t.Fatalf("Run() diagnostics = %v", diags)
	}

	out, err := jsonpatcher.EncodeYAML(got)
	if err != nil {
		t.Fatalf("EncodeYAML() error = %v", err)
	}
	if string(out) != "name: app\nreplicas: 3\n" {
		t.Fatalf("EncodeYAML() = %q", out)
	}
}
