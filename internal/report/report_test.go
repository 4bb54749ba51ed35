package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jacoelho/jsonpatcher"
)

func fault(code string) jsonpatcher.Diagnostic {
	return jsonpatcher.Diagnostic{
		File:     "fix.jp",
		Code:     code,
		Stage:    "eval",
		Severity: jsonpatcher.SeverityError,
		Message:  "boom",
		Location: jsonpatcher.Location{Start: jsonpatcher.Position{Line: 2, Column: 4}},
	}
}

func TestSummaryAdd(t *testing.T) {
	t.Parallel()

	var summary Summary
	summary.Add(DocumentResult{Input: "a.json", Changed: true})
	summary.Add(DocumentResult{Input: "b.json"})
	summary.Add(DocumentResult{Input: "c.json", Failed: true, Diagnostics: []jsonpatcher.Diagnostic{fault("runtime.missing_path")}})

	if summary.Total != 3 || summary.Changed != 1 || summary.Unchanged != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.ByCode["runtime.missing_path"] != 1 {
		t.Fatalf("ByCode = %v", summary.ByCode)
	}
	if !summary.HasErrors() {
		t.Fatal("HasErrors() = false, want true")
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	summary := Summary{RunID: "run-1", Script: "fix.jp"}
	summary.Add(DocumentResult{Input: "a.json", Changed: true})
	summary.Add(DocumentResult{Input: "c.json", Failed: true, Diagnostics: []jsonpatcher.Diagnostic{fault("runtime.missing_path")}})
	summary.Add(DocumentResult{Input: "d.json", Failed: true, Error: "parse document: bad"})

	var buf bytes.Buffer
	if err := summary.Write(&buf, FormatText); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Batch summary (run run-1)",
		"failed: 2",
		"runtime.missing_path: 1",
		"c.json: fix.jp:3:5: error: boom [runtime.missing_path]",
		"d.json: parse document: bad",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var summary Summary
	summary.Add(DocumentResult{Input: "a.json", Output: "a.json", Changed: true, Written: true})

	var buf bytes.Buffer
	if err := summary.Write(&buf, FormatJSON); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded.Total != 1 || len(decoded.Documents) != 1 || !decoded.Documents[0].Written {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	t.Parallel()

	if err := (Summary{}).Write(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Fatal("Write() error = nil, want unsupported format")
	}
	if err := WriteDiagnostics(&bytes.Buffer{}, Format("xml"), nil, nil); err == nil {
		t.Fatal("WriteDiagnostics() error = nil, want unsupported format")
	}
}

func TestWriteDiagnostics(t *testing.T) {
	t.Parallel()

	d := fault("resolve.duplicate_declaration")
	d.Related = []jsonpatcher.Related{{
		Message:  "first declaration of x",
		Location: jsonpatcher.Location{Start: jsonpatcher.Position{Line: 0, Column: 4}},
	}}
	decls := []jsonpatcher.Declaration{{
		Name:         "f",
		Detail:       "function f(a)",
		NameLocation: jsonpatcher.Location{Start: jsonpatcher.Position{Line: 1, Column: 9}},
		Children: []jsonpatcher.Declaration{{
			Name:         "tmp",
			Detail:       "var tmp",
			NameLocation: jsonpatcher.Location{Start: jsonpatcher.Position{Line: 2, Column: 6}},
		}},
	}}

	var buf bytes.Buffer
	if err := WriteDiagnostics(&buf, FormatText, []jsonpatcher.Diagnostic{d}, decls); err != nil {
		t.Fatalf("WriteDiagnostics() error = %v", err)
	}
	want := "fix.jp:3:5: error: boom [resolve.duplicate_declaration]\n" +
		"    1:5: first declaration of x\n" +
		"2:10 function f(a)\n" +
		"  3:7 var tmp\n"
	if got := buf.String(); got != want {
		t.Fatalf("WriteDiagnostics() = %q, want %q", got, want)
	}

	buf.Reset()
	if err := WriteDiagnostics(&buf, FormatJSON, nil, nil); err != nil {
		t.Fatalf("WriteDiagnostics() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"diagnostics": []`) {
		t.Fatalf("WriteDiagnostics() json = %s", buf.String())
	}
}
