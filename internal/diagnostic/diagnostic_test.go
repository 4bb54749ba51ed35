package diagnostic

import (
	"testing"

	"github.com/jacoelho/jsonpatcher/internal/source"
)

func TestDefinitionForKnownCodes(t *testing.T) {
	t.Parallel()

	for _, code := range Codes() {
		definition := DefinitionFor(code)
		if definition.Code != code {
			t.Fatalf("definition.Code = %q, want %q", definition.Code, code)
		}
		if definition.DefaultStage == "" {
			t.Fatalf("definition.DefaultStage is empty for code %q", code)
		}
		if definition.DefaultSeverity == "" {
			t.Fatalf("definition.DefaultSeverity is empty for code %q", code)
		}
	}
}

func TestDefinitionForUnknownCode(t *testing.T) {
	t.Parallel()

	definition := DefinitionFor("custom.code")
	if definition.DefaultSeverity != SeverityError {
		t.Fatalf("DefaultSeverity = %q, want %q", definition.DefaultSeverity, SeverityError)
	}
}

func TestCollectorPreservesEmissionOrder(t *testing.T) {
	t.Parallel()

	file := source.NewFile("test", "abc\ndef")
	c := NewCollector(file)
	c.Add(CodeUnresolvedName, source.NewSpan(4, 7), "unresolved name %q", "def")
	c.Add(CodeUnexpectedToken, source.NewSpan(0, 1), "unexpected token")
	c.Add(CodeUnusedSymbol, source.NewSpan(4, 7), "unused")

	got := c.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len(Snapshot()) = %d, want 3", len(got))
	}
	want := []Code{CodeUnresolvedName, CodeUnexpectedToken, CodeUnusedSymbol}
	for i, code := range want {
		if got[i].Code != code {
			t.Fatalf("Snapshot()[%d].Code = %q, want %q", i, got[i].Code, code)
		}
	}

	if got[0].Range.Start.Line != 1 || got[0].Range.Start.Column != 0 || got[0].Range.End.Column != 3 {
		t.Fatalf("Snapshot()[0].Range = %+v, want line 1 columns 0-3", got[0].Range)
	}
	if got[0].Message != `unresolved name "def"` {
		t.Fatalf("Snapshot()[0].Message = %q", got[0].Message)
	}
	if got[2].Severity != SeverityWarning {
		t.Fatalf("Snapshot()[2].Severity = %q, want warning", got[2].Severity)
	}
}

func TestCollectorSnapshotIsolation(t *testing.T) {
	t.Parallel()

	file := source.NewFile("test", "x")
	c := NewCollector(file)
	d := c.New(CodeRaised, source.NewSpan(0, 1), "boom")
	d.Related = append(d.Related, c.Related(source.NewSpan(0, 1), "called here"))
	c.Append(d)

	first := c.Snapshot()
	first[0].Message = "changed"
	first[0].Related[0].Message = "changed"

	second := c.Snapshot()
	if second[0].Message != "boom" || second[0].Related[0].Message != "called here" {
		t.Fatalf("Snapshot() leaked mutation: %+v", second[0])
	}
	if !c.HasErrors() {
		t.Fatalf("HasErrors() = false, want true")
	}
	if got := c.Since(1); got != nil {
		t.Fatalf("Since(1) = %v, want nil", got)
	}
}
