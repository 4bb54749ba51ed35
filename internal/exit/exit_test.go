package exit

import (
	"bytes"
	"os"
	"testing"
)

func TestResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   *Result
		wantCode int
		wantOut  *os.File
	}{
		{name: "success", result: Success("ok"), wantCode: CodeSuccess, wantOut: os.Stdout},
		{name: "error", result: Errorf("failed: %d", 3), wantCode: CodeFailure, wantOut: os.Stderr},
		{name: "usage", result: Usage("bad flag"), wantCode: CodeUsage, wantOut: os.Stderr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.result.ExitCode != tt.wantCode {
				t.Fatalf("ExitCode = %d, want %d", tt.result.ExitCode, tt.wantCode)
			}
			if tt.result.Output != tt.wantOut {
				t.Fatalf("Output = %v, want %v", tt.result.Output, tt.wantOut)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Errorf("failed: %s\n", "boom").To(&buf).Print()
	if got := buf.String(); got != "failed: boom\n" {
		t.Fatalf("Print() wrote %q", got)
	}

	buf.Reset()
	Success("").To(&buf).Print()
	if buf.Len() != 0 {
		t.Fatalf("Print() wrote %q for an empty message", buf.String())
	}
}
