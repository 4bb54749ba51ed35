package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/jacoelho/jsonpatcher"
)

// Format determines how summaries and diagnostics are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// DocumentResult is the outcome of patching one document.
type DocumentResult struct {
	Input       string                   `json:"input"`
	Output      string                   `json:"output,omitempty"`
	Changed     bool                     `json:"changed"`
	Written     bool                     `json:"written"`
	Failed      bool                     `json:"failed"`
	Error       string                   `json:"error,omitempty"`
	Diagnostics []jsonpatcher.Diagnostic `json:"diagnostics,omitempty"`
}

// Summary aggregates outcomes across a batch run.
type Summary struct {
	RunID     string           `json:"run_id"`
	Script    string           `json:"script"`
	Total     int              `json:"total"`
	Changed   int              `json:"changed"`
	Unchanged int              `json:"unchanged"`
	Failed    int              `json:"failed"`
	ByCode    map[string]int   `json:"by_code,omitempty"`
	Documents []DocumentResult `json:"documents,omitempty"`
}

// HasErrors reports whether any document failed.
func (s Summary) HasErrors() bool {
	return s.Failed > 0
}

// Add records one document result into the summary.
func (s *Summary) Add(result DocumentResult) {
	s.Total++
	if s.ByCode == nil {
		s.ByCode = make(map[string]int)
	}

	for _, d := range result.Diagnostics {
		s.ByCode[d.Code]++
	}

	s.Documents = append(s.Documents, result)

	switch {
	case result.Failed:
		s.Failed++
	case result.Changed:
		s.Changed++
	default:
		s.Unchanged++
	}
}

// Write prints the summary in the requested format.
func (s Summary) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	case FormatText, "":
		writef := func(format string, args ...any) error {
			if _, err := fmt.Fprintf(w, format, args...); err != nil {
				return err
			}
			return nil
		}

		if err := writef("Batch summary (run %s)\n", s.RunID); err != nil {
			return err
		}
		if err := writef("  script: %s\n", s.Script); err != nil {
			return err
		}
		if err := writef("  total documents: %d\n", s.Total); err != nil {
			return err
		}
		if err := writef("  changed: %d\n", s.Changed); err != nil {
			return err
		}
		if err := writef("  unchanged: %d\n", s.Unchanged); err != nil {
			return err
		}
		if err := writef("  failed: %d\n", s.Failed); err != nil {
			return err
		}

		if len(s.ByCode) > 0 {
			if err := writef("\nDiagnostics by code:\n"); err != nil {
				return err
			}
			codes := make([]string, 0, len(s.ByCode))
			for code := range s.ByCode {
				codes = append(codes, code)
			}
			slices.Sort(codes)
			for _, code := range codes {
				if err := writef("  - %s: %d\n", code, s.ByCode[code]); err != nil {
					return err
				}
			}
		}

		var failures []DocumentResult
		for _, doc := range s.Documents {
			if doc.Failed {
				failures = append(failures, doc)
			}
		}
		if len(failures) > 0 {
			if err := writef("\nFailures:\n"); err != nil {
				return err
			}
			for _, doc := range failures {
				if doc.Error != "" {
					if err := writef("  - %s: %s\n", doc.Input, doc.Error); err != nil {
						return err
					}
				}
				for _, d := range doc.Diagnostics {
					if err := writef("  - %s: %s\n", doc.Input, d); err != nil {
						return err
					}
				}
			}
		}

		return nil
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// checkResult is the JSON shape of WriteDiagnostics.
type checkResult struct {
	Diagnostics  []jsonpatcher.Diagnostic  `json:"diagnostics"`
	Declarations []jsonpatcher.Declaration `json:"declarations,omitempty"`
}

// WriteDiagnostics prints the outcome of checking a script. Declarations are
// included when non-nil.
func WriteDiagnostics(w io.Writer, format Format, diags []jsonpatcher.Diagnostic, decls []jsonpatcher.Declaration) error {
	switch format {
	case FormatJSON:
		if diags == nil {
			diags = []jsonpatcher.Diagnostic{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(checkResult{Diagnostics: diags, Declarations: decls})
	case FormatText, "":
		for _, d := range diags {
			if _, err := fmt.Fprintln(w, d); err != nil {
				return err
			}
			for _, r := range d.Related {
				if _, err := fmt.Fprintf(w, "    %s: %s\n", r.Location.Start, r.Message); err != nil {
					return err
				}
			}
		}
		return writeOutline(w, decls, "")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func writeOutline(w io.Writer, decls []jsonpatcher.Declaration, indent string) error {
	for _, d := range decls {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", indent, d.NameLocation.Start, d.Detail); err != nil {
			return err
		}
		if err := writeOutline(w, d.Children, indent+"  "); err != nil {
			return err
		}
	}
	return nil
}
