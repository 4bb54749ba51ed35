package jsonpatcher

import (
	"fmt"

	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
)

type Severity = diagnostic.Severity

const (
	SeverityWarning = diagnostic.SeverityWarning
	SeverityError   = diagnostic.SeverityError
)

// Position is a zero-based line and column. Columns count Unicode code
// points.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Location is a range of the script text.
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Related is a secondary location attached to a diagnostic, such as the
// first declaration of a duplicate or a frame of a runtime stack trace.
type Related struct {
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

// Diagnostic is an error or warning about a script. Code is a stable kind tag
// such as "resolve.unresolved_name" or "runtime.missing_path".
type Diagnostic struct {
	File     string    `json:"file"`
	Code     string    `json:"code"`
	Stage    string    `json:"stage"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Location Location  `json:"location"`
	Related  []Related `json:"related,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s: %s: %s [%s]", d.File, d.Location.Start, d.Severity, d.Message, d.Code)
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}

func location(r source.Range) Location {
	return Location{
		Start: Position{Line: r.Start.Line, Column: r.Start.Column},
		End:   Position{Line: r.End.Line, Column: r.End.Column},
	}
}

func spanLocation(file *source.File, span source.Span) Location {
	return location(file.Range(span))
}

func convert(file *source.File, diags []diagnostic.Diagnostic) []Diagnostic {
	if len(diags) == 0 {
		return nil
	}

	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		converted := Diagnostic{
			File:     file.Name(),
			Code:     string(d.Code),
			Stage:    string(d.Stage),
			Severity: d.Severity,
			Message:  d.Message,
			Location: location(d.Range),
		}
		for _, r := range d.Related {
			converted.Related = append(converted.Related, Related{
				Message:  r.Message,
				Location: location(r.Range),
			})
		}
		out = append(out, converted)
	}
	return out
}
