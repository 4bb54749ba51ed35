package diagnostic

import (
	"fmt"
	"slices"

	"github.com/jacoelho/jsonpatcher/internal/source"
)

// Collector is the append-only, per-invocation diagnostic sink shared by the
// pipeline stages. It is not safe for concurrent use; each invocation owns
// its own collector.
type Collector struct {
	file  *source.File
	items []Diagnostic
}

// NewCollector returns an empty collector resolving spans against file.
func NewCollector(file *source.File) *Collector {
	return &Collector{file: file}
}

// File returns the source the collector resolves positions against.
func (c *Collector) File() *source.File {
	return c.file
}

// Add records a diagnostic using the code's default stage and severity.
func (c *Collector) Add(code Code, span source.Span, format string, args ...any) {
	c.Append(c.New(code, span, format, args...))
}

// New builds a diagnostic without recording it.
func (c *Collector) New(code Code, span source.Span, format string, args ...any) Diagnostic {
	definition := DefinitionFor(code)
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	return Diagnostic{
		Code:     code,
		Stage:    definition.DefaultStage,
		Severity: definition.DefaultSeverity,
		Message:  message,
		Span:     span,
		Range:    c.file.Range(span),
	}
}

// Related builds a related location resolved against the collector's file.
func (c *Collector) Related(span source.Span, format string, args ...any) Related {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	return Related{Message: message, Span: span, Range: c.file.Range(span)}
}

// Append records a fully built diagnostic.
func (c *Collector) Append(d Diagnostic) {
	d.Related = slices.Clone(d.Related)
	c.items = append(c.items, d)
}

// Snapshot returns a copy of everything recorded so far, in emission order.
func (c *Collector) Snapshot() []Diagnostic {
	out := make([]Diagnostic, len(c.items))
	for i, d := range c.items {
		d.Related = slices.Clone(d.Related)
		out[i] = d
	}
	return out
}

func (c *Collector) Len() int {
	return len(c.items)
}

// HasErrors reports whether an error-severity diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	return HasErrors(c.items)
}

// Since returns the diagnostics recorded after the first n.
func (c *Collector) Since(n int) []Diagnostic {
	if n >= len(c.items) {
		return nil
	}
	return slices.Clone(c.items[n:])
}
