// Package source tracks script text and maps byte offsets to line/column
// positions.
package source

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Pos is a resolved location. Line and Column are zero-based; Column counts
// Unicode code points from the start of the line.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Span is a half-open byte range [Start, End) over the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan returns the span [start, end).
func NewSpan(start int, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsZero reports whether the span has never been set.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Contains reports whether offset falls inside the span. The end offset is
// included so a cursor placed right after a token still hits it.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// Encloses reports whether other lies entirely within s.
func (s Span) Encloses(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Range is a span resolved to line/column positions.
type Range struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// File is an immutable script text with a precomputed line index.
type File struct {
	name  string
	text  string
	lines []int
}

// NewFile indexes text for position lookups.
func NewFile(name string, text string) *File {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &File{name: name, text: text, lines: lines}
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Text() string {
	return f.text
}

func (f *File) Len() int {
	return len(f.text)
}

// LineCount returns the number of lines, counting a trailing empty line.
func (f *File) LineCount() int {
	return len(f.lines)
}

// Slice returns the text covered by span, clamped to the file bounds.
func (f *File) Slice(span Span) string {
	start, end := f.clamp(span.Start), f.clamp(span.End)
	if end < start {
		return ""
	}
	return f.text[start:end]
}

// Position resolves a byte offset.
func (f *File) Position(offset int) Pos {
	offset = f.clamp(offset)
	line := sort.Search(len(f.lines), func(i int) bool {
		return f.lines[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}

	column := utf8.RuneCountInString(f.text[f.lines[line]:offset])
	return Pos{Offset: offset, Line: line, Column: column}
}

// Range resolves both ends of a span.
func (f *File) Range(span Span) Range {
	return Range{Start: f.Position(span.Start), End: f.Position(span.End)}
}

// Offset converts a zero-based line/column pair back to a byte offset.
// Out-of-range lines clamp to the file end and columns clamp to the line end.
func (f *File) Offset(line int, column int) int {
	if line < 0 {
		return 0
	}
	if line >= len(f.lines) {
		return len(f.text)
	}

	offset := f.lines[line]
	end := len(f.text)
	if line+1 < len(f.lines) {
		end = f.lines[line+1] - 1
	}

	for column > 0 && offset < end {
		_, size := utf8.DecodeRuneInString(f.text[offset:])
		offset += size
		column--
	}
	return offset
}

// LineText returns the text of a zero-based line without its line break.
func (f *File) LineText(line int) string {
	if line < 0 || line >= len(f.lines) {
		return ""
	}

	start := f.lines[line]
	end := len(f.text)
	if line+1 < len(f.lines) {
		end = f.lines[line+1] - 1
	}
	if end > start && f.text[end-1] == '\r' {
		end--
	}
	return f.text[start:end]
}

func (f *File) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(f.text) {
		return len(f.text)
	}
	return offset
}
