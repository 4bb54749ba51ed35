package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/peterh/liner"

	"github.com/jacoelho/jsonpatcher"
	"github.com/jacoelho/jsonpatcher/internal/exit"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

const (
	promptMain = "jp> "
	promptMore = "... "
	replFile   = "repl"
)

const replHelp = `Statements run against the current document, which is printed after
every change. Declarations are kept for later input; assignments to
declared variables are not.

  :doc     print the document
  :decls   list kept declarations
  :reset   restore the initial document and forget declarations
  :quit    leave
`

type declaration struct {
	name   string
	source string
}

// session holds REPL state between inputs.
type session struct {
	initial jsonpatcher.Value
	doc     jsonpatcher.Value
	decls   []declaration
	opts    []jsonpatcher.Option
	out     io.Writer
	pending []string
}

func newSession(doc jsonpatcher.Value, opts []jsonpatcher.Option, out io.Writer) *session {
	return &session{
		initial: doc,
		doc:     doc,
		opts:    append(slices.Clip(opts), jsonpatcher.WithFileName(replFile)),
		out:     out,
	}
}

func prelude(decls []declaration) string {
	var b strings.Builder
	for _, d := range decls {
		b.WriteString(d.source)
		b.WriteByte('\n')
	}
	return b.String()
}

// prompt returns the prompt for the next line.
func (s *session) prompt() string {
	if len(s.pending) > 0 {
		return promptMore
	}
	return promptMain
}

// abort discards a partially entered statement.
func (s *session) abort() {
	s.pending = nil
}

// handle processes one line. It returns false when the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	if len(s.pending) == 0 {
		switch strings.TrimSpace(line) {
		case "":
			return true
		case ":quit", ":q":
			return false
		case ":help":
			fmt.Fprint(s.out, replHelp)
			return true
		case ":doc":
			s.printDocument()
			return true
		case ":decls":
			for _, d := range s.decls {
				fmt.Fprintln(s.out, d.source)
			}
			return true
		case ":reset":
			s.doc = s.initial
			s.decls = nil
			return true
		}
	}

	s.pending = append(s.pending, line)
	entry := strings.Join(s.pending, "\n")

	analysis, diags := jsonpatcher.Analyze(entry, s.opts...)
	if incomplete(diags) {
		return true
	}
	s.pending = nil

	redeclared := make(map[string]bool)
	for _, d := range analysis.Declarations() {
		redeclared[d.Name] = true
	}
	kept := slices.DeleteFunc(slices.Clone(s.decls), func(d declaration) bool {
		return redeclared[d.name]
	})

	head := prelude(kept)
	program, diags := jsonpatcher.Compile(head+entry, s.opts...)
	shift := strings.Count(head, "\n")
	if program.HasErrors() {
		s.printDiagnostics(diags, shift)
		return true
	}

	patched, diags := program.Run(ctx, s.doc)
	s.printDiagnostics(diags, shift)
	if jsonpatcher.HasErrors(diags) {
		return true
	}

	s.decls = kept
	for _, d := range analysis.Declarations() {
		s.decls = append(s.decls, declaration{name: d.Name, source: d.Source})
	}
	if !jsonpatcher.Equal(s.doc, patched) {
		s.doc = patched
		s.printDocument()
	}
	return true
}

// incomplete reports whether the only syntax errors are a premature end of
// input, in which case more lines are read before running. Names declared in
// earlier input are unresolved here and do not count.
func incomplete(diags []jsonpatcher.Diagnostic) bool {
	sawEnd := false
	for _, d := range diags {
		if !d.IsError() || d.Stage == "resolve" {
			continue
		}
		if d.Code != "syntax.unexpected_end" {
			return false
		}
		sawEnd = true
	}
	return sawEnd
}

func (s *session) printDiagnostics(diags []jsonpatcher.Diagnostic, shift int) {
	for _, d := range diags {
		start := d.Location.Start
		if start.Line >= shift {
			start.Line -= shift
		}
		fmt.Fprintf(s.out, "%s: %s: %s\n", start, d.Severity, d.Message)
	}
}

func (s *session) printDocument() {
	out, err := jsonpatcher.EncodeJSON(s.doc, "  ")
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s\n", out)
}

// complete offers completions for the word before the end of line.
func (s *session) complete(line string) []string {
	head := prelude(s.decls)
	for _, pending := range s.pending {
		head += pending + "\n"
	}
	analysis, _ := jsonpatcher.Analyze(head+line, s.opts...)

	lineNo := strings.Count(head, "\n")
	items := analysis.Completions(lineNo, utf8.RuneCountInString(line))

	start := len(line)
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	var out []string
	for _, item := range items {
		out = append(out, line[:start]+item.Label)
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func (a *app) repl(ctx context.Context) *exit.Result {
	opts, err := a.options()
	if err != nil {
		return exit.Errorf("Error: %v\n", err)
	}

	var doc jsonpatcher.Value = value.NewObject()
	if a.cfg.InputFile != "" {
		if doc, err = a.readInput(a.cfg.InputFile); err != nil {
			return exit.Errorf("Error: %v\n", err)
		}
	}
	s := newSession(doc, opts, a.stdout)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)
	line.SetCompleter(s.complete)

	fmt.Fprintln(a.stdout, "jpatch repl, :help for commands")
	for ctx.Err() == nil {
		input, err := line.Prompt(s.prompt())
		if errors.Is(err, liner.ErrPromptAborted) {
			s.abort()
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return exit.Errorf("Error: read input: %v\n", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !s.handle(ctx, input) {
			break
		}
	}
	return exit.Success("")
}
