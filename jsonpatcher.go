// Package jsonpatcher runs patch scripts against JSON documents and answers
// editor queries about them.
//
// A script is compiled once with Compile and may then be run against any
// number of documents, concurrently if needed. Run is the one-shot form.
// Documents are never modified in place: every run returns a new value that
// shares unchanged parts with its input.
package jsonpatcher

import (
	"context"
	"log/slog"
	"maps"

	"github.com/jacoelho/jsonpatcher/internal/analysis"
	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/evaluator"
	"github.com/jacoelho/jsonpatcher/internal/parser"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/stdlib"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// DefaultFileName names scripts in diagnostics and debug.log output when
// WithFileName is not given.
const DefaultFileName = "script.jp"

type options struct {
	fileName          string
	logger            *slog.Logger
	variables         map[string]Value
	libraries         map[string]string
	maxDepth          int
	warnUnused        bool
	runOnStaticErrors bool
}

type Option func(*options)

// WithFileName sets the name used for the script in messages.
func WithFileName(name string) Option {
	return func(o *options) {
		o.fileName = name
	}
}

// WithLogger sets the destination of debug.log records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithVariables exposes host values to scripts as read-only globals.
func WithVariables(variables map[string]Value) Option {
	return func(o *options) {
		o.variables = maps.Clone(variables)
	}
}

// WithLibraries registers importable script libraries as name to source.
// Once set, importing any other name is a static error.
func WithLibraries(libraries map[string]string) Option {
	return func(o *options) {
		o.libraries = maps.Clone(libraries)
	}
}

// WithMaxDepth bounds nested function calls.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithWarnUnused reports declarations that are never used as warnings.
func WithWarnUnused(enabled bool) Option {
	return func(o *options) {
		o.warnUnused = enabled
	}
}

// WithRunOnStaticErrors runs scripts even when compilation reported errors.
// Statements that failed to parse fault when reached.
func WithRunOnStaticErrors(enabled bool) Option {
	return func(o *options) {
		o.runOnStaticErrors = enabled
	}
}

func newOptions(opts []Option) options {
	o := options{fileName: DefaultFileName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Program is a compiled script. It is immutable and safe for concurrent use.
type Program struct {
	compiled
	static []diagnostic.Diagnostic
	opts   options
}

type compiled struct {
	file     *source.File
	program  *ast.Program
	result   *resolver.Result
	eval     *evaluator.Evaluator
	analysis *analysis.Analysis
	diags    *diagnostic.Collector
}

func compile(src string, o options) compiled {
	registry := stdlib.New(o.logger)
	eval := evaluator.New(
		evaluator.WithRegistry(registry),
		evaluator.WithLogger(o.logger),
		evaluator.WithMaxDepth(o.maxDepth),
		evaluator.WithGlobals(o.variables),
		evaluator.WithLibraries(o.libraries),
	)

	file := source.NewFile(o.fileName, src)
	diags := diagnostic.NewCollector(file)
	prog := parser.Parse(file, diags)

	resolverOpts := eval.ResolverOptions()
	resolverOpts.WarnUnused = o.warnUnused
	res := resolver.Resolve(prog, diags, resolverOpts)

	return compiled{
		file:     file,
		program:  prog,
		result:   res,
		eval:     eval,
		analysis: analysis.New(prog, res),
		diags:    diags,
	}
}

// Compile parses and checks src. The program is returned even when the
// diagnostics contain errors so callers can inspect it; running such a
// program returns the document unchanged unless WithRunOnStaticErrors is set.
func Compile(src string, opts ...Option) (*Program, []Diagnostic) {
	o := newOptions(opts)
	c := compile(src, o)
	static := c.diags.Snapshot()

	return &Program{
		compiled: c,
		static:   static,
		opts:     o,
	}, convert(c.file, static)
}

// HasErrors reports whether compilation found errors.
func (p *Program) HasErrors() bool {
	return diagnostic.HasErrors(p.static)
}

// Metadata returns the `@name value` header entries in source order.
func (p *Program) Metadata() []Metadata {
	return metadata(p.analysis)
}

// Metadata is one header entry of a script.
type Metadata struct {
	Name  string
	Value Value
}

func metadata(a *analysis.Analysis) []Metadata {
	var out []Metadata
	for _, m := range a.Metadata() {
		out = append(out, Metadata{Name: m.Name, Value: m.Value})
	}
	return out
}

// Run applies the program to document. The returned diagnostics start with
// the compile-time ones. When the program faults, the document as it stood
// at the fault is returned together with the runtime diagnostic.
func (p *Program) Run(ctx context.Context, document Value) (Value, []Diagnostic) {
	diags := diagnostic.NewCollector(p.file)
	for _, d := range p.static {
		diags.Append(d)
	}
	if document == nil {
		document = value.Null{}
	}
	if p.HasErrors() && !p.opts.runOnStaticErrors {
		return document, convert(p.file, diags.Snapshot())
	}

	result := p.eval.Evaluate(ctx, p.program, p.result, document, diags)
	return result.Document, convert(p.file, diags.Snapshot())
}

// Run compiles src and applies it to document.
func Run(ctx context.Context, src string, document Value, opts ...Option) (Value, []Diagnostic) {
	p, _ := Compile(src, opts...)
	return p.Run(ctx, document)
}
