// Package evaluator runs resolved programs against a JSON document.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/resolver"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/stack"
	"github.com/jacoelho/jsonpatcher/internal/stdlib"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// DefaultMaxDepth bounds nested function calls.
const DefaultMaxDepth = 512

// maxTrace caps the call frames attached to a fault.
const maxTrace = 16

// State is the lifecycle of one evaluation.
type State int

const (
	StateReady State = iota
	StateRunning
	StateCompleted
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures an Evaluator.
type Options struct {
	Registry  *stdlib.Registry
	Logger    *slog.Logger
	MaxDepth  int
	Globals   map[string]value.Value
	Libraries map[string]string
}

type Option func(*Options)

// WithRegistry sets the built-in libraries. It must be the registry the
// program was resolved against.
func WithRegistry(r *stdlib.Registry) Option {
	return func(o *Options) {
		o.Registry = r
	}
}

// WithLogger sets the destination of debug.log when no registry is given.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

// WithGlobals sets the host variables visible to scripts.
func WithGlobals(globals map[string]value.Value) Option {
	return func(o *Options) {
		o.Globals = globals
	}
}

// WithLibraries sets the importable libraries as name to source text.
func WithLibraries(libraries map[string]string) Option {
	return func(o *Options) {
		o.Libraries = libraries
	}
}

// Evaluator is immutable after New and may be shared between goroutines;
// every Evaluate call owns its own environment.
type Evaluator struct {
	opts      Options
	libraries map[string]value.Value
}

func New(opts ...Option) *Evaluator {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Registry == nil {
		o.Registry = stdlib.New(o.Logger)
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}

	e := &Evaluator{opts: o, libraries: make(map[string]value.Value)}
	for _, lib := range o.Registry.Libraries() {
		e.libraries[lib.Name] = lib.Object()
	}
	return e
}

// ResolverOptions returns the resolver configuration matching the
// evaluator's globals and libraries.
func (e *Evaluator) ResolverOptions() resolver.Options {
	return resolver.Options{
		Registry:  e.opts.Registry,
		Globals:   slices.Sorted(maps.Keys(e.opts.Globals)),
		Libraries: e.libraryNames(),
	}
}

func (e *Evaluator) libraryNames() []string {
	if e.opts.Libraries == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(e.opts.Libraries))
}

// Result is the outcome of one evaluation. Document is the final document,
// or the document as it stood when a fault stopped the program.
type Result struct {
	Document value.Value
	State    State
	Fault    *Fault
}

type callRecord struct {
	frame Frame
	file  *source.File
}

// interp is the state of one evaluation.
type interp struct {
	ctx context.Context
	e   *Evaluator

	root     value.Value
	unit     *unit
	site     source.Span
	returned value.Value

	calls   *stack.Stack[callRecord]
	imports *stack.Stack[string]
	loaded  map[string]value.Value
}

// Evaluate runs prog against document. The document is never modified;
// faults are reported to diags and end the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, prog *ast.Program, res *resolver.Result, document value.Value, diags *diagnostic.Collector) (result Result) {
	if document == nil {
		document = value.Null{}
	}

	in := &interp{
		ctx:     ctx,
		e:       e,
		root:    document,
		calls:   stack.New[callRecord](e.opts.MaxDepth),
		imports: stack.New[string](0),
		loaded:  make(map[string]value.Value),
	}
	main := in.newUnit(prog.File.Name(), prog, res)
	in.unit = main
	result = Result{Document: document, State: StateRunning}

	defer func() {
		if r := recover(); r != nil {
			fault := &Fault{
				Code:    diagnostic.CodeInvalidProgram,
				Message: fmt.Sprintf("internal error: %v", r),
				Span:    in.site,
				File:    prog.File,
			}
			diags.Append(fault.Diagnostic(diags))
			result = Result{Document: in.root, State: StateFaulted, Fault: fault}
		}
	}()

	err := in.runUnit(main)
	result.Document = in.root
	result.State = StateCompleted
	if err != nil {
		fault := in.asFault(err, prog.Span())
		diags.Append(fault.Diagnostic(diags))
		result.State = StateFaulted
		result.Fault = fault
	}

	if value.ContainsFunction(result.Document) {
		diags.Add(diagnostic.CodeUnserializableValue, prog.Span(), "function values in the output document were replaced by null")
		result.Document = value.StripFunctions(result.Document)
	}
	return result
}

func (in *interp) newUnit(name string, prog *ast.Program, res *resolver.Result) *unit {
	u := &unit{name: name, file: prog.File, program: prog, res: res, globals: newFrame(nil)}
	for _, sym := range res.Symbols {
		switch sym.Kind {
		case resolver.SymbolLibrary:
			u.globals.define(sym.ID, in.e.libraries[sym.Name])
		case resolver.SymbolHost:
			v, ok := in.e.opts.Globals[sym.Name]
			if !ok || v == nil {
				v = value.Null{}
			}
			u.globals.define(sym.ID, v)
		}
	}
	return u
}

func (in *interp) runUnit(u *unit) error {
	saved := in.unit
	in.unit = u
	defer func() { in.unit = saved }()

	_, err := in.block(u.program.Stmts, newFrame(u.globals))
	return err
}

// Location describes the call in progress for debug.log.
func (in *interp) Location() string {
	return fmt.Sprintf("%s:%s", in.unit.file.Name(), in.unit.file.Position(in.site.Start))
}

func (in *interp) fault(code diagnostic.Code, span source.Span, err error, format string, args ...any) *Fault {
	f := &Fault{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
		File:    in.unit.file,
		Err:     err,
	}
	for _, record := range in.calls.Backward() {
		if len(f.Trace) == maxTrace {
			break
		}
		if record.file == in.unit.file {
			f.Trace = append(f.Trace, record.frame)
		}
	}
	return f
}

// asFault turns any error escaping the interpreter into a fault.
func (in *interp) asFault(err error, span source.Span) *Fault {
	if f, ok := err.(*Fault); ok {
		return f
	}
	return in.fault(codeFor(err), span, err, "%v", err)
}

// crossUnit re-anchors a fault raised inside another source file at the
// span in the current file that led to it.
func (in *interp) crossUnit(err error, span source.Span) error {
	f, ok := err.(*Fault)
	if !ok || f.File == in.unit.file || f.File == nil {
		return err
	}
	return in.fault(f.Code, span, f, "%s (in %s:%s)", f.Message, f.File.Name(), f.File.Position(f.Span.Start))
}

func (in *interp) cancelled(span source.Span) error {
	if err := in.ctx.Err(); err != nil {
		return in.fault(diagnostic.CodeCancelled, span, err, "evaluation cancelled: %v", err)
	}
	return nil
}
