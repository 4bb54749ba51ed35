// Package resolver binds identifiers to declarations and validates the
// static shape of a program without running it.
package resolver

import (
	"slices"
	"strings"

	"github.com/jacoelho/jsonpatcher/internal/ast"
	"github.com/jacoelho/jsonpatcher/internal/diagnostic"
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/stdlib"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// Options configures a resolution.
type Options struct {
	// Registry supplies the built-in libraries. Nil uses stdlib.New(nil).
	Registry *stdlib.Registry
	// Globals names the host variables visible to the script.
	Globals []string
	// Libraries names the modules the host can import. When nil, imports
	// are not checked.
	Libraries []string
	// WarnUnused reports declarations that are never referenced.
	WarnUnused bool
}

type pending struct {
	scope  ScopeID
	params []*ast.Param
	body   *ast.Block
	result ast.Expr
	node   ast.Node
}

type resolver struct {
	diags  *diagnostic.Collector
	opts   Options
	result *Result

	scope     ScopeID
	loopDepth int
	deferred  []pending
}

// Resolve analyzes prog, reporting problems to diags. It never mutates the
// tree and yields the same result for the same input.
func Resolve(prog *ast.Program, diags *diagnostic.Collector, opts Options) *Result {
	if opts.Registry == nil {
		opts.Registry = stdlib.New(nil)
	}

	r := &resolver{
		diags: diags,
		opts:  opts,
		result: &Result{
			Bindings:   make(map[ast.ID]Binding, prog.NodeCount),
			References: make(map[SymbolID][]source.Span),
		},
		scope: NoScope,
	}

	r.declareGlobals()
	r.push(ScopeProgram, prog)
	r.bind(prog, NoSymbol)
	for _, m := range prog.Metadata {
		r.bind(m, NoSymbol)
		r.expr(m.Value)
	}
	r.stmts(prog.Stmts)

	for len(r.deferred) > 0 {
		next := r.deferred[0]
		r.deferred = r.deferred[1:]
		r.function(next)
	}

	if opts.WarnUnused {
		r.warnUnused()
	}
	return r.result
}

func (r *resolver) declareGlobals() {
	r.push(ScopeGlobal, nil)
	for _, lib := range r.opts.Registry.Libraries() {
		sym := r.newSymbol(lib.Name, SymbolLibrary, NoNode, source.Span{})
		sym.Library = lib
	}

	globals := slices.Clone(r.opts.Globals)
	slices.Sort(globals)
	for _, name := range slices.Compact(globals) {
		if _, exists := r.result.Scopes[r.scope].Lookup(name); exists {
			continue
		}
		r.newSymbol(name, SymbolHost, NoNode, source.Span{})
	}
}

func (r *resolver) push(kind ScopeKind, node ast.Node) ScopeID {
	s := &Scope{
		ID:     ScopeID(len(r.result.Scopes)),
		Parent: r.scope,
		Kind:   kind,
		Node:   NoNode,
		names:  make(map[string]SymbolID),
	}
	if node != nil {
		s.Node = node.ID()
		s.Span = node.Span()
	}
	r.result.Scopes = append(r.result.Scopes, s)
	r.scope = s.ID
	return s.ID
}

func (r *resolver) pop() {
	r.scope = r.result.Scopes[r.scope].Parent
}

func (r *resolver) bind(n ast.Node, sym SymbolID) {
	r.result.Bindings[n.ID()] = Binding{Scope: r.scope, Symbol: sym}
}

func (r *resolver) newSymbol(name string, kind SymbolKind, decl ast.ID, span source.Span) *Symbol {
	sym := &Symbol{
		ID:       SymbolID(len(r.result.Symbols)),
		Name:     name,
		Kind:     kind,
		Scope:    r.scope,
		Decl:     decl,
		NameSpan: span,
	}
	r.result.Symbols = append(r.result.Symbols, sym)

	s := r.result.Scopes[r.scope]
	s.names[name] = sym.ID
	s.symbols = append(s.symbols, sym.ID)
	return sym
}

// declare adds a symbol to the current scope. A name already declared in
// the same scope keeps its first symbol and the duplicate is reported.
func (r *resolver) declare(n ast.Node, name string, kind SymbolKind, span source.Span) *Symbol {
	if name == "" {
		r.bind(n, NoSymbol)
		return nil
	}
	if existing, ok := r.result.Scopes[r.scope].Lookup(name); ok {
		first := r.result.Symbols[existing]
		d := r.diags.New(diagnostic.CodeDuplicateDeclaration, span, "%s is already declared in this scope", name)
		d.Related = append(d.Related, r.diags.Related(first.NameSpan, "first declaration of %s", name))
		r.diags.Append(d)
		r.bind(n, NoSymbol)
		return nil
	}

	sym := r.newSymbol(name, kind, n.ID(), span)
	r.bind(n, sym.ID)
	return sym
}

func (r *resolver) lookup(name string) (*Symbol, bool) {
	return r.result.LookupFrom(r.scope, name)
}

// visibleNames lists every name reachable from the current scope.
func (r *resolver) visibleNames() []string {
	var names []string
	for scope := r.scope; scope != NoScope; scope = r.result.Scopes[scope].Parent {
		for _, id := range r.result.Scopes[scope].symbols {
			names = append(names, r.result.Symbols[id].Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (r *resolver) reference(n *ast.Ident) *Symbol {
	sym, ok := r.lookup(n.Name)
	if !ok {
		r.bind(n, NoSymbol)
		r.diags.Add(diagnostic.CodeUnresolvedName, n.Span(), "undefined name %s%s", n.Name, didYouMean(n.Name, r.visibleNames()))
		return nil
	}
	r.bind(n, sym.ID)
	r.result.References[sym.ID] = append(r.result.References[sym.ID], n.Span())
	return sym
}

// hoist declares the functions of a statement list before any statement
// runs, so they can be called ahead of their declaration.
func (r *resolver) hoist(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		decl, ok := stmt.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if sym := r.declare(decl, decl.Name, SymbolFunction, decl.NameSpan); sym != nil {
			sym.Callable = true
			sym.Arity = ParamsArity(decl.Params)
		}
	}
}

func (r *resolver) stmts(stmts []ast.Stmt) {
	r.hoist(stmts)
	for _, stmt := range stmts {
		r.stmt(stmt)
	}
}

func (r *resolver) stmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case nil:
	case *ast.Block:
		r.push(ScopeBlock, n)
		r.bind(n, NoSymbol)
		r.stmts(n.Stmts)
		r.pop()
	case *ast.ExprStmt:
		r.bind(n, NoSymbol)
		r.expr(n.X)
	case *ast.VarDecl:
		r.expr(n.Value)
		kind := SymbolConstant
		if n.Mutable {
			kind = SymbolVariable
		}
		if sym := r.declare(n, n.Name, kind, n.NameSpan); sym != nil {
			sym.Mutable = n.Mutable
			if fn, ok := n.Value.(*ast.FuncLit); ok && !n.Mutable {
				sym.Callable = true
				sym.Arity = ParamsArity(fn.Params)
			}
		}
	case *ast.FuncDecl:
		// Declared by hoist; a FuncDecl nested directly under a control
		// statement has no enclosing list and is declared here.
		if _, bound := r.result.Bindings[n.ID()]; !bound {
			r.hoist([]ast.Stmt{n})
		}
		r.deferFunction(n, n.Params, n.Body, nil)
	case *ast.If:
		r.bind(n, NoSymbol)
		r.expr(n.Cond)
		r.stmt(n.Then)
		r.stmt(n.Else)
	case *ast.While:
		r.bind(n, NoSymbol)
		r.expr(n.Cond)
		r.loop(n.Body)
	case *ast.For:
		r.push(ScopeLoop, n)
		r.bind(n, NoSymbol)
		r.stmt(n.Init)
		r.expr(n.Cond)
		r.expr(n.Post)
		r.loop(n.Body)
		r.pop()
	case *ast.ForEach:
		r.expr(n.Seq)
		r.push(ScopeLoop, n)
		r.bind(n, NoSymbol)
		for _, v := range n.Vars {
			r.declare(v, v.Name, SymbolLoopVar, v.Span())
		}
		r.loop(n.Body)
		r.pop()
	case *ast.Break:
		r.bind(n, NoSymbol)
		if r.loopDepth == 0 {
			r.diags.Add(diagnostic.CodeMisplacedControl, n.Span(), "break outside of a loop")
		}
	case *ast.Continue:
		r.bind(n, NoSymbol)
		if r.loopDepth == 0 {
			r.diags.Add(diagnostic.CodeMisplacedControl, n.Span(), "continue outside of a loop")
		}
	case *ast.Return:
		r.bind(n, NoSymbol)
		r.expr(n.Value)
	case *ast.Delete:
		r.bind(n, NoSymbol)
		r.target(n.Target, false)
	case *ast.Apply:
		r.bind(n, NoSymbol)
		r.expr(n.Target)
		r.stmt(n.Body)
	case *ast.Import:
		r.importDecl(n)
	case *ast.Set:
		r.bind(n, NoSymbol)
		r.expr(n.Value)
		r.target(n.Target, true)
	case *ast.Insert:
		r.bind(n, NoSymbol)
		r.expr(n.Value)
		r.expr(n.At)
		r.target(n.Target, true)
	case *ast.Remove:
		r.bind(n, NoSymbol)
		r.target(n.Target, false)
	case *ast.Merge:
		r.bind(n, NoSymbol)
		r.expr(n.Value)
		r.target(n.Target, true)
	case *ast.Empty, *ast.BadStmt:
		r.bind(n, NoSymbol)
	}
}

func (r *resolver) loop(body ast.Stmt) {
	r.loopDepth++
	r.stmt(body)
	r.loopDepth--
}

func (r *resolver) importDecl(n *ast.Import) {
	name := n.Path
	switch {
	case name == "":
	case r.isLibrary(name):
		r.diags.Add(diagnostic.CodeUnknownLibrary, n.PathSpan, "%s is a built-in library and cannot be imported", name)
	case r.opts.Libraries != nil && !slices.Contains(r.opts.Libraries, name):
		r.diags.Add(diagnostic.CodeUnknownLibrary, n.PathSpan, "unknown library %q%s", name, didYouMean(name, r.opts.Libraries))
	}
	r.declare(n, n.Alias, SymbolImport, ast.NameSpan(n))
}

func (r *resolver) isLibrary(name string) bool {
	_, ok := r.opts.Registry.Library(name)
	return ok
}

func (r *resolver) deferFunction(n ast.Node, params []*ast.Param, body *ast.Block, result ast.Expr) {
	r.deferred = append(r.deferred, pending{scope: r.scope, params: params, body: body, result: result, node: n})
}

// function resolves a deferred function body in a fresh function scope
// whose parent is the scope the function was written in.
func (r *resolver) function(p pending) {
	saved, savedLoop := r.scope, r.loopDepth
	r.scope = p.scope
	r.loopDepth = 0

	r.push(ScopeFunction, p.node)
	for _, param := range p.params {
		r.expr(param.Default)
		if _, dup := r.result.Scopes[r.scope].Lookup(param.Name); dup {
			// already reported by the parser
			r.bind(param, NoSymbol)
			continue
		}
		r.declare(param, param.Name, SymbolParameter, param.Span())
	}
	if p.body != nil {
		r.bind(p.body, NoSymbol)
		r.stmts(p.body.Stmts)
	}
	r.expr(p.result)
	r.pop()

	r.scope, r.loopDepth = saved, savedLoop
}

func (r *resolver) exprs(list []ast.Expr) {
	for _, x := range list {
		r.expr(x)
	}
}

func (r *resolver) expr(x ast.Expr) {
	switch n := x.(type) {
	case nil:
	case *ast.Ident:
		r.reference(n)
	case *ast.Member:
		r.bind(n, NoSymbol)
		r.expr(n.X)
		r.libraryMember(n)
	case *ast.Index:
		r.bind(n, NoSymbol)
		r.expr(n.X)
		r.expr(n.Index)
		r.literalIndex(n.Index)
	case *ast.Call:
		r.bind(n, NoSymbol)
		r.expr(n.Fn)
		r.exprs(n.Args)
		r.checkCall(n)
	case *ast.Unary:
		r.bind(n, NoSymbol)
		r.expr(n.X)
	case *ast.Binary:
		r.bind(n, NoSymbol)
		r.expr(n.X)
		r.expr(n.Y)
	case *ast.Conditional:
		r.bind(n, NoSymbol)
		r.expr(n.Cond)
		r.expr(n.Then)
		r.expr(n.Else)
	case *ast.Assign:
		r.bind(n, NoSymbol)
		r.expr(n.Value)
		r.target(n.Target, true)
	case *ast.IncDec:
		r.bind(n, NoSymbol)
		r.target(n.Target, true)
	case *ast.TypeTest:
		r.bind(n, NoSymbol)
		r.expr(n.X)
		if _, ok := value.KindByName(n.TypeName); !ok && n.TypeName != "" {
			r.diags.Add(diagnostic.CodeUnresolvedName, n.TypeSpan, "unknown type %s%s", n.TypeName, didYouMean(n.TypeName, typeNames()))
		}
	case *ast.ArrayLit:
		r.bind(n, NoSymbol)
		r.exprs(n.Elements)
	case *ast.ObjectLit:
		r.bind(n, NoSymbol)
		for _, f := range n.Fields {
			r.expr(f.Value)
		}
	case *ast.FuncLit:
		r.bind(n, NoSymbol)
		r.deferFunction(n, n.Params, n.Body, n.Result)
	case *ast.Literal, *ast.Root, *ast.BadExpr:
		r.bind(n, NoSymbol)
	}
}

func typeNames() []string {
	return []string{"array", "boolean", "function", "null", "number", "object", "string"}
}

// libraryMember validates `lib.name` against the built-in library.
func (r *resolver) libraryMember(n *ast.Member) *stdlib.Member {
	lib := r.libraryOf(n.X)
	if lib == nil {
		return nil
	}
	m, ok := lib.Lookup(n.Name)
	if !ok {
		r.diags.Add(diagnostic.CodeUnknownMember, n.NameSpan, "library %s has no member %s%s", lib.Name, n.Name, didYouMean(n.Name, lib.Names()))
		return nil
	}
	return &m
}

// libraryOf returns the library x refers to, when x is an identifier bound
// to a built-in library.
func (r *resolver) libraryOf(x ast.Expr) *stdlib.Library {
	ident, ok := x.(*ast.Ident)
	if !ok {
		return nil
	}
	sym, ok := r.result.SymbolOf(ident.ID())
	if !ok || sym.Kind != SymbolLibrary {
		return nil
	}
	return sym.Library
}

func (r *resolver) checkCall(n *ast.Call) {
	var (
		name  string
		arity value.Arity
	)

	switch fn := n.Fn.(type) {
	case *ast.Ident:
		sym, ok := r.result.SymbolOf(fn.ID())
		if !ok || !sym.Callable {
			return
		}
		name, arity = sym.Name, sym.Arity
	case *ast.Member:
		lib := r.libraryOf(fn.X)
		if lib == nil {
			return
		}
		m, ok := lib.Lookup(fn.Name)
		if !ok {
			return
		}
		f, ok := m.Value.(*value.Function)
		if !ok {
			return
		}
		name, arity = f.Name, f.Arity
		if f.Name == "json.query" {
			r.checkQuery(n)
		}
	default:
		return
	}

	if !arity.Accepts(len(n.Args)) {
		r.diags.Add(diagnostic.CodeArityMismatch, n.Span(), "%s expects %s %s, got %d", name, arity, plural(arity), len(n.Args))
	}
}

func plural(a value.Arity) string {
	if a.Min == 1 && a.Max == 1 {
		return "argument"
	}
	return "arguments"
}

func (r *resolver) checkQuery(n *ast.Call) {
	if len(n.Args) < 2 {
		return
	}
	lit, ok := n.Args[1].(*ast.Literal)
	if !ok {
		return
	}
	expr, ok := lit.Value.(value.String)
	if !ok {
		return
	}
	if _, err := stdlib.CompileQuery(string(expr)); err != nil {
		r.diags.Add(diagnostic.CodeInvalidJSONPath, lit.Span(), "%v", err)
	}
}

// literalIndex rejects constant index segments that can never address an
// array element or object key.
func (r *resolver) literalIndex(x ast.Expr) {
	lit, ok := x.(*ast.Literal)
	if !ok {
		return
	}
	switch v := lit.Value.(type) {
	case value.String:
		return
	case value.Number:
		if _, integral := v.Integral(); integral {
			return
		}
		r.diags.Add(diagnostic.CodeInvalidPath, lit.Span(), "index %s is not an integer", v)
	default:
		r.diags.Add(diagnostic.CodeInvalidPath, lit.Span(), "index must be a string or an integer, got %s", value.TypeName(v))
	}
}

// target resolves an assignment or patch destination. It must be `$` or an
// assignable variable followed by member and index segments. Removal
// targets need at least one segment.
func (r *resolver) target(x ast.Expr, allowRoot bool) {
	if x == nil {
		return
	}
	r.expr(x)

	segments := 0
	base := x
	for {
		switch n := base.(type) {
		case *ast.Member:
			base = n.X
			segments++
			continue
		case *ast.Index:
			base = n.X
			segments++
			continue
		}
		break
	}

	switch n := base.(type) {
	case *ast.Root:
		if segments == 0 && !allowRoot {
			r.diags.Add(diagnostic.CodeInvalidPath, x.Span(), "cannot remove the document root")
		}
	case *ast.Ident:
		sym, ok := r.result.SymbolOf(n.ID())
		if !ok {
			return
		}
		if segments == 0 && !allowRoot {
			r.diags.Add(diagnostic.CodeInvalidPath, x.Span(), "cannot remove variable %s; remove a member or element instead", n.Name)
			return
		}
		if !sym.Assignable() {
			r.diags.Add(diagnostic.CodeInvalidAssignment, n.Span(), "cannot assign to %s %s", sym.Kind, sym.Name)
		}
	case *ast.BadExpr:
	default:
		r.diags.Add(diagnostic.CodeInvalidPath, x.Span(), "%s is not a path", describe(x))
	}
}

func describe(x ast.Expr) string {
	switch x.(type) {
	case *ast.Literal, *ast.ArrayLit, *ast.ObjectLit:
		return "a literal"
	case *ast.Call:
		return "a call result"
	case *ast.FuncLit:
		return "a function"
	}
	return "an expression"
}

func (r *resolver) warnUnused() {
	for _, sym := range r.result.Symbols {
		switch sym.Kind {
		case SymbolVariable, SymbolConstant, SymbolFunction, SymbolImport, SymbolLoopVar:
		default:
			continue
		}
		if strings.HasPrefix(sym.Name, "_") || len(r.result.References[sym.ID]) > 0 {
			continue
		}
		r.diags.Add(diagnostic.CodeUnusedSymbol, sym.NameSpan, "%s %s is never used", sym.Kind, sym.Name)
	}
}

// ParamsArity derives the accepted argument counts of a parameter list.
func ParamsArity(params []*ast.Param) value.Arity {
	a := value.Arity{Max: len(params)}
	for _, p := range params {
		switch {
		case p.Variadic:
			a.Max = -1
		case p.Default == nil:
			a.Min++
		}
	}
	return a
}
