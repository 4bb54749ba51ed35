// Package ast declares the syntax tree of the patch language.
//
// Nodes are immutable once the parser returns them. Each node has a dense
// ID, unique within its program, that later stages use as a key for side
// tables instead of storing their results on the tree.
package ast

import (
	"github.com/jacoelho/jsonpatcher/internal/source"
	"github.com/jacoelho/jsonpatcher/internal/token"
	"github.com/jacoelho/jsonpatcher/internal/value"
)

// ID identifies a node within one program.
type ID int

// Node is implemented by every syntax tree node.
type Node interface {
	ID() ID
	Span() source.Span
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Base carries the identity and source range shared by all nodes.
type Base struct {
	NodeID ID
	Range  source.Span
}

func (b *Base) ID() ID            { return b.NodeID }
func (b *Base) Span() source.Span { return b.Range }

type (
	// Literal is a number, string, boolean or null constant.
	Literal struct {
		Base
		Value value.Value
	}

	Ident struct {
		Base
		Name string
	}

	// Root is `$`, the document being patched.
	Root struct {
		Base
	}

	// Member is `x.name`; `$name` parses as a Member of Root.
	Member struct {
		Base
		X        Expr
		Name     string
		NameSpan source.Span
	}

	// Index is `x[index]`.
	Index struct {
		Base
		X     Expr
		Index Expr
	}

	Call struct {
		Base
		Fn   Expr
		Args []Expr
	}

	Unary struct {
		Base
		Op     token.Kind
		OpSpan source.Span
		X      Expr
	}

	Binary struct {
		Base
		Op     token.Kind
		OpSpan source.Span
		X      Expr
		Y      Expr
	}

	// Conditional is `cond ? then : else`.
	Conditional struct {
		Base
		Cond Expr
		Then Expr
		Else Expr
	}

	// Assign is `target = value` or a compound assignment such as `+=`.
	Assign struct {
		Base
		Op     token.Kind
		Target Expr
		Value  Expr
	}

	// IncDec is `++x`, `x++`, `--x` or `x--`.
	IncDec struct {
		Base
		Op     token.Kind
		Prefix bool
		Target Expr
	}

	// TypeTest is `x is typename`.
	TypeTest struct {
		Base
		X        Expr
		TypeName string
		TypeSpan source.Span
	}

	ArrayLit struct {
		Base
		Elements []Expr
	}

	ObjectLit struct {
		Base
		Fields []*Field
	}

	// FuncLit is an arrow function. Exactly one of Body and Result is set.
	FuncLit struct {
		Base
		Params []*Param
		Body   *Block
		Result Expr
	}

	// BadExpr stands in for an expression that failed to parse.
	BadExpr struct {
		Base
	}
)

type (
	Block struct {
		Base
		Stmts []Stmt
	}

	ExprStmt struct {
		Base
		X Expr
	}

	// VarDecl is `var name = value` (Mutable) or `val name = value`.
	VarDecl struct {
		Base
		Mutable  bool
		Name     string
		NameSpan source.Span
		Value    Expr
	}

	FuncDecl struct {
		Base
		Name     string
		NameSpan source.Span
		Params   []*Param
		Body     *Block
	}

	If struct {
		Base
		Cond Expr
		Then Stmt
		Else Stmt
	}

	While struct {
		Base
		Cond Expr
		Body Stmt
	}

	// For is the three-clause loop. Init, Cond and Post may be nil.
	For struct {
		Base
		Init Stmt
		Cond Expr
		Post Expr
		Body Stmt
	}

	// ForEach binds one or two loop variables over an array or object.
	ForEach struct {
		Base
		Vars []*LoopVar
		Seq  Expr
		Body Stmt
	}

	Break struct {
		Base
	}

	Continue struct {
		Base
	}

	Return struct {
		Base
		Value Expr
	}

	Delete struct {
		Base
		Target Expr
	}

	// Apply runs Body with `$` rebound to the value of Target.
	Apply struct {
		Base
		Target Expr
		Body   Stmt
	}

	// Import is `import "name" as alias`. Alias defaults to the path.
	Import struct {
		Base
		Path      string
		PathSpan  source.Span
		Alias     string
		AliasSpan source.Span
	}

	// Set is `set target to value`.
	Set struct {
		Base
		Target Expr
		Value  Expr
	}

	// Insert is `insert value into target [at position]`.
	Insert struct {
		Base
		Value  Expr
		Target Expr
		At     Expr
	}

	// Remove is `remove target`.
	Remove struct {
		Base
		Target Expr
	}

	// Merge is `merge value into target`.
	Merge struct {
		Base
		Value  Expr
		Target Expr
	}

	Empty struct {
		Base
	}

	// BadStmt stands in for a statement that failed to parse.
	BadStmt struct {
		Base
	}
)

// Field is one `key: value` entry of an object literal.
type Field struct {
	Key     string
	KeySpan source.Span
	Value   Expr
}

// Param is a function parameter: `name`, `name = default` or `name*`.
type Param struct {
	Base
	Name     string
	Variadic bool
	Default  Expr
}

// LoopVar is a variable bound by foreach.
type LoopVar struct {
	Base
	Name string
}

// Metadata is an `@name value` header entry.
type Metadata struct {
	Base
	Name     string
	NameSpan source.Span
	Value    Expr
}

// Comment is a `#` comment kept for documentation lookups.
type Comment struct {
	Text string
	Span source.Span
}

// Program is the root of a parsed source file.
type Program struct {
	Base
	File      *source.File
	Metadata  []*Metadata
	Stmts     []Stmt
	Comments  []Comment
	NodeCount int
}

func (*Literal) exprNode()     {}
func (*Ident) exprNode()       {}
func (*Root) exprNode()        {}
func (*Member) exprNode()      {}
func (*Index) exprNode()       {}
func (*Call) exprNode()        {}
func (*Unary) exprNode()       {}
func (*Binary) exprNode()      {}
func (*Conditional) exprNode() {}
func (*Assign) exprNode()      {}
func (*IncDec) exprNode()      {}
func (*TypeTest) exprNode()    {}
func (*ArrayLit) exprNode()    {}
func (*ObjectLit) exprNode()   {}
func (*FuncLit) exprNode()     {}
func (*BadExpr) exprNode()     {}

func (*Block) stmtNode()    {}
func (*ExprStmt) stmtNode() {}
func (*VarDecl) stmtNode()  {}
func (*FuncDecl) stmtNode() {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*For) stmtNode()      {}
func (*ForEach) stmtNode()  {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}
func (*Return) stmtNode()   {}
func (*Delete) stmtNode()   {}
func (*Apply) stmtNode()    {}
func (*Import) stmtNode()   {}
func (*Set) stmtNode()      {}
func (*Insert) stmtNode()   {}
func (*Remove) stmtNode()   {}
func (*Merge) stmtNode()    {}
func (*Empty) stmtNode()    {}
func (*BadStmt) stmtNode()  {}
