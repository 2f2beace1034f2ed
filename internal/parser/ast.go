// Package parser turns a token stream from internal/lexer into a typed AST
// for the Intent Definition Language. Nodes that are naturally sum types
// (expressions, field types, decorators, process steps) are modeled as
// tagged variants — a Kind discriminator plus the payload fields for that
// kind — rather than an open interface hierarchy, per the language's design
// notes on closed, exhaustively-switchable variants.
package parser

import "github.com/intentc/intentc/internal/lexer"

// Span re-exports the lexer's source-location type so AST consumers never
// need to import the lexer package directly.
type Span = lexer.Span

// Program is the root AST node: a single compiled IDL source file. The
// distinguished auth entity (at most one, §3) is not a separate field here —
// it is whichever Entity has IsAuth set; the validator's symbol-table pass
// is responsible for detecting more than one and reporting AuthEntityConflict.
type Program struct {
	Entities []*Entity
	Policies []*Policy
	Rules    []*Rule
	Actions  []*Action
}

// Entity is a declared data model.
//
//	entity User:
//	  id: uuid @primary
//	  email: string @unique
type Entity struct {
	Name     string
	IsAuth   bool
	Fields   []*Field
	Policies []*Policy // inline, entity-scoped policies
	Span     Span
}

// Field is one attribute of an Entity.
type Field struct {
	Name       string
	Type       Type
	Decorators []Decorator
	Span       Span
}

// TypeKind discriminates the Type tagged variant.
type TypeKind int

const (
	TypeBase TypeKind = iota
	TypeEnum
	TypeRef
	TypeArray
	TypeOptional
)

// Type is the grammar's type variant: base types, closed string enums,
// references to another declared entity, arrays, and optionals (which may
// nest, e.g. an array of optional references).
type Type struct {
	Kind TypeKind

	Base string // for TypeBase: "string"|"number"|"boolean"|"datetime"|"uuid"|"email"

	EnumValues []string // for TypeEnum

	RefName string // for TypeRef: textual entity name (resolved to an ID by the validator)
	RefID   int    // set by the validator's reference-resolution pass; -1 until resolved

	Elem *Type // for TypeArray / TypeOptional
}

// DecoratorKind discriminates the Decorator tagged variant.
type DecoratorKind int

const (
	DecoratorPrimary DecoratorKind = iota
	DecoratorUnique
	DecoratorOptional
	DecoratorIndex
	DecoratorDefault
	DecoratorValidate
	DecoratorMap
)

// KV is an ordered key/value pair, used for @validate's argument list so
// declaration order survives into diagnostics and generated code.
type KV struct {
	Key   string
	Value string
}

// Decorator is a single `@name` or `@name(args)` field or action annotation.
type Decorator struct {
	Kind DecoratorKind

	DefaultValue string // for DecoratorDefault: a literal, "now", or "uuid"

	Validates []KV // for DecoratorValidate

	MapField     string // for DecoratorMap: target field on the same entity
	MapTransform string // for DecoratorMap: transform name (initial catalog: "hash")

	Span Span
}

// Policy is a named set of authorization constraints.
//
//	policy OwnTasksOnly:
//	  subject: @auth
//	  require subject.id == Task.owner_id
type Policy struct {
	Name          string
	SubjectIsAuth bool   // true when `subject: @auth`
	SubjectEntity string // entity name, when SubjectIsAuth is false
	Requires      []Expr
	Span          Span
}

// Rule is a declarative `when/then` business constraint.
type Rule struct {
	Name string
	When Expr
	Then Consequence
	Span Span
}

// ConsequenceKind discriminates the Consequence tagged variant.
type ConsequenceKind int

const (
	ConsequenceReject ConsequenceKind = iota
	ConsequenceLog
	ConsequenceCall
)

// Consequence is a rule's `then` clause.
type Consequence struct {
	Kind ConsequenceKind

	Message string // for ConsequenceReject / ConsequenceLog

	CallAction string // for ConsequenceCall
	CallArgs   []Expr // for ConsequenceCall

	Span Span
}

// ActionDecoratorKind discriminates the ActionDecorator tagged variant.
type ActionDecoratorKind int

const (
	ActionDecoratorAPI ActionDecoratorKind = iota
	ActionDecoratorAuth
	ActionDecoratorPolicy
	ActionDecoratorMap
)

// ActionDecorator is one of the decorators attachable to an action; any
// subset, in any order, and `@map` may repeat.
type ActionDecorator struct {
	Kind ActionDecoratorKind

	Method string // for ActionDecoratorAPI: GET|POST|PUT|PATCH|DELETE
	Path   string // for ActionDecoratorAPI: "/users/{id}"

	HasValidate   bool   // for ActionDecoratorAuth: true for @auth(validate(field))
	ValidateField string // for ActionDecoratorAuth, when HasValidate

	PolicyName string // for ActionDecoratorPolicy

	MapField     string // for ActionDecoratorMap
	MapTransform string // for ActionDecoratorMap

	Span Span
}

// Param is one typed entry of an action's `input:` block.
type Param struct {
	Name string
	Type Type
	Span Span
}

// ProcessStmtKind discriminates the ProcessStmt tagged variant — the AST-level
// representation of one `process:` line, prior to validator lowering into
// the resolved ProcessStep IR (see internal/ir).
type ProcessStmtKind int

const (
	ProcessDeriveSelect ProcessStmtKind = iota
	ProcessDeriveCompute
	ProcessDeriveSystem
	ProcessMutateCreate
	ProcessMutateUpdate
	ProcessDelete
)

// SetClause is one `set FIELD = EXPR` line inside a mutate block.
type SetClause struct {
	Field string
	Value Expr
	Span  Span
}

// ProcessStmt is one line of an action's `process:` block.
type ProcessStmt struct {
	Kind ProcessStmtKind

	Binding string // for Derive* kinds

	Entity string // entity name for Derive Select / Mutate* / Delete
	Where  Expr   // Select's where, Mutate-update's where, Delete's where (nil if absent)
	HasWhere bool

	Func string // for DeriveCompute
	Path string // for DeriveSystem: dotted capability path, e.g. "jwt.create"
	Args []Expr // for DeriveCompute / DeriveSystem

	Sets []SetClause // for MutateCreate / MutateUpdate

	Span Span
}

// ProjectionEntry is one line of an action's `output:` block.
type ProjectionEntry struct {
	Entity string
	Fields []string
	Span   Span
}

// Action is a named, HTTP-exposed operation.
type Action struct {
	Name       string
	Decorators []ActionDecorator
	Input      []Param
	Process    []ProcessStmt
	Output     []ProjectionEntry
	Span       Span
}

// ExprKind discriminates the Expr tagged variant.
type ExprKind int

const (
	ExprLiteralString ExprKind = iota
	ExprLiteralNumber
	ExprLiteralBool
	ExprLiteralNow
	ExprLiteralUUID
	ExprIdent
	ExprCompare
	ExprLogical
	ExprNot
	ExprCall
)

// CompareOp enumerates the comparison operators.
type CompareOp int

const (
	CompareEQ CompareOp = iota
	CompareNEQ
	CompareLT
	CompareLTE
	CompareGT
	CompareGTE
)

// LogicalOp enumerates the logical connectives.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

// Expr is the recursive expression variant.
type Expr struct {
	Kind ExprKind

	StringValue string
	NumberValue float64
	BoolValue   bool

	IdentParts []string // dotted identifier, e.g. ["input", "email"] or ["User", "age"]

	CompareOp CompareOp
	Left      *Expr
	Right     *Expr

	LogicalOp LogicalOp

	Operand *Expr // for ExprNot

	CallFunc string
	CallArgs []Expr

	Span Span
}
