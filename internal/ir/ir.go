// Package ir holds the compiler's intermediate representation: the
// flattened form of a validated Program that ir.Build produces and every
// code generator consumes. Names stay textual (the validator has already
// checked that they resolve) and every process block has been lowered to
// an ordered ProcessStep list (§4.3).
package ir

// Application is the root IR node for one compiled program.
type Application struct {
	Entities []*Entity `json:"entities,omitempty"`
	Policies []*Policy `json:"policies,omitempty"`
	Rules    []*Rule   `json:"rules,omitempty"`
	Actions  []*Action `json:"actions,omitempty"`
}

// FieldType mirrors parser.Type; an entity reference is carried by its
// textual name in RefEntity.
type FieldType struct {
	Kind       string     `json:"kind"` // "base" | "enum" | "ref" | "array" | "optional"
	Base       string     `json:"base,omitempty"`
	EnumValues []string   `json:"enum_values,omitempty"`
	RefEntity  string     `json:"ref_entity,omitempty"`
	Elem       *FieldType `json:"elem,omitempty"`
}

// Field is one resolved entity attribute.
type Field struct {
	Name         string `json:"name"`
	Type         FieldType `json:"type"`
	Primary      bool   `json:"primary,omitempty"`
	Unique       bool   `json:"unique,omitempty"`
	Optional     bool   `json:"optional,omitempty"`
	Indexed      bool   `json:"indexed,omitempty"`
	Default      string `json:"default,omitempty"`
	Validates    []KV   `json:"validates,omitempty"`
	MapField     string `json:"map_field,omitempty"`
	MapTransform string `json:"map_transform,omitempty"`
}

// KV is an ordered key/value pair.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entity is a resolved data model.
type Entity struct {
	Name   string   `json:"name"`
	IsAuth bool     `json:"is_auth,omitempty"`
	Fields []*Field `json:"fields,omitempty"`
}

// PrimaryKeyField returns the entity's @primary field name, or "" if none
// (the validator guarantees exactly one before lowering succeeds).
func (e *Entity) PrimaryKeyField() string {
	for _, f := range e.Fields {
		if f.Primary {
			return f.Name
		}
	}
	return ""
}

// Policy is a resolved authorization policy.
type Policy struct {
	Name          string `json:"name"`
	SubjectIsAuth bool   `json:"subject_is_auth,omitempty"`
	SubjectEntity string `json:"subject_entity,omitempty"`
	Requires      []Expr `json:"requires,omitempty"`
}

// Rule is a resolved when/then business constraint.
type Rule struct {
	Name string      `json:"name"`
	When Expr        `json:"when"`
	Then Consequence `json:"then"`
}

// ConsequenceKind discriminates Consequence.
type ConsequenceKind int

const (
	ConsequenceReject ConsequenceKind = iota
	ConsequenceLog
	ConsequenceCall
)

func (k ConsequenceKind) String() string {
	switch k {
	case ConsequenceReject:
		return "reject"
	case ConsequenceLog:
		return "log"
	case ConsequenceCall:
		return "call"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a ConsequenceKind as its name, for readable --verbose dumps.
func (k ConsequenceKind) MarshalJSON() ([]byte, error) {
	return marshalEnumString(k.String())
}

// Consequence is a rule's resolved then-clause.
type Consequence struct {
	Kind       ConsequenceKind `json:"kind"`
	Message    string          `json:"message,omitempty"`
	CallAction string          `json:"call_action,omitempty"`
	CallArgs   []Expr          `json:"call_args,omitempty"`
}

// ActionDecoratorKind discriminates ActionDecorator.
type ActionDecoratorKind int

const (
	ActionDecoratorAPI ActionDecoratorKind = iota
	ActionDecoratorAuth
	ActionDecoratorPolicy
	ActionDecoratorMap
)

func (k ActionDecoratorKind) String() string {
	switch k {
	case ActionDecoratorAPI:
		return "api"
	case ActionDecoratorAuth:
		return "auth"
	case ActionDecoratorPolicy:
		return "policy"
	case ActionDecoratorMap:
		return "map"
	default:
		return "unknown"
	}
}

// MarshalJSON renders an ActionDecoratorKind as its name.
func (k ActionDecoratorKind) MarshalJSON() ([]byte, error) {
	return marshalEnumString(k.String())
}

// ActionDecorator is a resolved action-level decorator.
type ActionDecorator struct {
	Kind ActionDecoratorKind `json:"kind"`

	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`

	HasValidate   bool   `json:"has_validate,omitempty"`
	ValidateField string `json:"validate_field,omitempty"`

	PolicyName string `json:"policy_name,omitempty"`

	MapField     string `json:"map_field,omitempty"`
	MapTransform string `json:"map_transform,omitempty"`
}

// Param is one typed action input.
type Param struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// ProcessStepKind discriminates ProcessStep — the lowered form of an AST
// ProcessStmt (§4.3). This is the only IR node the code generator actually
// branches on when emitting persistence and business logic.
type ProcessStepKind int

const (
	StepDeriveSelect ProcessStepKind = iota
	StepDeriveCompute
	StepDeriveSystem
	StepMutateCreate
	StepMutateUpdate
	StepDelete
)

func (k ProcessStepKind) String() string {
	switch k {
	case StepDeriveSelect:
		return "derive_select"
	case StepDeriveCompute:
		return "derive_compute"
	case StepDeriveSystem:
		return "derive_system"
	case StepMutateCreate:
		return "mutate_create"
	case StepMutateUpdate:
		return "mutate_update"
	case StepDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a ProcessStepKind as its name.
func (k ProcessStepKind) MarshalJSON() ([]byte, error) {
	return marshalEnumString(k.String())
}

// SetClause is one resolved `set FIELD = EXPR` assignment.
type SetClause struct {
	Field string `json:"field"`
	Value Expr   `json:"value"`
}

// ProcessStep is one entry of an action's lowered process pipeline. Steps
// run strictly in order; later steps may reference bindings introduced by
// earlier ones (§4.3's left-to-right dataflow rule).
type ProcessStep struct {
	Kind ProcessStepKind `json:"kind"`

	Binding string `json:"binding,omitempty"` // name this step's result is bound to, for Derive* kinds

	Entity   string `json:"entity,omitempty"`
	Where    Expr   `json:"where,omitempty"`
	HasWhere bool   `json:"has_where,omitempty"`

	Func string `json:"func,omitempty"` // for StepDeriveCompute
	Path string `json:"path,omitempty"` // for StepDeriveSystem
	Args []Expr `json:"args,omitempty"` // for StepDeriveCompute / StepDeriveSystem

	Sets []SetClause `json:"sets,omitempty"` // for StepMutateCreate / StepMutateUpdate
}

// ProjectionEntry is one resolved output entry.
type ProjectionEntry struct {
	Entity string   `json:"entity"`
	Fields []string `json:"fields,omitempty"`
}

// Action is a fully resolved, lowered action.
type Action struct {
	Name       string            `json:"name"`
	Decorators []ActionDecorator `json:"decorators,omitempty"`
	Input      []Param           `json:"input,omitempty"`
	Process    []ProcessStep     `json:"process,omitempty"`
	Output     []ProjectionEntry `json:"output,omitempty"`
}

// ExprKind discriminates Expr.
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

func (k ExprKind) String() string {
	switch k {
	case ExprLiteralString:
		return "literal_string"
	case ExprLiteralNumber:
		return "literal_number"
	case ExprLiteralBool:
		return "literal_bool"
	case ExprLiteralNow:
		return "literal_now"
	case ExprLiteralUUID:
		return "literal_uuid"
	case ExprIdent:
		return "ident"
	case ExprCompare:
		return "compare"
	case ExprLogical:
		return "logical"
	case ExprNot:
		return "not"
	case ExprCall:
		return "call"
	default:
		return "unknown"
	}
}

// MarshalJSON renders an ExprKind as its name.
func (k ExprKind) MarshalJSON() ([]byte, error) {
	return marshalEnumString(k.String())
}

// CompareOp enumerates comparison operators.
type CompareOp int

const (
	CompareEQ CompareOp = iota
	CompareNEQ
	CompareLT
	CompareLTE
	CompareGT
	CompareGTE
)

func (op CompareOp) String() string {
	switch op {
	case CompareEQ:
		return "=="
	case CompareNEQ:
		return "!="
	case CompareLT:
		return "<"
	case CompareLTE:
		return "<="
	case CompareGT:
		return ">"
	case CompareGTE:
		return ">="
	default:
		return "?"
	}
}

// MarshalJSON renders a CompareOp as its symbol.
func (op CompareOp) MarshalJSON() ([]byte, error) {
	return marshalEnumString(op.String())
}

// LogicalOp enumerates logical connectives.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

func (op LogicalOp) String() string {
	if op == LogicalOr {
		return "or"
	}
	return "and"
}

// MarshalJSON renders a LogicalOp as its name.
func (op LogicalOp) MarshalJSON() ([]byte, error) {
	return marshalEnumString(op.String())
}

// marshalEnumString quotes s as a JSON string literal; shared by every
// enum Kind's MarshalJSON so --verbose IR dumps read as names, not ints.
func marshalEnumString(s string) ([]byte, error) {
	return []byte(`"` + s + `"`), nil
}

// Expr is the resolved expression tree, shared by policy Requires, rule
// When conditions, mutate Set values, and process-step Where clauses.
type Expr struct {
	Kind ExprKind `json:"kind"`

	StringValue string  `json:"string_value,omitempty"`
	NumberValue float64 `json:"number_value,omitempty"`
	BoolValue   bool    `json:"bool_value,omitempty"`

	IdentParts []string `json:"ident_parts,omitempty"`

	CompareOp CompareOp `json:"compare_op,omitempty"`
	Left      *Expr     `json:"left,omitempty"`
	Right     *Expr     `json:"right,omitempty"`

	LogicalOp LogicalOp `json:"logical_op,omitempty"`

	Operand *Expr `json:"operand,omitempty"`

	CallFunc string `json:"call_func,omitempty"`
	CallArgs []Expr `json:"call_args,omitempty"`
}
