package ir

import "github.com/intentc/intentc/internal/parser"

// Build lowers a validated AST into the IR (§4.3). It assumes prog has
// already passed every validator pass — Build does no error checking of
// its own and panics on a malformed tree, since that would indicate a
// validator bug rather than a user-facing compilation error.
func Build(prog *parser.Program) *Application {
	app := &Application{}
	for _, e := range prog.Entities {
		app.Entities = append(app.Entities, buildEntity(e))
	}
	for _, p := range prog.Policies {
		app.Policies = append(app.Policies, buildPolicy(p))
	}
	for _, r := range prog.Rules {
		app.Rules = append(app.Rules, buildRule(r))
	}
	for _, a := range prog.Actions {
		app.Actions = append(app.Actions, buildAction(a))
	}
	return app
}

func buildEntity(e *parser.Entity) *Entity {
	ir := &Entity{Name: e.Name, IsAuth: e.IsAuth}
	for _, f := range e.Fields {
		ir.Fields = append(ir.Fields, buildField(f))
	}
	return ir
}

func buildField(f *parser.Field) *Field {
	field := &Field{Name: f.Name, Type: buildType(f.Type)}
	for _, d := range f.Decorators {
		switch d.Kind {
		case parser.DecoratorPrimary:
			field.Primary = true
		case parser.DecoratorUnique:
			field.Unique = true
		case parser.DecoratorOptional:
			field.Optional = true
		case parser.DecoratorIndex:
			field.Indexed = true
		case parser.DecoratorDefault:
			field.Default = d.DefaultValue
		case parser.DecoratorValidate:
			for _, kv := range d.Validates {
				field.Validates = append(field.Validates, KV{Key: kv.Key, Value: kv.Value})
			}
		case parser.DecoratorMap:
			field.MapField = d.MapField
			field.MapTransform = d.MapTransform
		}
	}
	return field
}

func buildType(t parser.Type) FieldType {
	switch t.Kind {
	case parser.TypeBase:
		return FieldType{Kind: "base", Base: t.Base}
	case parser.TypeEnum:
		return FieldType{Kind: "enum", EnumValues: t.EnumValues}
	case parser.TypeRef:
		return FieldType{Kind: "ref", RefEntity: t.RefName}
	case parser.TypeArray:
		elem := buildType(*t.Elem)
		return FieldType{Kind: "array", Elem: &elem}
	case parser.TypeOptional:
		elem := buildType(*t.Elem)
		return FieldType{Kind: "optional", Elem: &elem}
	default:
		return FieldType{Kind: "base", Base: "string"}
	}
}

func buildPolicy(p *parser.Policy) *Policy {
	pol := &Policy{Name: p.Name, SubjectIsAuth: p.SubjectIsAuth, SubjectEntity: p.SubjectEntity}
	for _, r := range p.Requires {
		pol.Requires = append(pol.Requires, buildExpr(r))
	}
	return pol
}

func buildRule(r *parser.Rule) *Rule {
	return &Rule{Name: r.Name, When: buildExpr(r.When), Then: buildConsequence(r.Then)}
}

func buildConsequence(c parser.Consequence) Consequence {
	out := Consequence{Message: c.Message, CallAction: c.CallAction}
	switch c.Kind {
	case parser.ConsequenceReject:
		out.Kind = ConsequenceReject
	case parser.ConsequenceLog:
		out.Kind = ConsequenceLog
	case parser.ConsequenceCall:
		out.Kind = ConsequenceCall
	}
	for _, a := range c.CallArgs {
		out.CallArgs = append(out.CallArgs, buildExpr(a))
	}
	return out
}

func buildAction(a *parser.Action) *Action {
	action := &Action{Name: a.Name}
	for _, d := range a.Decorators {
		action.Decorators = append(action.Decorators, buildActionDecorator(d))
	}
	for _, p := range a.Input {
		action.Input = append(action.Input, Param{Name: p.Name, Type: buildType(p.Type)})
	}
	for _, s := range a.Process {
		action.Process = append(action.Process, buildProcessStep(s))
	}
	for _, o := range a.Output {
		action.Output = append(action.Output, ProjectionEntry{Entity: o.Entity, Fields: append([]string(nil), o.Fields...)})
	}
	return action
}

func buildActionDecorator(d parser.ActionDecorator) ActionDecorator {
	out := ActionDecorator{
		Method:        d.Method,
		Path:          d.Path,
		HasValidate:   d.HasValidate,
		ValidateField: d.ValidateField,
		PolicyName:    d.PolicyName,
		MapField:      d.MapField,
		MapTransform:  d.MapTransform,
	}
	switch d.Kind {
	case parser.ActionDecoratorAPI:
		out.Kind = ActionDecoratorAPI
	case parser.ActionDecoratorAuth:
		out.Kind = ActionDecoratorAuth
	case parser.ActionDecoratorPolicy:
		out.Kind = ActionDecoratorPolicy
	case parser.ActionDecoratorMap:
		out.Kind = ActionDecoratorMap
	}
	return out
}

func buildProcessStep(s parser.ProcessStmt) ProcessStep {
	step := ProcessStep{
		Binding:  s.Binding,
		Entity:   s.Entity,
		HasWhere: s.HasWhere,
		Func:     s.Func,
		Path:     s.Path,
	}
	if s.HasWhere {
		step.Where = buildExpr(s.Where)
	}
	for _, arg := range s.Args {
		step.Args = append(step.Args, buildExpr(arg))
	}
	for _, set := range s.Sets {
		step.Sets = append(step.Sets, SetClause{Field: set.Field, Value: buildExpr(set.Value)})
	}
	switch s.Kind {
	case parser.ProcessDeriveSelect:
		step.Kind = StepDeriveSelect
	case parser.ProcessDeriveCompute:
		step.Kind = StepDeriveCompute
	case parser.ProcessDeriveSystem:
		step.Kind = StepDeriveSystem
	case parser.ProcessMutateCreate:
		step.Kind = StepMutateCreate
	case parser.ProcessMutateUpdate:
		step.Kind = StepMutateUpdate
	case parser.ProcessDelete:
		step.Kind = StepDelete
	}
	return step
}

func buildExpr(e parser.Expr) Expr {
	out := Expr{
		StringValue: e.StringValue,
		NumberValue: e.NumberValue,
		BoolValue:   e.BoolValue,
		IdentParts:  append([]string(nil), e.IdentParts...),
		CallFunc:    e.CallFunc,
	}
	switch e.Kind {
	case parser.ExprLiteralString:
		out.Kind = ExprLiteralString
	case parser.ExprLiteralNumber:
		out.Kind = ExprLiteralNumber
	case parser.ExprLiteralBool:
		out.Kind = ExprLiteralBool
	case parser.ExprLiteralNow:
		out.Kind = ExprLiteralNow
	case parser.ExprLiteralUUID:
		out.Kind = ExprLiteralUUID
	case parser.ExprIdent:
		out.Kind = ExprIdent
	case parser.ExprCompare:
		out.Kind = ExprCompare
		out.CompareOp = CompareOp(e.CompareOp)
		l, r := buildExpr(*e.Left), buildExpr(*e.Right)
		out.Left, out.Right = &l, &r
	case parser.ExprLogical:
		out.Kind = ExprLogical
		out.LogicalOp = LogicalOp(e.LogicalOp)
		l, r := buildExpr(*e.Left), buildExpr(*e.Right)
		out.Left, out.Right = &l, &r
	case parser.ExprNot:
		out.Kind = ExprNot
		operand := buildExpr(*e.Operand)
		out.Operand = &operand
	case parser.ExprCall:
		out.Kind = ExprCall
		for _, a := range e.CallArgs {
			out.CallArgs = append(out.CallArgs, buildExpr(a))
		}
	}
	return out
}
