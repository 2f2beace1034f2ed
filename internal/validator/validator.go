// Package validator runs the ordered semantic passes (§4.2) over a parsed
// Program: it never fails fast — every pass appends to one SemanticErrors
// collection so a single invocation surfaces everything wrong with the
// source, the way the teacher's analyzer batch-accumulates diagnostics
// across its own pass list.
package validator

import (
	"fmt"

	cerr "github.com/intentc/intentc/internal/errors"
	"github.com/intentc/intentc/internal/parser"
)

// transforms is the initial @map transform catalog.
var transforms = map[string]bool{
	"hash": true,
}

// symbolTable holds the name → declaration lookups the later passes need.
type symbolTable struct {
	entities map[string]*parser.Entity
	policies map[string]*parser.Policy
	actions  map[string]*parser.Action

	entityNames []string
	policyNames []string
	actionNames []string

	authEntity string // name of the entity with IsAuth set, "" if none
}

// Validate runs every pass in order and returns the accumulated
// diagnostics. An empty, non-nil SemanticErrors means the program is
// valid and ready for ir.Build.
func Validate(prog *parser.Program) *cerr.SemanticErrors {
	errs := cerr.NewSemanticErrors()

	st := buildSymbolTable(prog, errs)
	checkFieldsAndDecorators(prog, errs)
	resolveReferences(prog, st, errs)
	checkPolicies(prog, st, errs)
	checkRules(prog, st, errs)
	checkActions(prog, st, errs)
	checkProcessDataflow(prog, st, errs)
	checkOutputProjections(prog, st, errs)

	return errs
}

// ── Pass 1: symbol table + auth-entity-conflict ──

func buildSymbolTable(prog *parser.Program, errs *cerr.SemanticErrors) *symbolTable {
	st := &symbolTable{
		entities: map[string]*parser.Entity{},
		policies: map[string]*parser.Policy{},
		actions:  map[string]*parser.Action{},
	}

	for _, e := range prog.Entities {
		if _, dup := st.entities[e.Name]; dup {
			errs.Add(cerr.DuplicateName, e.Span, fmt.Sprintf("entity %q declared more than once", e.Name))
			continue
		}
		st.entities[e.Name] = e
		st.entityNames = append(st.entityNames, e.Name)
		if e.IsAuth {
			if st.authEntity != "" {
				errs.Add(cerr.AuthEntityConflict, e.Span, fmt.Sprintf("a second auth entity %q was declared; only one is allowed (first was %q)", e.Name, st.authEntity))
			} else {
				st.authEntity = e.Name
			}
		}
	}

	for _, p := range prog.Policies {
		if _, dup := st.policies[p.Name]; dup {
			errs.Add(cerr.DuplicateName, p.Span, fmt.Sprintf("policy %q declared more than once", p.Name))
			continue
		}
		st.policies[p.Name] = p
		st.policyNames = append(st.policyNames, p.Name)
	}

	for _, a := range prog.Actions {
		if _, dup := st.actions[a.Name]; dup {
			errs.Add(cerr.DuplicateName, a.Span, fmt.Sprintf("action %q declared more than once", a.Name))
			continue
		}
		st.actions[a.Name] = a
		st.actionNames = append(st.actionNames, a.Name)
	}

	return st
}

// ── Pass 2: field & decorator checks ──

func checkFieldsAndDecorators(prog *parser.Program, errs *cerr.SemanticErrors) {
	for _, e := range prog.Entities {
		seen := map[string]bool{}
		primaryCount := 0
		for _, f := range e.Fields {
			if seen[f.Name] {
				errs.Add(cerr.DuplicateName, f.Span, fmt.Sprintf("field %q declared more than once on entity %q", f.Name, e.Name))
			}
			seen[f.Name] = true

			for _, d := range f.Decorators {
				switch d.Kind {
				case parser.DecoratorPrimary:
					primaryCount++
					checkPrimaryFieldType(e, f, errs)
				case parser.DecoratorDefault:
					checkDefaultMatchesType(e, f, d, errs)
				case parser.DecoratorMap:
					checkFieldMap(e, f, d, errs)
				case parser.DecoratorValidate:
					checkValidateOnNumber(e, f, d, errs)
				}
			}
		}
		if primaryCount == 0 {
			errs.Add(cerr.InvalidDecorator, e.Span, fmt.Sprintf("entity %q has no @primary field", e.Name))
		} else if primaryCount > 1 {
			errs.Add(cerr.InvalidDecorator, e.Span, fmt.Sprintf("entity %q has %d @primary fields, expected exactly one", e.Name, primaryCount))
		}

		if e.IsAuth {
			checkAuthEntityFields(e, errs)
		}
	}
}

// checkPrimaryFieldType enforces that an @primary field is a uuid or string (§4.2 pass 2).
func checkPrimaryFieldType(e *parser.Entity, f *parser.Field, errs *cerr.SemanticErrors) {
	if f.Type.Kind != parser.TypeBase || (f.Type.Base != "uuid" && f.Type.Base != "string") {
		errs.Add(cerr.TypeMismatch, f.Span, fmt.Sprintf("%s.%s: @primary field must be uuid or string", e.Name, f.Name))
	}
}

// checkValidateOnNumber enforces that @validate(min|max: N) only decorates a number field (§3, §4.2 pass 2).
func checkValidateOnNumber(e *parser.Entity, f *parser.Field, d parser.Decorator, errs *cerr.SemanticErrors) {
	if f.Type.Kind != parser.TypeBase || f.Type.Base != "number" {
		errs.Add(cerr.InvalidDecorator, d.Span, fmt.Sprintf("%s.%s: @validate(min|max) only applies to number fields", e.Name, f.Name))
	}
}

// checkAuthEntityFields enforces the auth entity's minimum shape: a unique
// email-typed field and a password_hash string field (§3, §7).
func checkAuthEntityFields(e *parser.Entity, errs *cerr.SemanticErrors) {
	hasEmail := false
	hasPasswordHash := false
	for _, f := range e.Fields {
		if f.Type.Kind == parser.TypeBase && f.Type.Base == "email" {
			for _, d := range f.Decorators {
				if d.Kind == parser.DecoratorUnique {
					hasEmail = true
				}
			}
		}
		if f.Name == "password_hash" && f.Type.Kind == parser.TypeBase && f.Type.Base == "string" {
			hasPasswordHash = true
		}
	}
	if !hasEmail {
		errs.Add(cerr.AuthEntityConflict, e.Span, fmt.Sprintf("auth entity %q must declare a unique email-typed field", e.Name))
	}
	if !hasPasswordHash {
		errs.Add(cerr.AuthEntityConflict, e.Span, fmt.Sprintf("auth entity %q must declare a password_hash string field", e.Name))
	}
}

func checkDefaultMatchesType(e *parser.Entity, f *parser.Field, d parser.Decorator, errs *cerr.SemanticErrors) {
	switch d.DefaultValue {
	case "now":
		if f.Type.Kind != parser.TypeBase || f.Type.Base != "datetime" {
			errs.Add(cerr.TypeMismatch, d.Span, fmt.Sprintf("%s.%s: @default(now) requires a datetime field", e.Name, f.Name))
		}
	case "uuid":
		if f.Type.Kind != parser.TypeBase || f.Type.Base != "uuid" {
			errs.Add(cerr.TypeMismatch, d.Span, fmt.Sprintf("%s.%s: @default(uuid) requires a uuid field", e.Name, f.Name))
		}
	}
}

func checkFieldMap(e *parser.Entity, f *parser.Field, d parser.Decorator, errs *cerr.SemanticErrors) {
	found := false
	var names []string
	for _, sib := range e.Fields {
		names = append(names, sib.Name)
		if sib.Name == d.MapField {
			found = true
		}
	}
	if !found {
		msg := fmt.Sprintf("%s.%s: @map target field %q does not exist on %s", e.Name, f.Name, d.MapField, e.Name)
		if suggestion := cerr.FindClosest(d.MapField, names, 0.6); suggestion != "" {
			errs.AddWithSuggestion(cerr.UnknownReference, d.Span, msg, fmt.Sprintf("Did you mean %q?", suggestion))
		} else {
			errs.Add(cerr.UnknownReference, d.Span, msg)
		}
	}
	if !transforms[d.MapTransform] {
		errs.Add(cerr.InvalidDecorator, d.Span, fmt.Sprintf("%s.%s: unknown @map transform %q", e.Name, f.Name, d.MapTransform))
	}
}

// ── Pass 3: reference resolution ──

func resolveReferences(prog *parser.Program, st *symbolTable, errs *cerr.SemanticErrors) {
	for _, e := range prog.Entities {
		for _, f := range e.Fields {
			resolveType(&f.Type, st, f.Span, errs)
		}
	}
	for _, a := range prog.Actions {
		for i := range a.Input {
			resolveType(&a.Input[i].Type, st, a.Input[i].Span, errs)
		}
	}
}

func resolveType(t *parser.Type, st *symbolTable, span parser.Span, errs *cerr.SemanticErrors) {
	switch t.Kind {
	case parser.TypeRef:
		for i, name := range st.entityNames {
			if name == t.RefName {
				t.RefID = i
			}
		}
		if _, ok := st.entities[t.RefName]; !ok {
			msg := fmt.Sprintf("unknown entity reference %q", t.RefName)
			if s := cerr.FindClosest(t.RefName, st.entityNames, 0.6); s != "" {
				errs.AddWithSuggestion(cerr.UnknownReference, span, msg, fmt.Sprintf("Did you mean %q?", s))
			} else {
				errs.Add(cerr.UnknownReference, span, msg)
			}
		}
	case parser.TypeArray, parser.TypeOptional:
		if t.Elem != nil {
			resolveType(t.Elem, st, span, errs)
		}
	}
}

// ── Pass 4: policy checks ──

func checkPolicies(prog *parser.Program, st *symbolTable, errs *cerr.SemanticErrors) {
	for _, p := range prog.Policies {
		if !p.SubjectIsAuth && p.SubjectEntity != "" {
			if _, ok := st.entities[p.SubjectEntity]; !ok {
				msg := fmt.Sprintf("policy %q: unknown subject entity %q", p.Name, p.SubjectEntity)
				if s := cerr.FindClosest(p.SubjectEntity, st.entityNames, 0.6); s != "" {
					errs.AddWithSuggestion(cerr.UnknownReference, p.Span, msg, fmt.Sprintf("Did you mean %q?", s))
				} else {
					errs.Add(cerr.UnknownReference, p.Span, msg)
				}
			}
		}
		if p.SubjectIsAuth && st.authEntity == "" {
			errs.Add(cerr.PolicyViolation, p.Span, fmt.Sprintf("policy %q has subject @auth but no auth entity is declared", p.Name))
		}
	}

	for _, a := range prog.Actions {
		for _, d := range a.Decorators {
			if d.Kind != parser.ActionDecoratorPolicy {
				continue
			}
			if _, ok := st.policies[d.PolicyName]; !ok {
				msg := fmt.Sprintf("action %q: unknown policy %q", a.Name, d.PolicyName)
				if s := cerr.FindClosest(d.PolicyName, st.policyNames, 0.6); s != "" {
					errs.AddWithSuggestion(cerr.UnknownReference, d.Span, msg, fmt.Sprintf("Did you mean %q?", s))
				} else {
					errs.Add(cerr.UnknownReference, d.Span, msg)
				}
			}
		}
	}
}

// ── Pass 5: rule checks ──

func checkRules(prog *parser.Program, st *symbolTable, errs *cerr.SemanticErrors) {
	seen := map[string]bool{}
	for _, r := range prog.Rules {
		if seen[r.Name] {
			errs.Add(cerr.DuplicateName, r.Span, fmt.Sprintf("rule %q declared more than once", r.Name))
		}
		seen[r.Name] = true

		if r.Then.Kind == parser.ConsequenceCall {
			if _, ok := st.actions[r.Then.CallAction]; !ok {
				msg := fmt.Sprintf("rule %q: unknown action %q in consequence", r.Name, r.Then.CallAction)
				if s := cerr.FindClosest(r.Then.CallAction, st.actionNames, 0.6); s != "" {
					errs.AddWithSuggestion(cerr.UnknownReference, r.Span, msg, fmt.Sprintf("Did you mean %q?", s))
				} else {
					errs.Add(cerr.UnknownReference, r.Span, msg)
				}
			}
		}
	}
}

// ── Pass 6: action checks ──

func checkActions(prog *parser.Program, st *symbolTable, errs *cerr.SemanticErrors) {
	for _, a := range prog.Actions {
		inputNames := map[string]bool{}
		for _, p := range a.Input {
			inputNames[p.Name] = true
		}

		for _, d := range a.Decorators {
			switch d.Kind {
			case parser.ActionDecoratorAPI:
				for _, param := range pathParams(d.Path) {
					if !inputNames[param] {
						errs.Add(cerr.UnknownReference, d.Span, fmt.Sprintf("action %q: path parameter %q has no matching input field", a.Name, param))
					}
				}
			case parser.ActionDecoratorAuth:
				if st.authEntity == "" {
					errs.Add(cerr.AuthEntityConflict, d.Span, fmt.Sprintf("action %q: @auth used with no auth entity declared", a.Name))
				}
				if d.HasValidate && !inputNames[d.ValidateField] {
					var names []string
					for n := range inputNames {
						names = append(names, n)
					}
					msg := fmt.Sprintf("action %q: @auth(validate(%s)) has no matching input field", a.Name, d.ValidateField)
					if s := cerr.FindClosest(d.ValidateField, names, 0.6); s != "" {
						errs.AddWithSuggestion(cerr.UnknownReference, d.Span, msg, fmt.Sprintf("Did you mean %q?", s))
					} else {
						errs.Add(cerr.UnknownReference, d.Span, msg)
					}
				}
			case parser.ActionDecoratorMap:
				if !transforms[d.MapTransform] {
					errs.Add(cerr.InvalidDecorator, d.Span, fmt.Sprintf("action %q: unknown @map transform %q", a.Name, d.MapTransform))
				}
			}
		}
	}
}

// pathParams extracts the {name} segments from an @api route path.
func pathParams(path string) []string {
	var params []string
	i := 0
	for i < len(path) {
		if path[i] == '{' {
			j := i + 1
			for j < len(path) && path[j] != '}' {
				j++
			}
			if j < len(path) {
				params = append(params, path[i+1:j])
				i = j + 1
				continue
			}
		}
		i++
	}
	return params
}

// ── Pass 7: process dataflow ──

func checkProcessDataflow(prog *parser.Program, st *symbolTable, errs *cerr.SemanticErrors) {
	for _, a := range prog.Actions {
		bound := map[string]bool{}
		if len(a.Input) > 0 {
			bound["input"] = true
		}

		for _, step := range a.Process {
			switch step.Kind {
			case parser.ProcessDeriveSelect, parser.ProcessMutateCreate, parser.ProcessMutateUpdate, parser.ProcessDelete:
				checkEntityName(a.Name, step.Entity, step.Span, st, errs)
			}

			if step.HasWhere {
				// Bare names in a where clause may also be columns of the step's entity.
				scope := map[string]bool{}
				for name := range bound {
					scope[name] = true
				}
				if e, ok := st.entities[step.Entity]; ok {
					for _, f := range e.Fields {
						scope[f.Name] = true
					}
				}
				checkExprBindings(a.Name, step.Where, scope, st, errs)
			}
			for _, arg := range step.Args {
				checkExprBindings(a.Name, arg, bound, st, errs)
			}
			for _, set := range step.Sets {
				checkExprBindings(a.Name, set.Value, bound, st, errs)
			}

			if step.Binding != "" {
				if bound[step.Binding] {
					errs.Add(cerr.ProcessStepError, step.Span, fmt.Sprintf("action %q: duplicate binding %q — a name may be bound at most once per action", a.Name, step.Binding))
				}
				bound[step.Binding] = true
			}
		}
	}
}

func checkEntityName(actionName, entity string, span parser.Span, st *symbolTable, errs *cerr.SemanticErrors) {
	if _, ok := st.entities[entity]; !ok {
		msg := fmt.Sprintf("action %q: unknown entity %q", actionName, entity)
		if s := cerr.FindClosest(entity, st.entityNames, 0.6); s != "" {
			errs.AddWithSuggestion(cerr.UnknownReference, span, msg, fmt.Sprintf("Did you mean %q?", s))
		} else {
			errs.Add(cerr.UnknownReference, span, msg)
		}
	}
}

// checkExprBindings walks an expression tree, verifying every dotted
// identifier's leading segment is either "input", "subject", a name in
// bound (a previously bound derive binding or, in a where clause, a field
// of the step's entity), or a declared entity name used as a direct table
// reference (e.g. Task.owner_id inside a policy-style expression).
func checkExprBindings(actionName string, e parser.Expr, bound map[string]bool, st *symbolTable, errs *cerr.SemanticErrors) {
	switch e.Kind {
	case parser.ExprIdent:
		if len(e.IdentParts) == 0 {
			return
		}
		head := e.IdentParts[0]
		if head == "subject" || bound[head] {
			return
		}
		if _, ok := st.entities[head]; ok {
			return
		}
		msg := fmt.Sprintf("action %q: %q is not bound at this point in the process block", actionName, head)
		var candidates []string
		for b := range bound {
			candidates = append(candidates, b)
		}
		candidates = append(candidates, st.entityNames...)
		if s := cerr.FindClosest(head, candidates, 0.6); s != "" {
			errs.AddWithSuggestion(cerr.ProcessStepError, e.Span, msg, fmt.Sprintf("Did you mean %q?", s))
		} else {
			errs.Add(cerr.ProcessStepError, e.Span, msg)
		}
	case parser.ExprCompare:
		checkExprBindings(actionName, *e.Left, bound, st, errs)
		checkExprBindings(actionName, *e.Right, bound, st, errs)
	case parser.ExprLogical:
		checkExprBindings(actionName, *e.Left, bound, st, errs)
		checkExprBindings(actionName, *e.Right, bound, st, errs)
	case parser.ExprNot:
		checkExprBindings(actionName, *e.Operand, bound, st, errs)
	case parser.ExprCall:
		for _, arg := range e.CallArgs {
			checkExprBindings(actionName, arg, bound, st, errs)
		}
	}
}

// ── Pass 8: output projection checks ──

func checkOutputProjections(prog *parser.Program, st *symbolTable, errs *cerr.SemanticErrors) {
	for _, a := range prog.Actions {
		if len(a.Output) == 0 {
			errs.Add(cerr.ProcessStepError, a.Span, fmt.Sprintf("action %q has no output block", a.Name))
			continue
		}
		bound := processBindings(a)
		for _, entry := range a.Output {
			e, isEntity := st.entities[entry.Entity]
			if !isEntity {
				continue // free-form DTO label, not a declared entity — no further checks
			}
			var names []string
			for _, f := range e.Fields {
				names = append(names, f.Name)
			}
			for _, field := range entry.Fields {
				found := bound[field]
				for _, n := range names {
					if n == field {
						found = true
						break
					}
				}
				if !found {
					msg := fmt.Sprintf("action %q: output %s.%s is not a field of %s", a.Name, entry.Entity, field, entry.Entity)
					if s := cerr.FindClosest(field, names, 0.6); s != "" {
						errs.AddWithSuggestion(cerr.UnknownReference, entry.Span, msg, fmt.Sprintf("Did you mean %q?", s))
					} else {
						errs.Add(cerr.UnknownReference, entry.Span, msg)
					}
				}
			}
		}
	}
}

// processBindings collects an action's derive bindings, which output
// projections may reference even when their head is a declared entity name
// (e.g. `output: User(id, email, token)` where token is a derive binding).
func processBindings(a *parser.Action) map[string]bool {
	bound := map[string]bool{}
	for _, step := range a.Process {
		if step.Binding != "" {
			bound[step.Binding] = true
		}
	}
	return bound
}
