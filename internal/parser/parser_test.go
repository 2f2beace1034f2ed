package parser

import "testing"

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func TestParseSimpleEntity(t *testing.T) {
	src := "entity User:\n" +
		"  id: uuid @primary @default(uuid)\n" +
		"  email: string @unique\n" +
		"  age: number @optional\n"
	prog := mustParse(t, src)
	if len(prog.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(prog.Entities))
	}
	e := prog.Entities[0]
	if e.Name != "User" || e.IsAuth {
		t.Fatalf("unexpected entity: %+v", e)
	}
	if len(e.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(e.Fields))
	}
	if e.Fields[0].Decorators[0].Kind != DecoratorPrimary {
		t.Errorf("expected first decorator primary")
	}
}

func TestParseAuthEntity(t *testing.T) {
	src := "auth entity User:\n" +
		"  id: uuid @primary\n" +
		"  email: email @unique\n"
	prog := mustParse(t, src)
	if !prog.Entities[0].IsAuth {
		t.Error("expected IsAuth true")
	}
}

func TestParseEnumAndArrayType(t *testing.T) {
	src := "entity Task:\n" +
		"  id: uuid @primary\n" +
		"  status: todo | doing | done\n" +
		"  tags: [string]\n" +
		"  owner: User?\n"
	prog := mustParse(t, src)
	fields := prog.Entities[0].Fields
	if fields[0].Type.Kind != TypeBase {
		t.Fatal("id should be base type")
	}
	if fields[1].Type.Kind != TypeEnum || len(fields[1].Type.EnumValues) != 3 {
		t.Fatalf("expected 3-value enum, got %+v", fields[1].Type)
	}
	if fields[2].Type.Kind != TypeArray || fields[2].Type.Elem.Base != "string" {
		t.Fatalf("expected array of string, got %+v", fields[2].Type)
	}
	if fields[3].Type.Kind != TypeOptional || fields[3].Type.Elem.Kind != TypeRef {
		t.Fatalf("expected optional ref, got %+v", fields[3].Type)
	}
}

func TestParsePolicy(t *testing.T) {
	src := "policy OwnTasksOnly:\n" +
		"  subject: @auth\n" +
		"  require subject.id == Task.owner_id\n"
	prog := mustParse(t, src)
	pol := prog.Policies[0]
	if pol.Name != "OwnTasksOnly" || !pol.SubjectIsAuth {
		t.Fatalf("unexpected policy: %+v", pol)
	}
	if len(pol.Requires) != 1 || pol.Requires[0].Kind != ExprCompare {
		t.Fatalf("expected one compare expr, got %+v", pol.Requires)
	}
}

func TestParseRule(t *testing.T) {
	src := "rule NoNegativeBalance:\n" +
		"  when input.amount < 0\n" +
		"  then reject(\"amount must be non-negative\")\n"
	prog := mustParse(t, src)
	r := prog.Rules[0]
	if r.When.Kind != ExprCompare || r.When.CompareOp != CompareLT {
		t.Fatalf("unexpected when expr: %+v", r.When)
	}
	if r.Then.Kind != ConsequenceReject || r.Then.Message != "amount must be non-negative" {
		t.Fatalf("unexpected consequence: %+v", r.Then)
	}
}

func TestParseActionFullPipeline(t *testing.T) {
	src := "@api POST /login\n" +
		"action Login:\n" +
		"  input:\n" +
		"    email: string\n" +
		"    password: string\n" +
		"  process:\n" +
		"    derive user = select User where email == input.email\n" +
		"    derive token = system auth.create(user.id)\n" +
		"  output: Login(token)\n"
	prog := mustParse(t, src)
	if len(prog.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(prog.Actions))
	}
	a := prog.Actions[0]
	if len(a.Decorators) != 1 || a.Decorators[0].Kind != ActionDecoratorAPI || a.Decorators[0].Method != "POST" || a.Decorators[0].Path != "/login" {
		t.Fatalf("unexpected decorators: %+v", a.Decorators)
	}
	if len(a.Input) != 2 {
		t.Fatalf("expected 2 input params, got %d", len(a.Input))
	}
	if len(a.Process) != 2 {
		t.Fatalf("expected 2 process steps, got %d", len(a.Process))
	}
	if a.Process[0].Kind != ProcessDeriveSelect || !a.Process[0].HasWhere {
		t.Fatalf("unexpected first step: %+v", a.Process[0])
	}
	if a.Process[1].Kind != ProcessDeriveSystem || a.Process[1].Path != "auth.create" {
		t.Fatalf("unexpected second step: %+v", a.Process[1])
	}
	if len(a.Output) != 1 || a.Output[0].Entity != "Login" || a.Output[0].Fields[0] != "token" {
		t.Fatalf("unexpected output: %+v", a.Output)
	}
}

func TestParseActionMutateCreateAndUpdate(t *testing.T) {
	src := "action CreateTask:\n" +
		"  input:\n" +
		"    title: string\n" +
		"  process:\n" +
		"    mutate Task:\n" +
		"      set title = input.title\n" +
		"    mutate Task where id == input.id:\n" +
		"      set title = input.title\n" +
		"    delete Task where id == input.id\n" +
		"  output: Task(id, title)\n"
	prog := mustParse(t, src)
	a := prog.Actions[0]
	if a.Process[0].Kind != ProcessMutateCreate || a.Process[0].HasWhere {
		t.Fatalf("unexpected create step: %+v", a.Process[0])
	}
	if a.Process[1].Kind != ProcessMutateUpdate || !a.Process[1].HasWhere {
		t.Fatalf("unexpected update step: %+v", a.Process[1])
	}
	if a.Process[2].Kind != ProcessDelete || !a.Process[2].HasWhere {
		t.Fatalf("unexpected delete step: %+v", a.Process[2])
	}
}

func TestParseActionDecoratorAuthValidateAndPolicy(t *testing.T) {
	src := "@auth(validate(id))\n" +
		"@policy(OwnTasksOnly)\n" +
		"action UpdateTask:\n" +
		"  input:\n" +
		"    id: uuid\n" +
		"  process:\n" +
		"    mutate Task where id == input.id:\n" +
		"      set title = input.id\n" +
		"  output: Task(id)\n"
	prog := mustParse(t, src)
	a := prog.Actions[0]
	if len(a.Decorators) != 2 {
		t.Fatalf("expected 2 decorators, got %d", len(a.Decorators))
	}
	if a.Decorators[0].Kind != ActionDecoratorAuth || !a.Decorators[0].HasValidate || a.Decorators[0].ValidateField != "id" {
		t.Fatalf("unexpected auth decorator: %+v", a.Decorators[0])
	}
	if a.Decorators[1].Kind != ActionDecoratorPolicy || a.Decorators[1].PolicyName != "OwnTasksOnly" {
		t.Fatalf("unexpected policy decorator: %+v", a.Decorators[1])
	}
}

func TestParseMultilineOutput(t *testing.T) {
	src := "action Dashboard:\n" +
		"  process:\n" +
		"    derive u = select User\n" +
		"  output:\n" +
		"    Profile(name)\n" +
		"    Stats(count)\n"
	prog := mustParse(t, src)
	a := prog.Actions[0]
	if len(a.Output) != 2 {
		t.Fatalf("expected 2 projection entries, got %d", len(a.Output))
	}
	if a.Output[0].Entity != "Profile" || a.Output[1].Entity != "Stats" {
		t.Fatalf("unexpected output entries: %+v", a.Output)
	}
}

func TestParseHTTPMethodCaseSensitivity(t *testing.T) {
	src := "@api DELETE /tasks/{id}\n" +
		"action RemoveTask:\n" +
		"  process:\n" +
		"    delete Task where id == input.id\n" +
		"  output: Task(id)\n"
	prog := mustParse(t, src)
	if prog.Actions[0].Decorators[0].Path != "/tasks/{id}" {
		t.Fatalf("unexpected path: %q", prog.Actions[0].Decorators[0].Path)
	}
}

func TestParseErrorOnMissingColon(t *testing.T) {
	src := "entity User\n  id: uuid\n"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected parse error for missing colon")
	}
}

func TestParseLogicalAndOrNotPrecedence(t *testing.T) {
	src := "rule Combined:\n" +
		"  when not input.a == 1 and input.b == 2 or input.c == 3\n" +
		"  then reject(\"no\")\n"
	prog := mustParse(t, src)
	when := prog.Rules[0].When
	if when.Kind != ExprLogical || when.LogicalOp != LogicalOr {
		t.Fatalf("expected top-level or, got %+v", when)
	}
	left := when.Left
	if left.Kind != ExprLogical || left.LogicalOp != LogicalAnd {
		t.Fatalf("expected and on the left of or, got %+v", left)
	}
	if left.Left.Kind != ExprNot {
		t.Fatalf("expected not as the leftmost term, got %+v", left.Left)
	}
}
