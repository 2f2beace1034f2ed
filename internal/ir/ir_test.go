package ir

import (
	"strings"
	"testing"

	"github.com/intentc/intentc/internal/parser"
)

func mustBuild(t *testing.T, source string) *Application {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return Build(prog)
}

func TestBuildEntityWithDecorators(t *testing.T) {
	src := "entity User:\n" +
		"  id: uuid @primary @default(uuid)\n" +
		"  email: string @unique\n" +
		"  role: admin | member @default(\"member\")\n"
	app := mustBuild(t, src)
	if len(app.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(app.Entities))
	}
	e := app.Entities[0]
	if e.PrimaryKeyField() != "id" {
		t.Errorf("expected primary key 'id', got %q", e.PrimaryKeyField())
	}
	if e.Fields[0].Default != "uuid" {
		t.Errorf("expected default 'uuid', got %q", e.Fields[0].Default)
	}
	if e.Fields[2].Type.Kind != "enum" {
		t.Errorf("expected enum type, got %+v", e.Fields[2].Type)
	}
}

func TestBuildActionLowersProcessSteps(t *testing.T) {
	src := "@api POST /login\n" +
		"action Login:\n" +
		"  input:\n" +
		"    email: string\n" +
		"  process:\n" +
		"    derive user = select User where email == input.email\n" +
		"    derive token = system auth.create(user.id)\n" +
		"  output: Login(token)\n"
	app := mustBuild(t, src)
	a := app.Actions[0]
	if a.Process[0].Kind != StepDeriveSelect {
		t.Errorf("expected StepDeriveSelect, got %v", a.Process[0].Kind)
	}
	if a.Process[1].Kind != StepDeriveSystem || a.Process[1].Path != "auth.create" {
		t.Errorf("unexpected system step: %+v", a.Process[1])
	}
	if a.Decorators[0].Method != "POST" || a.Decorators[0].Path != "/login" {
		t.Errorf("unexpected api decorator: %+v", a.Decorators[0])
	}
}

func TestToYAMLDeterministicOrdering(t *testing.T) {
	src := "entity User:\n" +
		"  id: uuid @primary\n"
	app := mustBuild(t, src)
	out1, err := ToYAML(app)
	if err != nil {
		t.Fatalf("ToYAML failed: %v", err)
	}
	out2, err := ToYAML(app)
	if err != nil {
		t.Fatalf("ToYAML failed: %v", err)
	}
	if out1 != out2 {
		t.Fatal("expected ToYAML to be deterministic across repeated calls")
	}
	if !strings.Contains(out1, "entities:") {
		t.Errorf("expected 'entities:' key in YAML output, got: %s", out1)
	}
	if !strings.Contains(out1, "primary: true") {
		t.Errorf("expected 'primary: true' in YAML output, got: %s", out1)
	}
}

func TestToJSONFromJSONRoundTrip(t *testing.T) {
	src := "entity User:\n" +
		"  id: uuid @primary\n" +
		"  email: string @unique\n"
	app := mustBuild(t, src)
	data, err := ToJSON(app)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	back, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if len(back.Entities) != 1 || back.Entities[0].Name != "User" {
		t.Fatalf("round-trip lost entity data: %+v", back)
	}
}

func TestBuildMutateCreate(t *testing.T) {
	src := "action CreateTask:\n" +
		"  input:\n" +
		"    title: string\n" +
		"  process:\n" +
		"    mutate Task:\n" +
		"      set title = input.title\n" +
		"  output: Task(id)\n"
	app := mustBuild(t, src)
	step := app.Actions[0].Process[0]
	if step.Kind != StepMutateCreate {
		t.Errorf("expected StepMutateCreate, got %v", step.Kind)
	}
	if step.HasWhere {
		t.Error("create step should not have a where clause")
	}
	if len(step.Sets) != 1 || step.Sets[0].Field != "title" {
		t.Errorf("unexpected sets: %+v", step.Sets)
	}
}

func TestBuildRuleConsequence(t *testing.T) {
	src := "rule NoNegative:\n" +
		"  when input.amount < 0\n" +
		"  then reject(\"must be non-negative\")\n"
	app := mustBuild(t, src)
	r := app.Rules[0]
	if r.Then.Kind != ConsequenceReject || r.Then.Message != "must be non-negative" {
		t.Fatalf("unexpected consequence: %+v", r.Then)
	}
}
