package tools

import (
	"errors"
	"reflect"
	"testing"
)

func taskSchema(t *testing.T) *Schema {
	t.Helper()
	return NewSchema().
		String("title", Describe("Task title")).
		String("priority", Enum("low", "medium", "high"), Default("medium")).
		String("due", Describe("Due date"), Nullable()).
		Array("tags", Items(KindString), Default([]any{})).
		MustBuild()
}

func TestCoerce_FillsDefaultsAndNulls(t *testing.T) {
	args, err := taskSchema(t).Coerce(map[string]any{"title": "buy milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"title":    "buy milk",
		"priority": "medium",
		"due":      nil,
		"tags":     []any{},
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Coerce() = %#v, want %#v", args, want)
	}
}

func TestCoerce_MissingRequired(t *testing.T) {
	_, err := taskSchema(t).Coerce(map[string]any{"priority": "high"})
	var missing *MissingArgumentError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v (%T), want *MissingArgumentError", err, err)
	}
	if missing.Param != "title" {
		t.Errorf("missing param = %q, want title", missing.Param)
	}
}

func TestCoerce_EnumViolation(t *testing.T) {
	_, err := taskSchema(t).Coerce(map[string]any{
		"title":    "x",
		"priority": "urgent",
	})
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("error = %v (%T), want *ArgumentError", err, err)
	}
	if argErr.Param != "priority" {
		t.Errorf("param = %q, want priority", argErr.Param)
	}
}

func TestCoerce_ExplicitNull(t *testing.T) {
	s := taskSchema(t)

	args, err := s.Coerce(map[string]any{"title": "x", "due": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, present := args["due"]; !present || v != nil {
		t.Errorf("due = %v (present=%v), want explicit nil", v, present)
	}

	// Null on a non-nullable parameter is rejected, not zeroed.
	if _, err := s.Coerce(map[string]any{"title": nil}); err == nil {
		t.Error("expected error for null title")
	}
}

func TestCoerce_UnknownKeysIgnored(t *testing.T) {
	args, err := taskSchema(t).Coerce(map[string]any{
		"title":   "x",
		"urgency": "extreme",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := args["urgency"]; present {
		t.Error("undeclared key leaked into coerced arguments")
	}
}

func TestCoerce_IntegerNormalisation(t *testing.T) {
	s := NewSchema().Integer("count", Minimum(1), Maximum(10)).MustBuild()

	// JSON decoding always delivers float64.
	args, err := s.Coerce(map[string]any{"count": 3.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := args["count"].(int64); !ok || v != 3 {
		t.Errorf("count = %v (%T), want int64(3)", args["count"], args["count"])
	}

	if _, err := s.Coerce(map[string]any{"count": 3.5}); err == nil {
		t.Error("expected error for fractional integer")
	}
	if _, err := s.Coerce(map[string]any{"count": 0.0}); err == nil {
		t.Error("expected error below minimum")
	}
	if _, err := s.Coerce(map[string]any{"count": 11.0}); err == nil {
		t.Error("expected error above maximum")
	}
}

func TestCoerce_Idempotent(t *testing.T) {
	s := NewSchema().
		String("title").
		Integer("count", Default(2)).
		Array("tags", Items(KindString), Default([]any{})).
		MustBuild()

	first, err := s.Coerce(map[string]any{"title": "x", "count": 7.0, "tags": []any{"a"}})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := s.Coerce(first)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("coercion not idempotent:\nfirst  %#v\nsecond %#v", first, second)
	}
}

func TestCoerce_ArrayElements(t *testing.T) {
	s := NewSchema().Array("tags", Items(KindString)).MustBuild()

	args, err := s.Coerce(map[string]any{"tags": []any{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(args["tags"], []any{"a", "b"}) {
		t.Errorf("tags = %#v", args["tags"])
	}

	if _, err := s.Coerce(map[string]any{"tags": []any{"a", 1.5}}); err == nil {
		t.Error("expected error for mistyped array element")
	}
	if _, err := s.Coerce(map[string]any{"tags": "a"}); err == nil {
		t.Error("expected error for non-array value")
	}
}

func TestCoerce_KindMismatches(t *testing.T) {
	s := NewSchema().
		String("s", Nullable()).
		Boolean("b", Nullable()).
		Number("n", Nullable()).
		Object("o", Nullable()).
		MustBuild()

	bad := []map[string]any{
		{"s": 1.0},
		{"b": "true"},
		{"n": "3"},
		{"o": []any{}},
	}
	for _, raw := range bad {
		if _, err := s.Coerce(raw); err == nil {
			t.Errorf("expected error for %v", raw)
		}
	}

	args, err := s.Coerce(map[string]any{"n": 3.5, "o": map[string]any{"k": "v"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args["n"] != 3.5 {
		t.Errorf("n = %v", args["n"])
	}
}
