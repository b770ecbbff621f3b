package tools

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSchemaBuilder_RequiredDerivation(t *testing.T) {
	s := NewSchema().
		String("title", Describe("Task title")).
		String("priority", Enum("low", "medium", "high"), Default("medium")).
		String("due", Nullable()).
		MustBuild()

	cases := []struct {
		name     string
		required bool
	}{
		{"title", true},
		{"priority", false},
		{"due", false},
	}
	for _, c := range cases {
		p, ok := s.Param(c.name)
		if !ok {
			t.Fatalf("parameter %q not found", c.name)
		}
		if p.Required != c.required {
			t.Errorf("parameter %q: required = %v, want %v", c.name, p.Required, c.required)
		}
	}

	if got := s.RequiredNames(); !reflect.DeepEqual(got, []string{"title"}) {
		t.Errorf("RequiredNames() = %v, want [title]", got)
	}
}

func TestSchemaBuilder_RequiredNamesDeclarationOrder(t *testing.T) {
	s := NewSchema().
		String("b").
		String("a").
		String("c", Default("x")).
		MustBuild()

	if got := s.RequiredNames(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("RequiredNames() = %v, want [b a]", got)
	}
}

func TestSchemaBuilder_NoRequiredYieldsEmptySlice(t *testing.T) {
	s := NewSchema().String("x", Nullable()).MustBuild()
	got := s.RequiredNames()
	if got == nil || len(got) != 0 {
		t.Errorf("RequiredNames() = %#v, want empty non-nil slice", got)
	}
}

func TestWireSchema(t *testing.T) {
	s := NewSchema().
		String("query", Describe("Search query")).
		Integer("count", Minimum(1), Maximum(10), Default(5)).
		Array("tags", Items(KindString), Default([]any{})).
		MustBuild()

	wire := s.WireSchema()
	if wire["type"] != "object" {
		t.Errorf("type = %v, want object", wire["type"])
	}

	props, ok := wire["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing or wrong type: %T", wire["properties"])
	}
	query := props["query"].(map[string]any)
	if query["type"] != "string" || query["description"] != "Search query" {
		t.Errorf("query property = %v", query)
	}

	count := props["count"].(map[string]any)
	if count["minimum"] != 1.0 || count["maximum"] != 10.0 {
		t.Errorf("count bounds = %v/%v", count["minimum"], count["maximum"])
	}
	if count["default"] != int64(5) {
		t.Errorf("count default = %v (%T), want int64(5)", count["default"], count["default"])
	}

	tags := props["tags"].(map[string]any)
	items, ok := tags["items"].(map[string]any)
	if !ok || items["type"] != "string" {
		t.Errorf("tags items = %v", tags["items"])
	}

	if got := wire["required"].([]string); !reflect.DeepEqual(got, []string{"query"}) {
		t.Errorf("required = %v, want [query]", got)
	}
}

// The wire schema must survive a vendor re-encoding it as JSON: encode,
// decode into a generic map, and the result encodes to the same bytes.
func TestWireSchema_JSONRoundTrip(t *testing.T) {
	s := NewSchema().
		String("query", Describe("Search query")).
		String("side", Enum("left", "right"), Default("left")).
		Integer("count", Minimum(1), Maximum(10), Default(5)).
		Number("weight", Nullable()).
		Boolean("exact", Default(false)).
		Array("tags", Items(KindString), Default([]any{})).
		MustBuild()

	first, err := json.Marshal(s.WireSchema())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	second, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("wire schema changed across re-encoding:\n first = %s\nsecond = %s", first, second)
	}
}

func TestSchemaBuilder_Errors(t *testing.T) {
	cases := []struct {
		name    string
		builder *SchemaBuilder
	}{
		{"empty name", NewSchema().String("")},
		{"duplicate", NewSchema().String("x").Integer("x")},
		{"enum on integer", NewSchema().Integer("n", Enum("a"))},
		{"empty enum", NewSchema().String("s", Enum())},
		{"default outside enum", NewSchema().String("s", Enum("a", "b"), Default("c"))},
		{"nullable with default", NewSchema().String("s", Default("a"), Nullable())},
		{"bounds on string", NewSchema().String("s", Minimum(1))},
		{"items on string", NewSchema().String("s", Items(KindString))},
		{"array without items", NewSchema().Array("a")},
		{"default wrong kind", NewSchema().Integer("n", Default("nope"))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := c.builder.Build(); err == nil {
				t.Error("expected build error, got nil")
			}
		})
	}
}

func TestSchemaBuilder_FirstErrorSticks(t *testing.T) {
	_, err := NewSchema().String("").String("ok").Build()
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*SchemaError); !ok {
		t.Errorf("error type = %T, want *SchemaError", err)
	}
}

func TestMustBuild_PanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewSchema().Array("broken").MustBuild()
}
