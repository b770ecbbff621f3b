// Package tools implements the schema-described callables a model may
// invoke: the parameter schema builder, argument coercion, tool definitions,
// and the registry the dispatch loop resolves tools from. The built-in
// voicebridge tools live here too.
package tools

// ParamKind is the declared JSON type of one tool parameter.
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindInteger ParamKind = "integer"
	KindNumber  ParamKind = "number"
	KindBoolean ParamKind = "boolean"
	KindArray   ParamKind = "array"
	KindObject  ParamKind = "object"
)

// ParamSpec is one declared parameter of a tool. Constructed once at
// schema-build time and immutable afterward.
//
// Required is derived, never set by callers: a parameter is required exactly
// when it has no default and is not nullable. A nullable parameter with no
// default yields an explicit nil when omitted, not a zero value.
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Description string
	Required    bool
	Default     any
	HasDefault  bool
	Nullable    bool
	Enum        []string
	Items       *ParamSpec
	Minimum     *float64
	Maximum     *float64
}

// wireProperty renders the spec as one JSON-schema property map.
func (p ParamSpec) wireProperty() map[string]any {
	prop := map[string]any{"type": string(p.Kind)}
	if p.Description != "" {
		prop["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		prop["enum"] = p.Enum
	}
	if p.HasDefault {
		prop["default"] = p.Default
	}
	if p.Minimum != nil {
		prop["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		prop["maximum"] = *p.Maximum
	}
	if p.Items != nil {
		prop["items"] = p.Items.wireProperty()
	}
	return prop
}

// Schema is the ordered parameter list of one tool. Built once per tool and
// reused across all invocations.
type Schema struct {
	params []ParamSpec
	index  map[string]int
}

// Params returns the declared parameters in declaration order.
func (s *Schema) Params() []ParamSpec { return s.params }

// Param returns the spec for name, if declared.
func (s *Schema) Param(name string) (ParamSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return ParamSpec{}, false
	}
	return s.params[i], true
}

// RequiredNames returns the names of all required parameters, in declaration
// order.
func (s *Schema) RequiredNames() []string {
	names := []string{}
	for _, p := range s.params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// WireSchema renders the vendor-neutral function-parameters schema:
// {type:"object", properties:{...}, required:[...]}.
// Deterministic given the declared parameters.
func (s *Schema) WireSchema() map[string]any {
	props := make(map[string]any, len(s.params))
	for _, p := range s.params {
		props[p.Name] = p.wireProperty()
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   s.RequiredNames(),
	}
}

// ParamOption customises one parameter declaration.
type ParamOption func(*ParamSpec)

// Describe sets the free-text description shown to the model.
func Describe(text string) ParamOption {
	return func(p *ParamSpec) { p.Description = text }
}

// Enum restricts a string parameter to a closed set of values.
func Enum(values ...string) ParamOption {
	return func(p *ParamSpec) { p.Enum = append([]string{}, values...) }
}

// Default makes the parameter optional with a fallback substituted when the
// model omits it.
func Default(v any) ParamOption {
	return func(p *ParamSpec) { p.Default = v; p.HasDefault = true }
}

// Nullable makes the parameter optional with no fallback: the handler
// receives an explicit nil when the model omits it or passes null.
func Nullable() ParamOption {
	return func(p *ParamSpec) { p.Nullable = true }
}

// Minimum sets the inclusive lower bound of a numeric parameter.
func Minimum(v float64) ParamOption {
	return func(p *ParamSpec) { p.Minimum = &v }
}

// Maximum sets the inclusive upper bound of a numeric parameter.
func Maximum(v float64) ParamOption {
	return func(p *ParamSpec) { p.Maximum = &v }
}

// Items declares the element kind of an array parameter.
func Items(kind ParamKind) ParamOption {
	return func(p *ParamSpec) { p.Items = &ParamSpec{Kind: kind} }
}

// SchemaBuilder accumulates parameter declarations and validates them as they
// are added. The first declaration error sticks and is reported by Build.
type SchemaBuilder struct {
	schema Schema
	err    error
}

// NewSchema returns an empty SchemaBuilder.
func NewSchema() *SchemaBuilder {
	return &SchemaBuilder{schema: Schema{index: make(map[string]int)}}
}

func (b *SchemaBuilder) String(name string, opts ...ParamOption) *SchemaBuilder {
	return b.add(name, KindString, opts)
}

func (b *SchemaBuilder) Integer(name string, opts ...ParamOption) *SchemaBuilder {
	return b.add(name, KindInteger, opts)
}

func (b *SchemaBuilder) Number(name string, opts ...ParamOption) *SchemaBuilder {
	return b.add(name, KindNumber, opts)
}

func (b *SchemaBuilder) Boolean(name string, opts ...ParamOption) *SchemaBuilder {
	return b.add(name, KindBoolean, opts)
}

func (b *SchemaBuilder) Array(name string, opts ...ParamOption) *SchemaBuilder {
	return b.add(name, KindArray, opts)
}

func (b *SchemaBuilder) Object(name string, opts ...ParamOption) *SchemaBuilder {
	return b.add(name, KindObject, opts)
}

func (b *SchemaBuilder) add(name string, kind ParamKind, opts []ParamOption) *SchemaBuilder {
	if b.err != nil {
		return b
	}

	spec := ParamSpec{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(&spec)
	}

	if err := b.validate(spec); err != nil {
		b.err = err
		return b
	}

	// Normalise the default through the same path coercion uses, so a
	// declared Default(3) and a model-supplied 3.0 land on the same value.
	if spec.HasDefault {
		normalized, err := coerceValue(spec, spec.Default)
		if err != nil {
			b.err = schemaErrorf("parameter %q: default %v", name, err)
			return b
		}
		spec.Default = normalized
	}

	spec.Required = !spec.HasDefault && !spec.Nullable

	b.schema.index[name] = len(b.schema.params)
	b.schema.params = append(b.schema.params, spec)
	return b
}

func (b *SchemaBuilder) validate(spec ParamSpec) error {
	if spec.Name == "" {
		return schemaErrorf("parameter name must not be empty")
	}
	if _, dup := b.schema.index[spec.Name]; dup {
		return schemaErrorf("parameter %q declared twice", spec.Name)
	}
	if spec.Enum != nil {
		if spec.Kind != KindString {
			return schemaErrorf("parameter %q: enum requires kind string, got %s", spec.Name, spec.Kind)
		}
		if len(spec.Enum) == 0 {
			return schemaErrorf("parameter %q: enum must not be empty", spec.Name)
		}
		if spec.HasDefault {
			def, ok := spec.Default.(string)
			if !ok || !containsString(spec.Enum, def) {
				return schemaErrorf("parameter %q: default %v is not an enum member", spec.Name, spec.Default)
			}
		}
	}
	if spec.HasDefault && spec.Nullable {
		return schemaErrorf("parameter %q: a parameter cannot be both nullable and defaulted", spec.Name)
	}
	if (spec.Minimum != nil || spec.Maximum != nil) && spec.Kind != KindInteger && spec.Kind != KindNumber {
		return schemaErrorf("parameter %q: minimum/maximum require a numeric kind, got %s", spec.Name, spec.Kind)
	}
	if spec.Items != nil && spec.Kind != KindArray {
		return schemaErrorf("parameter %q: items requires kind array, got %s", spec.Name, spec.Kind)
	}
	if spec.Kind == KindArray && spec.Items == nil {
		return schemaErrorf("parameter %q: array parameters must declare an item kind", spec.Name)
	}
	return nil
}

// Build returns the finished schema, or the first declaration error.
func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &b.schema, nil
}

// MustBuild is Build for statically declared schemas: a declaration error is
// a programming mistake, so it panics at startup rather than serving traffic.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
