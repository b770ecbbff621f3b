package tools

// Selector narrows the registry to the tools applicable to one request,
// given its context (e.g. the acting principal). A nil Selector means the
// full static registration.
type Selector func(RequestContext) []*Definition

// Registry holds the tool definitions registered at startup. Immutable after
// Build; safe for concurrent dispatches.
type Registry struct {
	tools map[string]*Definition
	order []string
}

// Find returns the definition registered under name. The second return is
// false for unknown names — "model invented a tool" is an expected branch,
// not an error.
func (r *Registry) Find(name string) (*Definition, bool) {
	d, ok := r.tools[name]
	return d, ok
}

// All returns every registered definition in registration order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Resolve returns the tool set for one request. With a nil selector the full
// static list is returned; otherwise the selector decides. A selector that
// returns no tools at all is a wiring mistake and reported as such.
func (r *Registry) Resolve(req RequestContext, sel Selector) ([]*Definition, error) {
	if sel == nil {
		return r.All(), nil
	}
	defs := sel(req)
	if defs == nil {
		return nil, &ConfigurationError{Reason: "tool selector returned no tool list"}
	}
	for _, d := range defs {
		if d == nil {
			return nil, &ConfigurationError{Reason: "tool selector returned a nil definition"}
		}
	}
	return defs, nil
}

// Definitions renders defs in the OpenAI function-calling wire format, in the
// given order.
func Definitions(defs []*Definition) []map[string]any {
	list := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		list = append(list, map[string]any{
			"type":     "function",
			"function": d.FunctionSchema(),
		})
	}
	return list
}

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	tools map[string]*Definition
	order []string
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{tools: make(map[string]*Definition)}
}

// WithTool adds a definition and returns the builder, enabling chaining.
// Registering the same name again replaces the earlier definition, so a
// finished registry never holds two tools with one name.
func (b *RegistryBuilder) WithTool(d *Definition) *RegistryBuilder {
	if _, exists := b.tools[d.Name()]; !exists {
		b.order = append(b.order, d.Name())
	}
	b.tools[d.Name()] = d
	return b
}

// WithTools adds all definitions in order.
func (b *RegistryBuilder) WithTools(defs []*Definition) *RegistryBuilder {
	for _, d := range defs {
		b.WithTool(d)
	}
	return b
}

// Build produces an immutable Registry from the accumulated tools.
func (b *RegistryBuilder) Build() *Registry {
	tools := make(map[string]*Definition, len(b.tools))
	for k, v := range b.tools {
		tools[k] = v
	}
	order := make([]string, len(b.order))
	copy(order, b.order)
	return &Registry{tools: tools, order: order}
}
