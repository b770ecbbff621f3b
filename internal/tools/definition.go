package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Handler is the business logic bound to a tool. args has already been
// coerced against the tool's schema. The returned string is the tool-result
// text fed back to the model.
type Handler func(ctx context.Context, args map[string]any, req RequestContext) (string, error)

// Definition binds a name, a description, a parameter schema, and a handler
// into one addressable unit. Definitions are values: stateless, safe to share
// across concurrent dispatches.
type Definition struct {
	name        string
	description string
	schema      *Schema
	handler     Handler
}

// NewDefinition constructs a Definition. name must be unique within a
// registry; it is used as the wire-protocol function name.
func NewDefinition(name, description string, schema *Schema, handler Handler) *Definition {
	return &Definition{name: name, description: description, schema: schema, handler: handler}
}

func (d *Definition) Name() string        { return d.name }
func (d *Definition) Description() string { return d.description }
func (d *Definition) Schema() *Schema     { return d.schema }

// FunctionSchema renders the vendor-neutral function description:
// {name, description, parameters}. Providers wrap or rename as their wire
// format requires (e.g. Anthropic's input_schema).
func (d *Definition) FunctionSchema() map[string]any {
	return map[string]any{
		"name":        d.name,
		"description": d.description,
		"parameters":  d.schema.WireSchema(),
	}
}

// Invoke coerces raw arguments and runs the handler.
//
// Argument problems and handler failures are converted into an error string
// the model can read and react to; they never abort the dispatch. Context
// cancellation is the one exception and propagates untouched.
func (d *Definition) Invoke(ctx context.Context, raw map[string]any, req RequestContext) (string, error) {
	args, err := d.schema.Coerce(raw)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	result, err := d.handler(WithRequest(ctx, req), args, req)
	if err != nil {
		if isCancellation(ctx, err) {
			return "", err
		}
		return fmt.Sprintf("Error: %v", err), nil
	}
	return result, nil
}

func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() != nil
}

// DeriveName converts a Go type identifier into the stable wire-protocol tool
// name: any "Tool" suffix is stripped and the remainder is snake-cased.
// "CreateTaskTool" → "create_task".
func DeriveName(typeName string) string {
	typeName = strings.TrimSuffix(typeName, "Tool")

	var sb strings.Builder
	runes := []rune(typeName)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Word boundary: lower→Upper, or Upper followed by lower
			// (end of an acronym run).
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
