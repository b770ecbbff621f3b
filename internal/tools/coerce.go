package tools

import (
	"fmt"
	"math"
)

// Coerce validates raw model-supplied arguments against the schema and
// produces the argument map handed to the handler.
//
// Present values are kind-checked (and enum/range-checked); absent values are
// filled from the default, set to nil when nullable, or reported as missing
// when required. Keys not declared in the schema are ignored so vendor-side
// additions never break a tool. Coerce is idempotent over its own output.
func (s *Schema) Coerce(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.params))

	for _, spec := range s.params {
		v, present := raw[spec.Name]

		switch {
		case present && v == nil:
			if !spec.Nullable {
				return nil, &ArgumentError{Param: spec.Name, Reason: "must not be null"}
			}
			out[spec.Name] = nil

		case present:
			coerced, err := coerceValue(spec, v)
			if err != nil {
				return nil, &ArgumentError{Param: spec.Name, Reason: err.Error()}
			}
			out[spec.Name] = coerced

		case spec.HasDefault:
			out[spec.Name] = spec.Default

		case spec.Nullable:
			out[spec.Name] = nil

		default:
			return nil, &MissingArgumentError{Param: spec.Name}
		}
	}

	return out, nil
}

// coerceValue checks a single value against spec and normalises it.
// JSON decoding delivers all numbers as float64; integers are normalised to
// int64 so handlers and repeated coercion see a stable representation.
func coerceValue(spec ParamSpec, v any) (any, error) {
	switch spec.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		if len(spec.Enum) > 0 && !containsString(spec.Enum, s) {
			return nil, fmt.Errorf("value %q is not one of %v", s, spec.Enum)
		}
		return s, nil

	case KindInteger:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if err := checkBounds(spec, float64(n)); err != nil {
			return nil, err
		}
		return n, nil

	case KindNumber:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if err := checkBounds(spec, f); err != nil {
			return nil, err
		}
		return f, nil

	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil

	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", v)
		}
		out := make([]any, len(arr))
		for i, item := range arr {
			coerced, err := coerceValue(*spec.Items, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %v", i, err)
			}
			out[i] = coerced
		}
		return out, nil

	case KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", v)
		}
		return m, nil
	}

	return nil, fmt.Errorf("unknown parameter kind %q", spec.Kind)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func checkBounds(spec ParamSpec, f float64) error {
	if spec.Minimum != nil && f < *spec.Minimum {
		return fmt.Errorf("value %v is below minimum %v", f, *spec.Minimum)
	}
	if spec.Maximum != nil && f > *spec.Maximum {
		return fmt.Errorf("value %v is above maximum %v", f, *spec.Maximum)
	}
	return nil
}
