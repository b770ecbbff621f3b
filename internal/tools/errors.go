package tools

import "fmt"

// SchemaError reports a malformed tool declaration. It is raised at
// schema-build time, before any traffic is served, and is never recovered.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "schema error: " + e.Reason }

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{Reason: fmt.Sprintf(format, args...)}
}

// MissingArgumentError reports that the model omitted a required parameter.
type MissingArgumentError struct {
	Param string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument %q", e.Param)
}

// ArgumentError reports that the model supplied an argument that does not
// satisfy the parameter's declared kind or constraints.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Param, e.Reason)
}

// ConfigurationError reports a misbehaving tool selector or registry setup.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Reason }
