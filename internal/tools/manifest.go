package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// The tool manifest lets operators declare webhook-backed tools without
// writing Go: each entry becomes a Definition whose handler POSTs the coerced
// arguments as JSON to the configured URL and returns the response body.
//
//	tools:
//	  - name: open_garage
//	    description: Open the garage door.
//	    url: http://homehub.local/hooks/garage
//	    params:
//	      - name: side
//	        kind: string
//	        enum: [left, right]
//	        default: left

type manifestFile struct {
	Tools []manifestTool `yaml:"tools"`
}

type manifestTool struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	URL         string          `yaml:"url"`
	Params      []manifestParam `yaml:"params"`
}

type manifestParam struct {
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	Description string   `yaml:"description"`
	Enum        []string `yaml:"enum"`
	Default     any      `yaml:"default"`
	Nullable    bool     `yaml:"nullable"`
	Minimum     *float64 `yaml:"minimum"`
	Maximum     *float64 `yaml:"maximum"`
	Items       string   `yaml:"items"`
}

const webhookResultLimit = 4000

// LoadManifest parses a YAML tool manifest into definitions.
// A missing file is not an error: it returns an empty list.
func LoadManifest(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	defs := make([]*Definition, 0, len(mf.Tools))
	for _, mt := range mf.Tools {
		def, err := mt.definition(client)
		if err != nil {
			return nil, fmt.Errorf("manifest tool %q: %w", mt.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (mt manifestTool) definition(client *http.Client) (*Definition, error) {
	if mt.Name == "" || mt.URL == "" {
		return nil, fmt.Errorf("name and url are required")
	}
	if err := validateURL(mt.URL); err != nil {
		return nil, err
	}

	b := NewSchema()
	for _, p := range mt.Params {
		var opts []ParamOption
		if p.Description != "" {
			opts = append(opts, Describe(p.Description))
		}
		if p.Enum != nil {
			opts = append(opts, Enum(p.Enum...))
		}
		if p.Default != nil {
			opts = append(opts, Default(p.Default))
		}
		if p.Nullable {
			opts = append(opts, Nullable())
		}
		if p.Minimum != nil {
			opts = append(opts, Minimum(*p.Minimum))
		}
		if p.Maximum != nil {
			opts = append(opts, Maximum(*p.Maximum))
		}
		if p.Items != "" {
			opts = append(opts, Items(ParamKind(p.Items)))
		}

		switch ParamKind(p.Kind) {
		case KindString:
			b.String(p.Name, opts...)
		case KindInteger:
			b.Integer(p.Name, opts...)
		case KindNumber:
			b.Number(p.Name, opts...)
		case KindBoolean:
			b.Boolean(p.Name, opts...)
		case KindArray:
			b.Array(p.Name, opts...)
		case KindObject:
			b.Object(p.Name, opts...)
		default:
			return nil, fmt.Errorf("parameter %q: unknown kind %q", p.Name, p.Kind)
		}
	}

	schema, err := b.Build()
	if err != nil {
		return nil, err
	}

	url := mt.URL
	return NewDefinition(mt.Name, mt.Description, schema, func(ctx context.Context, args map[string]any, req RequestContext) (string, error) {
		payload := map[string]any{"arguments": args}
		if p := req.Principal(); p != "" {
			payload["principal"] = p
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal webhook payload: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("webhook call: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, webhookResultLimit))
		if err != nil {
			return "", fmt.Errorf("read webhook response: %w", err)
		}
		if resp.StatusCode >= 300 {
			return "", fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
		}
		if len(raw) == 0 {
			return "OK", nil
		}
		return string(raw), nil
	}), nil
}
