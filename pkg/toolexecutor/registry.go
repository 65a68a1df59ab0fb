package toolexecutor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Items       string      `json:"items,omitempty"` // element type for array parameters
}

// ToolHandler is the function signature for a bound capability
type ToolHandler func(ctx context.Context, args map[string]interface{}) (string, error)

// ToolSpec defines a tool's metadata and the capability it is bound to
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Category    ToolCategory    `json:"category"`
	Destructive bool            `json:"destructive"`
	// TimeoutArg names an optional integer argument, in milliseconds, that
	// overrides the dispatcher timeout for a single call.
	TimeoutArg string      `json:"timeout_arg,omitempty"`
	Handler    ToolHandler `json:"-"`
}

// InputSchema returns the JSON Schema object describing the tool arguments
func (s ToolSpec) InputSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Parameters))
	required := []string{}

	for _, param := range s.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Type == "array" {
			items := param.Items
			if items == "" {
				items = "string"
			}
			paramSchema["items"] = map[string]interface{}{"type": items}
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}

		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Registry is the closed table of tools available to the model. Names are
// unique and unknown names never reach the dispatcher.
type Registry struct {
	tools   map[string]*ToolSpec
	schemas map[string]*gojsonschema.Schema
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]*ToolSpec),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a tool spec. Registering an existing name fails with
// ErrDuplicateToolName.
func (r *Registry) Register(spec ToolSpec) error {
	if err := validateToolSpec(spec); err != nil {
		return err
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(spec.InputSchema()))
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", spec.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateToolName, spec.Name)
	}

	r.tools[spec.Name] = &spec
	r.schemas[spec.Name] = schema

	log.Debug().
		Str("tool", spec.Name).
		Str("category", string(spec.Category)).
		Bool("destructive", spec.Destructive).
		Msg("Tool registered")

	return nil
}

// Lookup returns the spec registered under name
func (r *Registry) Lookup(name string) (ToolSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.tools[name]
	if !ok {
		return ToolSpec{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return *spec, nil
}

// Validate checks args against the tool's parameter schema. Unknown keys,
// missing required keys and mistyped values are reported by key in a
// *SchemaValidationError.
func (r *Registry) Validate(name string, args map[string]interface{}) error {
	r.mu.RLock()
	schema, ok := r.schemas[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &SchemaValidationError{Tool: name, Details: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	seen := map[string]bool{}
	verr := &SchemaValidationError{Tool: name}
	for _, resErr := range result.Errors() {
		key := offendingKey(resErr)
		if !seen[key] {
			seen[key] = true
			verr.Keys = append(verr.Keys, key)
		}
		verr.Details = append(verr.Details, resErr.String())
	}
	sort.Strings(verr.Keys)

	return verr
}

// List returns all registered specs sorted by name
func (r *Registry) List() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.tools))
	for _, spec := range r.tools {
		specs = append(specs, *spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

	return specs
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

const rootField = "(root)"

// offendingKey maps a schema error to the top-level argument it concerns
func offendingKey(resErr gojsonschema.ResultError) string {
	if prop, ok := resErr.Details()["property"].(string); ok && prop != "" {
		return prop
	}
	field := resErr.Field()
	if field == "" || field == rootField {
		return rootField
	}
	if idx := strings.Index(field, "."); idx > 0 {
		return field[:idx]
	}
	return field
}

// validateToolSpec validates a tool spec before registration
func validateToolSpec(spec ToolSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: tool name cannot be empty", ErrInvalidToolSpec)
	}
	if spec.Description == "" {
		return fmt.Errorf("%w: tool description cannot be empty", ErrInvalidToolSpec)
	}
	if spec.Handler == nil {
		return fmt.Errorf("%w: tool handler cannot be nil", ErrInvalidToolSpec)
	}
	if err := checkCategory(spec); err != nil {
		return err
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}

	names := map[string]bool{}
	for _, param := range spec.Parameters {
		if param.Name == "" {
			return fmt.Errorf("%w: parameter name cannot be empty", ErrInvalidToolSpec)
		}
		if names[param.Name] {
			return fmt.Errorf("%w: duplicate parameter %s", ErrInvalidToolSpec, param.Name)
		}
		names[param.Name] = true
		if param.Description == "" {
			return fmt.Errorf("%w: parameter description cannot be empty for %s", ErrInvalidToolSpec, param.Name)
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("%w: invalid parameter type %q for %s", ErrInvalidToolSpec, param.Type, param.Name)
		}
	}

	if spec.TimeoutArg != "" && !names[spec.TimeoutArg] {
		return fmt.Errorf("%w: timeout argument %s is not a parameter", ErrInvalidToolSpec, spec.TimeoutArg)
	}

	return nil
}
