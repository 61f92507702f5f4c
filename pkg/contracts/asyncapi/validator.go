package asyncapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed console-actions.yaml
var consoleActionsSpec []byte

const schemaRefPrefix = "#/components/schemas/"

// EventValidator validates CloudEvent payloads against AsyncAPI message schemas.
type EventValidator struct {
	schemas map[string]*jsonschema.Schema
}

// AsyncAPISpec represents the parts of an AsyncAPI document the validator reads.
type AsyncAPISpec struct {
	AsyncAPI   string             `yaml:"asyncapi"`
	Info       AsyncAPIInfo       `yaml:"info"`
	Components AsyncAPIComponents `yaml:"components"`
}

// AsyncAPIInfo contains AsyncAPI info section.
type AsyncAPIInfo struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// AsyncAPIComponents contains reusable components.
type AsyncAPIComponents struct {
	Schemas  map[string]interface{}     `yaml:"schemas"`
	Messages map[string]AsyncAPIMessage `yaml:"messages"`
}

// AsyncAPIMessage binds an event type (name) to a payload schema reference.
type AsyncAPIMessage struct {
	Name    string `yaml:"name"`
	Payload struct {
		Ref string `yaml:"$ref"`
	} `yaml:"payload"`
}

// NewConsoleActionValidator returns a validator for the embedded console action contract.
func NewConsoleActionValidator() (*EventValidator, error) {
	return NewEventValidatorFromBytes(consoleActionsSpec)
}

// NewEventValidator creates a validator from an AsyncAPI document on disk.
func NewEventValidator(asyncAPIPath string) (*EventValidator, error) {
	data, err := os.ReadFile(asyncAPIPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read AsyncAPI spec: %w", err)
	}
	return NewEventValidatorFromBytes(data)
}

// NewEventValidatorFromBytes compiles one schema per message name.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var spec AsyncAPISpec
	if err := yaml.Unmarshal(specBytes, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiled := make(map[string]*jsonschema.Schema)

	for schemaName, raw := range spec.Components.Schemas {
		schemaJSON, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema %s: %w", schemaName, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to decode schema %s: %w", schemaName, err)
		}

		uri := "asyncapi://schemas/" + schemaName
		if err := compiler.AddResource(uri, doc); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", schemaName, err)
		}
		schema, err := compiler.Compile(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", schemaName, err)
		}
		compiled[schemaName] = schema
	}

	schemas := make(map[string]*jsonschema.Schema, len(spec.Components.Messages))
	for key, msg := range spec.Components.Messages {
		if msg.Name == "" {
			return nil, fmt.Errorf("message %s has no name", key)
		}
		schemaName := strings.TrimPrefix(msg.Payload.Ref, schemaRefPrefix)
		schema, ok := compiled[schemaName]
		if !ok {
			return nil, fmt.Errorf("message %s references unknown schema %q", key, msg.Payload.Ref)
		}
		schemas[msg.Name] = schema
	}

	return &EventValidator{schemas: schemas}, nil
}

// Validate checks data against the schema registered for eventType.
func (v *EventValidator) Validate(eventType string, data interface{}) error {
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}

	schema, ok := v.schemas[eventType]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", eventType)
	}
	if data == nil {
		return fmt.Errorf("event data is required")
	}

	// round-trip so structs validate as plain JSON values
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(dataJSON))
	if err != nil {
		return fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", eventType, err)
	}
	return nil
}

// HasSchema checks if a schema exists for the given event type.
func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}

// SupportedEventTypes returns the event types with a registered schema, sorted.
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}
