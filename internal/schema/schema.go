// Package schema validates workflow action/reaction configs against the
// JSON-Schema documents declared in the catalog.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validate checks payload against the JSON-Schema document in schemaJSON.
// An empty or "{}" schema accepts anything.
func Validate(schemaJSON string, payload map[string]any) error {
	schemaJSON = strings.TrimSpace(schemaJSON)
	if schemaJSON == "" || schemaJSON == "{}" {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("schema: parse: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.json", doc); err != nil {
		return fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := c.Compile("config.json")
	if err != nil {
		return fmt.Errorf("schema: compile: %w", err)
	}

	// The validator wants plain decoded JSON values, so the payload is
	// round-tripped: Go ints become JSON numbers and a nil map becomes an
	// empty object rather than JSON null.
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("schema: encode payload: %w", err)
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("schema: decode payload: %w", err)
	}
	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
