// Package schema defines the machine-checkable shape of extracted email
// collections. The same definition is embedded into model instructions and
// used to validate streamed output.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ShipCreekGroup/email-parser/internal/emails"
)

// Name identifies the schema in structured-output requests.
const Name = "email_list"

// EmailList returns the JSON schema for a collection of extracted emails.
// No field is required: the model omits what it cannot find, and streamed
// intermediate states are incomplete by definition.
func EmailList() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": map[string]any{
					"type":        "string",
					"description": "The email date, yyyy-mm-dd where normalizable.",
				},
				"sender": map[string]any{
					"type":        "string",
					"description": "The sender's name or address.",
				},
				"subject": map[string]any{
					"type":        "string",
					"description": "The email subject line.",
				},
				"preview": map[string]any{
					"type":        "string",
					"description": "The preview text that would appear in an email client.",
				},
				"body": map[string]any{
					"type":        "string",
					"description": "The full email content with line breaks preserved.",
				},
			},
			"required":             []string{},
			"additionalProperties": false,
		},
	}
}

// JSONText returns the schema as indented JSON for prompt embedding.
func JSONText() string {
	b, err := json.MarshalIndent(EmailList(), "", "  ")
	if err != nil {
		// The schema is a static literal; marshaling cannot fail at runtime.
		panic(fmt.Sprintf("failed to marshal email schema: %v", err))
	}
	return string(b)
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(EmailList())
		if err != nil {
			compileErr = fmt.Errorf("failed to serialize email schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("emails.json", bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("failed to load email schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("emails.json")
	})
	return compiled, compileErr
}

// Validate checks a candidate document against the email list schema.
// Missing fields never fail validation; wrong-typed fields and unknown
// properties do.
func Validate(raw json.RawMessage) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode document for validation: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("document does not match email schema: %w", err)
	}
	return nil
}

// Decode validates and converts a raw JSON array into a collection. A nil
// result with nil error is returned only for the empty array.
func Decode(raw json.RawMessage) (emails.Collection, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var c emails.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode email collection: %w", err)
	}
	return c, nil
}
