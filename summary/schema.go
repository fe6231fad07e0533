package summary

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CanonicalSchema is the JSON Schema every normalized Record satisfies.
//
//go:embed canonical_schema.json
var CanonicalSchema []byte

const canonicalSchemaURL = "canonical_schema.json"

var (
	canonicalOnce   sync.Once
	canonicalSchema *jsonschema.Schema
	canonicalErr    error
)

func compiledSchema() (*jsonschema.Schema, error) {
	canonicalOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(canonicalSchemaURL, bytes.NewReader(CanonicalSchema)); err != nil {
			canonicalErr = fmt.Errorf("add schema: %w", err)
			return
		}
		canonicalSchema, canonicalErr = compiler.Compile(canonicalSchemaURL)
		if canonicalErr != nil {
			canonicalErr = fmt.Errorf("compile schema: %w", canonicalErr)
		}
	})
	return canonicalSchema, canonicalErr
}

// ValidateCanonical checks rec against CanonicalSchema.
func ValidateCanonical(rec *Record) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match canonical schema: %w", err)
	}
	return nil
}
