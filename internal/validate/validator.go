package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Schema names a backend payload shape
type Schema string

const (
	SchemaReport  Schema = "report"
	SchemaVotes   Schema = "votes"
	SchemaHistory Schema = "history"
	SchemaUpload  Schema = "upload"
	SchemaHealth  Schema = "health"
)

// ErrSchemaMismatch is wrapped by every validation failure
var ErrSchemaMismatch = errors.New("schema mismatch")

var allSchemas = []Schema{SchemaReport, SchemaVotes, SchemaHistory, SchemaUpload, SchemaHealth}

// Validator checks raw backend payloads against compiled JSON Schemas before
// they are decoded, so malformed responses fail closed instead of leaking
// undefined fields into the canonical model.
type Validator struct {
	schemas map[Schema]*jsonschema.Schema
}

// NewValidator compiles the embedded payload schemas
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	for _, name := range allSchemas {
		data, err := schemaFS.ReadFile("schemas/" + string(name) + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", name, err)
		}
		if err := c.AddResource(schemaURL(name), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("load %s schema: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[Schema]*jsonschema.Schema, len(allSchemas))}
	for _, name := range allSchemas {
		compiled, err := c.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a process-wide validator compiled on first use
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}

// Validate checks raw JSON against the named schema
func (v *Validator) Validate(name Schema, raw []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%s payload: %w: invalid JSON: %v", name, ErrSchemaMismatch, err)
	}
	if dec.More() {
		return fmt.Errorf("%s payload: %w: trailing data after JSON value", name, ErrSchemaMismatch)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s payload: %w: %v", name, ErrSchemaMismatch, err)
	}
	return nil
}

func schemaURL(name Schema) string {
	return fmt.Sprintf("https://dfd.schemas.local/%s.schema.json", name)
}
