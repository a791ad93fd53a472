// Package otsjson validates the two JSON documents the CLI exchanges
// with the outside world: a calendar whitelist file and the
// machine-readable `ots info --json` report. Schema compilation uses
// compiler.AddResource + Compile against an in-memory resource string.
package otsjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const whitelistSchemaID = "https://opentimestamps.org/schema/whitelist-v1.schema.json"

const whitelistSchema = `{
  "$id": "https://opentimestamps.org/schema/whitelist-v1.schema.json",
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["calendars"],
  "properties": {
    "calendars": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["url"],
        "properties": {
          "url": {"type": "string", "format": "uri"},
          "trusted": {"type": "boolean"}
        }
      }
    }
  }
}`

const infoSchemaID = "https://opentimestamps.org/schema/info-v1.schema.json"

const infoSchema = `{
  "$id": "https://opentimestamps.org/schema/info-v1.schema.json",
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["msg", "attestations"],
  "properties": {
    "msg": {"type": "string", "pattern": "^[0-9a-f]+$"},
    "complete": {"type": "boolean"},
    "attestations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind"],
        "properties": {
          "kind": {"type": "string"},
          "uri": {"type": "string"},
          "chain": {"type": "string"},
          "height": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

func compile(id, schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewReader([]byte(schema))); err != nil {
		return nil, fmt.Errorf("otsjson: add schema resource: %w", err)
	}
	return compiler.Compile(id)
}

// ValidateWhitelist validates raw JSON against the calendar whitelist
// document schema.
func ValidateWhitelist(raw []byte) error {
	return validate(whitelistSchemaID, whitelistSchema, raw)
}

// ValidateInfo validates raw JSON against the `ots info --json` report
// schema.
func ValidateInfo(raw []byte) error {
	return validate(infoSchemaID, infoSchema, raw)
}

func validate(id, schemaSrc string, raw []byte) error {
	schema, err := compile(id, schemaSrc)
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("otsjson: unmarshal instance: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("otsjson: validation failed: %w", err)
	}
	return nil
}
