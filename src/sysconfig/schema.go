package sysconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema constrains the shape of the system configuration document.
// Unknown keys are allowed; cloud-config documents routinely carry keys this
// tool does not model.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "datasource_list": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "allow_keys": {"type": "object"},
    "handlers": {
      "type": "object",
      "properties": {
        "boothook_enabled": {"type": "boolean"}
      }
    },
    "cc_whitelist_filter": {
      "type": "object",
      "properties": {
        "allowed_keys": {"type": "array", "items": {"type": "string"}},
        "allowed_write_paths": {"type": "array", "items": {"type": "string"}}
      }
    },
    "datasource": {
      "type": "object",
      "properties": {
        "nocloud": {
          "type": "object",
          "properties": {"seedfrom": {"type": "string"}}
        },
        "incus": {
          "type": "object",
          "properties": {"instance": {"type": "string"}}
        },
        "ec2": {
          "type": "object",
          "properties": {"metadata_url": {"type": "string"}}
        }
      }
    },
    "probe_timeout_seconds": {"type": "integer", "minimum": 1}
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", strings.NewReader(configSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("config.schema.json")
}

// ValidateDocument checks a decoded configuration document against the
// embedded schema. The document is round-tripped through JSON because the
// validator only understands encoding/json value types.
func ValidateDocument(doc map[string]any) error {
	buf, err := json.Marshal(normalizeForSchema(doc))
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(buf, &jsonDoc); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	if err := compiledSchema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}

// normalizeForSchema converts YAML-decoded values into the JSON-shaped values
// the validator expects (string keys throughout).
func normalizeForSchema(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeForSchema(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeForSchema(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeForSchema(val)
		}
		return out
	default:
		return v
	}
}
