package mapping

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ConfigSchema is the JSON Schema every persisted project config must satisfy.
const ConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["field_paths", "issue_types", "status_buckets", "priority_buckets"],
  "properties": {
    "project_key": {
      "type": "string"
    },
    "preset": {
      "type": "string"
    },
    "field_paths": {
      "type": "object",
      "additionalProperties": {
        "type": "string",
        "minLength": 1
      }
    },
    "issue_types": {
      "type": "object",
      "properties": {
        "user_story": { "$ref": "#/definitions/stringList" },
        "defect": { "$ref": "#/definitions/stringList" },
        "epic": { "$ref": "#/definitions/stringList" },
        "task": { "$ref": "#/definitions/stringList" },
        "custom": {
          "type": "object",
          "additionalProperties": {
            "type": "string",
            "enum": ["user_story", "defect", "epic", "task", "unknown"]
          }
        }
      }
    },
    "status_buckets": { "$ref": "#/definitions/bucketMapping" },
    "priority_buckets": { "$ref": "#/definitions/bucketMapping" },
    "workflow": {
      "type": "object",
      "properties": {
        "done": { "$ref": "#/definitions/stringList" },
        "active": { "$ref": "#/definitions/stringList" },
        "blocked": { "$ref": "#/definitions/stringList" }
      }
    },
    "import": {
      "type": "object",
      "properties": {
        "batch_size": {
          "type": "integer",
          "minimum": 1,
          "maximum": 1000
        },
        "delay_between_batches": {
          "type": "integer",
          "minimum": 0
        }
      }
    },
    "filters": {
      "type": "object",
      "additionalProperties": { "type": "string" }
    }
  },
  "definitions": {
    "stringList": {
      "type": "array",
      "items": { "type": "string" }
    },
    "bucketMapping": {
      "type": "object",
      "properties": {
        "buckets": {
          "type": "object",
          "additionalProperties": { "$ref": "#/definitions/stringList" }
        },
        "custom": {
          "type": "object",
          "additionalProperties": { "$ref": "#/definitions/stringList" }
        }
      }
    }
  }
}`

// ValidateConfigJSON validates a raw project config document against
// ConfigSchema.
func ValidateConfigJSON(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(ConfigSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid project config: %s", strings.Join(msgs, "; "))
	}

	return nil
}
