// Package validator validates inbound wire-format scheduling requests
// against a JSON Schema before they reach the request decoder.
package validator

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kcloud-opt/loadsched/internal/types"
)

// taskSchema describes the wire Task shape: duration/power are required,
// the start/end constraint lists are optional and, when present, each
// entry carries a {start, duration} interval in Unix seconds.
const taskSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"$id": "task",
	"type": "object",
	"required": ["duration", "power"],
	"properties": {
		"id": { "type": "string" },
		"duration": { "type": "integer", "minimum": 1 },
		"power": { "type": "number", "minimum": 0 },
		"must_start_between": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["start_interval"],
				"properties": {
					"start_interval": { "$ref": "#/definitions/interval" }
				}
			}
		},
		"must_end_between": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["end_interval"],
				"properties": {
					"end_interval": { "$ref": "#/definitions/interval" }
				}
			}
		}
	},
	"definitions": {
		"interval": {
			"type": "object",
			"required": ["start", "duration"],
			"properties": {
				"start": { "type": "integer" },
				"duration": { "type": "integer", "minimum": 0 }
			}
		}
	}
}`

// scheduleRequestSchema describes the request boundary: an ordered task
// list, an optional pre-existing base schedule, and the effective "now"
// instant.
const scheduleRequestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["tasks", "now"],
	"properties": {
		"now": { "type": "integer" },
		"tasks": {
			"type": "array",
			"minItems": 1,
			"items": { "$ref": "task" }
		},
		"base_schedule": {
			"type": "object",
			"properties": {
				"tasks": { "type": "array" },
				"maximum_power_consumption": {
					"type": "object",
					"required": ["maximum_consumption"],
					"properties": {
						"maximum_consumption": { "type": "number", "minimum": 0 }
					}
				}
			}
		}
	}
}`

// SchemaValidator compiles the wire-format schemas once and validates
// request documents against them.
type SchemaValidator struct {
	logger        types.Logger
	taskSchema    *gojsonschema.Schema
	requestSchema *gojsonschema.Schema
}

// NewSchemaValidator creates a validator instance and compiles its
// schemas immediately so a malformed schema fails fast at startup rather
// than on the first request.
func NewSchemaValidator(logger types.Logger) (*SchemaValidator, error) {
	sv := &SchemaValidator{logger: logger}
	if err := sv.LoadSchemas(); err != nil {
		return nil, err
	}
	return sv, nil
}

// LoadSchemas compiles the task schema and the request schema (which
// references the task schema by its "task" loader key).
func (sv *SchemaValidator) LoadSchemas() error {
	sl := gojsonschema.NewSchemaLoader()
	taskLoader := gojsonschema.NewStringLoader(taskSchema)
	if err := sl.AddSchemas(taskLoader); err != nil {
		return fmt.Errorf("failed to register task schema: %w", err)
	}

	taskSchemaCompiled, err := gojsonschema.NewSchema(taskLoader)
	if err != nil {
		return fmt.Errorf("failed to compile task schema: %w", err)
	}
	sv.taskSchema = taskSchemaCompiled

	requestSchemaCompiled, err := sl.Compile(gojsonschema.NewStringLoader(scheduleRequestSchema))
	if err != nil {
		return fmt.Errorf("failed to compile schedule request schema: %w", err)
	}
	sv.requestSchema = requestSchemaCompiled

	return nil
}

// ValidateTask validates a single wire-format Task document.
func (sv *SchemaValidator) ValidateTask(taskJSON []byte) error {
	result, err := sv.taskSchema.Validate(gojsonschema.NewBytesLoader(taskJSON))
	if err != nil {
		return fmt.Errorf("task schema validation error: %w", err)
	}
	return resultToError("task", result)
}

// ValidateScheduleRequest validates a full scheduling request document.
func (sv *SchemaValidator) ValidateScheduleRequest(requestJSON []byte) error {
	result, err := sv.requestSchema.Validate(gojsonschema.NewBytesLoader(requestJSON))
	if err != nil {
		return fmt.Errorf("schedule request schema validation error: %w", err)
	}
	return resultToError("schedule request", result)
}

func resultToError(kind string, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}
	return fmt.Errorf("invalid %s: %s", kind, strings.Join(messages, "; "))
}
