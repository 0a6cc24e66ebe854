// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"scribe-api/internal/common/errors"
)

// Request payload schemas. Each API operation that accepts a body validates
// it against one of these before touching domain logic.
const (
	StartTranscriptionSchema = `{
		"type": "object",
		"properties": {
			"language": {"type": "string", "minLength": 2},
			"model": {"type": "string", "minLength": 1},
			"speakers": {"type": "integer", "minimum": 0, "maximum": 32},
			"output_format": {"type": "string", "enum": ["srt", "txt"]}
		},
		"required": ["language", "model", "output_format"],
		"additionalProperties": false
	}`

	GroupSchema = `{
		"type": "object",
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"realm": {"type": "string", "minLength": 1},
			"quota_minutes": {"type": "integer", "minimum": 0},
			"members": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["name", "realm"],
		"additionalProperties": false
	}`

	UserUpdateSchema = `{
		"type": "object",
		"properties": {
			"active": {"type": "boolean"},
			"admin": {"type": "boolean"},
			"admin_domains": {"type": "array", "items": {"type": "string"}}
		},
		"additionalProperties": false
	}`

	CustomerSchema = `{
		"type": "object",
		"properties": {
			"customer_abbr": {"type": "string", "minLength": 1, "maxLength": 16},
			"partner_id": {"type": "string"},
			"name": {"type": "string", "minLength": 1},
			"contact_email": {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"},
			"priceplan": {"type": "string", "minLength": 1},
			"base_fee": {"type": "number", "minimum": 0},
			"realms": {"type": "string"},
			"notes": {"type": "string"},
			"blocks_purchased": {"type": "integer", "minimum": 0}
		},
		"required": ["customer_abbr", "name", "priceplan"],
		"additionalProperties": false
	}`

	HeartbeatSchema = `{
		"type": "object",
		"properties": {
			"hostname": {"type": "string", "minLength": 1},
			"load_avg": {"type": "number", "minimum": 0},
			"memory_usage": {"type": "number", "minimum": 0, "maximum": 100},
			"gpu_usage": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"utilization": {"type": "number", "minimum": 0, "maximum": 100},
						"memory_used": {"type": "number", "minimum": 0},
						"memory_total": {"type": "number", "minimum": 0}
					},
					"required": ["utilization", "memory_used", "memory_total"]
				}
			}
		},
		"required": ["hostname"],
		"additionalProperties": false
	}`

	AccountSchema = `{
		"type": "object",
		"properties": {
			"email": {"type": "string"},
			"notify_on_job": {"type": "boolean"},
			"notify_on_deletion": {"type": "boolean"},
			"notify_on_user": {"type": "boolean"}
		},
		"additionalProperties": false
	}`

	PassphraseSchema = `{
		"type": "object",
		"properties": {
			"passphrase": {"type": "string", "minLength": 8}
		},
		"required": ["passphrase"],
		"additionalProperties": false
	}`

	WorkerStatusSchema = `{
		"type": "object",
		"properties": {
			"status": {"type": "string", "enum": ["in_progress", "failed"]},
			"error": {"type": "string"}
		},
		"required": ["status"],
		"additionalProperties": false
	}`

	WorkerResultSchema = `{
		"type": "object",
		"properties": {
			"result": {"type": "string", "minLength": 1},
			"duration_seconds": {"type": "number", "minimum": 0}
		},
		"required": ["result", "duration_seconds"],
		"additionalProperties": false
	}`
)

// ValidateJSON checks a raw JSON document against a schema and returns a
// validation error naming every violated field.
func ValidateJSON(schemaJSON string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return errors.NewValidationError("invalid JSON body", err.Error())
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", resErr.Field(), resErr.Description()))
	}
	return errors.NewValidationError("request body failed validation", strings.Join(msgs, "; "))
}

// AllowedUploadExtensions lists accepted media container formats.
var AllowedUploadExtensions = []string{".mp3", ".wav", ".flac", ".mp4", ".mkv", ".avi"}

// ValidateUploadFilename checks the media file extension.
func ValidateUploadFilename(name string) error {
	lower := strings.ToLower(name)
	for _, ext := range AllowedUploadExtensions {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return errors.NewValidationError(
		"unsupported file format",
		fmt.Sprintf("%s: allowed formats are %s", name, strings.Join(AllowedUploadExtensions, ", ")),
	)
}
