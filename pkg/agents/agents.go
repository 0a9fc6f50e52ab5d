// Package agents hosts the workflow agents and the helpers their node
// handlers share: idempotency-key derivation for at-least-once domain writes
// and schema validation for language-model JSON output.
package agents

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/scribehq/scribe/pkg/models"
)

// IdempotencyKey derives the duplicate-write guard for a domain save. A node
// re-run after a crash between handler completion and checkpoint write
// produces the same key and therefore the same row.
func IdempotencyKey(threadID string, node models.NodeID) string {
	return threadID + ":" + string(node)
}

// ExtractJSON strips the markdown code fence the model may wrap around a
// JSON reply.
func ExtractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")

		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}

		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}

// ValidateJSON checks a document against a compiled JSON schema.
func ValidateJSON(schema *gojsonschema.Schema, document string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("document failed schema validation: %s", strings.Join(messages, "; "))
	}

	return nil
}

// MustCompileSchema compiles a schema literal at package init.
func MustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid JSON schema: %v", err))
	}

	return schema
}
