package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ViolationError lists the ways a document failed its schema.
type ViolationError struct {
	Violations []string
}

func (e *ViolationError) Error() string {
	return "schema: document does not match: " + strings.Join(e.Violations, "; ")
}

// Validate checks a JSON document against a JSON Schema.
// It returns a *ViolationError when the document is well-formed JSON but
// does not satisfy the schema.
func Validate(schemaJSON, document json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema: validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, re.String())
	}
	return &ViolationError{Violations: violations}
}
