package openai

import (
	"encoding/json"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/openai/openai-go"
)

func buildSchemaFormat(rs *ai.ResponseSchema) openai.ChatCompletionNewParamsResponseFormatUnion {
	var schemaMap map[string]any
	_ = json.Unmarshal(rs.Schema, &schemaMap)

	name := rs.Name
	if name == "" {
		name = "response_schema"
	}

	// Strict mode demands every property be required, which the analyzer
	// schemas with optional fields cannot satisfy.
	strict := allPropertiesRequired(schemaMap)
	if strict {
		addAdditionalPropertiesFalse(schemaMap)
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			Type: "json_schema",
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        name,
				Description: openai.String(rs.Description),
				Schema:      schemaMap,
				Strict:      openai.Bool(strict),
			},
		},
	}
}

// allPropertiesRequired reports whether every object in the schema lists
// all of its properties as required.
func allPropertiesRequired(schema map[string]any) bool {
	if schema == nil {
		return false
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		required := map[string]bool{}
		if list, ok := schema["required"].([]any); ok {
			for _, r := range list {
				if s, ok := r.(string); ok {
					required[s] = true
				}
			}
		}
		for name, prop := range props {
			if !required[name] {
				return false
			}
			if propMap, ok := prop.(map[string]any); ok {
				if _, nested := propMap["properties"]; nested && !allPropertiesRequired(propMap) {
					return false
				}
			}
		}
	}
	return true
}

// addAdditionalPropertiesFalse recursively closes every object schema.
func addAdditionalPropertiesFalse(schema map[string]any) {
	if schema == nil {
		return
	}
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				addAdditionalPropertiesFalse(propMap)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		addAdditionalPropertiesFalse(items)
	}
}
