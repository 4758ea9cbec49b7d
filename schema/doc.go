// Package schema builds JSON Schema documents for tool parameters and
// structured output, and validates model output against them.
//
// Schemas are built programmatically:
//
//	route := schema.Object().
//		Field("next", schema.String().Enum("change_guide", "end").Required()).
//		MustBuild()
//
//	person := schema.Object().
//		Field("name", schema.String().Desc("담당자 이름")).
//		Field("email", schema.String().Format("email")).
//		MustBuild()
//
// Validate checks a JSON document against a schema, including enum
// membership, required properties and string formats such as email.
package schema
