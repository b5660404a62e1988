package inference

import (
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"github.com/riskline-ai/riskline/pkg/models"
)

// Confidence is optional for explanations: when the model omits it, the
// orchestrator substitutes a heuristic estimate.
const explainSchema = `{
	"type": "object",
	"required": ["rationale", "recommended_action"],
	"properties": {
		"rationale": {"type": "string", "minLength": 1},
		"recommended_action": {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

const scoreSchema = `{
	"type": "object",
	"required": ["risk_score", "risk_level", "reasoning"],
	"properties": {
		"risk_score": {"type": "number", "minimum": 0, "maximum": 1},
		"risk_level": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]},
		"reasoning": {"type": "string", "minLength": 1}
	}
}`

const complianceSchema = `{
	"type": "object",
	"required": ["status", "violations", "citations", "recommendation", "confidence"],
	"properties": {
		"status": {"type": "string", "enum": ["COMPLIANT", "NON_COMPLIANT", "REVIEW_REQUIRED"]},
		"violations": {"type": "array", "items": {"type": "string"}},
		"citations": {"type": "array", "items": {"type": "string"}},
		"recommendation": {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

var schemas = map[models.OperationKind]*jsonschema.Schema{
	models.OpExplain:    mustCompile(explainSchema),
	models.OpScore:      mustCompile(scoreSchema),
	models.OpCompliance: mustCompile(complianceSchema),
}

func mustCompile(src string) *jsonschema.Schema {
	schema, err := jsonschema.NewCompiler().Compile([]byte(src))
	if err != nil {
		panic(fmt.Sprintf("compile result schema: %v", err))
	}
	return schema
}

// validate checks the extracted JSON object against the operation's
// schema. Failures are malformed-response errors, not transient ones.
func validate(kind models.OperationKind, raw []byte) error {
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", ErrMalformedResponse, kind)
	}
	result := schema.ValidateJSON(raw)
	if !result.IsValid() {
		return fmt.Errorf("%w: schema validation failed: %v", ErrMalformedResponse, result.Errors)
	}
	return nil
}
