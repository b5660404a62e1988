package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/riskline-ai/riskline/pkg/models"
)

// ExtractJSON locates the JSON object embedded in free-text model
// output: the span from the first '{' to the last '}', tolerating
// leading and trailing prose.
func ExtractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in output", ErrMalformedResponse)
	}
	return []byte(text[start : end+1]), nil
}

type explainPayload struct {
	Rationale         string  `json:"rationale"`
	RecommendedAction string  `json:"recommended_action"`
	Confidence        float64 `json:"confidence"`
}

type scorePayload struct {
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`
	Reasoning string  `json:"reasoning"`
}

type compliancePayload struct {
	Status         string   `json:"status"`
	Violations     []string `json:"violations"`
	Citations      []string `json:"citations"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
}

// ParseResult extracts and validates the JSON object in raw model output
// and decodes it into the payload for the requested operation. Any
// missing or out-of-range field is a validation error, never a silent
// default.
func ParseResult(kind models.OperationKind, text string) (*models.InferenceResult, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	if err := validate(kind, raw); err != nil {
		return nil, err
	}

	result := &models.InferenceResult{Kind: kind}
	switch kind {
	case models.OpExplain:
		var p explainPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		result.Explanation = &models.Explanation{
			Confidence:        p.Confidence,
			Rationale:         p.Rationale,
			RecommendedAction: p.RecommendedAction,
		}
	case models.OpScore:
		var p scorePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		result.RiskScore = &models.RiskScore{
			Score:     p.RiskScore,
			Level:     models.RiskLevel(p.RiskLevel),
			Reasoning: p.Reasoning,
		}
	case models.OpCompliance:
		var p compliancePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		result.Compliance = &models.ComplianceFinding{
			Status:         models.ComplianceStatus(p.Status),
			Violations:     p.Violations,
			Citations:      p.Citations,
			Recommendation: p.Recommendation,
			Confidence:     p.Confidence,
		}
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrMalformedResponse, kind)
	}

	return result, nil
}
