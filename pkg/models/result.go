package models

import "time"

// OperationKind identifies one of the three inference operations.
type OperationKind string

const (
	OpExplain    OperationKind = "explain"
	OpScore      OperationKind = "score"
	OpCompliance OperationKind = "compliance"
)

// ResultOrigin records where an InferenceResult came from.
type ResultOrigin string

const (
	OriginModel    ResultOrigin = "model"
	OriginFallback ResultOrigin = "fallback"
	OriginCache    ResultOrigin = "cache"
)

// FallbackReason explains why a fallback result was produced.
type FallbackReason string

const (
	FallbackBudget      FallbackReason = "budget_exhausted"
	FallbackUnavailable FallbackReason = "service_unavailable"
	FallbackMalformed   FallbackReason = "malformed_response"
)

// ComplianceStatus is the verdict of a compliance analysis.
type ComplianceStatus string

const (
	Compliant      ComplianceStatus = "COMPLIANT"
	NonCompliant   ComplianceStatus = "NON_COMPLIANT"
	ReviewRequired ComplianceStatus = "REVIEW_REQUIRED"
)

// Explanation is the payload of an explain operation.
type Explanation struct {
	Confidence        float64 `json:"confidence"`
	Rationale         string  `json:"rationale"`
	RecommendedAction string  `json:"recommended_action"`
}

// RiskScore is the payload of a score operation.
type RiskScore struct {
	Score     float64   `json:"score"`
	Level     RiskLevel `json:"level"`
	Reasoning string    `json:"reasoning"`
}

// ComplianceFinding is the payload of a compliance operation.
type ComplianceFinding struct {
	Status         ComplianceStatus `json:"status"`
	Violations     []string         `json:"violations"`
	Citations      []string         `json:"citations"`
	Recommendation string           `json:"recommendation"`
	Confidence     float64          `json:"confidence"`
}

// InferenceRequest describes a single inference call. It is constructed
// per call and never persisted.
type InferenceRequest struct {
	Kind         OperationKind `json:"kind"`
	CaseID       string        `json:"case_id"`
	UseDocuments bool          `json:"use_documents"`
}

// InferenceResult is the outcome of one of the three operations. Exactly
// one of Explanation, RiskScore, or ComplianceFinding is non-nil,
// matching Kind.
type InferenceResult struct {
	CaseID         string             `json:"case_id"`
	Kind           OperationKind      `json:"kind"`
	Explanation    *Explanation       `json:"explanation,omitempty"`
	RiskScore      *RiskScore         `json:"risk_score,omitempty"`
	Compliance     *ComplianceFinding `json:"compliance,omitempty"`
	ModelUsed      string             `json:"model_used"`
	TokensConsumed int                `json:"tokens_consumed"`
	CostUSD        float64            `json:"cost_usd"`
	GenerationTime time.Duration      `json:"generation_time"`
	CreatedAt      time.Time          `json:"created_at"`
	Origin         ResultOrigin       `json:"origin"`
	FallbackReason FallbackReason     `json:"fallback_reason,omitempty"`
}

// Confidence returns the confidence carried by whichever payload is set.
// Score results report no model confidence and return 0.
func (r *InferenceResult) Confidence() float64 {
	switch {
	case r.Explanation != nil:
		return r.Explanation.Confidence
	case r.Compliance != nil:
		return r.Compliance.Confidence
	default:
		return 0
	}
}
