package orchestrator

import (
	"fmt"
	"time"

	"github.com/riskline-ai/riskline/pkg/models"
)

// FallbackModelID labels rule-based results so analysts are never misled
// about provenance.
const FallbackModelID = "rule-based-fallback (non-AI)"

const (
	highRiskThreshold   = 0.8
	mediumRiskThreshold = 0.5
)

// fallbackResult builds a deterministic rule-based result for a case.
// Fallback results never claim model confidence and consume no tokens.
func fallbackResult(c *models.Case, kind models.OperationKind, reason models.FallbackReason) *models.InferenceResult {
	result := &models.InferenceResult{
		CaseID:         c.ID,
		Kind:           kind,
		ModelUsed:      FallbackModelID,
		TokensConsumed: 0,
		CostUSD:        0,
		CreatedAt:      time.Now().UTC(),
		Origin:         models.OriginFallback,
		FallbackReason: reason,
	}

	switch kind {
	case models.OpExplain:
		result.Explanation = fallbackExplanation(c)
	case models.OpScore:
		result.RiskScore = fallbackRiskScore(c)
	case models.OpCompliance:
		result.Compliance = fallbackCompliance(c)
	}
	return result
}

func fallbackExplanation(c *models.Case) *models.Explanation {
	switch {
	case c.RiskScore >= highRiskThreshold:
		return &models.Explanation{
			Confidence: 0,
			Rationale: fmt.Sprintf(
				"Rule-based assessment (non-AI): transaction of $%.2f from %s exhibits multiple high-risk indicators. The amount significantly exceeds typical customer behavior and the jurisdiction requires enhanced due diligence.",
				c.Amount, c.Country),
			RecommendedAction: "HOLD transaction and escalate to the senior compliance officer. Verify source of funds and file a SAR if unverified within 24 hours.",
		}
	case c.RiskScore >= mediumRiskThreshold:
		return &models.Explanation{
			Confidence: 0,
			Rationale: fmt.Sprintf(
				"Rule-based assessment (non-AI): transaction amount ($%.2f) from %s exceeds the typical range but remains within reasonable bounds. Moderate risk factors present requiring review.",
				c.Amount, c.Country),
			RecommendedAction: "APPROVE with enhanced monitoring. Flag the account for 30-day surveillance and document the approval rationale.",
		}
	default:
		return &models.Explanation{
			Confidence: 0,
			Rationale: fmt.Sprintf(
				"Rule-based assessment (non-AI): transaction of $%.2f from %s aligns with the established customer behavior pattern. No unusual indicators present.",
				c.Amount, c.Country),
			RecommendedAction: "APPROVE immediately. No further action required; continue standard automated monitoring.",
		}
	}
}

func fallbackRiskScore(c *models.Case) *models.RiskScore {
	var band string
	switch {
	case c.RiskScore >= highRiskThreshold:
		band = "high-risk"
	case c.RiskScore >= mediumRiskThreshold:
		band = "medium-risk"
	default:
		band = "low-risk"
	}
	return &models.RiskScore{
		Score: c.RiskScore,
		Level: models.LevelForScore(c.RiskScore),
		Reasoning: fmt.Sprintf(
			"Rule-based assessment (non-AI): preliminary score %.2f places this %s transaction in the %s band.",
			c.RiskScore, c.Country, band),
	}
}

func fallbackCompliance(c *models.Case) *models.ComplianceFinding {
	switch {
	case c.RiskScore >= highRiskThreshold:
		return &models.ComplianceFinding{
			Status:         models.ReviewRequired,
			Violations:     []string{fmt.Sprintf("Preliminary risk score %.2f exceeds the high-risk threshold.", c.RiskScore)},
			Citations:      nil,
			Recommendation: "Escalate for manual compliance review with enhanced due diligence before settlement.",
			Confidence:     0,
		}
	case c.RiskScore >= mediumRiskThreshold:
		return &models.ComplianceFinding{
			Status:         models.ReviewRequired,
			Violations:     nil,
			Citations:      nil,
			Recommendation: "Review under standard compliance procedure and document the outcome.",
			Confidence:     0,
		}
	default:
		return &models.ComplianceFinding{
			Status:         models.Compliant,
			Violations:     nil,
			Citations:      nil,
			Recommendation: "No compliance action required; continue standard monitoring.",
			Confidence:     0,
		}
	}
}

// estimateConfidence approximates model confidence for explanations when
// the model omits the field. Extreme preliminary scores read as higher
// confidence; very short rationales lower it.
func estimateConfidence(riskScore float64, rationaleLen int) float64 {
	var base float64
	switch {
	case riskScore >= 0.8 || riskScore <= 0.2:
		base = 0.9
	case riskScore >= 0.6 || riskScore <= 0.4:
		base = 0.75
	default:
		base = 0.6
	}

	if rationaleLen > 200 {
		base += 0.05
	} else if rationaleLen < 100 {
		base -= 0.05
	}

	return min(0.95, max(0.5, base))
}
