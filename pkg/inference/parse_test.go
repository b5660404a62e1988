package inference

import (
	"errors"
	"testing"

	"github.com/riskline-ai/riskline/pkg/models"
)

func TestExtractJSONToleratesProse(t *testing.T) {
	text := "Sure! Here is the assessment:\n{\"risk_score\": 0.7, \"risk_level\": \"HIGH\", \"reasoning\": \"large amount\"}\nLet me know if you need more."
	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatal(err)
	}
	if raw[0] != '{' || raw[len(raw)-1] != '}' {
		t.Errorf("extracted span is not a JSON object: %s", raw)
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	if _, err := ExtractJSON("no braces here"); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
	if _, err := ExtractJSON("} backwards {"); err == nil {
		t.Error("expected error for reversed braces")
	}
}

func TestParseExplain(t *testing.T) {
	text := `The analysis follows. {"rationale": "Amount far above customer baseline.", "recommended_action": "Escalate to senior compliance officer.", "confidence": 0.87}`
	res, err := ParseResult(models.OpExplain, text)
	if err != nil {
		t.Fatal(err)
	}
	if res.Explanation == nil {
		t.Fatal("expected explanation payload")
	}
	if res.Explanation.Confidence != 0.87 {
		t.Errorf("expected confidence 0.87, got %v", res.Explanation.Confidence)
	}
}

func TestParseScore(t *testing.T) {
	text := `{"risk_score": 0.35, "risk_level": "LOW", "reasoning": "Amount consistent with history."}`
	res, err := ParseResult(models.OpScore, text)
	if err != nil {
		t.Fatal(err)
	}
	if res.RiskScore == nil || res.RiskScore.Level != models.RiskLow {
		t.Errorf("unexpected payload: %+v", res.RiskScore)
	}
}

func TestParseCompliance(t *testing.T) {
	text := `{"status": "REVIEW_REQUIRED", "violations": ["EDD threshold exceeded"], "citations": ["aml_policy.md: transactions exceeding $10,000 require EDD"], "recommendation": "Hold pending documentation.", "confidence": 0.8}`
	res, err := ParseResult(models.OpCompliance, text)
	if err != nil {
		t.Fatal(err)
	}
	if res.Compliance == nil || res.Compliance.Status != models.ReviewRequired {
		t.Fatalf("unexpected payload: %+v", res.Compliance)
	}
	if len(res.Compliance.Citations) != 1 {
		t.Errorf("expected 1 citation, got %d", len(res.Compliance.Citations))
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	cases := map[models.OperationKind]string{
		models.OpExplain:    `{"rationale": "text only"}`,
		models.OpScore:      `{"risk_score": 0.5}`,
		models.OpCompliance: `{"status": "COMPLIANT"}`,
	}
	for kind, text := range cases {
		if _, err := ParseResult(kind, text); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("%s: expected ErrMalformedResponse for missing fields, got %v", kind, err)
		}
	}
}

func TestParseRejectsOutOfRangeValues(t *testing.T) {
	text := `{"risk_score": 1.7, "risk_level": "HIGH", "reasoning": "x"}`
	if _, err := ParseResult(models.OpScore, text); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse for out-of-range score, got %v", err)
	}

	text = `{"risk_score": 0.5, "risk_level": "EXTREME", "reasoning": "x"}`
	if _, err := ParseResult(models.OpScore, text); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse for invalid level, got %v", err)
	}
}
