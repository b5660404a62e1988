package models

import "time"

// UsageRecord is one ledger row for a completed paid inference call.
type UsageRecord struct {
	ID        int64         `json:"id"`
	CaseID    string        `json:"case_id"`
	Operation OperationKind `json:"operation"`
	Model     string        `json:"model"`
	Tokens    int           `json:"tokens"`
	CostUSD   float64       `json:"cost_usd"`
	Origin    ResultOrigin  `json:"origin"`
	LatencyMs int64         `json:"latency_ms"`
	CreatedAt time.Time     `json:"created_at"`
}

// UsageSummary aggregates ledger rows by operation and model.
type UsageSummary struct {
	Operation    OperationKind `json:"operation"`
	Model        string        `json:"model"`
	RequestCount int           `json:"request_count"`
	TotalTokens  int64         `json:"total_tokens"`
	TotalCostUSD float64       `json:"total_cost_usd"`
}
