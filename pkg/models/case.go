package models

import "time"

// CaseStatus is the workbench lifecycle state of a flagged transaction.
type CaseStatus string

const (
	CaseNew       CaseStatus = "new"
	CaseReviewing CaseStatus = "reviewing"
	CaseResolved  CaseStatus = "resolved"
)

// Case is a flagged banking transaction. It is owned by the surrounding
// case-management layer and read-only for the duration of an inference request.
type Case struct {
	ID             string     `json:"id"`
	CustomerName   string     `json:"customer_name"`
	Amount         float64    `json:"amount"`
	Country        string     `json:"country"`
	RiskScore      float64    `json:"risk_score"`
	Status         CaseStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	AccountAgeDays int        `json:"account_age_days"`
	TxCount30d     int        `json:"tx_count_30d"`
}

// RiskLevel is the categorical band for a numeric risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// LevelForScore maps a 0.0-1.0 risk score to its categorical band.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score >= 0.7:
		return RiskHigh
	case score >= 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}
