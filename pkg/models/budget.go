package models

// BudgetStatus is a point-in-time snapshot of spend against the fixed budget.
type BudgetStatus struct {
	BudgetUSD    float64 `json:"budget_usd"`
	SpentUSD     float64 `json:"spent_usd"`
	RemainingUSD float64 `json:"remaining_usd"`
	RequestCount int64   `json:"request_count"`
	PercentSpent float64 `json:"percent_spent"`
}
