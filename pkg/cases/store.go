// Package cases is the seam to the surrounding case-management layer.
// The in-memory store stands in for it during development and tests,
// seeded with representative flagged transactions.
package cases

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/riskline-ai/riskline/pkg/models"
)

// ErrNotFound is returned when a case id is unknown.
var ErrNotFound = errors.New("case not found")

// Source supplies cases to the orchestrator.
type Source interface {
	Get(ctx context.Context, id string) (*models.Case, error)
}

// Sink receives the final inference result for a case. Implemented by
// the case-management layer's persistence.
type Sink interface {
	StoreResult(ctx context.Context, result *models.InferenceResult) error
}

// Store is an in-memory Source with seed data.
type Store struct {
	mu    sync.RWMutex
	cases map[string]models.Case
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{cases: make(map[string]models.Case)}
}

// NewSeededStore creates a Store preloaded with sample cases.
func NewSeededStore() *Store {
	s := NewStore()
	now := time.Now().UTC()
	for _, c := range []models.Case{
		{ID: "550e8400-e29b-41d4-a716-446655440000", CustomerName: "Alice Johnson", Amount: 5300.00, Country: "SG", RiskScore: 0.82, Status: models.CaseNew, CreatedAt: now.Add(-2 * time.Hour), AccountAgeDays: 120, TxCount30d: 14},
		{ID: "660e8400-e29b-41d4-a716-446655440001", CustomerName: "Robert Chen", Amount: 12000.00, Country: "US", RiskScore: 0.54, Status: models.CaseReviewing, CreatedAt: now.Add(-5 * time.Hour), AccountAgeDays: 900, TxCount30d: 6},
		{ID: "770e8400-e29b-41d4-a716-446655440002", CustomerName: "Maria Gonzalez", Amount: 450.00, Country: "US", RiskScore: 0.18, Status: models.CaseResolved, CreatedAt: now.Add(-24 * time.Hour), AccountAgeDays: 1500, TxCount30d: 22},
		{ID: "880e8400-e29b-41d4-a716-446655440003", CustomerName: "John Smith", Amount: 9800.00, Country: "US", RiskScore: 0.94, Status: models.CaseNew, CreatedAt: now.Add(-time.Hour), AccountAgeDays: 30, TxCount30d: 41},
		{ID: "990e8400-e29b-41d4-a716-446655440004", CustomerName: "Sarah Williams", Amount: 7500.00, Country: "GB", RiskScore: 0.65, Status: models.CaseReviewing, CreatedAt: now.Add(-8 * time.Hour), AccountAgeDays: 400, TxCount30d: 9},
		{ID: "aa0e8400-e29b-41d4-a716-446655440005", CustomerName: "David Lee", Amount: 3200.00, Country: "KR", RiskScore: 0.47, Status: models.CaseNew, CreatedAt: now.Add(-3 * time.Hour), AccountAgeDays: 250, TxCount30d: 11},
		{ID: "bb0e8400-e29b-41d4-a716-446655440006", CustomerName: "Emma Brown", Amount: 15000.00, Country: "AU", RiskScore: 0.71, Status: models.CaseReviewing, CreatedAt: now.Add(-6 * time.Hour), AccountAgeDays: 700, TxCount30d: 4},
		{ID: "cc0e8400-e29b-41d4-a716-446655440007", CustomerName: "Michael Taylor", Amount: 890.00, Country: "US", RiskScore: 0.23, Status: models.CaseResolved, CreatedAt: now.Add(-48 * time.Hour), AccountAgeDays: 2000, TxCount30d: 18},
		{ID: "dd0e8400-e29b-41d4-a716-446655440008", CustomerName: "Lisa Anderson", Amount: 22000.00, Country: "CH", RiskScore: 0.88, Status: models.CaseNew, CreatedAt: now.Add(-45 * time.Minute), AccountAgeDays: 60, TxCount30d: 27},
		{ID: "ee0e8400-e29b-41d4-a716-446655440009", CustomerName: "James Wilson", Amount: 1250.00, Country: "CA", RiskScore: 0.31, Status: models.CaseResolved, CreatedAt: now.Add(-72 * time.Hour), AccountAgeDays: 1100, TxCount30d: 8},
	} {
		s.cases[c.ID] = c
	}
	return s
}

// Put inserts or replaces a case.
func (s *Store) Put(c models.Case) {
	s.mu.Lock()
	s.cases[c.ID] = c
	s.mu.Unlock()
}

// Get returns a case by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// List returns all cases, newest first.
func (s *Store) List(ctx context.Context) []models.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
