package cases

import (
	"context"
	"errors"
	"testing"

	"github.com/riskline-ai/riskline/pkg/models"
)

func TestSeededStore(t *testing.T) {
	s := NewSeededStore()
	ctx := context.Background()

	c, err := s.Get(ctx, "880e8400-e29b-41d4-a716-446655440003")
	if err != nil {
		t.Fatal(err)
	}
	if c.CustomerName != "John Smith" || c.RiskScore != 0.94 {
		t.Errorf("unexpected seed case: %+v", c)
	}

	if _, err := s.Get(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := NewSeededStore()

	all := s.List(context.Background())
	if len(all) != 10 {
		t.Fatalf("expected 10 seed cases, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("cases out of order at %d", i)
		}
	}
}

func TestPutReplaces(t *testing.T) {
	s := NewStore()
	s.Put(models.Case{ID: "c1", CustomerName: "A", RiskScore: 0.5})
	s.Put(models.Case{ID: "c1", CustomerName: "B", RiskScore: 0.6})

	c, err := s.Get(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.CustomerName != "B" || c.RiskScore != 0.6 {
		t.Errorf("expected replacement, got %+v", c)
	}
}
