package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskline-ai/riskline/pkg/models"
)

func setup(t *testing.T) (*Ledger, context.Context) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger_test.db")
	l, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l, context.Background()
}

func TestRecordAndTotal(t *testing.T) {
	l, ctx := setup(t)

	now := time.Now().UTC()
	_ = l.Record(ctx, models.UsageRecord{
		CaseID: "case-1", Operation: models.OpExplain, Model: "ibm/granite-3-2-8b-instruct",
		Tokens: 300, CostUSD: 0.00003, Origin: models.OriginModel, LatencyMs: 850, CreatedAt: now,
	})
	_ = l.Record(ctx, models.UsageRecord{
		CaseID: "case-2", Operation: models.OpScore, Model: "ibm/granite-3-2-8b-instruct",
		Tokens: 250, CostUSD: 0.000025, Origin: models.OriginModel, LatencyMs: 700, CreatedAt: now,
	})

	tokens, cost, err := l.TotalSince(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if tokens != 550 {
		t.Errorf("expected 550 tokens, got %d", tokens)
	}
	if cost <= 0 {
		t.Errorf("expected positive cost, got %v", cost)
	}
}

func TestSummaryGroupsByOperation(t *testing.T) {
	l, ctx := setup(t)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_ = l.Record(ctx, models.UsageRecord{
			CaseID: "case-1", Operation: models.OpExplain, Model: "m",
			Tokens: 100, CostUSD: 0.00001, Origin: models.OriginModel, CreatedAt: now,
		})
	}
	_ = l.Record(ctx, models.UsageRecord{
		CaseID: "case-1", Operation: models.OpCompliance, Model: "m",
		Tokens: 400, CostUSD: 0.00004, Origin: models.OriginModel, CreatedAt: now,
	})

	summaries, err := l.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(summaries))
	}
	// Ordered by operation name: compliance before explain.
	if summaries[0].Operation != models.OpCompliance || summaries[0].RequestCount != 1 {
		t.Errorf("unexpected first row: %+v", summaries[0])
	}
	if summaries[1].Operation != models.OpExplain || summaries[1].RequestCount != 3 {
		t.Errorf("unexpected second row: %+v", summaries[1])
	}
}

func TestRecentOrdering(t *testing.T) {
	l, ctx := setup(t)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_ = l.Record(ctx, models.UsageRecord{
			CaseID: "case-1", Operation: models.OpScore, Model: "m",
			Tokens: 10 * (i + 1), CostUSD: 0.000001, Origin: models.OriginModel,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	records, err := l.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Tokens != 50 {
		t.Errorf("expected newest record first, got tokens=%d", records[0].Tokens)
	}
}
