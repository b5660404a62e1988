// Package orchestrator composes the cache, budget tracker, document
// store, prompt builder, and inference client into the three public
// operations. It owns the decision of which result a caller receives.
//
// Per-request flow: cache check → budget admission → model call →
// validate, commit, cache → return. Any budget denial or model failure
// lands on the deterministic rule-based fallback, so a valid case always
// yields a result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/riskline-ai/riskline/pkg/budget"
	"github.com/riskline-ai/riskline/pkg/cases"
	"github.com/riskline-ai/riskline/pkg/inference"
	"github.com/riskline-ai/riskline/pkg/models"
	"github.com/riskline-ai/riskline/pkg/prompt"
)

// Invoker is the inference client surface the orchestrator needs.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (inference.Generation, error)
	Model() string
	EstimatePromptTokens(prompt string) int
}

// Cache is the response cache surface. Nil disables caching.
type Cache interface {
	Get(caseID string, kind models.OperationKind) (*models.InferenceResult, bool)
	Put(result *models.InferenceResult) error
}

// Retriever answers document retrieval queries for compliance prompts.
type Retriever interface {
	Retrieve(query string, k int) []models.DocumentChunk
}

// Recorder receives usage records for completed operations.
type Recorder interface {
	Record(ctx context.Context, rec models.UsageRecord) error
}

// Deps are the orchestrator's collaborators. Cases, Tracker, Client, and
// Prompts are required; the rest are optional.
type Deps struct {
	Cases     cases.Source
	Sink      cases.Sink
	Tracker   *budget.Tracker
	Client    Invoker
	Prompts   *prompt.Builder
	Cache     Cache
	Retriever Retriever
	Ledger    Recorder
	TopK      int
}

// Orchestrator serves the explain, score, and analyze-compliance
// operations for many concurrent callers.
type Orchestrator struct {
	deps  Deps
	group singleflight.Group
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	if deps.TopK <= 0 {
		deps.TopK = 3
	}
	return &Orchestrator{deps: deps}
}

// Explain generates an AI explanation for a case.
func (o *Orchestrator) Explain(ctx context.Context, caseID string) (*models.InferenceResult, error) {
	return o.run(ctx, models.InferenceRequest{Kind: models.OpExplain, CaseID: caseID})
}

// Score generates an AI risk score for a case.
func (o *Orchestrator) Score(ctx context.Context, caseID string) (*models.InferenceResult, error) {
	return o.run(ctx, models.InferenceRequest{Kind: models.OpScore, CaseID: caseID})
}

// AnalyzeCompliance generates a regulation-grounded compliance finding.
// With useDocuments set, retrieved excerpts ground the prompt.
func (o *Orchestrator) AnalyzeCompliance(ctx context.Context, caseID string, useDocuments bool) (*models.InferenceResult, error) {
	return o.run(ctx, models.InferenceRequest{Kind: models.OpCompliance, CaseID: caseID, UseDocuments: useDocuments})
}

// BudgetStatus reports spend against the budget for operator dashboards.
func (o *Orchestrator) BudgetStatus() models.BudgetStatus {
	return o.deps.Tracker.Status()
}

// run collapses concurrent requests for the same (case, operation) key
// into a single execution: the first caller pays for at most one model
// call and later concurrent callers wait for its result.
func (o *Orchestrator) run(ctx context.Context, req models.InferenceRequest) (*models.InferenceResult, error) {
	key := req.CaseID + ":" + string(req.Kind)
	v, err, _ := o.group.Do(key, func() (interface{}, error) {
		return o.execute(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.InferenceResult), nil
}

func (o *Orchestrator) execute(ctx context.Context, req models.InferenceRequest) (*models.InferenceResult, error) {
	if o.deps.Cache != nil {
		if cached, ok := o.deps.Cache.Get(req.CaseID, req.Kind); ok {
			return cached, nil
		}
	}

	c, err := o.deps.Cases.Get(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}

	var excerpts []models.DocumentChunk
	if req.Kind == models.OpCompliance && req.UseDocuments && o.deps.Retriever != nil {
		excerpts = o.deps.Retriever.Retrieve(retrievalQuery(c), o.deps.TopK)
	}

	promptText := o.deps.Prompts.Build(c, req.Kind, excerpts)

	estTokens := o.deps.Client.EstimatePromptTokens(promptText)
	reservation, granted := o.deps.Tracker.TryReserve(o.deps.Tracker.CostForTokens(estTokens))
	if !granted {
		log.Printf("budget denied %s for case %s, falling back", req.Kind, req.CaseID)
		return o.finish(ctx, fallbackResult(c, req.Kind, models.FallbackBudget)), nil
	}

	gen, err := o.deps.Client.Invoke(ctx, promptText)
	if err != nil {
		reservation.Release()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return o.finish(ctx, fallbackResult(c, req.Kind, reasonFor(err))), nil
	}

	result, err := inference.ParseResult(req.Kind, gen.Text)
	if err != nil {
		reservation.Release()
		log.Printf("unusable model output for case %s (%s): %v", req.CaseID, req.Kind, err)
		return o.finish(ctx, fallbackResult(c, req.Kind, models.FallbackMalformed)), nil
	}

	actualCost := o.deps.Tracker.CostForTokens(gen.Tokens)
	reservation.Commit(actualCost)

	result.CaseID = req.CaseID
	result.ModelUsed = o.deps.Client.Model()
	result.TokensConsumed = gen.Tokens
	result.CostUSD = actualCost
	result.GenerationTime = gen.Elapsed
	result.CreatedAt = time.Now().UTC()
	result.Origin = models.OriginModel
	if result.Explanation != nil && result.Explanation.Confidence == 0 {
		result.Explanation.Confidence = estimateConfidence(c.RiskScore, len(result.Explanation.Rationale))
	}

	return o.finish(ctx, result), nil
}

// finish records, caches, and persists a result. All three are best
// effort; the caller still gets the result if any of them fail.
func (o *Orchestrator) finish(ctx context.Context, result *models.InferenceResult) *models.InferenceResult {
	if o.deps.Ledger != nil {
		rec := models.UsageRecord{
			CaseID:    result.CaseID,
			Operation: result.Kind,
			Model:     result.ModelUsed,
			Tokens:    result.TokensConsumed,
			CostUSD:   result.CostUSD,
			Origin:    result.Origin,
			LatencyMs: result.GenerationTime.Milliseconds(),
			CreatedAt: result.CreatedAt,
		}
		if err := o.deps.Ledger.Record(ctx, rec); err != nil {
			log.Printf("usage record error: %v", err)
		}
	}

	if o.deps.Cache != nil {
		if err := o.deps.Cache.Put(result); err != nil {
			log.Printf("cache put error: %v", err)
		}
	}

	if o.deps.Sink != nil {
		if err := o.deps.Sink.StoreResult(ctx, result); err != nil {
			log.Printf("result persistence error: %v", err)
		}
	}

	return result
}

// reasonFor maps an inference error to a fallback reason.
func reasonFor(err error) models.FallbackReason {
	if errors.Is(err, inference.ErrMalformedResponse) {
		return models.FallbackMalformed
	}
	return models.FallbackUnavailable
}

// retrievalQuery derives the document query from case facts.
func retrievalQuery(c *models.Case) string {
	return fmt.Sprintf("AML compliance sanctions due diligence %s transaction %.2f USD %s risk",
		c.Country, c.Amount, models.LevelForScore(c.RiskScore))
}
