// Package prompt renders cases into deterministic text prompts for the
// generation service. Building is pure: no I/O, no clock, byte-identical
// output for identical input.
package prompt

import (
	"fmt"
	"strings"

	"github.com/riskline-ai/riskline/pkg/models"
)

const systemRole = `You are a financial risk assessment expert specializing in anti-money laundering (AML) and fraud detection.
Your role is to analyze banking transactions and provide clear, actionable findings for compliance officers.

Guidelines:
- Be concise but thorough
- Focus on risk factors: amount, country, account history, patterns
- Provide specific, actionable recommendations
- Respond with a single JSON object and nothing else`

const truncationMarker = "\n[excerpt truncated]"

// Builder renders prompts with a bounded excerpt budget.
type Builder struct {
	maxExcerptChars int
}

// New creates a Builder. maxExcerptChars bounds the total size of
// retrieved excerpts embedded in compliance prompts.
func New(maxExcerptChars int) *Builder {
	return &Builder{maxExcerptChars: maxExcerptChars}
}

// Build renders the prompt for an operation. Excerpts are only used for
// compliance prompts and are ignored otherwise.
func (b *Builder) Build(c *models.Case, kind models.OperationKind, excerpts []models.DocumentChunk) string {
	var sb strings.Builder
	sb.WriteString(systemRole)
	sb.WriteString("\n\n")

	switch kind {
	case models.OpExplain:
		b.writeExplain(&sb, c)
	case models.OpScore:
		b.writeScore(&sb, c)
	case models.OpCompliance:
		b.writeCompliance(&sb, c, excerpts)
	}

	return sb.String()
}

func writeFacts(sb *strings.Builder, c *models.Case) {
	level := models.LevelForScore(c.RiskScore)
	fmt.Fprintf(sb, "Customer: %s\n", c.CustomerName)
	fmt.Fprintf(sb, "Amount: $%.2f USD\n", c.Amount)
	fmt.Fprintf(sb, "Country: %s\n", c.Country)
	fmt.Fprintf(sb, "Preliminary Risk Score: %.2f (%s RISK)\n", c.RiskScore, level)
	fmt.Fprintf(sb, "Account Age: %d days\n", c.AccountAgeDays)
	fmt.Fprintf(sb, "Transactions (30 days): %d\n", c.TxCount30d)
}

func (b *Builder) writeExplain(sb *strings.Builder, c *models.Case) {
	sb.WriteString("Analyze this banking transaction for risk:\n\n")
	writeFacts(sb, c)
	sb.WriteString(`
Explain why this transaction received its preliminary risk score, name the key risk factors, and recommend an action (approve, review, or escalate).

Respond with EXACTLY this JSON structure:
{"rationale": "<2-3 sentence explanation>", "recommended_action": "<specific action>", "confidence": <number between 0.0 and 1.0>}`)
}

func (b *Builder) writeScore(sb *strings.Builder, c *models.Case) {
	sb.WriteString("Analyze this banking transaction and calculate a risk score:\n\n")
	writeFacts(sb, c)
	sb.WriteString(`
Calculate a risk score between 0.0 (no risk) and 1.0 (very high risk) considering the transaction amount, country risk profile, account history, and AML/fraud indicators.

Respond with EXACTLY this JSON structure:
{"risk_score": <number between 0.0 and 1.0>, "risk_level": "<LOW|MEDIUM|HIGH>", "reasoning": "<2-3 sentence explanation>"}`)
}

func (b *Builder) writeCompliance(sb *strings.Builder, c *models.Case, excerpts []models.DocumentChunk) {
	sb.WriteString("Assess this banking transaction against the regulatory excerpts below:\n\n")
	writeFacts(sb, c)

	if len(excerpts) > 0 {
		sb.WriteString("\nRegulatory excerpts:\n")
		sb.WriteString(b.renderExcerpts(excerpts))
	}

	sb.WriteString(`
Determine whether the transaction is compliant. Cite the excerpt sources you relied on.

Respond with EXACTLY this JSON structure:
{"status": "<COMPLIANT|NON_COMPLIANT|REVIEW_REQUIRED>", "violations": ["<violation>"], "citations": ["<source: cited text>"], "recommendation": "<specific action>", "confidence": <number between 0.0 and 1.0>}`)
}

// renderExcerpts formats retrieved chunks, truncating once the total
// rendered size reaches the configured character budget.
func (b *Builder) renderExcerpts(excerpts []models.DocumentChunk) string {
	var sb strings.Builder
	for i, ex := range excerpts {
		entry := fmt.Sprintf("[%d] %s: %s\n", i+1, ex.Filename, ex.Text)
		if b.maxExcerptChars > 0 && sb.Len()+len(entry) > b.maxExcerptChars {
			room := b.maxExcerptChars - sb.Len()
			if room > 0 {
				sb.WriteString(entry[:room])
			}
			sb.WriteString(truncationMarker)
			sb.WriteString("\n")
			break
		}
		sb.WriteString(entry)
	}
	return sb.String()
}
