package docstore

import (
	"errors"
	"strings"
	"testing"
)

const amlPolicy = `Anti-Money Laundering Policy. Transactions exceeding $10,000 USD require
enhanced due diligence. High-risk jurisdictions include countries with weak regulatory
frameworks or known financial crime exposure. Suspicious activity must be reported to the
Financial Intelligence Unit within 24 hours.`

const kycGuidelines = `Know Your Customer requirements. Before establishing a business
relationship, institutions verify full legal name, date of birth, residential address,
and source of funds. Politically exposed persons require enhanced screening.`

func TestIngestAcceptsTextFormats(t *testing.T) {
	s := New(400, 40)

	meta, err := s.Ingest([]byte(amlPolicy), "aml_policy.md")
	if err != nil {
		t.Fatal(err)
	}
	if !meta.Processed {
		t.Error("expected document marked processed")
	}
	if meta.ChunkCount == 0 {
		t.Error("expected at least one chunk")
	}
	if meta.FileType != "MD" {
		t.Errorf("expected MD file type, got %s", meta.FileType)
	}
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	s := New(400, 40)

	_, err := s.Ingest([]byte{0x4d, 0x5a}, "malware.exe")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if s.Count() != 0 {
		t.Error("rejected upload must not change document count")
	}
	if got := s.Retrieve("malware", 3); len(got) != 0 {
		t.Error("rejected upload must not create chunks")
	}
}

func TestChunkingOverlaps(t *testing.T) {
	s := New(10, 2)

	words := make([]string, 25)
	for i := range words {
		words[i] = "w" + string(rune('a'+i))
	}
	meta, err := s.Ingest([]byte(strings.Join(words, " ")), "doc.txt")
	if err != nil {
		t.Fatal(err)
	}

	// 25 words, window 10, step 8: chunks start at 0, 8, 16.
	if meta.ChunkCount != 3 {
		t.Errorf("expected 3 chunks, got %d", meta.ChunkCount)
	}
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	s := New(400, 40)
	if _, err := s.Ingest([]byte(amlPolicy), "aml_policy.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Ingest([]byte(kycGuidelines), "kyc_guidelines.md"); err != nil {
		t.Fatal(err)
	}

	got := s.Retrieve("suspicious transactions high-risk jurisdictions due diligence", 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0].Filename != "aml_policy.md" {
		t.Errorf("expected the AML chunk to rank first, got %s", got[0].Filename)
	}

	if got := s.Retrieve("zzzz qqqq", 3); len(got) != 0 {
		t.Errorf("expected no results for unrelated query, got %d", len(got))
	}
}

func TestDeleteRemovesChunksFromRetrieval(t *testing.T) {
	s := New(400, 40)
	meta, err := s.Ingest([]byte(kycGuidelines), "kyc_guidelines.md")
	if err != nil {
		t.Fatal(err)
	}

	if got := s.Retrieve("politically exposed persons screening", 3); len(got) == 0 {
		t.Fatal("expected retrieval hit before delete")
	}

	if err := s.Delete(meta.ID); err != nil {
		t.Fatal(err)
	}

	if got := s.Retrieve("politically exposed persons screening", 3); len(got) != 0 {
		t.Error("deleted document must not influence retrieval")
	}
	if _, err := s.Get(meta.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	s := New(400, 40)
	if err := s.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenizeFiltersStopwords(t *testing.T) {
	tokens := tokenize("The transaction was reported to the Financial Intelligence Unit")
	for _, tok := range tokens {
		if stopwords[tok] {
			t.Errorf("stopword %q leaked into tokens", tok)
		}
	}
	joined := strings.Join(tokens, " ")
	if !strings.Contains(joined, "transaction") || !strings.Contains(joined, "financial") {
		t.Errorf("expected content words, got %v", tokens)
	}
}
