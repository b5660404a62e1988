// Package docstore ingests regulatory documents, splits them into
// overlapping chunks, and answers lexical retrieval queries for
// retrieval-augmented compliance prompts.
package docstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riskline-ai/riskline/pkg/models"
)

// ErrUnsupportedType is returned for uploads outside the accepted format set.
var ErrUnsupportedType = errors.New("unsupported document type")

// ErrNotFound is returned when a document id is unknown.
var ErrNotFound = errors.New("document not found")

// acceptedExtensions is the closed set of upload formats.
var acceptedExtensions = map[string]string{
	".txt": "TXT",
	".md":  "MD",
}

// Store holds uploaded documents and their chunks in memory. The index
// is mutated only by Ingest and Delete; Retrieve holds the read lock so
// it never observes a half-updated index.
type Store struct {
	mu           sync.RWMutex
	documents    map[string]models.DocumentMeta
	chunksByDoc  map[string][]models.DocumentChunk
	chunkWords   int
	chunkOverlap int
}

// New creates a Store with the given chunking parameters.
func New(chunkWords, chunkOverlap int) *Store {
	if chunkWords <= 0 {
		chunkWords = 400
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkWords {
		chunkOverlap = 0
	}
	return &Store{
		documents:    make(map[string]models.DocumentMeta),
		chunksByDoc:  make(map[string][]models.DocumentChunk),
		chunkWords:   chunkWords,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest stores a document, chunks its text, and indexes the chunks.
// The document is "processed" once all chunks exist; both appear
// atomically to readers.
func (s *Store) Ingest(data []byte, filename string) (models.DocumentMeta, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	fileType, ok := acceptedExtensions[ext]
	if !ok {
		return models.DocumentMeta{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	docID := uuid.NewString()
	now := time.Now().UTC()
	chunks := s.chunk(docID, filename, string(data), now)

	meta := models.DocumentMeta{
		ID:         docID,
		Filename:   filename,
		FileType:   fileType,
		SizeBytes:  int64(len(data)),
		UploadedAt: now,
		Processed:  true,
		ChunkCount: len(chunks),
	}

	s.mu.Lock()
	s.documents[docID] = meta
	s.chunksByDoc[docID] = chunks
	s.mu.Unlock()

	return meta, nil
}

// chunk splits text into overlapping word windows.
func (s *Store) chunk(docID, filename, text string, now time.Time) []models.DocumentChunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := s.chunkWords - s.chunkOverlap
	var chunks []models.DocumentChunk
	for start, ordinal := 0, 0; start < len(words); start, ordinal = start+step, ordinal+1 {
		end := start + s.chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: docID,
			Filename:   filename,
			Ordinal:    ordinal,
			Text:       strings.Join(words[start:end], " "),
			CreatedAt:  now,
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Delete removes a document and all its chunks.
func (s *Store) Delete(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[docID]; !ok {
		return ErrNotFound
	}
	delete(s.documents, docID)
	delete(s.chunksByDoc, docID)
	return nil
}

// Get returns a document's metadata.
func (s *Store) Get(docID string) (models.DocumentMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.documents[docID]
	if !ok {
		return models.DocumentMeta{}, ErrNotFound
	}
	return meta, nil
}

// List returns all documents ordered by upload time, newest first.
func (s *Store) List() []models.DocumentMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]models.DocumentMeta, 0, len(s.documents))
	for _, meta := range s.documents {
		docs = append(docs, meta)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// scoredChunk pairs a chunk with its lexical overlap score.
type scoredChunk struct {
	chunk models.DocumentChunk
	score int
}

// Retrieve returns the top-k chunks with the highest keyword overlap
// against the query. Ties break on (document id, ordinal) so results
// are deterministic.
func (s *Store) Retrieve(query string, k int) []models.DocumentChunk {
	if k <= 0 {
		return nil
	}
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []scoredChunk
	for _, chunks := range s.chunksByDoc {
		for _, c := range chunks {
			overlap := sharedKeywords(queryTokens, tokenize(c.Text))
			if overlap > 0 {
				scored = append(scored, scoredChunk{chunk: c, score: overlap})
			}
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].chunk.DocumentID != scored[j].chunk.DocumentID {
			return scored[i].chunk.DocumentID < scored[j].chunk.DocumentID
		}
		return scored[i].chunk.Ordinal < scored[j].chunk.Ordinal
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]models.DocumentChunk, len(scored))
	for i, sc := range scored {
		out[i] = sc.chunk
	}
	return out
}
