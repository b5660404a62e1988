package models

import "time"

// DocumentMeta describes an uploaded regulatory document.
type DocumentMeta struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
	Processed  bool      `json:"processed"`
	ChunkCount int       `json:"chunk_count"`
}

// DocumentChunk is an immutable text span extracted from a document at
// ingestion time. Chunks live and die with their parent document.
type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
