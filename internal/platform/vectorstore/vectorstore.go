// Package vectorstore persists (vector, text, metadata) records in an
// external similarity-search service and retrieves nearest neighbours,
// optionally narrowed by metadata-equality filters.
package vectorstore

import (
	"context"
)

// Metadata keys written by the ingestion pipeline. Retrieval filters match
// on MetaPatientID and MetaFileID.
const (
	MetaFileID    = "file_id"
	MetaPatientID = "patient_id"
	MetaSource    = "source"
	MetaUploaded  = "upload_timestamp"
	MetaType      = "type"
)

// Record is one stored document chunk. Records are write-once; nothing in
// this service updates or deletes them.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
	Vector   []float32
}

// Match is a retrieved record with its similarity score.
type Match struct {
	Record Record
	Score  float32
}

// Filter is a metadata-equality constraint applied during search.
type Filter struct {
	Key   string
	Value string
}

// Store is the contract for vector storage backends.
type Store interface {
	// EnsureCollection creates the backing collection for vectors of the
	// given dimensionality if it does not exist yet.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes records with pre-computed embeddings.
	Upsert(ctx context.Context, records []Record) error

	// Search returns the topK nearest records to the query vector,
	// restricted to records whose metadata matches every filter.
	Search(ctx context.Context, vector []float32, topK int, filters ...Filter) ([]Match, error)
}
