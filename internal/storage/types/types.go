package types

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"github.com/facetbase/facetd/pkg/model"
)

// Document is the stored representation of a document.
type Document struct {
	// Id is the storage key, 128-bit BLAKE3 of "<collection>/<docID>", hex
	Id string `json:"id" bson:"_id"`

	// DocID is the user-facing document identifier
	DocID string `json:"doc_id" bson:"doc_id"`

	// Collection is the collection name
	Collection string `json:"collection" bson:"collection"`

	// Data is the actual content of the document
	Data map[string]interface{} `json:"data" bson:"data"`

	// UpdatedAt is the timestamp of the last update (Unix milliseconds)
	UpdatedAt int64 `json:"updated_at" bson:"updated_at"`

	// CreatedAt is the timestamp of the creation (Unix milliseconds)
	CreatedAt int64 `json:"created_at" bson:"created_at"`

	// Version is the optimistic concurrency control version
	Version int64 `json:"version" bson:"version"`
}

// Backend defines the interface for storage operations. Queries refer to
// user-facing field names; backends translate them to their own layout.
type Backend interface {
	// Get retrieves a document by collection and user-facing ID
	Get(ctx context.Context, collection, docID string) (*Document, error)

	// Put inserts or replaces a document, bumping its version
	Put(ctx context.Context, doc *Document) error

	// Delete removes a document
	Delete(ctx context.Context, collection, docID string) error

	// Query executes a query and returns the matching documents
	Query(ctx context.Context, q model.Query) ([]*Document, error)

	// Count returns the number of documents matching the query
	Count(ctx context.Context, q model.Query) (int64, error)

	// ValueCounts returns the distinct values of field among the documents
	// matching q, with usage counts, ordered by value
	ValueCounts(ctx context.Context, q model.Query, field string) ([]model.ValueCount, error)

	// Close closes the connection to the backend
	Close(ctx context.Context) error
}

// CalculateID calculates the storage key from collection and document ID.
func CalculateID(collection, docID string) string {
	hash := blake3.Sum256([]byte(collection + "/" + docID))
	return hex.EncodeToString(hash[:16])
}

// NewDocument creates a new document instance with initialized metadata.
func NewDocument(collection, docID string, data map[string]interface{}) *Document {
	now := time.Now().UnixMilli()
	return &Document{
		Id:         CalculateID(collection, docID),
		DocID:      docID,
		Collection: collection,
		Data:       data,
		UpdatedAt:  now,
		CreatedAt:  now,
		Version:    1,
	}
}

// Flatten converts a stored document to the user-facing flat form.
func Flatten(d *Document) model.Document {
	flat := make(model.Document, len(d.Data)+5)
	for k, v := range d.Data {
		flat[k] = v
	}
	flat["id"] = d.DocID
	flat["collection"] = d.Collection
	flat["version"] = d.Version
	flat["updatedAt"] = d.UpdatedAt
	flat["createdAt"] = d.CreatedAt
	return flat
}
