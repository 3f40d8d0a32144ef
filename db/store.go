// Package db provides the document-store boundary for the journal service.
//
// All persistent state lives in one document database partitioned into
// logical collections (people, manuscripts, texts, comments). The Store
// interface exposes insert/find/update/delete by filter; CouchStore backs it
// with CouchDB through the Kivik driver, and MemoryStore backs it in memory
// for tests.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names used by the journal service.
const (
	PeopleCollection      = "people"
	ManuscriptsCollection = "manuscripts"
	TextsCollection       = "texts"
	CommentsCollection    = "comments"
)

// ErrNotFound is returned by FindOne and Replace when no document matches.
var ErrNotFound = errors.New("document not found")

// Filter selects documents by top-level field equality.
type Filter map[string]interface{}

// Store is the document-store interface. Implementations guarantee that
// Insert and Replace are each a single atomic document write; the service
// relies on no other storage primitive.
type Store interface {
	// Insert adds a new document to a collection.
	Insert(ctx context.Context, collection string, doc interface{}) error

	// FindOne returns the first document matching the filter,
	// or ErrNotFound.
	FindOne(ctx context.Context, collection string, filter Filter) (json.RawMessage, error)

	// Find returns all documents matching the filter. A nil or empty
	// filter matches the whole collection.
	Find(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error)

	// Update sets the given fields on every document matching the filter
	// and returns the number of documents updated.
	Update(ctx context.Context, collection string, filter Filter, fields map[string]interface{}) (int, error)

	// Replace overwrites the single document matching the filter with doc
	// in one atomic write. Returns ErrNotFound if nothing matches.
	Replace(ctx context.Context, collection string, filter Filter, doc interface{}) error

	// Delete removes all documents matching the filter and returns the
	// number deleted.
	Delete(ctx context.Context, collection string, filter Filter) (int, error)

	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, collection string, filter Filter) (int, error)

	// Close releases the underlying connection.
	Close() error
}

// FindOneTyped finds a single document and decodes it into T.
func FindOneTyped[T any](ctx context.Context, s Store, collection string, filter Filter) (*T, error) {
	raw, err := s.FindOne(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// FindTyped finds all matching documents and decodes them into a slice of T.
func FindTyped[T any](ctx context.Context, s Store, collection string, filter Filter) ([]T, error) {
	raws, err := s.Find(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]T, 0, len(raws))
	for _, raw := range raws {
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// toMap marshals a document into a generic map for field manipulation.
func toMap(doc interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return m, nil
}
