package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store in memory for tests. It honors the same
// contract as CouchStore: filters match on top-level field equality and
// Replace is atomic under the store mutex.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]interface{} // collection -> _id -> doc
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]map[string]interface{}),
	}
}

// matches reports whether doc satisfies every equality in filter.
// Values are compared through their JSON representation, mirroring how the
// CouchDB selector compares them server-side.
func matches(doc map[string]interface{}, filter Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			return false
		}
		wantJSON, err := json.Marshal(want)
		if err != nil {
			return false
		}
		gotJSON, err := json.Marshal(got)
		if err != nil {
			return false
		}
		if string(wantJSON) != string(gotJSON) {
			return false
		}
	}
	return true
}

// Insert adds a document with a generated _id.
func (m *MemoryStore) Insert(ctx context.Context, collection string, doc interface{}) error {
	dm, err := toMap(doc)
	if err != nil {
		return err
	}
	delete(dm, "_rev")
	dm["_id"] = uuid.NewString()
	dm[collectionField] = collection

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]map[string]interface{})
	}
	m.data[collection][dm["_id"].(string)] = dm
	return nil
}

// FindOne returns the first matching document or ErrNotFound.
func (m *MemoryStore) FindOne(ctx context.Context, collection string, filter Filter) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.data[collection] {
		if matches(doc, filter) {
			raw, err := json.Marshal(doc)
			if err != nil {
				return nil, fmt.Errorf("failed to encode document: %w", err)
			}
			return raw, nil
		}
	}
	return nil, ErrNotFound
}

// Find returns all matching documents.
func (m *MemoryStore) Find(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []json.RawMessage
	for _, doc := range m.data[collection] {
		if matches(doc, filter) {
			raw, err := json.Marshal(doc)
			if err != nil {
				return nil, fmt.Errorf("failed to encode document: %w", err)
			}
			results = append(results, raw)
		}
	}
	return results, nil
}

// Update merges fields into every matching document.
func (m *MemoryStore) Update(ctx context.Context, collection string, filter Filter, fields map[string]interface{}) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, doc := range m.data[collection] {
		if matches(doc, filter) {
			// Round-trip fields through JSON so stored values look the
			// same as they would coming back from CouchDB.
			fm, err := toMap(fields)
			if err != nil {
				return count, err
			}
			for k, v := range fm {
				doc[k] = v
			}
			count++
		}
	}
	return count, nil
}

// Replace overwrites the single matching document.
func (m *MemoryStore) Replace(ctx context.Context, collection string, filter Filter, doc interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.data[collection] {
		if matches(existing, filter) {
			dm, err := toMap(doc)
			if err != nil {
				return err
			}
			dm["_id"] = id
			dm[collectionField] = collection
			m.data[collection][id] = dm
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes every matching document.
func (m *MemoryStore) Delete(ctx context.Context, collection string, filter Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, doc := range m.data[collection] {
		if matches(doc, filter) {
			delete(m.data[collection], id)
			count++
		}
	}
	return count, nil
}

// Count returns the number of matching documents.
func (m *MemoryStore) Count(ctx context.Context, collection string, filter Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, doc := range m.data[collection] {
		if matches(doc, filter) {
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
