package db

import (
	"context"
	"encoding/json"
	"fmt"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // The CouchDB driver
)

// collectionField is the discriminator field that partitions the single
// CouchDB database into logical collections.
const collectionField = "collection"

// CouchConfig contains CouchDB connection details.
type CouchConfig struct {
	// URL is the complete connection URL including authentication.
	URL string

	// Database is the target database name.
	Database string

	// CreateIfMissing creates the database if it does not exist.
	CreateIfMissing bool
}

// CouchStore implements Store on CouchDB via the Kivik driver.
//
// Each document carries a "collection" field; filters are translated to
// Mango selectors combined with the collection discriminator. CouchDB's MVCC
// revision handling makes Replace a single conditional Put, which is the
// only atomicity primitive the service relies on.
type CouchStore struct {
	client   *kivik.Client
	database *kivik.DB
	dbName   string
}

// NewCouchStore connects to CouchDB and prepares the database.
func NewCouchStore(cfg CouchConfig) (*CouchStore, error) {
	client, err := kivik.New("couch", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	ctx := context.Background()

	exists, err := client.DBExists(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		if !cfg.CreateIfMissing {
			return nil, fmt.Errorf("database %s does not exist", cfg.Database)
		}
		if err := client.CreateDB(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &CouchStore{
		client:   client,
		database: client.DB(cfg.Database),
		dbName:   cfg.Database,
	}, nil
}

// Insert adds a new document with a CouchDB-generated _id.
func (c *CouchStore) Insert(ctx context.Context, collection string, doc interface{}) error {
	m, err := toMap(doc)
	if err != nil {
		return err
	}
	m[collectionField] = collection
	delete(m, "_id")
	delete(m, "_rev")

	if _, _, err := c.database.CreateDoc(ctx, m); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// selector builds the Mango selector for a collection-scoped filter.
func selector(collection string, filter Filter) map[string]interface{} {
	sel := map[string]interface{}{collectionField: collection}
	for k, v := range filter {
		sel[k] = v
	}
	return sel
}

// FindOne returns the first matching document or ErrNotFound.
func (c *CouchStore) FindOne(ctx context.Context, collection string, filter Filter) (json.RawMessage, error) {
	rows := c.database.Find(ctx, selector(collection, filter), kivik.Param("limit", 1))
	defer rows.Close()

	if rows.Next() {
		var doc json.RawMessage
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		return doc, nil
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error executing find query: %w", err)
	}
	return nil, ErrNotFound
}

// Find returns all documents matching the filter as raw JSON.
func (c *CouchStore) Find(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error) {
	rows := c.database.Find(ctx, selector(collection, filter))
	defer rows.Close()

	var results []json.RawMessage
	for rows.Next() {
		var doc json.RawMessage
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error executing find query: %w", err)
	}
	return results, nil
}

// Update merges the given fields into every matching document.
func (c *CouchStore) Update(ctx context.Context, collection string, filter Filter, fields map[string]interface{}) (int, error) {
	raws, err := c.Find(ctx, collection, filter)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, raw := range raws {
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			return count, fmt.Errorf("failed to decode document: %w", err)
		}
		for k, v := range fields {
			m[k] = v
		}
		id, _ := m["_id"].(string)
		if _, err := c.database.Put(ctx, id, m); err != nil {
			return count, fmt.Errorf("failed to update document: %w", err)
		}
		count++
	}
	return count, nil
}

// Replace overwrites the single matching document in one Put, preserving its
// _id, _rev, and collection discriminator.
func (c *CouchStore) Replace(ctx context.Context, collection string, filter Filter, doc interface{}) error {
	raw, err := c.FindOne(ctx, collection, filter)
	if err != nil {
		return err
	}

	var existing map[string]interface{}
	if err := json.Unmarshal(raw, &existing); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	m, err := toMap(doc)
	if err != nil {
		return err
	}
	m["_id"] = existing["_id"]
	m["_rev"] = existing["_rev"]
	m[collectionField] = collection

	id, _ := m["_id"].(string)
	if _, err := c.database.Put(ctx, id, m); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

// Delete removes every matching document and returns the count.
func (c *CouchStore) Delete(ctx context.Context, collection string, filter Filter) (int, error) {
	raws, err := c.Find(ctx, collection, filter)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, raw := range raws {
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			return count, fmt.Errorf("failed to decode document: %w", err)
		}
		id, _ := m["_id"].(string)
		rev, _ := m["_rev"].(string)
		if _, err := c.database.Delete(ctx, id, rev); err != nil {
			return count, fmt.Errorf("failed to delete document: %w", err)
		}
		count++
	}
	return count, nil
}

// Count returns the number of documents matching the filter.
func (c *CouchStore) Count(ctx context.Context, collection string, filter Filter) (int, error) {
	rows := c.database.Find(ctx, selector(collection, filter), kivik.Param("fields", []string{"_id"}))
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error counting documents: %w", err)
	}
	return count, nil
}

// Close closes the CouchDB client connection.
func (c *CouchStore) Close() error {
	return c.client.Close()
}
