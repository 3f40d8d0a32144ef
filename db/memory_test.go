package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	DocID string   `json:"_id,omitempty"`
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
}

func TestMemoryStore_InsertAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "a", Name: "first"}))
	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "b", Name: "second"}))

	t.Run("find one", func(t *testing.T) {
		doc, err := FindOneTyped[testDoc](ctx, s, "docs", Filter{"id": "a"})
		require.NoError(t, err)
		assert.Equal(t, "first", doc.Name)
		assert.NotEmpty(t, doc.DocID, "insert assigns _id")
	})

	t.Run("find all", func(t *testing.T) {
		docs, err := FindTyped[testDoc](ctx, s, "docs", nil)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := FindOneTyped[testDoc](ctx, s, "docs", Filter{"id": "zzz"})
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		docs, err := FindTyped[testDoc](ctx, s, "other", nil)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "a", Name: "old"}))

	n, err := s.Update(ctx, "docs", Filter{"id": "a"},
		map[string]interface{}{"name": "new"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc, err := FindOneTyped[testDoc](ctx, s, "docs", Filter{"id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Name)

	t.Run("no match updates nothing", func(t *testing.T) {
		n, err := s.Update(ctx, "docs", Filter{"id": "zzz"},
			map[string]interface{}{"name": "x"})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestMemoryStore_Replace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "a", Name: "old", Tags: []string{"x"}}))

	err := s.Replace(ctx, "docs", Filter{"id": "a"},
		&testDoc{ID: "a", Name: "new"})
	require.NoError(t, err)

	doc, err := FindOneTyped[testDoc](ctx, s, "docs", Filter{"id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Name)
	assert.Empty(t, doc.Tags, "replace overwrites the whole document")

	t.Run("no match fails", func(t *testing.T) {
		err := s.Replace(ctx, "docs", Filter{"id": "zzz"}, &testDoc{ID: "zzz"})
		assert.Equal(t, ErrNotFound, err)
	})
}

func TestMemoryStore_DeleteAndCount(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "a", Name: "x"}))
	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "b", Name: "x"}))
	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "c", Name: "y"}))

	n, err := s.Count(ctx, "docs", Filter{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	deleted, err := s.Delete(ctx, "docs", Filter{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	n, err = s.Count(ctx, "docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_FilterComparesJSON(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "docs", &testDoc{ID: "a", Tags: []string{"x", "y"}}))

	// slice values compare by JSON representation, like Mango selectors
	doc, err := FindOneTyped[testDoc](ctx, s, "docs", Filter{"tags": []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "a", doc.ID)

	_, err = FindOneTyped[testDoc](ctx, s, "docs", Filter{"tags": []string{"y", "x"}})
	assert.Equal(t, ErrNotFound, err)
}
