package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal.evalgo.org/common"
	"journal.evalgo.org/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(db.NewMemoryStore(), nil)
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	page, err := s.Create(ctx, "m1", "1", "Title", "Body")
	require.NoError(t, err)
	assert.Equal(t, "m1", page.ManuscriptID)
	assert.Equal(t, "1", page.PageNumber)

	t.Run("duplicate page conflicts", func(t *testing.T) {
		_, err := s.Create(ctx, "m1", "1", "Other", "Other")
		assert.True(t, common.IsKind(err, common.KindConflict))
	})

	t.Run("same page on another manuscript is fine", func(t *testing.T) {
		_, err := s.Create(ctx, "m2", "1", "Title", "Body")
		assert.NoError(t, err)
	})

	t.Run("blank fields rejected", func(t *testing.T) {
		_, err := s.Create(ctx, "m1", "2", "", "Body")
		assert.True(t, common.IsKind(err, common.KindInvalidArgument))
		_, err = s.Create(ctx, "m1", "2", "Title", " ")
		assert.True(t, common.IsKind(err, common.KindInvalidArgument))
	})
}

// TestReadByManuscript_Order checks the lexicographic page ordering.
func TestReadByManuscript_Order(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"2", "10", "1"} {
		_, err := s.Create(ctx, "m1", p, "Title "+p, "Body")
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, "m2", "0", "Other", "Body")
	require.NoError(t, err)

	pages, err := s.ReadByManuscript(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, pages, 3)

	// page numbers are strings; order is lexicographic
	assert.Equal(t, "1", pages[0].PageNumber)
	assert.Equal(t, "10", pages[1].PageNumber)
	assert.Equal(t, "2", pages[2].PageNumber)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, "m1", "1", "Title", "Body")
	require.NoError(t, err)

	page, err := s.Update(ctx, "m1", "1", "New Title", "New Body")
	require.NoError(t, err)
	assert.Equal(t, "New Title", page.Title)
	assert.Equal(t, "New Body", page.Text)

	t.Run("missing page", func(t *testing.T) {
		_, err := s.Update(ctx, "m1", "99", "T", "B")
		assert.True(t, common.IsKind(err, common.KindNotFound))
	})
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, "m1", "1", "Title", "Body")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "m1", "1"))
	err = s.Delete(ctx, "m1", "1")
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestDeleteByManuscript(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"1", "2", "3"} {
		_, err := s.Create(ctx, "m1", p, "Title", "Body")
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, "m2", "1", "Keep", "Body")
	require.NoError(t, err)

	n, err := s.DeleteByManuscript(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pages, err := s.ReadByManuscript(ctx, "m2")
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
