package manuscripts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal.evalgo.org/common"
	"journal.evalgo.org/db"
	"journal.evalgo.org/text"
)

func newTestStore(t *testing.T) (*Store, *text.Store) {
	t.Helper()
	mem := db.NewMemoryStore()
	texts := text.NewStore(mem, nil)
	return NewStore(mem, texts, nil), texts
}

func submit(t *testing.T, s *Store) *Manuscript {
	t.Helper()
	m, err := s.Create(context.Background(), CreateRequest{
		Title:       "T",
		Author:      "A",
		AuthorEmail: "author@example.com",
		Abstract:    "An abstract",
		Text:        "The manuscript body",
	})
	require.NoError(t, err)
	return m
}

// TestCreate checks the initial shape of a submission and the auto-created
// first text page.
func TestCreate(t *testing.T) {
	s, texts := newTestStore(t)
	ctx := context.Background()

	m := submit(t, s)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, Submitted, m.State)
	assert.Equal(t, []State{Submitted}, m.History)
	assert.Empty(t, m.Referees)

	got, err := s.ReadOne(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "A", got.Author)
	assert.Equal(t, "author@example.com", got.AuthorEmail)

	page, err := texts.ReadOne(ctx, m.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, "The manuscript body", page.Text)
	assert.Equal(t, "T", page.Title)
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"blank title", CreateRequest{Author: "A", AuthorEmail: "a@b.com", Abstract: "x", Text: "y"}},
		{"blank abstract", CreateRequest{Title: "T", Author: "A", AuthorEmail: "a@b.com", Text: "y"}},
		{"blank text", CreateRequest{Title: "T", Author: "A", AuthorEmail: "a@b.com", Abstract: "x"}},
		{"whitespace title", CreateRequest{Title: "   ", Author: "A", AuthorEmail: "a@b.com", Abstract: "x", Text: "y"}},
		{"whitespace author", CreateRequest{Title: "T", Author: "   ", AuthorEmail: "a@b.com", Abstract: "x", Text: "y"}},
		{"whitespace abstract", CreateRequest{Title: "T", Author: "A", AuthorEmail: "a@b.com", Abstract: " \t ", Text: "y"}},
		{"whitespace text", CreateRequest{Title: "T", Author: "A", AuthorEmail: "a@b.com", Abstract: "x", Text: "\n"}},
		{"bad email", CreateRequest{Title: "T", Author: "A", AuthorEmail: "not-an-email", Abstract: "x", Text: "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.req)
			assert.True(t, common.IsKind(err, common.KindInvalidArgument))
		})
	}
}

// TestCreate_FailureLeavesNothing checks that a rejected submission
// persists neither a manuscript nor a text page.
func TestCreate_FailureLeavesNothing(t *testing.T) {
	s, texts := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateRequest{
		Title: "   ", Author: "A", AuthorEmail: "a@b.com",
		Abstract: "x", Text: "y",
	})
	require.Error(t, err)

	all, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	pages, err := texts.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

// TestUpdateState_HappyPathPublication walks a manuscript from submission
// to publication and checks the accumulated history.
func TestUpdateState_HappyPathPublication(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	steps := []struct {
		action  Action
		referee string
		want    State
	}{
		{AssignReferee, "r1", InRefereeReview},
		{Accept, "", CopyEdit},
		{Done, "", AuthorReview},
		{Done, "", Formatting},
		{Done, "", Published},
	}
	for _, step := range steps {
		var err error
		m, err = s.UpdateState(ctx, m.ID, step.action, step.referee)
		require.NoError(t, err, "action %s", step.action)
		assert.Equal(t, step.want, m.State)
	}

	assert.Equal(t, []State{Submitted, InRefereeReview, CopyEdit,
		AuthorReview, Formatting, Published}, m.History)
	assert.Equal(t, m.State, m.History[len(m.History)-1])
}

// TestUpdateState_RevisionRoundTrip exercises the author-revision loop.
func TestUpdateState_RevisionRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	_, err := s.UpdateState(ctx, m.ID, AssignReferee, "r1")
	require.NoError(t, err)

	m, err = s.UpdateState(ctx, m.ID, AcceptWithRevisions, "")
	require.NoError(t, err)
	assert.Equal(t, AuthorRevision, m.State)

	m, err = s.UpdateState(ctx, m.ID, Done, "")
	require.NoError(t, err)
	assert.Equal(t, EditorReview, m.State)

	m, err = s.UpdateState(ctx, m.ID, Accept, "")
	require.NoError(t, err)
	assert.Equal(t, CopyEdit, m.State)
}

// TestUpdateState_RefereeBounce assigns and removes referees and checks
// the data-dependent fallback to Submitted.
func TestUpdateState_RefereeBounce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	m, err := s.UpdateState(ctx, m.ID, AssignReferee, "r1")
	require.NoError(t, err)
	assert.Equal(t, InRefereeReview, m.State)
	assert.Equal(t, []string{"r1"}, m.Referees)

	m, err = s.UpdateState(ctx, m.ID, AssignReferee, "r2")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, m.Referees)

	m, err = s.UpdateState(ctx, m.ID, DeleteReferee, "r1")
	require.NoError(t, err)
	assert.Equal(t, InRefereeReview, m.State)
	assert.Equal(t, []string{"r2"}, m.Referees)

	m, err = s.UpdateState(ctx, m.ID, DeleteReferee, "r2")
	require.NoError(t, err)
	assert.Equal(t, Submitted, m.State)
	assert.Empty(t, m.Referees)
}

// TestUpdateState_IllegalAction checks that a rejected action leaves state
// and history untouched.
func TestUpdateState_IllegalAction(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	_, err := s.UpdateState(ctx, m.ID, Accept, "")
	assert.True(t, common.IsKind(err, common.KindInvalidArgument))

	got, err := s.ReadOne(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, Submitted, got.State)
	assert.Equal(t, []State{Submitted}, got.History)
}

// TestUpdateState_DuplicateReferee checks that the second assignment of
// the same referee fails and leaves the sequence unchanged.
func TestUpdateState_DuplicateReferee(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	_, err := s.UpdateState(ctx, m.ID, AssignReferee, "r1")
	require.NoError(t, err)
	_, err = s.UpdateState(ctx, m.ID, AssignReferee, "r1")
	assert.True(t, common.IsKind(err, common.KindInvalidArgument))

	got, err := s.ReadOne(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, got.Referees)
	assert.Equal(t, []State{Submitted, InRefereeReview}, got.History)
}

// TestUpdateState_WithdrawFromPublished checks withdrawal from a terminal
// state and that Withdrawn admits no further action.
func TestUpdateState_WithdrawFromPublished(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	for _, step := range []struct {
		action  Action
		referee string
	}{
		{AssignReferee, "r1"}, {Accept, ""}, {Done, ""}, {Done, ""}, {Done, ""},
	} {
		var err error
		m, err = s.UpdateState(ctx, m.ID, step.action, step.referee)
		require.NoError(t, err)
	}
	require.Equal(t, Published, m.State)

	m, err := s.UpdateState(ctx, m.ID, Withdraw, "")
	require.NoError(t, err)
	assert.Equal(t, Withdrawn, m.State)

	for _, a := range Actions() {
		_, err := s.UpdateState(ctx, m.ID, a, "r1")
		assert.True(t, common.IsKind(err, common.KindInvalidArgument),
			"action %s must be illegal in Withdrawn", a)
	}
}

func TestUpdateState_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.UpdateState(context.Background(), "missing", Withdraw, "")
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

// TestDelete_CascadesTextPages checks that deleting a manuscript removes
// its pages too.
func TestDelete_CascadesTextPages(t *testing.T) {
	s, texts := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	_, err := texts.Create(ctx, m.ID, "2", "Page two", "More body")
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)

	_, err = s.ReadOne(ctx, m.ID)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	pages, err := texts.ReadByManuscript(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	m := submit(t, s)

	got, err := s.Update(ctx, m.ID, "T2", "B", "b@example.com", "New abstract")
	require.NoError(t, err)
	assert.Equal(t, "T2", got.Title)
	assert.Equal(t, "B", got.Author)
	assert.Equal(t, "b@example.com", got.AuthorEmail)

	// Lifecycle fields survive a descriptive update.
	assert.Equal(t, Submitted, got.State)
	assert.Equal(t, []State{Submitted}, got.History)
}

func TestReadAll(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	m1 := submit(t, s)
	m2, err := s.Create(ctx, CreateRequest{
		Title: "T2", Author: "B", AuthorEmail: "b@example.com",
		Abstract: "x", Text: "y",
	})
	require.NoError(t, err)

	all, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, all, m1.ID)
	assert.Contains(t, all, m2.ID)
}
