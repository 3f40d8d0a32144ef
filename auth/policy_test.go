package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal.evalgo.org/common"
	"journal.evalgo.org/db"
	"journal.evalgo.org/manuscripts"
	"journal.evalgo.org/people"
	"journal.evalgo.org/roles"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name      string
		resource  string
		op        string
		userRoles []string
		want      bool
	}{
		{"editor creates person", ResourcePeople, OpCreate, []string{roles.Editor}, true},
		{"managing editor deletes person", ResourcePeople, OpDelete, []string{roles.ManagingEditor}, true},
		{"author creates person", ResourcePeople, OpCreate, []string{roles.Author}, false},
		{"referee updates manuscript", ResourceManuscripts, OpUpdate, []string{roles.Referee}, false},
		{"editor updates manuscript", ResourceManuscripts, OpUpdate, []string{roles.Editor}, true},
		{"consulting editor comments", ResourceComments, OpCreate, []string{roles.ConsultingEditor}, true},
		{"consulting editor deletes comment", ResourceComments, OpDelete, []string{roles.ConsultingEditor}, false},
		{"no roles", ResourcePeople, OpCreate, nil, false},
		{"unlisted operation is open", ResourcePeople, "read", nil, true},
		{"multiple roles one matches", ResourceTexts, OpUpdate, []string{roles.Author, roles.Editor}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.resource, tt.op, tt.userRoles))
		})
	}
}

func TestAuthorizeTransition(t *testing.T) {
	m := &manuscripts.Manuscript{
		ID:          "m1",
		AuthorEmail: "author@example.com",
		State:       manuscripts.InRefereeReview,
		Referees:    []string{"referee@example.com"},
	}

	editor := &AuthUser{ID: "e1", Email: "ed@example.com", Roles: []string{roles.Editor}}
	author := &AuthUser{ID: "a1", Email: "author@example.com", Roles: []string{roles.Author}}
	referee := &AuthUser{ID: "r1", Email: "referee@example.com", Roles: []string{roles.Referee}}
	outsider := &AuthUser{ID: "o1", Email: "other@example.com", Roles: []string{roles.Referee}}

	tests := []struct {
		name   string
		user   *AuthUser
		action manuscripts.Action
		kind   common.Kind
		ok     bool
	}{
		{"editor accepts", editor, manuscripts.Accept, 0, true},
		{"editor assigns referee", editor, manuscripts.AssignReferee, 0, true},
		{"author accepts", author, manuscripts.Accept, common.KindForbidden, false},
		{"referee accepts", referee, manuscripts.Accept, common.KindForbidden, false},
		{"assigned referee submits review", referee, manuscripts.SubmitReview, 0, true},
		{"unassigned referee submits review", outsider, manuscripts.SubmitReview, common.KindForbidden, false},
		{"author submits review", author, manuscripts.SubmitReview, common.KindForbidden, false},
		{"author withdraws", author, manuscripts.Withdraw, 0, true},
		{"editor withdraws", editor, manuscripts.Withdraw, 0, true},
		{"outsider withdraws", outsider, manuscripts.Withdraw, common.KindForbidden, false},
		{"anonymous", nil, manuscripts.Withdraw, common.KindUnauthenticated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeTransition(tt.user, m, tt.action)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, common.IsKind(err, tt.kind))
			}
		})
	}
}

// call runs a request through the given middleware-wrapped handler and
// returns the error it produced.
func call(mw echo.MiddlewareFunc, user *AuthUser) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		SetUser(c, user)
	}
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return h(c)
}

func TestRequire(t *testing.T) {
	mw := Require(ResourcePeople, OpCreate)

	t.Run("anonymous gets unauthenticated", func(t *testing.T) {
		err := call(mw, nil)
		assert.True(t, common.IsKind(err, common.KindUnauthenticated))
	})

	t.Run("author gets forbidden", func(t *testing.T) {
		err := call(mw, &AuthUser{ID: "x", Roles: []string{roles.Author}})
		assert.True(t, common.IsKind(err, common.KindForbidden))
	})

	t.Run("editor passes", func(t *testing.T) {
		err := call(mw, &AuthUser{ID: "x", Roles: []string{roles.Editor}})
		assert.NoError(t, err)
	})
}

// TestRequirePersonCreate_Bootstrap checks that person creation is open
// while the collection is empty and restricted afterwards.
func TestRequirePersonCreate_Bootstrap(t *testing.T) {
	store := people.NewStore(db.NewMemoryStore(), nil)
	mw := RequirePersonCreate(store)

	t.Run("empty collection allows anonymous", func(t *testing.T) {
		assert.NoError(t, call(mw, nil))
	})

	_, err := store.Create(context.Background(), people.CreateRequest{
		Name: "First Editor", Affiliation: "U", Email: "first@example.com",
		Role: roles.Editor,
	})
	require.NoError(t, err)

	t.Run("non-empty collection rejects anonymous", func(t *testing.T) {
		err := call(mw, nil)
		assert.True(t, common.IsKind(err, common.KindUnauthenticated))
	})

	t.Run("non-empty collection rejects author", func(t *testing.T) {
		err := call(mw, &AuthUser{ID: "x", Roles: []string{roles.Author}})
		assert.True(t, common.IsKind(err, common.KindForbidden))
	})

	t.Run("non-empty collection allows editor", func(t *testing.T) {
		err := call(mw, &AuthUser{ID: "x", Roles: []string{roles.Editor}})
		assert.NoError(t, err)
	})
}

func TestIdentity(t *testing.T) {
	store := people.NewStore(db.NewMemoryStore(), nil)
	p, err := store.Create(context.Background(), people.CreateRequest{
		Name: "Known", Affiliation: "U", Email: "known@example.com",
		Role: roles.Editor,
	})
	require.NoError(t, err)

	e := echo.New()
	mw := Identity(store)

	resolve := func(header string) (*AuthUser, bool) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(IdentityHeader, header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		var got *AuthUser
		var ok bool
		h := mw(func(c echo.Context) error {
			got, ok = GetUser(c)
			return nil
		})
		require.NoError(t, h(c))
		return got, ok
	}

	t.Run("by email", func(t *testing.T) {
		user, ok := resolve("known@example.com")
		require.True(t, ok)
		assert.Equal(t, p.ID, user.ID)
		assert.Equal(t, []string{roles.Editor}, user.Roles)
	})

	t.Run("by stable id", func(t *testing.T) {
		user, ok := resolve(p.ID)
		require.True(t, ok)
		assert.Equal(t, "known@example.com", user.Email)
	})

	t.Run("unknown identity is anonymous", func(t *testing.T) {
		_, ok := resolve("nobody@example.com")
		assert.False(t, ok)
	})

	t.Run("missing header is anonymous", func(t *testing.T) {
		_, ok := resolve("")
		assert.False(t, ok)
	})
}
