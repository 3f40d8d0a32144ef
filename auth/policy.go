package auth

import (
	"github.com/labstack/echo/v4"

	"journal.evalgo.org/common"
	"journal.evalgo.org/manuscripts"
	"journal.evalgo.org/people"
	"journal.evalgo.org/roles"
)

// Resources and operations subject to the access policy.
const (
	ResourcePeople      = "people"
	ResourceManuscripts = "manuscripts"
	ResourceTexts       = "texts"
	ResourceComments    = "comments"

	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// policy maps (resource, operation) to the roles allowed to perform it.
// Reads are unrestricted and therefore absent. Manuscript creation is open
// to everyone: submission is how authors enter the system.
var policy = map[string]map[string][]string{
	ResourcePeople: {
		OpCreate: {roles.Editor, roles.ManagingEditor},
		OpUpdate: {roles.Editor, roles.ManagingEditor},
		OpDelete: {roles.Editor, roles.ManagingEditor},
	},
	ResourceManuscripts: {
		OpUpdate: {roles.Editor, roles.ManagingEditor},
		OpDelete: {roles.Editor, roles.ManagingEditor},
	},
	ResourceTexts: {
		OpCreate: {roles.Editor, roles.ManagingEditor},
		OpUpdate: {roles.Editor, roles.ManagingEditor},
		OpDelete: {roles.Editor, roles.ManagingEditor},
	},
	ResourceComments: {
		OpCreate: {roles.Editor, roles.ManagingEditor, roles.ConsultingEditor},
		OpUpdate: {roles.Editor, roles.ManagingEditor, roles.ConsultingEditor},
		OpDelete: {roles.Editor, roles.ManagingEditor},
	},
}

// Allowed reports whether a caller with the given roles may perform the
// operation on the resource. Operations missing from the policy are open.
func Allowed(resource, op string, userRoles []string) bool {
	required, ok := policy[resource][op]
	if !ok {
		return true
	}
	for _, need := range required {
		for _, have := range userRoles {
			if have == need {
				return true
			}
		}
	}
	return false
}

// errNotAllowed distinguishes the anonymous caller from the known-but-
// unauthorized one.
func errNotAllowed(c echo.Context) error {
	if _, ok := GetUser(c); !ok {
		return common.E(common.KindUnauthenticated, "authentication required")
	}
	return common.E(common.KindForbidden, "insufficient permissions")
}

// Require returns Echo middleware enforcing the policy for one
// (resource, operation) pair.
func Require(resource, op string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := GetUser(c)
			if !ok || !Allowed(resource, op, user.Roles) {
				return errNotAllowed(c)
			}
			return next(c)
		}
	}
}

// RequirePersonCreate enforces the people-create policy with one
// exception: while the people collection is empty, creation is open so the
// first editor can be bootstrapped.
func RequirePersonCreate(store *people.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			n, err := store.Count(c.Request().Context())
			if err != nil {
				return err
			}
			if n == 0 {
				return next(c)
			}
			user, ok := GetUser(c)
			if !ok || !Allowed(ResourcePeople, OpCreate, user.Roles) {
				return errNotAllowed(c)
			}
			return next(c)
		}
	}
}

// isAssignedReferee reports whether the user appears in the manuscript's
// referee sequence, matched by email or stable ID.
func isAssignedReferee(user *AuthUser, m *manuscripts.Manuscript) bool {
	for _, r := range m.Referees {
		if r == user.Email || r == user.ID {
			return true
		}
	}
	return false
}

// AuthorizeTransition checks whether the caller may run the given action
// against the manuscript. Editorial actions require an editor role. Review
// submission requires the referee role plus assignment to this very
// manuscript. Withdrawal is open to the manuscript's author and to
// editors.
func AuthorizeTransition(user *AuthUser, m *manuscripts.Manuscript, action manuscripts.Action) error {
	if user == nil {
		return common.E(common.KindUnauthenticated, "authentication required")
	}

	switch {
	case manuscripts.IsEditorialAction(action):
		if !user.HasAnyRole(roles.Editor, roles.ManagingEditor) {
			return common.E(common.KindForbidden,
				"%s requires an editor role", action)
		}

	case action == manuscripts.SubmitReview:
		if !user.HasAnyRole(roles.Referee) {
			return common.E(common.KindForbidden,
				"%s requires the referee role", action)
		}
		if !isAssignedReferee(user, m) {
			return common.E(common.KindForbidden,
				"not a referee of manuscript %s", m.ID)
		}

	case action == manuscripts.Withdraw:
		if user.Email != m.AuthorEmail &&
			!user.HasAnyRole(roles.Editor, roles.ManagingEditor) {
			return common.E(common.KindForbidden,
				"only the author or an editor may withdraw")
		}
	}
	return nil
}
