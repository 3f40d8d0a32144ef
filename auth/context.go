package auth

import (
	"github.com/labstack/echo/v4"

	"journal.evalgo.org/people"
)

// AuthUser represents the authenticated caller of a request.
type AuthUser struct {
	// ID is the person's stable identifier
	ID string `json:"id"`

	// Email is the person's email address
	Email string `json:"email"`

	// Name is the person's display name
	Name string `json:"name,omitempty"`

	// Roles contains the person's role codes
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether the user holds any of the given role codes.
func (u *AuthUser) HasAnyRole(codes ...string) bool {
	for _, code := range codes {
		for _, r := range u.Roles {
			if r == code {
				return true
			}
		}
	}
	return false
}

// Context key for storing authentication data
const contextKeyUser = "user"

// SetUser stores the authenticated user in the Echo context.
func SetUser(c echo.Context, user *AuthUser) {
	c.Set(contextKeyUser, user)
}

// GetUser retrieves the authenticated user from the Echo context.
// Returns false if no identity middleware ran or the caller is anonymous.
func GetUser(c echo.Context) (*AuthUser, bool) {
	user, ok := c.Get(contextKeyUser).(*AuthUser)
	return user, ok
}

// UserFromPerson projects a person record onto the request identity.
func UserFromPerson(p *people.Person) *AuthUser {
	return &AuthUser{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.Name,
		Roles: append([]string{}, p.Roles...),
	}
}

// IdentityHeader carries the caller identity: a stable person ID or an
// email address.
const IdentityHeader = "X-User-Id"

// Identity returns Echo middleware that resolves the caller from the
// identity header against the people store. Requests without the header,
// or naming an unknown person, proceed anonymously; protected routes
// reject them later.
func Identity(store *people.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(IdentityHeader)
			if raw == "" {
				return next(c)
			}
			person, err := store.ReadOne(c.Request().Context(), people.ParseIdentifier(raw))
			if err != nil {
				return next(c)
			}
			SetUser(c, UserFromPerson(person))
			return next(c)
		}
	}
}
