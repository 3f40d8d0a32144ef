// Package auth provides registration, login, and request authorization for
// the journal. Identity over the API is the person record itself: login
// verifies the stored credential and issues a signed token carrying the
// person's roles.
package auth

import (
	"context"

	"github.com/sirupsen/logrus"

	"journal.evalgo.org/common"
	"journal.evalgo.org/people"
	"journal.evalgo.org/roles"
)

// defaultAffiliation is used when a registrant does not state one.
const defaultAffiliation = "Unknown"

// RegisterRequest carries the fields for self-registration.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Affiliation string `json:"affiliation,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the session returned on successful login.
type LoginResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"access_token"`
}

// Service handles registration and login against the people store.
type Service struct {
	people *people.Store
	tokens *TokenService
	log    *logrus.Logger
}

// NewService creates an auth service.
func NewService(p *people.Store, tokens *TokenService, log *logrus.Logger) *Service {
	if log == nil {
		log = common.Logger
	}
	return &Service{people: p, tokens: tokens, log: log}
}

// Register creates a person with the author role and a hashed credential.
// A taken email is a conflict.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*people.Person, error) {
	credential, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	affiliation := req.Affiliation
	if affiliation == "" {
		affiliation = defaultAffiliation
	}

	person, err := s.people.Create(ctx, people.CreateRequest{
		Name:        req.Name,
		Affiliation: affiliation,
		Email:       req.Email,
		Role:        roles.Author,
		Bio:         req.Bio,
		Credential:  credential,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("email", person.Email).Info("person registered")
	return person, nil
}

// Login verifies the credential for the given email and issues a token.
// An unknown email and a wrong password fail identically.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	failed := common.E(common.KindUnauthenticated, "invalid email or password")

	person, err := s.people.ReadOne(ctx, people.ByEmail(req.Email))
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil, failed
		}
		return nil, err
	}
	if person.Credential == "" {
		return nil, failed
	}
	if err := ValidatePassword(req.Password, person.Credential); err != nil {
		return nil, failed
	}

	token, err := s.tokens.GenerateToken(person.ID, person.Email, person.Roles)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to issue token")
	}

	s.log.WithField("email", person.Email).Info("person logged in")
	return &LoginResponse{
		ID:          person.ID,
		Email:       person.Email,
		Name:        person.Name,
		Roles:       person.Roles,
		AccessToken: token,
	}, nil
}
