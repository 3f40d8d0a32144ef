// Package people manages the journal's person records: creation with
// generated identifiers, lookup by stable ID or email, role membership,
// and the masthead projection.
package people

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"journal.evalgo.org/common"
	"journal.evalgo.org/db"
	"journal.evalgo.org/roles"
)

// Person is a person record in the people collection.
type Person struct {
	DocID       string   `json:"_id,omitempty"`
	Rev         string   `json:"_rev,omitempty"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Affiliation string   `json:"affiliation"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Bio         string   `json:"bio"`

	// Credential is the opaque password credential used only by the
	// authentication collaborator. Never a plaintext password.
	Credential string `json:"credential,omitempty"`
}

// Sanitized returns a copy of the person with the credential stripped, for
// use in responses.
func (p *Person) Sanitized() *Person {
	out := *p
	out.Credential = ""
	return &out
}

// HasRole reports whether the person holds the given role code.
func (p *Person) HasRole(code string) bool {
	for _, r := range p.Roles {
		if r == code {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the person holds any of the given role codes.
func (p *Person) HasAnyRole(codes ...string) bool {
	for _, code := range codes {
		if p.HasRole(code) {
			return true
		}
	}
	return false
}

// MastheadEntry is the projection of a person published on the masthead.
// The fields follow what the journal actually publishes: name, email, roles.
type MastheadEntry struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Identifier names a person either by stable ID or by email. Resolution
// happens once, at parse time, instead of retrying lookups.
type Identifier struct {
	byEmail bool
	value   string
}

// ByID creates an identifier for a stable person ID.
func ByID(id string) Identifier {
	return Identifier{value: id}
}

// ByEmail creates an identifier for an email address.
func ByEmail(email string) Identifier {
	return Identifier{byEmail: true, value: email}
}

// ParseIdentifier classifies an opaque identifier string: UUIDs resolve by
// stable ID, everything else by email.
func ParseIdentifier(s string) Identifier {
	if _, err := uuid.Parse(s); err == nil {
		return ByID(s)
	}
	return ByEmail(s)
}

// String returns the raw identifier value.
func (i Identifier) String() string {
	return i.value
}

// filter returns the store filter for this identifier.
func (i Identifier) filter() db.Filter {
	if i.byEmail {
		return db.Filter{"email": i.value}
	}
	return db.Filter{"id": i.value}
}

// emailPattern covers everything in the email grammar except the
// no-consecutive-dots rule, which Go's RE2 cannot express without lookahead.
var emailPattern = regexp.MustCompile(
	`^[A-Za-z0-9][A-Za-z0-9._%+-]*@[A-Za-z0-9][A-Za-z0-9.-]*\.[A-Za-z]{2,10}$`)

// IsValidEmail reports whether email satisfies the journal's email grammar:
// alphanumeric first character, no consecutive dots, a single @, an
// alphanumeric-led host with optional dots and dashes, and a TLD of 2-10
// letters.
func IsValidEmail(email string) bool {
	if strings.Contains(email, "..") {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	return emailPattern.MatchString(email)
}

// CreateRequest carries the fields for creating a person.
type CreateRequest struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Email       string `json:"email"`
	Role        string `json:"roles,omitempty"`
	Bio         string `json:"bio,omitempty"`

	// Credential is the opaque credential supplied by the authentication
	// collaborator on registration, empty otherwise.
	Credential string `json:"-"`
}

// Store provides CRUD over person records.
type Store struct {
	store db.Store
	log   *logrus.Logger
}

// NewStore creates a person store on the given document store.
func NewStore(store db.Store, log *logrus.Logger) *Store {
	if log == nil {
		log = common.Logger
	}
	return &Store{store: store, log: log}
}

// validatePerson checks name, affiliation, email syntax, and role codes.
func validatePerson(name, affiliation, email string, roleCodes []string) error {
	if !IsValidEmail(email) {
		return common.E(common.KindInvalidArgument, "invalid email: %s", email)
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(affiliation) == "" {
		return common.E(common.KindInvalidArgument, "name and affiliation can't be blank")
	}
	for _, r := range roleCodes {
		if !roles.IsValid(r) {
			return common.E(common.KindInvalidArgument, "invalid role: %s", r)
		}
	}
	return nil
}

// Create adds a person with a generated UUID and returns the full record.
// The email must be syntactically valid and globally unique. The initial
// role is optional.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Person, error) {
	var roleCodes []string
	if req.Role != "" {
		roleCodes = []string{req.Role}
	}
	if err := validatePerson(req.Name, req.Affiliation, req.Email, roleCodes); err != nil {
		return nil, err
	}
	if _, err := s.ReadOne(ctx, ByEmail(req.Email)); err == nil {
		return nil, common.E(common.KindConflict, "duplicate email: %s", req.Email)
	} else if !common.IsKind(err, common.KindNotFound) {
		return nil, err
	}

	person := &Person{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Affiliation: req.Affiliation,
		Email:       req.Email,
		Roles:       append([]string{}, roleCodes...),
		Bio:         req.Bio,
		Credential:  req.Credential,
	}
	if err := s.store.Insert(ctx, db.PeopleCollection, person); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to create person")
	}

	s.log.WithFields(logrus.Fields{"person_id": person.ID, "email": person.Email}).
		Info("person created")
	return person, nil
}

// ReadOne looks up a person by identifier.
func (s *Store) ReadOne(ctx context.Context, ident Identifier) (*Person, error) {
	person, err := db.FindOneTyped[Person](ctx, s.store, db.PeopleCollection, ident.filter())
	if err != nil {
		if err == db.ErrNotFound {
			return nil, common.E(common.KindNotFound, "no such person: %s", ident)
		}
		return nil, common.Wrap(common.KindInternal, err, "failed to read person")
	}
	return person, nil
}

// Exists reports whether a person with the given identifier exists.
func (s *Store) Exists(ctx context.Context, ident Identifier) (bool, error) {
	_, err := s.ReadOne(ctx, ident)
	if err == nil {
		return true, nil
	}
	if common.IsKind(err, common.KindNotFound) {
		return false, nil
	}
	return false, err
}

// ReadAll returns all persons keyed by their stable identifier.
func (s *Store) ReadAll(ctx context.Context) (map[string]*Person, error) {
	persons, err := db.FindTyped[Person](ctx, s.store, db.PeopleCollection, nil)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to read people")
	}
	out := make(map[string]*Person, len(persons))
	for i := range persons {
		p := persons[i]
		key := p.ID
		if key == "" {
			key = p.Email
		}
		out[key] = &p
	}
	return out, nil
}

// Count returns the number of person records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx, db.PeopleCollection, nil)
	if err != nil {
		return 0, common.Wrap(common.KindInternal, err, "failed to count people")
	}
	return n, nil
}

// Update changes name, affiliation, and optionally bio. The target must
// exist; email and roles are not touched.
func (s *Store) Update(ctx context.Context, ident Identifier, name, affiliation string, bio *string) (*Person, error) {
	person, err := s.ReadOne(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := validatePerson(name, affiliation, person.Email, nil); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"name":        name,
		"affiliation": affiliation,
	}
	if bio != nil {
		fields["bio"] = *bio
	}
	if _, err := s.store.Update(ctx, db.PeopleCollection, db.Filter{"id": person.ID}, fields); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to update person")
	}
	return s.ReadOne(ctx, ByID(person.ID))
}

// SetCredential stores the opaque password credential for a person.
func (s *Store) SetCredential(ctx context.Context, ident Identifier, credential string) error {
	person, err := s.ReadOne(ctx, ident)
	if err != nil {
		return err
	}
	fields := map[string]interface{}{"credential": credential}
	if _, err := s.store.Update(ctx, db.PeopleCollection, db.Filter{"id": person.ID}, fields); err != nil {
		return common.Wrap(common.KindInternal, err, "failed to set credential")
	}
	return nil
}

// Delete removes a person and returns the deleted record.
func (s *Store) Delete(ctx context.Context, ident Identifier) (*Person, error) {
	person, err := s.ReadOne(ctx, ident)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Delete(ctx, db.PeopleCollection, db.Filter{"id": person.ID}); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to delete person")
	}
	s.log.WithField("person_id", person.ID).Info("person deleted")
	return person, nil
}

// AddRole adds a role to a person. Adding an already-held role fails.
func (s *Store) AddRole(ctx context.Context, ident Identifier, role string) (*Person, error) {
	person, err := s.ReadOne(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !roles.IsValid(role) {
		return nil, common.E(common.KindInvalidArgument, "invalid role: %s", role)
	}
	if person.HasRole(role) {
		return nil, common.E(common.KindInvalidArgument, "duplicate role: %s", role)
	}

	updated := append(append([]string{}, person.Roles...), role)
	fields := map[string]interface{}{"roles": updated}
	if _, err := s.store.Update(ctx, db.PeopleCollection, db.Filter{"id": person.ID}, fields); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to add role")
	}
	return s.ReadOne(ctx, ByID(person.ID))
}

// DeleteRole removes a role from a person. Removing an absent role fails.
func (s *Store) DeleteRole(ctx context.Context, ident Identifier, role string) (*Person, error) {
	person, err := s.ReadOne(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !person.HasRole(role) {
		return nil, common.E(common.KindInvalidArgument, "role not found: %s", role)
	}

	updated := make([]string, 0, len(person.Roles))
	for _, r := range person.Roles {
		if r != role {
			updated = append(updated, r)
		}
	}
	fields := map[string]interface{}{"roles": updated}
	if _, err := s.store.Update(ctx, db.PeopleCollection, db.Filter{"id": person.ID}, fields); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to delete role")
	}
	return s.ReadOne(ctx, ByID(person.ID))
}

// Masthead returns the persons holding at least one masthead role, keyed by
// stable identifier and projected to {name, email, roles}.
func (s *Store) Masthead(ctx context.Context) (map[string]MastheadEntry, error) {
	persons, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]MastheadEntry)
	for id, p := range persons {
		if roles.HasMasthead(p.Roles) {
			out[id] = MastheadEntry{
				Name:  p.Name,
				Email: p.Email,
				Roles: p.Roles,
			}
		}
	}
	return out, nil
}
