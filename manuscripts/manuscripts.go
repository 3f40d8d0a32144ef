package manuscripts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"journal.evalgo.org/common"
	"journal.evalgo.org/db"
	"journal.evalgo.org/people"
	"journal.evalgo.org/text"
)

// Manuscript is a manuscript record in the manuscripts collection.
type Manuscript struct {
	DocID       string   `json:"_id,omitempty"`
	Rev         string   `json:"_rev,omitempty"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	AuthorEmail string   `json:"author_email"`
	EditorEmail string   `json:"editor_email,omitempty"`
	Abstract    string   `json:"abstract"`
	State       State    `json:"state"`
	Referees    []string `json:"referees"`
	History     []State  `json:"history"`
}

// CreateRequest carries the fields for submitting a manuscript. Text is the
// full submission body; it becomes the first text page.
type CreateRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	AuthorEmail string `json:"author_email"`
	Abstract    string `json:"abstract"`
	Text        string `json:"text"`
	EditorEmail string `json:"editor_email,omitempty"`
}

// Store provides CRUD over manuscripts plus the transition executor. Text
// pages are owned by the manuscript and follow it on delete.
type Store struct {
	store db.Store
	texts *text.Store
	log   *logrus.Logger
}

// NewStore creates a manuscript store on the given document store.
func NewStore(store db.Store, texts *text.Store, log *logrus.Logger) *Store {
	if log == nil {
		log = common.Logger
	}
	return &Store{store: store, texts: texts, log: log}
}

// validateManuscript checks the submission fields.
func validateManuscript(req CreateRequest) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" ||
		strings.TrimSpace(req.Abstract) == "" || strings.TrimSpace(req.Text) == "" {
		return common.E(common.KindInvalidArgument,
			"title, author, abstract and text can't be blank")
	}
	if !people.IsValidEmail(req.AuthorEmail) {
		return common.E(common.KindInvalidArgument,
			"invalid author email: %s", req.AuthorEmail)
	}
	if req.EditorEmail != "" && !people.IsValidEmail(req.EditorEmail) {
		return common.E(common.KindInvalidArgument,
			"invalid editor email: %s", req.EditorEmail)
	}
	return nil
}

// Create submits a manuscript. It starts in Submitted with that state as
// the sole history entry and no referees, and the submission body becomes
// text page "1".
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Manuscript, error) {
	if err := validateManuscript(req); err != nil {
		return nil, err
	}

	m := &Manuscript{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Author:      req.Author,
		AuthorEmail: req.AuthorEmail,
		EditorEmail: req.EditorEmail,
		Abstract:    req.Abstract,
		State:       Submitted,
		Referees:    []string{},
		History:     []State{Submitted},
	}
	if err := s.store.Insert(ctx, db.ManuscriptsCollection, m); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to create manuscript")
	}
	if _, err := s.texts.Create(ctx, m.ID, "1", req.Title, req.Text); err != nil {
		// A failed submission must leave no manuscript behind.
		if _, derr := s.store.Delete(ctx, db.ManuscriptsCollection, db.Filter{"id": m.ID}); derr != nil {
			s.log.WithError(derr).WithField("manuscript_id", m.ID).
				Error("failed to roll back manuscript without page")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"manuscript_id": m.ID,
		"title":         m.Title,
	}).Info("manuscript submitted")
	return m, nil
}

// ReadOne looks up a manuscript by its stable identifier.
func (s *Store) ReadOne(ctx context.Context, id string) (*Manuscript, error) {
	m, err := db.FindOneTyped[Manuscript](ctx, s.store, db.ManuscriptsCollection,
		db.Filter{"id": id})
	if err != nil {
		if err == db.ErrNotFound {
			return nil, common.E(common.KindNotFound, "no such manuscript: %s", id)
		}
		return nil, common.Wrap(common.KindInternal, err, "failed to read manuscript")
	}
	return m, nil
}

// Exists reports whether a manuscript with the given identifier exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.ReadOne(ctx, id)
	if err == nil {
		return true, nil
	}
	if common.IsKind(err, common.KindNotFound) {
		return false, nil
	}
	return false, err
}

// ReadAll returns all manuscripts keyed by their stable identifier.
func (s *Store) ReadAll(ctx context.Context) (map[string]*Manuscript, error) {
	list, err := db.FindTyped[Manuscript](ctx, s.store, db.ManuscriptsCollection, nil)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to read manuscripts")
	}
	out := make(map[string]*Manuscript, len(list))
	for i := range list {
		m := list[i]
		out[m.ID] = &m
	}
	return out, nil
}

// Update changes title, author, author email, and abstract. State, referees,
// and history are only touched by the transition executor.
func (s *Store) Update(ctx context.Context, id, title, author, authorEmail, abstract string) (*Manuscript, error) {
	if _, err := s.ReadOne(ctx, id); err != nil {
		return nil, err
	}
	if err := validateManuscript(CreateRequest{
		Title: title, Author: author, AuthorEmail: authorEmail,
		Abstract: abstract, Text: "-",
	}); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"title":        title,
		"author":       author,
		"author_email": authorEmail,
		"abstract":     abstract,
	}
	if _, err := s.store.Update(ctx, db.ManuscriptsCollection, db.Filter{"id": id}, fields); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to update manuscript")
	}
	return s.ReadOne(ctx, id)
}

// Delete removes a manuscript and cascades to its text pages.
func (s *Store) Delete(ctx context.Context, id string) (*Manuscript, error) {
	m, err := s.ReadOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Delete(ctx, db.ManuscriptsCollection, db.Filter{"id": id}); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to delete manuscript")
	}
	if _, err := s.texts.DeleteByManuscript(ctx, id); err != nil {
		return nil, err
	}
	s.log.WithField("manuscript_id", id).Info("manuscript deleted")
	return m, nil
}

// UpdateState runs one action against a manuscript. The table lookup
// rejects actions not legal in the current state; the transition handler
// may reject its referee argument. On success the new state is appended to
// the history and the whole record is written back in one replace, so a
// reader never sees a state change without its history entry.
func (s *Store) UpdateState(ctx context.Context, id string, action Action, referee string) (*Manuscript, error) {
	m, err := s.ReadOne(ctx, id)
	if err != nil {
		return nil, err
	}

	trans, ok := stateTable[m.State][action]
	if !ok {
		return nil, common.E(common.KindInvalidArgument,
			"%s not available in %s", action, m.State)
	}
	next, refs, err := applyTransition(trans, m.Referees, referee)
	if err != nil {
		return nil, err
	}

	m.State = next
	m.Referees = refs
	m.History = append(m.History, next)
	if err := s.store.Replace(ctx, db.ManuscriptsCollection, db.Filter{"id": id}, m); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to store transition")
	}

	s.log.WithFields(logrus.Fields{
		"manuscript_id": id,
		"action":        action,
		"state":         next,
	}).Info("manuscript transitioned")
	return m, nil
}
