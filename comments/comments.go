// Package comments manages editorial comments attached to manuscripts.
package comments

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"journal.evalgo.org/common"
	"journal.evalgo.org/db"
	"journal.evalgo.org/manuscripts"
	"journal.evalgo.org/people"
)

// Comment is a comment record in the comments collection.
type Comment struct {
	DocID        string    `json:"_id,omitempty"`
	Rev          string    `json:"_rev,omitempty"`
	ID           string    `json:"id"`
	ManuscriptID string    `json:"manuscript_id"`
	EditorID     string    `json:"editor_id"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
}

// Store provides CRUD over comments.
type Store struct {
	store       db.Store
	manuscripts *manuscripts.Store
	people      *people.Store
	log         *logrus.Logger
}

// NewStore creates a comment store on the given document store.
func NewStore(store db.Store, m *manuscripts.Store, p *people.Store, log *logrus.Logger) *Store {
	if log == nil {
		log = common.Logger
	}
	return &Store{store: store, manuscripts: m, people: p, log: log}
}

// Create attaches a comment to a manuscript. Both the manuscript and the
// commenting person must exist.
func (s *Store) Create(ctx context.Context, manuscriptID, editorID, body string) (*Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, common.E(common.KindInvalidArgument, "comment text cannot be blank")
	}
	if _, err := s.manuscripts.ReadOne(ctx, manuscriptID); err != nil {
		return nil, err
	}
	if _, err := s.people.ReadOne(ctx, people.ParseIdentifier(editorID)); err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:           uuid.NewString(),
		ManuscriptID: manuscriptID,
		EditorID:     editorID,
		Text:         body,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, db.CommentsCollection, comment); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to create comment")
	}
	s.log.WithFields(logrus.Fields{
		"comment_id":    comment.ID,
		"manuscript_id": manuscriptID,
	}).Info("comment created")
	return comment, nil
}

// ReadAll returns all comments keyed by their stable identifier.
func (s *Store) ReadAll(ctx context.Context) (map[string]*Comment, error) {
	list, err := db.FindTyped[Comment](ctx, s.store, db.CommentsCollection, nil)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to read comments")
	}
	out := make(map[string]*Comment, len(list))
	for i := range list {
		c := list[i]
		out[c.ID] = &c
	}
	return out, nil
}

// ReadOne looks up a comment by its stable identifier.
func (s *Store) ReadOne(ctx context.Context, id string) (*Comment, error) {
	c, err := db.FindOneTyped[Comment](ctx, s.store, db.CommentsCollection,
		db.Filter{"id": id})
	if err != nil {
		if err == db.ErrNotFound {
			return nil, common.E(common.KindNotFound, "no such comment: %s", id)
		}
		return nil, common.Wrap(common.KindInternal, err, "failed to read comment")
	}
	return c, nil
}

// ReadByManuscript returns the comments on one manuscript, oldest first.
func (s *Store) ReadByManuscript(ctx context.Context, manuscriptID string) ([]Comment, error) {
	if _, err := s.manuscripts.ReadOne(ctx, manuscriptID); err != nil {
		return nil, err
	}
	list, err := db.FindTyped[Comment](ctx, s.store, db.CommentsCollection,
		db.Filter{"manuscript_id": manuscriptID})
	if err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to read comments")
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
	return list, nil
}

// Update replaces the text of an existing comment.
func (s *Store) Update(ctx context.Context, id, body string) (*Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, common.E(common.KindInvalidArgument, "comment text cannot be blank")
	}
	if _, err := s.ReadOne(ctx, id); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{"text": body}
	if _, err := s.store.Update(ctx, db.CommentsCollection, db.Filter{"id": id}, fields); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to update comment")
	}
	return s.ReadOne(ctx, id)
}

// Delete removes a comment.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, db.CommentsCollection, db.Filter{"id": id})
	if err != nil {
		return common.Wrap(common.KindInternal, err, "failed to delete comment")
	}
	if n == 0 {
		return common.E(common.KindNotFound, "no such comment: %s", id)
	}
	return nil
}
