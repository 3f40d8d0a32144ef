// Package text manages manuscript text pages. Pages are scoped to a
// manuscript, keyed by a page-number string unique within it, and
// cascade-deleted with their manuscript.
package text

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"journal.evalgo.org/common"
	"journal.evalgo.org/db"
)

// Page is a text page in the texts collection.
type Page struct {
	DocID        string `json:"_id,omitempty"`
	Rev          string `json:"_rev,omitempty"`
	ManuscriptID string `json:"manuscript_id"`
	PageNumber   string `json:"pageNumber"`
	Title        string `json:"title"`
	Text         string `json:"text"`
}

// Store provides CRUD over text pages.
type Store struct {
	store db.Store
	log   *logrus.Logger
}

// NewStore creates a text-page store on the given document store.
func NewStore(store db.Store, log *logrus.Logger) *Store {
	if log == nil {
		log = common.Logger
	}
	return &Store{store: store, log: log}
}

// validatePage rejects blank fields.
func validatePage(manuscriptID, pageNumber, title, text string) error {
	if strings.TrimSpace(manuscriptID) == "" {
		return common.E(common.KindInvalidArgument, "manuscript id cannot be blank")
	}
	if strings.TrimSpace(pageNumber) == "" {
		return common.E(common.KindInvalidArgument, "page number cannot be blank")
	}
	if strings.TrimSpace(title) == "" {
		return common.E(common.KindInvalidArgument, "title cannot be blank")
	}
	if strings.TrimSpace(text) == "" {
		return common.E(common.KindInvalidArgument, "text cannot be blank")
	}
	return nil
}

// ReadAll returns all text pages keyed by page number.
func (s *Store) ReadAll(ctx context.Context) (map[string]*Page, error) {
	pages, err := db.FindTyped[Page](ctx, s.store, db.TextsCollection, nil)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to read texts")
	}
	out := make(map[string]*Page, len(pages))
	for i := range pages {
		p := pages[i]
		out[p.PageNumber] = &p
	}
	return out, nil
}

// ReadByManuscript returns all pages of one manuscript ordered
// lexicographically by page number.
func (s *Store) ReadByManuscript(ctx context.Context, manuscriptID string) ([]Page, error) {
	pages, err := db.FindTyped[Page](ctx, s.store, db.TextsCollection,
		db.Filter{"manuscript_id": manuscriptID})
	if err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to read texts")
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})
	return pages, nil
}

// ReadOne returns a single page. If manuscriptID is empty the first page
// with the given page number is returned.
func (s *Store) ReadOne(ctx context.Context, manuscriptID, pageNumber string) (*Page, error) {
	filter := db.Filter{"pageNumber": pageNumber}
	if manuscriptID != "" {
		filter["manuscript_id"] = manuscriptID
	}
	page, err := db.FindOneTyped[Page](ctx, s.store, db.TextsCollection, filter)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, common.E(common.KindNotFound, "no such page: %s", pageNumber)
		}
		return nil, common.Wrap(common.KindInternal, err, "failed to read page")
	}
	return page, nil
}

// Exists reports whether a page exists for the manuscript.
func (s *Store) Exists(ctx context.Context, manuscriptID, pageNumber string) (bool, error) {
	_, err := s.ReadOne(ctx, manuscriptID, pageNumber)
	if err == nil {
		return true, nil
	}
	if common.IsKind(err, common.KindNotFound) {
		return false, nil
	}
	return false, err
}

// Create adds a page. A duplicate page number within the manuscript is a
// conflict.
func (s *Store) Create(ctx context.Context, manuscriptID, pageNumber, title, text string) (*Page, error) {
	if err := validatePage(manuscriptID, pageNumber, title, text); err != nil {
		return nil, err
	}
	exists, err := s.Exists(ctx, manuscriptID, pageNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.E(common.KindConflict,
			"duplicate page %s for manuscript %s", pageNumber, manuscriptID)
	}

	page := &Page{
		ManuscriptID: manuscriptID,
		PageNumber:   pageNumber,
		Title:        title,
		Text:         text,
	}
	if err := s.store.Insert(ctx, db.TextsCollection, page); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to create page")
	}
	s.log.WithFields(logrus.Fields{
		"manuscript_id": manuscriptID,
		"page":          pageNumber,
	}).Info("text page created")
	return page, nil
}

// Update replaces title and text of an existing page.
func (s *Store) Update(ctx context.Context, manuscriptID, pageNumber, title, text string) (*Page, error) {
	if err := validatePage(manuscriptID, pageNumber, title, text); err != nil {
		return nil, err
	}
	exists, err := s.Exists(ctx, manuscriptID, pageNumber)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.E(common.KindNotFound,
			"updating non-existent page %s for manuscript %s", pageNumber, manuscriptID)
	}

	filter := db.Filter{"manuscript_id": manuscriptID, "pageNumber": pageNumber}
	fields := map[string]interface{}{"title": title, "text": text}
	if _, err := s.store.Update(ctx, db.TextsCollection, filter, fields); err != nil {
		return nil, common.Wrap(common.KindInternal, err, "failed to update page")
	}
	return s.ReadOne(ctx, manuscriptID, pageNumber)
}

// Delete removes a single page.
func (s *Store) Delete(ctx context.Context, manuscriptID, pageNumber string) error {
	filter := db.Filter{"pageNumber": pageNumber}
	if manuscriptID != "" {
		filter["manuscript_id"] = manuscriptID
	}
	n, err := s.store.Delete(ctx, db.TextsCollection, filter)
	if err != nil {
		return common.Wrap(common.KindInternal, err, "failed to delete page")
	}
	if n == 0 {
		return common.E(common.KindNotFound, "no such page: %s", pageNumber)
	}
	return nil
}

// DeleteByManuscript removes all pages of a manuscript. Used as the cascade
// when the owning manuscript is deleted.
func (s *Store) DeleteByManuscript(ctx context.Context, manuscriptID string) (int, error) {
	n, err := s.store.Delete(ctx, db.TextsCollection,
		db.Filter{"manuscript_id": manuscriptID})
	if err != nil {
		return 0, common.Wrap(common.KindInternal, err, "failed to delete manuscript texts")
	}
	if n > 0 {
		s.log.WithFields(logrus.Fields{
			"manuscript_id": manuscriptID,
			"pages":         n,
		}).Info("text pages cascade-deleted")
	}
	return n, nil
}
