// Package store implements a generic owner-scoped document collection with
// live snapshot subscriptions. Mutations persist through GORM, signal the
// in-process changefeed, and mirror a change event to the configured
// publisher. Subscribers never see partial updates: every delivery is a
// fresh, full snapshot queried after the change, so the subscription (not
// the mutation call) is the sole source of refreshed state.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "finboard/internal/errors"
	"finboard/internal/events"
	"finboard/internal/logger"
	"finboard/internal/pagination"
)

// Document is the contract every stored record satisfies.
type Document interface {
	DocumentID() string
	Owner() string
	SetOwner(id string)
}

// Snapshot is the full state of one owner's documents at a point in time,
// ordered by creation time descending. Err is set when the backing query
// failed; a snapshot with Err set is the last one delivered.
type Snapshot[T Document] struct {
	Docs []T
	Err  error
}

// Collection is a generic owner-scoped document collection.
type Collection[T Document] struct {
	db        *gorm.DB
	name      string
	factory   func() T
	feed      *feed
	publisher events.Publisher
}

// Option configures a Collection.
type Option func(*settings)

type settings struct {
	publisher events.Publisher
}

// WithPublisher mirrors change events to the given publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *settings) { s.publisher = p }
}

// NewCollection creates a collection over the given table model. The factory
// must return a fresh zero document; it is used as the GORM model for
// scoped queries.
func NewCollection[T Document](db *gorm.DB, name string, factory func() T, opts ...Option) *Collection[T] {
	s := settings{publisher: events.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Collection[T]{
		db:        db,
		name:      name,
		factory:   factory,
		feed:      newFeed(),
		publisher: s.publisher,
	}
}

// Name returns the collection name used for change events.
func (c *Collection[T]) Name() string { return c.name }

// List returns the owner's documents ordered by creation time descending.
// An empty owner yields an empty snapshot without touching the database.
func (c *Collection[T]) List(userID string) ([]T, error) {
	if userID == "" {
		return []T{}, nil
	}

	var docs []T
	err := c.db.Model(c.factory()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

// ListPage returns one page of the owner's documents with the total count,
// paginated in SQL. An empty owner yields an empty page.
func (c *Collection[T]) ListPage(userID string, page pagination.PageRequest) (pagination.PageResponse[T], error) {
	page.Defaults()
	if userID == "" {
		return pagination.NewPageResponse([]T{}, page.Page, page.PageSize, 0), nil
	}

	query := c.db.Model(c.factory()).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return pagination.PageResponse[T]{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var docs []T
	err := query.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&docs).Error
	if err != nil {
		return pagination.PageResponse[T]{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pagination.NewPageResponse(docs, page.Page, page.PageSize, total), nil
}

// Get returns a single document by id, scoped to the owner.
func (c *Collection[T]) Get(userID, id string) (T, error) {
	var zero T
	if userID == "" {
		return zero, apperrors.ErrUnauthorized
	}

	doc := c.factory()
	err := c.db.Where("id = ? AND user_id = ?", id, userID).First(doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, apperrors.ErrNotFound
		}
		return zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return doc, nil
}

// Add persists a new document for the owner. It fails before any database
// work when no user is signed in. Creation and update timestamps are
// stamped by the ORM; the id is generated on insert.
func (c *Collection[T]) Add(userID string, doc T) (string, error) {
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}

	doc.SetOwner(userID)
	if err := c.db.Create(doc).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	c.changed(events.OpCreated, doc.DocumentID(), userID)
	return doc.DocumentID(), nil
}

// Update merges the given fields into the owner's document and refreshes
// the updated timestamp.
func (c *Collection[T]) Update(userID, id string, fields map[string]any) error {
	if userID == "" {
		return apperrors.ErrUnauthorized
	}

	doc, err := c.Get(userID, id)
	if err != nil {
		return err
	}

	if len(fields) > 0 {
		if err := c.db.Model(doc).Updates(fields).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	c.changed(events.OpUpdated, id, userID)
	return nil
}

// Delete removes the owner's document.
func (c *Collection[T]) Delete(userID, id string) error {
	if userID == "" {
		return apperrors.ErrUnauthorized
	}

	doc, err := c.Get(userID, id)
	if err != nil {
		return err
	}

	if err := c.db.Delete(doc).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	c.changed(events.OpDeleted, id, userID)
	return nil
}

// Subscribe delivers the current snapshot immediately, then a fresh
// snapshot after every mutation affecting the owner. The subscription ends
// when ctx is cancelled, the returned cancel func is called, or a query
// failure is delivered; it is never retried automatically.
//
// An empty owner yields a single empty snapshot and a closed channel: no
// subscription is active for unauthenticated callers.
func (c *Collection[T]) Subscribe(ctx context.Context, userID string) (<-chan Snapshot[T], func()) {
	out := make(chan Snapshot[T], 1)

	if userID == "" {
		out <- Snapshot[T]{Docs: []T{}}
		close(out)
		return out, func() {}
	}

	subID, updates := c.feed.subscribe(userID)
	cancel := func() { c.feed.unsubscribe(userID, subID) }

	go func() {
		defer close(out)

		send := func() bool {
			docs, err := c.List(userID)
			snap := Snapshot[T]{Docs: docs, Err: err}
			select {
			case out <- snap:
				return err == nil
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-updates:
				if !ok {
					return
				}
				if !send() {
					return
				}
			}
		}
	}()

	return out, cancel
}

// NotifyChanged signals subscribers about a mutation performed outside the
// collection's own helpers, such as a guarded whole-document overwrite.
func (c *Collection[T]) NotifyChanged(op, docID, userID string) {
	c.changed(op, docID, userID)
}

// changed signals local subscribers and mirrors the event to the publisher.
// Publisher failures are logged, never propagated: the mutation already
// succeeded.
func (c *Collection[T]) changed(op, docID, userID string) {
	c.feed.notify(userID)

	ev := events.NewChangeEvent(c.name, op, docID, userID)
	if err := c.publisher.Publish(context.Background(), ev); err != nil {
		logger.Get().Warnw("failed to publish change event",
			"collection", c.name,
			"op", op,
			"doc_id", docID,
			"error", err,
		)
	}
}
