package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialscraper/pkg/logger"
	"socialscraper/pkg/models"
)

// EntityStore loads and creates posts, users and tags by natural key
type EntityStore interface {
	FindPost(ctx context.Context, network, externalID string) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	FindUser(ctx context.Context, network, externalID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	FindTag(ctx context.Context, network, externalID string) (*models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
}

// Entity is a raw API item mapped onto the stored shape
type Entity struct {
	// Post carries ExternalID, CreatedDate, Text and media fields
	Post models.Post
	// Author is nil when the payload has no user
	Author *models.User
	// Tags are raw tag texts, in payload order
	Tags []string
}

// Mapper turns one raw item into an Entity
type Mapper interface {
	Map(raw json.RawMessage) (*Entity, error)
}

// MapperFunc adapts a function to Mapper
type MapperFunc func(raw json.RawMessage) (*Entity, error)

func (f MapperFunc) Map(raw json.RawMessage) (*Entity, error) { return f(raw) }

// EntityError is a reconciliation failure for one item
type EntityError struct {
	Index      int
	ExternalID string
	Err        error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.ExternalID, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

// ReconcileError collects the items that could not be reconciled
type ReconcileError struct {
	Total    int
	Failures []*EntityError
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("%d of %d item(s) failed to reconcile, first: %v", len(e.Failures), e.Total, e.Failures[0])
}

func (e *ReconcileError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}

// ReconcileResult lists the posts for a batch in input order
type ReconcileResult struct {
	Posts   []*models.Post
	Created int
}

// Reconciler creates posts that are not stored yet, along with their tags
// and author. Stored posts are returned untouched.
type Reconciler struct {
	network string
	store   EntityStore
	mapper  Mapper
	logger  logger.Logger
	now     func() time.Time
}

// NewReconciler builds a reconciler for one network
func NewReconciler(network string, store EntityStore, mapper Mapper, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Reconciler{
		network: network,
		store:   store,
		mapper:  mapper,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// batch caches lookups made while reconciling one set of items
type batch struct {
	tags  map[string]bool
	users map[string]*models.User
}

// Reconcile processes items in order. A failing item is recorded in the
// returned *ReconcileError and the rest of the batch continues; rows
// created for it before the failure are left in place and reused later.
func (r *Reconciler) Reconcile(ctx context.Context, items []Item) (*ReconcileResult, error) {
	result := &ReconcileResult{Posts: make([]*models.Post, 0, len(items))}
	b := &batch{tags: make(map[string]bool), users: make(map[string]*models.User)}
	var failures []*EntityError

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		post, created, err := r.reconcileOne(ctx, b, item)
		if err != nil {
			failures = append(failures, &EntityError{Index: i, ExternalID: item.ID, Err: err})
			r.logger.WarnWithFields("failed to reconcile item", map[string]interface{}{
				"network":     r.network,
				"external_id": item.ID,
				"error":       err.Error(),
			})
			continue
		}
		if created {
			result.Created++
		}
		result.Posts = append(result.Posts, post)
	}

	if len(failures) > 0 {
		return result, &ReconcileError{Total: len(items), Failures: failures}
	}
	return result, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, b *batch, item Item) (*models.Post, bool, error) {
	if item.ID != "" {
		existing, err := r.store.FindPost(ctx, r.network, item.ID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	entity, err := r.mapper.Map(item.Raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to map item: %w", err)
	}

	externalID := entity.Post.ExternalID
	if externalID == "" {
		externalID = item.ID
	}
	if externalID == "" {
		return nil, false, errors.New("item has no external id")
	}
	if externalID != item.ID {
		existing, err := r.store.FindPost(ctx, r.network, externalID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	tags, err := r.resolveTags(ctx, b, entity.Tags)
	if err != nil {
		return nil, false, err
	}

	author, err := r.resolveUser(ctx, b, entity.Author)
	if err != nil {
		return nil, false, err
	}

	post := entity.Post
	post.Network = r.network
	post.ExternalID = externalID
	post.Tags = tags
	post.RawData = string(item.Raw)
	post.ImportDate = r.now()
	post.Active = true
	if author != nil {
		post.UserID = author.ID
		post.User = author
	}

	if err := r.store.CreatePost(ctx, &post); err != nil {
		// another process may have stored it since the lookup above
		if again, findErr := r.store.FindPost(ctx, r.network, externalID); findErr == nil && again != nil {
			return again, false, nil
		}
		return nil, false, err
	}
	return &post, true, nil
}

// resolveTags lowercases and dedups the texts, creating missing tags
func (r *Reconciler) resolveTags(ctx context.Context, b *batch, raw []string) ([]string, error) {
	var ids []string
	seen := make(map[string]bool, len(raw))

	for _, text := range raw {
		id := strings.ToLower(NormalizeTag(text))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if !b.tags[id] {
			if err := r.ensureTag(ctx, id); err != nil {
				return nil, fmt.Errorf("tag %q: %w", id, err)
			}
			b.tags[id] = true
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Reconciler) ensureTag(ctx context.Context, id string) error {
	existing, err := r.store.FindTag(ctx, r.network, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	createErr := r.store.CreateTag(ctx, &models.Tag{
		Network:    r.network,
		ExternalID: id,
		ImportDate: r.now(),
		Active:     true,
	})
	if createErr == nil {
		return nil
	}
	// another scrape may have created it in the meantime
	if again, err := r.store.FindTag(ctx, r.network, id); err == nil && again != nil {
		return nil
	}
	return createErr
}

func (r *Reconciler) resolveUser(ctx context.Context, b *batch, raw *models.User) (*models.User, error) {
	if raw == nil || raw.ExternalID == "" {
		return nil, nil
	}
	if u, ok := b.users[raw.ExternalID]; ok {
		return u, nil
	}

	existing, err := r.store.FindUser(ctx, r.network, raw.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", raw.ExternalID, err)
	}
	if existing != nil {
		b.users[raw.ExternalID] = existing
		return existing, nil
	}

	user := *raw
	user.ID = 0
	user.Network = r.network
	user.ImportDate = r.now()
	user.Active = true

	if err := r.store.CreateUser(ctx, &user); err != nil {
		again, findErr := r.store.FindUser(ctx, r.network, raw.ExternalID)
		if findErr != nil || again == nil {
			return nil, fmt.Errorf("user %s: %w", raw.ExternalID, err)
		}
		b.users[raw.ExternalID] = again
		return again, nil
	}

	b.users[raw.ExternalID] = &user
	return &user, nil
}
