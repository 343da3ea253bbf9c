// Package registry provides the durable slug<->link mapping and the
// per-owner ordered link indices.
//
// Layout: link:{id} holds the record hash, slug:{slug} points at the id,
// and user:{owner}:links is a sorted set of link ids scored by creation
// time. Multi-key mutations go through one MULTI/EXEC pipeline so the
// three structures never drift apart; reads tolerate drift by dropping
// ids whose record is missing.
package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zonlink/zonlink/internal/metrics"
	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/store"
)

// Registry errors.
var (
	ErrInvalidSlug      = errors.New("invalid slug format")
	ErrSlugTaken        = errors.New("slug already taken")
	ErrSlugExhausted    = errors.New("slug generation exhausted")
	ErrLinkNotFound     = errors.New("link not found")
	ErrMissingProductID = errors.New("product id is required")
	ErrInvalidProductID = errors.New("invalid product id")
)

// Custom slug validation: URL-safe characters, bounded length.
var slugRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

const (
	slugLength     = 6
	slugAlphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	maxSlugRetries = 5

	linkKeyPrefix = "link:"
	slugKeyPrefix = "slug:"
	ownerKeySfx   = ":links"
	ownerKeyPfx   = "user:"

	// resolveCacheSize bounds the in-process hot-path cache.
	resolveCacheSize = 4096

	// resolveCacheTTL bounds how long another instance's delete or
	// suspend can go unseen through this instance's cache.
	resolveCacheTTL = 2 * time.Second
)

func linkKey(id string) string     { return linkKeyPrefix + id }
func slugKey(slug string) string   { return slugKeyPrefix + slug }
func ownerKey(owner string) string { return ownerKeyPfx + owner + ownerKeySfx }

// Registry manages link records in the backing store.
type Registry struct {
	store   *store.Store
	cache   *expirable.LRU[string, *model.Link]
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New creates a Registry.
func New(st *store.Store, logger *slog.Logger, recorder metrics.Recorder) *Registry {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Registry{
		store:   st,
		cache:   expirable.NewLRU[string, *model.Link](resolveCacheSize, nil, resolveCacheTTL),
		logger:  logger.With("component", "registry"),
		metrics: recorder,
	}
}

// CreateInput defines input for creating a link.
type CreateInput struct {
	OwnerID      string
	ProductID    string
	AffiliateTag string
	RegionDomain string
	Title        string
	Description  string
	ImageURL     string
	DesiredSlug  string
}

// Create validates input, assigns a slug and persists a new link.
// A desired slug must match the allowed character set and be free; when
// none is given a random 6-character slug is generated with a bounded
// collision-retry loop. Exhausting all retries is fatal: it signals a
// capacity or entropy problem, not a transient error.
func (r *Registry) Create(ctx context.Context, input CreateInput) (*model.Link, error) {
	asin, ok := model.NormalizeASIN(input.ProductID)
	if input.ProductID == "" {
		return nil, ErrMissingProductID
	}
	if !ok {
		return nil, ErrInvalidProductID
	}

	link := &model.Link{
		ID:           ulid.Make().String(),
		OwnerID:      input.OwnerID,
		ProductID:    asin,
		AffiliateTag: input.AffiliateTag,
		RegionDomain: input.RegionDomain,
		Title:        input.Title,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		CreatedAt:    time.Now().UnixMilli(),
		Active:       true,
	}

	slug, err := r.claimSlug(ctx, input.DesiredSlug, link.ID)
	if err != nil {
		return nil, err
	}
	link.Slug = slug

	if err := r.Save(ctx, link); err != nil {
		r.releaseSlug(ctx, slug)
		return nil, err
	}

	r.metrics.IncLinkCreated()
	return link, nil
}

// claimSlug reserves a slug for the given link id. Reservation uses
// SETNX so two concurrent creations of the same slug cannot both win.
func (r *Registry) claimSlug(ctx context.Context, desired, id string) (string, error) {
	if desired != "" {
		if !slugRegex.MatchString(desired) {
			return "", ErrInvalidSlug
		}
		ok, err := r.reserveSlug(ctx, desired, id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrSlugTaken
		}
		return desired, nil
	}

	for attempt := 0; attempt < maxSlugRetries; attempt++ {
		slug, err := randomSlug()
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		ok, err := r.reserveSlug(ctx, slug, id)
		if err != nil {
			return "", err
		}
		if ok {
			return slug, nil
		}
	}
	return "", ErrSlugExhausted
}

// reserveSlug atomically claims slug -> id. With a disabled store the
// claim trivially succeeds; creation then becomes a silent no-op write.
func (r *Registry) reserveSlug(ctx context.Context, slug, id string) (bool, error) {
	if !r.store.Enabled() {
		return true, nil
	}
	ok, err := r.store.Client().SetNX(ctx, slugKey(slug), id, 0).Result()
	if err != nil {
		return false, fmt.Errorf("reserve slug: %w", err)
	}
	return ok, nil
}

// releaseSlug drops a reservation whose link never got saved, so the
// slug does not stay occupied by a pointer to a missing record.
func (r *Registry) releaseSlug(ctx context.Context, slug string) {
	if !r.store.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := r.store.Client().Del(ctx, slugKey(slug)).Err(); err != nil {
		r.logger.Warn("failed to release slug reservation", "slug", slug, "error", err)
	}
}

// Save upserts the link record, the slug pointer and, when the link has
// an owner, its membership in the owner's ordered set. All three
// effects are issued in one atomic batch.
func (r *Registry) Save(ctx context.Context, link *model.Link) error {
	if !r.store.Enabled() {
		return nil
	}

	pipe := r.store.TxPipeline()
	pipe.HSet(ctx, linkKey(link.ID), link.ToHash())
	pipe.Set(ctx, slugKey(link.Slug), link.ID, 0)
	if link.OwnerID != "" {
		pipe.ZAdd(ctx, ownerKey(link.OwnerID), redis.Z{
			Score:  float64(link.CreatedAt),
			Member: link.ID,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save link %s: %w", link.ID, err)
	}

	r.cache.Remove(link.Slug)
	return nil
}

// ResolveSlug returns the link a slug points at, or ErrLinkNotFound.
// Hits come from an in-process cache; its TTL bounds how stale a record
// mutated on another instance can be served.
func (r *Registry) ResolveSlug(ctx context.Context, slug string) (*model.Link, error) {
	if link, ok := r.cache.Get(slug); ok {
		return link, nil
	}
	if !r.store.Enabled() {
		return nil, ErrLinkNotFound
	}

	id, err := r.store.Client().Get(ctx, slugKey(slug)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("resolve slug %q: %w", slug, err)
	}

	link, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cache.Add(slug, link)
	return link, nil
}

// GetByID fetches a link record by id, or ErrLinkNotFound.
func (r *Registry) GetByID(ctx context.Context, id string) (*model.Link, error) {
	if !r.store.Enabled() {
		return nil, ErrLinkNotFound
	}

	fields, err := r.store.Client().HGetAll(ctx, linkKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch link %s: %w", id, err)
	}

	link := model.LinkFromHash(fields)
	if link == nil {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

// ListByOwner returns an owner's links newest first. Ids whose record
// is missing are silently dropped rather than failing the whole read.
func (r *Registry) ListByOwner(ctx context.Context, ownerID string) ([]*model.Link, error) {
	if !r.store.Enabled() || ownerID == "" {
		return nil, nil
	}

	ids, err := r.store.Client().ZRevRange(ctx, ownerKey(ownerID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list owner links: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.store.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, linkKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("bulk fetch links: %w", err)
	}

	links := make([]*model.Link, 0, len(ids))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			continue
		}
		if link := model.LinkFromHash(fields); link != nil {
			links = append(links, link)
		}
	}
	return links, nil
}

// UpdateInput defines the mutable fields of a link. Nil means unchanged.
type UpdateInput struct {
	Title    *string
	Active   *bool
	Favorite *bool
}

// Update applies a partial update, preserving id and slug. A missing
// record is a silent no-op: a concurrent delete must not surface as an
// error on this path.
func (r *Registry) Update(ctx context.Context, id string, input UpdateInput) (*model.Link, error) {
	link, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if input.Title != nil {
		link.Title = *input.Title
	}
	if input.Active != nil {
		link.Active = *input.Active
	}
	if input.Favorite != nil {
		link.Favorite = *input.Favorite
	}

	if err := r.Save(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Delete removes the record, the slug pointer and the owner-set entry
// in one atomic batch. A missing record is a no-op. ownerHint covers
// records that predate ownership tracking.
func (r *Registry) Delete(ctx context.Context, id, ownerHint string) error {
	if !r.store.Enabled() {
		return nil
	}

	link, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return nil
		}
		return err
	}

	owner := link.OwnerID
	if owner == "" {
		owner = ownerHint
	}

	pipe := r.store.TxPipeline()
	if owner != "" {
		pipe.ZRem(ctx, ownerKey(owner), id)
	}
	pipe.Del(ctx, slugKey(link.Slug))
	pipe.Del(ctx, linkKey(id))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete link %s: %w", id, err)
	}

	r.cache.Remove(link.Slug)
	r.metrics.IncLinkDeleted()
	return nil
}

// randomSlug generates a 6-character base62 slug using crypto/rand.
func randomSlug() (string, error) {
	max := big.NewInt(int64(len(slugAlphabet)))
	b := make([]byte, slugLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}
