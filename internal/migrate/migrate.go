// Package migrate converts the legacy monolithic link blob into the
// granular per-entity layout.
//
// Early deployments stored every link in one JSON array under a single
// key. The migrator replays each entry through the registry's normal
// upsert path, re-deriving the slug pointer and owner index. It is
// idempotent: re-running overwrites records with identical data. The
// legacy blob is deliberately left in place as a fallback read path
// until all readers are migrated.
// TODO: drop the legacy blob read path once the dashboard stops
// consuming it.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/registry"
	"github.com/zonlink/zonlink/internal/store"
)

// LegacyKey is the well-known key holding the monolithic link array.
const LegacyKey = "legacy:links"

// legacyLink mirrors the blob's historical field names.
type legacyLink struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	UserID       string `json:"userId"`
	ASIN         string `json:"asin"`
	AffiliateTag string `json:"tag"`
	Domain       string `json:"domain"`
	Title        string `json:"title"`
	ImageURL     string `json:"imageUrl"`
	CreatedAt    int64  `json:"createdAt"`
	Active       *bool  `json:"active"`
	Favorite     bool   `json:"favorite"`
}

// Result reports a migration run.
type Result struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

// Migrator converts the legacy blob into per-entity records.
type Migrator struct {
	store    *store.Store
	registry *registry.Registry
	logger   *slog.Logger
}

// New creates a Migrator.
func New(st *store.Store, reg *registry.Registry, logger *slog.Logger) *Migrator {
	return &Migrator{
		store:    st,
		registry: reg,
		logger:   logger.With("component", "migrate"),
	}
}

// Run reads the legacy blob (treating absence as an empty list) and
// upserts every entry through the registry. Entries without a slug or
// product id are skipped and logged, never fatal.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	if !m.store.Enabled() {
		return result, nil
	}

	raw, err := m.store.Client().Get(ctx, LegacyKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return result, nil
		}
		return nil, fmt.Errorf("read legacy blob: %w", err)
	}

	var entries []legacyLink
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode legacy blob: %w", err)
	}

	for _, entry := range entries {
		link, ok := m.convert(entry)
		if !ok {
			result.Skipped++
			continue
		}
		if err := m.registry.Save(ctx, link); err != nil {
			return result, fmt.Errorf("migrate link %s: %w", link.ID, err)
		}
		result.Migrated++
	}

	m.logger.Info("migration complete",
		"migrated", result.Migrated,
		"skipped", result.Skipped,
	)
	return result, nil
}

// convert maps a legacy entry onto the granular record shape.
func (m *Migrator) convert(entry legacyLink) (*model.Link, bool) {
	asin, ok := model.NormalizeASIN(entry.ASIN)
	if !ok || entry.Slug == "" {
		m.logger.Warn("skipping malformed legacy entry",
			"id", entry.ID,
			"slug", entry.Slug,
		)
		return nil, false
	}

	id := entry.ID
	if id == "" {
		// Entries from the earliest blob format predate ids. The id
		// must be derived deterministically from the slug so re-runs
		// upsert the same record instead of minting duplicates.
		id = "legacy-" + entry.Slug
	}

	active := true
	if entry.Active != nil {
		active = *entry.Active
	}

	return &model.Link{
		ID:           id,
		Slug:         entry.Slug,
		OwnerID:      entry.UserID,
		ProductID:    asin,
		AffiliateTag: entry.AffiliateTag,
		RegionDomain: entry.Domain,
		Title:        entry.Title,
		ImageURL:     entry.ImageURL,
		CreatedAt:    entry.CreatedAt,
		Active:       active,
		Favorite:     entry.Favorite,
	}, true
}
