// Package model defines domain entities for the application.
package model

import (
	"regexp"
	"strconv"
	"strings"
)

// ASIN is a 10-character alphanumeric Amazon product identifier.
var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// NormalizeASIN uppercases a raw product identifier and reports whether
// it is a well-formed ASIN.
func NormalizeASIN(raw string) (string, bool) {
	asin := strings.ToUpper(strings.TrimSpace(raw))
	return asin, asinPattern.MatchString(asin)
}

// Link represents one shortened affiliate product link.
type Link struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	OwnerID      string `json:"owner_id,omitempty"` // empty for anonymous/admin links
	ProductID    string `json:"product_id"`         // ASIN, uppercase
	AffiliateTag string `json:"affiliate_tag,omitempty"`
	RegionDomain string `json:"region_domain,omitempty"` // e.g. "com", "co.uk"
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	CreatedAt    int64  `json:"created_at"` // epoch millis, owner-set ordering key
	Active       bool   `json:"active"`
	Favorite     bool   `json:"favorite"`
}

// Hash field names for the link:{id} record.
const (
	FieldID           = "id"
	FieldSlug         = "slug"
	FieldOwnerID      = "owner_id"
	FieldProductID    = "product_id"
	FieldAffiliateTag = "affiliate_tag"
	FieldRegionDomain = "region_domain"
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldImageURL     = "image_url"
	FieldCreatedAt    = "created_at"
	FieldActive       = "active"
	FieldFavorite     = "favorite"
)

// ToHash converts the Link to a Redis hash field map.
// Booleans are stored as "1"/"0", timestamps as decimal millis.
func (l *Link) ToHash() map[string]any {
	fields := map[string]any{
		FieldID:        l.ID,
		FieldSlug:      l.Slug,
		FieldProductID: l.ProductID,
		FieldCreatedAt: strconv.FormatInt(l.CreatedAt, 10),
		FieldActive:    boolToString(l.Active),
		FieldFavorite:  boolToString(l.Favorite),
	}

	// Only set optional fields if they have values
	if l.OwnerID != "" {
		fields[FieldOwnerID] = l.OwnerID
	}
	if l.AffiliateTag != "" {
		fields[FieldAffiliateTag] = l.AffiliateTag
	}
	if l.RegionDomain != "" {
		fields[FieldRegionDomain] = l.RegionDomain
	}
	if l.Title != "" {
		fields[FieldTitle] = l.Title
	}
	if l.Description != "" {
		fields[FieldDescription] = l.Description
	}
	if l.ImageURL != "" {
		fields[FieldImageURL] = l.ImageURL
	}

	return fields
}

// LinkFromHash reconstructs a Link from a Redis hash result.
// Returns nil for an empty hash (missing record).
func LinkFromHash(fields map[string]string) *Link {
	if len(fields) == 0 {
		return nil
	}

	link := &Link{
		ID:           fields[FieldID],
		Slug:         fields[FieldSlug],
		OwnerID:      fields[FieldOwnerID],
		ProductID:    fields[FieldProductID],
		AffiliateTag: fields[FieldAffiliateTag],
		RegionDomain: fields[FieldRegionDomain],
		Title:        fields[FieldTitle],
		Description:  fields[FieldDescription],
		ImageURL:     fields[FieldImageURL],
		Active:       fields[FieldActive] == "1",
		Favorite:     fields[FieldFavorite] == "1",
	}

	if ts, err := strconv.ParseInt(fields[FieldCreatedAt], 10, 64); err == nil {
		link.CreatedAt = ts
	}

	return link
}

// boolToString converts boolean to "1" or "0".
func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
