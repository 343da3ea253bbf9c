// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/zonlink/zonlink/internal/model"
)

// ShortenRequest represents the request body for shortening a product URL.
type ShortenRequest struct {
	ProductID    string `json:"product_id"`
	Region       string `json:"region,omitempty"`
	AffiliateTag string `json:"affiliate_tag,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	DesiredSlug  string `json:"slug,omitempty"`
}

// ShortenResponse represents the result of shortening.
type ShortenResponse struct {
	Slug     string `json:"slug"`
	ShortURL string `json:"short_url"`
}

// UpdateLinkRequest represents a partial link update.
type UpdateLinkRequest struct {
	Title    *string `json:"title,omitempty"`
	Active   *bool   `json:"active,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// LinkResponse represents a link in API responses.
type LinkResponse struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	ShortURL     string `json:"short_url"`
	ProductID    string `json:"product_id"`
	AffiliateTag string `json:"affiliate_tag,omitempty"`
	RegionDomain string `json:"region_domain,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	Active       bool   `json:"active"`
	Favorite     bool   `json:"favorite"`
}

// LinkListResponse represents a list of an owner's links.
type LinkListResponse struct {
	Data []LinkResponse `json:"data"`
}

// TrackRequest represents the attribution ingest body.
type TrackRequest struct {
	ProductID string `json:"product_id"`
	Slug      string `json:"slug,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Country   string `json:"country,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// SaleRequest represents a billing-processor sale event.
type SaleRequest struct {
	UserID   string  `json:"user_id"`
	Earnings float64 `json:"earnings,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToLinkResponse converts a Link model to LinkResponse DTO.
func ToLinkResponse(link *model.Link, baseURL string) *LinkResponse {
	return &LinkResponse{
		ID:           link.ID,
		Slug:         link.Slug,
		ShortURL:     baseURL + "/" + link.Slug,
		ProductID:    link.ProductID,
		AffiliateTag: link.AffiliateTag,
		RegionDomain: link.RegionDomain,
		Title:        link.Title,
		Description:  link.Description,
		ImageURL:     link.ImageURL,
		CreatedAt:    link.CreatedAt,
		Active:       link.Active,
		Favorite:     link.Favorite,
	}
}

// ToLinkListResponse converts a slice of Link models to LinkListResponse.
func ToLinkListResponse(links []*model.Link, baseURL string) *LinkListResponse {
	responses := make([]LinkResponse, len(links))
	for i, link := range links {
		responses[i] = *ToLinkResponse(link, baseURL)
	}
	return &LinkListResponse{Data: responses}
}
