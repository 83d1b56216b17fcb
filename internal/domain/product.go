package domain

import "time"

type Product struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Image       string           `json:"image,omitempty"`
	PriceCents  int64            `json:"priceCents"`
	Currency    string           `json:"currency"`
	Stock       int              `json:"stock"`
	CreatedAt   time.Time        `json:"createdAt"`
	Variants    []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a sized variant with its own stock count and,
// optionally, its own price. A variant with PriceCents 0 sells at the
// parent product's price.
type ProductVariant struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	Size       string `json:"size"`
	PriceCents int64  `json:"priceCents,omitempty"`
	Stock      int    `json:"stock"`
}

// ItemRef identifies a sellable unit: a base product, or a specific
// variant when VariantID is set. The pair is the line key everywhere;
// neither field alone is unique.
type ItemRef struct {
	ProductID string
	VariantID *string
}

// Key renders the ref as a stable map key.
func (r ItemRef) Key() string {
	if r.VariantID != nil && *r.VariantID != "" {
		return r.ProductID + "/" + *r.VariantID
	}
	return r.ProductID
}
