package domain

import "time"

// CartLine is one sellable item held by a session. Snapshot carries
// add-time display data (name, image, slug, stock at add) for fast
// client rendering only; it is never trusted for stock decisions.
type CartLine struct {
	ID             string                 `json:"id"`
	SessionID      string                 `json:"-"`
	ProductID      string                 `json:"productId"`
	VariantID      *string                `json:"variantId,omitempty"`
	Quantity       int                    `json:"quantity"`
	UnitPriceCents int64                  `json:"unitPriceCents"`
	Snapshot       map[string]interface{} `json:"snapshot,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// Ref returns the line's sellable-item key.
func (l CartLine) Ref() ItemRef {
	return ItemRef{ProductID: l.ProductID, VariantID: l.VariantID}
}
