// Package model defines the canonical types shared across the storefront core:
// catalog products, cart lines in server and display form, credentials, and
// the structured error taxonomy.
package model

// Product is an immutable catalog record as last fetched from the backend.
// Instances are never mutated in place; the catalog is replaced wholesale on
// every re-fetch. Money is held in minor units (cents) per the shared money
// conventions in money.go.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	CostCents int64  `json:"cost_cents"`
	Rating    int    `json:"rating"` // integer 0-5
	ImageURL  string `json:"image_url"`
}

// CartLine is the server form of a cart entry: the backend's authoritative
// persisted representation. The client never stores it durably.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// DisplayLine is the display form of a cart entry: a server CartLine enriched
// with the matching Product's attributes. Derived data only - recomputed
// whenever either the server cart or the catalog changes.
//
// A DisplayLine exists only for product IDs present in both the server cart
// and the catalog; orphan lines never reach this type (see reconcile).
type DisplayLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	CostCents int64  `json:"cost_cents"`
	Rating    int    `json:"rating"`
	ImageURL  string `json:"image_url"`
}

// Credentials is the triple returned by a successful login.
// Token is the opaque bearer credential that gates all cart operations;
// its absence means the caller is anonymous.
type Credentials struct {
	Token        string `json:"token"`
	Username     string `json:"username"`
	BalanceCents int64  `json:"balance_cents"`
}

// CartTotals is the aggregate summary of a display cart.
// ShippingCents is always zero today; the backend has no shipping charges,
// but checkout views render the row regardless.
type CartTotals struct {
	Items         int   `json:"items"`
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TotalCents    int64 `json:"total_cents"`
}
