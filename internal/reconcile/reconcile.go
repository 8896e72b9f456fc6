// Package reconcile turns the backend's authoritative cart (productId +
// quantity pairs) and the local catalog snapshot into the denormalized,
// display-ready cart, and computes its aggregate totals.
//
// Everything here is pure: no I/O, no shared state. Callers re-run
// reconciliation whenever either the server cart or the catalog changes.
package reconcile

import "storefront/internal/model"

// Report describes what reconciliation dropped. A server cart line whose
// productId has no catalog entry (an orphan, typically a product removed from
// the catalog after it was carted) is excluded from the display cart rather
// than emitted as a half-merged record. Orphans are not errors; they are
// reported so callers can log them.
type Report struct {
	OrphanIDs []string // product IDs present in the cart but not the catalog
}

// HasOrphans returns true if any cart lines were dropped.
func (r *Report) HasOrphans() bool {
	return len(r.OrphanIDs) > 0
}

// Reconcile merges the server cart against the catalog.
//
// Semantics:
//   - nil serverCart → nil (anonymous or cart never fetched; the caller
//     decides how to render that state)
//   - empty serverCart → empty, non-nil display cart
//   - each line is matched to the catalog by product ID: matched lines are
//     merged into a DisplayLine, orphans are dropped and reported
//
// Output order mirrors serverCart order; no re-sorting, no fabricated lines.
func Reconcile(serverCart []model.CartLine, catalog []model.Product) ([]model.DisplayLine, *Report) {
	report := &Report{}
	if serverCart == nil {
		return nil, report
	}

	// Index the catalog once for O(1) lookups
	byID := make(map[string]model.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	lines := make([]model.DisplayLine, 0, len(serverCart))
	for _, cl := range serverCart {
		p, ok := byID[cl.ProductID]
		if !ok {
			report.OrphanIDs = append(report.OrphanIDs, cl.ProductID)
			continue
		}
		lines = append(lines, MergeLine(cl, p))
	}
	return lines, report
}

// MergeLine combines a server cart line with its catalog product into a
// display line. The output shape is fully declared: quantity comes from the
// cart, everything else from the product. ProductID is present in both inputs
// and must agree; the cart's value wins by construction.
func MergeLine(line model.CartLine, p model.Product) model.DisplayLine {
	return model.DisplayLine{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Name:      p.Name,
		Category:  p.Category,
		CostCents: p.CostCents,
		Rating:    p.Rating,
		ImageURL:  p.ImageURL,
	}
}

// TotalValue returns the monetary total of the display cart in cents:
// the sum of quantity × cost over all lines. Nil or empty input yields 0.
func TotalValue(lines []model.DisplayLine) int64 {
	var total int64
	for _, l := range lines {
		total += int64(l.Quantity) * l.CostCents
	}
	return total
}

// TotalItems returns the sum of quantities over all lines.
// Nil or empty input yields 0.
func TotalItems(lines []model.DisplayLine) int {
	var total int
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// Totals computes the checkout summary for a display cart. Shipping is zero;
// the backend never charges it, but the checkout view renders the row.
func Totals(lines []model.DisplayLine) model.CartTotals {
	subtotal := TotalValue(lines)
	return model.CartTotals{
		Items:         TotalItems(lines),
		SubtotalCents: subtotal,
		ShippingCents: 0,
		TotalCents:    subtotal,
	}
}

// InCart reports whether productID already appears in the display cart.
// This is the guard that separates "add new item" (product card) from
// "adjust quantity" (cart panel): both funnel through the same cart update
// primitive, and only the former must reject duplicates.
func InCart(lines []model.DisplayLine, productID string) bool {
	for _, l := range lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}
