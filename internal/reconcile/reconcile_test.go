package reconcile

import (
	"testing"

	"storefront/internal/model"
)

func sampleCatalog() []model.Product {
	return []model.Product{
		{ID: "v4sLtEcMpzabRyfx", Name: "iPhone XR", Category: "Phones", CostCents: 10000, Rating: 4, ImageURL: "https://img.example/phone.jpg"},
		{ID: "upLK9JbQ4rMhTwt4", Name: "Basketball", Category: "Sports", CostCents: 10000, Rating: 5, ImageURL: "https://img.example/ball.jpg"},
		{ID: "TwMM4OAhmK0VQ93S", Name: "UNIFACTOR Mens Running Shoes", Category: "Fashion", CostCents: 5000, Rating: 5, ImageURL: "https://img.example/shoes.jpg"},
	}
}

func TestReconcile_NilCart(t *testing.T) {
	lines, report := Reconcile(nil, sampleCatalog())

	if lines != nil {
		t.Errorf("Reconcile(nil, catalog) = %v, want nil", lines)
	}
	if report.HasOrphans() {
		t.Error("nil cart should not report orphans")
	}
}

func TestReconcile_EmptyCart(t *testing.T) {
	lines, _ := Reconcile([]model.CartLine{}, sampleCatalog())

	if lines == nil {
		t.Fatal("Reconcile([], catalog) = nil, want empty slice")
	}
	if len(lines) != 0 {
		t.Errorf("len = %d, want 0", len(lines))
	}
	if got := TotalValue(lines); got != 0 {
		t.Errorf("TotalValue = %d, want 0", got)
	}
	if got := TotalItems(lines); got != 0 {
		t.Errorf("TotalItems = %d, want 0", got)
	}
}

func TestReconcile_MergesMatchedLines(t *testing.T) {
	cart := []model.CartLine{
		{ProductID: "v4sLtEcMpzabRyfx", Quantity: 2},
		{ProductID: "TwMM4OAhmK0VQ93S", Quantity: 1},
	}

	lines, report := Reconcile(cart, sampleCatalog())

	if len(lines) != 2 {
		t.Fatalf("len = %d, want 2", len(lines))
	}
	if report.HasOrphans() {
		t.Errorf("unexpected orphans: %v", report.OrphanIDs)
	}

	first := lines[0]
	if first.ProductID != "v4sLtEcMpzabRyfx" {
		t.Errorf("ProductID = %s, want v4sLtEcMpzabRyfx", first.ProductID)
	}
	if first.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", first.Quantity)
	}
	if first.Name != "iPhone XR" {
		t.Errorf("Name = %s, want iPhone XR", first.Name)
	}
	if first.CostCents != 10000 {
		t.Errorf("CostCents = %d, want 10000", first.CostCents)
	}
	if first.Rating != 4 {
		t.Errorf("Rating = %d, want 4", first.Rating)
	}
	if first.ImageURL == "" {
		t.Error("ImageURL missing after merge")
	}
}

func TestReconcile_DropsOrphans(t *testing.T) {
	// "gone" was removed from the catalog after it was carted.
	cart := []model.CartLine{
		{ProductID: "upLK9JbQ4rMhTwt4", Quantity: 1},
		{ProductID: "gone", Quantity: 3},
	}

	lines, report := Reconcile(cart, sampleCatalog())

	if len(lines) != 1 {
		t.Fatalf("len = %d, want 1 (orphan dropped)", len(lines))
	}
	if lines[0].ProductID != "upLK9JbQ4rMhTwt4" {
		t.Errorf("surviving line = %s, want upLK9JbQ4rMhTwt4", lines[0].ProductID)
	}
	if !report.HasOrphans() {
		t.Fatal("expected orphan report")
	}
	if len(report.OrphanIDs) != 1 || report.OrphanIDs[0] != "gone" {
		t.Errorf("OrphanIDs = %v, want [gone]", report.OrphanIDs)
	}

	// Orphans never leak half-merged records: every emitted line has
	// product data attached.
	for _, l := range lines {
		if l.Name == "" || l.CostCents == 0 {
			t.Errorf("line %s missing product attributes", l.ProductID)
		}
	}
}

func TestReconcile_PreservesCartOrder(t *testing.T) {
	cart := []model.CartLine{
		{ProductID: "TwMM4OAhmK0VQ93S", Quantity: 1},
		{ProductID: "missing-1", Quantity: 9},
		{ProductID: "v4sLtEcMpzabRyfx", Quantity: 2},
		{ProductID: "upLK9JbQ4rMhTwt4", Quantity: 4},
	}

	lines, _ := Reconcile(cart, sampleCatalog())

	want := []string{"TwMM4OAhmK0VQ93S", "v4sLtEcMpzabRyfx", "upLK9JbQ4rMhTwt4"}
	if len(lines) != len(want) {
		t.Fatalf("len = %d, want %d", len(lines), len(want))
	}
	for i, id := range want {
		if lines[i].ProductID != id {
			t.Errorf("lines[%d].ProductID = %s, want %s", i, lines[i].ProductID, id)
		}
	}
}

func TestTotals(t *testing.T) {
	cart := []model.CartLine{
		{ProductID: "v4sLtEcMpzabRyfx", Quantity: 2}, // 2 × $100.00
		{ProductID: "TwMM4OAhmK0VQ93S", Quantity: 3}, // 3 × $50.00
	}
	lines, _ := Reconcile(cart, sampleCatalog())

	if got := TotalValue(lines); got != 35000 {
		t.Errorf("TotalValue = %d, want 35000", got)
	}
	if got := TotalItems(lines); got != 5 {
		t.Errorf("TotalItems = %d, want 5", got)
	}

	totals := Totals(lines)
	if totals.SubtotalCents != 35000 {
		t.Errorf("SubtotalCents = %d, want 35000", totals.SubtotalCents)
	}
	if totals.ShippingCents != 0 {
		t.Errorf("ShippingCents = %d, want 0", totals.ShippingCents)
	}
	if totals.TotalCents != 35000 {
		t.Errorf("TotalCents = %d, want 35000", totals.TotalCents)
	}
	if totals.Items != 5 {
		t.Errorf("Items = %d, want 5", totals.Items)
	}
}

func TestTotals_NilInput(t *testing.T) {
	if got := TotalValue(nil); got != 0 {
		t.Errorf("TotalValue(nil) = %d, want 0", got)
	}
	if got := TotalItems(nil); got != 0 {
		t.Errorf("TotalItems(nil) = %d, want 0", got)
	}
}

func TestInCart(t *testing.T) {
	lines := []model.DisplayLine{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 2},
	}

	if !InCart(lines, "a") {
		t.Error("InCart(a) = false, want true")
	}
	if InCart(lines, "c") {
		t.Error("InCart(c) = true, want false")
	}
	if InCart(nil, "a") {
		t.Error("InCart on nil cart = true, want false")
	}
}
