package catalog

import (
	"testing"

	"storefront/internal/model"
)

func TestCache_ReplaceAndGet(t *testing.T) {
	c := NewCache()

	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get on empty cache returned ok")
	}

	c.Replace([]model.Product{
		{ID: "a", Name: "Alpha", CostCents: 100},
		{ID: "b", Name: "Beta", CostCents: 200},
	})

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	p, ok := c.Get("b")
	if !ok {
		t.Fatal("Get(b) not found")
	}
	if p.Name != "Beta" {
		t.Errorf("Name = %s, want Beta", p.Name)
	}

	// Replace is wholesale - old entries disappear
	c.Replace([]model.Product{{ID: "c", Name: "Gamma"}})
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) found after replace")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_AllPreservesFetchOrder(t *testing.T) {
	c := NewCache()
	c.Replace([]model.Product{{ID: "z"}, {ID: "a"}, {ID: "m"}})

	all := c.All()
	want := []string{"z", "a", "m"}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("All()[%d].ID = %s, want %s", i, all[i].ID, id)
		}
	}
}
