package storefront

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/session"
)

type updateCall struct {
	productID string
	qty       int
}

// fakeBackend scripts responses per operation and records every call.
type fakeBackend struct {
	mu sync.Mutex

	products    []model.Product
	productsErr error

	searchResults map[string][]model.Product
	searchErrs    map[string]error
	searchGates   map[string]chan struct{} // if set, SearchProducts blocks until closed

	cart    []model.CartLine
	cartErr error

	updateCart []model.CartLine
	updateErr  error

	listCalls   int
	fetchCalls  int
	searchCalls []string
	updateCalls []updateCall
}

func (f *fakeBackend) ListProducts(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.products, f.productsErr
}

func (f *fakeBackend) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	gate := f.searchGates[query]
	results := f.searchResults[query]
	err := f.searchErrs[query]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return results, err
}

func (f *fakeBackend) FetchCart(ctx context.Context, sess session.Session) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if sess.Anonymous() {
		return nil, nil
	}
	return f.cart, f.cartErr
}

func (f *fakeBackend) UpdateCart(ctx context.Context, sess session.Session, productID string, qty int) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, updateCall{productID, qty})
	return f.updateCart, f.updateErr
}

func (f *fakeBackend) recordedSearches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searchCalls...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testProducts() []model.Product {
	return []model.Product{
		{ID: "p1", Name: "Sledgehammer", Category: "Tools", CostCents: 10000, Rating: 4},
		{ID: "p2", Name: "Phone", Category: "Electronics", CostCents: 50000, Rating: 5},
	}
}

func authSession() session.Session {
	return session.Session{Token: "tok-1", Username: "crio.do", BalanceCents: 500000}
}

func TestBootstrap(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		cart:     []model.CartLine{{ProductID: "p2", Quantity: 2}},
	}
	svc := New(backend, testLogger())
	defer svc.Close()

	if err := svc.Bootstrap(context.Background(), authSession()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if got := len(svc.VisibleProducts()); got != 2 {
		t.Errorf("VisibleProducts() len = %d, want 2", got)
	}
	cart := svc.DisplayCart()
	if len(cart) != 1 {
		t.Fatalf("DisplayCart() len = %d, want 1", len(cart))
	}
	if cart[0].Name != "Phone" || cart[0].Quantity != 2 {
		t.Errorf("DisplayCart()[0] = %+v, want merged Phone x2", cart[0])
	}
}

func TestBootstrapAnonymousSkipsCartFetch(t *testing.T) {
	backend := &fakeBackend{products: testProducts()}
	svc := New(backend, testLogger())
	defer svc.Close()

	if err := svc.Bootstrap(context.Background(), session.Session{}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if got := svc.DisplayCart(); got != nil {
		t.Errorf("DisplayCart() = %v, want nil for anonymous session", got)
	}
}

func TestBootstrapCatalogFailureIsFatal(t *testing.T) {
	backend := &fakeBackend{productsErr: model.NewUpstreamError(errors.New("refused"))}
	svc := New(backend, testLogger())
	defer svc.Close()

	err := svc.Bootstrap(context.Background(), authSession())
	if !errors.Is(err, model.ErrUpstream) {
		t.Fatalf("Bootstrap() error = %v, want ErrUpstream", err)
	}
}

func TestBootstrapCartFailureDegradesToAnonymousView(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		cartErr:  model.NewUpstreamError(errors.New("timeout")),
	}
	svc := New(backend, testLogger())
	defer svc.Close()

	if err := svc.Bootstrap(context.Background(), authSession()); err != nil {
		t.Fatalf("Bootstrap() error = %v, want nil on cart failure", err)
	}
	if got := len(svc.VisibleProducts()); got != 2 {
		t.Errorf("VisibleProducts() len = %d, want 2", got)
	}
	if got := svc.DisplayCart(); got != nil {
		t.Errorf("DisplayCart() = %v, want nil", got)
	}
}

func TestSetQuantityAnonymousNoNetwork(t *testing.T) {
	backend := &fakeBackend{}
	svc := New(backend, testLogger())
	defer svc.Close()

	_, err := svc.SetQuantity(context.Background(), session.Session{}, "p1", 1, UpdateOptions{})
	if !errors.Is(err, model.ErrUnauthenticated) {
		t.Fatalf("SetQuantity() error = %v, want ErrUnauthenticated", err)
	}
	if len(backend.updateCalls) != 0 {
		t.Errorf("UpdateCart called %d times, want 0", len(backend.updateCalls))
	}
}

func TestSetQuantityDuplicateAddRejectedLocally(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		cart:     []model.CartLine{{ProductID: "p1", Quantity: 1}},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if err := svc.Bootstrap(context.Background(), authSession()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	_, err := svc.SetQuantity(context.Background(), authSession(), "p1", 1, UpdateOptions{PreventDuplicateAdd: true})
	if !errors.Is(err, model.ErrDuplicateItem) {
		t.Fatalf("SetQuantity() error = %v, want ErrDuplicateItem", err)
	}
	if len(backend.updateCalls) != 0 {
		t.Errorf("UpdateCart called %d times, want 0", len(backend.updateCalls))
	}
}

func TestSetQuantityAllowsAdjustingExistingLine(t *testing.T) {
	backend := &fakeBackend{
		products:   testProducts(),
		cart:       []model.CartLine{{ProductID: "p1", Quantity: 1}},
		updateCart: []model.CartLine{{ProductID: "p1", Quantity: 3}},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if err := svc.Bootstrap(context.Background(), authSession()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	// No duplicate guard: the cart panel adjusts lines already present.
	cart, err := svc.SetQuantity(context.Background(), authSession(), "p1", 3, UpdateOptions{})
	if err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if len(cart) != 1 || cart[0].Quantity != 3 {
		t.Errorf("SetQuantity() cart = %+v, want p1 x3", cart)
	}
}

func TestSetQuantityForwardsZero(t *testing.T) {
	backend := &fakeBackend{
		products:   testProducts(),
		updateCart: []model.CartLine{},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if err := svc.Bootstrap(context.Background(), authSession()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	cart, err := svc.SetQuantity(context.Background(), authSession(), "p1", 0, UpdateOptions{})
	if err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if len(backend.updateCalls) != 1 || backend.updateCalls[0].qty != 0 {
		t.Fatalf("updateCalls = %+v, want one call with qty 0", backend.updateCalls)
	}
	if cart == nil || len(cart) != 0 {
		t.Errorf("SetQuantity() cart = %v, want empty non-nil", cart)
	}
}

func TestSetQuantityFailureLeavesCartUnchanged(t *testing.T) {
	backend := &fakeBackend{
		products:  testProducts(),
		cart:      []model.CartLine{{ProductID: "p1", Quantity: 1}},
		updateErr: model.NewRejectedError("Product doesn't exist"),
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if err := svc.Bootstrap(context.Background(), authSession()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	before := svc.DisplayCart()

	_, err := svc.SetQuantity(context.Background(), authSession(), "bogus", 1, UpdateOptions{})
	if !errors.Is(err, model.ErrRejected) {
		t.Fatalf("SetQuantity() error = %v, want ErrRejected", err)
	}

	after := svc.DisplayCart()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("DisplayCart() = %+v after failed update, want unchanged %+v", after, before)
	}
}

func TestCartReconcilesDroppingOrphans(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		cart: []model.CartLine{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "gone", Quantity: 5},
		},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if _, err := svc.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	cart, err := svc.Cart(context.Background(), authSession())
	if err != nil {
		t.Fatalf("Cart() error = %v", err)
	}
	if len(cart) != 1 || cart[0].ProductID != "p1" {
		t.Errorf("Cart() = %+v, want only p1", cart)
	}
}

func TestSearchNowInstallsResults(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		searchResults: map[string][]model.Product{
			"phone": {{ID: "p2", Name: "Phone", CostCents: 50000}},
		},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if _, err := svc.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	results, err := svc.SearchNow(context.Background(), "phone")
	if err != nil {
		t.Fatalf("SearchNow() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != "p2" {
		t.Errorf("SearchNow() = %+v, want [p2]", results)
	}
	if got := svc.VisibleProducts(); len(got) != 1 {
		t.Errorf("VisibleProducts() len = %d, want 1", len(got))
	}
}

func TestSearchNowNoMatchClearsVisible(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		searchErrs: map[string]error{
			"zzz": model.NewNotFoundError("products"),
		},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if _, err := svc.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	_, err := svc.SearchNow(context.Background(), "zzz")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SearchNow() error = %v, want ErrNotFound", err)
	}
	got := svc.VisibleProducts()
	if got == nil || len(got) != 0 {
		t.Errorf("VisibleProducts() = %v, want empty non-nil", got)
	}
}

func TestSearchNowFailureLeavesVisibleUntouched(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		searchErrs: map[string]error{
			"phone": model.NewUpstreamError(errors.New("refused")),
		},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if _, err := svc.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	_, err := svc.SearchNow(context.Background(), "phone")
	if !errors.Is(err, model.ErrUpstream) {
		t.Fatalf("SearchNow() error = %v, want ErrUpstream", err)
	}
	if got := len(svc.VisibleProducts()); got != 2 {
		t.Errorf("VisibleProducts() len = %d, want full catalog retained", got)
	}
}

func TestStaleSearchResultDiscarded(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{
		searchResults: map[string][]model.Product{
			"slow": {{ID: "stale", Name: "Stale"}},
			"fast": {{ID: "fresh", Name: "Fresh"}},
		},
		searchGates: map[string]chan struct{}{"slow": gate},
	}
	svc := New(backend, testLogger())
	defer svc.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.SearchNow(context.Background(), "slow")
	}()

	// Wait until the slow search is in flight before superseding it.
	deadline := time.Now().Add(2 * time.Second)
	for len(backend.recordedSearches()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow search never dispatched")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := svc.SearchNow(context.Background(), "fast"); err != nil {
		t.Fatalf("SearchNow(fast) error = %v", err)
	}
	close(gate)
	<-done

	got := svc.VisibleProducts()
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("VisibleProducts() = %+v, want only the fresh result", got)
	}
}

func TestSearchDebouncesKeystrokes(t *testing.T) {
	backend := &fakeBackend{
		searchResults: map[string][]model.Product{
			"iphone": {{ID: "p9", Name: "iPhone"}},
		},
	}
	svc := NewWithWindow(backend, testLogger(), 100*time.Millisecond)
	defer svc.Close()

	svc.Search("i")
	svc.Search("ip")
	svc.Search("iphone")

	time.Sleep(400 * time.Millisecond)

	calls := backend.recordedSearches()
	if len(calls) != 1 || calls[0] != "iphone" {
		t.Fatalf("search calls = %v, want exactly [iphone]", calls)
	}
	got := svc.VisibleProducts()
	if len(got) != 1 || got[0].ID != "p9" {
		t.Errorf("VisibleProducts() = %+v, want debounced result installed", got)
	}
}

func TestTotals(t *testing.T) {
	backend := &fakeBackend{
		products: testProducts(),
		cart: []model.CartLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
	}
	svc := New(backend, testLogger())
	defer svc.Close()
	if err := svc.Bootstrap(context.Background(), authSession()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	totals := svc.Totals()
	if totals.Items != 3 {
		t.Errorf("Totals().Items = %d, want 3", totals.Items)
	}
	if totals.TotalCents != 70000 {
		t.Errorf("Totals().TotalCents = %d, want 70000", totals.TotalCents)
	}
	if totals.ShippingCents != 0 {
		t.Errorf("Totals().ShippingCents = %d, want 0", totals.ShippingCents)
	}
}
