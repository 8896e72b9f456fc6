// Package storefront composes the backend client, catalog cache, cart
// reconciler and search debouncer into the client-side storefront core.
//
// The service holds the view state an interactive surface renders: the
// display cart and the currently visible product list. The backend stays
// authoritative for everything persistent: every mutation installs whatever
// cart the server last returned, and every install re-runs reconciliation
// against the current catalog snapshot. Completions are applied under one
// lock in arrival order (last writer wins), which is the consistency level
// this interactive flow needs: a transiently stale cart is acceptable, a
// half-merged one is not.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/debounce"
	"storefront/internal/model"
	"storefront/internal/reconcile"
	"storefront/internal/session"
)

// Backend is the slice of the API client the core needs. *api.Client
// implements it; tests substitute fakes.
type Backend interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
	FetchCart(ctx context.Context, sess session.Session) ([]model.CartLine, error)
	UpdateCart(ctx context.Context, sess session.Session, productID string, qty int) ([]model.CartLine, error)
}

// UpdateOptions controls SetQuantity behavior.
type UpdateOptions struct {
	// PreventDuplicateAdd rejects the update locally if the product is
	// already in the display cart. Set by "add to cart" buttons on product
	// cards; quantity adjustments from the cart panel leave it unset.
	PreventDuplicateAdd bool
}

// Service is the storefront core. Safe for concurrent use.
type Service struct {
	backend  Backend
	catalog  *catalog.Cache
	logger   *slog.Logger
	searcher *debounce.Debouncer

	searchTimeout time.Duration

	mu          sync.Mutex
	serverCart  []model.CartLine    // last authoritative cart, nil = never fetched / anonymous
	displayCart []model.DisplayLine // serverCart reconciled against the catalog
	visible     []model.Product     // current product list (full catalog or search results)
	searchGen   uint64              // fences stale search completions
}

// New creates a storefront core using the default search debounce window.
func New(backend Backend, logger *slog.Logger) *Service {
	return NewWithWindow(backend, logger, debounce.DefaultWindow)
}

// NewWithWindow creates a storefront core with an explicit debounce window.
func NewWithWindow(backend Backend, logger *slog.Logger, window time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		backend:       backend,
		catalog:       catalog.NewCache(),
		logger:        logger,
		searchTimeout: 30 * time.Second,
	}
	s.searcher = debounce.New(window, s.debouncedSearch)
	return s
}

// Close stops the search debouncer. Pending (unfired) searches are dropped;
// searches already dispatched to the network run to completion.
func (s *Service) Close() {
	s.searcher.Stop()
}

// Bootstrap performs session start: the catalog fetch and the cart fetch run
// concurrently, and reconciliation happens only once both have resolved.
// An anonymous session resolves the cart side to nil without a network call.
// A cart fetch failure degrades to an anonymous view rather than failing the
// whole startup; a catalog failure is fatal since nothing can render.
func (s *Service) Bootstrap(ctx context.Context, sess session.Session) error {
	var (
		products []model.Product
		lines    []model.CartLine

		productsErr error
		cartErr     error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		products, productsErr = s.backend.ListProducts(ctx)
	}()
	go func() {
		defer wg.Done()
		lines, cartErr = s.backend.FetchCart(ctx, sess)
	}()
	wg.Wait()

	if productsErr != nil {
		return productsErr
	}
	if cartErr != nil {
		s.logger.Warn("cart fetch failed at startup, continuing without cart",
			slog.String("error", cartErr.Error()))
		lines = nil
	}

	s.catalog.Replace(products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = products
	s.installCartLocked(lines)
	return nil
}

// LoadCatalog re-fetches the full catalog, replaces the cache snapshot, and
// recomputes both the visible list and the display cart.
func (s *Service) LoadCatalog(ctx context.Context) ([]model.Product, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.catalog.Replace(products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = products
	s.installCartLocked(s.serverCart)
	return products, nil
}

// Cart fetches the session's server cart and installs the reconciled display
// cart. An anonymous session yields (nil, nil) without a network call.
func (s *Service) Cart(ctx context.Context, sess session.Session) ([]model.DisplayLine, error) {
	lines, err := s.backend.FetchCart(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.installCartLocked(lines)
	return cloneLines(s.displayCart), nil
}

// SetQuantity submits a quantity change for one product and installs the
// server's returned cart as the new display cart.
//
// Local guards, both checked before any network call:
//   - an anonymous session is rejected with the login warning
//   - with PreventDuplicateAdd set, a product already in the display cart is
//     rejected with the duplicate-add signal
//
// qty is forwarded as-is, zero included. On any failure the previous display
// cart is left untouched.
func (s *Service) SetQuantity(ctx context.Context, sess session.Session, productID string, qty int, opts UpdateOptions) ([]model.DisplayLine, error) {
	if sess.Anonymous() {
		return nil, model.NewUnauthenticatedError("add item to Cart")
	}

	if opts.PreventDuplicateAdd {
		s.mu.Lock()
		dup := reconcile.InCart(s.displayCart, productID)
		s.mu.Unlock()
		if dup {
			return nil, model.NewDuplicateItemError()
		}
	}

	lines, err := s.backend.UpdateCart(ctx, sess, productID, qty)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.installCartLocked(lines)
	return cloneLines(s.displayCart), nil
}

// Search records a keystroke. The query is dispatched to the backend once
// input has been quiet for the debounce window; rapid triggers coalesce into
// a single request carrying the latest value.
func (s *Service) Search(query string) {
	s.searcher.Trigger(query)
}

// SearchNow performs a search immediately, bypassing the debouncer.
//
// An empty match (backend 404) clears the visible list and returns
// model.ErrNotFound so the caller can show "no products found". Any other
// failure leaves the visible list at its prior value. A completion for a
// query superseded by a newer search is discarded.
func (s *Service) SearchNow(ctx context.Context, query string) ([]model.Product, error) {
	s.mu.Lock()
	s.searchGen++
	gen := s.searchGen
	s.mu.Unlock()

	products, err := s.backend.SearchProducts(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.searchGen {
		// A newer search was dispatched while this one was in flight;
		// its result owns the visible list.
		return nil, nil
	}

	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.visible = []model.Product{}
			return nil, err
		}
		return nil, err
	}

	s.visible = products
	return products, nil
}

// debouncedSearch is the debouncer's dispatch target. Failures surface to
// the log; the not-found case is informational, everything else is an error.
func (s *Service) debouncedSearch(query string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.searchTimeout)
	defer cancel()

	if _, err := s.SearchNow(ctx, query); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Info("no products found", slog.String("query", query))
			return
		}
		s.logger.Error("search failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
	}
}

// DisplayCart returns the current display cart. Nil means no cart state
// exists (anonymous or never fetched); empty means a fetched, empty cart.
func (s *Service) DisplayCart() []model.DisplayLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.displayCart)
}

// VisibleProducts returns the product list a listing surface should render:
// the full catalog, or the latest search results.
func (s *Service) VisibleProducts() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Product(nil), s.visible...)
}

// Totals returns the aggregate summary of the current display cart.
func (s *Service) Totals() model.CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reconcile.Totals(s.displayCart)
}

// Catalog exposes the catalog cache for read-only lookups.
func (s *Service) Catalog() *catalog.Cache {
	return s.catalog
}

// installCartLocked stores the authoritative server cart and recomputes the
// display cart against the current catalog snapshot. Callers hold s.mu.
func (s *Service) installCartLocked(lines []model.CartLine) {
	s.serverCart = lines
	display, report := reconcile.Reconcile(lines, s.catalog.All())
	if report.HasOrphans() {
		s.logger.Warn("dropped cart lines with no catalog entry",
			slog.Any("product_ids", report.OrphanIDs))
	}
	s.displayCart = display
}

// cloneLines copies a display cart so callers cannot alias internal state.
// Nil stays nil: the "no cart" state survives the copy.
func cloneLines(lines []model.DisplayLine) []model.DisplayLine {
	if lines == nil {
		return nil
	}
	return append([]model.DisplayLine(nil), lines...)
}
