// Package handler provides the HTTP surface of the storefront gateway.
//
// The gateway serves the same resource shapes as the store backend (products,
// cart, auth) but runs them through the storefront core first: carts come
// back reconciled against the catalog, money in minor units, with totals
// computed locally.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/storefront"
)

// Core is the slice of the storefront service the handlers need.
// *storefront.Service implements it; tests substitute fakes.
type Core interface {
	LoadCatalog(ctx context.Context) ([]model.Product, error)
	SearchNow(ctx context.Context, query string) ([]model.Product, error)
	Cart(ctx context.Context, sess session.Session) ([]model.DisplayLine, error)
	SetQuantity(ctx context.Context, sess session.Session, productID string, qty int, opts storefront.UpdateOptions) ([]model.DisplayLine, error)
	Totals() model.CartTotals
}

// Auth performs credential operations against the backend.
// *api.Client implements it.
type Auth interface {
	Login(ctx context.Context, username, password string) (model.Credentials, error)
	Register(ctx context.Context, username, password string) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	core     Core
	auth     Auth
	sessions session.Store
	logger   *slog.Logger
}

// New creates a Handler with the given core, auth client, session store and
// logger.
func New(core Core, auth Auth, sessions session.Store, logger *slog.Logger) *Handler {
	return &Handler{
		core:     core,
		auth:     auth,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("GET /products/search", h.handleSearchProducts)

	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /cart", h.handleUpdateCart)
	mux.HandleFunc("GET /cart/totals", h.handleCartTotals)

	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.HandleFunc("GET /me", h.handleMe)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.core.LoadCatalog(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("value")
	products, err := h.core.SearchNow(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.requestSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	cart, err := h.core.Cart(r.Context(), sess)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if cart == nil {
		cart = []model.DisplayLine{}
	}
	h.writeJSON(w, http.StatusOK, cart)
}

// cartUpdateRequest is the POST /cart body. PreventDuplicate distinguishes
// "add new item" actions (product cards) from quantity adjustments (cart
// panel): only the former rejects products already in the cart.
type cartUpdateRequest struct {
	ProductID        string `json:"productId"`
	Qty              int    `json:"qty"`
	PreventDuplicate bool   `json:"preventDuplicate,omitempty"`
}

func (h *Handler) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.requestSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req cartUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ProductID == "" {
		h.writeError(w, model.NewValidationError("productId", "is a required field"))
		return
	}

	cart, err := h.core.SetQuantity(r.Context(), sess, req.ProductID, req.Qty,
		storefront.UpdateOptions{PreventDuplicateAdd: req.PreventDuplicate})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if cart == nil {
		cart = []model.DisplayLine{}
	}
	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) handleCartTotals(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.core.Totals())
}

// authRequest is the POST /auth/login and /auth/register body.
type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	creds, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.sessions.Save(r.Context(), session.FromCredentials(creds)); err != nil {
		h.logger.Error("failed to persist session", slog.String("error", err.Error()))
		h.writeError(w, model.NewInternalError(err))
		return
	}

	h.writeJSON(w, http.StatusCreated, creds)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, statusResponse{Success: true, Message: "Registered successfully"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		h.writeError(w, model.NewInternalError(err))
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Logged out"})
}

// meResponse describes the gateway's current session: who is logged in and
// their wallet balance in minor units.
type meResponse struct {
	Anonymous    bool   `json:"anonymous"`
	Username     string `json:"username,omitempty"`
	BalanceCents int64  `json:"balance_cents,omitempty"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Load(r.Context())
	if err != nil {
		h.writeError(w, model.NewInternalError(err))
		return
	}
	h.writeJSON(w, http.StatusOK, meResponse{
		Anonymous:    sess.Anonymous(),
		Username:     sess.Username,
		BalanceCents: sess.BalanceCents,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "ok"})
}

// requestSession resolves the session for a request. An Authorization bearer
// token overrides the stored session, so API callers can act for a user the
// gateway has not logged in.
func (h *Handler) requestSession(r *http.Request) (session.Session, error) {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
		return session.Session{Token: auth[7:]}, nil
	}
	return h.sessions.Load(r.Context())
}

// === Response Helpers ===

// statusResponse is the envelope for responses that carry no resource,
// mirroring the backend's {success, message} shape.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/message from APIError
// if present. Uses errors.As() to unwrap error chains.
// The envelope matches the backend's error shape: {success: false, message}.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, statusResponse{
		Success: false,
		Message: apiErr.Message,
	})
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "is not valid JSON")
	}
	return nil
}
