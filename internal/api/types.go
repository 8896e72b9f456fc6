package api

import "storefront/internal/model"

// Wire types for the storefront backend. Field names and shapes follow the
// backend's JSON exactly; transforms below convert to the canonical model
// types (money moves from major units to cents at this boundary).

// productDoc is one product as the backend serves it.
type productDoc struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`
	Rating   int     `json:"rating"`
	Image    string  `json:"image"`
}

// cartLineDoc is one cart entry as the backend persists it.
type cartLineDoc struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// cartUpdateRequest is the POST /cart body.
type cartUpdateRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// authRequest is the body for both login and register.
type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginDoc is the 201 response of POST /auth/login.
// Balance is the wallet amount in major units.
type loginDoc struct {
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// statusBody is the backend's error (and register success) envelope.
type statusBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toProduct(d productDoc) model.Product {
	return model.Product{
		ID:        d.ID,
		Name:      d.Name,
		Category:  d.Category,
		CostCents: model.CentsFromAmount(d.Cost),
		Rating:    d.Rating,
		ImageURL:  d.Image,
	}
}

func toProducts(docs []productDoc) []model.Product {
	products := make([]model.Product, len(docs))
	for i, d := range docs {
		products[i] = toProduct(d)
	}
	return products
}

func toCartLines(docs []cartLineDoc) []model.CartLine {
	lines := make([]model.CartLine, len(docs))
	for i, d := range docs {
		lines[i] = model.CartLine{ProductID: d.ProductID, Quantity: d.Qty}
	}
	return lines
}

func toCredentials(d loginDoc) model.Credentials {
	return model.Credentials{
		Token:        d.Token,
		Username:     d.Username,
		BalanceCents: model.CentsFromAmount(d.Balance),
	}
}
