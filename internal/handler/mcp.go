// MCP transport handler for the storefront gateway using the official MCP Go
// SDK. Exposes catalog and cart operations as MCP tools so agents can browse
// and shop through the same core the REST surface uses.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/storefront"
)

// === MCP Tool Input/Output Types ===

// ListProductsInput is the input schema for the list_products tool.
type ListProductsInput struct{}

// SearchProductsInput is the input schema for the search_products tool.
type SearchProductsInput struct {
	Value string `json:"value" jsonschema:"search text matched against product names and categories,required"`
}

// GetCartInput is the input schema for the get_cart tool.
type GetCartInput struct {
	Token string `json:"token,omitempty" jsonschema:"bearer token; omit to use the gateway session"`
}

// UpdateCartInput is the input schema for the update_cart tool.
type UpdateCartInput struct {
	Token            string `json:"token,omitempty" jsonschema:"bearer token; omit to use the gateway session"`
	ProductID        string `json:"productId" jsonschema:"product to set the quantity for,required"`
	Qty              int    `json:"qty" jsonschema:"desired quantity; zero removes the item,required"`
	PreventDuplicate bool   `json:"preventDuplicate,omitempty" jsonschema:"reject the update if the product is already in the cart"`
}

// ProductListOutput wraps a product list so the output schema is an object.
type ProductListOutput struct {
	Products []model.Product `json:"products"`
}

// CartOutput carries the reconciled cart plus its totals.
type CartOutput struct {
	Items  []model.DisplayLine `json:"items"`
	Totals model.CartTotals    `json:"totals"`
}

// NewMCPServer creates an MCP server with storefront tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront gateway - browse the product catalog and manage the cart. " +
				"All prices are in minor units (cents).",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List the full product catalog.",
	}, h.mcpListProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search products by name or category. An empty match is an error, not an empty list.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart merged with catalog data, including totals.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart",
		Description: "Set the quantity of a product in the cart. Quantity zero removes it.",
	}, h.mcpUpdateCart)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListProductsInput,
) (*mcp.CallToolResult, *ProductListOutput, error) {
	products, err := h.core.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &ProductListOutput{Products: products}, nil
}

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchProductsInput,
) (*mcp.CallToolResult, *ProductListOutput, error) {
	if input.Value == "" {
		return nil, nil, fmt.Errorf("value is required")
	}

	products, err := h.core.SearchNow(ctx, input.Value)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &ProductListOutput{Products: products}, nil
}

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	sess, err := h.mcpSession(ctx, input.Token)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	cart, err := h.core.Cart(ctx, sess)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if cart == nil {
		cart = []model.DisplayLine{}
	}
	return nil, &CartOutput{Items: cart, Totals: h.core.Totals()}, nil
}

func (h *Handler) mcpUpdateCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.ProductID == "" {
		return nil, nil, fmt.Errorf("productId is required")
	}

	sess, err := h.mcpSession(ctx, input.Token)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	cart, err := h.core.SetQuantity(ctx, sess, input.ProductID, input.Qty,
		storefront.UpdateOptions{PreventDuplicateAdd: input.PreventDuplicate})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if cart == nil {
		cart = []model.DisplayLine{}
	}
	return nil, &CartOutput{Items: cart, Totals: h.core.Totals()}, nil
}

// mcpSession resolves the session for a tool call: an explicit token wins,
// otherwise the gateway's stored session is used.
func (h *Handler) mcpSession(ctx context.Context, token string) (session.Session, error) {
	if token != "" {
		return session.Session{Token: token}, nil
	}
	return h.sessions.Load(ctx)
}

// mcpError converts core errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
