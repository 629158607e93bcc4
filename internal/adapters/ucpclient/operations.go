package ucpclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"ucp-debugger/internal/domain"
)

func (c *Client) Discover(ctx context.Context, txID string) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionDiscover, Method: http.MethodGet, Path: "/.well-known/ucp", TransactionID: txID})
}

func (c *Client) CreateCheckout(ctx context.Context, txID string, body any) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionCreateCheckout, Method: http.MethodPost, Path: "/checkout-sessions", Body: body, TransactionID: txID})
}

func (c *Client) GetCheckout(ctx context.Context, txID, id string) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionGetCheckout, Method: http.MethodGet, Path: "/checkout-sessions/" + escape(id), TransactionID: txID})
}

func (c *Client) UpdateCheckout(ctx context.Context, txID, id string, body any) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionUpdateCheckout, Method: http.MethodPatch, Path: "/checkout-sessions/" + escape(id), Body: body, TransactionID: txID})
}

func (c *Client) CompleteCheckout(ctx context.Context, txID, id string, body any) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionCompleteCheckout, Method: http.MethodPost, Path: "/checkout-sessions/" + escape(id) + "/complete", Body: body, TransactionID: txID})
}

func (c *Client) CancelCheckout(ctx context.Context, txID, id string) (Result, error) {
	body := map[string]any{"idempotency_key": uuid.NewString()}
	return c.Do(ctx, Call{Action: domain.ActionCancelCheckout, Method: http.MethodPost, Path: "/checkout-sessions/" + escape(id) + "/cancel", Body: body, TransactionID: txID})
}

func (c *Client) GetOrder(ctx context.Context, txID, id string) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionGetOrder, Method: http.MethodGet, Path: "/orders/" + escape(id), TransactionID: txID})
}

func (c *Client) CreateCart(ctx context.Context, txID string) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionCreateCart, Method: http.MethodPost, Path: "/carts", Body: map[string]any{}, TransactionID: txID})
}

func (c *Client) GetCart(ctx context.Context, txID, id string) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionGetCart, Method: http.MethodGet, Path: "/carts/" + escape(id), TransactionID: txID})
}

func (c *Client) AddToCart(ctx context.Context, txID, cartID string, body any) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionAddToCart, Method: http.MethodPost, Path: "/carts/" + escape(cartID) + "/items", Body: body, TransactionID: txID})
}

func (c *Client) GetProducts(ctx context.Context, txID string) (Result, error) {
	return c.Do(ctx, Call{Action: domain.ActionGetProducts, Method: http.MethodGet, Path: "/products", TransactionID: txID})
}
