package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/services"
)

func newCartRouter(carts *stubCartService) http.Handler {
	h := NewCartHandlers(carts)
	return NewRouter(
		WithCartMiddlewares(h.SessionMiddleware()),
		WithCartRoutes(h.Routes),
	)
}

func sampleCart() domain.Cart {
	return domain.Cart{
		Lines: []domain.CartLine{{
			Key:           domain.LineKey("queso", "250g"),
			ProductID:     "queso",
			Name:          "Queso azul",
			SaleMode:      domain.SaleModeByWeight,
			Amount:        250,
			AmountLabel:   "250g",
			Quantity:      2,
			UnitPriceUsed: decimal.NewFromInt(4000),
			PackPrice:     1000,
		}},
		DeliveryMethod: domain.DeliveryPickup,
		Version:        3,
		UpdatedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCartGetMintsSessionWhenMissing(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	rr := serve(newCartRouter(carts), httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get(CartSessionHeader); got != "minted-session" {
		t.Fatalf("expected minted session header, got %q", got)
	}
	if carts.calls[0].sessionID != "minted-session" {
		t.Fatalf("expected service to receive minted session, got %+v", carts.calls[0])
	}
	if rr.Header().Get("Cache-Control") == "" || rr.Header().Get("Last-Modified") == "" {
		t.Fatalf("expected cache headers, got %v", rr.Header())
	}

	body := decodeBody(t, rr)
	if body["subtotal"] != float64(2000) || body["itemCount"] != float64(2) || body["version"] != float64(3) {
		t.Fatalf("unexpected cart payload %v", body)
	}
	line := body["lines"].([]any)[0].(map[string]any)
	if line["lineTotal"] != float64(2000) || line["unitPrice"] != float64(4000) || line["key"] != "queso@250g" {
		t.Fatalf("unexpected line payload %v", line)
	}
}

func TestCartReusesProvidedSession(t *testing.T) {
	carts := &stubCartService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, " abc ")
	rr := serve(newCartRouter(carts), req)

	if carts.ids != 0 {
		t.Fatalf("expected no session to be minted")
	}
	if carts.calls[0].sessionID != "abc" || rr.Header().Get(CartSessionHeader) != "abc" {
		t.Fatalf("expected trimmed session to be used and echoed, got %+v / %q", carts.calls[0], rr.Header().Get(CartSessionHeader))
	}
}

func TestCartAddItemDecodesAmount(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":" queso ","amount":237,"snap":true}`))
	req.Header.Set(CartSessionHeader, "s1")
	rr := serve(newCartRouter(carts), req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	add := carts.calls[0].add
	if add.SessionID != "s1" || add.ProductID != "queso" || !add.Snap {
		t.Fatalf("unexpected command %+v", add)
	}
	if number, ok := add.Amount.(json.Number); !ok || number.String() != "237" {
		t.Fatalf("expected json number amount, got %#v", add.Amount)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "empty body", body: "", want: http.StatusBadRequest},
		{name: "unknown field", body: `{"productId":"a","price":1}`, want: http.StatusBadRequest},
		{name: "missing product", body: `{"amount":100}`, want: http.StatusBadRequest},
		{name: "not purchasable", body: `{"productId":"a","amount":0}`, err: services.ErrCartItemNotPurchasable, want: http.StatusUnprocessableEntity},
		{name: "unknown product", body: `{"productId":"a"}`, err: services.ErrCartProductNotFound, want: http.StatusNotFound},
		{name: "conflict", body: `{"productId":"a"}`, err: services.ErrCartConflict, want: http.StatusConflict},
		{name: "store down", body: `{"productId":"a"}`, err: services.ErrCartUnavailable, want: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			carts := &stubCartService{}
			if tc.err != nil {
				carts.err = fmt.Errorf("%w: detail", tc.err)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(tc.body))
			req.Header.Set(CartSessionHeader, "s1")
			rr := serve(newCartRouter(carts), req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCartLineOperationsUnescapeKey(t *testing.T) {
	cases := []struct {
		method string
		path   string
		op     string
	}{
		{method: http.MethodPost, path: "/api/v1/cart/items/queso%40250g/increment", op: "increment"},
		{method: http.MethodPost, path: "/api/v1/cart/items/queso%40250g/decrement", op: "decrement"},
		{method: http.MethodDelete, path: "/api/v1/cart/items/queso%401500g", op: "remove"},
	}

	for _, tc := range cases {
		carts := &stubCartService{}
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set(CartSessionHeader, "s1")
		rr := serve(newCartRouter(carts), req)

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.path, rr.Code)
		}
		call := carts.calls[0]
		if call.op != tc.op || !strings.HasPrefix(call.lineKey, "queso@") {
			t.Fatalf("%s: unexpected call %+v", tc.path, call)
		}
	}

	carts := &stubCartService{err: services.ErrCartNotFound}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items/missing/increment", nil)
	req.Header.Set(CartSessionHeader, "s1")
	if rr := serve(newCartRouter(carts), req); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing line, got %d", rr.Code)
	}
}

func TestCartSetDelivery(t *testing.T) {
	carts := &stubCartService{}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/delivery", strings.NewReader(`{"method":"domicilio"}`))
	req.Header.Set(CartSessionHeader, "s1")
	rr := serve(newCartRouter(carts), req)
	if rr.Code != http.StatusOK || carts.calls[0].method != domain.DeliveryHome {
		t.Fatalf("expected home delivery, got %d %+v", rr.Code, carts.calls)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/cart/delivery", strings.NewReader(`{"method":"drone"}`))
	req.Header.Set(CartSessionHeader, "s1")
	if rr := serve(newCartRouter(carts), req); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown method, got %d", rr.Code)
	}
}

func TestCartClear(t *testing.T) {
	carts := &stubCartService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, "s1")
	rr := serve(newCartRouter(carts), req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if carts.calls[0].op != "clear" || carts.calls[0].sessionID != "s1" {
		t.Fatalf("unexpected call %+v", carts.calls[0])
	}
}

func TestCartHandlersWithoutMiddlewareFallBackToHeader(t *testing.T) {
	carts := &stubCartService{}
	h := NewCartHandlers(carts)
	router := NewRouter(WithCartRoutes(h.Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, "raw")
	rr := serve(router, req)
	if carts.calls[0].sessionID != "raw" || rr.Header().Get(CartSessionHeader) != "raw" {
		t.Fatalf("expected raw header session, got %+v", carts.calls[0])
	}
}
