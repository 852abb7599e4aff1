package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/httpx"
	"github.com/jwebchajari/Savia/internal/platform/requestctx"
	"github.com/jwebchajari/Savia/internal/services"
)

// CartSessionHeader carries the opaque cart session id in both directions.
const CartSessionHeader = "X-Cart-Session"

const maxCartBodySize = 16 * 1024

// SessionMiddleware resolves the cart session from the request header, minting a new
// one when absent, and echoes it on the response.
func SessionMiddleware(newID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := strings.TrimSpace(r.Header.Get(CartSessionHeader))
			if session == "" && newID != nil {
				session = newID()
			}
			if session != "" {
				w.Header().Set(CartSessionHeader, session)
				r = r.WithContext(requestctx.WithCartSession(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CartHandlers exposes the anonymous, session-scoped cart.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers constructs cart handlers.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// SessionMiddleware returns the session resolver backed by the cart service's id generator.
func (h *CartHandlers) SessionMiddleware() func(http.Handler) http.Handler {
	if h == nil || h.carts == nil {
		return SessionMiddleware(nil)
	}
	return SessionMiddleware(h.carts.NewSessionID)
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Post("/items/{lineKey}/increment", h.incrementItem)
	r.Post("/items/{lineKey}/decrement", h.decrementItem)
	r.Delete("/items/{lineKey}", h.removeItem)
	r.Put("/delivery", h.setDelivery)
}

// sessionID returns the session resolved by SessionMiddleware, falling back to the
// raw header, then to a new id.
func (h *CartHandlers) sessionID(w http.ResponseWriter, r *http.Request) string {
	if session, ok := requestctx.CartSession(r.Context()); ok {
		return session
	}
	session := strings.TrimSpace(r.Header.Get(CartSessionHeader))
	if session == "" {
		session = h.carts.NewSessionID()
	}
	w.Header().Set(CartSessionHeader, session)
	return session
}

func (h *CartHandlers) available(w http.ResponseWriter, r *http.Request) bool {
	if h.carts == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return false
	}
	return true
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	cart, err := h.carts.GetCart(ctx, h.sessionID(w, r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Amount    any    `json:"amount"`
	Snap      bool   `json:"snap"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	session := h.sessionID(w, r)

	var req addItemRequest
	if err := httpx.DecodeJSON(r, maxCartBodySize, &req); err != nil {
		httpx.WriteDecodeError(ctx, w, err)
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productId is required", http.StatusBadRequest))
		return
	}
	cart, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		SessionID: session,
		ProductID: productID,
		Amount:    req.Amount,
		Snap:      req.Snap,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}

type lineOp int

const (
	lineIncrement lineOp = iota
	lineDecrement
	lineRemove
)

func (h *CartHandlers) incrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, lineIncrement)
}

func (h *CartHandlers) decrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, lineDecrement)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, lineRemove)
}

func (h *CartHandlers) mutateLine(w http.ResponseWriter, r *http.Request, op lineOp) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	session := h.sessionID(w, r)

	lineKey, err := url.PathUnescape(chi.URLParam(r, "lineKey"))
	if err != nil || strings.TrimSpace(lineKey) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid line key", http.StatusBadRequest))
		return
	}

	var cart domain.Cart
	switch op {
	case lineIncrement:
		cart, err = h.carts.IncrementItem(ctx, session, lineKey)
	case lineDecrement:
		cart, err = h.carts.DecrementItem(ctx, session, lineKey)
	default:
		cart, err = h.carts.RemoveItem(ctx, session, lineKey)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}

type deliveryRequest struct {
	Method string `json:"method"`
}

func (h *CartHandlers) setDelivery(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	session := h.sessionID(w, r)

	var req deliveryRequest
	if err := httpx.DecodeJSON(r, maxCartBodySize, &req); err != nil {
		httpx.WriteDecodeError(ctx, w, err)
		return
	}
	method, ok := domain.ParseDeliveryMethod(req.Method)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "method must be pickup or homeDelivery", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.SetDeliveryMethod(ctx, session, method)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeCart(w, http.StatusOK, cart)
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.carts.ClearCart(ctx, h.sessionID(w, r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.NoStore(w)
	w.WriteHeader(http.StatusNoContent)
}

func writeCart(w http.ResponseWriter, status int, cart domain.Cart) {
	httpx.NoStore(w)
	if !cart.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", cart.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	writeJSONResponse(w, status, newCartPayload(cart))
}
