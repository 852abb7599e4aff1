package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/httpx"
	"github.com/jwebchajari/Savia/internal/platform/requestctx"
	"github.com/jwebchajari/Savia/internal/services"
)

const maxCheckoutBodySize = 16 * 1024

// CheckoutHandlers expose the order preview and the WhatsApp handoff.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes registers checkout endpoints.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/preview", h.preview)
	r.Post("/complete", h.complete)
}

type checkoutRequest struct {
	Method  string `json:"method"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (h *CheckoutHandlers) preview(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, false)
}

func (h *CheckoutHandlers) complete(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, true)
}

func (h *CheckoutHandlers) handle(w http.ResponseWriter, r *http.Request, complete bool) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	session, ok := requestctx.CartSession(ctx)
	if !ok {
		session = strings.TrimSpace(r.Header.Get(CartSessionHeader))
	}
	if session == "" {
		httpx.WriteError(ctx, w, httpx.NewError("cart_session_required", "missing "+CartSessionHeader+" header", http.StatusBadRequest))
		return
	}

	var req checkoutRequest
	if err := httpx.DecodeJSON(r, maxCheckoutBodySize, &req); err != nil {
		httpx.WriteDecodeError(ctx, w, err)
		return
	}

	cmd := services.CheckoutCommand{SessionID: session, Address: req.Address, Notes: req.Notes}
	if strings.TrimSpace(req.Method) != "" {
		method, ok := domain.ParseDeliveryMethod(req.Method)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "method must be pickup or homeDelivery", http.StatusBadRequest))
			return
		}
		cmd.Method = method
	}

	var (
		preview services.CheckoutPreview
		err     error
	)
	if complete {
		preview, err = h.checkout.CompleteCheckout(ctx, cmd)
	} else {
		preview, err = h.checkout.PreviewOrder(ctx, cmd)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.NoStore(w)
	writeJSONResponse(w, http.StatusOK, newCheckoutPayload(preview))
}
