package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/auth"
	"github.com/jwebchajari/Savia/internal/platform/httpx"
	"github.com/jwebchajari/Savia/internal/services"
)

const maxAdminRequestBody = 64 * 1024

// AdminHandlers expose product and store maintenance. Role checks run in the group
// middleware; handlers only require an identity for auditing.
type AdminHandlers struct {
	catalog services.CatalogService
	store   services.StoreService
}

// NewAdminHandlers constructs admin handlers.
func NewAdminHandlers(catalog services.CatalogService, store services.StoreService) *AdminHandlers {
	return &AdminHandlers{catalog: catalog, store: store}
}

// Routes registers admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
	r.Put("/store", h.updateStore)
}

type productRequest struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	CategoryID   string       `json:"categoryId"`
	CategoryName string       `json:"categoryName"`
	SaleMode     string       `json:"saleMode"`
	BasePrice    json.Number  `json:"basePrice"`
	OfferPrice   *json.Number `json:"offerPrice"`
	Available    *bool        `json:"available"`
	ImageURL     string       `json:"imageUrl"`
	GeneralOffer bool         `json:"generalOffer"`
	WeeklyOffer  bool         `json:"weeklyOffer"`
}

func (req productRequest) command(productID, actorID string) (services.UpsertProductCommand, error) {
	base, err := decimal.NewFromString(strings.TrimSpace(req.BasePrice.String()))
	if err != nil {
		return services.UpsertProductCommand{}, errors.New("basePrice must be a number")
	}
	cmd := services.UpsertProductCommand{
		ProductID:    productID,
		Name:         req.Name,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		SaleMode:     req.SaleMode,
		BasePrice:    base,
		Available:    req.Available,
		ImageURL:     req.ImageURL,
		GeneralOffer: req.GeneralOffer,
		WeeklyOffer:  req.WeeklyOffer,
		ActorID:      actorID,
	}
	if req.OfferPrice != nil && strings.TrimSpace(req.OfferPrice.String()) != "" {
		offer, err := decimal.NewFromString(strings.TrimSpace(req.OfferPrice.String()))
		if err != nil {
			return services.UpsertProductCommand{}, errors.New("offerPrice must be a number")
		}
		cmd.OfferPrice = decimal.NewNullDecimal(offer)
	}
	return cmd, nil
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "productID"))
}

func (h *AdminHandlers) saveProduct(w http.ResponseWriter, r *http.Request, productID string) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := httpx.DecodeJSON(r, maxAdminRequestBody, &req); err != nil {
		httpx.WriteDecodeError(ctx, w, err)
		return
	}
	cmd, err := req.command(strings.TrimSpace(productID), identity.UID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	view, err := h.catalog.UpsertProduct(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, newProductPayload(view))
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	err := h.catalog.DeleteProduct(ctx, services.DeleteProductCommand{
		ProductID: chi.URLParam(r, "productID"),
		ActorID:   identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type storeRequest struct {
	Address      string                `json:"address"`
	DeliveryCost json.Number           `json:"deliveryCost"`
	Social       socialPayload         `json:"social"`
	Hours        map[string]dayPayload `json:"hours"`
}

func (h *AdminHandlers) updateStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "store service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req storeRequest
	if err := httpx.DecodeJSON(r, maxAdminRequestBody, &req); err != nil {
		httpx.WriteDecodeError(ctx, w, err)
		return
	}

	var cost int64
	if raw := strings.TrimSpace(req.DeliveryCost.String()); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || !parsed.IsInteger() {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "deliveryCost must be a whole number", http.StatusBadRequest))
			return
		}
		cost = parsed.IntPart()
	}

	hours := make(domain.WeeklySchedule, len(req.Hours))
	for day, schedule := range req.Hours {
		slots := make([]domain.TimeRange, 0, len(schedule.Slots))
		for _, slot := range schedule.Slots {
			slots = append(slots, domain.TimeRange{From: slot.From, To: slot.To})
		}
		hours[domain.Weekday(strings.ToLower(strings.TrimSpace(day)))] = domain.DaySchedule{Closed: schedule.Closed, Slots: slots}
	}

	info, err := h.store.UpdateStoreInfo(ctx, services.UpdateStoreInfoCommand{
		Address:      req.Address,
		DeliveryCost: cost,
		Social: domain.SocialLinks{
			Instagram: req.Social.Instagram,
			WhatsApp:  req.Social.WhatsApp,
			Facebook:  req.Social.Facebook,
			Telegram:  req.Social.Telegram,
			Email:     req.Social.Email,
		},
		Hours:   hours,
		ActorID: identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newStorePayload(info))
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}
