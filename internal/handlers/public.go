package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/httpx"
	"github.com/jwebchajari/Savia/internal/platform/pagination"
	"github.com/jwebchajari/Savia/internal/services"
)

const publicCacheControl = "public, max-age=60"

// PublicHandlers serves the anonymous catalog and store endpoints.
type PublicHandlers struct {
	catalog services.CatalogService
	store   services.StoreService
	clock   func() time.Time
	paging  pagination.Options
}

// PublicOption customises PublicHandlers.
type PublicOption func(*PublicHandlers)

// WithPublicClock overrides the clock used for the store status.
func WithPublicClock(clock func() time.Time) PublicOption {
	return func(h *PublicHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithPublicPagination overrides the page size limits of the product listing.
func WithPublicPagination(opts pagination.Options) PublicOption {
	return func(h *PublicHandlers) {
		h.paging = opts
	}
}

// NewPublicHandlers constructs the public handlers.
func NewPublicHandlers(catalog services.CatalogService, store services.StoreService, opts ...PublicOption) *PublicHandlers {
	h := &PublicHandlers{catalog: catalog, store: store, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the public endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/products/{productID}/quote", h.quoteProduct)
	r.Get("/recommended", h.recommended)
	r.Get("/categories", h.listCategories)
	r.Get("/store", h.getStore)
	r.Get("/store/status", h.storeStatus)
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := domain.ProductFilter{
		CategorySlug: strings.TrimSpace(query.Get("category")),
		Offer:        domain.OfferKind(strings.ToLower(strings.TrimSpace(query.Get("offer")))),
		Query:        strings.TrimSpace(query.Get("q")),
	}
	if raw := strings.TrimSpace(query.Get("includeUnavailable")); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "includeUnavailable must be a boolean", http.StatusBadRequest))
			return
		}
		filter.IncludeUnavailable = include
	}

	page, err := pagination.FromRequest(r, h.paging)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	views, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items, next := pagination.Slice(views, page)
	w.Header().Set("Cache-Control", publicCacheControl)
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Items:         newProductPayloads(items),
		NextPageToken: next,
	})
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	view, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Cache-Control", publicCacheControl)
	writeJSONResponse(w, http.StatusOK, newProductPayload(view))
}

func (h *PublicHandlers) quoteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	snap, err := parseOptionalBool(query.Get("snap"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "snap must be a boolean", http.StatusBadRequest))
		return
	}
	var amount any
	if query.Has("amount") {
		amount = query.Get("amount")
	}

	quote, err := h.catalog.QuoteProduct(ctx, services.QuoteCommand{
		ProductID: chi.URLParam(r, "productID"),
		Amount:    amount,
		Snap:      snap,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newQuotePayload(quote))
}

type productItemsResponse struct {
	Items []productPayload `json:"items"`
}

func (h *PublicHandlers) recommended(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}
	var exclude []string
	for _, raw := range query["exclude"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				exclude = append(exclude, id)
			}
		}
	}

	views, err := h.catalog.Recommended(ctx, limit, exclude)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.NoStore(w)
	writeJSONResponse(w, http.StatusOK, productItemsResponse{Items: newProductPayloads(views)})
}

type categoryListResponse struct {
	Items []categoryPayload `json:"items"`
}

func (h *PublicHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	items := make([]categoryPayload, 0, len(categories))
	for _, c := range categories {
		items = append(items, categoryPayload{ID: c.ID, Name: c.Name, Slug: c.Slug, ProductCount: c.ProductCount})
	}
	w.Header().Set("Cache-Control", publicCacheControl)
	writeJSONResponse(w, http.StatusOK, categoryListResponse{Items: items})
}

func (h *PublicHandlers) getStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "store service unavailable", http.StatusServiceUnavailable))
		return
	}
	info, err := h.store.GetStoreInfo(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Cache-Control", publicCacheControl)
	writeJSONResponse(w, http.StatusOK, newStorePayload(info))
}

func (h *PublicHandlers) storeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "store service unavailable", http.StatusServiceUnavailable))
		return
	}
	status, err := h.store.OpenStatus(ctx, h.clock())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.NoStore(w)
	writeJSONResponse(w, http.StatusOK, newStoreStatusPayload(status))
}

var errInvalidBool = errors.New("invalid boolean")

func parseOptionalBool(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %q", errInvalidBool, raw)
	}
	return value, nil
}
