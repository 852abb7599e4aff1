package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/platform/textutil"
	"github.com/jwebchajari/Savia/internal/pricing"
	"github.com/jwebchajari/Savia/internal/repositories"
)

const (
	whatsAppBaseURL        = "https://wa.me/"
	maxCheckoutAddressLen  = 300
	maxCheckoutNotesLength = 1000
)

// SummaryMetrics records built order summaries.
type SummaryMetrics interface {
	SummaryBuilt(ctx context.Context, method string, grandTotal int64)
}

// CheckoutServiceDeps wires the checkout service.
type CheckoutServiceDeps struct {
	Carts   repositories.CartStore
	Store   repositories.StoreRepository
	Builder *pricing.Builder
	// Phone is the WhatsApp number receiving orders; empty falls back to the store's
	// redes.whatsapp.
	Phone   string
	Metrics SummaryMetrics
	Logger  func(context.Context, string, map[string]any)
}

type checkoutService struct {
	carts   repositories.CartStore
	store   repositories.StoreRepository
	builder *pricing.Builder
	phone   string
	metrics SummaryMetrics
	logger  func(context.Context, string, map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart store is required")
	}
	if deps.Store == nil {
		return nil, errors.New("checkout service: store repository is required")
	}
	builder := deps.Builder
	if builder == nil {
		builder = pricing.NewBuilder()
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{
		carts:   deps.Carts,
		store:   deps.Store,
		builder: builder,
		phone:   textutil.Digits(deps.Phone),
		metrics: deps.Metrics,
		logger:  logger,
	}, nil
}

// PreviewOrder builds the summary for the session cart without touching it.
func (s *checkoutService) PreviewOrder(ctx context.Context, cmd CheckoutCommand) (CheckoutPreview, error) {
	preview, _, err := s.preview(ctx, cmd)
	return preview, err
}

// CompleteCheckout builds the final summary and empties the cart. The order itself is
// sent by the customer through the returned link. The cart is emptied with a versioned
// save so a line added after the summary was built fails the checkout instead of
// disappearing.
func (s *checkoutService) CompleteCheckout(ctx context.Context, cmd CheckoutCommand) (CheckoutPreview, error) {
	preview, cart, err := s.preview(ctx, cmd)
	if err != nil {
		return CheckoutPreview{}, err
	}
	if len(preview.Summary.Lines) == 0 {
		return CheckoutPreview{}, ErrCheckoutEmptyCart
	}

	emptied := domain.NewCart(cart.SessionID)
	emptied.Version = cart.Version
	emptied.DeliveryMethod = cart.DeliveryMethod
	emptied.UpdatedAt = cart.UpdatedAt
	emptied.ExpiresAt = cart.ExpiresAt
	if _, err := s.carts.Save(ctx, emptied); err != nil {
		if errors.Is(err, repositories.ErrCartVersionConflict) {
			return CheckoutPreview{}, fmt.Errorf("%w: cart changed during checkout", ErrCartConflict)
		}
		return CheckoutPreview{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	s.logger(ctx, "checkout.completed", map[string]any{
		"method":     string(preview.Summary.Method),
		"items":      preview.Summary.ItemCount,
		"grandTotal": preview.Summary.GrandTotal,
	})
	return preview, nil
}

func (s *checkoutService) preview(ctx context.Context, cmd CheckoutCommand) (CheckoutPreview, domain.Cart, error) {
	sessionID, err := validSessionID(cmd.SessionID)
	if err != nil {
		return CheckoutPreview{}, domain.Cart{}, fmt.Errorf("%w: session id is required", ErrCheckoutInvalidInput)
	}
	address := clean(cmd.Address, 0)
	notes := clean(cmd.Notes, 0)
	if len([]rune(address)) > maxCheckoutAddressLen || len([]rune(notes)) > maxCheckoutNotesLength {
		return CheckoutPreview{}, domain.Cart{}, fmt.Errorf("%w: address or notes too long", ErrCheckoutInvalidInput)
	}
	if cmd.Method != "" && !cmd.Method.Valid() {
		return CheckoutPreview{}, domain.Cart{}, fmt.Errorf("%w: unknown delivery method %q", ErrCheckoutInvalidInput, cmd.Method)
	}

	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return CheckoutPreview{}, domain.Cart{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	info, err := s.store.GetStoreInfo(ctx)
	if err != nil {
		return CheckoutPreview{}, domain.Cart{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	method := cmd.Method
	if method == "" {
		method = cart.DeliveryMethod
	}
	summary := s.builder.Build(pricing.SummaryInput{
		Lines:    cart.Lines,
		Delivery: domain.DeliveryContext{Method: method, Cost: info.DeliveryCost},
		Address:  address,
		Notes:    notes,
	})
	if s.metrics != nil {
		s.metrics.SummaryBuilt(ctx, string(summary.Method), summary.GrandTotal)
	}

	preview := CheckoutPreview{Summary: summary, DeliveryCost: info.DeliveryCost}
	phone := s.phone
	if phone == "" {
		phone = textutil.Digits(info.Social.WhatsApp)
	}
	if len(summary.Lines) > 0 && phone != "" {
		preview.WhatsAppURL = WhatsAppLink(phone, summary.Message)
		preview.CheckoutEnabled = true
	}
	return preview, cart, nil
}

// WhatsAppLink builds the wa.me deep link with the message percent-encoded.
func WhatsAppLink(phone, message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return whatsAppBaseURL + textutil.Digits(phone) + "?text=" + encoded
}
