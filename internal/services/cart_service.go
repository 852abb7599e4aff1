package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebchajari/Savia/internal/domain"
	"github.com/jwebchajari/Savia/internal/pricing"
	"github.com/jwebchajari/Savia/internal/repositories"
)

const (
	// DefaultCartTTL is how long an untouched cart survives.
	DefaultCartTTL         = 3 * time.Hour
	defaultCartMaxAttempts = 5
	maxSessionIDLength     = 128
	maxLineKeyLength       = 256
	maxCartLines           = 100
)

// CartMetrics records cart mutations and lost compare-and-set races.
type CartMetrics interface {
	CartMutated(ctx context.Context, op string)
	CartConflict(ctx context.Context, op string)
}

// CartServiceDeps wires the cart service.
type CartServiceDeps struct {
	Store       repositories.CartStore
	Catalog     repositories.CatalogRepository
	Metrics     CartMetrics
	TTL         time.Duration
	MaxAttempts int
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	SessionIDs  func() string
}

type cartService struct {
	store       repositories.CartStore
	catalog     repositories.CatalogRepository
	metrics     CartMetrics
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	logger      func(context.Context, string, map[string]any)
	newSession  func() string
}

var _ CartService = (*cartService)(nil)

// NewCartService constructs a CartService.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, errors.New("cart service: store is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("cart service: catalog repository is required")
	}
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	attempts := deps.MaxAttempts
	if attempts <= 0 {
		attempts = defaultCartMaxAttempts
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	newSession := deps.SessionIDs
	if newSession == nil {
		newSession = uuid.NewString
	}
	return &cartService{
		store:       deps.Store,
		catalog:     deps.Catalog,
		metrics:     deps.Metrics,
		ttl:         ttl,
		maxAttempts: attempts,
		now:         func() time.Time { return clock().UTC() },
		logger:      logger,
		newSession:  newSession,
	}, nil
}

func (s *cartService) NewSessionID() string { return s.newSession() }

func (s *cartService) GetCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	id, err := validSessionID(sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart, err := s.store.Load(ctx, id)
	if err != nil {
		return domain.Cart{}, translateCartError(err)
	}
	return cart, nil
}

// AddItem prices the product at the normalized amount and snapshots the price on a new
// line. Adding an existing line key only increments its quantity.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (domain.Cart, error) {
	id, err := validSessionID(cmd.SessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Cart{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Cart{}, ErrCartProductNotFound
		}
		return domain.Cart{}, translateCartError(err)
	}
	if !product.Available {
		return domain.Cart{}, fmt.Errorf("%w: %s is not available", ErrCartItemNotPurchasable, product.ID)
	}
	quote := pricing.QuoteProduct(product, cmd.Amount, amountOptions(product, cmd.Snap)...)
	if !quote.Purchasable() {
		return domain.Cart{}, fmt.Errorf("%w: amount %s has no price", ErrCartItemNotPurchasable, quote.AmountLabel)
	}

	key := domain.LineKey(product.ID, pricing.AmountKey(quote.Amount, product.SaleMode))
	return s.mutate(ctx, id, "add", func(cart *domain.Cart, now time.Time) error {
		if idx := cart.LineIndex(key); idx >= 0 {
			cart.Lines[idx].Quantity++
			return nil
		}
		if len(cart.Lines) >= maxCartLines {
			return fmt.Errorf("%w: cart is full", ErrCartInvalidInput)
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			Key:             key,
			ProductID:       product.ID,
			Name:            product.Name,
			SaleMode:        product.SaleMode,
			Amount:          quote.Amount,
			AmountLabel:     quote.AmountLabel,
			Quantity:        1,
			UnitPriceUsed:   quote.UnitPrice,
			DiscountPercent: quote.DiscountPercent,
			PackPrice:       quote.LineTotal,
			ImageURL:        product.ImageURL,
			AddedAt:         now,
		})
		return nil
	})
}

func (s *cartService) IncrementItem(ctx context.Context, sessionID, lineKey string) (domain.Cart, error) {
	return s.mutateLine(ctx, sessionID, lineKey, "increment", func(cart *domain.Cart, idx int) {
		cart.Lines[idx].Quantity++
	})
}

// DecrementItem removes the line when its quantity reaches zero.
func (s *cartService) DecrementItem(ctx context.Context, sessionID, lineKey string) (domain.Cart, error) {
	return s.mutateLine(ctx, sessionID, lineKey, "decrement", func(cart *domain.Cart, idx int) {
		cart.Lines[idx].Quantity--
		if cart.Lines[idx].Quantity <= 0 {
			cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
		}
	})
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, lineKey string) (domain.Cart, error) {
	return s.mutateLine(ctx, sessionID, lineKey, "remove", func(cart *domain.Cart, idx int) {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	})
}

func (s *cartService) SetDeliveryMethod(ctx context.Context, sessionID string, method domain.DeliveryMethod) (domain.Cart, error) {
	id, err := validSessionID(sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !method.Valid() {
		return domain.Cart{}, fmt.Errorf("%w: unknown delivery method %q", ErrCartInvalidInput, method)
	}
	return s.mutate(ctx, id, "delivery", func(cart *domain.Cart, _ time.Time) error {
		cart.DeliveryMethod = method
		return nil
	})
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	id, err := validSessionID(sessionID)
	if err != nil {
		return err
	}
	if err := s.store.Clear(ctx, id); err != nil {
		return translateCartError(err)
	}
	if s.metrics != nil {
		s.metrics.CartMutated(ctx, "clear")
	}
	return nil
}

func (s *cartService) mutateLine(ctx context.Context, sessionID, lineKey, op string, fn func(cart *domain.Cart, idx int)) (domain.Cart, error) {
	id, err := validSessionID(sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	key := strings.TrimSpace(lineKey)
	if key == "" || len(key) > maxLineKeyLength {
		return domain.Cart{}, fmt.Errorf("%w: line key is required", ErrCartInvalidInput)
	}
	return s.mutate(ctx, id, op, func(cart *domain.Cart, _ time.Time) error {
		idx := cart.LineIndex(key)
		if idx < 0 {
			return ErrCartNotFound
		}
		fn(cart, idx)
		return nil
	})
}

// mutate runs load, apply, compare-and-set save. A lost race reloads and reapplies fn,
// so concurrent increments are never dropped. Every save refreshes the expiry.
func (s *cartService) mutate(ctx context.Context, sessionID, op string, fn func(cart *domain.Cart, now time.Time) error) (domain.Cart, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		cart, err := s.store.Load(ctx, sessionID)
		if err != nil {
			return domain.Cart{}, translateCartError(err)
		}
		now := s.now()
		if err := fn(&cart, now); err != nil {
			return domain.Cart{}, err
		}
		cart.UpdatedAt = now
		cart.ExpiresAt = now.Add(s.ttl)

		saved, err := s.store.Save(ctx, cart)
		if err == nil {
			if s.metrics != nil {
				s.metrics.CartMutated(ctx, op)
			}
			return saved, nil
		}
		if !errors.Is(err, repositories.ErrCartVersionConflict) {
			return domain.Cart{}, translateCartError(err)
		}
		if s.metrics != nil {
			s.metrics.CartConflict(ctx, op)
		}
		s.logger(ctx, "cart.version_conflict", map[string]any{"op": op, "attempt": attempt, "version": cart.Version})
	}
	return domain.Cart{}, fmt.Errorf("%w: gave up after %d attempts", ErrCartConflict, s.maxAttempts)
}

func validSessionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxSessionIDLength {
		return "", fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	return id, nil
}

func translateCartError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, repositories.ErrCartVersionConflict) {
		return ErrCartConflict
	}
	return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
}
