package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwebchajari/Savia/internal/domain"
)

// CatalogService exposes the public catalog and admin product maintenance.
type CatalogService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]ProductView, error)
	GetProduct(ctx context.Context, productID string) (ProductView, error)
	QuoteProduct(ctx context.Context, cmd QuoteCommand) (ProductQuote, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	Recommended(ctx context.Context, limit int, exclude []string) ([]ProductView, error)
	UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (ProductView, error)
	DeleteProduct(ctx context.Context, cmd DeleteProductCommand) error
}

// StoreService reads and edits the store metadata.
type StoreService interface {
	GetStoreInfo(ctx context.Context) (domain.StoreInfo, error)
	OpenStatus(ctx context.Context, now time.Time) (domain.StoreStatus, error)
	UpdateStoreInfo(ctx context.Context, cmd UpdateStoreInfoCommand) (domain.StoreInfo, error)
}

// CartService mutates the per-session cart. Every mutation returns the cart as stored.
type CartService interface {
	NewSessionID() string
	GetCart(ctx context.Context, sessionID string) (domain.Cart, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (domain.Cart, error)
	IncrementItem(ctx context.Context, sessionID, lineKey string) (domain.Cart, error)
	DecrementItem(ctx context.Context, sessionID, lineKey string) (domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, lineKey string) (domain.Cart, error)
	SetDeliveryMethod(ctx context.Context, sessionID string, method domain.DeliveryMethod) (domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// CheckoutService turns a cart into the WhatsApp order handoff.
type CheckoutService interface {
	PreviewOrder(ctx context.Context, cmd CheckoutCommand) (CheckoutPreview, error)
	CompleteCheckout(ctx context.Context, cmd CheckoutCommand) (CheckoutPreview, error)
}

// SystemService reports service health.
type SystemService interface {
	HealthReport(ctx context.Context) (domain.SystemHealthReport, error)
}

// ProductView is a product priced for display at its default amount.
type ProductView struct {
	Product            domain.Product
	EffectivePrice     decimal.Decimal
	HasOffer           bool
	DiscountPercent    int
	DefaultAmount      float64
	DefaultAmountLabel string
	DefaultPrice       int64
}

// QuoteCommand asks for the price of a product at a raw amount.
type QuoteCommand struct {
	ProductID string
	Amount    any
	Snap      bool
}

// ProductQuote pairs the product with the quoted amount.
type ProductQuote struct {
	ProductID       string
	SaleMode        domain.SaleMode
	Amount          float64
	AmountLabel     string
	UnitPrice       decimal.Decimal
	DiscountPercent int
	LineTotal       int64
	Purchasable     bool
}

// UpsertProductCommand creates a product when ProductID is empty, otherwise replaces it.
type UpsertProductCommand struct {
	ProductID    string
	Name         string
	Description  string
	CategoryID   string
	CategoryName string
	SaleMode     string
	BasePrice    decimal.Decimal
	OfferPrice   decimal.NullDecimal
	Available    *bool
	ImageURL     string
	GeneralOffer bool
	WeeklyOffer  bool
	ActorID      string
}

// DeleteProductCommand removes a product.
type DeleteProductCommand struct {
	ProductID string
	ActorID   string
}

// UpdateStoreInfoCommand replaces the store metadata.
type UpdateStoreInfoCommand struct {
	Address      string
	DeliveryCost int64
	Social       domain.SocialLinks
	Hours        domain.WeeklySchedule
	ActorID      string
}

// AddCartItemCommand adds a product at a raw amount to the session cart.
type AddCartItemCommand struct {
	SessionID string
	ProductID string
	Amount    any
	Snap      bool
}

// CheckoutCommand carries the order form. An empty Method keeps the cart's method.
type CheckoutCommand struct {
	SessionID string
	Method    domain.DeliveryMethod
	Address   string
	Notes     string
}

// CheckoutPreview is the built summary plus the deep link that hands it to WhatsApp.
type CheckoutPreview struct {
	Summary         domain.OrderSummary
	DeliveryCost    int64
	WhatsAppURL     string
	CheckoutEnabled bool
}
