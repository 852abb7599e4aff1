package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryMethod indicates how the order reaches the customer.
type DeliveryMethod string

const (
	// DeliveryPickup means the customer collects the order at the store.
	DeliveryPickup DeliveryMethod = "pickup"
	// DeliveryHome means the store ships the order to the customer's address.
	DeliveryHome DeliveryMethod = "homeDelivery"
)

// Valid reports whether the method is one of the known values.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryPickup || m == DeliveryHome
}

// ParseDeliveryMethod accepts canonical names and the storefront spellings ("retiro", "domicilio").
func ParseDeliveryMethod(raw string) (DeliveryMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pickup", "retiro":
		return DeliveryPickup, true
	case "homedelivery", "home_delivery", "delivery", "domicilio":
		return DeliveryHome, true
	default:
		return "", false
	}
}

// DeliveryContext pairs the delivery method with the store's delivery cost.
// Cost only matters for home delivery.
type DeliveryContext struct {
	Method DeliveryMethod
	Cost   int64
}

// CartLine is one product at one normalized amount. Prices are a snapshot taken when
// the line was first added and are not re-read from the catalog afterwards.
type CartLine struct {
	Key             string          `json:"key"`
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	SaleMode        SaleMode        `json:"saleMode"`
	Amount          float64         `json:"amount"`
	AmountLabel     string          `json:"amountLabel"`
	Quantity        int             `json:"quantity"`
	UnitPriceUsed   decimal.Decimal `json:"unitPriceUsed"`
	DiscountPercent int             `json:"discountPercent"`
	PackPrice       int64           `json:"packPrice"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	AddedAt         time.Time       `json:"addedAt"`
}

// LineTotal is the snapshot price of one pack times the number of packs.
func (l CartLine) LineTotal() int64 {
	if l.Quantity <= 0 || l.PackPrice <= 0 {
		return 0
	}
	return l.PackPrice * int64(l.Quantity)
}

// LineKey builds the composite identifier of a cart line from the product and the exact
// amount key (e.g. "1231g"), never the rounded display label.
func LineKey(productID, amountKey string) string {
	return strings.TrimSpace(productID) + "@" + strings.TrimSpace(amountKey)
}

// Cart is the per-session collection of lines. ExpiresAt travels with the data so any
// store can decide expiry without ambient state.
type Cart struct {
	SessionID      string         `json:"sessionId"`
	Lines          []CartLine     `json:"lines"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	Version        int64          `json:"version"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	ExpiresAt      time.Time      `json:"expiresAt"`
}

// NewCart returns an empty cart for the session with pickup selected.
func NewCart(sessionID string) Cart {
	return Cart{
		SessionID:      sessionID,
		Lines:          []CartLine{},
		DeliveryMethod: DeliveryPickup,
	}
}

// Expired reports whether the cart's expiry lies strictly before now.
func (c Cart) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}

// LineIndex returns the position of the line with the key, or -1.
func (c Cart) LineIndex(key string) int {
	for i, line := range c.Lines {
		if line.Key == key {
			return i
		}
	}
	return -1
}

// ItemCount sums the quantity of every line.
func (c Cart) ItemCount() int {
	total := 0
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			total += line.Quantity
		}
	}
	return total
}

// Subtotal sums every line total.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.LineTotal()
	}
	return total
}

// Clone returns a deep copy so callers can mutate lines without aliasing stored state.
func (c Cart) Clone() Cart {
	out := c
	out.Lines = make([]CartLine, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}

// OrderSummary is the derived, never persisted aggregate handed to the messaging channel.
type OrderSummary struct {
	Method     DeliveryMethod
	Lines      []CartLine
	ItemCount  int
	Subtotal   int64
	Shipping   int64
	GrandTotal int64
	Message    string
}
